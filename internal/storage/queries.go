package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"budgettracker/internal/core"
	applog "budgettracker/internal/log"
)

// collection enumerates the entry tables. Table names never come from
// callers: each variant maps to its own fixed set of statements.
type collection int

const (
	expenses collection = iota + 1
	income
)

type entryQueries struct {
	table            string
	entity           string
	insert           string
	list             string
	listByCategory   string
	get              string
	updateByID       string
	updateByCategory string
	deleteByCategory string
	amounts          string
}

var entrySQL = map[collection]entryQueries{
	expenses: {
		table:            "expenses",
		entity:           "expense",
		insert:           `INSERT INTO expenses (category, amount, date) VALUES (?, ?, ?)`,
		list:             `SELECT id, category, amount, date FROM expenses ORDER BY id`,
		listByCategory:   `SELECT id, category, amount, date FROM expenses WHERE category = ? ORDER BY id`,
		get:              `SELECT id, category, amount, date FROM expenses WHERE id = ?`,
		updateByID:       `UPDATE expenses SET amount = ? WHERE id = ?`,
		updateByCategory: `UPDATE expenses SET amount = ? WHERE category = ?`,
		deleteByCategory: `DELETE FROM expenses WHERE category = ?`,
		amounts:          `SELECT amount FROM expenses`,
	},
	income: {
		table:            "income",
		entity:           "income",
		insert:           `INSERT INTO income (category, amount, date) VALUES (?, ?, ?)`,
		list:             `SELECT id, category, amount, date FROM income ORDER BY id`,
		listByCategory:   `SELECT id, category, amount, date FROM income WHERE category = ? ORDER BY id`,
		get:              `SELECT id, category, amount, date FROM income WHERE id = ?`,
		updateByID:       `UPDATE income SET amount = ? WHERE id = ?`,
		updateByCategory: `UPDATE income SET amount = ? WHERE category = ?`,
		deleteByCategory: `DELETE FROM income WHERE category = ?`,
		amounts:          `SELECT amount FROM income`,
	},
}

const (
	upsertBudgetSQL = `INSERT INTO budgets (category, budget_limit) VALUES (?, ?)
ON CONFLICT(category) DO UPDATE SET budget_limit = excluded.budget_limit
RETURNING id`
	getBudgetSQL    = `SELECT id, category, budget_limit FROM budgets WHERE category = ?`
	listBudgetsSQL  = `SELECT id, category, budget_limit FROM budgets ORDER BY category`
	deleteBudgetSQL = `DELETE FROM budgets WHERE category = ?`

	insertGoalSQL         = `INSERT INTO goals (goal, target_amount, progress) VALUES (?, ?, ?)`
	listGoalsSQL          = `SELECT id, goal, target_amount, progress FROM goals ORDER BY id`
	getGoalSQL            = `SELECT id, goal, target_amount, progress FROM goals WHERE id = ?`
	updateGoalProgressSQL = `UPDATE goals SET progress = ? WHERE id = ?`
	deleteGoalSQL         = `DELETE FROM goals WHERE id = ?`
)

// entry is the row shape shared by expenses and income.
type entry core.Expense

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *LedgerStore) addEntry(ctx context.Context, c collection, category, amount, date string) (core.RecordID, error) {
	q := entrySQL[c]
	if err := core.ValidateCategory(category); err != nil {
		return 0, err
	}
	money, err := core.ParseAmount("amount", amount)
	if err != nil {
		return 0, err
	}

	var id core.RecordID
	err = r.withTx(ctx, "add "+q.entity, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, q.insert, category, money.String(), date)
		if err != nil {
			return fmt.Errorf("insert %s: %w", q.entity, err)
		}
		last, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("read %s id: %w", q.entity, err)
		}
		id = core.RecordID(last)
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.events.LogRecordCreated(ctx, q.table, int64(id), category, money.String())
	return id, nil
}

func (r *LedgerStore) updateEntryAmount(ctx context.Context, c collection, target core.Identifier, newAmount string) (int64, error) {
	q := entrySQL[c]
	if err := target.Validate(); err != nil {
		return 0, err
	}
	money, err := core.ParseAmount("new amount", newAmount)
	if err != nil {
		return 0, err
	}

	var n int64
	err = r.withTx(ctx, "update "+q.entity+" amount", func(tx *sql.Tx) error {
		var res sql.Result
		var err error
		if id, ok := target.ID(); ok {
			res, err = tx.ExecContext(ctx, q.updateByID, money.String(), int64(id))
		} else {
			category, _ := target.Category()
			res, err = tx.ExecContext(ctx, q.updateByCategory, money.String(), category)
		}
		if err != nil {
			return fmt.Errorf("update %s amount: %w", q.entity, err)
		}
		if n, err = res.RowsAffected(); err != nil {
			return err
		}
		if n == 0 {
			return &core.NotFoundError{Entity: q.entity, Key: target.String()}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.events.LogRowsAffected(ctx, q.table, applog.OpUpdate, n)
	return n, nil
}

// listEntries lists a whole collection, or one category of it when category is set.
func (r *LedgerStore) listEntries(ctx context.Context, c collection, category string) ([]entry, error) {
	q := entrySQL[c]
	out := make([]entry, 0)
	err := r.withTx(ctx, "list "+q.table, func(tx *sql.Tx) error {
		var rows *sql.Rows
		var err error
		if category == "" {
			rows, err = tx.QueryContext(ctx, q.list)
		} else {
			rows, err = tx.QueryContext(ctx, q.listByCategory, category)
		}
		if err != nil {
			return fmt.Errorf("query %s: %w", q.table, err)
		}
		defer rows.Close()

		for rows.Next() {
			e, err := scanEntry(rows)
			if err != nil {
				return err
			}
			out = append(out, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *LedgerStore) getEntry(ctx context.Context, c collection, id core.RecordID) (entry, error) {
	q := entrySQL[c]
	var e entry
	err := r.withTx(ctx, "get "+q.entity, func(tx *sql.Tx) error {
		var err error
		e, err = scanEntry(tx.QueryRowContext(ctx, q.get, int64(id)))
		if errors.Is(err, sql.ErrNoRows) {
			return &core.NotFoundError{Entity: q.entity, Key: core.ByID(id).String()}
		}
		return err
	})
	return e, err
}

func (r *LedgerStore) deleteEntries(ctx context.Context, c collection, category string) (int64, error) {
	q := entrySQL[c]
	if err := core.ValidateCategory(category); err != nil {
		return 0, err
	}

	var n int64
	err := r.withTx(ctx, "delete "+q.table, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, q.deleteByCategory, category)
		if err != nil {
			return fmt.Errorf("delete %s: %w", q.table, err)
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}

	r.events.LogRowsAffected(ctx, q.table, applog.OpDelete, n)
	return n, nil
}

func sumAmounts(ctx context.Context, tx *sql.Tx, c collection) (decimal.Decimal, error) {
	q := entrySQL[c]
	rows, err := tx.QueryContext(ctx, q.amounts)
	if err != nil {
		return decimal.Zero, fmt.Errorf("query %s amounts: %w", q.table, err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, fmt.Errorf("scan %s amount: %w", q.table, err)
		}
		d, err := parseStored(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%s: %w", q.table, err)
		}
		total = total.Add(d)
	}
	return total, rows.Err()
}

func scanEntry(s rowScanner) (entry, error) {
	var (
		e      entry
		id     int64
		amount string
	)
	if err := s.Scan(&id, &e.Category, &amount, &e.Date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entry{}, err
		}
		return entry{}, fmt.Errorf("scan entry: %w", err)
	}
	d, err := parseStored(amount)
	if err != nil {
		return entry{}, err
	}
	e.ID = core.RecordID(id)
	e.Amount = core.NewMoney(d)
	return e, nil
}

func scanBudget(s rowScanner) (core.Budget, error) {
	var (
		b     core.Budget
		id    int64
		limit string
	)
	if err := s.Scan(&id, &b.Category, &limit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Budget{}, err
		}
		return core.Budget{}, fmt.Errorf("scan budget: %w", err)
	}
	d, err := parseStored(limit)
	if err != nil {
		return core.Budget{}, err
	}
	b.ID = core.RecordID(id)
	b.Limit = core.NewMoney(d)
	return b, nil
}

func scanGoal(s rowScanner) (core.Goal, error) {
	var (
		g                core.Goal
		id               int64
		target, progress string
	)
	if err := s.Scan(&id, &g.Goal, &target, &progress); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Goal{}, err
		}
		return core.Goal{}, fmt.Errorf("scan goal: %w", err)
	}
	t, err := parseStored(target)
	if err != nil {
		return core.Goal{}, err
	}
	p, err := parseStored(progress)
	if err != nil {
		return core.Goal{}, err
	}
	g.ID = core.RecordID(id)
	g.Target = core.NewMoney(t)
	g.Progress = core.NewMoney(p)
	return g, nil
}

// parseStored reads an amount column back into a decimal.
func parseStored(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt stored amount %q: %w", raw, err)
	}
	return d, nil
}

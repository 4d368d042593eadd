package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"budgettracker/internal/core"
	applog "budgettracker/internal/log"

	_ "modernc.org/sqlite"
)

// LedgerStore owns the four ledger collections in a single SQLite file.
// Every method runs in its own transaction, so a failed call leaves the
// file exactly as it was.
type LedgerStore struct {
	db     *sql.DB
	path   string
	logger *applog.Logger
	events *applog.StructuredLogger
}

// NewLedgerStore opens (creating if needed) the database at dbPath and
// applies the schema. A nil logger falls back to a stderr text logger.
func NewLedgerStore(ctx context.Context, dbPath string, logger *applog.Logger) (*LedgerStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, &core.StorageError{Op: "open", Err: fmt.Errorf("create db directory: %w", err)}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, &core.StorageError{Op: "open", Err: fmt.Errorf("open sqlite database: %w", err)}
	}
	// One connection for the process lifetime
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &core.StorageError{Op: "open", Err: fmt.Errorf("ping database: %w", err)}
	}

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		db.Close()
		return nil, &core.StorageError{Op: "open", Err: fmt.Errorf("configure database: %w", err)}
	}

	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentStorage)

	store := &LedgerStore{
		db:     db,
		path:   dbPath,
		logger: logger,
		events: applog.NewStructuredLogger(logger),
	}

	if err := store.Initialize(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Initialize creates the ledger tables if they are absent. Safe to call on
// every startup.
func (r *LedgerStore) Initialize(ctx context.Context) error {
	start := time.Now()
	if err := RunMigrations(r.path); err != nil {
		r.events.LogError(ctx, "Schema migration failed", err, applog.ErrorTypeDatabase, applog.OpMigrate,
			applog.NewFields().WithComponent(applog.ComponentMigrate))
		return &core.StorageError{Op: "initialize", Err: err}
	}
	r.logger.DebugContext(ctx, "Ledger schema ready", applog.FieldPath, r.path,
		applog.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// Close releases the database connection.
func (r *LedgerStore) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Path returns the database file backing the store.
func (r *LedgerStore) Path() string {
	return r.path
}

// withTx runs fn in a transaction. Errors that are not already a ledger
// error kind are reported as *core.StorageError.
func (r *LedgerStore) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return r.storageError(ctx, op, fmt.Errorf("begin transaction: %w", err))
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		if core.IsValidation(err) || core.IsNotFound(err) || core.IsStorage(err) {
			return err
		}
		return r.storageError(ctx, op, err)
	}

	if err := tx.Commit(); err != nil {
		return r.storageError(ctx, op, fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

func (r *LedgerStore) storageError(ctx context.Context, op string, err error) error {
	r.events.LogError(ctx, "Ledger storage failure", err, applog.ErrorTypeDatabase, op, nil)
	return &core.StorageError{Op: op, Err: err}
}

// Expenses

// AddExpense records a new expense and returns its id.
func (r *LedgerStore) AddExpense(ctx context.Context, category, amount, date string) (core.RecordID, error) {
	return r.addEntry(ctx, expenses, category, amount, date)
}

// UpdateExpenseAmount sets the amount of the expense with a given id, or of
// every expense in a category. It returns the number of rows changed and a
// *core.NotFoundError when nothing matched.
func (r *LedgerStore) UpdateExpenseAmount(ctx context.Context, target core.Identifier, newAmount string) (int64, error) {
	return r.updateEntryAmount(ctx, expenses, target, newAmount)
}

// ListExpenses returns every expense. An empty ledger yields an empty, non-nil slice.
func (r *LedgerStore) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.listEntries(ctx, expenses, "")
	if err != nil {
		return nil, err
	}
	out := make([]core.Expense, len(rows))
	for i, e := range rows {
		out[i] = core.Expense(e)
	}
	return out, nil
}

// ListExpensesByCategory returns the expenses filed under category.
func (r *LedgerStore) ListExpensesByCategory(ctx context.Context, category string) ([]core.Expense, error) {
	if err := core.ValidateCategory(category); err != nil {
		return nil, err
	}
	rows, err := r.listEntries(ctx, expenses, category)
	if err != nil {
		return nil, err
	}
	out := make([]core.Expense, len(rows))
	for i, e := range rows {
		out[i] = core.Expense(e)
	}
	return out, nil
}

// GetExpense looks up a single expense by id.
func (r *LedgerStore) GetExpense(ctx context.Context, id core.RecordID) (core.Expense, error) {
	e, err := r.getEntry(ctx, expenses, id)
	return core.Expense(e), err
}

// DeleteExpensesByCategory removes every expense in category and reports
// how many rows went. Deleting an unused category is not an error.
func (r *LedgerStore) DeleteExpensesByCategory(ctx context.Context, category string) (int64, error) {
	return r.deleteEntries(ctx, expenses, category)
}

// Income

// AddIncome records a new income entry and returns its id.
func (r *LedgerStore) AddIncome(ctx context.Context, category, amount, date string) (core.RecordID, error) {
	return r.addEntry(ctx, income, category, amount, date)
}

// UpdateIncomeAmount mirrors UpdateExpenseAmount for income.
func (r *LedgerStore) UpdateIncomeAmount(ctx context.Context, target core.Identifier, newAmount string) (int64, error) {
	return r.updateEntryAmount(ctx, income, target, newAmount)
}

func (r *LedgerStore) ListIncome(ctx context.Context) ([]core.Income, error) {
	rows, err := r.listEntries(ctx, income, "")
	if err != nil {
		return nil, err
	}
	out := make([]core.Income, len(rows))
	for i, e := range rows {
		out[i] = core.Income(e)
	}
	return out, nil
}

func (r *LedgerStore) ListIncomeByCategory(ctx context.Context, category string) ([]core.Income, error) {
	if err := core.ValidateCategory(category); err != nil {
		return nil, err
	}
	rows, err := r.listEntries(ctx, income, category)
	if err != nil {
		return nil, err
	}
	out := make([]core.Income, len(rows))
	for i, e := range rows {
		out[i] = core.Income(e)
	}
	return out, nil
}

func (r *LedgerStore) GetIncome(ctx context.Context, id core.RecordID) (core.Income, error) {
	e, err := r.getEntry(ctx, income, id)
	return core.Income(e), err
}

func (r *LedgerStore) DeleteIncomeByCategory(ctx context.Context, category string) (int64, error) {
	return r.deleteEntries(ctx, income, category)
}

// Budgets

// SetBudget sets the limit for category, replacing any earlier limit while
// keeping the row's id.
func (r *LedgerStore) SetBudget(ctx context.Context, category, limit string) (core.Budget, error) {
	if err := core.ValidateCategory(category); err != nil {
		return core.Budget{}, err
	}
	amount, err := core.ParseAmount("budget limit", limit)
	if err != nil {
		return core.Budget{}, err
	}

	budget := core.Budget{Category: category, Limit: amount}
	err = r.withTx(ctx, "set budget", func(tx *sql.Tx) error {
		var id int64
		if err := tx.QueryRowContext(ctx, upsertBudgetSQL, category, amount.String()).Scan(&id); err != nil {
			return fmt.Errorf("upsert budget: %w", err)
		}
		budget.ID = core.RecordID(id)
		return nil
	})
	if err != nil {
		return core.Budget{}, err
	}

	r.logger.InfoContext(ctx, "Budget set",
		applog.FieldRecordID, int64(budget.ID),
		applog.FieldCategory, category,
		applog.FieldAmount, amount.String(),
		applog.FieldOperation, applog.OpUpsert)
	return budget, nil
}

// GetBudget returns the budget for category, or a *core.NotFoundError.
func (r *LedgerStore) GetBudget(ctx context.Context, category string) (core.Budget, error) {
	if err := core.ValidateCategory(category); err != nil {
		return core.Budget{}, err
	}

	var budget core.Budget
	err := r.withTx(ctx, "get budget", func(tx *sql.Tx) error {
		var err error
		budget, err = scanBudget(tx.QueryRowContext(ctx, getBudgetSQL, category))
		if errors.Is(err, sql.ErrNoRows) {
			return &core.NotFoundError{Entity: "budget", Key: core.ByCategory(category).String()}
		}
		return err
	})
	return budget, err
}

// ListBudgets returns every budget ordered by category.
func (r *LedgerStore) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	budgets := make([]core.Budget, 0)
	err := r.withTx(ctx, "list budgets", func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, listBudgetsSQL)
		if err != nil {
			return fmt.Errorf("query budgets: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			b, err := scanBudget(rows)
			if err != nil {
				return err
			}
			budgets = append(budgets, b)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return budgets, nil
}

// DeleteBudgetsByCategory removes the budget for category, if any.
func (r *LedgerStore) DeleteBudgetsByCategory(ctx context.Context, category string) (int64, error) {
	if err := core.ValidateCategory(category); err != nil {
		return 0, err
	}
	var n int64
	err := r.withTx(ctx, "delete budget", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, deleteBudgetSQL, category)
		if err != nil {
			return fmt.Errorf("delete budget: %w", err)
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	r.events.LogRowsAffected(ctx, "budgets", applog.OpDelete, n)
	return n, nil
}

// Goals

// SetGoal records a savings goal with zero progress.
func (r *LedgerStore) SetGoal(ctx context.Context, description, target string) (core.RecordID, error) {
	if err := core.ValidateDescription(description); err != nil {
		return 0, err
	}
	amount, err := core.ParseAmount("target amount", target)
	if err != nil {
		return 0, err
	}

	var id core.RecordID
	err = r.withTx(ctx, "set goal", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, insertGoalSQL, description, amount.String(), decimal.Zero.String())
		if err != nil {
			return fmt.Errorf("insert goal: %w", err)
		}
		last, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("read goal id: %w", err)
		}
		id = core.RecordID(last)
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.events.LogRecordCreated(ctx, "goals", int64(id), description, amount.String())
	return id, nil
}

// ListGoals returns every goal in id order.
func (r *LedgerStore) ListGoals(ctx context.Context) ([]core.Goal, error) {
	goals := make([]core.Goal, 0)
	err := r.withTx(ctx, "list goals", func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, listGoalsSQL)
		if err != nil {
			return fmt.Errorf("query goals: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			g, err := scanGoal(rows)
			if err != nil {
				return err
			}
			goals = append(goals, g)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return goals, nil
}

// GetGoal looks up a single goal by id.
func (r *LedgerStore) GetGoal(ctx context.Context, id core.RecordID) (core.Goal, error) {
	var goal core.Goal
	err := r.withTx(ctx, "get goal", func(tx *sql.Tx) error {
		var err error
		goal, err = scanGoal(tx.QueryRowContext(ctx, getGoalSQL, int64(id)))
		if errors.Is(err, sql.ErrNoRows) {
			return &core.NotFoundError{Entity: "goal", Key: core.ByID(id).String()}
		}
		return err
	})
	return goal, err
}

// UpdateGoalProgress overwrites the saved amount of a goal. Progress is not
// checked against the target.
func (r *LedgerStore) UpdateGoalProgress(ctx context.Context, id core.RecordID, progress string) error {
	amount, err := core.ParseAmount("progress", progress)
	if err != nil {
		return err
	}

	err = r.withTx(ctx, "update goal progress", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, updateGoalProgressSQL, amount.String(), int64(id))
		if err != nil {
			return fmt.Errorf("update goal progress: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return &core.NotFoundError{Entity: "goal", Key: core.ByID(id).String()}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.events.LogRowsAffected(ctx, "goals", applog.OpUpdate, 1)
	return nil
}

// DeleteGoal removes the goal with id, or returns a *core.NotFoundError.
func (r *LedgerStore) DeleteGoal(ctx context.Context, id core.RecordID) error {
	err := r.withTx(ctx, "delete goal", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, deleteGoalSQL, int64(id))
		if err != nil {
			return fmt.Errorf("delete goal: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return &core.NotFoundError{Entity: "goal", Key: core.ByID(id).String()}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.events.LogRowsAffected(ctx, "goals", applog.OpDelete, 1)
	return nil
}

// Aggregates

// CalculateRemainingBudget returns total income minus total expenses over
// the whole ledger. The result is negative on a shortfall.
func (r *LedgerStore) CalculateRemainingBudget(ctx context.Context) (decimal.Decimal, error) {
	summary, err := r.Summary(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return summary.Remaining.Amount, nil
}

// Summary returns both totals together with the remainder, read in one
// transaction so they are consistent with each other.
func (r *LedgerStore) Summary(ctx context.Context) (core.BudgetSummary, error) {
	var totalIncome, totalExpenses decimal.Decimal
	err := r.withTx(ctx, "calculate remaining budget", func(tx *sql.Tx) error {
		var err error
		if totalIncome, err = sumAmounts(ctx, tx, income); err != nil {
			return err
		}
		totalExpenses, err = sumAmounts(ctx, tx, expenses)
		return err
	})
	if err != nil {
		return core.BudgetSummary{}, err
	}

	summary := core.Summarize(totalIncome, totalExpenses)
	r.logger.DebugContext(ctx, "Remaining budget calculated",
		"income", totalIncome.String(),
		"expenses", totalExpenses.String(),
		"remaining", summary.Remaining.String(),
		applog.FieldOperation, applog.OpAggregate)
	return summary, nil
}

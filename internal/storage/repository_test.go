package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgettracker/internal/core"
	applog "budgettracker/internal/log"
)

func newTestStore(t *testing.T) *LedgerStore {
	t.Helper()
	store, err := NewLedgerStore(context.Background(), filepath.Join(t.TempDir(), "ledger.db"), applog.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewLedgerStore_InitializeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Initialize(ctx))
	require.NoError(t, store.Initialize(ctx))

	version, dirty, err := SchemaVersion(store.Path())
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)
}

// legacySchema is the layout written by the first release of the tracker:
// REAL amounts and no uniqueness on budget categories.
const legacySchema = `
CREATE TABLE expenses (id INTEGER PRIMARY KEY, category TEXT NOT NULL, amount REAL NOT NULL, date TEXT NOT NULL);
CREATE TABLE income (id INTEGER PRIMARY KEY, category TEXT NOT NULL, amount REAL NOT NULL, date TEXT NOT NULL);
CREATE TABLE budgets (id INTEGER PRIMARY KEY, category TEXT NOT NULL, budget_limit REAL NOT NULL);
CREATE TABLE goals (id INTEGER PRIMARY KEY, goal TEXT NOT NULL, target_amount REAL NOT NULL, progress REAL DEFAULT 0);
INSERT INTO expenses (category, amount, date) VALUES ('food', 12.5, '01-01-2024');
INSERT INTO income (category, amount, date) VALUES ('salary', 100, '01-01-2024');
INSERT INTO budgets (category, budget_limit) VALUES ('food', 50), ('food', 75.25), ('fuel', 20);
INSERT INTO goals (goal, target_amount) VALUES ('new bike', 800);
`

func TestNewLedgerStore_UpgradesLegacyFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "budget_tracker.db")

	legacy, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = legacy.ExecContext(ctx, legacySchema)
	require.NoError(t, err)
	require.NoError(t, legacy.Close())

	store, err := NewLedgerStore(ctx, path, applog.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	budgets, err := store.ListBudgets(ctx)
	require.NoError(t, err)
	require.Len(t, budgets, 2)
	assert.Equal(t, "food", budgets[0].Category)
	assert.True(t, budgets[0].Limit.Equal(core.MustParseAmount("75.25")), "latest legacy row wins")

	updated, err := store.SetBudget(ctx, "food", "100")
	require.NoError(t, err)
	assert.Equal(t, budgets[0].ID, updated.ID)

	got, err := store.GetBudget(ctx, "food")
	require.NoError(t, err)
	assert.True(t, got.Limit.Equal(core.MustParseAmount("100")))

	goals, err := store.ListGoals(ctx)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.True(t, goals[0].Progress.IsZero())
	require.NoError(t, store.UpdateGoalProgress(ctx, goals[0].ID, "150"))

	remaining, err := store.CalculateRemainingBudget(ctx)
	require.NoError(t, err)
	assert.True(t, remaining.Equal(decimal.RequireFromString("87.5")))

	version, dirty, err := SchemaVersion(path)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)
}

func TestNewLedgerStore_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", "budget_tracker.db")
	store, err := NewLedgerStore(context.Background(), path, applog.Discard())
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, path, store.Path())
}

func TestLedgerStore_DataSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	store, err := NewLedgerStore(ctx, path, applog.Discard())
	require.NoError(t, err)
	id, err := store.AddExpense(ctx, "food", "12.50", "01-02-2024")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewLedgerStore(ctx, path, applog.Discard())
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetExpense(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "food", got.Category)
	assert.True(t, got.Amount.Equal(core.MustParseAmount("12.5")))
}

func TestAddExpense(t *testing.T) {
	ctx := context.Background()

	t.Run("listed_by_category", func(t *testing.T) {
		store := newTestStore(t)
		id, err := store.AddExpense(ctx, "groceries", "23.40", "05-03-2024")
		require.NoError(t, err)
		assert.NotZero(t, id)

		_, err = store.AddExpense(ctx, "rent", "900", "01-03-2024")
		require.NoError(t, err)

		got, err := store.ListExpensesByCategory(ctx, "groceries")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, id, got[0].ID)
		assert.Equal(t, "groceries", got[0].Category)
		assert.Equal(t, "05-03-2024", got[0].Date)
		assert.True(t, got[0].Amount.Equal(core.MustParseAmount("23.4")))
	})

	t.Run("invalid_amount_writes_nothing", func(t *testing.T) {
		store := newTestStore(t)
		for _, bad := range []string{"", "abc", "12.3.4", "NaN", "1,234", "1e30000000", "1e2147483647"} {
			_, err := store.AddExpense(ctx, "food", bad, "01-01-2024")
			require.Error(t, err, bad)
			assert.True(t, core.IsValidation(err), bad)
			assert.ErrorIs(t, err, core.ErrInvalidAmount)
		}

		all, err := store.ListExpenses(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("empty_category", func(t *testing.T) {
		store := newTestStore(t)
		_, err := store.AddExpense(ctx, "  ", "10", "01-01-2024")
		assert.ErrorIs(t, err, core.ErrEmptyCategory)
	})
}

func TestListExpenses_EmptyIsNotNil(t *testing.T) {
	store := newTestStore(t)
	got, err := store.ListExpenses(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Len(t, got, 0)
}

func TestUpdateExpenseAmount(t *testing.T) {
	ctx := context.Background()

	t.Run("by_id", func(t *testing.T) {
		store := newTestStore(t)
		id, err := store.AddExpense(ctx, "food", "10", "01-01-2024")
		require.NoError(t, err)
		other, err := store.AddExpense(ctx, "food", "20", "02-01-2024")
		require.NoError(t, err)

		n, err := store.UpdateExpenseAmount(ctx, core.ByID(id), "15.75")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		got, err := store.GetExpense(ctx, id)
		require.NoError(t, err)
		assert.True(t, got.Amount.Equal(core.MustParseAmount("15.75")))

		untouched, err := store.GetExpense(ctx, other)
		require.NoError(t, err)
		assert.True(t, untouched.Amount.Equal(core.MustParseAmount("20")))
	})

	t.Run("by_category_updates_all_rows", func(t *testing.T) {
		store := newTestStore(t)
		for _, amt := range []string{"1", "2", "3"} {
			_, err := store.AddExpense(ctx, "travel", amt, "01-01-2024")
			require.NoError(t, err)
		}
		_, err := store.AddExpense(ctx, "food", "9", "01-01-2024")
		require.NoError(t, err)

		n, err := store.UpdateExpenseAmount(ctx, core.ByCategory("travel"), "5")
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		travel, err := store.ListExpensesByCategory(ctx, "travel")
		require.NoError(t, err)
		for _, e := range travel {
			assert.True(t, e.Amount.Equal(core.MustParseAmount("5")))
		}
		food, err := store.ListExpensesByCategory(ctx, "food")
		require.NoError(t, err)
		require.Len(t, food, 1)
		assert.True(t, food[0].Amount.Equal(core.MustParseAmount("9")))
	})

	t.Run("no_match", func(t *testing.T) {
		store := newTestStore(t)
		_, err := store.UpdateExpenseAmount(ctx, core.ByID(42), "5")
		var nf *core.NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, "expense", nf.Entity)

		_, err = store.UpdateExpenseAmount(ctx, core.ByCategory("rent"), "5")
		assert.True(t, core.IsNotFound(err))
	})

	t.Run("invalid_amount", func(t *testing.T) {
		store := newTestStore(t)
		id, err := store.AddExpense(ctx, "food", "10", "01-01-2024")
		require.NoError(t, err)

		_, err = store.UpdateExpenseAmount(ctx, core.ByID(id), "ten")
		assert.True(t, core.IsValidation(err))

		got, err := store.GetExpense(ctx, id)
		require.NoError(t, err)
		assert.True(t, got.Amount.Equal(core.MustParseAmount("10")))
	})

	t.Run("zero_identifier", func(t *testing.T) {
		store := newTestStore(t)
		_, err := store.UpdateExpenseAmount(ctx, core.Identifier{}, "5")
		assert.ErrorIs(t, err, core.ErrInvalidIdentifier)
	})
}

func TestDeleteExpensesByCategory(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.AddExpense(ctx, "food", "10", "01-01-2024")
	require.NoError(t, err)
	_, err = store.AddExpense(ctx, "food", "11", "02-01-2024")
	require.NoError(t, err)
	_, err = store.AddExpense(ctx, "fuel", "40", "02-01-2024")
	require.NoError(t, err)

	n, err := store.DeleteExpensesByCategory(ctx, "rent")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	all, err := store.ListExpenses(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	n, err = store.DeleteExpensesByCategory(ctx, "food")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	all, err = store.ListExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "fuel", all[0].Category)
}

func TestIncome(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	salary, err := store.AddIncome(ctx, "salary", "2500", "28-02-2024")
	require.NoError(t, err)
	_, err = store.AddIncome(ctx, "gift", "50", "14-02-2024")
	require.NoError(t, err)

	_, err = store.AddIncome(ctx, "salary", "lots", "28-02-2024")
	assert.True(t, core.IsValidation(err))

	bySalary, err := store.ListIncomeByCategory(ctx, "salary")
	require.NoError(t, err)
	require.Len(t, bySalary, 1)
	assert.Equal(t, salary, bySalary[0].ID)

	n, err := store.UpdateIncomeAmount(ctx, core.ByID(salary), "2600")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := store.GetIncome(ctx, salary)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(core.MustParseAmount("2600")))

	n, err = store.DeleteIncomeByCategory(ctx, "gift")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	all, err := store.ListIncome(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = store.GetIncome(ctx, 999)
	assert.True(t, core.IsNotFound(err))
}

func TestSetBudget(t *testing.T) {
	ctx := context.Background()

	t.Run("upsert_keeps_single_row", func(t *testing.T) {
		store := newTestStore(t)
		first, err := store.SetBudget(ctx, "food", "300")
		require.NoError(t, err)
		second, err := store.SetBudget(ctx, "food", "250.50")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		budgets, err := store.ListBudgets(ctx)
		require.NoError(t, err)
		require.Len(t, budgets, 1)
		assert.True(t, budgets[0].Limit.Equal(core.MustParseAmount("250.5")))
	})

	t.Run("lookup_filters_by_category", func(t *testing.T) {
		store := newTestStore(t)
		_, err := store.SetBudget(ctx, "food", "300")
		require.NoError(t, err)
		_, err = store.SetBudget(ctx, "fuel", "120")
		require.NoError(t, err)

		food, err := store.GetBudget(ctx, "food")
		require.NoError(t, err)
		assert.Equal(t, "food", food.Category)
		assert.True(t, food.Limit.Equal(core.MustParseAmount("300")))

		_, err = store.GetBudget(ctx, "rent")
		assert.True(t, core.IsNotFound(err))
	})

	t.Run("invalid_limit", func(t *testing.T) {
		store := newTestStore(t)
		_, err := store.SetBudget(ctx, "food", "three hundred")
		assert.True(t, core.IsValidation(err))

		budgets, err := store.ListBudgets(ctx)
		require.NoError(t, err)
		assert.Empty(t, budgets)
	})

	t.Run("delete", func(t *testing.T) {
		store := newTestStore(t)
		_, err := store.SetBudget(ctx, "food", "300")
		require.NoError(t, err)

		n, err := store.DeleteBudgetsByCategory(ctx, "food")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		_, err = store.GetBudget(ctx, "food")
		assert.True(t, core.IsNotFound(err))
	})
}

func TestGoals(t *testing.T) {
	ctx := context.Background()

	t.Run("set_and_progress", func(t *testing.T) {
		store := newTestStore(t)
		id, err := store.SetGoal(ctx, "new bike", "800")
		require.NoError(t, err)

		goal, err := store.GetGoal(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "new bike", goal.Goal)
		assert.True(t, goal.Progress.IsZero())

		// progress is allowed to exceed the target
		require.NoError(t, store.UpdateGoalProgress(ctx, id, "950"))
		goal, err = store.GetGoal(ctx, id)
		require.NoError(t, err)
		assert.True(t, goal.Progress.Equal(core.MustParseAmount("950")))
		assert.True(t, goal.Target.Equal(core.MustParseAmount("800")))
	})

	t.Run("invalid_target", func(t *testing.T) {
		store := newTestStore(t)
		_, err := store.SetGoal(ctx, "holiday", "soon")
		assert.True(t, core.IsValidation(err))

		goals, err := store.ListGoals(ctx)
		require.NoError(t, err)
		assert.Empty(t, goals)
	})

	t.Run("progress_on_missing_goal", func(t *testing.T) {
		store := newTestStore(t)
		id, err := store.SetGoal(ctx, "holiday", "1200")
		require.NoError(t, err)

		err = store.UpdateGoalProgress(ctx, id+100, "5")
		assert.True(t, core.IsNotFound(err))

		goal, err := store.GetGoal(ctx, id)
		require.NoError(t, err)
		assert.True(t, goal.Progress.IsZero())
	})

	t.Run("invalid_progress", func(t *testing.T) {
		store := newTestStore(t)
		id, err := store.SetGoal(ctx, "holiday", "1200")
		require.NoError(t, err)

		err = store.UpdateGoalProgress(ctx, id, "x")
		assert.True(t, core.IsValidation(err))
	})

	t.Run("delete", func(t *testing.T) {
		store := newTestStore(t)
		id, err := store.SetGoal(ctx, "holiday", "1200")
		require.NoError(t, err)

		require.NoError(t, store.DeleteGoal(ctx, id))
		assert.True(t, core.IsNotFound(store.DeleteGoal(ctx, id)))

		goals, err := store.ListGoals(ctx)
		require.NoError(t, err)
		assert.Empty(t, goals)
	})
}

func TestCalculateRemainingBudget(t *testing.T) {
	ctx := context.Background()

	t.Run("empty_ledger_is_zero", func(t *testing.T) {
		store := newTestStore(t)
		got, err := store.CalculateRemainingBudget(ctx)
		require.NoError(t, err)
		assert.True(t, got.IsZero())
	})

	t.Run("income_minus_expenses", func(t *testing.T) {
		store := newTestStore(t)
		_, err := store.AddIncome(ctx, "salary", "100", "01-01-2024")
		require.NoError(t, err)
		_, err = store.AddExpense(ctx, "food", "40", "02-01-2024")
		require.NoError(t, err)

		got, err := store.CalculateRemainingBudget(ctx)
		require.NoError(t, err)
		assert.True(t, got.Equal(decimal.NewFromInt(60)), got.String())
	})

	t.Run("shortfall_is_negative", func(t *testing.T) {
		store := newTestStore(t)
		_, err := store.AddIncome(ctx, "salary", "10", "01-01-2024")
		require.NoError(t, err)
		_, err = store.AddExpense(ctx, "food", "25.5", "02-01-2024")
		require.NoError(t, err)

		summary, err := store.Summary(ctx)
		require.NoError(t, err)
		assert.True(t, summary.Shortfall())
		assert.Equal(t, "-15.5", summary.Remaining.String())
	})

	t.Run("sums_are_exact", func(t *testing.T) {
		store := newTestStore(t)
		for i := 0; i < 10; i++ {
			_, err := store.AddIncome(ctx, "interest", "0.1", "01-01-2024")
			require.NoError(t, err)
		}
		_, err := store.AddExpense(ctx, "fees", "0.3", "01-01-2024")
		require.NoError(t, err)

		got, err := store.CalculateRemainingBudget(ctx)
		require.NoError(t, err)
		assert.Equal(t, "0.7", got.String())
	})
}

func TestListedRecordsRoundTripByID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, c := range []string{"food", "fuel", "rent"} {
		_, err := store.AddExpense(ctx, c, "12.34", "03-03-2024")
		require.NoError(t, err)
		_, err = store.AddIncome(ctx, c, "56.78", "04-03-2024")
		require.NoError(t, err)
	}
	_, err := store.SetGoal(ctx, "emergency fund", "1000")
	require.NoError(t, err)

	expensesList, err := store.ListExpenses(ctx)
	require.NoError(t, err)
	for _, e := range expensesList {
		got, err := store.GetExpense(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, e, got)
	}

	incomeList, err := store.ListIncome(ctx)
	require.NoError(t, err)
	for _, e := range incomeList {
		got, err := store.GetIncome(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, e, got)
	}

	goals, err := store.ListGoals(ctx)
	require.NoError(t, err)
	for _, g := range goals {
		got, err := store.GetGoal(ctx, g.ID)
		require.NoError(t, err)
		assert.Equal(t, g, got)
	}
}

func TestClosedStoreReportsStorageError(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Close())

	_, err := store.AddExpense(context.Background(), "food", "1", "01-01-2024")
	require.Error(t, err)
	assert.True(t, core.IsStorage(err))
	assert.False(t, core.IsValidation(err))
}

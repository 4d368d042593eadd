// Package menu implements the interactive text menu that drives the ledger.
// It owns console formatting; all state lives behind the Ledger interface.
package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"budgettracker/internal/core"
	applog "budgettracker/internal/log"
)

// Ledger is the store surface the menu needs.
type Ledger interface {
	AddExpense(ctx context.Context, category, amount, date string) (core.RecordID, error)
	UpdateExpenseAmount(ctx context.Context, target core.Identifier, newAmount string) (int64, error)
	ListExpenses(ctx context.Context) ([]core.Expense, error)
	ListExpensesByCategory(ctx context.Context, category string) ([]core.Expense, error)
	DeleteExpensesByCategory(ctx context.Context, category string) (int64, error)

	AddIncome(ctx context.Context, category, amount, date string) (core.RecordID, error)
	UpdateIncomeAmount(ctx context.Context, target core.Identifier, newAmount string) (int64, error)
	ListIncome(ctx context.Context) ([]core.Income, error)
	ListIncomeByCategory(ctx context.Context, category string) ([]core.Income, error)
	DeleteIncomeByCategory(ctx context.Context, category string) (int64, error)

	SetBudget(ctx context.Context, category, limit string) (core.Budget, error)
	GetBudget(ctx context.Context, category string) (core.Budget, error)
	ListBudgets(ctx context.Context) ([]core.Budget, error)

	SetGoal(ctx context.Context, description, target string) (core.RecordID, error)
	ListGoals(ctx context.Context) ([]core.Goal, error)
	UpdateGoalProgress(ctx context.Context, id core.RecordID, progress string) error
	DeleteGoal(ctx context.Context, id core.RecordID) error

	Summary(ctx context.Context) (core.BudgetSummary, error)
}

const mainMenu = `
1. Add expense
2. View expenses
3. Update an expense amount
4. View expenses by category
5. Delete an expense category
6. Add income
7. View income
8. View income by category
9. Delete an income category
10. Set budget for a category
11. View budget for a category
12. Set financial goal
13. View progress towards financial goals
14. Update goal progress
15. Delete a financial goal
16. Calculate budget
17. Update an income amount
18. View all budgets
19. Quit
`

const quitOption = "19"

// Menu reads choices from in and writes results to out.
type Menu struct {
	ledger   Ledger
	in       *bufio.Scanner
	out      io.Writer
	currency string
	actions  map[string]func(ctx context.Context) error
}

// New builds a menu over ledger. currency prefixes every printed amount.
func New(ledger Ledger, in io.Reader, out io.Writer, currency string) *Menu {
	m := &Menu{
		ledger:   ledger,
		in:       bufio.NewScanner(in),
		out:      out,
		currency: currency,
	}
	m.actions = map[string]func(ctx context.Context) error{
		"1":  m.addExpense,
		"2":  m.viewExpenses,
		"3":  m.updateExpenseAmount,
		"4":  m.viewExpensesByCategory,
		"5":  m.deleteExpenseCategory,
		"6":  m.addIncome,
		"7":  m.viewIncome,
		"8":  m.viewIncomeByCategory,
		"9":  m.deleteIncomeCategory,
		"10": m.setBudget,
		"11": m.viewBudget,
		"12": m.setGoal,
		"13": m.viewGoals,
		"14": m.updateGoalProgress,
		"15": m.deleteGoal,
		"16": m.calculateBudget,
		"17": m.updateIncomeAmount,
		"18": m.viewBudgets,
	}
	return m
}

// errInputClosed signals the input ran dry in the middle of a prompt.
var errInputClosed = errors.New("input closed")

// Run loops until the user quits, input ends or ctx is cancelled.
// Ledger errors are printed and the loop carries on.
func (m *Menu) Run(ctx context.Context) error {
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentMenu)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(m.out, mainMenu)
		choice, err := m.prompt("Pick an option (1-19): ")
		if errors.Is(err, errInputClosed) {
			m.println("Have a nice day")
			return nil
		}
		if err != nil {
			return err
		}

		if choice == quitOption {
			m.println("Have a nice day")
			return nil
		}

		action, ok := m.actions[choice]
		if !ok {
			m.println("Invalid option, please try again")
			continue
		}

		if err := action(ctx); err != nil {
			if errors.Is(err, errInputClosed) {
				m.println("Have a nice day")
				return nil
			}
			m.report(err)
			logActionError(ctx, logger, choice, err)
		}
	}
}

// logActionError records a failed action. Rejected input and missing records
// are routine, so they stay at debug.
func logActionError(ctx context.Context, logger *applog.Logger, choice string, err error) {
	fields := applog.NewFields().WithOption(choice).WithError(err)

	switch {
	case core.IsValidation(err):
		logger.DebugContext(ctx, "Menu input rejected", fields.WithErrorType(applog.ErrorTypeValidation).ToSlice()...)
	case core.IsNotFound(err):
		logger.DebugContext(ctx, "Menu record not found", fields.WithErrorType(applog.ErrorTypeNotFound).ToSlice()...)
	case core.IsStorage(err):
		logger.WarnContext(ctx, "Menu action failed", fields.WithErrorType(applog.ErrorTypeDatabase).ToSlice()...)
	default:
		logger.ErrorContext(ctx, "Menu action failed", fields.WithErrorType(applog.ErrorTypeInternal).ToSlice()...)
	}
}

func (m *Menu) prompt(label string) (string, error) {
	fmt.Fprint(m.out, label)
	if !m.in.Scan() {
		if err := m.in.Err(); err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return "", errInputClosed
	}
	return strings.TrimSpace(m.in.Text()), nil
}

func (m *Menu) promptID(label string) (core.RecordID, error) {
	raw, err := m.prompt(label)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &core.ValidationError{Field: "id", Value: raw, Err: core.ErrInvalidAmount}
	}
	return core.RecordID(id), nil
}

func (m *Menu) report(err error) {
	m.println(capitalize(err.Error()))
}

func (m *Menu) println(a ...any) {
	fmt.Fprintln(m.out, a...)
}

func (m *Menu) money(v core.Money) string {
	return m.currency + v.Display()
}

// echo formats an amount the ledger has already accepted.
func (m *Menu) echo(amount string) string {
	v, err := core.ParseAmount("amount", amount)
	if err != nil {
		return m.currency + amount
	}
	return m.money(v)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

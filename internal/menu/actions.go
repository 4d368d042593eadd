package menu

import (
	"context"
	"fmt"

	"budgettracker/internal/core"
)

func (m *Menu) addExpense(ctx context.Context) error {
	return m.addEntry(ctx, "expense", m.ledger.AddExpense)
}

func (m *Menu) addIncome(ctx context.Context) error {
	return m.addEntry(ctx, "income", m.ledger.AddIncome)
}

func (m *Menu) addEntry(ctx context.Context, kind string, add func(ctx context.Context, category, amount, date string) (core.RecordID, error)) error {
	category, err := m.prompt(fmt.Sprintf("Enter an %s category: ", kind))
	if err != nil {
		return err
	}
	amount, err := m.prompt(fmt.Sprintf("Enter an %s amount: ", kind))
	if err != nil {
		return err
	}
	date, err := m.prompt("Enter the date (DD-MM-YYYY): ")
	if err != nil {
		return err
	}

	id, err := add(ctx, category, amount, date)
	if err != nil {
		return err
	}
	m.println(fmt.Sprintf("Added %s: %s - %s on %s (ID %s)", kind, category, m.echo(amount), date, id))
	return nil
}

func (m *Menu) viewExpenses(ctx context.Context) error {
	rows, err := m.ledger.ListExpenses(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		m.println("No records found in expenses")
		return nil
	}
	for _, e := range rows {
		m.printEntry(e.ID, e.Category, e.Amount, e.Date)
	}
	return nil
}

func (m *Menu) viewIncome(ctx context.Context) error {
	rows, err := m.ledger.ListIncome(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		m.println("No records found in income")
		return nil
	}
	for _, e := range rows {
		m.printEntry(e.ID, e.Category, e.Amount, e.Date)
	}
	return nil
}

func (m *Menu) viewExpensesByCategory(ctx context.Context) error {
	category, err := m.prompt("Enter a category to view expenses: ")
	if err != nil {
		return err
	}
	rows, err := m.ledger.ListExpensesByCategory(ctx, category)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		m.println(fmt.Sprintf("No records found in category '%s'", category))
		return nil
	}
	for _, e := range rows {
		m.printEntry(e.ID, e.Category, e.Amount, e.Date)
	}
	return nil
}

func (m *Menu) viewIncomeByCategory(ctx context.Context) error {
	category, err := m.prompt("Enter category to filter income: ")
	if err != nil {
		return err
	}
	rows, err := m.ledger.ListIncomeByCategory(ctx, category)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		m.println(fmt.Sprintf("No records found in category '%s'", category))
		return nil
	}
	for _, e := range rows {
		m.printEntry(e.ID, e.Category, e.Amount, e.Date)
	}
	return nil
}

func (m *Menu) printEntry(id core.RecordID, category string, amount core.Money, date string) {
	m.println(fmt.Sprintf("[%s] %s - %s on %s", id, category, m.money(amount), date))
}

func (m *Menu) updateExpenseAmount(ctx context.Context) error {
	return m.updateEntryAmount(ctx, "expense", m.ledger.UpdateExpenseAmount)
}

func (m *Menu) updateIncomeAmount(ctx context.Context) error {
	return m.updateEntryAmount(ctx, "income", m.ledger.UpdateIncomeAmount)
}

func (m *Menu) updateEntryAmount(ctx context.Context, kind string, update func(ctx context.Context, target core.Identifier, newAmount string) (int64, error)) error {
	choice, err := m.prompt(fmt.Sprintf("Do you want to update by (1) %s ID or (2) Category? Enter 1 or 2: ", kind))
	if err != nil {
		return err
	}

	var target core.Identifier
	switch choice {
	case "1":
		id, err := m.promptID(fmt.Sprintf("Please enter the %s ID: ", kind))
		if err != nil {
			return err
		}
		target = core.ByID(id)
	case "2":
		category, err := m.prompt("Please enter the category name: ")
		if err != nil {
			return err
		}
		target = core.ByCategory(category)
	default:
		m.println("Please enter 1 or 2")
		return nil
	}

	amount, err := m.prompt("Please enter the new amount: ")
	if err != nil {
		return err
	}

	n, err := update(ctx, target, amount)
	if err != nil {
		return err
	}
	if id, ok := target.ID(); ok {
		m.println(fmt.Sprintf("%s ID %s has been updated to %s", capitalize(kind), id, m.echo(amount)))
		return nil
	}
	category, _ := target.Category()
	m.println(fmt.Sprintf("Updated %d %s record(s) in category '%s' to %s", n, kind, category, m.echo(amount)))
	return nil
}

func (m *Menu) deleteExpenseCategory(ctx context.Context) error {
	category, err := m.prompt("Enter expense category to delete: ")
	if err != nil {
		return err
	}
	n, err := m.ledger.DeleteExpensesByCategory(ctx, category)
	if err != nil {
		return err
	}
	m.println(fmt.Sprintf("Deleted category '%s' from expenses (%d records)", category, n))
	return nil
}

func (m *Menu) deleteIncomeCategory(ctx context.Context) error {
	category, err := m.prompt("Enter income category to delete: ")
	if err != nil {
		return err
	}
	n, err := m.ledger.DeleteIncomeByCategory(ctx, category)
	if err != nil {
		return err
	}
	m.println(fmt.Sprintf("Deleted category '%s' from income (%d records)", category, n))
	return nil
}

func (m *Menu) setBudget(ctx context.Context) error {
	category, err := m.prompt("Enter a category to set budget: ")
	if err != nil {
		return err
	}
	limit, err := m.prompt("Enter budget amount: ")
	if err != nil {
		return err
	}
	budget, err := m.ledger.SetBudget(ctx, category, limit)
	if err != nil {
		return err
	}
	m.println(fmt.Sprintf("Set budget for %s to %s", budget.Category, m.money(budget.Limit)))
	return nil
}

func (m *Menu) viewBudget(ctx context.Context) error {
	category, err := m.prompt("Enter a category to view the budget: ")
	if err != nil {
		return err
	}
	budget, err := m.ledger.GetBudget(ctx, category)
	if core.IsNotFound(err) {
		m.println(fmt.Sprintf("No budget set for %s", category))
		return nil
	}
	if err != nil {
		return err
	}
	m.println(fmt.Sprintf("Budget for category %s: %s", budget.Category, m.money(budget.Limit)))
	return nil
}

func (m *Menu) viewBudgets(ctx context.Context) error {
	budgets, err := m.ledger.ListBudgets(ctx)
	if err != nil {
		return err
	}
	if len(budgets) == 0 {
		m.println("No budgets set.")
		return nil
	}
	for _, b := range budgets {
		m.println(fmt.Sprintf("%s: %s", b.Category, m.money(b.Limit)))
	}
	return nil
}

func (m *Menu) setGoal(ctx context.Context) error {
	description, err := m.prompt("Enter the goal description: ")
	if err != nil {
		return err
	}
	target, err := m.prompt("Enter the target amount: ")
	if err != nil {
		return err
	}
	id, err := m.ledger.SetGoal(ctx, description, target)
	if err != nil {
		return err
	}
	m.println(fmt.Sprintf("Set financial goal: %s - Target: %s (ID %s)", description, m.echo(target), id))
	return nil
}

func (m *Menu) viewGoals(ctx context.Context) error {
	goals, err := m.ledger.ListGoals(ctx)
	if err != nil {
		return err
	}
	if len(goals) == 0 {
		m.println("No financial goals set.")
		return nil
	}
	for _, g := range goals {
		m.println(fmt.Sprintf("[%s] %s: %s saved of %s", g.ID, g.Goal, m.money(g.Progress), m.money(g.Target)))
	}
	return nil
}

func (m *Menu) updateGoalProgress(ctx context.Context) error {
	id, err := m.promptID("Enter goal ID to update progress for: ")
	if err != nil {
		return err
	}
	saved, err := m.prompt("Enter amount saved: ")
	if err != nil {
		return err
	}
	if err := m.ledger.UpdateGoalProgress(ctx, id, saved); err != nil {
		return err
	}
	m.println(fmt.Sprintf("Updated progress for goal '%s' to %s", id, m.echo(saved)))
	return nil
}

func (m *Menu) deleteGoal(ctx context.Context) error {
	id, err := m.promptID("Enter goal ID to delete: ")
	if err != nil {
		return err
	}
	if err := m.ledger.DeleteGoal(ctx, id); err != nil {
		return err
	}
	m.println(fmt.Sprintf("Deleted goal ID: '%s'", id))
	return nil
}

func (m *Menu) calculateBudget(ctx context.Context) error {
	summary, err := m.ledger.Summary(ctx)
	if err != nil {
		return err
	}
	m.println(fmt.Sprintf("Total income: %s", m.money(summary.TotalIncome)))
	m.println(fmt.Sprintf("Total expenses: %s", m.money(summary.TotalExpenses)))
	if summary.Shortfall() {
		m.println(fmt.Sprintf("You have a shortfall of: %s", m.money(summary.Remaining.Abs())))
		return nil
	}
	m.println(fmt.Sprintf("Your remaining budget is: %s", m.money(summary.Remaining)))
	return nil
}

package core

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

type (
	// RecordID is the store-generated identifier of a row.
	RecordID int64

	Expense struct {
		ID       RecordID
		Category string
		Amount   Money
		Date     string // caller-supplied format, stored verbatim
	}

	Income struct {
		ID       RecordID
		Category string
		Amount   Money
		Date     string
	}

	Budget struct {
		ID       RecordID
		Category string
		Limit    Money
	}

	Goal struct {
		ID       RecordID
		Goal     string // description
		Target   Money
		Progress Money
	}
)

func (id RecordID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Identifier selects entry rows either by id or by category.
// Construct it with ByID or ByCategory.
type Identifier struct {
	kind     identifierKind
	id       RecordID
	category string
}

type identifierKind int

const (
	identifierID identifierKind = iota + 1
	identifierCategory
)

func ByID(id RecordID) Identifier {
	return Identifier{kind: identifierID, id: id}
}

func ByCategory(category string) Identifier {
	return Identifier{kind: identifierCategory, category: category}
}

// ID returns the record id and true when the identifier was built with ByID.
func (i Identifier) ID() (RecordID, bool) {
	return i.id, i.kind == identifierID
}

// Category returns the category and true when the identifier was built with ByCategory.
func (i Identifier) Category() (string, bool) {
	return i.category, i.kind == identifierCategory
}

func (i Identifier) String() string {
	switch i.kind {
	case identifierID:
		return "id " + i.id.String()
	case identifierCategory:
		return "category '" + i.category + "'"
	default:
		return "unset identifier"
	}
}

// Validate rejects identifiers built as a zero value or with an empty category.
func (i Identifier) Validate() error {
	switch i.kind {
	case identifierID:
		return nil
	case identifierCategory:
		return ValidateCategory(i.category)
	default:
		return &ValidationError{Field: "identifier", Err: ErrInvalidIdentifier}
	}
}

// ValidateCategory ensures a category name carries some text.
func ValidateCategory(category string) error {
	if strings.TrimSpace(category) == "" {
		return &ValidationError{Field: "category", Value: category, Err: ErrEmptyCategory}
	}
	return nil
}

const maxDescriptionLength = 200

// ValidateDescription ensures a goal description carries some text.
func ValidateDescription(description string) error {
	if strings.TrimSpace(description) == "" {
		return &ValidationError{Field: "goal", Value: description, Err: ErrEmptyDescription}
	}
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return &ValidationError{Field: "goal", Value: description, Err: ErrDescriptionTooLong}
	}
	return nil
}

// BudgetSummary is the single balance calculation the ledger offers.
type BudgetSummary struct {
	TotalIncome   Money
	TotalExpenses Money
	Remaining     Money
}

// Shortfall reports whether expenses exceed income.
func (s BudgetSummary) Shortfall() bool {
	return s.Remaining.IsNegative()
}

// Summarize builds a summary from raw totals.
func Summarize(income, expenses decimal.Decimal) BudgetSummary {
	return BudgetSummary{
		TotalIncome:   Money{Amount: income},
		TotalExpenses: Money{Amount: expenses},
		Remaining:     Money{Amount: income.Sub(expenses)},
	}
}

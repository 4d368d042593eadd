package core

import (
	"errors"
	"strings"
	"testing"
)

func TestIdentifier(t *testing.T) {
	id := ByID(7)
	if v, ok := id.ID(); !ok || v != 7 {
		t.Fatalf("expected id 7, got %d ok=%v", v, ok)
	}
	if _, ok := id.Category(); ok {
		t.Fatal("id identifier must not report a category")
	}
	if id.String() != "id 7" {
		t.Fatalf("unexpected string %q", id.String())
	}

	cat := ByCategory("rent")
	if v, ok := cat.Category(); !ok || v != "rent" {
		t.Fatalf("expected category rent, got %q ok=%v", v, ok)
	}
	if _, ok := cat.ID(); ok {
		t.Fatal("category identifier must not report an id")
	}
	if cat.String() != "category 'rent'" {
		t.Fatalf("unexpected string %q", cat.String())
	}
}

func TestIdentifierValidate(t *testing.T) {
	tests := []struct {
		name    string
		id      Identifier
		wantErr error
	}{
		{"by id", ByID(1), nil},
		{"by category", ByCategory("food"), nil},
		{"blank category", ByCategory("  "), ErrEmptyCategory},
		{"zero value", Identifier{}, ErrInvalidIdentifier},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.id.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateDescription(t *testing.T) {
	if err := ValidateDescription("new bike"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateDescription(""); !errors.Is(err, ErrEmptyDescription) {
		t.Fatalf("expected ErrEmptyDescription, got %v", err)
	}
	if err := ValidateDescription(strings.Repeat("a", 201)); !errors.Is(err, ErrDescriptionTooLong) {
		t.Fatalf("expected ErrDescriptionTooLong, got %v", err)
	}
	// Limit counts characters, not bytes.
	if err := ValidateDescription(strings.Repeat("é", 200)); err != nil {
		t.Fatalf("200 two-byte characters should pass, got %v", err)
	}
	if err := ValidateDescription(strings.Repeat("é", 201)); !errors.Is(err, ErrDescriptionTooLong) {
		t.Fatalf("expected ErrDescriptionTooLong, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(MustParseAmount("100").Amount, MustParseAmount("140").Amount)
	if !s.Remaining.Equal(MustParseAmount("-40")) {
		t.Fatalf("expected -40, got %s", s.Remaining)
	}
	if !s.Shortfall() {
		t.Fatal("expected shortfall")
	}
}

func TestErrorKinds(t *testing.T) {
	nf := &NotFoundError{Entity: "goal", Key: "id 3"}
	if !IsNotFound(nf) || IsValidation(nf) || IsStorage(nf) {
		t.Fatal("not found error misclassified")
	}
	if nf.Error() != "no goal found with id 3" {
		t.Fatalf("unexpected message %q", nf.Error())
	}

	st := &StorageError{Op: "add expense", Err: errors.New("disk full")}
	if !IsStorage(st) || IsNotFound(st) {
		t.Fatal("storage error misclassified")
	}
}

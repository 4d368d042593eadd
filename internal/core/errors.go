package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyCategory      = errors.New("empty category")
	ErrEmptyDescription   = errors.New("empty goal description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrInvalidIdentifier  = errors.New("identifier must be an id or a category")
	ErrNotFound           = errors.New("not found")
	ErrStorage            = errors.New("storage failure")
)

// ValidationError reports caller input the store refused before writing.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	if errors.Is(e.Err, ErrInvalidAmount) {
		return fmt.Sprintf("please enter a valid number for %s (got %q)", e.Field, e.Value)
	}
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NotFoundError reports an id or category without matching rows.
type NotFoundError struct {
	Entity string // "expense", "income", "budget", "goal"
	Key    string // "id 4", "category 'rent'"
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s found with %s", e.Entity, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// StorageError wraps a failure reported by the storage engine.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("database error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err carries a *NotFoundError.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsStorage reports whether err carries a *StorageError.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}

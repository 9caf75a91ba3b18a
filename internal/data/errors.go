package data

import (
	"errors"
	"fmt"
)

// ErrIntegrity marks a reference record missing something the engine needs
// to apply it. Use errors.Is to detect it.
var ErrIntegrity = errors.New("data integrity fault")

// IntegrityError names the offending record and field.
type IntegrityError struct {
	Kind  string // "skill", "mob", "camp", "loot"
	ID    int32
	Field string
	Err   error
}

func (e *IntegrityError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s %d: %v", e.Kind, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %d: %s: %v", e.Kind, e.ID, e.Field, e.Err)
}

func (e *IntegrityError) Unwrap() []error { return []error{ErrIntegrity, e.Err} }

func integrity(kind string, id int32, field, reason string) *IntegrityError {
	return &IntegrityError{Kind: kind, ID: id, Field: field, Err: errors.New(reason)}
}

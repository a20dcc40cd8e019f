package person

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("person: not found")
	ErrRelationNotFound = errors.New("person: relation not found")
	ErrSelfReference    = errors.New("person: cannot supervise itself")
	ErrNameRequired     = errors.New("person: name is required")
	ErrInvalidName      = errors.New("person: name must be text")
	ErrNameColumn       = errors.New("person: missing required column \"name\"")
)

// RowError ties a normalization failure to the spreadsheet line it came from.
type RowError struct {
	Line  int
	Field string
	Err   error
}

func (e *RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Field, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

package main

import (
	"errors"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/aggregates/person"
	"github.com/iota-uz/orgchart/modules/orgchart/infrastructure/persistence"
	"github.com/iota-uz/orgchart/modules/orgchart/services"
	"github.com/iota-uz/orgchart/pkg/spreadsheet"
)

type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string {
	return e.err.Error()
}

func (e *cliError) Unwrap() error {
	return e.err
}

const (
	exitOK         = 0
	exitFailure    = 1
	exitValidation = 2
	exitUsage      = 3
	exitDB         = 4
	exitDBWrite    = 5
)

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	return exitFailure
}

var inputErrors = []error{
	person.ErrNameColumn,
	person.ErrNameRequired,
	person.ErrInvalidName,
	services.ErrDuplicateName,
	services.ErrUnresolvedSupervisor,
	spreadsheet.ErrMissingHeader,
	spreadsheet.ErrDuplicateHeader,
	spreadsheet.ErrSheetNotFound,
	spreadsheet.ErrUnsupportedFormat,
}

// classifyImportError maps an import failure to its exit code. Input problems
// surface before or during the transaction; anything else is a write failure.
func classifyImportError(err error) error {
	for _, target := range inputErrors {
		if errors.Is(err, target) {
			return withCode(exitValidation, err)
		}
	}
	if errors.Is(err, persistence.ErrConnect) {
		return withCode(exitDB, err)
	}
	return withCode(exitDBWrite, err)
}

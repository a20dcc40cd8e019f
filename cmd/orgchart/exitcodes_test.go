package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/aggregates/person"
	"github.com/iota-uz/orgchart/modules/orgchart/infrastructure/persistence"
	"github.com/iota-uz/orgchart/modules/orgchart/services"
)

func TestExitCode(t *testing.T) {
	require.Equal(t, exitOK, exitCode(nil))
	require.Equal(t, exitFailure, exitCode(errors.New("boom")))
	require.Equal(t, exitDB, exitCode(fmt.Errorf("wrapped: %w", withCode(exitDB, errors.New("down")))))
	require.NoError(t, withCode(exitUsage, nil))
}

func TestClassifyImportError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "row error", err: &person.RowError{Line: 3, Field: person.ColumnName, Err: person.ErrNameRequired}, want: exitValidation},
		{name: "policy", err: fmt.Errorf("line 2: %w", services.ErrUnresolvedSupervisor), want: exitValidation},
		{name: "connect", err: fmt.Errorf("%w: refused", persistence.ErrConnect), want: exitDB},
		{name: "write", err: errors.New("disk full"), want: exitDBWrite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, exitCode(classifyImportError(tt.err)))
		})
	}
}

package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/iota-uz/orgchart/pkg/composables"
)

type sqlTxStarter interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// SQLTransactionManager runs functions inside database/sql transactions
// opened through sqlx. SQLite serializes writers, so read-only work uses a
// plain transaction for a stable snapshot.
type SQLTransactionManager struct {
	db sqlTxStarter
}

func NewSQLTransactionManager(db sqlTxStarter) *SQLTransactionManager {
	if db == nil {
		return nil
	}
	return &SQLTransactionManager{db: db}
}

func (m *SQLTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if m == nil {
		return fn(ctx)
	}
	return m.within(ctx, fn)
}

func (m *SQLTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if m == nil {
		return fn(ctx)
	}
	return m.within(ctx, fn)
}

func (m *SQLTransactionManager) within(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("sqlite: transaction function is required")
	}
	if _, ok := composables.UseSQLTx(ctx); ok {
		return fn(ctx)
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}

	if err := fn(composables.WithSQLTx(ctx, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("sqlite: rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

package composables

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

type (
	txKey    struct{}
	sqlTxKey struct{}
)

// Queryer is the pgx query surface shared by pgx.Tx, *pgxpool.Pool and
// pgxmock pools.
type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// SQLQueryer is the sqlx query surface shared by *sqlx.DB and *sqlx.Tx.
type SQLQueryer interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
}

func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// UseTx returns the pgx transaction stored in ctx.
func UseTx(ctx context.Context) (pgx.Tx, bool) {
	if ctx == nil {
		return nil, false
	}
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok && tx != nil
}

// QueryerFromContext returns the transaction in ctx, or fallback when there is none.
func QueryerFromContext(ctx context.Context, fallback Queryer) Queryer {
	if tx, ok := UseTx(ctx); ok {
		return tx
	}
	return fallback
}

func WithSQLTx(ctx context.Context, tx *sqlx.Tx) context.Context {
	return context.WithValue(ctx, sqlTxKey{}, tx)
}

// UseSQLTx returns the sqlx transaction stored in ctx.
func UseSQLTx(ctx context.Context) (*sqlx.Tx, bool) {
	if ctx == nil {
		return nil, false
	}
	tx, ok := ctx.Value(sqlTxKey{}).(*sqlx.Tx)
	return tx, ok && tx != nil
}

// SQLQueryerFromContext returns the sqlx transaction in ctx, or fallback.
func SQLQueryerFromContext(ctx context.Context, fallback SQLQueryer) SQLQueryer {
	if tx, ok := UseSQLTx(ctx); ok {
		return tx
	}
	return fallback
}

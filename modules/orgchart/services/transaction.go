package services

import "context"

// TransactionManager runs fn inside a database transaction carried by the
// context passed to fn. Repositories join it implicitly.
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func orNoop(tx TransactionManager) TransactionManager {
	if tx == nil {
		return noopTransactionManager{}
	}
	return tx
}

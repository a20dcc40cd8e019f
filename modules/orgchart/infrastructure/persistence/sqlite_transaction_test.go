package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgchart/pkg/composables"
)

func newSQLMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestSQLTransactionManager_Commit(t *testing.T) {
	db, mock := newSQLMock(t)
	tm := NewSQLTransactionManager(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM persons").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	repo := NewSQLitePersonRepository(db)
	var deleted int64
	err := tm.WithinReadWrite(context.Background(), func(ctx context.Context) error {
		_, ok := composables.UseSQLTx(ctx)
		require.True(t, ok)
		n, err := repo.DeleteAll(ctx)
		deleted = n
		return err
	})
	require.NoError(t, err)
	require.Equal(t, int64(3), deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLTransactionManager_RollbackOnError(t *testing.T) {
	db, mock := newSQLMock(t)
	tm := NewSQLTransactionManager(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	expectedErr := errors.New("import failed")
	err := tm.WithinReadOnly(context.Background(), func(context.Context) error {
		return expectedErr
	})
	require.ErrorIs(t, err, expectedErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLTransactionManager_BeginFailure(t *testing.T) {
	db, mock := newSQLMock(t)
	tm := NewSQLTransactionManager(db)

	mock.ExpectBegin().WillReturnError(errors.New("database is locked"))

	err := tm.WithinReadWrite(context.Background(), func(context.Context) error {
		t.Fatal("fn must not run without a transaction")
		return nil
	})
	require.ErrorContains(t, err, "database is locked")
	require.NoError(t, mock.ExpectationsWereMet())
}

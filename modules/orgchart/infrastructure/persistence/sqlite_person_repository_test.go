package persistence

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/aggregates/person"
	"github.com/iota-uz/orgchart/pkg/configuration"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), configuration.DatabaseOptions{
		Driver:      configuration.DriverSQLite,
		SQLitePath:  filepath.Join(t.TempDir(), "person.db"),
		AutoMigrate: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func TestSQLitePersonRepository_CreateAndGetAll(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Persons

	a, err := repo.Create(ctx, person.New("A", strPtr("Diretor"), strPtr("Gestão"), "", nil))
	require.NoError(t, err)
	require.NotZero(t, a.ID())
	require.False(t, a.CreatedAt().IsZero())

	b, err := repo.Create(ctx, person.New("B", nil, nil, "Noturno", strPtr("b.png")))
	require.NoError(t, err)
	require.Greater(t, b.ID(), a.ID())

	require.NoError(t, repo.Link(ctx, a.ID(), b.ID()))
	require.NoError(t, repo.Link(ctx, a.ID(), b.ID()))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	require.Equal(t, "A", all[0].Name())
	require.Equal(t, "Diretor", *all[0].Title())
	require.Equal(t, "", all[0].Shift())
	require.Nil(t, all[0].ImagePath())
	require.Equal(t, []int64{b.ID()}, all[0].SubordinateIDs())
	require.Empty(t, all[0].SupervisorIDs())

	require.Nil(t, all[1].Title())
	require.Equal(t, "Noturno", all[1].Shift())
	require.Equal(t, []int64{a.ID()}, all[1].SupervisorIDs())
}

func TestSQLitePersonRepository_GetByNameReturnsLatest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Persons

	_, err := repo.Create(ctx, person.New("A", strPtr("first"), nil, "", nil))
	require.NoError(t, err)
	second, err := repo.Create(ctx, person.New("A", strPtr("second"), nil, "", nil))
	require.NoError(t, err)
	c, err := repo.Create(ctx, person.New("C", nil, nil, "", nil))
	require.NoError(t, err)
	require.NoError(t, repo.Link(ctx, second.ID(), c.ID()))

	got, err := repo.GetByName(ctx, "A")
	require.NoError(t, err)
	require.Equal(t, second.ID(), got.ID())
	require.Equal(t, "second", *got.Title())
	require.Equal(t, []int64{c.ID()}, got.SubordinateIDs())

	_, err = repo.GetByName(ctx, "nobody")
	require.ErrorIs(t, err, person.ErrNotFound)
}

func TestSQLitePersonRepository_LinkErrors(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Persons

	a, err := repo.Create(ctx, person.New("A", nil, nil, "", nil))
	require.NoError(t, err)

	require.ErrorIs(t, repo.Link(ctx, a.ID(), a.ID()), person.ErrSelfReference)
	require.ErrorIs(t, repo.Link(ctx, a.ID(), a.ID()+100), person.ErrNotFound)
	require.ErrorIs(t, repo.Unlink(ctx, a.ID(), a.ID()+100), person.ErrRelationNotFound)
}

func TestSQLitePersonRepository_UnlinkAndDeleteAll(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Persons

	a, err := repo.Create(ctx, person.New("A", nil, nil, "", nil))
	require.NoError(t, err)
	b, err := repo.Create(ctx, person.New("B", nil, nil, "", nil))
	require.NoError(t, err)
	require.NoError(t, repo.Link(ctx, a.ID(), b.ID()))

	require.NoError(t, repo.Unlink(ctx, a.ID(), b.ID()))
	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Empty(t, all[0].SubordinateIDs())
	require.Empty(t, all[1].SupervisorIDs())

	require.NoError(t, repo.Link(ctx, b.ID(), a.ID()))
	n, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	all, err = repo.GetAll(ctx)
	require.NoError(t, err)
	require.Empty(t, all)

	// ids are never reused after a wipe
	c, err := repo.Create(ctx, person.New("C", nil, nil, "", nil))
	require.NoError(t, err)
	require.Greater(t, c.ID(), b.ID())
}

func TestSQLiteStore_RollbackKeepsPriorState(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Persons.Create(ctx, person.New("Kept", nil, nil, "", nil))
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.Tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := s.Persons.DeleteAll(txCtx); err != nil {
			return err
		}
		if _, err := s.Persons.Create(txCtx, person.New("Temp", nil, nil, "", nil)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	all, err := s.Persons.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "Kept", all[0].Name())
}

func TestSQLiteStore_MigrationsAreIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	applied, err := s.Migrate(ctx)
	require.NoError(t, err)
	require.Empty(t, applied)

	provider, err := s.Migrator()
	require.NoError(t, err)
	version, err := provider.GetDBVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), version)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), configuration.DatabaseOptions{Driver: "mysql"})
	require.ErrorIs(t, err, ErrConnect)
}

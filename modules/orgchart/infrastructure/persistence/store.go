package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/aggregates/person"
	"github.com/iota-uz/orgchart/pkg/configuration"
)

// ErrConnect marks failures to open or reach the database.
var ErrConnect = errors.New("persistence: connect")

const sqliteDriverName = "sqlite"

type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

// Store bundles the person repository and transaction manager of one
// database backend.
type Store struct {
	Persons person.Repository
	Tx      TransactionManager

	driver string
	db     *sql.DB
	pool   *pgxpool.Pool
}

// Open connects to the database selected by opts and, when opts.AutoMigrate
// is set, applies pending migrations.
func Open(ctx context.Context, opts configuration.DatabaseOptions) (*Store, error) {
	var (
		s   *Store
		err error
	)
	switch opts.Driver {
	case configuration.DriverPostgres:
		s, err = openPostgres(ctx, opts)
	case configuration.DriverSQLite, "":
		s, err = openSQLite(ctx, opts)
	default:
		return nil, fmt.Errorf("%w: unsupported driver %q", ErrConnect, opts.Driver)
	}
	if err != nil {
		return nil, err
	}
	if opts.AutoMigrate {
		if _, err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
	}
	return s, nil
}

func openPostgres(ctx context.Context, opts configuration.DatabaseOptions) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(opts.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("%w: parse config: %w", ErrConnect, err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: create pool: %w", ErrConnect, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %w", ErrConnect, err)
	}
	return &Store{
		Persons: NewPgPersonRepository(pool),
		Tx:      NewPgTransactionManager(pool),
		driver:  configuration.DriverPostgres,
		db:      stdlib.OpenDBFromPool(pool),
		pool:    pool,
	}, nil
}

func openSQLite(ctx context.Context, opts configuration.DatabaseOptions) (*Store, error) {
	db, err := sqlx.Open(sqliteDriverName, opts.SQLiteDSN())
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrConnect, opts.SQLitePath, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: open %s: %w", ErrConnect, opts.SQLitePath, err)
	}
	return newSQLiteStore(db), nil
}

func newSQLiteStore(db *sqlx.DB) *Store {
	return &Store{
		Persons: NewSQLitePersonRepository(db),
		Tx:      NewSQLTransactionManager(db),
		driver:  configuration.DriverSQLite,
		db:      db.DB,
	}
}

func (s *Store) Driver() string {
	return s.driver
}

// Migrator returns a goose provider bound to the store's connection. Close
// the Store rather than the provider.
func (s *Store) Migrator() (*goose.Provider, error) {
	return NewMigrator(s.db, s.driver)
}

// Migrate applies every pending migration and returns the applied versions.
func (s *Store) Migrate(ctx context.Context) ([]int64, error) {
	provider, err := s.Migrator()
	if err != nil {
		return nil, err
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate up: %w", err)
	}
	versions := make([]int64, 0, len(results))
	for _, r := range results {
		versions = append(versions, r.Source.Version)
	}
	return versions, nil
}

func (s *Store) Close() error {
	var errs []error
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	if s.pool != nil {
		s.pool.Close()
	}
	return errors.Join(errs...)
}

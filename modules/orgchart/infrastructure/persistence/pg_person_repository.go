package persistence

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/aggregates/person"
	"github.com/iota-uz/orgchart/pkg/composables"
)

const (
	pgForeignKeyViolationCode = "23503"
	pgCheckViolationCode      = "23514"
)

const (
	pgPersonColumns = `id, name, title, department, shift, image_path, created_at`

	pgDeleteAllQuery = `DELETE FROM persons`
	pgCreateQuery    = `INSERT INTO persons (name, title, department, shift, image_path)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + pgPersonColumns
	pgSelectAllQuery    = `SELECT ` + pgPersonColumns + ` FROM persons ORDER BY id`
	pgSelectByNameQuery = `SELECT ` + pgPersonColumns + ` FROM persons WHERE name = $1 ORDER BY id DESC LIMIT 1`
	pgSelectEdgesQuery  = `SELECT supervisor_id, subordinate_id FROM person_supervisors ORDER BY supervisor_id, subordinate_id`
	pgSelectEdgesOf     = `SELECT supervisor_id, subordinate_id FROM person_supervisors
WHERE supervisor_id = $1 OR subordinate_id = $1
ORDER BY supervisor_id, subordinate_id`
	pgLinkQuery = `INSERT INTO person_supervisors (supervisor_id, subordinate_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING`
	pgUnlinkQuery = `DELETE FROM person_supervisors WHERE supervisor_id = $1 AND subordinate_id = $2`
)

// PgPersonRepository stores persons in PostgreSQL through pgx.
type PgPersonRepository struct {
	pool composables.Queryer
}

func NewPgPersonRepository(pool composables.Queryer) *PgPersonRepository {
	return &PgPersonRepository{pool: pool}
}

func (r *PgPersonRepository) DeleteAll(ctx context.Context) (int64, error) {
	exec := composables.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, pgDeleteAllQuery)
	if err != nil {
		return 0, errors.Wrap(err, "delete persons")
	}
	return tag.RowsAffected(), nil
}

func (r *PgPersonRepository) Create(ctx context.Context, p person.Person) (person.Person, error) {
	exec := composables.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, pgCreateQuery,
		p.Name(),
		p.Title(),
		p.Department(),
		p.Shift(),
		p.ImagePath(),
	)
	created, err := scanPgPerson(row)
	if err != nil {
		return person.Person{}, errors.Wrap(translatePgError(err), "create person")
	}
	return created, nil
}

func (r *PgPersonRepository) GetAll(ctx context.Context) ([]person.Person, error) {
	exec := composables.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, pgSelectAllQuery)
	if err != nil {
		return nil, errors.Wrap(err, "select persons")
	}
	persons, err := collectPgPersons(rows)
	if err != nil {
		return nil, err
	}

	edges, err := r.edges(ctx, pgSelectEdgesQuery)
	if err != nil {
		return nil, err
	}
	return person.AttachEdges(persons, edges), nil
}

func (r *PgPersonRepository) GetByName(ctx context.Context, name string) (person.Person, error) {
	exec := composables.QueryerFromContext(ctx, r.pool)
	found, err := scanPgPerson(exec.QueryRow(ctx, pgSelectByNameQuery, name))
	if err != nil {
		return person.Person{}, translatePgError(err)
	}

	edges, err := r.edges(ctx, pgSelectEdgesOf, found.ID())
	if err != nil {
		return person.Person{}, err
	}
	return person.AttachEdges([]person.Person{found}, edges)[0], nil
}

func (r *PgPersonRepository) Link(ctx context.Context, supervisorID, subordinateID int64) error {
	if supervisorID == subordinateID {
		return person.ErrSelfReference
	}
	exec := composables.QueryerFromContext(ctx, r.pool)
	if _, err := exec.Exec(ctx, pgLinkQuery, supervisorID, subordinateID); err != nil {
		return errors.Wrapf(translatePgError(err), "link %d -> %d", supervisorID, subordinateID)
	}
	return nil
}

func (r *PgPersonRepository) Unlink(ctx context.Context, supervisorID, subordinateID int64) error {
	exec := composables.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, pgUnlinkQuery, supervisorID, subordinateID)
	if err != nil {
		return errors.Wrapf(err, "unlink %d -> %d", supervisorID, subordinateID)
	}
	if tag.RowsAffected() == 0 {
		return person.ErrRelationNotFound
	}
	return nil
}

func (r *PgPersonRepository) edges(ctx context.Context, query string, args ...any) ([]person.Edge, error) {
	exec := composables.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "select person relations")
	}
	defer rows.Close()

	var edges []person.Edge
	for rows.Next() {
		var e person.Edge
		if err := rows.Scan(&e.SupervisorID, &e.SubordinateID); err != nil {
			return nil, errors.Wrap(err, "scan person relation")
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate person relations")
	}
	return edges, nil
}

func collectPgPersons(rows pgx.Rows) ([]person.Person, error) {
	defer rows.Close()

	var out []person.Person
	for rows.Next() {
		p, err := scanPgPerson(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan person")
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate persons")
	}
	return out, nil
}

func scanPgPerson(row pgx.Row) (person.Person, error) {
	var (
		id         int64
		name       string
		title      *string
		department *string
		shift      string
		imagePath  *string
		createdAt  time.Time
	)
	if err := row.Scan(&id, &name, &title, &department, &shift, &imagePath, &createdAt); err != nil {
		return person.Person{}, err
	}
	return person.Hydrate(id, name, title, department, shift, imagePath, createdAt), nil
}

func translatePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return person.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolationCode:
			return person.ErrNotFound
		case pgCheckViolationCode:
			if pgErr.ConstraintName == "persons_name_check" {
				return person.ErrNameRequired
			}
			return person.ErrSelfReference
		}
	}
	return err
}

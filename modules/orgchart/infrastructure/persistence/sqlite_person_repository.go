package persistence

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/aggregates/person"
	"github.com/iota-uz/orgchart/pkg/composables"
)

const (
	sqlitePersonColumns = `id, name, title, department, shift, image_path, created_at`

	sqliteDeleteAllQuery = `DELETE FROM persons`
	sqliteCreateQuery    = `INSERT INTO persons (name, title, department, shift, image_path)
VALUES (?, ?, ?, ?, ?)
RETURNING ` + sqlitePersonColumns
	sqliteSelectAllQuery    = `SELECT ` + sqlitePersonColumns + ` FROM persons ORDER BY id`
	sqliteSelectByNameQuery = `SELECT ` + sqlitePersonColumns + ` FROM persons WHERE name = ? ORDER BY id DESC LIMIT 1`
	sqliteSelectEdgesQuery  = `SELECT supervisor_id, subordinate_id FROM person_supervisors ORDER BY supervisor_id, subordinate_id`
	sqliteSelectEdgesOf     = `SELECT supervisor_id, subordinate_id FROM person_supervisors
WHERE supervisor_id = ? OR subordinate_id = ?
ORDER BY supervisor_id, subordinate_id`
	sqliteLinkQuery = `INSERT INTO person_supervisors (supervisor_id, subordinate_id)
VALUES (?, ?)
ON CONFLICT DO NOTHING`
	sqliteUnlinkQuery = `DELETE FROM person_supervisors WHERE supervisor_id = ? AND subordinate_id = ?`
)

type sqlitePersonRow struct {
	ID         int64          `db:"id"`
	Name       string         `db:"name"`
	Title      sql.NullString `db:"title"`
	Department sql.NullString `db:"department"`
	Shift      string         `db:"shift"`
	ImagePath  sql.NullString `db:"image_path"`
	CreatedAt  string         `db:"created_at"`
}

type sqliteEdgeRow struct {
	SupervisorID  int64 `db:"supervisor_id"`
	SubordinateID int64 `db:"subordinate_id"`
}

// SQLitePersonRepository stores persons in a SQLite file through sqlx.
type SQLitePersonRepository struct {
	db composables.SQLQueryer
}

func NewSQLitePersonRepository(db composables.SQLQueryer) *SQLitePersonRepository {
	return &SQLitePersonRepository{db: db}
}

func (r *SQLitePersonRepository) DeleteAll(ctx context.Context) (int64, error) {
	exec := composables.SQLQueryerFromContext(ctx, r.db)
	res, err := exec.ExecContext(ctx, sqliteDeleteAllQuery)
	if err != nil {
		return 0, errors.Wrap(err, "delete persons")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "delete persons")
	}
	return n, nil
}

func (r *SQLitePersonRepository) Create(ctx context.Context, p person.Person) (person.Person, error) {
	exec := composables.SQLQueryerFromContext(ctx, r.db)
	var row sqlitePersonRow
	err := sqlx.GetContext(ctx, exec, &row, sqliteCreateQuery,
		p.Name(),
		nullString(p.Title()),
		nullString(p.Department()),
		p.Shift(),
		nullString(p.ImagePath()),
	)
	if err != nil {
		return person.Person{}, errors.Wrap(translateSQLiteError(err), "create person")
	}
	return row.toDomain(), nil
}

func (r *SQLitePersonRepository) GetAll(ctx context.Context) ([]person.Person, error) {
	exec := composables.SQLQueryerFromContext(ctx, r.db)
	var rows []sqlitePersonRow
	if err := sqlx.SelectContext(ctx, exec, &rows, sqliteSelectAllQuery); err != nil {
		return nil, errors.Wrap(err, "select persons")
	}
	var edgeRows []sqliteEdgeRow
	if err := sqlx.SelectContext(ctx, exec, &edgeRows, sqliteSelectEdgesQuery); err != nil {
		return nil, errors.Wrap(err, "select person relations")
	}

	persons := make([]person.Person, 0, len(rows))
	for _, row := range rows {
		persons = append(persons, row.toDomain())
	}
	return person.AttachEdges(persons, toEdges(edgeRows)), nil
}

func (r *SQLitePersonRepository) GetByName(ctx context.Context, name string) (person.Person, error) {
	exec := composables.SQLQueryerFromContext(ctx, r.db)
	var row sqlitePersonRow
	if err := sqlx.GetContext(ctx, exec, &row, sqliteSelectByNameQuery, name); err != nil {
		return person.Person{}, translateSQLiteError(err)
	}
	var edgeRows []sqliteEdgeRow
	if err := sqlx.SelectContext(ctx, exec, &edgeRows, sqliteSelectEdgesOf, row.ID, row.ID); err != nil {
		return person.Person{}, errors.Wrap(err, "select person relations")
	}
	return person.AttachEdges([]person.Person{row.toDomain()}, toEdges(edgeRows))[0], nil
}

func (r *SQLitePersonRepository) Link(ctx context.Context, supervisorID, subordinateID int64) error {
	if supervisorID == subordinateID {
		return person.ErrSelfReference
	}
	exec := composables.SQLQueryerFromContext(ctx, r.db)
	if _, err := exec.ExecContext(ctx, sqliteLinkQuery, supervisorID, subordinateID); err != nil {
		return errors.Wrapf(translateSQLiteError(err), "link %d -> %d", supervisorID, subordinateID)
	}
	return nil
}

func (r *SQLitePersonRepository) Unlink(ctx context.Context, supervisorID, subordinateID int64) error {
	exec := composables.SQLQueryerFromContext(ctx, r.db)
	res, err := exec.ExecContext(ctx, sqliteUnlinkQuery, supervisorID, subordinateID)
	if err != nil {
		return errors.Wrapf(err, "unlink %d -> %d", supervisorID, subordinateID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "unlink %d -> %d", supervisorID, subordinateID)
	}
	if n == 0 {
		return person.ErrRelationNotFound
	}
	return nil
}

func (row sqlitePersonRow) toDomain() person.Person {
	return person.Hydrate(
		row.ID,
		row.Name,
		stringPtr(row.Title),
		stringPtr(row.Department),
		row.Shift,
		stringPtr(row.ImagePath),
		parseSQLiteTime(row.CreatedAt),
	)
}

func toEdges(rows []sqliteEdgeRow) []person.Edge {
	out := make([]person.Edge, 0, len(rows))
	for _, r := range rows {
		out = append(out, person.Edge{SupervisorID: r.SupervisorID, SubordinateID: r.SubordinateID})
	}
	return out
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func parseSQLiteTime(v string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func translateSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return person.ErrNotFound
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		msg := sqliteErr.Error()
		switch {
		case code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY,
			code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(msg, "FOREIGN KEY"):
			return person.ErrNotFound
		case code == sqlite3.SQLITE_CONSTRAINT_CHECK,
			code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(msg, "CHECK"):
			if strings.Contains(msg, "name") {
				return person.ErrNameRequired
			}
			return person.ErrSelfReference
		}
	}
	return err
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/aggregates/person"
	"github.com/iota-uz/orgchart/pkg/spreadsheet"
)

type Policy string

const (
	PolicyIgnore Policy = "ignore"
	PolicyWarn   Policy = "warn"
	PolicyReject Policy = "reject"
)

func ParsePolicy(v string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(v))); p {
	case PolicyIgnore, PolicyWarn, PolicyReject:
		return p, nil
	case "":
		return PolicyWarn, nil
	default:
		return "", fmt.Errorf("invalid policy %q (expected ignore|warn|reject)", v)
	}
}

var (
	ErrDuplicateName        = errors.New("orgchart: duplicate person name")
	ErrUnresolvedSupervisor = errors.New("orgchart: unresolved supervisor")

	errDryRun = errors.New("orgchart: dry run")
)

type WarningKind string

const (
	WarningDuplicateName        WarningKind = "duplicate_name"
	WarningUnresolvedSupervisor WarningKind = "unresolved_supervisor"
	WarningSelfReference        WarningKind = "self_reference"
)

type Warning struct {
	Kind   WarningKind `json:"kind"`
	Line   int         `json:"line"`
	Name   string      `json:"name"`
	Detail string      `json:"detail"`
}

type ImportOptions struct {
	// Separator splits the supervisor cell. Defaults to ";".
	Separator             string
	DuplicateNames        Policy
	UnresolvedSupervisors Policy
	// DryRun runs the whole import and rolls it back.
	DryRun bool
}

type ImportResult struct {
	RunID          uuid.UUID     `json:"run_id"`
	DryRun         bool          `json:"dry_run"`
	RowsRead       int           `json:"rows_read"`
	RowsSkipped    int           `json:"rows_skipped"`
	PersonsDeleted int64         `json:"persons_deleted"`
	PersonsCreated int           `json:"persons_created"`
	LinksCreated   int           `json:"links_created"`
	Warnings       []Warning     `json:"warnings"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     time.Time     `json:"finished_at"`
	Duration       time.Duration `json:"duration_ns"`
}

// ImportService replaces the stored organization with the content of one
// spreadsheet.
type ImportService struct {
	repo person.Repository
	tx   TransactionManager
	opts ImportOptions
	now  func() time.Time
}

func NewImportService(repo person.Repository, tx TransactionManager, opts ImportOptions) *ImportService {
	if opts.Separator == "" {
		opts.Separator = person.DefaultSupervisorSeparator
	}
	if opts.DuplicateNames == "" {
		opts.DuplicateNames = PolicyWarn
	}
	if opts.UnresolvedSupervisors == "" {
		opts.UnresolvedSupervisors = PolicyWarn
	}
	return &ImportService{repo: repo, tx: orNoop(tx), opts: opts, now: time.Now}
}

// Import wipes the store and loads table in two passes inside one
// transaction: pass 1 creates every person, pass 2 links supervisors by name.
// Any error rolls the transaction back and leaves the previous data intact.
func (s *ImportService) Import(ctx context.Context, table *spreadsheet.Table) (*ImportResult, error) {
	res := &ImportResult{
		RunID:     uuid.New(),
		DryRun:    s.opts.DryRun,
		StartedAt: s.now().UTC(),
		Warnings:  []Warning{},
	}

	rows, err := s.normalize(table, res)
	if err != nil {
		recordImport("input_error", nil)
		return nil, err
	}

	err = s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		deleted, err := s.repo.DeleteAll(txCtx)
		if err != nil {
			return err
		}
		res.PersonsDeleted = deleted

		reg, err := s.createPersons(txCtx, rows, res)
		if err != nil {
			return err
		}
		if err := s.linkSupervisors(txCtx, rows, reg, res); err != nil {
			return err
		}
		if s.opts.DryRun {
			return errDryRun
		}
		return nil
	})
	if err != nil && !errors.Is(err, errDryRun) {
		recordImport("failed", nil)
		logWithFields(ctx, logrus.ErrorLevel, "orgchart import failed", logrus.Fields{
			"run_id": res.RunID.String(),
			"error":  err.Error(),
		})
		return nil, err
	}

	res.FinishedAt = s.now().UTC()
	res.Duration = res.FinishedAt.Sub(res.StartedAt)

	result := "success"
	if s.opts.DryRun {
		result = "dry_run"
	}
	recordImport(result, res)
	logWithFields(ctx, logrus.InfoLevel, "orgchart import finished", logrus.Fields{
		"run_id":          res.RunID.String(),
		"dry_run":         res.DryRun,
		"persons_deleted": res.PersonsDeleted,
		"persons_created": res.PersonsCreated,
		"links_created":   res.LinksCreated,
		"warnings":        len(res.Warnings),
	})
	return res, nil
}

// Clear deletes every person and relationship.
func (s *ImportService) Clear(ctx context.Context) (int64, error) {
	var deleted int64
	err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		n, err := s.repo.DeleteAll(txCtx)
		deleted = n
		return err
	})
	if err != nil {
		return 0, err
	}
	logWithFields(ctx, logrus.InfoLevel, "orgchart store cleared", logrus.Fields{"persons_deleted": deleted})
	return deleted, nil
}

func (s *ImportService) normalize(table *spreadsheet.Table, res *ImportResult) ([]person.Row, error) {
	if table == nil {
		return nil, spreadsheet.ErrMissingHeader
	}
	if err := person.RequireColumns(table.Columns); err != nil {
		return nil, err
	}
	rows := make([]person.Row, 0, len(table.Rows))
	for _, rec := range table.Rows {
		res.RowsRead++
		if person.BlankRow(rec.Values) {
			res.RowsSkipped++
			continue
		}
		r, err := person.NormalizeRow(rec.Line, rec.Values)
		if err != nil {
			return nil, err
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func (s *ImportService) createPersons(ctx context.Context, rows []person.Row, res *ImportResult) (*registry, error) {
	reg := newRegistry(len(rows))
	for _, r := range rows {
		created, err := s.repo.Create(ctx, person.FromRow(r))
		if err != nil {
			return nil, &person.RowError{Line: r.Line, Err: err}
		}
		res.PersonsCreated++

		prev, replaced := reg.bind(created)
		if !replaced {
			continue
		}
		if s.opts.DuplicateNames == PolicyReject {
			return nil, &person.RowError{Line: r.Line, Field: person.ColumnName, Err: fmt.Errorf("%w: %q", ErrDuplicateName, r.Name)}
		}
		if s.opts.DuplicateNames == PolicyWarn {
			s.warn(ctx, res, Warning{
				Kind:   WarningDuplicateName,
				Line:   r.Line,
				Name:   r.Name,
				Detail: fmt.Sprintf("replaces person %d; supervisor references resolve to the last row", prev.ID()),
			})
		}
	}
	return reg, nil
}

type linkKey struct {
	supervisor, subordinate int64
}

func (s *ImportService) linkSupervisors(ctx context.Context, rows []person.Row, reg *registry, res *ImportResult) error {
	linked := make(map[linkKey]struct{})
	for _, r := range rows {
		subject, ok := reg.lookup(r.Name)
		if !ok {
			continue
		}
		for _, supName := range r.SupervisorNames(s.opts.Separator) {
			sup, found := reg.lookup(supName)
			if !found {
				if s.opts.UnresolvedSupervisors == PolicyReject {
					return &person.RowError{Line: r.Line, Field: person.ColumnSupervisor, Err: fmt.Errorf("%w: %q", ErrUnresolvedSupervisor, supName)}
				}
				if s.opts.UnresolvedSupervisors == PolicyWarn {
					s.warn(ctx, res, Warning{
						Kind:   WarningUnresolvedSupervisor,
						Line:   r.Line,
						Name:   r.Name,
						Detail: fmt.Sprintf("supervisor %q not found", supName),
					})
				}
				continue
			}
			if sup.ID() == subject.ID() {
				s.warn(ctx, res, Warning{
					Kind:   WarningSelfReference,
					Line:   r.Line,
					Name:   r.Name,
					Detail: "person lists itself as supervisor",
				})
				continue
			}

			key := linkKey{supervisor: sup.ID(), subordinate: subject.ID()}
			if _, dup := linked[key]; dup {
				continue
			}
			if err := s.repo.Link(ctx, sup.ID(), subject.ID()); err != nil {
				return &person.RowError{Line: r.Line, Field: person.ColumnSupervisor, Err: err}
			}
			linked[key] = struct{}{}
			res.LinksCreated++
		}
	}
	return nil
}

func (s *ImportService) warn(ctx context.Context, res *ImportResult, w Warning) {
	res.Warnings = append(res.Warnings, w)
	logWithFields(ctx, logrus.WarnLevel, "orgchart import warning", logrus.Fields{
		"kind":   string(w.Kind),
		"line":   w.Line,
		"name":   w.Name,
		"detail": w.Detail,
	})
}

package services

import (
	"context"
	"errors"
	"maps"
	"slices"
	"time"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/aggregates/person"
)

// memoryRepository is an in-memory person.Repository. Together with
// snapshotTx it behaves like a transactional store: a failed function
// restores the state captured when the transaction began.
type memoryRepository struct {
	nextID  int64
	persons []person.Person
	edges   map[person.Edge]struct{}

	failLink error
	creates  int
	links    int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{edges: map[person.Edge]struct{}{}}
}

type memoryState struct {
	nextID  int64
	persons []person.Person
	edges   map[person.Edge]struct{}
}

func (r *memoryRepository) snapshot() memoryState {
	return memoryState{nextID: r.nextID, persons: slices.Clone(r.persons), edges: maps.Clone(r.edges)}
}

func (r *memoryRepository) restore(s memoryState) {
	r.nextID, r.persons, r.edges = s.nextID, s.persons, s.edges
}

func (r *memoryRepository) seed(names ...string) {
	for _, n := range names {
		_, _ = r.Create(context.Background(), person.New(n, nil, nil, "", nil))
	}
}

func (r *memoryRepository) DeleteAll(context.Context) (int64, error) {
	n := int64(len(r.persons))
	r.persons = nil
	r.edges = map[person.Edge]struct{}{}
	return n, nil
}

func (r *memoryRepository) Create(_ context.Context, p person.Person) (person.Person, error) {
	if p.Name() == "" {
		return person.Person{}, person.ErrNameRequired
	}
	r.nextID++
	r.creates++
	created := person.Hydrate(r.nextID, p.Name(), p.Title(), p.Department(), p.Shift(), p.ImagePath(), time.Unix(r.nextID, 0).UTC())
	r.persons = append(r.persons, created)
	return created, nil
}

func (r *memoryRepository) GetAll(context.Context) ([]person.Person, error) {
	edges := make([]person.Edge, 0, len(r.edges))
	for e := range r.edges {
		edges = append(edges, e)
	}
	return person.AttachEdges(r.persons, edges), nil
}

func (r *memoryRepository) GetByName(ctx context.Context, name string) (person.Person, error) {
	all, _ := r.GetAll(ctx)
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].Name() == name {
			return all[i], nil
		}
	}
	return person.Person{}, person.ErrNotFound
}

func (r *memoryRepository) Link(_ context.Context, supervisorID, subordinateID int64) error {
	if r.failLink != nil {
		return r.failLink
	}
	if supervisorID == subordinateID {
		return person.ErrSelfReference
	}
	if !r.has(supervisorID) || !r.has(subordinateID) {
		return person.ErrNotFound
	}
	r.links++
	r.edges[person.Edge{SupervisorID: supervisorID, SubordinateID: subordinateID}] = struct{}{}
	return nil
}

func (r *memoryRepository) Unlink(_ context.Context, supervisorID, subordinateID int64) error {
	e := person.Edge{SupervisorID: supervisorID, SubordinateID: subordinateID}
	if _, ok := r.edges[e]; !ok {
		return person.ErrRelationNotFound
	}
	delete(r.edges, e)
	return nil
}

func (r *memoryRepository) has(id int64) bool {
	return slices.ContainsFunc(r.persons, func(p person.Person) bool { return p.ID() == id })
}

func (r *memoryRepository) byName(name string) (person.Person, bool) {
	all, _ := r.GetAll(context.Background())
	for _, p := range all {
		if p.Name() == name {
			return p, true
		}
	}
	return person.Person{}, false
}

func (r *memoryRepository) names() []string {
	out := make([]string, 0, len(r.persons))
	for _, p := range r.persons {
		out = append(out, p.Name())
	}
	return out
}

type snapshotTx struct {
	repo      *memoryRepository
	readOnly  int
	readWrite int
}

func (t *snapshotTx) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	t.readOnly++
	return fn(ctx)
}

func (t *snapshotTx) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	t.readWrite++
	state := t.repo.snapshot()
	if err := fn(ctx); err != nil {
		t.repo.restore(state)
		return err
	}
	return nil
}

var errStorage = errors.New("storage unavailable")

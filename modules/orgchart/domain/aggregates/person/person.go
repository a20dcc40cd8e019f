package person

import (
	"slices"
	"strings"
	"time"
)

// Person is one individual of the organization chart. Supervisor and
// subordinate ids are both read from the same edge relation, so one is always
// the inverse of the other.
type Person struct {
	id             int64
	name           string
	title          *string
	department     *string
	shift          string
	imagePath      *string
	supervisorIDs  []int64
	subordinateIDs []int64
	createdAt      time.Time
}

func New(name string, title, department *string, shift string, imagePath *string) Person {
	return Person{
		name:       strings.TrimSpace(name),
		title:      cloneString(title),
		department: cloneString(department),
		shift:      shift,
		imagePath:  cloneString(imagePath),
	}
}

// FromRow builds an unsaved Person out of a normalized row.
func FromRow(r Row) Person {
	return New(r.Name, r.Title, r.Department, r.Shift, r.ImagePath)
}

func Hydrate(
	id int64,
	name string,
	title *string,
	department *string,
	shift string,
	imagePath *string,
	createdAt time.Time,
) Person {
	p := New(name, title, department, shift, imagePath)
	p.id = id
	p.createdAt = createdAt
	return p
}

// WithRelations returns a copy of p carrying the given supervisor and
// subordinate ids, sorted ascending and deduplicated.
func (p Person) WithRelations(supervisorIDs, subordinateIDs []int64) Person {
	p.supervisorIDs = normalizeIDs(supervisorIDs)
	p.subordinateIDs = normalizeIDs(subordinateIDs)
	return p
}

func (p Person) ID() int64              { return p.id }
func (p Person) Name() string           { return p.name }
func (p Person) Title() *string         { return cloneString(p.title) }
func (p Person) Department() *string    { return cloneString(p.department) }
func (p Person) Shift() string          { return p.shift }
func (p Person) ImagePath() *string     { return cloneString(p.imagePath) }
func (p Person) CreatedAt() time.Time   { return p.createdAt }
func (p Person) SupervisorIDs() []int64 { return slices.Clone(p.supervisorIDs) }
func (p Person) SubordinateIDs() []int64 {
	return slices.Clone(p.subordinateIDs)
}
func (p Person) IsZero() bool { return p.id == 0 && p.name == "" }

// Edge is a directed supervisor -> subordinate relationship.
type Edge struct {
	SupervisorID  int64
	SubordinateID int64
}

// AttachEdges distributes edges onto the persons they reference. Edges that
// point at ids missing from persons are ignored.
func AttachEdges(persons []Person, edges []Edge) []Person {
	supervisors := make(map[int64][]int64, len(persons))
	subordinates := make(map[int64][]int64, len(persons))
	for _, e := range edges {
		supervisors[e.SubordinateID] = append(supervisors[e.SubordinateID], e.SupervisorID)
		subordinates[e.SupervisorID] = append(subordinates[e.SupervisorID], e.SubordinateID)
	}
	out := make([]Person, 0, len(persons))
	for _, p := range persons {
		out = append(out, p.WithRelations(supervisors[p.id], subordinates[p.id]))
	}
	return out
}

func normalizeIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}

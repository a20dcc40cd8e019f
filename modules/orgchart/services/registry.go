package services

import "github.com/iota-uz/orgchart/modules/orgchart/domain/aggregates/person"

// registry maps names to the persons created during one import. A later
// binding for the same name replaces the earlier one.
type registry struct {
	byName map[string]person.Person
}

func newRegistry(size int) *registry {
	return &registry{byName: make(map[string]person.Person, size)}
}

// bind records p under its name and returns the binding it replaced, if any.
func (r *registry) bind(p person.Person) (person.Person, bool) {
	prev, replaced := r.byName[p.Name()]
	r.byName[p.Name()] = p
	return prev, replaced
}

func (r *registry) lookup(name string) (person.Person, bool) {
	p, ok := r.byName[name]
	return p, ok
}

func (r *registry) len() int {
	return len(r.byName)
}

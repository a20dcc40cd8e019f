package services

import (
	"context"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/aggregates/person"
)

// ReportEntry describes one stored person with its relations resolved to
// names.
type ReportEntry struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Title        *string  `json:"title"`
	Department   *string  `json:"department"`
	Shift        string   `json:"shift"`
	ImagePath    *string  `json:"image_path"`
	Supervisors  []string `json:"supervisors"`
	Subordinates []string `json:"subordinates"`
}

// Report lists every stored person ordered by id.
func (s *HierarchyService) Report(ctx context.Context) ([]ReportEntry, error) {
	var all []person.Person
	err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		all, err = s.repo.GetAll(txCtx)
		return err
	})
	if err != nil {
		return nil, err
	}

	names := make(map[int64]string, len(all))
	for _, p := range all {
		names[p.ID()] = p.Name()
	}
	resolve := func(ids []int64) []string {
		out := make([]string, 0, len(ids))
		for _, id := range ids {
			if n, ok := names[id]; ok {
				out = append(out, n)
			}
		}
		return out
	}

	entries := make([]ReportEntry, 0, len(all))
	for _, p := range all {
		entries = append(entries, ReportEntry{
			ID:           p.ID(),
			Name:         p.Name(),
			Title:        p.Title(),
			Department:   p.Department(),
			Shift:        p.Shift(),
			ImagePath:    p.ImagePath(),
			Supervisors:  resolve(p.SupervisorIDs()),
			Subordinates: resolve(p.SubordinateIDs()),
		})
	}
	return entries, nil
}

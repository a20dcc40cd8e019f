package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/aggregates/person"
)

var ErrRootRequired = errors.New("orgchart: root name is required")

const (
	StatusOK           = "ok"
	StatusRootNotFound = "root_not_found"
)

type HierarchyOptions struct {
	// OrgName and OrgTitle label the wrapping top node of the document.
	OrgName  string
	OrgTitle string
	// ImagePlaceholder stands in for a missing image path.
	ImagePlaceholder string
	// Collation is a BCP 47 tag for sibling ordering. Empty means byte-wise.
	Collation string
}

type Hierarchy struct {
	RootName  string
	RootFound bool
	// Root is nil when RootFound is false.
	Root *Node
	// Nodes counts emitted persons; Pruned counts repeat visits skipped.
	Nodes  int
	Pruned int
}

func (h *Hierarchy) Status() string {
	if h.RootFound {
		return StatusOK
	}
	return StatusRootNotFound
}

// HierarchyService builds the exported tree from the stored persons.
type HierarchyService struct {
	repo  person.Repository
	tx    TransactionManager
	opts  HierarchyOptions
	order NameOrder
}

func NewHierarchyService(repo person.Repository, tx TransactionManager, opts HierarchyOptions) (*HierarchyService, error) {
	order, err := NewNameOrder(opts.Collation)
	if err != nil {
		return nil, err
	}
	return &HierarchyService{repo: repo, tx: orNoop(tx), opts: opts, order: order}, nil
}

// Build walks the subordinate graph from the latest person named rootName.
// A missing root is not an error: the result reports RootFound=false.
func (s *HierarchyService) Build(ctx context.Context, rootName string) (*Hierarchy, error) {
	rootName = strings.TrimSpace(rootName)
	if rootName == "" {
		return nil, ErrRootRequired
	}

	h := &Hierarchy{RootName: rootName}
	err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		root, err := s.repo.GetByName(txCtx, rootName)
		if errors.Is(err, person.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		all, err := s.repo.GetAll(txCtx)
		if err != nil {
			return err
		}

		b := newTreeBuilder(all, s.order, s.opts.ImagePlaceholder)
		if stored, ok := b.byID[root.ID()]; ok {
			root = stored
		}
		h.Root = b.visit(root)
		h.RootFound = true
		h.Nodes = b.nodes
		h.Pruned = b.pruned
		return nil
	})
	if err != nil {
		recordExport("failed", 0)
		return nil, err
	}

	recordExport(h.Status(), h.Nodes)
	if !h.RootFound {
		logWithFields(ctx, logrus.WarnLevel, "orgchart root not found", logrus.Fields{"root": rootName})
	} else {
		logWithFields(ctx, logrus.InfoLevel, "orgchart hierarchy built", logrus.Fields{
			"root":   rootName,
			"nodes":  h.Nodes,
			"pruned": h.Pruned,
		})
	}
	return h, nil
}

// Document wraps the hierarchy in the organization node. Without a root the
// organization node has no children.
func (s *HierarchyService) Document(h *Hierarchy) *Node {
	doc := &Node{
		Name:      s.opts.OrgName,
		Title:     s.opts.OrgTitle,
		ImagePath: s.opts.ImagePlaceholder,
		Children:  []*Node{},
	}
	if h != nil && h.Root != nil {
		doc.Children = append(doc.Children, h.Root)
	}
	return doc
}

package services

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/aggregates/person"
)

type Format string

const (
	FormatFlat   Format = "flat"
	FormatTreant Format = "treant"
)

func ParseFormat(v string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(v))); f {
	case FormatFlat, FormatTreant:
		return f, nil
	case "":
		return FormatFlat, nil
	default:
		return "", fmt.Errorf("invalid format %q (expected flat|treant)", v)
	}
}

// Node is one person in the exported hierarchy. Children is never nil so it
// always encodes as a JSON array.
type Node struct {
	Name      string  `json:"name"`
	Title     string  `json:"title"`
	ImagePath string  `json:"image_path"`
	Children  []*Node `json:"children"`
}

// NameOrder compares two names for sibling ordering.
type NameOrder func(a, b string) int

// NewNameOrder returns byte-wise ordering for an empty locale and locale
// collation otherwise.
func NewNameOrder(locale string) (NameOrder, error) {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return strings.Compare, nil
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid collation %q: %w", locale, err)
	}
	c := collate.New(tag)
	return c.CompareString, nil
}

type treeBuilder struct {
	byID        map[int64]person.Person
	visited     map[string]struct{}
	order       NameOrder
	placeholder string
	nodes       int
	pruned      int
}

func newTreeBuilder(persons []person.Person, order NameOrder, placeholder string) *treeBuilder {
	byID := make(map[int64]person.Person, len(persons))
	for _, p := range persons {
		byID[p.ID()] = p
	}
	if order == nil {
		order = strings.Compare
	}
	return &treeBuilder{
		byID:        byID,
		visited:     make(map[string]struct{}, len(persons)),
		order:       order,
		placeholder: placeholder,
	}
}

// visit emits p and its not yet visited subordinates in pre-order. A name
// already emitted anywhere in the tree yields nil, which also ends cycles.
func (b *treeBuilder) visit(p person.Person) *Node {
	if _, seen := b.visited[p.Name()]; seen {
		b.pruned++
		return nil
	}
	b.visited[p.Name()] = struct{}{}
	b.nodes++

	node := &Node{
		Name:      p.Name(),
		Title:     valueOr(p.Title(), ""),
		ImagePath: valueOr(p.ImagePath(), b.placeholder),
		Children:  []*Node{},
	}
	for _, sub := range b.subordinates(p) {
		if child := b.visit(sub); child != nil {
			node.Children = append(node.Children, child)
		}
	}
	return node
}

func (b *treeBuilder) subordinates(p person.Person) []person.Person {
	ids := p.SubordinateIDs()
	subs := make([]person.Person, 0, len(ids))
	for _, id := range ids {
		if sub, ok := b.byID[id]; ok {
			subs = append(subs, sub)
		}
	}
	slices.SortStableFunc(subs, func(x, y person.Person) int {
		if c := b.order(x.Name(), y.Name()); c != 0 {
			return c
		}
		switch {
		case x.ID() < y.ID():
			return -1
		case x.ID() > y.ID():
			return 1
		}
		return 0
	})
	return subs
}

func valueOr(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}

type treantText struct {
	Name   string  `json:"name"`
	Title  string  `json:"title"`
	Imagem *string `json:"imagem,omitempty"`
}

type treantNode struct {
	Text     treantText    `json:"text"`
	Children []*treantNode `json:"children"`
}

// toTreant converts a document to the Treant.js layout. The top node labels
// the organization and carries no image.
func toTreant(n *Node, top bool) *treantNode {
	out := &treantNode{
		Text:     treantText{Name: n.Name, Title: n.Title},
		Children: make([]*treantNode, 0, len(n.Children)),
	}
	if !top {
		img := n.ImagePath
		out.Text.Imagem = &img
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, toTreant(c, false))
	}
	return out
}

// EncodeTree writes doc as indented UTF-8 JSON without HTML escaping.
func EncodeTree(w io.Writer, doc *Node, format Format, indent int) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", indent))
	}
	switch format {
	case FormatTreant:
		return enc.Encode(toTreant(doc, true))
	case FormatFlat, "":
		return enc.Encode(doc)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

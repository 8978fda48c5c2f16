// Package links derives navigation links between units once every unit's
// output identity is known. Links only point at parents and same-level
// siblings, so the graph is acyclic by construction.
package links

import (
	"fmt"
	"strings"

	"github.com/dgallion1/booksplit/internal/doctree"
)

// DefaultRoot is the identity of the table of contents.
const DefaultRoot = "README.md"

// Kind labels an edge in the graph.
type Kind string

const (
	KindParent  Kind = "parent"
	KindPrev    Kind = "prev"
	KindNext    Kind = "next"
	KindTOC     Kind = "toc"
	KindChapter Kind = "chapter"
	KindRef     Kind = "ref"
)

// Identity maps a unit to its output identifier.
type Identity func(*doctree.Unit) string

// LinkSet holds the navigation targets of one unit. Empty strings mean
// "no link" (first or last sibling).
type LinkSet struct {
	UnitID  string   `json:"unit_id" yaml:"unit_id"`
	Self    string   `json:"self" yaml:"self"`
	TOC     string   `json:"toc" yaml:"toc"`
	Parent  string   `json:"parent" yaml:"parent"`
	Prev    string   `json:"prev,omitempty" yaml:"prev,omitempty"`
	Next    string   `json:"next,omitempty" yaml:"next,omitempty"`
	Chapter string   `json:"chapter,omitempty" yaml:"chapter,omitempty"`
	Refs    []string `json:"refs,omitempty" yaml:"refs,omitempty"`
}

// Options tunes Build.
type Options struct {
	// Root is the table-of-contents identity; DefaultRoot when empty.
	Root string
	// Bodies maps unit IDs to body text scanned for cross references.
	Bodies map[string]string
}

// Graph is the immutable result of Build.
type Graph struct {
	Root  string              `json:"root" yaml:"root"`
	Order []string            `json:"order" yaml:"order"`
	Sets  map[string]*LinkSet `json:"sets" yaml:"sets"`
}

// Anchor is the fragment naming a unit's entry in the table of contents.
func Anchor(u *doctree.Unit) string {
	return "unit-" + strings.ReplaceAll(u.ID, ".", "-")
}

// Build computes a LinkSet for every unit of h in one pass in document
// order. Identities must be non-empty and unique.
func Build(h *doctree.Hierarchy, identify Identity, opts Options) (*Graph, error) {
	root := opts.Root
	if root == "" {
		root = DefaultRoot
	}
	g := &Graph{
		Root:  root,
		Order: make([]string, 0, len(h.Units)),
		Sets:  make(map[string]*LinkSet, len(h.Units)),
	}

	ids := make(map[*doctree.Unit]string, len(h.Units))
	owner := make(map[string]string, len(h.Units))
	for _, u := range h.Units {
		id := identify(u)
		if id == "" {
			return nil, fmt.Errorf("unit %s: empty identity", u.ID)
		}
		if id == root {
			return nil, fmt.Errorf("unit %s: identity %q collides with the root", u.ID, id)
		}
		if prev, dup := owner[id]; dup {
			return nil, fmt.Errorf("units %s and %s share identity %q", prev, u.ID, id)
		}
		owner[id] = u.ID
		ids[u] = id
	}

	for _, u := range h.Units {
		set := &LinkSet{
			UnitID: u.ID,
			Self:   ids[u],
			TOC:    root + "#" + Anchor(u),
			Parent: root,
		}
		if u.Parent != nil {
			set.Parent = ids[u.Parent]
		}
		if !u.IsChapter() && u.Chapter != nil {
			set.Chapter = ids[u.Chapter]
		}
		sibs := u.Siblings(h)
		if i := indexOf(sibs, u); i >= 0 {
			if i > 0 {
				set.Prev = ids[sibs[i-1]]
			}
			if i+1 < len(sibs) {
				set.Next = ids[sibs[i+1]]
			}
		}
		if body, ok := opts.Bodies[u.ID]; ok {
			set.Refs = resolveRefs(h, ids, u, ScanCrossReferences(body))
		}
		g.Order = append(g.Order, u.ID)
		g.Sets[u.ID] = set
	}
	return g, nil
}

func indexOf(units []*doctree.Unit, u *doctree.Unit) int {
	for i, s := range units {
		if s == u {
			return i
		}
	}
	return -1
}

func resolveRefs(h *doctree.Hierarchy, ids map[*doctree.Unit]string, self *doctree.Unit, refs []Reference) []string {
	var out []string
	seen := map[string]bool{}
	for _, r := range refs {
		target := r.Resolve(h)
		if target == nil || target == self {
			continue
		}
		id := ids[target]
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Get returns the LinkSet of a unit.
func (g *Graph) Get(unitID string) (LinkSet, bool) {
	s, ok := g.Sets[unitID]
	if !ok {
		return LinkSet{}, false
	}
	return *s, true
}

// Edge is one directed link.
type Edge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
	Kind Kind   `json:"kind" yaml:"kind"`
}

// Edges flattens the graph in document order. Root-directed parent links of
// chapters are included; TOC links are not.
func (g *Graph) Edges() []Edge {
	var out []Edge
	for _, id := range g.Order {
		s := g.Sets[id]
		add := func(k Kind, to string) {
			if to != "" {
				out = append(out, Edge{From: s.Self, To: to, Kind: k})
			}
		}
		add(KindParent, s.Parent)
		add(KindPrev, s.Prev)
		add(KindNext, s.Next)
		add(KindChapter, s.Chapter)
		for _, r := range s.Refs {
			add(KindRef, r)
		}
	}
	return out
}

// Broken lists edges whose target does not satisfy exists. The root is
// checked like any other target.
func (g *Graph) Broken(exists func(id string) bool) []Edge {
	var out []Edge
	for _, e := range g.Edges() {
		if !exists(e.To) {
			out = append(out, e)
		}
	}
	return out
}

// Stats summarizes link counts per kind.
func (g *Graph) Stats() map[Kind]int {
	out := make(map[Kind]int)
	for _, e := range g.Edges() {
		out[e.Kind]++
	}
	return out
}

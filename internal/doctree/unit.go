package doctree

import (
	"strconv"
	"strings"
)

// ChapterLevel is the level of top-level units. Sections use 1..MaxSectionLevel.
const (
	ChapterLevel    = 0
	MaxSectionLevel = 5
)

// Unit is a chapter or a section with an inclusive line range.
type Unit struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Heading   string  `json:"heading"`
	Rule      string  `json:"rule"`
	Level     int     `json:"level"`
	StartLine int     `json:"start_line"`
	EndLine   int     `json:"end_line"`
	Ordinal   int     `json:"ordinal"`
	Children  []*Unit `json:"children,omitempty"`

	// Parent is the enclosing unit; nil for chapters.
	Parent *Unit `json:"-"`
	// Chapter is the owning chapter; for chapters it points to itself.
	Chapter *Unit `json:"-"`
}

// IsChapter reports whether u is a top-level unit.
func (u *Unit) IsChapter() bool { return u.Level == ChapterLevel }

// Contains reports whether line falls inside u's range.
func (u *Unit) Contains(line int) bool {
	return line >= u.StartLine && line <= u.EndLine
}

// BodyRange is the range minus the heading line. from > to when the body is empty.
func (u *Unit) BodyRange() (from, to int) {
	return u.StartLine + 1, u.EndLine
}

// Path returns the ordinals from the owning chapter down to u.
func (u *Unit) Path() []int {
	var rev []int
	for n := u; n != nil; n = n.Parent {
		rev = append(rev, n.Ordinal)
	}
	out := make([]int, len(rev))
	for i := range rev {
		out[i] = rev[len(rev)-1-i]
	}
	return out
}

// Siblings returns the units sharing u's parent, u included.
func (u *Unit) Siblings(h *Hierarchy) []*Unit {
	if u.Parent == nil {
		return h.Chapters
	}
	return u.Parent.Children
}

func unitID(path []int) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ".")
}

// AssignID sets u.ID from its ordinal path, e.g. "2" or "2.1.3".
func (u *Unit) AssignID() { u.ID = unitID(u.Path()) }

// Hierarchy is the result of structure analysis.
type Hierarchy struct {
	Chapters  []*Unit   `json:"chapters"`
	Units     []*Unit   `json:"-"`
	Warnings  []Warning `json:"warnings,omitempty"`
	LineCount int       `json:"line_count"`
	Patterns  []string  `json:"patterns"`
}

// PreambleEnd returns the last line before the first chapter (0 if none).
func (h *Hierarchy) PreambleEnd() int {
	if len(h.Chapters) == 0 {
		return h.LineCount
	}
	return h.Chapters[0].StartLine - 1
}

// Sections returns every non-chapter unit in document order.
func (h *Hierarchy) Sections() []*Unit {
	var out []*Unit
	for _, u := range h.Units {
		if !u.IsChapter() {
			out = append(out, u)
		}
	}
	return out
}

// Find returns the unit with the given ID.
func (h *Hierarchy) Find(id string) *Unit {
	for _, u := range h.Units {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// Owner returns the deepest unit containing line, or nil for preamble lines.
func (h *Hierarchy) Owner(line int) *Unit {
	var owner *Unit
	for _, u := range h.Units {
		if u.StartLine > line {
			break
		}
		if u.Contains(line) {
			owner = u
		}
	}
	return owner
}

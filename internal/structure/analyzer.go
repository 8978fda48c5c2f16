// Package structure detects chapter and section boundaries in a line-addressed
// document and resolves them into a hierarchy of units.
package structure

import (
	"fmt"
	"strings"

	"github.com/dgallion1/booksplit/internal/doctree"
	"github.com/dgallion1/booksplit/internal/patterns"
)

// Analyzer scans a document against a pattern set. The zero value uses the
// default pattern set and recognizes sections.
type Analyzer struct {
	Patterns *patterns.Set

	// ChaptersOnly ignores every section-level boundary.
	ChaptersOnly bool
}

// Analyze is a shorthand for Analyzer{Patterns: set}.Analyze(doc).
func Analyze(doc *doctree.Document, set *patterns.Set) (*doctree.Hierarchy, error) {
	a := Analyzer{Patterns: set}
	return a.Analyze(doc)
}

// Analyze scans doc top to bottom with an explicit stack of open units.
// A boundary at level L closes every open unit at level >= L. A section with
// no open chapter is an orphan: it is recorded as a warning and discarded.
// Lines inside fenced code blocks never produce boundaries.
func (a Analyzer) Analyze(doc *doctree.Document) (*doctree.Hierarchy, error) {
	set := a.Patterns
	if set == nil {
		set = patterns.Default()
	}

	last := doc.Len()
	h := &doctree.Hierarchy{LineCount: last, Patterns: set.Names()}
	var stack []*doctree.Unit

	closeFrom := func(level, end int) {
		for len(stack) > 0 && stack[len(stack)-1].Level >= level {
			stack[len(stack)-1].EndLine = end
			stack = stack[:len(stack)-1]
		}
	}

	var fence doctree.Fence
	for n := 1; n <= last; n++ {
		line := doc.Line(n)
		if fence.Next(line) {
			continue
		}

		m, ok := set.Match(strings.TrimSpace(line))
		if !ok {
			continue
		}
		if m.Level > doctree.ChapterLevel && len(stack) == 0 {
			h.Warnings = append(h.Warnings, doctree.Warning{
				Kind:    doctree.WarnOrphanSection,
				Line:    n,
				Message: fmt.Sprintf("section %q (rule %s) appears before any chapter", m.Title, m.Rule),
			})
			continue
		}
		if a.ChaptersOnly && m.Level > doctree.ChapterLevel {
			continue
		}

		closeFrom(m.Level, n-1)

		u := &doctree.Unit{
			Title:     m.Title,
			Heading:   line,
			Rule:      m.Rule,
			Level:     m.Level,
			StartLine: n,
		}
		if len(stack) == 0 {
			u.Chapter = u
			u.Ordinal = len(h.Chapters) + 1
			h.Chapters = append(h.Chapters, u)
		} else {
			parent := stack[len(stack)-1]
			u.Parent = parent
			u.Chapter = parent.Chapter
			u.Ordinal = len(parent.Children) + 1
			parent.Children = append(parent.Children, u)
		}
		u.AssignID()
		h.Units = append(h.Units, u)
		stack = append(stack, u)
	}
	closeFrom(doctree.ChapterLevel, last)

	if len(h.Chapters) == 0 {
		return nil, doctree.NoChapters(last, h.Patterns, h.Warnings)
	}
	return h, nil
}

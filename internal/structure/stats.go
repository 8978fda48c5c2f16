package structure

import (
	"fmt"

	"github.com/dgallion1/booksplit/internal/doctree"
)

// Stats summarizes a hierarchy.
type Stats struct {
	TotalLines           int         `json:"total_lines"`
	Chapters             int         `json:"chapters"`
	Sections             int         `json:"sections"`
	SectionsByLevel      map[int]int `json:"sections_by_level"`
	ChaptersWithSections int         `json:"chapters_with_sections"`
	AvgChapterLines      float64     `json:"avg_chapter_lines"`
	PreambleLines        int         `json:"preamble_lines"`
	Orphans              int         `json:"orphans"`
}

// Summarize computes Stats for h.
func Summarize(h *doctree.Hierarchy) Stats {
	s := Stats{
		TotalLines:      h.LineCount,
		Chapters:        len(h.Chapters),
		SectionsByLevel: make(map[int]int),
		PreambleLines:   h.PreambleEnd(),
	}
	for _, u := range h.Units {
		if u.IsChapter() {
			continue
		}
		s.Sections++
		s.SectionsByLevel[u.Level]++
	}
	total := 0
	for _, c := range h.Chapters {
		total += c.EndLine - c.StartLine + 1
		if len(c.Children) > 0 {
			s.ChaptersWithSections++
		}
	}
	if len(h.Chapters) > 0 {
		s.AvgChapterLines = float64(total) / float64(len(h.Chapters))
	}
	for _, w := range h.Warnings {
		if w.Kind == doctree.WarnOrphanSection {
			s.Orphans++
		}
	}
	return s
}

// Validate checks the partition invariants of h and returns human-readable
// issues. An empty result means the hierarchy is consistent. Chapters with
// no body are reported too, although they are legal.
func Validate(h *doctree.Hierarchy) []string {
	var issues []string

	for i, c := range h.Chapters {
		if c.EndLine < c.StartLine {
			issues = append(issues, fmt.Sprintf("chapter %s %q has inverted range [%d,%d]", c.ID, c.Title, c.StartLine, c.EndLine))
		}
		if i > 0 && h.Chapters[i-1].EndLine+1 != c.StartLine {
			issues = append(issues, fmt.Sprintf("chapters %s and %s are not contiguous", h.Chapters[i-1].ID, c.ID))
		}
		if c.EndLine == c.StartLine {
			issues = append(issues, fmt.Sprintf("empty chapter %s %q", c.ID, c.Title))
		}
	}
	if n := len(h.Chapters); n > 0 && h.Chapters[n-1].EndLine != h.LineCount {
		issues = append(issues, fmt.Sprintf("last chapter ends at %d, document has %d lines", h.Chapters[n-1].EndLine, h.LineCount))
	}

	for _, u := range h.Units {
		if u.IsChapter() {
			continue
		}
		if u.Parent == nil || u.Chapter == nil {
			issues = append(issues, fmt.Sprintf("section %s %q has no parent", u.ID, u.Title))
			continue
		}
		if !u.Parent.Contains(u.StartLine) || !u.Parent.Contains(u.EndLine) {
			issues = append(issues, fmt.Sprintf("section %s %q escapes parent %s", u.ID, u.Title, u.Parent.ID))
		}
		if u.Level <= u.Parent.Level {
			issues = append(issues, fmt.Sprintf("section %s level %d not deeper than parent level %d", u.ID, u.Level, u.Parent.Level))
		}
	}

	for _, u := range h.Units {
		kids := u.Children
		for i := 1; i < len(kids); i++ {
			if kids[i-1].EndLine+1 != kids[i].StartLine {
				issues = append(issues, fmt.Sprintf("siblings %s and %s are not contiguous", kids[i-1].ID, kids[i].ID))
			}
		}
		if n := len(kids); n > 0 && kids[n-1].EndLine != u.EndLine {
			issues = append(issues, fmt.Sprintf("last child %s of %s ends at %d, parent ends at %d", kids[n-1].ID, u.ID, kids[n-1].EndLine, u.EndLine))
		}
	}
	return issues
}

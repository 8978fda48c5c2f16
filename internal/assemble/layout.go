// Package assemble turns analyzed, tagged and linked units into a set of
// markdown files: one per chapter, one per section, and a README table of
// contents. The core packages never depend on it; it supplies the file
// identities they need through Layout.
package assemble

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/booksplit/internal/doctree"
	"github.com/dgallion1/booksplit/internal/links"
)

// Options controls file naming and content.
type Options struct {
	ChapterDir  string
	SectionDir  string
	Root        string
	Sections    bool
	Navigation  bool
	FrontMatter bool
	Labels      links.NavLabels
}

// DefaultOptions returns the standard book layout.
func DefaultOptions() Options {
	return Options{
		ChapterDir:  "chapters",
		SectionDir:  "sections",
		Root:        links.DefaultRoot,
		Sections:    true,
		Navigation:  true,
		FrontMatter: true,
		Labels:      links.DefaultNavLabels(),
	}
}

// Layout assigns every unit of a hierarchy its output path. Ordinal
// prefixes keep paths unique even when titles repeat.
type Layout struct {
	opts Options
	ids  map[*doctree.Unit]string
}

// NewLayout computes paths for every unit in h.
func NewLayout(h *doctree.Hierarchy, opts Options) *Layout {
	if opts.Root == "" {
		opts.Root = links.DefaultRoot
	}
	l := &Layout{opts: opts, ids: make(map[*doctree.Unit]string, len(h.Units))}
	for _, u := range h.Units {
		l.ids[u] = l.name(u)
	}
	return l
}

func (l *Layout) name(u *doctree.Unit) string {
	p := u.Path()
	if u.IsChapter() {
		return path.Join(l.opts.ChapterDir, fmt.Sprintf("%02d_%s.md", p[0], Slugify(u.Title)))
	}
	nums := make([]string, len(p))
	for i, n := range p {
		nums[i] = fmt.Sprintf("%02d", n)
	}
	return path.Join(l.opts.SectionDir, strings.Join(nums, "-")+"_"+Slugify(u.Title)+".md")
}

// Identify returns the output path of u relative to the book root. It
// satisfies links.Identity.
func (l *Layout) Identify(u *doctree.Unit) string { return l.ids[u] }

// UnitDir returns the directory u's file is written to.
func (l *Layout) UnitDir(u *doctree.Unit) string { return path.Dir(l.ids[u]) }

// Root returns the table-of-contents path.
func (l *Layout) Root() string { return l.opts.Root }

var (
	slugJunk     = regexp.MustCompile(`[^\p{L}\p{N}]+`)
	numberPrefix = regexp.MustCompile(`^(?:第[^\s章节]+[章节]|(?i:chapter|section)\s+[0-9A-Za-z.]+|[0-9]+(?:\.[0-9]+)*|[一二三四五六七八九十百千零〇两]+、|[(（][^)）]*[)）])[\s:：.、]*`)
)

// Slugify converts a title to a file-name-safe slug. Leading numbering such
// as "第三章" or "2.1" is dropped since paths carry ordinals already. Letters
// and digits of every script are kept; other runs become a single "_".
func Slugify(title string) string {
	s := strings.TrimSpace(title)
	if stripped := strings.TrimSpace(numberPrefix.ReplaceAllString(s, "")); stripped != "" {
		s = stripped
	}
	s = strings.ToLower(s)
	s = slugJunk.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if utf8.RuneCountInString(s) > 50 {
		s = strings.TrimRight(string([]rune(s)[:50]), "_")
	}
	if s == "" {
		return "untitled"
	}
	return s
}

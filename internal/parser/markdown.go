package parser

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dgallion1/booksplit/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files. ATX headings pass through;
// setext headings ("Title" over "===") are rewritten as ATX lines and
// their underline dropped.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}
	doc, err := newDocument(filename, src)
	if err != nil {
		return nil, err
	}

	lines, changed := atxHeadings(doc)
	if !changed {
		return doc, nil
	}
	out, err := doctree.FromLines(filename, lines)
	if err != nil {
		return nil, err
	}
	out.Title = doc.Title
	return out, nil
}

// atxHeadings returns the document lines with every top-level setext
// heading collapsed into a single ATX line.
func atxHeadings(doc *doctree.Document) ([]string, bool) {
	src := []byte(doc.Text())
	root := goldmark.New().Parser().Parse(text.NewReader(src))

	lines := doc.Slice(1, doc.Len())
	starts := make([]int, len(lines))
	off := 0
	for i, l := range lines {
		starts[i] = off
		off += len(l) + 1
	}
	lineOf := func(offset int) int {
		return sort.Search(len(starts), func(i int) bool { return starts[i] > offset }) - 1
	}

	drop := make(map[int]bool)
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			continue
		}
		segs := h.Lines()
		first := lineOf(segs.At(0).Start)
		if strings.HasPrefix(strings.TrimLeft(lines[first], " "), "#") {
			continue
		}
		parts := make([]string, 0, segs.Len())
		for i := 0; i < segs.Len(); i++ {
			seg := segs.At(i)
			parts = append(parts, strings.TrimSpace(string(seg.Value(src))))
		}
		last := lineOf(segs.At(segs.Len() - 1).Start)
		lines[first] = strings.Repeat("#", h.Level) + " " + strings.Join(parts, " ")
		for i := first + 1; i <= last+1 && i < len(lines); i++ {
			drop[i] = true
		}
	}
	if len(drop) == 0 {
		return lines, false
	}

	out := make([]string, 0, len(lines)-len(drop))
	for i, l := range lines {
		if !drop[i] {
			out = append(out, l)
		}
	}
	return out, true
}

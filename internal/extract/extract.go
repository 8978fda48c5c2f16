package extract

import (
	"strings"

	"github.com/dgallion1/booksplit/internal/doctree"
)

// Extractor slices unit bodies out of a document. With AssetDir set, relative
// image references are rewritten to point into AssetDir from the directory
// UnitDir reports for the unit. Both are slash-separated paths relative to the
// output root.
type Extractor struct {
	AssetDir string
	UnitDir  func(u *doctree.Unit) string
}

// Extract returns the body of u: lines StartLine+1..EndLine inclusive. The
// document is never modified. Malformed asset references are reported as
// warnings and left as written.
func (e Extractor) Extract(u *doctree.Unit, doc *doctree.Document) (*doctree.ContentBlock, []doctree.Warning) {
	from, to := u.BodyRange()
	lines := doc.Slice(from, to)
	block := &doctree.ContentBlock{
		UnitID:    u.ID,
		StartLine: from,
		EndLine:   to,
		Lines:     lines,
	}
	if e.AssetDir == "" || len(lines) == 0 {
		block.Text = strings.Join(lines, "\n")
		return block, nil
	}

	unitDir := ""
	if e.UnitDir != nil {
		unitDir = e.UnitDir(u)
	}
	rw := rewriter{assetDir: e.AssetDir, unitDir: unitDir}
	text, refs, warns := rw.rewrite(lines, from)
	for i := range warns {
		warns[i].Unit = u.ID
	}
	block.Text = text
	block.Assets = refs
	return block, warns
}

// ExtractAll extracts every unit of h in document order.
func (e Extractor) ExtractAll(h *doctree.Hierarchy, doc *doctree.Document) ([]*doctree.ContentBlock, []doctree.Warning) {
	blocks := make([]*doctree.ContentBlock, 0, len(h.Units))
	var warns []doctree.Warning
	for _, u := range h.Units {
		b, w := e.Extract(u, doc)
		blocks = append(blocks, b)
		warns = append(warns, w...)
	}
	return blocks, warns
}

// WithContext returns up to n lines before u's heading and after its last line.
func WithContext(u *doctree.Unit, doc *doctree.Document, n int) (before, after []string) {
	if n <= 0 {
		return nil, nil
	}
	return doc.Slice(u.StartLine-n, u.StartLine-1), doc.Slice(u.EndLine+1, u.EndLine+n)
}

// Reassemble rebuilds the source lines from the preamble, each chapter's
// heading line and each chapter's block. blocks is keyed by unit ID.
func Reassemble(h *doctree.Hierarchy, doc *doctree.Document, blocks map[string]*doctree.ContentBlock) []string {
	out := doc.Slice(1, h.PreambleEnd())
	for _, ch := range h.Chapters {
		out = append(out, ch.Heading)
		if b, ok := blocks[ch.ID]; ok {
			out = append(out, b.Lines...)
		}
	}
	return out
}

// ByUnit indexes blocks by unit ID.
func ByUnit(blocks []*doctree.ContentBlock) map[string]*doctree.ContentBlock {
	m := make(map[string]*doctree.ContentBlock, len(blocks))
	for _, b := range blocks {
		m[b.UnitID] = b
	}
	return m
}

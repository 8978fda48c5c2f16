package links

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dgallion1/booksplit/internal/doctree"
)

// RefKind classifies a cross reference found in body text.
type RefKind string

const (
	RefChapter RefKind = "chapter"
	RefSection RefKind = "section"
	RefFigure  RefKind = "figure"
	RefTable   RefKind = "table"
)

// Reference is an in-text mention of another part of the book, such as
// 第3章, 2.1节, 图1-2 or "Section 4.2".
type Reference struct {
	Kind  RefKind `json:"kind" yaml:"kind"`
	Label string  `json:"label" yaml:"label"`
	Text  string  `json:"text" yaml:"text"`
}

type refPattern struct {
	re   *regexp.Regexp
	kind func(m []string) RefKind
}

func fixed(k RefKind) func([]string) RefKind {
	return func([]string) RefKind { return k }
}

func figureOrTable(m []string) RefKind {
	switch strings.ToLower(m[1]) {
	case "表", "table":
		return RefTable
	}
	return RefFigure
}

// Each pattern puts the label in its last capture group.
var refPatterns = []refPattern{
	{regexp.MustCompile(`第([0-9一二三四五六七八九十百零〇两]+)章`), fixed(RefChapter)},
	{regexp.MustCompile(`(\d+(?:\.\d+)+)\s*节`), fixed(RefSection)},
	{regexp.MustCompile(`([图表])\s*(\d+[-.]\d+)`), figureOrTable},
	{regexp.MustCompile(`(?i)\bchapter\s+(\d+)\b`), fixed(RefChapter)},
	{regexp.MustCompile(`(?i)\bsection\s+(\d+(?:\.\d+)+)\b`), fixed(RefSection)},
	{regexp.MustCompile(`(?i)\b(figure|table)\s+(\d+[-.]\d+)\b`), figureOrTable},
}

// ScanCrossReferences returns the references in text in order of first
// appearance, deduplicated by kind and label.
func ScanCrossReferences(text string) []Reference {
	type hit struct {
		pos int
		ref Reference
	}
	var hits []hit
	for _, p := range refPatterns {
		for _, idx := range p.re.FindAllStringSubmatchIndex(text, -1) {
			m := make([]string, len(idx)/2)
			for i := range m {
				if idx[2*i] >= 0 {
					m[i] = text[idx[2*i]:idx[2*i+1]]
				}
			}
			hits = append(hits, hit{pos: idx[0], ref: Reference{
				Kind:  p.kind(m),
				Label: m[len(m)-1],
				Text:  m[0],
			}})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	var out []Reference
	seen := make(map[string]bool)
	for _, h := range hits {
		key := string(h.ref.Kind) + ":" + h.ref.Label
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, h.ref)
	}
	return out
}

// Resolve maps a chapter or section reference to a unit of h. Chapter
// numbers are matched against chapter ordinals, section labels against
// unit IDs. Figures and tables never resolve.
func (r Reference) Resolve(h *doctree.Hierarchy) *doctree.Unit {
	switch r.Kind {
	case RefChapter:
		n, ok := ParseNumeral(r.Label)
		if !ok || n < 1 || n > len(h.Chapters) {
			return nil
		}
		return h.Chapters[n-1]
	case RefSection:
		if u := h.Find(r.Label); u != nil && !u.IsChapter() {
			return u
		}
	}
	return nil
}

var cnDigits = map[rune]int{
	'零': 0, '〇': 0, '一': 1, '二': 2, '两': 2, '三': 3, '四': 4,
	'五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
}

var cnUnits = map[rune]int{'十': 10, '百': 100, '千': 1000}

// ParseNumeral parses Arabic or Chinese numerals such as "12", "十二" or
// "一百零五".
func ParseNumeral(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	total, cur := 0, 0
	for _, r := range s {
		if d, ok := cnDigits[r]; ok {
			cur = d
			continue
		}
		u, ok := cnUnits[r]
		if !ok {
			return 0, false
		}
		if cur == 0 {
			cur = 1
		}
		total += cur * u
		cur = 0
	}
	return total + cur, true
}

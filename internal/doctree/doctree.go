package doctree

import (
	"strings"
	"unicode/utf8"
)

// Document is an immutable, line-addressed text buffer. Lines are 1-indexed.
type Document struct {
	Name  string // Source name (usually the filename)
	Title string // Document title (from metadata or filename)

	lines           []string
	trailingNewline bool
}

// NewDocument splits text into lines. A trailing newline does not produce
// an extra empty line. Invalid UTF-8 is rejected with an *EncodingError.
func NewDocument(name, text string) (*Document, error) {
	if !utf8.ValidString(text) {
		return nil, locateEncodingError(text)
	}
	doc := &Document{Name: name}
	if text == "" {
		return doc, nil
	}
	doc.trailingNewline = strings.HasSuffix(text, "\n")
	doc.lines = strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	return doc, nil
}

// FromLines builds a Document from already-split lines.
func FromLines(name string, lines []string) (*Document, error) {
	for i, l := range lines {
		if !utf8.ValidString(l) {
			e := locateEncodingError(l)
			e.Line = i + 1
			return nil, e
		}
		if strings.Contains(l, "\n") {
			return nil, &EncodingError{Line: i + 1, Offset: strings.Index(l, "\n"), Reason: "embedded newline"}
		}
	}
	cp := make([]string, len(lines))
	copy(cp, lines)
	return &Document{Name: name, lines: cp, trailingNewline: len(cp) > 0}, nil
}

func locateEncodingError(text string) *EncodingError {
	line, col := 1, 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if r == utf8.RuneError && size <= 1 {
			return &EncodingError{Line: line, Offset: col, Reason: "invalid utf-8"}
		}
		if r == '\n' {
			line++
			col = 0
		} else {
			col += size
		}
		i += size
	}
	return &EncodingError{Line: line, Offset: col, Reason: "invalid utf-8"}
}

// Len returns the number of lines.
func (d *Document) Len() int { return len(d.lines) }

// Line returns line n (1-indexed), or "" when n is out of range.
func (d *Document) Line(n int) string {
	if n < 1 || n > len(d.lines) {
		return ""
	}
	return d.lines[n-1]
}

// Slice returns a copy of lines [from, to] inclusive, clamped to the document.
// An empty range yields nil.
func (d *Document) Slice(from, to int) []string {
	if from < 1 {
		from = 1
	}
	if to > len(d.lines) {
		to = len(d.lines)
	}
	if from > to {
		return nil
	}
	out := make([]string, to-from+1)
	copy(out, d.lines[from-1:to])
	return out
}

// Text joins the lines back into the original buffer.
func (d *Document) Text() string {
	s := strings.Join(d.lines, "\n")
	if d.trailingNewline {
		s += "\n"
	}
	return s
}

// TrailingNewline reports whether the source ended with a newline.
func (d *Document) TrailingNewline() bool { return d.trailingNewline }

// Tag is a keyword with a blended relevance score in [0,1].
type Tag struct {
	Text  string  `json:"text" yaml:"text"`
	Score float64 `json:"score" yaml:"score"`
}

// TagTexts returns the keyword strings in order.
func TagTexts(tags []Tag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.Text
	}
	return out
}

// AssetRef is an image reference found in a content block.
type AssetRef struct {
	Line     int    `json:"line"`
	Original string `json:"original"`
	Resolved string `json:"resolved,omitempty"`
}

// ContentBlock is the body of one Unit: its line range minus the heading line.
// Lines holds the untouched source lines; Text has asset references rewritten.
type ContentBlock struct {
	UnitID    string     `json:"unit_id"`
	StartLine int        `json:"start_line"`
	EndLine   int        `json:"end_line"`
	Lines     []string   `json:"-"`
	Text      string     `json:"text"`
	Assets    []AssetRef `json:"assets,omitempty"`
}

// Empty reports whether the block holds no non-blank text.
func (b *ContentBlock) Empty() bool {
	return strings.TrimSpace(b.Text) == ""
}

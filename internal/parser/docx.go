package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/booksplit/internal/doctree"
)

// DOCXParser turns a Word document into markdown lines. Heading styles
// become ATX headings of the same depth so the structure rules can match
// them; body paragraphs are separated by blank lines and tables are skipped.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	f, size, cleanup, err := spool(r, "booksplit-docx-*.docx")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	doc, err := docx.Parse(f, size)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var out []string
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := runText(para)
		if text == "" {
			continue
		}
		if depth := headingDepth(para); depth > 0 {
			text = strings.Repeat("#", depth) + " " + text
		}
		out = append(out, text)
	}
	return newDocument(filename, []byte(strings.Join(out, "\n\n")+"\n"))
}

// headingDepth maps a paragraph style to a heading depth, 0 for body text.
// English templates use style IDs like "Heading2"; Chinese Word templates
// use bare numeric IDs ("1", "2", ...) for 标题 1, 标题 2. "Title" is depth 1.
func headingDepth(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	id := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if id == "title" {
		return 1
	}
	id = strings.TrimPrefix(id, "heading")
	n, err := strconv.Atoi(id)
	if err != nil || n < 1 || n > 6 {
		return 0
	}
	return n
}

func runText(para *docx.Paragraph) string {
	var b strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				b.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(b.String())
}

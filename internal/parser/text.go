package parser

import (
	"fmt"
	"io"

	"github.com/dgallion1/booksplit/internal/doctree"
)

// TextParser handles plain text files. Lines pass through unchanged, so
// chapter rules must match the text's own heading conventions.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	return newDocument(filename, src)
}

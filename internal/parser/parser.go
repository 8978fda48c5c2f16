package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/booksplit/internal/doctree"
)

// Parser converts raw document bytes into a line-addressed Document.
// Headings are normalized to ATX markdown lines ("# Title") so the
// structure rules see one heading per line.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.Document, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: true}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Load picks a parser by extension and parses r.
func Load(r io.Reader, filename string) (*doctree.Document, error) {
	p, err := ForFile(filename)
	if err != nil {
		return nil, err
	}
	return p.Parse(r, filename)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// newDocument strips a BOM, normalizes line endings and titles the
// document after its file name.
func newDocument(filename string, src []byte) (*doctree.Document, error) {
	src = bytes.TrimPrefix(src, utf8BOM)
	src = bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n"))
	src = bytes.ReplaceAll(src, []byte("\r"), []byte("\n"))
	doc, err := doctree.NewDocument(filename, string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	doc.Title = baseTitle(filename)
	return doc, nil
}

func baseTitle(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// spool copies r to a temp file for libraries that need random access. The
// returned file is positioned at the start; cleanup removes it.
func spool(r io.Reader, pattern string) (f *os.File, size int64, cleanup func(), err error) {
	f, err = os.CreateTemp("", pattern)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("create temp file: %w", err)
	}
	cleanup = func() {
		f.Close()
		os.Remove(f.Name())
	}
	if size, err = io.Copy(f, r); err != nil {
		cleanup()
		return nil, 0, nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err = f.Seek(0, io.SeekStart); err != nil {
		cleanup()
		return nil, 0, nil, fmt.Errorf("seek temp file: %w", err)
	}
	return f, size, cleanup, nil
}

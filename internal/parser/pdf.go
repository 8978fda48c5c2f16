package parser

import (
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/booksplit/internal/doctree"
)

// PDFParser reads the text layer of a PDF. Pages are joined with blank
// lines and bare page-number lines are dropped so they never end up inside
// a unit body. With FallbackPdftotext set, an unreadable or empty text layer
// is retried with the pdftotext binary.
type PDFParser struct {
	FallbackPdftotext bool
}

// pageNumberLine matches running folios such as "12", "- 12 -" or "第12页".
var pageNumberLine = regexp.MustCompile(`^(?:[-–—\s]*\d+[-–—\s]*|第\s*\d+\s*页)$`)

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	f, _, cleanup, err := spool(r, "booksplit-pdf-*.pdf")
	if err != nil {
		return nil, err
	}
	path := f.Name()
	f.Close()
	defer cleanup()

	pages, err := pdfPages(path)
	if (err != nil || blank(pages)) && p.FallbackPdftotext {
		if out, altErr := exec.Command("pdftotext", "-layout", path, "-").Output(); altErr == nil {
			pages, err = strings.Split(string(out), "\f"), nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	var kept []string
	for _, page := range pages {
		var lines []string
		for _, line := range strings.Split(page, "\n") {
			if pageNumberLine.MatchString(strings.TrimSpace(line)) {
				continue
			}
			lines = append(lines, strings.TrimRight(line, " \t"))
		}
		if body := strings.TrimSpace(strings.Join(lines, "\n")); body != "" {
			kept = append(kept, body)
		}
	}
	return newDocument(filename, []byte(strings.Join(kept, "\n\n")+"\n"))
}

// pdfPages returns the plain text of each page. Pages that fail to decode
// are kept as empty strings so page positions stay stable.
func pdfPages(path string) ([]string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			text = ""
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func blank(pages []string) bool {
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return false
		}
	}
	return true
}

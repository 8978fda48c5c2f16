package extract

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/booksplit/internal/doctree"
)

var inlineImage = regexp.MustCompile(`!\[([^\]]*)\]\(\s*(<[^>]*>|[^\s)]*)(\s+(?:"[^"]*"|'[^']*'))?\s*\)`)

var (
	errExternal    = errors.New("external reference")
	errEmptyRef    = errors.New("empty destination")
	errNoFileName  = errors.New("reference names no file")
)

type rewriter struct {
	assetDir string
	unitDir  string
}

// rewrite resolves relative image references in lines. Only references that
// goldmark recognizes as images are touched, so examples inside code are kept.
func (rw rewriter) rewrite(lines []string, firstLine int) (string, []doctree.AssetRef, []doctree.Warning) {
	images := imageDestinations([]byte(strings.Join(lines, "\n")))
	if len(images) == 0 {
		return strings.Join(lines, "\n"), nil, nil
	}

	var refs []doctree.AssetRef
	var warns []doctree.Warning
	out := make([]string, len(lines))
	var fence doctree.Fence
	for i, line := range lines {
		out[i] = line
		if fence.Next(line) || !strings.Contains(line, "![") {
			continue
		}
		lineNo := firstLine + i

		var b strings.Builder
		last := 0
		for _, m := range inlineImage.FindAllStringSubmatchIndex(line, -1) {
			if strings.Count(line[:m[0]], "`")%2 == 1 {
				continue
			}
			raw := line[m[4]:m[5]]
			dest := strings.TrimSuffix(strings.TrimPrefix(raw, "<"), ">")
			if !images[destKey(dest)] {
				continue
			}
			resolved, err := rw.resolve(dest)
			if errors.Is(err, errExternal) {
				continue
			}
			if err != nil {
				warns = append(warns, doctree.Warning{
					Kind:    doctree.WarnMalformedAsset,
					Line:    lineNo,
					Message: fmt.Sprintf("image reference %q: %v", dest, err),
				})
				refs = append(refs, doctree.AssetRef{Line: lineNo, Original: dest})
				continue
			}
			refs = append(refs, doctree.AssetRef{Line: lineNo, Original: dest, Resolved: resolved})
			if strings.HasPrefix(raw, "<") {
				resolved = "<" + resolved + ">"
			}
			b.WriteString(line[last:m[4]])
			b.WriteString(resolved)
			last = m[5]
		}
		if last > 0 {
			b.WriteString(line[last:])
			out[i] = b.String()
		}
	}
	return strings.Join(out, "\n"), refs, warns
}

// resolve maps a local reference onto its file name inside the asset
// directory, expressed relative to the unit's output directory. Query and
// fragment are kept.
func (rw rewriter) resolve(dest string) (string, error) {
	if strings.TrimSpace(dest) == "" {
		return "", errEmptyRef
	}
	u, err := url.Parse(dest)
	if err != nil {
		return "", err
	}
	if u.Scheme != "" || u.Host != "" || strings.HasPrefix(dest, "/") {
		return "", errExternal
	}

	p, suffix := dest, ""
	if i := strings.IndexAny(dest, "?#"); i >= 0 {
		p, suffix = dest[:i], dest[i:]
	}
	name := path.Base(path.Clean(p))
	if name == "." || name == ".." || name == "/" {
		return "", errNoFileName
	}
	return doctree.RelPath(rw.unitDir, path.Join(rw.assetDir, name)) + suffix, nil
}

func imageDestinations(src []byte) map[string]bool {
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))
	found := make(map[string]bool)
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if img, ok := n.(*ast.Image); ok && entering {
			found[destKey(string(img.Destination))] = true
		}
		return ast.WalkContinue, nil
	})
	return found
}

func destKey(dest string) string {
	if s, err := url.PathUnescape(dest); err == nil {
		return s
	}
	return dest
}

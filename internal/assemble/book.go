package assemble

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/booksplit/internal/doctree"
	"github.com/dgallion1/booksplit/internal/links"
)

// Input is everything one processing run produced.
type Input struct {
	Doc       *doctree.Document
	Hierarchy *doctree.Hierarchy
	Blocks    map[string]*doctree.ContentBlock
	Tags      map[string][]doctree.Tag
	Graph     *links.Graph
}

// File is one generated file, addressed relative to the book root.
type File struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Book is the set of generated files: the table of contents first, then
// units in document order.
type Book struct {
	Files []File `json:"files"`
}

type frontMatter struct {
	Title     string   `yaml:"title"`
	ID        string   `yaml:"id"`
	Level     int      `yaml:"level"`
	Chapter   int      `yaml:"chapter"`
	StartLine int      `yaml:"start_line"`
	EndLine   int      `yaml:"end_line"`
	Tags      []string `yaml:"tags,omitempty"`
	Parent    string   `yaml:"parent,omitempty"`
	Prev      string   `yaml:"prev,omitempty"`
	Next      string   `yaml:"next,omitempty"`
}

// Assemble renders the book. Section files are skipped when
// Options.Sections is false; chapter files always carry the full chapter
// body, sections included.
func (l *Layout) Assemble(in Input) (*Book, error) {
	b := &Book{Files: []File{{Path: l.opts.Root, Content: l.toc(in)}}}
	for _, u := range in.Hierarchy.Units {
		if !u.IsChapter() && !l.opts.Sections {
			continue
		}
		content, err := l.unitFile(u, in)
		if err != nil {
			return nil, fmt.Errorf("assemble unit %s: %w", u.ID, err)
		}
		b.Files = append(b.Files, File{Path: l.Identify(u), Content: content})
	}
	return b, nil
}

func (l *Layout) unitFile(u *doctree.Unit, in Input) (string, error) {
	var set links.LinkSet
	if in.Graph != nil {
		set, _ = in.Graph.Get(u.ID)
	}
	var buf bytes.Buffer
	if l.opts.FrontMatter {
		fm := frontMatter{
			Title:     u.Title,
			ID:        u.ID,
			Level:     u.Level,
			Chapter:   u.Chapter.Ordinal,
			StartLine: u.StartLine,
			EndLine:   u.EndLine,
			Tags:      doctree.TagTexts(in.Tags[u.ID]),
			Parent:    l.relative(set.Self, set.Parent),
			Prev:      l.relative(set.Self, set.Prev),
			Next:      l.relative(set.Self, set.Next),
		}
		if len(fm.Tags) == 0 {
			fm.Tags = nil
		}
		out, err := yaml.Marshal(fm)
		if err != nil {
			return "", fmt.Errorf("front matter: %w", err)
		}
		buf.WriteString("---\n")
		buf.Write(out)
		buf.WriteString("---\n\n")
	}
	if l.opts.Navigation && set.Self != "" {
		if nav := links.RenderMarkdownNav(l.visible(set), l.opts.Labels); nav != "" {
			buf.WriteString(nav)
			buf.WriteString("\n")
		}
	}
	fmt.Fprintf(&buf, "# %s\n", u.Title)
	if blk := in.Blocks[u.ID]; blk != nil && blk.Text != "" {
		buf.WriteString("\n")
		buf.WriteString(blk.Text)
		if !strings.HasSuffix(blk.Text, "\n") {
			buf.WriteString("\n")
		}
	}
	return buf.String(), nil
}

func (l *Layout) relative(self, target string) string {
	if self == "" || target == "" {
		return ""
	}
	return doctree.RelLink(self, target)
}

// visible drops links to section files that are not written.
func (l *Layout) visible(set links.LinkSet) links.LinkSet {
	if l.opts.Sections {
		return set
	}
	isSection := func(id string) bool {
		return strings.HasPrefix(id, l.opts.SectionDir+"/")
	}
	if isSection(set.Prev) {
		set.Prev = ""
	}
	if isSection(set.Next) {
		set.Next = ""
	}
	if isSection(set.Parent) {
		set.Parent = ""
	}
	return set
}

func (l *Layout) toc(in Input) string {
	var buf bytes.Buffer
	title := "目录"
	if in.Doc != nil && in.Doc.Title != "" {
		title = in.Doc.Title
	}
	fmt.Fprintf(&buf, "# %s\n\n", title)

	if in.Doc != nil {
		if pre := in.Doc.Slice(1, in.Hierarchy.PreambleEnd()); strings.TrimSpace(strings.Join(pre, "")) != "" {
			buf.WriteString(strings.TrimSpace(strings.Join(pre, "\n")))
			buf.WriteString("\n\n")
		}
	}

	for _, u := range in.Hierarchy.Units {
		if !u.IsChapter() && !l.opts.Sections {
			continue
		}
		indent := strings.Repeat("  ", u.Level)
		target := doctree.RelLink(l.opts.Root, l.Identify(u))
		fmt.Fprintf(&buf, "%s- <a id=\"%s\"></a>[%s](%s)", indent, links.Anchor(u), u.Title, target)
		if tags := in.Tags[u.ID]; len(tags) > 0 && u.IsChapter() {
			fmt.Fprintf(&buf, " `%s`", strings.Join(doctree.TagTexts(tags), "` `"))
		}
		buf.WriteString("\n")
	}
	return buf.String()
}

// Map returns the files keyed by path.
func (b *Book) Map() map[string]string {
	out := make(map[string]string, len(b.Files))
	for _, f := range b.Files {
		out[f.Path] = f.Content
	}
	return out
}

// Write materialises the book under dir.
func (b *Book) Write(dir string) error {
	for _, f := range b.Files {
		dst := filepath.Join(dir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("create dir for %s: %w", f.Path, err)
		}
		if err := os.WriteFile(dst, []byte(f.Content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.Path, err)
		}
	}
	return nil
}

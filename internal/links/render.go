package links

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/booksplit/internal/doctree"
)

// NavLabels are the link texts of a navigation line.
type NavLabels struct {
	Prev string `json:"prev" yaml:"prev" toml:"prev"`
	Up   string `json:"up" yaml:"up" toml:"up"`
	TOC  string `json:"toc" yaml:"toc" toml:"toc"`
	Next string `json:"next" yaml:"next" toml:"next"`
}

// DefaultNavLabels returns the Chinese labels used by generated books.
func DefaultNavLabels() NavLabels {
	return NavLabels{Prev: "← 上一页", Up: "↑ 上一级", TOC: "目录", Next: "下一页 →"}
}

// RenderMarkdownNav renders s as a markdown navigation line followed by a
// horizontal rule. Targets are written relative to s.Self. Returns "" when
// there is nothing to link.
func RenderMarkdownNav(s LinkSet, labels NavLabels) string {
	var parts []string
	add := func(label, target string) {
		if label == "" || target == "" {
			return
		}
		parts = append(parts, fmt.Sprintf("[%s](%s)", label, doctree.RelLink(s.Self, target)))
	}
	add(labels.Prev, s.Prev)
	if s.Parent != "" && !strings.HasPrefix(s.TOC, s.Parent+"#") {
		add(labels.Up, s.Parent)
	}
	add(labels.TOC, s.TOC)
	add(labels.Next, s.Next)
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " | ") + "\n\n---\n"
}

// Export formats the graph as "json", "yaml" or "csv".
func Export(g *Graph, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "json":
		return json.MarshalIndent(exportView(g), "", "  ")
	case "yaml", "yml":
		return yaml.Marshal(exportView(g))
	case "csv":
		return exportCSV(g)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

type exported struct {
	Root  string         `json:"root" yaml:"root"`
	Units []LinkSet      `json:"units" yaml:"units"`
	Stats map[string]int `json:"stats" yaml:"stats"`
}

func exportView(g *Graph) exported {
	v := exported{Root: g.Root, Stats: make(map[string]int)}
	for _, id := range g.Order {
		v.Units = append(v.Units, *g.Sets[id])
	}
	for k, n := range g.Stats() {
		v.Stats[string(k)] = n
	}
	return v
}

func exportCSV(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"unit", "source", "kind", "target"}); err != nil {
		return nil, err
	}
	for _, id := range g.Order {
		s := g.Sets[id]
		if err := w.Write([]string{id, s.Self, string(KindTOC), s.TOC}); err != nil {
			return nil, err
		}
	}
	byFrom := make(map[string]string, len(g.Sets))
	for id, s := range g.Sets {
		byFrom[s.Self] = id
	}
	for _, e := range g.Edges() {
		if err := w.Write([]string{byFrom[e.From], e.From, string(e.Kind), e.To}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

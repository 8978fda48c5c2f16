package links

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/booksplit/internal/doctree"
	"github.com/dgallion1/booksplit/internal/patterns"
	"github.com/dgallion1/booksplit/internal/structure"
)

const book = `前言
# 第一章 总论
见第二章。
# 第一节 背景
参见1.2节
# 第二节 方法
见图1-1，回到第一章
# 第二章 发展
正文
# 第三章 结论`

func analyze(t *testing.T) *doctree.Hierarchy {
	t.Helper()
	doc, err := doctree.NewDocument("book.md", book)
	require.NoError(t, err)
	h, err := structure.Analyze(doc, patterns.Default())
	require.NoError(t, err)
	require.Len(t, h.Chapters, 3)
	require.Len(t, h.Units, 5)
	return h
}

func flatIdentity(u *doctree.Unit) string { return "u" + u.ID + ".md" }

func TestBuild_Navigation(t *testing.T) {
	h := analyze(t)
	g, err := Build(h, flatIdentity, Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultRoot, g.Root)
	assert.Equal(t, []string{"1", "1.1", "1.2", "2", "3"}, g.Order)

	tests := []struct {
		id   string
		want LinkSet
	}{
		{"1", LinkSet{UnitID: "1", Self: "u1.md", TOC: "README.md#unit-1", Parent: "README.md", Next: "u2.md"}},
		{"1.1", LinkSet{UnitID: "1.1", Self: "u1.1.md", TOC: "README.md#unit-1-1", Parent: "u1.md", Next: "u1.2.md", Chapter: "u1.md"}},
		{"1.2", LinkSet{UnitID: "1.2", Self: "u1.2.md", TOC: "README.md#unit-1-2", Parent: "u1.md", Prev: "u1.1.md", Chapter: "u1.md"}},
		{"2", LinkSet{UnitID: "2", Self: "u2.md", TOC: "README.md#unit-2", Parent: "README.md", Prev: "u1.md", Next: "u3.md"}},
		{"3", LinkSet{UnitID: "3", Self: "u3.md", TOC: "README.md#unit-3", Parent: "README.md", Prev: "u2.md"}},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, ok := g.Get(tt.id)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := g.Get("9")
	assert.False(t, ok)
}

func TestBuild_SiblingSymmetry(t *testing.T) {
	g, err := Build(analyze(t), flatIdentity, Options{})
	require.NoError(t, err)

	bySelf := make(map[string]*LinkSet)
	for _, s := range g.Sets {
		bySelf[s.Self] = s
	}
	for _, s := range g.Sets {
		if s.Next != "" {
			assert.Equal(t, s.Self, bySelf[s.Next].Prev, "next of %s", s.UnitID)
		}
		if s.Prev != "" {
			assert.Equal(t, s.Self, bySelf[s.Prev].Next, "prev of %s", s.UnitID)
		}
	}
}

func TestBuild_Idempotent(t *testing.T) {
	h := analyze(t)
	opts := Options{Root: "index.md", Bodies: map[string]string{"1": "见第二章"}}
	a, err := Build(h, flatIdentity, opts)
	require.NoError(t, err)
	b, err := Build(h, flatIdentity, opts)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, "index.md#unit-1", a.Sets["1"].TOC)
}

func TestBuild_CrossReferences(t *testing.T) {
	h := analyze(t)
	bodies := map[string]string{
		"1":   "见第二章。",
		"1.1": "参见1.2节",
		"1.2": "见图1-1，回到第一章，再看1.2节",
	}
	g, err := Build(h, flatIdentity, Options{Bodies: bodies})
	require.NoError(t, err)
	assert.Equal(t, []string{"u2.md"}, g.Sets["1"].Refs)
	assert.Equal(t, []string{"u1.2.md"}, g.Sets["1.1"].Refs)
	assert.Equal(t, []string{"u1.md"}, g.Sets["1.2"].Refs)
	assert.Empty(t, g.Sets["2"].Refs)
	assert.Equal(t, 3, g.Stats()[KindRef])
}

func TestBuild_IdentityErrors(t *testing.T) {
	h := analyze(t)

	_, err := Build(h, func(*doctree.Unit) string { return "" }, Options{})
	assert.ErrorContains(t, err, "empty identity")

	_, err = Build(h, func(*doctree.Unit) string { return "same.md" }, Options{})
	assert.ErrorContains(t, err, "share identity")

	_, err = Build(h, func(*doctree.Unit) string { return DefaultRoot }, Options{})
	assert.ErrorContains(t, err, "collides with the root")
}

func TestBroken(t *testing.T) {
	g, err := Build(analyze(t), flatIdentity, Options{Bodies: map[string]string{"1": "见第二章"}})
	require.NoError(t, err)

	present := map[string]bool{DefaultRoot: true}
	for _, s := range g.Sets {
		present[s.Self] = true
	}
	assert.Empty(t, g.Broken(func(id string) bool { return present[id] }))

	delete(present, "u2.md")
	broken := g.Broken(func(id string) bool { return present[id] })
	assert.ElementsMatch(t, []Edge{
		{From: "u1.md", To: "u2.md", Kind: KindNext},
		{From: "u1.md", To: "u2.md", Kind: KindRef},
		{From: "u3.md", To: "u2.md", Kind: KindPrev},
	}, broken)
}

func TestScanCrossReferences(t *testing.T) {
	text := "参见第3章和2.1节，见图1-2与表3-4；see Chapter 5 and Section 6.1, Figure 7-8. 再见第3章"
	refs := ScanCrossReferences(text)
	assert.Equal(t, []Reference{
		{Kind: RefChapter, Label: "3", Text: "第3章"},
		{Kind: RefSection, Label: "2.1", Text: "2.1节"},
		{Kind: RefFigure, Label: "1-2", Text: "图1-2"},
		{Kind: RefTable, Label: "3-4", Text: "表3-4"},
		{Kind: RefChapter, Label: "5", Text: "Chapter 5"},
		{Kind: RefSection, Label: "6.1", Text: "Section 6.1"},
		{Kind: RefFigure, Label: "7-8", Text: "Figure 7-8"},
	}, refs)
	assert.Empty(t, ScanCrossReferences("no references here"))
}

func TestReferenceResolve(t *testing.T) {
	h := analyze(t)
	assert.Equal(t, "2", Reference{Kind: RefChapter, Label: "二"}.Resolve(h).ID)
	assert.Equal(t, "1.1", Reference{Kind: RefSection, Label: "1.1"}.Resolve(h).ID)
	assert.Nil(t, Reference{Kind: RefChapter, Label: "9"}.Resolve(h))
	assert.Nil(t, Reference{Kind: RefSection, Label: "1"}.Resolve(h))
	assert.Nil(t, Reference{Kind: RefFigure, Label: "1-1"}.Resolve(h))
}

func TestParseNumeral(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"12", 12, true},
		{"十", 10, true},
		{"十二", 12, true},
		{"二十", 20, true},
		{"一百零五", 105, true},
		{"两千", 2000, true},
		{"", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		n, ok := ParseNumeral(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, n, tt.in)
	}
}

func TestRenderMarkdownNav(t *testing.T) {
	labels := DefaultNavLabels()

	section := LinkSet{
		Self:   "sections/01-02_b.md",
		TOC:    "README.md#unit-1-2",
		Parent: "chapters/01_a.md",
		Prev:   "sections/01-01_a.md",
	}
	assert.Equal(t,
		"[← 上一页](01-01_a.md) | [↑ 上一级](../chapters/01_a.md) | [目录](../README.md#unit-1-2)\n\n---\n",
		RenderMarkdownNav(section, labels))

	chapter := LinkSet{
		Self:   "chapters/01_a.md",
		TOC:    "README.md#unit-1",
		Parent: "README.md",
		Next:   "chapters/02_b.md",
	}
	assert.Equal(t,
		"[目录](../README.md#unit-1) | [下一页 →](02_b.md)\n\n---\n",
		RenderMarkdownNav(chapter, labels))

	assert.Empty(t, RenderMarkdownNav(LinkSet{Self: "x.md"}, labels))
}

func TestExport(t *testing.T) {
	g, err := Build(analyze(t), flatIdentity, Options{})
	require.NoError(t, err)

	out, err := Export(g, "json")
	require.NoError(t, err)
	var decoded struct {
		Root  string    `json:"root"`
		Units []LinkSet `json:"units"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, DefaultRoot, decoded.Root)
	assert.Len(t, decoded.Units, 5)
	assert.Equal(t, "u1.md", decoded.Units[0].Self)

	out, err = Export(g, "yaml")
	require.NoError(t, err)
	assert.Contains(t, string(out), "root: README.md")

	out, err = Export(g, "csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	assert.Equal(t, "unit,source,kind,target", lines[0])
	assert.Contains(t, lines, "1,u1.md,toc,README.md#unit-1")
	assert.Contains(t, lines, "1.2,u1.2.md,prev,u1.1.md")

	_, err = Export(g, "xml")
	assert.Error(t, err)
}

package assemble

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/booksplit/internal/doctree"
	"github.com/dgallion1/booksplit/internal/extract"
	"github.com/dgallion1/booksplit/internal/links"
	"github.com/dgallion1/booksplit/internal/patterns"
	"github.com/dgallion1/booksplit/internal/structure"
)

const book = `前言文字
# 第一章 总论
导言
![图](img/a.png)
# 第一节 背景
背景正文
# 第二节 方法
方法正文
# 第二章 发展
发展正文
# 第三章 结论`

func TestSlugify(t *testing.T) {
	tests := []struct{ in, want string }{
		{"第一章 总论", "总论"},
		{"Chapter One", "chapter_one"},
		{"2.1 Data Models", "data_models"},
		{"一、背景", "背景"},
		{"（三）方法论", "方法论"},
		{"Hello, World!", "hello_world"},
		{`a/b\c:d`, "a_b_c_d"},
		{"", "untitled"},
		{"!!!", "untitled"},
		{strings.Repeat("x", 60), strings.Repeat("x", 50)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), tt.in)
	}
}

func assembleBook(t *testing.T, opts Options) *Book {
	t.Helper()
	doc, err := doctree.NewDocument("book.md", book)
	require.NoError(t, err)
	doc.Title = "示例书"
	h, err := structure.Analyze(doc, patterns.Default())
	require.NoError(t, err)

	layout := NewLayout(h, opts)
	ex := extract.Extractor{AssetDir: "images", UnitDir: layout.UnitDir}
	blocks, warns := ex.ExtractAll(h, doc)
	require.Empty(t, warns)

	g, err := links.Build(h, layout.Identify, links.Options{Root: layout.Root()})
	require.NoError(t, err)

	b, err := layout.Assemble(Input{
		Doc:       doc,
		Hierarchy: h,
		Blocks:    extract.ByUnit(blocks),
		Tags: map[string][]doctree.Tag{
			"1":   {{Text: "总论", Score: 1}, {Text: "导言", Score: 0.5}},
			"1.1": {{Text: "背景", Score: 1}},
		},
		Graph: g,
	})
	require.NoError(t, err)
	return b
}

func frontMatterOf(t *testing.T, content string) frontMatter {
	t.Helper()
	require.True(t, strings.HasPrefix(content, "---\n"))
	end := strings.Index(content[4:], "---\n")
	require.GreaterOrEqual(t, end, 0)
	var fm frontMatter
	require.NoError(t, yaml.Unmarshal([]byte(content[4:4+end]), &fm))
	return fm
}

func TestAssemble_Layout(t *testing.T) {
	b := assembleBook(t, DefaultOptions())
	var paths []string
	for _, f := range b.Files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{
		"README.md",
		"chapters/01_总论.md",
		"sections/01-01_背景.md",
		"sections/01-02_方法.md",
		"chapters/02_发展.md",
		"chapters/03_结论.md",
	}, paths)
}

func TestAssemble_ChapterFile(t *testing.T) {
	files := assembleBook(t, DefaultOptions()).Map()
	content := files["chapters/01_总论.md"]

	fm := frontMatterOf(t, content)
	assert.Equal(t, frontMatter{
		Title:     "第一章 总论",
		ID:        "1",
		Level:     0,
		Chapter:   1,
		StartLine: 2,
		EndLine:   8,
		Tags:      []string{"总论", "导言"},
		Parent:    "../README.md",
		Next:      "02_发展.md",
	}, fm)

	assert.Contains(t, content, "[目录](../README.md#unit-1) | [下一页 →](02_发展.md)\n\n---\n")
	assert.Contains(t, content, "# 第一章 总论\n\n导言\n![图](../images/a.png)\n# 第一节 背景\n")
	assert.True(t, strings.HasSuffix(content, "方法正文\n"))
}

func TestAssemble_SectionFile(t *testing.T) {
	files := assembleBook(t, DefaultOptions()).Map()
	content := files["sections/01-02_方法.md"]

	fm := frontMatterOf(t, content)
	assert.Equal(t, "1.2", fm.ID)
	assert.Equal(t, 1, fm.Level)
	assert.Equal(t, "../chapters/01_总论.md", fm.Parent)
	assert.Equal(t, "01-01_背景.md", fm.Prev)
	assert.Empty(t, fm.Next)
	assert.Nil(t, fm.Tags)

	assert.Contains(t, content, "[← 上一页](01-01_背景.md) | [↑ 上一级](../chapters/01_总论.md) | [目录](../README.md#unit-1-2)")
	assert.True(t, strings.HasSuffix(content, "# 方法\n\n方法正文\n"))
}

func TestAssemble_TOC(t *testing.T) {
	toc := assembleBook(t, DefaultOptions()).Map()["README.md"]
	assert.True(t, strings.HasPrefix(toc, "# 示例书\n\n前言文字\n\n"))
	assert.Contains(t, toc, "- <a id=\"unit-1\"></a>[第一章 总论](chapters/01_总论.md) `总论` `导言`\n")
	assert.Contains(t, toc, "  - <a id=\"unit-1-1\"></a>[背景](sections/01-01_背景.md)\n")
	assert.Contains(t, toc, "- <a id=\"unit-3\"></a>[第三章 结论](chapters/03_结论.md)\n")
}

func TestAssemble_Toggles(t *testing.T) {
	opts := DefaultOptions()
	opts.Sections = false
	opts.Navigation = false
	opts.FrontMatter = false
	files := assembleBook(t, opts).Map()

	assert.Len(t, files, 4)
	assert.NotContains(t, files["README.md"], "sections/")
	content := files["chapters/02_发展.md"]
	assert.Equal(t, "# 第二章 发展\n\n发展正文\n", content)
	assert.Equal(t, "# 第三章 结论\n", files["chapters/03_结论.md"])
}

func TestBook_Write(t *testing.T) {
	b := assembleBook(t, DefaultOptions())
	dir := t.TempDir()
	require.NoError(t, b.Write(dir))

	for _, f := range b.Files {
		got, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(f.Path)))
		require.NoError(t, err)
		assert.Equal(t, f.Content, string(got))
	}
}

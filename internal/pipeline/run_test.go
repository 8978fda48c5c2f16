package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/booksplit/internal/config"
	"github.com/dgallion1/booksplit/internal/doctree"
)

const sampleBook = `前言文字
# 第一章 总论
政治学研究国家与权力。政治学的核心是权力。
![图](img/a.png)
# 第一节 背景
民主制度的背景与历史。民主制度在近代发展。
# 第二节 方法
方法正文
# 第二章 发展
发展正文，参见第一章。
# 第三章 结论
结论正文`

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleDoc(t *testing.T, name, text string) *doctree.Document {
	t.Helper()
	doc, err := doctree.NewDocument(name, text)
	require.NoError(t, err)
	return doc
}

func TestRun_EndToEnd(t *testing.T) {
	var stages []JobStatus
	var tagged atomic.Int32
	var units, blocks int
	r := Runner{
		Options:  config.DefaultOptions(),
		Log:      quietLog(),
		Stats:    NewLatencyStats(0),
		OnStage:  func(s JobStatus) { stages = append(stages, s) },
		OnUnits:  func(u, b int) { units, blocks = u, b },
		OnTagged: func() { tagged.Add(1) },
	}
	res, err := r.Run(context.Background(), sampleDoc(t, "book.md", sampleBook))
	require.NoError(t, err)

	assert.Equal(t, []JobStatus{StatusAnalyzing, StatusExtracting, StatusTagging, StatusLinking}, stages)
	assert.Equal(t, 5, units)
	assert.Equal(t, 5, blocks)
	assert.EqualValues(t, 5, tagged.Load())

	assert.Len(t, res.Hierarchy.Chapters, 3)
	assert.Len(t, res.Blocks, 5)
	assert.Len(t, res.Tags, 5)
	assert.NotEmpty(t, res.Tags["1"])
	assert.Equal(t, 6, res.Stats.Files)
	assert.Equal(t, 1, res.Stats.Assets)
	assert.Equal(t, 3, res.Stats.Structure.Chapters)
	assert.Contains(t, res.Stats.StageMs, StageTotal)
	assert.Contains(t, r.Stats.Snapshot(), StageTag)

	set, ok := res.Links.Get("1.2")
	require.True(t, ok)
	assert.Equal(t, "sections/01-01_背景.md", set.Prev)
	assert.Equal(t, "chapters/01_总论.md", set.Parent)

	chapter2, ok := res.Links.Get("2")
	require.True(t, ok)
	assert.Contains(t, chapter2.Refs, "chapters/01_总论.md")

	files := res.Book.Map()
	assert.Contains(t, files["chapters/01_总论.md"], "![图](../images/a.png)")
}

func TestRun_Deterministic(t *testing.T) {
	opts := config.DefaultOptions()
	a, err := Run(context.Background(), sampleDoc(t, "a.md", sampleBook), opts, quietLog())
	require.NoError(t, err)
	b, err := Run(context.Background(), sampleDoc(t, "b.md", sampleBook), opts, quietLog())
	require.NoError(t, err)
	assert.Equal(t, a.Tags, b.Tags)
	assert.Equal(t, a.Links, b.Links)
	assert.Equal(t, a.Book, b.Book)
}

func TestRun_ChaptersOnly(t *testing.T) {
	opts := config.DefaultOptions()
	opts.CreateSections = false
	res, err := Run(context.Background(), sampleDoc(t, "book.md", sampleBook), opts, quietLog())
	require.NoError(t, err)
	assert.Len(t, res.Hierarchy.Units, 3)
	assert.Equal(t, 4, res.Stats.Files)
	assert.Contains(t, res.Blocks[0].Text, "# 第一节 背景")
}

func TestRun_NoTags(t *testing.T) {
	opts := config.DefaultOptions()
	opts.GenerateTags = false
	res, err := Run(context.Background(), sampleDoc(t, "book.md", sampleBook), opts, quietLog())
	require.NoError(t, err)
	assert.Empty(t, res.Tags)
	assert.Zero(t, res.Stats.UnderTagged)
}

func TestRun_UnderTaggedWarning(t *testing.T) {
	opts := config.DefaultOptions()
	opts.MinTags, opts.MaxTags = 8, 8
	res, err := Run(context.Background(), sampleDoc(t, "book.md", sampleBook), opts, quietLog())
	require.NoError(t, err)
	require.Positive(t, res.Stats.UnderTagged)

	var found bool
	for _, w := range res.Warnings {
		if w.Kind == doctree.WarnUnderTagged && w.Unit == "1.2" {
			found = true
			assert.Equal(t, 7, w.Line)
		}
	}
	assert.True(t, found, "expected under-tagged warning for unit 1.2")
}

func TestRun_OrphanSectionWarning(t *testing.T) {
	text := "# 第一节 孤立\n正文\n" + sampleBook
	res, err := Run(context.Background(), sampleDoc(t, "book.md", text), config.DefaultOptions(), quietLog())
	require.NoError(t, err)
	require.NotEmpty(t, res.Warnings)
	assert.Equal(t, doctree.WarnOrphanSection, res.Warnings[0].Kind)
	assert.Equal(t, 1, res.Warnings[0].Line)
}

func TestRun_NoChapters(t *testing.T) {
	_, err := Run(context.Background(), sampleDoc(t, "flat.md", "just text\nmore text"), config.DefaultOptions(), quietLog())
	require.Error(t, err)
	assert.True(t, errors.Is(err, doctree.ErrNoChaptersFound))
	assert.Contains(t, err.Error(), "flat.md")
}

func TestRunBatch_IsolatesFailures(t *testing.T) {
	docs := []*doctree.Document{
		sampleDoc(t, "a.md", sampleBook),
		sampleDoc(t, "flat.md", "no structure here"),
		sampleDoc(t, "c.md", "# 第一章 唯一\n正文"),
	}
	b := Runner{Options: config.DefaultOptions(), Log: quietLog()}.RunBatch(context.Background(), docs, 2)

	require.Len(t, b.Outcomes, 3)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, 1, b.Failed())
	assert.Equal(t, "a.md", b.Outcomes[0].Name)
	assert.NotNil(t, b.Outcomes[0].Result)
	assert.ErrorIs(t, b.Outcomes[1].Err, doctree.ErrNoChaptersFound)
	assert.Nil(t, b.Outcomes[1].Result)
	require.NotNil(t, b.Outcomes[2].Result)
	assert.Len(t, b.Outcomes[2].Result.Hierarchy.Chapters, 1)
}

func TestRunBatch_DeadlineBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	docs := []*doctree.Document{sampleDoc(t, "a.md", sampleBook), sampleDoc(t, "b.md", sampleBook)}

	b := RunBatch(ctx, docs, config.DefaultOptions(), quietLog())
	assert.Equal(t, 2, b.Failed())
	for _, o := range b.Outcomes {
		assert.ErrorIs(t, o.Err, context.Canceled)
		assert.Nil(t, o.Result)
	}
}

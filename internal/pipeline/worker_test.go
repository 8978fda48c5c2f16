package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/booksplit/internal/config"
	"github.com/dgallion1/booksplit/internal/pathstore"
)

func testConfig() config.Config {
	return config.Config{
		WorkerCount:          1,
		MaxQueueSize:         4,
		MaxConcurrentTagging: 2,
		MaxConcurrentStore:   2,
		JobTTL:               time.Hour,
	}
}

func TestWorker_ProcessWithoutPublishing(t *testing.T) {
	w := NewWorker(nil, quietLog(), NewLatencyStats(0), config.DefaultOptions(), testConfig())
	job := NewJob("book.md", "示例书", []byte(sampleBook))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	require.Equal(t, StatusCompleted, snap.Status, snap.Progress.Errors)
	assert.Equal(t, "done", snap.Phase)
	assert.Equal(t, 5, snap.Progress.Units)
	assert.Equal(t, 5, snap.Progress.BlocksTagged)
	assert.NotEmpty(t, job.ContentHash)

	res := job.Result()
	require.NotNil(t, res)
	assert.Contains(t, res.Book.Map()["README.md"], "# 示例书")
	assert.Nil(t, job.FileData())
}

func TestWorker_UnsupportedFormat(t *testing.T) {
	w := NewWorker(nil, quietLog(), nil, config.DefaultOptions(), testConfig())
	job := NewJob("book.epub", "", []byte("x"))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "parsing", snap.Phase)
	assert.Len(t, snap.Progress.Errors, 1)
}

func TestWorker_NoChaptersFails(t *testing.T) {
	w := NewWorker(nil, quietLog(), nil, config.DefaultOptions(), testConfig())
	job := NewJob("flat.txt", "", []byte("plain prose\nwithout headings"))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, string(StatusAnalyzing), snap.Phase)
	require.Len(t, snap.Progress.Errors, 1)
	assert.Contains(t, snap.Progress.Errors[0], "NoChaptersFound")
}

func TestWorker_JobOptionsOverride(t *testing.T) {
	w := NewWorker(nil, quietLog(), nil, config.DefaultOptions(), testConfig())
	job := NewJob("book.md", "", []byte(sampleBook))
	opts := config.DefaultOptions()
	opts.MaxTags = 1
	opts.MinTags = 1
	job.SetOptions(opts)
	w.Process(context.Background(), job)

	require.Equal(t, StatusCompleted, job.Snapshot().Status)
	for id, tags := range job.Result().Tags {
		assert.LessOrEqual(t, len(tags), 1, id)
	}
}

func TestWorker_PublishAndDedup(t *testing.T) {
	fake, client := newFakePathstore(t)
	w := NewWorker(client, quietLog(), NewLatencyStats(0), config.DefaultOptions(), testConfig())

	first := NewJob("book.md", "", []byte(sampleBook))
	w.Process(context.Background(), first)
	snap := first.Snapshot()
	require.Equal(t, StatusCompleted, snap.Status, snap.Progress.Errors)
	assert.Equal(t, 7, snap.Progress.Published)

	nodes, _ := fake.snapshot()
	assert.Contains(t, nodes, pathstore.MetaKey(first.BookID))

	second := NewJob("copy.md", "", []byte(sampleBook))
	w.Process(context.Background(), second)
	snap = second.Snapshot()
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Equal(t, "already_published", snap.Phase)
	assert.Zero(t, snap.Progress.Published)
}

func TestWorker_PublishFailureIsPartial(t *testing.T) {
	fastBackoff(t)
	fake, client := newFakePathstore(t)
	job := NewJob("book.md", "", []byte(sampleBook))
	fake.failures[pathstore.UnitKey(job.BookID, "2")] = 100

	w := NewWorker(client, quietLog(), nil, config.DefaultOptions(), testConfig())
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	assert.Equal(t, StatusPartial, snap.Status)
	assert.Equal(t, 5, snap.Progress.Published)
	require.Len(t, snap.Progress.Errors, 1)
	assert.Contains(t, snap.Progress.Errors[0], "publish:")
}

func TestOrchestrator_SubmitAndComplete(t *testing.T) {
	o := NewOrchestrator(testConfig(), config.DefaultOptions(), nil, quietLog())
	o.Start(context.Background())
	defer o.Stop()

	assert.Equal(t, 2, o.Options().TagConcurrency)

	job := NewJob("book.md", "", []byte(sampleBook))
	job.BatchID = "batch-1"
	require.NoError(t, o.Submit(job))

	require.Eventually(t, func() bool {
		return o.GetJob(job.ID).Snapshot().Status.Terminal()
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, StatusCompleted, o.GetJob(job.ID).Snapshot().Status)
	assert.Len(t, o.GetBatch("batch-1"), 1)
	assert.Contains(t, o.Stats(), StageTotal)
	assert.Nil(t, o.PathstoreClient())
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := testConfig()
	cfg.MaxQueueSize = 1
	o := NewOrchestrator(cfg, config.DefaultOptions(), nil, quietLog())

	require.NoError(t, o.Submit(NewJob("a.md", "", []byte(sampleBook))))
	overflow := NewJob("b.md", "", []byte(sampleBook))
	assert.Error(t, o.Submit(overflow))
	assert.Equal(t, StatusFailed, overflow.Snapshot().Status)
	assert.Equal(t, 1, o.QueueDepth())
}

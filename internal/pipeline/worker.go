package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/booksplit/internal/config"
	"github.com/dgallion1/booksplit/internal/parser"
	"github.com/dgallion1/booksplit/internal/pathstore"
)

// Worker processes a single document job.
type Worker struct {
	publisher *Publisher
	log       *slog.Logger
	stats     *LatencyStats
	opts      config.Options

	pdfFallback bool
}

// NewWorker returns a worker. A nil pathstore client disables publishing.
func NewWorker(ps *pathstore.Client, log *slog.Logger, stats *LatencyStats, opts config.Options, cfg config.Config) *Worker {
	w := &Worker{
		log:         log,
		stats:       stats,
		opts:        opts,
		pdfFallback: cfg.PDFFallbackPdftotext,
	}
	if ps != nil {
		w.publisher = NewPublisher(ps, log, cfg.MaxConcurrentStore)
	}
	return w
}

// Process runs the full split pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "book_id", job.BookID, "filename", job.Filename)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if pdf, ok := p.(*parser.PDFParser); ok {
		pdf.FallbackPdftotext = w.pdfFallback
	}

	doc, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if job.Title != "" {
		doc.Title = job.Title
	}
	job.ContentHash = ContentHashHex([]byte(doc.Text()))

	// Phase 2: Split
	runner := Runner{
		Options:  job.options(w.opts),
		Log:      log,
		Stats:    w.stats,
		OnStage:  func(s JobStatus) { job.SetStatus(s, string(s)) },
		OnUnits:  job.SetUnits,
		OnTagged: job.IncrBlocksTagged,
	}
	res, err := runner.Run(ctx, doc)
	if err != nil {
		log.Error("split failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, string(job.Snapshot().Status))
		return
	}
	job.SetResult(res)
	for _, warn := range res.Warnings {
		log.Warn("split warning", "kind", warn.Kind, "line", warn.Line, "unit", warn.Unit, "message", warn.Message)
	}

	if w.publisher == nil {
		job.SetStatus(StatusCompleted, "done")
		return
	}

	// Phase 3: Publish
	job.SetStatus(StatusPublishing, "publishing")
	exists, err := w.publisher.AlreadyPublished(ctx, job.BookID, job.ContentHash)
	if err != nil {
		log.Warn("dedup check failed, proceeding", "error", err)
	} else if exists {
		log.Info("book already published, skipping")
		job.SetStatus(StatusCompleted, "already_published")
		return
	}

	start := time.Now()
	rep := w.publisher.Publish(ctx, job.BookID, doc.Title, job.ContentHash, res)
	w.stats.Since(StagePublish, start)
	job.AddPublished(rep.Nodes)
	for _, err := range rep.Errors {
		log.Error("publish failed", "error", err)
		job.AddError(fmt.Sprintf("publish: %s", err))
	}

	switch {
	case len(rep.Errors) == 0:
		job.SetStatus(StatusCompleted, "done")
	case rep.Nodes > 0:
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusFailed, "publishing")
	}
}

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/dgallion1/booksplit/internal/config"
	"github.com/dgallion1/booksplit/internal/doctree"
)

// Outcome is the result of one document in a batch. Exactly one of Result
// and Err is set.
type Outcome struct {
	Name   string  `json:"name"`
	Result *Result `json:"result,omitempty"`
	Err    error   `json:"-"`
}

// Batch collects per-document outcomes in input order.
type Batch struct {
	ID       string    `json:"batch_id"`
	Outcomes []Outcome `json:"outcomes"`
}

// Failed counts documents that produced an error.
func (b *Batch) Failed() int {
	n := 0
	for _, o := range b.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// RunBatch processes docs in parallel with one Runner per document.
func RunBatch(ctx context.Context, docs []*doctree.Document, opts config.Options, log *slog.Logger) *Batch {
	return Runner{Options: opts, Log: log}.RunBatch(ctx, docs, runtime.GOMAXPROCS(0))
}

// RunBatch runs up to parallel documents at once. The context deadline is
// checked only before a document starts; a document that has started always
// finishes. A failure is recorded on its own outcome and never stops the
// others.
func (r Runner) RunBatch(ctx context.Context, docs []*doctree.Document, parallel int) *Batch {
	b := &Batch{ID: NewBatchID(), Outcomes: make([]Outcome, len(docs))}
	log := r.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("batch_id", b.ID)
	r.Log = log

	type docResult struct {
		out Outcome
		idx int
	}
	results := make(chan docResult, len(docs))
	sem := make(chan struct{}, max(1, parallel))

	for i, doc := range docs {
		sem <- struct{}{}
		if err := ctx.Err(); err != nil {
			<-sem
			results <- docResult{out: Outcome{Name: doc.Name, Err: fmt.Errorf("not started: %w", err)}, idx: i}
			continue
		}
		go func(i int, doc *doctree.Document) {
			defer func() { <-sem }()
			res, err := r.Run(ctx, doc)
			if err != nil {
				log.Error("document failed", "doc", doc.Name, "error", err)
			}
			results <- docResult{out: Outcome{Name: doc.Name, Result: res, Err: err}, idx: i}
		}(i, doc)
	}

	for range docs {
		dr := <-results
		b.Outcomes[dr.idx] = dr.out
	}
	log.Info("batch complete", "documents", len(docs), "failed", b.Failed())
	return b
}

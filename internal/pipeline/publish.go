package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/booksplit/internal/doctree"
	"github.com/dgallion1/booksplit/internal/links"
	"github.com/dgallion1/booksplit/internal/pathstore"
)

// edgeWeights ranks navigation edges for pathstore traversal.
var edgeWeights = map[links.Kind]float64{
	links.KindParent:  1.0,
	links.KindChapter: 0.8,
	links.KindPrev:    0.5,
	links.KindNext:    0.5,
	links.KindRef:     0.3,
}

// Publisher writes split results to pathstore.
type Publisher struct {
	ps            *pathstore.Client
	log           *slog.Logger
	maxConcurrent int
}

func NewPublisher(ps *pathstore.Client, log *slog.Logger, maxConcurrent int) *Publisher {
	return &Publisher{ps: ps, log: log, maxConcurrent: max(1, maxConcurrent)}
}

// PublishReport counts what was written.
type PublishReport struct {
	Nodes  int
	Links  int
	Errors []error
}

// AlreadyPublished reports whether bookID was published from the same
// content hash.
func (p *Publisher) AlreadyPublished(ctx context.Context, bookID, contentHash string) (bool, error) {
	node, err := p.ps.GetNode(ctx, pathstore.MetaKey(bookID))
	if err != nil || node == nil {
		return false, err
	}
	meta, ok := node.Value.(map[string]any)
	if !ok {
		return false, nil
	}
	return meta["content_hash"] == contentHash, nil
}

// Publish replaces any earlier copy of bookID with res: the book's subtree
// is deleted, then the table of contents, every unit, every navigation edge
// and finally the meta node are written. The meta node is written last so
// AlreadyPublished only sees complete books.
func (p *Publisher) Publish(ctx context.Context, bookID, title, contentHash string, res *Result) PublishReport {
	var rep PublishReport
	source := "booksplit:" + bookID

	if err := withRetry(ctx, func() error {
		return p.ps.DeleteNode(ctx, pathstore.BookKey(bookID), true)
	}); err != nil {
		rep.Errors = append(rep.Errors, fmt.Errorf("clear %s: %w", bookID, err))
		return rep
	}

	keys := map[string]string{res.Links.Root: pathstore.TOCKey(bookID)}
	for id, set := range res.Links.Sets {
		keys[set.Self] = pathstore.UnitKey(bookID, id)
	}

	toc := ""
	if res.Book != nil && len(res.Book.Files) > 0 {
		toc = res.Book.Files[0].Content
	}
	tasks := []func() error{func() error {
		return p.ps.PutNode(ctx, pathstore.TOCKey(bookID), pathstore.NodeRequest{
			Value:      map[string]any{"title": title, "markdown": toc},
			MemoryType: "semantic",
			Salience:   0.6,
			Source:     source,
		})
	}}
	blocks := make(map[string]*doctree.ContentBlock, len(res.Blocks))
	for _, b := range res.Blocks {
		blocks[b.UnitID] = b
	}
	for _, u := range res.Hierarchy.Units {
		tasks = append(tasks, func() error {
			return p.ps.PutNode(ctx, pathstore.UnitKey(bookID, u.ID), unitNode(u, blocks[u.ID], res, source))
		})
	}
	nodes := len(tasks)
	for _, e := range res.Links.Edges() {
		from, to := keys[e.From], keys[e.To]
		if from == "" || to == "" {
			continue
		}
		tasks = append(tasks, func() error {
			return p.ps.PutLink(ctx, pathstore.LinkRequest{
				From:    from,
				To:      to,
				Weight:  edgeWeights[e.Kind],
				Summary: string(e.Kind),
			})
		})
	}

	errs := p.runAll(ctx, tasks)
	for i, err := range errs {
		if err == nil {
			if i < nodes {
				rep.Nodes++
			} else {
				rep.Links++
			}
			continue
		}
		rep.Errors = append(rep.Errors, err)
	}

	meta := pathstore.NodeRequest{
		Value: map[string]any{
			"title":        title,
			"content_hash": contentHash,
			"units":        len(res.Hierarchy.Units),
			"chapters":     len(res.Hierarchy.Chapters),
			"warnings":     len(res.Warnings),
			"published_at": time.Now().UTC().Format(time.RFC3339),
		},
		MemoryType: "metacognitive",
		Salience:   0.5,
		Source:     source,
	}
	if len(rep.Errors) == 0 {
		if err := withRetry(ctx, func() error { return p.ps.PutNode(ctx, pathstore.MetaKey(bookID), meta) }); err != nil {
			rep.Errors = append(rep.Errors, fmt.Errorf("meta: %w", err))
		} else {
			rep.Nodes++
		}
	}
	p.log.Info("publish complete", "book_id", bookID, "nodes", rep.Nodes, "links", rep.Links, "errors", len(rep.Errors))
	return rep
}

// runAll runs tasks behind a semaphore, retrying each, and returns their
// errors in task order.
func (p *Publisher) runAll(ctx context.Context, tasks []func() error) []error {
	type taskResult struct {
		err error
		idx int
	}
	results := make(chan taskResult, len(tasks))
	sem := make(chan struct{}, p.maxConcurrent)
	for i, task := range tasks {
		sem <- struct{}{}
		go func(i int, task func() error) {
			defer func() { <-sem }()
			results <- taskResult{err: withRetry(ctx, task), idx: i}
		}(i, task)
	}
	errs := make([]error, len(tasks))
	for range tasks {
		r := <-results
		errs[r.idx] = r.err
	}
	return errs
}

func unitNode(u *doctree.Unit, b *doctree.ContentBlock, res *Result, source string) pathstore.NodeRequest {
	set, _ := res.Links.Get(u.ID)
	value := map[string]any{
		"id":         u.ID,
		"title":      u.Title,
		"level":      u.Level,
		"file":       set.Self,
		"start_line": u.StartLine,
		"end_line":   u.EndLine,
		"tags":       doctree.TagTexts(res.Tags[u.ID]),
	}
	if b != nil {
		value["text"] = b.Text
	}
	salience := 0.4
	if u.IsChapter() {
		salience = 0.6
	}
	return pathstore.NodeRequest{
		Value:      value,
		MemoryType: "semantic",
		Salience:   salience,
		Source:     source,
	}
}

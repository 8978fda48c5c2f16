package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/booksplit/internal/assemble"
	"github.com/dgallion1/booksplit/internal/config"
	"github.com/dgallion1/booksplit/internal/doctree"
	"github.com/dgallion1/booksplit/internal/extract"
	"github.com/dgallion1/booksplit/internal/links"
	"github.com/dgallion1/booksplit/internal/structure"
	"github.com/dgallion1/booksplit/internal/tagger"
)

// Result is the output of one run over one document.
type Result struct {
	Hierarchy *doctree.Hierarchy       `json:"hierarchy"`
	Blocks    []*doctree.ContentBlock  `json:"blocks"`
	Tags      map[string][]doctree.Tag `json:"tags"`
	Links     *links.Graph             `json:"links"`
	Warnings  []doctree.Warning        `json:"warnings"`
	Stats     RunStats                 `json:"stats"`

	// Book is the assembled output; it is served separately.
	Book *assemble.Book `json:"-"`
}

// RunStats summarizes a run.
type RunStats struct {
	Structure   structure.Stats    `json:"structure"`
	Issues      []string           `json:"issues,omitempty"`
	Units       int                `json:"units"`
	Blocks      int                `json:"blocks"`
	Assets      int                `json:"assets"`
	Tagged      int                `json:"tagged"`
	UnderTagged int                `json:"under_tagged"`
	Links       map[links.Kind]int `json:"links"`
	Files       int                `json:"files"`
	StageMs     map[string]int64   `json:"stage_ms"`
}

// Runner carries the per-run collaborators. The zero value with Options
// set is usable.
type Runner struct {
	Options config.Options

	// Tokenizer overrides the default Unicode tokenizer.
	Tokenizer tagger.Tokenizer
	Log       *slog.Logger
	Stats     *LatencyStats

	// OnStage is called as the run enters each stage.
	OnStage func(status JobStatus)
	// OnUnits is called once blocks are extracted.
	OnUnits func(units, blocks int)
	// OnTagged is called after each block is tagged, from tagging goroutines.
	OnTagged func()
}

// Run processes one document with opts.
func Run(ctx context.Context, doc *doctree.Document, opts config.Options, log *slog.Logger) (*Result, error) {
	return Runner{Options: opts, Log: log}.Run(ctx, doc)
}

// Run analyzes, extracts, tags and links doc, then assembles the book.
// Stages run in order; only tagging fans out, and every block is tagged
// before links are built. ctx is not consulted mid-document.
func (r Runner) Run(ctx context.Context, doc *doctree.Document) (*Result, error) {
	log := r.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("doc", doc.Name)
	opts := r.Options
	stageMs := make(map[string]int64)
	began := time.Now()
	timed := func(stage string, start time.Time) {
		d := time.Since(start).Milliseconds()
		stageMs[stage] = d
		r.Stats.Record(stage, d)
	}

	// Stage 1: structure.
	r.enter(StatusAnalyzing)
	start := time.Now()
	set, err := opts.PatternSet()
	if err != nil {
		return nil, fmt.Errorf("patterns: %w", err)
	}
	analyzer := structure.Analyzer{Patterns: set, ChaptersOnly: !opts.CreateSections}
	h, err := analyzer.Analyze(doc)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", doc.Name, err)
	}
	timed(StageAnalyze, start)
	warnings := append([]doctree.Warning(nil), h.Warnings...)
	log.InfoContext(ctx, "analyzed document", "chapters", len(h.Chapters), "units", len(h.Units), "orphans", len(h.Warnings))

	// Stage 2: extraction.
	r.enter(StatusExtracting)
	start = time.Now()
	layout := assemble.NewLayout(h, opts.AssembleOptions())
	ex := extract.Extractor{AssetDir: opts.AssetDir(), UnitDir: layout.UnitDir}
	blocks, extractWarns := ex.ExtractAll(h, doc)
	warnings = append(warnings, extractWarns...)
	timed(StageExtract, start)
	if r.OnUnits != nil {
		r.OnUnits(len(h.Units), len(blocks))
	}

	// Stage 3: tagging, one goroutine per block behind a semaphore.
	r.enter(StatusTagging)
	start = time.Now()
	tags := make(map[string][]doctree.Tag, len(blocks))
	underTagged := 0
	if opts.GenerateTags {
		results := r.tagBlocks(h, blocks)
		for i, res := range results {
			tags[blocks[i].UnitID] = res.Tags
			if res.UnderTagged {
				underTagged++
				u := h.Find(blocks[i].UnitID)
				warnings = append(warnings, doctree.Warning{
					Kind:    doctree.WarnUnderTagged,
					Line:    u.StartLine,
					Unit:    u.ID,
					Message: fmt.Sprintf("%d of %d tags after relaxing %v", len(res.Tags), opts.MinTags, res.Relaxed),
				})
			}
		}
	}
	timed(StageTag, start)

	// Stage 4: links. Identities come from the layout so navigation targets
	// match the files the assembler writes.
	r.enter(StatusLinking)
	start = time.Now()
	bodies := make(map[string]string, len(blocks))
	for _, b := range blocks {
		bodies[b.UnitID] = b.Text
	}
	graph, err := links.Build(h, layout.Identify, links.Options{Root: layout.Root(), Bodies: bodies})
	if err != nil {
		return nil, fmt.Errorf("links %s: %w", doc.Name, err)
	}
	timed(StageLink, start)

	start = time.Now()
	byUnit := extract.ByUnit(blocks)
	book, err := layout.Assemble(assemble.Input{
		Doc:       doc,
		Hierarchy: h,
		Blocks:    byUnit,
		Tags:      tags,
		Graph:     graph,
	})
	if err != nil {
		return nil, fmt.Errorf("assemble %s: %w", doc.Name, err)
	}
	timed(StageAssemble, start)
	timed(StageTotal, began)

	assets := 0
	for _, b := range blocks {
		assets += len(b.Assets)
	}
	res := &Result{
		Hierarchy: h,
		Blocks:    blocks,
		Tags:      tags,
		Links:     graph,
		Warnings:  warnings,
		Book:      book,
		Stats: RunStats{
			Structure:   structure.Summarize(h),
			Issues:      structure.Validate(h),
			Units:       len(h.Units),
			Blocks:      len(blocks),
			Assets:      assets,
			Tagged:      len(tags),
			UnderTagged: underTagged,
			Links:       graph.Stats(),
			Files:       len(book.Files),
			StageMs:     stageMs,
		},
	}
	log.InfoContext(ctx, "split complete",
		"units", res.Stats.Units,
		"warnings", len(warnings),
		"under_tagged", underTagged,
		"duration_ms", stageMs[StageTotal],
	)
	return res, nil
}

func (r Runner) enter(s JobStatus) {
	if r.OnStage != nil {
		r.OnStage(s)
	}
}

// tagBlocks tags every block against a corpus built from this document
// only. Results are indexed like blocks.
func (r Runner) tagBlocks(h *doctree.Hierarchy, blocks []*doctree.ContentBlock) []tagger.Result {
	opts := r.Options
	topts := opts.TaggerOptions()
	tok := r.Tokenizer
	if tok == nil {
		tok = tagger.NewUnicodeTokenizer(topts.Vocabulary)
	}
	corpus := tagger.NewCorpus(tok)
	for _, b := range blocks {
		corpus.Add(b.Text)
	}
	synth := tagger.New(topts, tok, corpus)

	type tagResult struct {
		res tagger.Result
		idx int
	}
	results := make(chan tagResult, len(blocks))
	sem := make(chan struct{}, max(1, opts.TagConcurrency))

	for i, b := range blocks {
		sem <- struct{}{}
		go func(i int, b *doctree.ContentBlock) {
			defer func() { <-sem }()
			title := ""
			if u := h.Find(b.UnitID); u != nil {
				title = u.Title
			}
			res := synth.SynthesizeTitled(title, b.Text, opts.MinTags, opts.MaxTags)
			if r.OnTagged != nil {
				r.OnTagged()
			}
			results <- tagResult{res: res, idx: i}
		}(i, b)
	}

	out := make([]tagger.Result, len(blocks))
	for range blocks {
		tr := <-results
		out[tr.idx] = tr.res
	}
	return out
}

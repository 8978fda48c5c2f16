package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/booksplit/internal/config"
	"github.com/dgallion1/booksplit/internal/doctree"
	"github.com/dgallion1/booksplit/internal/links"
	"github.com/dgallion1/booksplit/internal/pipeline"
)

type splitFlags struct {
	inputs       []string
	output       string
	noSections   bool
	noTags       bool
	noNavigation bool
	noFront      bool
	noImages     bool
	minTags      int
	maxTags      int
	linksFormat  string
	parallel     int
}

func newSplitCommand(g *globals) *cobra.Command {
	f := &splitFlags{}
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split one or more books into linked markdown files",
		Example: `  booksplit split -i book.md -o out
  booksplit split -i a.md -i b.txt -o out --links-format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplit(cmd, g, f)
		},
	}
	cmd.Flags().StringSliceVarP(&f.inputs, "input", "i", nil, "Input book file (repeatable)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "output", "Output directory")
	cmd.Flags().BoolVar(&f.noSections, "no-sections", false, "Only split at chapter headings")
	cmd.Flags().BoolVar(&f.noTags, "no-tags", false, "Skip keyword tagging")
	cmd.Flags().BoolVar(&f.noNavigation, "no-navigation", false, "Omit navigation footers")
	cmd.Flags().BoolVar(&f.noFront, "no-front-matter", false, "Omit YAML front matter")
	cmd.Flags().BoolVar(&f.noImages, "no-images", false, "Drop image references")
	cmd.Flags().IntVar(&f.minTags, "min-tags", 0, "Minimum tags per unit (0 keeps the configured value)")
	cmd.Flags().IntVar(&f.maxTags, "max-tags", 0, "Maximum tags per unit (0 keeps the configured value)")
	cmd.Flags().StringVar(&f.linksFormat, "links-format", "", "Also export the link graph as json, yaml or csv")
	cmd.Flags().IntVarP(&f.parallel, "parallel", "p", 0, "Books processed at once (0 uses GOMAXPROCS)")
	cmd.MarkFlagRequired("input")
	return cmd
}

func (f *splitFlags) apply(opts config.Options) (config.Options, error) {
	if f.noSections {
		opts.CreateSections = false
	}
	if f.noTags {
		opts.GenerateTags = false
	}
	if f.noNavigation {
		opts.AddNavigation = false
	}
	if f.noFront {
		opts.FrontMatter = false
	}
	if f.noImages {
		opts.PreserveImages = false
	}
	if f.minTags > 0 {
		opts.MinTags = f.minTags
	}
	if f.maxTags > 0 {
		opts.MaxTags = f.maxTags
	}
	switch f.linksFormat {
	case "", "json", "yaml", "yml", "csv":
	default:
		return opts, fmt.Errorf("--links-format must be json, yaml or csv, got %q", f.linksFormat)
	}
	return opts, opts.Validate()
}

func runSplit(cmd *cobra.Command, g *globals, f *splitFlags) error {
	base, err := g.options()
	if err != nil {
		return err
	}
	opts, err := f.apply(base)
	if err != nil {
		return err
	}
	log := g.logger(cmd.ErrOrStderr())
	out := cmd.OutOrStdout()

	docs := make([]*doctree.Document, 0, len(f.inputs))
	for _, in := range f.inputs {
		doc, err := loadDocument(in)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	if len(docs) == 1 {
		res, err := pipeline.Run(cmd.Context(), docs[0], opts, log)
		if err != nil {
			return err
		}
		if err := writeBook(res, f.output, f.linksFormat); err != nil {
			return err
		}
		formatSummary(out, docs[0].Name, res, f.output)
		return nil
	}

	var batch *pipeline.Batch
	if f.parallel > 0 {
		runner := pipeline.Runner{Options: opts, Log: log}
		batch = runner.RunBatch(cmd.Context(), docs, f.parallel)
	} else {
		batch = pipeline.RunBatch(cmd.Context(), docs, opts, log)
	}

	for i, o := range batch.Outcomes {
		if o.Err != nil {
			formatFailure(out, o.Name, o.Err)
			continue
		}
		dir := filepath.Join(f.output, bookDirName(f.inputs[i]))
		if err := writeBook(o.Result, dir, f.linksFormat); err != nil {
			formatFailure(out, o.Name, err)
			continue
		}
		formatSummary(out, o.Name, o.Result, dir)
	}
	if n := batch.Failed(); n > 0 {
		return fmt.Errorf("%d of %d books failed", n, len(batch.Outcomes))
	}
	return nil
}

// bookDirName derives a per-book output directory from the input path.
func bookDirName(input string) string {
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func writeBook(res *pipeline.Result, dir, linksFormat string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := res.Book.Write(dir); err != nil {
		return err
	}
	if linksFormat == "" {
		return nil
	}
	data, err := links.Export(res.Links, linksFormat)
	if err != nil {
		return fmt.Errorf("export links: %w", err)
	}
	ext := linksFormat
	if ext == "yml" {
		ext = "yaml"
	}
	return os.WriteFile(filepath.Join(dir, "links."+ext), data, 0o644)
}

// Package cli implements the booksplit command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dgallion1/booksplit/internal/config"
	"github.com/dgallion1/booksplit/internal/doctree"
	"github.com/dgallion1/booksplit/internal/parser"
	"github.com/dgallion1/booksplit/internal/version"
	"github.com/spf13/cobra"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	configPath string
	verbose    bool
}

// NewRootCommand builds the command tree. Each call returns fresh flag state.
func NewRootCommand() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "booksplit",
		Short: "Split long-form books into linked, tagged chapter and section files",
		Long: `booksplit detects chapter and section headings in a book, slices each unit's
body, tags it with keywords, and writes one markdown file per unit with
navigation links and a table of contents.`,
		SilenceUsage: true,
	}
	root.Version = version.Version
	root.SetVersionTemplate(fmt.Sprintf("booksplit %s\n", version.String()))

	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", os.Getenv("SPLIT_CONFIG"), "Split options file (yaml, toml or json)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Log progress to stderr")

	root.AddCommand(newSplitCommand(g), newAnalyzeCommand(g), newTagsCommand(g), newServeCommand(g))
	return root
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (g *globals) options() (config.Options, error) {
	if g.configPath == "" {
		return config.DefaultOptions(), nil
	}
	return config.LoadOptions(g.configPath)
}

func (g *globals) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if g.verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadDocument parses a book file from disk.
func loadDocument(path string) (*doctree.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	doc, err := parser.Load(f, path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

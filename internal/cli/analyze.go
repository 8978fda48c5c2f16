package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/booksplit/internal/structure"
)

func newAnalyzeCommand(g *globals) *cobra.Command {
	var (
		asJSON       bool
		chaptersOnly bool
	)
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Show the detected chapter and section structure without writing files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := g.options()
			if err != nil {
				return err
			}
			set, err := opts.PatternSet()
			if err != nil {
				return err
			}
			doc, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			analyzer := structure.Analyzer{
				Patterns:     set,
				ChaptersOnly: chaptersOnly || !opts.CreateSections,
			}
			h, err := analyzer.Analyze(doc)
			if err != nil {
				return err
			}
			stats := structure.Summarize(h)
			issues := structure.Validate(h)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"hierarchy": h,
					"stats":     stats,
					"issues":    issues,
				})
			}
			fmt.Fprintln(out, titleStyle.Render(doc.Name))
			formatTree(out, h)
			formatStats(out, stats, issues)
			formatWarnings(out, h.Warnings)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the hierarchy as JSON")
	cmd.Flags().BoolVar(&chaptersOnly, "chapters-only", false, "Ignore section headings")
	return cmd
}

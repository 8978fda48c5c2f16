package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/dgallion1/booksplit/internal/doctree"
	"github.com/dgallion1/booksplit/internal/pipeline"
)

func newTagsCommand(g *globals) *cobra.Command {
	var (
		asJSON  bool
		maxTags int
	)
	cmd := &cobra.Command{
		Use:   "tags <file>",
		Short: "Print the keywords synthesized for every chapter and section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := g.options()
			if err != nil {
				return err
			}
			opts.GenerateTags = true
			if maxTags > 0 {
				opts.MaxTags = maxTags
				if opts.MinTags > maxTags {
					opts.MinTags = maxTags
				}
			}
			if err := opts.Validate(); err != nil {
				return err
			}
			doc, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			res, err := pipeline.Run(cmd.Context(), doc, opts, g.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				byUnit := make(map[string][]string, len(res.Tags))
				for id, tags := range res.Tags {
					byUnit[id] = doctree.TagTexts(tags)
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(byUnit)
			}
			formatTags(out, res)
			formatWarnings(out, res.Warnings)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print tags as JSON keyed by unit ID")
	cmd.Flags().IntVar(&maxTags, "max-tags", 0, "Override the maximum tags per unit")
	return cmd
}

package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dgallion1/booksplit/internal/doctree"
	"github.com/dgallion1/booksplit/internal/pipeline"
	"github.com/dgallion1/booksplit/internal/structure"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	tagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)
)

// formatSummary renders the result box printed after a split.
func formatSummary(w io.Writer, name string, res *pipeline.Result, outDir string) {
	st := res.Stats
	status := successStyle.Render("OK")
	if len(res.Warnings) > 0 {
		status = warnStyle.Render(fmt.Sprintf("%d warnings", len(res.Warnings)))
	}
	line1 := fmt.Sprintf("%s %d  %s %d  %s %d",
		dimStyle.Render("Chapters:"), st.Structure.Chapters,
		dimStyle.Render("Sections:"), st.Structure.Sections,
		dimStyle.Render("Files:"), st.Files,
	)
	line2 := fmt.Sprintf("%s %d  %s %d  %s %d",
		dimStyle.Render("Tagged:"), st.Tagged,
		dimStyle.Render("Assets:"), st.Assets,
		dimStyle.Render("Links:"), sumLinks(st),
	)
	line3 := fmt.Sprintf("%s %s  %s %dms  %s",
		dimStyle.Render("Output:"), outDir,
		dimStyle.Render("Took:"), st.StageMs[pipeline.StageTotal],
		status,
	)
	content := titleStyle.Render(name) + "\n" + line1 + "\n" + line2 + "\n" + line3
	fmt.Fprintln(w, boxStyle.Render(content))
	formatWarnings(w, res.Warnings)
}

func sumLinks(st pipeline.RunStats) int {
	n := 0
	for _, c := range st.Links {
		n += c
	}
	return n
}

func formatWarnings(w io.Writer, warnings []doctree.Warning) {
	for _, warn := range warnings {
		fmt.Fprintf(w, "%s %s\n", warnStyle.Render("warning:"), warn.String())
	}
}

// formatFailure renders a document that could not be split.
func formatFailure(w io.Writer, name string, err error) {
	fmt.Fprintf(w, "%s %s: %v\n", errorStyle.Render("failed:"), name, err)
}

// formatTree renders the hierarchy as an indented outline.
func formatTree(w io.Writer, h *doctree.Hierarchy) {
	var walk func(units []*doctree.Unit)
	walk = func(units []*doctree.Unit) {
		for _, u := range units {
			label := u.Title
			if u.IsChapter() {
				label = titleStyle.Render(label)
			}
			fmt.Fprintf(w, "%s%s %s %s\n",
				strings.Repeat("  ", u.Level),
				dimStyle.Render(u.ID),
				label,
				dimStyle.Render(fmt.Sprintf("[%d-%d]", u.StartLine, u.EndLine)),
			)
			walk(u.Children)
		}
	}
	walk(h.Chapters)
}

// formatStats renders structure statistics and validation issues.
func formatStats(w io.Writer, st structure.Stats, issues []string) {
	levels := make([]int, 0, len(st.SectionsByLevel))
	for l := range st.SectionsByLevel {
		levels = append(levels, l)
	}
	sort.Ints(levels)
	var byLevel []string
	for _, l := range levels {
		byLevel = append(byLevel, fmt.Sprintf("L%d=%d", l, st.SectionsByLevel[l]))
	}

	line1 := fmt.Sprintf("%s %d  %s %d  %s %d",
		dimStyle.Render("Lines:"), st.TotalLines,
		dimStyle.Render("Chapters:"), st.Chapters,
		dimStyle.Render("Sections:"), st.Sections,
	)
	line2 := fmt.Sprintf("%s %.1f  %s %d  %s %s",
		dimStyle.Render("Avg chapter lines:"), st.AvgChapterLines,
		dimStyle.Render("With sections:"), st.ChaptersWithSections,
		dimStyle.Render("By level:"), strings.Join(byLevel, " "),
	)
	fmt.Fprintln(w, boxStyle.Render(titleStyle.Render("Structure")+"\n"+line1+"\n"+line2))
	for _, issue := range issues {
		fmt.Fprintf(w, "%s %s\n", warnStyle.Render("issue:"), issue)
	}
}

// formatTags renders one line per unit with its keywords.
func formatTags(w io.Writer, res *pipeline.Result) {
	for _, u := range res.Hierarchy.Units {
		tags := doctree.TagTexts(res.Tags[u.ID])
		rendered := make([]string, len(tags))
		for i, t := range tags {
			rendered[i] = tagStyle.Render(t)
		}
		fmt.Fprintf(w, "%s%s %s: %s\n",
			strings.Repeat("  ", u.Level),
			dimStyle.Render(u.ID),
			u.Title,
			strings.Join(rendered, ", "),
		)
	}
}

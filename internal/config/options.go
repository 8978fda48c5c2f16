package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/booksplit/internal/assemble"
	"github.com/dgallion1/booksplit/internal/links"
	"github.com/dgallion1/booksplit/internal/patterns"
	"github.com/dgallion1/booksplit/internal/tagger"
)

// Options is the resolved split configuration. Core packages receive the
// values derived from it and never read files or the environment.
type Options struct {
	CreateSections bool `json:"create_sections" yaml:"create_sections" toml:"create_sections"`
	AddNavigation  bool `json:"add_navigation" yaml:"add_navigation" toml:"add_navigation"`
	PreserveImages bool `json:"preserve_images" yaml:"preserve_images" toml:"preserve_images"`
	GenerateTags   bool `json:"generate_tags" yaml:"generate_tags" toml:"generate_tags"`
	FrontMatter    bool `json:"front_matter" yaml:"front_matter" toml:"front_matter"`

	MaxTags int `json:"max_tags_per_section" yaml:"max_tags_per_section" toml:"max_tags_per_section"`
	MinTags int `json:"min_tags_per_section" yaml:"min_tags_per_section" toml:"min_tags_per_section"`

	TOCFilename    string `json:"toc_filename" yaml:"toc_filename" toml:"toc_filename"`
	ChaptersSubdir string `json:"chapters_subdir" yaml:"chapters_subdir" toml:"chapters_subdir"`
	SectionsSubdir string `json:"sections_subdir" yaml:"sections_subdir" toml:"sections_subdir"`
	ImagesSubdir   string `json:"images_subdir" yaml:"images_subdir" toml:"images_subdir"`

	// TagConcurrency bounds parallel tag synthesis within one document.
	TagConcurrency int `json:"tag_concurrency" yaml:"tag_concurrency" toml:"tag_concurrency"`

	Tagging    Tagging         `json:"tagging" yaml:"tagging" toml:"tagging"`
	Patterns   []patterns.Spec `json:"patterns,omitempty" yaml:"patterns,omitempty" toml:"patterns,omitempty"`
	Navigation links.NavLabels `json:"navigation_labels" yaml:"navigation_labels" toml:"navigation_labels"`
}

// Tagging mirrors tagger.Options in file form.
type Tagging struct {
	FrequencyWeight  float64  `json:"frequency_weight" yaml:"frequency_weight" toml:"frequency_weight"`
	CentralityWeight float64  `json:"centrality_weight" yaml:"centrality_weight" toml:"centrality_weight"`
	Window           int      `json:"window" yaml:"window" toml:"window"`
	Damping          float64  `json:"damping" yaml:"damping" toml:"damping"`
	MaxIterations    int      `json:"max_iterations" yaml:"max_iterations" toml:"max_iterations"`
	Tolerance        float64  `json:"tolerance" yaml:"tolerance" toml:"tolerance"`
	MinTokenLength   int      `json:"min_token_length" yaml:"min_token_length" toml:"min_token_length"`
	MinScore         float64  `json:"min_score" yaml:"min_score" toml:"min_score"`
	TitleBoost       float64  `json:"title_boost" yaml:"title_boost" toml:"title_boost"`
	VocabularyBoost  float64  `json:"vocabulary_boost" yaml:"vocabulary_boost" toml:"vocabulary_boost"`
	Stopwords        []string `json:"stopwords" yaml:"stopwords" toml:"stopwords"`
	ExtraStopwords   []string `json:"extra_stopwords,omitempty" yaml:"extra_stopwords,omitempty" toml:"extra_stopwords,omitempty"`
	AllowedPOS       []string `json:"allowed_pos" yaml:"allowed_pos" toml:"allowed_pos"`
	Vocabulary       []string `json:"vocabulary,omitempty" yaml:"vocabulary,omitempty" toml:"vocabulary,omitempty"`
	Relaxation       []string `json:"relaxation" yaml:"relaxation" toml:"relaxation"`
}

// DefaultOptions returns the stock configuration.
func DefaultOptions() Options {
	t := tagger.DefaultOptions()
	relax := make([]string, len(t.Relaxation))
	for i, r := range t.Relaxation {
		relax[i] = string(r)
	}
	a := assemble.DefaultOptions()
	return Options{
		CreateSections: true,
		AddNavigation:  true,
		PreserveImages: true,
		GenerateTags:   true,
		FrontMatter:    true,
		MaxTags:        8,
		MinTags:        3,
		TOCFilename:    a.Root,
		ChaptersSubdir: a.ChapterDir,
		SectionsSubdir: a.SectionDir,
		ImagesSubdir:   "images",
		TagConcurrency: 8,
		Tagging: Tagging{
			FrequencyWeight:  t.FrequencyWeight,
			CentralityWeight: t.CentralityWeight,
			Window:           t.Window,
			Damping:          t.Damping,
			MaxIterations:    t.MaxIterations,
			Tolerance:        t.Tolerance,
			MinTokenLength:   t.MinTokenLength,
			MinScore:         t.MinScore,
			TitleBoost:       t.TitleBoost,
			VocabularyBoost:  t.VocabularyBoost,
			Stopwords:        t.Stopwords,
			AllowedPOS:       t.AllowedPOS,
			Relaxation:       relax,
		},
		Navigation: a.Labels,
	}
}

// Validate checks cross-field constraints.
func (o Options) Validate() error {
	if o.MinTags < 0 {
		return fmt.Errorf("min_tags_per_section must not be negative, got %d", o.MinTags)
	}
	if o.MaxTags < o.MinTags {
		return fmt.Errorf("max_tags_per_section (%d) is less than min_tags_per_section (%d)", o.MaxTags, o.MinTags)
	}
	if o.TagConcurrency < 1 {
		return fmt.Errorf("tag_concurrency must be positive, got %d", o.TagConcurrency)
	}
	for name, dir := range map[string]string{
		"toc_filename":    o.TOCFilename,
		"chapters_subdir": o.ChaptersSubdir,
		"sections_subdir": o.SectionsSubdir,
	} {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("%s must not be empty", name)
		}
	}
	if err := o.TaggerOptions().Validate(); err != nil {
		return fmt.Errorf("tagging: %w", err)
	}
	if _, err := o.PatternSet(); err != nil {
		return fmt.Errorf("patterns: %w", err)
	}
	return nil
}

// TaggerOptions converts the tagging section.
func (o Options) TaggerOptions() tagger.Options {
	t := o.Tagging
	relax := make([]tagger.Relaxation, len(t.Relaxation))
	for i, r := range t.Relaxation {
		relax[i] = tagger.Relaxation(r)
	}
	stop := append(append([]string(nil), t.Stopwords...), t.ExtraStopwords...)
	return tagger.Options{
		FrequencyWeight:  t.FrequencyWeight,
		CentralityWeight: t.CentralityWeight,
		Window:           t.Window,
		Damping:          t.Damping,
		MaxIterations:    t.MaxIterations,
		Tolerance:        t.Tolerance,
		MinTokenLength:   t.MinTokenLength,
		MinScore:         t.MinScore,
		TitleBoost:       t.TitleBoost,
		VocabularyBoost:  t.VocabularyBoost,
		Stopwords:        stop,
		AllowedPOS:       t.AllowedPOS,
		Vocabulary:       t.Vocabulary,
		Relaxation:       relax,
	}
}

// PatternSet compiles the configured rules, or returns the built-in set
// when none are configured.
func (o Options) PatternSet() (*patterns.Set, error) {
	if len(o.Patterns) == 0 {
		return patterns.Default(), nil
	}
	return patterns.FromSpecs(o.Patterns)
}

// AssembleOptions converts the layout fields.
func (o Options) AssembleOptions() assemble.Options {
	return assemble.Options{
		ChapterDir:  o.ChaptersSubdir,
		SectionDir:  o.SectionsSubdir,
		Root:        o.TOCFilename,
		Sections:    o.CreateSections,
		Navigation:  o.AddNavigation,
		FrontMatter: o.FrontMatter,
		Labels:      o.Navigation,
	}
}

// AssetDir is the directory image references are rewritten into, or ""
// when images are left as written.
func (o Options) AssetDir() string {
	if !o.PreserveImages {
		return ""
	}
	return o.ImagesSubdir
}

// LoadOptions reads options from path on top of DefaultOptions. The format
// follows the extension: .yaml/.yml, .toml or .json. Other extensions are
// tried as YAML first, then JSON.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("read options: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &opts)
	case ".toml":
		err = toml.Unmarshal(data, &opts)
	case ".json":
		err = json.Unmarshal(data, &opts)
	default:
		if yerr := yaml.Unmarshal(data, &opts); yerr != nil {
			opts = DefaultOptions()
			if jerr := json.Unmarshal(data, &opts); jerr != nil {
				err = errors.Join(yerr, jerr)
			}
		}
	}
	if err != nil {
		return opts, fmt.Errorf("decode options %s: %w", path, err)
	}
	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("invalid options %s: %w", path, err)
	}
	return opts, nil
}

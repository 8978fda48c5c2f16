// Package tagger synthesizes keyword tags for content blocks by blending a
// TF-IDF score with a TextRank centrality score.
package tagger

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/dgallion1/booksplit/internal/doctree"
)

// Relaxation names a candidate filter that can be dropped when a block
// yields fewer than minTags tags.
type Relaxation string

const (
	RelaxPOS       Relaxation = "pos"
	RelaxStopwords Relaxation = "stopwords"
	RelaxMinLength Relaxation = "min_length"
)

// DefaultRelaxation widens the part-of-speech filter first, then the
// stopword list, then the minimum token length.
var DefaultRelaxation = []Relaxation{RelaxPOS, RelaxStopwords, RelaxMinLength}

// Options configures a Synthesizer.
type Options struct {
	FrequencyWeight  float64
	CentralityWeight float64
	Window           int
	Damping          float64
	MaxIterations    int
	Tolerance        float64
	MinTokenLength   int
	MinScore         float64
	TitleBoost       float64
	VocabularyBoost  float64
	Stopwords        []string
	AllowedPOS       []string
	Vocabulary       []string
	Relaxation       []Relaxation
}

// DefaultOptions returns the stock weights and filters.
func DefaultOptions() Options {
	return Options{
		FrequencyWeight:  0.6,
		CentralityWeight: 0.4,
		Window:           5,
		Damping:          0.85,
		MaxIterations:    50,
		Tolerance:        1e-6,
		MinTokenLength:   2,
		MinScore:         0.1,
		TitleBoost:       1.2,
		VocabularyBoost:  1.5,
		Stopwords:        DefaultStopwords(),
		AllowedPOS:       []string{"n", "nr", "ns", "nt", "nz", "v", "vn"},
		Relaxation:       append([]Relaxation(nil), DefaultRelaxation...),
	}
}

// Validate checks weights and bounds.
func (o Options) Validate() error {
	if o.FrequencyWeight < 0 || o.CentralityWeight < 0 {
		return fmt.Errorf("blend weights must be non-negative")
	}
	if s := o.FrequencyWeight + o.CentralityWeight; s < 0.999 || s > 1.001 {
		return fmt.Errorf("blend weights must sum to 1, got %.3f", s)
	}
	if o.Window < 2 {
		return fmt.Errorf("co-occurrence window must be at least 2, got %d", o.Window)
	}
	if o.Damping <= 0 || o.Damping >= 1 {
		return fmt.Errorf("damping must be in (0,1), got %v", o.Damping)
	}
	if o.MaxIterations < 1 {
		return fmt.Errorf("iteration cap must be positive, got %d", o.MaxIterations)
	}
	for _, r := range o.Relaxation {
		switch r {
		case RelaxPOS, RelaxStopwords, RelaxMinLength:
		default:
			return fmt.Errorf("unknown relaxation step %q", r)
		}
	}
	return nil
}

// Result is the outcome of tagging one block.
type Result struct {
	Tags        []doctree.Tag
	UnderTagged bool
	Relaxed     []Relaxation
	Candidates  int
}

// Synthesizer tags blocks of one document. It is safe for concurrent use
// once constructed.
type Synthesizer struct {
	opts      Options
	tok       Tokenizer
	corpus    *Corpus
	stop      map[string]bool
	allowPOS  map[string]bool
	vocabKeys map[string]bool
}

// New builds a Synthesizer. A nil tokenizer selects a UnicodeTokenizer over
// opts.Vocabulary; a nil corpus disables the inverse-frequency factor.
func New(opts Options, tok Tokenizer, corpus *Corpus) *Synthesizer {
	if tok == nil {
		tok = NewUnicodeTokenizer(opts.Vocabulary)
	}
	s := &Synthesizer{
		opts:      opts,
		tok:       tok,
		corpus:    corpus,
		stop:      make(map[string]bool, len(opts.Stopwords)),
		allowPOS:  make(map[string]bool, len(opts.AllowedPOS)),
		vocabKeys: make(map[string]bool, len(opts.Vocabulary)),
	}
	for _, w := range opts.Stopwords {
		s.stop[Normalize(w)] = true
	}
	for _, p := range opts.AllowedPOS {
		s.allowPOS[p] = true
	}
	for _, v := range opts.Vocabulary {
		s.vocabKeys[Normalize(v)] = true
	}
	return s
}

// Synthesize returns at most maxTags tags for text in descending score order.
func (s *Synthesizer) Synthesize(text string, minTags, maxTags int) []doctree.Tag {
	return s.SynthesizeTitled("", text, minTags, maxTags).Tags
}

// SynthesizeTitled tags text, boosting terms that also occur in title.
// When fewer than minTags tags survive, filters are dropped one at a time in
// the configured relaxation order. Running out of steps is not an error;
// the result is flagged UnderTagged instead.
func (s *Synthesizer) SynthesizeTitled(title, text string, minTags, maxTags int) Result {
	res := Result{Tags: []doctree.Tag{}}
	if maxTags <= 0 || strings.TrimSpace(text) == "" {
		return res
	}
	minTags = max(0, min(minTags, maxTags))

	tokens := s.tok.Tokenize(StripMarkdown(text))
	titleKeys := make(map[string]bool)
	if title != "" {
		for _, t := range s.tok.Tokenize(StripMarkdown(title)) {
			titleKeys[Normalize(t.Surface)] = true
		}
	}

	f := filters{pos: true, stop: true, length: true}
	for step := 0; ; step++ {
		tags, n := s.rank(tokens, f, titleKeys, minTags, maxTags)
		res.Tags, res.Candidates = tags, n
		if len(tags) >= minTags || step >= len(s.opts.Relaxation) {
			break
		}
		r := s.opts.Relaxation[step]
		f.drop(r)
		res.Relaxed = append(res.Relaxed, r)
	}
	res.UnderTagged = len(res.Tags) < minTags
	return res
}

type filters struct {
	pos, stop, length bool
}

func (f *filters) drop(r Relaxation) {
	switch r {
	case RelaxPOS:
		f.pos = false
	case RelaxStopwords:
		f.stop = false
	case RelaxMinLength:
		f.length = false
	}
}

type candidate struct {
	key     string
	surface string
	count   int
	score   float64
}

func (s *Synthesizer) keep(t Token, key string, f filters) bool {
	if key == "" {
		return false
	}
	if s.vocabKeys[key] {
		return true
	}
	if f.pos && !s.allowPOS[t.POS] {
		return false
	}
	if f.stop && s.stop[key] {
		return false
	}
	if f.length && utf8.RuneCountInString(key) < s.opts.MinTokenLength {
		return false
	}
	return true
}

// rank scores the surviving tokens and returns the truncated tag list plus
// the number of distinct candidates.
func (s *Synthesizer) rank(tokens []Token, f filters, titleKeys map[string]bool, minTags, maxTags int) ([]doctree.Tag, int) {
	var seq []string
	byKey := make(map[string]*candidate)
	for _, t := range tokens {
		key := Normalize(t.Surface)
		if !s.keep(t, key, f) {
			continue
		}
		seq = append(seq, key)
		c, ok := byKey[key]
		if !ok {
			c = &candidate{key: key, surface: norm.NFKC.String(strings.TrimSpace(t.Surface))}
			byKey[key] = c
		}
		c.count++
	}
	if len(seq) == 0 {
		return []doctree.Tag{}, 0
	}

	central := textRank(seq, s.opts.Window, s.opts.Damping, s.opts.MaxIterations, s.opts.Tolerance)
	freq := make(map[string]float64, len(byKey))
	maxFreq, maxCentral := 0.0, 0.0
	for key, c := range byKey {
		boost := 1.0
		if s.vocabKeys[key] && s.opts.VocabularyBoost > 0 {
			boost *= s.opts.VocabularyBoost
		}
		if titleKeys[key] && s.opts.TitleBoost > 0 {
			boost *= s.opts.TitleBoost
		}
		tf := float64(c.count) / float64(len(seq))
		freq[key] = tf * s.corpus.IDF(key) * boost
		central[key] *= boost
		maxFreq = max(maxFreq, freq[key])
		maxCentral = max(maxCentral, central[key])
	}

	cands := make([]*candidate, 0, len(byKey))
	for key, c := range byKey {
		c.score = s.opts.FrequencyWeight*safeDiv(freq[key], maxFreq) +
			s.opts.CentralityWeight*safeDiv(central[key], maxCentral)
		cands = append(cands, c)
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].key < cands[j].key
	})

	keepN := 0
	for _, c := range cands {
		if c.score >= s.opts.MinScore {
			keepN++
		}
	}
	keepN = min(max(keepN, minTags), len(cands), maxTags)

	tags := make([]doctree.Tag, keepN)
	for i := range keepN {
		tags[i] = doctree.Tag{Text: cands[i].surface, Score: clamp01(cands[i].score)}
	}
	return tags, len(cands)
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func clamp01(v float64) float64 {
	return min(1, max(0, v))
}

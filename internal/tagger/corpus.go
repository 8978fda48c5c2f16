package tagger

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Corpus holds document frequencies for one processing run. Each block of
// the document is added once; Corpus values are never shared between runs.
// Add must not be called concurrently with IDF.
type Corpus struct {
	docs int
	df   map[string]int
	tok  Tokenizer
}

// NewCorpus returns an empty corpus that tokenizes with tok.
func NewCorpus(tok Tokenizer) *Corpus {
	if tok == nil {
		tok = NewUnicodeTokenizer(nil)
	}
	return &Corpus{df: make(map[string]int), tok: tok}
}

// Add records one block's distinct terms.
func (c *Corpus) Add(text string) {
	c.docs++
	seen := make(map[string]bool)
	for _, t := range c.tok.Tokenize(StripMarkdown(text)) {
		k := Normalize(t.Surface)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		c.df[k]++
	}
}

// Docs returns the number of blocks added.
func (c *Corpus) Docs() int { return c.docs }

// DF returns the number of blocks containing the normalized term.
func (c *Corpus) DF(term string) int { return c.df[term] }

// IDF is the smoothed inverse document frequency ln((1+N)/(1+df)) + 1.
// A nil or empty corpus yields 1 for every term.
func (c *Corpus) IDF(term string) float64 {
	if c == nil || c.docs == 0 {
		return 1
	}
	return math.Log(float64(1+c.docs)/float64(1+c.df[term])) + 1
}

// Normalize folds s for comparison: NFKC, case folding, whitespace removed.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), "")
}

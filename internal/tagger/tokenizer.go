package tagger

import (
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/go-ego/gse"
	"github.com/rivo/uniseg"
)

// Token is a word-like unit with a part-of-speech label.
//
// Labels follow the ICTCLAS-style set used by the jieba dictionary: n (noun),
// nz (domain term), v (verb), vn (verbal noun), a (adjective), d (adverb),
// m (numeral), uj (particle 的), p (preposition) and so on.
type Token struct {
	Surface string
	POS     string
}

// Tokenizer segments text into tokens. Implementations must be safe for
// concurrent use.
type Tokenizer interface {
	Tokenize(text string) []Token
}

// TokenizerFunc adapts a function to the Tokenizer interface.
type TokenizerFunc func(text string) []Token

func (f TokenizerFunc) Tokenize(text string) []Token { return f(text) }

var (
	segOnce   sync.Once
	segShared *gse.Segmenter
)

// hanSegmenter loads the embedded dictionary once per process. It returns
// nil when the dictionary cannot be loaded.
func hanSegmenter() *gse.Segmenter {
	segOnce.Do(func() {
		var seg gse.Segmenter
		if err := seg.LoadDictEmbed(); err != nil {
			slog.Warn("han dictionary unavailable, using bigram split", "error", err)
			return
		}
		segShared = &seg
	})
	return segShared
}

// UnicodeTokenizer splits on UAX #29 word boundaries. Runs of Han characters
// are cut into known vocabulary terms first; the rest is segmented and
// part-of-speech tagged against the jieba dictionary, or cut into
// overlapping bigrams when no dictionary is loaded. Latin words get a
// suffix-based part of speech.
type UnicodeTokenizer struct {
	vocab  map[string]bool
	maxLen int
	seg    *gse.Segmenter
}

// NewUnicodeTokenizer returns a tokenizer that keeps the given terms whole.
func NewUnicodeTokenizer(vocabulary []string) *UnicodeTokenizer {
	t := &UnicodeTokenizer{
		vocab: make(map[string]bool, len(vocabulary)),
		seg:   hanSegmenter(),
	}
	for _, v := range vocabulary {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		t.vocab[v] = true
		if n := utf8.RuneCountInString(v); n > t.maxLen {
			t.maxLen = n
		}
	}
	return t
}

func (t *UnicodeTokenizer) Tokenize(text string) []Token {
	var out []Token
	var han []rune
	flush := func() {
		out = append(out, t.splitHan(han)...)
		han = han[:0]
	}

	state := -1
	rest := text
	var word string
	for len(rest) > 0 {
		word, rest, state = uniseg.FirstWordInString(rest, state)
		r, _ := utf8.DecodeRuneInString(word)
		if utf8.RuneCountInString(word) == 1 && unicode.Is(unicode.Han, r) {
			han = append(han, r)
			continue
		}
		if len(han) > 0 {
			flush()
		}
		if !isWordLike(word) {
			continue
		}
		out = append(out, Token{Surface: word, POS: t.latinPOS(word)})
	}
	if len(han) > 0 {
		flush()
	}
	return out
}

func (t *UnicodeTokenizer) splitHan(run []rune) []Token {
	var out []Token
	var pending []rune
	emitPending := func() {
		if len(pending) > 0 {
			out = append(out, t.segment(pending)...)
		}
		pending = pending[:0]
	}

	for i := 0; i < len(run); {
		if n := t.longestTerm(run[i:]); n > 0 {
			emitPending()
			out = append(out, Token{Surface: string(run[i : i+n]), POS: "nz"})
			i += n
			continue
		}
		pending = append(pending, run[i])
		i++
	}
	emitPending()
	return out
}

func (t *UnicodeTokenizer) segment(run []rune) []Token {
	if t.seg == nil {
		return bigrams(run)
	}
	words := t.seg.Pos(string(run), false)
	out := make([]Token, 0, len(words))
	for _, w := range words {
		if w.Text == "" {
			continue
		}
		pos := w.Pos
		if pos == "" {
			pos = "x"
		}
		out = append(out, Token{Surface: w.Text, POS: pos})
	}
	return out
}

func bigrams(run []rune) []Token {
	if len(run) == 1 {
		return []Token{{Surface: string(run), POS: "n"}}
	}
	out := make([]Token, 0, len(run)-1)
	for i := 0; i+1 < len(run); i++ {
		out = append(out, Token{Surface: string(run[i : i+2]), POS: "n"})
	}
	return out
}

func (t *UnicodeTokenizer) longestTerm(run []rune) int {
	limit := min(t.maxLen, len(run))
	for n := limit; n >= 2; n-- {
		if t.vocab[string(run[:n])] {
			return n
		}
	}
	return 0
}

func (t *UnicodeTokenizer) latinPOS(w string) string {
	if t.vocab[w] {
		return "nz"
	}
	lw := strings.ToLower(w)
	switch {
	case isNumeric(w):
		return "m"
	case strings.HasSuffix(lw, "ly") && len(lw) > 4:
		return "d"
	case hasAnySuffix(lw, "ing", "ed", "ize", "ise", "ate") && len(lw) > 4:
		return "v"
	case hasAnySuffix(lw, "ous", "ful", "ive", "able", "ible", "al", "ic") && len(lw) > 4:
		return "a"
	}
	return "n"
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

func isWordLike(w string) bool {
	for _, r := range w {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func isNumeric(w string) bool {
	for _, r := range w {
		if !unicode.IsDigit(r) && r != '.' && r != ',' {
			return false
		}
	}
	return true
}

var (
	mdImage    = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	mdLink     = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	mdEmphasis = regexp.MustCompile(`(\*{1,3}|_{2,3})([^*_]+)(\*{1,3}|_{2,3})`)
	mdCode     = regexp.MustCompile("`([^`]*)`")
	mdHeading  = regexp.MustCompile(`(?m)^\s*#+\s*`)
	mdURL      = regexp.MustCompile(`https?://\S+`)
)

// StripMarkdown removes markup that should not produce tags: images, URLs,
// heading markers, emphasis and code ticks. Link text is kept.
func StripMarkdown(s string) string {
	s = mdImage.ReplaceAllString(s, " ")
	s = mdLink.ReplaceAllString(s, "$1")
	s = mdURL.ReplaceAllString(s, " ")
	s = mdHeading.ReplaceAllString(s, "")
	s = mdEmphasis.ReplaceAllString(s, "$2")
	s = mdCode.ReplaceAllString(s, "$1")
	return s
}

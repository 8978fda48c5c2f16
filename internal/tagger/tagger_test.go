package tagger

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/booksplit/internal/doctree"
)

func newSynth(t *testing.T, corpus *Corpus, mutate ...func(*Options)) *Synthesizer {
	t.Helper()
	opts := DefaultOptions()
	for _, m := range mutate {
		m(&opts)
	}
	require.NoError(t, opts.Validate())
	return New(opts, nil, corpus)
}

func TestSynthesize_ShortBlock(t *testing.T) {
	tags := newSynth(t, nil).Synthesize("Sub body.", 1, 3)
	require.NotEmpty(t, tags)
	assert.LessOrEqual(t, len(tags), 3)
	assert.Equal(t, []string{"body", "Sub"}, doctree.TagTexts(tags))
	for _, tag := range tags {
		assert.InDelta(t, 1.0, tag.Score, 1e-9)
	}
}

func TestSynthesize_EmptyInput(t *testing.T) {
	s := newSynth(t, nil)
	for _, text := range []string{"", "   ", "\n\t\n"} {
		tags := s.Synthesize(text, 2, 5)
		assert.NotNil(t, tags)
		assert.Empty(t, tags)
	}
}

func TestSynthesize_ZeroMax(t *testing.T) {
	assert.Empty(t, newSynth(t, nil).Synthesize("river forest castle", 0, 0))
}

func TestSynthesize_DeduplicatesCaseInsensitively(t *testing.T) {
	tags := newSynth(t, nil).Synthesize("Network network NETWORK routing", 1, 5)
	texts := doctree.TagTexts(tags)
	assert.Equal(t, []string{"Network", "routing"}, texts)
}

func TestSynthesize_RelaxesInConfiguredOrder(t *testing.T) {
	s := newSynth(t, nil)

	res := s.SynthesizeTitled("", "the the and of", 1, 3)
	require.NotEmpty(t, res.Tags)
	assert.False(t, res.UnderTagged)
	assert.Equal(t, []Relaxation{RelaxPOS, RelaxStopwords}, res.Relaxed)
	assert.Equal(t, "the", res.Tags[0].Text)

	res = s.SynthesizeTitled("", "x", 3, 5)
	assert.True(t, res.UnderTagged)
	assert.Equal(t, DefaultRelaxation, res.Relaxed)
	assert.Equal(t, []string{"x"}, doctree.TagTexts(res.Tags))
}

func TestSynthesize_CustomRelaxation(t *testing.T) {
	s := newSynth(t, nil, func(o *Options) { o.Relaxation = []Relaxation{RelaxMinLength} })
	res := s.SynthesizeTitled("", "x", 1, 2)
	assert.Equal(t, []Relaxation{RelaxMinLength}, res.Relaxed)
	assert.Len(t, res.Tags, 1)

	s = newSynth(t, nil, func(o *Options) { o.Relaxation = nil })
	res = s.SynthesizeTitled("", "x", 1, 2)
	assert.True(t, res.UnderTagged)
	assert.Empty(t, res.Tags)
}

func TestSynthesize_CorpusPenalizesCommonTerms(t *testing.T) {
	corpus := NewCorpus(nil)
	for _, b := range []string{"alpha beta gamma", "alpha delta", "alpha epsilon"} {
		corpus.Add(b)
	}
	assert.Equal(t, 3, corpus.Docs())
	assert.Equal(t, 3, corpus.DF("alpha"))
	assert.Less(t, corpus.IDF("alpha"), corpus.IDF("beta"))

	tags := newSynth(t, corpus).Synthesize("alpha beta gamma", 3, 3)
	require.Len(t, tags, 3)
	assert.Equal(t, "alpha", tags[2].Text)
	assert.Less(t, tags[2].Score, tags[0].Score)
}

func TestSynthesize_VocabularyAndHan(t *testing.T) {
	s := newSynth(t, nil, func(o *Options) { o.Vocabulary = []string{"政治"} })
	tags := s.Synthesize("政治制度与政治文化", 1, 4)
	require.NotEmpty(t, tags)
	assert.Equal(t, "政治", tags[0].Text)
	assert.LessOrEqual(t, len(tags), 4)
}

func TestSynthesize_TitleBoost(t *testing.T) {
	res := newSynth(t, nil).SynthesizeTitled("Beta", "alpha beta", 1, 2)
	require.Len(t, res.Tags, 2)
	assert.Equal(t, "beta", res.Tags[0].Text)
	assert.Greater(t, res.Tags[0].Score, res.Tags[1].Score)
}

func TestSynthesize_BoundsAndDeterminism(t *testing.T) {
	words := strings.Fields(`river mountain forest castle dragon knight bridge tower
		garden window market harbor island valley meadow temple palace shadow winter
		summer letter number planet rocket silver copper marble canyon desert glacier`)
	corpus := NewCorpus(nil)
	var texts []string
	r := rand.New(rand.NewPCG(42, 7))
	for range 40 {
		n := 50 + r.IntN(150)
		parts := make([]string, n)
		for i := range parts {
			w := words[r.IntN(len(words))]
			if r.IntN(4) == 0 {
				w = strings.ToUpper(w[:1]) + w[1:]
			}
			parts[i] = w
		}
		text := strings.Join(parts, " ")
		texts = append(texts, text)
		corpus.Add(text)
	}

	s := newSynth(t, corpus)
	for i, text := range texts {
		minTags := r.IntN(5)
		maxTags := minTags + r.IntN(5)
		tags := s.Synthesize(text, minTags, maxTags)
		assert.GreaterOrEqual(t, len(tags), minTags, "block %d", i)
		assert.LessOrEqual(t, len(tags), maxTags, "block %d", i)

		seen := map[string]bool{}
		for j, tag := range tags {
			key := Normalize(tag.Text)
			assert.False(t, seen[key], "duplicate tag %q in block %d", tag.Text, i)
			seen[key] = true
			assert.GreaterOrEqual(t, tag.Score, 0.0)
			assert.LessOrEqual(t, tag.Score, 1.0)
			if j > 0 {
				assert.GreaterOrEqual(t, tags[j-1].Score, tag.Score)
			}
		}
		assert.Equal(t, tags, s.Synthesize(text, minTags, maxTags))
	}
}

func TestTextRank_StarCenterWins(t *testing.T) {
	seq := []string{"hub", "a", "hub", "b", "hub", "c", "hub", "d"}
	scores := textRank(seq, 2, 0.85, 100, 1e-9)
	for _, leaf := range []string{"a", "b", "c", "d"} {
		assert.Greater(t, scores["hub"], scores[leaf])
	}
}

func TestTextRank_IsolatedNode(t *testing.T) {
	scores := textRank([]string{"solo", "solo"}, 5, 0.85, 10, 1e-9)
	assert.InDelta(t, 0.15, scores["solo"], 1e-9)
	assert.Nil(t, textRank(nil, 5, 0.85, 10, 1e-9))
}

func TestUnicodeTokenizer(t *testing.T) {
	tok := NewUnicodeTokenizer([]string{"意识形态"})
	tok.seg = nil

	got := tok.Tokenize("Running quickly, the 2024 report is useful.")
	assert.Equal(t, []Token{
		{"Running", "v"},
		{"quickly", "d"},
		{"the", "n"},
		{"2024", "m"},
		{"report", "n"},
		{"is", "n"},
		{"useful", "a"},
	}, got)

	got = tok.Tokenize("国家意识形态研究")
	assert.Equal(t, []Token{
		{"国家", "n"},
		{"意识形态", "nz"},
		{"研究", "n"},
	}, got)

	got = tok.Tokenize("民主")
	assert.Equal(t, []Token{{"民主", "n"}}, got)
}

func TestUnicodeTokenizer_DictionarySegmentation(t *testing.T) {
	tok := NewUnicodeTokenizer([]string{"意识形态"})
	require.NotNil(t, tok.seg)

	got := tok.Tokenize("国家意识形态研究")
	require.Len(t, got, 3)
	assert.Equal(t, "国家", got[0].Surface)
	assert.Equal(t, Token{"意识形态", "nz"}, got[1])
	assert.Equal(t, "研究", got[2].Surface)

	var joined strings.Builder
	for _, tk := range tok.Tokenize("民主制度的建立需要长期的实践") {
		joined.WriteString(tk.Surface)
		if strings.Contains(tk.Surface, "的") {
			assert.Equal(t, Token{"的", "uj"}, tk)
		}
		assert.NotEqual(t, "主制", tk.Surface)
		assert.NotEqual(t, "要长", tk.Surface)
	}
	assert.Equal(t, "民主制度的建立需要长期的实践", joined.String())
}

func TestSynthesize_ChineseDropsStopwordsAndParticles(t *testing.T) {
	text := "政治学研究国家与权力。政治学的核心是权力。民主制度的建立需要长期的实践。民主制度与权力。"
	res := newSynth(t, nil).SynthesizeTitled("", text, 1, 8)
	require.NotEmpty(t, res.Tags)
	assert.Empty(t, res.Relaxed)

	texts := doctree.TagTexts(res.Tags)
	assert.Contains(t, texts, "权力")
	for _, unwanted := range []string{"的", "与", "是", "主制", "治学", "要长", "的建"} {
		assert.NotContains(t, texts, unwanted)
	}

	allowed := map[string]bool{}
	for _, p := range DefaultOptions().AllowedPOS {
		allowed[p] = true
	}
	tok := NewUnicodeTokenizer(nil)
	pos := map[string]string{}
	for _, tk := range tok.Tokenize(text) {
		pos[tk.Surface] = tk.POS
	}
	for _, tag := range res.Tags {
		assert.True(t, allowed[pos[tag.Text]], "tag %q has class %q", tag.Text, pos[tag.Text])
	}
}

func TestStripMarkdown(t *testing.T) {
	in := "# Title\n**bold** and *it* see [the docs](http://x.y) ![img](a.png) `code` https://example.com/z"
	out := StripMarkdown(in)
	assert.NotContains(t, out, "#")
	assert.NotContains(t, out, "*")
	assert.NotContains(t, out, "a.png")
	assert.NotContains(t, out, "http")
	assert.Contains(t, out, "the docs")
	assert.Contains(t, out, "bold")
	assert.Contains(t, out, "code")
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "abc", Normalize("ＡＢＣ"))
	assert.Equal(t, "foobar", Normalize("  Foo Bar "))
	assert.Equal(t, "", Normalize("   "))
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"weights sum", func(o *Options) { o.FrequencyWeight = 0.9 }},
		{"negative weight", func(o *Options) { o.FrequencyWeight, o.CentralityWeight = -0.5, 1.5 }},
		{"window", func(o *Options) { o.Window = 1 }},
		{"damping", func(o *Options) { o.Damping = 1 }},
		{"iterations", func(o *Options) { o.MaxIterations = 0 }},
		{"relaxation", func(o *Options) { o.Relaxation = []Relaxation{"bogus"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			assert.Error(t, opts.Validate())
		})
	}
	assert.NoError(t, DefaultOptions().Validate())
}

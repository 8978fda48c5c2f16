// Package patterns holds the ranked table of heading grammars used to detect
// chapter and section boundaries.
//
// Every rule is a regular expression over a single trimmed line with optional
// named groups "num" and "title". Precedence is (chapter before section, rank,
// declaration order): chapter rules always win over section rules on the same
// line, whatever rank they were configured with.
package patterns

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dgallion1/booksplit/internal/doctree"
)

// Spec is the declarative, serializable form of a Rule.
type Spec struct {
	Name     string `json:"name" yaml:"name" toml:"name"`
	Level    int    `json:"level" yaml:"level" toml:"level"`
	Rank     int    `json:"rank" yaml:"rank" toml:"rank"`
	Pattern  string `json:"pattern" yaml:"pattern" toml:"pattern"`
	Template string `json:"template,omitempty" yaml:"template,omitempty" toml:"template,omitempty"`

	// TrimPageNumber strips a trailing page number from the title group.
	TrimPageNumber bool `json:"trim_page_number,omitempty" yaml:"trim_page_number,omitempty" toml:"trim_page_number,omitempty"`
}

// Rule is a compiled heading grammar.
type Rule struct {
	Spec
	expr  *regexp.Regexp
	order int
}

// Match is a successful rule match on one line.
type Match struct {
	Rule   string
	Level  int
	Number string
	Title  string
}

// Set is an ordered, immutable collection of rules.
type Set struct {
	rules []Rule
}

// Compile validates a Spec and compiles its expression.
func Compile(s Spec) (Rule, error) {
	if s.Name == "" {
		return Rule{}, fmt.Errorf("pattern rule: name is required")
	}
	if s.Level < doctree.ChapterLevel || s.Level > doctree.MaxSectionLevel {
		return Rule{}, fmt.Errorf("pattern rule %q: level %d out of range 0..%d", s.Name, s.Level, doctree.MaxSectionLevel)
	}
	if s.Pattern == "" {
		return Rule{}, fmt.Errorf("pattern rule %q: pattern is required", s.Name)
	}
	re, err := regexp.Compile(s.Pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("pattern rule %q: %w", s.Name, err)
	}
	return Rule{Spec: s, expr: re}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(s Spec) Rule {
	r, err := Compile(s)
	if err != nil {
		panic(err)
	}
	return r
}

// New builds a Set from compiled rules. Rule names must be unique.
func New(rules ...Rule) (*Set, error) {
	seen := make(map[string]bool, len(rules))
	out := make([]Rule, len(rules))
	for i, r := range rules {
		if r.expr == nil {
			return nil, fmt.Errorf("pattern rule %q was not compiled", r.Name)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("duplicate pattern rule %q", r.Name)
		}
		seen[r.Name] = true
		r.order = i
		out[i] = r
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return &Set{rules: out}, nil
}

func less(a, b Rule) bool {
	ac, bc := a.Level == doctree.ChapterLevel, b.Level == doctree.ChapterLevel
	if ac != bc {
		return ac
	}
	if a.Rank != b.Rank {
		return a.Rank < b.Rank
	}
	return a.order < b.order
}

// FromSpecs compiles specs and builds a Set.
func FromSpecs(specs []Spec) (*Set, error) {
	rules := make([]Rule, 0, len(specs))
	for _, s := range specs {
		r, err := Compile(s)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return New(rules...)
}

// Rules returns the rules in precedence order.
func (s *Set) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Names returns rule names in precedence order.
func (s *Set) Names() []string {
	out := make([]string, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.Name
	}
	return out
}

// HasChapterRule reports whether at least one level-0 rule is present.
func (s *Set) HasChapterRule() bool {
	return len(s.rules) > 0 && s.rules[0].Level == doctree.ChapterLevel
}

// Match tests line against every rule in precedence order and returns the first hit.
func (s *Set) Match(line string) (Match, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Match{}, false
	}
	for _, r := range s.rules {
		if m, ok := r.match(line); ok {
			return m, true
		}
	}
	return Match{}, false
}

// MatchAll returns every rule matching line, in precedence order.
func (s *Set) MatchAll(line string) []Match {
	line = strings.TrimSpace(line)
	var out []Match
	for _, r := range s.rules {
		if m, ok := r.match(line); ok {
			out = append(out, m)
		}
	}
	return out
}

func (r Rule) match(line string) (Match, bool) {
	idx := r.expr.FindStringSubmatchIndex(line)
	if idx == nil {
		return Match{}, false
	}
	m := Match{Rule: r.Name, Level: r.Level}
	if i := r.expr.SubexpIndex("num"); i > 0 && idx[2*i] >= 0 {
		m.Number = strings.TrimSpace(line[idx[2*i]:idx[2*i+1]])
	}
	title := ""
	if i := r.expr.SubexpIndex("title"); i > 0 && idx[2*i] >= 0 {
		title = cleanTitle(line[idx[2*i]:idx[2*i+1]], r.TrimPageNumber)
	}
	switch {
	case r.Template != "":
		m.Title = r.expand(line, idx, m.Number, title)
	case title != "":
		m.Title = title
	default:
		m.Title = strings.TrimSpace(strings.TrimLeft(line, "#"))
	}
	return m, true
}

// expand fills ${name} placeholders from the named groups. ${num} and
// ${title} use the cleaned values; the separator before an empty title is dropped.
func (r Rule) expand(line string, idx []int, num, title string) string {
	out := r.Template
	if title == "" {
		out = strings.ReplaceAll(out, " ${title}", "")
	}
	for i, name := range r.expr.SubexpNames() {
		if name == "" || name == "num" || name == "title" {
			continue
		}
		val := ""
		if idx[2*i] >= 0 {
			val = line[idx[2*i]:idx[2*i+1]]
		}
		out = strings.ReplaceAll(out, "${"+name+"}", val)
	}
	out = strings.ReplaceAll(out, "${num}", num)
	out = strings.ReplaceAll(out, "${title}", title)
	return strings.TrimSpace(out)
}

var (
	dotLeader  = regexp.MustCompile(`\s*(…+|\.{3,}|·{3,}).*$`)
	pageNumber = regexp.MustCompile(`\s+\d+$`)
)

func cleanTitle(s string, trimPage bool) string {
	s = dotLeader.ReplaceAllString(s, "")
	if trimPage {
		s = pageNumber.ReplaceAllString(s, "")
	}
	return strings.TrimSpace(s)
}

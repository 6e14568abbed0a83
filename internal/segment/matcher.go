package segment

import (
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// MatchTimeout bounds a single heuristic scan. A pattern that times out
// contributes no spans.
const MatchTimeout = 250 * time.Millisecond

// Span is a half-open byte range [Start, End) within the input.
type Span struct {
	Start int
	End   int
}

// Len returns the span length in bytes.
func (s Span) Len() int {
	return s.End - s.Start
}

// Matcher finds candidate code spans in text.
type Matcher interface {
	FindAll(text string) []Span
}

// Regexp2Matcher adapts a regexp2 pattern. regexp2 is used for the default
// heuristics because several of them rely on lookahead.
type Regexp2Matcher struct {
	re *regexp2.Regexp
}

// NewRegexp2 compiles expr with the given options and the package match
// timeout.
func NewRegexp2(expr string, opts regexp2.RegexOptions) (*Regexp2Matcher, error) {
	re, err := regexp2.Compile(expr, opts)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = MatchTimeout
	return &Regexp2Matcher{re: re}, nil
}

// MustRegexp2 is like NewRegexp2 but panics if expr does not compile.
func MustRegexp2(expr string, opts regexp2.RegexOptions) *Regexp2Matcher {
	m, err := NewRegexp2(expr, opts)
	if err != nil {
		panic("segment: " + err.Error())
	}
	return m
}

// FindAll returns every non-empty match as a byte span. regexp2 reports rune
// offsets, so they are translated here.
func (m *Regexp2Matcher) FindAll(text string) []Span {
	match, err := m.re.FindStringMatch(text)
	if err != nil || match == nil {
		return nil
	}

	offsets := runeByteOffsets(text)
	var spans []Span
	for match != nil {
		if match.Length > 0 {
			spans = append(spans, Span{
				Start: offsets[match.Index],
				End:   offsets[match.Index+match.Length],
			})
		}
		match, err = m.re.FindNextMatch(match)
		if err != nil {
			return nil
		}
	}
	return spans
}

// runeByteOffsets maps rune index i to its byte offset; the final entry is
// len(text).
func runeByteOffsets(text string) []int {
	offsets := make([]int, 0, utf8.RuneCountInString(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	return append(offsets, len(text))
}

// RegexpMatcher adapts a standard library pattern.
type RegexpMatcher struct {
	re *regexp.Regexp
}

// NewRegexp wraps an already compiled pattern.
func NewRegexp(re *regexp.Regexp) *RegexpMatcher {
	return &RegexpMatcher{re: re}
}

// FindAll returns every non-empty match as a byte span.
func (m *RegexpMatcher) FindAll(text string) []Span {
	var spans []Span
	for _, loc := range m.re.FindAllStringIndex(text, -1) {
		if loc[1] > loc[0] {
			spans = append(spans, Span{Start: loc[0], End: loc[1]})
		}
	}
	return spans
}

// DefaultPatterns lists the code heuristics in priority order.
var DefaultPatterns = []string{
	`\bimport\s+[\s\S]*?;?\n`,
	`\bfrom\s+[\s\S]*?import[\s\S]*?\n`,
	`\bdef\s+\w+[\s\S]*?:\n[\s\S]*?(?=\n\w|\n$)`,
	`\bclass\s+\w+[\s\S]*?:\n[\s\S]*?(?=\n\w|\n$)`,
	`\bconst\s+\w+[\s\S]*?;?\n`,
	`\blet\s+\w+[\s\S]*?;?\n`,
	`\bvar\s+\w+[\s\S]*?;?\n`,
	`\bfunction\s+\w+[\s\S]*?\{[\s\S]*?\}`,
	`\bif\s*\([\s\S]*?\)\s*\{[\s\S]*?\}`,
	`\bfor\s*\([\s\S]*?\)\s*\{[\s\S]*?\}`,
	`\bwhile\s*\([\s\S]*?\)\s*\{[\s\S]*?\}`,
	`\btry\s*\{[\s\S]*?\}\s*catch[\s\S]*?\}`,
	`\.\w+\([\s\S]*?\)`,
	`\w+\.\w+\([\s\S]*?\)`,
	`\bfunc\s+(\([^)]*\)\s*)?\w+\([^)]*\)[^{\n]*\{[\s\S]*?\n\}`,
	`\b(SELECT|INSERT\s+INTO|UPDATE|DELETE\s+FROM)\b[^;]*;`,
}

// DefaultMatchers compiles DefaultPatterns with regexp2.
func DefaultMatchers() []Matcher {
	matchers := make([]Matcher, 0, len(DefaultPatterns))
	for _, p := range DefaultPatterns {
		matchers = append(matchers, MustRegexp2(p, regexp2.None))
	}
	return matchers
}

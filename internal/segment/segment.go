// Package segment splits AI-generated answers into alternating prose and code
// regions. Fenced markdown blocks are honored when present; otherwise an
// ordered list of language-construct heuristics locates code spans, which are
// merged into non-overlapping regions.
package segment

import (
	"sort"
	"strings"
)

// Kind distinguishes prose from code.
type Kind string

const (
	KindText Kind = "text"
	KindCode Kind = "code"
)

// DefaultLanguage is used when a code region carries no language tag.
const DefaultLanguage = "text"

const fence = "```"

// Segment is one region of an answer, in document order.
type Segment struct {
	Kind     Kind
	Language string
	Content  string
}

// IsCode reports whether the segment holds code.
func (s Segment) IsCode() bool {
	return s.Kind == KindCode
}

// Segmenter splits text using fences or, failing that, its matchers.
type Segmenter struct {
	matchers []Matcher
}

// New creates a Segmenter that applies matchers in priority order.
func New(matchers ...Matcher) *Segmenter {
	return &Segmenter{matchers: matchers}
}

var defaultSegmenter = New(DefaultMatchers()...)

// Split segments text with the default heuristics.
func Split(text string) []Segment {
	return defaultSegmenter.Split(text)
}

// Split returns the ordered segments covering text. Empty text segments are
// dropped.
func (s *Segmenter) Split(text string) []Segment {
	if text == "" {
		return nil
	}
	if strings.Contains(text, fence) {
		return splitFenced(text)
	}
	return s.splitHeuristic(text)
}

// Spans returns the merged code spans the matchers find in text.
func (s *Segmenter) Spans(text string) []Span {
	var all []Span
	for _, m := range s.matchers {
		all = append(all, m.FindAll(text)...)
	}
	return Merge(all)
}

func (s *Segmenter) splitHeuristic(text string) []Segment {
	spans := s.Spans(text)
	if len(spans) == 0 {
		return []Segment{textSegment(text)}
	}

	var out []Segment
	last := 0
	for _, sp := range spans {
		if sp.Start > last {
			out = append(out, textSegment(text[last:sp.Start]))
		}
		out = append(out, Segment{Kind: KindCode, Language: DefaultLanguage, Content: text[sp.Start:sp.End]})
		last = sp.End
	}
	if last < len(text) {
		out = append(out, textSegment(text[last:]))
	}
	return out
}

// Merge sorts spans by start offset and folds overlapping or touching spans
// together. Ties keep their input order.
func Merge(spans []Span) []Span {
	if len(spans) == 0 {
		return nil
	}
	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	merged := []Span{sorted[0]}
	for _, sp := range sorted[1:] {
		last := &merged[len(merged)-1]
		if sp.Start <= last.End {
			if sp.End > last.End {
				last.End = sp.End
			}
			continue
		}
		merged = append(merged, sp)
	}
	return merged
}

// splitFenced walks ``` pairs. An unclosed trailing fence becomes a code
// segment running to the end of input.
func splitFenced(text string) []Segment {
	var out []Segment
	rest := text
	for {
		open := strings.Index(rest, fence)
		if open < 0 {
			if rest != "" {
				out = append(out, textSegment(rest))
			}
			return out
		}
		if open > 0 {
			out = append(out, textSegment(rest[:open]))
		}
		body := rest[open+len(fence):]
		end := strings.Index(body, fence)
		if end < 0 {
			out = append(out, codeSegment(body))
			return out
		}
		out = append(out, codeSegment(body[:end]))
		rest = body[end+len(fence):]
	}
}

func codeSegment(inner string) Segment {
	nl := strings.IndexByte(inner, '\n')
	if nl < 0 {
		return Segment{Kind: KindCode, Language: DefaultLanguage, Content: strings.TrimSpace(inner)}
	}
	lang := strings.TrimSpace(inner[:nl])
	if lang == "" {
		lang = DefaultLanguage
	}
	code := strings.TrimSuffix(inner[nl+1:], "\n")
	return Segment{Kind: KindCode, Language: lang, Content: code}
}

func textSegment(s string) Segment {
	return Segment{Kind: KindText, Language: DefaultLanguage, Content: s}
}

// RestoreFences turns the backend's ''' fence escaping back into ```.
func RestoreFences(text string) string {
	return strings.ReplaceAll(text, "'''", fence)
}

// Join renders segments back into fenced markdown.
func Join(segments []Segment) string {
	var b strings.Builder
	for _, seg := range segments {
		if seg.Kind != KindCode {
			b.WriteString(seg.Content)
			continue
		}
		lang := seg.Language
		if lang == DefaultLanguage {
			lang = ""
		}
		b.WriteString(fence + lang + "\n" + seg.Content + "\n" + fence)
	}
	return b.String()
}

// HasCode reports whether any segment is code.
func HasCode(segments []Segment) bool {
	for _, seg := range segments {
		if seg.IsCode() {
			return true
		}
	}
	return false
}

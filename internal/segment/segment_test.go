package segment

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Fenced path
// =============================================================================

func TestSplit_SingleFencedBlock(t *testing.T) {
	segs := Split("```python\nprint(1)\n```")

	require.Len(t, segs, 1)
	assert.Equal(t, KindCode, segs[0].Kind)
	assert.Equal(t, "python", segs[0].Language)
	assert.Equal(t, "print(1)", segs[0].Content)
}

func TestSplit_FencedAlternates(t *testing.T) {
	input := "Run this:\n```go\nfmt.Println(1)\n```\nthen this:\n```\nls -la\n```\ndone"
	segs := Split(input)

	require.Len(t, segs, 5)
	kinds := []Kind{KindText, KindCode, KindText, KindCode, KindText}
	for i, k := range kinds {
		assert.Equal(t, k, segs[i].Kind, "segment %d", i)
	}
	assert.Equal(t, "Run this:\n", segs[0].Content)
	assert.Equal(t, "go", segs[1].Language)
	assert.Equal(t, "fmt.Println(1)", segs[1].Content)
	assert.Equal(t, DefaultLanguage, segs[3].Language)
	assert.Equal(t, "ls -la", segs[3].Content)
	assert.Equal(t, "\ndone", segs[4].Content)
}

func TestSplit_FencedTextReconstructsInput(t *testing.T) {
	input := "before\n```js\nx()\n```\nafter"
	segs := Split(input)

	var b strings.Builder
	for _, s := range segs {
		if s.IsCode() {
			b.WriteString("```" + s.Language + "\n" + s.Content + "\n```")
			continue
		}
		b.WriteString(s.Content)
	}
	assert.Equal(t, input, b.String())
}

func TestSplit_UnclosedFenceIsCode(t *testing.T) {
	segs := Split("partial answer\n```python\ndef f():\n    return")

	require.Len(t, segs, 2)
	assert.Equal(t, KindText, segs[0].Kind)
	assert.Equal(t, KindCode, segs[1].Kind)
	assert.Equal(t, "python", segs[1].Language)
	assert.Equal(t, "def f():\n    return", segs[1].Content)
}

func TestSplit_InlineFenceWithoutNewline(t *testing.T) {
	segs := Split("use ```ls``` here")

	require.Len(t, segs, 3)
	assert.Equal(t, "ls", segs[1].Content)
	assert.Equal(t, DefaultLanguage, segs[1].Language)
}

func TestSplit_AdjacentFencesDropEmptyText(t *testing.T) {
	segs := Split("```a\n1\n``````b\n2\n```")

	require.Len(t, segs, 2)
	assert.Equal(t, "a", segs[0].Language)
	assert.Equal(t, "b", segs[1].Language)
}

// =============================================================================
// Heuristic path
// =============================================================================

func TestSplit_PlainProse(t *testing.T) {
	segs := Split("hello world")

	require.Len(t, segs, 1)
	assert.Equal(t, Segment{Kind: KindText, Language: DefaultLanguage, Content: "hello world"}, segs[0])
}

func TestSplit_Empty(t *testing.T) {
	assert.Empty(t, Split(""))
}

func TestSplit_MethodCallBecomesCode(t *testing.T) {
	segs := Split("call a.b(1)")

	require.Len(t, segs, 2)
	assert.Equal(t, "call ", segs[0].Content)
	assert.Equal(t, KindCode, segs[1].Kind)
	assert.Equal(t, "a.b(1)", segs[1].Content)
}

func TestSplit_TouchingMatchesMerge(t *testing.T) {
	segs := Split("a.b(1)c.d(2)")

	require.Len(t, segs, 1)
	assert.Equal(t, KindCode, segs[0].Kind)
	assert.Equal(t, "a.b(1)c.d(2)", segs[0].Content)
}

func TestSplit_HeuristicCoversInput(t *testing.T) {
	input := "First import os\nthen call os.getcwd() and print the result."
	segs := Split(input)

	require.True(t, HasCode(segs))
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Content)
	}
	assert.Equal(t, input, b.String())
}

func TestSplit_MultibyteOffsets(t *testing.T) {
	segs := Split("héllo wörld x.y(2) fin")

	require.Len(t, segs, 3)
	assert.Equal(t, "héllo wörld ", segs[0].Content)
	assert.Equal(t, "x.y(2)", segs[1].Content)
	assert.Equal(t, " fin", segs[2].Content)
}

func TestSegmenter_CustomMatcher(t *testing.T) {
	s := New(NewRegexp(regexp.MustCompile(`\$ \S+`)))
	segs := s.Split("type $ make and wait")

	require.Len(t, segs, 3)
	assert.Equal(t, "$ make", segs[1].Content)
}

// =============================================================================
// Merge
// =============================================================================

func TestMerge(t *testing.T) {
	tests := []struct {
		name  string
		spans []Span
		want  []Span
	}{
		{"empty", nil, nil},
		{"disjoint", []Span{{5, 7}, {0, 2}}, []Span{{0, 2}, {5, 7}}},
		{"overlap", []Span{{0, 5}, {3, 9}}, []Span{{0, 9}}},
		{"touching", []Span{{0, 3}, {3, 6}}, []Span{{0, 6}}},
		{"contained", []Span{{0, 10}, {2, 4}}, []Span{{0, 10}}},
		{"chain", []Span{{4, 8}, {0, 5}, {7, 12}, {20, 21}}, []Span{{0, 12}, {20, 21}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Merge(tt.spans))
		})
	}
}

func TestMerge_DoesNotMutateInput(t *testing.T) {
	in := []Span{{5, 6}, {0, 1}}
	Merge(in)
	assert.Equal(t, []Span{{5, 6}, {0, 1}}, in)
}

// =============================================================================
// Fence helpers
// =============================================================================

func TestRestoreFences(t *testing.T) {
	got := RestoreFences("'''python\nx = 1\n'''")
	assert.Equal(t, "```python\nx = 1\n```", got)

	segs := Split(got)
	require.Len(t, segs, 1)
	assert.Equal(t, "x = 1", segs[0].Content)
}

func TestJoin_RoundTrip(t *testing.T) {
	input := "intro\n```go\nx := 1\n```\noutro"
	assert.Equal(t, input, Join(Split(input)))
}

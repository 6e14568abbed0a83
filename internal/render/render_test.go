package render

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buker/devdash/internal/segment"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansi.ReplaceAllString(s, "")
}

func TestNew_DefaultsWidth(t *testing.T) {
	r, err := New(0, StylePlain)
	require.NoError(t, err)
	assert.Equal(t, DefaultWidth, r.Width())

	r, err = New(120, StylePlain)
	require.NoError(t, err)
	assert.Equal(t, 120, r.Width())
}

func TestNew_StandardStyles(t *testing.T) {
	for _, style := range []string{"", StyleAuto, "dark", "light", "notty"} {
		r, err := New(80, style)
		require.NoError(t, err, style)
		assert.NotNil(t, r.md, style)
	}
}

func TestSegments_SkipsWhitespaceText(t *testing.T) {
	r, err := New(80, StylePlain)
	require.NoError(t, err)

	out := r.Segments([]segment.Segment{
		{Kind: segment.KindText, Language: segment.DefaultLanguage, Content: "  \n\t"},
	})

	assert.Empty(t, out)
}

func TestSegments_RendersInOrder(t *testing.T) {
	r, err := New(80, StylePlain)
	require.NoError(t, err)

	out := stripANSI(r.Text("Intro line\n```go\nfmt.Println(\"hi\")\n```\nOutro line"))

	intro := strings.Index(out, "Intro line")
	code := strings.Index(out, "Println")
	outro := strings.Index(out, "Outro line")
	require.NotEqual(t, -1, intro)
	require.NotEqual(t, -1, code)
	require.NotEqual(t, -1, outro)
	assert.Less(t, intro, code)
	assert.Less(t, code, outro)
	assert.Contains(t, out, "go", "language badge")
	assert.Contains(t, out, "╭", "code box border")
}

func TestMarkdown_Glamour(t *testing.T) {
	r, err := New(80, "notty")
	require.NoError(t, err)

	out := stripANSI(r.Markdown("# Title\n\nSome **bold** words"))

	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "bold")
}

func TestCode_NoBadgeForDefaultLanguage(t *testing.T) {
	r, err := New(80, StylePlain)
	require.NoError(t, err)

	out := stripANSI(r.Code(segment.DefaultLanguage, "x = 1"))

	assert.Contains(t, out, "x = 1")
	assert.NotContains(t, out, " text ")
}

func TestHighlight(t *testing.T) {
	code := "package main\n\nfunc main() {}\n"

	out := Highlight(code, "go")

	assert.Contains(t, out, "\x1b[", "expected ANSI colouring")
	assert.Equal(t, strings.TrimRight(code, "\n"), strings.TrimRight(stripANSI(out), "\n"))
}

func TestHighlight_UnknownLanguageKeepsText(t *testing.T) {
	code := "some words that are not code"

	out := Highlight(code, "no-such-language")

	assert.Equal(t, code, strings.TrimRight(stripANSI(out), "\n"))
}

func TestPlain(t *testing.T) {
	segs := segment.Split("before\n```python\nprint(1)\n```\nafter")

	assert.Equal(t, "before\n```python\nprint(1)\n```\nafter", Plain(segs))
}

func TestLanguageForFile(t *testing.T) {
	tests := map[string]string{
		"main.go":     "go",
		"app.py":      "python",
		"notes.xyzzy": segment.DefaultLanguage,
	}
	for name, want := range tests {
		assert.Equal(t, want, LanguageForFile(name), name)
	}
}

func TestFence(t *testing.T) {
	assert.Equal(t, "```go\nx := 1\n```", Fence("go", "x := 1\n"))
	assert.Equal(t, "```\nplain\n```", Fence(segment.DefaultLanguage, "plain"))

	segs := segment.Split(Fence("python", "print(1)"))
	require.Len(t, segs, 1)
	assert.Equal(t, "python", segs[0].Language)
	assert.Equal(t, "print(1)", segs[0].Content)
}

// Package render turns segmented answers into terminal output. Text segments
// go through a glamour markdown renderer, code segments are highlighted with
// chroma and boxed with lipgloss.
package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/buker/devdash/internal/segment"
)

// Markdown styles accepted besides the glamour standard style names.
const (
	StyleAuto  = "auto"
	StylePlain = "plain"
)

const (
	DefaultWidth = 80
	minWidth     = 20
	codeStyle    = "monokai"
	codeFormat   = "terminal256"
)

var (
	colorBorder = lipgloss.Color("#444444")
	colorMuted  = lipgloss.Color("#888888")
	colorBadge  = lipgloss.Color("#333333")

	badgeStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Background(colorBadge).
			Padding(0, 1).
			Bold(true)
)

// Renderer renders segments at a fixed width.
type Renderer struct {
	width int
	md    *glamour.TermRenderer
}

// New creates a Renderer. style is "auto", "plain" or a glamour standard
// style such as "dark" or "light". Plain renders text segments verbatim.
func New(width int, style string) (*Renderer, error) {
	if width < minWidth {
		width = DefaultWidth
	}
	r := &Renderer{width: width}
	if style == StylePlain {
		return r, nil
	}

	styleOpt := glamour.WithAutoStyle()
	if style != "" && style != StyleAuto {
		styleOpt = glamour.WithStandardStyle(style)
	}
	md, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return nil, err
	}
	r.md = md
	return r, nil
}

// Width returns the wrap width.
func (r *Renderer) Width() int {
	return r.width
}

// Text splits text into segments and renders them.
func (r *Renderer) Text(text string) string {
	return r.Segments(segment.Split(text))
}

// Segments renders segs in order. Whitespace-only text segments are skipped.
func (r *Renderer) Segments(segs []segment.Segment) string {
	var parts []string
	for _, s := range segs {
		if s.IsCode() {
			parts = append(parts, r.Code(s.Language, s.Content))
			continue
		}
		if strings.TrimSpace(s.Content) == "" {
			continue
		}
		parts = append(parts, r.Markdown(s.Content))
	}
	return strings.Join(parts, "\n")
}

// Markdown renders a text segment. Rendering failures fall back to the raw text.
func (r *Renderer) Markdown(text string) string {
	if r.md == nil {
		return strings.TrimSpace(text)
	}
	out, err := r.md.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// Code renders a highlighted, boxed code block with a language badge.
func (r *Renderer) Code(language, code string) string {
	body := Highlight(strings.Trim(code, "\n"), language)

	var header string
	if language != "" && language != segment.DefaultLanguage {
		header = badgeStyle.Render(language) + "\n"
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		MaxWidth(r.width).
		Render(header + body)
}

// Highlight applies chroma syntax highlighting. Unknown languages are
// detected from the code; highlighting failures return code unchanged.
func Highlight(code, language string) string {
	var lexer chroma.Lexer
	if language != "" && language != segment.DefaultLanguage {
		lexer = lexers.Get(language)
	}
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get(codeStyle)
	if style == nil {
		style = chromaStyles.Fallback
	}
	formatter := formatters.Get(codeFormat)
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}

// LanguageForFile guesses a fence language from a file name, or returns
// segment.DefaultLanguage.
func LanguageForFile(name string) string {
	lexer := lexers.Match(name)
	if lexer == nil {
		return segment.DefaultLanguage
	}
	aliases := lexer.Config().Aliases
	if len(aliases) > 0 {
		return aliases[0]
	}
	return strings.ToLower(lexer.Config().Name)
}

// Fence wraps code in a fenced block tagged with language.
func Fence(language, code string) string {
	return segment.Join([]segment.Segment{{
		Kind:     segment.KindCode,
		Language: language,
		Content:  strings.TrimRight(code, "\n"),
	}})
}

// Plain renders segments without styling: text as-is and code inside fences.
func Plain(segs []segment.Segment) string {
	return segment.Join(segs)
}

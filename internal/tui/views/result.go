package views

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/buker/devdash/internal/tui/shared"
)

// ResultView is a scrollable pane holding the rendered answer.
type ResultView struct {
	viewport viewport.Model
	ready    bool
	content  string
}

// NewResultView creates an empty result pane.
func NewResultView() *ResultView {
	return &ResultView{}
}

// SetSize resizes the pane. The viewport is created on first call.
func (v *ResultView) SetSize(width, height int) {
	if height < 1 {
		height = 1
	}
	if !v.ready {
		v.viewport = viewport.New(width, height)
		v.viewport.KeyMap = scrollKeys(shared.DefaultKeyMap())
		v.ready = true
		v.viewport.SetContent(v.content)
		return
	}
	v.viewport.Width = width
	v.viewport.Height = height
}

// SetContent replaces the pane content. When follow is set the pane
// scrolls to the bottom, which keeps a streaming answer in view.
func (v *ResultView) SetContent(content string, follow bool) {
	v.content = content
	if !v.ready {
		return
	}
	v.viewport.SetContent(content)
	if follow {
		v.viewport.GotoBottom()
	}
}

// scrollKeys maps the dashboard's scroll bindings onto the viewport.
func scrollKeys(km shared.KeyMap) viewport.KeyMap {
	keys := viewport.DefaultKeyMap()
	keys.Up = km.ScrollUp
	keys.Down = km.ScrollDown
	keys.PageUp = km.PageUp
	keys.PageDown = km.PageDown
	keys.HalfPageUp = km.HalfPageUp
	keys.HalfPageDown = km.HalfPageDown
	return keys
}

// Content returns the current content.
func (v *ResultView) Content() string {
	return v.content
}

// Update forwards scrolling keys to the viewport.
func (v *ResultView) Update(msg tea.Msg) (*ResultView, tea.Cmd) {
	if !v.ready {
		return v, nil
	}
	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// View renders the pane, or the raw content before the first resize.
func (v *ResultView) View() string {
	if !v.ready {
		return v.content
	}
	return v.viewport.View()
}

// ScrollInfo describes the scroll position.
func (v *ResultView) ScrollInfo() string {
	if !v.ready {
		return ""
	}
	return fmt.Sprintf("%.0f%%", v.viewport.ScrollPercent()*100)
}

// GotoTop scrolls to the first line.
func (v *ResultView) GotoTop() {
	if v.ready {
		v.viewport.GotoTop()
	}
}

// GotoBottom scrolls to the last line.
func (v *ResultView) GotoBottom() {
	if v.ready {
		v.viewport.GotoBottom()
	}
}

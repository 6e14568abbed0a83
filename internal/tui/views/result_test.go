package views

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func newScrollableResult(t *testing.T) *ResultView {
	t.Helper()
	v := NewResultView()
	lines := make([]string, 30)
	for i := range lines {
		lines[i] = "line"
	}
	v.SetContent(strings.Join(lines, "\n"), false)
	v.SetSize(20, 5)
	return v
}

func TestResultView_DashboardScrollKeys(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
	}{
		{"ctrl+f pages down", tea.KeyMsg{Type: tea.KeyCtrlF}},
		{"j scrolls down", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")}},
		{"ctrl+d half page down", tea.KeyMsg{Type: tea.KeyCtrlD}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newScrollableResult(t)

			v, _ = v.Update(tt.key)

			if v.viewport.YOffset == 0 {
				t.Errorf("YOffset = 0 after %q, want scrolled", tt.key.String())
			}
		})
	}
}

func TestResultView_ScrollUpWithCtrlB(t *testing.T) {
	v := newScrollableResult(t)
	v.GotoBottom()
	bottom := v.viewport.YOffset

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyCtrlB})

	if v.viewport.YOffset >= bottom {
		t.Errorf("YOffset = %d after ctrl+b, want < %d", v.viewport.YOffset, bottom)
	}
}

func TestResultView_ContentBeforeSize(t *testing.T) {
	v := NewResultView()
	v.SetContent("hello", true)

	if v.View() != "hello" {
		t.Errorf("View() = %q, want %q", v.View(), "hello")
	}
	if v.ScrollInfo() != "" {
		t.Errorf("ScrollInfo() = %q, want empty", v.ScrollInfo())
	}
}

package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/buker/devdash/internal/render"
	"github.com/buker/devdash/internal/tui/views"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	r, err := render.New(80, render.StylePlain)
	if err != nil {
		t.Fatalf("render.New() failed: %v", err)
	}
	return NewModel("ask", r, "Request", "Answer")
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(m *Model, msg tea.Msg) (*Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(*Model), cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

// =============================================================================
// Tests for state transitions
// =============================================================================

func TestModel_StreamingThenResult(t *testing.T) {
	m := newTestModel(t)

	m, _ = update(m, MsgStepStarted{Step: "Request"})
	m, _ = update(m, MsgStreamContent{Text: "Partial"})
	if m.State() != StateStreaming {
		t.Errorf("state = %v, want StateStreaming", m.State())
	}
	if m.Answer() != "Partial" {
		t.Errorf("Answer() = %q, want %q", m.Answer(), "Partial")
	}

	m, _ = update(m, MsgStepDone{Step: "Request"})
	m, _ = update(m, MsgResult{Text: "Full answer", Warning: "careful"})
	if m.State() != StateDone {
		t.Errorf("state = %v, want StateDone", m.State())
	}
	if m.progress.Status("Request") != views.StepDone {
		t.Errorf("Request step = %v, want StepDone", m.progress.Status("Request"))
	}

	view := m.View()
	for _, want := range []string{"devdash · ask", "Full answer", "careful", "[c] copy"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestModel_ErrorState(t *testing.T) {
	m := newTestModel(t)

	m, cmd := update(m, MsgError{Error: "Failed to connect to backend"})

	if m.State() != StateError {
		t.Errorf("state = %v, want StateError", m.State())
	}
	if isQuit(cmd) {
		t.Error("error should keep the TUI open")
	}
	if !strings.Contains(m.View(), "Error: Failed to connect to backend") {
		t.Error("View() should show the error")
	}
}

func TestModel_CountdownAndNotice(t *testing.T) {
	m := newTestModel(t)

	m, _ = update(m, MsgCountdown{Remaining: 3})
	m, _ = update(m, MsgNotice{Text: "Taking longer than expected."})

	view := m.View()
	if !strings.Contains(view, "Capturing in 3...") {
		t.Error("View() should show the countdown")
	}
	if !strings.Contains(view, "Taking longer than expected.") {
		t.Error("View() should show the notice")
	}

	m, _ = update(m, MsgCountdown{Remaining: 0})
	if strings.Contains(m.View(), "Capturing in") {
		t.Error("countdown should disappear at zero")
	}
}

// =============================================================================
// Tests for keys
// =============================================================================

func TestModel_QuitCancelsRunningAction(t *testing.T) {
	m := newTestModel(t)
	cancelled := false
	m.onReset = func() { cancelled = true }

	_, cmd := update(m, runeKey("q"))

	if !isQuit(cmd) {
		t.Error("q should quit")
	}
	if !cancelled {
		t.Error("q should cancel the running action")
	}
}

func TestModel_CopyKey(t *testing.T) {
	m := newTestModel(t)
	var copied string
	m.copyFn = func(s string) error {
		copied = s
		return nil
	}

	m, _ = update(m, runeKey("c"))
	if m.notice != "Nothing to copy yet." {
		t.Errorf("notice = %q, want nothing-to-copy", m.notice)
	}

	m, _ = update(m, MsgResult{Text: "answer text"})
	m, _ = update(m, runeKey("c"))
	if copied != "answer text" {
		t.Errorf("copied = %q, want %q", copied, "answer text")
	}
	if m.notice != "Copied to clipboard." {
		t.Errorf("notice = %q, want copied notice", m.notice)
	}
}

func TestModel_CopyFailure(t *testing.T) {
	m := newTestModel(t)
	m.copyFn = func(string) error { return errors.New("no clipboard") }

	m, _ = update(m, MsgResult{Text: "x"})
	m, _ = update(m, runeKey("c"))

	if m.notice != "Copy failed: no clipboard" {
		t.Errorf("notice = %q, want copy failure", m.notice)
	}
}

func TestModel_ResetClearsAndIgnoresLateMessages(t *testing.T) {
	m := newTestModel(t)
	resets := 0
	m.onReset = func() { resets++ }

	m, _ = update(m, MsgStepStarted{Step: "Request"})
	m, _ = update(m, MsgStreamContent{Text: "partial"})
	m, _ = update(m, runeKey("r"))

	if resets != 1 {
		t.Errorf("onReset called %d times, want 1", resets)
	}
	if m.State() != StateIdle {
		t.Errorf("state = %v, want StateIdle", m.State())
	}
	if m.Answer() != "" {
		t.Errorf("Answer() = %q, want empty after reset", m.Answer())
	}
	if m.progress.Status("Request") != views.StepPending {
		t.Error("steps should be pending after reset")
	}

	m, _ = update(m, MsgResult{Text: "late"})
	m, _ = update(m, MsgError{Error: "late"})
	if m.State() != StateIdle || m.Answer() != "" {
		t.Errorf("late messages changed idle model: state %v answer %q", m.State(), m.Answer())
	}
}

func TestModel_EnterRerunsOnlyWhenFinished(t *testing.T) {
	m := newTestModel(t)
	reruns := 0
	m.onRerun = func() { reruns++ }

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if reruns != 0 {
		t.Error("enter should not rerun while running")
	}

	m, _ = update(m, MsgResult{Text: "done"})
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if reruns != 1 {
		t.Errorf("onRerun called %d times, want 1", reruns)
	}
	if m.State() != StateRunning {
		t.Errorf("state = %v, want StateRunning", m.State())
	}
	if m.Answer() != "" {
		t.Error("answer should be cleared on rerun")
	}
}

func TestModel_MsgQuit(t *testing.T) {
	m := newTestModel(t)

	_, cmd := update(m, MsgQuit{})

	if !isQuit(cmd) {
		t.Error("MsgQuit should quit")
	}
}

func TestModel_WindowSize(t *testing.T) {
	m := newTestModel(t)

	m, _ = update(m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m, _ = update(m, MsgResult{Text: "sized"})

	if m.width != 100 || m.height != 40 {
		t.Errorf("size = %dx%d, want 100x40", m.width, m.height)
	}
	if !strings.Contains(m.View(), "sized") {
		t.Error("View() should show the answer inside the viewport")
	}
}

// =============================================================================
// Tests for Reporter
// =============================================================================

func TestReporter_DropsMessagesAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var got []tea.Msg
	r := NewReporter(ctx, func(msg tea.Msg) { got = append(got, msg) })

	r.StepStarted("Request", "")
	r.Stream("a")
	cancel()
	r.Result("b", "")
	r.Error("c")

	if len(got) != 2 {
		t.Fatalf("got %d messages, want 2: %#v", len(got), got)
	}
	if _, ok := got[1].(MsgStreamContent); !ok {
		t.Errorf("second message = %T, want MsgStreamContent", got[1])
	}
}

func TestState_String(t *testing.T) {
	if StateStreaming.String() != "streaming" || StateIdle.String() != "idle" {
		t.Error("unexpected State strings")
	}
}

func TestModel_StepDetailShownInTable(t *testing.T) {
	m := newTestModel(t)
	m, _ = update(m, tea.WindowSizeMsg{Width: 100, Height: 30})

	m, _ = update(m, MsgStepStarted{Step: "Request"})
	m, _ = update(m, MsgStepDetail{Step: "Request", Detail: "frame 2/3"})

	if !strings.Contains(m.View(), "frame 2/3") {
		t.Errorf("View() missing step detail:\n%s", m.View())
	}
}

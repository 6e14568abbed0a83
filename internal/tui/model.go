// Package tui provides the terminal user interface using Bubble Tea.
// It shows the steps of a running action, streams the answer into a
// scrollable pane and lets the user copy, reset or rerun the action.
package tui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/buker/devdash/internal/render"
	"github.com/buker/devdash/internal/tui/shared"
	"github.com/buker/devdash/internal/tui/views"
)

// State represents the current phase of the action.
type State int

const (
	StateRunning   State = iota // Action in flight, no answer yet
	StateStreaming              // Partial answer is arriving
	StateDone                   // Final answer shown
	StateError                  // The action failed
	StateIdle                   // Reset by the user
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStreaming:
		return "streaming"
	case StateDone:
		return "done"
	case StateError:
		return "error"
	case StateIdle:
		return "idle"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const (
	headerHeight = 3
	footerHeight = 3
)

// Model is the main Bubble Tea model.
type Model struct {
	title     string
	state     State
	keys      shared.KeyMap
	renderer  *render.Renderer
	progress  *views.ProgressView
	result    *views.ResultView
	countdown int
	notice    string
	warning   string
	errMsg    string
	width     int
	height    int

	copyFn  func(string) error
	onReset func()
	onRerun func()

	mu     sync.RWMutex // Protects answer, read from other goroutines
	answer string
}

// NewModel creates a Model titled title tracking the named steps.
func NewModel(title string, renderer *render.Renderer, steps ...string) *Model {
	return &Model{
		title:    title,
		state:    StateRunning,
		keys:     shared.DefaultKeyMap(),
		renderer: renderer,
		progress: views.NewProgressView(steps...),
		result:   views.NewResultView(),
		copyFn:   clipboard.WriteAll,
	}
}

// Init starts the spinner
func (m *Model) Init() tea.Cmd {
	return m.progress.Init()
}

// Update handles messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.SetSize(msg.Width)
		m.resizeResult()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case MsgStepStarted:
		m.progress.Start(msg.Step, msg.Detail)
		return m, nil

	case MsgStepDetail:
		m.progress.SetDetail(msg.Step, msg.Detail)
		return m, nil

	case MsgStepDone:
		m.progress.Complete(msg.Step, msg.Detail)
		return m, nil

	case MsgStepFailed:
		m.progress.Fail(msg.Step, msg.Detail)
		return m, nil

	case MsgCountdown:
		m.countdown = msg.Remaining
		return m, nil

	case MsgNotice:
		m.notice = msg.Text
		return m, nil

	case MsgStreamContent:
		if m.state == StateIdle {
			return m, nil
		}
		m.state = StateStreaming
		m.setAnswer(msg.Text, true)
		return m, nil

	case MsgResult:
		if m.state == StateIdle {
			return m, nil
		}
		m.state = StateDone
		m.countdown = 0
		m.notice = ""
		m.warning = msg.Warning
		m.setAnswer(msg.Text, false)
		return m, nil

	case MsgError:
		if m.state == StateIdle {
			return m, nil
		}
		m.state = StateError
		m.countdown = 0
		m.notice = ""
		m.errMsg = msg.Error
		return m, nil

	case MsgQuit:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.progress, cmd = m.progress.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.onReset != nil && (m.state == StateRunning || m.state == StateStreaming) {
			m.onReset()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Copy):
		m.copyAnswer()
		return m, nil

	case key.Matches(msg, m.keys.Reset):
		m.reset()
		return m, nil

	case key.Matches(msg, m.keys.Home):
		m.result.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.End):
		m.result.GotoBottom()
		return m, nil

	case key.Matches(msg, m.keys.Rerun):
		if m.state == StateDone || m.state == StateError || m.state == StateIdle {
			m.rerun()
			return m, m.progress.Init()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.result, cmd = m.result.Update(msg)
	return m, cmd
}

func (m *Model) copyAnswer() {
	answer := m.Answer()
	if answer == "" {
		m.notice = "Nothing to copy yet."
		return
	}
	if err := m.copyFn(answer); err != nil {
		m.notice = "Copy failed: " + err.Error()
		return
	}
	m.notice = "Copied to clipboard."
}

// reset cancels the in-flight action and clears the screen.
func (m *Model) reset() {
	if m.onReset != nil {
		m.onReset()
	}
	m.clear()
	m.state = StateIdle
	m.notice = "Reset. Press Enter to run again."
}

func (m *Model) rerun() {
	m.clear()
	m.state = StateRunning
	if m.onRerun != nil {
		m.onRerun()
	}
}

func (m *Model) clear() {
	m.progress.Reset()
	m.countdown = 0
	m.notice = ""
	m.warning = ""
	m.errMsg = ""
	m.setAnswer("", false)
}

func (m *Model) setAnswer(text string, follow bool) {
	m.mu.Lock()
	m.answer = text
	m.mu.Unlock()

	rendered := ""
	if text != "" {
		rendered = m.renderer.Text(text)
	}
	m.result.SetContent(rendered, follow)
}

func (m *Model) resizeResult() {
	if m.width == 0 {
		return
	}
	h := m.height - headerHeight - footerHeight - m.progress.Height() - 2
	m.result.SetSize(m.width, h)
}

// View renders the model
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(shared.TitleStyle.Render("devdash · " + m.title))
	b.WriteString("\n")
	b.WriteString(shared.RenderDivider(m.dividerWidth()))
	b.WriteString("\n\n")

	b.WriteString(m.progress.View())
	b.WriteString("\n")

	if m.countdown > 0 {
		b.WriteString(shared.CountdownStyle.Render(fmt.Sprintf("Capturing in %d...", m.countdown)))
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString(shared.NoticeStyle.Render(m.notice))
		b.WriteString("\n")
	}
	if m.warning != "" {
		b.WriteString(shared.WarningStyle.Render("⚠ " + m.warning))
		b.WriteString("\n")
	}
	if m.state == StateError {
		b.WriteString(shared.ErrorStyle.Render("Error: " + m.errMsg))
		b.WriteString("\n")
	}

	if content := m.result.View(); content != "" {
		b.WriteString("\n")
		b.WriteString(content)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(shared.HelpKeyStyle.Render(m.help()))
	if info := m.result.ScrollInfo(); info != "" && m.Answer() != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(shared.ColorDimmed).Render("  " + info))
	}
	return b.String()
}

func (m *Model) help() string {
	switch m.state {
	case StateDone:
		return shared.ResultHelp()
	case StateError, StateIdle:
		return shared.IdleHelp()
	default:
		return shared.ProgressHelp()
	}
}

func (m *Model) dividerWidth() int {
	if m.width > 0 && m.width < 60 {
		return m.width
	}
	return 60
}

// State returns the current state.
func (m *Model) State() State {
	return m.state
}

// Answer returns the latest answer text.
func (m *Model) Answer() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.answer
}

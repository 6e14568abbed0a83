// Package views provides individual view components for the TUI.
package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/buker/devdash/internal/tui/shared"
)

// StepStatus is the state of one step of an action.
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepDone
	StepFailed
)

// Step tracks the status and timing of a single step
type Step struct {
	Name      string
	Status    StepStatus
	Detail    string
	StartTime time.Time
	EndTime   time.Time
}

// Duration returns the elapsed duration for this step
func (s *Step) Duration() time.Duration {
	switch s.Status {
	case StepPending:
		return 0
	case StepRunning:
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

const tableWidth = 60

// ProgressView displays the step table of a running action
type ProgressView struct {
	width   int
	spinner spinner.Model
	names   []string
	steps   map[string]*Step
}

// NewProgressView creates a progress view over the named steps.
func NewProgressView(names ...string) *ProgressView {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(shared.ColorAmber)

	v := &ProgressView{spinner: s}
	v.Reset(names...)
	return v
}

// Reset replaces the tracked steps, all pending. With no names the current
// step names are kept.
func (v *ProgressView) Reset(names ...string) {
	if len(names) > 0 {
		v.names = names
	}
	v.steps = make(map[string]*Step, len(v.names))
	for _, name := range v.names {
		v.steps[name] = &Step{Name: name}
	}
}

// Start marks a step as running.
func (v *ProgressView) Start(name, detail string) {
	if s := v.step(name); s != nil {
		s.Status = StepRunning
		s.Detail = detail
		s.StartTime = time.Now()
	}
}

// SetDetail updates the detail column of a step.
func (v *ProgressView) SetDetail(name, detail string) {
	if s := v.step(name); s != nil {
		s.Detail = detail
	}
}

// Complete marks a step as done.
func (v *ProgressView) Complete(name, detail string) {
	v.finish(name, StepDone, detail)
}

// Fail marks a step as failed.
func (v *ProgressView) Fail(name, detail string) {
	v.finish(name, StepFailed, detail)
}

func (v *ProgressView) finish(name string, status StepStatus, detail string) {
	s := v.step(name)
	if s == nil {
		return
	}
	if s.Status == StepPending {
		s.StartTime = time.Now()
	}
	s.Status = status
	if detail != "" {
		s.Detail = detail
	}
	s.EndTime = time.Now()
}

// Status returns a step's status.
func (v *ProgressView) Status(name string) StepStatus {
	if s := v.step(name); s != nil {
		return s.Status
	}
	return StepPending
}

// Running reports whether any step is still running.
func (v *ProgressView) Running() bool {
	for _, s := range v.steps {
		if s.Status == StepRunning {
			return true
		}
	}
	return false
}

func (v *ProgressView) step(name string) *Step {
	return v.steps[name]
}

// SetSize updates the view width
func (v *ProgressView) SetSize(width int) {
	v.width = width
}

// Height returns the number of lines View renders.
func (v *ProgressView) Height() int {
	return len(v.names) + 3
}

// Init starts the spinner
func (v *ProgressView) Init() tea.Cmd {
	return v.spinner.Tick
}

// Update handles spinner ticks
func (v *ProgressView) Update(msg tea.Msg) (*ProgressView, tea.Cmd) {
	var cmd tea.Cmd
	v.spinner, cmd = v.spinner.Update(msg)
	return v, cmd
}

// View renders the step table
func (v *ProgressView) View() string {
	width := tableWidth
	if v.width > 0 && v.width < width {
		width = v.width
	}

	var b strings.Builder
	header := fmt.Sprintf(" %-10s │ %-11s │ %-8s │ %s", "STEP", "STATUS", "DURATION", "DETAIL")
	b.WriteString(shared.TableHeaderStyle.Render(header))
	b.WriteString("\n")
	b.WriteString(shared.RenderDivider(width))
	b.WriteString("\n")

	for _, name := range v.names {
		s := v.steps[name]

		var statusStr string
		var statusStyle lipgloss.Style
		switch s.Status {
		case StepRunning:
			statusStr = v.spinner.View() + " Running"
			statusStyle = shared.StatusRunningStyle
		case StepDone:
			statusStr = shared.StatusIndicatorDone + " Done"
			statusStyle = shared.StatusDoneStyle
		case StepFailed:
			statusStr = shared.StatusIndicatorFailed + " Failed"
			statusStyle = shared.StatusFailedStyle
		default:
			statusStr = shared.StatusIndicatorPending + " Pending"
			statusStyle = shared.StatusPendingStyle
		}

		durationStr := "-"
		if s.Status != StepPending {
			durationStr = fmt.Sprintf("%.1fs", s.Duration().Seconds())
		}

		row := fmt.Sprintf(" %-10s │ %s │ %-8s │ %s",
			truncate(s.Name, 10),
			statusStyle.Render(padRight(statusStr, 11)),
			durationStr,
			truncate(s.Detail, 30),
		)
		b.WriteString(row)
		b.WriteString("\n")
	}

	b.WriteString(shared.RenderDivider(width))
	return b.String()
}

// truncate truncates a string to max runes
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

// padRight pads a string to the given visible width
func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

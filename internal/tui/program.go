package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/buker/devdash/internal/render"
)

// Job is one run of an action. It reports progress through r and returns an
// error whose text is shown to the user.
type Job func(ctx context.Context, r *Reporter) error

// Program wraps a Bubble Tea program to provide a higher-level API for external control.
// The job runs on its own goroutine and can be cancelled and restarted from the TUI.
type Program struct {
	program *tea.Program // Underlying Bubble Tea program
	model   *Model       // Shared model for state access

	mu     sync.Mutex
	parent context.Context
	job    Job
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewProgram creates a Program titled title tracking the named steps.
func NewProgram(title string, renderer *render.Renderer, steps ...string) *Program {
	model := NewModel(title, renderer, steps...)
	p := &Program{
		program: tea.NewProgram(model, tea.WithAltScreen()),
		model:   model,
	}
	model.onReset = p.reset
	model.onRerun = p.launch
	return p
}

// Send dispatches a message to the TUI for processing.
// This is thread-safe and can be called from any goroutine.
func (p *Program) Send(msg tea.Msg) {
	p.program.Send(msg)
}

// Run starts job and blocks until the user quits the TUI. Any job still
// running is cancelled and waited for before Run returns.
func (p *Program) Run(ctx context.Context, job Job) error {
	p.mu.Lock()
	p.parent = ctx
	p.job = job
	p.mu.Unlock()

	p.launch()
	_, err := p.program.Run()

	p.reset()
	p.wg.Wait()
	return err
}

// Answer returns the last answer shown.
func (p *Program) Answer() string {
	return p.model.Answer()
}

// launch cancels any running job and starts a new one.
func (p *Program) launch() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.job == nil {
		return
	}
	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithCancel(p.parent)
	p.cancel = cancel

	r := &Reporter{ctx: ctx, send: p.Send}
	job := p.job
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := job(ctx, r); err != nil {
			r.Error(err.Error())
		}
	}()
}

// reset cancels the running job, if any.
func (p *Program) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// Reporter sends progress for one job run. Once the run is cancelled its
// messages are dropped so a reset screen stays clean.
type Reporter struct {
	ctx  context.Context
	send func(tea.Msg)
}

// NewReporter creates a Reporter delivering to send while ctx is live.
func NewReporter(ctx context.Context, send func(tea.Msg)) *Reporter {
	return &Reporter{ctx: ctx, send: send}
}

func (r *Reporter) emit(msg tea.Msg) {
	if r.ctx.Err() != nil {
		return
	}
	r.send(msg)
}

// StepStarted marks a step as running
func (r *Reporter) StepStarted(step, detail string) {
	r.emit(MsgStepStarted{Step: step, Detail: detail})
}

// StepDetail updates a step's detail column
func (r *Reporter) StepDetail(step, detail string) {
	r.emit(MsgStepDetail{Step: step, Detail: detail})
}

// StepDone marks a step as complete
func (r *Reporter) StepDone(step, detail string) {
	r.emit(MsgStepDone{Step: step, Detail: detail})
}

// StepFailed marks a step as failed
func (r *Reporter) StepFailed(step, detail string) {
	r.emit(MsgStepFailed{Step: step, Detail: detail})
}

// Countdown shows the remaining countdown ticks
func (r *Reporter) Countdown(remaining int) {
	r.emit(MsgCountdown{Remaining: remaining})
}

// Notice shows an informational line
func (r *Reporter) Notice(text string) {
	r.emit(MsgNotice{Text: text})
}

// Stream shows the answer received so far
func (r *Reporter) Stream(text string) {
	r.emit(MsgStreamContent{Text: text})
}

// Result shows the final answer
func (r *Reporter) Result(text, warning string) {
	r.emit(MsgResult{Text: text, Warning: warning})
}

// Error shows a failure
func (r *Reporter) Error(msg string) {
	r.emit(MsgError{Error: msg})
}

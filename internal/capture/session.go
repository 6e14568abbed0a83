package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/buker/devdash/internal/backend"
)

// debugEnabled checks if DEBUG environment variable is set
var debugEnabled = os.Getenv("DEBUG") != ""

// debugLog prints a debug message if DEBUG is set
func debugLog(format string, args ...interface{}) {
	if debugEnabled {
		fmt.Fprintf(os.Stderr, "[CAPTURE DEBUG] "+format+"\n", args...)
	}
}

// Submitter sends captured frames for analysis. *backend.Client satisfies it.
type Submitter interface {
	ScreenAssist(ctx context.Context, req backend.ScreenRequest) (*backend.ScreenResult, error)
}

// Options tune the capture flow.
type Options struct {
	CountdownSteps int           // countdown ticks before the first frame
	Tick           time.Duration // length of one countdown tick
	Frames         int           // frames captured in burst mode
	Interval       time.Duration // spacing between frames
	SubmitTimeout  time.Duration // bound on the screen-assist request
	SlowAfter      time.Duration // when to report a slow submission
	MaxWidth       int           // frames wider than this are scaled down; 0 keeps size
	Single         bool          // capture one frame and send it as image_base64
}

// DefaultOptions returns a five second countdown followed by three frames one
// second apart, submitted with a 20 second timeout.
func DefaultOptions() Options {
	return Options{
		CountdownSteps: 5,
		Tick:           time.Second,
		Frames:         3,
		Interval:       time.Second,
		SubmitTimeout:  20 * time.Second,
		SlowAfter:      15 * time.Second,
		MaxWidth:       1920,
	}
}

func (o Options) frameCount() int {
	if o.Single || o.Frames < 1 {
		return 1
	}
	return o.Frames
}

// Phase is the step a Session is in.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseStarting
	PhaseCountdown
	PhaseCapturing
	PhaseAnalyzing
	PhaseDone
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseStarting:
		return "starting"
	case PhaseCountdown:
		return "countdown"
	case PhaseCapturing:
		return "capturing"
	case PhaseAnalyzing:
		return "analyzing"
	case PhaseDone:
		return "done"
	case PhaseError:
		return "error"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Observer receives progress callbacks. Nil fields are skipped. Callbacks run
// on the goroutine calling Run, except OnSlow which runs on a timer goroutine.
type Observer struct {
	OnPhase     func(Phase)
	OnCountdown func(remaining int)
	OnFrame     func(captured, total int)
	OnSlow      func(message string)
}

// Session runs screen-assist captures. It exclusively owns the active frame
// source and releases it on completion, error, Reset and Close.
type Session struct {
	capture   ScreenCapture
	submitter Submitter
	opts      Options
	observer  Observer
	id        string

	mu      sync.Mutex
	source  FrameSource
	cancel  context.CancelFunc
	running bool
	phase   Phase
}

// NewSession creates a Session with a fresh session ID.
func NewSession(c ScreenCapture, s Submitter, opts Options, observer Observer) *Session {
	return &Session{
		capture:   c,
		submitter: s,
		opts:      opts,
		observer:  observer,
		id:        uuid.NewString(),
	}
}

// ID returns the session identifier sent with every submission.
func (s *Session) ID() string {
	return s.id
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// ActiveTracks reports live tracks of the owned source.
func (s *Session) ActiveTracks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == nil {
		return 0
	}
	return s.source.ActiveTracks()
}

// Run performs one capture for query and returns the backend's analysis.
func (s *Session) Run(ctx context.Context, query string) (*backend.ScreenResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := s.begin(cancel); err != nil {
		return nil, err
	}
	defer s.end()

	res, err := s.run(ctx, query)
	if err != nil {
		debugLog("run failed: %v", err)
		s.setPhase(PhaseError)
		return nil, err
	}
	s.setPhase(PhaseDone)
	return res, nil
}

func (s *Session) run(ctx context.Context, query string) (*backend.ScreenResult, error) {
	s.setPhase(PhaseStarting)
	src, err := s.capture.Start(ctx)
	if err != nil {
		return nil, classifyDevice(err)
	}
	s.mu.Lock()
	s.source = src
	s.mu.Unlock()

	if err := s.countdown(ctx); err != nil {
		return nil, err
	}

	frames, err := s.captureFrames(ctx, src)
	s.release()
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}

	s.setPhase(PhaseAnalyzing)
	return s.submit(ctx, query, frames)
}

func (s *Session) countdown(ctx context.Context) error {
	s.setPhase(PhaseCountdown)
	for remaining := s.opts.CountdownSteps; remaining > 0; remaining-- {
		s.notifyCountdown(remaining)
		if err := sleepWithContext(ctx, s.opts.Tick); err != nil {
			return err
		}
	}
	s.notifyCountdown(0)
	return nil
}

// captureFrames makes frameCount attempts. A not-ready frame waits half an
// interval and uses up its attempt.
func (s *Session) captureFrames(ctx context.Context, src FrameSource) ([]string, error) {
	s.setPhase(PhaseCapturing)
	total := s.opts.frameCount()
	frames := make([]string, 0, total)

	for i := 0; i < total; i++ {
		img, err := src.NextFrame(ctx)
		if err == nil && (img == nil || img.Bounds().Empty()) {
			err = ErrFrameNotReady
		}
		if errors.Is(err, ErrFrameNotReady) {
			debugLog("frame %d/%d not ready", i+1, total)
			if err := sleepWithContext(ctx, s.opts.Interval/2); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			// A reset stops the source under a running capture.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("capturing frame: %w", err)
		}

		encoded, err := EncodeFrame(img, s.opts.MaxWidth)
		if err != nil {
			return nil, err
		}
		frames = append(frames, encoded)
		debugLog("captured frame %d/%d (%d bytes)", i+1, total, len(encoded))
		if s.observer.OnFrame != nil {
			s.observer.OnFrame(len(frames), total)
		}

		if i < total-1 {
			if err := sleepWithContext(ctx, s.opts.Interval); err != nil {
				return nil, err
			}
		}
	}
	return frames, nil
}

func (s *Session) submit(ctx context.Context, query string, frames []string) (*backend.ScreenResult, error) {
	req := backend.ScreenRequest{
		Query:     query,
		SessionID: s.id,
		IsFinal:   true,
	}
	if s.opts.Single {
		req.ImageBase64 = frames[0]
	} else {
		req.ImageBase64List = frames
	}

	subCtx := ctx
	if s.opts.SubmitTimeout > 0 {
		var cancel context.CancelFunc
		subCtx, cancel = context.WithTimeout(ctx, s.opts.SubmitTimeout)
		defer cancel()
	}
	if s.opts.SlowAfter > 0 && s.observer.OnSlow != nil {
		timer := time.AfterFunc(s.opts.SlowAfter, func() {
			s.observer.OnSlow(MsgSlow)
		})
		defer timer.Stop()
	}

	debugLog("submitting %d frame(s) for session %s", len(frames), s.id)
	res, err := s.submitter.ScreenAssist(subCtx, req)
	if err != nil {
		return nil, &SubmitError{Err: err}
	}
	return res, nil
}

// Reset cancels an in-flight run and releases the capture source.
func (s *Session) Reset() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.release()
	s.setPhase(PhaseIdle)
}

// Close tears the session down. The source is always released.
func (s *Session) Close() error {
	s.Reset()
	return nil
}

func (s *Session) begin(cancel context.CancelFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrBusy
	}
	s.running = true
	s.cancel = cancel
	return nil
}

func (s *Session) end() {
	s.release()
	s.mu.Lock()
	s.running = false
	s.cancel = nil
	s.mu.Unlock()
}

// release stops the owned source, if any.
func (s *Session) release() {
	s.mu.Lock()
	src := s.source
	s.source = nil
	s.mu.Unlock()
	if src == nil {
		return
	}
	if err := src.Stop(); err != nil {
		debugLog("stopping source: %v", err)
	}
}

func (s *Session) setPhase(p Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
	if s.observer.OnPhase != nil {
		s.observer.OnPhase(p)
	}
}

func (s *Session) notifyCountdown(remaining int) {
	if s.observer.OnCountdown != nil {
		s.observer.OnCountdown(remaining)
	}
}

// sleepWithContext sleeps for the specified duration, respecting context cancellation
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

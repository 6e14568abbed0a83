package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/buker/devdash/internal/backend"
	"github.com/buker/devdash/internal/capture"
	"github.com/buker/devdash/internal/config"
	"github.com/buker/devdash/internal/tui"
)

const (
	stepStart     = "Start"
	stepCountdown = "Countdown"
	stepCapture   = "Capture"
	stepAnalyze   = "Analyze"
)

var screenSteps = []string{stepStart, stepCountdown, stepCapture, stepAnalyze}

var phaseSteps = map[capture.Phase]string{
	capture.PhaseStarting:  stepStart,
	capture.PhaseCountdown: stepCountdown,
	capture.PhaseCapturing: stepCapture,
	capture.PhaseAnalyzing: stepAnalyze,
}

var errNoSource = errors.New("no capture source: pass --dir or --files, or set screen.dir")

var screenCmd = &cobra.Command{
	Use:   "screen <what is going wrong>",
	Short: "Capture the screen and ask for help",
	Long: `Capture a short burst of screenshots and ask what is going wrong.

After a countdown, frames are taken from the newest image in a screenshot
directory (--dir, kept up to date by your screenshot tool) or replayed from
image files (--files). The frames are sent together with your description.`,
	Example: `  devdash screen "why is this build failing?" --dir ~/Screenshots
  devdash screen "what does this error mean" --files error.png --single`,
	Args: cobra.ArbitraryArgs,
	RunE: runScreen,
}

func init() {
	screenCmd.Flags().Int("countdown", 5, "Seconds before the first frame")
	screenCmd.Flags().Int("frames", 3, "Frames to capture")
	screenCmd.Flags().String("dir", "", "Screenshot directory to capture from")
	screenCmd.Flags().StringSlice("files", nil, "Image files to replay as frames")
	screenCmd.Flags().Bool("single", false, "Capture a single frame")
	screenCmd.Flags().Bool("copy", false, "Copy the analysis to the clipboard")
	config.BindScreenFlags(screenCmd)
}

// captureSource picks the frame source from flags and configuration.
func captureSource(cmd *cobra.Command, cfg *config.Config) (capture.ScreenCapture, error) {
	if files, _ := cmd.Flags().GetStringSlice("files"); len(files) > 0 {
		return capture.NewFileCapture(files...), nil
	}
	if cfg.Screen.Dir != "" {
		return capture.NewDirectoryCapture(cfg.Screen.Dir), nil
	}
	return nil, errNoSource
}

func runScreen(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return capture.ErrEmptyQuery
	}
	source, err := captureSource(cmd, cfg)
	if err != nil {
		return err
	}
	opts := cfg.ScreenOptions()
	opts.Single, _ = cmd.Flags().GetBool("single")

	tracker := &screenTracker{}
	session := capture.NewSession(source, newClient(cfg), opts, tracker.observer())
	defer func() { _ = session.Close() }()

	out := cmd.OutOrStdout()
	ctx, stop := signalContext(cmd)
	defer stop()

	var answer string
	if useTUI(cmd) {
		answer, err = runTUI(ctx, "screen", newRenderer(cfg), screenSteps, screenJob(session, tracker, query))
		if err != nil {
			return err
		}
	} else {
		tracker.attach(&plainProgress{out: out})
		res, err := session.Run(ctx, query)
		if err != nil {
			return errors.New(capture.UserMessage(err))
		}
		answer = formatScreen(res)
		fmt.Fprintln(out, newRenderer(cfg).Text(answer))
	}

	copyIfRequested(cmd, out, answer)
	return nil
}

func screenJob(session *capture.Session, tracker *screenTracker, query string) tui.Job {
	// A rerun waits for a cancelled run to release the source.
	var runMu sync.Mutex
	return func(ctx context.Context, r *tui.Reporter) error {
		runMu.Lock()
		defer runMu.Unlock()

		tracker.attach(r)
		res, err := session.Run(ctx, query)
		if err != nil {
			return errors.New(capture.UserMessage(err))
		}
		r.Result(formatScreen(res), "")
		return nil
	}
}

// formatScreen prefers the short explanation over the full analysis.
func formatScreen(res *backend.ScreenResult) string {
	if simple := strings.TrimSpace(res.Simple); simple != "" {
		return simple
	}
	if analysis := strings.TrimSpace(res.Analysis); analysis != "" {
		return analysis
	}
	return backend.NoAnalysis
}

// progressSink receives screen capture progress. *tui.Reporter satisfies it.
type progressSink interface {
	StepStarted(step, detail string)
	StepDetail(step, detail string)
	StepDone(step, detail string)
	StepFailed(step, detail string)
	Countdown(remaining int)
	Notice(text string)
}

// screenTracker maps session phases onto dashboard steps.
type screenTracker struct {
	mu      sync.Mutex
	sink    progressSink
	current string
}

func (t *screenTracker) attach(sink progressSink) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sink = sink
	t.current = ""
}

func (t *screenTracker) observer() capture.Observer {
	return capture.Observer{
		OnPhase: t.phase,
		OnCountdown: func(remaining int) {
			t.emit(func(s progressSink) { s.Countdown(remaining) })
		},
		OnFrame: func(captured, total int) {
			t.emit(func(s progressSink) {
				s.StepDetail(stepCapture, fmt.Sprintf("frame %d/%d", captured, total))
			})
		},
		OnSlow: func(message string) {
			t.emit(func(s progressSink) { s.Notice(message) })
		},
	}
}

func (t *screenTracker) emit(fn func(progressSink)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sink != nil {
		fn(t.sink)
	}
}

func (t *screenTracker) phase(p capture.Phase) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sink == nil {
		return
	}

	switch p {
	case capture.PhaseDone:
		if t.current != "" {
			t.sink.StepDone(t.current, "")
		}
		t.current = ""
	case capture.PhaseError:
		if t.current != "" {
			t.sink.StepFailed(t.current, "")
		}
		t.current = ""
	case capture.PhaseIdle:
		t.current = ""
	default:
		step, ok := phaseSteps[p]
		if !ok {
			return
		}
		if t.current != "" {
			t.sink.StepDone(t.current, "")
		}
		t.current = step
		t.sink.StepStarted(step, "")
	}
}

// plainProgress prints screen progress as lines of text.
type plainProgress struct {
	out io.Writer
}

func (p *plainProgress) StepStarted(step, detail string) {
	switch step {
	case stepCapture:
		fmt.Fprintln(p.out, "Capturing...")
	case stepAnalyze:
		fmt.Fprintln(p.out, "Analyzing...")
	}
}

func (p *plainProgress) StepDetail(step, detail string) {
	fmt.Fprintf(p.out, "  %s\n", detail)
}

func (p *plainProgress) StepDone(step, detail string) {}

func (p *plainProgress) StepFailed(step, detail string) {}

func (p *plainProgress) Countdown(remaining int) {
	if remaining > 0 {
		fmt.Fprintf(p.out, "Capturing in %d...\n", remaining)
	}
}

func (p *plainProgress) Notice(text string) {
	fmt.Fprintln(p.out, text)
}

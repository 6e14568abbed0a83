package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/buker/devdash/internal/backend"
	"github.com/buker/devdash/internal/fix"
	"github.com/buker/devdash/internal/git"
	"github.com/buker/devdash/internal/render"
	"github.com/buker/devdash/internal/segment"
	"github.com/buker/devdash/internal/tui"
)

const stepRefactor = "Refactor"

var refactorCmd = &cobra.Command{
	Use:   "refactor [file]",
	Short: "Refactor code with AI",
	Long: `Send code to the backend for refactoring.

Modes:
  clean     Readability
  optimize  Performance
  security  Security
  modern    Modern Style (use --lang to translate to another language)

Without a file argument the code is read from standard input. With --write
the refactored code replaces the file (or the --lines range) after
confirmation.`,
	Example: `  devdash refactor handler.go --mode security
  devdash refactor utils.py --mode modern --lang Go
  devdash refactor server.go --lines 40:72 --diff --write`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRefactor,
}

func init() {
	refactorCmd.Flags().StringP("mode", "m", string(backend.ModeClean), "Refactor mode: clean, optimize, security, modern")
	refactorCmd.Flags().String("lang", backend.SameLanguage, "Target language for modern mode")
	refactorCmd.Flags().String("lines", "", "Line range to refactor, e.g. 10:25")
	refactorCmd.Flags().BoolP("write", "w", false, "Write the refactored code back after confirmation")
	refactorCmd.Flags().Bool("diff", false, "Show a unified diff instead of the refactored code")
	refactorCmd.Flags().Bool("copy", false, "Copy the refactored code to the clipboard")
}

// refactorOptions are the validated refactor flags.
type refactorOptions struct {
	mode     backend.RefactorMode
	language string
	edit     *fix.Edit
	write    bool
	diff     bool
}

func parseRefactorOptions(cmd *cobra.Command, args []string) (*refactorOptions, error) {
	modeFlag, _ := cmd.Flags().GetString("mode")
	mode, err := backend.ParseMode(modeFlag)
	if err != nil {
		return nil, err
	}
	langFlag, _ := cmd.Flags().GetString("lang")
	language, err := backend.ParseTargetLanguage(langFlag)
	if err != nil {
		return nil, err
	}
	if mode != backend.ModeModern {
		language = backend.SameLanguage
	}

	opts := &refactorOptions{mode: mode, language: language, edit: &fix.Edit{}}
	opts.write, _ = cmd.Flags().GetBool("write")
	opts.diff, _ = cmd.Flags().GetBool("diff")
	lines, _ := cmd.Flags().GetString("lines")

	if len(args) == 0 {
		if lines != "" || opts.write {
			return nil, errors.New("--lines and --write require a file argument")
		}
		return opts, nil
	}
	opts.edit.FilePath = args[0]
	if opts.edit.StartLine, opts.edit.EndLine, err = fix.ParseLines(lines); err != nil {
		return nil, err
	}
	if opts.write && language != backend.SameLanguage {
		return nil, fmt.Errorf("--write cannot replace %s with %s code", args[0], language)
	}
	return opts, nil
}

// displayLanguage picks the highlighting language for refactored code.
func (o *refactorOptions) displayLanguage() string {
	if o.language != backend.SameLanguage {
		return strings.ToLower(o.language)
	}
	if o.edit.FilePath == "" {
		return segment.DefaultLanguage
	}
	return render.LanguageForFile(o.edit.FilePath)
}

func runRefactor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts, err := parseRefactorOptions(cmd, args)
	if err != nil {
		return err
	}

	applier := fix.NewApplier(workingRoot())
	var original string
	if opts.edit.FilePath == "" {
		original, err = readSource("-", cmd.InOrStdin())
	} else {
		original, err = applier.Read(opts.edit)
	}
	if err != nil {
		return err
	}
	if strings.TrimSpace(original) == "" {
		return errors.New("no code to refactor")
	}

	client := newClient(cfg)
	req := backend.RefactorRequest{Code: original, Mode: opts.mode, TargetLanguage: opts.language}
	out := cmd.OutOrStdout()
	ctx, stop := signalContext(cmd)
	defer stop()

	result := &refactorResult{}
	if useTUI(cmd) {
		if _, err := runTUI(ctx, "refactor", newRenderer(cfg), []string{stepRefactor}, refactorJob(client, req, opts, original, result)); err != nil {
			return err
		}
	} else {
		refactored, err := client.Refactor(ctx, req)
		if err != nil {
			return errors.New(backend.UserMessage(err))
		}
		result.set(extractCode(refactored))
		fmt.Fprintln(out, newRenderer(cfg).Text(formatRefactor(opts, original, result.get())))
	}

	code := result.get()
	if code == "" {
		return nil
	}
	copyIfRequested(cmd, out, code)

	if opts.write {
		opts.edit.Code = code
		confirmer := fix.NewConfirmer(cmd.InOrStdin(), out, applier.Apply)
		diff := git.Patch(opts.edit.Location(), original, code)
		if _, err := confirmer.Run(opts.edit, diff); err != nil {
			return err
		}
	}
	return nil
}

// refactorResult holds the code of the latest successful run.
type refactorResult struct {
	mu   sync.Mutex
	code string
}

func (r *refactorResult) set(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.code = code
}

func (r *refactorResult) get() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.code
}

func refactorJob(client *backend.Client, req backend.RefactorRequest, opts *refactorOptions, original string, result *refactorResult) tui.Job {
	return func(ctx context.Context, r *tui.Reporter) error {
		r.StepStarted(stepRefactor, string(opts.mode))
		refactored, err := client.Refactor(ctx, req)
		if err != nil {
			r.StepFailed(stepRefactor, "")
			return errors.New(backend.UserMessage(err))
		}
		code := extractCode(refactored)
		result.set(code)
		r.StepDone(stepRefactor, "")
		r.Result(formatRefactor(opts, original, code), "")
		return nil
	}
}

// extractCode returns the first fenced block of a response, or the whole
// response when it carries no fence.
func extractCode(text string) string {
	if strings.Contains(text, "```") {
		for _, seg := range segment.Split(text) {
			if seg.IsCode() {
				return seg.Content
			}
		}
	}
	return strings.TrimSpace(text)
}

// formatRefactor renders the refactored code, or its diff against original.
func formatRefactor(opts *refactorOptions, original, code string) string {
	if !opts.diff {
		return render.Fence(opts.displayLanguage(), code)
	}
	name := opts.edit.Location()
	if name == "" {
		name = "stdin"
	}
	patch := git.Patch(name, original, code)
	if patch == "" {
		return "No changes."
	}
	return render.Fence("diff", patch)
}

// workingRoot is the repository root, or the working directory outside a
// repository.
func workingRoot() string {
	if repo, err := git.OpenCurrent(); err == nil {
		if root, err := repo.Root(); err == nil {
			return root
		}
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

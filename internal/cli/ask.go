package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/buker/devdash/internal/backend"
	"github.com/buker/devdash/internal/tui"
)

const stepRequest = "Request"

// errEmptyQuestion is returned when ask is run without a question.
var errEmptyQuestion = errors.New("please enter a question")

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a development question",
	Long: `Ask a question, optionally about a piece of code.

Code can be passed inline with --code or read from a file with --file
("-" reads standard input). Code blocks in the answer are syntax highlighted.`,
	Example: `  devdash ask "why does this deadlock?" --file worker.go
  cat query.sql | devdash ask "make this faster" --file -
  devdash ask "explain goroutine leaks" --stream --no-tui`,
	Args: cobra.ArbitraryArgs,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().String("code", "", "Code to ask about")
	askCmd.Flags().StringP("file", "f", "", "Read code from a file (- for stdin)")
	askCmd.Flags().Bool("stream", false, "Request a streamed answer")
	askCmd.Flags().Bool("copy", false, "Copy the answer to the clipboard")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	req, err := buildAskRequest(cmd, args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	asker, err := backend.NewAsker(cfg.Backend.Provider, newClient(cfg), cfg.AI.Model)
	if err != nil {
		return err
	}
	renderer := newRenderer(cfg)
	out := cmd.OutOrStdout()
	ctx, stop := signalContext(cmd)
	defer stop()

	var answer string
	if useTUI(cmd) {
		answer, err = runTUI(ctx, "ask", renderer, []string{stepRequest}, askJob(asker, req))
		if err != nil {
			return err
		}
	} else {
		answer, err = askPlain(ctx, asker, req, out, renderer.Text)
		if err != nil {
			return errors.New(backend.UserMessage(err))
		}
	}

	copyIfRequested(cmd, out, answer)
	return nil
}

// buildAskRequest collects the question and optional code from flags.
func buildAskRequest(cmd *cobra.Command, args []string, stdin io.Reader) (backend.AskRequest, error) {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return backend.AskRequest{}, errEmptyQuestion
	}
	code, _ := cmd.Flags().GetString("code")
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		if code != "" {
			return backend.AskRequest{}, errors.New("use either --code or --file, not both")
		}
		content, err := readSource(path, stdin)
		if err != nil {
			return backend.AskRequest{}, err
		}
		code = content
	}
	streamed, _ := cmd.Flags().GetBool("stream")
	return backend.AskRequest{Question: question, Code: code, Stream: streamed}, nil
}

// readSource reads path, or stdin when path is "-".
func readSource(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

func askJob(asker backend.Asker, req backend.AskRequest) tui.Job {
	return func(ctx context.Context, r *tui.Reporter) error {
		r.StepStarted(stepRequest, "")
		answer, err := asker.Ask(ctx, req, r.Stream)
		if err != nil {
			r.StepFailed(stepRequest, "")
			return errors.New(backend.UserMessage(err))
		}
		r.StepDone(stepRequest, "")
		r.Result(answer, "")
		return nil
	}
}

// askPlain prints a streamed answer as it arrives, or the rendered answer
// once complete.
func askPlain(ctx context.Context, asker backend.Asker, req backend.AskRequest, out io.Writer, render func(string) string) (string, error) {
	if !req.Stream {
		answer, err := asker.Ask(ctx, req, nil)
		if err != nil {
			return "", err
		}
		fmt.Fprintln(out, render(answer))
		return answer, nil
	}

	p := &deltaPrinter{out: out}
	answer, err := asker.Ask(ctx, req, p.update)
	if err != nil {
		return "", err
	}
	p.flush(answer)
	fmt.Fprintln(out)
	return answer, nil
}

// deltaPrinter writes only the part of each snapshot not yet printed.
// Trailing quotes are held back because the next chunk may complete a '''
// fence escape, which rewrites them into backticks.
type deltaPrinter struct {
	out     io.Writer
	printed string
}

func (p *deltaPrinter) update(text string) {
	p.write(strings.TrimRight(text, "'"))
}

// flush prints whatever update held back.
func (p *deltaPrinter) flush(text string) {
	p.write(text)
}

func (p *deltaPrinter) write(text string) {
	n := commonPrefixLen(text, p.printed)
	if n == len(text) {
		return
	}
	fmt.Fprint(p.out, text[n:])
	p.printed = text
}

func commonPrefixLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/buker/devdash/internal/backend"
	"github.com/buker/devdash/internal/tui"
)

const stepPrompt = "Prompt"

var exploreCmd = &cobra.Command{
	Use:   "explore [prompt]",
	Short: "Run a prompt template or your own prompt",
	Long: `Try prompts against the backend.

Pick one of the built-in templates with --template (see --list), or write
your own prompt as arguments. Code to run the prompt against is passed
with --file ("-" reads standard input) or --context.`,
	Example: `  devdash explore --list
  devdash explore --template 2 --file handler.go
  devdash explore "List the edge cases this misses" --file parse.go`,
	Args: cobra.ArbitraryArgs,
	RunE: runExplore,
}

func init() {
	exploreCmd.Flags().IntP("template", "t", 1, "Prompt template number")
	exploreCmd.Flags().Bool("list", false, "List prompt templates")
	exploreCmd.Flags().String("context", "", "Context to run the prompt against")
	exploreCmd.Flags().StringP("file", "f", "", "Read context from a file (- for stdin)")
	exploreCmd.Flags().Bool("copy", false, "Copy the answer to the clipboard")
}

func printTemplates(out io.Writer) {
	for i, tpl := range backend.PromptTemplates {
		fmt.Fprintf(out, "%d. %s\n", i+1, tpl)
	}
}

// buildExploreRequest uses the prompt from args, or the chosen template.
func buildExploreRequest(cmd *cobra.Command, args []string, stdin io.Reader) (backend.ClaudeQARequest, error) {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		n, _ := cmd.Flags().GetInt("template")
		if n < 1 || n > len(backend.PromptTemplates) {
			return backend.ClaudeQARequest{}, fmt.Errorf("template must be between 1 and %d, got %d", len(backend.PromptTemplates), n)
		}
		question = backend.PromptTemplates[n-1]
	}

	code, _ := cmd.Flags().GetString("context")
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		if code != "" {
			return backend.ClaudeQARequest{}, errors.New("use either --context or --file, not both")
		}
		content, err := readSource(path, stdin)
		if err != nil {
			return backend.ClaudeQARequest{}, err
		}
		code = content
	}
	return backend.ClaudeQARequest{Context: code, Question: question}, nil
}

func runExplore(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if list, _ := cmd.Flags().GetBool("list"); list {
		printTemplates(out)
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	req, err := buildExploreRequest(cmd, args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	client := newClient(cfg)
	renderer := newRenderer(cfg)
	ctx, stop := signalContext(cmd)
	defer stop()

	var answer string
	if useTUI(cmd) {
		job := func(ctx context.Context, r *tui.Reporter) error {
			r.StepStarted(stepPrompt, "")
			answer, err := client.ClaudeQA(ctx, req)
			if err != nil {
				r.StepFailed(stepPrompt, "")
				return errors.New(backend.UserMessage(err))
			}
			r.StepDone(stepPrompt, "")
			r.Result(answer, "")
			return nil
		}
		answer, err = runTUI(ctx, "explore", renderer, []string{stepPrompt}, job)
		if err != nil {
			return err
		}
	} else {
		answer, err = client.ClaudeQA(ctx, req)
		if err != nil {
			return errors.New(backend.UserMessage(err))
		}
		fmt.Fprintln(out, renderer.Text(answer))
	}

	copyIfRequested(cmd, out, answer)
	return nil
}

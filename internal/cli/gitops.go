package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/buker/devdash/internal/backend"
	"github.com/buker/devdash/internal/git"
	"github.com/buker/devdash/internal/render"
	"github.com/buker/devdash/internal/tui"
)

const stepGitOps = "Generate"

var errNoInstruction = errors.New("describe a git task or pick a --scenario")

var gitopsCmd = &cobra.Command{
	Use:   "gitops [instruction]",
	Short: "Turn a git task into commands",
	Long: `Describe what you want to do with git and get the commands to run.

Instead of an instruction, a predefined scenario can be chosen with
--scenario (see "devdash gitops scenarios"). --context attaches the current
branch and working tree status of the local repository.`,
	Example: `  devdash gitops "undo my last commit but keep the changes"
  devdash gitops --scenario merge_conflict --error "CONFLICT (content)" --explain
  devdash gitops "squash my branch" --context`,
	Args: cobra.ArbitraryArgs,
	RunE: runGitOps,
}

var gitopsScenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List predefined git scenarios",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signalContext(cmd)
		defer stop()
		scenarios, err := newClient(cfg).GitScenarios(ctx)
		if err != nil {
			return errors.New(backend.UserMessage(err))
		}
		printScenarios(cmd.OutOrStdout(), scenarios)
		return nil
	},
}

func init() {
	gitopsCmd.Flags().StringP("scenario", "s", "", "Predefined scenario key")
	gitopsCmd.Flags().StringP("error", "e", "", "Error message git printed")
	gitopsCmd.Flags().Bool("explain", false, "Explain git terms for beginners")
	gitopsCmd.Flags().Bool("context", false, "Attach local repository status")
	gitopsCmd.Flags().Bool("copy", false, "Copy the command to the clipboard")
	gitopsCmd.AddCommand(gitopsScenariosCmd)
}

// buildGitOpsRequest assembles the request; snapshot may be nil.
func buildGitOpsRequest(cmd *cobra.Command, args []string, snapshot *git.Snapshot) (backend.GitOpsRequest, error) {
	req := backend.GitOpsRequest{Instruction: strings.TrimSpace(strings.Join(args, " "))}
	req.ScenarioType, _ = cmd.Flags().GetString("scenario")
	req.ErrorMessage, _ = cmd.Flags().GetString("error")
	req.ExplainTerms, _ = cmd.Flags().GetBool("explain")

	if req.Instruction == "" && req.ScenarioType == "" {
		return backend.GitOpsRequest{}, errNoInstruction
	}
	if snapshot != nil {
		if req.Instruction != "" {
			req.Instruction += "\n\n" + snapshot.String()
		} else {
			req.ErrorMessage = strings.TrimSpace(req.ErrorMessage + "\n\n" + snapshot.String())
		}
	}
	return req, nil
}

func repositorySnapshot(cmd *cobra.Command) (*git.Snapshot, error) {
	if want, _ := cmd.Flags().GetBool("context"); !want {
		return nil, nil
	}
	repo, err := git.OpenCurrent()
	if err != nil {
		return nil, err
	}
	return repo.Snapshot()
}

func runGitOps(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	snapshot, err := repositorySnapshot(cmd)
	if err != nil {
		return err
	}
	req, err := buildGitOpsRequest(cmd, args, snapshot)
	if err != nil {
		return err
	}

	client := newClient(cfg)
	out := cmd.OutOrStdout()
	ctx, stop := signalContext(cmd)
	defer stop()

	if useTUI(cmd) {
		job := func(ctx context.Context, r *tui.Reporter) error {
			r.StepStarted(stepGitOps, "")
			res, err := client.GitOps(ctx, req)
			if err != nil {
				r.StepFailed(stepGitOps, "")
				return errors.New(backend.UserMessage(err))
			}
			r.StepDone(stepGitOps, "")
			r.Result(formatGitOps(res), res.Warning())
			return nil
		}
		answer, err := runTUI(ctx, "gitops", newRenderer(cfg), []string{stepGitOps}, job)
		if err != nil {
			return err
		}
		copyIfRequested(cmd, out, extractCode(answer))
		return nil
	}

	res, err := client.GitOps(ctx, req)
	if err != nil {
		return errors.New(backend.UserMessage(err))
	}
	if w := res.Warning(); w != "" {
		fmt.Fprintf(out, "Warning: %s\n\n", w)
	}
	fmt.Fprintln(out, newRenderer(cfg).Text(formatGitOps(res)))
	copyIfRequested(cmd, out, res.Display())
	return nil
}

// formatGitOps lays out a gitops result as markdown: the command in a shell
// block, then the steps and the beginner explanation.
func formatGitOps(res *backend.GitOpsResult) string {
	display := res.Display()
	if res.Command != "" || res.GitCommand != "" {
		display = render.Fence("bash", display)
	}
	parts := []string{display}

	if len(res.Steps) > 0 {
		var b strings.Builder
		b.WriteString("Steps:")
		for i, step := range res.Steps {
			fmt.Fprintf(&b, "\n%d. %s", i+1, step)
		}
		parts = append(parts, b.String())
	}
	if explanation := strings.TrimSpace(res.BeginnerExplanation); explanation != "" {
		parts = append(parts, explanation)
	}
	return strings.Join(parts, "\n\n")
}

func printScenarios(out io.Writer, scenarios []backend.Scenario) {
	if len(scenarios) == 0 {
		fmt.Fprintln(out, "No scenarios available.")
		return
	}
	width := 0
	for _, s := range scenarios {
		if len(s.Key) > width {
			width = len(s.Key)
		}
	}
	for _, s := range scenarios {
		fmt.Fprintf(out, "%-*s  %s\n", width, s.Key, s.Label)
	}
}

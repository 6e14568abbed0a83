// Package cli implements the command-line interface for devdash using cobra.
// Each dashboard page is a subcommand: ask, refactor, gitops and screen.
// Results are shown in a Bubble Tea view, or as plain text with --no-tui.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/buker/devdash/internal/backend"
	"github.com/buker/devdash/internal/config"
	"github.com/buker/devdash/internal/render"
	"github.com/buker/devdash/internal/tui"
)

var (
	// Version is set at build time via -ldflags
	Version = "dev"

	rootCmd = &cobra.Command{
		Use:   "devdash",
		Short: "Terminal developer dashboard backed by an AI service",
		Long: `devdash sends questions, code, git tasks and screen captures to an AI
backend and renders the answers in the terminal.

Commands:
  ask       Ask a question, optionally about a piece of code
  refactor  Refactor code for readability, performance, security or style
  gitops    Turn a git task into commands
  screen    Capture the screen and ask what is going wrong
  explore   Run a prompt template or your own prompt`,
		SilenceUsage: true,
	}

	// copyFn is replaced in tests.
	copyFn = clipboard.WriteAll
)

func init() {
	cobra.OnInitialize(config.Init)

	// Global flags
	rootCmd.PersistentFlags().String("backend-url", backend.DefaultURL, "AI backend base URL")
	rootCmd.PersistentFlags().Int("timeout", 60, "Backend request timeout in seconds")
	rootCmd.PersistentFlags().String("provider", backend.ProviderHTTP, "Ask provider: http or claude-code")
	rootCmd.PersistentFlags().String("model", "", "Model for the claude-code provider")
	rootCmd.PersistentFlags().Bool("no-tui", false, "Disable TUI (use plain text output)")

	// Bind flags to viper
	config.BindFlags(rootCmd)

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(refactorCmd)
	rootCmd.AddCommand(gitopsCmd)
	rootCmd.AddCommand(screenCmd)
	rootCmd.AddCommand(exploreCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command and returns any error encountered.
// This is the main entry point for the CLI application.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig returns the merged configuration after validation.
func loadConfig() (*config.Config, error) {
	cfg := config.Get()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newClient(cfg *config.Config) *backend.Client {
	return backend.NewClient(cfg.Backend.URL, cfg.BackendTimeout())
}

// newRenderer builds the terminal renderer. Rendering problems degrade to
// plain output rather than failing the command.
func newRenderer(cfg *config.Config) *render.Renderer {
	r, err := render.New(cfg.Render.Width, cfg.Render.Style)
	if err != nil {
		r, _ = render.New(cfg.Render.Width, render.StylePlain)
	}
	return r
}

func useTUI(cmd *cobra.Command) bool {
	noTUI, _ := cmd.Flags().GetBool("no-tui")
	return !noTUI
}

// signalContext cancels on Ctrl+C in plain mode. The TUI handles Ctrl+C as a key.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt)
}

// runTUI runs job inside a Bubble Tea program and returns the final answer.
func runTUI(ctx context.Context, title string, renderer *render.Renderer, steps []string, job tui.Job) (string, error) {
	program := tui.NewProgram(title, renderer, steps...)
	if err := program.Run(ctx, job); err != nil {
		return "", fmt.Errorf("failed to run TUI: %w", err)
	}
	return program.Answer(), nil
}

// copyIfRequested copies text when --copy is set.
func copyIfRequested(cmd *cobra.Command, out io.Writer, text string) {
	want, _ := cmd.Flags().GetBool("copy")
	if !want || text == "" {
		return
	}
	if err := copyFn(text); err != nil {
		fmt.Fprintf(out, "Copy failed: %v\n", err)
		return
	}
	fmt.Fprintln(out, "Copied to clipboard.")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "devdash version %s\n", Version)
	},
}

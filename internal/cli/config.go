package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buker/devdash/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and manage devdash configuration settings.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Current configuration:")
		fmt.Fprintln(out, "----------------------")
		fmt.Fprintf(out, "Backend URL:     %s\n", cfg.Backend.URL)
		fmt.Fprintf(out, "Backend timeout: %ds\n", cfg.Backend.Timeout)
		fmt.Fprintf(out, "Provider:        %s\n", cfg.Backend.Provider)
		fmt.Fprintf(out, "AI model:        %s\n", cfg.AI.Model)
		fmt.Fprintln(out, "\nScreen:")
		fmt.Fprintf(out, "  Countdown:     %d\n", cfg.Screen.Countdown)
		fmt.Fprintf(out, "  Frames:        %d\n", cfg.Screen.Frames)
		fmt.Fprintf(out, "  Interval:      %dms\n", cfg.Screen.IntervalMS)
		fmt.Fprintf(out, "  Timeout:       %ds\n", cfg.Screen.SubmitTimeout)
		fmt.Fprintf(out, "  Max width:     %d\n", cfg.Screen.MaxWidth)
		fmt.Fprintf(out, "  Directory:     %s\n", cfg.Screen.Dir)
		fmt.Fprintln(out, "\nRender:")
		fmt.Fprintf(out, "  Width:         %d\n", cfg.Render.Width)
		fmt.Fprintf(out, "  Style:         %s\n", cfg.Render.Style)
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(out, "\nWarning: %v\n", err)
		}
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show config file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		path := config.GetConfigPath()
		if path == "" {
			fmt.Fprintln(out, "No config file found. Create one at:")
			fmt.Fprintf(out, "  %s (global)\n", config.GetDefaultConfigPath())
			fmt.Fprintln(out, "  ./.devdash.yaml (project)")
		} else {
			fmt.Fprintf(out, "Config file: %s\n", path)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/jeranaias/tokenmeter/internal/config"
	"github.com/jeranaias/tokenmeter/internal/ui/chat"
	"github.com/jeranaias/tokenmeter/internal/ui/styles"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Execute runs the command line with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tokenmeter",
		Short: "Track how much of a model's context window a session uses",
		Long: `tokenmeter estimates the tokens of every prompt you send, keeps a
high-water mark of the largest prompt and shows how much of the model's
context window is left. Saved memories count against the window too.`,
		Example: `
  # Start an interactive session
  tokenmeter

  # Measure against a different model
  tokenmeter --model gpt-4o

  # Use the line REPL (also used for screen readers and pipes)
  tokenmeter --plain

  # Format numbers the way the footer does
  tokenmeter format tokens 1234567

  # Estimate a prompt from stdin
  cat prompt.txt | tokenmeter estimate`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runInteractive,
	}

	root.PersistentFlags().String("config", "", "Config file (default ~/.tokenmeter/config.toml)")
	root.PersistentFlags().StringP("model", "m", "", "Model whose context window is measured")
	root.PersistentFlags().BoolP("debug", "d", false, "Debug logging")
	root.Flags().Bool("plain", false, "Use the line REPL instead of the full-screen view")

	root.AddCommand(
		newFormatCmd(),
		newEstimateCmd(),
		newConfigCmd(),
		newModelsCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tokenmeter %s (%s, built %s, %s/%s)\n",
				Version, GitCommit, BuildDate, runtime.GOOS, runtime.GOARCH)
		},
	}
}

// =============================================================================
// INTERACTIVE SESSION
// =============================================================================

func runInteractive(cmd *cobra.Command, _ []string) error {
	a, err := setupApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	plain, _ := cmd.Flags().GetBool("plain")
	if usePlain(plain, a.Config().UI.Accessibility.ScreenReader) {
		return runREPL(cmd.Context(), a, cmd.OutOrStdout())
	}
	return runTUI(cmd.Context(), a)
}

func runTUI(ctx context.Context, a *app) error {
	theme := styles.NewThemeFor(GetColorProfile(), termenv.HasDarkBackground())
	m := chat.New(chat.Options{
		Session: a.session,
		Config:  a.Config(),
		Theme:   theme,
	})
	defer m.Close()

	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	a.watchConfig(func(cfg *config.Config) {
		program.Send(chat.ConfigChangedMsg{Config: cfg})
	})

	if _, err := program.Run(); err != nil {
		slog.Error("TUI run error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// =============================================================================
// CONFIG LOADING
// =============================================================================

// loadConfig reads --config or the default file and applies --model and
// --debug. It returns the path the config came from or would be saved to.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		if _, statErr := os.Stat(path); statErr != nil {
			// A missing explicit file starts from defaults; config set creates it.
			cfg, err = config.LoadDefaults()
		} else {
			cfg, err = config.LoadFromPath(path)
		}
	} else {
		cfg, err = config.Load()
		if err == nil {
			path, err = config.DefaultPath()
		}
	}
	if err != nil {
		return nil, "", err
	}

	if model, _ := cmd.Flags().GetString("model"); model != "" {
		cfg.Model = model
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Log.Debug = true
	}
	return cfg, path, nil
}

// printLine writes a line, ignoring write errors on the output stream.
func printLine(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/tokenmeter/internal/format"
	"github.com/jeranaias/tokenmeter/internal/model"
	"github.com/jeranaias/tokenmeter/internal/telemetry"
	"github.com/jeranaias/tokenmeter/internal/ui/components"
)

// =============================================================================
// FORMAT
// =============================================================================

func newFormatCmd() *cobra.Command {
	formatCmd := &cobra.Command{
		Use:   "format",
		Short: "Format numbers the way the footer and stats panel do",
	}

	tokens := &cobra.Command{
		Use:     "tokens <n>",
		Short:   "Format a token count (12.3k, or 12,345 with --full)",
		Example: "  tokenmeter format tokens 1234567",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseNumber(args[0])
			if err != nil {
				return err
			}
			full, _ := cmd.Flags().GetBool("full")
			printLine(cmd.OutOrStdout(), format.TokenCount(n, !full))
			return nil
		},
	}
	tokens.Flags().Bool("full", false, "Print the full grouped integer")

	duration := &cobra.Command{
		Use:     "duration <ms>",
		Short:   "Format a duration in milliseconds",
		Example: "  tokenmeter format duration 3725000",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ms, err := parseNumber(args[0])
			if err != nil {
				return err
			}
			printLine(cmd.OutOrStdout(), format.Duration(ms))
			return nil
		},
	}

	memory := &cobra.Command{
		Use:     "memory <bytes>",
		Short:   "Format a byte count",
		Example: "  tokenmeter format memory 1572864",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := parseNumber(args[0])
			if err != nil {
				return err
			}
			printLine(cmd.OutOrStdout(), format.MemoryUsage(b))
			return nil
		},
	}

	formatCmd.AddCommand(tokens, duration, memory)
	return formatCmd
}

func parseNumber(s string) (float64, error) {
	n, err := strconv.ParseFloat(strings.ReplaceAll(s, "_", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return n, nil
}

// =============================================================================
// ESTIMATE
// =============================================================================

func newEstimateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimate [text...]",
		Short: "Estimate the token count of text (reads stdin without arguments)",
		Example: `  tokenmeter estimate "How many tokens is this?"
  cat prompt.txt | tokenmeter estimate --window`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(data)
			}

			estimate := telemetry.EstimateTokenCount(text)
			out := cmd.OutOrStdout()
			printLine(out, estimate.String())

			if window, _ := cmd.Flags().GetBool("window"); window {
				cfg, _, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				usage := components.ContextUsage{
					Used:  estimate,
					Limit: model.NewRegistry(cfg.Models).TokenLimit(cfg.Model),
				}
				printLine(out, cfg.Model+" "+usage.Text())
			}
			return nil
		},
	}
	cmd.Flags().Bool("window", false, "Also print how much of the model's context window is left")
	return cmd
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/spf13/cobra"

	"github.com/jeranaias/tokenmeter/internal/commands"
	"github.com/jeranaias/tokenmeter/internal/model"
)

// newModelsCmd lists built-in models merged with [models] from the config.
func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List known models and their context windows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			reg := model.NewRegistry(cfg.Models)
			printLine(cmd.OutOrStdout(), commands.ModelTable(reg.List(), cfg.Model))
			return nil
		},
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/tokenmeter/internal/config"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit the configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), cfg.String())
			return nil
		},
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, p, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			printLine(cmd.OutOrStdout(), p)
			return nil
		},
	}

	get := &cobra.Command{
		Use:     "get <key>",
		Short:   "Print one value",
		Example: "  tokenmeter config get ui.footer.show_token_counts",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			v, err := cfg.Get(args[0])
			if err != nil {
				return err
			}
			printLine(cmd.OutOrStdout(), fmt.Sprint(v))
			return nil
		},
	}

	set := &cobra.Command{
		Use:     "set <key> <value>",
		Short:   "Change one value and save the config file",
		Example: "  tokenmeter config set ui.footer.show_token_counts true",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, p, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.Save(cfg, p); err != nil {
				return err
			}
			printLine(cmd.OutOrStdout(), args[0]+" = "+args[1])
			return nil
		},
	}

	keys := &cobra.Command{
		Use:   "keys",
		Short: "List settable keys",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			printLine(cmd.OutOrStdout(), strings.Join(config.Keys(), "\n"))
		},
	}

	env := &cobra.Command{
		Use:   "env",
		Short: "List environment variable overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			desc, err := config.EnvDescription()
			if err != nil {
				return err
			}
			printLine(cmd.OutOrStdout(), desc)
			return nil
		},
	}

	configCmd.AddCommand(show, path, get, set, keys, env)
	return configCmd
}

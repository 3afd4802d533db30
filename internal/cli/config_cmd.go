// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Config command implementation for mhsh.
//
// Command: config [subcommand]
// Short:   View and modify configuration
//
// Subcommands:
//   show (default)      Display current configuration
//   get <key>           Print a single value
//   set <key> <value>   Set a configuration value in the config file
//   keys                List the configuration keys
//   path                Show configuration file path
//
// Examples:
//   mhsh config show --json
//   mhsh config set broker.host broker.example.com
//   mhsh config set output.format yaml
//   mhsh config get broker.timeout_secs

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/mhsh/internal/config"
	"github.com/jeranaias/mhsh/internal/util"
)

func newConfigCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool

	show := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if asJSON {
				fmt.Fprintln(cmd.OutOrStdout(), cfg.String())
				return nil
			}
			return printConfig(cmd.OutOrStdout(), cfg, configPath(opts))
		},
	}
	show.Flags().BoolVar(&asJSON, "json", false, "output in JSON format")

	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
		Args:  cobra.NoArgs,
		RunE:  show.RunE,
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output in JSON format")

	cmd.AddCommand(show,
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print a single configuration value",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(cmd, opts)
				if err != nil {
					return err
				}
				value, err := cfg.Get(normalizeKey(args[0]))
				if err != nil {
					return usageError("%v", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatValue(normalizeKey(args[0]), value))
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Set a configuration value",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return setConfigValue(cmd.OutOrStdout(), opts, normalizeKey(args[0]), args[1])
			},
		},
		&cobra.Command{
			Use:   "keys",
			Short: "List the configuration keys",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				for _, k := range config.GetAllKeys() {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Show configuration file path",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), configPath(opts))
			},
		},
	)
	return cmd
}

// configPath returns the file config commands read and write.
func configPath(opts *rootOptions) string {
	if opts.configPath != "" {
		return opts.configPath
	}
	path, err := config.ConfigPathTOML()
	if err != nil {
		return ""
	}
	return path
}

// normalizeKey accepts "broker_port" as well as "broker.port" for
// top-level sections.
func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	if strings.Contains(key, ".") {
		return key
	}
	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return key
	}
	return section + "." + rest
}

func isSecret(key string) bool {
	return strings.HasSuffix(key, "password")
}

func formatValue(key string, value any) string {
	s := fmt.Sprint(value)
	if isSecret(key) && s != "" {
		return "[REDACTED]"
	}
	return s
}

func printConfig(w io.Writer, cfg *config.Config, path string) error {
	keys := config.GetAllKeys()
	width := 0
	for _, k := range keys {
		width = max(width, util.StringWidth(k))
	}

	fmt.Fprintln(w, TitleStyle.Render("mhsh Configuration"))
	fmt.Fprintln(w)
	for _, k := range keys {
		value, err := cfg.Get(k)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s  %s\n", KeyStyle.Render(util.PadRight(k, width)), ValueStyle.Render(formatValue(k, value)))
	}
	fmt.Fprintf(w, "  %s  %d host(s)\n", KeyStyle.Render(util.PadRight("inventory", width)), len(cfg.Inventory))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Config file: %s\n", DimStyle.Render(path))
	return nil
}

// setConfigValue updates one key in the config file. Environment overrides
// are not applied, so they are never written back.
func setConfigValue(w io.Writer, opts *rootOptions, key, value string) error {
	path := configPath(opts)
	if path == "" {
		return configError(errors.New("cannot determine config file path"))
	}

	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		load := config.LoadTOML
		if strings.HasSuffix(path, ".json") {
			load = config.LoadJSON
		}
		if err := load(cfg, path); err != nil {
			return configError(err)
		}
	}

	if err := cfg.Set(key, value); err != nil {
		return usageError("%v", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return configError(fmt.Errorf("invalid configuration value: %w", err))
	}

	var err error
	switch {
	case opts.configPath == "":
		err = config.Save(cfg)
	case strings.HasSuffix(path, ".json"):
		err = config.SaveJSON(cfg, path)
	default:
		err = config.SaveTOML(cfg, path)
	}
	if err != nil {
		return configError(fmt.Errorf("failed to save config: %w", err))
	}

	fmt.Fprintf(w, "%s %s = %s\n", SuccessStyle.Render("[OK]"), key, formatValue(key, value))
	return nil
}

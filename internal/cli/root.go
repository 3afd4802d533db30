// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jeranaias/mhsh/internal/broker"
	"github.com/jeranaias/mhsh/internal/config"
	"github.com/jeranaias/mhsh/internal/interpreter"
	"github.com/jeranaias/mhsh/internal/logging"
	"github.com/jeranaias/mhsh/internal/shell"
)

// rootOptions holds the root command flags.
type rootOptions struct {
	configPath string
	broker     string
	port       int
	ssl        bool
	script     string
	output     string
	logLevel   string
}

// NewRootCommand returns the mhsh command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "mhsh",
		Short: "Interactive shell for Matahari management agents",
		Long: `mhsh is a modal shell for the hosts, agents and objects published by
Matahari management agents.

Select a host and a class of objects, then list them or invoke methods on
all of them at once. Type "help" at the prompt for the available commands.`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageError("unexpected argument %q", args[0])
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd, opts)
		},
	}
	cmd.Version = Version
	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: ExitUsageError, Err: err}
	})

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "configuration file (default ~/.mhsh/config.toml)")

	flags := cmd.Flags()
	flags.StringVar(&opts.broker, "broker", "", "broker host")
	flags.IntVar(&opts.port, "port", config.DefaultBrokerPort, "broker port")
	flags.BoolVar(&opts.ssl, "ssl", false, "connect to the broker with amqps")
	flags.StringVar(&opts.script, "script", "", "run commands from `FILE` (- for stdin) instead of prompting")
	flags.StringVarP(&opts.output, "output", "o", "", "output format: text, json or yaml")
	flags.StringVar(&opts.logLevel, "log-level", "", "enable logging at `LEVEL` (debug, info, warn, error)")

	cmd.AddCommand(newVersionCommand(), newConfigCommand(opts))
	return cmd
}

// Execute runs the root command and exits with the matching exit code on
// failure. It is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	err := NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitCode(err))
	}
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// loadConfig loads the configuration file and applies flag overrides on
// top of it. The result is also installed as the global config.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	var cfg *config.Config
	if opts.configPath != "" {
		loaded, err := config.LoadFromPath(opts.configPath)
		if err != nil {
			return nil, configError(err)
		}
		cfg = loaded
	} else {
		loaded, err := config.Load()
		if loaded == nil {
			return nil, configError(err)
		}
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v (using defaults)\n", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("broker") {
		cfg.Broker.Host = opts.broker
	}
	if flags.Changed("port") {
		cfg.Broker.Port = opts.port
	}
	if flags.Changed("ssl") {
		cfg.Broker.SSL = opts.ssl
	}
	if flags.Changed("output") {
		cfg.Output.Format = opts.output
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = opts.logLevel
		cfg.Logging.Enabled = true
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, configError(fmt.Errorf("invalid config: %w", err))
	}
	return cfg, nil
}

// =============================================================================
// SHELL
// =============================================================================

func runShell(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	logger, err := logging.Init(logging.Config{
		Enabled: cfg.Logging.Enabled,
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Format:  cfg.Logging.Format,
	})
	if err != nil {
		return configError(err)
	}
	defer logger.Shutdown()

	mgr, err := openManager(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer mgr.Close()

	format, err := shell.ParseFormat(cfg.Output.Format)
	if err != nil {
		return usageError("%v", err)
	}

	out := cmd.OutOrStdout()
	interactive := opts.script == "" && stdinIsTTY(cmd)
	ApplyColorProfile(cfg.Shell.Color)

	shellOpts := []shell.Option{
		shell.WithFormat(format),
		shell.WithOutput(out),
		shell.WithLogger(logger.With("component", "shell")),
	}
	if interactive {
		shellOpts = append(shellOpts, shell.WithWidth(GetTerminalWidth()))
	}
	sh := shell.New(mgr, shellOpts...)

	interpOpts := []interpreter.Option{
		interpreter.WithOutput(out),
		interpreter.WithLogger(logger.With("component", "interpreter")),
	}

	if !interactive {
		in, closeIn, err := openScript(cmd, opts.script)
		if err != nil {
			return err
		}
		defer closeIn()
		interp := sh.NewInterpreter(cfg.Shell.Name, interpOpts...)
		return interp.RunScript(cmd.Context(), in)
	}

	historyPath, err := cfg.HistoryPath()
	if err != nil {
		logger.Warn("history disabled", "error", err)
	}
	editor := NewLineEditor(historyPath, cfg.Shell.HistoryLimit)
	defer func() {
		if err := editor.Close(); err != nil {
			logger.Warn("failed to save history", "path", historyPath, "error", err)
		}
	}()

	interpOpts = append(interpOpts,
		interpreter.WithReader(editor),
		interpreter.WithErrorStyle(errorStyle(cfg.Shell.Color)),
		interpreter.WithWidth(GetTerminalWidth()),
	)
	interp := sh.NewInterpreter(cfg.Shell.Name, interpOpts...)
	editor.SetCompleter(interp.Complete)

	fmt.Fprintln(out, TitleStyle.Render("mhsh "+Version)+" "+DimStyle.Render(`Type "help" for commands.`))
	return interp.Run(cmd.Context())
}

// openManager builds the broker manager and checks that agents can be
// queried.
func openManager(ctx context.Context, cfg *config.Config, logger logging.Logger) (*broker.Manager, error) {
	if !cfg.Broker.Static {
		logger.Warn("no live transport for broker, serving the configured inventory", "url", cfg.BrokerURL())
	}
	transport, err := broker.NewStaticFromInventory(cfg.Inventory)
	if err != nil {
		return nil, configError(err)
	}

	mgr := broker.NewManager(transport,
		broker.WithTimeout(cfg.Timeout()),
		broker.WithMaxParallel(cfg.Broker.MaxParallel),
		broker.WithLogger(logger.With("component", "broker")),
	)

	probeCtx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()
	hosts, err := mgr.Hosts(probeCtx)
	if err != nil {
		mgr.Close()
		return nil, networkError(fmt.Errorf("cannot reach broker at %s: %w", cfg.BrokerURL(), err))
	}
	logger.Info("broker ready", "url", cfg.BrokerURL(), "hosts", len(hosts))
	return mgr, nil
}

// stdinIsTTY reports whether the command reads from an interactive
// terminal.
func stdinIsTTY(cmd *cobra.Command) bool {
	if cmd.InOrStdin() != os.Stdin {
		return false
	}
	return IsTTY()
}

// openScript returns the script to run: the named file, or the command's
// input for "" and "-".
func openScript(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, usageError("cannot open script: %v", err)
	}
	return f, func() { f.Close() }, nil
}

// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// calc evaluates integer arithmetic from the command line, runs arithmetic
// plans locally or on Temporal, and measures the module's test coverage.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"

	"coverage-demo/internal/config"
	"coverage-demo/internal/telemetry"
)

var version = "dev" // set by the linker

// app carries what every subcommand needs once the root command has run.
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
	logOut  io.Writer
	tracing *telemetry.TracerProvider

	// dial and runCoverage are replaced in tests
	dial        func(client.Options) (client.Client, error)
	runCoverage func(command string) (string, error)
}

func main() {
	a := &app{logOut: os.Stderr, dial: client.Dial}
	err := newRootCmd(a).Execute()
	a.shutdown(context.Background())
	if err != nil {
		// Cobra has already printed the error.
		os.Exit(1)
	}
}

// newRootCmd builds the command tree around a. Tests build fresh trees.
func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "calc",
		Short:        "Integer arithmetic, arithmetic plans and coverage checks",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default ./"+config.DefaultPath+" if present)")
	cmd.PersistentFlags().String("log-format", config.DefaultLogFormat, `log format ("text", "json")`)
	cmd.PersistentFlags().String("log-level", config.DefaultLogLevel, `log level ("debug", "info", "warn", "error")`)

	cmd.AddCommand(newAddCmd(a))
	cmd.AddCommand(newDivCmd(a))
	cmd.AddCommand(newPlanCmd(a))
	cmd.AddCommand(newCoverageCmd(a))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// init resolves configuration from the file, CALC_* variables and changed
// flags, then installs the logger.
func (a *app) init(cmd *cobra.Command) error {
	v, err := config.NewViper(cmd.Flags())
	if err != nil {
		return err
	}

	cfg, err := config.Resolve(a.cfgFile, v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logOut := a.logOut
	if logOut == nil {
		logOut = io.Discard
	}
	logger, err := cfg.Logging.NewLogger(logOut)
	if err != nil {
		return err
	}
	a.logger = logger
	slog.SetDefault(logger)

	if cfg.Telemetry.Enabled {
		tp, err := telemetry.NewTracerProvider(cmd.Context(), cfg.Telemetry.Tracing(version))
		if err != nil {
			return err
		}
		a.tracing = tp
		logger.Debug("Tracing enabled", "collector", cfg.Telemetry.CollectorURL)
	}

	logger.Debug("Configuration resolved",
		"config", a.cfgFile,
		"temporal", cfg.Temporal.HostPort,
		"taskQueue", cfg.Temporal.TaskQueue)
	return nil
}

// shutdown flushes spans recorded by the command.
func (a *app) shutdown(ctx context.Context) {
	if err := a.tracing.Shutdown(ctx); err != nil && a.logger != nil {
		a.logger.Warn("Tracer shutdown failed", "error", err)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "calc version %s\n", version)
			return err
		},
	}
}

// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	"coverage-demo/internal/config"
	"coverage-demo/internal/telemetry"
	"coverage-demo/pkg/dag"
)

var version = "dev" // set by the linker

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:          "calc-worker",
		Short:        "Temporal worker that evaluates arithmetic plans",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.NewViper(cmd.Flags())
			if err != nil {
				return err
			}
			cfg, err := config.Resolve(cfgFile, v)
			if err != nil {
				return err
			}
			return runWorker(cfg)
		},
	}

	cmd.Flags().StringVar(&cfgFile, "config", "", "config file (default ./"+config.DefaultPath+" if present)")
	cmd.Flags().String("log-format", config.DefaultLogFormat, `log format ("text", "json")`)
	cmd.Flags().String("log-level", config.DefaultLogLevel, "log level")
	cmd.Flags().String("temporal-host-port", config.DefaultHostPort, "Temporal frontend address")
	cmd.Flags().String("temporal-namespace", config.DefaultNamespace, "Temporal namespace")
	cmd.Flags().String("task-queue", config.DefaultTaskQueue, "task queue to poll")
	return cmd
}

// registry is satisfied by worker.Worker and the workflow test environment
type registry interface {
	RegisterWorkflow(w interface{})
	RegisterActivity(a interface{})
}

// registerAll registers the plan workflow and its activities on w.
func registerAll(w registry) {
	w.RegisterWorkflow(dag.PlanWorkflow)
	w.RegisterActivity(&dag.ArithmeticActivities{})
}

// startTracing installs the tracer provider when tracing is enabled and
// returns the func that flushes it.
func startTracing(cfg *config.Config, logger *slog.Logger) (func(), error) {
	if !cfg.Telemetry.Enabled {
		return func() {}, nil
	}

	tp, err := telemetry.NewTracerProvider(context.Background(), cfg.Telemetry.Tracing(version))
	if err != nil {
		return nil, fmt.Errorf("unable to start tracing: %w", err)
	}
	logger.Info("Tracing enabled", "collector", cfg.Telemetry.CollectorURL)

	return func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn("Tracer shutdown failed", "error", err)
		}
	}, nil
}

func runWorker(cfg *config.Config) error {
	logger, err := cfg.Logging.NewLogger(os.Stderr)
	if err != nil {
		return err
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(logger),
	})
	if err != nil {
		return fmt.Errorf("unable to create Temporal client: %w", err)
	}
	defer c.Close()

	logger.Info("Connected to Temporal server", "hostPort", cfg.Temporal.HostPort)

	stopTracing, err := startTracing(cfg, logger)
	if err != nil {
		return err
	}
	defer stopTracing()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     50,
		MaxConcurrentWorkflowTaskExecutionSize: 10,
		WorkerStopTimeout:                      30 * time.Second,
	})
	registerAll(w)

	logger.Info("Worker listening", "taskQueue", cfg.Temporal.TaskQueue)

	if err := w.Run(worker.InterruptCh()); err != nil {
		return fmt.Errorf("worker error: %w", err)
	}

	logger.Info("Worker stopped")
	return nil
}

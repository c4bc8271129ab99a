// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"

	"coverage-demo/internal/calculator"
	"coverage-demo/internal/config"
	"coverage-demo/internal/coverage"
	"coverage-demo/pkg/dag"
	"coverage-demo/pkg/types"
)

const submitTimeout = 2 * time.Minute

func parseOperands(args []string) (int32, int32, error) {
	a, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid operand %q: %w", args[0], err)
	}
	b, err := strconv.ParseInt(args[1], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid operand %q: %w", args[1], err)
	}
	return int32(a), int32(b), nil
}

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add A B",
		Short: "Print A + B (wraps on int32 overflow)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, y, err := parseOperands(args)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), calculator.Add(x, y))
			return err
		},
	}
}

func newDivCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "div A B",
		Short: "Print A / B truncated toward zero, or \"absent\" when B is 0",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, y, err := parseOperands(args)
			if err != nil {
				return err
			}
			q, ok := calculator.MaybeDiv(x, y)
			if !ok {
				a.logger.Debug("Division by zero", "a", x)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), formatResult(types.StepResult{Value: q, Present: ok}))
			return err
		},
	}
}

func newPlanCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Evaluate the steps of a plan file",
	}

	run := &cobra.Command{
		Use:   "run [FILE]",
		Short: "Evaluate a plan in-process",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := a.planSteps(args)
			if err != nil {
				return err
			}
			result, err := dag.Evaluate(steps)
			if err != nil {
				return err
			}
			return printPlan(cmd.OutOrStdout(), result)
		},
	}

	submit := &cobra.Command{
		Use:   "submit [FILE]",
		Short: "Evaluate a plan as a Temporal workflow and wait for the result",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := a.planSteps(args)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), submitTimeout)
			defer cancel()

			result, err := a.submitPlan(ctx, steps)
			if err != nil {
				return err
			}
			return printPlan(cmd.OutOrStdout(), result)
		},
	}
	submit.Flags().String("temporal-host-port", config.DefaultHostPort, "Temporal frontend address")
	submit.Flags().String("temporal-namespace", config.DefaultNamespace, "Temporal namespace")
	submit.Flags().String("task-queue", config.DefaultTaskQueue, "task queue the calc worker listens on")

	cmd.AddCommand(run, submit)
	return cmd
}

// planSteps reads steps from the named file, or from the resolved config.
func (a *app) planSteps(args []string) ([]types.Step, error) {
	cfg := a.cfg
	if len(args) == 1 {
		loaded, err := config.Load(args[0])
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	steps, err := cfg.Plan()
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("plan has no steps")
	}
	return steps, nil
}

func (a *app) submitPlan(ctx context.Context, steps []types.Step) (types.PlanResult, error) {
	c, err := a.dial(client.Options{
		HostPort:  a.cfg.Temporal.HostPort,
		Namespace: a.cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(a.logger),
	})
	if err != nil {
		return types.PlanResult{}, fmt.Errorf("unable to connect to Temporal: %w", err)
	}
	defer c.Close()

	input := types.PlanInput{
		PlanID: "calc-plan-" + time.Now().Format("20060102-150405"),
		Steps:  steps,
	}
	options := client.StartWorkflowOptions{
		ID:        input.PlanID,
		TaskQueue: a.cfg.Temporal.TaskQueue,
	}

	we, err := c.ExecuteWorkflow(ctx, options, dag.PlanWorkflow, input)
	if err != nil {
		return types.PlanResult{}, fmt.Errorf("unable to start plan workflow: %w", err)
	}
	a.logger.Info("Plan workflow started", "workflowID", we.GetID(), "runID", we.GetRunID())

	var result types.PlanResult
	if err := we.Get(ctx, &result); err != nil {
		return types.PlanResult{}, fmt.Errorf("plan workflow failed: %w", err)
	}
	return result, nil
}

func newCoverageCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coverage",
		Short: "Run the coverage command and fail below the threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := &coverage.Runner{
				Command: a.cfg.Coverage.Command,
				Dir:     a.cfg.Project.WorkingDirectory,
				Exec:    a.runCoverage,
				Logger:  a.logger,
			}
			report, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}

			if err := printCoverage(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			return report.Check(a.cfg.Coverage.Threshold)
		},
	}
	cmd.Flags().Float64("threshold", 0, "minimum total coverage percentage")
	return cmd
}

func printCoverage(w io.Writer, report *coverage.Report) error {
	for _, p := range report.Packages {
		var err error
		if p.Status == coverage.StatusCovered {
			_, err = fmt.Fprintf(w, "%-50s %6.1f%%\n", p.Package, p.Percent)
		} else {
			_, err = fmt.Fprintf(w, "%-50s %s\n", p.Package, p.Status)
		}
		if err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%-50s %6.1f%%\n", "total", report.Total())
	return err
}

func formatResult(r types.StepResult) string {
	if !r.Present {
		return "absent"
	}
	return strconv.FormatInt(int64(r.Value), 10)
}

func printPlan(w io.Writer, result types.PlanResult) error {
	for _, name := range result.Order {
		if _, err := fmt.Fprintf(w, "%s = %s\n", name, formatResult(result.Results[name])); err != nil {
			return err
		}
	}
	return nil
}

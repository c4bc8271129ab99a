// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package dag

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/log"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"coverage-demo/pkg/types"
)

// Configuration constants
const (
	StartToCloseTimeout     = 30 * time.Second
	RetryInitialInterval    = 1 * time.Second
	RetryMaximumInterval    = 10 * time.Second
	RetryBackoffCoefficient = 2.0
	RetryMaxAttempts        = 3
)

// Engine manages the execution of a plan
type Engine struct {
	Scheduler *Scheduler
}

func NewEngine() *Engine {
	return &Engine{
		Scheduler: &Scheduler{},
	}
}

// Run executes the plan within the given workflow context. Every step whose
// dependencies are resolved runs as an activity in parallel with its peers.
// Steps consuming an absent result are resolved absent without an activity.
// It returns the state so far and an error if any activity fails.
func (e *Engine) Run(ctx workflow.Context, steps []Step) (*State, error) {
	logger := workflow.GetLogger(ctx)

	// 1. Plan
	flatOrder, err := e.Scheduler.BuildExecutionOrder(steps)
	if err != nil {
		return nil, err
	}
	logger.Info("Plan schedule", "order", flatOrder)

	// 2. Initialize State
	state := NewState(steps, flatOrder)

	// 3. Configure Activity Options
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: StartToCloseTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    RetryInitialInterval,
			BackoffCoefficient: RetryBackoffCoefficient,
			MaximumInterval:    RetryMaximumInterval,
			MaximumAttempts:    RetryMaxAttempts,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	// 4. Execute Loop
	activities := &ArithmeticActivities{}

	for !state.Done() {
		progressed := e.scheduleRunnableSteps(ctx, logger, state, activities)

		if len(state.PendingFutures) > 0 {
			if err := e.waitForStepCompletion(ctx, logger, state); err != nil {
				return state, err
			}
		} else if !progressed && !state.Done() {
			return state, fmt.Errorf("plan stalled - no steps runnable (check references)")
		}
	}

	logger.Info("Plan execution complete", "steps", len(state.Results))
	return state, nil
}

// scheduleRunnableSteps starts activities for ready steps and reports whether
// any step was started or resolved inline.
func (e *Engine) scheduleRunnableSteps(ctx workflow.Context, logger log.Logger, state *State, activities *ArithmeticActivities) bool {
	progressed := false
	for _, name := range state.FlatOrder {
		if _, done := state.Results[name]; done || state.PendingFutures[name] != nil {
			continue
		}
		if !e.allDependenciesMet(state, name) {
			continue
		}

		step := state.StepMap[name]
		a, b, ok := resolveOperands(step, state.Results)
		progressed = true
		if !ok {
			logger.Info("Step absent, upstream result missing", "name", name)
			state.Results[name] = StepResult{}
			continue
		}

		logger.Info("Starting step", "name", name, "op", step.Op)
		switch step.Op {
		case types.OpAdd:
			state.PendingFutures[name] = workflow.ExecuteActivity(ctx, activities.Add, a, b)
		case types.OpDiv:
			state.PendingFutures[name] = workflow.ExecuteActivity(ctx, activities.MaybeDiv, a, b)
		}
	}
	return progressed
}

func (e *Engine) allDependenciesMet(state *State, name string) bool {
	for _, dep := range Dependencies(state.StepMap[name]) {
		if _, done := state.Results[dep]; !done {
			return false
		}
	}
	return true
}

func (e *Engine) waitForStepCompletion(ctx workflow.Context, logger log.Logger, state *State) error {
	selector := workflow.NewSelector(ctx)

	// Futures are added in FlatOrder so replays see the same order.
	for _, name := range state.FlatOrder {
		future := state.PendingFutures[name]
		if future == nil {
			continue
		}
		stepName := name
		selector.AddFuture(future, func(f workflow.Future) {
			result, err := decodeResult(ctx, state.StepMap[stepName], f)
			if err != nil {
				logger.Error("Step failed", "name", stepName, "error", err)
				state.FailedSteps = append(state.FailedSteps, stepName)
			} else {
				logger.Info("Step completed", "name", stepName, "value", result.Value, "present", result.Present)
				state.Results[stepName] = result
			}

			delete(state.PendingFutures, stepName)
		})
	}

	selector.Select(ctx)

	if len(state.FailedSteps) > 0 {
		return fmt.Errorf("steps failed: %v", state.FailedSteps)
	}
	return nil
}

func decodeResult(ctx workflow.Context, step Step, f workflow.Future) (StepResult, error) {
	if step.Op == types.OpDiv {
		var result StepResult
		err := f.Get(ctx, &result)
		return result, err
	}

	var sum int32
	if err := f.Get(ctx, &sum); err != nil {
		return StepResult{}, err
	}
	return StepResult{Value: sum, Present: true}, nil
}

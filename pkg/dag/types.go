// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package dag

import (
	"go.temporal.io/sdk/workflow"

	"coverage-demo/pkg/types"
)

// Re-export public types for convenience
type (
	Step           = types.Step
	Operand        = types.Operand
	StepResult     = types.StepResult
	WorkflowInput  = types.PlanInput
	WorkflowResult = types.PlanResult
)

// State holds the mutable state of a running plan.
type State struct {
	StepMap        map[string]Step
	FlatOrder      []string
	Results        map[string]StepResult
	PendingFutures map[string]workflow.Future
	FailedSteps    []string
}

// NewState indexes steps by name for a run in the given order.
func NewState(steps []Step, order []string) *State {
	stepMap := make(map[string]Step, len(steps))
	for _, s := range steps {
		stepMap[s.Name] = s
	}

	return &State{
		StepMap:        stepMap,
		FlatOrder:      order,
		Results:        make(map[string]StepResult, len(steps)),
		PendingFutures: make(map[string]workflow.Future),
		FailedSteps:    make([]string, 0),
	}
}

// Done reports whether every step has a result.
func (s *State) Done() bool {
	return len(s.Results) == len(s.StepMap)
}

// Result converts the state into the workflow's return value.
func (s *State) Result() WorkflowResult {
	return WorkflowResult{Order: s.FlatOrder, Results: s.Results}
}

// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package dag

import (
	"coverage-demo/internal/calculator"
	"coverage-demo/pkg/types"
)

// Evaluate resolves every step in-process, in topological order.
// A division by zero makes its step absent, and every step consuming an
// absent result is absent too. Neither is an error.
func Evaluate(steps []Step) (WorkflowResult, error) {
	order, err := (&Scheduler{}).BuildExecutionOrder(steps)
	if err != nil {
		return WorkflowResult{}, err
	}

	state := NewState(steps, order)
	for _, name := range order {
		state.Results[name] = apply(state.StepMap[name], state.Results)
	}
	return state.Result(), nil
}

// resolveOperands returns both operand values, or false if either references an absent result.
func resolveOperands(step Step, results map[string]StepResult) (int32, int32, bool) {
	a, okA := resolve(step.A, results)
	b, okB := resolve(step.B, results)
	return a, b, okA && okB
}

func resolve(op Operand, results map[string]StepResult) (int32, bool) {
	if op.Ref == "" {
		return op.Literal, true
	}
	r, ok := results[op.Ref]
	if !ok || !r.Present {
		return 0, false
	}
	return r.Value, true
}

func apply(step Step, results map[string]StepResult) StepResult {
	a, b, ok := resolveOperands(step, results)
	if !ok {
		return StepResult{}
	}

	switch step.Op {
	case types.OpAdd:
		return StepResult{Value: calculator.Add(a, b), Present: true}
	case types.OpDiv:
		q, ok := calculator.MaybeDiv(a, b)
		return StepResult{Value: q, Present: ok}
	}
	return StepResult{}
}

// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package types provides the plan types shared between the evaluator,
// the Temporal workflow and the configuration loader.
//
// Types here should be:
// - Pure data structures (no behavior)
// - Serializable for Temporal workflows
// - Free of imports from internal packages
package types

// ============================================================================
// PLAN TYPES
// ============================================================================

// Op names an arithmetic operation a step performs.
type Op string

const (
	// OpAdd sums both operands, wrapping on int32 overflow.
	OpAdd Op = "add"

	// OpDiv divides A by B, truncating toward zero. Absent when B is zero.
	OpDiv Op = "div"
)

// Operand is either a literal value or a reference to another step's result.
// A non-empty Ref takes precedence over Literal.
type Operand struct {
	// Literal is the operand value when Ref is empty
	Literal int32

	// Ref is the name of the step whose result feeds this operand
	Ref string
}

// Step is a single named arithmetic operation in a plan.
// Its dependencies are the steps its operands reference.
type Step struct {
	// Name is the unique identifier for this step within the plan
	Name string

	// Op is the operation to apply
	Op Op

	// A is the left operand (the dividend for OpDiv)
	A Operand

	// B is the right operand (the divisor for OpDiv)
	B Operand
}

// PlanInput defines input for plan workflow execution.
type PlanInput struct {
	// PlanID is the unique identifier for this plan execution
	PlanID string

	// Steps is the list of all steps, in any order
	Steps []Step
}

// StepResult is the optional outcome of a step.
// Present is false when a division by zero occurred in the step or upstream of it.
type StepResult struct {
	Value   int32
	Present bool
}

// PlanResult holds every step's outcome and the order they were resolved in.
type PlanResult struct {
	// Order is the topological order the plan was scheduled in
	Order []string

	// Results maps step names to their outcome
	Results map[string]StepResult
}

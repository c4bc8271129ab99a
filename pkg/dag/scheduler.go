// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package dag

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gammazero/toposort"

	"coverage-demo/pkg/types"
)

var (
	// ErrCycle is returned when step references form a cycle.
	ErrCycle = errors.New("cycle detected in plan")

	// ErrUnknownStep is returned when an operand references a step that does not exist.
	ErrUnknownStep = errors.New("unknown step")

	// ErrDuplicateStep is returned when two steps share a name.
	ErrDuplicateStep = errors.New("duplicate step")

	// ErrUnknownOp is returned for an operation other than add or div.
	ErrUnknownOp = errors.New("unknown operation")
)

// Scheduler handles dependency resolution
type Scheduler struct{}

// Dependencies returns the names of the steps whose results the step consumes.
func Dependencies(step Step) []string {
	deps := make([]string, 0, 2)
	if step.A.Ref != "" {
		deps = append(deps, step.A.Ref)
	}
	if step.B.Ref != "" && step.B.Ref != step.A.Ref {
		deps = append(deps, step.B.Ref)
	}
	return deps
}

// Validate checks step names, operations and references without ordering them.
func (s *Scheduler) Validate(steps []Step) error {
	names := make(map[string]bool, len(steps))
	for i, st := range steps {
		if st.Name == "" {
			return fmt.Errorf("step %d has no name", i)
		}
		if names[st.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateStep, st.Name)
		}
		names[st.Name] = true

		switch st.Op {
		case types.OpAdd, types.OpDiv:
		default:
			return fmt.Errorf("step %s: %w %q", st.Name, ErrUnknownOp, st.Op)
		}
	}

	for _, st := range steps {
		for _, dep := range Dependencies(st) {
			if !names[dep] {
				return fmt.Errorf("step %s: %w %q", st.Name, ErrUnknownStep, dep)
			}
		}
	}
	return nil
}

// BuildExecutionOrder validates the steps and performs a topological sort.
// Returns a flat list of step names in safe execution order. Steps outside
// the dependency graph come first, in input order. The rest follow in
// dependency order with ties broken by input position, so the same steps
// always give the same order.
func (s *Scheduler) BuildExecutionOrder(steps []Step) ([]string, error) {
	if len(steps) == 0 {
		return []string{}, nil
	}
	if err := s.Validate(steps); err != nil {
		return nil, err
	}

	// Build edges from operand references
	edges := make([]toposort.Edge, 0)
	inGraph := make(map[string]bool)
	for _, st := range steps {
		for _, dep := range Dependencies(st) {
			edges = append(edges, toposort.Edge{dep, st.Name})
			inGraph[dep] = true
			inGraph[st.Name] = true
		}
	}

	flatOrder := make([]string, 0, len(steps))
	for _, st := range steps {
		if !inGraph[st.Name] {
			flatOrder = append(flatOrder, st.Name)
		}
	}
	if len(edges) == 0 {
		return flatOrder, nil
	}

	// toposort detects cycles; its order is not stable between calls.
	if _, err := toposort.Toposort(edges); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCycle, err)
	}

	sorted, err := kahnOrder(steps, inGraph)
	if err != nil {
		return nil, err
	}
	return append(flatOrder, sorted...), nil
}

// kahnOrder sorts the steps in the graph, always emitting the ready step
// that appears first in the input.
func kahnOrder(steps []Step, inGraph map[string]bool) ([]string, error) {
	index := make(map[string]int, len(steps))
	for i, st := range steps {
		index[st.Name] = i
	}

	inDegree := make([]int, len(steps))
	dependents := make([][]int, len(steps))
	total := 0
	for i, st := range steps {
		if !inGraph[st.Name] {
			continue
		}
		total++
		for _, dep := range Dependencies(st) {
			j := index[dep]
			inDegree[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	ready := make([]int, 0, total)
	for i, st := range steps {
		if inGraph[st.Name] && inDegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]string, 0, total)
	for len(ready) > 0 {
		sort.Ints(ready)
		next := ready[0]
		ready = ready[1:]
		order = append(order, steps[next].Name)

		for _, d := range dependents[next] {
			inDegree[d]--
			if inDegree[d] == 0 {
				ready = append(ready, d)
			}
		}
	}

	if len(order) != total {
		return nil, fmt.Errorf("%w: %d steps unreachable", ErrCycle, total-len(order))
	}
	return order, nil
}

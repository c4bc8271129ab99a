// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package dag_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coverage-demo/pkg/dag"
	"coverage-demo/pkg/types"
)

func lit(v int32) types.Operand { return types.Operand{Literal: v} }
func ref(name string) types.Operand { return types.Operand{Ref: name} }

// indexOf finds the position of each named step in an order
func indexOf(order []string, names ...string) map[string]int {
	indices := make(map[string]int, len(names))
	for _, name := range names {
		indices[name] = -1
	}
	for i, name := range order {
		if _, exists := indices[name]; exists {
			indices[name] = i
		}
	}
	return indices
}

func TestDependencies(t *testing.T) {
	tests := []struct {
		name string
		step dag.Step
		want []string
	}{
		{"literals only", dag.Step{Name: "s", Op: types.OpAdd, A: lit(1), B: lit(2)}, []string{}},
		{"left reference", dag.Step{Name: "s", Op: types.OpAdd, A: ref("x"), B: lit(2)}, []string{"x"}},
		{"both references", dag.Step{Name: "s", Op: types.OpDiv, A: ref("x"), B: ref("y")}, []string{"x", "y"}},
		{"same reference twice", dag.Step{Name: "s", Op: types.OpAdd, A: ref("x"), B: ref("x")}, []string{"x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dag.Dependencies(tt.step))
		})
	}
}

func TestBuildExecutionOrder(t *testing.T) {
	tests := []struct {
		name        string
		steps       []dag.Step
		wantErr     error
		verifyOrder func(t *testing.T, order []string)
	}{
		{
			name:  "empty plan",
			steps: nil,
			verifyOrder: func(t *testing.T, order []string) {
				assert.Empty(t, order)
			},
		},
		{
			name: "independent steps keep input order",
			steps: []dag.Step{
				{Name: "b", Op: types.OpAdd, A: lit(1), B: lit(1)},
				{Name: "a", Op: types.OpDiv, A: lit(4), B: lit(2)},
			},
			verifyOrder: func(t *testing.T, order []string) {
				assert.Equal(t, []string{"b", "a"}, order)
			},
		},
		{
			name: "linear chain",
			steps: []dag.Step{
				{Name: "third", Op: types.OpAdd, A: ref("second"), B: lit(1)},
				{Name: "second", Op: types.OpAdd, A: ref("first"), B: lit(1)},
				{Name: "first", Op: types.OpAdd, A: lit(0), B: lit(1)},
			},
			verifyOrder: func(t *testing.T, order []string) {
				idx := indexOf(order, "first", "second", "third")
				assert.Greater(t, idx["second"], idx["first"])
				assert.Greater(t, idx["third"], idx["second"])
			},
		},
		{
			name: "diamond",
			steps: []dag.Step{
				{Name: "a", Op: types.OpAdd, A: lit(1), B: lit(1)},
				{Name: "b", Op: types.OpAdd, A: ref("a"), B: lit(1)},
				{Name: "c", Op: types.OpDiv, A: ref("a"), B: lit(2)},
				{Name: "d", Op: types.OpAdd, A: ref("b"), B: ref("c")},
				{Name: "lone", Op: types.OpAdd, A: lit(9), B: lit(9)},
			},
			verifyOrder: func(t *testing.T, order []string) {
				require.Len(t, order, 5)
				assert.Equal(t, "lone", order[0])
				idx := indexOf(order, "a", "b", "c", "d")
				assert.Greater(t, idx["b"], idx["a"])
				assert.Greater(t, idx["c"], idx["a"])
				assert.Greater(t, idx["d"], idx["b"])
				assert.Greater(t, idx["d"], idx["c"])
				assert.Equal(t, []string{"lone", "a", "b", "c", "d"}, order)
			},
		},
		{
			name: "self reference",
			steps: []dag.Step{
				{Name: "loop", Op: types.OpAdd, A: ref("loop"), B: lit(1)},
			},
			wantErr: dag.ErrCycle,
		},
		{
			name: "circular chain",
			steps: []dag.Step{
				{Name: "a", Op: types.OpAdd, A: ref("c"), B: lit(1)},
				{Name: "b", Op: types.OpAdd, A: ref("a"), B: lit(1)},
				{Name: "c", Op: types.OpAdd, A: ref("b"), B: lit(1)},
			},
			wantErr: dag.ErrCycle,
		},
		{
			name: "missing reference",
			steps: []dag.Step{
				{Name: "a", Op: types.OpAdd, A: ref("nonexistent"), B: lit(1)},
			},
			wantErr: dag.ErrUnknownStep,
		},
		{
			name: "duplicate name",
			steps: []dag.Step{
				{Name: "a", Op: types.OpAdd, A: lit(1), B: lit(1)},
				{Name: "a", Op: types.OpDiv, A: lit(1), B: lit(1)},
			},
			wantErr: dag.ErrDuplicateStep,
		},
		{
			name: "unknown operation",
			steps: []dag.Step{
				{Name: "a", Op: types.Op("mul"), A: lit(1), B: lit(1)},
			},
			wantErr: dag.ErrUnknownOp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := (&dag.Scheduler{}).BuildExecutionOrder(tt.steps)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, order, len(tt.steps))
			if tt.verifyOrder != nil {
				tt.verifyOrder(t, order)
			}
		})
	}
}

func TestBuildExecutionOrder_Stable(t *testing.T) {
	// Two roots feeding two siblings, listed out of dependency order
	steps := []dag.Step{
		{Name: "d", Op: types.OpDiv, A: ref("a"), B: ref("b")},
		{Name: "c", Op: types.OpAdd, A: ref("a"), B: ref("b")},
		{Name: "b", Op: types.OpAdd, A: lit(3), B: lit(4)},
		{Name: "a", Op: types.OpAdd, A: lit(1), B: lit(2)},
	}

	scheduler := &dag.Scheduler{}
	first, err := scheduler.BuildExecutionOrder(steps)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "d", "c"}, first)

	for i := 0; i < 100; i++ {
		order, err := scheduler.BuildExecutionOrder(steps)
		require.NoError(t, err)
		require.Equal(t, first, order, "iteration %d", i)
	}
}

func TestValidate_RejectsUnnamedStep(t *testing.T) {
	err := (&dag.Scheduler{}).Validate([]dag.Step{{Op: types.OpAdd}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no name")
}

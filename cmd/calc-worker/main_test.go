// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package main

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.temporal.io/sdk/testsuite"

	"coverage-demo/internal/config"
	"coverage-demo/pkg/dag"
	"coverage-demo/pkg/types"
)

func TestRegisterAll(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	registerAll(env)

	env.ExecuteWorkflow(dag.PlanWorkflowName, types.PlanInput{
		PlanID: "registered",
		Steps: []types.Step{
			{Name: "q", Op: types.OpDiv, A: types.Operand{Literal: 9}, B: types.Operand{Literal: 3}},
		},
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result types.PlanResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, types.StepResult{Value: 3, Present: true}, result.Results["q"])
}

func TestNewRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"config", "log-format", "log-level", "temporal-host-port", "temporal-namespace", "task-queue"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag %s", name)
	}
}

func TestStartTracing(t *testing.T) {
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })
	otel.SetTracerProvider(noop.NewTracerProvider())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := config.Default()
	stop, err := startTracing(cfg, logger)
	require.NoError(t, err)
	stop()
	_, isSDK := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.False(t, isSDK, "disabled tracing leaves the global provider alone")

	cfg.Telemetry.Enabled = true
	cfg.Telemetry.CollectorURL = "127.0.0.1:4318"
	stop, err = startTracing(cfg, logger)
	require.NoError(t, err)
	_, isSDK = otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, isSDK)
	stop()
}

// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })
	return rec
}

func TestNewTracerProvider(t *testing.T) {
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })

	cfg := DefaultConfig()
	cfg.CollectorURL = "127.0.0.1:4318"

	tp, err := NewTracerProvider(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, tp)

	_, isSDK := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, isSDK, "provider should be installed globally")

	// Nothing was exported, so shutdown does not touch the collector.
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestShutdown_NilProvider(t *testing.T) {
	var tp *TracerProvider
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestFinish(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus codes.Code
		wantEvents int
	}{
		{"success", nil, codes.Ok, 0},
		{"failure", errors.New("boom"), codes.Error, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := recordSpans(t)

			_, span := StartSpan(context.Background(), "calc.test", "work")
			Finish(span, tt.err)

			spans := rec.Ended()
			require.Len(t, spans, 1)
			assert.Equal(t, "work", spans[0].Name())
			assert.Equal(t, tt.wantStatus, spans[0].Status().Code)
			assert.Len(t, spans[0].Events(), tt.wantEvents)
		})
	}
}

func TestAttrHelpers(t *testing.T) {
	assert.Empty(t, ErrorAttrs(nil))
	assert.Len(t, ErrorAttrs(errors.New("x")), 2)

	ops := OperandAttrs(-3, 5)
	require.Len(t, ops, 2)
	assert.Equal(t, int64(-3), ops[0].Value.AsInt64())
	assert.Equal(t, int64(5), ops[1].Value.AsInt64())

	cov := CoverageAttrs(87.5, 4, 1)
	require.Len(t, cov, 3)
	assert.Equal(t, 87.5, cov[0].Value.AsFloat64())

	act := ActivityAttrs("wf", "7", "Add")
	assert.Equal(t, "Add", act[2].Value.AsString())
}

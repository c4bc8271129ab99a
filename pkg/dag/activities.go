// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package dag

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.temporal.io/sdk/activity"

	"coverage-demo/internal/calculator"
	"coverage-demo/internal/telemetry"
)

const tracerName = "calc.activities"

// ArithmeticActivities exposes the calculator as Temporal activities.
type ArithmeticActivities struct{}

// Add sums a and b, wrapping on overflow.
func (aa *ArithmeticActivities) Add(ctx context.Context, a, b int32) (int32, error) {
	ctx, span := startActivitySpan(ctx, "Add", a, b)
	sum := calculator.Add(a, b)
	span.SetAttributes(telemetry.AttrResult.Int64(int64(sum)), telemetry.AttrPresent.Bool(true))
	telemetry.Finish(span, nil)

	activity.GetLogger(ctx).Debug("Add", "a", a, "b", b, "sum", sum)
	return sum, nil
}

// MaybeDiv divides a by b. The result is absent when b is zero.
func (aa *ArithmeticActivities) MaybeDiv(ctx context.Context, a, b int32) (StepResult, error) {
	ctx, span := startActivitySpan(ctx, "MaybeDiv", a, b)
	q, ok := calculator.MaybeDiv(a, b)
	span.SetAttributes(telemetry.AttrPresent.Bool(ok))
	if ok {
		span.SetAttributes(telemetry.AttrResult.Int64(int64(q)))
	}
	telemetry.Finish(span, nil)

	activity.GetLogger(ctx).Debug("MaybeDiv", "a", a, "b", b, "quotient", q, "present", ok)
	return StepResult{Value: q, Present: ok}, nil
}

func startActivitySpan(ctx context.Context, name string, a, b int32) (context.Context, trace.Span) {
	info := activity.GetInfo(ctx)
	attrs := telemetry.ActivityAttrs(info.WorkflowExecution.ID, info.ActivityID, info.ActivityType.Name)
	attrs = append(attrs, telemetry.OperandAttrs(a, b)...)
	return telemetry.StartSpan(ctx, tracerName, name, trace.WithAttributes(attrs...))
}

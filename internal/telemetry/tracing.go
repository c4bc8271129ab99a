// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package telemetry configures OpenTelemetry tracing for the calc binaries
// and holds the span helpers and attribute keys they share.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const shutdownTimeout = 10 * time.Second

// TracerProvider manages the OpenTelemetry tracer provider
type TracerProvider struct {
	provider *sdktrace.TracerProvider
}

// Config holds OpenTelemetry configuration
type Config struct {
	ServiceName    string
	ServiceVersion string
	CollectorURL   string // OTLP HTTP endpoint, host:port without scheme
	Environment    string
	SamplingRate   float64
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		ServiceName:    "calc",
		ServiceVersion: "dev",
		CollectorURL:   "localhost:4318",
		Environment:    "development",
		SamplingRate:   1.0,
	}
}

// NewTracerProvider creates a tracer provider exporting over OTLP HTTP and
// installs it as the global provider.
func NewTracerProvider(ctx context.Context, config *Config) (*TracerProvider, error) {
	if config == nil {
		config = DefaultConfig()
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			attribute.String("environment", config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(config.CollectorURL),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(config.SamplingRate)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracerProvider{provider: tp}, nil
}

// Shutdown flushes pending spans and stops the provider
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp == nil || tp.provider == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	return tp.provider.Shutdown(shutdownCtx)
}

// StartSpan starts a span on the named tracer of the global provider.
func StartSpan(ctx context.Context, tracerName, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, spanName, opts...)
}

// Finish records err on span, sets its status and ends it.
func Finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err, trace.WithAttributes(ErrorAttrs(err)...))
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// Attribute keys
const (
	AttrWorkflowID   = attribute.Key("workflow.id")
	AttrActivityID   = attribute.Key("activity.id")
	AttrActivityType = attribute.Key("activity.type")

	AttrOperandA = attribute.Key("calc.operand.a")
	AttrOperandB = attribute.Key("calc.operand.b")
	AttrResult   = attribute.Key("calc.result")
	AttrPresent  = attribute.Key("calc.present")

	AttrCommand          = attribute.Key("coverage.command")
	AttrCoverageTotal    = attribute.Key("coverage.total")
	AttrCoveragePackages = attribute.Key("coverage.packages")
	AttrCoverageFailed   = attribute.Key("coverage.failed")

	AttrError        = attribute.Key("error")
	AttrErrorMessage = attribute.Key("error.message")
)

// ActivityAttrs creates attributes for an activity execution
func ActivityAttrs(workflowID, activityID, activityType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrWorkflowID.String(workflowID),
		AttrActivityID.String(activityID),
		AttrActivityType.String(activityType),
	}
}

// OperandAttrs creates attributes for the operands of one operation
func OperandAttrs(a, b int32) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrOperandA.Int64(int64(a)),
		AttrOperandB.Int64(int64(b)),
	}
}

// CoverageAttrs summarizes a coverage run
func CoverageAttrs(total float64, packages, failed int) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrCoverageTotal.Float64(total),
		AttrCoveragePackages.Int(packages),
		AttrCoverageFailed.Int(failed),
	}
}

// ErrorAttrs creates attributes for errors
func ErrorAttrs(err error) []attribute.KeyValue {
	if err == nil {
		return []attribute.KeyValue{}
	}
	return []attribute.KeyValue{
		AttrError.Bool(true),
		AttrErrorMessage.String(err.Error()),
	}
}

//
// Copyright (C) 2025 AIFlowForge.  All rights reserved.
//
// AIFlowForge is licensed under the Apache License Version 2.0.
//
//

// Package trace provides the tracer the engine and server instrument
// with. It is a no-op until Start wires an OTLP exporter.
package trace

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "github.com/chavannishanthrao/AIFlowForge"

// TracerProvider is the global tracer provider for telemetry.
var TracerProvider trace.TracerProvider = noop.NewTracerProvider()

// Tracer is the global tracer instance for telemetry.
var Tracer trace.Tracer = TracerProvider.Tracer(instrumentationName)

// Option configures Start.
type Option func(*options)

type options struct {
	serviceName string
	endpoint    string
}

// WithServiceName sets the reported service name.
func WithServiceName(name string) Option {
	return func(o *options) { o.serviceName = name }
}

// WithEndpoint sets the OTLP gRPC collector endpoint.
func WithEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = endpoint }
}

// Start installs an OTLP trace exporter and replaces the global tracer.
// The returned clean function flushes and shuts the provider down.
// The OTEL_EXPORTER_OTLP_ENDPOINT environment variable applies when no
// endpoint option is given.
func Start(ctx context.Context, opts ...Option) (clean func() error, err error) {
	o := options{serviceName: "aiflowforge"}
	for _, opt := range opts {
		opt(&o)
	}

	var exporterOpts []otlptracegrpc.Option
	if o.endpoint != "" {
		exporterOpts = append(exporterOpts,
			otlptracegrpc.WithEndpoint(o.endpoint),
			otlptracegrpc.WithInsecure(),
		)
	}
	exporter, err := otlptracegrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(o.serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("create telemetry resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	TracerProvider = provider
	Tracer = provider.Tracer(instrumentationName)

	return func() error {
		return provider.Shutdown(context.Background())
	}, nil
}

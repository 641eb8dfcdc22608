// Copyright (C) 2025 DeepCurrent AI (jmercer@deepcurrent.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package telemetry wires OpenTelemetry tracing into the researcher CLI.
//
// Tracing is off by default. Setting RESEARCHER_TRACE to a file path writes
// pretty-printed spans there; setting it to "stderr" writes them to stderr.
// When disabled, Init installs nothing and the helpers operate on no-op
// spans, so call sites never need to check whether tracing is active.
package telemetry

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// TraceEnvVar selects the trace destination. Empty disables tracing.
const TraceEnvVar = "RESEARCHER_TRACE"

// Config controls tracer setup.
type Config struct {
	// ServiceName identifies this binary in exported spans.
	ServiceName string

	// ServiceVersion is the release version string.
	ServiceVersion string

	// Destination is a file path, "stderr", or "" (disabled). Init reads
	// RESEARCHER_TRACE when this is empty.
	Destination string
}

// DefaultConfig returns the standard CLI tracing configuration.
func DefaultConfig(version string) Config {
	return Config{
		ServiceName:    "researcher",
		ServiceVersion: version,
		Destination:    os.Getenv(TraceEnvVar),
	}
}

// Init installs the global TracerProvider per cfg. The returned shutdown
// function flushes buffered spans and must be called on exit. When tracing
// is disabled it returns a no-op shutdown and leaves the global provider
// untouched.
func Init(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	if cfg.Destination == "" {
		return noop, nil
	}

	var opts []stdouttrace.Option
	switch cfg.Destination {
	case "stderr":
		opts = append(opts, stdouttrace.WithWriter(os.Stderr))
	default:
		f, err := os.OpenFile(cfg.Destination, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
		if err != nil {
			return nil, fmt.Errorf("open trace file: %w", err)
		}
		opts = append(opts, stdouttrace.WithWriter(f))
	}
	opts = append(opts, stdouttrace.WithPrettyPrint())

	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

// TracingConfig controls span export.
type TracingConfig struct {
	// ServiceName identifies this process in exported spans.
	ServiceName string

	// ServiceVersion is the version string for this process.
	ServiceVersion string

	// Output receives the exported spans. Defaults to os.Stderr so stdout
	// carries only result lines.
	Output io.Writer

	// PrettyPrint indents the exported JSON.
	PrettyPrint bool
}

// DefaultTracingConfig returns the configuration used by --trace.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName:    "knapsackbench",
		ServiceVersion: "1.0.0",
		Output:         os.Stderr,
		PrettyPrint:    true,
	}
}

// InitTracing installs a global TracerProvider that writes spans as JSON.
//
// Description:
//
//	After InitTracing returns, spans started through otel.Tracer are
//	batched and written to cfg.Output. The returned shutdown function
//	flushes pending spans and stops the provider. It must be called before
//	the process exits or trailing spans are lost.
//
// Inputs:
//   - ctx: Context for initialization. Must not be nil.
//   - cfg: Tracing configuration.
//
// Outputs:
//   - shutdown: Flushes and stops the provider.
//   - error: Non-nil if the exporter cannot be created.
//
// Example:
//
//	shutdown, err := telemetry.InitTracing(ctx, telemetry.DefaultTracingConfig())
//	if err != nil {
//	    return fmt.Errorf("init tracing: %w", err)
//	}
//	defer shutdown(context.Background())
//
// Thread Safety: Call once at startup.
func InitTracing(ctx context.Context, cfg TracingConfig) (shutdown func(context.Context) error, err error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := []stdouttrace.Option{stdouttrace.WithWriter(out)}
	if cfg.PrettyPrint {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
	)

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)

	return func(ctx context.Context) error {
		var errs []error
		if err := tp.ForceFlush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush spans: %w", err))
		}
		if err := tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracer: %w", err))
		}
		return errors.Join(errs...)
	}, nil
}

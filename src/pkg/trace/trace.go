// Package trace wires the OpenTelemetry SDK behind two helpers so the
// run phases can be spanned without every caller touching provider
// setup. Spans are only exported when the run asks for it.
package trace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

var logger *log.Entry = log.New().WithFields(log.Fields{
	"package": "trace",
})

// ExportFilename is the trace file written under the output directory
// when export is enabled.
const ExportFilename = "trace.json"

const tracerName = "repo-contractchk"

// InitTracer installs the global tracer provider. With export enabled,
// finished spans are written as pretty-printed JSON to trace.json under
// outputDir. The returned function flushes and shuts the provider down.
func InitTracer(serviceName string, enableExport bool, outputDir string) (func(), error) {
	providerOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		)),
	}

	var closeFile func()
	if enableExport {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
		filePath := filepath.Join(outputDir, ExportFilename)
		file, err := os.Create(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create trace file: %w", err)
		}
		exporter, err := stdouttrace.New(
			stdouttrace.WithWriter(file),
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		providerOpts = append(providerOpts, sdktrace.WithBatcher(exporter))
		closeFile = func() { file.Close() }
		logger.WithField("path", filePath).Debug("Trace export enabled")
	}

	provider := sdktrace.NewTracerProvider(providerOpts...)
	otel.SetTracerProvider(provider)

	shutdown := func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Warn("Failed to shut down tracer provider")
		}
		if closeFile != nil {
			closeFile()
		}
	}
	return shutdown, nil
}

// StartSpan starts a named span on the global tracer provider. Callers
// must End the returned span.
func StartSpan(ctx context.Context, name string) (context.Context, oteltrace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name)
}

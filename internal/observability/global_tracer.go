package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var globalTracer trace.Tracer

// InitGlobalTracer initializes the global tracer for the application.
func InitGlobalTracer() {
	globalTracer = otel.Tracer(instrumentationName)
}

// GetGlobalTracer returns the global tracer instance for the application.
func GetGlobalTracer() trace.Tracer {
	if globalTracer == nil {
		globalTracer = otel.Tracer(instrumentationName)
	}
	return globalTracer
}

// TraceFunction starts a new span named "<component>.<function>".
func TraceFunction(ctx context.Context, component, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return GetGlobalTracer().Start(ctx, fmt.Sprintf("%s.%s", component, functionName), trace.WithAttributes(attributes...))
}

// TraceHandlerFunction starts a new span for an HTTP handler.
func TraceHandlerFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "handler", functionName, attributes...)
}

// TraceServiceFunction starts a new span for a service call.
func TraceServiceFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "service", functionName, attributes...)
}

// TraceReleaseFunction starts a new span for a step of the version bump workflow.
func TraceReleaseFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "release", functionName, attributes...)
}

// AttributeVersion returns an attribute for a version identifier.
func AttributeVersion(key, version string) attribute.KeyValue {
	return attribute.String("version."+key, version)
}

// AttributePath returns an attribute for a file path.
func AttributePath(path string) attribute.KeyValue {
	return attribute.String("file.path", path)
}

// AttributeCommand returns an attribute for an external command line.
func AttributeCommand(command string) attribute.KeyValue {
	return attribute.String("process.command_line", command)
}

// AttributeValidation creates an attribute describing the outcome of schema validation.
func AttributeValidation(result string) attribute.KeyValue {
	return attribute.String("validation.result", result)
}

package observability

import (
	"context"

	"jupyterchat/internal/config"
	contextutils "jupyterchat/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// InitMetrics initializes OpenTelemetry metrics
func InitMetrics(cfg *config.OpenTelemetryConfig) (result0 *metric.MeterProvider, err error) {
	ctx := context.Background()

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create otel resource: %w", err)
	}

	var exporter metric.Exporter
	switch cfg.Protocol {
	case "grpc":
		opts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
			otlpmetricgrpc.WithHeaders(cfg.Headers),
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		exporter, err = otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create otlp grpc metric exporter: %w", err)
		}
	case "http":
		opts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(cfg.Endpoint),
			otlpmetrichttp.WithHeaders(cfg.Headers),
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exporter, err = otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create otlp http metric exporter: %w", err)
		}
	default:
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unsupported otel protocol: %s", cfg.Protocol)
	}

	return metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter)),
		metric.WithResource(res),
	), nil
}

// ServerMetrics holds the counters recorded by the chat config server
type ServerMetrics struct {
	configRequests      otelmetric.Int64Counter
	feedbackSubmissions otelmetric.Int64Counter
}

// NewServerMetrics registers the server counters on the given meter provider.
// A nil provider means the global one, which is a no-op unless metrics are enabled.
func NewServerMetrics(mp otelmetric.MeterProvider) (*ServerMetrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	configRequests, err := meter.Int64Counter("jupyterchat.config.requests",
		otelmetric.WithDescription("Number of chat config requests served"))
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create config request counter: %w", err)
	}

	feedbackSubmissions, err := meter.Int64Counter("jupyterchat.feedback.submissions",
		otelmetric.WithDescription("Number of feedback submissions relayed, by outcome"))
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create feedback counter: %w", err)
	}

	return &ServerMetrics{
		configRequests:      configRequests,
		feedbackSubmissions: feedbackSubmissions,
	}, nil
}

// RecordConfigRequest counts one served config request
func (m *ServerMetrics) RecordConfigRequest(ctx context.Context, feedbackConfigured bool) {
	if m == nil {
		return
	}
	m.configRequests.Add(ctx, 1, otelmetric.WithAttributes(attribute.Bool("feedback_configured", feedbackConfigured)))
}

// RecordFeedback counts one feedback relay attempt with its outcome ("submitted", "not_configured", "invalid", "failed")
func (m *ServerMetrics) RecordFeedback(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.feedbackSubmissions.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("outcome", outcome)))
}

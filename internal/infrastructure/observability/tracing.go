package observability

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"presentation-server/internal/config"
)

const tracerName = "presentation-server/slide-image-api"

// Setup initialises OpenTelemetry tracing. It returns a shutdown function
// that must be invoked on exit.
func Setup(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (func(context.Context) error, error) {
	if !cfg.EnableTracing {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, err
	}

	var tracerProvider *sdktrace.TracerProvider

	if cfg.OTLPEndpoint != "" {
		// Allow both "collector:4318" and full http(s) URLs.
		endpoint := cfg.OTLPEndpoint
		insecure := true
		if strings.HasPrefix(endpoint, "http://") {
			endpoint = strings.TrimPrefix(endpoint, "http://")
		} else if strings.HasPrefix(endpoint, "https://") {
			endpoint = strings.TrimPrefix(endpoint, "https://")
			insecure = false
		}

		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
		if insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}

		exporter, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, err
		}

		tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithBatcher(exporter),
		)
	} else {
		tracerProvider = sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	}

	otel.SetTracerProvider(tracerProvider)

	shutdown := func(ctx context.Context) error {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("shutdown tracer provider")
			return err
		}
		return nil
	}

	return shutdown, nil
}

// GetTracer returns the tracer for the slide-image service.
func GetTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// SlideAttributes returns common attributes for slide pipeline spans.
func SlideAttributes(sessionID, slideID string, promptLen int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("slide.session_id", sessionID),
		attribute.String("slide.id", slideID),
		attribute.Int("slide.prompt_length", promptLen),
	}
}

// StartLookupSpan starts a span for a cache/store hit check.
func StartLookupSpan(ctx context.Context, sessionID, slideID string, promptLen int) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "slide.lookup",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(SlideAttributes(sessionID, slideID, promptLen)...),
	)
}

// StartGenerationSpan starts a span for one provider generation call.
func StartGenerationSpan(ctx context.Context, sessionID, slideID string, promptLen int) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "slide.generate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(SlideAttributes(sessionID, slideID, promptLen)...),
	)
}

// StartPersistSpan starts a span for the fire-and-forget store write.
func StartPersistSpan(ctx context.Context, sessionID, slideID string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "slide.persist",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("slide.session_id", sessionID),
			attribute.String("slide.id", slideID),
		),
	)
}

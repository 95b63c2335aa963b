// Package telemetry wires OpenTelemetry tracing for the service.
package telemetry

import (
	"context"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	// ModeOff disables all spans.
	ModeOff = "off"
	// ModeSampled emits ratio-sampled request spans.
	ModeSampled = "sampled"
	// ModeDetailed additionally emits spans for outbound GitHub calls.
	ModeDetailed = "detailed"
)

var activeMode atomic.Value

// Config configures tracing setup.
type Config struct {
	Enabled     bool
	ServiceName string
	Mode        string
	SampleRatio float64
}

// Runtime holds the initialized provider and its shutdown hook.
type Runtime struct {
	Shutdown func(ctx context.Context) error
}

// Setup installs the global tracer provider according to cfg.
func Setup(cfg Config) (Runtime, error) {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "gitgaze"
	}

	mode := normalizeMode(cfg.Mode)
	if !cfg.Enabled {
		mode = ModeOff
	}
	activeMode.Store(mode)

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(semconv.ServiceNameKey.String(serviceName)),
	)
	if err != nil {
		return Runtime{}, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(samplerFor(mode, cfg.SampleRatio)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	return Runtime{Shutdown: provider.Shutdown}, nil
}

// Mode reports the active trace mode.
func Mode() string {
	value, _ := activeMode.Load().(string)
	if value == "" {
		return ModeOff
	}
	return value
}

// ShouldTraceDependencies reports whether outbound dependency spans should be
// emitted.
func ShouldTraceDependencies() bool {
	return Mode() == ModeDetailed
}

func samplerFor(mode string, ratio float64) sdktrace.Sampler {
	switch mode {
	case ModeOff:
		return sdktrace.NeverSample()
	case ModeDetailed:
		return sdktrace.AlwaysSample()
	default:
		if ratio <= 0 {
			ratio = 0.1
		}
		if ratio > 1 {
			ratio = 1
		}
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

func normalizeMode(mode string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModeOff:
		return ModeOff
	case ModeDetailed:
		return ModeDetailed
	default:
		return ModeSampled
	}
}

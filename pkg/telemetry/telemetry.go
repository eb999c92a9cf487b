// Package telemetry provides OpenTelemetry metrics initialization.
package telemetry

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Config defines metrics export configuration.
type Config struct {
	Enabled  bool
	Endpoint string
	Insecure bool
	Interval time.Duration
}

// ConfigFromEnv returns the metrics configuration from environment
// variables.
func ConfigFromEnv() Config {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:4318"
	}
	return Config{
		Enabled:  os.Getenv("OTEL_ENABLED") != "false",
		Endpoint: endpoint,
		Insecure: os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true",
		Interval: 30 * time.Second,
	}
}

// Provider manages the OpenTelemetry meter provider.
type Provider struct {
	meterProvider *sdkmetric.MeterProvider
}

// Start initializes the global meter provider. When disabled, metric
// instruments still work but record nothing.
func Start(ctx context.Context, cfg Config, serviceName string) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{}, nil
	}

	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP metric exporter: %w", err)
	}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.Interval))),
	)
	otel.SetMeterProvider(meterProvider)
	return &Provider{meterProvider: meterProvider}, nil
}

// Shutdown flushes and stops the meter provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.meterProvider == nil {
		return nil
	}
	return p.meterProvider.Shutdown(ctx)
}

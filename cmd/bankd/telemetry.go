package main

import (
	"context"
	"errors"
	"time"

	goBank "github.com/MrEthical07/goBank"
	otelexport "github.com/MrEthical07/goBank/metrics/export/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "github.com/MrEthical07/goBank"

// startTelemetry pushes engine metrics over OTLP/HTTP on a fixed interval.
// The returned function flushes and stops the pipeline.
func startTelemetry(ctx context.Context, engine *goBank.Engine, interval time.Duration) (func(context.Context) error, error) {
	exp, err := otlpmetrichttp.New(ctx)
	if err != nil {
		return nil, err
	}
	reader := sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval))
	return registerTelemetry(engine, reader)
}

// registerTelemetry binds engine to a MeterProvider read by reader.
func registerTelemetry(engine *goBank.Engine, reader sdkmetric.Reader) (func(context.Context) error, error) {
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	exporter, err := otelexport.NewOTelExporter(provider.Meter(meterName), engine)
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, err
	}

	return func(ctx context.Context) error {
		return errors.Join(exporter.Close(), provider.Shutdown(ctx))
	}, nil
}

package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
)

var tracerProvider shutdownable
var meterProvider shutdownable

type shutdownable interface {
	Shutdown(ctx context.Context) error
}

// Setup initializes the global tracer and meter providers for the
// process. It must be called before any spans are created, ideally
// as one of the first things in main.
func Setup(ctx context.Context, serviceName string, config config) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*15)
	defer cancel()

	r, err := newResource(serviceName)
	if err != nil {
		return err
	}

	traces, err := newTraceProvider(ctx, r, config)
	if err != nil {
		return err
	}
	otel.SetTracerProvider(traces)
	tracerProvider = traces

	metrics, err := newMetricProvider(ctx, r, config)
	if err != nil {
		return err
	}
	otel.SetMeterProvider(metrics)
	meterProvider = metrics

	return nil
}

// Shutdown flushes any pending spans/metrics. Call on process exit.
func Shutdown(ctx context.Context) error {
	errlist := []error{}
	if tracerProvider != nil {
		err := tracerProvider.Shutdown(ctx)
		if err != nil {
			errlist = append(errlist, err)
		}
	}
	if meterProvider != nil {
		err := meterProvider.Shutdown(ctx)
		if err != nil {
			errlist = append(errlist, err)
		}
	}
	return errors.Join(errlist...)
}

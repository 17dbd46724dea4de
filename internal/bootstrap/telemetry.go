package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/ispbill/backend/internal/infrastructure/config"
	"github.com/ispbill/backend/internal/infrastructure/logger"
	"github.com/ispbill/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// MeterName is the instrumentation scope of every metric this service emits
const MeterName = "github.com/ispbill/backend"

// Telemetry bundles the OpenTelemetry providers and the profiler
type Telemetry struct {
	Tracer   *telemetry.TracerProvider
	Meter    *telemetry.MeterProvider
	Logs     *telemetry.LoggerProvider
	Profiler *telemetry.Profiler
}

// NewTelemetry starts traces, metrics, logs and profiling as configured.
// bootLog only reports the startup itself.
func NewTelemetry(ctx context.Context, cfg *config.Config, bootLog *zap.Logger) (*Telemetry, error) {
	tcfg := telemetry.FromConfig(cfg.Telemetry)

	tracer, err := telemetry.NewTracerProvider(ctx, tcfg, bootLog)
	if err != nil {
		return nil, err
	}
	meter, err := telemetry.NewMeterProvider(ctx, tcfg, cfg.Telemetry.MetricsInterval, bootLog)
	if err != nil {
		return nil, errors.Join(err, tracer.Shutdown(ctx))
	}
	logs, err := telemetry.NewLoggerProvider(ctx, tcfg, bootLog)
	if err != nil {
		return nil, errors.Join(err, meter.Shutdown(ctx), tracer.Shutdown(ctx))
	}
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfigFrom(cfg.Telemetry), bootLog)
	if err != nil {
		return nil, errors.Join(err, logs.Shutdown(ctx), meter.Shutdown(ctx), tracer.Shutdown(ctx))
	}
	if profiler.IsEnabled() {
		if err := tracer.EnableSpanProfiles(); err != nil {
			bootLog.Warn("span profiles unavailable", zap.Error(err))
		}
	}

	return &Telemetry{Tracer: tracer, Meter: meter, Logs: logs, Profiler: profiler}, nil
}

// Logger builds the application logger, teeing entries to the OTLP log
// pipeline when it is enabled
func (t *Telemetry) Logger(cfg *config.Config) (*zap.Logger, error) {
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	lcfg := logger.DefaultConfig()
	if cfg.App.Env == "production" {
		lcfg = logger.ProductionConfig()
	}
	lcfg.Level = cfg.Log.Level
	if cfg.Log.Format != "" {
		lcfg.Format = cfg.Log.Format
	}
	lcfg.Output = cfg.Log.Output

	log, err := logger.New(lcfg, t.Logs.ZapCore(level))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return log, nil
}

// ServiceMeter returns the service meter
func (t *Telemetry) ServiceMeter() metric.Meter {
	return t.Meter.Meter(MeterName)
}

// Shutdown flushes and stops every provider
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return errors.Join(
		t.Profiler.Stop(),
		t.Logs.Shutdown(ctx),
		t.Meter.Shutdown(ctx),
		t.Tracer.Shutdown(ctx),
	)
}

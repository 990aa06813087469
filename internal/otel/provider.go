// Package otel builds the OpenTelemetry log provider fed by the slog bridge.
package otel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/metric"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/OCAP2/gcs/internal/config"
)

// DefaultBatchTimeout is used when the configured timeout is zero.
const DefaultBatchTimeout = 5 * time.Second

// DefaultServiceName is reported when none is configured.
const DefaultServiceName = "gcsmap"

// ErrNoExporter is returned by New when OTel is enabled with neither a log
// writer nor an OTLP endpoint.
var ErrNoExporter = errors.New("otel enabled without a log writer or endpoint")

// Config holds OTel configuration.
type Config struct {
	config.OTelConfig
	// LogWriter receives pretty-printed records, usually the rotating log file.
	LogWriter io.Writer
	// Version is reported as service.version when set.
	Version   string
}

func (c Config) withDefaults() Config {
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = DefaultBatchTimeout
	}
	if c.ServiceName == "" {
		c.ServiceName = DefaultServiceName
	}
	return c
}

func (c Config) resource(ctx context.Context) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceName(c.ServiceName)}
	if c.Version != "" {
		attrs = append(attrs, semconv.ServiceVersion(c.Version))
	}
	return resource.New(ctx, resource.WithAttributes(attrs...))
}

// Provider owns the log provider. The zero value, and any Provider built
// from a disabled Config, is a no-op.
type Provider struct {
	enabled     bool
	logProvider *sdklog.LoggerProvider
}

// New builds a Provider. Each configured output gets its own batch
// processor: LogWriter for local files and Endpoint for an OTLP collector.
func New(cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{}, nil
	}
	cfg = cfg.withDefaults()
	ctx := context.Background()

	res, err := cfg.resource(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	opts := []sdklog.LoggerProviderOption{sdklog.WithResource(res)}
	for _, build := range []func(context.Context, Config) (sdklog.Exporter, error){
		writerExporter,
		otlpExporter,
	} {
		exp, err := build(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if exp == nil {
			continue
		}
		opts = append(opts, sdklog.WithProcessor(
			sdklog.NewBatchProcessor(exp, sdklog.WithExportTimeout(cfg.BatchTimeout)),
		))
	}
	if len(opts) == 1 {
		return nil, ErrNoExporter
	}

	return &Provider{
		enabled:     true,
		logProvider: sdklog.NewLoggerProvider(opts...),
	}, nil
}

func writerExporter(_ context.Context, cfg Config) (sdklog.Exporter, error) {
	if cfg.LogWriter == nil {
		return nil, nil
	}
	exp, err := stdoutlog.New(stdoutlog.WithWriter(cfg.LogWriter), stdoutlog.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create file log exporter: %w", err)
	}
	return exp, nil
}

func otlpExporter(ctx context.Context, cfg Config) (sdklog.Exporter, error) {
	if cfg.Endpoint == "" {
		return nil, nil
	}
	opts := []otlploghttp.Option{otlploghttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlploghttp.WithInsecure())
	}
	exp, err := otlploghttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP log exporter: %w", err)
	}
	return exp, nil
}

// LoggerProvider returns the log provider for the otelslog bridge, or nil
// when disabled.
func (p *Provider) LoggerProvider() *sdklog.LoggerProvider {
	return p.logProvider
}

// Meter returns a meter from the global meter provider. Instruments created
// through it stay no-op until a meter provider is installed.
func (p *Provider) Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Flush exports pending records.
func (p *Provider) Flush(ctx context.Context) error {
	if p.logProvider == nil {
		return nil
	}
	if err := p.logProvider.ForceFlush(ctx); err != nil {
		return fmt.Errorf("log flush failed: %w", err)
	}
	return nil
}

// Shutdown flushes and stops the exporters. The Provider is a no-op
// afterwards.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.logProvider == nil {
		return nil
	}
	lp := p.logProvider
	p.logProvider = nil
	if err := lp.Shutdown(ctx); err != nil {
		return fmt.Errorf("log shutdown failed: %w", err)
	}
	return nil
}

// Enabled reports whether the Provider was built from an enabled Config.
func (p *Provider) Enabled() bool {
	return p.enabled
}

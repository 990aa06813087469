// Package logging builds the application loggers: slog for the map core,
// zerolog for the database and influx managers and the dispatcher.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// stdout is the console output, replaced in tests.
var stdout io.Writer = os.Stdout

// Options selects the outputs built by Setup.
type Options struct {
	Level string
	// File receives text logs. When nil, logs go to stdout instead.
	File io.Writer
	// Console also writes to stdout when File is set.
	Console bool
	// Graylog receives JSON records at Info and above, usually a
	// *gelf.Writer.
	Graylog io.Writer
	// Provider enables the OTel bridge.
	Provider *sdklog.LoggerProvider
	// Context adds attributes to every record.
	Context ContextProvider
}

// SlogManager owns the process slog.Logger.
type SlogManager struct {
	logger      *slog.Logger
	logProvider *sdklog.LoggerProvider
}

func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel accepts slog level names in any case, with an optional
// offset ("debug", "WARN", "info+2"). Anything else is Info.
func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return l
}

// utcTime renders record times as RFC3339 UTC.
func utcTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		if t, ok := a.Value.Any().(time.Time); ok {
			a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
		}
	}
	return a
}

// Setup builds the logger from opts, replacing any previous one.
func (m *SlogManager) Setup(opts Options) {
	lvl := parseLevel(opts.Level)
	m.logProvider = opts.Provider
	handlerOpts := &slog.HandlerOptions{Level: lvl, ReplaceAttr: utcTime}

	var sinks []Sink
	if opts.File == nil || opts.Console {
		sinks = append(sinks, Sink{Handler: slog.NewTextHandler(stdout, handlerOpts)})
	}
	if opts.File != nil {
		sinks = append(sinks, Sink{Handler: slog.NewTextHandler(opts.File, handlerOpts)})
	}
	if opts.Graylog != nil {
		sinks = append(sinks, Sink{
			Handler: slog.NewJSONHandler(opts.Graylog, handlerOpts),
			Level:   max(lvl, slog.LevelInfo),
		})
	}
	if opts.Provider != nil {
		sinks = append(sinks, Sink{
			Handler: otelslog.NewHandler("gcsmap", otelslog.WithLoggerProvider(opts.Provider)),
			Level:   lvl,
		})
	}

	m.logger = slog.New(WithDynamicAttrs(NewFanout(sinks...), opts.Context))
	m.logger.Info("Logging initialized", "level", lvl.String(), "outputs", len(sinks))
}

// Logger returns the configured logger, or slog.Default before Setup.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider == nil {
		return nil
	}
	return m.logProvider.ForceFlush(ctx)
}

package logging

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/OCAP2/gcs/internal/config"
)

// LogFilePath builds a log file path using OS-appropriate path separators.
func LogFilePath(logsDir, appName string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", appName, sessionStart.Format("20060102_150405")),
	)
}

// NewRotatingFile opens a size-rotated log file at path.
func NewRotatingFile(path string, cfg config.LogConfig) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		Compress:   true,
	}
}

// NewGraylogWriter connects a GELF UDP writer. Returns nil when Graylog is
// disabled.
func NewGraylogWriter(cfg config.LogConfig) (*gelf.Writer, error) {
	if !cfg.GraylogEnabled {
		return nil, nil
	}
	w, err := gelf.NewWriter(cfg.GraylogAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to graylog at %s: %w", cfg.GraylogAddress, err)
	}
	w.Facility = "gcsmap"
	return w, nil
}

// NewZerolog builds the zerolog logger used by the database and influx
// managers and the dispatcher. Console output is colored, file output is not.
func NewZerolog(level string, file io.Writer) zerolog.Logger {
	var lvl zerolog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = zerolog.DebugLevel
	case "WARN":
		lvl = zerolog.WarnLevel
	case "ERROR":
		lvl = zerolog.ErrorLevel
	case "TRACE":
		lvl = zerolog.TraceLevel
	default:
		lvl = zerolog.InfoLevel
	}

	writers := []io.Writer{
		zerolog.ConsoleWriter{Out: stdout, TimeFormat: time.RFC3339},
	}
	if file != nil {
		writers = append(writers, zerolog.ConsoleWriter{Out: file, TimeFormat: time.RFC3339, NoColor: true})
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().Timestamp().Logger()
}

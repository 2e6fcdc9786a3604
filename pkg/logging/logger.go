package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"shareit/pkg/config"

	"github.com/rs/zerolog"
)

// New builds the logger for one binary. Every entry is tagged with service
// ("server" or "gateway") next to the application name, so both streams can
// share a sink. The returned closer is nil unless logs go to a file.
func New(cfg config.LoggingConfig, app config.AppConfig, service string) (*zerolog.Logger, io.Closer, error) {
	out, closer, err := openOutput(cfg)
	if err != nil {
		return nil, nil, err
	}
	if strings.EqualFold(strings.TrimSpace(cfg.Format), "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	fields := zerolog.New(out).
		Level(parseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("service", service)
	if app.Name != "" {
		fields = fields.Str("app", app.Name)
	}
	if app.Environment != "" {
		fields = fields.Str("env", app.Environment)
	}
	if app.Version != "" {
		fields = fields.Str("version", app.Version)
	}

	logger := fields.Logger()
	return &logger, closer, nil
}

// parseLevel falls back to info for blank or unknown levels.
func parseLevel(raw string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

func openOutput(cfg config.LoggingConfig) (io.Writer, io.Closer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Output)) {
	case "", "stdout":
		return os.Stdout, nil, nil
	case "stderr":
		return os.Stderr, nil, nil
	case "file":
		if cfg.FilePath == "" {
			return nil, nil, fmt.Errorf("logging.file_path is required when logging.output is file")
		}
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file %s: %w", cfg.FilePath, err)
		}
		return f, f, nil
	default:
		return nil, nil, fmt.Errorf("unknown logging.output %q", cfg.Output)
	}
}

// Nop returns a disabled logger for tests and optional dependencies.
func Nop() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

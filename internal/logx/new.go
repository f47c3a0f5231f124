package logx

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the logging backend.
type Options struct {
	Backend string // "slog" or "zap"
	Level   string // debug, info, warn, error
	Service string
}

// New builds a JSON logger for the configured backend writing to w.
// The zap backend always writes to stdout.
func New(opts Options, w io.Writer) (Logger, error) {
	var l Logger
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", "slog":
		l = NewSlogAdapter(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slogLevel(opts.Level),
		})))
	case "zap":
		level := zapcore.InfoLevel
		if err := level.Set(strings.ToLower(opts.Level)); err != nil {
			level = zapcore.InfoLevel
		}
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(level)
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339Nano)
		cfg.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
		zl, err := cfg.Build()
		if err != nil {
			return nil, fmt.Errorf("build zap logger: %w", err)
		}
		l = NewZapAdapter(zl)
	default:
		return nil, fmt.Errorf("unsupported log backend %q", opts.Backend)
	}
	if opts.Service != "" {
		l = l.With(String("service", opts.Service))
	}
	return l, nil
}

func slogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

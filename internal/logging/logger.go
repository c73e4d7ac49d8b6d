// Package logging builds the categorized zap loggers used across packview.
// While the terminal viewer owns the screen, logs go to a file; batch
// commands log to stderr.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"packview/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryFetch   Category = "fetch"   // Packing service and file sources
	CategorySession Category = "session" // Layout lifecycle, stale responses
	CategoryViewer  Category = "viewer"  // Terminal UI events
	CategoryExport  Category = "export"  // PNG / HTML / summary output
	CategoryWatch   Category = "watch"   // Layout file watching
)

// AllCategories lists every category in display order.
var AllCategories = []Category{
	CategoryFetch,
	CategorySession,
	CategoryViewer,
	CategoryExport,
	CategoryWatch,
}

// Logger hands out per-category zap loggers sharing one sink.
type Logger struct {
	base *zap.Logger
	cfg  config.LoggingConfig
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{base: zap.NewNop()}
}

// New builds a Logger from configuration. In interactive mode the log file
// is the only sink; an empty file name disables logging entirely.
func New(cfg config.LoggingConfig, interactive, verbose bool) (*Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Sampling = nil
	zc.DisableStacktrace = true

	lvl := strings.ToLower(cfg.Level)
	if lvl == "warning" {
		lvl = "warn"
	}
	level, err := zapcore.ParseLevel(lvl)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	switch strings.ToLower(cfg.Format) {
	case "console", "text":
		zc.Encoding = "console"
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	default:
		zc.Encoding = "json"
	}
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if interactive {
		if cfg.File == "" {
			return &Logger{base: zap.NewNop(), cfg: cfg}, nil
		}
		if dir := filepath.Dir(cfg.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		zc.OutputPaths = []string{cfg.File}
		zc.ErrorOutputPaths = []string{cfg.File}
	} else {
		zc.OutputPaths = []string{"stderr"}
		zc.ErrorOutputPaths = []string{"stderr"}
	}

	base, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return &Logger{base: base, cfg: cfg}, nil
}

// For returns the logger for a category, or a no-op logger when the
// category is switched off.
func (l *Logger) For(cat Category) *zap.Logger {
	if l == nil || l.base == nil {
		return zap.NewNop()
	}
	if !l.cfg.IsCategoryEnabled(string(cat)) {
		return zap.NewNop()
	}
	return l.base.Named(string(cat))
}

// Base returns the uncategorized logger.
func (l *Logger) Base() *zap.Logger {
	if l == nil || l.base == nil {
		return zap.NewNop()
	}
	return l.base
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	if l == nil || l.base == nil {
		return nil
	}
	return l.base.Sync()
}

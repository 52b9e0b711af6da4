// Package logger provides OpenAct's process-wide structured logger.
//
// It follows the teacher's singleton pattern: a package-level logger is
// initialised once (Initialize) and accessed through package-level helper
// functions, so callers never have to thread a *zap.SugaredLogger through
// every function signature.
package logger

import (
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var singleton atomic.Pointer[zap.SugaredLogger]

func init() {
	// Ensure there is always a usable logger, even if Initialize is never
	// called (e.g. in unit tests that exercise a package directly).
	singleton.Store(newLogger(false).Sugar())
}

// Initialize (re)configures the process-wide logger. debug enables
// debug-level, human-readable console output; otherwise JSON logging at
// info level is used (suitable for ingestion by a log pipeline).
func Initialize(debug bool) {
	singleton.Store(newLogger(debug).Sugar())
}

func newLogger(debug bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	l, err := cfg.Build()
	if err != nil {
		// Fall back to a no-frills logger rather than panic at import time.
		l = zap.NewNop()
		os.Stderr.WriteString("logger: failed to build configured logger: " + err.Error() + "\n")
	}
	return l
}

func current() *zap.SugaredLogger {
	return singleton.Load()
}

// Debugf logs a redaction-unaware debug message. Callers are responsible
// for pre-sanitising any sensitive payload (see pkg/apperrors.Sanitize*).
func Debugf(template string, args ...any) { current().Debugf(template, args...) }

// Infof logs an info-level message.
func Infof(template string, args ...any) { current().Infof(template, args...) }

// Warnf logs a warn-level message.
func Warnf(template string, args ...any) { current().Warnf(template, args...) }

// Errorf logs an error-level message.
func Errorf(template string, args ...any) { current().Errorf(template, args...) }

// With returns a child logger with the given structured key/value pairs
// attached to every subsequent message.
func With(args ...any) *zap.SugaredLogger {
	return current().With(args...)
}

// Sync flushes any buffered log entries. Callers should defer Sync() at
// process shutdown.
func Sync() error {
	return current().Sync()
}

package automodeler

import (
	"fmt"
	"log"

	"go.uber.org/zap"
)

// StructuredLogger provides leveled, key-value logging for the client.
// The arguments after msg are alternating keys and values.
//
// Use WithStructuredLogger() to configure:
//
//	client, _ := automodeler.New(baseURL,
//	    automodeler.WithStructuredLogger(automodeler.NewZapAdapter(zapLogger)),
//	)
type StructuredLogger interface {
	// Debug logs a debug-level message with optional key-value pairs.
	Debug(msg string, args ...any)
	// Info logs an info-level message with optional key-value pairs.
	Info(msg string, args ...any)
	// Warn logs a warning-level message with optional key-value pairs.
	Warn(msg string, args ...any)
	// Error logs an error-level message with optional key-value pairs.
	Error(msg string, args ...any)
}

// NopLogger is a logger that discards all log messages.
type NopLogger struct{}

// Debug implements StructuredLogger.Debug.
func (NopLogger) Debug(msg string, args ...any) {}

// Info implements StructuredLogger.Info.
func (NopLogger) Info(msg string, args ...any) {}

// Warn implements StructuredLogger.Warn.
func (NopLogger) Warn(msg string, args ...any) {}

// Error implements StructuredLogger.Error.
func (NopLogger) Error(msg string, args ...any) {}

var _ StructuredLogger = NopLogger{}

// stdLogger writes to a standard library logger. It backs WithDebug when no
// other logger is configured.
type stdLogger struct {
	logger *log.Logger
}

func (l *stdLogger) Debug(msg string, args ...any) { l.logger.Print("[DEBUG] " + msg + formatArgs(args)) }
func (l *stdLogger) Info(msg string, args ...any)  { l.logger.Print("[INFO] " + msg + formatArgs(args)) }
func (l *stdLogger) Warn(msg string, args ...any)  { l.logger.Print("[WARN] " + msg + formatArgs(args)) }
func (l *stdLogger) Error(msg string, args ...any) { l.logger.Print("[ERROR] " + msg + formatArgs(args)) }

// formatArgs formats key-value pairs as " | k=v k=v".
func formatArgs(args []any) string {
	if len(args) == 0 {
		return ""
	}
	result := " |"
	for i := 0; i < len(args); i += 2 {
		var value any = "(MISSING)"
		if i+1 < len(args) {
			value = args[i+1]
		}
		result += fmt.Sprintf(" %v=%v", args[i], value)
	}
	return result
}

// ============================================================================
// Zap Adapter
// ============================================================================

// ZapAdapter adapts a *zap.Logger to the StructuredLogger interface using
// zap's sugared key-value API.
//
//	z, _ := zap.NewProduction()
//	client, _ := automodeler.New(baseURL,
//	    automodeler.WithStructuredLogger(automodeler.NewZapAdapter(z)),
//	)
type ZapAdapter struct {
	sugar *zap.SugaredLogger
}

// NewZapAdapter wraps logger. If logger is nil, a no-op zap logger is used.
func NewZapAdapter(logger *zap.Logger) *ZapAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapAdapter{sugar: logger.Sugar()}
}

// Debug implements StructuredLogger.Debug.
func (a *ZapAdapter) Debug(msg string, args ...any) { a.sugar.Debugw(msg, args...) }

// Info implements StructuredLogger.Info.
func (a *ZapAdapter) Info(msg string, args ...any) { a.sugar.Infow(msg, args...) }

// Warn implements StructuredLogger.Warn.
func (a *ZapAdapter) Warn(msg string, args ...any) { a.sugar.Warnw(msg, args...) }

// Error implements StructuredLogger.Error.
func (a *ZapAdapter) Error(msg string, args ...any) { a.sugar.Errorw(msg, args...) }

// With returns a new ZapAdapter with the given key-value pairs attached.
func (a *ZapAdapter) With(args ...any) *ZapAdapter {
	return &ZapAdapter{sugar: a.sugar.With(args...)}
}

// Sync flushes buffered log entries.
func (a *ZapAdapter) Sync() error {
	return a.sugar.Sync()
}

var _ StructuredLogger = (*ZapAdapter)(nil)

// Package logger provides the component loggers used across the engine.
package logger

import "os"

// Logger is the logging surface the engine and its adapters depend on.
type Logger interface {
	Debugf(format string, args ...any)
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger implements Logger with no-op methods.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}

// New returns a Logger for the given component. The output format follows
// the APP_ENV variable; the level follows LOG_LEVEL.
func New(component string) Logger {
	return NewZerologLogger(component)
}

// NewAt is New with an explicit level; LOG_LEVEL still wins when set.
func NewAt(component, level string) Logger {
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		level = env
	}
	return newStdout(component, level)
}

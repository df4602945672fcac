// ============================================================================
// manebot - chat bot framework
// ============================================================================
//
// Package:     logging
// Description: Key/value logger used by the internal packages
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package logging

import (
	mblog "github.com/manebot/manebot/foundation/core/log"
)

// Logger wraps the foundation logger with a key/value call style
type Logger struct {
	*mblog.Logger
	name string
}

// New creates a logger for a component using the process-wide settings
func New(name string) *Logger {
	return Wrap(mblog.GetDefault().WithName(name))
}

// Wrap adapts a foundation logger
func Wrap(logger *mblog.Logger) *Logger {
	if logger == nil {
		logger = mblog.GetDefault()
	}
	return &Logger{Logger: logger, name: logger.Name()}
}

// Name returns the component name of the logger
func (l *Logger) Name() string {
	return l.name
}

// Foundation returns the wrapped foundation logger
func (l *Logger) Foundation() *mblog.Logger {
	return l.Logger
}

// With returns a logger carrying the given key/value pairs on every entry
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{Logger: l.Logger.WithFields(toFields(keysAndValues...)), name: l.name}
}

// Debug logs a debug message with key/value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.Logger.Debug(msg, toFields(keysAndValues...))
}

// Info logs an info message with key/value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.Logger.Info(msg, toFields(keysAndValues...))
}

// Warn logs a warning message with key/value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.Logger.Warn(msg, toFields(keysAndValues...))
}

// Error logs an error message with key/value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.Logger.Error(msg, toFields(keysAndValues...))
}

// toFields converts key/value pairs to mblog.Fields. A dangling key is
// dropped.
func toFields(keysAndValues ...interface{}) mblog.Fields {
	if len(keysAndValues) == 0 {
		return nil
	}

	fields := make(mblog.Fields, len(keysAndValues)/2)
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, isErr := keysAndValues[i+1].(error); isErr {
			fields[key] = err.Error()
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}

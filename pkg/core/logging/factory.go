// ============================================================================
// manebot - chat bot framework
// ============================================================================
//
// Package:     logging
// Description: Factory functions for configured loggers with file rotation
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	mblog "github.com/manebot/manebot/foundation/core/log"
)

// LoggerConfig holds configuration for creating loggers
type LoggerConfig struct {
	// Service name
	ServiceName string

	// Log level (trace, debug, info, warn, error)
	Level string

	// Output format: "json" or "text" (default: json)
	Format string

	// Rotated log file; empty disables file output
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool

	// Console output, os.Stdout when nil
	Console io.Writer

	// Additional outputs
	AdditionalOutputs []io.Writer
}

// DefaultLoggerConfig returns a default configuration
func DefaultLoggerConfig(serviceName string) LoggerConfig {
	return LoggerConfig{
		ServiceName: serviceName,
		Level:       "info",
		Format:      "json",
		MaxSizeMB:   50,
		MaxBackups:  3,
		MaxAgeDays:  28,
	}
}

var (
	openFiles   []io.Closer
	openFilesMu sync.Mutex
)

// NewLogger creates a foundation logger from cfg. Invalid levels and
// formats fall back to info and json.
func NewLogger(cfg LoggerConfig) *mblog.Logger {
	level, err := mblog.ParseLevel(cfg.Level)
	if err != nil {
		level = mblog.LevelInfo
	}
	format, err := mblog.ParseFormat(cfg.Format)
	if err != nil {
		format = mblog.FormatJSON
	}

	var output io.Writer = os.Stdout
	if cfg.Console != nil {
		output = cfg.Console
	}

	writers := []io.Writer{output}
	if cfg.File != "" {
		writers = append(writers, newFileWriter(cfg))
	}
	writers = append(writers, cfg.AdditionalOutputs...)
	if len(writers) > 1 {
		output = io.MultiWriter(writers...)
	}

	return mblog.NewWithConfig(mblog.Config{
		Level:  level,
		Format: format,
		Output: output,
		Name:   cfg.ServiceName,
	})
}

// NewSimpleLogger creates a console logger with default settings
func NewSimpleLogger(serviceName string) *mblog.Logger {
	return NewLogger(DefaultLoggerConfig(serviceName))
}

// Configure builds a logger from cfg and installs it as the process default
func Configure(cfg LoggerConfig) *mblog.Logger {
	logger := NewLogger(cfg)
	mblog.SetDefault(logger)
	return logger
}

func newFileWriter(cfg LoggerConfig) io.Writer {
	_ = os.MkdirAll(filepath.Dir(cfg.File), 0755)

	writer := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}

	openFilesMu.Lock()
	openFiles = append(openFiles, writer)
	openFilesMu.Unlock()

	return writer
}

// Close closes every log file opened by NewLogger
func Close() error {
	openFilesMu.Lock()
	defer openFilesMu.Unlock()

	var firstErr error
	for _, c := range openFiles {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	openFiles = nil
	return firstErr
}

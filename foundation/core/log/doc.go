// Package log provides structured, levelled logging for manebot.
//
// Package: log
// Title: manebot Structured Logging
// Description: Loggers are immutable values: WithField, WithChat and
//              WithSender return derived loggers carrying extra context, so
//              a command dispatch can hand a logger bound to the current
//              chat and sender down to the executor without locking.
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Usage:
//
//	logger := log.NewWithConfig(log.Config{Level: log.LevelDebug, Format: log.FormatText})
//	logger.WithSender("alice").Info("command executed", log.Fields{"label": "ban"})
package log

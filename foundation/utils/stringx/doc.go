// File: doc.go
// Title: String Utilities Package Documentation
// Description: Small string helpers shared by the command and chat layers.
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19

// Package stringx provides Unicode-aware string helpers that the standard
// library lacks: blank checks, rune-safe truncation and single-line
// normalization of chat text.
package stringx

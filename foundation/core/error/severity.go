// File: severity.go
// Title: Error Severity Levels
// Description: Severity levels used to pick the log level for an error.
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19

package error

// Severity represents the severity level of an error
type Severity int

const (
	// SeverityLow is a rejected user input
	SeverityLow Severity = iota

	// SeverityMedium affects a single operation
	SeverityMedium

	// SeverityHigh affects a subsystem such as storage or a platform
	SeverityHigh

	// SeverityCritical leaves the bot unusable
	SeverityCritical
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}


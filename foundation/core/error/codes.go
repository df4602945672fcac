// File: codes.go
// Title: Error Code Definitions
// Description: Defines the error codes used by the parsers, the command
//              system, persistence and the plugin runtime.
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19

package error

// Code represents a structured error code for categorizing errors
type Code string

const (
	// Generic codes
	CodeUnknown  Code = "UNKNOWN"
	CodeInternal Code = "INTERNAL"
	CodeNotFound Code = "NOT_FOUND"

	// Text interpretation
	CodeSyntax        Code = "SYNTAX"
	CodeInvalidFormat Code = "INVALID_FORMAT"

	// Command resolution
	CodeNoMatch        Code = "NO_MATCH"
	CodeAmbiguous      Code = "AMBIGUOUS"
	CodeNoHandler      Code = "NO_HANDLER"
	CodeRegistration   Code = "REGISTRATION"
	CodeUnknownCommand Code = "UNKNOWN_COMMAND"

	// Security
	CodePermission Code = "PERMISSION"
	CodeBanned     Code = "BANNED"

	// Persistence
	CodeDatabase  Code = "DATABASE"
	CodeDuplicate Code = "DUPLICATE"

	// Runtime
	CodeConfig   Code = "CONFIG"
	CodePlugin   Code = "PLUGIN"
	CodePlatform Code = "PLATFORM"
)

// String returns the string representation of the error code
func (c Code) String() string {
	return string(c)
}

// UserFacing reports whether errors with this code carry a message that may
// be shown to a chat user verbatim.
func (c Code) UserFacing() bool {
	switch c {
	case CodeSyntax, CodeInvalidFormat, CodeNoMatch, CodeAmbiguous,
		CodeUnknownCommand, CodePermission, CodeBanned, CodeNotFound, CodeDuplicate:
		return true
	default:
		return false
	}
}

// GetSeverityFromCode returns the default severity for a code
func GetSeverityFromCode(code Code) Severity {
	switch code {
	case CodeSyntax, CodeInvalidFormat, CodeNoMatch, CodeAmbiguous, CodeUnknownCommand, CodeNotFound:
		return SeverityLow
	case CodePermission, CodeBanned, CodeDuplicate, CodeRegistration:
		return SeverityMedium
	case CodeDatabase, CodePlugin, CodePlatform, CodeConfig, CodeNoHandler:
		return SeverityHigh
	case CodeInternal:
		return SeverityCritical
	default:
		return SeverityMedium
	}
}

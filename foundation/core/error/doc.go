// Package error provides the structured error type used across manebot.
//
// Package: error
// Title: manebot Error Handling
// Description: Errors carry a code, a severity, free-form details and the
//              operation that produced them. Parsers and resolvers report
//              user-facing failures (syntax, no match, ambiguity) through
//              codes so that the command dispatcher can decide what to show
//              to a chat user and what to log.
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Usage:
//
//	import mberror "github.com/manebot/manebot/foundation/core/error"
//
//	err := mberror.New("unterminated string").
//		WithCode(mberror.CodeSyntax).
//		WithDetail("position", 12)
//
//	if mberror.HasCode(err, mberror.CodeSyntax) {
//		// show the message to the sender
//	}
package error

// File: doc.go
// Title: Security Package Documentation
// Description: Permission nodes and grant checks.
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19

/*
Package security provides permission nodes and grant evaluation.

Permission nodes are dotted, case-insensitive strings such as "system.ban".
Nodes are interned: Get returns the same *Permission for equal nodes, so
permissions may be compared by pointer.

Whether a subject holds a permission is decided by a Checker. When no grant
exists for a node, the caller-supplied default applies.

	if err := security.Check(ctx, sender, security.Get("system.ban"), security.Deny); err != nil {
	    return err // CodePermission
	}
*/
package security

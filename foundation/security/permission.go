// File: permission.go
// Title: Permission Nodes and Grants
// Description: Interned permission nodes, grant values and the Checker
//              contract used by commands to authorize senders.
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19

package security

import (
	"context"
	"strings"
	"sync"

	mberror "github.com/manebot/manebot/foundation/core/error"
)

// Permission is an interned permission node
type Permission struct {
	node string
}

// Node returns the lower-cased node string
func (p *Permission) Node() string {
	return p.node
}

// String implements fmt.Stringer
func (p *Permission) String() string {
	return p.node
}

var (
	permissions   = make(map[string]*Permission)
	permissionsMu sync.Mutex
)

// Get returns the permission for node, creating it on first use
func Get(node string) *Permission {
	key := strings.ToLower(strings.TrimSpace(node))

	permissionsMu.Lock()
	defer permissionsMu.Unlock()

	if p, ok := permissions[key]; ok {
		return p
	}
	p := &Permission{node: key}
	permissions[key] = p
	return p
}

// Grant is the outcome recorded for a permission node
type Grant int

const (
	// Deny refuses the permission
	Deny Grant = iota

	// Allow grants the permission
	Allow
)

// String returns the name of the grant
func (g Grant) String() string {
	if g == Allow {
		return "allow"
	}
	return "deny"
}

// ParseGrant parses "allow" or "deny"
func ParseGrant(s string) (Grant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "allow":
		return Allow, nil
	case "deny":
		return Deny, nil
	default:
		return Deny, mberror.Newf("invalid grant: %s", s).WithCode(mberror.CodeInvalidFormat)
	}
}

// Checker decides whether a subject holds a permission
type Checker interface {
	// HasPermission reports whether the permission is granted. def applies
	// when no grant is recorded for the node.
	HasPermission(ctx context.Context, permission *Permission, def Grant) (bool, error)
}

// CheckerFunc adapts a function to the Checker interface
type CheckerFunc func(ctx context.Context, permission *Permission, def Grant) (bool, error)

// HasPermission implements Checker
func (f CheckerFunc) HasPermission(ctx context.Context, permission *Permission, def Grant) (bool, error) {
	return f(ctx, permission, def)
}

// Check returns a CodePermission error unless checker holds permission
func Check(ctx context.Context, checker Checker, permission *Permission, def Grant) error {
	if checker == nil {
		return mberror.New("no security context").
			WithCode(mberror.CodePermission).
			WithDetail("node", permission.Node())
	}

	ok, err := checker.HasPermission(ctx, permission, def)
	if err != nil {
		return mberror.Wrap(err, "checking permission "+permission.Node())
	}
	if !ok {
		return mberror.Newf("You do not have permission to do that (%s).", permission.Node()).
			WithCode(mberror.CodePermission).
			WithDetail("node", permission.Node())
	}
	return nil
}

// AllowAll is a Checker granting every permission
var AllowAll Checker = CheckerFunc(func(context.Context, *Permission, Grant) (bool, error) {
	return true, nil
})

// File: permission_test.go
// Title: Permission Tests
// Description: Tests for node interning, grant parsing and Check.
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19

package security

import (
	"context"
	"errors"
	"testing"

	mberror "github.com/manebot/manebot/foundation/core/error"
)

func TestGetInternsNodes(t *testing.T) {
	a := Get("System.Ban")
	b := Get(" system.ban ")

	if a != b {
		t.Error("equal nodes should return the same *Permission")
	}
	if a.Node() != "system.ban" {
		t.Errorf("Node() = %q, want %q", a.Node(), "system.ban")
	}
	if Get("system.unban") == a {
		t.Error("different nodes must not share a permission")
	}
}

func TestParseGrant(t *testing.T) {
	tests := []struct {
		input   string
		want    Grant
		wantErr bool
	}{
		{"allow", Allow, false},
		{"DENY", Deny, false},
		{"maybe", Deny, true},
	}

	for _, tt := range tests {
		got, err := ParseGrant(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseGrant(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseGrant(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestCheck(t *testing.T) {
	ctx := context.Background()
	perm := Get("group.create")

	denyAll := CheckerFunc(func(_ context.Context, _ *Permission, def Grant) (bool, error) {
		return def == Allow, nil
	})
	failing := CheckerFunc(func(context.Context, *Permission, Grant) (bool, error) {
		return false, errors.New("database is locked")
	})

	if err := Check(ctx, AllowAll, perm, Deny); err != nil {
		t.Errorf("AllowAll should pass: %v", err)
	}
	if err := Check(ctx, denyAll, perm, Allow); err != nil {
		t.Errorf("default Allow should pass: %v", err)
	}

	err := Check(ctx, denyAll, perm, Deny)
	if !mberror.HasCode(err, mberror.CodePermission) {
		t.Errorf("expected CodePermission, got %v", err)
	}

	if err := Check(ctx, nil, perm, Allow); !mberror.HasCode(err, mberror.CodePermission) {
		t.Errorf("nil checker should be refused, got %v", err)
	}

	if err := Check(ctx, failing, perm, Allow); err == nil || mberror.HasCode(err, mberror.CodePermission) {
		t.Errorf("checker failures should propagate as-is, got %v", err)
	}
}

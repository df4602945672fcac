// File: manager_test.go
// Title: Command Manager Tests
// Description: Tests for registration, aliases and line dispatch.
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19

package command

import (
	"context"
	"reflect"
	"testing"

	mberror "github.com/manebot/manebot/foundation/core/error"
	mblog "github.com/manebot/manebot/foundation/core/log"
	"github.com/manebot/manebot/foundation/security"
)

type testSender struct {
	name     string
	messages []string
}

func (s *testSender) Username() string           { return s.name }
func (s *testSender) DisplayName() string        { return s.name }
func (s *testSender) SendMessage(message string) { s.messages = append(s.messages, message) }
func (s *testSender) HasPermission(context.Context, *security.Permission, security.Grant) (bool, error) {
	return true, nil
}

type call struct {
	label string
	args  []string
}

type recordingExecutor struct {
	calls []call
}

func (r *recordingExecutor) Execute(_ context.Context, _ Sender, label string, args []string) error {
	r.calls = append(r.calls, call{label: label, args: args})
	return nil
}

func (r *recordingExecutor) Help(_ context.Context, _ Sender, label string, args []string) ([]string, error) {
	return []string{label + " help"}, nil
}

func newTestManager() *Manager {
	return NewManager(Options{Logger: mblog.Discard()})
}

func TestRegister(t *testing.T) {
	m := newTestManager()
	exec := &recordingExecutor{}

	if _, err := m.Register("Ban", exec); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	tests := []struct {
		name  string
		label string
		exec  Executor
		code  mberror.Code
	}{
		{"duplicate", "ban", exec, mberror.CodeDuplicate},
		{"duplicate other case", "BAN", exec, mberror.CodeDuplicate},
		{"blank label", "  ", exec, mberror.CodeRegistration},
		{"label with space", "ban list", exec, mberror.CodeRegistration},
		{"nil executor", "unban", nil, mberror.CodeRegistration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Register(tt.label, tt.exec)
			if !mberror.HasCode(err, tt.code) {
				t.Errorf("Register(%q) error = %v, want code %v", tt.label, err, tt.code)
			}
		})
	}
}

func TestDispatch(t *testing.T) {
	m := newTestManager()
	exec := &recordingExecutor{}
	sender := &testSender{name: "alice"}

	reg, err := m.Register("ban", exec)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := reg.Alias("b"); err != nil {
		t.Fatalf("Alias failed: %v", err)
	}

	ctx := context.Background()
	for _, line := range []string{"!ban bob  spamming", "  !B bob spamming", "BAN bob spamming"} {
		if err := m.Dispatch(ctx, sender, line); err != nil {
			t.Fatalf("Dispatch(%q) failed: %v", line, err)
		}
	}

	want := call{label: "ban", args: []string{"bob", "spamming"}}
	if len(exec.calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(exec.calls))
	}
	for i, got := range exec.calls {
		if !reflect.DeepEqual(got, want) {
			t.Errorf("call %d = %+v, want %+v", i, got, want)
		}
	}

	if err := m.Dispatch(ctx, sender, "!kick bob"); !mberror.HasCode(err, mberror.CodeUnknownCommand) {
		t.Errorf("unknown label error = %v", err)
	}
	if err := m.Dispatch(ctx, sender, "!  "); !mberror.HasCode(err, mberror.CodeUnknownCommand) {
		t.Errorf("empty line error = %v", err)
	}
}

func TestUnregisterRemovesAliases(t *testing.T) {
	m := newTestManager()
	reg, _ := m.Register("group", &recordingExecutor{})
	if _, err := reg.Alias("g"); err != nil {
		t.Fatalf("Alias failed: %v", err)
	}
	if _, err := reg.Alias("grp"); err != nil {
		t.Fatalf("Alias failed: %v", err)
	}

	if got := m.Aliases("group"); !reflect.DeepEqual(got, []string{"g", "grp"}) {
		t.Errorf("Aliases() = %v", got)
	}

	if !m.Unregister("GROUP") {
		t.Fatal("Unregister returned false")
	}
	for _, label := range []string{"group", "g", "grp"} {
		if _, _, ok := m.Lookup(label); ok {
			t.Errorf("%q still registered", label)
		}
	}
	if m.Unregister("group") {
		t.Error("second Unregister should return false")
	}
}

func TestAliasReturnsOriginalRegistration(t *testing.T) {
	m := newTestManager()
	reg, _ := m.Register("permission", &recordingExecutor{})

	chained, err := reg.Alias("perm")
	if err != nil {
		t.Fatalf("Alias failed: %v", err)
	}
	if chained != reg || chained.Label() != "permission" {
		t.Fatalf("Alias returned %q, want the permission registration", chained.Label())
	}
	if _, err := chained.Alias("p"); err != nil {
		t.Fatalf("Alias failed: %v", err)
	}

	_, label, ok := m.Lookup("p")
	if !ok || label != "permission" {
		t.Errorf("Lookup(p) = %q, %v; want permission", label, ok)
	}
}

func TestLabelsExcludeAliases(t *testing.T) {
	m := newTestManager()
	for _, label := range []string{"user", "ban", "help"} {
		reg, err := m.Register(label, &recordingExecutor{})
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if _, err := reg.Alias(label[:1] + "x"); err != nil {
			t.Fatalf("Alias failed: %v", err)
		}
	}

	if got := m.Labels(); !reflect.DeepEqual(got, []string{"ban", "help", "user"}) {
		t.Errorf("Labels() = %v", got)
	}
}

func TestHelpUsesRegisteredLabel(t *testing.T) {
	m := newTestManager()
	reg, _ := m.Register("permission", &recordingExecutor{})
	if _, err := reg.Alias("perm"); err != nil {
		t.Fatalf("Alias failed: %v", err)
	}

	lines, err := m.Help(context.Background(), &testSender{name: "alice"}, "perm grant")
	if err != nil {
		t.Fatalf("Help failed: %v", err)
	}
	if !reflect.DeepEqual(lines, []string{"permission help"}) {
		t.Errorf("Help() = %v", lines)
	}
}

func TestIsCommand(t *testing.T) {
	m := NewManager(Options{Logger: mblog.Discard(), Prefix: "."})

	tests := []struct {
		input string
		want  bool
	}{
		{".help", true},
		{"  .ban bob", true},
		{".", false},
		{". ", false},
		{"help", false},
	}

	for _, tt := range tests {
		if got := m.IsCommand(tt.input); got != tt.want {
			t.Errorf("IsCommand(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

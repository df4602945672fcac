// File: walk_test.go
// Title: Search Visitor Tests
// Description: Tests for Walk event ordering and error propagation.
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19

package search

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type recordingHandler struct {
	events []string
	failOn string
}

func (r *recordingHandler) record(event string) error {
	r.events = append(r.events, event)
	if event == r.failOn {
		return fmt.Errorf("stop at %s", event)
	}
	return nil
}

func (r *recordingHandler) Push(op Operator) error { return r.record("push " + op.String()) }
func (r *recordingHandler) Pop() error             { return r.record("pop") }
func (r *recordingHandler) String(op Operator, text string) error {
	return r.record(fmt.Sprintf("string %s %s", op, text))
}
func (r *recordingHandler) Token(op Operator, text string) error {
	return r.record(fmt.Sprintf("token %s %s", op, text))
}

func TestWalk(t *testing.T) {
	s, err := Parse(`a -(b "c") +d`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	h := &recordingHandler{}
	if err := Walk(s.Root, h); err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	want := []string{
		"push unspecified",
		"token unspecified a",
		"push exclude",
		"token unspecified b",
		"string include c",
		"pop",
		"token merge d",
		"pop",
	}
	if diff := cmp.Diff(want, h.events); diff != "" {
		t.Errorf("Walk events mismatch (-want +got):\n%s", diff)
	}
}

func TestWalkStopsOnError(t *testing.T) {
	s, err := Parse("a b c")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	h := &recordingHandler{failOn: "token include b"}
	if err := Walk(s.Root, h); err == nil {
		t.Fatal("expected handler error to stop the walk")
	}
	if len(h.events) != 3 {
		t.Errorf("events after failure = %v", h.events)
	}
}

// File: state.go
// Title: Chain Parse State
// Description: Priorities and the cloneable token state consumed by
//              arguments during resolution.
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19

package chained

import (
	"github.com/manebot/manebot/foundation/command"
)

// Priority is the quality of an argument match
type Priority int

const (
	// Reject removes the candidate from consideration
	Reject Priority = -1

	// Low is used by catch-all arguments
	Low Priority = 0

	// Medium is used by typed arguments such as integers
	Medium Priority = 1

	// High is used by exact matches
	High Priority = 2
)

// String returns the name of the priority
func (p Priority) String() string {
	switch p {
	case Reject:
		return "reject"
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return "unknown"
	}
}

// State is the input of one candidate chain: the sender, the tokens not yet
// consumed and the values parsed so far.
type State struct {
	sender    command.Sender
	remaining []string
	parsed    []interface{}
	err       error
}

// NewState creates the initial state for a resolution
func NewState(sender command.Sender, tokens []string) *State {
	return &State{
		sender:    sender,
		remaining: append([]string(nil), tokens...),
	}
}

// Sender returns the sender the command is resolved for
func (s *State) Sender() command.Sender {
	return s.sender
}

// Next returns the next unconsumed token
func (s *State) Next() (string, bool) {
	if len(s.remaining) == 0 {
		return "", false
	}
	return s.remaining[0], true
}

// Size returns the number of unconsumed tokens
func (s *State) Size() int {
	return len(s.remaining)
}

// Remaining returns a copy of the unconsumed tokens
func (s *State) Remaining() []string {
	return append([]string(nil), s.remaining...)
}

// Parsed returns a copy of the parsed values
func (s *State) Parsed() []interface{} {
	return append([]interface{}(nil), s.parsed...)
}

// Extend consumes n tokens from the front and appends values to the parsed
// list. n is clamped to the number of remaining tokens.
func (s *State) Extend(n int, values ...interface{}) {
	if n > len(s.remaining) {
		n = len(s.remaining)
	}
	if n > 0 {
		s.remaining = s.remaining[n:]
	}
	s.parsed = append(s.parsed, values...)
}

// Fail records why the input of this candidate cannot be used. A chain
// completed with a failed state resolves to err instead of a Match.
func (s *State) Fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

// Err returns the error recorded by Fail
func (s *State) Err() error {
	return s.err
}

// Clone returns an independent copy. Tokens are only ever consumed from the
// front, so the backing array is shared; the parsed list is capped so that
// an append on either copy reallocates.
func (s *State) Clone() *State {
	return &State{
		sender:    s.sender,
		remaining: s.remaining,
		parsed:    s.parsed[:len(s.parsed):len(s.parsed)],
		err:       s.err,
	}
}

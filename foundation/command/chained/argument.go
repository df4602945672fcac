// File: argument.go
// Title: Chain Arguments
// Description: The Argument contract and the built-in argument types.
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19

package chained

import (
	"strconv"
	"strings"

	"github.com/manebot/manebot/foundation/search"
	"github.com/manebot/manebot/foundation/utils/stringx"
)

// Argument matches the front of a State
type Argument interface {
	// HelpString is the text shown for this argument in help lines
	HelpString() string

	// Cast consumes tokens from state and reports the match quality.
	// State is a private clone and may be modified even on Reject.
	Cast(state *State) Priority

	// CanExtend reports whether next may be attached beneath this argument
	CanExtend(next Argument) bool

	// CanCoexist reports whether sibling may share a parent with this argument
	CanCoexist(sibling Argument) bool
}

// LabelArgument matches one fixed word, ignoring case
type LabelArgument struct {
	label string
}

// Label returns an argument matching text. The label itself is appended to
// the parsed values.
func Label(text string) *LabelArgument {
	return &LabelArgument{label: text}
}

func (a *LabelArgument) HelpString() string { return a.label }

func (a *LabelArgument) Cast(state *State) Priority {
	next, ok := state.Next()
	if !ok || !strings.EqualFold(next, a.label) {
		return Reject
	}
	state.Extend(1, a.label)
	return High
}

func (a *LabelArgument) CanExtend(Argument) bool  { return true }
func (a *LabelArgument) CanCoexist(Argument) bool { return true }

// NoneArgument matches only when no tokens remain
type NoneArgument struct{}

// None returns the zero-width terminator. Nothing may be attached beneath
// it and two of them may not share a parent.
func None() *NoneArgument {
	return &NoneArgument{}
}

func (a *NoneArgument) HelpString() string { return "(none)" }

func (a *NoneArgument) Cast(state *State) Priority {
	if state.Size() > 0 {
		return Reject
	}
	return High
}

func (a *NoneArgument) CanExtend(Argument) bool { return false }

func (a *NoneArgument) CanCoexist(sibling Argument) bool {
	_, none := sibling.(*NoneArgument)
	return !none
}

// StringArgument matches any single token
type StringArgument struct {
	name string
}

// String returns an argument accepting one arbitrary token
func String(name string) *StringArgument {
	return &StringArgument{name: name}
}

func (a *StringArgument) HelpString() string { return "<" + a.name + ">" }

func (a *StringArgument) Cast(state *State) Priority {
	next, ok := state.Next()
	if !ok {
		return Reject
	}
	state.Extend(1, next)
	return Low
}

func (a *StringArgument) CanExtend(Argument) bool { return true }

func (a *StringArgument) CanCoexist(sibling Argument) bool {
	switch sibling.(type) {
	case *StringArgument, *FollowingArgument:
		return false
	default:
		return true
	}
}

// IntegerArgument matches a base-10 integer token
type IntegerArgument struct {
	name string
}

// Integer returns an argument accepting one integer token. The parsed value
// is an int.
func Integer(name string) *IntegerArgument {
	return &IntegerArgument{name: name}
}

func (a *IntegerArgument) HelpString() string { return "<" + a.name + ":int>" }

func (a *IntegerArgument) Cast(state *State) Priority {
	next, ok := state.Next()
	if !ok {
		return Reject
	}
	value, err := strconv.Atoi(next)
	if err != nil {
		return Reject
	}
	state.Extend(1, value)
	return Medium
}

func (a *IntegerArgument) CanExtend(Argument) bool { return true }

func (a *IntegerArgument) CanCoexist(sibling Argument) bool {
	_, integer := sibling.(*IntegerArgument)
	return !integer
}

// ChoiceArgument matches one of a fixed set of words
type ChoiceArgument struct {
	values []string
}

// Choice returns an argument accepting any of values, ignoring case. The
// parsed value is the matching entry of values.
func Choice(values ...string) *ChoiceArgument {
	return &ChoiceArgument{values: append([]string(nil), values...)}
}

func (a *ChoiceArgument) HelpString() string {
	return "{" + strings.Join(a.values, "|") + "}"
}

func (a *ChoiceArgument) Cast(state *State) Priority {
	next, ok := state.Next()
	if !ok {
		return Reject
	}
	for _, v := range a.values {
		if strings.EqualFold(v, next) {
			state.Extend(1, v)
			return High
		}
	}
	return Reject
}

func (a *ChoiceArgument) CanExtend(Argument) bool { return true }

func (a *ChoiceArgument) CanCoexist(sibling Argument) bool {
	other, ok := sibling.(*ChoiceArgument)
	if !ok {
		return true
	}
	for _, v := range a.values {
		if stringx.ContainsFold(other.values, v) {
			return false
		}
	}
	return true
}

// FollowingArgument matches every remaining token
type FollowingArgument struct {
	name string
}

// Following returns an argument consuming all remaining tokens, joined by
// single spaces. It must end a chain.
func Following(name string) *FollowingArgument {
	return &FollowingArgument{name: name}
}

func (a *FollowingArgument) HelpString() string { return "<" + a.name + "...>" }

func (a *FollowingArgument) Cast(state *State) Priority {
	if state.Size() == 0 {
		return Reject
	}
	state.Extend(state.Size(), strings.Join(state.Remaining(), " "))
	return Low
}

func (a *FollowingArgument) CanExtend(Argument) bool { return false }

func (a *FollowingArgument) CanCoexist(sibling Argument) bool {
	switch sibling.(type) {
	case *StringArgument, *FollowingArgument, *QueryArgument:
		return false
	default:
		return true
	}
}

// QueryArgument parses every remaining token as a search query
type QueryArgument struct {
	name string
}

// Query returns an argument consuming all remaining tokens as a search
// query. The parsed value is a *search.Search. A query that does not parse
// still matches, and resolving the chain returns the parse error. It must
// end a chain.
func Query(name string) *QueryArgument {
	return &QueryArgument{name: name}
}

func (a *QueryArgument) HelpString() string { return "<" + a.name + "...>" }

func (a *QueryArgument) Cast(state *State) Priority {
	if state.Size() == 0 {
		return Reject
	}
	parsed, err := search.Parse(strings.Join(state.Remaining(), " "))
	if err != nil {
		state.Fail(err)
		state.Extend(state.Size())
		return Medium
	}
	state.Extend(state.Size(), parsed)
	return Medium
}

func (a *QueryArgument) CanExtend(Argument) bool { return false }

func (a *QueryArgument) CanCoexist(sibling Argument) bool {
	switch sibling.(type) {
	case *FollowingArgument, *QueryArgument:
		return false
	default:
		return true
	}
}

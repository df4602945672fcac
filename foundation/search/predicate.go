// File: predicate.go
// Title: Search Predicate Model
// Description: Operators, predicates and clauses produced by the lexer.
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19

package search

import (
	"strconv"
	"strings"
)

// Operator controls how a predicate combines with its siblings
type Operator int

const (
	// Unspecified is carried by the root clause and the first element of a clause
	Unspecified Operator = iota

	// Include narrows the result to matches of the predicate (~)
	Include

	// Exclude removes matches of the predicate (-)
	Exclude

	// Merge widens the result with matches of the predicate (+)
	Merge
)

// DefaultOperator is applied to un-prefixed elements after the first
const DefaultOperator = Include

// String returns the name of the operator
func (o Operator) String() string {
	switch o {
	case Unspecified:
		return "unspecified"
	case Include:
		return "include"
	case Exclude:
		return "exclude"
	case Merge:
		return "merge"
	default:
		return "unknown"
	}
}

// prefix returns the query prefix that reproduces the operator after the
// first element of a clause.
func (o Operator) prefix() string {
	switch o {
	case Exclude:
		return "-"
	case Merge:
		return "+"
	default:
		return ""
	}
}

// Predicate is a node of a parsed query tree
type Predicate interface {
	// Operator returns the operator the predicate was prefixed with
	Operator() Operator

	// String renders the predicate in query syntax
	String() string
}

// StringLiteral is a quoted string element
type StringLiteral struct {
	Text string
	Op   Operator
}

// Operator implements Predicate
func (s *StringLiteral) Operator() Operator { return s.Op }

// String implements Predicate
func (s *StringLiteral) String() string {
	var b strings.Builder
	b.WriteString(s.Op.prefix())
	b.WriteByte('"')
	for _, r := range s.Text {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

// BareToken is an unquoted element
type BareToken struct {
	Text string
	Op   Operator
}

// Operator implements Predicate
func (t *BareToken) Operator() Operator { return t.Op }

// String implements Predicate
func (t *BareToken) String() string {
	return t.Op.prefix() + t.Text
}

// Clause groups child predicates under one operator
type Clause struct {
	Op       Operator
	Children []Predicate
}

// Operator implements Predicate
func (c *Clause) Operator() Operator { return c.Op }

// String implements Predicate
func (c *Clause) String() string {
	return c.Op.prefix() + "(" + c.body() + ")"
}

// Add appends a child predicate
func (c *Clause) Add(p Predicate) {
	c.Children = append(c.Children, p)
}

// Last returns the last child, or nil for an empty clause
func (c *Clause) Last() Predicate {
	if len(c.Children) == 0 {
		return nil
	}
	return c.Children[len(c.Children)-1]
}

func (c *Clause) body() string {
	parts := make([]string, len(c.Children))
	for i, child := range c.Children {
		parts[i] = child.String()
	}
	return strings.Join(parts, " ")
}

// Search is the result of parsing a query
type Search struct {
	Root *Clause
	Page int
}

// String renders the search in canonical query syntax. Parsing the result
// yields an identical tree.
func (s *Search) String() string {
	body := s.Root.body()
	if s.Page <= 1 {
		return body
	}
	directive := "page:" + strconv.Itoa(s.Page)
	if body == "" {
		return directive
	}
	return body + " " + directive
}

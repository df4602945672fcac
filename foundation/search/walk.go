// File: walk.go
// Title: Search Tree Visitor
// Description: Drives a Handler over a parsed clause tree so that backends
//              can translate queries into their own filter language.
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19

package search

import (
	"fmt"
)

// Handler receives a clause tree depth-first. Every Push is matched by a
// Pop once the clause's children have been visited.
type Handler interface {
	Push(op Operator) error
	Pop() error
	String(op Operator, text string) error
	Token(op Operator, text string) error
}

// Walk visits clause and its descendants in order. The first error returned
// by the handler stops the walk.
func Walk(clause *Clause, h Handler) error {
	if err := h.Push(clause.Op); err != nil {
		return err
	}

	for _, child := range clause.Children {
		if err := walkPredicate(child, h); err != nil {
			return err
		}
	}

	return h.Pop()
}

func walkPredicate(p Predicate, h Handler) error {
	switch v := p.(type) {
	case *Clause:
		return Walk(v, h)
	case *StringLiteral:
		return h.String(v.Op, v.Text)
	case *BareToken:
		return h.Token(v.Op, v.Text)
	default:
		return fmt.Errorf("search: unsupported predicate %T", p)
	}
}

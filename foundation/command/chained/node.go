// File: node.go
// Title: Chain Trie Nodes
// Description: Trie nodes and the registration checks applied when a child
//              is attached.
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19

package chained

import (
	"context"
	"strings"

	"github.com/manebot/manebot/foundation/command"
	mberror "github.com/manebot/manebot/foundation/core/error"
)

// Func handles a resolved chain. args holds the parsed values of every
// argument on the chain, in order.
type Func func(ctx context.Context, sender command.Sender, label string, args []interface{}) error

// Node is one argument position in the trie
type Node struct {
	owner       *Executor
	argument    Argument
	parent      *Node
	children    []*Node
	fn          Func
	description string
}

// Then attaches arg as a new child and returns it. arg must coexist with
// every existing child and the node's own argument must accept it beneath.
func (n *Node) Then(arg Argument) (*Node, error) {
	n.owner.mutex.Lock()
	defer n.owner.mutex.Unlock()
	return n.attach(arg)
}

func (n *Node) attach(arg Argument) (*Node, error) {
	if arg == nil {
		return nil, mberror.New("argument cannot be nil").WithCode(mberror.CodeRegistration)
	}

	if n.argument != nil && !n.argument.CanExtend(arg) {
		return nil, mberror.Newf("%s cannot be followed by %s", n.argument.HelpString(), arg.HelpString()).
			WithCode(mberror.CodeRegistration)
	}

	for _, sibling := range n.children {
		if !sibling.argument.CanCoexist(arg) || !arg.CanCoexist(sibling.argument) {
			return nil, mberror.Newf("%s cannot share a parent with %s", arg.HelpString(), sibling.argument.HelpString()).
				WithCode(mberror.CodeRegistration)
		}
	}

	child := &Node{owner: n.owner, argument: arg, parent: n}
	n.children = append(n.children, child)
	return child, nil
}

// Executes binds fn to the node, making it terminal
func (n *Node) Executes(fn Func) *Node {
	n.owner.mutex.Lock()
	defer n.owner.mutex.Unlock()
	n.fn = fn
	return n
}

// Describe sets the description shown after the node's help line
func (n *Node) Describe(description string) *Node {
	n.owner.mutex.Lock()
	defer n.owner.mutex.Unlock()
	n.description = description
	return n
}

// Argument returns the node's argument, nil for the root
func (n *Node) Argument() Argument { return n.argument }

// Parent returns the parent node, nil for the root
func (n *Node) Parent() *Node { return n.parent }

// Terminal reports whether a Func is bound to the node
func (n *Node) Terminal() bool { return n.fn != nil }

// HelpLine renders the chain ending at n
func (n *Node) HelpLine() string {
	var elements []string
	for node := n; node != nil && node.argument != nil; node = node.parent {
		elements = append(elements, node.argument.HelpString())
	}
	for i, j := 0, len(elements)-1; i < j; i, j = i+1, j-1 {
		elements[i], elements[j] = elements[j], elements[i]
	}

	line := strings.Join(elements, " ")
	if n.description != "" {
		line += ": " + n.description
	}
	return line
}

// Must panics if err is non-nil. It is meant for static registrations.
func Must(n *Node, err error) *Node {
	if err != nil {
		panic(err)
	}
	return n
}

// File: executor.go
// Title: Chained Command Executor
// Description: Round-based resolution of command tokens over the argument
//              trie, and help rendering over the same trie.
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19

package chained

import (
	"context"
	"sync"

	"github.com/manebot/manebot/foundation/command"
	mberror "github.com/manebot/manebot/foundation/core/error"
	mblog "github.com/manebot/manebot/foundation/core/log"
)

// Executor is a command.Executor backed by an argument trie
type Executor struct {
	root   *Node
	logger *mblog.Logger
	mutex  sync.RWMutex
}

// Options configures an Executor
type Options struct {
	Logger *mblog.Logger
}

// Match is the outcome of a successful resolution
type Match struct {
	Node     *Node
	Priority Priority
	Args     []interface{}
}

// candidate is a trie node paired with the state that reached it
type candidate struct {
	node     *Node
	priority Priority
	state    *State
}

var _ command.Executor = (*Executor)(nil)

// New creates an executor with an empty trie
func New(opts Options) *Executor {
	if opts.Logger == nil {
		opts.Logger = mblog.GetDefault()
	}

	e := &Executor{
		logger: opts.Logger.WithField("component", "chained-executor"),
	}
	e.root = &Node{owner: e}
	return e
}

// WithArguments adds a new chain of args under the root and returns its
// last node. Chains are not merged with existing prefixes.
func (e *Executor) WithArguments(args ...Argument) (*Node, error) {
	if len(args) == 0 {
		return nil, mberror.New("argument chain cannot be empty").WithCode(mberror.CodeRegistration)
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()

	node := e.root
	for _, arg := range args {
		next, err := node.attach(arg)
		if err != nil {
			return nil, err
		}
		node = next
	}
	return node, nil
}

// Root returns the root node. Its children are the first arguments of
// every chain.
func (e *Executor) Root() *Node {
	return e.root
}

// Resolve selects the single best chain fully consuming tokens. When that
// chain's arguments failed to parse, their error is returned.
func (e *Executor) Resolve(sender command.Sender, tokens []string) (*Match, error) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	frontier := []candidate{{node: e.root, priority: Reject, state: NewState(sender, tokens)}}
	var completed []candidate

	for round := 0; len(frontier) > 0; round++ {
		var accepted []candidate
		best := Reject

		for _, c := range frontier {
			for _, child := range c.node.children {
				state := c.state.Clone()
				priority := child.argument.Cast(state)
				if priority == Reject {
					continue
				}
				if priority > best {
					best = priority
				}
				accepted = append(accepted, candidate{node: child, priority: priority, state: state})
			}
		}

		e.logger.Trace("Resolution round", mblog.Fields{
			"round":    round,
			"frontier": len(frontier),
			"accepted": len(accepted),
			"best":     best.String(),
		})

		var next []candidate
		for _, c := range accepted {
			if c.priority < best {
				continue
			}
			if c.state.Size() == 0 && (c.node.fn != nil || len(c.node.children) == 0) {
				completed = append(completed, c)
			}
			if len(c.node.children) > 0 {
				next = append(next, c)
			}
		}
		frontier = next
	}

	best := Reject
	for _, c := range completed {
		if c.priority > best {
			best = c.priority
		}
	}

	if len(completed) == 0 || best == Reject {
		return nil, mberror.New("Arguments not acceptable; see command help for more information.").
			WithCode(mberror.CodeNoMatch).
			WithDetail("tokens", len(tokens))
	}

	var matches []candidate
	for _, c := range completed {
		if c.priority == best {
			matches = append(matches, c)
		}
	}

	if len(matches) > 1 {
		return nil, mberror.Newf("Multiple argument chains: %d matches.", len(matches)).
			WithCode(mberror.CodeAmbiguous).
			WithDetail("matches", len(matches))
	}

	m := matches[0]
	if err := m.state.Err(); err != nil {
		return nil, err
	}
	return &Match{Node: m.node, Priority: m.priority, Args: m.state.Parsed()}, nil
}

// Execute resolves args and invokes the matched chain's Func
func (e *Executor) Execute(ctx context.Context, sender command.Sender, label string, args []string) error {
	match, err := e.Resolve(sender, args)
	if err != nil {
		return err
	}

	e.mutex.RLock()
	fn := match.Node.fn
	chain := match.Node.HelpLine()
	e.mutex.RUnlock()

	if fn == nil {
		return mberror.New("No handler for command.").
			WithCode(mberror.CodeNoHandler).
			WithDetail("chain", chain)
	}

	e.logger.Debug("Argument chain resolved", mblog.Fields{
		"label":    label,
		"chain":    chain,
		"priority": match.Priority.String(),
	})

	return fn(ctx, sender, label, match.Args)
}

// Help lists the chains reachable from args. Candidates are never pruned by
// priority. A node that is reached with no tokens left, or that no child
// accepts, contributes itself and every chain beneath it.
func (e *Executor) Help(_ context.Context, sender command.Sender, _ string, args []string) ([]string, error) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	frontier := []candidate{{node: e.root, priority: Reject, state: NewState(sender, args)}}
	var completed []*Node

	for len(frontier) > 0 {
		var next []candidate

		for _, c := range frontier {
			advanced := false
			if c.state.Size() > 0 {
				for _, child := range c.node.children {
					state := c.state.Clone()
					priority := child.argument.Cast(state)
					if priority == Reject {
						continue
					}
					next = append(next, candidate{node: child, priority: priority, state: state})
					advanced = true
				}
			}
			if !advanced {
				completed = append(completed, flatten(c.node)...)
			}
		}

		frontier = next
	}

	if len(completed) == 0 && len(e.root.children) > 0 {
		return nil, mberror.New("Arguments not acceptable; see command help for more information.").
			WithCode(mberror.CodeNoMatch)
	}

	lines := make([]string, len(completed))
	for i, node := range completed {
		lines[i] = node.HelpLine()
	}
	return lines, nil
}

// flatten returns node and its descendants, breadth-first, that end a chain
func flatten(node *Node) []*Node {
	var chains []*Node
	queue := []*Node{node}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		if n.argument != nil && (n.fn != nil || len(n.children) == 0) {
			chains = append(chains, n)
		}
		queue = append(queue, n.children...)
	}

	return chains
}

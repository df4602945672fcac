// File: doc.go
// Title: Chained Executor Package Documentation
// Description: Resolves command tokens against a trie of typed argument
//              chains.
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial chain resolver

/*
Package chained implements command.Executor over a trie of argument chains.

Each path from the root of the trie is a sequence of Arguments. A node with
a bound Func completes a chain. Registration builds the trie:

	exec := chained.New(chained.Options{})
	chained.Must(exec.WithArguments(chained.Label("list"))).
	    Describe("Lists active bans").
	    Executes(listBans)
	chained.Must(exec.WithArguments(chained.String("user"), chained.Following("reason"))).
	    Executes(banUser)

Resolution proceeds in rounds. In each round every child of every frontier
node casts a clone of its parent's State and reports a Priority. Only the
candidates at the best priority of that round survive; there is no
backtracking, so a locally best branch that dead-ends later can eliminate a
lower-priority branch that would have matched.

A surviving candidate whose node is terminal and whose state has no tokens
left is a completion. Candidates whose node has children carry on to the
next round. When the frontier is empty, the completions at the highest
priority are kept. Exactly one must remain: none is CodeNoMatch and more
than one is CodeAmbiguous.

Help rendering uses the same rounds without pruning and lists every
terminal chain reachable from the supplied tokens.
*/
package chained

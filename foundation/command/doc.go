// File: doc.go
// Title: Command Package Documentation
// Description: Command senders, executors and the label registry.
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial command manager

/*
Package command provides the command registry and dispatcher.

A command line such as "!ban alice spamming" is dispatched by a Manager:
the configured prefix is stripped, the line is split on whitespace, the
first token selects an Executor by label (case-insensitively, aliases
included) and the remaining tokens are handed to it.

Executors usually come from the chained subpackage, which resolves the
tokens against a trie of typed argument chains:

	exec := chained.New(chained.Options{})
	exec.WithArguments(chained.Label("list")).Executes(listBans)

	reg, err := manager.Register("ban", exec)
	if err == nil {
	    _, err = reg.Alias("b")
	}

The Sender carries the identity and security context of whoever typed the
line; it is passed explicitly to every executor.
*/
package command

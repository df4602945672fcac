// File: command.go
// Title: Command Contracts
// Description: Sender and Executor interfaces shared by the dispatcher,
//              the chain resolver and the chat platforms.
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19

package command

import (
	"context"

	"github.com/manebot/manebot/foundation/security"
)

// Sender is the origin of a command
type Sender interface {
	security.Checker

	// Username is the unique, stable name of the sender
	Username() string

	// DisplayName is the name shown to other users
	DisplayName() string

	// SendMessage delivers a line of text back to the sender
	SendMessage(message string)
}

// Executor runs a command for a label and its arguments
type Executor interface {
	Execute(ctx context.Context, sender Sender, label string, args []string) error
	Help(ctx context.Context, sender Sender, label string, args []string) ([]string, error)
}

// ExecutorFunc adapts a plain function to the Executor interface. It has no
// help lines.
type ExecutorFunc func(ctx context.Context, sender Sender, label string, args []string) error

// Execute implements Executor
func (f ExecutorFunc) Execute(ctx context.Context, sender Sender, label string, args []string) error {
	return f(ctx, sender, label, args)
}

// Help implements Executor
func (f ExecutorFunc) Help(context.Context, Sender, string, []string) ([]string, error) {
	return nil, nil
}

// aliasExecutor forwards to the executor of another label, passing that
// label instead of the alias.
type aliasExecutor struct {
	target Executor
	label  string
}

func (a *aliasExecutor) Execute(ctx context.Context, sender Sender, _ string, args []string) error {
	return a.target.Execute(ctx, sender, a.label, args)
}

func (a *aliasExecutor) Help(ctx context.Context, sender Sender, _ string, args []string) ([]string, error) {
	return a.target.Help(ctx, sender, a.label, args)
}

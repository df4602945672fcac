// Package chat connects chat platforms to the command dispatcher.
package chat

import (
	"context"
	"time"
)

// Chat is a conversation messages can be sent to
type Chat interface {
	// ID is unique within the platform
	ID() string
	Platform() string
	Send(ctx context.Context, text string) error
}

// Message is a line of text received from a chat
type Message struct {
	Chat        Chat
	Username    string
	DisplayName string
	Text        string
	Received    time.Time
}

// Handler receives every message of a platform. Messages of the same chat
// are delivered in order.
type Handler func(ctx context.Context, msg *Message)

// Platform is a source of chats
type Platform interface {
	Name() string

	// Run delivers messages to handler until ctx is cancelled or the
	// platform runs out of input
	Run(ctx context.Context, handler Handler) error
}

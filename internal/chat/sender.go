package chat

import (
	"context"
	"strings"
	"sync"

	"github.com/manebot/manebot/foundation/command"
	"github.com/manebot/manebot/foundation/security"
	"github.com/manebot/manebot/foundation/utils/stringx"
	"github.com/manebot/manebot/pkg/core/logging"
)

// Sender is the command.Sender of a chat user. Between Begin and End,
// replies are collected and sent to the chat as a single message.
type Sender struct {
	username    string
	displayName string
	chat        Chat
	checker     security.Checker
	logger      *logging.Logger

	mu       sync.Mutex
	buffered bool
	lines    []string
}

var _ command.Sender = (*Sender)(nil)

// NewSender creates a sender for username in chat. A blank displayName
// falls back to the username. Permission checks go to checker.
func NewSender(username, displayName string, chat Chat, checker security.Checker) *Sender {
	return &Sender{
		username:    username,
		displayName: stringx.FirstNonBlank(displayName, username),
		chat:        chat,
		checker:     checker,
		logger:      logging.New("chat").With("chat", chat.ID(), "platform", chat.Platform()),
	}
}

// Username implements command.Sender
func (s *Sender) Username() string {
	return s.username
}

// DisplayName implements command.Sender
func (s *Sender) DisplayName() string {
	return s.displayName
}

// Chat returns the chat the sender writes to
func (s *Sender) Chat() Chat {
	return s.chat
}

// HasPermission implements security.Checker
func (s *Sender) HasPermission(ctx context.Context, perm *security.Permission, def security.Grant) (bool, error) {
	if s.checker == nil {
		return def == security.Allow, nil
	}
	return s.checker.HasPermission(ctx, perm, def)
}

// Format renders a reply line addressed to the sender
func (s *Sender) Format(message string) string {
	return strings.TrimSpace(s.displayName) + " -> " + stringx.SingleLine(message)
}

// SendMessage implements command.Sender. Outside a buffer the line is sent
// immediately.
func (s *Sender) SendMessage(message string) {
	line := s.Format(message)

	s.mu.Lock()
	if s.buffered {
		s.lines = append(s.lines, line)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.send(context.Background(), line)
}

// Begin opens the buffer. It reports false when the buffer was already open.
func (s *Sender) Begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buffered {
		return false
	}
	s.buffered = true
	return true
}

// End closes the buffer and sends the collected lines joined by newlines.
// It returns the number of lines sent.
func (s *Sender) End(ctx context.Context) int {
	s.mu.Lock()
	if !s.buffered {
		s.mu.Unlock()
		return 0
	}
	lines := s.lines
	s.lines = nil
	s.buffered = false
	s.mu.Unlock()

	if len(lines) > 0 {
		s.send(ctx, strings.Join(lines, "\n"))
	}
	return len(lines)
}

// Flush sends the collected lines and keeps the buffer open
func (s *Sender) Flush(ctx context.Context) int {
	s.mu.Lock()
	if !s.buffered {
		s.mu.Unlock()
		return 0
	}
	lines := s.lines
	s.lines = nil
	s.mu.Unlock()

	if len(lines) > 0 {
		s.send(ctx, strings.Join(lines, "\n"))
	}
	return len(lines)
}

func (s *Sender) send(ctx context.Context, text string) {
	if err := s.chat.Send(ctx, text); err != nil {
		s.logger.Warn("Failed to send message", "user", s.username, "error", err)
	}
}

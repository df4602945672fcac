package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/manebot/manebot/pkg/core/logging"
)

// ConsoleName is the platform name of the console
const ConsoleName = "console"

// Console is a single-chat platform reading lines from in and writing
// replies to out
type Console struct {
	in          io.Reader
	out         io.Writer
	username    string
	displayName string
	logger      *logging.Logger

	mu sync.Mutex
}

// NewConsole creates a console platform whose messages come from username
func NewConsole(in io.Reader, out io.Writer, username, displayName string) *Console {
	return &Console{
		in:          in,
		out:         out,
		username:    username,
		displayName: displayName,
		logger:      logging.New("console"),
	}
}

// Name implements Platform
func (c *Console) Name() string {
	return ConsoleName
}

// ID implements Chat
func (c *Console) ID() string {
	return ConsoleName
}

// Platform implements Chat
func (c *Console) Platform() string {
	return ConsoleName
}

// Send implements Chat
func (c *Console) Send(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.out, text)
	return err
}

// Run implements Platform. It returns nil at end of input.
func (c *Console) Run(ctx context.Context, handler Handler) error {
	lines := make(chan string)
	errCh := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errCh <- scanner.Err()
	}()

	c.logger.Info("Console ready", "user", c.username)

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errCh:
					return err
				default:
					return nil
				}
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			handler(ctx, &Message{
				Chat:        c,
				Username:    c.username,
				DisplayName: c.displayName,
				Text:        text,
				Received:    time.Now(),
			})
		}
	}
}

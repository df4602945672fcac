package chat

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/manebot/manebot/pkg/core/logging"
)

// WebsocketName is the platform name of the websocket server
const WebsocketName = "websocket"

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// InboundFrame is a message received from a websocket client
type InboundFrame struct {
	User string `json:"user"`
	Name string `json:"name,omitempty"`
	Text string `json:"text"`
}

// OutboundFrame is sent to websocket clients. Exactly one field is set.
type OutboundFrame struct {
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// WebsocketOptions configures the websocket platform
type WebsocketOptions struct {
	Addr        string
	Path        string
	ReadTimeout time.Duration
}

// Websocket serves one chat per websocket connection
type Websocket struct {
	opts   WebsocketOptions
	logger *logging.Logger

	mu    sync.Mutex
	conns map[*wsChat]struct{}
}

// NewWebsocket creates the websocket platform
func NewWebsocket(opts WebsocketOptions) *Websocket {
	if opts.Path == "" {
		opts.Path = "/ws"
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 60 * time.Second
	}
	return &Websocket{
		opts:   opts,
		logger: logging.New("websocket"),
		conns:  make(map[*wsChat]struct{}),
	}
}

// Name implements Platform
func (w *Websocket) Name() string {
	return WebsocketName
}

// Run implements Platform. It serves until ctx is cancelled, then closes
// every open connection.
func (w *Websocket) Run(ctx context.Context, handler Handler) error {
	listener, err := net.Listen("tcp", w.opts.Addr)
	if err != nil {
		return err
	}
	return w.Serve(ctx, listener, handler)
}

// Serve is Run on an existing listener
func (w *Websocket) Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	mux := http.NewServeMux()
	mux.Handle(w.opts.Path, w.Handler(ctx, handler))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()
	w.logger.Info("Websocket platform listening", "address", listener.Addr().String(), "path", w.opts.Path)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := server.Shutdown(shutdownCtx)
	w.closeAll()
	return err
}

// Handler returns the upgrade handler. Messages are handed to handler
// with ctx as their context.
func (w *Websocket) Handler(ctx context.Context, handler Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(rw, r, nil)
		if err != nil {
			w.logger.Error("Websocket upgrade failed", "error", err)
			return
		}

		c := &wsChat{id: uuid.New().String(), conn: conn}
		w.track(c, true)
		defer w.track(c, false)

		w.serveConn(ctx, c, handler)
	})
}

// Connections returns the number of open connections
func (w *Websocket) Connections() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.conns)
}

func (w *Websocket) track(c *wsChat, open bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if open {
		w.conns[c] = struct{}{}
	} else {
		delete(w.conns, c)
	}
}

func (w *Websocket) closeAll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for c := range w.conns {
		c.close()
	}
}

func (w *Websocket) serveConn(ctx context.Context, c *wsChat, handler Handler) {
	defer c.conn.Close()

	logger := w.logger.With("chat", c.id, "remote", c.conn.RemoteAddr().String())
	logger.Info("Websocket connection established")

	c.conn.SetReadDeadline(time.Now().Add(w.opts.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(w.opts.ReadTimeout))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go c.keepalive(w.opts.ReadTimeout/2, done)

	for {
		var frame InboundFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("Websocket read error", "error", err)
			} else {
				logger.Info("Websocket connection closed")
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(w.opts.ReadTimeout))

		user := strings.TrimSpace(frame.User)
		if user == "" {
			c.write(OutboundFrame{Error: "user is required"})
			continue
		}
		text := strings.TrimSpace(frame.Text)
		if text == "" {
			continue
		}

		handler(ctx, &Message{
			Chat:        c,
			Username:    user,
			DisplayName: frame.Name,
			Text:        text,
			Received:    time.Now(),
		})
	}
}

// wsChat is the chat of a single connection
type wsChat struct {
	id      string
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsChat) ID() string {
	return c.id
}

func (c *wsChat) Platform() string {
	return WebsocketName
}

func (c *wsChat) Send(_ context.Context, text string) error {
	return c.write(OutboundFrame{Text: text})
}

func (c *wsChat) write(frame OutboundFrame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(frame)
}

func (c *wsChat) keepalive(interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (c *wsChat) close() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
		time.Now().Add(time.Second))
	c.conn.Close()
}

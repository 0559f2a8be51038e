// Package twitch connects to Twitch chat over its IRC websocket gateway.
package twitch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/net/websocket"
)

const (
	DefaultURL    = "wss://irc-ws.chat.twitch.tv:443"
	defaultOrigin = "http://localhost/"
)

var (
	ErrMissingCredentials = errors.New("twitch auth token, user and channel are required")
	ErrAlreadyConnected   = errors.New("twitch connection already open")
	ErrNotConnected       = errors.New("twitch connection not open")
	ErrConnectAborted     = errors.New("twitch connection attempt aborted")
	ErrClientClosed       = errors.New("twitch client closed")
)

// Status is the state of the chat connection.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
)

// Credentials identify the bot account and the channel to join.
type Credentials struct {
	AuthToken string `json:"auth_token"`
	AuthUser  string `json:"auth_user"`
	Channel   string `json:"channel"`
}

// Validate checks that every field is filled.
func (c Credentials) Validate() error {
	if c.AuthToken == "" || c.AuthUser == "" || c.Channel == "" {
		return ErrMissingCredentials
	}
	return nil
}

// MessageHandler receives chat messages on the connection's read goroutine.
type MessageHandler func(Message)

// Client holds at most one chat connection at a time.
type Client struct {
	url     string
	origin  string
	handler MessageHandler
	logger  *slog.Logger

	mu         sync.Mutex
	status     Status
	conn       *websocket.Conn
	done       chan struct{}
	cancelDial context.CancelFunc
	connecting chan struct{}
	aborted    bool
	closed     bool
}

// NewClient creates a disconnected client for the gateway at url.
func NewClient(url string, handler MessageHandler, logger *slog.Logger) *Client {
	if url == "" {
		url = DefaultURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		url:     url,
		origin:  defaultOrigin,
		handler: handler,
		logger:  logger.With("component", "twitch"),
		status:  StatusDisconnected,
	}
}

// Status returns the current connection status.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Connect dials the gateway, authenticates and joins the channel. Messages are delivered
// to the handler until Disconnect is called or the server closes the connection.
func (c *Client) Connect(ctx context.Context, creds Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClientClosed
	}
	if c.status != StatusDisconnected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	dialCtx, cancel := context.WithCancel(ctx)
	connecting := make(chan struct{})
	c.status = StatusConnecting
	c.cancelDial = cancel
	c.connecting = connecting
	c.aborted = false
	c.mu.Unlock()

	defer close(connecting)
	defer cancel()

	conn, err := c.dial(dialCtx, creds)

	c.mu.Lock()
	c.cancelDial = nil
	c.connecting = nil
	if err == nil && (c.aborted || c.closed) {
		conn.Close()
		err = ErrConnectAborted
	}
	if err != nil {
		c.status = StatusDisconnected
		c.mu.Unlock()
		c.logger.Error("Connection failed", "channel", creds.Channel, "error", err)
		return err
	}

	done := make(chan struct{})
	c.conn = conn
	c.done = done
	c.status = StatusConnected
	c.mu.Unlock()

	c.logger.Info("Connection opened", "channel", creds.Channel, "user", creds.AuthUser)
	go c.readLoop(conn, done)
	return nil
}

func (c *Client) dial(ctx context.Context, creds Credentials) (*websocket.Conn, error) {
	config, err := websocket.NewConfig(c.url, c.origin)
	if err != nil {
		return nil, fmt.Errorf("invalid twitch url: %w", err)
	}

	conn, err := config.DialContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to twitch: %w", err)
	}

	token := creds.AuthToken
	if !strings.HasPrefix(token, "oauth:") {
		token = "oauth:" + token
	}
	channel := strings.ToLower(strings.TrimPrefix(creds.Channel, "#"))

	for _, line := range []string{
		"PASS " + token,
		"NICK " + strings.ToLower(creds.AuthUser),
		"JOIN #" + channel,
	} {
		if err := websocket.Message.Send(conn, line+"\r\n"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to authenticate with twitch: %w", err)
		}
	}

	return conn, nil
}

func (c *Client) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	for {
		var frame string
		if err := websocket.Message.Receive(conn, &frame); err != nil {
			c.logger.Debug("Read loop ended", "error", err)
			break
		}

		for _, line := range splitLines(frame) {
			if payload, ok := parsePing(line); ok {
				if err := websocket.Message.Send(conn, "PONG "+payload+"\r\n"); err != nil {
					c.logger.Warn("Failed to answer ping", "error", err)
				}
				continue
			}
			if msg, ok := ParsePrivmsg(line); ok && c.handler != nil {
				c.handler(msg)
			}
		}
	}

	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
		c.status = StatusDisconnected
	}
	c.mu.Unlock()
	conn.Close()
	c.logger.Info("Connection closed")
}

// Disconnect closes the connection and waits for the read loop to finish.
// A connection attempt still in progress is aborted and waited for.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	if c.status == StatusConnecting && c.connecting != nil {
		c.aborted = true
		cancel, connecting := c.cancelDial, c.connecting
		c.mu.Unlock()

		cancel()
		<-connecting
		c.logger.Info("Connection attempt aborted")
		return nil
	}
	conn, done := c.conn, c.done
	c.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}

	if err := conn.Close(); err != nil {
		c.logger.Debug("Close returned error", "error", err)
	}
	<-done
	return nil
}

// Close disconnects and makes every later Connect fail with ErrClientClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	if err := c.Disconnect(); err != nil && !errors.Is(err, ErrNotConnected) {
		return err
	}
	return nil
}

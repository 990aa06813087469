// Package websocket receives the backend event feed over a WebSocket.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/OCAP2/gcs/pkg/core"
	"github.com/OCAP2/gcs/pkg/streaming"
)

const instrumentationName = "github.com/OCAP2/gcs/internal/transport/websocket"

const (
	defaultInitialBackoff = time.Second
	defaultMaxBackoff     = 30 * time.Second
	writeWait             = 10 * time.Second
	pongWait              = 60 * time.Second
	pingPeriod            = (pongWait * 9) / 10
)

// Handler receives decoded events. It runs on the read goroutine, so
// implementations post to the map loop themselves.
type Handler func(core.ServerEvent)

// Config holds event feed connection settings.
type Config struct {
	URL    string
	Secret string

	// InitialBackoff and MaxBackoff bound the reconnect delay, which doubles
	// after every failed attempt.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// OnReconnect runs on the read goroutine each time a connection opens
	// after an earlier one dropped. Events sent in between are lost.
	OnReconnect func()
}

// Client keeps a connection to the event feed open until its context ends.
type Client struct {
	cfg     Config
	handler Handler
	logger  *slog.Logger
	dialer  *ws.Dialer

	mu        sync.Mutex
	connected bool

	received   metric.Int64Counter
	malformed  metric.Int64Counter
	reconnects metric.Int64Counter
}

// New creates a client. Nothing is dialed until Run.
func New(cfg Config, handler Handler, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultInitialBackoff
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = max(defaultMaxBackoff, cfg.InitialBackoff)
	}
	c := &Client{
		cfg:     cfg,
		handler: handler,
		logger:  logger.With("component", "feed"),
		dialer:  ws.DefaultDialer,
	}

	m := otel.Meter(instrumentationName)
	var err error
	c.received, err = m.Int64Counter(
		"feed.events.received",
		metric.WithDescription("Events decoded from the feed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating received counter: %w", err)
	}
	c.malformed, err = m.Int64Counter(
		"feed.events.dropped",
		metric.WithDescription("Feed messages that could not be decoded"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}
	c.reconnects, err = m.Int64Counter(
		"feed.reconnects",
		metric.WithDescription("Reconnect attempts to the event feed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating reconnect counter: %w", err)
	}
	return c, nil
}

// Connected reports whether a connection is currently open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Run dials the feed and reads from it, reconnecting with exponential
// backoff whenever the connection drops. It returns nil once ctx is done.
func (c *Client) Run(ctx context.Context) error {
	backoff := c.cfg.InitialBackoff
	wasConnected := false
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			c.reconnects.Add(ctx, 1)
			c.logger.Info("Reconnecting to event feed", "attempt", attempt, "backoff", backoff)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
		}

		conn, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Warn("Event feed dial failed", "error", err)
			backoff = min(backoff*2, c.cfg.MaxBackoff)
			continue
		}

		backoff = c.cfg.InitialBackoff
		c.logger.Info("Event feed connected", "url", c.cfg.URL)
		if wasConnected && c.cfg.OnReconnect != nil {
			c.cfg.OnReconnect()
		}
		wasConnected = true
		err = c.read(ctx, conn)
		if ctx.Err() != nil {
			return nil
		}
		c.logger.Warn("Event feed connection lost", "error", err)
	}
}

// dial performs a single dial with the secret query param.
func (c *Client) dial(ctx context.Context) (*ws.Conn, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid websocket URL: %w", err)
	}
	if c.cfg.Secret != "" {
		q := u.Query()
		q.Set("secret", c.cfg.Secret)
		u.RawQuery = q.Encode()
	}

	conn, _, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

// read consumes messages until the connection fails or ctx ends. A ping
// goroutine keeps the read deadline moving.
func (c *Client) read(ctx context.Context, conn *ws.Conn) error {
	c.setConnected(true)
	defer c.setConnected(false)

	done := make(chan struct{})
	defer close(done)
	go c.keepalive(ctx, conn, done)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.handle(ctx, message)
	}
}

// keepalive pings the server and closes conn when ctx ends, which unblocks
// the reader.
func (c *Client) keepalive(ctx context.Context, conn *ws.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer conn.Close()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			_ = conn.WriteControl(
				ws.CloseMessage,
				ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
				time.Now().Add(writeWait),
			)
			return
		case <-ticker.C:
			if err := conn.WriteControl(ws.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.logger.Debug("Ping failed", "error", err)
				return
			}
		}
	}
}

// handle decodes one message. Malformed and unknown messages are dropped.
func (c *Client) handle(ctx context.Context, message []byte) {
	var env streaming.Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		c.malformed.Add(ctx, 1)
		c.logger.Debug("Non-envelope message received", "raw", string(message))
		return
	}

	ev, err := streaming.Decode(env)
	if err != nil {
		c.malformed.Add(ctx, 1)
		if errors.Is(err, streaming.ErrUnknownType) {
			c.logger.Debug("Ignoring message", "type", env.Type)
		} else {
			c.logger.Debug("Dropping malformed message", "type", env.Type, "error", err)
		}
		return
	}

	c.received.Add(ctx, 1)
	c.handler(ev)
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

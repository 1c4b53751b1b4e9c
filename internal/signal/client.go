package signal

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// DefaultRetryDelay is how long the client waits before redialing after a
// connection failure.
const DefaultRetryDelay = 5 * time.Second

// maxLineSize bounds a single notification line. Attachment-bearing
// envelopes can carry large base64 payloads.
const maxLineSize = 4 * 1024 * 1024

// TextHandler receives the text of each extracted chat message.
type TextHandler interface {
	Handle(text string)
}

// Client maintains a TCP connection to the signal-cli daemon, reading
// newline-delimited JSON notifications and dispatching extracted chat text
// to a handler. It reconnects forever with a fixed delay and only stops
// when its context is cancelled.
type Client struct {
	addr       string
	retryDelay time.Duration
	logger     *slog.Logger

	connected atomic.Bool

	// OTel metrics
	linesRead  metric.Int64Counter
	extracted  metric.Int64Counter
	reconnects metric.Int64Counter
}

// Option configures the client.
type Option func(*Client)

// WithRetryDelay overrides the fixed reconnect delay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// NewClient creates a client for the daemon at host:port.
// Uses the global OTel meter for metrics (no-op if not configured).
func NewClient(host string, port int, logger *slog.Logger, opts ...Option) (*Client, error) {
	c := &Client{
		addr:       net.JoinHostPort(host, strconv.Itoa(port)),
		retryDelay: DefaultRetryDelay,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	m := meter()

	var err error
	c.linesRead, err = m.Int64Counter(
		"signal.lines.read",
		metric.WithDescription("Total notification lines read from the daemon"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating lines counter: %w", err)
	}
	c.extracted, err = m.Int64Counter(
		"signal.messages.extracted",
		metric.WithDescription("Total chat messages extracted from notifications"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating extracted counter: %w", err)
	}
	c.reconnects, err = m.Int64Counter(
		"signal.reconnects",
		metric.WithDescription("Total reconnect attempts after a connection failure"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating reconnects counter: %w", err)
	}

	return c, nil
}

// Connected reports whether the client currently holds a live connection.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Run connects and reads until ctx is cancelled. Connection failures are
// retried forever with a fixed delay; Run only returns ctx.Err().
func (c *Client) Run(ctx context.Context, handler TextHandler) error {
	c.logger.Info("Connecting to signal-cli daemon", "addr", c.addr)

	var dialer net.Dialer
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, err := dialer.DialContext(ctx, "tcp", c.addr)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("Connection failed, is the daemon running with --tcp?",
				"addr", c.addr, "error", err)
			if err := c.waitRetry(ctx); err != nil {
				return err
			}
			continue
		}

		c.logger.Info("Connected to daemon", "addr", c.addr)
		err = c.readLines(ctx, conn, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			c.logger.Error("Connection error, reconnecting", "error", err, "delay", c.retryDelay)
		} else {
			c.logger.Error("Connection closed by daemon, reconnecting", "delay", c.retryDelay)
		}
		if err := c.waitRetry(ctx); err != nil {
			return err
		}
	}
}

// readLines consumes the connection line by line until end-of-stream,
// error, or cancellation. The connection is always closed on return.
func (c *Client) readLines(ctx context.Context, conn net.Conn, handler TextHandler) error {
	c.connected.Store(true)
	defer c.connected.Store(false)

	// Unblock the read when ctx is cancelled.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-watchDone:
		}
	}()
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		c.linesRead.Add(ctx, 1)

		msg, ok, err := Route(line)
		if err != nil {
			c.logger.Debug("Dropping non-JSON line", "raw", string(line))
			continue
		}
		if !ok {
			c.logger.Debug("Dropping non-chat notification")
			continue
		}

		c.extracted.Add(ctx, 1)
		c.logger.Info("Message received",
			"account", truncate(msg.Account, 7),
			"source", truncate(msg.Source, 10))
		handler.Handle(msg.Text)
	}

	return scanner.Err()
}

// waitRetry sleeps for the retry delay, returning early on cancellation.
func (c *Client) waitRetry(ctx context.Context) error {
	c.reconnects.Add(ctx, 1)

	timer := time.NewTimer(c.retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// truncate shortens identifiers for log output. Phone numbers are PII.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Package tak transmits encoded CoT events to a TAK endpoint.
package tak

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/sigtak/bridge/internal/queue"
)

// DefaultRetryDelay is how long the sender waits before redialing after a
// connection failure.
const DefaultRetryDelay = 5 * time.Second

// ErrUnsupportedScheme is returned for CoT URLs that are not udp:// or tcp://.
var ErrUnsupportedScheme = errors.New("unsupported cot url scheme")

// Sender drains the output queue and writes each CoT payload to the
// configured endpoint. It is the queue's only consumer.
type Sender struct {
	network    string
	addr       string
	retryDelay time.Duration
	logger     *slog.Logger
	queue      *queue.Queue[[]byte]
}

// Option configures the sender.
type Option func(*Sender)

// WithRetryDelay overrides the fixed reconnect delay.
func WithRetryDelay(d time.Duration) Option {
	return func(s *Sender) { s.retryDelay = d }
}

// NewSender creates a sender for a CoT URL of the form udp://host:port or
// tcp://host:port. A malformed URL is a configuration error and fatal.
func NewSender(cotURL string, q *queue.Queue[[]byte], logger *slog.Logger, opts ...Option) (*Sender, error) {
	u, err := url.Parse(cotURL)
	if err != nil {
		return nil, fmt.Errorf("parsing cot url %q: %w", cotURL, err)
	}
	if u.Scheme != "udp" && u.Scheme != "tcp" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	if u.Port() == "" {
		return nil, fmt.Errorf("cot url %q has no port", cotURL)
	}

	s := &Sender{
		network:    u.Scheme,
		addr:       u.Host,
		retryDelay: DefaultRetryDelay,
		logger:     logger,
		queue:      q,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run sends queued events until ctx is cancelled. Connection failures are
// retried with a fixed delay; the event being sent at the time of a write
// failure is retransmitted on the next connection, so no drained event is
// lost to a transient outage.
func (s *Sender) Run(ctx context.Context) error {
	s.logger.Info("Starting CoT transmitter", "network", s.network, "addr", s.addr)

	var dialer net.Dialer
	var pending []byte

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, err := dialer.DialContext(ctx, s.network, s.addr)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("CoT endpoint unreachable", "addr", s.addr, "error", err)
			if err := s.waitRetry(ctx); err != nil {
				return err
			}
			continue
		}

		pending, err = s.sendLoop(ctx, conn, pending)
		conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Error("CoT write failed, reconnecting", "error", err, "delay", s.retryDelay)
		if err := s.waitRetry(ctx); err != nil {
			return err
		}
	}
}

// sendLoop writes events until a write fails or ctx is done. It returns
// the payload that failed to send, if any, for retransmission.
func (s *Sender) sendLoop(ctx context.Context, conn net.Conn, pending []byte) ([]byte, error) {
	for {
		if pending == nil {
			item, err := s.queue.Wait(ctx)
			if err != nil {
				return nil, err
			}
			pending = item
		}

		if _, err := conn.Write(pending); err != nil {
			return pending, err
		}
		s.logger.Debug("Sent CoT event", "bytes", len(pending))
		pending = nil
	}
}

func (s *Sender) waitRetry(ctx context.Context) error {
	timer := time.NewTimer(s.retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

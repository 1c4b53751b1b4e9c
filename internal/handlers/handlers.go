// Package handlers glues the message pipeline together: chat text in,
// encoded CoT bytes on the output queue.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"go.opentelemetry.io/otel/metric"

	"github.com/sigtak/bridge/internal/cot"
	"github.com/sigtak/bridge/internal/parser"
	"github.com/sigtak/bridge/internal/queue"
)

// Dependencies holds all dependencies for the handler service.
type Dependencies struct {
	Parser     *parser.Parser
	Queue      *queue.Queue[[]byte]
	Logger     *slog.Logger
	EncodeOpts []cot.Option
}

// Stats is a snapshot of the service's lifetime counters.
type Stats struct {
	MarkersProduced uint64
	MessagesDropped uint64
}

// Service converts chat text into encoded marker events. Handle never
// propagates a failure; bad messages are logged and dropped.
type Service struct {
	deps Dependencies

	produced atomic.Uint64
	dropped  atomic.Uint64

	// OTel metrics
	markersProduced metric.Int64Counter
	messagesDropped metric.Int64Counter
}

// NewService creates a handler service.
// Uses the global OTel meter for metrics (no-op if not configured).
func NewService(deps Dependencies) (*Service, error) {
	s := &Service{deps: deps}

	m := meter()

	var err error
	s.markersProduced, err = m.Int64Counter(
		"bridge.markers.produced",
		metric.WithDescription("Total markers encoded and enqueued"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating produced counter: %w", err)
	}
	s.messagesDropped, err = m.Int64Counter(
		"bridge.messages.dropped",
		metric.WithDescription("Total chat messages dropped as unparseable or invalid"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	_, err = m.Int64ObservableGauge(
		"bridge.queue.size",
		metric.WithDescription("Current number of encoded events awaiting transmission"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(deps.Queue.Len()))
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue gauge: %w", err)
	}

	return s, nil
}

// Handle parses, validates, encodes, and enqueues one chat message.
// All failures are logged at warning level and the message is dropped.
func (s *Service) Handle(text string) {
	ev, err := s.deps.Parser.ParseMarkerText(text)
	if err != nil {
		s.drop()
		s.deps.Logger.Warn("Message could not be parsed", "text", text, "error", err)
		return
	}

	data, err := cot.Encode(ev, s.deps.EncodeOpts...)
	if err != nil {
		s.drop()
		s.deps.Logger.Warn("Failed to encode CoT event", "eventID", ev.EventID, "error", err)
		return
	}

	s.deps.Queue.Push(data)
	s.produced.Add(1)
	s.markersProduced.Add(context.Background(), 1)
	s.deps.Logger.Debug("Marker enqueued",
		"eventID", ev.EventID,
		"type", ev.TypeCode(),
		"lat", ev.Lat(),
		"lon", ev.Lon())
}

// Stats returns a snapshot of lifetime counters.
func (s *Service) Stats() Stats {
	return Stats{
		MarkersProduced: s.produced.Load(),
		MessagesDropped: s.dropped.Load(),
	}
}

func (s *Service) drop() {
	s.dropped.Add(1)
	s.messagesDropped.Add(context.Background(), 1)
}

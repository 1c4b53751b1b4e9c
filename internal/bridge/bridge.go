// Package bridge runs the full message pipeline under fail-fast
// supervision: daemon subprocess, line client, and CoT transmitter.
package bridge

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/sigtak/bridge/internal/daemon"
	"github.com/sigtak/bridge/internal/signal"
)

// Transmitter drains the output queue and sends events to the TAK
// endpoint. *tak.Sender implements it.
type Transmitter interface {
	Run(ctx context.Context) error
}

// Dependencies holds the bridge's concurrent units.
type Dependencies struct {
	// DaemonCommand starts the messaging daemon; empty skips supervision
	// (an externally managed daemon).
	DaemonCommand string

	Client  *signal.Client
	Handler signal.TextHandler
	Sender  Transmitter
	Logger  *slog.Logger
}

// Run executes the receive pipeline and the transmitter concurrently. The
// first unhandled failure in either cancels the other, and Run returns
// that failure after both have stopped. There is no normal return while
// the context is live.
func Run(ctx context.Context, deps Dependencies) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		receive := func(ctx context.Context) error {
			return deps.Client.Run(ctx, deps.Handler)
		}
		if deps.DaemonCommand == "" {
			return receive(gctx)
		}
		return daemon.WithDaemon(gctx, deps.DaemonCommand, deps.Logger, receive)
	})

	g.Go(func() error {
		return deps.Sender.Run(gctx)
	})

	return g.Wait()
}

package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rickgao/rtds-recorder/internal/broadcast"
)

// heartbeat asks the multiplexer to send a PING every interval and expects a
// PONG newer than that PING within timeout.
type heartbeat struct {
	interval time.Duration
	timeout  time.Duration
	state    *broadcast.WatchReceiver[State]
	pong     *broadcast.WatchReceiver[time.Time]
	pings    chan<- struct{}
	observer Observer
	logger   *slog.Logger
}

// run returns nil when the connection is no longer in use, and an error
// wrapping ErrHeartbeatTimeout or ErrStalePong when the server stopped
// answering.
func (h *heartbeat) run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if !h.state.Borrow().IsConnected() {
			return nil
		}

		h.pong.BorrowAndUpdate()
		pingSent := time.Now()

		select {
		case h.pings <- struct{}{}:
		case <-ctx.Done():
			return nil
		}

		if err := h.awaitPong(ctx, pingSent); err != nil {
			if ctx.Err() != nil || errors.Is(err, broadcast.ErrClosed) {
				return nil
			}
			h.observer.HeartbeatFailed(err)
			h.logger.Warn("heartbeat failed", "error", err)
			return err
		}
	}
}

func (h *heartbeat) awaitPong(ctx context.Context, pingSent time.Time) error {
	waitCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := h.pong.Changed(waitCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("%w: no PONG within %s", ErrHeartbeatTimeout, h.timeout)
		}
		return err
	}

	if last := h.pong.Borrow(); last.Before(pingSent) {
		return fmt.Errorf("%w: last PONG at %s predates PING at %s",
			ErrStalePong, last.Format(time.RFC3339Nano), pingSent.Format(time.RFC3339Nano))
	}
	return nil
}

package connection

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/rtds-recorder/internal/broadcast"
)

// supervise owns the connection lifecycle: dial, run the connection to
// completion, back off, retry. It is the only writer of the state cell and
// returns when ctx is cancelled or the retry budget is exhausted.
func (m *Manager[M]) supervise(ctx context.Context) {
	defer m.terminate()

	bo := newBackOff(m.cfg.Reconnect)
	var attempt uint32

	for {
		m.setState(Connecting())

		conn, err := m.dialer.Dial(ctx, m.endpoint, m.header)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if attempt < math.MaxUint32 {
				attempt++
			}
			m.observer.ConnectFailed(err)
			m.logger.Warn("connect failed", "attempt", attempt, "error", err)
		} else {
			attempt = 0
			bo.Reset()
			m.runConnection(ctx, conn)
		}

		if ctx.Err() != nil {
			return
		}

		if limit := m.cfg.Reconnect.MaxAttempts; limit > 0 && attempt >= limit {
			m.logger.Error("giving up after consecutive connect failures", "attempts", attempt)
			return
		}

		delay := bo.NextBackOff()
		m.setState(Reconnecting(attempt))
		m.observer.ReconnectScheduled(attempt, delay)
		m.logger.Info("reconnecting", "attempt", attempt, "delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// runConnection runs the multiplexer and heartbeat for conn and returns once
// both have exited and the socket is closed.
func (m *Manager[M]) runConnection(ctx context.Context, conn Conn) {
	logger := m.logger.With("session_id", uuid.NewString())

	ob := newOutbox(m.outboundBuffer)
	pong := broadcast.NewWatch(time.Now())
	pings := make(chan struct{}, 1)
	stateRx := m.state.Subscribe()

	m.outbox.Store(ob)
	connectedAt := time.Now()
	m.setState(Connected(connectedAt))
	logger.Info("connected")

	mx := &mux[M]{
		conn:         conn,
		decode:       m.decode,
		messages:     m.messages,
		pong:         pong,
		outbox:       ob,
		pings:        pings,
		writeTimeout: m.writeTimeout,
		observer:     m.observer,
		logger:       logger,
	}
	hb := &heartbeat{
		interval: m.cfg.HeartbeatInterval,
		timeout:  m.cfg.HeartbeatTimeout,
		state:    stateRx,
		pong:     pong.Subscribe(),
		pings:    pings,
		observer: m.observer,
		logger:   logger,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return mx.run(gctx) })
	g.Go(func() error { return hb.run(gctx) })
	err := g.Wait()

	m.outbox.CompareAndSwap(ob, nil)
	pong.Close()
	logger.Info("connection ended", "error", err, "uptime", time.Since(connectedAt).Round(time.Millisecond))
}

// terminate publishes the terminal state and releases subscribers.
func (m *Manager[M]) terminate() {
	m.outbox.Store(nil)
	m.setState(Disconnected())
	m.messages.Close()
	m.state.Close()
	close(m.done)
	m.logger.Info("connection manager stopped")
}

func (m *Manager[M]) setState(s State) {
	m.state.Set(s)
	m.observer.StateChanged(s)
	m.logger.Debug("state changed", "state", s.String())
}

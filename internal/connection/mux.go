package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/rtds-recorder/internal/broadcast"
)

// outbox is the outbound request queue of one live connection.
// done is closed when the connection's multiplexer exits.
type outbox struct {
	queue chan []byte
	done  chan struct{}
}

func newOutbox(size int) *outbox {
	return &outbox{
		queue: make(chan []byte, size),
		done:  make(chan struct{}),
	}
}

// enqueue never blocks.
func (o *outbox) enqueue(data []byte) error {
	select {
	case <-o.done:
		return ErrChannelClosed
	default:
	}

	select {
	case o.queue <- data:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// frame is the result of one ReadMessage call.
type frame struct {
	kind int
	data []byte
	err  error
}

// mux is the only goroutine that touches the socket for writing. It serves
// inbound frames, outbound requests and heartbeat pings until one of them
// fails or ctx is cancelled.
type mux[M any] struct {
	conn         Conn
	decode       DecodeFunc[M]
	messages     *broadcast.Broadcaster[M]
	pong         *broadcast.Watch[time.Time]
	outbox       *outbox
	pings        <-chan struct{}
	writeTimeout time.Duration
	observer     Observer
	logger       *slog.Logger
}

// run always returns a non-nil error. The socket is closed and the reader
// goroutine has exited by the time it returns.
func (m *mux[M]) run(ctx context.Context) error {
	frames := make(chan frame)
	stop := make(chan struct{})
	readerDone := make(chan struct{})
	go m.readLoop(frames, stop, readerDone)

	err := m.loop(ctx, frames)

	close(m.outbox.done)
	close(stop)
	if cerr := closeConn(m.conn); cerr != nil {
		m.logger.Debug("close socket", "error", cerr)
	}
	<-readerDone

	return err
}

func (m *mux[M]) loop(ctx context.Context, frames <-chan frame) error {
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrConnectionClosed, context.Cause(ctx))

		case f := <-frames:
			if f.err != nil {
				return readError(f.err)
			}
			m.handleFrame(f.kind, f.data)

		case data := <-m.outbox.queue:
			if err := m.write(data); err != nil {
				return fmt.Errorf("%w: write request: %w", ErrConnectionClosed, err)
			}

		case <-m.pings:
			if err := m.write([]byte(pingFrame)); err != nil {
				return fmt.Errorf("%w: write ping: %w", ErrConnectionClosed, err)
			}
		}
	}
}

// readLoop turns blocking reads into frames. It stops after delivering a read
// error or when stop is closed.
func (m *mux[M]) readLoop(frames chan<- frame, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		kind, data, err := m.conn.ReadMessage()
		select {
		case frames <- frame{kind: kind, data: data, err: err}:
		case <-stop:
			return
		}
		if err != nil {
			return
		}
	}
}

func (m *mux[M]) handleFrame(kind int, data []byte) {
	if kind != websocket.TextMessage {
		m.logger.Debug("ignoring non-text frame", "type", kind, "size", len(data))
		return
	}

	if string(data) == pongFrame {
		m.pong.Set(time.Now())
		return
	}

	msgs, err := m.decode(data)
	if err != nil {
		m.observer.DecodeError(err)
		m.logger.Warn("failed to decode message", "error", err, "size", len(data))
		return
	}

	for _, msg := range msgs {
		m.messages.Publish(msg)
	}
	if len(msgs) > 0 {
		m.observer.MessagesReceived(len(msgs))
	}
}

func (m *mux[M]) write(data []byte) error {
	if m.writeTimeout > 0 {
		if err := m.conn.SetWriteDeadline(time.Now().Add(m.writeTimeout)); err != nil {
			return err
		}
	}
	return m.conn.WriteMessage(websocket.TextMessage, data)
}

func readError(err error) error {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return fmt.Errorf("%w: close frame (code %d): %s", ErrConnectionClosed, ce.Code, ce.Text)
	}
	return fmt.Errorf("%w: read: %w", ErrConnectionClosed, err)
}

package connection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rickgao/rtds-recorder/internal/broadcast"
)

// Manager keeps one logical connection to a streaming endpoint alive and fans
// decoded inbound messages out to subscribers.
//
// A background supervisor dials, reconnects with backoff and runs the
// heartbeat. The Manager does not remember subscriptions; callers re-issue them
// when StateReceiver reports a transition to Connected.
type Manager[M any] struct {
	endpoint       string
	cfg            Config
	decode         DecodeFunc[M]
	dialer         Dialer
	header         http.Header
	observer       Observer
	logger         *slog.Logger
	outboundBuffer int
	writeTimeout   time.Duration

	state    *broadcast.Watch[State]
	messages *broadcast.Broadcaster[M]
	outbox   atomic.Pointer[outbox] // nil while no connection is live

	cancel    context.CancelFunc
	closed    atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

type options struct {
	logger         *slog.Logger
	observer       Observer
	dialer         Dialer
	capacity       int
	header         http.Header
	outboundBuffer int
	writeTimeout   time.Duration
}

// Option configures a Manager.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithObserver sets the lifecycle event observer (e.g. metrics).
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithDialer replaces the gorilla/websocket dialer.
func WithDialer(d Dialer) Option {
	return func(o *options) {
		o.dialer = d
	}
}

// WithBroadcastCapacity sets how many messages are retained for slow
// subscribers.
func WithBroadcastCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// WithHeader sets extra handshake headers.
func WithHeader(h http.Header) Option {
	return func(o *options) {
		o.header = h.Clone()
	}
}

// WithOutboundBuffer sets the per-connection outbound queue size.
func WithOutboundBuffer(n int) Option {
	return func(o *options) {
		o.outboundBuffer = n
	}
}

// WithWriteTimeout sets the deadline for each frame write.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) {
		o.writeTimeout = d
	}
}

// New validates cfg and starts the supervisor. It returns immediately; the
// first connection attempt happens in the background.
func New[M any](endpoint string, cfg Config, decode DecodeFunc[M], opts ...Option) (*Manager[M], error) {
	if endpoint == "" {
		return nil, errors.New("endpoint is required")
	}
	if decode == nil {
		return nil, errors.New("decode func is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	o := options{
		capacity:       BroadcastCapacity,
		outboundBuffer: 64,
		writeTimeout:   5 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.observer == nil {
		o.observer = NopObserver{}
	}
	if o.dialer == nil {
		o.dialer = NewWebSocketDialer(10 * time.Second)
	}
	if o.outboundBuffer < 1 {
		o.outboundBuffer = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager[M]{
		endpoint:       endpoint,
		cfg:            cfg,
		decode:         decode,
		dialer:         o.dialer,
		header:         o.header,
		observer:       o.observer,
		logger:         o.logger.With("component", "connection", "endpoint", endpoint),
		outboundBuffer: o.outboundBuffer,
		writeTimeout:   o.writeTimeout,
		state:          broadcast.NewWatch(Disconnected()),
		messages:       broadcast.New[M](o.capacity),
		cancel:         cancel,
		done:           make(chan struct{}),
	}

	go m.supervise(ctx)

	return m, nil
}

// Send marshals request to JSON and queues it on the live connection.
// It never blocks. Returns ErrChannelClosed when no connection is live and
// ErrSendQueueFull when the outbound queue is full.
func (m *Manager[M]) Send(request any) error {
	data, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return m.SendRaw(data)
}

// SendRaw queues data as one text frame on the live connection.
func (m *Manager[M]) SendRaw(data []byte) error {
	if m.closed.Load() {
		return fmt.Errorf("%w: %w", ErrChannelClosed, ErrManagerClosed)
	}
	ob := m.outbox.Load()
	if ob == nil {
		return ErrChannelClosed
	}
	return ob.enqueue(data)
}

// State returns the current connection state.
func (m *Manager[M]) State() State {
	return m.state.Load()
}

// StateReceiver returns a receiver notified on state transitions.
func (m *Manager[M]) StateReceiver() *broadcast.WatchReceiver[State] {
	return m.state.Subscribe()
}

// Subscribe returns an independent receiver of messages published after this
// call. Close the receiver when done.
func (m *Manager[M]) Subscribe() *broadcast.Receiver[M] {
	return m.messages.Subscribe()
}

// Endpoint returns the URL the manager connects to.
func (m *Manager[M]) Endpoint() string {
	return m.endpoint
}

// Done is closed once the supervisor has terminated, either after Close or
// because the retry budget was exhausted.
func (m *Manager[M]) Done() <-chan struct{} {
	return m.done
}

// Shutdown stops the supervisor and waits for it, or for ctx to be done.
func (m *Manager[M]) Shutdown(ctx context.Context) error {
	m.closeOnce.Do(func() {
		m.closed.Store(true)
		m.cancel()
	})

	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		m.logger.Warn("shutdown timeout")
		return ctx.Err()
	}
}

// Close stops the supervisor and waits for it. Safe to call more than once.
func (m *Manager[M]) Close() error {
	return m.Shutdown(context.Background())
}

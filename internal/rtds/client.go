package rtds

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/rickgao/rtds-recorder/internal/broadcast"
	"github.com/rickgao/rtds-recorder/internal/connection"
)

// Client is a RTDS streaming client.
type Client struct {
	manager *connection.Manager[Message]
	logger  *slog.Logger

	mu   sync.Mutex
	subs map[string]Subscription // key -> subscription, replayed on reconnect

	done chan struct{} // closed when the resubscribe loop exits
}

type clientOptions struct {
	logger      *slog.Logger
	connOptions []connection.Option
}

// Option configures a Client.
type Option func(*clientOptions)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// WithConnectionOptions passes options through to the connection manager.
func WithConnectionOptions(opts ...connection.Option) Option {
	return func(o *clientOptions) {
		o.connOptions = append(o.connOptions, opts...)
	}
}

// NewClient creates a client for endpoint and starts connecting.
func NewClient(endpoint string, cfg connection.Config, opts ...Option) (*Client, error) {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	connOpts := append([]connection.Option{connection.WithLogger(o.logger)}, o.connOptions...)
	manager, err := connection.New(endpoint, cfg, ParseMessages, connOpts...)
	if err != nil {
		return nil, fmt.Errorf("create connection manager: %w", err)
	}

	c := &Client{
		manager: manager,
		logger:  o.logger.With("component", "rtds"),
		subs:    make(map[string]Subscription),
		done:    make(chan struct{}),
	}

	go c.resubscribeLoop(manager.StateReceiver())

	return c, nil
}

// NewDefaultClient connects to DefaultEndpoint with connection.DefaultConfig.
func NewDefaultClient(opts ...Option) (*Client, error) {
	return NewClient(DefaultEndpoint, connection.DefaultConfig(), opts...)
}

// Subscribe sends a subscribe request and remembers the subscriptions so they
// are re-issued after every reconnect. When no connection is live the request
// is only remembered and goes out on the next connect.
func (c *Client) Subscribe(subs ...Subscription) error {
	if len(subs) == 0 {
		return nil
	}

	c.mu.Lock()
	for _, s := range subs {
		c.subs[s.key()] = s
	}
	c.mu.Unlock()

	return c.send(Subscribe(subs...))
}

// Unsubscribe sends an unsubscribe request and forgets the subscriptions.
func (c *Client) Unsubscribe(subs ...Subscription) error {
	if len(subs) == 0 {
		return nil
	}

	c.mu.Lock()
	for _, s := range subs {
		delete(c.subs, s.key())
	}
	c.mu.Unlock()

	return c.send(Unsubscribe(subs...))
}

// Subscriptions returns the remembered subscriptions.
func (c *Client) Subscriptions() []Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	subs := make([]Subscription, 0, len(c.subs))
	for _, s := range c.subs {
		subs = append(subs, s)
	}
	return subs
}

// send treats "no live connection" as success: remembered subscriptions are
// replayed on connect and the server drops subscriptions with the socket.
func (c *Client) send(req SubscriptionRequest) error {
	err := c.manager.Send(req)
	if errors.Is(err, connection.ErrManagerClosed) {
		return connection.ErrManagerClosed
	}
	if errors.Is(err, connection.ErrChannelClosed) {
		c.logger.Debug("not connected, request deferred", "action", req.Action)
		return nil
	}
	return err
}

// resubscribeLoop replays remembered subscriptions on every transition to
// Connected. It exits when the manager terminates.
func (c *Client) resubscribeLoop(states *broadcast.WatchReceiver[connection.State]) {
	defer close(c.done)

	for {
		if err := states.Changed(context.Background()); err != nil {
			return
		}
		if !states.Borrow().IsConnected() {
			continue
		}

		subs := c.Subscriptions()
		if len(subs) == 0 {
			continue
		}
		if err := c.manager.Send(Subscribe(subs...)); err != nil {
			c.logger.Warn("resubscribe failed", "subscriptions", len(subs), "error", err)
			continue
		}
		c.logger.Info("resubscribed", "subscriptions", len(subs))
	}
}

// Messages returns an independent receiver of all inbound messages.
func (c *Client) Messages() *broadcast.Receiver[Message] {
	return c.manager.Subscribe()
}

// State returns the connection state.
func (c *Client) State() connection.State {
	return c.manager.State()
}

// StateReceiver returns a receiver notified on state transitions.
func (c *Client) StateReceiver() *broadcast.WatchReceiver[connection.State] {
	return c.manager.StateReceiver()
}

// Done is closed once the client has stopped for good.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close shuts the connection down. Safe to call more than once.
func (c *Client) Close() error {
	err := c.manager.Close()
	<-c.done
	return err
}

// SubscribeCryptoPrices subscribes to exchange prices for symbols (all when
// empty) and returns a stream of decoded updates. The stream is closed when
// ctx is done or the client is closed.
func (c *Client) SubscribeCryptoPrices(ctx context.Context, symbols ...string) (<-chan CryptoPrice, error) {
	return c.priceStream(ctx, CryptoPrices(symbols...), TopicCryptoPrices, symbols)
}

// SubscribeChainlinkPrices subscribes to Chainlink prices for symbol (all when
// empty) and returns a stream of decoded updates.
func (c *Client) SubscribeChainlinkPrices(ctx context.Context, symbol string) (<-chan CryptoPrice, error) {
	var symbols []string
	if symbol != "" {
		symbols = []string{symbol}
	}
	return c.priceStream(ctx, ChainlinkPrices(symbol), TopicCryptoPricesChainlink, symbols)
}

// SubscribeComments subscribes to comment events of eventType and returns a
// stream of decoded comments.
func (c *Client) SubscribeComments(ctx context.Context, eventType string) (<-chan Comment, error) {
	rx := c.manager.Subscribe()
	if err := c.Subscribe(Comments(eventType)); err != nil {
		rx.Close()
		return nil, err
	}

	out := make(chan Comment, 64)
	go func() {
		defer close(out)
		defer rx.Close()

		c.consume(ctx, rx, func(m Message) bool {
			if m.Topic != TopicComments {
				return true
			}
			comment, err := m.Comment()
			if err != nil {
				c.logger.Warn("skipping comment", "error", err)
				return true
			}
			select {
			case out <- comment:
				return true
			case <-ctx.Done():
				return false
			}
		})
	}()
	return out, nil
}

func (c *Client) priceStream(ctx context.Context, sub Subscription, topic string, symbols []string) (<-chan CryptoPrice, error) {
	// Subscribe to the fan-out before the request goes out so no update is missed.
	rx := c.manager.Subscribe()
	if err := c.Subscribe(sub); err != nil {
		rx.Close()
		return nil, err
	}

	wanted := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		wanted[strings.ToLower(s)] = struct{}{}
	}

	out := make(chan CryptoPrice, 64)
	go func() {
		defer close(out)
		defer rx.Close()

		c.consume(ctx, rx, func(m Message) bool {
			if m.Topic != topic {
				return true
			}
			price, err := m.CryptoPrice()
			if err != nil {
				c.logger.Warn("skipping price", "topic", topic, "error", err)
				return true
			}
			if len(wanted) > 0 {
				if _, ok := wanted[strings.ToLower(price.Symbol)]; !ok {
					return true
				}
			}
			select {
			case out <- price:
				return true
			case <-ctx.Done():
				return false
			}
		})
	}()
	return out, nil
}

// consume feeds messages from rx to handle until handle returns false, ctx is
// done or the stream ends. Lag is logged and skipped.
func (c *Client) consume(ctx context.Context, rx *broadcast.Receiver[Message], handle func(Message) bool) {
	for {
		msg, err := rx.Recv(ctx)
		var lagged *broadcast.LaggedError
		switch {
		case errors.As(err, &lagged):
			c.logger.Warn("stream lagged", "skipped", lagged.Skipped)
			continue
		case err != nil:
			return
		}
		if !handle(msg) {
			return
		}
	}
}

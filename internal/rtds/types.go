package rtds

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultEndpoint is the public RTDS WebSocket URL.
const DefaultEndpoint = "wss://ws-live-data.polymarket.com"

// Topics
const (
	TopicCryptoPrices          = "crypto_prices"
	TopicCryptoPricesChainlink = "crypto_prices_chainlink"
	TopicComments              = "comments"
)

// Actions
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
)

// Message types
const (
	TypeUpdate          = "update"
	TypeAll             = "*"
	TypeCommentCreated  = "comment_created"
	TypeCommentRemoved  = "comment_removed"
	TypeReactionCreated = "reaction_created"
	TypeReactionRemoved = "reaction_removed"
)

// SubscriptionRequest is an outbound subscribe or unsubscribe command.
type SubscriptionRequest struct {
	Action        string         `json:"action"` // "subscribe" or "unsubscribe"
	Subscriptions []Subscription `json:"subscriptions"`
}

// Subscription selects one topic/type pair, optionally filtered.
type Subscription struct {
	Topic   string `json:"topic"`
	Type    string `json:"type"`
	Filters string `json:"filters,omitempty"` // Topic specific, e.g. "btcusdt,ethusdt" or {"symbol":"eth/usd"}
}

// key identifies a subscription for de-duplication.
func (s Subscription) key() string {
	return s.Topic + "|" + s.Type + "|" + s.Filters
}

// Subscribe builds a subscribe request.
func Subscribe(subs ...Subscription) SubscriptionRequest {
	return SubscriptionRequest{Action: ActionSubscribe, Subscriptions: subs}
}

// Unsubscribe builds an unsubscribe request.
func Unsubscribe(subs ...Subscription) SubscriptionRequest {
	return SubscriptionRequest{Action: ActionUnsubscribe, Subscriptions: subs}
}

// CryptoPrices selects exchange crypto price updates. No symbols means all.
func CryptoPrices(symbols ...string) Subscription {
	return Subscription{
		Topic:   TopicCryptoPrices,
		Type:    TypeUpdate,
		Filters: strings.ToLower(strings.Join(symbols, ",")),
	}
}

// ChainlinkPrices selects Chainlink oracle prices. An empty symbol means all.
func ChainlinkPrices(symbol string) Subscription {
	sub := Subscription{Topic: TopicCryptoPricesChainlink, Type: TypeAll}
	if symbol != "" {
		filter, _ := json.Marshal(map[string]string{"symbol": strings.ToLower(symbol)})
		sub.Filters = string(filter)
	}
	return sub
}

// Comments selects comment events of the given type ("*" for all).
func Comments(eventType string) Subscription {
	if eventType == "" {
		eventType = TypeAll
	}
	return Subscription{Topic: TopicComments, Type: eventType}
}

// Message is one inbound RTDS event.
type Message struct {
	Topic        string          `json:"topic"`
	Type         string          `json:"type"`
	Timestamp    int64           `json:"timestamp"` // Server send time (Unix ms)
	ConnectionID string          `json:"connection_id,omitempty"`
	Payload      json.RawMessage `json:"payload"`
}

// Time returns the server timestamp.
func (m Message) Time() time.Time {
	return time.UnixMilli(m.Timestamp)
}

// IsCryptoPrice reports whether the message carries a CryptoPrice payload.
func (m Message) IsCryptoPrice() bool {
	return m.Topic == TopicCryptoPrices || m.Topic == TopicCryptoPricesChainlink
}

// CryptoPrice decodes the payload of a crypto price message.
func (m Message) CryptoPrice() (CryptoPrice, error) {
	var p CryptoPrice
	if !m.IsCryptoPrice() {
		return p, fmt.Errorf("topic %q is not a price topic", m.Topic)
	}
	if err := json.Unmarshal(m.Payload, &p); err != nil {
		return p, fmt.Errorf("decode crypto price: %w", err)
	}
	return p, nil
}

// Comment decodes the payload of a comments message.
func (m Message) Comment() (Comment, error) {
	var c Comment
	if m.Topic != TopicComments {
		return c, fmt.Errorf("topic %q is not %q", m.Topic, TopicComments)
	}
	if err := json.Unmarshal(m.Payload, &c); err != nil {
		return c, fmt.Errorf("decode comment: %w", err)
	}
	return c, nil
}

// CryptoPrice is a price update for one symbol.
type CryptoPrice struct {
	Symbol    string          `json:"symbol"`    // e.g. "btcusdt" or "eth/usd"
	Timestamp int64           `json:"timestamp"` // Price time (Unix ms)
	Value     decimal.Decimal `json:"value"`
}

// Time returns the price timestamp.
func (p CryptoPrice) Time() time.Time {
	return time.UnixMilli(p.Timestamp)
}

// Comment is a comment or reaction event.
type Comment struct {
	ID               string    `json:"id"`
	Body             string    `json:"body"`
	ParentEntityType string    `json:"parentEntityType"` // "Event" or "Series"
	ParentEntityID   int64     `json:"parentEntityID"`
	ParentCommentID  string    `json:"parentCommentID,omitempty"`
	UserAddress      string    `json:"userAddress"`
	ReplyAddress     string    `json:"replyAddress,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

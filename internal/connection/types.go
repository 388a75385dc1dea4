package connection

import (
	"errors"
	"fmt"
	"time"
)

// Errors
var (
	ErrChannelClosed    = errors.New("outbound channel closed")
	ErrSendQueueFull    = errors.New("outbound queue full")
	ErrConnectionClosed = errors.New("connection closed")
	ErrHeartbeatTimeout = errors.New("heartbeat timeout")
	ErrStalePong        = errors.New("stale pong")
	ErrManagerClosed    = errors.New("manager closed")
)

// BroadcastCapacity is the default number of inbound messages retained for
// subscribers before slow ones start lagging.
const BroadcastCapacity = 1024

// Heartbeat frames exchanged with the server.
const (
	pingFrame = "PING"
	pongFrame = "PONG"
)

// DecodeFunc turns one inbound text frame into zero or more messages.
type DecodeFunc[M any] func(data []byte) ([]M, error)

// StateKind identifies the phase of the connection lifecycle.
type StateKind int

const (
	StateDisconnected StateKind = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (k StateKind) String() string {
	switch k {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// State is the connection state published by the supervisor.
type State struct {
	Kind    StateKind
	Since   time.Time // Set for StateConnected
	Attempt uint32    // Set for StateReconnecting
}

// Disconnected is the initial and terminal state.
func Disconnected() State { return State{Kind: StateDisconnected} }

// Connecting means a dial is in progress.
func Connecting() State { return State{Kind: StateConnecting} }

// Connected means the socket is live since the given time.
func Connected(since time.Time) State { return State{Kind: StateConnected, Since: since} }

// Reconnecting means the supervisor is waiting out a backoff delay after the
// given number of consecutive failed attempts.
func Reconnecting(attempt uint32) State { return State{Kind: StateReconnecting, Attempt: attempt} }

// IsConnected reports whether the state is StateConnected.
func (s State) IsConnected() bool {
	return s.Kind == StateConnected
}

func (s State) String() string {
	switch s.Kind {
	case StateConnected:
		return fmt.Sprintf("connected(since=%s)", s.Since.Format(time.RFC3339))
	case StateReconnecting:
		return fmt.Sprintf("reconnecting(attempt=%d)", s.Attempt)
	default:
		return s.Kind.String()
	}
}

// Observer receives lifecycle events from a Manager. Implementations must not
// block.
type Observer interface {
	StateChanged(s State)
	ConnectFailed(err error)
	ReconnectScheduled(attempt uint32, delay time.Duration)
	MessagesReceived(n int)
	DecodeError(err error)
	HeartbeatFailed(err error)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) StateChanged(State)                       {}
func (NopObserver) ConnectFailed(error)                      {}
func (NopObserver) ReconnectScheduled(uint32, time.Duration) {}
func (NopObserver) MessagesReceived(int)                     {}
func (NopObserver) DecodeError(error)                        {}
func (NopObserver) HeartbeatFailed(error)                    {}

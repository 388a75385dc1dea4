package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rickgao/rtds-recorder/internal/connection"
)

const namespace = "rtds"

func init() {
	prometheus.MustRegister(connectionState)
	prometheus.MustRegister(stateTransitionsTotal)
	prometheus.MustRegister(connectFailuresTotal)
	prometheus.MustRegister(reconnectDelaySeconds)
	prometheus.MustRegister(messagesReceivedTotal)
	prometheus.MustRegister(decodeErrorsTotal)
	prometheus.MustRegister(heartbeatFailuresTotal)
}

var (
	// connectionState is 1 for the current state of each endpoint and 0 for the others.
	connectionState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connection_state",
			Help:      "Current connection state per endpoint (1 = active state).",
		},
		[]string{"endpoint", "state"},
	)

	stateTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Connection state transitions, labeled by the state entered.",
		},
		[]string{"endpoint", "state"},
	)

	connectFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_failures_total",
			Help:      "Failed dial attempts.",
		},
		[]string{"endpoint"},
	)

	// reconnectDelaySeconds records every scheduled backoff delay.
	// Buckets follow the default reconnect policy: 1s doubling to a 60s cap.
	reconnectDelaySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconnect_delay_seconds",
			Help:      "Histogram of scheduled reconnect delays in seconds.",
			Buckets:   []float64{0.5, 1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"endpoint"},
	)

	messagesReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Decoded inbound messages published to subscribers.",
		},
		[]string{"endpoint"},
	)

	decodeErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Inbound text frames that failed to decode.",
		},
		[]string{"endpoint"},
	)

	heartbeatFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heartbeat_failures_total",
			Help:      "Heartbeat failures, labeled by reason (timeout, stale_pong).",
		},
		[]string{"endpoint", "reason"},
	)
)

var allStates = []connection.StateKind{
	connection.StateDisconnected,
	connection.StateConnecting,
	connection.StateConnected,
	connection.StateReconnecting,
}

// Observer records connection events for one endpoint.
type Observer struct {
	endpoint string
}

var _ connection.Observer = (*Observer)(nil)

// NewObserver returns an Observer labeling its series with endpoint.
func NewObserver(endpoint string) *Observer {
	o := &Observer{endpoint: endpoint}
	o.StateChanged(connection.Disconnected())
	return o
}

// StateChanged implements connection.Observer.
func (o *Observer) StateChanged(s connection.State) {
	for _, k := range allStates {
		v := 0.0
		if k == s.Kind {
			v = 1
		}
		connectionState.WithLabelValues(o.endpoint, k.String()).Set(v)
	}
	stateTransitionsTotal.WithLabelValues(o.endpoint, s.Kind.String()).Inc()
}

// ConnectFailed implements connection.Observer.
func (o *Observer) ConnectFailed(error) {
	connectFailuresTotal.WithLabelValues(o.endpoint).Inc()
}

// ReconnectScheduled implements connection.Observer.
func (o *Observer) ReconnectScheduled(_ uint32, delay time.Duration) {
	reconnectDelaySeconds.WithLabelValues(o.endpoint).Observe(delay.Seconds())
}

// MessagesReceived implements connection.Observer.
func (o *Observer) MessagesReceived(n int) {
	messagesReceivedTotal.WithLabelValues(o.endpoint).Add(float64(n))
}

// DecodeError implements connection.Observer.
func (o *Observer) DecodeError(error) {
	decodeErrorsTotal.WithLabelValues(o.endpoint).Inc()
}

// HeartbeatFailed implements connection.Observer.
func (o *Observer) HeartbeatFailed(err error) {
	heartbeatFailuresTotal.WithLabelValues(o.endpoint, heartbeatReason(err)).Inc()
}

func heartbeatReason(err error) string {
	switch {
	case errors.Is(err, connection.ErrStalePong):
		return "stale_pong"
	case errors.Is(err, connection.ErrHeartbeatTimeout):
		return "timeout"
	default:
		return "other"
	}
}

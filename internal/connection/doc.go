// Package connection implements the streaming connection manager.
//
// The Manager:
//   - Dials the endpoint and reconnects with exponential backoff
//   - Gives up after Reconnect.MaxAttempts consecutive failures (0 = never)
//   - Sends an application-level PING every HeartbeatInterval and drops the
//     connection when no fresh PONG arrives within HeartbeatTimeout
//   - Decodes inbound frames and fans them out to any number of subscribers
//   - Publishes its State for observers
//
// Each live connection runs exactly two goroutines, the multiplexer (sole
// owner of the socket) and the heartbeat monitor. The supervisor waits for
// both before dialing again.
package connection

// Package rtds implements the client for the real-time data stream (RTDS).
//
// The Client owns a connection.Manager, remembers active subscriptions and
// re-issues them each time the connection comes back. Typed helpers decode
// crypto price and comment payloads.
package rtds

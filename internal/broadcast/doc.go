// Package broadcast provides the in-process fan-out primitives used by the
// connection manager.
//
//   - Broadcaster: bounded one-to-many ring. Publishers never block; a
//     receiver that falls more than the ring capacity behind is told how many
//     values it skipped and resumes from the oldest retained value.
//   - Watch: single-value cell with change notification. Receivers observe the
//     latest value only, intermediate values may be coalesced.
package broadcast

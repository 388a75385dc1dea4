package broadcast

import (
	"context"
	"errors"
	"sync"
)

// slot is one ring entry. seq identifies which publish occupies it.
type slot[T any] struct {
	seq uint64
	val T
}

// Broadcaster delivers every published value to every live Receiver.
//
// Values live in a single ring of fixed capacity shared by all receivers, so
// memory does not grow with the number of subscribers. Publish never waits for
// receivers.
type Broadcaster[T any] struct {
	mu        sync.Mutex
	buf       []slot[T]
	capacity  uint64
	tail      uint64 // sequence number of the next publish
	receivers int
	closed    bool
	notify    chan struct{} // closed and replaced on every publish and on Close

	// Stats
	dropped uint64
}

// New creates a broadcaster retaining at most capacity values.
func New[T any](capacity int) *Broadcaster[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Broadcaster[T]{
		buf:      make([]slot[T], capacity),
		capacity: uint64(capacity),
		notify:   make(chan struct{}),
	}
}

// Publish appends v to the ring and wakes waiting receivers.
// Returns the number of receivers the value was offered to; zero when nobody is
// subscribed or the broadcaster is closed, in which case v is discarded.
func (b *Broadcaster[T]) Publish(v T) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0
	}
	if b.receivers == 0 {
		b.dropped++
		return 0
	}

	b.buf[b.tail%b.capacity] = slot[T]{seq: b.tail, val: v}
	b.tail++

	close(b.notify)
	b.notify = make(chan struct{})
	return b.receivers
}

// Subscribe returns a receiver positioned after the most recent value. It only
// observes values published after this call.
func (b *Broadcaster[T]) Subscribe() *Receiver[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.receivers++
	}
	return &Receiver[T]{b: b, next: b.tail, closed: b.closed}
}

// Close stops accepting values. Receivers drain what is still retained and
// then get ErrClosed.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	close(b.notify)
}

// ReceiverCount returns the number of live receivers.
func (b *Broadcaster[T]) ReceiverCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.receivers
}

// Stats returns broadcaster statistics.
func (b *Broadcaster[T]) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		Capacity:  int(b.capacity),
		Receivers: b.receivers,
		Published: b.tail,
		Dropped:   b.dropped,
	}
}

// oldest returns the sequence number of the oldest retained value.
// Must be called with lock held.
func (b *Broadcaster[T]) oldest() uint64 {
	if b.tail > b.capacity {
		return b.tail - b.capacity
	}
	return 0
}

// Receiver is one consumer's cursor into a Broadcaster. A Receiver must not be
// used from more than one goroutine at a time.
type Receiver[T any] struct {
	b      *Broadcaster[T]
	next   uint64
	closed bool // set by Receiver.Close
}

// Recv returns the next value in publish order, blocking until one is
// available or ctx is done.
//
// If values were overwritten before the receiver read them, Recv returns a
// *LaggedError once and the following call continues from the oldest retained
// value. After the broadcaster is closed and the receiver has drained, Recv
// returns ErrClosed.
func (r *Receiver[T]) Recv(ctx context.Context) (T, error) {
	for {
		r.b.mu.Lock()
		v, err := r.recvLocked()
		wait := r.b.notify
		r.b.mu.Unlock()

		if !errors.Is(err, ErrEmpty) {
			return v, err
		}

		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-wait:
		}
	}
}

// TryRecv is the non-blocking form of Recv. Returns ErrEmpty when no value is
// pending.
func (r *Receiver[T]) TryRecv() (T, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	return r.recvLocked()
}

// Len returns the number of values pending for this receiver, capped at the
// ring capacity.
func (r *Receiver[T]) Len() int {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()

	if r.closed || r.next >= r.b.tail {
		return 0
	}
	from := r.next
	if oldest := r.b.oldest(); from < oldest {
		from = oldest
	}
	return int(r.b.tail - from)
}

// Close unsubscribes the receiver. Further receives return ErrClosed.
func (r *Receiver[T]) Close() {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	r.b.receivers--
}

// recvLocked must be called with the broadcaster lock held.
func (r *Receiver[T]) recvLocked() (T, error) {
	var zero T
	if r.closed {
		return zero, ErrClosed
	}

	b := r.b
	if r.next < b.tail {
		if oldest := b.oldest(); r.next < oldest {
			skipped := oldest - r.next
			r.next = oldest
			return zero, &LaggedError{Skipped: skipped}
		}
		s := b.buf[r.next%b.capacity]
		r.next++
		return s.val, nil
	}

	if b.closed {
		return zero, ErrClosed
	}
	return zero, ErrEmpty
}

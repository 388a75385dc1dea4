package broadcast

import (
	"context"
	"sync"
)

// Watch holds a single value and notifies receivers when it changes.
// Receivers see the latest value; a slow receiver may miss intermediate ones.
type Watch[T any] struct {
	mu      sync.Mutex
	value   T
	version uint64
	closed  bool
	notify  chan struct{} // closed and replaced on every Set and on Close
}

// NewWatch creates a watch holding initial.
func NewWatch[T any](initial T) *Watch[T] {
	return &Watch[T]{
		value:  initial,
		notify: make(chan struct{}),
	}
}

// Set stores v and wakes every receiver waiting in Changed.
// Set after Close is ignored.
func (w *Watch[T]) Set(v T) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	w.value = v
	w.version++
	close(w.notify)
	w.notify = make(chan struct{})
}

// Load returns the current value without blocking.
func (w *Watch[T]) Load() T {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.value
}

// Subscribe returns a receiver that treats the current value as seen.
func (w *Watch[T]) Subscribe() *WatchReceiver[T] {
	w.mu.Lock()
	defer w.mu.Unlock()
	return &WatchReceiver[T]{w: w, seen: w.version}
}

// Close freezes the value. Receivers that already observed the final value get
// ErrClosed from Changed; Load and Borrow keep working.
func (w *Watch[T]) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	w.closed = true
	close(w.notify)
}

// WatchReceiver tracks which version of a Watch one consumer has seen.
// A WatchReceiver must not be used from more than one goroutine at a time.
type WatchReceiver[T any] struct {
	w    *Watch[T]
	seen uint64
}

// Borrow returns the current value without marking it seen.
func (r *WatchReceiver[T]) Borrow() T {
	return r.w.Load()
}

// BorrowAndUpdate returns the current value and marks it seen.
func (r *WatchReceiver[T]) BorrowAndUpdate() T {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	r.seen = r.w.version
	return r.w.value
}

// HasChanged reports whether a value newer than the last seen one exists.
func (r *WatchReceiver[T]) HasChanged() bool {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	return r.w.version != r.seen
}

// Changed waits until a value newer than the last seen one is stored and marks
// it seen. It returns immediately if such a value already exists.
func (r *WatchReceiver[T]) Changed(ctx context.Context) error {
	for {
		r.w.mu.Lock()
		if r.w.version != r.seen {
			r.seen = r.w.version
			r.w.mu.Unlock()
			return nil
		}
		if r.w.closed {
			r.w.mu.Unlock()
			return ErrClosed
		}
		wait := r.w.notify
		r.w.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wait:
		}
	}
}

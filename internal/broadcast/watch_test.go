package broadcast

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_ChangedAfterSet(t *testing.T) {
	w := NewWatch(0)
	r := w.Subscribe()
	assert.False(t, r.HasChanged())

	go func() {
		time.Sleep(20 * time.Millisecond)
		w.Set(1)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, r.Changed(ctx))
	assert.Equal(t, 1, r.Borrow())
	assert.False(t, r.HasChanged())
}

func TestWatch_ChangedReturnsImmediatelyForUnseenValue(t *testing.T) {
	w := NewWatch("a")
	r := w.Subscribe()
	w.Set("b")
	w.Set("c")

	assert.True(t, r.HasChanged())
	require.NoError(t, r.Changed(context.Background()))
	assert.Equal(t, "c", r.Borrow())
}

func TestWatch_BorrowAndUpdate(t *testing.T) {
	w := NewWatch(1)
	r := w.Subscribe()
	w.Set(2)

	assert.Equal(t, 2, r.Borrow())
	assert.True(t, r.HasChanged())

	assert.Equal(t, 2, r.BorrowAndUpdate())
	assert.False(t, r.HasChanged())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Changed(ctx), context.DeadlineExceeded)
}

func TestWatch_Close(t *testing.T) {
	w := NewWatch(1)
	r := w.Subscribe()
	w.Set(2)
	w.Close()
	w.Set(3)

	// The final value is still delivered before ErrClosed.
	require.NoError(t, r.Changed(context.Background()))
	assert.Equal(t, 2, r.Borrow())
	assert.ErrorIs(t, r.Changed(context.Background()), ErrClosed)
	assert.Equal(t, 2, w.Load())
}

func TestWatch_CloseWakesWaiters(t *testing.T) {
	w := NewWatch(0)
	r := w.Subscribe()

	errCh := make(chan error, 1)
	go func() { errCh <- r.Changed(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	w.Close()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Changed did not return after Close")
	}
}

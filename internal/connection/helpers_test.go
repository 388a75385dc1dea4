package connection

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// mockWSServer creates a test WebSocket server.
func mockWSServer(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))

	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// decodeLines splits a frame into one message per line. Frames starting with
// "!" fail to decode.
func decodeLines(data []byte) ([]string, error) {
	s := string(data)
	if strings.HasPrefix(s, "!") {
		return nil, errors.New("bad frame")
	}
	return strings.Split(s, "\n"), nil
}

// testConfig returns a config with short timings suitable for tests.
func testConfig() Config {
	return Config{
		HeartbeatInterval: time.Hour,
		HeartbeatTimeout:  time.Hour,
		Reconnect: ReconnectConfig{
			InitialDelay: 10 * time.Millisecond,
			MaxDelay:     time.Second,
			Multiplier:   2.0,
		},
	}
}

type fakeFrame struct {
	kind int
	data []byte
}

// fakeConn is a scripted Conn. Reads come from the reads channel; closing it
// makes ReadMessage return io.EOF.
type fakeConn struct {
	reads     chan fakeFrame
	closed    chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	writes   []string
	writeErr error
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		reads:  make(chan fakeFrame, 16),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case f, ok := <-c.reads:
		if !ok {
			return 0, nil, io.EOF
		}
		return f.kind, f.data, nil
	case <-c.closed:
		return 0, nil, net.ErrClosed
	}
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.writes = append(c.writes, string(data))
	return nil
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) written() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.writes...)
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// scriptedDialer returns results in order and blocks once the script is
// exhausted until ctx is done.
type scriptedDialer struct {
	mu      sync.Mutex
	results []func() (Conn, error)
	dials   int
}

func (d *scriptedDialer) Dial(ctx context.Context, _ string, _ http.Header) (Conn, error) {
	d.mu.Lock()
	d.dials++
	if len(d.results) > 0 {
		next := d.results[0]
		d.results = d.results[1:]
		d.mu.Unlock()
		return next()
	}
	d.mu.Unlock()

	<-ctx.Done()
	return nil, ctx.Err()
}

func (d *scriptedDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func failDial() (Conn, error) {
	return nil, errors.New("connection refused")
}

// droppedConn returns a connection that ends right away.
func droppedConn() (Conn, error) {
	c := newFakeConn()
	close(c.reads)
	return c, nil
}

// recordingObserver records lifecycle events.
type recordingObserver struct {
	mu              sync.Mutex
	states          []State
	attempts        []uint32
	delays          []time.Duration
	connectFailures int
	messages        int
	decodeErrors    int
	heartbeatErrs   []error

	stateCh chan State
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{stateCh: make(chan State, 256)}
}

func (o *recordingObserver) StateChanged(s State) {
	o.mu.Lock()
	o.states = append(o.states, s)
	o.mu.Unlock()
	select {
	case o.stateCh <- s:
	default:
	}
}

func (o *recordingObserver) ConnectFailed(error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.connectFailures++
}

func (o *recordingObserver) ReconnectScheduled(attempt uint32, delay time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attempts = append(o.attempts, attempt)
	o.delays = append(o.delays, delay)
}

func (o *recordingObserver) MessagesReceived(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages += n
}

func (o *recordingObserver) DecodeError(error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.decodeErrors++
}

func (o *recordingObserver) HeartbeatFailed(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.heartbeatErrs = append(o.heartbeatErrs, err)
}

func (o *recordingObserver) stateLog() []State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]State(nil), o.states...)
}

func (o *recordingObserver) heartbeatErrors() []error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]error(nil), o.heartbeatErrs...)
}

// waitForState blocks until a state of the given kind is observed.
func (o *recordingObserver) waitForState(t *testing.T, kind StateKind, timeout time.Duration) State {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case s := <-o.stateCh:
			if s.Kind == kind {
				return s
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %s, saw %v", kind, o.stateLog())
			return State{}
		}
	}
}

func waitDone(t *testing.T, done <-chan struct{}, timeout time.Duration) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatal("timed out waiting for manager to terminate")
	}
}

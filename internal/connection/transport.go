package connection

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/rtds-recorder/internal/version"
)

// Conn is one established WebSocket connection.
// *websocket.Conn satisfies it.
type Conn interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Dialer opens connections to an endpoint.
type Dialer interface {
	Dial(ctx context.Context, url string, header http.Header) (Conn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, url string, header http.Header) (Conn, error)

// Dial calls f.
func (f DialerFunc) Dial(ctx context.Context, url string, header http.Header) (Conn, error) {
	return f(ctx, url, header)
}

// wsDialer dials with gorilla/websocket.
type wsDialer struct {
	dialer websocket.Dialer
}

// NewWebSocketDialer returns the default Dialer.
func NewWebSocketDialer(handshakeTimeout time.Duration) Dialer {
	return &wsDialer{
		dialer: websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
	}
}

// Dial establishes the WebSocket connection.
func (d *wsDialer) Dial(ctx context.Context, url string, header http.Header) (Conn, error) {
	h := header.Clone()
	if h == nil {
		h = http.Header{}
	}
	if h.Get("User-Agent") == "" {
		h.Set("User-Agent", version.UserAgent())
	}

	conn, resp, err := d.dialer.DialContext(ctx, url, h)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// closeConn sends a close frame and closes the socket.
func closeConn(conn Conn) error {
	if ws, ok := conn.(*websocket.Conn); ok {
		ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
	}
	return conn.Close()
}

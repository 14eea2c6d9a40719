package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is one live bidirectional message channel. The client assumes a
// reliable, ordered transport; gorilla/websocket provides the production
// implementation and tests substitute an in-memory fake.
type Conn interface {
	// ReadMessage blocks until the next inbound frame or a transport error.
	ReadMessage() ([]byte, error)

	// WriteMessage sends one frame. Safe for concurrent use.
	WriteMessage(data []byte) error

	// Close tears the connection down. Pending reads fail.
	Close() error
}

// Dialer opens connections. The URL already carries any auth token.
type Dialer interface {
	DialContext(ctx context.Context, url string) (Conn, error)
}

// wsDialer dials WebSocket endpoints with gorilla/websocket.
type wsDialer struct {
	handshakeTimeout time.Duration
	writeTimeout     time.Duration
}

// NewWebsocketDialer returns the production WebSocket Dialer.
func NewWebsocketDialer(handshakeTimeout, writeTimeout time.Duration) Dialer {
	return &wsDialer{
		handshakeTimeout: handshakeTimeout,
		writeTimeout:     writeTimeout,
	}
}

func (d *wsDialer) DialContext(ctx context.Context, url string) (Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: d.handshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	return &wsConn{conn: conn, writeTimeout: d.writeTimeout}, nil
}

// wsConn wraps a gorilla connection with write serialization.
type wsConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *wsConn) WriteMessage(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		// Best-effort close handshake before tearing down the socket.
		c.writeMu.Lock()
		c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.writeMu.Unlock()

		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

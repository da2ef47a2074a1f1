// Package wsconn implements ports.Transport over a gorilla/websocket connection.
package wsconn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	HandshakeTimeout    = 30 * time.Second
	DefaultWriteTimeout = 10 * time.Second
	DefaultCloseTimeout = 5 * time.Second
)

var errNotOpen = errors.New("websocket not open")

// Transport is one websocket session at a time. Open replaces any previous
// session; its read goroutine calls onClose exactly once when the session ends.
type Transport struct {
	dialer websocket.Dialer
	header http.Header

	mu   sync.Mutex // guards conn
	wmu  sync.Mutex // serializes writes
	conn *websocket.Conn
}

// New returns a Transport with the default handshake timeout.
func New() *Transport {
	return &Transport{
		dialer: websocket.Dialer{HandshakeTimeout: HandshakeTimeout},
		header: http.Header{},
	}
}

// Open dials url and starts the read loop.
func (t *Transport) Open(ctx context.Context, url string, onMessage func([]byte), onClose func(error)) error {
	conn, resp, err := t.dialer.DialContext(ctx, url, t.header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("wsconn.Open: dial %s: %w (status %s)", url, err, resp.Status)
		}
		return fmt.Errorf("wsconn.Open: dial %s: %w", url, err)
	}
	slog.Debug("websocket dialed", "url", url, "status", resp.Status)

	t.mu.Lock()
	prev := t.conn
	t.conn = conn
	t.mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}

	go t.readLoop(conn, onMessage, onClose)
	return nil
}

func (t *Transport) readLoop(conn *websocket.Conn, onMessage func([]byte), onClose func(error)) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.mu.Lock()
			if t.conn == conn {
				t.conn = nil
			}
			t.mu.Unlock()
			_ = conn.Close()
			onClose(err)
			return
		}
		onMessage(msg)
	}
}

// Send writes one text frame.
func (t *Transport) Send(payload []byte) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return errNotOpen
	}

	t.wmu.Lock()
	defer t.wmu.Unlock()
	if err := conn.SetWriteDeadline(time.Now().Add(DefaultWriteTimeout)); err != nil {
		return fmt.Errorf("wsconn.Send: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("wsconn.Send: %w", err)
	}
	return nil
}

// Close sends a normal-closure frame and closes the socket. Safe to call
// when nothing is open.
func (t *Transport) Close() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()
	if conn == nil {
		return nil
	}

	t.wmu.Lock()
	err := conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(DefaultCloseTimeout),
	)
	t.wmu.Unlock()
	if err != nil {
		slog.Debug("websocket close frame", "err", err)
	}
	return conn.Close()
}

package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// sendBufferSize bounds how far a slow client may fall behind before
	// its transport reports a write failure and the session falls back to
	// buffering.
	sendBufferSize = 256

	writeTimeout = 10 * time.Second
)

var errTransportClosed = errors.New("transport closed")
var errTransportBackedUp = errors.New("transport backed up")

// transport adapts one WebSocket connection to the session.Transport
// contract: a buffered send channel drained by a single write pump, so a
// slow or dead client never blocks the session. A full buffer is a write
// failure; the session treats that as an implicit detach and the client
// reconnects to a fresh snapshot.
type transport struct {
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func newTransport(conn *websocket.Conn) *transport {
	t := &transport{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
	go t.writePump()
	return t
}

func (t *transport) writePump() {
	for {
		select {
		case msg := <-t.send:
			t.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := t.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
				t.Close()
				t.conn.Close()
				return
			}
		case <-t.done:
			// Flush anything still queued so the client sees the final
			// output before the close frame.
			for {
				select {
				case msg := <-t.send:
					t.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
					if err := t.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
						t.conn.Close()
						return
					}
				default:
					t.conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"),
						time.Now().Add(time.Second))
					t.conn.Close()
					return
				}
			}
		}
	}
}

// Send queues one binary message. Never blocks: a closed transport or a
// full buffer returns an error instead.
func (t *transport) Send(p []byte) error {
	select {
	case <-t.done:
		return errTransportClosed
	default:
	}

	select {
	case t.send <- p:
		return nil
	case <-t.done:
		return errTransportClosed
	default:
		return errTransportBackedUp
	}
}

// Close signals end-of-stream: the pump sends a close frame and drops the
// connection. Safe to call more than once.
func (t *transport) Close() error {
	t.closeOnce.Do(func() { close(t.done) })
	return nil
}

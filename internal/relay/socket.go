package relay

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	errClosed       = errors.New("connection closed")
	errBackpressure = errors.New("reliable queue full")
)

const (
	maxMessageBytes = 10 << 20 // hard cap; oversize disconnects the socket
	pongWait        = 60 * time.Second
	pingPeriod      = 25 * time.Second
	writeWait       = 10 * time.Second

	reliableQueueSize = 64
)

// conn wraps a websocket connection with two send paths: a bounded,
// ordered queue for reliable events, and a single-slot volatile queue for
// frames where the freshest pending frame always wins over a stale one
// still waiting to be flushed. A connection whose reliable queue is full
// is considered hopelessly stalled and is closed rather than buffered
// without bound.
type conn struct {
	ws *websocket.Conn

	reliable chan []byte
	volatile chan []byte

	closeOnce sync.Once
	done      chan struct{}

	onClose func(reason string)
}

func newConn(ws *websocket.Conn) *conn {
	ws.SetReadLimit(maxMessageBytes)
	c := &conn{
		ws:       ws,
		reliable: make(chan []byte, reliableQueueSize),
		volatile: make(chan []byte, 1),
		done:     make(chan struct{}),
	}
	return c
}

// Send queues a reliable message. Implements registry.Member.
func (c *conn) Send(message []byte) error {
	if c.isClosed() {
		return errClosed
	}
	select {
	case c.reliable <- message:
		return nil
	case <-c.done:
		return errClosed
	default:
		return errBackpressure
	}
}

// SendVolatile queues a frame, silently discarding whichever frame was
// previously queued and not yet flushed.
func (c *conn) SendVolatile(message []byte) {
	if c.isClosed() {
		return
	}
	select {
	case c.volatile <- message:
		return
	case <-c.done:
		return
	default:
	}
	// Volatile slot occupied: drain the stale frame and replace it so the
	// writer always sends the most recent one.
	select {
	case <-c.volatile:
	default:
	}
	select {
	case c.volatile <- message:
	default:
	}
}

// Close implements registry.Member. reason is currently unused by the
// transport itself (the dispatcher emits a kicked/status event before
// calling Close when a reason is user-visible); it exists so call sites
// read naturally.
func (c *conn) Close(reason string) {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

func (c *conn) isClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// writePump drains the reliable and volatile queues onto the socket and
// sends periodic pings. It owns all writes to ws - nothing else may call
// ws.WriteMessage directly.
func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.Close("write pump exit")

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.reliable:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case msg := <-c.volatile:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (c *conn) write(messageType int, data []byte) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(messageType, data)
}

// readLoop reads frames until the transport fails, handing each message
// to onMessage. It installs the pong handler that keeps the
// connection from being reaped by its own idle deadline.
func (c *conn) readLoop(onMessage func(data []byte)) {
	defer c.Close("read loop exit")

	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		onMessage(data)
	}
}

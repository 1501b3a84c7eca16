package relay

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// dialTestConn spins up a throwaway websocket echo server and returns a
// *conn wrapping the client side of the connection, for exercising the
// queueing and lifecycle behavior that doesn't depend on message content.
func dialTestConn(t *testing.T) *conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { ws.Close() })

	return newConn(ws)
}

func TestConn_SendQueuesUntilFull(t *testing.T) {
	c := dialTestConn(t)
	for i := 0; i < reliableQueueSize; i++ {
		if err := c.Send([]byte("msg")); err != nil {
			t.Fatalf("expected queue slot %d to accept, got %v", i, err)
		}
	}
	if err := c.Send([]byte("overflow")); err != errBackpressure {
		t.Fatalf("expected errBackpressure once queue is full, got %v", err)
	}
}

func TestConn_SendAfterCloseFails(t *testing.T) {
	c := dialTestConn(t)
	c.Close("done")
	if err := c.Send([]byte("msg")); err != errClosed {
		t.Fatalf("expected errClosed after Close, got %v", err)
	}
}

func TestConn_SendVolatile_ReplacesStaleFrame(t *testing.T) {
	c := dialTestConn(t)
	c.SendVolatile([]byte("first"))
	c.SendVolatile([]byte("second"))

	select {
	case got := <-c.volatile:
		if string(got) != "second" {
			t.Fatalf("expected the latest volatile frame to win, got %q", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected a volatile frame to be queued")
	}
}

func TestConn_SendVolatile_NoopAfterClose(t *testing.T) {
	c := dialTestConn(t)
	c.Close("done")
	c.SendVolatile([]byte("frame")) // must not panic or block

	select {
	case <-c.volatile:
		t.Fatalf("expected no volatile frame to be queued after close")
	default:
	}
}

func TestConn_CloseIsIdempotent(t *testing.T) {
	c := dialTestConn(t)
	c.Close("first")
	c.Close("second")
	if !c.isClosed() {
		t.Fatalf("expected connection to report closed")
	}
}

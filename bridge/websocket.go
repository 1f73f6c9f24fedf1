// Package bridge exposes a tsdemux.Demuxer's event stream to external
// consumers over a live WebSocket connection, e.g. a browser-based
// monitoring dashboard.
package bridge

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mpegdemux/tsdemux"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wireEvent is the JSON shape pushed to connected clients; it flattens the
// handful of Event fields that are useful without a decoder on the other
// end, rather than serializing the full Event (whose table payloads are
// not themselves JSON-tagged).
type wireEvent struct {
	Kind string `json:"kind"`
	PID  uint16 `json:"pid"`
	At   int64  `json:"at"`

	Expected *uint8 `json:"expected,omitempty"`
	Got      *uint8 `json:"got,omitempty"`
	TableID  *uint8 `json:"table_id,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// WebSocket accepts connections and fans out every Event it's given to
// all of them. Send is safe to call from the goroutine driving the
// Demuxer; client registration/removal is internally synchronized.
type WebSocket struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan wireEvent
}

// NewWebSocket creates an empty bridge.
func NewWebSocket() *WebSocket {
	return &WebSocket{clients: make(map[*websocket.Conn]chan wireEvent)}
}

// ServeHTTP upgrades the request to a WebSocket and registers it as a
// subscriber until the connection closes.
func (b *WebSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	ch := make(chan wireEvent, 256)
	b.mu.Lock()
	b.clients[conn] = ch
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.clients, conn)
		b.mu.Unlock()
		conn.Close()
	}()

	for ev := range ch {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}
}

// Send fans out ev to every currently connected client. A client whose
// outbound buffer is full is dropped rather than allowed to block the
// whole pipeline.
func (b *WebSocket) Send(ev *tsdemux.Event) {
	we := toWireEvent(ev)

	b.mu.Lock()
	defer b.mu.Unlock()
	for conn, ch := range b.clients {
		select {
		case ch <- we:
		default:
			delete(b.clients, conn)
			close(ch)
		}
	}
}

func toWireEvent(ev *tsdemux.Event) wireEvent {
	we := wireEvent{Kind: ev.Kind.String(), PID: ev.PID, At: nowUnix(), Detail: ev.Detail}
	switch ev.Kind {
	case tsdemux.EventContinuityDiscontinuity:
		e, g := ev.Expected, ev.Got
		we.Expected, we.Got = &e, &g
	case tsdemux.EventCRCFailure:
		t := ev.TableID
		we.TableID = &t
	}
	return we
}

func nowUnix() int64 { return time.Now().Unix() }

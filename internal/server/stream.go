package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/buzzcap/buzzmarket/internal/domain"
	"github.com/buzzcap/buzzmarket/pkg/logger"
)

const (
	streamWriteTimeout = 10 * time.Second
	streamSendBuffer   = 8
)

var streamUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// streamHub pushes every completed tick report to subscribed websocket
// clients. A client that cannot keep up is dropped, never waited on.
type streamHub struct {
	mu      sync.Mutex
	clients map[*streamClient]struct{}
	closed  bool
}

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
}

func newStreamHub() *streamHub {
	return &streamHub{clients: map[*streamClient]struct{}{}}
}

func (h *streamHub) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := streamUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}

	c := &streamClient{conn: conn, send: make(chan []byte, streamSendBuffer)}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go c.writePump()

	// Inbound frames are ignored; reading only detects disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(c)
}

func (h *streamHub) broadcast(report *domain.TickReport) {
	payload, err := json.Marshal(report)
	if err != nil {
		logger.Errorf("stream: marshal report: %v", err)
		return
	}

	h.mu.Lock()
	var slow []*streamClient
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.Unlock()

	for _, c := range slow {
		logger.Warnf("stream: dropping slow client %s", c.conn.RemoteAddr())
		h.drop(c)
	}
}

func (h *streamHub) drop(c *streamClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	h.mu.Unlock()
	if ok {
		close(c.send)
	}
	_ = c.conn.Close()
}

func (h *streamHub) close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*streamClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = map[*streamClient]struct{}{}
	h.mu.Unlock()

	for _, c := range clients {
		close(c.send)
		_ = c.conn.Close()
	}
}

func (c *streamClient) writePump() {
	for payload := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(streamWriteTimeout))
}

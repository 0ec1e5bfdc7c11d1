package sync

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub fans events out to three kinds of consumers: TCP firehose clients
// (every event, newline-delimited JSON), WebSocket firehose clients,
// and per-topic WebSocket subscribers (one topic per ranking).
type Hub struct {
	mu        sync.Mutex
	clients   map[net.Conn]struct{}
	wsClients map[*websocket.Conn]struct{}
	topics    map[string]map[*websocket.Conn]struct{}
}

type Stats struct {
	TCPClients  int `json:"tcp_clients"`
	WSClients   int `json:"ws_clients"`
	Topics      int `json:"topics"`
	Subscribers int `json:"subscribers"`
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[net.Conn]struct{}),
		wsClients: make(map[*websocket.Conn]struct{}),
		topics:    make(map[string]map[*websocket.Conn]struct{}),
	}
}

func (h *Hub) Add(conn net.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Remove(conn net.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

func (h *Hub) AddWS(ws *websocket.Conn) {
	h.mu.Lock()
	h.wsClients[ws] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) RemoveWS(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.wsClients, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

func (h *Hub) Subscribe(topic string, ws *websocket.Conn) {
	h.mu.Lock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*websocket.Conn]struct{})
		h.topics[topic] = subs
	}
	subs[ws] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Unsubscribe(topic string, ws *websocket.Conn) {
	h.mu.Lock()
	if subs, ok := h.topics[topic]; ok {
		delete(subs, ws)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
	h.mu.Unlock()
	_ = ws.Close()
}

// Publish sends an event to the topic's subscribers and to every
// firehose client.
func (h *Hub) Publish(topic string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.topics[topic]; ok {
		for ws := range subs {
			if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
				_ = ws.Close()
				delete(subs, ws)
			}
		}
	}
	h.broadcastLocked(b)
}

// BroadcastJSON sends an event to firehose clients only.
func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastLocked(b)
}

func (h *Hub) broadcastLocked(b []byte) {
	line := append(b, '\n')

	for c := range h.clients {
		_ = c.SetWriteDeadline(time.Now().Add(2 * time.Second))
		w := bufio.NewWriter(c)
		if _, err := w.Write(line); err != nil {
			_ = c.Close()
			delete(h.clients, c)
			continue
		}
		if err := w.Flush(); err != nil {
			_ = c.Close()
			delete(h.clients, c)
			continue
		}
	}

	for ws := range h.wsClients {
		if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = ws.Close()
			delete(h.wsClients, ws)
		}
	}
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	subscribers := 0
	for _, subs := range h.topics {
		subscribers += len(subs)
	}
	return Stats{
		TCPClients:  len(h.clients),
		WSClients:   len(h.wsClients),
		Topics:      len(h.topics),
		Subscribers: subscribers,
	}
}

func (h *Hub) Welcome(conn net.Conn) {
	msg := fmt.Sprintf("{\"type\":\"welcome\",\"message\":\"connected\",\"clients\":%d}\n", h.Count())
	_, _ = conn.Write([]byte(msg))
}

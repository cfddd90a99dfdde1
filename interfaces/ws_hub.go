package interfaces

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"job-board/domain"
	"job-board/infrastructure"
)

const (
	listingsTopic = "listings"

	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsMaxMessage = 16 << 10
	wsSendBuffer = 32
)

func chatTopic(sessionID string) string {
	return "chat:" + sessionID
}

// Hub fans messages out to websocket clients grouped by topic. A client that
// cannot keep up with its send buffer is disconnected.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*wsClient]struct{}
	log    *logrus.Entry
}

type wsClient struct {
	conn  *websocket.Conn
	topic string

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func NewHub(log *logrus.Entry) *Hub {
	return &Hub{topics: make(map[string]map[*wsClient]struct{}), log: log}
}

// enqueue reports false when the client is gone or its buffer is full.
func (c *wsClient) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *wsClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Serve registers conn under topic and blocks until the connection ends.
// Every inbound text frame is passed to onMessage, which may be nil.
func (h *Hub) Serve(conn *websocket.Conn, topic string, onMessage func(c *wsClient, data []byte)) {
	client := &wsClient{conn: conn, topic: topic, send: make(chan []byte, wsSendBuffer)}
	h.add(client)
	defer h.remove(client)

	go client.writeLoop()

	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithError(err).WithField("topic", topic).Debug("websocket closed")
			}
			return
		}
		if kind == websocket.TextMessage && onMessage != nil {
			onMessage(client, data)
		}
	}
}

func (c *wsClient) writeLoop() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) add(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.topics[c.topic]
	if !ok {
		set = make(map[*wsClient]struct{})
		h.topics[c.topic] = set
	}
	set[c] = struct{}{}
	infrastructure.WSClients.Inc()
}

func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	if set, ok := h.topics[c.topic]; ok {
		if _, present := set[c]; present {
			delete(set, c)
			infrastructure.WSClients.Dec()
			if len(set) == 0 {
				delete(h.topics, c.topic)
			}
		}
	}
	h.mu.Unlock()
	c.close()
}

// Broadcast sends v as JSON to every client of topic.
func (h *Hub) Broadcast(topic string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		h.log.WithError(err).Warn("websocket payload not serializable")
		return
	}

	var slow []*wsClient
	h.mu.RLock()
	for c := range h.topics[topic] {
		if !c.enqueue(data) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.WithField("topic", topic).Warn("dropping slow websocket client")
		h.remove(c)
	}
}

// Send writes v to one client only.
func (h *Hub) Send(c *wsClient, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if !c.enqueue(data) {
		h.remove(c)
	}
}

// Clients reports how many clients listen on topic.
func (h *Hub) Clients(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// BroadcastChat pushes a chat message to its session.
func (h *Hub) BroadcastChat(msg domain.ChatMessage) {
	h.Broadcast(chatTopic(msg.SessionID), msg)
}

// BroadcastListingEvent pushes a listing change to the live feed.
func (h *Hub) BroadcastListingEvent(ev domain.ListingEvent) {
	h.Broadcast(listingsTopic, ev)
}

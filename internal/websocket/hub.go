package schedulews

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/saeid-a/GymScheduleBack/internal/models"
)

// Hub fans schedule events out to connected dashboards. Admins and managers
// see every event; a trainer only sees events for its own sessions.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan models.ScheduleEvent
	done       chan struct{}
}

// Client is one dashboard connection. send is closed at most once, under mu,
// so a read pump replying after the hub dropped the client never panics.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID int64
	role   string
	send   chan []byte
	mu     sync.Mutex
	closed bool
}

type Message struct {
	Type      string                `json:"type"`
	Event     *models.ScheduleEvent `json:"event,omitempty"`
	Error     string                `json:"error,omitempty"`
	Timestamp string                `json:"timestamp"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan models.ScheduleEvent, 64),
		done:       make(chan struct{}),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID int64, role string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		role:   role,
		send:   make(chan []byte, 32),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
			}
		case event := <-h.broadcast:
			h.deliver(event)
		case <-h.done:
			for client := range h.clients {
				delete(h.clients, client)
				client.closeSend()
			}
			return
		}
	}
}

func (h *Hub) Stop() {
	close(h.done)
}

// Register adds client to the hub. It reports false once the hub has stopped,
// in which case the caller owns closing the connection.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues an event for delivery. Events are dropped when the queue is
// full so that a slow hub never blocks a scheduling request.
func (h *Hub) Publish(event models.ScheduleEvent) {
	select {
	case h.broadcast <- event:
	default:
		log.Printf("schedule hub: dropping %s for session %s", event.Type, event.Code)
	}
}

func (h *Hub) deliver(event models.ScheduleEvent) {
	encoded, err := json.Marshal(Message{
		Type:      "event",
		Event:     &event,
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("schedule hub encode event: %v", err)
		return
	}

	for client := range h.clients {
		if !client.subscribedTo(event) {
			continue
		}
		if !client.enqueue(encoded) {
			delete(h.clients, client)
			client.closeSend()
		}
	}
}

// enqueue queues payload without blocking. It reports false when the queue is
// full or already closed.
func (c *Client) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) subscribedTo(event models.ScheduleEvent) bool {
	if models.IsScheduler(c.role) {
		return true
	}
	return c.role == models.RoleTrainer && event.TrainerUserID == c.userID
}

// ReadPump keeps the connection alive and answers pings. The feed is
// push-only, so any other inbound message is rejected.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(payload, &incoming); err != nil {
			writeMessage(c, Message{Type: "error", Error: "invalid message payload"})
			continue
		}
		if incoming.Type != "ping" {
			writeMessage(c, Message{Type: "error", Error: "unsupported message type"})
			continue
		}
		writeMessage(c, Message{Type: "pong"})
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func writeMessage(client *Client, message Message) {
	message.Timestamp = time.Now().UTC().Format(time.RFC3339)
	payload, err := json.Marshal(message)
	if err != nil {
		return
	}
	if !client.enqueue(payload) {
		client.hub.Unregister(client)
	}
}

package handlers

import (
	"strconv"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	schedulews "github.com/saeid-a/GymScheduleBack/internal/websocket"
)

// EventsHandler streams schedule changes to dashboards over a websocket.
type EventsHandler struct {
	hub *schedulews.Hub
}

func NewEventsHandler(hub *schedulews.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

func (h *EventsHandler) RequireUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}
	return c.Next()
}

func (h *EventsHandler) HandleWebSocket(conn *websocket.Conn) {
	userIDStr, _ := conn.Locals("user_id").(string)
	role, _ := conn.Locals("role").(string)
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		_ = conn.Close()
		return
	}

	client := schedulews.NewClient(h.hub, conn, userID, role)
	if !h.hub.Register(client) {
		_ = conn.Close()
		return
	}
	go client.WritePump()
	client.ReadPump()
}

package handlers

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestEventsRequireWebSocketUpgrade(t *testing.T) {
	handler := &EventsHandler{}

	app := fiber.New()
	app.Get("/api/v1/ws", handler.RequireUpgrade, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, payload := performRequest(t, app, http.MethodGet, "/api/v1/ws", "", nil)

	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Fatalf("expected 426, got %d", resp.StatusCode)
	}
	if payload["error"] != "WebSocket upgrade required" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/GymScheduleBack/internal/services"
)

func parseUserID(c *fiber.Ctx) (int64, error) {
	userIDValue := c.Locals("user_id")
	userIDStr, ok := userIDValue.(string)
	if !ok {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(userIDStr, 10, 64)
}

func actorFromContext(c *fiber.Ctx) (services.Actor, bool) {
	role, ok := c.Locals("role").(string)
	if !ok || role == "" {
		return services.Actor{}, false
	}
	userID, err := parseUserID(c)
	if err != nil {
		return services.Actor{}, false
	}
	return services.Actor{UserID: userID, Role: role}, true
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token", "kind": "unauthorized"})
}

package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/GymScheduleBack/internal/services"
)

const (
	kindValidation   = "validation_error"
	kindConflict     = "conflict"
	kindInvalidState = "invalid_state"
	kindTooEarly     = "too_early"
	kindStaleVersion = "stale_version"
	kindForbidden    = "forbidden"
	kindNotFound     = "not_found"
	kindInternal     = "internal"
)

func respondError(c *fiber.Ctx, status int, kind, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message, "kind": kind})
}

func badRequest(c *fiber.Ctx, message string) error {
	return respondError(c, fiber.StatusBadRequest, kindValidation, message)
}

func mapScheduleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrStaleVersion):
		return respondError(c, fiber.StatusConflict, kindStaleVersion, err.Error())
	case errors.Is(err, services.ErrConflict):
		return respondError(c, fiber.StatusBadRequest, kindConflict, err.Error())
	case errors.Is(err, services.ErrTooEarly):
		return respondError(c, fiber.StatusBadRequest, kindTooEarly, err.Error())
	case errors.Is(err, services.ErrInvalidState), errors.Is(err, services.ErrImmutableState):
		return respondError(c, fiber.StatusBadRequest, kindInvalidState, err.Error())
	case errors.Is(err, services.ErrInvalidInput):
		return respondError(c, fiber.StatusBadRequest, kindValidation, err.Error())
	case errors.Is(err, services.ErrForbidden):
		return respondError(c, fiber.StatusForbidden, kindForbidden, "Forbidden")
	case errors.Is(err, services.ErrTrainerNotFound):
		return respondError(c, fiber.StatusNotFound, kindNotFound, "Trainer not found")
	case errors.Is(err, services.ErrTrainerProfileNotFound):
		return respondError(c, fiber.StatusNotFound, kindNotFound, "Trainer profile not found")
	case errors.Is(err, services.ErrUserNotFound):
		return respondError(c, fiber.StatusNotFound, kindNotFound, "User not found")
	case errors.Is(err, services.ErrNotFound), errors.Is(err, pgx.ErrNoRows):
		return respondError(c, fiber.StatusNotFound, kindNotFound, "Session not found")
	default:
		log.Printf("request %v: %v", c.Locals("requestid"), err)
		return respondError(c, fiber.StatusInternalServerError, kindInternal, "Internal server error")
	}
}

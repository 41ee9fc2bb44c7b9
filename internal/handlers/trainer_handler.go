package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/GymScheduleBack/internal/models"
	"github.com/saeid-a/GymScheduleBack/internal/services"
	"github.com/shopspring/decimal"
)

type TrainerHandler struct {
	service trainerService
}

type trainerService interface {
	CreateTrainer(ctx context.Context, actor services.Actor, input services.CreateTrainerInput) (*models.Trainer, error)
	GetTrainer(ctx context.Context, trainerID int64) (*models.Trainer, error)
	GetOwnTrainer(ctx context.Context, actor services.Actor) (*models.Trainer, error)
	ListTrainers(ctx context.Context, status string, page, limit int) ([]models.Trainer, int, error)
	UpdateTrainer(ctx context.Context, actor services.Actor, trainerID int64, input services.UpdateTrainerInput) (*models.Trainer, error)
}

func NewTrainerHandler(service *services.TrainerService) *TrainerHandler {
	return &TrainerHandler{service: service}
}

type createTrainerRequest struct {
	UserID      int64           `json:"user_id" validate:"required,gt=0"`
	Specialties []string        `json:"specialties" validate:"omitempty,max=20,dive,max=60"`
	HourlyRate  decimal.Decimal `json:"hourly_rate"`
	Bio         *string         `json:"bio" validate:"omitempty,max=2000"`
}

type updateTrainerRequest struct {
	Specialties *[]string        `json:"specialties" validate:"omitempty,max=20,dive,max=60"`
	HourlyRate  *decimal.Decimal `json:"hourly_rate"`
	Bio         *string          `json:"bio" validate:"omitempty,max=2000"`
	Status      *string          `json:"status" validate:"omitempty,oneof=active inactive on_leave"`
}

func (h *TrainerHandler) ListTrainers(c *fiber.Ctx) error {
	page, limit := parsePagination(c, defaultPageLimit)

	trainers, total, err := h.service.ListTrainers(c.Context(), c.Query("status"), page, limit)
	if err != nil {
		return mapScheduleError(c, err)
	}

	return c.JSON(fiber.Map{
		"trainers":   trainers,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *TrainerHandler) GetMyTrainer(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	trainer, err := h.service.GetOwnTrainer(c.Context(), actor)
	if err != nil {
		return mapScheduleError(c, err)
	}

	return c.JSON(fiber.Map{"trainer": trainer})
}

func (h *TrainerHandler) GetTrainer(c *fiber.Ctx) error {
	trainerID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || trainerID <= 0 {
		return badRequest(c, "Invalid trainer id")
	}

	trainer, err := h.service.GetTrainer(c.Context(), trainerID)
	if err != nil {
		return mapScheduleError(c, err)
	}

	return c.JSON(fiber.Map{"trainer": trainer})
}

func (h *TrainerHandler) CreateTrainer(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req createTrainerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, validationMessage(err))
	}
	if req.HourlyRate.IsNegative() {
		return badRequest(c, "hourly_rate must not be negative")
	}

	trainer, err := h.service.CreateTrainer(c.Context(), actor, services.CreateTrainerInput{
		UserID:      req.UserID,
		Specialties: req.Specialties,
		HourlyRate:  req.HourlyRate,
		Bio:         req.Bio,
	})
	if err != nil {
		return mapScheduleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"trainer": trainer})
}

func (h *TrainerHandler) UpdateTrainer(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	trainerID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || trainerID <= 0 {
		return badRequest(c, "Invalid trainer id")
	}

	var req updateTrainerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, validationMessage(err))
	}
	if req.Specialties == nil && req.HourlyRate == nil && req.Bio == nil && req.Status == nil {
		return badRequest(c, "no editable fields supplied")
	}
	if req.Status != nil {
		status := strings.TrimSpace(*req.Status)
		req.Status = &status
	}

	trainer, err := h.service.UpdateTrainer(c.Context(), actor, trainerID, services.UpdateTrainerInput{
		Specialties: req.Specialties,
		HourlyRate:  req.HourlyRate,
		Bio:         req.Bio,
		Status:      req.Status,
	})
	if err != nil {
		return mapScheduleError(c, err)
	}

	return c.JSON(fiber.Map{"trainer": trainer})
}

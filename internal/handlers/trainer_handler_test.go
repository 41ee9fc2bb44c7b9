package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/GymScheduleBack/internal/models"
	"github.com/saeid-a/GymScheduleBack/internal/services"
	"github.com/shopspring/decimal"
)

type stubTrainerService struct {
	trainer     *models.Trainer
	trainers    []models.Trainer
	total       int
	err         error
	createCalls int
	updateCalls int
	lastActor   services.Actor
	lastID      int64
	lastCreate  services.CreateTrainerInput
	lastUpdate  services.UpdateTrainerInput
	lastStatus  string
	lastPage    int
	lastLimit   int
}

func (s *stubTrainerService) CreateTrainer(_ context.Context, actor services.Actor, input services.CreateTrainerInput) (*models.Trainer, error) {
	s.createCalls++
	s.lastActor = actor
	s.lastCreate = input
	return s.trainer, s.err
}

func (s *stubTrainerService) GetTrainer(_ context.Context, trainerID int64) (*models.Trainer, error) {
	s.lastID = trainerID
	return s.trainer, s.err
}

func (s *stubTrainerService) GetOwnTrainer(_ context.Context, actor services.Actor) (*models.Trainer, error) {
	s.lastActor = actor
	return s.trainer, s.err
}

func (s *stubTrainerService) ListTrainers(_ context.Context, status string, page, limit int) ([]models.Trainer, int, error) {
	s.lastStatus = status
	s.lastPage = page
	s.lastLimit = limit
	return s.trainers, s.total, s.err
}

func (s *stubTrainerService) UpdateTrainer(_ context.Context, actor services.Actor, trainerID int64, input services.UpdateTrainerInput) (*models.Trainer, error) {
	s.updateCalls++
	s.lastActor = actor
	s.lastID = trainerID
	s.lastUpdate = input
	return s.trainer, s.err
}

func newTrainerTestApp(handler *TrainerHandler, role string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", role)
		c.Locals("user_id", "42")
		return c.Next()
	})
	app.Get("/api/v1/trainers", handler.ListTrainers)
	app.Get("/api/v1/trainers/me", handler.GetMyTrainer)
	app.Get("/api/v1/trainers/:id", handler.GetTrainer)
	app.Post("/api/v1/trainers", handler.CreateTrainer)
	app.Put("/api/v1/trainers/:id", handler.UpdateTrainer)
	return app
}

func TestCreateTrainerParsesHourlyRate(t *testing.T) {
	service := &stubTrainerService{trainer: &models.Trainer{ID: 3, Code: "TR0003"}}
	app := newTrainerTestApp(&TrainerHandler{service: service}, models.RoleAdmin)

	resp, payload := performRequest(t, app, http.MethodPost, "/api/v1/trainers", `{
		"user_id": 12,
		"specialties": ["yoga", "pilates"],
		"hourly_rate": "200000.50"
	}`, nil)

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%v)", resp.StatusCode, payload)
	}
	if service.lastCreate.UserID != 12 {
		t.Fatalf("expected user 12, got %d", service.lastCreate.UserID)
	}
	if !service.lastCreate.HourlyRate.Equal(decimal.RequireFromString("200000.50")) {
		t.Fatalf("unexpected hourly rate %s", service.lastCreate.HourlyRate)
	}
	if len(service.lastCreate.Specialties) != 2 {
		t.Fatalf("expected specialties to be forwarded, got %v", service.lastCreate.Specialties)
	}
}

func TestCreateTrainerRejectsNegativeRate(t *testing.T) {
	service := &stubTrainerService{}
	app := newTrainerTestApp(&TrainerHandler{service: service}, models.RoleAdmin)

	resp, _ := performRequest(t, app, http.MethodPost, "/api/v1/trainers", `{"user_id": 12, "hourly_rate": -1}`, nil)

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if service.createCalls != 0 {
		t.Fatal("service must not be called")
	}
}

func TestCreateTrainerReportsUnknownUser(t *testing.T) {
	service := &stubTrainerService{err: services.ErrUserNotFound}
	app := newTrainerTestApp(&TrainerHandler{service: service}, models.RoleAdmin)

	resp, payload := performRequest(t, app, http.MethodPost, "/api/v1/trainers", `{"user_id": 99, "hourly_rate": 100}`, nil)

	if resp.StatusCode != http.StatusNotFound || payload["error"] != "User not found" {
		t.Fatalf("expected 404 user not found, got %d %v", resp.StatusCode, payload)
	}
}

func TestUpdateTrainerValidatesStatus(t *testing.T) {
	service := &stubTrainerService{}
	app := newTrainerTestApp(&TrainerHandler{service: service}, models.RoleAdmin)

	resp, payload := performRequest(t, app, http.MethodPut, "/api/v1/trainers/3", `{"status": "retired"}`, nil)

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if payload["error"] != "status must be one of active inactive on_leave" {
		t.Fatalf("unexpected message %v", payload["error"])
	}
	if service.updateCalls != 0 {
		t.Fatal("service must not be called")
	}
}

func TestUpdateTrainerRejectsEmptyBody(t *testing.T) {
	service := &stubTrainerService{}
	app := newTrainerTestApp(&TrainerHandler{service: service}, models.RoleTrainer)

	resp, _ := performRequest(t, app, http.MethodPut, "/api/v1/trainers/3", `{}`, nil)

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestUpdateTrainerForbiddenForOtherTrainer(t *testing.T) {
	service := &stubTrainerService{err: services.ErrForbidden}
	app := newTrainerTestApp(&TrainerHandler{service: service}, models.RoleTrainer)

	resp, _ := performRequest(t, app, http.MethodPut, "/api/v1/trainers/3", `{"bio": "Certified coach"}`, nil)

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	if service.lastID != 3 || service.lastActor.Role != models.RoleTrainer {
		t.Fatalf("unexpected call id=%d actor=%+v", service.lastID, service.lastActor)
	}
}

func TestListTrainersCapsLimit(t *testing.T) {
	service := &stubTrainerService{trainers: []models.Trainer{{ID: 1}}, total: 1}
	app := newTrainerTestApp(&TrainerHandler{service: service}, models.RoleManager)

	resp, _ := performRequest(t, app, http.MethodGet, "/api/v1/trainers?status=active&limit=80", "", nil)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastStatus != "active" || service.lastLimit != maxPageLimit || service.lastPage != 1 {
		t.Fatalf("unexpected list call status=%q page=%d limit=%d", service.lastStatus, service.lastPage, service.lastLimit)
	}
}

func TestGetMyTrainerWithoutProfile(t *testing.T) {
	service := &stubTrainerService{err: services.ErrTrainerProfileNotFound}
	app := newTrainerTestApp(&TrainerHandler{service: service}, models.RoleTrainer)

	resp, _ := performRequest(t, app, http.MethodGet, "/api/v1/trainers/me", "", nil)

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/saeid-a/GymScheduleBack/internal/models"
	"github.com/saeid-a/GymScheduleBack/internal/services"
)

type ScheduleHandler struct {
	service      scheduleService
	availability availabilityFinder
}

type scheduleService interface {
	CreateSession(ctx context.Context, actor services.Actor, input services.CreateSessionInput) (*models.Session, error)
	UpdateSession(ctx context.Context, actor services.Actor, sessionID uuid.UUID, changes services.SessionChanges, expectedVersion *int) (*models.Session, error)
	CancelSession(ctx context.Context, actor services.Actor, sessionID uuid.UUID, reason *string) (*models.Session, error)
	CheckIn(ctx context.Context, actor services.Actor, sessionID uuid.UUID, notes *string, location *string) (*models.Session, error)
	CheckOut(ctx context.Context, actor services.Actor, sessionID uuid.UUID, notes *string, actualAttendees *int) (*services.CheckOutResult, error)
	MarkPaid(ctx context.Context, actor services.Actor, sessionID uuid.UUID) (*models.Session, error)
	GetSession(ctx context.Context, sessionID uuid.UUID) (*models.Session, error)
	ListSessions(ctx context.Context, input services.ListSessionsInput) ([]models.Session, int, error)
	ListForRange(ctx context.Context, actor services.Actor, from, to, status string) ([]models.Session, error)
	ListToday(ctx context.Context, actor services.Actor) (*services.TodaySchedule, error)
	ComputeStats(ctx context.Context, actor services.Actor, period string) (*models.TrainerStats, error)
	Weekly(ctx context.Context, trainerID *int64, anyDay string) (*models.WeeklySchedule, error)
}

type availabilityFinder interface {
	FindAvailableTrainers(ctx context.Context, query services.AvailabilityQuery) ([]services.AvailableTrainer, error)
}

func NewScheduleHandler(service *services.SessionService, availability *services.AvailabilityService) *ScheduleHandler {
	return &ScheduleHandler{service: service, availability: availability}
}

type createScheduleRequest struct {
	TrainerID   int64             `json:"trainer_id" validate:"required,gt=0"`
	Title       string            `json:"title" validate:"required,max=200"`
	Subject     *string           `json:"subject" validate:"omitempty,max=120"`
	Date        string            `json:"date" validate:"required,isodate"`
	StartTime   string            `json:"start_time" validate:"required,hhmm"`
	EndTime     string            `json:"end_time" validate:"required,hhmm"`
	Location    *string           `json:"location" validate:"omitempty,max=200"`
	Capacity    int               `json:"capacity" validate:"required,min=1"`
	Attendees   []attendeeRequest `json:"attendees" validate:"omitempty,dive"`
	Description *string           `json:"description"`
	Notes       *string           `json:"notes"`
}

type attendeeRequest struct {
	Name  string  `json:"name" validate:"required"`
	Email *string `json:"email" validate:"omitempty,email"`
	Phone *string `json:"phone"`
}

type updateScheduleRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Subject     *string `json:"subject" validate:"omitempty,max=120"`
	Date        *string `json:"date" validate:"omitempty,isodate"`
	StartTime   *string `json:"start_time" validate:"omitempty,hhmm"`
	EndTime     *string `json:"end_time" validate:"omitempty,hhmm"`
	Location    *string `json:"location" validate:"omitempty,max=200"`
	Capacity    *int    `json:"capacity" validate:"omitempty,min=1"`
	Description *string `json:"description"`
	Notes       *string `json:"notes"`
	Version     *int    `json:"version" validate:"omitempty,min=1"`
}

type cancelScheduleRequest struct {
	Reason *string `json:"reason"`
}

type checkInRequest struct {
	Notes    *string `json:"notes"`
	Location *string `json:"location"`
}

type checkOutRequest struct {
	Notes           *string `json:"notes"`
	ActualAttendees *int    `json:"actual_attendees" validate:"omitempty,min=0"`
}

func (h *ScheduleHandler) ListSchedules(c *fiber.Ctx) error {
	page, limit := parsePagination(c, defaultSchedulePage)

	var trainerID *int64
	if raw := strings.TrimSpace(c.Query("trainer_id")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			return badRequest(c, "trainer_id must be a positive integer")
		}
		trainerID = &parsed
	}

	sessions, total, err := h.service.ListSessions(c.Context(), services.ListSessionsInput{
		TrainerID: trainerID,
		Date:      strings.TrimSpace(c.Query("date")),
		DateFrom:  strings.TrimSpace(c.Query("from")),
		DateTo:    strings.TrimSpace(c.Query("to")),
		Status:    strings.TrimSpace(c.Query("status")),
		SortBy:    strings.TrimSpace(c.Query("sort_by")),
		Order:     strings.TrimSpace(c.Query("order")),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		return mapScheduleError(c, err)
	}

	return c.JSON(fiber.Map{
		"sessions":   sessions,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *ScheduleHandler) ListMySchedules(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	sessions, err := h.service.ListForRange(
		c.Context(),
		actor,
		strings.TrimSpace(c.Query("from")),
		strings.TrimSpace(c.Query("to")),
		strings.TrimSpace(c.Query("status")),
	)
	if err != nil {
		return mapScheduleError(c, err)
	}

	return c.JSON(fiber.Map{"sessions": sessions})
}

func (h *ScheduleHandler) ListMyToday(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	today, err := h.service.ListToday(c.Context(), actor)
	if err != nil {
		return mapScheduleError(c, err)
	}

	return c.JSON(today)
}

func (h *ScheduleHandler) MyStats(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	stats, err := h.service.ComputeStats(c.Context(), actor, c.Query("period"))
	if err != nil {
		return mapScheduleError(c, err)
	}

	return c.JSON(fiber.Map{"stats": stats})
}

func (h *ScheduleHandler) Weekly(c *fiber.Ctx) error {
	var trainerID *int64
	if raw := strings.TrimSpace(c.Query("trainer_id")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			return badRequest(c, "trainer_id must be a positive integer")
		}
		trainerID = &parsed
	}

	week, err := h.service.Weekly(c.Context(), trainerID, c.Query("date"))
	if err != nil {
		return mapScheduleError(c, err)
	}

	return c.JSON(week)
}

// AvailableTrainers lists trainers free for a window, ranked by specialty match.
func (h *ScheduleHandler) AvailableTrainers(c *fiber.Ctx) error {
	trainers, err := h.availability.FindAvailableTrainers(c.Context(), services.AvailabilityQuery{
		Date:      strings.TrimSpace(c.Query("date")),
		StartTime: strings.TrimSpace(c.Query("start_time")),
		EndTime:   strings.TrimSpace(c.Query("end_time")),
		Specialty: strings.TrimSpace(c.Query("specialty")),
		Limit:     parsePositiveInt(c.Query("limit"), 0),
	})
	if err != nil {
		return mapScheduleError(c, err)
	}

	return c.JSON(fiber.Map{"trainers": trainers})
}

func (h *ScheduleHandler) GetSchedule(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid session id")
	}

	session, err := h.service.GetSession(c.Context(), sessionID)
	if err != nil {
		return mapScheduleError(c, err)
	}

	c.Set(fiber.HeaderETag, strconv.Quote(strconv.Itoa(session.Version)))
	return c.JSON(fiber.Map{"session": session})
}

func (h *ScheduleHandler) CreateSchedule(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req createScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, validationMessage(err))
	}

	attendees := make([]models.Attendee, 0, len(req.Attendees))
	for _, attendee := range req.Attendees {
		attendees = append(attendees, models.Attendee{
			Name:  strings.TrimSpace(attendee.Name),
			Email: attendee.Email,
			Phone: attendee.Phone,
		})
	}

	session, err := h.service.CreateSession(c.Context(), actor, services.CreateSessionInput{
		TrainerID:   req.TrainerID,
		Title:       req.Title,
		Subject:     req.Subject,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    req.Location,
		Capacity:    req.Capacity,
		Attendees:   attendees,
		Description: req.Description,
		Notes:       req.Notes,
	})
	if err != nil {
		return mapScheduleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session": session})
}

func (h *ScheduleHandler) UpdateSchedule(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid session id")
	}

	var req updateScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, validationMessage(err))
	}

	expectedVersion := req.Version
	if header := strings.TrimSpace(c.Get(fiber.HeaderIfMatch)); header != "" {
		version, err := parseVersionTag(header)
		if err != nil {
			return badRequest(c, "If-Match must carry the session version")
		}
		expectedVersion = &version
	}

	session, err := h.service.UpdateSession(c.Context(), actor, sessionID, services.SessionChanges{
		Title:       req.Title,
		Subject:     req.Subject,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    req.Location,
		Capacity:    req.Capacity,
		Description: req.Description,
		Notes:       req.Notes,
	}, expectedVersion)
	if err != nil {
		return mapScheduleError(c, err)
	}

	c.Set(fiber.HeaderETag, strconv.Quote(strconv.Itoa(session.Version)))
	return c.JSON(fiber.Map{"session": session})
}

func (h *ScheduleHandler) CancelSchedule(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid session id")
	}

	var req cancelScheduleRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}
	if reason := c.Query("reason"); req.Reason == nil && reason != "" {
		req.Reason = &reason
	}

	session, err := h.service.CancelSession(c.Context(), actor, sessionID, req.Reason)
	if err != nil {
		return mapScheduleError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *ScheduleHandler) CheckIn(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid session id")
	}

	var req checkInRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}

	session, err := h.service.CheckIn(c.Context(), actor, sessionID, req.Notes, req.Location)
	if err != nil {
		return mapScheduleError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *ScheduleHandler) CheckOut(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid session id")
	}

	var req checkOutRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, validationMessage(err))
	}

	result, err := h.service.CheckOut(c.Context(), actor, sessionID, req.Notes, req.ActualAttendees)
	if err != nil {
		return mapScheduleError(c, err)
	}

	return c.JSON(result)
}

func (h *ScheduleHandler) MarkPaid(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid session id")
	}

	session, err := h.service.MarkPaid(c.Context(), actor, sessionID)
	if err != nil {
		return mapScheduleError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

// parseVersionTag accepts 3, "3" and W/"3".
func parseVersionTag(value string) (int, error) {
	value = strings.TrimPrefix(strings.TrimSpace(value), "W/")
	value = strings.Trim(value, `"`)
	version, err := strconv.Atoi(value)
	if err != nil || version <= 0 {
		return 0, strconv.ErrSyntax
	}
	return version, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/saeid-a/GymScheduleBack/internal/models"
	"github.com/saeid-a/GymScheduleBack/internal/repository"
)

const missedCancelReason = "missed"

// Actor is the authenticated caller of a scheduling operation.
type Actor struct {
	UserID int64
	Role   string
}

type EventPublisher interface {
	Publish(event models.ScheduleEvent)
}

type trainerReader interface {
	GetByID(ctx context.Context, id int64) (*models.Trainer, error)
	GetByUserID(ctx context.Context, userID int64) (*models.Trainer, error)
}

type SessionService struct {
	db          *pgxpool.Pool
	sessionRepo *repository.SessionRepository
	trainerRepo trainerReader
	policy      SchedulePolicy
	events      EventPublisher
	now         func() time.Time
}

func NewSessionService(
	db *pgxpool.Pool,
	sessionRepo *repository.SessionRepository,
	trainerRepo trainerReader,
	policy SchedulePolicy,
	events EventPublisher,
) *SessionService {
	return &SessionService{
		db:          db,
		sessionRepo: sessionRepo,
		trainerRepo: trainerRepo,
		policy:      policy,
		events:      events,
		now:         time.Now,
	}
}

// SetClock replaces the time source used for check-in windows and day boundaries.
func (s *SessionService) SetClock(now func() time.Time) {
	s.now = now
}

type CreateSessionInput struct {
	TrainerID   int64
	Title       string
	Subject     *string
	Date        string
	StartTime   string
	EndTime     string
	Location    *string
	Capacity    int
	Attendees   []models.Attendee
	Description *string
	Notes       *string
}

type ListSessionsInput struct {
	TrainerID *int64
	Date      string
	DateFrom  string
	DateTo    string
	Status    string
	SortBy    string
	Order     string
	Page      int
	Limit     int
}

type TodaySchedule struct {
	Date     string            `json:"date"`
	Sessions []models.Session  `json:"sessions"`
	Summary  models.DaySummary `json:"summary"`
}

type CheckOutResult struct {
	Session *models.Session        `json:"session"`
	Summary models.CheckOutSummary `json:"summary"`
}

func (s *SessionService) CreateSession(ctx context.Context, actor Actor, input CreateSessionInput) (*models.Session, error) {
	if !models.IsScheduler(actor.Role) {
		return nil, ErrForbidden
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, invalidInput("title is required")
	}
	day, err := ParseSessionDate(input.Date)
	if err != nil {
		return nil, err
	}
	if err := ValidateWindow(input.StartTime, input.EndTime); err != nil {
		return nil, err
	}
	if err := validateAttendees(input.Capacity, input.Attendees); err != nil {
		return nil, err
	}

	trainer, err := s.trainerRepo.GetByID(ctx, input.TrainerID)
	if err != nil {
		return nil, notFoundAs(err, ErrTrainerNotFound)
	}
	if trainer.Status == models.TrainerStatusInactive {
		return nil, invalidInput("trainer %s is inactive", trainer.Code)
	}

	date := day.Format(DateLayout)
	now := s.now()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)
	txCounterRepo := repository.NewCodeCounterRepository(tx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", trainer.ID); err != nil {
		return nil, err
	}

	existing, err := txSessionRepo.ListActiveByTrainerAndDate(ctx, trainer.ID, date)
	if err != nil {
		return nil, err
	}
	if conflict := FindConflict(existing, date, input.StartTime, input.EndTime, uuid.Nil); conflict != nil {
		return nil, conflictWith(conflict)
	}

	codeDay := s.policy.Today(now)
	sequence, err := txCounterRepo.NextSessionSequence(ctx, codeDay)
	if err != nil {
		return nil, err
	}
	codeDate, err := ParseSessionDate(codeDay)
	if err != nil {
		return nil, err
	}
	code, err := SessionCodeFor(codeDate, sequence)
	if err != nil {
		return nil, err
	}

	attendees := input.Attendees
	if attendees == nil {
		attendees = []models.Attendee{}
	}
	createdBy := actor.UserID
	sessionID := uuid.New()

	err = txSessionRepo.Create(ctx, repository.CreateSessionInput{
		ID:              sessionID,
		Code:            code,
		TrainerID:       trainer.ID,
		Title:           title,
		Subject:         input.Subject,
		Date:            date,
		StartTime:       input.StartTime,
		EndTime:         input.EndTime,
		Location:        input.Location,
		Capacity:        input.Capacity,
		Attendees:       attendees,
		Description:     input.Description,
		Notes:           input.Notes,
		PlannedDuration: PlannedDurationMinutes(input.StartTime, input.EndTime),
		CreatedBy:       &createdBy,
	})
	if err != nil {
		return nil, translateInsertError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, translateInsertError(err)
	}

	return s.reloadAndPublish(ctx, sessionID, models.EventSessionCreated)
}

// UpdateSession edits a scheduled session. A nil expectedVersion skips the
// caller-side version check; the write itself is always version-guarded.
func (s *SessionService) UpdateSession(
	ctx context.Context,
	actor Actor,
	sessionID uuid.UUID,
	changes SessionChanges,
	expectedVersion *int,
) (*models.Session, error) {
	if !models.IsScheduler(actor.Role) {
		return nil, ErrForbidden
	}
	if changes.IsEmpty() {
		return nil, invalidInput("no editable fields supplied")
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)

	session, err := txSessionRepo.GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		return nil, notFoundAs(err, ErrNotFound)
	}
	if expectedVersion != nil && *expectedVersion != session.Version {
		return nil, ErrStaleVersion
	}

	currentVersion := session.Version
	moved, err := ApplySessionChanges(session, changes)
	if err != nil {
		return nil, err
	}

	if moved {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", session.TrainerID); err != nil {
			return nil, err
		}
		existing, err := txSessionRepo.ListActiveByTrainerAndDate(ctx, session.TrainerID, session.Date)
		if err != nil {
			return nil, err
		}
		if conflict := FindConflict(existing, session.Date, session.StartTime, session.EndTime, session.ID); conflict != nil {
			return nil, conflictWith(conflict)
		}
	}

	if err := txSessionRepo.UpdateDetails(ctx, session, currentVersion); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStaleVersion
		}
		return nil, translateWriteError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, translateWriteError(err)
	}

	return s.reloadAndPublish(ctx, sessionID, models.EventSessionUpdated)
}

// CancelSession soft-cancels a session. Cancelling an already cancelled
// session returns it unchanged.
func (s *SessionService) CancelSession(
	ctx context.Context,
	actor Actor,
	sessionID uuid.UUID,
	reason *string,
) (*models.Session, error) {
	if !models.IsScheduler(actor.Role) {
		return nil, ErrForbidden
	}

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, notFoundAs(err, ErrNotFound)
	}
	noop, err := PlanCancel(session)
	if err != nil {
		return nil, err
	}
	if noop {
		return session, nil
	}

	if err := s.sessionRepo.Cancel(ctx, session.ID, session.Version, reason); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStaleVersion
		}
		return nil, err
	}

	return s.reloadAndPublish(ctx, sessionID, models.EventSessionCancelled)
}

func (s *SessionService) CheckIn(
	ctx context.Context,
	actor Actor,
	sessionID uuid.UUID,
	notes *string,
	location *string,
) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, notFoundAs(err, ErrNotFound)
	}
	trainer, err := s.actingTrainer(ctx, actor)
	if err != nil {
		return nil, err
	}

	record, err := PlanCheckIn(session, trainer.ID, s.now(), s.policy, notes, location)
	if err != nil {
		return nil, err
	}

	if err := s.sessionRepo.MarkCheckedIn(ctx, session.ID, session.Version, *record); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStaleVersion
		}
		return nil, err
	}

	return s.reloadAndPublish(ctx, sessionID, models.EventSessionCheckedIn)
}

func (s *SessionService) CheckOut(
	ctx context.Context,
	actor Actor,
	sessionID uuid.UUID,
	notes *string,
	actualAttendees *int,
) (*CheckOutResult, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, notFoundAs(err, ErrNotFound)
	}
	trainer, err := s.actingTrainer(ctx, actor)
	if err != nil {
		return nil, err
	}

	plan, err := PlanCheckOut(session, trainer.ID, trainer.HourlyRate, s.now(), notes, actualAttendees)
	if err != nil {
		return nil, err
	}

	err = s.sessionRepo.MarkCheckedOut(ctx, session.ID, session.Version, repository.CheckOutInput{
		Time:            plan.Record.Time,
		Notes:           plan.Record.Notes,
		ActualAttendees: plan.Record.ActualAttendees,
		ActualDuration:  plan.ActualDuration,
		PaymentAmount:   plan.Payment.Amount,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStaleVersion
		}
		return nil, err
	}

	updated, err := s.reloadAndPublish(ctx, sessionID, models.EventSessionCheckedOut)
	if err != nil {
		return nil, err
	}
	return &CheckOutResult{Session: updated, Summary: SummarizeCheckOut(updated)}, nil
}

// MarkPaid settles the payment of a completed session. Settling twice is a no-op.
func (s *SessionService) MarkPaid(ctx context.Context, actor Actor, sessionID uuid.UUID) (*models.Session, error) {
	if !models.IsScheduler(actor.Role) {
		return nil, ErrForbidden
	}

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, notFoundAs(err, ErrNotFound)
	}
	if session.Status != models.SessionStatusCompleted || session.Payment == nil {
		return nil, &InvalidStateError{Action: "mark paid", Status: session.Status}
	}
	if session.Payment.IsPaid {
		return session, nil
	}

	if err := s.sessionRepo.MarkPaid(ctx, session.ID, s.now().UTC()); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStaleVersion
		}
		return nil, err
	}

	return s.reloadAndPublish(ctx, sessionID, models.EventSessionPaid)
}

func (s *SessionService) GetSession(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, notFoundAs(err, ErrNotFound)
	}
	return session, nil
}

func (s *SessionService) ListSessions(ctx context.Context, input ListSessionsInput) ([]models.Session, int, error) {
	if err := validateListDates(input.Date, input.DateFrom, input.DateTo); err != nil {
		return nil, 0, err
	}
	if err := validateStatusFilter(input.Status); err != nil {
		return nil, 0, err
	}

	offset := 0
	if input.Page > 1 && input.Limit > 0 {
		offset = (input.Page - 1) * input.Limit
	}
	return s.sessionRepo.List(ctx, repository.SessionListFilter{
		TrainerID: input.TrainerID,
		Date:      input.Date,
		DateFrom:  input.DateFrom,
		DateTo:    input.DateTo,
		Status:    input.Status,
		SortBy:    input.SortBy,
		Order:     input.Order,
		Limit:     input.Limit,
		Offset:    offset,
	})
}

// ListForRange returns the acting trainer's sessions ordered by date and start time.
func (s *SessionService) ListForRange(
	ctx context.Context,
	actor Actor,
	from string,
	to string,
	status string,
) ([]models.Session, error) {
	trainer, err := s.ownTrainer(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := validateListDates("", from, to); err != nil {
		return nil, err
	}
	if err := validateStatusFilter(status); err != nil {
		return nil, err
	}

	sessions, _, err := s.sessionRepo.List(ctx, repository.SessionListFilter{
		TrainerID: &trainer.ID,
		DateFrom:  from,
		DateTo:    to,
		Status:    status,
	})
	return sessions, err
}

func (s *SessionService) ListToday(ctx context.Context, actor Actor) (*TodaySchedule, error) {
	trainer, err := s.ownTrainer(ctx, actor)
	if err != nil {
		return nil, err
	}

	today := s.policy.Today(s.now())
	sessions, _, err := s.sessionRepo.List(ctx, repository.SessionListFilter{
		TrainerID: &trainer.ID,
		Date:      today,
		SortBy:    "start_time",
	})
	if err != nil {
		return nil, err
	}
	return &TodaySchedule{Date: today, Sessions: sessions, Summary: SummarizeDay(sessions)}, nil
}

func (s *SessionService) ComputeStats(ctx context.Context, actor Actor, period string) (*models.TrainerStats, error) {
	trainer, err := s.ownTrainer(ctx, actor)
	if err != nil {
		return nil, err
	}

	period = strings.ToLower(strings.TrimSpace(period))
	if period == "" {
		period = PeriodWeek
	}
	from, to, err := StatsRange(period, s.now(), s.policy.location())
	if err != nil {
		return nil, err
	}

	sessions, _, err := s.sessionRepo.List(ctx, repository.SessionListFilter{
		TrainerID: &trainer.ID,
		DateFrom:  from,
		DateTo:    to,
		Status:    models.SessionStatusCompleted,
	})
	if err != nil {
		return nil, err
	}

	stats := AggregateStats(period, from, to, sessions)
	return &stats, nil
}

// Weekly groups the sessions of the Monday-to-Sunday week containing anyDay.
func (s *SessionService) Weekly(ctx context.Context, trainerID *int64, anyDay string) (*models.WeeklySchedule, error) {
	if strings.TrimSpace(anyDay) == "" {
		anyDay = s.policy.Today(s.now())
	}
	day, err := ParseSessionDate(anyDay)
	if err != nil {
		return nil, err
	}
	start, end := WeekBounds(day)

	sessions, _, err := s.sessionRepo.List(ctx, repository.SessionListFilter{
		TrainerID: trainerID,
		DateFrom:  start.Format(DateLayout),
		DateTo:    end.Format(DateLayout),
	})
	if err != nil {
		return nil, err
	}

	return &models.WeeklySchedule{
		WeekStart:      start.Format(DateLayout),
		WeekEnd:        end.Format(DateLayout),
		SessionsByDate: GroupByDate(sessions),
	}, nil
}

// CancelMissedSessions cancels sessions whose day has passed without a check-in.
func (s *SessionService) CancelMissedSessions(ctx context.Context) (int, error) {
	today := s.policy.Today(s.now())
	ids, err := s.sessionRepo.CancelScheduledBefore(ctx, today, missedCancelReason)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		if _, err := s.reloadAndPublish(ctx, id, models.EventSessionCancelled); err != nil {
			return len(ids), err
		}
	}
	return len(ids), nil
}

func (s *SessionService) actingTrainer(ctx context.Context, actor Actor) (*models.Trainer, error) {
	if actor.Role != models.RoleTrainer {
		return nil, ErrForbidden
	}
	trainer, err := s.trainerRepo.GetByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, notFoundAs(err, ErrForbidden)
	}
	return trainer, nil
}

func (s *SessionService) ownTrainer(ctx context.Context, actor Actor) (*models.Trainer, error) {
	trainer, err := s.trainerRepo.GetByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, notFoundAs(err, ErrTrainerProfileNotFound)
	}
	return trainer, nil
}

func (s *SessionService) reloadAndPublish(ctx context.Context, sessionID uuid.UUID, eventType string) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, notFoundAs(err, ErrNotFound)
	}
	if s.events != nil {
		event := models.ScheduleEvent{
			Type:      eventType,
			SessionID: session.ID,
			Code:      session.Code,
			TrainerID: session.TrainerID,
			Status:    session.Status,
			Timestamp: s.now().UTC(),
		}
		if session.Trainer != nil {
			event.TrainerUserID = session.Trainer.UserID
		}
		s.events.Publish(event)
	}
	return session, nil
}

func conflictWith(existing *models.Session) error {
	return fmt.Errorf(
		"%w: overlaps session %s (%s-%s)",
		ErrConflict,
		existing.Code,
		existing.StartTime,
		existing.EndTime,
	)
}

func validateListDates(date, from, to string) error {
	for _, value := range []string{date, from, to} {
		if strings.TrimSpace(value) == "" {
			continue
		}
		if _, err := ParseSessionDate(value); err != nil {
			return err
		}
	}
	if from != "" && to != "" && from > to {
		return invalidInput("start date %s is after end date %s", from, to)
	}
	return nil
}

func validateStatusFilter(status string) error {
	switch strings.TrimSpace(status) {
	case "", models.SessionStatusScheduled, models.SessionStatusInProgress,
		models.SessionStatusCompleted, models.SessionStatusCancelled:
		return nil
	default:
		return invalidInput("unknown status %q", status)
	}
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/GymScheduleBack/internal/models"
	"github.com/shopspring/decimal"
)

const sessionColumns = `
	s.id, s.code, s.trainer_id, t.code, u.id, u.full_name, u.email,
	s.title, s.subject, s.session_date::text, s.start_time, s.end_time, s.location,
	s.capacity, s.attendees, s.description, s.notes, s.status,
	s.check_in_time, s.check_in_notes, s.check_in_location, s.check_in_on_time,
	s.check_out_time, s.check_out_notes, s.check_out_attendees,
	s.planned_duration, s.actual_duration, s.payment_amount, s.payment_is_paid, s.paid_at,
	s.cancel_reason, s.created_by, s.version, s.created_at, s.updated_at
`

const sessionFrom = `
	FROM sessions s
	JOIN trainers t ON t.id = s.trainer_id
	JOIN users u ON u.id = t.user_id
`

var sessionSortColumns = map[string]string{
	"date":       "s.session_date",
	"start_time": "s.start_time",
	"created_at": "s.created_at",
	"code":       "s.code",
}

type CreateSessionInput struct {
	ID              uuid.UUID
	Code            string
	TrainerID       int64
	Title           string
	Subject         *string
	Date            string
	StartTime       string
	EndTime         string
	Location        *string
	Capacity        int
	Attendees       []models.Attendee
	Description     *string
	Notes           *string
	PlannedDuration int
	CreatedBy       *int64
}

type SessionListFilter struct {
	TrainerID *int64
	Date      string
	DateFrom  string
	DateTo    string
	Status    string
	SortBy    string
	Order     string
	Limit     int
	Offset    int
}

type CheckOutInput struct {
	Time            time.Time
	Notes           *string
	ActualAttendees int
	ActualDuration  int
	PaymentAmount   decimal.Decimal
}

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, input CreateSessionInput) error {
	attendees, err := encodeAttendees(input.Attendees)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sessions (
			id, code, trainer_id, title, subject, session_date, start_time, end_time,
			location, capacity, attendees, description, notes, status, planned_duration, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6::text::date, $7, $8, $9, $10, $11, $12, $13, 'scheduled', $14, $15)
	`
	_, err = r.db.Exec(
		ctx,
		query,
		input.ID,
		input.Code,
		input.TrainerID,
		input.Title,
		input.Subject,
		input.Date,
		input.StartTime,
		input.EndTime,
		input.Location,
		input.Capacity,
		attendees,
		input.Description,
		input.Notes,
		input.PlannedDuration,
		input.CreatedBy,
	)
	return err
}

func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + sessionFrom + `WHERE s.id = $1`
	return scanSession(r.db.QueryRow(ctx, query, id))
}

func (r *SessionRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + sessionFrom + `WHERE s.id = $1 FOR UPDATE OF s`
	return scanSession(r.db.QueryRow(ctx, query, id))
}

// ListActiveByTrainerAndDate returns the sessions that still occupy the
// trainer's time on date.
func (r *SessionRepository) ListActiveByTrainerAndDate(
	ctx context.Context,
	trainerID int64,
	date string,
) ([]models.Session, error) {
	query := `SELECT ` + sessionColumns + sessionFrom + `
		WHERE s.trainer_id = $1
		  AND s.session_date = $2::text::date
		  AND s.status IN ('scheduled', 'in_progress')
		ORDER BY s.start_time ASC
	`
	return r.query(ctx, query, trainerID, date)
}

func (r *SessionRepository) ListActiveSessionsOnDate(ctx context.Context, date string) ([]models.Session, error) {
	query := `SELECT ` + sessionColumns + sessionFrom + `
		WHERE s.session_date = $1::text::date
		  AND s.status IN ('scheduled', 'in_progress')
		ORDER BY s.trainer_id ASC, s.start_time ASC
	`
	return r.query(ctx, query, date)
}

// List returns one page of sessions matching filter plus the total match count.
// A zero Limit returns every match.
func (r *SessionRepository) List(ctx context.Context, filter SessionListFilter) ([]models.Session, int, error) {
	args := []any{}
	whereParts := []string{"TRUE"}

	if filter.TrainerID != nil {
		args = append(args, *filter.TrainerID)
		whereParts = append(whereParts, fmt.Sprintf("s.trainer_id = $%d", len(args)))
	}
	if date := strings.TrimSpace(filter.Date); date != "" {
		args = append(args, date)
		whereParts = append(whereParts, fmt.Sprintf("s.session_date = $%d::text::date", len(args)))
	}
	if from := strings.TrimSpace(filter.DateFrom); from != "" {
		args = append(args, from)
		whereParts = append(whereParts, fmt.Sprintf("s.session_date >= $%d::text::date", len(args)))
	}
	if to := strings.TrimSpace(filter.DateTo); to != "" {
		args = append(args, to)
		whereParts = append(whereParts, fmt.Sprintf("s.session_date <= $%d::text::date", len(args)))
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("s.status = $%d", len(args)))
	}
	whereClause := strings.Join(whereParts, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM sessions s WHERE ` + whereClause
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + sessionColumns + sessionFrom + `WHERE ` + whereClause + ` ORDER BY ` + sessionOrder(filter)
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	sessions, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

// UpdateDetails writes the editable fields of a scheduled session when its
// version still matches. It returns pgx.ErrNoRows when the row moved on.
func (r *SessionRepository) UpdateDetails(ctx context.Context, session *models.Session, expectedVersion int) error {
	query := `
		UPDATE sessions
		SET title = $3,
			subject = $4,
			session_date = $5::text::date,
			start_time = $6,
			end_time = $7,
			location = $8,
			capacity = $9,
			description = $10,
			notes = $11,
			planned_duration = $12,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1 AND version = $2 AND status = 'scheduled'
	`
	tag, err := r.db.Exec(
		ctx,
		query,
		session.ID,
		expectedVersion,
		session.Title,
		session.Subject,
		session.Date,
		session.StartTime,
		session.EndTime,
		session.Location,
		session.Capacity,
		session.Description,
		session.Notes,
		session.PlannedDuration,
	)
	return affectedOne(tag.RowsAffected(), err)
}

func (r *SessionRepository) MarkCheckedIn(
	ctx context.Context,
	id uuid.UUID,
	expectedVersion int,
	record models.CheckInRecord,
) error {
	query := `
		UPDATE sessions
		SET status = 'in_progress',
			check_in_time = $3,
			check_in_notes = $4,
			check_in_location = $5,
			check_in_on_time = $6,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1 AND version = $2 AND status = 'scheduled'
	`
	tag, err := r.db.Exec(ctx, query, id, expectedVersion, record.Time, record.Notes, record.Location, record.IsOnTime)
	return affectedOne(tag.RowsAffected(), err)
}

func (r *SessionRepository) MarkCheckedOut(
	ctx context.Context,
	id uuid.UUID,
	expectedVersion int,
	input CheckOutInput,
) error {
	query := `
		UPDATE sessions
		SET status = 'completed',
			check_out_time = $3,
			check_out_notes = $4,
			check_out_attendees = $5,
			actual_duration = $6,
			payment_amount = $7,
			payment_is_paid = FALSE,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1 AND version = $2 AND status = 'in_progress'
	`
	tag, err := r.db.Exec(
		ctx,
		query,
		id,
		expectedVersion,
		input.Time,
		input.Notes,
		input.ActualAttendees,
		input.ActualDuration,
		input.PaymentAmount,
	)
	return affectedOne(tag.RowsAffected(), err)
}

func (r *SessionRepository) Cancel(ctx context.Context, id uuid.UUID, expectedVersion int, reason *string) error {
	query := `
		UPDATE sessions
		SET status = 'cancelled',
			cancel_reason = $3,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1 AND version = $2 AND status IN ('scheduled', 'in_progress')
	`
	tag, err := r.db.Exec(ctx, query, id, expectedVersion, reason)
	return affectedOne(tag.RowsAffected(), err)
}

func (r *SessionRepository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error {
	query := `
		UPDATE sessions
		SET payment_is_paid = TRUE,
			paid_at = $2,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1 AND status = 'completed' AND payment_is_paid = FALSE
	`
	tag, err := r.db.Exec(ctx, query, id, paidAt)
	return affectedOne(tag.RowsAffected(), err)
}

// CancelScheduledBefore cancels every session still waiting for a check-in
// whose day is earlier than day, returning the affected ids.
func (r *SessionRepository) CancelScheduledBefore(ctx context.Context, day string, reason string) ([]uuid.UUID, error) {
	query := `
		UPDATE sessions
		SET status = 'cancelled',
			cancel_reason = $2,
			version = version + 1,
			updated_at = NOW()
		WHERE status = 'scheduled' AND session_date < $1::text::date
		RETURNING id
	`
	rows, err := r.db.Query(ctx, query, day, reason)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *SessionRepository) query(ctx context.Context, query string, args ...any) ([]models.Session, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func sessionOrder(filter SessionListFilter) string {
	direction := "ASC"
	if strings.EqualFold(strings.TrimSpace(filter.Order), "desc") {
		direction = "DESC"
	}
	column, ok := sessionSortColumns[strings.TrimSpace(filter.SortBy)]
	if !ok {
		return fmt.Sprintf("s.session_date %s, s.start_time %s, s.code ASC", direction, direction)
	}
	return fmt.Sprintf("%s %s, s.start_time ASC, s.code ASC", column, direction)
}

func affectedOne(rowsAffected int64, err error) error {
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func encodeAttendees(attendees []models.Attendee) ([]byte, error) {
	if attendees == nil {
		attendees = []models.Attendee{}
	}
	return json.Marshal(attendees)
}

func scanSession(row pgx.Row) (*models.Session, error) {
	var (
		session           models.Session
		trainer           models.TrainerRef
		attendees         []byte
		checkInTime       *time.Time
		checkInNotes      *string
		checkInLocation   *string
		checkInOnTime     *bool
		checkOutTime      *time.Time
		checkOutNotes     *string
		checkOutAttendees *int
		paymentAmount     decimal.NullDecimal
		paymentIsPaid     bool
		paidAt            *time.Time
	)

	err := row.Scan(
		&session.ID,
		&session.Code,
		&session.TrainerID,
		&trainer.Code,
		&trainer.UserID,
		&trainer.FullName,
		&trainer.Email,
		&session.Title,
		&session.Subject,
		&session.Date,
		&session.StartTime,
		&session.EndTime,
		&session.Location,
		&session.Capacity,
		&attendees,
		&session.Description,
		&session.Notes,
		&session.Status,
		&checkInTime,
		&checkInNotes,
		&checkInLocation,
		&checkInOnTime,
		&checkOutTime,
		&checkOutNotes,
		&checkOutAttendees,
		&session.PlannedDuration,
		&session.ActualDuration,
		&paymentAmount,
		&paymentIsPaid,
		&paidAt,
		&session.CancelReason,
		&session.CreatedBy,
		&session.Version,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	trainer.ID = session.TrainerID
	session.Trainer = &trainer

	session.Attendees = []models.Attendee{}
	if len(attendees) > 0 {
		if err := json.Unmarshal(attendees, &session.Attendees); err != nil {
			return nil, fmt.Errorf("decode attendees of session %s: %w", session.ID, err)
		}
	}

	if checkInTime != nil {
		session.CheckIn = &models.CheckInRecord{
			Time:     *checkInTime,
			Notes:    checkInNotes,
			Location: checkInLocation,
			IsOnTime: checkInOnTime != nil && *checkInOnTime,
		}
	}
	if checkOutTime != nil {
		session.CheckOut = &models.CheckOutRecord{
			Time:  *checkOutTime,
			Notes: checkOutNotes,
		}
		if checkOutAttendees != nil {
			session.CheckOut.ActualAttendees = *checkOutAttendees
		}
	}
	if paymentAmount.Valid {
		session.Payment = &models.SessionPayment{
			Amount: paymentAmount.Decimal,
			IsPaid: paymentIsPaid,
			PaidAt: paidAt,
		}
	}
	return &session, nil
}

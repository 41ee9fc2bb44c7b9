package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	SessionStatusScheduled  = "scheduled"
	SessionStatusInProgress = "in_progress"
	SessionStatusCompleted  = "completed"
	SessionStatusCancelled  = "cancelled"
)

// Attendee is an enrolled participant of a session.
type Attendee struct {
	Name  string  `json:"name"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

type CheckInRecord struct {
	Time     time.Time `json:"time"`
	Notes    *string   `json:"notes"`
	Location *string   `json:"location"`
	IsOnTime bool      `json:"is_on_time"`
}

type CheckOutRecord struct {
	Time            time.Time `json:"time"`
	Notes           *string   `json:"notes"`
	ActualAttendees int       `json:"actual_attendees"`
}

type SessionPayment struct {
	Amount decimal.Decimal `json:"amount"`
	IsPaid bool            `json:"is_paid"`
	PaidAt *time.Time      `json:"paid_at,omitempty"`
}

// Session is a single teaching slot owned by one trainer. Date is a
// calendar day (YYYY-MM-DD) and StartTime/EndTime are venue wall-clock
// times (HH:MM).
type Session struct {
	ID              uuid.UUID       `json:"id"`
	Code            string          `json:"code"`
	TrainerID       int64           `json:"trainer_id"`
	Trainer         *TrainerRef     `json:"trainer,omitempty"`
	Title           string          `json:"title"`
	Subject         *string         `json:"subject"`
	Date            string          `json:"date"`
	StartTime       string          `json:"start_time"`
	EndTime         string          `json:"end_time"`
	Location        *string         `json:"location"`
	Capacity        int             `json:"capacity"`
	Attendees       []Attendee      `json:"attendees"`
	Description     *string         `json:"description"`
	Notes           *string         `json:"notes"`
	Status          string          `json:"status"`
	CheckIn         *CheckInRecord  `json:"check_in,omitempty"`
	CheckOut        *CheckOutRecord `json:"check_out,omitempty"`
	PlannedDuration int             `json:"planned_duration"`
	ActualDuration  *int            `json:"actual_duration,omitempty"`
	Payment         *SessionPayment `json:"payment,omitempty"`
	CancelReason    *string         `json:"cancel_reason,omitempty"`
	CreatedBy       *int64          `json:"created_by,omitempty"`
	Version         int             `json:"version"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// IsActive reports whether the session still occupies its trainer's time window.
func (s *Session) IsActive() bool {
	return s.Status == SessionStatusScheduled || s.Status == SessionStatusInProgress
}

type CheckOutSummary struct {
	DurationMinutes int             `json:"duration_minutes"`
	DurationHours   float64         `json:"duration_hours"`
	Payment         decimal.Decimal `json:"payment"`
	IsOnTime        bool            `json:"is_on_time"`
}

type DaySummary struct {
	Total             int             `json:"total"`
	Completed         int             `json:"completed"`
	InProgress        int             `json:"in_progress"`
	Scheduled         int             `json:"scheduled"`
	Cancelled         int             `json:"cancelled"`
	TotalPlannedHours float64         `json:"total_planned_hours"`
	TotalActualHours  float64         `json:"total_actual_hours"`
	Earnings          decimal.Decimal `json:"earnings"`
}

type TrainerStats struct {
	Period                    string          `json:"period"`
	From                      string          `json:"from"`
	To                        string          `json:"to"`
	TotalSessions             int             `json:"total_sessions"`
	TotalHours                float64         `json:"total_hours"`
	TotalEarnings             decimal.Decimal `json:"total_earnings"`
	TotalAttendees            int             `json:"total_attendees"`
	AverageSessionDuration    float64         `json:"average_session_duration"`
	AverageEarningsPerSession decimal.Decimal `json:"average_earnings_per_session"`
}

type WeeklySchedule struct {
	WeekStart      string               `json:"week_start"`
	WeekEnd        string               `json:"week_end"`
	SessionsByDate map[string][]Session `json:"sessions_by_date"`
}

const (
	EventSessionCreated    = "session.created"
	EventSessionUpdated    = "session.updated"
	EventSessionCancelled  = "session.cancelled"
	EventSessionCheckedIn  = "session.checked_in"
	EventSessionCheckedOut = "session.checked_out"
	EventSessionPaid       = "session.paid"
)

// ScheduleEvent is pushed to live dashboards after a session changes.
type ScheduleEvent struct {
	Type          string    `json:"type"`
	SessionID     uuid.UUID `json:"session_id"`
	Code          string    `json:"code"`
	TrainerID     int64     `json:"trainer_id"`
	TrainerUserID int64     `json:"-"`
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
}

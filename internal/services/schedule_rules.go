package services

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/saeid-a/GymScheduleBack/internal/models"
	"github.com/shopspring/decimal"
)

const (
	DateLayout       = "2006-01-02"
	sessionCodeDay   = "20060102"
	minutesPerHour   = 60
	defaultCheckIn   = 30 * time.Minute
	defaultTolerance = 10 * time.Minute
)

const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

var timeOfDayPattern = regexp.MustCompile(`^[0-2][0-9]:[0-5][0-9]$`)

// SchedulePolicy holds the venue-specific knobs of the session lifecycle.
type SchedulePolicy struct {
	Location        *time.Location
	CheckInWindow   time.Duration
	OnTimeTolerance time.Duration
}

func DefaultSchedulePolicy() SchedulePolicy {
	return SchedulePolicy{
		Location:        time.UTC,
		CheckInWindow:   defaultCheckIn,
		OnTimeTolerance: defaultTolerance,
	}
}

func (p SchedulePolicy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// Today returns the venue's calendar day for now.
func (p SchedulePolicy) Today(now time.Time) string {
	return now.In(p.location()).Format(DateLayout)
}

// ParseTimeOfDay converts a zero-padded "HH:MM" value to minutes after midnight.
func ParseTimeOfDay(value string) (int, error) {
	if !timeOfDayPattern.MatchString(value) {
		return 0, invalidInput("time %q must use HH:MM", value)
	}
	hours, _ := strconv.Atoi(value[:2])
	minutes, _ := strconv.Atoi(value[3:])
	if hours > 23 {
		return 0, invalidInput("time %q is out of range", value)
	}
	return hours*minutesPerHour + minutes, nil
}

func ParseSessionDate(value string) (time.Time, error) {
	day, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, invalidInput("date %q must use YYYY-MM-DD", value)
	}
	return day, nil
}

// ValidateWindow checks both bounds and rejects empty or cross-midnight windows.
func ValidateWindow(start, end string) error {
	startMinutes, err := ParseTimeOfDay(start)
	if err != nil {
		return err
	}
	endMinutes, err := ParseTimeOfDay(end)
	if err != nil {
		return err
	}
	if startMinutes >= endMinutes {
		return invalidInput("start time %s must be before end time %s", start, end)
	}
	return nil
}

// WindowsOverlap compares half-open [start, end) windows. Zero-padded
// HH:MM strings order the same way as the times they encode.
func WindowsOverlap(aStart, aEnd, bStart, bEnd string) bool {
	return aStart < bEnd && aEnd > bStart
}

func PlannedDurationMinutes(start, end string) int {
	startMinutes, err := ParseTimeOfDay(start)
	if err != nil {
		return 0
	}
	endMinutes, err := ParseTimeOfDay(end)
	if err != nil || endMinutes < startMinutes {
		return 0
	}
	return endMinutes - startMinutes
}

// FindConflict returns the first active session on date whose window
// overlaps [start, end), ignoring the session identified by exclude.
func FindConflict(existing []models.Session, date, start, end string, exclude uuid.UUID) *models.Session {
	for i := range existing {
		candidate := &existing[i]
		if candidate.ID == exclude || candidate.Date != date || !candidate.IsActive() {
			continue
		}
		if WindowsOverlap(candidate.StartTime, candidate.EndTime, start, end) {
			return candidate
		}
	}
	return nil
}

// ScheduledStart resolves the session's date and start time in the venue timezone.
func ScheduledStart(session *models.Session, loc *time.Location) (time.Time, error) {
	day, err := ParseSessionDate(session.Date)
	if err != nil {
		return time.Time{}, err
	}
	minutes, err := ParseTimeOfDay(session.StartTime)
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(day.Year(), day.Month(), day.Day(), minutes/minutesPerHour, minutes%minutesPerHour, 0, 0, loc), nil
}

func validateAttendees(capacity int, attendees []models.Attendee) error {
	if capacity < 1 {
		return invalidInput("capacity must be at least 1")
	}
	if len(attendees) > capacity {
		return invalidInput("%d attendees exceed capacity %d", len(attendees), capacity)
	}
	for _, attendee := range attendees {
		if strings.TrimSpace(attendee.Name) == "" {
			return invalidInput("attendee name is required")
		}
	}
	return nil
}

// PlanCheckIn validates a check-in by trainerID at now and returns the record to store.
func PlanCheckIn(
	session *models.Session,
	trainerID int64,
	now time.Time,
	policy SchedulePolicy,
	notes *string,
	location *string,
) (*models.CheckInRecord, error) {
	if session.TrainerID != trainerID {
		return nil, ErrForbidden
	}
	if session.Status != models.SessionStatusScheduled {
		return nil, &InvalidStateError{Action: "check in", Status: session.Status}
	}

	start, err := ScheduledStart(session, policy.location())
	if err != nil {
		return nil, err
	}
	if start.Sub(now) > policy.CheckInWindow {
		return nil, ErrTooEarly
	}

	return &models.CheckInRecord{
		Time:     now,
		Notes:    notes,
		Location: location,
		IsOnTime: !now.After(start.Add(policy.OnTimeTolerance)),
	}, nil
}

type CheckOutPlan struct {
	Record         models.CheckOutRecord
	ActualDuration int
	Payment        models.SessionPayment
}

// PlanCheckOut validates a check-out and derives duration and payment.
func PlanCheckOut(
	session *models.Session,
	trainerID int64,
	hourlyRate decimal.Decimal,
	now time.Time,
	notes *string,
	actualAttendees *int,
) (*CheckOutPlan, error) {
	if session.TrainerID != trainerID {
		return nil, ErrForbidden
	}
	if session.Status != models.SessionStatusInProgress || session.CheckIn == nil {
		return nil, &InvalidStateError{Action: "check out", Status: session.Status}
	}

	attendees := len(session.Attendees)
	if actualAttendees != nil {
		if *actualAttendees < 0 {
			return nil, invalidInput("actual attendee count must not be negative")
		}
		attendees = *actualAttendees
	}

	duration := ActualDurationMinutes(session.CheckIn.Time, now)
	return &CheckOutPlan{
		Record: models.CheckOutRecord{
			Time:            now,
			Notes:           notes,
			ActualAttendees: attendees,
		},
		ActualDuration: duration,
		Payment: models.SessionPayment{
			Amount: SessionPaymentAmount(hourlyRate, duration),
			IsPaid: false,
		},
	}, nil
}

// ActualDurationMinutes rounds the elapsed time to the nearest minute.
func ActualDurationMinutes(checkIn, checkOut time.Time) int {
	elapsed := checkOut.Sub(checkIn)
	if elapsed <= 0 {
		return 0
	}
	return int(math.Round(elapsed.Minutes()))
}

func SessionPaymentAmount(hourlyRate decimal.Decimal, minutes int) decimal.Decimal {
	return hourlyRate.
		Mul(decimal.NewFromInt(int64(minutes))).
		Div(decimal.NewFromInt(minutesPerHour)).
		Round(2)
}

func SummarizeCheckOut(session *models.Session) models.CheckOutSummary {
	summary := models.CheckOutSummary{Payment: decimal.Zero}
	if session.ActualDuration != nil {
		summary.DurationMinutes = *session.ActualDuration
		summary.DurationHours = round2(float64(*session.ActualDuration) / minutesPerHour)
	}
	if session.Payment != nil {
		summary.Payment = session.Payment.Amount
	}
	if session.CheckIn != nil {
		summary.IsOnTime = session.CheckIn.IsOnTime
	}
	return summary
}

// PlanCancel reports whether cancelling is a no-op for the session's status.
func PlanCancel(session *models.Session) (bool, error) {
	switch session.Status {
	case models.SessionStatusScheduled, models.SessionStatusInProgress:
		return false, nil
	case models.SessionStatusCancelled:
		return true, nil
	default:
		return false, &InvalidStateError{Action: "cancel", Status: session.Status}
	}
}

// SessionChanges lists the fields an administrator may edit on a scheduled session.
type SessionChanges struct {
	Title       *string
	Subject     *string
	Date        *string
	StartTime   *string
	EndTime     *string
	Location    *string
	Capacity    *int
	Description *string
	Notes       *string
}

func (c SessionChanges) IsEmpty() bool {
	return c.Title == nil && c.Subject == nil && c.Date == nil && c.StartTime == nil &&
		c.EndTime == nil && c.Location == nil && c.Capacity == nil && c.Description == nil &&
		c.Notes == nil
}

// ApplySessionChanges validates changes and applies them to session. It
// reports whether the date or time window moved.
func ApplySessionChanges(session *models.Session, changes SessionChanges) (bool, error) {
	if session.Status != models.SessionStatusScheduled {
		return false, ErrImmutableState
	}

	next := *session
	if changes.Title != nil {
		title := strings.TrimSpace(*changes.Title)
		if title == "" {
			return false, invalidInput("title must not be empty")
		}
		next.Title = title
	}
	if changes.Subject != nil {
		next.Subject = changes.Subject
	}
	if changes.Date != nil {
		day, err := ParseSessionDate(*changes.Date)
		if err != nil {
			return false, err
		}
		next.Date = day.Format(DateLayout)
	}
	if changes.StartTime != nil {
		next.StartTime = *changes.StartTime
	}
	if changes.EndTime != nil {
		next.EndTime = *changes.EndTime
	}
	if changes.Location != nil {
		next.Location = changes.Location
	}
	if changes.Capacity != nil {
		next.Capacity = *changes.Capacity
	}
	if changes.Description != nil {
		next.Description = changes.Description
	}
	if changes.Notes != nil {
		next.Notes = changes.Notes
	}

	if err := ValidateWindow(next.StartTime, next.EndTime); err != nil {
		return false, err
	}
	if err := validateAttendees(next.Capacity, next.Attendees); err != nil {
		return false, err
	}

	moved := next.Date != session.Date || next.StartTime != session.StartTime || next.EndTime != session.EndTime
	next.PlannedDuration = PlannedDurationMinutes(next.StartTime, next.EndTime)
	*session = next
	return moved, nil
}

// StatsRange returns the inclusive [from, to] day range covered by period.
func StatsRange(period string, now time.Time, loc *time.Location) (string, string, error) {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)

	var from time.Time
	switch period {
	case PeriodDay:
		from = local
	case PeriodWeek:
		from = local.AddDate(0, 0, -7)
	case PeriodMonth:
		from = local.AddDate(0, -1, 0)
	case PeriodYear:
		from = local.AddDate(-1, 0, 0)
	default:
		return "", "", invalidInput("period must be one of day, week, month, year")
	}
	return from.Format(DateLayout), local.Format(DateLayout), nil
}

// AggregateStats summarises the completed sessions among sessions.
func AggregateStats(period, from, to string, sessions []models.Session) models.TrainerStats {
	stats := models.TrainerStats{
		Period:                    period,
		From:                      from,
		To:                        to,
		TotalEarnings:             decimal.Zero,
		AverageEarningsPerSession: decimal.Zero,
	}

	totalMinutes := 0
	for _, session := range sessions {
		if session.Status != models.SessionStatusCompleted {
			continue
		}
		stats.TotalSessions++
		if session.ActualDuration != nil {
			totalMinutes += *session.ActualDuration
		}
		if session.Payment != nil {
			stats.TotalEarnings = stats.TotalEarnings.Add(session.Payment.Amount)
		}
		if session.CheckOut != nil {
			stats.TotalAttendees += session.CheckOut.ActualAttendees
		}
	}

	stats.TotalHours = round2(float64(totalMinutes) / minutesPerHour)
	if stats.TotalSessions > 0 {
		count := stats.TotalSessions
		stats.AverageSessionDuration = round2(float64(totalMinutes) / float64(count))
		stats.AverageEarningsPerSession = stats.TotalEarnings.Div(decimal.NewFromInt(int64(count))).Round(2)
	}
	return stats
}

func SummarizeDay(sessions []models.Session) models.DaySummary {
	summary := models.DaySummary{Total: len(sessions), Earnings: decimal.Zero}
	planned, actual := 0, 0
	for _, session := range sessions {
		switch session.Status {
		case models.SessionStatusScheduled:
			summary.Scheduled++
		case models.SessionStatusInProgress:
			summary.InProgress++
		case models.SessionStatusCompleted:
			summary.Completed++
		case models.SessionStatusCancelled:
			summary.Cancelled++
		}
		planned += session.PlannedDuration
		if session.ActualDuration != nil {
			actual += *session.ActualDuration
		}
		if session.Payment != nil {
			summary.Earnings = summary.Earnings.Add(session.Payment.Amount)
		}
	}
	summary.TotalPlannedHours = round2(float64(planned) / minutesPerHour)
	summary.TotalActualHours = round2(float64(actual) / minutesPerHour)
	return summary
}

// WeekBounds returns the Monday starting the ISO week of day and the Sunday ending it.
func WeekBounds(day time.Time) (time.Time, time.Time) {
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 6)
}

// GroupByDate buckets sessions by day, ordering each bucket by start time.
func GroupByDate(sessions []models.Session) map[string][]models.Session {
	grouped := make(map[string][]models.Session)
	for _, session := range sessions {
		grouped[session.Date] = append(grouped[session.Date], session)
	}
	for day := range grouped {
		bucket := grouped[day]
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].StartTime < bucket[j].StartTime
		})
	}
	return grouped
}

func FormatSessionCode(day time.Time, sequence int) string {
	return fmt.Sprintf("SCH%s%03d", day.Format(sessionCodeDay), sequence)
}

// MaxDailySessions is the highest sequence a three-digit session code can carry.
const MaxDailySessions = 999

// SessionCodeFor formats the code of the sequence-th session created on day.
// It fails once the day's codes are used up rather than widening the code.
func SessionCodeFor(day time.Time, sequence int) (string, error) {
	if sequence > MaxDailySessions {
		return "", fmt.Errorf("%w: all %d session codes for %s are taken", ErrConflict, MaxDailySessions, day.Format(DateLayout))
	}
	return FormatSessionCode(day, sequence), nil
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/saeid-a/GymScheduleBack/internal/models"
	"github.com/shopspring/decimal"
)

type stubAvailabilitySource struct {
	trainers []models.Trainer
	sessions []models.Session
	lastDate string
}

func (s *stubAvailabilitySource) ListActiveTrainers(_ context.Context) ([]models.Trainer, error) {
	return s.trainers, nil
}

func (s *stubAvailabilitySource) ListActiveSessionsOnDate(_ context.Context, date string) ([]models.Session, error) {
	s.lastDate = date
	return s.sessions, nil
}

func TestFindAvailableTrainersSkipsBusyTrainers(t *testing.T) {
	source := &stubAvailabilitySource{
		trainers: []models.Trainer{
			buildTrainer(1, []string{"yoga"}, 150000),
			buildTrainer(2, []string{"yoga"}, 120000),
		},
		sessions: []models.Session{
			buildSession(1, "2030-05-06", "08:00", "09:30", models.SessionStatusScheduled),
		},
	}
	service := NewAvailabilityService(source)

	available, err := service.FindAvailableTrainers(context.Background(), AvailabilityQuery{
		Date:      "2030-05-06",
		StartTime: "09:00",
		EndTime:   "10:00",
	})
	if err != nil {
		t.Fatalf("FindAvailableTrainers: %v", err)
	}
	if source.lastDate != "2030-05-06" {
		t.Fatalf("expected sessions for 2030-05-06, got %q", source.lastDate)
	}
	if len(available) != 1 || available[0].ID != 2 {
		t.Fatalf("expected only trainer 2 to be free, got %+v", available)
	}
}

func TestFindAvailableTrainersAllowsBackToBackWindow(t *testing.T) {
	service := NewAvailabilityService(&stubAvailabilitySource{
		trainers: []models.Trainer{buildTrainer(1, nil, 100000)},
		sessions: []models.Session{
			buildSession(1, "2030-05-06", "08:00", "09:30", models.SessionStatusInProgress),
		},
	})

	available, err := service.FindAvailableTrainers(context.Background(), AvailabilityQuery{
		Date:      "2030-05-06",
		StartTime: "09:30",
		EndTime:   "10:30",
	})
	if err != nil {
		t.Fatalf("FindAvailableTrainers: %v", err)
	}
	if len(available) != 1 {
		t.Fatalf("expected trainer to be free right after the session ends, got %d", len(available))
	}
}

func TestFindAvailableTrainersSortsBySpecialtyThenRate(t *testing.T) {
	service := NewAvailabilityService(&stubAvailabilitySource{
		trainers: []models.Trainer{
			buildTrainer(1, []string{"Pilates"}, 90000),
			buildTrainer(2, []string{"boxing"}, 50000),
			buildTrainer(3, []string{"yoga"}, 200000),
			buildTrainer(4, []string{"mobility"}, 80000),
		},
	})

	available, err := service.FindAvailableTrainers(context.Background(), AvailabilityQuery{
		Date:      "2030-05-06",
		StartTime: "07:00",
		EndTime:   "08:00",
		Specialty: "Yoga",
		Limit:     3,
	})
	if err != nil {
		t.Fatalf("FindAvailableTrainers: %v", err)
	}
	if got := len(available); got != 3 {
		t.Fatalf("expected 3 trainers, got %d", got)
	}
	if available[0].ID != 3 || available[0].MatchScore != 100 {
		t.Fatalf("expected exact match trainer 3 first, got %d with score %d", available[0].ID, available[0].MatchScore)
	}
	if available[1].ID != 4 || available[2].ID != 1 {
		t.Fatalf("expected alias matches ordered by rate, got %d then %d", available[1].ID, available[2].ID)
	}
}

func TestFindAvailableTrainersIgnoresInactiveTrainers(t *testing.T) {
	inactive := buildTrainer(1, nil, 100000)
	inactive.Status = models.TrainerStatusOnLeave
	service := NewAvailabilityService(&stubAvailabilitySource{trainers: []models.Trainer{inactive}})

	available, err := service.FindAvailableTrainers(context.Background(), AvailabilityQuery{
		Date:      "2030-05-06",
		StartTime: "07:00",
		EndTime:   "08:00",
	})
	if err != nil {
		t.Fatalf("FindAvailableTrainers: %v", err)
	}
	if len(available) != 0 {
		t.Fatalf("expected no trainers, got %d", len(available))
	}
}

func TestFindAvailableTrainersRejectsInvalidWindow(t *testing.T) {
	service := NewAvailabilityService(&stubAvailabilitySource{})

	_, err := service.FindAvailableTrainers(context.Background(), AvailabilityQuery{
		Date:      "2030-05-06",
		StartTime: "10:00",
		EndTime:   "09:00",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func buildTrainer(id int64, specialties []string, rate int64) models.Trainer {
	return models.Trainer{
		ID:          id,
		UserID:      id + 100,
		Specialties: specialties,
		HourlyRate:  decimal.NewFromInt(rate),
		Status:      models.TrainerStatusActive,
	}
}

func buildSession(trainerID int64, date, start, end, status string) models.Session {
	return models.Session{
		ID:              uuid.New(),
		TrainerID:       trainerID,
		Date:            date,
		StartTime:       start,
		EndTime:         end,
		Status:          status,
		Capacity:        10,
		Attendees:       []models.Attendee{},
		PlannedDuration: PlannedDurationMinutes(start, end),
	}
}

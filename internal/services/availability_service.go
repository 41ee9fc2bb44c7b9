package services

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/saeid-a/GymScheduleBack/internal/models"
	"github.com/saeid-a/GymScheduleBack/internal/repository"
)

type TrainerAvailabilitySource interface {
	ListActiveTrainers(ctx context.Context) ([]models.Trainer, error)
	ListActiveSessionsOnDate(ctx context.Context, date string) ([]models.Session, error)
}

// RepositoryAvailabilitySource reads availability from the trainer and session tables.
type RepositoryAvailabilitySource struct {
	*repository.TrainerRepository
	*repository.SessionRepository
}

type AvailabilityService struct {
	source TrainerAvailabilitySource
}

func NewAvailabilityService(source TrainerAvailabilitySource) *AvailabilityService {
	return &AvailabilityService{source: source}
}

type AvailabilityQuery struct {
	Date      string
	StartTime string
	EndTime   string
	Specialty string
	Limit     int
}

type AvailableTrainer struct {
	models.Trainer
	MatchScore int `json:"match_score"`
}

// FindAvailableTrainers lists active trainers free for the requested window,
// best specialty match first and cheapest first among equal matches.
func (s *AvailabilityService) FindAvailableTrainers(
	ctx context.Context,
	query AvailabilityQuery,
) ([]AvailableTrainer, error) {
	day, err := ParseSessionDate(query.Date)
	if err != nil {
		return nil, err
	}
	if err := ValidateWindow(query.StartTime, query.EndTime); err != nil {
		return nil, err
	}
	date := day.Format(DateLayout)

	trainers, err := s.source.ListActiveTrainers(ctx)
	if err != nil {
		return nil, err
	}
	sessions, err := s.source.ListActiveSessionsOnDate(ctx, date)
	if err != nil {
		return nil, err
	}

	byTrainer := make(map[int64][]models.Session)
	for _, session := range sessions {
		byTrainer[session.TrainerID] = append(byTrainer[session.TrainerID], session)
	}

	available := make([]AvailableTrainer, 0, len(trainers))
	for _, trainer := range trainers {
		if trainer.Status != models.TrainerStatusActive {
			continue
		}
		if FindConflict(byTrainer[trainer.ID], date, query.StartTime, query.EndTime, uuid.Nil) != nil {
			continue
		}
		available = append(available, AvailableTrainer{
			Trainer:    trainer,
			MatchScore: specialtyScore(query.Specialty, trainer.Specialties),
		})
	}

	sort.SliceStable(available, func(i, j int) bool {
		if available[i].MatchScore == available[j].MatchScore {
			return available[i].HourlyRate.LessThan(available[j].HourlyRate)
		}
		return available[i].MatchScore > available[j].MatchScore
	})

	if query.Limit > 0 && len(available) > query.Limit {
		available = available[:query.Limit]
	}
	return available, nil
}

func specialtyScore(requested string, specialties []string) int {
	aliases := specialtyAliases(requested)
	if len(aliases) == 0 {
		return 0
	}

	offered := make(map[string]struct{}, len(specialties))
	for _, specialty := range specialties {
		if key := normalize(specialty); key != "" {
			offered[key] = struct{}{}
		}
	}

	requestedKey := normalize(requested)
	if _, ok := offered[requestedKey]; ok {
		return 100
	}
	for _, alias := range aliases {
		if _, ok := offered[alias]; ok {
			return 60
		}
	}
	return 0
}

func specialtyAliases(specialty string) []string {
	switch key := normalize(specialty); key {
	case "":
		return nil
	case "weight_loss", "fat_loss", "cardio":
		return []string{"weight_loss", "fat_loss", "cardio", "hiit"}
	case "muscle_gain", "bodybuilding":
		return []string{"muscle_gain", "bodybuilding", "strength_training"}
	case "strength", "strength_training":
		return []string{"strength", "strength_training", "powerlifting"}
	case "flexibility", "mobility", "yoga":
		return []string{"flexibility", "mobility", "yoga", "pilates"}
	default:
		return []string{key}
	}
}

func normalize(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	value = strings.ReplaceAll(value, " ", "_")
	value = strings.ReplaceAll(value, "-", "_")
	return value
}

package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/saeid-a/GymScheduleBack/internal/models"
	"github.com/saeid-a/GymScheduleBack/internal/repository"
	"github.com/shopspring/decimal"
)

type TrainerService struct {
	db          *pgxpool.Pool
	trainerRepo *repository.TrainerRepository
}

func NewTrainerService(db *pgxpool.Pool, trainerRepo *repository.TrainerRepository) *TrainerService {
	return &TrainerService{db: db, trainerRepo: trainerRepo}
}

type CreateTrainerInput struct {
	UserID      int64
	Specialties []string
	HourlyRate  decimal.Decimal
	Bio         *string
}

type UpdateTrainerInput struct {
	Specialties *[]string
	HourlyRate  *decimal.Decimal
	Bio         *string
	Status      *string
}

// CreateTrainer attaches a trainer profile to an existing account and
// promotes the account to the trainer role.
func (s *TrainerService) CreateTrainer(ctx context.Context, actor Actor, input CreateTrainerInput) (*models.Trainer, error) {
	if actor.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	if input.HourlyRate.IsNegative() {
		return nil, invalidInput("hourly rate must not be negative")
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txUserRepo := repository.NewUserRepository(tx)
	txTrainerRepo := repository.NewTrainerRepository(tx)

	user, err := txUserRepo.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound)
	}
	if models.IsScheduler(user.Role) {
		return nil, invalidInput("user %d already holds the %s role", user.ID, user.Role)
	}

	trainerID, err := txTrainerRepo.Create(ctx, repository.CreateTrainerInput{
		UserID:      user.ID,
		Specialties: normalizeSpecialties(input.Specialties),
		HourlyRate:  input.HourlyRate.Round(2),
		Bio:         input.Bio,
	})
	if err != nil {
		return nil, translateWriteError(err)
	}
	if _, err := txUserRepo.UpdateRole(ctx, user.ID, models.RoleTrainer); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return s.GetTrainer(ctx, trainerID)
}

func (s *TrainerService) GetTrainer(ctx context.Context, trainerID int64) (*models.Trainer, error) {
	trainer, err := s.trainerRepo.GetByID(ctx, trainerID)
	if err != nil {
		return nil, notFoundAs(err, ErrTrainerNotFound)
	}
	return trainer, nil
}

func (s *TrainerService) GetOwnTrainer(ctx context.Context, actor Actor) (*models.Trainer, error) {
	trainer, err := s.trainerRepo.GetByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, notFoundAs(err, ErrTrainerProfileNotFound)
	}
	return trainer, nil
}

func (s *TrainerService) ListTrainers(ctx context.Context, status string, page, limit int) ([]models.Trainer, int, error) {
	status = strings.TrimSpace(status)
	if status != "" && !validTrainerStatus(status) {
		return nil, 0, invalidInput("unknown trainer status %q", status)
	}
	return s.trainerRepo.List(ctx, repository.TrainerListFilter{
		Status: status,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
}

// UpdateTrainer edits a trainer profile. Admins may edit any trainer; a
// trainer may edit its own profile except for the hourly rate.
func (s *TrainerService) UpdateTrainer(
	ctx context.Context,
	actor Actor,
	trainerID int64,
	input UpdateTrainerInput,
) (*models.Trainer, error) {
	trainer, err := s.GetTrainer(ctx, trainerID)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleTrainer:
		if trainer.UserID != actor.UserID {
			return nil, ErrForbidden
		}
		if input.HourlyRate != nil {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrForbidden
	}

	if input.HourlyRate != nil {
		if input.HourlyRate.IsNegative() {
			return nil, invalidInput("hourly rate must not be negative")
		}
		rounded := input.HourlyRate.Round(2)
		input.HourlyRate = &rounded
	}
	if input.Status != nil && !validTrainerStatus(*input.Status) {
		return nil, invalidInput("unknown trainer status %q", *input.Status)
	}
	if input.Specialties != nil {
		specialties := normalizeSpecialties(*input.Specialties)
		input.Specialties = &specialties
	}

	err = s.trainerRepo.UpdatePartial(ctx, trainer.ID, repository.UpdateTrainerInput{
		Specialties: input.Specialties,
		HourlyRate:  input.HourlyRate,
		Bio:         input.Bio,
		Status:      input.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTrainerNotFound
		}
		return nil, translateWriteError(err)
	}

	return s.GetTrainer(ctx, trainer.ID)
}

func validTrainerStatus(status string) bool {
	switch status {
	case models.TrainerStatusActive, models.TrainerStatusInactive, models.TrainerStatusOnLeave:
		return true
	default:
		return false
	}
}

func normalizeSpecialties(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	normalized := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		key := strings.ToLower(value)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		normalized = append(normalized, value)
	}
	return normalized
}

package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/GymScheduleBack/internal/models"
	"github.com/shopspring/decimal"
)

const trainerColumns = `
	t.id, t.user_id, t.code, u.full_name, u.email, t.specialties, t.hourly_rate,
	t.bio, t.status, t.created_at, t.updated_at
`

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

type TrainerListFilter struct {
	Status string
	Limit  int
	Offset int
}

type TrainerRepository struct {
	db DBTX
}

func NewTrainerRepository(db DBTX) *TrainerRepository {
	return &TrainerRepository{db: db}
}

// Create inserts a trainer profile and allocates its TR code from trainer_code_seq.
func (r *TrainerRepository) Create(ctx context.Context, input CreateTrainerInput) (int64, error) {
	query := `
		INSERT INTO trainers (user_id, code, specialties, hourly_rate, bio, status)
		VALUES ($1, 'TR' || LPAD(nextval('trainer_code_seq')::text, 4, '0'), $2, $3, $4, 'active')
		RETURNING id
	`
	specialties := input.Specialties
	if specialties == nil {
		specialties = []string{}
	}
	var id int64
	err := r.db.QueryRow(ctx, query, input.UserID, specialties, input.HourlyRate, input.Bio).Scan(&id)
	return id, err
}

func (r *TrainerRepository) GetByID(ctx context.Context, id int64) (*models.Trainer, error) {
	query := `SELECT ` + trainerColumns + `
		FROM trainers t
		JOIN users u ON u.id = t.user_id
		WHERE t.id = $1
	`
	return scanTrainer(r.db.QueryRow(ctx, query, id))
}

func (r *TrainerRepository) GetByUserID(ctx context.Context, userID int64) (*models.Trainer, error) {
	query := `SELECT ` + trainerColumns + `
		FROM trainers t
		JOIN users u ON u.id = t.user_id
		WHERE t.user_id = $1
	`
	return scanTrainer(r.db.QueryRow(ctx, query, userID))
}

func (r *TrainerRepository) List(ctx context.Context, filter TrainerListFilter) ([]models.Trainer, int, error) {
	args := []any{}
	whereClause := ""
	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereClause = "WHERE t.status = $1"
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM trainers t ` + whereClause
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s
		FROM trainers t
		JOIN users u ON u.id = t.user_id
		%s
		ORDER BY t.code ASC
		LIMIT $%d OFFSET $%d
	`, trainerColumns, whereClause, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	trainers := make([]models.Trainer, 0)
	for rows.Next() {
		trainer, err := scanTrainer(rows)
		if err != nil {
			return nil, 0, err
		}
		trainers = append(trainers, *trainer)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return trainers, total, nil
}

func (r *TrainerRepository) ListActiveTrainers(ctx context.Context) ([]models.Trainer, error) {
	query := `SELECT ` + trainerColumns + `
		FROM trainers t
		JOIN users u ON u.id = t.user_id
		WHERE t.status = 'active'
		ORDER BY t.code ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trainers := make([]models.Trainer, 0)
	for rows.Next() {
		trainer, err := scanTrainer(rows)
		if err != nil {
			return nil, err
		}
		trainers = append(trainers, *trainer)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return trainers, nil
}

func (r *TrainerRepository) UpdatePartial(ctx context.Context, id int64, input UpdateTrainerInput) error {
	query := `
		UPDATE trainers
		SET specialties = COALESCE($2, specialties),
			hourly_rate = COALESCE($3, hourly_rate),
			bio = COALESCE($4, bio),
			status = COALESCE($5, status),
			updated_at = NOW()
		WHERE id = $1
	`
	var specialties []string
	if input.Specialties != nil {
		specialties = *input.Specialties
		if specialties == nil {
			specialties = []string{}
		}
	}
	var hourlyRate *decimal.Decimal
	if input.HourlyRate != nil {
		rate := *input.HourlyRate
		hourlyRate = &rate
	}

	tag, err := r.db.Exec(ctx, query, id, specialties, hourlyRate, input.Bio, input.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTrainer(row pgx.Row) (*models.Trainer, error) {
	var trainer models.Trainer
	err := row.Scan(
		&trainer.ID,
		&trainer.UserID,
		&trainer.Code,
		&trainer.FullName,
		&trainer.Email,
		&trainer.Specialties,
		&trainer.HourlyRate,
		&trainer.Bio,
		&trainer.Status,
		&trainer.CreatedAt,
		&trainer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if trainer.Specialties == nil {
		trainer.Specialties = []string{}
	}
	return &trainer, nil
}

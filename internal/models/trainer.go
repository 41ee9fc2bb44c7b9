package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TrainerStatusActive   = "active"
	TrainerStatusInactive = "inactive"
	TrainerStatusOnLeave  = "on_leave"
)

type Trainer struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	Code        string          `json:"code"`
	FullName    string          `json:"full_name"`
	Email       string          `json:"email"`
	Specialties []string        `json:"specialties"`
	HourlyRate  decimal.Decimal `json:"hourly_rate"`
	Bio         *string         `json:"bio"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TrainerRef is the trainer view embedded in a session.
type TrainerRef struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user_id"`
	Code     string `json:"code"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

func (t *Trainer) Ref() *TrainerRef {
	if t == nil {
		return nil
	}
	return &TrainerRef{
		ID:       t.ID,
		UserID:   t.UserID,
		Code:     t.Code,
		FullName: t.FullName,
		Email:    t.Email,
	}
}

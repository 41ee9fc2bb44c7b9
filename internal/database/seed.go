package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/GymScheduleBack/internal/models"
	"github.com/saeid-a/GymScheduleBack/internal/repository"
	"github.com/saeid-a/GymScheduleBack/pkg/utils"
)

// EnsureDefaultAdmin creates the bootstrap admin account when it is configured
// and missing. Existing accounts are left untouched.
func EnsureDefaultAdmin(ctx context.Context, db repository.DBTX, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}

	userRepo := repository.NewUserRepository(db)
	_, err := userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("lookup default admin: %w", err)
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash default admin password: %w", err)
	}

	admin := &models.User{
		Email:        email,
		PasswordHash: hashed,
		FullName:     "Administrator",
		Role:         models.RoleAdmin,
	}
	if err := userRepo.CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("create default admin: %w", err)
	}

	log.Printf("seed: created default admin %s", email)
	return nil
}

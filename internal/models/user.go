package models

import "time"

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleTrainer = "trainer"
	RoleUser    = "user"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsScheduler reports whether the role may create and edit sessions.
func IsScheduler(role string) bool {
	return role == RoleAdmin || role == RoleManager
}

type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

package handlers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/saeid-a/GymScheduleBack/internal/models"
	"github.com/saeid-a/GymScheduleBack/internal/repository"
	"github.com/saeid-a/GymScheduleBack/pkg/utils"
)

type AuthHandler struct {
	userRepo    *repository.UserRepository
	trainerRepo *repository.TrainerRepository
	jwtSecret   string
	tokenTTL    time.Duration
}

func NewAuthHandler(
	userRepo *repository.UserRepository,
	trainerRepo *repository.TrainerRepository,
	jwtSecret string,
	tokenTTL time.Duration,
) *AuthHandler {
	return &AuthHandler{
		userRepo:    userRepo,
		trainerRepo: trainerRepo,
		jwtSecret:   jwtSecret,
		tokenTTL:    tokenTTL,
	}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required,max=120"`
}

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required,max=120"`
	Role     string `json:"role" validate:"required,oneof=admin manager user"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if err := validate.Struct(req); err != nil {
		return badRequest(c, validationMessage(err))
	}

	user, err := h.createAccount(c, req.Email, req.Password, req.FullName, models.RoleUser)
	if err != nil || user == nil {
		return err
	}

	token, err := utils.GenerateTokenWithTTL(strconv.FormatInt(user.ID, 10), user.Role, h.jwtSecret, h.tokenTTL)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate token"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// CreateUser lets an admin open admin, manager or member accounts. Trainer
// accounts are promoted through the trainers endpoint.
func (h *AuthHandler) CreateUser(c *fiber.Ctx) error {
	var req createUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if err := validate.Struct(req); err != nil {
		return badRequest(c, validationMessage(err))
	}

	user, err := h.createAccount(c, req.Email, req.Password, req.FullName, req.Role)
	if err != nil || user == nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user})
}

// createAccount writes the response itself on failure and returns a nil user.
func (h *AuthHandler) createAccount(c *fiber.Ctx, email, password, fullName, role string) (*models.User, error) {
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hashed,
		FullName:     fullName,
		Role:         role,
	}
	if err := h.userRepo.CreateUser(c.Context(), user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, respondError(c, fiber.StatusConflict, kindConflict, "Email already exists")
		}
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create user"})
	}
	return user, nil
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Struct(req); err != nil {
		return badRequest(c, validationMessage(err))
	}

	user, err := h.userRepo.GetByEmail(c.Context(), req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusUnauthorized).
				JSON(fiber.Map{"error": "Invalid email or password", "kind": "unauthorized"})
		}
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to lookup user"})
	}

	if !utils.CheckPassword(req.Password, user.PasswordHash) {
		return c.Status(fiber.StatusUnauthorized).
			JSON(fiber.Map{"error": "Invalid email or password", "kind": "unauthorized"})
	}

	token, err := utils.GenerateTokenWithTTL(strconv.FormatInt(user.ID, 10), user.Role, h.jwtSecret, h.tokenTTL)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to generate token"})
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	user, err := h.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return respondError(c, fiber.StatusNotFound, kindNotFound, "User not found")
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch user"})
	}

	if user.Role != models.RoleTrainer {
		return c.JSON(fiber.Map{"user": user, "trainer": nil})
	}

	trainer, err := h.trainerRepo.GetByUserID(c.Context(), userID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch trainer profile"})
	}

	return c.JSON(fiber.Map{"user": user, "trainer": trainer})
}

package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/saeid-a/GymScheduleBack/internal/config"
	"github.com/saeid-a/GymScheduleBack/internal/handlers"
	"github.com/saeid-a/GymScheduleBack/internal/middleware"
	"github.com/saeid-a/GymScheduleBack/internal/models"
	"github.com/saeid-a/GymScheduleBack/internal/repository"
	"github.com/saeid-a/GymScheduleBack/internal/services"
	schedulews "github.com/saeid-a/GymScheduleBack/internal/websocket"
)

// Runtime holds the long-lived pieces main needs after routes are mounted.
type Runtime struct {
	Sessions *services.SessionService
	Hub      *schedulews.Hub
}

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) (*Runtime, error) {
	userRepo := repository.NewUserRepository(db)
	trainerRepo := repository.NewTrainerRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	hub := schedulews.NewHub()
	go hub.Run()

	sessionService := services.NewSessionService(db, sessionRepo, trainerRepo, cfg.SchedulePolicy(), hub)
	trainerService := services.NewTrainerService(db, trainerRepo)
	availabilityService := services.NewAvailabilityService(services.RepositoryAvailabilitySource{
		TrainerRepository: trainerRepo,
		SessionRepository: sessionRepo,
	})

	authHandler := handlers.NewAuthHandler(userRepo, trainerRepo, cfg.JWTSecret, cfg.JWTTTL)
	trainerHandler := handlers.NewTrainerHandler(trainerService)
	scheduleHandler := handlers.NewScheduleHandler(sessionService, availabilityService)
	eventsHandler := handlers.NewEventsHandler(hub)

	if err := registerDocsRoutes(app, cfg); err != nil {
		return nil, err
	}

	schedulers := middleware.RequireRoles(models.RoleAdmin, models.RoleManager)
	trainersOnly := middleware.RequireRoles(models.RoleTrainer)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	api.Use("/v1/ws", eventsHandler.RequireUpgrade, middleware.WebSocketAuth(cfg.JWTSecret))
	api.Get("/v1/ws", websocket.New(eventsHandler.HandleWebSocket))

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	users := authProtected.Group("/users")
	users.Post("", adminOnly, authHandler.CreateUser)

	trainers := authProtected.Group("/trainers")
	trainers.Get("", trainerHandler.ListTrainers)
	trainers.Post("", adminOnly, trainerHandler.CreateTrainer)
	trainers.Get("/me", trainersOnly, trainerHandler.GetMyTrainer)
	trainers.Get("/:id", trainerHandler.GetTrainer)
	trainers.Put("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleTrainer), trainerHandler.UpdateTrainer)

	schedules := authProtected.Group("/schedules")
	schedules.Get("", scheduleHandler.ListSchedules)
	schedules.Post("", schedulers, scheduleHandler.CreateSchedule)
	schedules.Get("/my-schedules", trainersOnly, scheduleHandler.ListMySchedules)
	schedules.Get("/my-today", trainersOnly, scheduleHandler.ListMyToday)
	schedules.Get("/my-stats", trainersOnly, scheduleHandler.MyStats)
	schedules.Get("/weekly", scheduleHandler.Weekly)
	schedules.Get("/available-trainers", schedulers, scheduleHandler.AvailableTrainers)
	schedules.Get("/:id", scheduleHandler.GetSchedule)
	schedules.Put("/:id", schedulers, scheduleHandler.UpdateSchedule)
	schedules.Delete("/:id", schedulers, scheduleHandler.CancelSchedule)
	schedules.Post("/:id/check-in", trainersOnly, scheduleHandler.CheckIn)
	schedules.Post("/:id/check-out", trainersOnly, scheduleHandler.CheckOut)
	schedules.Post("/:id/mark-paid", schedulers, scheduleHandler.MarkPaid)

	return &Runtime{Sessions: sessionService, Hub: hub}, nil
}

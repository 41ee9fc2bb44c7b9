package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/saeid-a/GymScheduleBack/internal/config"
	"github.com/saeid-a/GymScheduleBack/internal/database"
	"github.com/saeid-a/GymScheduleBack/internal/jobs"
	"github.com/saeid-a/GymScheduleBack/internal/routes"
)

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Connect to Database
	if cfg.DBUrl == "" {
		log.Fatal("DB_URL is required")
	}
	if err := database.ConnectDB(cfg.DBUrl); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB()

	if err := database.EnsureDefaultAdmin(context.Background(), database.DB, cfg.DefaultAdminEmail, cfg.DefaultAdminPassword); err != nil {
		log.Fatalf("Failed to seed default admin: %v", err)
	}

	// 3. Setup Fiber
	app := fiber.New(fiber.Config{
		ErrorHandler: errorEnvelope,
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORSAllowOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, If-Match",
		ExposeHeaders: "ETag, X-Request-ID",
	}))
	app.Use(logger.New(logger.Config{
		Format:   "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		TimeZone: cfg.VenueTimezone,
	}))
	app.Use(recover.New())

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	deps, err := routes.RegisterRoutes(app, cfg, database.DB)
	if err != nil {
		log.Fatalf("Failed to register routes: %v", err)
	}
	defer deps.Hub.Stop()

	// 4. Background jobs
	if cfg.SweepMissedSessions {
		scheduler, err := jobs.Schedule(cfg.SweepSchedule, cfg.Location(), jobs.NewMissedSessionSweeper(deps.Sessions))
		if err != nil {
			log.Fatalf("Failed to schedule sweeper: %v", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
		log.Printf("Missed-session sweeper scheduled with %q", cfg.SweepSchedule)
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server")
		if err := app.Shutdown(); err != nil {
			log.Printf("Server shutdown: %v", err)
		}
	}()

	// 5. Start Server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// errorEnvelope renders framework errors in the same shape as handler errors.
func errorEnvelope(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	kind := "internal"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
		switch code {
		case fiber.StatusNotFound:
			kind = "not_found"
		case fiber.StatusMethodNotAllowed, fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge:
			kind = "validation_error"
		}
	} else {
		log.Printf("request %v: %v", c.Locals("requestid"), err)
	}

	return c.Status(code).JSON(fiber.Map{"error": message, "kind": kind})
}

package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/saeid-a/GymScheduleBack/internal/services"
)

type Config struct {
	Port                 string
	DBUrl                string
	JWTSecret            string
	JWTTTL               time.Duration
	AppEnv               string
	EnableDocs           bool
	VenueTimezone        string
	CheckInWindow        time.Duration
	OnTimeTolerance      time.Duration
	SweepMissedSessions  bool
	SweepSchedule        string
	CORSAllowOrigins     string
	DefaultAdminEmail    string
	DefaultAdminPassword string
	location             *time.Location
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		DBUrl:                getEnv("DB_URL", ""),
		JWTSecret:            jwtSecret,
		JWTTTL:               time.Duration(getEnvInt("JWT_TTL_HOURS", 72)) * time.Hour,
		AppEnv:               normalizeEnv(getEnv("APP_ENV", "production")),
		EnableDocs:           getEnvBool("ENABLE_API_DOCS", false),
		VenueTimezone:        getEnv("VENUE_TIMEZONE", "Asia/Ho_Chi_Minh"),
		CheckInWindow:        time.Duration(getEnvInt("CHECK_IN_WINDOW_MINUTES", 30)) * time.Minute,
		OnTimeTolerance:      time.Duration(getEnvInt("ON_TIME_TOLERANCE_MINUTES", 10)) * time.Minute,
		SweepMissedSessions:  getEnvBool("SWEEP_MISSED_SESSIONS", true),
		SweepSchedule:        getEnv("SWEEP_SCHEDULE", "*/15 * * * *"),
		CORSAllowOrigins:     getEnv("CORS_ALLOW_ORIGINS", "*"),
		DefaultAdminEmail:    getEnv("DEFAULT_ADMIN_EMAIL", ""),
		DefaultAdminPassword: getEnv("DEFAULT_ADMIN_PASSWORD", ""),
	}

	location, err := time.LoadLocation(cfg.VenueTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid VENUE_TIMEZONE %q: %w", cfg.VenueTimezone, err)
	}
	cfg.location = location

	return cfg, nil
}

// Location returns the venue timezone, falling back to UTC when unset.
func (c *Config) Location() *time.Location {
	if c == nil || c.location == nil {
		return time.UTC
	}
	return c.location
}

func (c *Config) SchedulePolicy() services.SchedulePolicy {
	policy := services.DefaultSchedulePolicy()
	policy.Location = c.Location()
	if c != nil && c.CheckInWindow > 0 {
		policy.CheckInWindow = c.CheckInWindow
	}
	if c != nil && c.OnTimeTolerance >= 0 {
		policy.OnTimeTolerance = c.OnTimeTolerance
	}
	return policy
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed < 0 {
		log.Printf("config: ignoring invalid %s=%q", key, value)
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

func (c *Config) DocsEnabled() bool {
	return c != nil && c.EnableDocs && c.AppEnv == "development"
}

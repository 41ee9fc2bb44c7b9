package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("VENUE_TIMEZONE", "Asia/Ho_Chi_Minh")
	t.Setenv("CHECK_IN_WINDOW_MINUTES", "")
	t.Setenv("ON_TIME_TOLERANCE_MINUTES", "")
	t.Setenv("JWT_TTL_HOURS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.JWTTTL != 72*time.Hour {
		t.Fatalf("expected 72h token ttl, got %s", cfg.JWTTTL)
	}

	policy := cfg.SchedulePolicy()
	if policy.CheckInWindow != 30*time.Minute || policy.OnTimeTolerance != 10*time.Minute {
		t.Fatalf("unexpected policy %+v", policy)
	}
	if policy.Location.String() != "Asia/Ho_Chi_Minh" {
		t.Fatalf("expected venue timezone, got %s", policy.Location)
	}
}

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected missing JWT_SECRET to fail")
	}
}

func TestLoadConfigRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("VENUE_TIMEZONE", "Mars/Olympus_Mons")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected invalid timezone to fail")
	}
}

func TestSchedulePolicyOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("VENUE_TIMEZONE", "UTC")
	t.Setenv("CHECK_IN_WINDOW_MINUTES", "45")
	t.Setenv("ON_TIME_TOLERANCE_MINUTES", "not-a-number")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	policy := cfg.SchedulePolicy()
	if policy.CheckInWindow != 45*time.Minute {
		t.Fatalf("expected 45 minute window, got %s", policy.CheckInWindow)
	}
	if policy.OnTimeTolerance != 10*time.Minute {
		t.Fatalf("expected invalid tolerance to fall back to 10m, got %s", policy.OnTimeTolerance)
	}
}

func TestDocsEnabledOnlyInDevelopment(t *testing.T) {
	cfg := &Config{EnableDocs: true, AppEnv: normalizeEnv("dev")}
	if !cfg.DocsEnabled() {
		t.Fatal("expected docs in development")
	}
	cfg.AppEnv = normalizeEnv("prod")
	if cfg.DocsEnabled() {
		t.Fatal("expected docs disabled in production")
	}
}

package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/GymScheduleBack/internal/config"
)

func TestRegisterDocsRoutesServesDocsPageAndSpec(t *testing.T) {
	app := fiber.New()
	cfg := &config.Config{AppEnv: "development", EnableDocs: true}

	if err := registerDocsRoutes(app, cfg); err != nil {
		t.Fatalf("registerDocsRoutes: %v", err)
	}

	pageResp, err := app.Test(httptest.NewRequest(http.MethodGet, "/docs", nil))
	if err != nil {
		t.Fatalf("app.Test docs page: %v", err)
	}
	defer pageResp.Body.Close()

	if pageResp.StatusCode != http.StatusOK {
		t.Fatalf("expected docs page status 200, got %d", pageResp.StatusCode)
	}
	if got := pageResp.Header.Get("Content-Security-Policy"); !strings.Contains(got, "default-src 'none'") {
		t.Fatalf("expected restrictive CSP, got %q", got)
	}
	page, err := io.ReadAll(pageResp.Body)
	if err != nil {
		t.Fatalf("read docs page: %v", err)
	}
	if !strings.Contains(string(page), "/api/v1/schedules/{id}/check-in") {
		t.Fatal("expected the operations table to list the check-in route")
	}

	specResp, err := app.Test(httptest.NewRequest(http.MethodGet, "/docs/openapi.yaml", nil))
	if err != nil {
		t.Fatalf("app.Test docs spec: %v", err)
	}
	defer specResp.Body.Close()

	if specResp.StatusCode != http.StatusOK {
		t.Fatalf("expected docs spec status 200, got %d", specResp.StatusCode)
	}
	if got := specResp.Header.Get(fiber.HeaderContentType); !strings.Contains(got, "application/yaml") {
		t.Fatalf("expected yaml content type, got %q", got)
	}

	jsonResp, err := app.Test(httptest.NewRequest(http.MethodGet, "/docs/openapi.json", nil))
	if err != nil {
		t.Fatalf("app.Test docs json: %v", err)
	}
	defer jsonResp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(jsonResp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode openapi json: %v", err)
	}
	if decoded["openapi"] != "3.0.3" {
		t.Fatalf("expected openapi 3.0.3, got %v", decoded["openapi"])
	}
}

func TestRegisterDocsRoutesSkipsWhenDisabled(t *testing.T) {
	app := fiber.New()
	cfg := &config.Config{AppEnv: "production", EnableDocs: true}

	if err := registerDocsRoutes(app, cfg); err != nil {
		t.Fatalf("registerDocsRoutes: %v", err)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/docs", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 when docs are not in development, got %d", resp.StatusCode)
	}
}

func TestOpenAPISpecDocumentsScheduleOperations(t *testing.T) {
	doc, err := parseOpenAPISpec(openAPISpec)
	if err != nil {
		t.Fatalf("parseOpenAPISpec: %v", err)
	}

	documented := make(map[string]struct{})
	for _, op := range listOperations(doc) {
		documented[op.Method+" "+op.Path] = struct{}{}
	}

	want := []string{
		"GET /api/v1/schedules",
		"POST /api/v1/schedules",
		"GET /api/v1/schedules/my-schedules",
		"GET /api/v1/schedules/my-today",
		"GET /api/v1/schedules/my-stats",
		"GET /api/v1/schedules/weekly",
		"GET /api/v1/schedules/available-trainers",
		"GET /api/v1/schedules/{id}",
		"PUT /api/v1/schedules/{id}",
		"DELETE /api/v1/schedules/{id}",
		"POST /api/v1/schedules/{id}/check-in",
		"POST /api/v1/schedules/{id}/check-out",
		"POST /api/v1/schedules/{id}/mark-paid",
	}
	for _, op := range want {
		if _, ok := documented[op]; !ok {
			t.Errorf("openapi spec does not document %s", op)
		}
	}
}

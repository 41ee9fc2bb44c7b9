package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/GymScheduleBack/pkg/utils"
)

const testSecret = "middleware-secret"

func newTestApp(handlers ...fiber.Handler) *fiber.App {
	app := fiber.New()
	chain := append(handlers, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": c.Locals("user_id"), "role": c.Locals("role")})
	})
	app.Get("/protected", chain...)
	return app
}

func TestAuthRequiredAcceptsBearerToken(t *testing.T) {
	token, err := utils.GenerateToken("42", "trainer", testSecret)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	app := newTestApp(AuthRequired(testSecret))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAuthRequiredRejectsMissingOrMalformedHeader(t *testing.T) {
	app := newTestApp(AuthRequired(testSecret))

	for _, header := range []string{"", "Token abc", "Bearer"} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, resp.StatusCode)
		}
	}
}

func TestRequireRolesRejectsOtherRoles(t *testing.T) {
	token, err := utils.GenerateToken("42", "trainer", testSecret)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	app := newTestApp(AuthRequired(testSecret), RequireRoles("admin", "manager"))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestWebSocketAuthReadsQueryToken(t *testing.T) {
	token, err := utils.GenerateToken("7", "admin", testSecret)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	app := newTestApp(WebSocketAuth(testSecret))
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/protected?token="+token, nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/protected", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
}

package handlers

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/healthtrack/internal/models"
)

func TestHandler_Health(t *testing.T) {
	env := setupTestApp(t)

	resp, body := env.do(t, "GET", "/health", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected status %d, got %d", fiber.StatusOK, resp.StatusCode)
	}

	healthResp := decode[models.HealthResponse](t, body)
	if healthResp.Status != "healthy" {
		t.Errorf("Expected status 'healthy', got '%s'", healthResp.Status)
	}
	if healthResp.Version != Version {
		t.Errorf("Expected version '%s', got '%s'", Version, healthResp.Version)
	}
	if healthResp.Timestamp == "" {
		t.Error("Expected non-empty timestamp")
	}
}

func TestHandler_NotFound(t *testing.T) {
	env := setupTestApp(t)

	resp, body := env.do(t, "GET", "/v2/nothing", nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("Expected status %d, got %d", fiber.StatusNotFound, resp.StatusCode)
	}

	errResp := decode[models.ErrorResponse](t, body)
	if errResp.Error.Code != "NOT_FOUND" {
		t.Errorf("Expected code 'NOT_FOUND', got '%s'", errResp.Error.Code)
	}
	if errResp.Error.Path != "/v2/nothing" {
		t.Errorf("Expected path '/v2/nothing', got '%s'", errResp.Error.Path)
	}
}

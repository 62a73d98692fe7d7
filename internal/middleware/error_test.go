package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/healthtrack/internal/logging"
	"github.com/soltixdb/healthtrack/internal/models"
)

func TestErrorHandler_FiberError(t *testing.T) {
	logger := logging.Nop()

	tests := []struct {
		name           string
		fiberError     error
		expectedStatus int
		expectedCode   string
		expectedMsg    string
	}{
		{
			name:           "BadRequest error",
			fiberError:     fiber.ErrBadRequest,
			expectedStatus: fiber.StatusBadRequest,
			expectedCode:   "BAD_REQUEST",
			expectedMsg:    "Bad Request",
		},
		{
			name:           "NotFound error",
			fiberError:     fiber.ErrNotFound,
			expectedStatus: fiber.StatusNotFound,
			expectedCode:   "NOT_FOUND",
			expectedMsg:    "Not Found",
		},
		{
			name:           "Payload too large",
			fiberError:     fiber.ErrRequestEntityTooLarge,
			expectedStatus: fiber.StatusRequestEntityTooLarge,
			expectedCode:   "REQUEST_ENTITY_TOO_LARGE",
			expectedMsg:    "Request Entity Too Large",
		},
		{
			name:           "Wrapped fiber error",
			fiberError:     fmt.Errorf("parse body: %w", fiber.NewError(fiber.StatusUnprocessableEntity, "bad reading")),
			expectedStatus: fiber.StatusUnprocessableEntity,
			expectedCode:   "UNPROCESSABLE_ENTITY",
			expectedMsg:    "bad reading",
		},
		{
			name:           "Custom fiber error",
			fiberError:     fiber.NewError(fiber.StatusTeapot, "I'm a teapot"),
			expectedStatus: fiber.StatusTeapot,
			expectedCode:   "IM_A_TEAPOT",
			expectedMsg:    "I'm a teapot",
		},
		{
			name:           "Generic error",
			fiberError:     errors.New("something went wrong"),
			expectedStatus: fiber.StatusInternalServerError,
			expectedCode:   "INTERNAL_SERVER_ERROR",
			expectedMsg:    "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{
				ErrorHandler: ErrorHandler(logger),
			})

			app.Get("/test", func(c *fiber.Ctx) error {
				return tt.fiberError
			})

			req := httptest.NewRequest("GET", "/test", nil)
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("Failed to test request: %v", err)
			}
			defer func() { _ = resp.Body.Close() }()

			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, resp.StatusCode)
			}

			body, _ := io.ReadAll(resp.Body)
			var errResp models.ErrorResponse
			if err := json.Unmarshal(body, &errResp); err != nil {
				t.Fatalf("Failed to unmarshal response: %v", err)
			}

			if errResp.Error.Message != tt.expectedMsg {
				t.Errorf("Expected message %q, got %q", tt.expectedMsg, errResp.Error.Message)
			}
			if errResp.Error.Code != tt.expectedCode {
				t.Errorf("Expected code %q, got %q", tt.expectedCode, errResp.Error.Code)
			}
			if errResp.Error.Path != "/test" {
				t.Errorf("Expected path '/test', got %q", errResp.Error.Path)
			}
		})
	}
}

func TestErrorHandler_ResponseFormat(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(logging.Nop()),
	})

	app.Get("/test", func(c *fiber.Ctx) error {
		return fiber.ErrBadRequest
	})

	req := httptest.NewRequest("GET", "/test", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	contentType := resp.Header.Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got %q", contentType)
	}

	body, _ := io.ReadAll(resp.Body)
	var rawResp map[string]interface{}
	if err := json.Unmarshal(body, &rawResp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	errorMap, ok := rawResp["error"].(map[string]interface{})
	if !ok {
		t.Fatal("Response should have an 'error' object")
	}
	for _, field := range []string{"code", "message", "path"} {
		if _, exists := errorMap[field]; !exists {
			t.Errorf("Error object should have %q field", field)
		}
	}
}

func TestStatusCode(t *testing.T) {
	tests := map[int]string{
		400: "BAD_REQUEST",
		404: "NOT_FOUND",
		503: "SERVICE_UNAVAILABLE",
		799: "ERROR",
	}
	for status, expected := range tests {
		if got := StatusCode(status); got != expected {
			t.Errorf("StatusCode(%d) = %q, want %q", status, got, expected)
		}
	}
}

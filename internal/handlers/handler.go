package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/healthtrack/internal/logging"
	"github.com/soltixdb/healthtrack/internal/models"
	"github.com/soltixdb/healthtrack/internal/services"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Handler contains all HTTP handlers
type Handler struct {
	logger *logging.Logger
	// Services
	readingService  *services.ReadingService
	analysisService *services.AnalysisService
}

// New creates a new handler instance
func New(logger *logging.Logger, readingService *services.ReadingService, analysisService *services.AnalysisService) *Handler {
	return &Handler{
		logger:          logger,
		readingService:  readingService,
		analysisService: analysisService,
	}
}

// userContext tags the request context with the :user route param so
// context-aware log lines carry user_id
func userContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if user := c.Params("user"); user != "" {
		ctx = logging.WithUserID(ctx, user)
	}
	return ctx
}

// serviceStatus maps service error codes to HTTP status codes
var serviceStatus = map[string]int{
	services.CodeInvalidRequest:        fiber.StatusBadRequest,
	services.CodeInvalidReading:        fiber.StatusBadRequest,
	services.CodeUnsupportedConversion: fiber.StatusBadRequest,
	services.CodeBatchTooLarge:         fiber.StatusRequestEntityTooLarge,
	services.CodeReadingNotFound:       fiber.StatusNotFound,
	services.CodePublishFailed:         fiber.StatusServiceUnavailable,
	services.CodeStoreFailed:           fiber.StatusInternalServerError,
}

// respondError renders validation and service errors as ErrorResponse.
// Anything else is passed on to the app error handler.
func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    services.CodeInvalidRequest,
				Message: fiberErr.Message,
			},
		})
	}

	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		status, ok := serviceStatus[svcErr.Code]
		if !ok {
			status = fiber.StatusInternalServerError
		}
		return c.Status(status).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    svcErr.Code,
				Message: svcErr.Message,
				Details: svcErr.Details,
			},
		})
	}

	return err
}

func badRequest(c *fiber.Ctx, code, message string, details map[string]interface{}) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

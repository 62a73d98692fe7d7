package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/healthtrack/internal/models"
)

// readingQuery builds a ReadingQuery from the path and query string.
// An unparsable limit falls back to the endpoint default.
func (h *Handler) readingQuery(c *fiber.Ctx) *models.ReadingQuery {
	limitStr := c.Query("limit", "0")
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		h.logger.Warn("Failed to parse limit parameter, using default",
			"limit", limitStr,
			"error", err,
		)
		limit = 0
	}

	return &models.ReadingQuery{
		UserID:     c.Params("user"),
		MetricType: c.Query("metric_type"),
		Start:      c.Query("start"),
		End:        c.Query("end"),
		Limit:      limit,
		Timezone:   c.Query("timezone"),
	}
}

// Ingest handles a single reading
// POST /v1/users/:user/readings
func (h *Handler) Ingest(c *fiber.Ctx) error {
	var req models.ReadingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "INVALID_JSON", "Failed to parse JSON body",
			map[string]interface{}{"error": err.Error()})
	}

	resp, err := h.readingService.Ingest(userContext(c), c.Params("user"), []models.ReadingRequest{req})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(resp)
}

// IngestBatch handles a batch of readings
// POST /v1/users/:user/readings/batch
func (h *Handler) IngestBatch(c *fiber.Ctx) error {
	var req models.BatchReadingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "INVALID_JSON", "Failed to parse JSON body",
			map[string]interface{}{"error": err.Error()})
	}

	resp, err := h.readingService.Ingest(userContext(c), c.Params("user"), req.Readings)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(resp)
}

// ListReadings handles reading queries
// GET /v1/users/:user/readings?metric_type=&start=&end=&limit=
func (h *Handler) ListReadings(c *fiber.Ctx) error {
	q := h.readingQuery(c)
	if err := q.Validate(false); err != nil {
		return h.respondError(c, err)
	}

	resp, err := h.readingService.List(userContext(c), q)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(resp)
}

// GetReading returns one reading
// GET /v1/users/:user/readings/:id
func (h *Handler) GetReading(c *fiber.Ctx) error {
	r, err := h.readingService.Get(userContext(c), c.Params("user"), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(r)
}

// DeleteReading removes one reading
// DELETE /v1/users/:user/readings/:id
func (h *Handler) DeleteReading(c *fiber.Ctx) error {
	if err := h.readingService.Delete(userContext(c), c.Params("user"), c.Params("id")); err != nil {
		return h.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/healthtrack/internal/models"
)

// analyze validates the query and renders the result of run
func analyze[T any](h *Handler, c *fiber.Ctx, requireMetric bool,
	run func(ctx context.Context, q *models.ReadingQuery) (T, error),
) error {
	q := h.readingQuery(c)
	if err := q.Validate(requireMetric); err != nil {
		return h.respondError(c, err)
	}

	resp, err := run(userContext(c), q)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(resp)
}

// Trend handles trend requests
// GET /v1/users/:user/trend?metric_type=&start=&end=
func (h *Handler) Trend(c *fiber.Ctx) error {
	return analyze(h, c, true, h.analysisService.Trend)
}

// Anomalies handles anomaly detection requests
// GET /v1/users/:user/anomalies?metric_type=&start=&end=
func (h *Handler) Anomalies(c *fiber.Ctx) error {
	return analyze(h, c, false, h.analysisService.Anomalies)
}

// TimeOfDay handles time-of-day bucket requests
// GET /v1/users/:user/time-of-day?metric_type=&timezone=
func (h *Handler) TimeOfDay(c *fiber.Ctx) error {
	return analyze(h, c, false, h.analysisService.TimeOfDay)
}

// Summary handles per-metric summary requests
// GET /v1/users/:user/summary?start=&end=
func (h *Handler) Summary(c *fiber.Ctx) error {
	return analyze(h, c, false, h.analysisService.Summary)
}

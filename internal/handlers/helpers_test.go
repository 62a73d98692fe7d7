package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/healthtrack/internal/config"
	"github.com/soltixdb/healthtrack/internal/health"
	"github.com/soltixdb/healthtrack/internal/ingest"
	"github.com/soltixdb/healthtrack/internal/logging"
	"github.com/soltixdb/healthtrack/internal/middleware"
	"github.com/soltixdb/healthtrack/internal/models"
	"github.com/soltixdb/healthtrack/internal/queue"
	"github.com/soltixdb/healthtrack/internal/services"
	"github.com/soltixdb/healthtrack/internal/store"
)

type testEnv struct {
	app      *fiber.App
	store    *store.MemoryStore
	consumer *ingest.Consumer
}

// setupTestApp wires handlers to an in-memory queue, consumer and store
func setupTestApp(t *testing.T) *testEnv {
	t.Helper()
	logger := logging.Nop()
	cfg := config.DefaultConfig()

	st := store.NewMemoryStore()
	q, err := queue.NewQueue(cfg.Queue)
	if err != nil {
		t.Fatalf("Failed to create queue: %v", err)
	}

	consumer, err := ingest.NewConsumer(q, st, cfg.Queue.SubjectPrefix, logger)
	if err != nil {
		t.Fatalf("Failed to create consumer: %v", err)
	}
	if err := consumer.Start(); err != nil {
		t.Fatalf("Failed to start consumer: %v", err)
	}
	t.Cleanup(func() {
		consumer.Stop()
		_ = q.Close()
	})

	h := New(logger,
		services.NewReadingService(logger, q, st, cfg.Queue.SubjectPrefix),
		services.NewAnalysisService(logger, st, cfg.Analysis),
	)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(logger)})
	app.Get("/health", h.Health)
	v1 := app.Group("/v1")
	users := v1.Group("/users/:user")
	users.Post("/readings", h.Ingest)
	users.Post("/readings/batch", h.IngestBatch)
	users.Get("/readings", h.ListReadings)
	users.Get("/readings/:id", h.GetReading)
	users.Delete("/readings/:id", h.DeleteReading)
	users.Get("/trend", h.Trend)
	users.Get("/anomalies", h.Anomalies)
	users.Get("/time-of-day", h.TimeOfDay)
	users.Get("/summary", h.Summary)
	v1.Get("/units/convert", h.ConvertUnits)
	app.Use(h.NotFound)

	return &testEnv{app: app, store: st, consumer: consumer}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	return resp, data
}

func (e *testEnv) seed(t *testing.T, readings ...health.Reading) {
	t.Helper()
	for _, r := range readings {
		if err := e.store.Save(context.Background(), r); err != nil {
			t.Fatalf("Failed to seed reading: %v", err)
		}
	}
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("Failed to unmarshal response %s: %v", data, err)
	}
	return v
}

func errorCode(t *testing.T, data []byte) string {
	t.Helper()
	return decode[models.ErrorResponse](t, data).Error.Code
}

var seedBase = time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)

func bp(id string, hours int, sys, dia float64) health.Reading {
	return health.Reading{
		ID:         id,
		UserID:     "u1",
		MetricType: health.MetricBloodPressure,
		Systolic:   health.Float(sys),
		Diastolic:  health.Float(dia),
		RecordedAt: seedBase.Add(time.Duration(hours) * time.Hour),
		Unit:       "mmHg",
	}
}

func weight(id string, hours int, v float64) health.Reading {
	return health.Reading{
		ID:         id,
		UserID:     "u1",
		MetricType: health.MetricWeight,
		Value:      health.Float(v),
		RecordedAt: seedBase.Add(time.Duration(hours) * time.Hour),
		Unit:       "kg",
	}
}

package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/soltixdb/healthtrack/internal/config"
	"github.com/soltixdb/healthtrack/internal/handlers"
	"github.com/soltixdb/healthtrack/internal/logging"
	"github.com/soltixdb/healthtrack/internal/middleware"
	"github.com/soltixdb/healthtrack/internal/queue"
	"github.com/soltixdb/healthtrack/internal/services"
	"github.com/soltixdb/healthtrack/internal/store"
)

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, publisher queue.Publisher, st store.Store, cfg config.Config) *handlers.Handler {
	readingService := services.NewReadingService(logger, publisher, st, cfg.Queue.SubjectPrefix)
	analysisService := services.NewAnalysisService(logger, st, cfg.Analysis)

	// Create handler instance
	h := handlers.New(logger, readingService, analysisService)

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger))

	// Health check
	app.Get("/health", h.Health)

	v1 := app.Group("/v1")

	// Reading Routes
	users := v1.Group("/users/:user")
	users.Post("/readings", h.Ingest)
	users.Post("/readings/batch", h.IngestBatch)
	users.Get("/readings", h.ListReadings)
	users.Get("/readings/:id", h.GetReading)
	users.Delete("/readings/:id", h.DeleteReading)

	// Analysis Routes
	users.Get("/trend", h.Trend)
	users.Get("/anomalies", h.Anomalies)
	users.Get("/time-of-day", h.TimeOfDay)
	users.Get("/summary", h.Summary)

	// Unit conversion
	v1.Get("/units/convert", h.ConvertUnits)

	// 404 handler
	app.Use(h.NotFound)

	return h
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, publisher queue.Publisher, st store.Store, cfg config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "HealthTrack",
		DisableStartupMessage: true,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		BodyLimit:             cfg.Server.BodyLimit,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	Setup(app, logger, publisher, st, cfg)

	return app
}

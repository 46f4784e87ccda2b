// Package api exposes the extraction service over HTTP.
package api

import (
	"errors"
	"io"
	"time"

	"github.com/Caia-Tech/caia-extractor/pkg/extractor"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AppConfig configures the fiber application.
type AppConfig struct {
	CORSOrigins string
	BodyLimit   int
	// Zero timeouts mean no limit.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// AccessLog receives request logs; nil disables them.
	AccessLog io.Writer
}

// NewApp creates the fiber application with the standard middleware.
func NewApp(cfg AppConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Caia Extractor API",
		DisableStartupMessage: true,
		BodyLimit:             cfg.BodyLimit,
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(ErrorResponse{Error: err.Error()})
		},
	})

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	if cfg.AccessLog != nil {
		app.Use(logger.New(logger.Config{
			Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${error}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "UTC",
			Output:     cfg.AccessLog,
		}))
	}

	if cfg.CORSOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CORSOrigins,
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
			AllowMethods: "GET, POST, OPTIONS",
		}))
	}

	return app
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, h *Handlers, gatherer prometheus.Gatherer) {
	app.Get("/health", h.Health)

	if gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	v1 := app.Group("/api/v1")
	v1.Get("/stats", h.Stats)
	v1.Post("/extract", h.Extract)
	v1.Post("/forward", h.Forward)

	jobs := v1.Group("/jobs")
	jobs.Post("/", h.StartJob)
	jobs.Get("/:id", h.GetJob)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service":         "Caia Extractor",
			"version":         version,
			"supported_types": extractor.SupportedExtensions(),
		})
	})
}

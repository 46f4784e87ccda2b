// Package main provides the entry point for the Caia Extractor server
package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Caia-Tech/caia-extractor/internal/api"
	"github.com/Caia-Tech/caia-extractor/internal/metrics"
	"github.com/Caia-Tech/caia-extractor/internal/pipeline"
	"github.com/Caia-Tech/caia-extractor/internal/temporal/activities"
	"github.com/Caia-Tech/caia-extractor/internal/temporal/workflows"
	"github.com/Caia-Tech/caia-extractor/pkg/config"
	"github.com/Caia-Tech/caia-extractor/pkg/extractor"
	"github.com/Caia-Tech/caia-extractor/pkg/logging"
	"github.com/Caia-Tech/caia-extractor/pkg/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := logging.SetupLogger(cfg.Logging); err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}
	logger := logging.GetLogger("server")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	collector, err := metrics.NewCollector(registry)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to register metrics")
	}

	engine, err := extractor.NewEngine(cfg.Extraction, extractor.EngineOptions{
		Observer:     collector,
		LoadObserver: collector.ObserveEngineLoad,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create extraction engine")
	}

	sender := transport.NewClient(cfg.API, &http.Client{})

	bus := pipeline.NewEventBus(1000, 2)
	defer bus.Close()
	if _, err := bus.Subscribe(nil, pipeline.LogHandler(logging.GetLogger("events")), 100); err != nil {
		logger.Fatal().Err(err).Msg("Failed to subscribe event logger")
	}

	opts := api.Options{
		Service:     engine.Service,
		Loader:      engine.Loader,
		Transport:   sender,
		Bus:         bus,
		Metrics:     collector,
		MaxFileSize: cfg.Extraction.MaxFileSize,
		Timeout:     cfg.Extraction.ExtractionTimeout,
	}

	if cfg.Temporal.Enabled {
		temporalClient, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.Host,
			Namespace: cfg.Temporal.Namespace,
		})
		if err != nil {
			logger.Fatal().Err(err).Str("host", cfg.Temporal.Host).Msg("Failed to create Temporal client")
		}
		defer temporalClient.Close()

		w := worker.New(temporalClient, cfg.Temporal.TaskQueue, worker.Options{
			MaxConcurrentActivityExecutionSize:     10,
			MaxConcurrentWorkflowTaskExecutionSize: 10,
		})
		w.RegisterWorkflow(workflows.ExtractionWorkflow)
		activities.NewActivities(engine.Service, sender, bus).Register(w)

		go func() {
			if err := w.Run(worker.InterruptCh()); err != nil {
				logger.Fatal().Err(err).Msg("Failed to start worker")
			}
		}()

		opts.Jobs = temporalClient
		opts.TaskQueue = cfg.Temporal.TaskQueue
	}

	bodyLimit := 0
	if cfg.Extraction.MaxFileSize > 0 {
		// Leave room for the multipart envelope; oversized files are
		// rejected by the handler with a clearer message.
		bodyLimit = int(cfg.Extraction.MaxFileSize) + 1<<20
	}

	app := api.NewApp(api.AppConfig{
		CORSOrigins:  cfg.Server.CORSOrigins,
		BodyLimit:    bodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		AccessLog:    os.Stdout,
	})
	api.SetupRoutes(app, api.NewHandlers(opts), registry)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info().Msg("Shutting down server...")
		if err := app.Shutdown(); err != nil {
			logger.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	logger.Info().
		Str("address", cfg.Server.Address()).
		Str("ocr_engine", cfg.Extraction.OCREngine).
		Bool("api_enabled", cfg.API.Enabled).
		Bool("jobs_enabled", cfg.Temporal.Enabled).
		Msg("Starting Caia Extractor server")
	if err := app.Listen(cfg.Server.Address()); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}

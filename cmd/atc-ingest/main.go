// Command atc-ingest runs the air-traffic-control network data ingestion
// core: the Fetcher/Filters/SectorTracker/ProximityDetector/Store/Cleanup
// pipeline on its ingestion cadence, and Summarizer on its own cadence.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unklstewy/atc-ingest/internal/cleanup"
	"github.com/unklstewy/atc-ingest/internal/db"
	"github.com/unklstewy/atc-ingest/internal/filters"
	"github.com/unklstewy/atc-ingest/internal/logging"
	"github.com/unklstewy/atc-ingest/internal/pipeline"
	"github.com/unklstewy/atc-ingest/internal/proximity"
	"github.com/unklstewy/atc-ingest/internal/sector"
	"github.com/unklstewy/atc-ingest/internal/summarizer"
	"github.com/unklstewy/atc-ingest/pkg/config"
	"github.com/unklstewy/atc-ingest/pkg/controller"
	"github.com/unklstewy/atc-ingest/pkg/geo"
	"github.com/unklstewy/atc-ingest/pkg/network"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	summarizeOnce := flag.Bool("summarize-once", false, "Run a single summarizer pass and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, logWriter := logging.New(cfg.Logging)
	defer logWriter.Close()

	logger.Info("starting atc-ingest", "config_path", *configPath)

	database, err := db.Connect(cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	ctx := context.Background()
	if err := database.InitSchema(ctx); err != nil {
		logger.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}
	logger.Info("database schema initialized")

	boundary, err := geo.LoadBoundary(cfg.Geo.BoundaryFile)
	if err != nil {
		logger.Error("failed to load boundary", "error", err)
		os.Exit(1)
	}
	sectors, err := geo.LoadSectors(cfg.Geo.SectorsFile)
	if err != nil {
		logger.Error("failed to load sectors", "error", err)
		os.Exit(1)
	}
	index := geo.NewIndex(boundary, sectors)
	logger.Info("geo index loaded", "sector_count", len(sectors))

	classifier := controller.New(radiusOverrides(cfg.Controllers.RadiusOverridesNM))

	fetcher := network.NewHTTPFeed(network.FeedConfig{
		URL:               cfg.Network.URL,
		ConnectTimeout:    cfg.Network.ConnectTimeout(),
		TotalTimeout:      cfg.Network.TotalTimeout(),
		RequestsPerSecond: cfg.Network.RequestsPerSecond,
		Retry: network.RetryConfig{
			MaxRetries:   cfg.Network.MaxRetries,
			InitialDelay: durationSeconds(cfg.Network.InitialRetryDelaySeconds),
			MaxDelay:     durationSeconds(cfg.Network.MaxRetryDelaySeconds),
			Multiplier:   2.0,
		},
	})

	flightRepo := db.NewFlightRepository(database)
	controllerRepo := db.NewControllerRepository(database)
	transceiverRepo := db.NewTransceiverRepository(database)
	sectorRepo := db.NewSectorRepository(database)
	interactionRepo := db.NewInteractionRepository(database)
	summaryRepo := db.NewSummaryRepository(database)

	tracker := sector.New(index, sectorRepo)
	if err := tracker.Seed(ctx); err != nil {
		logger.Error("failed to seed sector tracker", "error", err)
		os.Exit(1)
	}

	summ := summarizer.New(summaryRepo, cfg.Summarizer.CompletionThreshold(), cfg.Summarizer.Retention(), cfg.Summarizer.BatchLimit, logger)

	if *summarizeOnce {
		if err := summ.Run(ctx); err != nil {
			logger.Error("summarizer run failed", "error", err)
			os.Exit(1)
		}
		logger.Info("summarizer pass complete")
		return
	}

	orchestrator := pipeline.New(pipeline.Config{
		Fetcher:      fetcher,
		Filters:      filters.New(index),
		Tracker:      tracker,
		Detector:     proximity.New(classifier),
		Classifier:   classifier,
		Flights:      flightRepo,
		Controllers:  controllerRepo,
		Transceivers: transceiverRepo,
		Interactions: interactionRepo,
		Cleanup:      cleanup.New(flightRepo, sectorRepo, tracker, cfg.Cleanup.StaleAfter(), logger),
		Summarizer:   summ,

		TickInterval:       cfg.Ingest.TickInterval(),
		SummarizerInterval: cfg.Summarizer.Interval(),
		Logger:             logger,
	})

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 2)
	go func() { errs <- orchestrator.RunIngestionLoop(runCtx) }()
	go func() { errs <- orchestrator.RunSummarizationLoop(runCtx) }()

	logger.Info("atc-ingest running", "tick_interval", cfg.Ingest.TickInterval(), "summarizer_interval", cfg.Summarizer.Interval())

	<-runCtx.Done()
	logger.Info("shutdown signal received, draining in-flight ticks")

	// Both loops return context.Canceled once runCtx is done; drain them
	// so the process does not exit before their in-flight writes finish.
	<-errs
	<-errs

	logger.Info("atc-ingest stopped")
}

func durationSeconds(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

func radiusOverrides(byName map[string]float64) map[controller.Type]float64 {
	overrides := make(map[controller.Type]float64, len(byName))
	for name, radius := range byName {
		overrides[controller.Type(name)] = radius
	}
	return overrides
}

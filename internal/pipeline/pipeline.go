// Package pipeline drives the ingestion loop and the independent
// summarization loop that together keep the network snapshot flowing into
// storage.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/unklstewy/atc-ingest/internal/cleanup"
	"github.com/unklstewy/atc-ingest/internal/db"
	"github.com/unklstewy/atc-ingest/internal/filters"
	"github.com/unklstewy/atc-ingest/internal/proximity"
	"github.com/unklstewy/atc-ingest/internal/sector"
	"github.com/unklstewy/atc-ingest/internal/summarizer"
	"github.com/unklstewy/atc-ingest/pkg/controller"
	"github.com/unklstewy/atc-ingest/pkg/network"
)

// Orchestrator wires every stage together and drives the two cooperative
// loops: the ingestion loop and the summarization loop. The only
// process-local mutable state it touches is the sector tracker's in-memory
// map, which is owned exclusively by the ingestion loop.
type Orchestrator struct {
	fetcher     network.Source
	filters     *filters.Pipeline
	tracker     *sector.Tracker
	detector    *proximity.Detector
	classifier  *controller.Classifier
	flights     *db.FlightRepository
	controllers *db.ControllerRepository
	transceivers *db.TransceiverRepository
	interactions *db.InteractionRepository
	cleanup     *cleanup.Reconciler
	summarizer  *summarizer.Summarizer

	tickInterval      time.Duration
	summarizerInterval time.Duration
	logger            *slog.Logger
}

// Config bundles the dependencies New needs. All fields are required.
type Config struct {
	Fetcher      network.Source
	Filters      *filters.Pipeline
	Tracker      *sector.Tracker
	Detector     *proximity.Detector
	Classifier   *controller.Classifier
	Flights      *db.FlightRepository
	Controllers  *db.ControllerRepository
	Transceivers *db.TransceiverRepository
	Interactions *db.InteractionRepository
	Cleanup      *cleanup.Reconciler
	Summarizer   *summarizer.Summarizer

	TickInterval       time.Duration
	SummarizerInterval time.Duration
	Logger             *slog.Logger
}

// New builds an Orchestrator.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{
		fetcher:            cfg.Fetcher,
		filters:            cfg.Filters,
		tracker:            cfg.Tracker,
		detector:           cfg.Detector,
		classifier:         cfg.Classifier,
		flights:            cfg.Flights,
		controllers:        cfg.Controllers,
		transceivers:       cfg.Transceivers,
		interactions:       cfg.Interactions,
		cleanup:            cfg.Cleanup,
		summarizer:         cfg.Summarizer,
		tickInterval:       cfg.TickInterval,
		summarizerInterval: cfg.SummarizerInterval,
		logger:             cfg.Logger,
	}
}

// RunIngestionLoop drives the fetch/filter/track/pair/store/cleanup cycle
// on tickInterval until ctx is cancelled. Each tick runs against its own
// detached, timeout-bounded context so that a shutdown signal lets the
// in-flight tick finish its writes rather than aborting them mid-batch;
// the loop itself still stops promptly because it only waits on ctx
// between ticks.
//
// Back-pressure: time.Ticker drops ticks for a slow receiver rather than
// queuing them, which is exactly the "skip, don't queue" policy this
// loop requires when a tick overruns the interval.
func (o *Orchestrator) RunIngestionLoop(ctx context.Context) error {
	ticker := time.NewTicker(o.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			tickCtx, cancel := context.WithTimeout(context.Background(), o.tickInterval)
			o.runTick(tickCtx)
			cancel()
		}
	}
}

func (o *Orchestrator) runTick(ctx context.Context) {
	start := time.Now()

	snap, err := o.fetcher.Fetch(ctx)
	if err != nil {
		o.logger.Warn("tick skipped: fetch failed", "error", err)
		return
	}

	result := o.filters.Apply(snap)

	if err := o.tracker.Update(ctx, result.Flights); err != nil {
		o.logger.Error("tick: sector tracker update reported errors", "error", err)
	}

	interactions := o.detector.Pair(result.Flights, result.Controllers, snap.ServerTimestamp)

	if err := o.flights.BulkUpsertFlights(ctx, result.Flights); err != nil {
		o.logger.Error("tick: bulk upsert flights failed", "error", err)
	}
	if err := o.controllers.BulkInsertControllers(ctx, result.Controllers, o.classifyControllers(result.Controllers)); err != nil {
		o.logger.Error("tick: bulk insert controllers failed", "error", err)
	}
	if err := o.transceivers.InsertTransceivers(ctx, snap.ServerTimestamp, result.Transceivers); err != nil {
		o.logger.Error("tick: insert transceivers failed", "error", err)
	}
	if err := o.interactions.InsertInteractions(ctx, interactions); err != nil {
		o.logger.Error("tick: insert interactions failed", "error", err)
	}

	o.cleanup.Reconcile(ctx)

	o.logger.Info("tick complete",
		"duration", time.Since(start),
		"flights", len(result.Flights),
		"controllers", len(result.Controllers),
		"transceivers", len(result.Transceivers),
		"interactions", len(interactions),
	)
}

// classifyControllers resolves each controller sample's type once per
// tick for the Store write. ProximityDetector.Pair classifies controllers
// separately.
func (o *Orchestrator) classifyControllers(samples []network.ControllerSample) map[string]controller.Type {
	types := make(map[string]controller.Type, len(samples))
	for _, s := range samples {
		t, _ := o.classifier.Classify(s.Callsign, s.FacilityCode)
		types[s.Callsign] = t
	}
	return types
}

// RunSummarizationLoop drives Summarizer on its own cadence, independent
// of the ingestion loop, until ctx is cancelled.
func (o *Orchestrator) RunSummarizationLoop(ctx context.Context) error {
	ticker := time.NewTicker(o.summarizerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(context.Background(), o.summarizerInterval)
			if err := o.summarizer.Run(runCtx); err != nil {
				o.logger.Error("summarizer run failed", "error", err)
			}
			cancel()
		}
	}
}

// Package summarizer periodically aggregates completed flights into
// flight_summaries rows and archives their live samples.
package summarizer

import (
	"context"
	"log/slog"
	"time"

	"github.com/unklstewy/atc-ingest/internal/db"
)

// Summarizer runs on its own cadence, independent of the ingestion loop.
type Summarizer struct {
	repo                *db.SummaryRepository
	completionThreshold time.Duration
	retention           time.Duration
	batchLimit          int
	logger              *slog.Logger
}

// New builds a Summarizer.
func New(repo *db.SummaryRepository, completionThreshold, retention time.Duration, batchLimit int, logger *slog.Logger) *Summarizer {
	return &Summarizer{
		repo:                repo,
		completionThreshold: completionThreshold,
		retention:           retention,
		batchLimit:          batchLimit,
		logger:              logger,
	}
}

// Run executes one summarization pass: a bounded batch of completed
// flights is aggregated and archived, then stale archive rows are purged.
// Each flight is processed in its own transaction, so one flight's failure
// does not block the rest of the batch; the next run retries it.
func (s *Summarizer) Run(ctx context.Context) error {
	completionAge := time.Now().Add(-s.completionThreshold)

	keys, err := s.repo.FindCompletedFlights(ctx, completionAge, s.batchLimit)
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := s.summarizeOne(ctx, key); err != nil {
			s.logger.Error("summarizer: failed to summarize flight", "callsign", key.Callsign, "pilot_id", key.PilotID, "error", err)
			continue
		}
		s.logger.Info("summarizer: archived flight", "callsign", key.Callsign, "pilot_id", key.PilotID)
	}

	cutoff := time.Now().Add(-s.retention)
	purged, err := s.repo.DeleteArchiveOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("summarizer: failed to purge archive", "error", err)
		return err
	}
	if purged > 0 {
		s.logger.Info("summarizer: purged archive rows", "count", purged, "cutoff", cutoff)
	}

	return nil
}

func (s *Summarizer) summarizeOne(ctx context.Context, key db.CompletedFlightKey) error {
	return db.WithRetry(ctx, func() error {
		tx, err := s.repo.BeginTx(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		agg, err := s.repo.AggregateFlight(ctx, tx, key)
		if err != nil {
			return err
		}

		if err := s.repo.MoveToArchive(ctx, tx, agg); err != nil {
			return err
		}

		return tx.Commit()
	}, 3)
}

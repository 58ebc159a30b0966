// Package cleanup reconciles aircraft that disappeared from the network
// feed without a clean sector exit.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/unklstewy/atc-ingest/internal/db"
	"github.com/unklstewy/atc-ingest/internal/sector"
)

// Reconciler runs after every successful pipeline tick to close sectors
// left open by aircraft that stopped appearing in the snapshot.
type Reconciler struct {
	flights *db.FlightRepository
	sectors *db.SectorRepository
	tracker *sector.Tracker
	staleAfter time.Duration
	logger  *slog.Logger
}

// New builds a Reconciler.
func New(flights *db.FlightRepository, sectors *db.SectorRepository, tracker *sector.Tracker, staleAfter time.Duration, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		flights:    flights,
		sectors:    sectors,
		tracker:    tracker,
		staleAfter: staleAfter,
		logger:     logger,
	}
}

// Reconcile runs one pass. It never returns an error to the caller:
// failures are logged and retried on the next tick, matching the
// "cleanup must never abort the ingestion loop" contract.
func (r *Reconciler) Reconcile(ctx context.Context) {
	cutoff := time.Now().Add(-r.staleAfter)

	stale, err := r.flights.FindStaleAircraft(ctx, cutoff)
	if err != nil {
		r.logger.Error("cleanup: find stale aircraft failed", "error", err)
		return
	}

	for _, a := range stale {
		if err := r.sectors.CloseAllOpenSectorsFor(ctx, a.Callsign, a.PilotID, a.LastSeenAt, a.LastLatitude, a.LastLongitude, a.LastAltitudeFt); err != nil {
			r.logger.Error("cleanup: close open sectors failed", "callsign", a.Callsign, "pilot_id", a.PilotID, "error", err)
			continue
		}

		r.tracker.Remove(sector.AircraftKey{Callsign: a.Callsign, PilotID: a.PilotID})
		r.logger.Info("cleanup: closed stale aircraft", "callsign", a.Callsign, "pilot_id", a.PilotID, "last_seen_at", a.LastSeenAt)
	}
}

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/unklstewy/atc-ingest/pkg/network"
)

// MaxFlightBatchSize bounds how many samples are upserted in a single
// transaction, per the Store contract's default batch size.
const MaxFlightBatchSize = 500

// FlightRepository persists FlightSample rows to the live table.
type FlightRepository struct {
	db *DB
}

// NewFlightRepository builds a FlightRepository.
func NewFlightRepository(db *DB) *FlightRepository {
	return &FlightRepository{db: db}
}

// BulkUpsertFlights appends samples, batching at MaxFlightBatchSize and
// running each batch in its own transaction. Duplicates at the same
// (callsign, pilot_id, observed_at) are idempotently ignored.
func (r *FlightRepository) BulkUpsertFlights(ctx context.Context, samples []network.FlightSample) error {
	for start := 0; start < len(samples); start += MaxFlightBatchSize {
		end := start + MaxFlightBatchSize
		if end > len(samples) {
			end = len(samples)
		}
		if err := r.upsertBatch(ctx, samples[start:end]); err != nil {
			return fmt.Errorf("upsert flight batch [%d:%d]: %w", start, end, err)
		}
	}
	return nil
}

func (r *FlightRepository) upsertBatch(ctx context.Context, batch []network.FlightSample) error {
	return WithRetry(ctx, func() error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO flight_samples (
				callsign, pilot_id, observed_at, latitude, longitude, altitude_ft,
				groundspeed_kts, heading_deg, departure_icao, arrival_icao,
				aircraft_type, flight_rules, raw_flight_plan
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
			ON CONFLICT (callsign, pilot_id, observed_at) DO NOTHING`)
		if err != nil {
			return fmt.Errorf("prepare upsert: %w", err)
		}
		defer stmt.Close()

		for _, s := range batch {
			var lat, lon, gs interface{}
			if s.HasPosition {
				lat, lon = s.Latitude, s.Longitude
			}
			if s.GroundSpeed != nil {
				gs = *s.GroundSpeed
			}

			if _, err := stmt.ExecContext(ctx,
				s.Callsign, s.PilotID, s.ObservedAt, lat, lon, s.Altitude,
				gs, s.Heading, s.DepartureICAO, s.ArrivalICAO,
				s.AircraftType, string(s.FlightRules), s.RawFlightPlan,
			); err != nil {
				return fmt.Errorf("exec upsert for %s: %w", s.Callsign, err)
			}
		}

		return tx.Commit()
	}, 3)
}

// StaleAircraft is one entry of Store.find_stale_aircraft: an aircraft with
// at least one open sector and no sample newer than the cutoff.
type StaleAircraft struct {
	Callsign       string
	PilotID        int64
	LastLatitude   float64
	LastLongitude  float64
	LastAltitudeFt float64
	LastSeenAt     time.Time
}

// FindStaleAircraft returns aircraft with an open sector occupancy and no
// sample newer than olderThan, per the Cleanup component's contract.
func (r *FlightRepository) FindStaleAircraft(ctx context.Context, olderThan time.Time) ([]StaleAircraft, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT so.callsign, so.pilot_id,
		       latest.latitude, latest.longitude, latest.altitude_ft, latest.observed_at
		FROM sector_occupancies so
		JOIN LATERAL (
			SELECT latitude, longitude, altitude_ft, observed_at
			FROM flight_samples fs
			WHERE fs.callsign = so.callsign AND fs.pilot_id = so.pilot_id
			ORDER BY observed_at DESC
			LIMIT 1
		) latest ON TRUE
		WHERE so.is_active = TRUE
		  AND latest.observed_at < $1`, olderThan)
	if err != nil {
		return nil, fmt.Errorf("query stale aircraft: %w", err)
	}
	defer rows.Close()

	var result []StaleAircraft
	for rows.Next() {
		var s StaleAircraft
		if err := rows.Scan(&s.Callsign, &s.PilotID, &s.LastLatitude, &s.LastLongitude, &s.LastAltitudeFt, &s.LastSeenAt); err != nil {
			return nil, fmt.Errorf("scan stale aircraft: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

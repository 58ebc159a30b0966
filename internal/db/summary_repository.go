package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// CompletedFlightKey identifies a flight whose last sample predates the
// completion threshold.
type CompletedFlightKey struct {
	Callsign string
	PilotID  int64
}

// SectorMinutes is one entry of a FlightSummary's sectors_visited list.
type SectorMinutes struct {
	SectorName string  `json:"sector_name"`
	Minutes    float64 `json:"minutes"`
}

// ControllerContact is one entry of a FlightSummary's controller_interactions map.
type ControllerContact struct {
	Type          string    `json:"type"`
	Minutes       float64   `json:"minutes"`
	FirstContactAt time.Time `json:"first_contact_at"`
	LastContactAt  time.Time `json:"last_contact_at"`
}

// FlightAggregate is the fully-aggregated FlightSummary data computed by
// AggregateFlight, ready to insert.
type FlightAggregate struct {
	Callsign               string
	PilotID                int64
	DepartureICAO          string
	ArrivalICAO            string
	AircraftType           string
	TotalSamples           int
	FirstSeenAt            time.Time
	LastSeenAt             time.Time
	TotalDistanceNM        float64
	AvgGroundspeedKts      float64
	MaxAltitudeFt          float64
	SectorsVisited         []SectorMinutes
	ControllerInteractions map[string]ControllerContact
}

// SummaryRepository implements the Summarizer's Store primitives.
type SummaryRepository struct {
	db *DB
}

// NewSummaryRepository builds a SummaryRepository.
func NewSummaryRepository(db *DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// FindCompletedFlights returns a bounded batch of (callsign, pilot_id)
// pairs whose most recent sample predates completionAge.
func (r *SummaryRepository) FindCompletedFlights(ctx context.Context, completionAge time.Time, batchLimit int) ([]CompletedFlightKey, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT callsign, pilot_id
		FROM flight_samples
		GROUP BY callsign, pilot_id
		HAVING MAX(observed_at) < $1
		ORDER BY callsign, pilot_id
		LIMIT $2`, completionAge, batchLimit)
	if err != nil {
		return nil, fmt.Errorf("query completed flights: %w", err)
	}
	defer rows.Close()

	var keys []CompletedFlightKey
	for rows.Next() {
		var k CompletedFlightKey
		if err := rows.Scan(&k.Callsign, &k.PilotID); err != nil {
			return nil, fmt.Errorf("scan completed flight: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// AggregateFlight computes the summary attributes for one flight from its
// live rows. Must be called within the same transaction that subsequently
// moves the flight to archive, so the two operations are atomic.
func (r *SummaryRepository) AggregateFlight(ctx context.Context, tx *sql.Tx, key CompletedFlightKey) (*FlightAggregate, error) {
	agg := &FlightAggregate{Callsign: key.Callsign, PilotID: key.PilotID}

	err := tx.QueryRowContext(ctx, `
		SELECT
			COALESCE(MAX(departure_icao), ''),
			COALESCE(MAX(arrival_icao), ''),
			COALESCE(MAX(aircraft_type), ''),
			COUNT(*),
			MIN(observed_at),
			MAX(observed_at),
			COALESCE(AVG(groundspeed_kts), 0),
			COALESCE(MAX(altitude_ft), 0)
		FROM flight_samples
		WHERE callsign = $1 AND pilot_id = $2`,
		key.Callsign, key.PilotID,
	).Scan(&agg.DepartureICAO, &agg.ArrivalICAO, &agg.AircraftType, &agg.TotalSamples,
		&agg.FirstSeenAt, &agg.LastSeenAt, &agg.AvgGroundspeedKts, &agg.MaxAltitudeFt)
	if err != nil {
		return nil, fmt.Errorf("aggregate flight samples: %w", err)
	}

	agg.TotalDistanceNM, err = r.totalDistance(ctx, tx, key)
	if err != nil {
		return nil, err
	}

	agg.SectorsVisited, err = r.sectorMinutes(ctx, tx, key)
	if err != nil {
		return nil, err
	}

	agg.ControllerInteractions, err = r.controllerContacts(ctx, tx, key)
	if err != nil {
		return nil, err
	}

	return agg, nil
}

func (r *SummaryRepository) totalDistance(ctx context.Context, tx *sql.Tx, key CompletedFlightKey) (float64, error) {
	// Great-circle distance between consecutive samples, summed in SQL using
	// the haversine formula with earth radius 3440.065 nm, matching
	// coordinates.EarthRadiusNM, which ProximityDetector uses.
	var total sql.NullFloat64
	err := tx.QueryRowContext(ctx, `
		WITH ordered AS (
			SELECT latitude, longitude, observed_at,
			       LAG(latitude) OVER (ORDER BY observed_at) AS prev_lat,
			       LAG(longitude) OVER (ORDER BY observed_at) AS prev_lon
			FROM flight_samples
			WHERE callsign = $1 AND pilot_id = $2
			  AND latitude IS NOT NULL AND longitude IS NOT NULL
		)
		SELECT COALESCE(SUM(
			2 * 3440.065 * ASIN(SQRT(
				POWER(SIN(RADIANS(latitude - prev_lat) / 2), 2) +
				COS(RADIANS(prev_lat)) * COS(RADIANS(latitude)) *
				POWER(SIN(RADIANS(longitude - prev_lon) / 2), 2)
			))
		), 0)
		FROM ordered
		WHERE prev_lat IS NOT NULL`,
		key.Callsign, key.PilotID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("aggregate total distance: %w", err)
	}
	return total.Float64, nil
}

func (r *SummaryRepository) sectorMinutes(ctx context.Context, tx *sql.Tx, key CompletedFlightKey) ([]SectorMinutes, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT sector_name, COALESCE(SUM(duration_seconds), 0) / 60.0
		FROM sector_occupancies
		WHERE callsign = $1 AND pilot_id = $2 AND exit_at IS NOT NULL
		GROUP BY sector_name
		ORDER BY sector_name`,
		key.Callsign, key.PilotID)
	if err != nil {
		return nil, fmt.Errorf("aggregate sector minutes: %w", err)
	}
	defer rows.Close()

	var result []SectorMinutes
	for rows.Next() {
		var s SectorMinutes
		if err := rows.Scan(&s.SectorName, &s.Minutes); err != nil {
			return nil, fmt.Errorf("scan sector minutes: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *SummaryRepository) controllerContacts(ctx context.Context, tx *sql.Tx, key CompletedFlightKey) (map[string]ControllerContact, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT controller_callsign, controller_type,
		       COUNT(*) AS sample_count, MIN(observed_at), MAX(observed_at)
		FROM interactions
		WHERE flight_callsign = $1 AND flight_pilot_id = $2
		GROUP BY controller_callsign, controller_type`,
		key.Callsign, key.PilotID)
	if err != nil {
		return nil, fmt.Errorf("aggregate controller contacts: %w", err)
	}
	defer rows.Close()

	result := make(map[string]ControllerContact)
	for rows.Next() {
		var callsign, ctype string
		var count int
		var first, last time.Time
		if err := rows.Scan(&callsign, &ctype, &count, &first, &last); err != nil {
			return nil, fmt.Errorf("scan controller contact: %w", err)
		}
		result[callsign] = ControllerContact{
			Type:           ctype,
			Minutes:        last.Sub(first).Minutes(),
			FirstContactAt: first,
			LastContactAt:  last,
		}
	}
	return result, rows.Err()
}

// MoveToArchive inserts the FlightSummary row, copies the flight's live
// rows into flight_archive, and deletes them from the live table, all
// within tx. If the flight is already summarized, the summary insert is
// skipped (ON CONFLICT DO NOTHING) and the existing summary is kept; any
// live rows present are still copied and deleted. Because a completed
// flight has no live rows left after its first pass, a later Summarizer
// run does not select it again.
func (r *SummaryRepository) MoveToArchive(ctx context.Context, tx *sql.Tx, agg *FlightAggregate) error {
	sectorsJSON, err := json.Marshal(agg.SectorsVisited)
	if err != nil {
		return fmt.Errorf("marshal sectors visited: %w", err)
	}
	contactsJSON, err := json.Marshal(agg.ControllerInteractions)
	if err != nil {
		return fmt.Errorf("marshal controller interactions: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO flight_summaries (
			callsign, pilot_id, departure_icao, arrival_icao, aircraft_type,
			total_samples, first_seen_at, last_seen_at, total_distance_nm,
			avg_groundspeed_kts, max_altitude_ft, sectors_visited, controller_interactions
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (callsign, pilot_id) DO NOTHING`,
		agg.Callsign, agg.PilotID, agg.DepartureICAO, agg.ArrivalICAO, agg.AircraftType,
		agg.TotalSamples, agg.FirstSeenAt, agg.LastSeenAt, agg.TotalDistanceNM,
		agg.AvgGroundspeedKts, agg.MaxAltitudeFt, sectorsJSON, contactsJSON,
	)
	if err != nil {
		return fmt.Errorf("insert flight summary: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO flight_archive (
			id, callsign, pilot_id, observed_at, latitude, longitude, altitude_ft,
			groundspeed_kts, heading_deg, departure_icao, arrival_icao,
			aircraft_type, flight_rules, raw_flight_plan
		)
		SELECT id, callsign, pilot_id, observed_at, latitude, longitude, altitude_ft,
		       groundspeed_kts, heading_deg, departure_icao, arrival_icao,
		       aircraft_type, flight_rules, raw_flight_plan
		FROM flight_samples
		WHERE callsign = $1 AND pilot_id = $2`,
		agg.Callsign, agg.PilotID,
	)
	if err != nil {
		return fmt.Errorf("copy to archive: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM flight_samples WHERE callsign = $1 AND pilot_id = $2`,
		agg.Callsign, agg.PilotID,
	)
	if err != nil {
		return fmt.Errorf("delete live rows: %w", err)
	}

	return nil
}

// DeleteArchiveOlderThan deletes archive rows whose sample was observed
// before the retention window, in a transaction separate from
// MoveToArchive. Filtering on observed_at rather than archived_at keeps
// the purge true to the retention invariant even for a flight summarized
// late (Summarizer backlog, or a long-lived flight archived well after its
// last sample).
func (r *SummaryRepository) DeleteArchiveOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var affected int64
	err := WithRetry(ctx, func() error {
		result, err := r.db.ExecContext(ctx, `DELETE FROM flight_archive WHERE observed_at < $1`, cutoff)
		if err != nil {
			return fmt.Errorf("delete old archive rows: %w", err)
		}
		affected, err = result.RowsAffected()
		return err
	}, 3)
	return affected, err
}

// BeginTx exposes transaction creation for callers that must aggregate and
// archive a flight atomically.
func (r *SummaryRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return r.db.BeginTx(ctx, nil)
}

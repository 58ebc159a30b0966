package db

import (
	"context"
	"fmt"
	"time"
)

// SectorEntry is the row SectorTracker writes on admitting an aircraft into
// a sector.
type SectorEntry struct {
	Callsign         string
	PilotID          int64
	SectorName       string
	EntryAt          time.Time
	EntryLat         float64
	EntryLon         float64
	EntryAltitudeFt  float64
}

// SectorExit carries the fields written when a sector occupancy is closed,
// either by SectorTracker (geometric or speed-gated exit) or by Cleanup
// (staleness).
type SectorExit struct {
	Callsign        string
	PilotID         int64
	SectorName      string
	EntryAt         time.Time
	ExitAt          time.Time
	ExitLat         float64
	ExitLon         float64
	ExitAltitudeFt  float64
}

// OpenSectorRow is a currently-open occupancy, used to seed SectorTracker's
// in-memory state on startup.
type OpenSectorRow struct {
	Callsign        string
	PilotID         int64
	SectorName      string
	EntryAt         time.Time
	EntryLat        float64
	EntryLon        float64
	EntryAltitudeFt float64
}

// SectorRepository implements the open_sector/close_sector primitives of
// the Store contract.
type SectorRepository struct {
	db *DB
}

// NewSectorRepository builds a SectorRepository.
func NewSectorRepository(db *DB) *SectorRepository {
	return &SectorRepository{db: db}
}

// OpenSector inserts an active occupancy row on sector entry.
func (r *SectorRepository) OpenSector(ctx context.Context, entry SectorEntry) error {
	return WithRetry(ctx, func() error {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO sector_occupancies (
				callsign, pilot_id, sector_name, entry_at, entry_lat, entry_lon,
				entry_altitude_ft, is_active
			) VALUES ($1,$2,$3,$4,$5,$6,$7, TRUE)`,
			entry.Callsign, entry.PilotID, entry.SectorName, entry.EntryAt,
			entry.EntryLat, entry.EntryLon, entry.EntryAltitudeFt,
		)
		if err != nil {
			return fmt.Errorf("open sector %s for %s/%d: %w", entry.SectorName, entry.Callsign, entry.PilotID, err)
		}
		return nil
	}, 3)
}

// CloseSector closes the occupancy row keyed on (callsign, pilot_id,
// sector_name, entry_at), per the Store contract's close_sector primitive.
func (r *SectorRepository) CloseSector(ctx context.Context, exit SectorExit) error {
	return WithRetry(ctx, func() error {
		duration := exit.ExitAt.Sub(exit.EntryAt).Seconds()
		_, err := r.db.ExecContext(ctx, `
			UPDATE sector_occupancies
			SET exit_at = $1, exit_lat = $2, exit_lon = $3, exit_altitude_ft = $4,
			    duration_seconds = $5, is_active = FALSE
			WHERE callsign = $6 AND pilot_id = $7 AND sector_name = $8 AND entry_at = $9
			  AND is_active = TRUE`,
			exit.ExitAt, exit.ExitLat, exit.ExitLon, exit.ExitAltitudeFt, duration,
			exit.Callsign, exit.PilotID, exit.SectorName, exit.EntryAt,
		)
		if err != nil {
			return fmt.Errorf("close sector %s for %s/%d: %w", exit.SectorName, exit.Callsign, exit.PilotID, err)
		}
		return nil
	}, 3)
}

// CloseAllOpenSectorsFor closes every open occupancy for one aircraft in a
// single transaction, used by Cleanup on staleness detection.
func (r *SectorRepository) CloseAllOpenSectorsFor(ctx context.Context, callsign string, pilotID int64, exitAt time.Time, lat, lon, altitudeFt float64) error {
	return WithRetry(ctx, func() error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		rows, err := tx.QueryContext(ctx, `
			SELECT sector_name, entry_at FROM sector_occupancies
			WHERE callsign = $1 AND pilot_id = $2 AND is_active = TRUE`,
			callsign, pilotID)
		if err != nil {
			return fmt.Errorf("query open sectors: %w", err)
		}

		type key struct {
			sectorName string
			entryAt    time.Time
		}
		var open []key
		for rows.Next() {
			var k key
			if err := rows.Scan(&k.sectorName, &k.entryAt); err != nil {
				rows.Close()
				return fmt.Errorf("scan open sector: %w", err)
			}
			open = append(open, k)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate open sectors: %w", err)
		}

		for _, k := range open {
			duration := exitAt.Sub(k.entryAt).Seconds()
			if _, err := tx.ExecContext(ctx, `
				UPDATE sector_occupancies
				SET exit_at = $1, exit_lat = $2, exit_lon = $3, exit_altitude_ft = $4,
				    duration_seconds = $5, is_active = FALSE
				WHERE callsign = $6 AND pilot_id = $7 AND sector_name = $8 AND entry_at = $9`,
				exitAt, lat, lon, altitudeFt, duration,
				callsign, pilotID, k.sectorName, k.entryAt,
			); err != nil {
				return fmt.Errorf("close sector %s for %s/%d: %w", k.sectorName, callsign, pilotID, err)
			}
		}

		return tx.Commit()
	}, 3)
}

// SeedOpenSectors returns every currently-active occupancy, used by
// SectorTracker on startup to reconstruct its in-memory map after a
// restart.
func (r *SectorRepository) SeedOpenSectors(ctx context.Context) ([]OpenSectorRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT callsign, pilot_id, sector_name, entry_at, entry_lat, entry_lon, entry_altitude_ft
		FROM sector_occupancies
		WHERE is_active = TRUE`)
	if err != nil {
		return nil, fmt.Errorf("query open sectors: %w", err)
	}
	defer rows.Close()

	var result []OpenSectorRow
	for rows.Next() {
		var o OpenSectorRow
		if err := rows.Scan(&o.Callsign, &o.PilotID, &o.SectorName, &o.EntryAt, &o.EntryLat, &o.EntryLon, &o.EntryAltitudeFt); err != nil {
			return nil, fmt.Errorf("scan open sector: %w", err)
		}
		result = append(result, o)
	}
	return result, rows.Err()
}

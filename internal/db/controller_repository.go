package db

import (
	"context"
	"fmt"

	"github.com/unklstewy/atc-ingest/pkg/controller"
	"github.com/unklstewy/atc-ingest/pkg/network"
)

// ControllerRepository persists ControllerSample rows, append-only.
type ControllerRepository struct {
	db *DB
}

// NewControllerRepository builds a ControllerRepository.
func NewControllerRepository(db *DB) *ControllerRepository {
	return &ControllerRepository{db: db}
}

// BulkInsertControllers appends controller samples with their derived
// type tag. No uniqueness constraint on callsign: duplicate (callsign,
// observed_at) rows are explicitly permitted.
func (r *ControllerRepository) BulkInsertControllers(ctx context.Context, samples []network.ControllerSample, types map[string]controller.Type) error {
	if len(samples) == 0 {
		return nil
	}

	return WithRetry(ctx, func() error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO controller_samples (
				callsign, pilot_id, observed_at, frequency, name, rating,
				facility_code, controller_type, has_position, latitude, longitude
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, s := range samples {
			var lat, lon interface{}
			if s.HasPosition {
				lat, lon = s.Latitude, s.Longitude
			}

			ctype := types[s.Callsign]
			if ctype == "" {
				ctype = controller.Unknown
			}

			if _, err := stmt.ExecContext(ctx,
				s.Callsign, s.PilotID, s.ObservedAt, s.Frequency, s.Name, s.Rating,
				s.FacilityCode, string(ctype), s.HasPosition, lat, lon,
			); err != nil {
				return fmt.Errorf("exec insert for %s: %w", s.Callsign, err)
			}
		}

		return tx.Commit()
	}, 3)
}

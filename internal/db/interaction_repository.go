package db

import (
	"context"
	"fmt"
	"time"
)

// Interaction is a detected flight/controller proximity pairing.
type Interaction struct {
	FlightCallsign     string
	FlightPilotID      int64
	ControllerCallsign string
	ControllerType     string
	DistanceNM         float64
	ProximityNM        float64
	ObservedAt         time.Time
}

// InteractionRepository appends Interaction rows, batched per tick.
type InteractionRepository struct {
	db *DB
}

// NewInteractionRepository builds an InteractionRepository.
func NewInteractionRepository(db *DB) *InteractionRepository {
	return &InteractionRepository{db: db}
}

// InsertInteractions appends interaction rows in one transaction.
func (r *InteractionRepository) InsertInteractions(ctx context.Context, rows []Interaction) error {
	if len(rows) == 0 {
		return nil
	}

	return WithRetry(ctx, func() error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO interactions (
				flight_callsign, flight_pilot_id, controller_callsign, controller_type,
				distance_nm, proximity_nm, observed_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7)`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, i := range rows {
			if _, err := stmt.ExecContext(ctx,
				i.FlightCallsign, i.FlightPilotID, i.ControllerCallsign, i.ControllerType,
				i.DistanceNM, i.ProximityNM, i.ObservedAt,
			); err != nil {
				return fmt.Errorf("exec insert for %s/%s: %w", i.FlightCallsign, i.ControllerCallsign, err)
			}
		}

		return tx.Commit()
	}, 3)
}

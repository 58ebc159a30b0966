package db

import (
	"context"
	"fmt"
	"time"

	"github.com/unklstewy/atc-ingest/pkg/network"
)

// TransceiverRepository persists TransceiverSample rows, append-only.
type TransceiverRepository struct {
	db *DB
}

// NewTransceiverRepository builds a TransceiverRepository.
func NewTransceiverRepository(db *DB) *TransceiverRepository {
	return &TransceiverRepository{db: db}
}

// InsertTransceivers appends transceiver rows for one tick.
func (r *TransceiverRepository) InsertTransceivers(ctx context.Context, observedAt time.Time, rows []network.TransceiverSample) error {
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
			INSERT INTO transceiver_samples (
				entity_type, entity_id, observed_at, frequency_hz, latitude, longitude, height_ft
			) VALUES ($1,$2,$3,$4,$5,$6,$7)`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, t := range rows {
			if _, err := stmt.ExecContext(ctx,
				string(t.EntityType), t.EntityID, observedAt, t.FrequencyHz, t.Latitude, t.Longitude, t.HeightFt,
			); err != nil {
				return fmt.Errorf("exec insert for entity %d: %w", t.EntityID, err)
			}
		}

		return tx.Commit()
	}, 3)
}

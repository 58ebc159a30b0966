package db

import "testing"

func TestNewFlightRepository(t *testing.T) {
	repo := NewFlightRepository(nil)
	if repo == nil {
		t.Fatal("expected non-nil repository")
	}
}

func TestMaxFlightBatchSize(t *testing.T) {
	if MaxFlightBatchSize != 500 {
		t.Errorf("expected default batch size of 500, got %d", MaxFlightBatchSize)
	}
}

func TestBulkUpsertFlightsNoopOnEmpty(t *testing.T) {
	repo := NewFlightRepository(nil)
	// An empty batch must not touch the (nil) connection.
	if err := repo.BulkUpsertFlights(nil, nil); err != nil {
		t.Errorf("expected no error for empty batch, got %v", err)
	}
}

package cleanup

import (
	"log/slog"
	"testing"
	"time"

	"github.com/unklstewy/atc-ingest/internal/db"
	"github.com/unklstewy/atc-ingest/internal/sector"
)

func TestNewReconciler(t *testing.T) {
	flights := db.NewFlightRepository(nil)
	sectors := db.NewSectorRepository(nil)
	tracker := sector.New(nil, sectors)

	r := New(flights, sectors, tracker, 5*time.Minute, slog.Default())

	if r.staleAfter != 5*time.Minute {
		t.Errorf("expected staleAfter 5m, got %v", r.staleAfter)
	}
	if r.flights != flights {
		t.Error("expected flights repository to be stored")
	}
	if r.sectors != sectors {
		t.Error("expected sector repository to be stored")
	}
	if r.tracker != tracker {
		t.Error("expected tracker to be stored")
	}
}

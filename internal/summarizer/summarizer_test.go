package summarizer

import (
	"log/slog"
	"testing"
	"time"

	"github.com/unklstewy/atc-ingest/internal/db"
)

func TestNewSummarizer(t *testing.T) {
	s := New(db.NewSummaryRepository(nil), 14*time.Hour, 7*24*time.Hour, 100, slog.Default())
	if s == nil {
		t.Fatal("expected non-nil summarizer")
	}
	if s.completionThreshold != 14*time.Hour {
		t.Errorf("expected completion threshold 14h, got %v", s.completionThreshold)
	}
	if s.retention != 7*24*time.Hour {
		t.Errorf("expected retention 7d, got %v", s.retention)
	}
	if s.batchLimit != 100 {
		t.Errorf("expected batch limit 100, got %d", s.batchLimit)
	}
}

package db

import (
	"testing"
	"time"
)

func TestNewTransceiverRepository(t *testing.T) {
	repo := NewTransceiverRepository(nil)
	if repo == nil {
		t.Fatal("expected non-nil repository")
	}
}

func TestInsertTransceiversNoopOnEmpty(t *testing.T) {
	repo := NewTransceiverRepository(nil)
	if err := repo.InsertTransceivers(nil, time.Now(), nil); err != nil {
		t.Errorf("expected no error for empty batch, got %v", err)
	}
}

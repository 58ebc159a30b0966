package db

import "testing"

func TestNewInteractionRepository(t *testing.T) {
	repo := NewInteractionRepository(nil)
	if repo == nil {
		t.Fatal("expected non-nil repository")
	}
}

func TestInsertInteractionsNoopOnEmpty(t *testing.T) {
	repo := NewInteractionRepository(nil)
	if err := repo.InsertInteractions(nil, nil); err != nil {
		t.Errorf("expected no error for empty batch, got %v", err)
	}
}

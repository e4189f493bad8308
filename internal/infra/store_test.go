package infra

import (
	"context"
	"testing"

	"github.com/dvloznov/efinance/internal/config"
	"github.com/dvloznov/efinance/internal/infra/inmemory"
)

func TestOpen(t *testing.T) {
	store, err := Open(context.Background(), &config.Config{Store: config.StoreMemory})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, ok := store.(*inmemory.Store); !ok {
		t.Errorf("Open() = %T, want *inmemory.Store", store)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	if _, err := Open(context.Background(), &config.Config{Store: "sqlite"}); err == nil {
		t.Error("Open() expected error for unknown store")
	}
}

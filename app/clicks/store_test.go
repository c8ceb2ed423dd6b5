package clicks

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/zbozihub/zbozihub/app/affiliate"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "clicks.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func TestStore_RecordClick(t *testing.T) {
	store := newTestStore(t)

	click := affiliate.Click{
		ProductID:    "p-1",
		TrackingCode: "code-1",
		Referrer:     "https://ref.example.com",
		UserAgent:    "TestAgent/1.0",
		At:           time.Now().UTC(),
	}

	if err := store.RecordClick(context.Background(), click); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := store.RecordClick(context.Background(), click); err != nil {
		t.Fatalf("Unexpected error on second click: %v", err)
	}

	count, err := store.GetClickCount()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 clicks, got %d", count)
	}
}

func TestStore_GetProductClickCount(t *testing.T) {
	store := newTestStore(t)

	for _, productID := range []string{"p-1", "p-1", "p-2"} {
		click := affiliate.Click{ProductID: productID, At: time.Now().UTC()}
		if err := store.RecordClick(context.Background(), click); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	count, err := store.GetProductClickCount("p-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 clicks for p-1, got %d", count)
	}

	count, err = store.GetProductClickCount("p-3")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 clicks for unknown product, got %d", count)
	}
}

package memory

import (
	"context"
	"testing"

	"wallet-analytics/internal/domain"
)

func TestPriceSeriesStore_UpsertOverwrites(t *testing.T) {
	store := NewPriceSeriesStore()
	ctx := context.Background()

	if err := store.Upsert(ctx, "sol", []domain.PricePoint{{Timestamp: 2, Price: 20}, {Timestamp: 1, Price: 10}}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := store.Upsert(ctx, "SOL", []domain.PricePoint{{Timestamp: 2, Price: 21}}); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	got, err := store.GetRange(ctx, "Sol", 0, 10)
	if err != nil {
		t.Fatalf("GetRange failed: %v", err)
	}
	want := []domain.PricePoint{{Timestamp: 1, Price: 10}, {Timestamp: 2, Price: 21}}
	if len(got) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("point %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	none, _ := store.GetRange(ctx, "SOL", 3, 10)
	if len(none) != 0 {
		t.Errorf("expected empty range, got %d points", len(none))
	}
}

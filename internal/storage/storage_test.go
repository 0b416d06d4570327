package storage

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/yorumly/reviewstalk/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func record(comment string, page, index int) *types.ReviewRecord {
	return &types.ReviewRecord{
		Platform:    "hepsiburada",
		Comment:     comment,
		ProductName: "Test Product",
		PageNumber:  page,
		IndexInPage: index,
	}
}

func TestWriteBatchPartialFailure(t *testing.T) {
	store := NewMemoryStore(testLogger())
	ctx := context.Background()

	records := make([]*types.ReviewRecord, 0, 10)
	for i := 0; i < 9; i++ {
		records = append(records, record("Gayet memnun kaldım, tavsiye ederim.", 1, i))
	}
	records = append(records, record("", 1, 9)) // malformed

	result, err := store.WriteBatch(ctx, "hepsiburada_reviews_test", records)
	if err != nil {
		t.Fatalf("partial failure must not surface as an error: %v", err)
	}
	if result.Inserted != 9 {
		t.Errorf("expected 9 inserted, got %d", result.Inserted)
	}
	if len(result.Failed) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(result.Failed))
	}
	if result.Failed[0].Reason == "" {
		t.Error("failure must carry a reason")
	}
	if got := len(store.Records("hepsiburada_reviews_test")); got != 9 {
		t.Errorf("expected 9 stored records, got %d", got)
	}
}

func TestClearThenFill(t *testing.T) {
	store := NewMemoryStore(testLogger())
	ctx := context.Background()
	coll := "trendyol_reviews_kedi_mamasi"

	if _, err := store.WriteBatch(ctx, coll, []*types.ReviewRecord{record("Eski kayıt, silinmeli.", 1, 0)}); err != nil {
		t.Fatalf("seed write: %v", err)
	}
	if err := store.Clear(ctx, coll); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := len(store.Records(coll)); got != 0 {
		t.Fatalf("expected empty collection after clear, got %d", got)
	}

	if _, err := store.WriteBatch(ctx, coll, []*types.ReviewRecord{record("Yeni kayıt geldi.", 1, 0)}); err != nil {
		t.Fatalf("refill write: %v", err)
	}
	if got := len(store.Records(coll)); got != 1 {
		t.Fatalf("expected 1 record after refill, got %d", got)
	}
}

func TestBackfillTotals(t *testing.T) {
	store := NewMemoryStore(testLogger())
	ctx := context.Background()
	coll := "n11_reviews_laptop"

	recs := []*types.ReviewRecord{
		record("Hızlı teslimat, sağlam paket.", 1, 0),
		record("Performans beklediğim gibi.", 1, 1),
		record("Başka ürünün yorumu.", 1, 2),
	}
	recs[2].ProductName = "Other Product"

	if _, err := store.WriteBatch(ctx, coll, recs); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := store.BackfillTotals(ctx, coll, "Test Product", 2); err != nil {
		t.Fatalf("backfill: %v", err)
	}

	for _, rec := range store.Records(coll) {
		want := 0
		if rec.ProductName == "Test Product" {
			want = 2
		}
		if rec.TotalReviews != want {
			t.Errorf("record %q: total_reviews = %d, want %d", rec.ID, rec.TotalReviews, want)
		}
	}
}

func TestIDGeneratorUniqueWithinRun(t *testing.T) {
	var gen idGenerator
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		// Same platform, page and index on purpose: only the counter
		// separates them.
		id := gen.next("amazon", 1, 0)
		if seen[id] {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = true
		if !strings.HasPrefix(id, "amazon-p01-i000-") {
			t.Fatalf("unexpected id shape: %s", id)
		}
	}
}

func TestClosedStoreRejectsWrites(t *testing.T) {
	store := NewMemoryStore(testLogger())
	ctx := context.Background()
	if err := store.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := store.WriteBatch(ctx, "x", []*types.ReviewRecord{record("after close", 1, 0)}); err == nil {
		t.Fatal("expected an error writing to a closed store")
	}
}

package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/yorumly/reviewstalk/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWriteCSV(t *testing.T) {
	e := New(t.TempDir(), testLogger())

	records := []*types.ReviewRecord{
		{
			ID:          "trendyol-p01-i000-000001",
			Platform:    "trendyol",
			ProductName: "Kedi Maması",
			Comment:     "Kedim çok sevdi, tekrar alacağım.",
			CommentDate: "11 Eylül 2024",
			Rating:      4.5,
			Likes:       3,
			PageNumber:  1,
			HarvestedAt: time.Date(2024, 9, 11, 12, 0, 0, 0, time.UTC),
		},
		{
			ID:       "trendyol-p01-i001-000002",
			Platform: "trendyol",
			Comment:  "Paketleme, virgül içeren \"yorum\" testi.",
		},
	}

	path, err := e.WriteCSV("trendyol_reviews_kedi_mamasi", records)
	if err != nil {
		t.Fatalf("write csv: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv back: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "id" || rows[0][3] != "comment" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][3] != records[0].Comment {
		t.Errorf("comment round-trip failed: %q", rows[1][3])
	}
	if rows[2][3] != records[1].Comment {
		t.Errorf("quoting broke the second comment: %q", rows[2][3])
	}
	if rows[1][5] != "4.5" {
		t.Errorf("rating column = %q, want 4.5", rows[1][5])
	}
}

func TestWriteResult(t *testing.T) {
	e := New(t.TempDir(), testLogger())

	in := &types.RunResult{
		Success:        true,
		TotalReviews:   7,
		CollectionName: "n11_reviews_laptop",
		Platform:       "n11",
		Partial:        true,
	}

	path, err := e.WriteResult("n11_reviews_laptop", in)
	if err != nil {
		t.Fatalf("write result: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var out types.RunResult
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.Success || out.TotalReviews != 7 || !out.Partial {
		t.Errorf("round-trip mismatch: %+v", out)
	}
}

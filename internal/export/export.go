// Package export mirrors harvested reviews to local files: a CSV
// spreadsheet for the records and a JSON file for the run result. The
// datastore stays the source of truth; these are human-facing copies.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/yorumly/reviewstalk/internal/types"
)

// csvHeaders is the fixed column order of a review spreadsheet.
var csvHeaders = []string{
	"id",
	"platform",
	"product_name",
	"comment",
	"comment_date",
	"rating",
	"likes",
	"page_number",
	"search_term",
	"harvested_at",
}

// Exporter writes mirrors into one output directory.
type Exporter struct {
	outputDir string
	logger    *slog.Logger
}

// New creates an Exporter rooted at outputDir.
func New(outputDir string, logger *slog.Logger) *Exporter {
	return &Exporter{
		outputDir: outputDir,
		logger:    logger.With("component", "exporter"),
	}
}

// WriteCSV writes all records of one collection into
// <outputDir>/<collectionID>.csv, replacing any previous file.
func (e *Exporter) WriteCSV(collectionID string, records []*types.ReviewRecord) (string, error) {
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(e.outputDir, collectionID+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeaders); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			rec.ID,
			rec.Platform,
			rec.ProductName,
			rec.Comment,
			rec.CommentDate,
			strconv.FormatFloat(rec.Rating, 'f', -1, 64),
			strconv.Itoa(rec.Likes),
			strconv.Itoa(rec.PageNumber),
			rec.SearchTerm,
			rec.HarvestedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}

	e.logger.Info("csv written", "path", path, "records", len(records))
	return path, nil
}

// WriteResult writes the run result as indented JSON next to the CSVs.
func (e *Exporter) WriteResult(collectionID string, result *types.RunResult) (string, error) {
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(e.outputDir, collectionID+"_result.json")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create result file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}

	e.logger.Info("result written", "path", path)
	return path, nil
}

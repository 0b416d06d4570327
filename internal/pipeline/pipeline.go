// Package pipeline runs candidate review records through a middleware
// chain before they are accepted into a harvest batch.
package pipeline

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/yorumly/reviewstalk/internal/dedup"
	"github.com/yorumly/reviewstalk/internal/types"
)

// Middleware processes a record and returns the (possibly modified) record.
// Return nil to drop the record from the pipeline.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms a record. Return nil to drop the record.
	Process(rec *types.ReviewRecord) (*types.ReviewRecord, error)
}

// Pipeline chains middleware processors together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the record through all middleware in order. A nil result
// with nil error means the record was dropped.
func (p *Pipeline) Process(rec *types.ReviewRecord) (*types.ReviewRecord, error) {
	current := rec

	for _, mw := range p.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			return nil, fmt.Errorf("pipeline stage %q: %w", mw.Name(), err)
		}
		if result == nil {
			p.logger.Debug("record dropped", "stage", mw.Name(), "page", rec.PageNumber, "index", rec.IndexInPage)
			return nil, nil
		}
		current = result
	}

	return current, nil
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}

// --- Built-in Middleware ---

// TrimMiddleware trims whitespace from the text fields.
type TrimMiddleware struct{}

func (m *TrimMiddleware) Name() string { return "trim" }

func (m *TrimMiddleware) Process(rec *types.ReviewRecord) (*types.ReviewRecord, error) {
	rec.Comment = strings.TrimSpace(rec.Comment)
	rec.CommentDate = strings.TrimSpace(rec.CommentDate)
	rec.ProductName = strings.TrimSpace(rec.ProductName)
	return rec, nil
}

// MinLengthMiddleware drops records whose comment is at or below the
// source's acceptance threshold, measured in runes.
type MinLengthMiddleware struct {
	Min int
}

func (m *MinLengthMiddleware) Name() string { return "min_length" }

func (m *MinLengthMiddleware) Process(rec *types.ReviewRecord) (*types.ReviewRecord, error) {
	min := m.Min
	if min <= 0 {
		min = types.DefaultMinCommentLength
	}
	if utf8.RuneCountInString(rec.Comment) <= min {
		return nil, nil // Drop record
	}
	return rec, nil
}

// DedupMiddleware drops records whose comment text duplicates one already
// accepted in the current scope.
type DedupMiddleware struct {
	Set *dedup.CommentSet
}

func (m *DedupMiddleware) Name() string { return "dedup" }

func (m *DedupMiddleware) Process(rec *types.ReviewRecord) (*types.ReviewRecord, error) {
	if !m.Set.Add(rec.Comment) {
		return nil, nil // Drop duplicate
	}
	return rec, nil
}

// DefaultsMiddleware normalizes optional fields: clamps ratings into
// [0, 5] and floors negative like counts at zero.
type DefaultsMiddleware struct{}

func (m *DefaultsMiddleware) Name() string { return "defaults" }

func (m *DefaultsMiddleware) Process(rec *types.ReviewRecord) (*types.ReviewRecord, error) {
	rec.Rating = types.ClampRating(rec.Rating)
	if rec.Likes < 0 {
		rec.Likes = 0
	}
	return rec, nil
}

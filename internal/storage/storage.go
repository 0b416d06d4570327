// Package storage persists harvested review records into a document
// store, one collection per derived identifier.
package storage

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/yorumly/reviewstalk/internal/types"
)

// ReviewStore is the persistence boundary of a harvest.
type ReviewStore interface {
	// Clear deletes a collection's prior contents. Single-target
	// harvests call it before their first write (clear-then-fill);
	// search harvests never do.
	Clear(ctx context.Context, collectionID string) error

	// WriteBatch inserts records unordered: one bad record never stops
	// the rest of the batch, and a partial failure is reported in the
	// WriteResult, not raised as an error.
	WriteBatch(ctx context.Context, collectionID string, records []*types.ReviewRecord) (*types.WriteResult, error)

	// BackfillTotals stamps total onto every record of one product
	// grouping inside the collection.
	BackfillTotals(ctx context.Context, collectionID, productName string, total int) error

	Close(ctx context.Context) error
}

// idGenerator hands out record identifiers unique within a run. Wall
// clock alone cannot be the uniqueness source: a page can yield many
// records inside one tick, so a monotonic counter is always part of
// the identity.
type idGenerator struct {
	counter atomic.Int64
}

func (g *idGenerator) next(platform string, page, index int) string {
	return fmt.Sprintf("%s-p%02d-i%03d-%06d", platform, page, index, g.counter.Add(1))
}

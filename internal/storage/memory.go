package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/yorumly/reviewstalk/internal/types"
)

// MemoryStore keeps records in process memory. It backs --dry-run and the
// test suite; no datastore needs to be running.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string][]*types.ReviewRecord
	ids         idGenerator
	closed      bool
	logger      *slog.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	return &MemoryStore{
		collections: make(map[string][]*types.ReviewRecord),
		logger:      logger.With("component", "memory_store"),
	}
}

func (s *MemoryStore) Clear(ctx context.Context, collectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrStoreClosed
	}
	deleted := len(s.collections[collectionID])
	s.collections[collectionID] = nil
	s.logger.Info("collection cleared", "collection", collectionID, "deleted", deleted)
	return nil
}

// WriteBatch mirrors the datastore contract: a malformed record becomes a
// WriteFailure while the rest of the batch still lands.
func (s *MemoryStore) WriteBatch(ctx context.Context, collectionID string, records []*types.ReviewRecord) (*types.WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, types.ErrStoreClosed
	}

	now := time.Now()
	result := &types.WriteResult{}
	for _, rec := range records {
		if rec.ID == "" {
			rec.ID = s.ids.next(rec.Platform, rec.PageNumber, rec.IndexInPage)
		}
		if rec.Comment == "" {
			result.Failed = append(result.Failed, types.WriteFailure{
				ID:     rec.ID,
				Reason: "empty comment",
			})
			continue
		}
		rec.HarvestedAt = now
		rec.CollectionID = collectionID
		s.collections[collectionID] = append(s.collections[collectionID], rec)
		result.Inserted++
	}
	return result, nil
}

func (s *MemoryStore) BackfillTotals(ctx context.Context, collectionID, productName string, total int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrStoreClosed
	}
	for _, rec := range s.collections[collectionID] {
		if rec.ProductName == productName {
			rec.TotalReviews = total
		}
	}
	return nil
}

func (s *MemoryStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Records returns a snapshot of one collection's contents.
func (s *MemoryStore) Records(collectionID string) []*types.ReviewRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.ReviewRecord, len(s.collections[collectionID]))
	copy(out, s.collections[collectionID])
	return out
}

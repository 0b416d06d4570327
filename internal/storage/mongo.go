package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yorumly/reviewstalk/internal/config"
	"github.com/yorumly/reviewstalk/internal/types"
)

// MongoStore writes review records to MongoDB. Each derived identifier
// maps to its own collection; with fan-out enabled every record is also
// appended to a platform-wide collection and the global all-reviews
// collection.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	cfg    *config.Storage
	ids    idGenerator
	logger *slog.Logger
}

// NewMongoStore connects and pings the datastore. Unreachable storage is
// fatal to the run.
func NewMongoStore(ctx context.Context, cfg *config.Storage, logger *slog.Logger) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, &types.SetupError{Component: "mongodb", Err: fmt.Errorf("connect: %w", err)}
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, &types.SetupError{Component: "mongodb", Err: fmt.Errorf("ping: %w", err)}
	}

	return &MongoStore{
		client: client,
		db:     client.Database(cfg.Database),
		cfg:    cfg,
		logger: logger.With("component", "mongo_store"),
	}, nil
}

// Clear drops a collection's prior contents before a fresh single-target
// harvest fills it again.
func (s *MongoStore) Clear(ctx context.Context, collectionID string) error {
	opCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	res, err := s.db.Collection(collectionID).DeleteMany(opCtx, bson.D{})
	if err != nil {
		return &types.StoreError{Op: "clear", Collection: collectionID, Err: err}
	}
	s.logger.Info("collection cleared", "collection", collectionID, "deleted", res.DeletedCount)
	return nil
}

// WriteBatch inserts the records with ordered=false. A failure on one
// record does not abort the rest; the outcome reports how many landed
// and describes each failure. Only infrastructure-level errors (lost
// connection, bad collection) surface as errors.
func (s *MongoStore) WriteBatch(ctx context.Context, collectionID string, records []*types.ReviewRecord) (*types.WriteResult, error) {
	if len(records) == 0 {
		return &types.WriteResult{}, nil
	}

	now := time.Now()
	docs := make([]any, len(records))
	for i, rec := range records {
		if rec.ID == "" {
			rec.ID = s.ids.next(rec.Platform, rec.PageNumber, rec.IndexInPage)
		}
		rec.HarvestedAt = now
		rec.CollectionID = collectionID
		docs[i] = rec
	}

	opCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	res, err := s.db.Collection(collectionID).InsertMany(opCtx, docs, options.InsertMany().SetOrdered(false))

	result := &types.WriteResult{}
	if res != nil {
		result.Inserted = len(res.InsertedIDs)
	}

	if err != nil {
		var bulkErr mongo.BulkWriteException
		if errors.As(err, &bulkErr) {
			// Partial failure: the unordered insert kept going past the
			// bad records. Report, don't raise.
			for _, we := range bulkErr.WriteErrors {
				id := ""
				if we.Index >= 0 && we.Index < len(records) {
					id = records[we.Index].ID
				}
				result.Failed = append(result.Failed, types.WriteFailure{
					ID:     id,
					Reason: we.Message,
				})
			}
			if result.Inserted == 0 {
				result.Inserted = len(records) - len(result.Failed)
			}
			s.logger.Warn("batch partially written",
				"collection", collectionID,
				"inserted", result.Inserted,
				"failed", len(result.Failed),
			)
		} else {
			return nil, &types.StoreError{Op: "insert", Collection: collectionID, Err: err}
		}
	}

	if s.cfg.FanOut {
		s.fanOut(ctx, records)
	}

	s.logger.Debug("batch written", "collection", collectionID, "inserted", result.Inserted)
	return result, nil
}

// fanOut mirrors the records into the platform-wide and global
// collections. Best-effort: a fan-out failure is logged, never surfaced —
// the per-target collection stays the source of truth.
func (s *MongoStore) fanOut(ctx context.Context, records []*types.ReviewRecord) {
	if len(records) == 0 {
		return
	}

	targets := []string{
		records[0].Platform + "_reviews",
		s.cfg.AllReviewsCollection,
	}

	opCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for _, target := range targets {
		if target == "" {
			continue
		}
		docs := make([]any, len(records))
		for i, rec := range records {
			// Copies get their own identity so the same record can live
			// in three collections without _id collisions.
			clone := *rec
			clone.ID = fmt.Sprintf("%s-%s", target, rec.ID)
			docs[i] = &clone
		}
		if _, err := s.db.Collection(target).InsertMany(opCtx, docs, options.InsertMany().SetOrdered(false)); err != nil {
			s.logger.Warn("fan-out write failed", "collection", target, "error", err)
		}
	}
}

// BackfillTotals stamps the product grouping's record count onto each of
// its records, so consumers read "how many reviews were retrieved" off
// any record without a count query.
func (s *MongoStore) BackfillTotals(ctx context.Context, collectionID, productName string, total int) error {
	opCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	_, err := s.db.Collection(collectionID).UpdateMany(opCtx,
		bson.D{{Key: "product_name", Value: productName}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "total_reviews", Value: total}}}},
	)
	if err != nil {
		return &types.StoreError{Op: "backfill", Collection: collectionID, Err: err}
	}
	return nil
}

// Close disconnects from the datastore.
func (s *MongoStore) Close(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.client.Disconnect(opCtx)
}

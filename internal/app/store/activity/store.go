// internal/app/store/activity/store.go
package activity

import (
	"context"
	"time"

	"github.com/dalemusser/counselhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store manages the append-only activities collection. Entries are inserted
// and read; there is deliberately no update or delete path.
type Store struct {
	c *mongo.Collection
}

// New creates a new activity Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("activities")}
}

// Create appends a new activity entry.
func (s *Store) Create(ctx context.Context, entry models.ActivityEntry) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, entry)
	return err
}

// ListRecent returns the newest entries, optionally filtered by type, with
// skip/limit paging.
func (s *Store) ListRecent(ctx context.Context, entryType string, skip, limit int64) ([]models.ActivityEntry, error) {
	filter := bson.M{}
	if entryType != "" {
		filter["type"] = entryType
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var entries []models.ActivityEntry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ListByCase returns the timeline for one case, newest first.
func (s *Store) ListByCase(ctx context.Context, caseID primitive.ObjectID, limit int64) ([]models.ActivityEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, bson.M{"case_id": caseID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var entries []models.ActivityEntry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ListByActor returns recent entries recorded by one user, newest first.
func (s *Store) ListByActor(ctx context.Context, actorID primitive.ObjectID, limit int64) ([]models.ActivityEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, bson.M{"actor_id": actorID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var entries []models.ActivityEntry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Count returns the number of entries matching an optional type filter,
// for feed pagination.
func (s *Store) Count(ctx context.Context, entryType string) (int64, error) {
	filter := bson.M{}
	if entryType != "" {
		filter["type"] = entryType
	}
	return s.c.CountDocuments(ctx, filter)
}

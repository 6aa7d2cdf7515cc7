// internal/app/store/notes/store.go

// Package notestore persists meeting notes. Note bodies may contain rich
// text from the editor, so they are sanitized on write.
package notestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/counselhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/counselhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var errEmptyBody = errors.New("a note must have a body")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("meeting_notes")}
}

func (s *Store) Create(ctx context.Context, n models.MeetingNote) (models.MeetingNote, error) {
	n.Body = htmlsanitize.Sanitize(n.Body)
	if strings.TrimSpace(n.Body) == "" {
		return n, errEmptyBody
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return n, err
	}
	return n, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.MeetingNote, error) {
	var n models.MeetingNote
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByCase returns a case's notes, newest first.
func (s *Store) ListByCase(ctx context.Context, caseID primitive.ObjectID) ([]models.MeetingNote, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	})
	cur, err := s.c.Find(ctx, bson.M{"case_id": caseID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.MeetingNote
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CountByCase(ctx context.Context, caseID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"case_id": caseID})
}

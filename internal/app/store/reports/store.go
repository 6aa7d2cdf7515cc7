// internal/app/store/reports/store.go

// Package reportstore persists session reports: a short summary plus the
// questionnaire answers recorded after a counseling session. Answers may
// contain rich text, so they are sanitized on write; questions are fixed
// form labels and stored as-is.
package reportstore

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

var errEmptyReport = errors.New("a report needs a summary or at least one answer")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("session_reports")}
}

func (s *Store) Create(ctx context.Context, rep models.SessionReport) (models.SessionReport, error) {
	rep.Summary = htmlsanitize.Sanitize(rep.Summary)

	answered := rep.Questions[:0]
	for _, qa := range rep.Questions {
		qa.Question = strings.TrimSpace(qa.Question)
		qa.Answer = htmlsanitize.Sanitize(qa.Answer)
		if strings.TrimSpace(qa.Answer) == "" {
			continue
		}
		answered = append(answered, qa)
	}
	rep.Questions = answered

	if strings.TrimSpace(rep.Summary) == "" && len(rep.Questions) == 0 {
		return rep, errEmptyReport
	}
	if rep.CreatedAt.IsZero() {
		rep.CreatedAt = time.Now().UTC()
	}
	if rep.ID.IsZero() {
		rep.ID = primitive.NewObjectID()
	}
	if _, err := s.c.InsertOne(ctx, rep); err != nil {
		return rep, err
	}
	return rep, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.SessionReport, error) {
	var rep models.SessionReport
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

// ListByCase returns a case's reports, newest first.
func (s *Store) ListByCase(ctx context.Context, caseID primitive.ObjectID) ([]models.SessionReport, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	})
	cur, err := s.c.Find(ctx, bson.M{"case_id": caseID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.SessionReport
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CountByCase(ctx context.Context, caseID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"case_id": caseID})
}

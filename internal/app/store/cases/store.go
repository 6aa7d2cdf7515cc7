// internal/app/store/cases/store.go

// Package casestore persists counseling cases. Assignment and status
// changes keep the counselor workload cache current by recomputing it from
// the live collection after each write.
package casestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/counselhub/internal/app/system/normalize"
	"github.com/dalemusser/counselhub/internal/app/system/workload"
	"github.com/dalemusser/counselhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrBadStatus       = errors.New("unknown case status")
	ErrNeedsCounselor  = errors.New("an active or finished case must have a counselor assigned")
	errEmptyPersonName = errors.New("the counseled person's name is required")
)

type Store struct {
	c  *mongo.Collection
	db *mongo.Database
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("cases"), db: db}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Case, error) {
	var k models.Case
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&k); err != nil {
		return nil, err
	}
	return &k, nil
}

// Create inserts a new case. Status defaults to waiting; a case created
// directly as active must already carry a counselor.
func (s *Store) Create(ctx context.Context, k models.Case) (models.Case, error) {
	k.PersonName = normalize.Name(k.PersonName)
	k.PersonNameCI = text.Fold(k.PersonName)
	if k.PersonName == "" {
		return k, errEmptyPersonName
	}
	if k.Status == "" {
		k.Status = models.CaseWaiting
	}
	if !models.ValidCaseStatus(k.Status) {
		return k, ErrBadStatus
	}
	if k.Status == models.CaseActive && k.CounselorID == nil {
		return k, ErrNeedsCounselor
	}
	if k.IssueTags == nil {
		k.IssueTags = []string{}
	}

	now := time.Now().UTC()
	k.CreatedAt = now
	k.UpdatedAt = now
	if k.ID.IsZero() {
		k.ID = primitive.NewObjectID()
	}

	if _, err := s.c.InsertOne(ctx, k); err != nil {
		return k, err
	}
	if k.CounselorID != nil {
		if _, _, err := workload.Recompute(ctx, s.db, *k.CounselorID); err != nil {
			return k, err
		}
	}
	return k, nil
}

// Update rewrites the descriptive fields of a case. Status and counselor
// assignment have dedicated operations.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, k models.Case) error {
	k.PersonName = normalize.Name(k.PersonName)
	if k.PersonName == "" {
		return errEmptyPersonName
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"person_name":    k.PersonName,
		"person_name_ci": text.Fold(k.PersonName),
		"person_age":     k.PersonAge,
		"person_sex":     k.PersonSex,
		"civil_status":   k.CivilStatus,
		"issue_tags":     k.IssueTags,
		"description":    k.Description,
		"updated_at":     time.Now().UTC(),
	}})
	return err
}

// SetStatus moves a case to a new status. Moving into active or finished
// requires an assigned counselor; the counselor's workload cache is
// recomputed afterwards since active-case counts may have changed.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	if !models.ValidCaseStatus(status) {
		return ErrBadStatus
	}
	k, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if (status == models.CaseActive || status == models.CaseFinished) && k.CounselorID == nil {
		return ErrNeedsCounselor
	}
	_, err = s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if k.CounselorID != nil {
		if _, _, err := workload.Recompute(ctx, s.db, *k.CounselorID); err != nil {
			return err
		}
	}
	return nil
}

// AssignCounselor sets (or with nil clears) the case's counselor,
// denormalizing the name for list views. Both the previous and the new
// counselor get their workload cache recomputed.
func (s *Store) AssignCounselor(ctx context.Context, id primitive.ObjectID, counselor *models.Counselor) error {
	k, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if counselor == nil && (k.Status == models.CaseActive || k.Status == models.CaseFinished) {
		return ErrNeedsCounselor
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	update := bson.M{"$set": set}
	if counselor == nil {
		update["$unset"] = bson.M{"counselor_id": "", "counselor_name": ""}
	} else {
		set["counselor_id"] = counselor.ID
		set["counselor_name"] = counselor.FullName
	}
	if _, err := s.c.UpdateByID(ctx, id, update); err != nil {
		return err
	}

	if k.CounselorID != nil {
		if _, _, err := workload.Recompute(ctx, s.db, *k.CounselorID); err != nil {
			return err
		}
	}
	if counselor != nil && (k.CounselorID == nil || *k.CounselorID != counselor.ID) {
		if _, _, err := workload.Recompute(ctx, s.db, counselor.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the case together with its meeting notes and session
// reports, and detaches any appointments that pointed at it. The assigned
// counselor's workload cache is recomputed afterwards.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	k, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if _, err := s.db.Collection("meeting_notes").DeleteMany(ctx, bson.M{"case_id": id}); err != nil {
		return err
	}
	if _, err := s.db.Collection("session_reports").DeleteMany(ctx, bson.M{"case_id": id}); err != nil {
		return err
	}
	if _, err := s.db.Collection("appointments").UpdateMany(ctx,
		bson.M{"case_id": id},
		bson.M{"$unset": bson.M{"case_id": "", "case_name": ""}},
	); err != nil {
		return err
	}

	if _, err := s.c.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return err
	}
	if k.CounselorID != nil {
		if _, _, err := workload.Recompute(ctx, s.db, *k.CounselorID); err != nil {
			return err
		}
	}
	return nil
}

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	Status      string
	CounselorID *primitive.ObjectID
	IssueTag    string
	NamePrefix  string
}

// List returns cases matching the filter, sorted by the counseled person's
// folded name.
func (s *Store) List(ctx context.Context, f Filter) ([]models.Case, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.CounselorID != nil {
		filter["counselor_id"] = *f.CounselorID
	}
	if f.IssueTag != "" {
		filter["issue_tags"] = f.IssueTag
	}
	if folded := text.Fold(normalize.QueryParam(f.NamePrefix)); folded != "" {
		filter["person_name_ci"] = bson.M{"$gte": folded, "$lt": folded + "￿"}
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "person_name_ci", Value: 1},
		{Key: "_id", Value: 1},
	})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Case
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByCounselor returns a counselor's cases, optionally restricted to one
// status.
func (s *Store) ListByCounselor(ctx context.Context, counselorID primitive.ObjectID, status string) ([]models.Case, error) {
	return s.List(ctx, Filter{Status: status, CounselorID: &counselorID})
}

// CountByStatus returns how many cases sit in each status, for the
// dashboard summary.
func (s *Store) CountByStatus(ctx context.Context) (map[string]int, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		N      int    `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}

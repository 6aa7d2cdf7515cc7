// internal/app/store/counselors/store.go

// Package counselorstore persists counselor profiles. Counselor names are
// unique case-insensitively; the cached ActiveCases/Workload fields are
// maintained by internal/app/system/workload, not here.
package counselorstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/counselhub/internal/app/system/normalize"
	"github.com/dalemusser/counselhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrDuplicateName = errors.New("a counselor with this name already exists")
	ErrHasCases      = errors.New("counselor still has cases assigned")
	errBadStatus     = errors.New("status must be active or disabled")
	errEmptyName     = errors.New("counselor name is required")
)

type Store struct {
	c  *mongo.Collection
	db *mongo.Database
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("counselors"), db: db}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Counselor, error) {
	var co models.Counselor
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&co); err != nil {
		return nil, err
	}
	return &co, nil
}

// GetByUserID resolves the counselor profile linked to a login account.
func (s *Store) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Counselor, error) {
	var co models.Counselor
	if err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&co); err != nil {
		return nil, err
	}
	return &co, nil
}

// Create inserts a new counselor. New counselors start active with no
// assigned cases, so the workload cache is seeded at its floor.
func (s *Store) Create(ctx context.Context, co models.Counselor) (models.Counselor, error) {
	co.FullName = normalize.Name(co.FullName)
	co.FullNameCI = text.Fold(co.FullName)
	co.Email = normalize.Email(co.Email)
	if co.FullName == "" {
		return co, errEmptyName
	}
	if co.Status == "" {
		co.Status = "active"
	}
	if co.Status != "active" && co.Status != "disabled" {
		return co, errBadStatus
	}
	co.ActiveCases = 0
	co.Workload = "low"

	now := time.Now().UTC()
	co.CreatedAt = now
	co.UpdatedAt = now
	if co.ID.IsZero() {
		co.ID = primitive.NewObjectID()
	}

	if _, err := s.c.InsertOne(ctx, co); err != nil {
		if wafflemongo.IsDup(err) {
			return co, ErrDuplicateName
		}
		return co, err
	}
	return co, nil
}

// Update rewrites the profile fields of a counselor. Status and the cached
// workload fields are untouched.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, fullName, email, phone string, specialties []string) error {
	fullName = normalize.Name(fullName)
	if fullName == "" {
		return errEmptyName
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"full_name":    fullName,
		"full_name_ci": text.Fold(fullName),
		"email":        normalize.Email(email),
		"phone":        normalize.Name(phone),
		"specialties":  specialties,
		"updated_at":   time.Now().UTC(),
	}})
	if wafflemongo.IsDup(err) {
		return ErrDuplicateName
	}
	return err
}

// LinkUser attaches (or with a nil id detaches) a login account.
func (s *Store) LinkUser(ctx context.Context, id primitive.ObjectID, userID *primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"updated_at": time.Now().UTC()}}
	if userID == nil {
		update["$unset"] = bson.M{"user_id": ""}
	} else {
		update["$set"].(bson.M)["user_id"] = *userID
	}
	_, err := s.c.UpdateByID(ctx, id, update)
	return err
}

func (s *Store) setStatus(ctx context.Context, id primitive.ObjectID, to string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// Deactivate hides a counselor from assignment pickers. The profile and its
// history stay in place; counselors are never hard-deleted.
func (s *Store) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	return s.setStatus(ctx, id, "disabled")
}

func (s *Store) Reactivate(ctx context.Context, id primitive.ObjectID) error {
	return s.setStatus(ctx, id, "active")
}

// Delete removes a counselor profile. A counselor with cases still assigned
// cannot be deleted; reassign or close the cases first.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	n, err := s.db.Collection("cases").CountDocuments(ctx, bson.M{"counselor_id": id})
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrHasCases
	}
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// List returns counselors sorted by folded name. Empty filter values mean
// "all"; workload filters on the cached band.
func (s *Store) List(ctx context.Context, statusFilter, workloadFilter string) ([]models.Counselor, error) {
	filter := bson.M{}
	if statusFilter != "" {
		filter["status"] = statusFilter
	}
	if workloadFilter != "" {
		filter["workload"] = workloadFilter
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "full_name_ci", Value: 1},
		{Key: "_id", Value: 1},
	})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Counselor
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActive returns active counselors for assignment pickers.
func (s *Store) ListActive(ctx context.Context) ([]models.Counselor, error) {
	return s.List(ctx, "active", "")
}

// SearchByName returns active counselors whose folded name begins with the
// folded query, for typeahead pickers.
func (s *Store) SearchByName(ctx context.Context, q string, limit int64) ([]models.Counselor, error) {
	folded := text.Fold(normalize.QueryParam(q))
	if folded == "" {
		return s.ListActive(ctx)
	}
	filter := bson.M{
		"status":       "active",
		"full_name_ci": bson.M{"$gte": folded, "$lt": folded + "￿"},
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "full_name_ci", Value: 1},
		{Key: "_id", Value: 1},
	})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Counselor
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

package userstore

import (
	"context"

	"github.com/dalemusser/counselhub/internal/app/system/auth"
	"github.com/dalemusser/counselhub/internal/app/system/normalize"
	"github.com/dalemusser/counselhub/internal/app/system/timeouts"
	"github.com/dalemusser/counselhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher implements auth.UserFetcher to load fresh user data on each request.
// Counselor-role users are resolved to their counselor profile so ownership
// checks don't need an extra query per handler.
type Fetcher struct {
	users      *mongo.Collection
	counselors *mongo.Collection
}

// NewFetcher creates a UserFetcher that queries the given database.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{
		users:      db.Collection("users"),
		counselors: db.Collection("counselors"),
	}
}

// FetchUser retrieves a user by ID and returns nil if the user is not found,
// disabled, or if any error occurs. This implements auth.UserFetcher.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}

	// Use a short timeout for the DB query
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var u models.User
	proj := options.FindOne().SetProjection(bson.M{
		"_id":       1,
		"full_name": 1,
		"email":     1,
		"role":      1,
		"status":    1,
	})
	if err := f.users.FindOne(ctx, bson.M{"_id": oid}, proj).Decode(&u); err != nil {
		// User not found or DB error
		return nil
	}

	// Disabled accounts never get a session user; middleware treats this as
	// signed out.
	if normalize.Status(u.Status) == "disabled" {
		return nil
	}

	su := &auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Role:  normalize.Role(u.Role),
	}

	// Counselor accounts link to a counselor profile via counselors.user_id.
	if su.Role == "counselor" {
		var c struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		cProj := options.FindOne().SetProjection(bson.M{"_id": 1})
		if err := f.counselors.FindOne(ctx, bson.M{"user_id": oid}, cProj).Decode(&c); err == nil {
			su.CounselorID = c.ID.Hex()
		}
		// A counselor user without a profile still signs in; they just own
		// nothing until a profile is linked.
	}

	return su
}

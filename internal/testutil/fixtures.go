package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/counselhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with the given role.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		AuthMethod: "internal",
		Role:       role,
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateLeader creates a test leader user.
func (f *Fixtures) CreateLeader(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, "leader")
}

// CreateAdmin creates a test admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, "admin")
}

// CreateDisabledUser creates a test user with disabled status.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:              primitive.NewObjectID(),
		FullName:        fullName,
		FullNameCI:      text.Fold(fullName),
		Email:           email,
		AuthMethod:      "internal",
		Role:            "counselor",
		Status:          "disabled",
		StatusChangedAt: &now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create disabled test user: %v", err)
	}

	return user
}

// CreateCounselor creates a test counselor profile. userID may be nil for a
// counselor without a login account.
func (f *Fixtures) CreateCounselor(ctx context.Context, fullName string, userID *primitive.ObjectID) models.Counselor {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Counselor{
		ID:          primitive.NewObjectID(),
		FullName:    fullName,
		FullNameCI:  text.Fold(fullName),
		Specialties: []string{"family"},
		UserID:      userID,
		Status:      "active",
		Workload:    "low",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := f.db.Collection("counselors").InsertOne(ctx, c)
	if err != nil {
		f.t.Fatalf("failed to create test counselor: %v", err)
	}

	return c
}

// CreateCase creates a test case. counselor may be nil for an unassigned
// case.
func (f *Fixtures) CreateCase(ctx context.Context, personName, status string, counselor *models.Counselor) models.Case {
	f.t.Helper()

	now := time.Now().UTC()
	kase := models.Case{
		ID:           primitive.NewObjectID(),
		PersonName:   personName,
		PersonNameCI: text.Fold(personName),
		IssueTags:    []string{"anxiety"},
		Status:       status,
		CreatedBy:    primitive.NewObjectID(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if counselor != nil {
		kase.CounselorID = &counselor.ID
		kase.CounselorName = counselor.FullName
	}

	_, err := f.db.Collection("cases").InsertOne(ctx, kase)
	if err != nil {
		f.t.Fatalf("failed to create test case: %v", err)
	}

	return kase
}

// CreateAppointment creates a test appointment for the given counselor.
func (f *Fixtures) CreateAppointment(ctx context.Context, counselor models.Counselor, date time.Time, start, end, room string) models.Appointment {
	f.t.Helper()

	now := time.Now().UTC()
	a := models.Appointment{
		ID:            primitive.NewObjectID(),
		Title:         "Session",
		CounselorID:   counselor.ID,
		CounselorName: counselor.FullName,
		Date:          date,
		StartTime:     start,
		EndTime:       end,
		Room:          room,
		CreatedBy:     primitive.NewObjectID(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err := f.db.Collection("appointments").InsertOne(ctx, a)
	if err != nil {
		f.t.Fatalf("failed to create test appointment: %v", err)
	}

	return a
}

package activitylog_test

import (
	"testing"

	"github.com/dalemusser/counselhub/internal/app/store/activity"
	"github.com/dalemusser/counselhub/internal/app/system/activitylog"
	"github.com/dalemusser/counselhub/internal/app/system/auth"
	"github.com/dalemusser/counselhub/internal/domain/models"
	"github.com/dalemusser/counselhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func testUser() *auth.SessionUser {
	return &auth.SessionUser{
		ID:   primitive.NewObjectID().Hex(),
		Name: "Ana Ionescu",
		Role: "admin",
	}
}

func TestLogger_NilLogger(t *testing.T) {
	// nil logger should be a no-op (not panic)
	var logger *activitylog.Logger
	db := testutil.SetupTestDB(t)
	_ = db
	ctx := testutil.TestContext(t)

	logger.Record(ctx, models.ActivityEntry{Type: "test"})
	logger.CaseCreated(ctx, testUser(), primitive.NewObjectID(), "Person")
	logger.NoteAdded(ctx, nil, primitive.NewObjectID(), "Person")
}

func TestLogger_Record_ModeOff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := activity.New(db)

	logger := activitylog.New(store, zap.NewNop(), activitylog.Config{Mode: "off"})
	logger.CaseCreated(ctx, testUser(), primitive.NewObjectID(), "Person")

	entries, err := store.ListRecent(ctx, "", 0, 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(entries) != 0 {
		t.Error("expected no entries when mode is 'off'")
	}
}

func TestLogger_Record_ModeDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := activity.New(db)

	logger := activitylog.New(store, zap.NewNop(), activitylog.Config{Mode: "db"})

	caseID := primitive.NewObjectID()
	user := testUser()
	logger.CaseAssigned(ctx, user, caseID, "Person", "Radu Popa")

	entries, err := store.ListByCase(ctx, caseID, 10)
	if err != nil {
		t.Fatalf("ListByCase: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Type != models.ActivityCaseAssigned {
		t.Errorf("type = %s", e.Type)
	}
	if e.ActorName != user.Name {
		t.Errorf("actor name = %s", e.ActorName)
	}
	if e.Meta["counselor_name"] != "Radu Popa" {
		t.Errorf("meta = %v", e.Meta)
	}
}

func TestLogger_Record_ModeLog(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := activity.New(db)

	// "log" mode writes to zap only, nothing in the DB.
	logger := activitylog.New(store, zap.NewNop(), activitylog.Config{Mode: "log"})
	logger.ReportAdded(ctx, testUser(), primitive.NewObjectID(), "Person")

	entries, err := store.ListRecent(ctx, "", 0, 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(entries) != 0 {
		t.Error("'log' mode should not write to the database")
	}
}

func TestLogger_AppointmentCreated(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := activity.New(db)

	logger := activitylog.New(store, zap.NewNop(), activitylog.Config{Mode: "all"})
	logger.AppointmentCreated(ctx, testUser(), nil, "Radu Popa", "Consiliu")

	entries, err := store.ListRecent(ctx, models.ActivityAppointmentCreated, 0, 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Meta["room"] != "Consiliu" {
		t.Errorf("meta = %v", entries[0].Meta)
	}
	if entries[0].CaseID != nil {
		t.Error("case ID should be unset for a standalone appointment")
	}
}

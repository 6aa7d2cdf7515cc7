package appointments_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/counselhub/internal/app/features/appointments"
	"github.com/dalemusser/counselhub/internal/app/store/activity"
	apptstore "github.com/dalemusser/counselhub/internal/app/store/appointments"
	"github.com/dalemusser/counselhub/internal/app/system/activitylog"
	"github.com/dalemusser/counselhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(db *mongo.Database) *appointments.Handler {
	logger := zap.NewNop()
	actLog := activitylog.New(activity.New(db), logger, activitylog.Config{Mode: "db"})
	return appointments.NewHandler(db, actLog, logger)
}

func postForm(target string, values url.Values, user testutil.TestUser) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return testutil.WithUser(req, user)
}

func TestHandleCreate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	handler := newTestHandler(db)

	co := fx.CreateCounselor(ctx, "Elena Radu", nil)

	req := postForm("/appointments", url.Values{
		"title":        {"First session"},
		"counselor_id": {co.ID.Hex()},
		"date":         {"2026-09-07"},
		"start_time":   {"10:00"},
		"end_time":     {"11:00"},
		"room":         {"Room A"},
	}, testutil.AdminUser())
	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.Local)
	list, err := apptstore.New(db).ListByRoomDate(ctx, "Room A", day)
	if err != nil {
		t.Fatalf("ListByRoomDate: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("appointments = %d, want 1", len(list))
	}
	if list[0].CounselorName != "Elena Radu" {
		t.Errorf("CounselorName = %q", list[0].CounselorName)
	}

	n, err := activity.New(db).Count(ctx, "appointment_created")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("activity entries = %d, want 1", n)
	}
}

func TestHandleCreate_SuggestsEndWhenBlank(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	handler := newTestHandler(db)

	co := fx.CreateCounselor(ctx, "Elena Radu", nil)

	req := postForm("/appointments", url.Values{
		"title":        {"Short chat"},
		"counselor_id": {co.ID.Hex()},
		"date":         {"2026-09-07"},
		"start_time":   {"09:15"},
	}, testutil.AdminUser())
	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	list, err := apptstore.New(db).ListByMonth(ctx, 2026, time.September)
	if err != nil {
		t.Fatalf("ListByMonth: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("appointments = %d, want 1", len(list))
	}
	if list[0].EndTime != "09:45" {
		t.Errorf("EndTime = %q, want suggested 09:45", list[0].EndTime)
	}
}

func TestHandleCreate_RoomConflictReRenders(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	handler := newTestHandler(db)

	co := fx.CreateCounselor(ctx, "Elena Radu", nil)
	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.Local)
	fx.CreateAppointment(ctx, co, day, "10:00", "11:00", "Room A")

	req := postForm("/appointments", url.Values{
		"title":        {"Overlapping"},
		"counselor_id": {co.ID.Hex()},
		"date":         {"2026-09-07"},
		"start_time":   {"10:30"},
		"end_time":     {"11:30"},
		"room":         {"Room A"},
	}, testutil.AdminUser())
	rec := httptest.NewRecorder()

	// The conflict re-renders the form, which needs a booted engine.
	defer func() { _ = recover() }()
	handler.HandleCreate(rec, req)

	if rec.Code == http.StatusSeeOther {
		t.Error("room conflict should not redirect")
	}
	list, err := apptstore.New(db).ListByRoomDate(ctx, "Room A", day)
	if err != nil {
		t.Fatalf("ListByRoomDate: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("appointments = %d, want the original only", len(list))
	}
}

func TestHandleCreate_CounselorForOtherForbidden(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	handler := newTestHandler(db)

	own := fx.CreateCounselor(ctx, "Elena Radu", nil)
	other := fx.CreateCounselor(ctx, "Petru Marin", nil)

	req := postForm("/appointments", url.Values{
		"title":        {"Sneaky booking"},
		"counselor_id": {other.ID.Hex()},
		"date":         {"2026-09-07"},
		"start_time":   {"10:00"},
		"end_time":     {"11:00"},
	}, testutil.CounselorUser(own.ID))
	rec := httptest.NewRecorder()

	// The forbidden page renders a template, which needs a booted engine.
	defer func() { _ = recover() }()
	handler.HandleCreate(rec, req)

	if rec.Code == http.StatusSeeOther {
		t.Error("booking another counselor should be refused")
	}
	list, err := apptstore.New(db).ListByMonth(ctx, 2026, time.September)
	if err != nil {
		t.Fatalf("ListByMonth: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("appointments = %d, want 0", len(list))
	}
}

func TestHandleUpdate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	handler := newTestHandler(db)

	co := fx.CreateCounselor(ctx, "Elena Radu", nil)
	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.Local)
	a := fx.CreateAppointment(ctx, co, day, "10:00", "11:00", "Room A")

	req := postForm("/appointments/"+a.ID.Hex(), url.Values{
		"title":        {"Moved session"},
		"counselor_id": {co.ID.Hex()},
		"date":         {"2026-09-07"},
		"start_time":   {"14:00"},
		"end_time":     {"15:00"},
		"room":         {"Room A"},
	}, testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", a.ID.Hex())
	rec := httptest.NewRecorder()
	handler.HandleUpdate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	got, err := apptstore.New(db).GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "Moved session" || got.StartTime != "14:00" {
		t.Errorf("got (%q, %s), want moved appointment", got.Title, got.StartTime)
	}
}

func TestHandleDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	handler := newTestHandler(db)

	co := fx.CreateCounselor(ctx, "Elena Radu", nil)
	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.Local)
	a := fx.CreateAppointment(ctx, co, day, "10:00", "11:00", "Room A")

	req := postForm("/appointments/"+a.ID.Hex()+"/delete", url.Values{}, testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", a.ID.Hex())
	rec := httptest.NewRecorder()
	handler.HandleDelete(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if _, err := apptstore.New(db).GetByID(ctx, a.ID); err == nil {
		t.Error("appointment should be gone")
	}
}

package apptstore

import (
	"testing"
	"time"

	"github.com/dalemusser/counselhub/internal/domain/models"
	"github.com/dalemusser/counselhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestCreate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)
	fx := testutil.NewFixtures(t, db)

	co := fx.CreateCounselor(ctx, "Maria Dumitrescu", nil)

	a, err := store.Create(ctx, models.Appointment{
		Title:         " First session ",
		CounselorID:   co.ID,
		CounselorName: co.FullName,
		Date:          day(2024, time.March, 10),
		StartTime:     "10:00",
		EndTime:       "10:30",
		Room:          "Consiliu",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Title != "First session" {
		t.Errorf("Title = %q, want trimmed", a.Title)
	}
	if a.ID.IsZero() || a.CreatedAt.IsZero() {
		t.Error("ID and CreatedAt should be stamped")
	}
}

func TestCreate_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)
	fx := testutil.NewFixtures(t, db)

	co := fx.CreateCounselor(ctx, "Maria Dumitrescu", nil)
	valid := models.Appointment{
		Title:       "Session",
		CounselorID: co.ID,
		Date:        day(2024, time.March, 10),
		StartTime:   "10:00",
		EndTime:     "10:30",
	}

	tests := []struct {
		name   string
		mutate func(a *models.Appointment)
	}{
		{"no title", func(a *models.Appointment) { a.Title = "  " }},
		{"no counselor", func(a *models.Appointment) { a.CounselorID = primitive.NilObjectID }},
		{"no date", func(a *models.Appointment) { a.Date = time.Time{} }},
		{"bad start", func(a *models.Appointment) { a.StartTime = "ten" }},
		{"bad end", func(a *models.Appointment) { a.EndTime = "25:99" }},
		{"too short", func(a *models.Appointment) { a.EndTime = "10:14" }},
		{"end before start", func(a *models.Appointment) { a.EndTime = "09:00" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := valid
			tt.mutate(&a)
			if _, err := store.Create(ctx, a); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	// Exactly the minimum duration is accepted.
	a := valid
	a.EndTime = "10:15"
	if _, err := store.Create(ctx, a); err != nil {
		t.Errorf("15-minute appointment rejected: %v", err)
	}
}

func TestCreate_RoomConflict(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)
	fx := testutil.NewFixtures(t, db)

	co := fx.CreateCounselor(ctx, "Maria Dumitrescu", nil)
	d := day(2024, time.March, 10)
	fx.CreateAppointment(ctx, co, d, "10:00", "11:00", "Consiliu")

	base := models.Appointment{
		Title:       "Session",
		CounselorID: co.ID,
		Date:        d,
	}

	overlap := base
	overlap.Room = "Consiliu"
	overlap.StartTime, overlap.EndTime = "10:30", "11:30"
	if _, err := store.Create(ctx, overlap); err != ErrRoomConflict {
		t.Errorf("overlapping booking err = %v, want ErrRoomConflict", err)
	}

	// Touching endpoints are not a conflict.
	touching := base
	touching.Room = "Consiliu"
	touching.StartTime, touching.EndTime = "11:00", "11:30"
	if _, err := store.Create(ctx, touching); err != nil {
		t.Errorf("back-to-back booking rejected: %v", err)
	}

	// Other rooms and other days are free.
	otherRoom := base
	otherRoom.Room = "Sala Mare"
	otherRoom.StartTime, otherRoom.EndTime = "10:30", "11:30"
	if _, err := store.Create(ctx, otherRoom); err != nil {
		t.Errorf("other room rejected: %v", err)
	}
	otherDay := base
	otherDay.Room = "Consiliu"
	otherDay.Date = day(2024, time.March, 11)
	otherDay.StartTime, otherDay.EndTime = "10:30", "11:30"
	if _, err := store.Create(ctx, otherDay); err != nil {
		t.Errorf("other day rejected: %v", err)
	}

	// No room, no constraint.
	roomless := base
	roomless.StartTime, roomless.EndTime = "10:30", "11:30"
	if _, err := store.Create(ctx, roomless); err != nil {
		t.Errorf("roomless booking rejected: %v", err)
	}
}

func TestUpdate_ExcludesSelfFromConflict(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)
	fx := testutil.NewFixtures(t, db)

	co := fx.CreateCounselor(ctx, "Maria Dumitrescu", nil)
	d := day(2024, time.March, 10)
	a := fx.CreateAppointment(ctx, co, d, "10:00", "11:00", "Consiliu")
	fx.CreateAppointment(ctx, co, d, "12:00", "13:00", "Consiliu")

	// Shifting inside its own old window is fine.
	moved := models.Appointment{
		Title:       "Session",
		CounselorID: co.ID,
		Date:        d,
		StartTime:   "10:15",
		EndTime:     "10:45",
		Room:        "Consiliu",
	}
	if err := store.Update(ctx, a.ID, moved); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := store.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.StartTime != "10:15" || got.EndTime != "10:45" {
		t.Errorf("appointment not moved: %s-%s", got.StartTime, got.EndTime)
	}

	// Colliding with the other booking is still rejected.
	moved.StartTime, moved.EndTime = "12:30", "13:30"
	if err := store.Update(ctx, a.ID, moved); err != ErrRoomConflict {
		t.Errorf("collision err = %v, want ErrRoomConflict", err)
	}
}

func TestListByMonth(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)
	fx := testutil.NewFixtures(t, db)

	co := fx.CreateCounselor(ctx, "Maria Dumitrescu", nil)
	fx.CreateAppointment(ctx, co, day(2024, time.March, 1), "09:00", "09:30", "")
	fx.CreateAppointment(ctx, co, day(2024, time.March, 31), "09:00", "09:30", "")
	fx.CreateAppointment(ctx, co, day(2024, time.February, 29), "09:00", "09:30", "")
	fx.CreateAppointment(ctx, co, day(2024, time.April, 1), "09:00", "09:30", "")

	got, err := store.ListByMonth(ctx, 2024, time.March)
	if err != nil {
		t.Fatalf("ListByMonth: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("March 2024 returned %d appointments, want 2", len(got))
	}
	if got[0].Date.Day() != 1 || got[1].Date.Day() != 31 {
		t.Errorf("wrong order or days: %v, %v", got[0].Date, got[1].Date)
	}
}

func TestListByCounselorAndCase(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)
	fx := testutil.NewFixtures(t, db)

	maria := fx.CreateCounselor(ctx, "Maria Dumitrescu", nil)
	radu := fx.CreateCounselor(ctx, "Radu Popa", nil)
	fx.CreateAppointment(ctx, maria, day(2024, time.March, 10), "09:00", "09:30", "")
	fx.CreateAppointment(ctx, maria, day(2024, time.March, 20), "09:00", "09:30", "")
	fx.CreateAppointment(ctx, radu, day(2024, time.March, 15), "09:00", "09:30", "")

	mine, err := store.ListByCounselor(ctx, maria.ID, day(2024, time.March, 15), 0)
	if err != nil {
		t.Fatalf("ListByCounselor: %v", err)
	}
	if len(mine) != 1 || mine[0].Date.Day() != 20 {
		t.Errorf("from-date filter returned %v", mine)
	}

	all, err := store.ListByCounselor(ctx, maria.ID, time.Time{}, 0)
	if err != nil {
		t.Fatalf("ListByCounselor all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("counselor filter returned %d, want 2", len(all))
	}

	// A mid-day from still includes that day's appointments; dates are
	// stored as local midnight, so the cutoff is the start of from's day.
	midday := time.Date(2024, time.March, 10, 14, 30, 0, 0, time.Local)
	today, err := store.ListByCounselor(ctx, maria.ID, midday, 0)
	if err != nil {
		t.Fatalf("ListByCounselor midday: %v", err)
	}
	if len(today) != 2 || today[0].Date.Day() != 10 {
		t.Errorf("mid-day from dropped same-day appointments: %v", today)
	}

	caseID := primitive.NewObjectID()
	linked, err := store.Create(ctx, models.Appointment{
		Title:       "Linked",
		CounselorID: maria.ID,
		CaseID:      &caseID,
		Date:        day(2024, time.March, 25),
		StartTime:   "09:00",
		EndTime:     "09:30",
	})
	if err != nil {
		t.Fatalf("Create linked: %v", err)
	}
	byCase, err := store.ListByCase(ctx, caseID)
	if err != nil {
		t.Fatalf("ListByCase: %v", err)
	}
	if len(byCase) != 1 || byCase[0].ID != linked.ID {
		t.Errorf("ListByCase = %v", byCase)
	}
}

func TestDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)
	fx := testutil.NewFixtures(t, db)

	co := fx.CreateCounselor(ctx, "Maria Dumitrescu", nil)
	a := fx.CreateAppointment(ctx, co, day(2024, time.March, 10), "09:00", "09:30", "Consiliu")

	if err := store.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.GetByID(ctx, a.ID); err == nil {
		t.Error("deleted appointment still found")
	}

	// Its slot is free again.
	if _, err := store.Create(ctx, models.Appointment{
		Title:       "Session",
		CounselorID: co.ID,
		Date:        day(2024, time.March, 10),
		StartTime:   "09:00",
		EndTime:     "09:30",
		Room:        "Consiliu",
	}); err != nil {
		t.Errorf("freed slot rejected: %v", err)
	}
}

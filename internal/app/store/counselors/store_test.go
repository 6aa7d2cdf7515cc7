package counselorstore

import (
	"testing"

	"github.com/dalemusser/counselhub/internal/app/system/indexes"
	"github.com/dalemusser/counselhub/internal/domain/models"
	"github.com/dalemusser/counselhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestCreate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)

	co, err := store.Create(ctx, models.Counselor{
		FullName:    "  Maria Dumitrescu ",
		Email:       "Maria@Church.ORG",
		Specialties: []string{"marriage", "grief"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if co.FullName != "Maria Dumitrescu" {
		t.Errorf("FullName = %q, want trimmed", co.FullName)
	}
	if co.Email != "maria@church.org" {
		t.Errorf("Email = %q, want lowercased", co.Email)
	}
	if co.Status != "active" {
		t.Errorf("Status = %q, want default active", co.Status)
	}
	if co.ActiveCases != 0 || co.Workload != "low" {
		t.Errorf("new counselor workload cache = (%d, %q), want (0, low)", co.ActiveCases, co.Workload)
	}
	if co.CreatedAt.IsZero() || co.ID.IsZero() {
		t.Error("ID and CreatedAt should be stamped")
	}

	if _, err := store.Create(ctx, models.Counselor{FullName: "   "}); err == nil {
		t.Error("empty name should be rejected")
	}
}

func TestCreate_DuplicateName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	store := New(db)

	if _, err := store.Create(ctx, models.Counselor{FullName: "Maria Dumitrescu"}); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	// Same name with different case folds to the same key.
	_, err := store.Create(ctx, models.Counselor{FullName: "MARIA DUMITRESCU"})
	if err != ErrDuplicateName {
		t.Errorf("err = %v, want ErrDuplicateName", err)
	}
}

func TestUpdate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)

	co, err := store.Create(ctx, models.Counselor{FullName: "Maria Dumitrescu"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	err = store.Update(ctx, co.ID, "Maria Popescu", "mp@church.org", "0700 000 000", []string{"family"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := store.GetByID(ctx, co.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.FullName != "Maria Popescu" || got.Email != "mp@church.org" {
		t.Errorf("updated counselor = %+v", got)
	}
	if len(got.Specialties) != 1 || got.Specialties[0] != "family" {
		t.Errorf("Specialties = %v", got.Specialties)
	}

	if err := store.Update(ctx, co.ID, "", "", "", nil); err == nil {
		t.Error("empty name should be rejected")
	}
}

func TestDeactivateReactivate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)

	co, err := store.Create(ctx, models.Counselor{FullName: "Maria Dumitrescu"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.Deactivate(ctx, co.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	got, _ := store.GetByID(ctx, co.ID)
	if got.Status != "disabled" {
		t.Errorf("Status = %q, want disabled", got.Status)
	}

	active, err := store.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("disabled counselor still listed as active")
	}

	if err := store.Reactivate(ctx, co.ID); err != nil {
		t.Fatalf("Reactivate: %v", err)
	}
	active, _ = store.ListActive(ctx)
	if len(active) != 1 {
		t.Errorf("reactivated counselor missing from active list")
	}
}

func TestList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)

	for _, name := range []string{"Zoe Marin", "Ana Pop", "Maria Dumitrescu"} {
		if _, err := store.Create(ctx, models.Counselor{FullName: name}); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}

	all, err := store.List(ctx, "", "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("List returned %d, want 3", len(all))
	}
	if all[0].FullName != "Ana Pop" || all[2].FullName != "Zoe Marin" {
		t.Errorf("wrong sort order: %s ... %s", all[0].FullName, all[2].FullName)
	}

	low, err := store.List(ctx, "", "low")
	if err != nil {
		t.Fatalf("List low: %v", err)
	}
	if len(low) != 3 {
		t.Errorf("workload filter low returned %d, want 3", len(low))
	}
	high, err := store.List(ctx, "", "high")
	if err != nil {
		t.Fatalf("List high: %v", err)
	}
	if len(high) != 0 {
		t.Errorf("workload filter high returned %d, want 0", len(high))
	}
}

func TestSearchByName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)

	for _, name := range []string{"Maria Dumitrescu", "Marius Ionescu", "Ana Pop"} {
		if _, err := store.Create(ctx, models.Counselor{FullName: name}); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}

	got, err := store.SearchByName(ctx, "mari", 10)
	if err != nil {
		t.Fatalf("SearchByName: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("prefix mari matched %d, want 2", len(got))
	}

	all, err := store.SearchByName(ctx, "  ", 10)
	if err != nil {
		t.Fatalf("SearchByName empty: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("empty query should list all active, got %d", len(all))
	}
}

func TestGetByUserID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)

	uid := primitive.NewObjectID()
	co, err := store.Create(ctx, models.Counselor{FullName: "Maria Dumitrescu", UserID: &uid})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.GetByUserID(ctx, uid)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if got.ID != co.ID {
		t.Error("GetByUserID returned the wrong counselor")
	}

	if _, err := store.GetByUserID(ctx, primitive.NewObjectID()); err != mongo.ErrNoDocuments {
		t.Errorf("unknown user err = %v, want ErrNoDocuments", err)
	}
}

func TestDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	store := New(db)

	co := fx.CreateCounselor(ctx, "Elena Radu", nil)
	kase := fx.CreateCase(ctx, "Ioana Vasile", "active", &co)

	if err := store.Delete(ctx, co.ID); err != ErrHasCases {
		t.Fatalf("Delete with cases err = %v, want ErrHasCases", err)
	}

	if _, err := db.Collection("cases").DeleteOne(ctx, bson.M{"_id": kase.ID}); err != nil {
		t.Fatalf("remove case: %v", err)
	}
	if err := store.Delete(ctx, co.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.GetByID(ctx, co.ID); err != mongo.ErrNoDocuments {
		t.Errorf("GetByID after delete err = %v, want ErrNoDocuments", err)
	}
	if err := store.Delete(ctx, primitive.NewObjectID()); err != mongo.ErrNoDocuments {
		t.Errorf("Delete missing err = %v, want ErrNoDocuments", err)
	}
}

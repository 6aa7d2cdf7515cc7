package users_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dalemusser/counselhub/internal/app/features/users"
	userstore "github.com/dalemusser/counselhub/internal/app/store/users"
	"github.com/dalemusser/counselhub/internal/app/system/indexes"
	"github.com/dalemusser/counselhub/internal/testutil"
	"go.uber.org/zap"
)

func postForm(target string, values url.Values, user testutil.TestUser) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return testutil.WithUser(req, user)
}

func TestHandleCreate_InternalAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	handler := users.NewHandler(db, zap.NewNop())

	req := postForm("/users", url.Values{
		"full_name":   {"Sam Ortiz"},
		"email":       {"Sam@Example.com"},
		"role":        {"counselor"},
		"auth_method": {"internal"},
		"password":    {"hunter22hunter"},
	}, testutil.AdminUser())
	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/users/") {
		t.Fatalf("Location = %q, want /users/{id}", loc)
	}

	store := userstore.New(db)
	u, err := store.GetByEmail(ctx, "sam@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if u.Role != "counselor" || u.AuthMethod != "internal" || u.Status != "active" {
		t.Errorf("user = %+v", u)
	}
	if !userstore.VerifyPassword(u, "hunter22hunter") {
		t.Error("password should verify")
	}
}

func TestHandleCreate_InternalNeedsPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	handler := users.NewHandler(db, zap.NewNop())

	req := postForm("/users", url.Values{
		"full_name":   {"Sam Ortiz"},
		"email":       {"sam@example.com"},
		"role":        {"counselor"},
		"auth_method": {"internal"},
		"password":    {"short"},
	}, testutil.AdminUser())
	rec := httptest.NewRecorder()

	// The form re-render needs a booted template engine.
	defer func() { _ = recover() }()
	handler.HandleCreate(rec, req)

	if rec.Code == http.StatusSeeOther {
		t.Error("short password should not create an account")
	}
	if _, err := userstore.New(db).GetByEmail(ctx, "sam@example.com"); err == nil {
		t.Error("user should not exist")
	}
}

func TestHandleCreate_AdminCannotCreateLeader(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	handler := users.NewHandler(db, zap.NewNop())

	req := postForm("/users", url.Values{
		"full_name":   {"Pat Lee"},
		"email":       {"pat@example.com"},
		"role":        {"leader"},
		"auth_method": {"google"},
	}, testutil.AdminUser())
	rec := httptest.NewRecorder()

	// The forbidden page renders a template, which needs a booted engine.
	defer func() { _ = recover() }()
	handler.HandleCreate(rec, req)

	if rec.Code == http.StatusSeeOther {
		t.Error("admin should not create a leader account")
	}
	if _, err := userstore.New(db).GetByEmail(ctx, "pat@example.com"); err == nil {
		t.Error("user should not exist")
	}
}

func TestHandleCreate_DuplicateEmailReRendersForm(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	handler := users.NewHandler(db, zap.NewNop())

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	fx.CreateUser(ctx, "Sam Ortiz", "sam@example.com", "counselor")

	req := postForm("/users", url.Values{
		"full_name":   {"Sam Ortiz Jr"},
		"email":       {"SAM@example.com"},
		"role":        {"counselor"},
		"auth_method": {"google"},
	}, testutil.AdminUser())
	rec := httptest.NewRecorder()

	// The form re-render needs a booted template engine.
	defer func() { _ = recover() }()
	handler.HandleCreate(rec, req)

	if rec.Code == http.StatusSeeOther {
		t.Error("duplicate email should not redirect")
	}
}

func TestHandleUpdate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	handler := users.NewHandler(db, zap.NewNop())

	u := fx.CreateUser(ctx, "Sam Ortiz", "sam@example.com", "counselor")

	req := postForm("/users/"+u.ID.Hex(), url.Values{
		"full_name": {"Sam Ortiz-Reyes"},
		"email":     {"sor@example.com"},
		"role":      {"admin"},
	}, testutil.LeaderUser())
	req = testutil.WithChiURLParam(req, "id", u.ID.Hex())
	rec := httptest.NewRecorder()
	handler.HandleUpdate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	got, err := userstore.New(db).GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.FullName != "Sam Ortiz-Reyes" || got.Email != "sor@example.com" || got.Role != "admin" {
		t.Errorf("user = %+v", got)
	}
}

func TestHandleUpdate_AdminCannotTouchLeader(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	handler := users.NewHandler(db, zap.NewNop())

	u := fx.CreateLeader(ctx, "Pat Lee", "pat@example.com")

	req := postForm("/users/"+u.ID.Hex(), url.Values{
		"full_name": {"Renamed"},
		"email":     {"pat@example.com"},
		"role":      {"counselor"},
	}, testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", u.ID.Hex())
	rec := httptest.NewRecorder()

	// The forbidden page renders a template, which needs a booted engine.
	defer func() { _ = recover() }()
	handler.HandleUpdate(rec, req)

	if rec.Code == http.StatusSeeOther {
		t.Error("admin should not edit a leader account")
	}
	got, err := userstore.New(db).GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.FullName != "Pat Lee" {
		t.Errorf("FullName = %q, want unchanged", got.FullName)
	}
}

func TestHandleDeactivateReactivate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	handler := users.NewHandler(db, zap.NewNop())

	u := fx.CreateUser(ctx, "Sam Ortiz", "sam@example.com", "counselor")
	store := userstore.New(db)

	req := postForm("/users/"+u.ID.Hex()+"/deactivate", url.Values{}, testutil.LeaderUser())
	req = testutil.WithChiURLParam(req, "id", u.ID.Hex())
	rec := httptest.NewRecorder()
	handler.HandleDeactivate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("deactivate status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != "disabled" {
		t.Errorf("Status = %q, want disabled", got.Status)
	}
	if got.StatusChangedAt == nil {
		t.Error("StatusChangedAt should be stamped")
	}

	req = postForm("/users/"+u.ID.Hex()+"/reactivate", url.Values{}, testutil.LeaderUser())
	req = testutil.WithChiURLParam(req, "id", u.ID.Hex())
	rec = httptest.NewRecorder()
	handler.HandleReactivate(rec, req)

	got, err = store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != "active" {
		t.Errorf("Status = %q, want active", got.Status)
	}
}

func TestHandleSetPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	handler := users.NewHandler(db, zap.NewNop())

	u := fx.CreateUser(ctx, "Sam Ortiz", "sam@example.com", "counselor")

	req := postForm("/users/"+u.ID.Hex()+"/password", url.Values{
		"password": {"a-new-secret-99"},
	}, testutil.LeaderUser())
	req = testutil.WithChiURLParam(req, "id", u.ID.Hex())
	rec := httptest.NewRecorder()
	handler.HandleSetPassword(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	got, err := userstore.New(db).GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !userstore.VerifyPassword(got, "a-new-secret-99") {
		t.Error("new password should verify")
	}
}

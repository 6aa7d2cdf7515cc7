package userstore

import (
	"testing"

	"github.com/dalemusser/counselhub/internal/app/system/indexes"
	"github.com/dalemusser/counselhub/internal/domain/models"
	"github.com/dalemusser/counselhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestCreate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)

	u, err := store.Create(ctx, models.User{
		FullName:   "  Ana Ionescu  ",
		Email:      "Ana@Example.COM",
		AuthMethod: "internal",
		Role:       "admin",
	}, "secret-password")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if u.FullName != "Ana Ionescu" {
		t.Errorf("FullName = %q, want trimmed", u.FullName)
	}
	if u.Email != "ana@example.com" {
		t.Errorf("Email = %q, want lowercased", u.Email)
	}
	if u.Status != "active" {
		t.Errorf("Status = %q, want default active", u.Status)
	}
	if u.PasswordHash == "" || u.PasswordHash == "secret-password" {
		t.Error("password should be stored as a hash")
	}
	if !VerifyPassword(&u, "secret-password") {
		t.Error("VerifyPassword should accept the original password")
	}
	if VerifyPassword(&u, "wrong") {
		t.Error("VerifyPassword should reject a wrong password")
	}
}

func TestCreate_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)

	tests := []struct {
		name     string
		user     models.User
		password string
	}{
		{"bad role", models.User{FullName: "X", Email: "x@test.com", AuthMethod: "internal", Role: "superuser"}, "pw"},
		{"bad status", models.User{FullName: "X", Email: "x2@test.com", AuthMethod: "internal", Role: "admin", Status: "frozen"}, "pw"},
		{"internal without password", models.User{FullName: "X", Email: "x3@test.com", AuthMethod: "internal", Role: "admin"}, ""},
		{"bad auth method", models.User{FullName: "X", Email: "x4@test.com", AuthMethod: "saml", Role: "admin"}, "pw"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.Create(ctx, tt.user, tt.password); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestCreate_GoogleAccountHasNoHash(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)

	u, err := store.Create(ctx, models.User{
		FullName:   "Radu Popa",
		Email:      "radu@example.com",
		AuthMethod: "google",
		Role:       "counselor",
	}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.PasswordHash != "" {
		t.Error("google accounts must not carry a password hash")
	}
	if VerifyPassword(&u, "") {
		t.Error("VerifyPassword must reject accounts without a hash")
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	store := New(db)

	base := models.User{FullName: "Ana", Email: "dup@test.com", AuthMethod: "internal", Role: "admin"}
	if _, err := store.Create(ctx, base, "pw1"); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	_, err := store.Create(ctx, base, "pw2")
	if err != ErrDuplicateEmail {
		t.Errorf("second Create err = %v, want ErrDuplicateEmail", err)
	}
}

func TestGetByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)

	created, err := store.Create(ctx, models.User{
		FullName: "Ana", Email: "find-me@test.com", AuthMethod: "internal", Role: "leader",
	}, "pw")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.GetByEmail(ctx, "  Find-Me@TEST.com ")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != created.ID {
		t.Error("GetByEmail returned the wrong user")
	}

	if _, err := store.GetByEmail(ctx, "missing@test.com"); err != mongo.ErrNoDocuments {
		t.Errorf("missing user err = %v, want ErrNoDocuments", err)
	}
}

func TestDeactivateReactivate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)

	u, err := store.Create(ctx, models.User{
		FullName: "Ana", Email: "flip@test.com", AuthMethod: "internal", Role: "counselor",
	}, "pw")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.Deactivate(ctx, u.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != "disabled" {
		t.Errorf("Status = %q, want disabled", got.Status)
	}
	if got.StatusChangedAt == nil {
		t.Error("StatusChangedAt should be stamped on deactivate")
	}

	if err := store.Reactivate(ctx, u.ID); err != nil {
		t.Fatalf("Reactivate: %v", err)
	}
	got, err = store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != "active" {
		t.Errorf("Status = %q, want active", got.Status)
	}
}

func TestList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)

	seed := []struct {
		name, email, role string
	}{
		{"Zoe", "zoe@test.com", "counselor"},
		{"Ana", "ana@test.com", "counselor"},
		{"Max", "max@test.com", "admin"},
	}
	for _, s := range seed {
		if _, err := store.Create(ctx, models.User{
			FullName: s.name, Email: s.email, AuthMethod: "internal", Role: s.role,
		}, "pw"); err != nil {
			t.Fatalf("Create %s: %v", s.name, err)
		}
	}

	counselors, err := store.List(ctx, "counselor", "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(counselors) != 2 {
		t.Fatalf("List(counselor) returned %d, want 2", len(counselors))
	}
	// Sorted by folded name.
	if counselors[0].FullName != "Ana" || counselors[1].FullName != "Zoe" {
		t.Errorf("wrong order: %s, %s", counselors[0].FullName, counselors[1].FullName)
	}

	all, err := store.List(ctx, "", "active")
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("List(active) returned %d, want 3", len(all))
	}
}

func TestFetchUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)
	fx := testutil.NewFixtures(t, db)
	fetcher := NewFetcher(db)

	u, err := store.Create(ctx, models.User{
		FullName: "Radu Popa", Email: "radu@test.com", AuthMethod: "internal", Role: "counselor",
	}, "pw")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	profile := fx.CreateCounselor(ctx, "Radu Popa", &u.ID)

	su := fetcher.FetchUser(ctx, u.ID.Hex())
	if su == nil {
		t.Fatal("FetchUser returned nil for an active user")
	}
	if su.Role != "counselor" || su.Name != "Radu Popa" {
		t.Errorf("session user = %+v", su)
	}
	if su.CounselorID != profile.ID.Hex() {
		t.Errorf("CounselorID = %q, want %q", su.CounselorID, profile.ID.Hex())
	}
}

func TestFetchUser_DisabledAndMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)
	fetcher := NewFetcher(db)

	u, err := store.Create(ctx, models.User{
		FullName: "Ana", Email: "gone@test.com", AuthMethod: "internal", Role: "admin",
	}, "pw")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Deactivate(ctx, u.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	if su := fetcher.FetchUser(ctx, u.ID.Hex()); su != nil {
		t.Error("disabled user should fetch as nil")
	}
	if su := fetcher.FetchUser(ctx, primitive.NewObjectID().Hex()); su != nil {
		t.Error("unknown user should fetch as nil")
	}
	if su := fetcher.FetchUser(ctx, "not-an-id"); su != nil {
		t.Error("malformed id should fetch as nil")
	}
}

package oauthstate

import (
	"testing"
	"time"

	"github.com/dalemusser/counselhub/internal/testutil"
	"github.com/google/uuid"
)

func TestSaveAndValidate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)

	state := uuid.NewString()
	expires := time.Now().UTC().Add(10 * time.Minute)
	if err := store.Save(ctx, state, "/cases", expires); err != nil {
		t.Fatalf("Save: %v", err)
	}

	returnURL, valid, err := store.Validate(ctx, state)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !valid {
		t.Fatal("fresh state should validate")
	}
	if returnURL != "/cases" {
		t.Errorf("ReturnURL = %q, want /cases", returnURL)
	}

	// One-time use: a second validation fails.
	_, valid, err = store.Validate(ctx, state)
	if err != nil {
		t.Fatalf("second Validate: %v", err)
	}
	if valid {
		t.Error("state should be consumed after first validation")
	}
}

func TestValidate_Expired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)

	state := uuid.NewString()
	if err := store.Save(ctx, state, "", time.Now().UTC().Add(-time.Minute)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	_, valid, err := store.Validate(ctx, state)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if valid {
		t.Error("expired state should not validate")
	}

	n, err := store.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("CleanupExpired removed %d, want 1", n)
	}
}

func TestValidate_Unknown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)

	_, valid, err := store.Validate(ctx, uuid.NewString())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if valid {
		t.Error("unknown state should not validate")
	}
}

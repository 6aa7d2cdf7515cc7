package notestore

import (
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/counselhub/internal/domain/models"
	"github.com/dalemusser/counselhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)

	caseID := primitive.NewObjectID()
	n, err := store.Create(ctx, models.MeetingNote{
		CaseID:     caseID,
		Body:       "<p>Discussed coping strategies.</p><script>alert(1)</script>",
		AuthorID:   primitive.NewObjectID(),
		AuthorName: "Maria Dumitrescu",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if strings.Contains(n.Body, "script") {
		t.Errorf("script tag survived sanitization: %q", n.Body)
	}
	if !strings.Contains(n.Body, "Discussed coping strategies.") {
		t.Errorf("note text lost: %q", n.Body)
	}
	if n.ID.IsZero() || n.CreatedAt.IsZero() {
		t.Error("ID and CreatedAt should be stamped")
	}

	if _, err := store.Create(ctx, models.MeetingNote{CaseID: caseID, Body: "<script>x</script>"}); err == nil {
		t.Error("a note that sanitizes to nothing should be rejected")
	}
}

func TestListByCase(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)

	caseID := primitive.NewObjectID()
	other := primitive.NewObjectID()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, body := range []string{"first", "second", "third"} {
		_, err := store.Create(ctx, models.MeetingNote{
			CaseID:    caseID,
			Body:      body,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("Create %s: %v", body, err)
		}
	}
	if _, err := store.Create(ctx, models.MeetingNote{CaseID: other, Body: "elsewhere"}); err != nil {
		t.Fatalf("Create other: %v", err)
	}

	notes, err := store.ListByCase(ctx, caseID)
	if err != nil {
		t.Fatalf("ListByCase: %v", err)
	}
	if len(notes) != 3 {
		t.Fatalf("ListByCase returned %d, want 3", len(notes))
	}
	if notes[0].Body != "third" || notes[2].Body != "first" {
		t.Errorf("wrong order: %s ... %s", notes[0].Body, notes[2].Body)
	}

	n, err := store.CountByCase(ctx, caseID)
	if err != nil {
		t.Fatalf("CountByCase: %v", err)
	}
	if n != 3 {
		t.Errorf("CountByCase = %d, want 3", n)
	}
}

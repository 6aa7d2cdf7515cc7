// internal/domain/models/activityentry.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity entry types. The Meta payload varies per type (old/new status,
// assigned-to identity, room, and so on).
const (
	ActivityCaseCreated        = "case_created"
	ActivityCaseAssigned       = "case_assigned"
	ActivityCaseStatusChanged  = "case_status_changed"
	ActivityNoteAdded          = "note_added"
	ActivityReportAdded        = "report_added"
	ActivityAppointmentCreated = "appointment_created"
)

// ActivityEntry is an append-only record of a domain event. Entries are
// never mutated or deleted.
type ActivityEntry struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Type        string             `bson:"type" json:"type"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	ActorID   primitive.ObjectID  `bson:"actor_id" json:"actor_id"`
	ActorName string              `bson:"actor_name" json:"actor_name"`
	CaseID    *primitive.ObjectID `bson:"case_id,omitempty" json:"case_id,omitempty"`

	Meta map[string]string `bson:"meta,omitempty" json:"meta,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// internal/domain/models/appointment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Appointment represents a scheduled counseling session.
//
// Date is a calendar date (midnight, local). StartTime and EndTime are
// same-day wall-clock "HH:MM" strings; internal/app/system/schedule combines
// them with Date into comparable instants.
//
// Invariants (enforced by the appointments store and form layer):
//   - EndTime is at least 15 minutes after StartTime.
//   - No two appointments in the same non-empty Room on the same Date have
//     overlapping [start, end) intervals. Touching endpoints do not overlap.
type Appointment struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title string             `bson:"title" json:"title"`

	CaseID   *primitive.ObjectID `bson:"case_id,omitempty" json:"case_id,omitempty"`
	CaseName string              `bson:"case_name,omitempty" json:"case_name,omitempty"`

	CounselorID   primitive.ObjectID `bson:"counselor_id" json:"counselor_id"`
	CounselorName string             `bson:"counselor_name" json:"counselor_name"`

	Date      time.Time `bson:"date" json:"date"`
	StartTime string    `bson:"start_time" json:"start_time"` // "HH:MM"
	EndTime   string    `bson:"end_time" json:"end_time"`     // "HH:MM"
	Room      string    `bson:"room,omitempty" json:"room,omitempty"`

	Description string `bson:"description,omitempty" json:"description,omitempty"`

	CreatedBy primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

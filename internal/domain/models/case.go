// internal/domain/models/case.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Case statuses. A case moves waiting -> active -> finished in the normal
// flow; unfinished and cancelled are terminal side exits.
const (
	CaseWaiting    = "waiting"
	CaseActive     = "active"
	CaseFinished   = "finished"
	CaseUnfinished = "unfinished"
	CaseCancelled  = "cancelled"
)

// CaseStatuses lists every valid status in display order.
var CaseStatuses = []string{CaseWaiting, CaseActive, CaseFinished, CaseUnfinished, CaseCancelled}

// Case represents one counseling engagement for one counseled person.
//
// NOTE:
//   - CounselorName is denormalized alongside CounselorID so lists and the
//     activity feed render without a join; the ID is authoritative.
//   - The "active/finished requires a counselor" invariant is enforced at
//     the form layer, not here.
type Case struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PersonName   string             `bson:"person_name" json:"person_name"`
	PersonNameCI string             `bson:"person_name_ci" json:"person_name_ci"`
	PersonAge    int                `bson:"person_age,omitempty" json:"person_age,omitempty"`
	PersonSex    string             `bson:"person_sex,omitempty" json:"person_sex,omitempty"`
	CivilStatus  string             `bson:"civil_status,omitempty" json:"civil_status,omitempty"`

	IssueTags   []string `bson:"issue_tags" json:"issue_tags"`
	Description string   `bson:"description,omitempty" json:"description,omitempty"`
	Status      string   `bson:"status" json:"status"`

	CounselorID   *primitive.ObjectID `bson:"counselor_id,omitempty" json:"counselor_id,omitempty"`
	CounselorName string              `bson:"counselor_name,omitempty" json:"counselor_name,omitempty"`

	CreatedBy primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// ValidCaseStatus reports whether s is one of the recognized case statuses.
func ValidCaseStatus(s string) bool {
	switch s {
	case CaseWaiting, CaseActive, CaseFinished, CaseUnfinished, CaseCancelled:
		return true
	}
	return false
}

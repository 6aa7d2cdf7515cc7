// internal/domain/models/counselor.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Counselor represents a staff member who can be assigned cases and
// appointments.
//
// NOTE:
//   - ActiveCases and Workload are derived from the live cases collection
//     and persisted only as a cache. Reads recompute rather than trusting
//     the stored values; see internal/app/system/workload.
//   - UserID links to an optional login account in the users collection.
type Counselor struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"full_name_ci"`
	Email      string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone      string             `bson:"phone,omitempty" json:"phone,omitempty"`

	Specialties []string            `bson:"specialties,omitempty" json:"specialties,omitempty"`
	UserID      *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`

	Status string `bson:"status" json:"status"` // active | disabled

	// Cached derivations (see workload.Recompute).
	ActiveCases int    `bson:"active_cases" json:"active_cases"`
	Workload    string `bson:"workload" json:"workload"` // low | moderate | high

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

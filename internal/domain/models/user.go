// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents leaders, admins, and counselors.
//
// NOTE:
//   - Users are never hard-deleted in the normal flow; they are disabled
//     via Status, with StatusChangedAt recording when.
//   - A counselor-role user is linked from the counselors collection
//     (Counselor.UserID), not the other way around.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Email      string             `bson:"email" json:"email"`
	AuthMethod string             `bson:"auth_method,omitempty" json:"auth_method,omitempty"` // internal | google
	Role       string             `bson:"role" json:"role"`                                   // leader | admin | counselor
	Status     string             `bson:"status,omitempty" json:"status,omitempty"`           // active | disabled

	// PasswordHash is a bcrypt hash; empty for google-auth accounts.
	PasswordHash string `bson:"password_hash,omitempty" json:"-"`

	StatusChangedAt *time.Time `bson:"status_changed_at,omitempty" json:"status_changed_at,omitempty"`
	CreatedAt       time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `bson:"updated_at" json:"updated_at"`
}

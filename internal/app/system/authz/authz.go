// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/counselhub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role (lowercased), name, Mongo ObjectID, and a
// found flag. If no user is present in context or the user ID is malformed,
// it returns "visitor", "", NilObjectID, false — callers can trust that
// ok=true means a valid, authenticated user with a valid ObjectID.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session - fail closed.
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// IsLeader reports whether the current request's user is a leader.
func IsLeader(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == RoleLeader
}

// IsAdmin reports whether the current request's user is an admin.
func IsAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == RoleAdmin
}

// IsCounselor reports whether the current request's user is a counselor.
func IsCounselor(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == RoleCounselor
}

// IsStaff reports whether the user is a leader or admin (sees everything).
func IsStaff(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && (role == RoleLeader || role == RoleAdmin)
}

// RequestCan reports whether the current request's user may perform the
// given action, per the capability table.
func RequestCan(r *http.Request, action Action) bool {
	role, _, _, ok := UserCtx(r)
	return ok && Can(role, action)
}

// UserCounselorID returns the counselor record ID linked to the current
// user, or NilObjectID if the user is not a counselor (or the link is
// malformed).
func UserCounselorID(r *http.Request) primitive.ObjectID {
	user, ok := auth.CurrentUser(r)
	if !ok || user.CounselorID == "" {
		return primitive.NilObjectID
	}
	oid, err := primitive.ObjectIDFromHex(user.CounselorID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

// CanManageUser reports whether the current user may manage (edit,
// deactivate, reactivate) an account with the given role. Leaders can
// manage anyone; admins can manage anyone except leaders.
func CanManageUser(r *http.Request, targetRole string) bool {
	if !RequestCan(r, ActionManageUsers) {
		return false
	}
	if strings.ToLower(targetRole) == RoleLeader {
		return RequestCan(r, ActionManageLeaderUsers)
	}
	return true
}

// internal/app/policy/policy.go

// Package policy holds the resource-level authorization checks: decisions
// that depend on which record is being touched, not just on the caller's
// role. Role-only decisions belong to the capability table in
// internal/app/system/authz.
package policy

import (
	"net/http"

	"github.com/dalemusser/counselhub/internal/app/system/authz"
	"github.com/dalemusser/counselhub/internal/domain/models"
)

// CanViewCase reports whether the current user may open a case's detail
// page. Leaders and admins see every case; a counselor sees only cases
// assigned to them.
func CanViewCase(r *http.Request, k *models.Case) bool {
	if authz.RequestCan(r, authz.ActionViewAllCases) {
		return true
	}
	if !authz.IsCounselor(r) || k.CounselorID == nil {
		return false
	}
	return *k.CounselorID == authz.UserCounselorID(r)
}

// CanRecordOnCase reports whether the current user may attach notes and
// session reports to a case. The same ownership rule as viewing applies;
// there is no read-only access to a case one can view.
func CanRecordOnCase(r *http.Request, k *models.Case) bool {
	return CanViewCase(r, k)
}

// CanManageCase reports whether the current user may edit a case's fields,
// change its status, or reassign it. Counselors cannot, even on their own
// cases.
func CanManageCase(r *http.Request, k *models.Case) bool {
	return authz.RequestCan(r, authz.ActionManageCases)
}

// CanEditAppointment reports whether the current user may modify or delete
// an appointment. Staff may touch any; a counselor only their own.
func CanEditAppointment(r *http.Request, a *models.Appointment) bool {
	if authz.IsStaff(r) {
		return true
	}
	if !authz.RequestCan(r, authz.ActionManageAppointments) {
		return false
	}
	return a.CounselorID == authz.UserCounselorID(r)
}

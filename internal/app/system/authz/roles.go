package authz

// Roles recognized by the application.
const (
	RoleLeader    = "leader"
	RoleAdmin     = "admin"
	RoleCounselor = "counselor"
)

// Action names the operations the capability table gates. Resource-level
// checks that need database state (is this *my* case?) live in
// internal/app/policy; the table covers everything derivable from the role
// alone.
type Action string

const (
	ActionViewAllCases       Action = "view_all_cases"
	ActionManageCases        Action = "manage_cases"
	ActionManageCounselors   Action = "manage_counselors"
	ActionManageAppointments Action = "manage_appointments"
	ActionViewAllActivity    Action = "view_all_activity"
	ActionManageUsers        Action = "manage_users"
	ActionManageLeaderUsers  Action = "manage_leader_users"
)

// capabilities is the single role -> permitted-actions table. Every
// role-gated decision in the app consults this table through Can, rather
// than re-deriving boolean flags per screen.
var capabilities = map[string]map[Action]bool{
	RoleLeader: {
		ActionViewAllCases:       true,
		ActionManageCases:        true,
		ActionManageCounselors:   true,
		ActionManageAppointments: true,
		ActionViewAllActivity:    true,
		ActionManageUsers:        true,
		ActionManageLeaderUsers:  true,
	},
	RoleAdmin: {
		ActionViewAllCases:       true,
		ActionManageCases:        true,
		ActionManageCounselors:   true,
		ActionManageAppointments: true,
		ActionViewAllActivity:    true,
		ActionManageUsers:        true,
		// admins may not create, deactivate, or edit leader accounts
	},
	RoleCounselor: {
		// counselors see and touch only their own cases/appointments;
		// those checks need DB state and live in the policy layer.
		ActionManageAppointments: true,
	},
}

// Can reports whether the given role is permitted the given action.
// Unknown roles can do nothing.
func Can(role string, action Action) bool {
	return capabilities[role][action]
}

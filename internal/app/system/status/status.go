// internal/app/system/status/status.go
package status

// Account and profile status values shared by the user and counselor
// stores. Records are deactivated rather than deleted so history stays
// attributable.
const (
	Active   = "active"
	Disabled = "disabled"
)

// IsValid reports whether s is a recognized status value.
func IsValid(s string) bool {
	return s == Active || s == Disabled
}

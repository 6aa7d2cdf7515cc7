// Package normalize provides small helpers that bring user-supplied field
// values into canonical form before validation or storage.
package normalize

import "strings"

// Email trims whitespace and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Role trims and lowercases a role string.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Status trims and lowercases a status string.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// AuthMethod trims and lowercases an auth method string.
func AuthMethod(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a free-form query parameter, preserving case.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// CounselorID trims a counselor-filter value and converts the "all"
// sentinel (any case) to empty, meaning "no counselor filter".
func CounselorID(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return ""
	}
	return s
}

// TimeOfDay trims an "HH:MM" form value. Validation of the format itself
// belongs to the schedule package.
func TimeOfDay(s string) string {
	return strings.TrimSpace(s)
}

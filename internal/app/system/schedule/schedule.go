// Package schedule holds the appointment scheduling rules: combining a
// calendar date with wall-clock "HH:MM" strings, the minimum-duration and
// end-time-suggestion policy, and room conflict detection.
//
// Everything here is a pure function over already-loaded data; the
// appointments store and form handlers supply the data and act on the
// results.
package schedule

import (
	"fmt"
	"time"

	"github.com/dalemusser/counselhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MinDuration is the minimum allowed appointment length.
const MinDuration = 15 * time.Minute

// SuggestedDuration is the gap proposed when a start time is picked with no
// end time set, and when a start change invalidates the current end.
const SuggestedDuration = 30 * time.Minute

// Combine merges a calendar date with an "HH:MM" wall-clock string into a
// comparable local instant. No timezone handling beyond local wall clock.
func Combine(date time.Time, hhmm string) (time.Time, error) {
	var h, m int
	if _, err := fmt.Sscanf(hhmm, "%02d:%02d", &h, &m); err != nil {
		return time.Time{}, fmt.Errorf("invalid time of day %q: %w", hhmm, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return time.Time{}, fmt.Errorf("invalid time of day %q", hhmm)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, date.Location()), nil
}

// SuggestEnd returns the end time ("HH:MM") to pre-fill when the user picks
// the given start: start + 30 minutes, clamped to the same day's 23:59.
func SuggestEnd(date time.Time, startHHMM string) string {
	start, err := Combine(date, startHHMM)
	if err != nil {
		return ""
	}
	end := start.Add(SuggestedDuration)
	if end.Day() != start.Day() {
		end = time.Date(start.Year(), start.Month(), start.Day(), 23, 59, 0, 0, start.Location())
	}
	return end.Format("15:04")
}

// NeedsResuggest reports whether changing the start to startHHMM leaves the
// current end violating the minimum duration (in which case the form
// re-suggests start + 30 minutes).
func NeedsResuggest(date time.Time, startHHMM, endHHMM string) bool {
	if endHHMM == "" {
		return true
	}
	start, err := Combine(date, startHHMM)
	if err != nil {
		return false
	}
	end, err := Combine(date, endHHMM)
	if err != nil {
		return true
	}
	return end.Sub(start) < MinDuration
}

// ValidateDuration checks the minimum-duration invariant for a candidate
// date + start/end pair. It returns an error describing the violation, or
// nil when the pair is acceptable.
func ValidateDuration(date time.Time, startHHMM, endHHMM string) error {
	start, err := Combine(date, startHHMM)
	if err != nil {
		return err
	}
	end, err := Combine(date, endHHMM)
	if err != nil {
		return err
	}
	if end.Sub(start) < MinDuration {
		return fmt.Errorf("end time must be at least %d minutes after start time", int(MinDuration.Minutes()))
	}
	return nil
}

// SameDay reports whether a and b fall on the same calendar date,
// ignoring time of day.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// HasConflict decides whether a candidate booking (room, date, start, end)
// overlaps any existing appointment in the same room on the same date.
// excludeID lets an edit-in-place ignore its own prior booking
// (pass primitive.NilObjectID when creating).
//
// Overlap is half-open: newStart < existingEnd && newEnd > existingStart.
// Touching endpoints (one ends at 10:00, the other starts at 10:00) are NOT
// a conflict.
//
// Edge cases, mirroring the form's semantics:
//   - empty room means "no room constraint" and never conflicts;
//   - a candidate with a zero date or unparsable start/end cannot conflict
//     (the validation layer blocks such submissions before this point);
//   - existing appointments with unparsable times are skipped.
func HasConflict(room string, date time.Time, startHHMM, endHHMM string, appts []models.Appointment, excludeID primitive.ObjectID) bool {
	if room == "" || date.IsZero() {
		return false
	}
	newStart, err := Combine(date, startHHMM)
	if err != nil {
		return false
	}
	newEnd, err := Combine(date, endHHMM)
	if err != nil {
		return false
	}

	for _, a := range appts {
		if a.ID == excludeID {
			continue
		}
		if a.Room != room || !SameDay(a.Date, date) {
			continue
		}
		existStart, err := Combine(a.Date, a.StartTime)
		if err != nil {
			continue
		}
		existEnd, err := Combine(a.Date, a.EndTime)
		if err != nil {
			continue
		}
		if newStart.Before(existEnd) && newEnd.After(existStart) {
			return true
		}
	}
	return false
}

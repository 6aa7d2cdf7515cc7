package schedule

import (
	"time"

	"github.com/dalemusser/counselhub/internal/domain/models"
)

// VisiblePerDay is how many appointments a calendar day cell shows before
// the remainder collapses into a "+N more" link.
const VisiblePerDay = 2

// MonthCell is one slot in the rendered month grid. Blank cells pad the
// first week so day 1 lands under its weekday column (Sunday-first).
type MonthCell struct {
	Blank        bool
	Day          int
	Date         time.Time
	Today        bool
	Appointments []models.Appointment
	Overflow     int
}

// MonthGrid is a month of cells plus the navigation anchors the calendar
// page needs.
type MonthGrid struct {
	Year      int
	Month     time.Month
	Label     string
	Cells     []MonthCell
	PrevYear  int
	PrevMonth time.Month
	NextYear  int
	NextMonth time.Month
}

// BuildMonth lays out year/month as a Sunday-first grid: leading blank
// cells equal to the weekday of day 1, then one cell per day carrying that
// day's appointments in input order (the store already delivers them sorted
// by date and start time). now supplies "today" highlighting (pass the zero
// time to disable).
func BuildMonth(year int, month time.Month, appts []models.Appointment, now time.Time) MonthGrid {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	daysIn := first.AddDate(0, 1, -1).Day()

	byDay := make(map[int][]models.Appointment)
	for _, a := range appts {
		if a.Date.Year() != year || a.Date.Month() != month {
			continue
		}
		d := a.Date.Day()
		byDay[d] = append(byDay[d], a)
	}

	cells := make([]MonthCell, 0, int(first.Weekday())+daysIn)
	for i := 0; i < int(first.Weekday()); i++ {
		cells = append(cells, MonthCell{Blank: true})
	}
	for d := 1; d <= daysIn; d++ {
		date := time.Date(year, month, d, 0, 0, 0, 0, time.Local)
		day := byDay[d]
		overflow := 0
		if len(day) > VisiblePerDay {
			overflow = len(day) - VisiblePerDay
		}
		cells = append(cells, MonthCell{
			Day:          d,
			Date:         date,
			Today:        !now.IsZero() && SameDay(date, now),
			Appointments: day,
			Overflow:     overflow,
		})
	}

	prev := first.AddDate(0, -1, 0)
	next := first.AddDate(0, 1, 0)
	return MonthGrid{
		Year:      year,
		Month:     month,
		Label:     first.Format("January 2006"),
		Cells:     cells,
		PrevYear:  prev.Year(),
		PrevMonth: prev.Month(),
		NextYear:  next.Year(),
		NextMonth: next.Month(),
	}
}

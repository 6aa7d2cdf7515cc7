// internal/app/features/calendar/handler.go
package calendar

import (
	"context"
	"net/http"
	"strconv"
	"time"

	apptstore "github.com/dalemusser/counselhub/internal/app/store/appointments"
	"github.com/dalemusser/counselhub/internal/app/system/authz"
	"github.com/dalemusser/counselhub/internal/app/system/schedule"
	"github.com/dalemusser/counselhub/internal/app/system/timeouts"
	"github.com/dalemusser/counselhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Log          *zap.Logger
	Appointments *apptstore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Log: logger, Appointments: apptstore.New(db)}
}

type pageData struct {
	viewdata.BaseVM
	Grid     schedule.MonthGrid
	Weeks    [][]schedule.MonthCell
	Weekdays []string
}

var weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// ServeMonth handles GET /calendar with optional year and month query
// parameters; missing or malformed values fall back to the current month.
// Counselors see only their own appointments in the grid.
func (h *Handler) ServeMonth(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	year, month := monthParams(r, now)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	appts, err := h.Appointments.ListByMonth(ctx, year, month)
	if err != nil {
		h.Log.Error("calendar: list month", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !authz.IsStaff(r) {
		own := authz.UserCounselorID(r)
		mine := appts[:0]
		for _, a := range appts {
			if a.CounselorID == own {
				mine = append(mine, a)
			}
		}
		appts = mine
	}

	grid := schedule.BuildMonth(year, month, appts, now)
	templates.Render(w, r, "calendar", pageData{
		BaseVM:   viewdata.NewBaseVM(r, "Calendar", "/dashboard"),
		Grid:     grid,
		Weeks:    chunkWeeks(grid.Cells),
		Weekdays: weekdays,
	})
}

// chunkWeeks splits the flat cell run into rows of seven, padding the last
// row with blank cells so the table stays rectangular.
func chunkWeeks(cells []schedule.MonthCell) [][]schedule.MonthCell {
	var weeks [][]schedule.MonthCell
	for len(cells) > 0 {
		n := 7
		if len(cells) < n {
			n = len(cells)
		}
		week := make([]schedule.MonthCell, 7)
		copy(week, cells[:n])
		for i := n; i < 7; i++ {
			week[i] = schedule.MonthCell{Blank: true}
		}
		weeks = append(weeks, week)
		cells = cells[n:]
	}
	return weeks
}

func monthParams(r *http.Request, now time.Time) (int, time.Month) {
	year, month := now.Year(), now.Month()
	if y, err := strconv.Atoi(query.Get(r, "year")); err == nil && y >= 1970 && y <= 9999 {
		year = y
	}
	if m, err := strconv.Atoi(query.Get(r, "month")); err == nil && m >= 1 && m <= 12 {
		month = time.Month(m)
	}
	return year, month
}

// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"net/http"
	"time"

	activitystore "github.com/dalemusser/counselhub/internal/app/store/activity"
	appointmentstore "github.com/dalemusser/counselhub/internal/app/store/appointments"
	casestore "github.com/dalemusser/counselhub/internal/app/store/cases"
	counselorstore "github.com/dalemusser/counselhub/internal/app/store/counselors"
	loginstore "github.com/dalemusser/counselhub/internal/app/store/logins"
	"github.com/dalemusser/counselhub/internal/app/system/authz"
	"github.com/dalemusser/counselhub/internal/app/system/timeouts"
	"github.com/dalemusser/counselhub/internal/app/system/viewdata"
	"github.com/dalemusser/counselhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Log          *zap.Logger
	Cases        *casestore.Store
	Counselors   *counselorstore.Store
	Appointments *appointmentstore.Store
	Activity     *activitystore.Store
	Logins       *loginstore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Log:          logger,
		Cases:        casestore.New(db),
		Counselors:   counselorstore.New(db),
		Appointments: appointmentstore.New(db),
		Activity:     activitystore.New(db),
		Logins:       loginstore.New(db),
	}
}

type staffData struct {
	viewdata.BaseVM
	StatusCounts map[string]int
	Waiting      int
	Active       int
	Counselors   []models.Counselor
	Upcoming     []models.Appointment
	Activity     []models.ActivityEntry
	Logins       []models.LoginRecord
	ShowLogins   bool
}

type counselorData struct {
	viewdata.BaseVM
	Cases    []models.Case
	Upcoming []models.Appointment
	Unlinked bool
}

// ServeDashboard handles GET /dashboard. Leaders and admins get the full
// caseload picture; counselors get their own cases and schedule.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	if authz.RequestCan(r, authz.ActionViewAllCases) {
		h.serveStaff(w, r)
		return
	}
	h.serveCounselor(w, r)
}

func (h *Handler) serveStaff(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	counts, err := h.Cases.CountByStatus(ctx)
	if err != nil {
		h.fail(w, "dashboard: case counts", err)
		return
	}
	counselors, err := h.Counselors.List(ctx, "active", "")
	if err != nil {
		h.fail(w, "dashboard: counselors", err)
		return
	}
	upcoming, err := h.Appointments.ListUpcoming(ctx, time.Now(), 10)
	if err != nil {
		h.fail(w, "dashboard: appointments", err)
		return
	}
	recent, err := h.Activity.ListRecent(ctx, "", 0, 10)
	if err != nil {
		h.fail(w, "dashboard: activity", err)
		return
	}

	data := staffData{
		BaseVM:       viewdata.NewBaseVM(r, "Dashboard", "/"),
		StatusCounts: counts,
		Waiting:      counts[models.CaseWaiting],
		Active:       counts[models.CaseActive],
		Counselors:   counselors,
		Upcoming:     upcoming,
		Activity:     recent,
	}

	// Login history is an account-management concern, shown only to
	// roles that manage accounts.
	if authz.RequestCan(r, authz.ActionManageUsers) {
		logins, err := h.Logins.ListRecent(ctx, 10)
		if err != nil {
			h.fail(w, "dashboard: logins", err)
			return
		}
		data.Logins = logins
		data.ShowLogins = true
	}

	templates.Render(w, r, "dashboard_staff", data)
}

func (h *Handler) serveCounselor(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	data := counselorData{
		BaseVM: viewdata.NewBaseVM(r, "Dashboard", "/"),
	}

	own := authz.UserCounselorID(r)
	if own.IsZero() {
		// Signed in with a counselor role but no counselor profile
		// linked yet; nothing to show.
		data.Unlinked = true
		templates.Render(w, r, "dashboard_counselor", data)
		return
	}

	cases, err := h.Cases.ListByCounselor(ctx, own, models.CaseActive)
	if err != nil {
		h.fail(w, "dashboard: own cases", err)
		return
	}
	upcoming, err := h.Appointments.ListByCounselor(ctx, own, time.Now(), 10)
	if err != nil {
		h.fail(w, "dashboard: own appointments", err)
		return
	}

	data.Cases = cases
	data.Upcoming = upcoming
	templates.Render(w, r, "dashboard_counselor", data)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	h.Log.Error(msg, zap.Error(err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// internal/app/features/appointments/handler.go
package appointments

import (
	"context"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/counselhub/internal/app/features/errors"
	"github.com/dalemusser/counselhub/internal/app/policy"
	apptstore "github.com/dalemusser/counselhub/internal/app/store/appointments"
	casestore "github.com/dalemusser/counselhub/internal/app/store/cases"
	counselorstore "github.com/dalemusser/counselhub/internal/app/store/counselors"
	"github.com/dalemusser/counselhub/internal/app/system/activitylog"
	"github.com/dalemusser/counselhub/internal/app/system/auth"
	"github.com/dalemusser/counselhub/internal/app/system/authz"
	"github.com/dalemusser/counselhub/internal/app/system/formutil"
	"github.com/dalemusser/counselhub/internal/app/system/normalize"
	"github.com/dalemusser/counselhub/internal/app/system/schedule"
	"github.com/dalemusser/counselhub/internal/app/system/timeouts"
	"github.com/dalemusser/counselhub/internal/app/system/viewdata"
	"github.com/dalemusser/counselhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type Handler struct {
	Log          *zap.Logger
	Appointments *apptstore.Store
	Counselors   *counselorstore.Store
	Cases        *casestore.Store
	Activity     *activitylog.Logger
}

func NewHandler(db *mongo.Database, activityLog *activitylog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:          logger,
		Appointments: apptstore.New(db),
		Counselors:   counselorstore.New(db),
		Cases:        casestore.New(db),
		Activity:     activityLog,
	}
}

type listData struct {
	viewdata.BaseVM
	Appointments []models.Appointment
	OwnOnly      bool
}

// ServeList handles GET /appointments: upcoming appointments, restricted to
// the signed-in counselor's own unless they can manage everyone's.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		list    []models.Appointment
		err     error
		ownOnly bool
	)
	if authz.IsStaff(r) {
		list, err = h.Appointments.ListUpcoming(ctx, time.Now(), 200)
	} else {
		own := authz.UserCounselorID(r)
		if own.IsZero() {
			uierrors.RenderForbidden(w, r, "Your account is not linked to a counselor profile.", "/dashboard")
			return
		}
		ownOnly = true
		list, err = h.Appointments.ListByCounselor(ctx, own, time.Now(), 200)
	}
	if err != nil {
		h.Log.Error("appointments: list", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	templates.Render(w, r, "appointment_list", listData{
		BaseVM:       viewdata.NewBaseVM(r, "Appointments", "/dashboard"),
		Appointments: list,
		OwnOnly:      ownOnly,
	})
}

type formData struct {
	formutil.Base
	ID            string
	EventTitle    string
	CaseID        string
	CounselorID   string
	Date          string
	StartTime     string
	EndTime       string
	Room          string
	Description   string
	Counselors    []models.Counselor
	Cases         []models.Case
	LockCounselor bool
}

// ServeNew handles GET /appointments/new. Counselor-role users get the
// counselor picker locked to themselves.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	data := formData{Date: time.Now().Format(dateLayout)}
	if !authz.IsStaff(r) {
		data.CounselorID = authz.UserCounselorID(r).Hex()
		data.LockCounselor = true
	}
	if err := h.fillFormOptions(ctx, &data); err != nil {
		h.Log.Error("appointments: form options", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	formutil.SetBase(&data.Base, r, "New Appointment", "/appointments")
	templates.Render(w, r, "appointment_form", data)
}

// HandleCreate handles POST /appointments. An empty end time gets the
// standard suggestion (start + 30 minutes, clamped to the same day); an end
// under the minimum duration re-renders with a fresh suggestion.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	data := formDataFromRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	a, msg := h.buildAppointment(ctx, r, &data)
	if msg != "" {
		h.rerenderForm(w, r, data, "New Appointment", "/appointments", msg)
		return
	}
	if !policy.CanEditAppointment(r, a) {
		uierrors.RenderForbidden(w, r, "You can only schedule your own appointments.", "/appointments")
		return
	}

	created, err := h.Appointments.Create(ctx, *a)
	switch err {
	case nil:
	case apptstore.ErrRoomConflict:
		h.rerenderForm(w, r, data, "New Appointment", "/appointments",
			"Room "+a.Room+" is already booked for that time.")
		return
	default:
		h.Log.Warn("appointments: create", zap.Error(err))
		h.rerenderForm(w, r, data, "New Appointment", "/appointments", err.Error())
		return
	}

	user, _ := auth.CurrentUser(r)
	h.Activity.AppointmentCreated(ctx, user, created.CaseID, created.CounselorName, created.Room)

	http.Redirect(w, r, "/appointments", http.StatusSeeOther)
}

// ServeEdit handles GET /appointments/{id}/edit.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(r)
	if !ok {
		uierrors.RenderNotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, err := h.Appointments.GetByID(ctx, id)
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}
	if !policy.CanEditAppointment(r, a) {
		uierrors.RenderForbidden(w, r, "You can only edit your own appointments.", "/appointments")
		return
	}

	data := formData{
		ID:          a.ID.Hex(),
		EventTitle:  a.Title,
		CounselorID: a.CounselorID.Hex(),
		Date:        a.Date.Format(dateLayout),
		StartTime:   a.StartTime,
		EndTime:     a.EndTime,
		Room:        a.Room,
		Description: a.Description,
	}
	if a.CaseID != nil {
		data.CaseID = a.CaseID.Hex()
	}
	if !authz.IsStaff(r) {
		data.LockCounselor = true
	}
	if err := h.fillFormOptions(ctx, &data); err != nil {
		h.Log.Error("appointments: form options", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	formutil.SetBase(&data.Base, r, "Edit Appointment", "/appointments")
	templates.Render(w, r, "appointment_form", data)
}

// HandleUpdate handles POST /appointments/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(r)
	if !ok {
		uierrors.RenderNotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	data := formDataFromRequest(r)
	data.ID = id.Hex()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	existing, err := h.Appointments.GetByID(ctx, id)
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}
	if !policy.CanEditAppointment(r, existing) {
		uierrors.RenderForbidden(w, r, "You can only edit your own appointments.", "/appointments")
		return
	}

	a, msg := h.buildAppointment(ctx, r, &data)
	if msg != "" {
		h.rerenderForm(w, r, data, "Edit Appointment", "/appointments", msg)
		return
	}
	if !policy.CanEditAppointment(r, a) {
		uierrors.RenderForbidden(w, r, "You can only schedule your own appointments.", "/appointments")
		return
	}

	switch err := h.Appointments.Update(ctx, id, *a); err {
	case nil:
	case apptstore.ErrRoomConflict:
		h.rerenderForm(w, r, data, "Edit Appointment", "/appointments",
			"Room "+a.Room+" is already booked for that time.")
		return
	default:
		h.Log.Warn("appointments: update", zap.Error(err))
		h.rerenderForm(w, r, data, "Edit Appointment", "/appointments", err.Error())
		return
	}

	http.Redirect(w, r, "/appointments", http.StatusSeeOther)
}

// HandleDelete handles POST /appointments/{id}/delete.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(r)
	if !ok {
		uierrors.RenderNotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	a, err := h.Appointments.GetByID(ctx, id)
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}
	if !policy.CanEditAppointment(r, a) {
		uierrors.RenderForbidden(w, r, "You can only delete your own appointments.", "/appointments")
		return
	}

	if err := h.Appointments.Delete(ctx, id); err != nil {
		h.Log.Error("appointments: delete", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/appointments", http.StatusSeeOther)
}

// buildAppointment turns submitted form values into a validated model,
// resolving the counselor and optional case. A non-empty message means the
// form should re-render; data may have been touched (e.g. a suggested end
// time filled in).
func (h *Handler) buildAppointment(ctx context.Context, r *http.Request, data *formData) (*models.Appointment, string) {
	date, err := time.ParseInLocation(dateLayout, data.Date, time.Local)
	if err != nil {
		return nil, "Pick a date."
	}

	if data.StartTime == "" {
		return nil, "Pick a start time."
	}
	if data.EndTime == "" || schedule.NeedsResuggest(date, data.StartTime, data.EndTime) {
		suggested := schedule.SuggestEnd(date, data.StartTime)
		if data.EndTime == "" {
			data.EndTime = suggested
		} else {
			data.EndTime = suggested
			return nil, "End time was under the minimum; a new end time has been suggested."
		}
	}

	cid, err := primitive.ObjectIDFromHex(data.CounselorID)
	if err != nil {
		return nil, "Pick a counselor."
	}
	counselor, err := h.Counselors.GetByID(ctx, cid)
	if err != nil {
		return nil, "Pick a counselor from the list."
	}

	a := &models.Appointment{
		Title:         data.EventTitle,
		CounselorID:   counselor.ID,
		CounselorName: counselor.FullName,
		Date:          date,
		StartTime:     normalize.TimeOfDay(data.StartTime),
		EndTime:       normalize.TimeOfDay(data.EndTime),
		Room:          strings.TrimSpace(data.Room),
		Description:   strings.TrimSpace(data.Description),
	}
	_, _, userID, _ := authz.UserCtx(r)
	a.CreatedBy = userID

	if data.CaseID != "" {
		kid, err := primitive.ObjectIDFromHex(data.CaseID)
		if err != nil {
			return nil, "Pick a case from the list."
		}
		k, err := h.Cases.GetByID(ctx, kid)
		if err != nil {
			return nil, "Pick a case from the list."
		}
		a.CaseID = &k.ID
		a.CaseName = k.PersonName
	}
	return a, ""
}

func (h *Handler) fillFormOptions(ctx context.Context, data *formData) error {
	counselors, err := h.Counselors.ListActive(ctx)
	if err != nil {
		return err
	}
	all, err := h.Cases.List(ctx, casestore.Filter{})
	if err != nil {
		return err
	}
	open := all[:0]
	for _, k := range all {
		if k.Status == models.CaseWaiting || k.Status == models.CaseActive {
			open = append(open, k)
		}
	}
	data.Counselors = counselors
	data.Cases = open
	return nil
}

func (h *Handler) rerenderForm(w http.ResponseWriter, r *http.Request, data formData, title, back, msg string) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if data.Counselors == nil {
		if err := h.fillFormOptions(ctx, &data); err != nil {
			h.Log.Error("appointments: form options", zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
	}
	if !authz.IsStaff(r) {
		data.LockCounselor = true
	}
	formutil.SetBase(&data.Base, r, title, back)
	data.SetError(msg)
	templates.Render(w, r, "appointment_form", data)
}

func formDataFromRequest(r *http.Request) formData {
	return formData{
		EventTitle:  strings.TrimSpace(r.FormValue("title")),
		CaseID:      strings.TrimSpace(r.FormValue("case_id")),
		CounselorID: strings.TrimSpace(r.FormValue("counselor_id")),
		Date:        strings.TrimSpace(r.FormValue("date")),
		StartTime:   normalize.TimeOfDay(r.FormValue("start_time")),
		EndTime:     normalize.TimeOfDay(r.FormValue("end_time")),
		Room:        r.FormValue("room"),
		Description: r.FormValue("description"),
	}
}

// internal/app/features/counselors/handler.go
package counselors

import (
	"context"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/counselhub/internal/app/features/errors"
	apptstore "github.com/dalemusser/counselhub/internal/app/store/appointments"
	casestore "github.com/dalemusser/counselhub/internal/app/store/cases"
	counselorstore "github.com/dalemusser/counselhub/internal/app/store/counselors"
	"github.com/dalemusser/counselhub/internal/app/system/formutil"
	"github.com/dalemusser/counselhub/internal/app/system/normalize"
	"github.com/dalemusser/counselhub/internal/app/system/timeouts"
	"github.com/dalemusser/counselhub/internal/app/system/viewdata"
	"github.com/dalemusser/counselhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Log          *zap.Logger
	Counselors   *counselorstore.Store
	Cases        *casestore.Store
	Appointments *apptstore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Log:          logger,
		Counselors:   counselorstore.New(db),
		Cases:        casestore.New(db),
		Appointments: apptstore.New(db),
	}
}

type listData struct {
	viewdata.BaseVM
	Counselors     []models.Counselor
	StatusFilter   string
	WorkloadFilter string
}

// ServeList handles GET /counselors with optional status and workload
// filters.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	status := normalize.Status(query.Get(r, "status"))
	band := normalize.Status(query.Get(r, "workload"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Counselors.List(ctx, status, band)
	if err != nil {
		h.Log.Error("counselors: list", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	templates.Render(w, r, "counselor_list", listData{
		BaseVM:         viewdata.NewBaseVM(r, "Counselors", "/dashboard"),
		Counselors:     list,
		StatusFilter:   status,
		WorkloadFilter: band,
	})
}

type detailData struct {
	viewdata.BaseVM
	Counselor models.Counselor
	Cases     []models.Case
	Upcoming  []models.Appointment
	Error     string
}

// ServeDetail handles GET /counselors/{id}: the profile, their cases, and
// upcoming appointments.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(r)
	if !ok {
		uierrors.RenderNotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	co, err := h.Counselors.GetByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			uierrors.RenderNotFound(w, r)
			return
		}
		h.Log.Error("counselors: get", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	cases, err := h.Cases.ListByCounselor(ctx, co.ID, "")
	if err != nil {
		h.Log.Error("counselors: cases", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	upcoming, err := h.Appointments.ListByCounselor(ctx, co.ID, time.Now(), 10)
	if err != nil {
		h.Log.Error("counselors: appointments", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	templates.Render(w, r, "counselor_detail", detailData{
		BaseVM:    viewdata.NewBaseVM(r, co.FullName, "/counselors"),
		Counselor: *co,
		Cases:     cases,
		Upcoming:  upcoming,
	})
}

type formData struct {
	formutil.Base
	ID          string
	FullName    string
	Email       string
	Phone       string
	Specialties string // comma separated in the form
}

// ServeNew handles GET /counselors/new.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	var data formData
	formutil.SetBase(&data.Base, r, "New Counselor", "/counselors")
	templates.Render(w, r, "counselor_form", data)
}

// HandleCreate handles POST /counselors.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	data := formData{
		FullName:    r.FormValue("full_name"),
		Email:       r.FormValue("email"),
		Phone:       r.FormValue("phone"),
		Specialties: r.FormValue("specialties"),
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	co, err := h.Counselors.Create(ctx, models.Counselor{
		FullName:    data.FullName,
		Email:       data.Email,
		Phone:       strings.TrimSpace(data.Phone),
		Specialties: splitSpecialties(data.Specialties),
	})
	if err != nil {
		msg := "Could not save the counselor."
		if err == counselorstore.ErrDuplicateName {
			msg = "A counselor with this name already exists."
		}
		formutil.SetBase(&data.Base, r, "New Counselor", "/counselors")
		data.SetError(msg)
		templates.Render(w, r, "counselor_form", data)
		return
	}

	http.Redirect(w, r, "/counselors/"+co.ID.Hex(), http.StatusSeeOther)
}

// ServeEdit handles GET /counselors/{id}/edit.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(r)
	if !ok {
		uierrors.RenderNotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	co, err := h.Counselors.GetByID(ctx, id)
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}

	data := formData{
		ID:          co.ID.Hex(),
		FullName:    co.FullName,
		Email:       co.Email,
		Phone:       co.Phone,
		Specialties: strings.Join(co.Specialties, ", "),
	}
	formutil.SetBase(&data.Base, r, "Edit Counselor", "/counselors/"+co.ID.Hex())
	templates.Render(w, r, "counselor_form", data)
}

// HandleUpdate handles POST /counselors/{id}.
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	err := h.Counselors.Update(ctx, id,
		r.FormValue("full_name"),
		r.FormValue("email"),
		r.FormValue("phone"),
		splitSpecialties(r.FormValue("specialties")))
	if err != nil {
		data := formData{
			ID:          id.Hex(),
			FullName:    r.FormValue("full_name"),
			Email:       r.FormValue("email"),
			Phone:       r.FormValue("phone"),
			Specialties: r.FormValue("specialties"),
		}
		msg := "Could not save the counselor."
		if err == counselorstore.ErrDuplicateName {
			msg = "A counselor with this name already exists."
		}
		formutil.SetBase(&data.Base, r, "Edit Counselor", "/counselors/"+id.Hex())
		data.SetError(msg)
		templates.Render(w, r, "counselor_form", data)
		return
	}

	http.Redirect(w, r, "/counselors/"+id.Hex(), http.StatusSeeOther)
}

// HandleDeactivate handles POST /counselors/{id}/deactivate. The profile is
// never deleted; it just leaves the assignment pickers.
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.Counselors.Deactivate)
}

// HandleReactivate handles POST /counselors/{id}/reactivate.
func (h *Handler) HandleReactivate(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.Counselors.Reactivate)
}

// HandleDelete handles POST /counselors/{id}/delete. Deletion is refused
// while any case still points at the counselor.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(r)
	if !ok {
		uierrors.RenderNotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	err := h.Counselors.Delete(ctx, id)
	switch {
	case err == nil:
		http.Redirect(w, r, "/counselors", http.StatusSeeOther)
	case err == counselorstore.ErrHasCases:
		h.renderDetailWithError(w, r, id, "This counselor still has cases assigned. Reassign or close them first.")
	case err == mongo.ErrNoDocuments:
		uierrors.RenderNotFound(w, r)
	default:
		h.Log.Error("counselors: delete", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *Handler) renderDetailWithError(w http.ResponseWriter, r *http.Request, id primitive.ObjectID, msg string) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	co, err := h.Counselors.GetByID(ctx, id)
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}
	cases, _ := h.Cases.ListByCounselor(ctx, co.ID, "")
	upcoming, _ := h.Appointments.ListByCounselor(ctx, co.ID, time.Now(), 10)

	templates.Render(w, r, "counselor_detail", detailData{
		BaseVM:    viewdata.NewBaseVM(r, co.FullName, "/counselors"),
		Counselor: *co,
		Cases:     cases,
		Upcoming:  upcoming,
		Error:     msg,
	})
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request, op func(context.Context, primitive.ObjectID) error) {
	id, ok := objectIDParam(r)
	if !ok {
		uierrors.RenderNotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := op(ctx, id); err != nil {
		h.Log.Error("counselors: set status", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/counselors/"+id.Hex(), http.StatusSeeOther)
}

func splitSpecialties(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}

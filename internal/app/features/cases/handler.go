// internal/app/features/cases/handler.go
package cases

import (
	"context"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	uierrors "github.com/dalemusser/counselhub/internal/app/features/errors"
	"github.com/dalemusser/counselhub/internal/app/policy"
	"github.com/dalemusser/counselhub/internal/app/store/activity"
	apptstore "github.com/dalemusser/counselhub/internal/app/store/appointments"
	casestore "github.com/dalemusser/counselhub/internal/app/store/cases"
	counselorstore "github.com/dalemusser/counselhub/internal/app/store/counselors"
	notestore "github.com/dalemusser/counselhub/internal/app/store/notes"
	reportstore "github.com/dalemusser/counselhub/internal/app/store/reports"
	"github.com/dalemusser/counselhub/internal/app/system/activitylog"
	"github.com/dalemusser/counselhub/internal/app/system/auth"
	"github.com/dalemusser/counselhub/internal/app/system/authz"
	"github.com/dalemusser/counselhub/internal/app/system/formutil"
	"github.com/dalemusser/counselhub/internal/app/system/gates"
	"github.com/dalemusser/counselhub/internal/app/system/htmlsanitize"
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

// reportQuestions is the standard session-report questionnaire. Answers are
// optional; blank ones are dropped on save.
var reportQuestions = []string{
	"What was discussed in this session?",
	"What progress has been made since the last session?",
	"What are the agreed next steps?",
	"Are there concerns that need follow-up?",
}

type Handler struct {
	Log          *zap.Logger
	Cases        *casestore.Store
	Counselors   *counselorstore.Store
	Notes        *notestore.Store
	Reports      *reportstore.Store
	Appointments *apptstore.Store
	Activity     *activitylog.Logger
	Feed         *activity.Store
}

func NewHandler(db *mongo.Database, activityLog *activitylog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:          logger,
		Cases:        casestore.New(db),
		Counselors:   counselorstore.New(db),
		Notes:        notestore.New(db),
		Reports:      reportstore.New(db),
		Appointments: apptstore.New(db),
		Activity:     activityLog,
		Feed:         activity.New(db),
	}
}

type listData struct {
	viewdata.BaseVM
	Cases           []models.Case
	Counselors      []models.Counselor
	StatusFilter    string
	CounselorFilter string
	Query           string
	CanManage       bool
}

// ServeList handles GET /cases. Counselors without the view-all capability
// see only their own cases regardless of the filter parameters.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	f := casestore.Filter{
		Status:     normalize.Status(query.Get(r, "status")),
		NamePrefix: normalize.QueryParam(query.Get(r, "q")),
	}
	counselorFilter := normalize.CounselorID(query.Get(r, "counselor"))
	if counselorFilter != "" {
		if cid, err := primitive.ObjectIDFromHex(counselorFilter); err == nil {
			f.CounselorID = &cid
		}
	}
	if !authz.RequestCan(r, authz.ActionViewAllCases) {
		own := authz.UserCounselorID(r)
		if own.IsZero() {
			uierrors.RenderForbidden(w, r, "Your account is not linked to a counselor profile.", "/dashboard")
			return
		}
		f.CounselorID = &own
		counselorFilter = ""
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Cases.List(ctx, f)
	if err != nil {
		h.Log.Error("cases: list", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	var counselors []models.Counselor
	if authz.RequestCan(r, authz.ActionViewAllCases) {
		if counselors, err = h.Counselors.ListActive(ctx); err != nil {
			h.Log.Error("cases: counselor options", zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
	}

	templates.Render(w, r, "case_list", listData{
		BaseVM:          viewdata.NewBaseVM(r, "Cases", "/dashboard"),
		Cases:           list,
		Counselors:      counselors,
		StatusFilter:    f.Status,
		CounselorFilter: counselorFilter,
		Query:           f.NamePrefix,
		CanManage:       authz.RequestCan(r, authz.ActionManageCases),
	})
}

type detailData struct {
	viewdata.BaseVM
	Case         models.Case
	Notes        []noteView
	Reports      []reportView
	Appointments []models.Appointment
	Timeline     []models.ActivityEntry
	Counselors   []models.Counselor
	Questions    []string
	CanManage    bool
	CanRecord    bool
	Statuses     []string
	Error        string
}

// noteView and reportView carry stored rich-text fields converted to
// display-safe HTML, so plain-text entries keep their line breaks and
// formatted ones render their allowed markup.
type noteView struct {
	AuthorName string
	CreatedAt  time.Time
	Body       template.HTML
}

type qaView struct {
	Question string
	Answer   template.HTML
}

type reportView struct {
	AuthorName string
	CreatedAt  time.Time
	Summary    template.HTML
	Questions  []qaView
}

func noteViews(notes []models.MeetingNote) []noteView {
	out := make([]noteView, 0, len(notes))
	for _, n := range notes {
		out = append(out, noteView{
			AuthorName: n.AuthorName,
			CreatedAt:  n.CreatedAt,
			Body:       htmlsanitize.PrepareForDisplay(n.Body),
		})
	}
	return out
}

func reportViews(reports []models.SessionReport) []reportView {
	out := make([]reportView, 0, len(reports))
	for _, rep := range reports {
		rv := reportView{
			AuthorName: rep.AuthorName,
			CreatedAt:  rep.CreatedAt,
			Summary:    htmlsanitize.PrepareForDisplay(rep.Summary),
		}
		for _, qa := range rep.Questions {
			rv.Questions = append(rv.Questions, qaView{
				Question: qa.Question,
				Answer:   htmlsanitize.PrepareForDisplay(qa.Answer),
			})
		}
		out = append(out, rv)
	}
	return out
}

// ServeDetail handles GET /cases/{id}: the case with its notes, reports,
// linked appointments, and activity timeline.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	h.renderDetail(w, r, "")
}

func (h *Handler) renderDetail(w http.ResponseWriter, r *http.Request, errMsg string) {
	id, ok := objectIDParam(r)
	if !ok {
		uierrors.RenderNotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	k, err := h.Cases.GetByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			uierrors.RenderNotFound(w, r)
			return
		}
		h.Log.Error("cases: get", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !policy.CanViewCase(r, k) {
		uierrors.RenderForbidden(w, r, "You can only view cases assigned to you.", "/cases")
		return
	}

	notes, err := h.Notes.ListByCase(ctx, k.ID)
	if err != nil {
		h.Log.Error("cases: notes", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	reports, err := h.Reports.ListByCase(ctx, k.ID)
	if err != nil {
		h.Log.Error("cases: reports", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	appts, err := h.Appointments.ListByCase(ctx, k.ID)
	if err != nil {
		h.Log.Error("cases: appointments", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	timeline, err := h.Feed.ListByCase(ctx, k.ID, 50)
	if err != nil {
		h.Log.Error("cases: timeline", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var counselors []models.Counselor
	if authz.RequestCan(r, authz.ActionManageCases) {
		if counselors, err = h.Counselors.ListActive(ctx); err != nil {
			h.Log.Error("cases: counselor options", zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
	}

	templates.Render(w, r, "case_detail", detailData{
		BaseVM:       viewdata.NewBaseVM(r, k.PersonName, "/cases"),
		Case:         *k,
		Notes:        noteViews(notes),
		Reports:      reportViews(reports),
		Appointments: appts,
		Timeline:     timeline,
		Counselors:   counselors,
		Questions:    reportQuestions,
		CanManage:    policy.CanManageCase(r, k),
		CanRecord:    policy.CanRecordOnCase(r, k),
		Statuses:     models.CaseStatuses,
		Error:        errMsg,
	})
}

type formData struct {
	formutil.Base
	ID          string
	PersonName  string
	PersonAge   string
	PersonSex   string
	CivilStatus string
	IssueTags   string // comma separated in the form
	Description string
	CounselorID string
	Counselors  []models.Counselor
}

// ServeNew handles GET /cases/new.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	if g := gates.RequireCan(w, r, authz.ActionManageCases, "Only leaders and admins open cases.", "/cases"); !g.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	counselors, err := h.Counselors.ListActive(ctx)
	if err != nil {
		h.Log.Error("cases: counselor options", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	data := formData{Counselors: counselors}
	formutil.SetBase(&data.Base, r, "New Case", "/cases")
	templates.Render(w, r, "case_form", data)
}

// HandleCreate handles POST /cases. An initial counselor may be picked in
// the form; the case then starts active instead of waiting.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireCan(w, r, authz.ActionManageCases, "Only leaders and admins open cases.", "/cases")
	if !g.OK {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	data := formDataFromRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	k := models.Case{
		PersonName:  data.PersonName,
		PersonSex:   normalize.Status(data.PersonSex),
		CivilStatus: normalize.Status(data.CivilStatus),
		IssueTags:   splitTags(data.IssueTags),
		Description: strings.TrimSpace(data.Description),
	}
	if data.PersonAge != "" {
		age, err := strconv.Atoi(data.PersonAge)
		if err != nil || age < 0 || age > 150 {
			h.rerenderForm(w, r, data, "New Case", "/cases", "Age must be a number.")
			return
		}
		k.PersonAge = age
	}
	k.CreatedBy = g.UserID

	var counselor *models.Counselor
	if data.CounselorID != "" {
		cid, err := primitive.ObjectIDFromHex(data.CounselorID)
		if err != nil {
			h.rerenderForm(w, r, data, "New Case", "/cases", "Pick a counselor from the list.")
			return
		}
		if counselor, err = h.Counselors.GetByID(ctx, cid); err != nil {
			h.rerenderForm(w, r, data, "New Case", "/cases", "Pick a counselor from the list.")
			return
		}
		k.CounselorID = &counselor.ID
		k.CounselorName = counselor.FullName
		k.Status = models.CaseActive
	}

	created, err := h.Cases.Create(ctx, k)
	if err != nil {
		h.Log.Warn("cases: create", zap.Error(err))
		h.rerenderForm(w, r, data, "New Case", "/cases", "Could not save the case.")
		return
	}

	user, _ := auth.CurrentUser(r)
	h.Activity.CaseCreated(ctx, user, created.ID, created.PersonName)
	if counselor != nil {
		h.Activity.CaseAssigned(ctx, user, created.ID, created.PersonName, counselor.FullName)
	}

	http.Redirect(w, r, "/cases/"+created.ID.Hex(), http.StatusSeeOther)
}

// ServeEdit handles GET /cases/{id}/edit for the descriptive fields.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(r)
	if !ok {
		uierrors.RenderNotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	k, err := h.Cases.GetByID(ctx, id)
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}
	if !policy.CanManageCase(r, k) {
		uierrors.RenderForbidden(w, r, "You do not manage this case.", "/cases")
		return
	}

	data := formData{
		ID:          k.ID.Hex(),
		PersonName:  k.PersonName,
		PersonSex:   k.PersonSex,
		CivilStatus: k.CivilStatus,
		IssueTags:   strings.Join(k.IssueTags, ", "),
		Description: k.Description,
	}
	if k.PersonAge > 0 {
		data.PersonAge = strconv.Itoa(k.PersonAge)
	}
	formutil.SetBase(&data.Base, r, "Edit Case", "/cases/"+k.ID.Hex())
	templates.Render(w, r, "case_form", data)
}

// HandleUpdate handles POST /cases/{id}. Status and assignment have their
// own endpoints; this one touches only the descriptive fields.
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	k, err := h.Cases.GetByID(ctx, id)
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}
	if !policy.CanManageCase(r, k) {
		uierrors.RenderForbidden(w, r, "You do not manage this case.", "/cases")
		return
	}

	upd := models.Case{
		PersonName:  data.PersonName,
		PersonSex:   normalize.Status(data.PersonSex),
		CivilStatus: normalize.Status(data.CivilStatus),
		IssueTags:   splitTags(data.IssueTags),
		Description: strings.TrimSpace(data.Description),
	}
	if data.PersonAge != "" {
		age, err := strconv.Atoi(data.PersonAge)
		if err != nil || age < 0 || age > 150 {
			h.rerenderForm(w, r, data, "Edit Case", "/cases/"+id.Hex(), "Age must be a number.")
			return
		}
		upd.PersonAge = age
	}

	if err := h.Cases.Update(ctx, id, upd); err != nil {
		h.Log.Warn("cases: update", zap.Error(err))
		h.rerenderForm(w, r, data, "Edit Case", "/cases/"+id.Hex(), "Could not save the case.")
		return
	}

	http.Redirect(w, r, "/cases/"+id.Hex(), http.StatusSeeOther)
}

// HandleSetStatus handles POST /cases/{id}/status.
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(r)
	if !ok {
		uierrors.RenderNotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	status := normalize.Status(r.FormValue("status"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	k, err := h.Cases.GetByID(ctx, id)
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}
	if !policy.CanManageCase(r, k) {
		uierrors.RenderForbidden(w, r, "You do not manage this case.", "/cases")
		return
	}

	switch err := h.Cases.SetStatus(ctx, id, status); err {
	case nil:
	case casestore.ErrBadStatus:
		h.renderDetail(w, r, "Unknown case status.")
		return
	case casestore.ErrNeedsCounselor:
		h.renderDetail(w, r, "Assign a counselor before activating or finishing a case.")
		return
	default:
		h.Log.Error("cases: set status", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	user, _ := auth.CurrentUser(r)
	h.Activity.CaseStatusChanged(ctx, user, k.ID, k.PersonName, k.Status, status)

	http.Redirect(w, r, "/cases/"+id.Hex(), http.StatusSeeOther)
}

// HandleAssign handles POST /cases/{id}/assign. An empty counselor_id
// unassigns the case.
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(r)
	if !ok {
		uierrors.RenderNotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	k, err := h.Cases.GetByID(ctx, id)
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}
	if !policy.CanManageCase(r, k) {
		uierrors.RenderForbidden(w, r, "You do not manage this case.", "/cases")
		return
	}

	var counselor *models.Counselor
	if raw := normalize.CounselorID(r.FormValue("counselor_id")); raw != "" {
		cid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			h.renderDetail(w, r, "Pick a counselor from the list.")
			return
		}
		if counselor, err = h.Counselors.GetByID(ctx, cid); err != nil {
			h.renderDetail(w, r, "Pick a counselor from the list.")
			return
		}
	}

	switch err := h.Cases.AssignCounselor(ctx, id, counselor); err {
	case nil:
	case casestore.ErrNeedsCounselor:
		h.renderDetail(w, r, "An active or finished case cannot be left without a counselor.")
		return
	default:
		h.Log.Error("cases: assign", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if counselor != nil {
		user, _ := auth.CurrentUser(r)
		h.Activity.CaseAssigned(ctx, user, k.ID, k.PersonName, counselor.FullName)
	}

	http.Redirect(w, r, "/cases/"+id.Hex(), http.StatusSeeOther)
}

// HandleDelete handles POST /cases/{id}/delete.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(r)
	if !ok {
		uierrors.RenderNotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	k, err := h.Cases.GetByID(ctx, id)
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}
	if !policy.CanManageCase(r, k) {
		uierrors.RenderForbidden(w, r, "You do not manage this case.", "/cases")
		return
	}

	if err := h.Cases.Delete(ctx, id); err != nil {
		h.Log.Error("cases: delete", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/cases", http.StatusSeeOther)
}

// HandleAddNote handles POST /cases/{id}/notes.
func (h *Handler) HandleAddNote(w http.ResponseWriter, r *http.Request) {
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

	k, err := h.Cases.GetByID(ctx, id)
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}
	if !policy.CanRecordOnCase(r, k) {
		uierrors.RenderForbidden(w, r, "You can only record on cases assigned to you.", "/cases")
		return
	}

	user, _ := auth.CurrentUser(r)
	note := models.MeetingNote{
		CaseID:     k.ID,
		Body:       r.FormValue("body"),
		AuthorName: user.Name,
	}
	if aid, err := primitive.ObjectIDFromHex(user.ID); err == nil {
		note.AuthorID = aid
	}
	if _, err := h.Notes.Create(ctx, note); err != nil {
		h.renderDetail(w, r, "A note needs some text.")
		return
	}

	h.Activity.NoteAdded(ctx, user, k.ID, k.PersonName)
	http.Redirect(w, r, "/cases/"+id.Hex(), http.StatusSeeOther)
}

// HandleAddReport handles POST /cases/{id}/reports: a summary plus the
// standard questionnaire, answers keyed answer_0..answer_N.
func (h *Handler) HandleAddReport(w http.ResponseWriter, r *http.Request) {
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

	k, err := h.Cases.GetByID(ctx, id)
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}
	if !policy.CanRecordOnCase(r, k) {
		uierrors.RenderForbidden(w, r, "You can only record on cases assigned to you.", "/cases")
		return
	}

	user, _ := auth.CurrentUser(r)
	rep := models.SessionReport{
		CaseID:     k.ID,
		Summary:    r.FormValue("summary"),
		AuthorName: user.Name,
	}
	if aid, err := primitive.ObjectIDFromHex(user.ID); err == nil {
		rep.AuthorID = aid
	}
	for i, q := range reportQuestions {
		rep.Questions = append(rep.Questions, models.QA{
			Question: q,
			Answer:   r.FormValue("answer_" + strconv.Itoa(i)),
		})
	}
	if _, err := h.Reports.Create(ctx, rep); err != nil {
		h.renderDetail(w, r, "A report needs a summary or at least one answer.")
		return
	}

	h.Activity.ReportAdded(ctx, user, k.ID, k.PersonName)
	http.Redirect(w, r, "/cases/"+id.Hex(), http.StatusSeeOther)
}

func (h *Handler) rerenderForm(w http.ResponseWriter, r *http.Request, data formData, title, back, msg string) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if data.Counselors == nil {
		data.Counselors, _ = h.Counselors.ListActive(ctx)
	}
	formutil.SetBase(&data.Base, r, title, back)
	data.SetError(msg)
	templates.Render(w, r, "case_form", data)
}

func formDataFromRequest(r *http.Request) formData {
	return formData{
		PersonName:  r.FormValue("person_name"),
		PersonAge:   strings.TrimSpace(r.FormValue("person_age")),
		PersonSex:   r.FormValue("person_sex"),
		CivilStatus: r.FormValue("civil_status"),
		IssueTags:   r.FormValue("issue_tags"),
		Description: r.FormValue("description"),
		CounselorID: normalize.CounselorID(r.FormValue("counselor_id")),
	}
}

func splitTags(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}

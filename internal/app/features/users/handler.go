// internal/app/features/users/handler.go
package users

import (
	"context"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/counselhub/internal/app/features/errors"
	counselorstore "github.com/dalemusser/counselhub/internal/app/store/counselors"
	loginstore "github.com/dalemusser/counselhub/internal/app/store/logins"
	userstore "github.com/dalemusser/counselhub/internal/app/store/users"
	"github.com/dalemusser/counselhub/internal/app/system/authz"
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

const minPasswordLen = 8

type Handler struct {
	Log        *zap.Logger
	Users      *userstore.Store
	Counselors *counselorstore.Store
	Logins     *loginstore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		Users:      userstore.New(db),
		Counselors: counselorstore.New(db),
		Logins:     loginstore.New(db),
	}
}

type listData struct {
	viewdata.BaseVM
	Users        []models.User
	RoleFilter   string
	StatusFilter string
}

// ServeList handles GET /users with optional role and status filters.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	role := normalize.Role(query.Get(r, "role"))
	status := normalize.Status(query.Get(r, "status"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Users.List(ctx, role, status)
	if err != nil {
		h.Log.Error("users: list", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	templates.Render(w, r, "user_list", listData{
		BaseVM:       viewdata.NewBaseVM(r, "Users", "/dashboard"),
		Users:        list,
		RoleFilter:   role,
		StatusFilter: status,
	})
}

type detailData struct {
	viewdata.BaseVM
	User      models.User
	Counselor *models.Counselor
	Logins    []models.LoginRecord
	CanManage bool
}

// ServeDetail handles GET /users/{id}: the account, its linked counselor
// profile, and recent sign-ins.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(r)
	if !ok {
		uierrors.RenderNotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}

	var counselor *models.Counselor
	if u.Role == authz.RoleCounselor {
		if co, err := h.Counselors.GetByUserID(ctx, u.ID); err == nil {
			counselor = co
		}
	}
	logins, err := h.Logins.ListByUser(ctx, u.ID, 10)
	if err != nil {
		h.Log.Error("users: logins", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	templates.Render(w, r, "user_detail", detailData{
		BaseVM:    viewdata.NewBaseVM(r, u.FullName, "/users"),
		User:      *u,
		Counselor: counselor,
		Logins:    logins,
		CanManage: authz.CanManageUser(r, u.Role),
	})
}

type formData struct {
	formutil.Base
	ID          string
	FullName    string
	Email       string
	UserRole    string
	AuthMethod  string
	CounselorID string
	Counselors  []models.Counselor
	Roles       []string
	IsNew       bool
}

// manageableRoles lists the roles the signed-in user may hand out. Admins
// cannot create or promote leaders.
func manageableRoles(r *http.Request) []string {
	if authz.RequestCan(r, authz.ActionManageLeaderUsers) {
		return []string{authz.RoleLeader, authz.RoleAdmin, authz.RoleCounselor}
	}
	return []string{authz.RoleAdmin, authz.RoleCounselor}
}

// ServeNew handles GET /users/new.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	counselors, err := h.Counselors.ListActive(ctx)
	if err != nil {
		h.Log.Error("users: counselor options", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	data := formData{
		AuthMethod: "internal",
		UserRole:   authz.RoleCounselor,
		Counselors: counselors,
		Roles:      manageableRoles(r),
		IsNew:      true,
	}
	formutil.SetBase(&data.Base, r, "New User", "/users")
	templates.Render(w, r, "user_form", data)
}

// HandleCreate handles POST /users. Internal accounts need a password;
// Google accounts sign in through OAuth and carry none.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	data := formData{
		FullName:    r.FormValue("full_name"),
		Email:       r.FormValue("email"),
		UserRole:    normalize.Role(r.FormValue("role")),
		AuthMethod:  normalize.AuthMethod(r.FormValue("auth_method")),
		CounselorID: strings.TrimSpace(r.FormValue("counselor_id")),
		IsNew:       true,
	}
	password := r.FormValue("password")

	if !authz.CanManageUser(r, data.UserRole) {
		uierrors.RenderForbidden(w, r, "You cannot create accounts with this role.", "/users")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if data.AuthMethod == "internal" && len(password) < minPasswordLen {
		h.rerenderForm(w, r, data, "New User", "/users", "Password must be at least 8 characters.")
		return
	}

	u, err := h.Users.Create(ctx, models.User{
		FullName:   data.FullName,
		Email:      data.Email,
		Role:       data.UserRole,
		AuthMethod: data.AuthMethod,
	}, password)
	if err != nil {
		msg := "Could not save the user."
		if err == userstore.ErrDuplicateEmail {
			msg = "A user with this email already exists."
		}
		h.Log.Warn("users: create", zap.Error(err))
		h.rerenderForm(w, r, data, "New User", "/users", msg)
		return
	}

	// Optional link to a counselor profile for counselor-role accounts.
	if u.Role == authz.RoleCounselor && data.CounselorID != "" {
		if cid, err := primitive.ObjectIDFromHex(data.CounselorID); err == nil {
			if err := h.Counselors.LinkUser(ctx, cid, &u.ID); err != nil {
				h.Log.Warn("users: link counselor", zap.Error(err))
			}
		}
	}

	http.Redirect(w, r, "/users/"+u.ID.Hex(), http.StatusSeeOther)
}

// ServeEdit handles GET /users/{id}/edit.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(r)
	if !ok {
		uierrors.RenderNotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}
	if !authz.CanManageUser(r, u.Role) {
		uierrors.RenderForbidden(w, r, "You cannot manage this account.", "/users")
		return
	}

	data := formData{
		ID:         u.ID.Hex(),
		FullName:   u.FullName,
		Email:      u.Email,
		UserRole:   u.Role,
		AuthMethod: u.AuthMethod,
		Roles:      manageableRoles(r),
	}
	formutil.SetBase(&data.Base, r, "Edit User", "/users/"+u.ID.Hex())
	templates.Render(w, r, "user_form", data)
}

// HandleUpdate handles POST /users/{id}: name, email, and role. The gate
// runs against both the current and the requested role, so an admin can
// neither touch a leader account nor promote one.
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
	data := formData{
		ID:       id.Hex(),
		FullName: r.FormValue("full_name"),
		Email:    r.FormValue("email"),
		UserRole: normalize.Role(r.FormValue("role")),
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}
	if !authz.CanManageUser(r, u.Role) || !authz.CanManageUser(r, data.UserRole) {
		uierrors.RenderForbidden(w, r, "You cannot manage this account.", "/users")
		return
	}

	if err := h.Users.Update(ctx, id, data.FullName, data.Email, data.UserRole); err != nil {
		msg := "Could not save the user."
		if err == userstore.ErrDuplicateEmail {
			msg = "A user with this email already exists."
		}
		data.AuthMethod = u.AuthMethod
		h.rerenderForm(w, r, data, "Edit User", "/users/"+id.Hex(), msg)
		return
	}

	http.Redirect(w, r, "/users/"+id.Hex(), http.StatusSeeOther)
}

// HandleSetPassword handles POST /users/{id}/password for internal-auth
// accounts.
func (h *Handler) HandleSetPassword(w http.ResponseWriter, r *http.Request) {
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

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}
	if !authz.CanManageUser(r, u.Role) {
		uierrors.RenderForbidden(w, r, "You cannot manage this account.", "/users")
		return
	}
	if u.AuthMethod != "internal" {
		uierrors.RenderForbidden(w, r, "Google accounts have no local password.", "/users/"+id.Hex())
		return
	}
	if len(r.FormValue("password")) < minPasswordLen {
		h.renderDetailWithLog(w, r, "users: short password")
		return
	}

	if err := h.Users.SetPassword(ctx, id, r.FormValue("password")); err != nil {
		h.Log.Error("users: set password", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/users/"+id.Hex(), http.StatusSeeOther)
}

// HandleDeactivate handles POST /users/{id}/deactivate. Accounts are never
// deleted; deactivation blocks sign-in and drops the user from pickers.
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.Users.Deactivate)
}

// HandleReactivate handles POST /users/{id}/reactivate.
func (h *Handler) HandleReactivate(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.Users.Reactivate)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request, op func(context.Context, primitive.ObjectID) error) {
	id, ok := objectIDParam(r)
	if !ok {
		uierrors.RenderNotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}
	if !authz.CanManageUser(r, u.Role) {
		uierrors.RenderForbidden(w, r, "You cannot manage this account.", "/users")
		return
	}

	if err := op(ctx, id); err != nil {
		h.Log.Error("users: set status", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/users/"+id.Hex(), http.StatusSeeOther)
}

func (h *Handler) renderDetailWithLog(w http.ResponseWriter, r *http.Request, logMsg string) {
	h.Log.Warn(logMsg)
	h.ServeDetail(w, r)
}

func (h *Handler) rerenderForm(w http.ResponseWriter, r *http.Request, data formData, title, back, msg string) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if data.IsNew && data.Counselors == nil {
		data.Counselors, _ = h.Counselors.ListActive(ctx)
	}
	if data.Roles == nil {
		data.Roles = manageableRoles(r)
	}
	formutil.SetBase(&data.Base, r, title, back)
	data.SetError(msg)
	templates.Render(w, r, "user_form", data)
}

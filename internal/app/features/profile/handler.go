// internal/app/features/profile/handler.go
package profile

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/counselhub/internal/app/features/errors"
	counselorstore "github.com/dalemusser/counselhub/internal/app/store/counselors"
	userstore "github.com/dalemusser/counselhub/internal/app/store/users"
	"github.com/dalemusser/counselhub/internal/app/system/gates"
	"github.com/dalemusser/counselhub/internal/app/system/timeouts"
	"github.com/dalemusser/counselhub/internal/app/system/viewdata"
	"github.com/dalemusser/counselhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const minPasswordLen = 8

type Handler struct {
	Log        *zap.Logger
	Users      *userstore.Store
	Counselors *counselorstore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		Users:      userstore.New(db),
		Counselors: counselorstore.New(db),
	}
}

type profileData struct {
	viewdata.BaseVM
	User      models.User
	Counselor *models.Counselor

	// Internal-auth accounts can change their password here.
	ShowPasswordForm bool
	Error            string
	Success          string
}

// ServeProfile handles GET /profile: the signed-in user's own account.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	h.renderProfile(w, r, "", successMessage(r))
}

// HandleChangePassword handles POST /profile/password. The current
// password must verify before the new one is accepted.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAuth(w, r, "/login")
	if !g.OK {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.GetByID(ctx, g.UserID)
	if err != nil {
		uierrors.RenderUnauthorized(w, r, "")
		return
	}
	if u.AuthMethod != "internal" {
		uierrors.RenderForbidden(w, r, "Google accounts have no local password.", "/profile")
		return
	}

	current := r.FormValue("current_password")
	next := r.FormValue("new_password")
	confirm := r.FormValue("confirm_password")

	switch {
	case !userstore.VerifyPassword(u, current):
		h.renderProfile(w, r, "Current password is incorrect.", "")
		return
	case len(next) < minPasswordLen:
		h.renderProfile(w, r, "New password must be at least 8 characters.", "")
		return
	case next != confirm:
		h.renderProfile(w, r, "New passwords do not match.", "")
		return
	}

	if err := h.Users.SetPassword(ctx, g.UserID, next); err != nil {
		h.Log.Error("profile: set password", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/profile?success=password", http.StatusSeeOther)
}

func (h *Handler) renderProfile(w http.ResponseWriter, r *http.Request, errMsg, successMsg string) {
	g := gates.RequireAuth(w, r, "/login")
	if !g.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, g.UserID)
	if err != nil {
		uierrors.RenderUnauthorized(w, r, "")
		return
	}

	var counselor *models.Counselor
	if co, err := h.Counselors.GetByUserID(ctx, u.ID); err == nil {
		counselor = co
	}

	templates.Render(w, r, "profile", profileData{
		BaseVM:           viewdata.NewBaseVM(r, "Profile", "/dashboard"),
		User:             *u,
		Counselor:        counselor,
		ShowPasswordForm: u.AuthMethod == "internal",
		Error:            errMsg,
		Success:          successMsg,
	})
}

func successMessage(r *http.Request) string {
	if r.URL.Query().Get("success") == "password" {
		return "Password changed."
	}
	return ""
}

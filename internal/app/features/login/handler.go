// internal/app/features/login/handler.go
package login

import (
	"context"
	"net/http"

	loginstore "github.com/dalemusser/counselhub/internal/app/store/logins"
	userstore "github.com/dalemusser/counselhub/internal/app/store/users"
	"github.com/dalemusser/counselhub/internal/app/system/auth"
	"github.com/dalemusser/counselhub/internal/app/system/normalize"
	"github.com/dalemusser/counselhub/internal/app/system/ratelimit"
	"github.com/dalemusser/counselhub/internal/app/system/timeouts"
	"github.com/dalemusser/counselhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const badCredentialsMsg = "Incorrect email or password."

type Handler struct {
	Log           *zap.Logger
	SessionMgr    *auth.SessionManager
	Users         *userstore.Store
	Logins        *loginstore.Store
	Limiter       *ratelimit.LoginLimiter
	GoogleEnabled bool
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, googleEnabled bool, logger *zap.Logger) *Handler {
	return &Handler{
		Log:           logger,
		SessionMgr:    sessionMgr,
		Users:         userstore.New(db),
		Logins:        loginstore.New(db),
		Limiter:       ratelimit.NewLoginLimiter(),
		GoogleEnabled: googleEnabled,
	}
}

type loginFormData struct {
	viewdata.BaseVM
	Error         string
	Email         string
	ReturnURL     string
	GoogleEnabled bool
}

// ServeForm handles GET /login.
func (h *Handler) ServeForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUser(r); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.renderForm(w, r, loginFormData{
		ReturnURL: query.Get(r, "return"),
	})
}

// HandleSubmit handles POST /login: rate limiting, credential check, and
// session establishment.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	email := normalize.Email(r.FormValue("email"))
	password := r.FormValue("password")
	returnURL := r.FormValue("return")

	fail := func(msg string) {
		h.renderForm(w, r, loginFormData{
			Error:     msg,
			Email:     email,
			ReturnURL: returnURL,
		})
	}

	if email == "" || password == "" {
		fail("Email and password are required.")
		return
	}

	if ok, reason := h.Limiter.Check(r, email); !ok {
		h.Log.Warn("login rate limited",
			zap.String("email", email),
			zap.String("ip", ratelimit.ClientIP(r)),
			zap.String("reason", reason))
		fail("Too many attempts. Please wait a minute and try again.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			h.Log.Error("login: user lookup", zap.Error(err))
		}
		fail(badCredentialsMsg)
		return
	}
	if u.AuthMethod != "internal" || !userstore.VerifyPassword(u, password) {
		fail(badCredentialsMsg)
		return
	}
	if u.Status != "active" {
		fail("This account has been deactivated. Contact a leader.")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.Log.Error("login: sign-in", zap.Error(err))
		fail("Sign-in failed. Please try again.")
		return
	}
	h.Limiter.ResetEmail(email)

	// Best effort; a failed history write must not block the login.
	if err := h.Logins.CreateFrom(ctx, r, u.ID, "internal"); err != nil {
		h.Log.Warn("login: record history", zap.Error(err))
	}

	http.Redirect(w, r, urlutil.SafeReturn(returnURL, "", "/dashboard"), http.StatusSeeOther)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, data loginFormData) {
	data.BaseVM = viewdata.NewBaseVM(r, "Sign in", "/")
	data.GoogleEnabled = h.GoogleEnabled
	templates.Render(w, r, "login", data)
}

// internal/app/features/calendar/routes.go
package calendar

import (
	"github.com/dalemusser/counselhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeMonth)
	return r
}

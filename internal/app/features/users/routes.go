// internal/app/features/users/routes.go
package users

import (
	"net/http"

	"github.com/dalemusser/counselhub/internal/app/system/auth"
	"github.com/dalemusser/counselhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	// Account management is staff-only; admin limits against leader
	// accounts are enforced per target in the handlers.
	r.Use(sm.RequireRole(authz.RoleLeader, authz.RoleAdmin))

	r.Get("/", h.ServeList)
	r.Get("/new", h.ServeNew)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.ServeDetail)
	r.Get("/{id}/edit", h.ServeEdit)
	r.Post("/{id}", h.HandleUpdate)
	r.Post("/{id}/password", h.HandleSetPassword)
	r.Post("/{id}/deactivate", h.HandleDeactivate)
	r.Post("/{id}/reactivate", h.HandleReactivate)

	return r
}

func objectIDParam(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	return id, err == nil
}

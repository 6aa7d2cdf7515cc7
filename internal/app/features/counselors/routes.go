// internal/app/features/counselors/routes.go
package counselors

import (
	"net/http"

	"github.com/dalemusser/counselhub/internal/app/system/auth"
	"github.com/dalemusser/counselhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	// Any signed-in user can browse counselors and their workload.
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Get("/{id}", h.ServeDetail)
	})

	// Creating and editing profiles is staff work.
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(authz.RoleLeader, authz.RoleAdmin))
		pr.Get("/new", h.ServeNew)
		pr.Post("/", h.HandleCreate)
		pr.Get("/{id}/edit", h.ServeEdit)
		pr.Post("/{id}", h.HandleUpdate)
		pr.Post("/{id}/deactivate", h.HandleDeactivate)
		pr.Post("/{id}/reactivate", h.HandleReactivate)
		pr.Post("/{id}/delete", h.HandleDelete)
	})

	return r
}

func objectIDParam(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	return id, err == nil
}

// internal/app/features/cases/routes.go
package cases

import (
	"net/http"

	"github.com/dalemusser/counselhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Routes wires the case screens. Everything sits behind sign-in; the finer
// distinctions (counselors see only their own cases, only staff manage
// them) live in the policy checks inside the handlers, since they need the
// loaded case.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Get("/new", h.ServeNew)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.ServeDetail)
	r.Get("/{id}/edit", h.ServeEdit)
	r.Post("/{id}", h.HandleUpdate)
	r.Post("/{id}/status", h.HandleSetStatus)
	r.Post("/{id}/assign", h.HandleAssign)
	r.Post("/{id}/delete", h.HandleDelete)
	r.Post("/{id}/notes", h.HandleAddNote)
	r.Post("/{id}/reports", h.HandleAddReport)

	return r
}

func objectIDParam(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	return id, err == nil
}

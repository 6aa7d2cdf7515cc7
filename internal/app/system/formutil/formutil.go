// Package formutil provides helpers for form re-rendering with validation errors.
//
// When a form submission fails validation, the form is re-rendered with the
// user's previously entered values echoed back, an error message, and the
// context data the form needs (counselor dropdowns, room lists, and so on).
//
// Example usage:
//
//	type newCaseData struct {
//		formutil.Base
//		PersonName string
//		Counselors []counselorOption
//	}
//
//	// In your handler:
//	data := newCaseData{PersonName: name}
//	formutil.SetBase(&data.Base, r, "New Case", "/cases")
//	data.SetError("Person name is required.")
//	templates.Render(w, r, "case_form", data)
package formutil

import (
	"html/template"
	"net/http"

	"github.com/dalemusser/counselhub/internal/app/system/authz"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
)

// Base contains common fields for form pages that can be embedded in form data structs.
type Base struct {
	Title       string
	IsLoggedIn  bool
	Role        string
	UserName    string
	BackURL     string
	CurrentPath string
	CSRFToken   string
	Error       template.HTML
}

// SetBase populates the common Base fields from the request context.
// It extracts user info from authz.UserCtx and sets navigation fields.
//
// Parameters:
//   - b: pointer to the Base struct to populate
//   - r: the HTTP request
//   - title: the page title
//   - backDefault: default URL for the back button if none in request
func SetBase(b *Base, r *http.Request, title, backDefault string) {
	role, uname, _, _ := authz.UserCtx(r)
	b.Title = title
	b.IsLoggedIn = true
	b.Role = role
	b.UserName = uname
	b.BackURL = httpnav.ResolveBackURL(r, backDefault)
	b.CurrentPath = httpnav.CurrentPath(r)
	b.CSRFToken = csrf.Token(r)
}

// SetError sets the error message on a Base struct. The message is
// HTML-escaped: validation messages echo user input (room names, emails),
// so they must never reach the page as live markup.
func (b *Base) SetError(msg string) {
	b.Error = template.HTML(template.HTMLEscapeString(msg))
}

// internal/app/features/users/templates.go
package users

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var tplFS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "users",
		FS:       tplFS,
		Patterns: []string{"templates/*.gohtml"},
	})
}

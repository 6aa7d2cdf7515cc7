// internal/app/features/profile/templates.go
package profile

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var tplFS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "profile",
		FS:       tplFS,
		Patterns: []string{"templates/*.gohtml"},
	})
}

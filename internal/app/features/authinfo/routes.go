// internal/app/features/authinfo/routes.go
package authinfo

import (
	"github.com/dalemusser/courseportal/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /api/auth identity router. /check is public so the
// client can check its session; everything else needs a signed-in user.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Get("/check", h.ServeCheck)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/user", h.ServeUser)
		pr.Post("/device", h.HandleDevice)
		pr.Get("/devices", h.ServeDevices)
	})

	return r
}

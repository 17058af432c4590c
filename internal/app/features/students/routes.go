// internal/app/features/students/routes.go
package students

import (
	"net/http"

	uierrors "github.com/dalemusser/courseportal/internal/app/features/errors"
	"github.com/dalemusser/courseportal/internal/app/system/auth"
	"github.com/dalemusser/courseportal/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the student routes under the base path (typically
// "/api/students"). Every route requires a signed-in user.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/profile", h.ServeProfile)
	r.Put("/profile", h.HandleUpdateProfile)
	r.Get("/courses", h.ServeCourses)
	r.Get("/dashboard", h.ServeDashboard)

	// Enroll and drop are limited per user.
	r.Group(func(pr chi.Router) {
		pr.Use(h.Limiter.Middleware(userKey, uierrors.TooManyRequests))
		pr.Post("/enroll/{courseId}", h.HandleEnroll)
		pr.Delete("/enroll/{courseId}", h.HandleDrop)
	})

	return r
}

func userKey(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok {
		return "user:" + u.ID
	}
	return ratelimit.ClientIP(r)
}

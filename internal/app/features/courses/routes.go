// internal/app/features/courses/routes.go
package courses

import (
	"github.com/dalemusser/courseportal/internal/app/system/auth"
	"github.com/dalemusser/courseportal/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the catalog under the base path (typically "/api/courses").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	// Public catalog
	r.Get("/", h.ServeList)
	r.Get("/meta/departments", h.ServeDepartments)
	r.Get("/meta/categories", h.ServeCategories)
	r.Get("/meta/categories/{department}", h.ServeCategories)
	r.Get("/department/{department}", h.ServeByDepartment)
	r.Get("/{id}", h.ServeCourse)

	// Admin-only catalog edits
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(models.RoleAdmin))

		pr.Post("/", h.HandleCreate)
		pr.Put("/{id}", h.HandleUpdate)
		pr.Delete("/{id}", h.HandleDelete)
	})

	return r
}

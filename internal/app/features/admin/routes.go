// internal/app/features/admin/routes.go
package admin

import (
	"github.com/dalemusser/courseportal/internal/app/system/auth"
	"github.com/dalemusser/courseportal/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the admin routes under the base path (typically
// "/api/admin"). Every route requires the admin role.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(models.RoleAdmin))

	r.Get("/dashboard", h.ServeDashboard)

	r.Get("/students", h.ServeStudents)
	r.Get("/students/{id}", h.ServeStudent)
	r.Put("/students/{id}/status", h.HandleStudentStatus)

	r.Get("/export/students", h.ExportStudents)
	r.Get("/export/courses", h.ExportCourses)

	return r
}

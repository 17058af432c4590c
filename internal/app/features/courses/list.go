// internal/app/features/courses/list.go
package courses

import (
	"net/http"

	coursestore "github.com/dalemusser/courseportal/internal/app/store/courses"
	"github.com/dalemusser/courseportal/internal/app/system/normalize"
	"github.com/dalemusser/courseportal/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// ServeList handles GET /api/courses?department=&category=&level=&search=.
// Only active courses are listed, newest first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list courses")
	defer cancel()

	f := coursestore.Filter{
		Department: query.Get(r, "department"),
		Category:   query.Get(r, "category"),
		Level:      query.Get(r, "level"),
		Search:     normalize.QueryParam(query.Get(r, "search")),
	}
	list, err := h.Courses.Find(ctx, f)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list courses failed", err, "Error fetching courses")
		return
	}
	render.JSON(w, r, list)
}

// ServeByDepartment handles GET /api/courses/department/{department}.
func (h *Handler) ServeByDepartment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list courses by department")
	defer cancel()

	list, err := h.Courses.Find(ctx, coursestore.Filter{Department: chi.URLParam(r, "department")})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list courses by department failed", err, "Error fetching courses")
		return
	}
	render.JSON(w, r, list)
}

// ServeDepartments handles GET /api/courses/meta/departments.
func (h *Handler) ServeDepartments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "distinct departments")
	defer cancel()

	out, err := h.Courses.DistinctDepartments(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "distinct departments failed", err, "Error fetching departments")
		return
	}
	render.JSON(w, r, out)
}

// ServeCategories handles GET /api/courses/meta/categories and
// GET /api/courses/meta/categories/{department}.
func (h *Handler) ServeCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "distinct categories")
	defer cancel()

	out, err := h.Courses.DistinctCategories(ctx, chi.URLParam(r, "department"))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "distinct categories failed", err, "Error fetching categories")
		return
	}
	render.JSON(w, r, out)
}

// internal/app/features/courses/view.go
package courses

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/courseportal/internal/app/features/errors"
	coursestore "github.com/dalemusser/courseportal/internal/app/store/courses"
	"github.com/dalemusser/courseportal/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeCourse handles GET /api/courses/{id}. Inactive courses are still
// returned so existing enrollments can show their details.
func (h *Handler) ServeCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := courseID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get course")
	defer cancel()

	c, err := h.Courses.GetByID(ctx, id)
	if errors.Is(err, coursestore.ErrNotFound) {
		uierrors.NotFound(w, r, "Course not found")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "get course failed", err, "Error fetching course")
		return
	}
	render.JSON(w, r, c)
}

// courseID parses the {id} URL parameter, answering 400 when it is not an
// ObjectID.
func courseID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.BadRequest(w, r, "Invalid course id")
		return primitive.NilObjectID, false
	}
	return id, true
}

// internal/app/features/students/enroll.go
package students

import (
	"net/http"

	"github.com/dalemusser/courseportal/internal/app/enrollment"
	uierrors "github.com/dalemusser/courseportal/internal/app/features/errors"
	"github.com/dalemusser/courseportal/internal/app/system/authz"
	"github.com/dalemusser/courseportal/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type enrollResponse struct {
	Message string                 `json:"message"`
	Student enrollment.StudentView `json:"student"`
}

type dropResponse struct {
	Message         string                 `json:"message"`
	EnrolledCourses []enrollment.EntryView `json:"enrolledCourses"`
}

// HandleEnroll handles POST /api/students/enroll/{courseId}.
func (h *Handler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	userID, courseID, ok := h.enrollParams(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "enroll")
	defer cancel()

	view, err := h.Svc.Enroll(ctx, userID, courseID)
	if err != nil {
		h.ErrLog.Enrollment(w, r, "enroll failed", err, "Error enrolling in course")
		return
	}
	render.JSON(w, r, enrollResponse{Message: "Successfully enrolled in course", Student: view})
}

// HandleDrop handles DELETE /api/students/enroll/{courseId}.
func (h *Handler) HandleDrop(w http.ResponseWriter, r *http.Request) {
	userID, courseID, ok := h.enrollParams(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "drop")
	defer cancel()

	entries, err := h.Svc.Drop(ctx, userID, courseID)
	if err != nil {
		h.ErrLog.Enrollment(w, r, "drop failed", err, "Error dropping course")
		return
	}
	render.JSON(w, r, dropResponse{Message: "Successfully dropped course", EnrolledCourses: entries})
}

// enrollParams resolves the signed-in user and the {courseId} parameter. A
// malformed course id can never match a course: enroll answers like a
// missing course, and drop passes the nil id on so the service checks the
// student record before reporting NotEnrolled.
func (h *Handler) enrollParams(w http.ResponseWriter, r *http.Request) (userID, courseID primitive.ObjectID, ok bool) {
	userID, ok = authz.UserID(r)
	if !ok {
		uierrors.Unauthorized(w, r)
		return
	}
	courseID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "courseId"))
	if err != nil {
		if r.Method == http.MethodPost {
			uierrors.NotFound(w, r, "Course not found or inactive")
			return userID, primitive.NilObjectID, false
		}
		return userID, primitive.NilObjectID, true
	}
	return userID, courseID, true
}

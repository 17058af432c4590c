// internal/app/features/courses/admin.go
package courses

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/courseportal/internal/app/features/errors"
	coursestore "github.com/dalemusser/courseportal/internal/app/store/courses"
	"github.com/dalemusser/courseportal/internal/app/system/authz"
	"github.com/dalemusser/courseportal/internal/app/system/inputval"
	"github.com/dalemusser/courseportal/internal/app/system/timeouts"
	"github.com/go-chi/render"
	"go.uber.org/zap"
)

// HandleCreate handles POST /api/courses (admin).
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in courseInput
	if err := inputval.Decode(w, r, &in); err != nil {
		h.validationFailed(w, r, err)
		return
	}
	if err := inputval.Struct(in); err != nil {
		h.validationFailed(w, r, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create course")
	defer cancel()

	c, err := h.Courses.Create(ctx, in.toCourse())
	if errors.Is(err, coursestore.ErrDuplicateCode) {
		uierrors.Validation(w, r, inputval.Invalid("courseCode", "is already in use"))
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create course failed", err, "Error creating course")
		return
	}

	actorID, _ := authz.UserID(r)
	h.Audit.CourseCreated(ctx, r, actorID, c.ID, c.CourseCode)
	h.Log.Info("course created", zap.String("course_id", c.ID.Hex()), zap.String("course_code", c.CourseCode))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, c)
}

// HandleUpdate handles PUT /api/courses/{id} (admin). Fields missing from the
// body keep their stored values; the seat counter is never touched.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := courseID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update course")
	defer cancel()

	existing, err := h.Courses.GetByID(ctx, id)
	if errors.Is(err, coursestore.ErrNotFound) {
		uierrors.NotFound(w, r, "Course not found")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load course for update failed", err, "Error updating course")
		return
	}

	in := inputFromCourse(existing)
	// Syllabus and resources in the body replace the stored lists outright.
	syllabus, resources := in.Syllabus, in.Resources
	in.Syllabus, in.Resources = nil, nil
	if err := inputval.Decode(w, r, &in); err != nil {
		h.validationFailed(w, r, err)
		return
	}
	if in.Syllabus == nil {
		in.Syllabus = syllabus
	}
	if in.Resources == nil {
		in.Resources = resources
	}
	if err := inputval.Struct(in); err != nil {
		h.validationFailed(w, r, err)
		return
	}

	c, err := h.Courses.Update(ctx, id, in.toCourse())
	switch {
	case errors.Is(err, coursestore.ErrNotFound):
		uierrors.NotFound(w, r, "Course not found")
		return
	case errors.Is(err, coursestore.ErrDuplicateCode):
		uierrors.Validation(w, r, inputval.Invalid("courseCode", "is already in use"))
		return
	case errors.Is(err, coursestore.ErrCapacityBelowEnrolled):
		uierrors.Validation(w, r, inputval.Invalid("capacity", "cannot be lower than the current enrollment"))
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "update course failed", err, "Error updating course")
		return
	}

	actorID, _ := authz.UserID(r)
	h.Audit.CourseUpdated(ctx, r, actorID, c.ID, c.CourseCode)

	render.JSON(w, r, c)
}

// HandleDelete handles DELETE /api/courses/{id} (admin). Courses are only
// deactivated; students keep their entries.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := courseID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "deactivate course")
	defer cancel()

	c, err := h.Courses.Deactivate(ctx, id)
	if errors.Is(err, coursestore.ErrNotFound) {
		uierrors.NotFound(w, r, "Course not found")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "deactivate course failed", err, "Error deleting course")
		return
	}

	actorID, _ := authz.UserID(r)
	h.Audit.CourseDeactivated(ctx, r, actorID, c.ID, c.CourseCode)

	render.JSON(w, r, map[string]string{"message": "Course deactivated successfully"})
}

func (h *Handler) validationFailed(w http.ResponseWriter, r *http.Request, err error) {
	var ve *inputval.ValidationError
	if errors.As(err, &ve) {
		uierrors.Validation(w, r, ve)
		return
	}
	h.ErrLog.LogServerError(w, r, "course validation failed", err, "Error validating course")
}

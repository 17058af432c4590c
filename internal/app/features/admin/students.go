// internal/app/features/admin/students.go
package admin

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/courseportal/internal/app/features/errors"
	studentstore "github.com/dalemusser/courseportal/internal/app/store/students"
	"github.com/dalemusser/courseportal/internal/app/system/authz"
	"github.com/dalemusser/courseportal/internal/app/system/inputval"
	"github.com/dalemusser/courseportal/internal/app/system/limits"
	"github.com/dalemusser/courseportal/internal/app/system/normalize"
	"github.com/dalemusser/courseportal/internal/app/system/paging"
	"github.com/dalemusser/courseportal/internal/app/system/timeouts"
	"github.com/dalemusser/courseportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type pagination struct {
	paging.Info
	Limit int `json:"limit"`
}

type studentsResponse struct {
	Students   []studentRow `json:"students"`
	Pagination pagination   `json:"pagination"`
}

// ServeStudents handles GET /api/admin/students?page=&limit=&department=&status=&search=.
// Only active students are listed, newest first.
func (h *Handler) ServeStudents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "admin list students")
	defer cancel()

	pg := paging.Parse(r)
	active := true
	f := studentstore.Filter{
		Department: query.Get(r, "department"),
		Status:     query.Get(r, "status"),
		Search:     normalize.QueryParam(query.Get(r, "search")),
		Active:     &active,
	}

	list, err := h.Students.Find(ctx, f, pg.Skip(), int64(pg.Limit))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list students failed", err, "Error fetching students")
		return
	}
	total, err := h.Students.Count(ctx, f)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count students failed", err, "Error fetching students")
		return
	}
	rows, err := h.buildRows(ctx, list, rowOptions{})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve students failed", err, "Error fetching students")
		return
	}

	render.JSON(w, r, studentsResponse{
		Students:   rows,
		Pagination: pagination{Info: paging.NewInfo(pg, total), Limit: pg.Limit},
	})
}

// ServeStudent handles GET /api/admin/students/{id}. The id is the student
// record's ObjectID.
func (h *Handler) ServeStudent(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.NotFound(w, r, "Student not found")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "admin get student")
	defer cancel()

	st, err := h.Students.GetByID(ctx, id)
	if errors.Is(err, studentstore.ErrNotFound) {
		uierrors.NotFound(w, r, "Student not found")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "get student failed", err, "Error fetching student details")
		return
	}
	rows, err := h.buildRows(ctx, []models.Student{st}, rowOptions{devices: true})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve student failed", err, "Error fetching student details")
		return
	}
	render.JSON(w, r, rows[0])
}

type statusInput struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// HandleStudentStatus handles PUT /api/admin/students/{id}/status with a
// body of {"isActive": bool}.
func (h *Handler) HandleStudentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.NotFound(w, r, "Student not found")
		return
	}

	var in statusInput
	if err := inputval.DecodeLimit(w, r, &in, limits.MaxSmallJSONBody); err != nil {
		h.validationFailed(w, r, err)
		return
	}
	if err := inputval.Struct(in); err != nil {
		h.validationFailed(w, r, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "admin set student status")
	defer cancel()

	st, err := h.Students.SetActive(ctx, id, *in.IsActive)
	if errors.Is(err, studentstore.ErrNotFound) {
		uierrors.NotFound(w, r, "Student not found")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "set student status failed", err, "Error updating student status")
		return
	}

	actorID, _ := authz.UserID(r)
	h.Audit.StudentStatusChanged(ctx, r, actorID, st.UserID, st.StudentID, st.IsActive)

	rows, err := h.buildRows(ctx, []models.Student{st}, rowOptions{})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve student failed", err, "Error updating student status")
		return
	}
	render.JSON(w, r, rows[0])
}

func (h *Handler) validationFailed(w http.ResponseWriter, r *http.Request, err error) {
	var ve *inputval.ValidationError
	if errors.As(err, &ve) {
		uierrors.Validation(w, r, ve)
		return
	}
	h.ErrLog.LogServerError(w, r, "admin validation failed", err, "Error updating student status")
}

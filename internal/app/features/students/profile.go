// internal/app/features/students/profile.go
package students

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/courseportal/internal/app/enrollment"
	uierrors "github.com/dalemusser/courseportal/internal/app/features/errors"
	"github.com/dalemusser/courseportal/internal/app/system/authz"
	"github.com/dalemusser/courseportal/internal/app/system/inputval"
	"github.com/dalemusser/courseportal/internal/app/system/limits"
	"github.com/dalemusser/courseportal/internal/app/system/timeouts"
	"github.com/dalemusser/courseportal/internal/domain/models"
	"github.com/go-chi/render"
)

// profileInput is the body of PUT /api/students/profile. It is pre-filled
// from the stored record, so either section may be omitted.
type profileInput struct {
	PersonalInfo personalInput `json:"personalInfo"`
	AcademicInfo academicInput `json:"academicInfo"`
}

type personalInput struct {
	FirstName   string       `json:"firstName" validate:"required,max=100"`
	LastName    string       `json:"lastName" validate:"max=100"`
	DateOfBirth *time.Time   `json:"dateOfBirth"`
	Gender      string       `json:"gender" validate:"gender"`
	Phone       string       `json:"phone" validate:"max=30"`
	Address     addressInput `json:"address"`
}

type addressInput struct {
	Street  string `json:"street" validate:"max=200"`
	City    string `json:"city" validate:"max=100"`
	State   string `json:"state" validate:"max=100"`
	ZipCode string `json:"zipCode" validate:"max=20"`
	Country string `json:"country" validate:"max=100"`
}

type academicInput struct {
	Department        string   `json:"department" validate:"department"`
	Year              string   `json:"year" validate:"year"`
	Semester          string   `json:"semester" validate:"semester"`
	CGPA              *float64 `json:"cgpa" validate:"omitempty,min=0,max=10"`
	PreviousEducation string   `json:"previousEducation" validate:"max=500"`
}

func profileFromStudent(st models.Student) profileInput {
	p, a := st.PersonalInfo, st.AcademicInfo
	return profileInput{
		PersonalInfo: personalInput{
			FirstName:   p.FirstName,
			LastName:    p.LastName,
			DateOfBirth: p.DateOfBirth,
			Gender:      p.Gender,
			Phone:       p.Phone,
			Address:     addressInput(p.Address),
		},
		AcademicInfo: academicInput(a),
	}
}

func (in profileInput) toModels() (models.PersonalInfo, models.AcademicInfo) {
	p, a := in.PersonalInfo, in.AcademicInfo
	personal := models.PersonalInfo{
		FirstName:   strings.TrimSpace(p.FirstName),
		LastName:    strings.TrimSpace(p.LastName),
		DateOfBirth: p.DateOfBirth,
		Gender:      p.Gender,
		Phone:       strings.TrimSpace(p.Phone),
		Address: models.Address{
			Street:  strings.TrimSpace(p.Address.Street),
			City:    strings.TrimSpace(p.Address.City),
			State:   strings.TrimSpace(p.Address.State),
			ZipCode: strings.TrimSpace(p.Address.ZipCode),
			Country: strings.TrimSpace(p.Address.Country),
		},
	}
	academic := models.AcademicInfo{
		Department:        a.Department,
		Year:              a.Year,
		Semester:          a.Semester,
		CGPA:              a.CGPA,
		PreviousEducation: strings.TrimSpace(a.PreviousEducation),
	}
	return personal, academic
}

// ServeProfile handles GET /api/students/profile. The student record is
// created on first visit.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserID(r)
	if !ok {
		uierrors.Unauthorized(w, r)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "student profile")
	defer cancel()

	view, err := h.Svc.Profile(ctx, userID)
	if errors.Is(err, enrollment.ErrNotFound) {
		// The session outlived its user document.
		uierrors.Unauthorized(w, r)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load student profile failed", err, "Error fetching student profile")
		return
	}
	render.JSON(w, r, view)
}

// HandleUpdateProfile handles PUT /api/students/profile.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserID(r)
	if !ok {
		uierrors.Unauthorized(w, r)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update student profile")
	defer cancel()

	st, err := h.Svc.Student(ctx, userID)
	if errors.Is(err, enrollment.ErrNotFound) {
		uierrors.NotFound(w, r, "Student profile not found")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load student for update failed", err, "Error updating student profile")
		return
	}

	in := profileFromStudent(st)
	if err := inputval.DecodeLimit(w, r, &in, limits.MaxSmallJSONBody); err != nil {
		h.validationFailed(w, r, err)
		return
	}
	if err := inputval.Struct(in); err != nil {
		h.validationFailed(w, r, err)
		return
	}

	personal, academic := in.toModels()
	view, err := h.Svc.UpdateProfile(ctx, userID, personal, academic)
	if err != nil {
		h.ErrLog.Enrollment(w, r, "update student profile failed", err, "Error updating student profile")
		return
	}
	render.JSON(w, r, view)
}

// ServeCourses handles GET /api/students/courses.
func (h *Handler) ServeCourses(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserID(r)
	if !ok {
		uierrors.Unauthorized(w, r)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "enrolled courses")
	defer cancel()

	entries, err := h.Svc.Entries(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load enrolled courses failed", err, "Error fetching enrolled courses")
		return
	}
	render.JSON(w, r, entries)
}

// ServeDashboard handles GET /api/students/dashboard.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserID(r)
	if !ok {
		uierrors.Unauthorized(w, r)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "student dashboard")
	defer cancel()

	d, err := h.Svc.Dashboard(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load student dashboard failed", err, "Error fetching dashboard data")
		return
	}
	render.JSON(w, r, d)
}

func (h *Handler) validationFailed(w http.ResponseWriter, r *http.Request, err error) {
	var ve *inputval.ValidationError
	if errors.As(err, &ve) {
		uierrors.Validation(w, r, ve)
		return
	}
	h.ErrLog.LogServerError(w, r, "profile validation failed", err, "Error updating student profile")
}

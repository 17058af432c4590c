// internal/app/features/admin/export.go
package admin

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	coursestore "github.com/dalemusser/courseportal/internal/app/store/courses"
	studentstore "github.com/dalemusser/courseportal/internal/app/store/students"
	"github.com/dalemusser/courseportal/internal/app/system/authz"
	"github.com/dalemusser/courseportal/internal/app/system/csvutil"
	"github.com/dalemusser/courseportal/internal/app/system/timeouts"
	"github.com/dalemusser/courseportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

// Export dataset names, as recorded in the audit log.
const (
	datasetStudents = "students"
	datasetCourses  = "courses"
)

var studentExportHeader = []string{
	"Student ID", "Full Name", "Email", "Phone", "Department", "Year", "Semester",
	"CGPA", "Gender", "Date of Birth", "Address", "Registration Date", "Last Login",
	"Total Enrolled Courses",
	"Course Code", "Course Title", "Course Department", "Course Category", "Course Fees",
	"Enrollment Date", "Enrollment Status", "Grade", "Completion Date",
}

var courseExportHeader = []string{
	"Course Code", "Course Title", "Department", "Category", "Credits", "Duration",
	"Level", "Fees", "Capacity", "Enrolled Count", "Available Slots",
	"Student Name", "Student Email", "Student ID", "Enrollment Date", "Status", "Grade",
}

// ExportStudents handles GET /api/admin/export/students?department=.
// Each active student yields one row per enrollment, or a single row with
// blank course columns when it has none.
func (h *Handler) ExportStudents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "export students")
	defer cancel()

	active := true
	sts, err := h.Students.Find(ctx, studentstore.Filter{Department: query.Get(r, "department"), Active: &active}, 0, 0)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "export students: load failed", err, "Error exporting data")
		return
	}
	courses, users, err := h.lookups(ctx, sts)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "export students: lookups failed", err, "Error exporting data")
		return
	}

	cw, err := csvutil.NewDownload(w, exportFilename("student_registrations"), studentExportHeader)
	if err != nil {
		h.Log.Warn("export students: write header failed", zap.Error(err))
		return
	}

	rows := 0
	for _, st := range sts {
		u := users[st.UserID]
		p, a := st.PersonalInfo, st.AcademicInfo
		base := []string{
			st.StudentID,
			p.FirstName + " " + p.LastName,
			u.Email,
			p.Phone,
			a.Department,
			a.Year,
			a.Semester,
			formatCGPA(a.CGPA),
			p.Gender,
			formatDatePtr(p.DateOfBirth),
			formatAddress(p.Address),
			formatDate(st.CreatedAt),
			formatDatePtr(u.LastLogin),
			strconv.Itoa(len(st.EnrolledCourses)),
		}

		if len(st.EnrolledCourses) == 0 {
			if err := cw.Row(append(base, "", "", "", "", "", "", "", "", "")...); err != nil {
				h.Log.Warn("export students: write row failed", zap.Error(err))
				return
			}
			rows++
			continue
		}
		for _, e := range st.EnrolledCourses {
			c := courses[e.CourseID]
			fees := ""
			if c.Fees != 0 {
				fees = formatFloat(c.Fees)
			}
			row := append(append([]string{}, base...),
				c.CourseCode,
				c.Title,
				c.Department,
				c.Category,
				fees,
				formatDate(e.EnrollmentDate),
				e.Status,
				e.Grade,
				formatDatePtr(e.CompletionDate),
			)
			if err := cw.Row(row...); err != nil {
				h.Log.Warn("export students: write row failed", zap.Error(err))
				return
			}
			rows++
		}
	}
	if err := cw.Close(); err != nil {
		h.Log.Warn("export students: flush failed", zap.Error(err))
		return
	}

	actorID, _ := authz.UserID(r)
	h.Audit.DataExported(ctx, r, actorID, datasetStudents, rows)
}

// ExportCourses handles GET /api/admin/export/courses?department=.
// Each active course yields one row per enrolled active student, or a single
// row with blank student columns when it has none.
func (h *Handler) ExportCourses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "export courses")
	defer cancel()

	list, err := h.Courses.Find(ctx, coursestore.Filter{Department: query.Get(r, "department")})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "export courses: load courses failed", err, "Error exporting data")
		return
	}
	active := true
	sts, err := h.Students.Find(ctx, studentstore.Filter{Active: &active}, 0, 0)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "export courses: load students failed", err, "Error exporting data")
		return
	}
	_, users, err := h.lookups(ctx, sts)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "export courses: lookups failed", err, "Error exporting data")
		return
	}

	cw, err := csvutil.NewDownload(w, exportFilename("course_enrollments"), courseExportHeader)
	if err != nil {
		h.Log.Warn("export courses: write header failed", zap.Error(err))
		return
	}

	rows := 0
	for _, c := range list {
		base := []string{
			c.CourseCode,
			c.Title,
			c.Department,
			c.Category,
			strconv.Itoa(c.Credits),
			c.Duration,
			c.Level,
			formatFloat(c.Fees),
			strconv.Itoa(c.Capacity),
			strconv.Itoa(c.Enrolled),
			strconv.Itoa(c.Capacity - c.Enrolled),
		}

		wrote := false
		for _, st := range sts {
			e, ok := st.Entry(c.ID)
			if !ok {
				continue
			}
			row := append(append([]string{}, base...),
				st.PersonalInfo.FirstName+" "+st.PersonalInfo.LastName,
				users[st.UserID].Email,
				st.StudentID,
				formatDate(e.EnrollmentDate),
				e.Status,
				e.Grade,
			)
			if err := cw.Row(row...); err != nil {
				h.Log.Warn("export courses: write row failed", zap.Error(err))
				return
			}
			rows++
			wrote = true
		}
		if !wrote {
			if err := cw.Row(append(base, "", "", "", "", "", "")...); err != nil {
				h.Log.Warn("export courses: write row failed", zap.Error(err))
				return
			}
			rows++
		}
	}
	if err := cw.Close(); err != nil {
		h.Log.Warn("export courses: flush failed", zap.Error(err))
		return
	}

	actorID, _ := authz.UserID(r)
	h.Audit.DataExported(ctx, r, actorID, datasetCourses, rows)
}

func exportFilename(prefix string) string {
	return prefix + "_" + time.Now().UTC().Format("2006-01-02") + ".csv"
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatCGPA(v *float64) string {
	if v == nil || *v == 0 {
		return ""
	}
	return formatFloat(*v)
}

func formatAddress(a models.Address) string {
	return strings.Join([]string{a.Street, a.City, a.State}, ", ")
}

// internal/app/enrollment/service.go

// Package enrollment enrolls students in courses and drops them again,
// keeping each course's seat counter consistent with the students' entries.
//
// Seat capacity is enforced by a single conditional increment on the course
// document, so concurrent enrollments can never push enrolled past capacity.
// The seat write and the student write run inside a transaction when the
// deployment supports one; otherwise a failed second write is compensated
// before the error is returned.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"time"

	coursestore "github.com/dalemusser/courseportal/internal/app/store/courses"
	studentstore "github.com/dalemusser/courseportal/internal/app/store/students"
	"github.com/dalemusser/courseportal/internal/app/system/txn"
	"github.com/dalemusser/courseportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyEnrolled  = errors.New("already enrolled in this course")
	ErrNotEnrolled      = errors.New("not enrolled in this course")
	ErrCapacityExceeded = errors.New("course is full")
)

// Operation names reported to the Recorder.
const (
	OpEnroll = "enroll"
	OpDrop   = "drop"
)

// Courses is the part of the course store the service needs.
type Courses interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Course, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Course, error)
	ReserveSeat(ctx context.Context, id primitive.ObjectID) error
	ReleaseSeat(ctx context.Context, id primitive.ObjectID) error
}

// Students is the part of the student store the service needs.
type Students interface {
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (models.Student, error)
	Create(ctx context.Context, st models.Student) (models.Student, error)
	AddEnrollment(ctx context.Context, studentID primitive.ObjectID, entry models.EnrollmentEntry) error
	RemoveEnrollment(ctx context.Context, studentID, courseID primitive.ObjectID) (models.EnrollmentEntry, error)
	RestoreEnrollment(ctx context.Context, studentID primitive.ObjectID, entry models.EnrollmentEntry) error
	UpdateProfile(ctx context.Context, studentID primitive.ObjectID, personal models.PersonalInfo, academic models.AcademicInfo) (models.Student, error)
}

// Users resolves the account a student record is provisioned from.
type Users interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
}

// Sequencer hands out increasing numbers per key.
type Sequencer interface {
	Next(ctx context.Context, key string) (int64, error)
}

// Recorder receives the outcome of every enroll and drop.
type Recorder interface {
	Observe(op, outcome string, elapsed time.Duration)
}

// Auditor records completed enrollments and drops.
type Auditor interface {
	Enrolled(ctx context.Context, userID, courseID primitive.ObjectID, studentID string)
	Dropped(ctx context.Context, userID, courseID primitive.ObjectID, studentID string)
}

// Deps wires a Service. Metrics, Audit, Log and Now are optional.
type Deps struct {
	Courses  Courses
	Students Students
	Users    Users
	Counters Sequencer
	Txn      txn.Runner
	Metrics  Recorder
	Audit    Auditor
	Log      *zap.Logger
	Now      func() time.Time
}

// Service implements enroll, drop and the student-facing read models.
type Service struct {
	courses  Courses
	students Students
	users    Users
	counters Sequencer
	txn      txn.Runner
	metrics  Recorder
	audit    Auditor
	log      *zap.Logger
	now      func() time.Time
}

// New builds a Service from d.
func New(d Deps) *Service {
	s := &Service{
		courses:  d.Courses,
		students: d.Students,
		users:    d.Users,
		counters: d.Counters,
		txn:      d.Txn,
		metrics:  d.Metrics,
		audit:    d.Audit,
		log:      d.Log,
		now:      d.Now,
	}
	if s.txn == nil {
		s.txn = txn.NewMongo(nil, d.Log)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

/*─────────────────────────────────────────────────────────────────────────────*
| Enroll / Drop                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// errNoSeat is returned from the write phase when the conditional seat
// increment matched nothing; Enroll classifies it after re-reading the course.
var errNoSeat = errors.New("no seat reserved")

// Enroll adds courseID to the user's enrollments, provisioning the student
// record on first use, and returns the updated student.
func (s *Service) Enroll(ctx context.Context, userID, courseID primitive.ObjectID) (view StudentView, err error) {
	start := s.now()
	defer func() { s.observe(OpEnroll, err, start) }()

	course, err := s.activeCourse(ctx, courseID)
	if err != nil {
		return StudentView{}, err
	}
	if course.Enrolled >= course.Capacity {
		return StudentView{}, ErrCapacityExceeded
	}

	st, err := s.studentFor(ctx, userID)
	if err != nil {
		return StudentView{}, err
	}
	if _, ok := st.Entry(courseID); ok {
		return StudentView{}, ErrAlreadyEnrolled
	}

	entry := models.EnrollmentEntry{
		CourseID:       courseID,
		EnrollmentDate: s.now().UTC(),
		Status:         models.EnrollmentEnrolled,
	}
	err = s.txn.Run(ctx, func(ctx context.Context) error {
		if err := s.courses.ReserveSeat(ctx, courseID); err != nil {
			if errors.Is(err, coursestore.ErrNoSeat) {
				return errNoSeat
			}
			return fmt.Errorf("reserve seat: %w", err)
		}
		if err := s.students.AddEnrollment(ctx, st.ID, entry); err != nil {
			if relErr := s.courses.ReleaseSeat(ctx, courseID); relErr != nil {
				s.log.Error("failed to release seat after enrollment write failed",
					zap.String("course_id", courseID.Hex()),
					zap.String("student_id", st.StudentID),
					zap.Error(relErr))
			}
			if errors.Is(err, studentstore.ErrAlreadyEnrolled) {
				return ErrAlreadyEnrolled
			}
			return fmt.Errorf("add enrollment: %w", err)
		}
		return nil
	})
	if errors.Is(err, errNoSeat) {
		// Lost the last seat, or the course went away, between the check and the write.
		if _, cerr := s.activeCourse(ctx, courseID); cerr != nil {
			return StudentView{}, cerr
		}
		return StudentView{}, ErrCapacityExceeded
	}
	if err != nil {
		return StudentView{}, err
	}

	s.auditEnrolled(ctx, userID, courseID, st.StudentID)

	st, err = s.students.GetByUserID(ctx, userID)
	if err != nil {
		return StudentView{}, fmt.Errorf("reload student: %w", err)
	}
	return s.resolve(ctx, st)
}

// Drop removes courseID from the user's enrollments and gives the seat back.
// It returns the remaining entries.
func (s *Service) Drop(ctx context.Context, userID, courseID primitive.ObjectID) (entries []EntryView, err error) {
	start := s.now()
	defer func() { s.observe(OpDrop, err, start) }()

	st, err := s.students.GetByUserID(ctx, userID)
	if errors.Is(err, studentstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}
	if _, ok := st.Entry(courseID); !ok {
		return nil, ErrNotEnrolled
	}

	err = s.txn.Run(ctx, func(ctx context.Context) error {
		removed, err := s.students.RemoveEnrollment(ctx, st.ID, courseID)
		if errors.Is(err, studentstore.ErrNotEnrolled) {
			return ErrNotEnrolled
		}
		if err != nil {
			return fmt.Errorf("remove enrollment: %w", err)
		}
		if err := s.courses.ReleaseSeat(ctx, courseID); err != nil {
			if rErr := s.students.RestoreEnrollment(ctx, st.ID, removed); rErr != nil {
				s.log.Error("failed to restore enrollment after seat release failed",
					zap.String("course_id", courseID.Hex()),
					zap.String("student_id", st.StudentID),
					zap.Error(rErr))
			}
			return fmt.Errorf("release seat: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditDropped(ctx, userID, courseID, st.StudentID)

	st, err = s.students.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reload student: %w", err)
	}
	view, err := s.resolve(ctx, st)
	if err != nil {
		return nil, err
	}
	return view.EnrolledCourses, nil
}

func (s *Service) activeCourse(ctx context.Context, id primitive.ObjectID) (models.Course, error) {
	c, err := s.courses.GetByID(ctx, id)
	if errors.Is(err, coursestore.ErrNotFound) {
		return models.Course{}, ErrNotFound
	}
	if err != nil {
		return models.Course{}, fmt.Errorf("load course: %w", err)
	}
	if !c.IsActive {
		return models.Course{}, ErrNotFound
	}
	return c, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Outcome reporting                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// Outcome classifies an operation result for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyEnrolled):
		return "already_enrolled"
	case errors.Is(err, ErrNotEnrolled):
		return "not_enrolled"
	case errors.Is(err, ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "canceled"
	}
	return "error"
}

func (s *Service) observe(op string, err error, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.Observe(op, Outcome(err), s.now().Sub(start))
}

func (s *Service) auditEnrolled(ctx context.Context, userID, courseID primitive.ObjectID, studentID string) {
	if s.audit != nil {
		s.audit.Enrolled(ctx, userID, courseID, studentID)
	}
}

func (s *Service) auditDropped(ctx context.Context, userID, courseID primitive.ObjectID, studentID string) {
	if s.audit != nil {
		s.audit.Dropped(ctx, userID, courseID, studentID)
	}
}

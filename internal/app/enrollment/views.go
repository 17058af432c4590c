// internal/app/enrollment/views.go
package enrollment

import (
	"context"
	"errors"
	"fmt"

	studentstore "github.com/dalemusser/courseportal/internal/app/store/students"
	"github.com/dalemusser/courseportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EntryView is an enrollment entry with its course loaded. Course is nil when
// the course document no longer exists.
type EntryView struct {
	models.EnrollmentEntry
	Course *models.Course `json:"course"`
}

// StudentView is a student record with every entry's course resolved.
type StudentView struct {
	models.Student
	EnrolledCourses []EntryView `json:"enrolledCourses"`
}

// Dashboard summarizes a student's enrollments.
type Dashboard struct {
	TotalCourses     int          `json:"totalCourses"`
	ActiveCourses    int          `json:"activeCourses"`
	CompletedCourses int          `json:"completedCourses"`
	EnrolledCourses  []EntryView  `json:"enrolledCourses"`
	Student          *StudentView `json:"student,omitempty"`
}

// Profile returns the user's student record, provisioning it on first use.
func (s *Service) Profile(ctx context.Context, userID primitive.ObjectID) (StudentView, error) {
	st, err := s.studentFor(ctx, userID)
	if err != nil {
		return StudentView{}, err
	}
	return s.resolve(ctx, st)
}

// Student returns the user's student record without provisioning one.
func (s *Service) Student(ctx context.Context, userID primitive.ObjectID) (models.Student, error) {
	st, err := s.students.GetByUserID(ctx, userID)
	if errors.Is(err, studentstore.ErrNotFound) {
		return models.Student{}, ErrNotFound
	}
	if err != nil {
		return models.Student{}, fmt.Errorf("load student: %w", err)
	}
	return st, nil
}

// UpdateProfile replaces the personal and academic details of the user's
// student record. Enrollments are untouched.
func (s *Service) UpdateProfile(ctx context.Context, userID primitive.ObjectID, personal models.PersonalInfo, academic models.AcademicInfo) (StudentView, error) {
	st, err := s.Student(ctx, userID)
	if err != nil {
		return StudentView{}, err
	}
	st, err = s.students.UpdateProfile(ctx, st.ID, personal, academic)
	if errors.Is(err, studentstore.ErrNotFound) {
		return StudentView{}, ErrNotFound
	}
	if err != nil {
		return StudentView{}, fmt.Errorf("update profile: %w", err)
	}
	return s.resolve(ctx, st)
}

// Entries returns the user's resolved entries; empty when the user has no
// student record yet.
func (s *Service) Entries(ctx context.Context, userID primitive.ObjectID) ([]EntryView, error) {
	st, err := s.students.GetByUserID(ctx, userID)
	if errors.Is(err, studentstore.ErrNotFound) {
		return []EntryView{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}
	view, err := s.resolve(ctx, st)
	if err != nil {
		return nil, err
	}
	return view.EnrolledCourses, nil
}

// Dashboard returns entry counts for the user. Active counts entries that
// are enrolled or in progress.
func (s *Service) Dashboard(ctx context.Context, userID primitive.ObjectID) (Dashboard, error) {
	st, err := s.students.GetByUserID(ctx, userID)
	if errors.Is(err, studentstore.ErrNotFound) {
		return Dashboard{EnrolledCourses: []EntryView{}}, nil
	}
	if err != nil {
		return Dashboard{}, fmt.Errorf("load student: %w", err)
	}
	view, err := s.resolve(ctx, st)
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{
		TotalCourses:    len(view.EnrolledCourses),
		EnrolledCourses: view.EnrolledCourses,
		Student:         &view,
	}
	for _, e := range view.EnrolledCourses {
		switch e.Status {
		case models.EnrollmentEnrolled, models.EnrollmentInProgress:
			d.ActiveCourses++
		case models.EnrollmentCompleted:
			d.CompletedCourses++
		}
	}
	return d, nil
}

// Resolve loads the courses referenced by st in one query.
func (s *Service) Resolve(ctx context.Context, st models.Student) (StudentView, error) {
	return s.resolve(ctx, st)
}

func (s *Service) resolve(ctx context.Context, st models.Student) (StudentView, error) {
	view := StudentView{Student: st, EnrolledCourses: make([]EntryView, 0, len(st.EnrolledCourses))}
	if len(st.EnrolledCourses) == 0 {
		return view, nil
	}

	ids := make([]primitive.ObjectID, 0, len(st.EnrolledCourses))
	for _, e := range st.EnrolledCourses {
		ids = append(ids, e.CourseID)
	}
	courses, err := s.courses.GetByIDs(ctx, ids)
	if err != nil {
		return StudentView{}, fmt.Errorf("load courses: %w", err)
	}
	byID := make(map[primitive.ObjectID]models.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}

	for _, e := range st.EnrolledCourses {
		ev := EntryView{EnrollmentEntry: e}
		if c, ok := byID[e.CourseID]; ok {
			c := c
			ev.Course = &c
		}
		view.EnrolledCourses = append(view.EnrolledCourses, ev)
	}
	return view, nil
}

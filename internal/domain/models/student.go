// internal/domain/models/student.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Enrollment entry statuses.
const (
	EnrollmentEnrolled   = "enrolled"
	EnrollmentInProgress = "in-progress"
	EnrollmentCompleted  = "completed"
	EnrollmentDropped    = "dropped"
)

// EnrollmentStatuses lists every allowed entry status.
var EnrollmentStatuses = []string{
	EnrollmentEnrolled,
	EnrollmentInProgress,
	EnrollmentCompleted,
	EnrollmentDropped,
}

// Student is the academic record tied 1:1 to a User.
//
// EnrolledCourses holds at most one entry per course.
type Student struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"user_id" json:"userId"`
	StudentID       string             `bson:"student_id" json:"studentId"` // STU + YY + 4 digits
	PersonalInfo    PersonalInfo       `bson:"personal_info" json:"personalInfo"`
	AcademicInfo    AcademicInfo       `bson:"academic_info" json:"academicInfo"`
	EnrolledCourses []EnrollmentEntry  `bson:"enrolled_courses" json:"enrolledCourses"`
	IsActive        bool               `bson:"is_active" json:"isActive"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Entry returns the enrollment entry for courseID, if any.
func (s Student) Entry(courseID primitive.ObjectID) (EnrollmentEntry, bool) {
	for _, e := range s.EnrolledCourses {
		if e.CourseID == courseID {
			return e, true
		}
	}
	return EnrollmentEntry{}, false
}

// EnrollmentEntry records one student's relationship to one course.
type EnrollmentEntry struct {
	CourseID       primitive.ObjectID `bson:"course_id" json:"courseId"`
	EnrollmentDate time.Time          `bson:"enrollment_date" json:"enrollmentDate"`
	Status         string             `bson:"status" json:"status"`
	Grade          string             `bson:"grade,omitempty" json:"grade,omitempty"`
	CompletionDate *time.Time         `bson:"completion_date,omitempty" json:"completionDate,omitempty"`
}

// PersonalInfo holds a student's personal details.
type PersonalInfo struct {
	FirstName   string     `bson:"first_name" json:"firstName"`
	LastName    string     `bson:"last_name" json:"lastName"`
	DateOfBirth *time.Time `bson:"date_of_birth,omitempty" json:"dateOfBirth,omitempty"`
	Gender      string     `bson:"gender,omitempty" json:"gender,omitempty"`
	Phone       string     `bson:"phone,omitempty" json:"phone,omitempty"`
	Address     Address    `bson:"address" json:"address"`
}

// FullName joins first and last name.
func (p PersonalInfo) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// Address is a postal address.
type Address struct {
	Street  string `bson:"street,omitempty" json:"street,omitempty"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`
	ZipCode string `bson:"zip_code,omitempty" json:"zipCode,omitempty"`
	Country string `bson:"country,omitempty" json:"country,omitempty"`
}

// AcademicInfo holds a student's program details.
type AcademicInfo struct {
	Department        string   `bson:"department" json:"department"`
	Year              string   `bson:"year,omitempty" json:"year,omitempty"`
	Semester          string   `bson:"semester,omitempty" json:"semester,omitempty"`
	CGPA              *float64 `bson:"cgpa,omitempty" json:"cgpa,omitempty"`
	PreviousEducation string   `bson:"previous_education,omitempty" json:"previousEducation,omitempty"`
}

// internal/domain/models/course.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultCapacity is used when a course is created without a capacity.
const DefaultCapacity = 50

// Course is a catalog entry students can enroll in.
//
// Enrolled is maintained exclusively by the enrollment service through
// atomic conditional updates; catalog edits never write it.
type Course struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CourseCode    string             `bson:"course_code" json:"courseCode"`
	Title         string             `bson:"title" json:"title"`
	TitleCI       string             `bson:"title_ci" json:"-"` // folded for search
	Description   string             `bson:"description" json:"description"`
	Department    string             `bson:"department" json:"department"`
	Category      string             `bson:"category" json:"category"`
	Credits       int                `bson:"credits" json:"credits"`
	Duration      string             `bson:"duration" json:"duration"`
	Level         string             `bson:"level" json:"level"`
	Prerequisites []string           `bson:"prerequisites,omitempty" json:"prerequisites"`
	Instructor    Instructor         `bson:"instructor" json:"instructor"`
	Schedule      Schedule           `bson:"schedule" json:"schedule"`
	Capacity      int                `bson:"capacity" json:"capacity"`
	Enrolled      int                `bson:"enrolled" json:"enrolled"`
	Fees          float64            `bson:"fees" json:"fees"`
	IsActive      bool               `bson:"is_active" json:"isActive"`
	Syllabus      []SyllabusWeek     `bson:"syllabus,omitempty" json:"syllabus"`
	Resources     []CourseResource   `bson:"resources,omitempty" json:"resources"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// SeatsLeft returns the number of open seats (never negative).
func (c Course) SeatsLeft() int {
	if c.Enrolled >= c.Capacity {
		return 0
	}
	return c.Capacity - c.Enrolled
}

// Instructor describes who teaches a course.
type Instructor struct {
	Name          string `bson:"name,omitempty" json:"name"`
	Email         string `bson:"email,omitempty" json:"email"`
	Qualification string `bson:"qualification,omitempty" json:"qualification"`
	Experience    string `bson:"experience,omitempty" json:"experience"`
}

// Schedule describes when and how a course runs.
type Schedule struct {
	StartDate *time.Time `bson:"start_date,omitempty" json:"startDate,omitempty"`
	EndDate   *time.Time `bson:"end_date,omitempty" json:"endDate,omitempty"`
	Days      []string   `bson:"days,omitempty" json:"days"`
	Time      string     `bson:"time,omitempty" json:"time"`
	Mode      string     `bson:"mode" json:"mode"` // Online | Offline | Hybrid
}

// SyllabusWeek is one week of a course syllabus.
type SyllabusWeek struct {
	Week        int      `bson:"week" json:"week"`
	Topics      []string `bson:"topics,omitempty" json:"topics"`
	Assignments []string `bson:"assignments,omitempty" json:"assignments"`
}

// CourseResource is a link to course material.
type CourseResource struct {
	Title string `bson:"title" json:"title"`
	Type  string `bson:"type" json:"type"` // PDF | Video | Link | Document
	URL   string `bson:"url" json:"url"`
}

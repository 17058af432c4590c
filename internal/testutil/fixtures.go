package testutil

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/courseportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures inserts test documents directly, bypassing the stores.
type Fixtures struct {
	db  *mongo.Database
	t   *testing.T
	seq int
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts an active user with the given role.
func (f *Fixtures) CreateUser(ctx context.Context, name, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:        primitive.NewObjectID(),
		GoogleID:  "g-" + primitive.NewObjectID().Hex(),
		Email:     email,
		Name:      name,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateStudentUser inserts a user with the student role.
func (f *Fixtures) CreateStudentUser(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, models.RoleStudent)
}

// CreateAdmin inserts a user with the admin role.
func (f *Fixtures) CreateAdmin(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, models.RoleAdmin)
}

// CreateCourse inserts an active course with the given capacity and current
// enrollment count. Codes are generated unless set via opts.
func (f *Fixtures) CreateCourse(ctx context.Context, title string, capacity, enrolled int, opts ...func(*models.Course)) models.Course {
	f.t.Helper()

	f.seq++
	now := time.Now().UTC().Add(time.Duration(f.seq) * time.Millisecond)
	c := models.Course{
		ID:          primitive.NewObjectID(),
		CourseCode:  fmt.Sprintf("TST%03d", f.seq),
		Title:       title,
		TitleCI:     text.Fold(title),
		Description: title + " description",
		Department:  models.DepartmentComputerScience,
		Category:    "Software Engineering",
		Credits:     3,
		Duration:    "3 Months",
		Level:       "Beginner",
		Schedule:    models.Schedule{Mode: models.ModeOnline},
		Capacity:    capacity,
		Enrolled:    enrolled,
		Fees:        100,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, o := range opts {
		o(&c)
	}
	if _, err := f.db.Collection("courses").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test course: %v", err)
	}
	return c
}

// CreateStudent inserts a student record for user with the given entries.
func (f *Fixtures) CreateStudent(ctx context.Context, user models.User, entries ...models.EnrollmentEntry) models.Student {
	f.t.Helper()

	f.seq++
	now := time.Now().UTC()
	if entries == nil {
		entries = []models.EnrollmentEntry{}
	}
	s := models.Student{
		ID:        primitive.NewObjectID(),
		UserID:    user.ID,
		StudentID: fmt.Sprintf("STU%02d%04d", now.Year()%100, f.seq),
		PersonalInfo: models.PersonalInfo{
			FirstName: user.Name,
		},
		AcademicInfo:    models.AcademicInfo{Department: models.DefaultDepartment},
		EnrolledCourses: entries,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if _, err := f.db.Collection("students").InsertOne(ctx, s); err != nil {
		f.t.Fatalf("failed to create test student: %v", err)
	}
	return s
}

// Entry builds an enrollment entry for courseID with the given status.
func Entry(courseID primitive.ObjectID, status string) models.EnrollmentEntry {
	return models.EnrollmentEntry{
		CourseID:       courseID,
		EnrollmentDate: time.Now().UTC(),
		Status:         status,
	}
}

// internal/app/seed/seed.go

// Package seed loads the sample course catalog into an empty or partially
// populated database. Courses already present (matched by code) are left
// untouched, so running it twice is harmless.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	coursestore "github.com/dalemusser/courseportal/internal/app/store/courses"
	"github.com/dalemusser/courseportal/internal/domain/models"
	"go.uber.org/zap"
)

//go:embed courses.json
var coursesJSON []byte

// CourseStore is the part of the course store seeding needs.
type CourseStore interface {
	GetByCode(ctx context.Context, code string) (models.Course, error)
	Create(ctx context.Context, c models.Course) (models.Course, error)
}

// Result counts what a seeding run did.
type Result struct {
	Inserted int
	Skipped  int
}

// SampleCourses returns the bundled catalog. Every course is active and
// starts with no enrollments.
func SampleCourses() ([]models.Course, error) {
	var cs []models.Course
	if err := json.Unmarshal(coursesJSON, &cs); err != nil {
		return nil, fmt.Errorf("decode sample courses: %w", err)
	}
	for i := range cs {
		cs[i].IsActive = true
		cs[i].Enrolled = 0
	}
	return cs, nil
}

// Courses inserts every sample course whose code is not yet taken. Failures
// on individual courses are collected and returned together.
func Courses(ctx context.Context, store CourseStore, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cs, err := SampleCourses()
	if err != nil {
		return Result{}, err
	}

	var res Result
	var errs []error
	for _, c := range cs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		_, err := store.GetByCode(ctx, c.CourseCode)
		switch {
		case err == nil:
			res.Skipped++
			continue
		case !errors.Is(err, coursestore.ErrNotFound):
			errs = append(errs, fmt.Errorf("lookup %s: %w", c.CourseCode, err))
			continue
		}

		created, err := store.Create(ctx, c)
		if errors.Is(err, coursestore.ErrDuplicateCode) {
			res.Skipped++
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("create %s: %w", c.CourseCode, err))
			continue
		}
		res.Inserted++
		logger.Debug("seeded course",
			zap.String("course_code", created.CourseCode),
			zap.String("department", created.Department))
	}

	logger.Info("course seeding finished",
		zap.Int("inserted", res.Inserted),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", len(errs)))
	return res, errors.Join(errs...)
}

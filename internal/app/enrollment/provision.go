// internal/app/enrollment/provision.go
package enrollment

import (
	"context"
	"errors"
	"fmt"

	studentstore "github.com/dalemusser/courseportal/internal/app/store/students"
	userstore "github.com/dalemusser/courseportal/internal/app/store/users"
	"github.com/dalemusser/courseportal/internal/app/system/normalize"
	"github.com/dalemusser/courseportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// maxIDAttempts bounds how many sequence numbers provisioning will try when
// a generated student id is already taken (e.g. imported records).
const maxIDAttempts = 5

// StudentIDKey is the counters key for the given two-digit year.
func StudentIDKey(yy int) string {
	return fmt.Sprintf("student_id:%02d", yy)
}

// FormatStudentID renders "STU" + two-digit year + zero-padded sequence.
func FormatStudentID(yy int, seq int64) string {
	return fmt.Sprintf("STU%02d%04d", yy, seq)
}

// studentFor returns the user's student record, creating it on first use.
func (s *Service) studentFor(ctx context.Context, userID primitive.ObjectID) (models.Student, error) {
	st, err := s.students.GetByUserID(ctx, userID)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, studentstore.ErrNotFound) {
		return models.Student{}, fmt.Errorf("load student: %w", err)
	}
	return s.provision(ctx, userID)
}

func (s *Service) provision(ctx context.Context, userID primitive.ObjectID) (models.Student, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, userstore.ErrNotFound) {
		return models.Student{}, ErrNotFound
	}
	if err != nil {
		return models.Student{}, fmt.Errorf("load user: %w", err)
	}

	first, last := normalize.SplitName(u.Name)
	yy := s.now().Year() % 100

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		seq, err := s.counters.Next(ctx, StudentIDKey(yy))
		if err != nil {
			return models.Student{}, fmt.Errorf("next student id: %w", err)
		}
		st, err := s.students.Create(ctx, models.Student{
			UserID:       userID,
			StudentID:    FormatStudentID(yy, seq),
			PersonalInfo: models.PersonalInfo{FirstName: first, LastName: last},
			AcademicInfo: models.AcademicInfo{Department: models.DefaultDepartment},
		})
		switch {
		case err == nil:
			s.log.Info("student record provisioned",
				zap.String("user_id", userID.Hex()),
				zap.String("student_id", st.StudentID))
			return st, nil
		case errors.Is(err, studentstore.ErrDuplicateStudent):
			// A concurrent request provisioned this user first.
			st, err = s.students.GetByUserID(ctx, userID)
			if err != nil {
				return models.Student{}, fmt.Errorf("load provisioned student: %w", err)
			}
			return st, nil
		case errors.Is(err, studentstore.ErrDuplicateID):
			continue
		default:
			return models.Student{}, fmt.Errorf("create student: %w", err)
		}
	}
	return models.Student{}, fmt.Errorf("create student: %w", studentstore.ErrDuplicateID)
}

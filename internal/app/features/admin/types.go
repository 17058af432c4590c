// internal/app/features/admin/types.go
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/courseportal/internal/app/enrollment"
	"github.com/dalemusser/courseportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// userSummary is the part of a student's account admins see next to the
// student record.
type userSummary struct {
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Avatar    string          `json:"avatar,omitempty"`
	LastLogin *time.Time      `json:"lastLogin,omitempty"`
	Devices   []models.Device `json:"devices,omitempty"`
}

// studentRow is a student with resolved courses and its account summary.
// User is nil when the account no longer exists.
type studentRow struct {
	enrollment.StudentView
	User *userSummary `json:"user"`
}

// rowOptions controls how much of the account is attached to each row.
type rowOptions struct {
	devices bool
}

// buildRows resolves the courses and accounts of sts with one query per
// collection.
func (h *Handler) buildRows(ctx context.Context, sts []models.Student, opts rowOptions) ([]studentRow, error) {
	courses, users, err := h.lookups(ctx, sts)
	if err != nil {
		return nil, err
	}

	rows := make([]studentRow, 0, len(sts))
	for _, st := range sts {
		row := studentRow{StudentView: resolveView(st, courses)}
		if u, ok := users[st.UserID]; ok {
			row.User = &userSummary{
				Name:      u.Name,
				Email:     u.Email,
				Avatar:    u.Avatar,
				LastLogin: u.LastLogin,
			}
			if opts.devices {
				row.User.Devices = u.Devices
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// lookups loads every course and user referenced by sts, keyed by id.
func (h *Handler) lookups(ctx context.Context, sts []models.Student) (map[primitive.ObjectID]models.Course, map[primitive.ObjectID]models.User, error) {
	seen := map[primitive.ObjectID]bool{}
	var courseIDs, userIDs []primitive.ObjectID
	for _, st := range sts {
		userIDs = append(userIDs, st.UserID)
		for _, e := range st.EnrolledCourses {
			if !seen[e.CourseID] {
				seen[e.CourseID] = true
				courseIDs = append(courseIDs, e.CourseID)
			}
		}
	}

	courses := map[primitive.ObjectID]models.Course{}
	if len(courseIDs) > 0 {
		list, err := h.Courses.GetByIDs(ctx, courseIDs)
		if err != nil {
			return nil, nil, fmt.Errorf("load courses: %w", err)
		}
		for _, c := range list {
			courses[c.ID] = c
		}
	}

	users := map[primitive.ObjectID]models.User{}
	list, err := h.Users.GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("load users: %w", err)
	}
	for _, u := range list {
		users[u.ID] = u
	}
	return courses, users, nil
}

func resolveView(st models.Student, courses map[primitive.ObjectID]models.Course) enrollment.StudentView {
	view := enrollment.StudentView{Student: st, EnrolledCourses: make([]enrollment.EntryView, 0, len(st.EnrolledCourses))}
	for _, e := range st.EnrolledCourses {
		ev := enrollment.EntryView{EnrollmentEntry: e}
		if c, ok := courses[e.CourseID]; ok {
			c := c
			ev.Course = &c
		}
		view.EnrolledCourses = append(view.EnrolledCourses, ev)
	}
	return view
}

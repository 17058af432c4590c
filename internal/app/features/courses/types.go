// internal/app/features/courses/types.go
package courses

import (
	"strings"
	"time"

	"github.com/dalemusser/courseportal/internal/app/system/htmlsanitize"
	"github.com/dalemusser/courseportal/internal/domain/models"
)

// courseInput is the request body for create and update. On update it is
// pre-filled from the stored course, so a body may carry only the fields it
// changes.
type courseInput struct {
	CourseCode    string          `json:"courseCode" validate:"required,max=20"`
	Title         string          `json:"title" validate:"required,max=200"`
	Description   string          `json:"description" validate:"required,max=10000"`
	Department    string          `json:"department" validate:"required,department"`
	Category      string          `json:"category" validate:"required,category"`
	Credits       int             `json:"credits" validate:"min=1,max=6"`
	Duration      string          `json:"duration" validate:"required,duration"`
	Level         string          `json:"level" validate:"required,level"`
	Prerequisites []string        `json:"prerequisites" validate:"max=20,dive,max=200"`
	Instructor    instructorInput `json:"instructor"`
	Schedule      scheduleInput   `json:"schedule"`
	Capacity      int             `json:"capacity" validate:"gte=0"`
	Fees          float64         `json:"fees" validate:"gte=0"`
	IsActive      *bool           `json:"isActive"`
	Syllabus      []syllabusInput `json:"syllabus" validate:"max=52,dive"`
	Resources     []resourceInput `json:"resources" validate:"max=50,dive"`
}

type instructorInput struct {
	Name          string `json:"name" validate:"max=200"`
	Email         string `json:"email" validate:"omitempty,email"`
	Qualification string `json:"qualification" validate:"max=200"`
	Experience    string `json:"experience" validate:"max=200"`
}

type scheduleInput struct {
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	Days      []string   `json:"days" validate:"max=7"`
	Time      string     `json:"time" validate:"max=100"`
	Mode      string     `json:"mode" validate:"mode"`
}

type syllabusInput struct {
	Week        int      `json:"week" validate:"min=1"`
	Topics      []string `json:"topics"`
	Assignments []string `json:"assignments"`
}

type resourceInput struct {
	Title string `json:"title" validate:"required,max=200"`
	Type  string `json:"type" validate:"required,resourcekind"`
	URL   string `json:"url" validate:"required,url"`
}

// inputFromCourse pre-fills an update body with the stored values.
func inputFromCourse(c models.Course) courseInput {
	active := c.IsActive
	in := courseInput{
		CourseCode:    c.CourseCode,
		Title:         c.Title,
		Description:   c.Description,
		Department:    c.Department,
		Category:      c.Category,
		Credits:       c.Credits,
		Duration:      c.Duration,
		Level:         c.Level,
		Prerequisites: c.Prerequisites,
		Instructor:    instructorInput(c.Instructor),
		Schedule: scheduleInput{
			StartDate: c.Schedule.StartDate,
			EndDate:   c.Schedule.EndDate,
			Days:      c.Schedule.Days,
			Time:      c.Schedule.Time,
			Mode:      c.Schedule.Mode,
		},
		Capacity: c.Capacity,
		Fees:     c.Fees,
		IsActive: &active,
	}
	for _, w := range c.Syllabus {
		in.Syllabus = append(in.Syllabus, syllabusInput(w))
	}
	for _, rsc := range c.Resources {
		in.Resources = append(in.Resources, resourceInput(rsc))
	}
	return in
}

// toCourse converts a validated body to a model, trimming text and
// sanitizing the rich-text fields.
func (in courseInput) toCourse() models.Course {
	c := models.Course{
		CourseCode:    in.CourseCode,
		Title:         strings.TrimSpace(in.Title),
		Description:   htmlsanitize.Text(in.Description),
		Department:    in.Department,
		Category:      in.Category,
		Credits:       in.Credits,
		Duration:      in.Duration,
		Level:         in.Level,
		Prerequisites: trimAll(in.Prerequisites),
		Instructor: models.Instructor{
			Name:          strings.TrimSpace(in.Instructor.Name),
			Email:         strings.TrimSpace(in.Instructor.Email),
			Qualification: strings.TrimSpace(in.Instructor.Qualification),
			Experience:    strings.TrimSpace(in.Instructor.Experience),
		},
		Schedule: models.Schedule{
			StartDate: in.Schedule.StartDate,
			EndDate:   in.Schedule.EndDate,
			Days:      trimAll(in.Schedule.Days),
			Time:      strings.TrimSpace(in.Schedule.Time),
			Mode:      in.Schedule.Mode,
		},
		Capacity: in.Capacity,
		Fees:     in.Fees,
		IsActive: in.IsActive == nil || *in.IsActive,
	}
	for _, w := range in.Syllabus {
		topics := make([]string, 0, len(w.Topics))
		for _, t := range w.Topics {
			topics = append(topics, htmlsanitize.Text(t))
		}
		c.Syllabus = append(c.Syllabus, models.SyllabusWeek{
			Week:        w.Week,
			Topics:      topics,
			Assignments: trimAll(w.Assignments),
		})
	}
	for _, rsc := range in.Resources {
		c.Resources = append(c.Resources, models.CourseResource{
			Title: strings.TrimSpace(rsc.Title),
			Type:  rsc.Type,
			URL:   strings.TrimSpace(rsc.URL),
		})
	}
	return c
}

func trimAll(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Package inputval validates decoded request bodies with struct tags.
//
// Request DTOs carry `validate:"..."` tags. Besides the built-in rules, the
// catalog enumerations are registered as tags (department, category,
// duration, level, mode, resourcekind, gender, year, semester) so a DTO reads
//
//	Department string `json:"department" validate:"required,department"`
package inputval

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/dalemusser/courseportal/internal/domain/models"
	"github.com/go-playground/validator"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ValidationError carries one message per offending field, keyed by the
// field's JSON path (e.g. "instructor.email").
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// First returns the message of the alphabetically first field, for clients
// that show a single line.
func (e *ValidationError) First() string {
	best := ""
	for k := range e.Fields {
		if best == "" || k < best {
			best = k
		}
	}
	if best == "" {
		return ""
	}
	return best + " " + e.Fields[best]
}

// Invalid builds a single-field ValidationError.
func Invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

var (
	once sync.Once
	v    *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		v = validator.New()
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		for tag, allowed := range enumTags {
			allowed := allowed
			_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
				s := fl.Field().String()
				return s == "" || models.Contains(allowed, s)
			})
		}
		_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || IsValidObjectID(s)
		})
	})
	return v
}

// enumTags maps a tag to its allowed values. Empty strings pass; combine with
// required when the field is mandatory.
var enumTags = map[string][]string{
	"department":   models.Departments,
	"category":     models.Categories,
	"duration":     models.Durations,
	"level":        models.Levels,
	"mode":         models.Modes,
	"resourcekind": models.ResourceKinds,
	"gender":       models.Genders,
	"year":         models.Years,
	"semester":     models.Semesters,
}

// Struct validates s and returns a *ValidationError describing every failed
// field, or nil.
func Struct(s any) error {
	err := engine().Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fieldPath(fe.Namespace())] = message(fe)
	}
	return out
}

// fieldPath drops the leading struct type from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min", "gte":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max", "lte":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "objectid":
		return "must be a valid id"
	}
	if allowed, ok := enumTags[fe.Tag()]; ok {
		return "must be one of: " + strings.Join(allowed, ", ")
	}
	return "is invalid"
}

// IsValidObjectID reports whether s is a 24-char hex ObjectID.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(s)
	return err == nil
}

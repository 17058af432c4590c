// internal/app/features/errors/errors.go

// Package errors turns handler failures into JSON error responses and logs
// the ones callers cannot fix.
package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/courseportal/internal/app/enrollment"
	"github.com/dalemusser/courseportal/internal/app/system/inputval"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ErrorLogger logs server-side failures with request context and answers
// with a generic message, so internal details never reach the client.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger creates an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

func (e *ErrorLogger) fields(r *http.Request, err error) []zap.Field {
	fields := []zap.Field{
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if id := middleware.GetReqID(r.Context()); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	return fields
}

// LogServerError logs msg at error level and answers 500 with userMsg.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.log.Error(msg, e.fields(r, err)...)
	Write(w, r, http.StatusInternalServerError, CodeInternal, userMsg)
}

// LogBadRequest logs msg at debug level and answers 400 with userMsg.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.log.Debug(msg, e.fields(r, err)...)
	BadRequest(w, r, userMsg)
}

// Enrollment maps an enrollment service error to its response. Unknown
// errors are logged and answered with userMsg.
//
//	NotFound → 404; AlreadyEnrolled, NotEnrolled, CapacityExceeded, validation → 400
func (e *ErrorLogger) Enrollment(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	var ve *inputval.ValidationError
	switch {
	case stderrors.Is(err, enrollment.ErrNotFound):
		NotFound(w, r, notFoundMessage(r))
	case stderrors.Is(err, enrollment.ErrAlreadyEnrolled):
		Write(w, r, http.StatusBadRequest, CodeAlreadyEnrolled, "Already enrolled in this course")
	case stderrors.Is(err, enrollment.ErrNotEnrolled):
		Write(w, r, http.StatusBadRequest, CodeNotEnrolled, "Not enrolled in this course")
	case stderrors.Is(err, enrollment.ErrCapacityExceeded):
		Write(w, r, http.StatusBadRequest, CodeCapacityExceeded, "Course is full")
	case stderrors.As(err, &ve):
		Validation(w, r, ve)
	default:
		e.LogServerError(w, r, msg, err, userMsg)
	}
}

// notFoundMessage picks the wording the client shows: enrolling names the
// course, everything else the student profile.
func notFoundMessage(r *http.Request) string {
	if r.Method == http.MethodPost {
		return "Course not found or inactive"
	}
	return "Student profile not found"
}

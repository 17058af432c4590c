// internal/app/features/errors/render.go
package errors

import (
	"net/http"

	"github.com/dalemusser/courseportal/internal/app/system/inputval"
	"github.com/go-chi/render"
)

// Error codes carried in the "code" field of every error body.
const (
	CodeBadRequest       = "BAD_REQUEST"
	CodeValidation       = "VALIDATION_ERROR"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeAlreadyEnrolled  = "ALREADY_ENROLLED"
	CodeNotEnrolled      = "NOT_ENROLLED"
	CodeCapacityExceeded = "CAPACITY_EXCEEDED"
	CodeConflict         = "CONFLICT"
	CodeRateLimited      = "RATE_LIMITED"
	CodeInternal         = "INTERNAL_ERROR"
)

// Body is the JSON shape of every error response.
type Body struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Write sends an error body with the given status.
func Write(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	render.Status(r, status)
	render.JSON(w, r, Body{Message: msg, Code: code})
}

// BadRequest answers 400 with a caller-facing message.
func BadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	Write(w, r, http.StatusBadRequest, CodeBadRequest, msg)
}

// NotFound answers 404.
func NotFound(w http.ResponseWriter, r *http.Request, msg string) {
	if msg == "" {
		msg = "Not found"
	}
	Write(w, r, http.StatusNotFound, CodeNotFound, msg)
}

// Unauthorized answers 401.
func Unauthorized(w http.ResponseWriter, r *http.Request) {
	Write(w, r, http.StatusUnauthorized, CodeUnauthorized, "Not authenticated")
}

// Forbidden answers 403.
func Forbidden(w http.ResponseWriter, r *http.Request) {
	Write(w, r, http.StatusForbidden, CodeForbidden, "Access denied")
}

// TooManyRequests answers 429. It doubles as the rate limiter's onLimited hook.
func TooManyRequests(w http.ResponseWriter, r *http.Request) {
	Write(w, r, http.StatusTooManyRequests, CodeRateLimited, "Too many requests, please try again later")
}

// Validation answers 400 with the per-field reasons.
func Validation(w http.ResponseWriter, r *http.Request, ve *inputval.ValidationError) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, Body{Message: "Validation error", Code: CodeValidation, Errors: ve.Fields})
}

// NotFoundHandler is mounted as the router's NotFound.
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	NotFound(w, r, "Route not found")
}

// MethodNotAllowedHandler is mounted as the router's MethodNotAllowed.
func MethodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	Write(w, r, http.StatusMethodNotAllowed, CodeBadRequest, "Method not allowed")
}

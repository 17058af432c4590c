package inputval

import (
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/courseportal/internal/app/system/limits"
	"github.com/go-chi/render"
)

// MaxBodyBytes caps request bodies read by Decode.
const MaxBodyBytes = limits.MaxJSONBody

// Decode reads a JSON body into v. A missing or malformed body is reported
// as a *ValidationError on the "body" field. Fields absent from the body keep
// whatever v already held, so callers can pre-fill v for partial updates.
func Decode(w http.ResponseWriter, r *http.Request, v any) error {
	return DecodeLimit(w, r, v, MaxBodyBytes)
}

// DecodeLimit is Decode with a caller-chosen body cap.
func DecodeLimit(w http.ResponseWriter, r *http.Request, v any, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := render.DecodeJSON(r.Body, v); err != nil {
		if errors.Is(err, io.EOF) {
			return Invalid("body", "is required")
		}
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return Invalid("body", "is too large")
		}
		return Invalid("body", "must be valid JSON")
	}
	return nil
}

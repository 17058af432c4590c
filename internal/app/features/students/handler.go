// internal/app/features/students/handler.go
package students

import (
	"github.com/dalemusser/courseportal/internal/app/enrollment"
	uierrors "github.com/dalemusser/courseportal/internal/app/features/errors"
	"github.com/dalemusser/courseportal/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Handler serves the signed-in student's profile, enrollments and dashboard.
type Handler struct {
	Svc     *enrollment.Service
	Limiter *ratelimit.Limiter
	ErrLog  *uierrors.ErrorLogger
	Log     *zap.Logger
}

// NewHandler constructs a students Handler. A nil limiter disables rate
// limiting of enroll and drop.
func NewHandler(svc *enrollment.Service, limiter *ratelimit.Limiter, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if limiter == nil {
		limiter = ratelimit.New(0, 0)
	}
	return &Handler{
		Svc:     svc,
		Limiter: limiter,
		ErrLog:  errLog,
		Log:     logger,
	}
}

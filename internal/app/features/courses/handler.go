// internal/app/features/courses/handler.go
package courses

import (
	uierrors "github.com/dalemusser/courseportal/internal/app/features/errors"
	coursestore "github.com/dalemusser/courseportal/internal/app/store/courses"
	"github.com/dalemusser/courseportal/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the public catalog and the admin catalog edits.
type Handler struct {
	Courses *coursestore.Store
	ErrLog  *uierrors.ErrorLogger
	Audit   *auditlog.Logger
	Log     *zap.Logger
}

// NewHandler constructs a courses Handler bound to a DB and logger.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Courses: coursestore.New(db),
		ErrLog:  errLog,
		Audit:   audit,
		Log:     logger,
	}
}

// internal/app/features/admin/handler.go
package admin

import (
	uierrors "github.com/dalemusser/courseportal/internal/app/features/errors"
	coursestore "github.com/dalemusser/courseportal/internal/app/store/courses"
	studentstore "github.com/dalemusser/courseportal/internal/app/store/students"
	userstore "github.com/dalemusser/courseportal/internal/app/store/users"
	"github.com/dalemusser/courseportal/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the admin reporting endpoints and CSV exports.
type Handler struct {
	DB       *mongo.Database
	Students *studentstore.Store
	Courses  *coursestore.Store
	Users    *userstore.Store
	ErrLog   *uierrors.ErrorLogger
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

// NewHandler constructs an admin Handler bound to a DB and logger.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Students: studentstore.New(db),
		Courses:  coursestore.New(db),
		Users:    userstore.New(db),
		ErrLog:   errLog,
		Audit:    audit,
		Log:      logger,
	}
}

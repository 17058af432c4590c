// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/courseportal/internal/app/store/audit"
	"github.com/dalemusser/courseportal/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destination settings for a category.
const (
	All = "all" // MongoDB + zap
	DB  = "db"  // MongoDB only
	Log = "log" // zap only
	Off = "off" // disabled
)

// Config holds audit logging configuration, one destination per category.
type Config struct {
	// Auth covers sign-in and sign-out.
	Auth string
	// Admin covers catalog edits, student status changes and exports.
	Admin string
	// Enrollment covers enroll and drop.
	Enrollment string
}

// Logger provides convenience methods for logging audit events.
// It logs to MongoDB (via audit.Store) and/or structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.CourseID != nil {
		fields = append(fields, zap.String("course_id", event.CourseID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

func (l *Logger) setting(category string) string {
	switch category {
	case audit.CategoryAuth:
		return l.config.Auth
	case audit.CategoryAdmin:
		return l.config.Admin
	case audit.CategoryEnrollment:
		return l.config.Enrollment
	}
	return All
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op, so tests and optional wiring can pass nil.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := l.setting(event.Category)
	if setting == "" {
		setting = All
	}
	if setting == Off {
		return
	}

	if (setting == All || setting == Log) && l.zapLog != nil {
		l.logToZap(event)
	}

	if (setting == All || setting == DB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil && l.zapLog != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func withRequest(e audit.Event, r *http.Request) audit.Event {
	if r != nil {
		e.IP = ratelimit.ClientIP(r)
		e.UserAgent = r.UserAgent()
	}
	return e
}

// --- Authentication Events ---

// LoginSuccess logs a successful Google sign-in.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string, created bool) {
	l.Log(ctx, withRequest(audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		Success:   true,
		Details: map[string]string{
			"email":       email,
			"new_account": strconv.FormatBool(created),
		},
	}, r))
}

// LoginFailed logs a sign-in that did not complete (bad state, exchange or
// profile errors).
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, reason string) {
	l.Log(ctx, withRequest(audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailed,
		Success:       false,
		FailureReason: reason,
	}, r))
}

// LoginFailedUserDisabled logs a sign-in refused because the account is disabled.
func (l *Logger) LoginFailedUserDisabled(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, withRequest(audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUserDisabled,
		UserID:        &userID,
		Success:       false,
		FailureReason: "user disabled",
	}, r))
}

// Logout logs a sign-out. userIDStr may be empty when no one was signed in.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDStr string) {
	e := audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		Success:   true,
	}
	if oid, err := primitive.ObjectIDFromHex(userIDStr); err == nil {
		e.UserID = &oid
	}
	l.Log(ctx, withRequest(e, r))
}

// --- Admin Events ---

// CourseCreated logs a new catalog entry.
func (l *Logger) CourseCreated(ctx context.Context, r *http.Request, actorID, courseID primitive.ObjectID, code string) {
	l.courseEvent(ctx, r, audit.EventCourseCreated, actorID, courseID, code)
}

// CourseUpdated logs an edit to a catalog entry.
func (l *Logger) CourseUpdated(ctx context.Context, r *http.Request, actorID, courseID primitive.ObjectID, code string) {
	l.courseEvent(ctx, r, audit.EventCourseUpdated, actorID, courseID, code)
}

// CourseDeactivated logs a soft delete.
func (l *Logger) CourseDeactivated(ctx context.Context, r *http.Request, actorID, courseID primitive.ObjectID, code string) {
	l.courseEvent(ctx, r, audit.EventCourseDeactivated, actorID, courseID, code)
}

func (l *Logger) courseEvent(ctx context.Context, r *http.Request, eventType string, actorID, courseID primitive.ObjectID, code string) {
	l.Log(ctx, withRequest(audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType,
		ActorID:   &actorID,
		CourseID:  &courseID,
		Success:   true,
		Details:   map[string]string{"course_code": code},
	}, r))
}

// StudentStatusChanged logs an admin enabling or disabling a student record.
func (l *Logger) StudentStatusChanged(ctx context.Context, r *http.Request, actorID, studentUserID primitive.ObjectID, studentID string, active bool) {
	l.Log(ctx, withRequest(audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventStudentStatusChanged,
		ActorID:   &actorID,
		UserID:    &studentUserID,
		Success:   true,
		Details: map[string]string{
			"student_id": studentID,
			"is_active":  strconv.FormatBool(active),
		},
	}, r))
}

// DataExported logs a CSV export.
func (l *Logger) DataExported(ctx context.Context, r *http.Request, actorID primitive.ObjectID, dataset string, rows int) {
	l.Log(ctx, withRequest(audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventDataExported,
		ActorID:   &actorID,
		Success:   true,
		Details: map[string]string{
			"dataset": dataset,
			"rows":    strconv.Itoa(rows),
		},
	}, r))
}

// AdminPromoted logs the startup promotion of the configured admin email.
func (l *Logger) AdminPromoted(ctx context.Context, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventAdminPromoted,
		UserID:    &userID,
		Success:   true,
		Details:   map[string]string{"email": email},
	})
}

// --- Enrollment Events ---

// Enrolled logs a completed enrollment.
func (l *Logger) Enrolled(ctx context.Context, userID, courseID primitive.ObjectID, studentID string) {
	l.enrollmentEvent(ctx, audit.EventEnrolled, userID, courseID, studentID)
}

// Dropped logs a completed drop.
func (l *Logger) Dropped(ctx context.Context, userID, courseID primitive.ObjectID, studentID string) {
	l.enrollmentEvent(ctx, audit.EventDropped, userID, courseID, studentID)
}

func (l *Logger) enrollmentEvent(ctx context.Context, eventType string, userID, courseID primitive.ObjectID, studentID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryEnrollment,
		EventType: eventType,
		UserID:    &userID,
		CourseID:  &courseID,
		Success:   true,
		Details:   map[string]string{"student_id": studentID},
	})
}

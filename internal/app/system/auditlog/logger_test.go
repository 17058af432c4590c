package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/courseportal/internal/app/store/audit"
	"github.com/dalemusser/courseportal/internal/app/system/auditlog"
	"github.com/dalemusser/courseportal/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, primitive.NewObjectID(), "a@example.com", false)
	logger.Logout(ctx, req, "")
	logger.Enrolled(ctx, primitive.NewObjectID(), primitive.NewObjectID(), "STU250001")
}

func TestLogger_Destinations(t *testing.T) {
	tests := []struct {
		name    string
		setting string
		wantDB  int64
		wantLog int
	}{
		{"off", auditlog.Off, 0, 0},
		{"db", auditlog.DB, 1, 0},
		{"log", auditlog.Log, 0, 1},
		{"all", auditlog.All, 1, 1},
		{"empty means all", "", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			store := audit.New(db)
			core, logs := observer.New(zapcore.InfoLevel)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			logger := auditlog.New(store, zap.New(core), auditlog.Config{
				Auth:       auditlog.Off,
				Admin:      auditlog.Off,
				Enrollment: tt.setting,
			})

			userID := primitive.NewObjectID()
			logger.Enrolled(ctx, userID, primitive.NewObjectID(), "STU250001")

			n, err := store.Count(ctx, audit.QueryFilter{UserID: &userID})
			if err != nil {
				t.Fatalf("Count failed: %v", err)
			}
			if n != tt.wantDB {
				t.Errorf("stored events = %d, want %d", n, tt.wantDB)
			}
			if logs.Len() != tt.wantLog {
				t.Errorf("log entries = %d, want %d", logs.Len(), tt.wantLog)
			}
		})
	}
}

func TestLogger_RequestContext(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.DB})

	req := httptest.NewRequest("GET", "/api/auth/google/callback", nil)
	req.RemoteAddr = "203.0.113.9:5555"
	req.Header.Set("User-Agent", "test-agent")

	userID := primitive.NewObjectID()
	logger.LoginSuccess(ctx, req, userID, "ada@example.com", true)

	events, err := store.Query(ctx, audit.QueryFilter{UserID: &userID})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	e := events[0]
	if e.IP != "203.0.113.9" || e.UserAgent != "test-agent" {
		t.Errorf("request fields = (%q, %q)", e.IP, e.UserAgent)
	}
	if e.Details["new_account"] != "true" {
		t.Errorf("details = %v", e.Details)
	}
}

func TestLogger_FailuresLogAtWarn(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := auditlog.New(nil, zap.New(core), auditlog.Config{Auth: auditlog.Log})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger.LoginFailed(ctx, httptest.NewRequest("GET", "/", nil), "invalid state")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Errorf("level = %v, want warn", entries[0].Level)
	}
}

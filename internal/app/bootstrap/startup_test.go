package bootstrap

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/courseportal/internal/app/store/audit"
	"github.com/dalemusser/courseportal/internal/app/system/auditlog"
	"github.com/dalemusser/courseportal/internal/app/system/tasks"
	"github.com/dalemusser/courseportal/internal/app/system/timeouts"
	"github.com/dalemusser/courseportal/internal/domain/models"
	"github.com/dalemusser/courseportal/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:         "mongodb://localhost:27017",
		MongoDatabase:    "course_registration",
		MongoMaxPoolSize: 100,
		MongoMinPoolSize: 10,
		SessionKey:       strings.Repeat("s", 40),
		AuditLogAuth:     auditlog.All,
	}
}

func TestEnsureAdmin_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	u := fx.CreateStudentUser(ctx, "Dean", "dean@example.com")

	deps := DBDeps{MongoDatabase: db}
	auditLog := auditlog.New(audit.New(db), testLogger(), auditlog.Config{})

	if err := ensureAdmin(ctx, deps, "Dean@Example.com", auditLog, testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	var got models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": u.ID}).Decode(&got); err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if got.Role != models.RoleAdmin {
		t.Errorf("expected role 'admin', got %q", got.Role)
	}

	n, err := db.Collection("audit_events").CountDocuments(ctx, bson.M{"event_type": audit.EventAdminPromoted})
	if err != nil || n != 1 {
		t.Errorf("admin_promoted events = %d (%v), want 1", n, err)
	}
}

func TestEnsureAdmin_MissingUserIsNotAnError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}
	if err := ensureAdmin(ctx, deps, "nobody@example.com", nil, testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	n, err := db.Collection("users").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no users to be created, got %d", n)
	}
}

func TestEnsureAdmin_EmptyEmailIsNoop(t *testing.T) {
	if err := ensureAdmin(context.Background(), DBDeps{}, "", nil, testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}
}

func TestStartup_ConfiguresTimeouts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	t.Cleanup(timeouts.Reset)

	cfg := validConfig()
	cfg.TimeoutShort = 3 * time.Second
	cfg.TimeoutLong = time.Minute

	if err := Startup(ctx, &config.CoreConfig{}, cfg, DBDeps{MongoDatabase: db}, testLogger()); err != nil {
		t.Fatalf("Startup failed: %v", err)
	}
	if timeouts.Short() != 3*time.Second || timeouts.Long() != time.Minute {
		t.Errorf("timeouts = %+v", timeouts.Current())
	}
	if timeouts.Medium() != timeouts.DefaultMedium {
		t.Errorf("medium = %v, want default", timeouts.Medium())
	}
}

func TestStartupShutdown_BackgroundJobs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	t.Cleanup(timeouts.Reset)

	deps := DBDeps{MongoDatabase: db, Tasks: tasks.NewRunner(testLogger())}
	if err := Startup(ctx, &config.CoreConfig{}, validConfig(), deps, testLogger()); err != nil {
		t.Fatalf("Startup failed: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- Shutdown(ctx, &config.CoreConfig{}, validConfig(), deps, testLogger()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Shutdown: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown did not stop the background jobs")
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"valid", "dev", func(*AppConfig) {}, false},
		{"empty mongo uri", "dev", func(c *AppConfig) { c.MongoURI = "" }, true},
		{"missing database", "dev", func(c *AppConfig) { c.MongoDatabase = "" }, true},
		{"min pool above max", "dev", func(c *AppConfig) { c.MongoMinPoolSize = 200 }, true},
		{"short key in dev", "dev", func(c *AppConfig) { c.SessionKey = "short" }, false},
		{"short key in prod", "prod", func(c *AppConfig) { c.SessionKey = "short" }, true},
		{"oauth id without secret", "dev", func(c *AppConfig) { c.GoogleClientID = "id" }, true},
		{"oauth pair", "dev", func(c *AppConfig) { c.GoogleClientID, c.GoogleClientSecret = "id", "secret" }, false},
		{"bad admin email", "dev", func(c *AppConfig) { c.AdminEmail = "not-an-email" }, true},
		{"admin email", "dev", func(c *AppConfig) { c.AdminEmail = "dean@example.com" }, false},
		{"bad audit setting", "dev", func(c *AppConfig) { c.AuditLogEnrollment = "everywhere" }, true},
		{"negative rate", "dev", func(c *AppConfig) { c.EnrollRatePerMinute = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(&config.CoreConfig{Env: tt.env}, cfg, testLogger())
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuditConfig(t *testing.T) {
	cfg := AppConfig{AuditLogAuth: "db", AuditLogAdmin: "log", AuditLogEnrollment: "off"}
	got := cfg.auditConfig()
	if got.Auth != auditlog.DB || got.Admin != auditlog.Log || got.Enrollment != auditlog.Off {
		t.Errorf("auditConfig() = %+v", got)
	}
}

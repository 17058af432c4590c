// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/courseportal/internal/app/store/audit"
	"github.com/dalemusser/courseportal/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/courseportal/internal/app/store/users"
	"github.com/dalemusser/courseportal/internal/app/system/auditlog"
	"github.com/dalemusser/courseportal/internal/app/system/tasks"
	"github.com/dalemusser/courseportal/internal/app/system/timeouts"
	"github.com/dalemusser/courseportal/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It applies
// the configured timeouts, promotes the configured admin account and starts
// the background jobs.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})

	auditLog := auditlog.New(audit.New(deps.MongoDatabase), logger, appCfg.auditConfig())
	if err := ensureAdmin(ctx, deps, appCfg.AdminEmail, auditLog, logger); err != nil {
		return err
	}

	if deps.Tasks != nil {
		deps.Tasks.Add(tasks.OAuthStateCleanupJob(oauthstate.New(deps.MongoDatabase), logger))
		deps.Tasks.Start()
	}
	return nil
}

// ensureAdmin gives the admin role to the account with the given email.
// When no such account exists yet it is created as admin on first sign-in,
// so a missing user is not an error.
func ensureAdmin(ctx context.Context, deps DBDeps, email string, auditLog *auditlog.Logger, logger *zap.Logger) error {
	if email == "" {
		return nil
	}

	u, err := userstore.New(deps.MongoDatabase).PromoteToAdmin(ctx, email)
	if errors.Is(err, userstore.ErrNotFound) {
		logger.Info("admin account not found; it will be created as admin on first sign-in",
			zap.String("email", email))
		return nil
	}
	if err != nil {
		return fmt.Errorf("promote admin: %w", err)
	}

	logger.Info("admin account ensured", zap.String("user_id", u.ID.Hex()), zap.String("role", models.RoleAdmin))
	auditLog.AdminPromoted(ctx, u.ID, u.Email)
	return nil
}

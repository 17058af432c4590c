// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"strings"

	"github.com/dalemusser/courseportal/internal/app/enrollment"
	adminfeature "github.com/dalemusser/courseportal/internal/app/features/admin"
	authgooglefeature "github.com/dalemusser/courseportal/internal/app/features/authgoogle"
	authinfofeature "github.com/dalemusser/courseportal/internal/app/features/authinfo"
	coursesfeature "github.com/dalemusser/courseportal/internal/app/features/courses"
	errorsfeature "github.com/dalemusser/courseportal/internal/app/features/errors"
	healthfeature "github.com/dalemusser/courseportal/internal/app/features/health"
	logoutfeature "github.com/dalemusser/courseportal/internal/app/features/logout"
	studentsfeature "github.com/dalemusser/courseportal/internal/app/features/students"
	"github.com/dalemusser/courseportal/internal/app/store/audit"
	counterstore "github.com/dalemusser/courseportal/internal/app/store/counters"
	coursestore "github.com/dalemusser/courseportal/internal/app/store/courses"
	"github.com/dalemusser/courseportal/internal/app/store/oauthstate"
	studentstore "github.com/dalemusser/courseportal/internal/app/store/students"
	userstore "github.com/dalemusser/courseportal/internal/app/store/users"
	"github.com/dalemusser/courseportal/internal/app/system/auditlog"
	"github.com/dalemusser/courseportal/internal/app/system/auth"
	"github.com/dalemusser/courseportal/internal/app/system/metrics"
	"github.com/dalemusser/courseportal/internal/app/system/ratelimit"
	"github.com/dalemusser/courseportal/internal/app/system/txn"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// The course portal applies session middleware, builds the enrollment
// service with its metrics and audit hooks, and mounts the catalog, student,
// admin and auth routers under /api.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Refresh the session user on every request so role changes and
	// disabled accounts take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	// Prometheus registry with runtime collectors plus enrollment outcomes.
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	enrollMetrics, err := metrics.NewEnrollment(reg)
	if err != nil {
		logger.Error("metrics init failed", zap.Error(err))
		return nil, err
	}

	errLog := errorsfeature.NewErrorLogger(logger)
	auditLog := auditlog.New(audit.New(db), logger, appCfg.auditConfig())

	svc := enrollment.New(enrollment.Deps{
		Courses:  coursestore.New(db),
		Students: studentstore.New(db),
		Users:    userstore.New(db),
		Counters: counterstore.New(db),
		Txn:      txn.NewMongo(db, logger),
		Metrics:  enrollMetrics,
		Audit:    auditLog,
		Log:      logger,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	r.NotFound(errorsfeature.NotFoundHandler)
	r.MethodNotAllowed(errorsfeature.MethodNotAllowedHandler)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", metrics.Handler(reg))

	// Static assets with pre-compressed file support (gzip/brotli)
	if appCfg.StaticDir != "" {
		r.Handle("/static/*", fileserver.Handler("/static", appCfg.StaticDir))
	}

	r.Route("/api", func(api chi.Router) {
		// The browser client runs on its own origin and sends the session cookie.
		api.Use(cors.Handler(corsOptions(appCfg)))

		// Catalog
		coursesHandler := coursesfeature.NewHandler(db, errLog, auditLog, logger)
		api.Mount("/courses", coursesfeature.Routes(coursesHandler, sessionMgr))

		// Student profile, enrollment and dashboard
		limiter := ratelimit.New(appCfg.EnrollRatePerMinute, appCfg.EnrollRateBurst)
		studentsHandler := studentsfeature.NewHandler(svc, limiter, errLog, logger)
		api.Mount("/students", studentsfeature.Routes(studentsHandler, sessionMgr))

		// Reporting and exports
		adminHandler := adminfeature.NewHandler(db, errLog, auditLog, logger)
		api.Mount("/admin", adminfeature.Routes(adminHandler, sessionMgr))

		// Authentication
		authRouter := authinfofeature.Routes(authinfofeature.NewHandler(db, errLog, logger), sessionMgr)

		googleHandler := authgooglefeature.NewHandler(
			userstore.New(db),
			oauthstate.New(db),
			sessionMgr,
			auditLog,
			appCfg.GoogleClientID,
			appCfg.GoogleClientSecret,
			appCfg.BaseURL,
			appCfg.ClientURL,
			appCfg.AdminEmail,
			logger,
		)
		authRouter.Mount("/google", authgooglefeature.Routes(googleHandler))

		logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, logger)
		authRouter.Mount("/logout", logoutfeature.Routes(logoutHandler))

		api.Mount("/auth", authRouter)
	})

	return r, nil
}

// corsOptions allows the configured client origin to call the API with
// credentials.
func corsOptions(appCfg AppConfig) cors.Options {
	return cors.Options{
		AllowedOrigins:   []string{strings.TrimRight(appCfg.ClientURL, "/")},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

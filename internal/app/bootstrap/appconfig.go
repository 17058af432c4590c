// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//
// The struct is passed to most lifecycle hooks, so any configuration needed
// during startup, request handling, or shutdown lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret for deriving the cookie keys (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: courseportal-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Public addresses
	BaseURL   string // this API, used for the OAuth callback (e.g., "https://api.example.edu")
	ClientURL string // the browser client; sign-in redirects land here

	// Google OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string

	// AdminEmail is promoted to admin at startup and created as admin on
	// first sign-in.
	AdminEmail string

	// Audit logging destinations: all, db, log or off
	AuditLogAuth       string
	AuditLogAdmin      string
	AuditLogEnrollment string

	// Per-operation database timeouts
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration

	// Enroll/drop rate limit per signed-in user
	EnrollRatePerMinute int
	EnrollRateBurst     int

	// StaticDir is served under /static when set.
	StaticDir string
}

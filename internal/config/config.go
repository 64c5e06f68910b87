// Package config defines the global configuration structure for the FocusFlow
// entitlement service. Configuration is loaded once at process initialization
// and is immutable thereafter. It follows 12-Factor App principles by strictly
// separating code from configuration.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File (Lowest)
//
// Any missing required value or invalid format causes startup to fail
// immediately (fail fast).
package config

import (
	"time"

	"focusflow/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used throughout configuration to prevent accidental logging of sensitive
// values.
type SecretString = types.SecretString

// Config is the top-level configuration struct for the FocusFlow service.
// It is populated once during process initialization and never modified.
// Sub-components receive only the specific config subsets they require.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"focusflow-api"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Domain Configurations
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Admin    AdminConfig
	Quota    QuotaConfig
	Billing  BillingConfig
	Coach    CoachConfig
	Calendar CalendarConfig
}

// ServerConfig holds HTTP server and public URL configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8080"`
	// Public URLs for checkout redirects (no trailing slash)
	APIExternalURL string `envconfig:"API_EXTERNAL_URL" validate:"required,url"` // e.g., https://api.focusflow.app
	DashboardURL   string `envconfig:"DASHBOARD_URL" validate:"required,url"`    // e.g., https://app.focusflow.app
}

// DatabaseConfig holds database connection and pool tuning parameters.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required,url"`

	// Tuning Parameters
	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	AcquireTimeout    time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"2s"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// AuthConfig holds the shared secret used to verify access tokens issued by
// the hosted auth provider. Token issuance and OAuth redirect mechanics live
// entirely in the provider; this service only verifies.
type AuthConfig struct {
	JWTSecret SecretString `envconfig:"AUTH_JWT_SECRET" validate:"required,min=32"`
}

// AdminConfig identifies the primary admin. The primary admin's IsAdmin flag
// can never be revoked through any mutation path, so this identity must be
// configured rather than compiled into business logic.
type AdminConfig struct {
	PrimaryAdminEmail string `envconfig:"PRIMARY_ADMIN_EMAIL" validate:"required,email"`
}

// QuotaConfig holds the usage-counter failure policy. The daily Free-tier
// session limit itself is plan catalog data, not deployment configuration.
type QuotaConfig struct {
	FailurePolicy types.QuotaFailurePolicy `envconfig:"QUOTA_FAILURE_POLICY" default:"fail_open" validate:"oneof=fail_open fail_closed"`
}

// BillingConfig holds Stripe credentials and the price IDs for the paid plans.
type BillingConfig struct {
	StripeSecretKey  SecretString `envconfig:"STRIPE_SECRET_KEY" validate:"required"`
	PriceProMonthly  string       `envconfig:"STRIPE_PRICE_PRO_MONTHLY" validate:"required"`
	PriceTeamMonthly string       `envconfig:"STRIPE_PRICE_TEAM_MONTHLY" validate:"required"`
}

// CoachConfig holds the Google Generative AI credentials for insight
// generation.
type CoachConfig struct {
	GeminiAPIKey SecretString `envconfig:"GEMINI_API_KEY" validate:"required"`
	Model        string       `envconfig:"COACH_MODEL" default:"gemini-1.5-flash"`
	Timeout      time.Duration `envconfig:"COACH_TIMEOUT" default:"15s"`
}

// CalendarConfig holds settings for the Google Calendar import client.
type CalendarConfig struct {
	MaxEvents     int           `envconfig:"CALENDAR_MAX_EVENTS" default:"25"`
	LookaheadDays int           `envconfig:"CALENDAR_LOOKAHEAD_DAYS" default:"7"`
	Timeout       time.Duration `envconfig:"CALENDAR_TIMEOUT" default:"10s"`
}

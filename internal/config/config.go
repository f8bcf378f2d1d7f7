package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"
)

// InsecureDefaultSecret is used when JWT_SECRET_KEY is unset. It is public knowledge,
// so any token signed with it can be forged. Never run production with it.
const InsecureDefaultSecret = "default-insecure-key"

// Supported database/sql driver names.
const (
	DriverPQ  = "postgres"
	DriverPGX = "pgx"
)

type Config struct {
	Port string `env:"PORT" envDefault:"5000"`

	// Env is "dev" (default) or "prod". When "prod", JWT_SECRET_KEY must be set and not the default.
	Env string `env:"ENV" envDefault:"dev"`

	// DBDriver selects lib/pq ("postgres") or pgx ("pgx").
	DBDriver  string `env:"DB_DRIVER" envDefault:"postgres"`
	DBHost    string `env:"DB_HOST" envDefault:"postgres-db"`
	DBPort    string `env:"DB_PORT" envDefault:"5432"`
	DBName    string `env:"DB_NAME" envDefault:"auth_db"`
	DBUser    string `env:"DB_USER" envDefault:"user"`
	DBPass    string `env:"DB_PASSWORD" envDefault:"password"`
	DBSSLMode string `env:"DB_SSLMODE" envDefault:"disable"`

	// DBConnectTimeout bounds a single connection attempt.
	DBConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"5s"`
	// DBConnectAttempts is the total number of connection attempts before giving up (default 5).
	DBConnectAttempts int `env:"DB_CONNECT_ATTEMPTS" envDefault:"5"`
	// DBConnectBackoff is the first retry delay; it doubles after every failed attempt.
	DBConnectBackoff time.Duration `env:"DB_CONNECT_BACKOFF" envDefault:"1s"`

	// Request connections use their own, shorter schedule so a down store still
	// produces a response before the HTTP write deadline.
	DBRequestTimeout  time.Duration `env:"DB_REQUEST_TIMEOUT" envDefault:"2s"`
	DBRequestAttempts int           `env:"DB_REQUEST_ATTEMPTS" envDefault:"2"`
	DBRequestBackoff  time.Duration `env:"DB_REQUEST_BACKOFF" envDefault:"200ms"`

	// DBMaxOpenConns is the maximum number of open connections to the database (default 25).
	DBMaxOpenConns int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	// DBMaxIdleConns is the maximum number of idle connections (default 5).
	DBMaxIdleConns int `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`

	// DBSchemaRequired makes a failed schema check at startup fatal.
	DBSchemaRequired bool `env:"DB_SCHEMA_REQUIRED" envDefault:"true"`

	JWTSecret string `env:"JWT_SECRET_KEY" envDefault:"default-insecure-key"`

	// BcryptCost is the adaptive cost used for new password hashes.
	BcryptCost int `env:"BCRYPT_COST" envDefault:"12"`

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	// When empty, the API listens with plain HTTP.
	TLSCertFile string `env:"TLS_CERT_FILE"`
	TLSKeyFile  string `env:"TLS_KEY_FILE"`

	// LogFormat is "text" (default) or "json" for structured logging.
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`

	// OTelEnabled installs a tracing provider so spans carry real ids into log lines.
	OTelEnabled bool `env:"OTEL_ENABLED" envDefault:"true"`
	// OTelEndpoint is an OTLP/HTTP collector URL, e.g. http://otel-collector:4318.
	// Empty keeps spans in-process without exporting them.
	OTelEndpoint string `env:"OTEL_ENDPOINT"`

	// CORSAllowedOrigins is a list of origins allowed for CORS (e.g. https://app.example.com, http://localhost:3000).
	// Set via CORS_ALLOWED_ORIGINS (comma-separated). When empty, no CORS headers are sent (same-origin only).
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// Load reads the configuration from the environment. Every key has a default,
// so an error means a value was present but malformed.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.CORSAllowedOrigins = compact(cfg.CORSAllowedOrigins)
	return cfg, nil
}

// Validate reports configuration that would make the service unsafe or unusable.
func (c Config) Validate() error {
	var errs []error
	if c.DBDriver != DriverPQ && c.DBDriver != DriverPGX {
		errs = append(errs, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPQ, DriverPGX, c.DBDriver))
	}
	if c.DBConnectAttempts <= 0 {
		errs = append(errs, errors.New("DB_CONNECT_ATTEMPTS must be positive"))
	}
	if c.DBConnectBackoff <= 0 {
		errs = append(errs, errors.New("DB_CONNECT_BACKOFF must be positive"))
	}
	if c.DBRequestAttempts <= 0 {
		errs = append(errs, errors.New("DB_REQUEST_ATTEMPTS must be positive"))
	}
	if c.DBRequestBackoff <= 0 {
		errs = append(errs, errors.New("DB_REQUEST_BACKOFF must be positive"))
	}
	if c.DBRequestTimeout <= 0 {
		errs = append(errs, errors.New("DB_REQUEST_TIMEOUT must be positive"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY must not be empty"))
	}
	if c.IsProd() && c.UsesInsecureSecret() {
		errs = append(errs, errors.New("JWT_SECRET_KEY must be set to a non-default value when ENV=prod"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	return errors.Join(errs...)
}

func (c Config) IsProd() bool {
	return c.Env == "prod"
}

// UsesInsecureSecret reports whether tokens are signed with the public default key.
func (c Config) UsesInsecureSecret() bool {
	return c.JWTSecret == InsecureDefaultSecret
}

// DSN returns a key/value connection string understood by both lib/pq and pgx.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s sslmode=%s connect_timeout=%d",
		quote(c.DBHost), quote(c.DBPort), quote(c.DBName), quote(c.DBUser), quote(c.DBPass), quote(c.DBSSLMode),
		connectTimeoutSeconds(c.DBConnectTimeout),
	)
}

// quote escapes a libpq key/value connection string value.
func quote(v string) string {
	v = strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v)
	return "'" + v + "'"
}

// MigrateURL returns the postgres URL form required by golang-migrate.
func (c Config) MigrateURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPass),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

func connectTimeoutSeconds(d time.Duration) int {
	secs := int(d / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// compact trims spaces and drops empty origins.
func compact(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

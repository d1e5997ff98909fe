package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Redis, rate limiting and response caching have
// their own loaders (LoadRedisConfig, LoadRateLimitConfig, LoadCacheConfig).
type Config struct {
	Env      string // application environment (e.g. "dev", "prod")
	Port     string // HTTP port to listen on
	LogLevel string // zap level name (debug, info, warn, error)

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	Auth0Domain     string        // identity provider tenant domain
	Auth0Audience   string        // API identifier tokens must be issued for
	Auth0Algorithms []string      // accepted signing algorithms
	JWKSURL         string        // optional override of https://{domain}/.well-known/jwks.json
	JWKSCacheTTL    time.Duration // how long a fetched key set is trusted
	JWKSMinRefresh  time.Duration // minimum spacing of forced refetches on unknown kid
	JWKSHTTPTimeout time.Duration // key set fetch timeout

	CORS CORSConfig

	RabbitMQURL             string // broker URL for activity events
	EventsEnabled           bool   // publish activity events after writes
	ActivityConsumerEnabled bool   // run the activity log consumer in-process
	ActivityLogPath         string // file the consumer appends to
}

// CORSConfig mirrors the cross-origin policy served to the web client.
type CORSConfig struct {
	Origins          []string
	AllowHeaders     []string
	Methods          []string
	ExposeHeaders    []string
	MaxAge           int
	AllowCredentials bool
}

// IsProd reports whether the service runs in production.
func (c Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "production"
}

// MissingError lists every required variable that was unset.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return "missing required env vars: " + strings.Join(e.Keys, ", ")
}

// Load reads an optional .env file, then configuration values from the
// environment.  Every missing required variable is reported at once.
func Load() (Config, error) {
	_ = godotenv.Load()

	r := &reader{}
	cfg := Config{
		Env:      r.must("APP_ENV"),
		Port:     envStr("APP_PORT", "8080"),
		LogLevel: envStr("LOG_LEVEL", "info"),

		DBUser: r.must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: r.must("DB_HOST"),
		DBPort: envStr("DB_PORT", "3306"),
		DBName: r.must("DB_NAME"),

		Auth0Domain:     r.must("AUTH0_DOMAIN"),
		Auth0Audience:   r.must("AUTH0_API_AUDIENCE"),
		Auth0Algorithms: splitList(envStr("AUTH0_ALGORITHMS", "RS256")),
		JWKSURL:         os.Getenv("AUTH0_JWKS_URL"),
		JWKSCacheTTL:    envDur("JWKS_CACHE_TTL", 10*time.Minute),
		JWKSMinRefresh:  envDur("JWKS_MIN_REFRESH", 30*time.Second),
		JWKSHTTPTimeout: envDur("JWKS_HTTP_TIMEOUT", 5*time.Second),

		CORS: CORSConfig{
			Origins:          splitList(envStr("CORS_ORIGINS", "http://localhost:3000")),
			AllowHeaders:     splitList(envStr("CORS_ALLOW_HEADERS", "Authorization,Content-Type")),
			Methods:          splitList(envStr("CORS_METHODS", "GET,POST,PUT,DELETE,OPTIONS")),
			ExposeHeaders:    splitList(os.Getenv("CORS_EXPOSE_HEADERS")),
			MaxAge:           envInt("CORS_MAX_AGE", 600),
			AllowCredentials: envBool("CORS_SUPPORTS_CREDENTIALS", true),
		},

		RabbitMQURL:             rabbitURL(),
		EventsEnabled:           envBool("EVENTS_ENABLED", false),
		ActivityConsumerEnabled: envBool("ACTIVITY_CONSUMER_ENABLED", false),
		ActivityLogPath:         envStr("ACTIVITY_LOG_PATH", "logs/activity.log"),
	}
	if len(r.missing) > 0 {
		return cfg, &MissingError{Keys: r.missing}
	}
	return cfg, cfg.Validate()
}

// Validate rejects combinations that are unsafe or unusable.
func (c Config) Validate() error {
	var errs []error
	if len(c.Auth0Algorithms) == 0 {
		errs = append(errs, errors.New("AUTH0_ALGORITHMS must list at least one algorithm"))
	}
	for _, alg := range c.Auth0Algorithms {
		if !strings.HasPrefix(alg, "RS") {
			errs = append(errs, fmt.Errorf("AUTH0_ALGORITHMS: unsupported algorithm %q", alg))
		}
	}
	if c.JWKSCacheTTL <= 0 {
		errs = append(errs, errors.New("JWKS_CACHE_TTL must be positive"))
	}
	if c.IsProd() {
		for _, o := range c.CORS.Origins {
			if o == "*" && c.CORS.AllowCredentials {
				errs = append(errs, errors.New("CORS_ORIGINS may not be * with credentials in prod"))
			}
			if strings.HasPrefix(o, "http://") {
				errs = append(errs, fmt.Errorf("CORS_ORIGINS: %q must use https in prod", o))
			}
		}
	}
	return errors.Join(errs...)
}

func rabbitURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

// reader collects missing required keys instead of exiting on the first.
type reader struct {
	missing []string
}

// must retrieves the value of a required environment variable.
func (r *reader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		r.missing = append(r.missing, key)
		return ""
	}
	return v
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}

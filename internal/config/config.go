package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreRedis    = "redis"
)

// Server is the process configuration of authcore-server.
type Server struct {
	AccessSecret          string        `mapstructure:"jwt_access_secret"`
	AccessTTL             time.Duration `mapstructure:"access_token_ttl"`
	RefreshTTL            time.Duration `mapstructure:"refresh_token_ttl"`
	PasswordHasher        string        `mapstructure:"password_hasher"`
	PasswordWorkFactor    int           `mapstructure:"password_work_factor"`
	PasswordMaxConcurrent int           `mapstructure:"password_max_concurrent"`
	HTTPAddr              string        `mapstructure:"http_addr"`
	Store                 string        `mapstructure:"store"`
	DatabaseDSN           string        `mapstructure:"database_dsn"`
	SessionStore          string        `mapstructure:"session_store"`
	RevocationStore       string        `mapstructure:"revocation_store"`
	RedisAddr             string        `mapstructure:"redis_addr"`
	LogLevel              string        `mapstructure:"log_level"`
	AuditEnabled          bool          `mapstructure:"audit_enabled"`
	AuditLogFile          string        `mapstructure:"audit_log_file"`
	MetricsEnabled        bool          `mapstructure:"metrics_enabled"`
	CORSAllowedOrigins    []string      `mapstructure:"cors_allowed_origins"`
	ShutdownTimeout       time.Duration `mapstructure:"shutdown_timeout"`

	RateLimitEnabled         bool          `mapstructure:"rate_limit_enabled"`
	RateLimitLoginAttempts   int           `mapstructure:"rate_limit_login_attempts"`
	RateLimitLoginWindow     time.Duration `mapstructure:"rate_limit_login_window"`
	RateLimitRefreshAttempts int           `mapstructure:"rate_limit_refresh_attempts"`
	RateLimitRefreshWindow   time.Duration `mapstructure:"rate_limit_refresh_window"`
}

// legacyEnv maps keys to the unprefixed variable names the service also
// accepts. The prefixed name wins when both are set.
var legacyEnv = []struct {
	key string
	env string
}{
	{"jwt_access_secret", "JWT_ACCESS_SECRET"},
	{"access_token_ttl", "JWT_ACCESS_EXPIRES"},
	{"password_work_factor", "PASSWORD_SALT_ROUNDS"},
}

// Load reads configuration from the environment. A .env file in the
// working directory (or at envFile when given) is loaded first without
// overriding variables already set.
func Load(envFile ...string) (Server, error) {
	if err := godotenv.Load(envFile...); err != nil && len(envFile) > 0 {
		return Server{}, fmt.Errorf("load env file: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("AUTHCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("jwt_access_secret", "")
	v.SetDefault("access_token_ttl", 15*time.Minute)
	v.SetDefault("refresh_token_ttl", 720*time.Hour)
	v.SetDefault("password_hasher", "argon2id")
	v.SetDefault("password_work_factor", 0)
	v.SetDefault("password_max_concurrent", 2*runtime.GOMAXPROCS(0))
	v.SetDefault("http_addr", ":3000")
	v.SetDefault("store", StoreMemory)
	v.SetDefault("database_dsn", "")
	v.SetDefault("session_store", "")
	v.SetDefault("revocation_store", StoreMemory)
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("log_level", "info")
	v.SetDefault("audit_enabled", true)
	v.SetDefault("audit_log_file", "")
	v.SetDefault("metrics_enabled", true)
	v.SetDefault("cors_allowed_origins", []string{"*"})
	v.SetDefault("shutdown_timeout", 15*time.Second)
	v.SetDefault("rate_limit_enabled", false)
	v.SetDefault("rate_limit_login_attempts", 10)
	v.SetDefault("rate_limit_login_window", 15*time.Minute)
	v.SetDefault("rate_limit_refresh_attempts", 60)
	v.SetDefault("rate_limit_refresh_window", time.Minute)

	for _, l := range legacyEnv {
		if err := v.BindEnv(l.key, "AUTHCORE_"+strings.ToUpper(l.key), l.env); err != nil {
			return Server{}, fmt.Errorf("bind %s: %w", l.key, err)
		}
	}
	v.AutomaticEnv()

	var cfg Server
	if err := v.Unmarshal(&cfg); err != nil {
		return Server{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func (c *Server) normalize() {
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	c.SessionStore = strings.ToLower(strings.TrimSpace(c.SessionStore))
	c.RevocationStore = strings.ToLower(strings.TrimSpace(c.RevocationStore))
	c.PasswordHasher = strings.ToLower(strings.TrimSpace(c.PasswordHasher))
	if c.SessionStore == "" {
		c.SessionStore = c.Store
	}

	origins := c.CORSAllowedOrigins[:0]
	for _, o := range c.CORSAllowedOrigins {
		for _, part := range strings.Split(o, ",") {
			if part = strings.TrimSpace(part); part != "" {
				origins = append(origins, part)
			}
		}
	}
	c.CORSAllowedOrigins = origins
}

// Validate checks the combinations the server can wire.
func (c Server) Validate() error {
	if c.AccessSecret == "" {
		return errors.New("AUTHCORE_JWT_ACCESS_SECRET is required")
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	switch c.Store {
	case StoreMemory:
	case StorePostgres, StoreSQLite:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("AUTHCORE_DATABASE_DSN is required for store %q", c.Store)
		}
	default:
		return fmt.Errorf("unsupported store %q", c.Store)
	}
	switch c.SessionStore {
	case c.Store, StoreRedis:
	default:
		return fmt.Errorf("session store %q must be %q or %q", c.SessionStore, c.Store, StoreRedis)
	}
	switch c.RevocationStore {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("unsupported revocation store %q", c.RevocationStore)
	}
	switch c.PasswordHasher {
	case "argon2id", "bcrypt":
	default:
		return fmt.Errorf("unsupported password hasher %q", c.PasswordHasher)
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if c.RateLimitEnabled && (c.RateLimitLoginWindow <= 0 || c.RateLimitRefreshWindow <= 0) {
		return errors.New("rate limit windows must be positive")
	}
	return nil
}

// UsesRedis reports whether any backend needs a Redis client. Rate
// limiting always runs on Redis.
func (c Server) UsesRedis() bool {
	return c.SessionStore == StoreRedis || c.RevocationStore == StoreRedis || c.RateLimitEnabled
}

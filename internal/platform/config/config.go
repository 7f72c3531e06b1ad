package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	JWT         JWTConfig       `mapstructure:"jwt"`
	Security    SecurityConfig  `mapstructure:"security"`
	Pages       PagesConfig     `mapstructure:"pages"`
	CORS        CORSConfig      `mapstructure:"cors"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Workers     WorkersConfig   `mapstructure:"workers"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// TrustProxy takes the client IP from X-Forwarded-For / X-Real-IP.
	TrustProxy bool `mapstructure:"trust_proxy"`
}

type DatabaseConfig struct {
	Path           string `mapstructure:"path"`
	MaxConnections int    `mapstructure:"max_connections"`
	BusyTimeoutMS  int    `mapstructure:"busy_timeout_ms"`
	AutoMigrate    bool   `mapstructure:"auto_migrate"`
}

type JWTConfig struct {
	Secret            string        `mapstructure:"secret"`
	Issuer            string        `mapstructure:"issuer"`
	UserTokenTTL      time.Duration `mapstructure:"user_token_ttl"`
	AdminTokenTTL     time.Duration `mapstructure:"admin_token_ttl"`
	PasswordChangeTTL time.Duration `mapstructure:"password_change_ttl"`
	UserCookie        string        `mapstructure:"user_cookie"`
	AdminCookie       string        `mapstructure:"admin_cookie"`
	SecureCookies     bool          `mapstructure:"secure_cookies"`
}

type SecurityConfig struct {
	BcryptCost       int           `mapstructure:"bcrypt_cost"`
	MaxLoginAttempts int           `mapstructure:"max_login_attempts"`
	LockDuration     time.Duration `mapstructure:"lock_duration"`
}

type PagesConfig struct {
	// CollaboratorWrite is "implicit" (every collaborator may write) or
	// "explicit" (only collaborators granted write access).
	CollaboratorWrite string `mapstructure:"collaborator_write"`
	PublicBaseURL     string `mapstructure:"public_base_url"`
	MaxBodyBytes      int    `mapstructure:"max_body_bytes"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
	MaxAge         int      `mapstructure:"max_age"`
}

type RateLimitConfig struct {
	Backend             string `mapstructure:"backend"`
	LoginPerMinute      int    `mapstructure:"login_per_minute"`
	SignupPerMinute     int    `mapstructure:"signup_per_minute"`
	AdminLoginPerMinute int    `mapstructure:"admin_login_per_minute"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type WorkersConfig struct {
	AuditRetention   time.Duration `mapstructure:"audit_retention"`
	AuditPurgeSpec   string        `mapstructure:"audit_purge_spec"`
	LockoutSweepSpec string        `mapstructure:"lockout_sweep_spec"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("ZETTANOTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	switch c.Pages.CollaboratorWrite {
	case "implicit", "explicit":
	default:
		return fmt.Errorf("pages.collaborator_write must be implicit or explicit, got %q", c.Pages.CollaboratorWrite)
	}
	switch c.RateLimit.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("rate_limit.backend must be memory or redis, got %q", c.RateLimit.Backend)
	}
	if c.Security.MaxLoginAttempts < 1 {
		return errors.New("security.max_login_attempts must be at least 1")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.trust_proxy", false)

	v.SetDefault("database.path", "data/zettanote.db")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.busy_timeout_ms", 5000)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "zettanote")
	v.SetDefault("jwt.user_token_ttl", "168h")
	v.SetDefault("jwt.admin_token_ttl", "8h")
	v.SetDefault("jwt.password_change_ttl", "15m")
	v.SetDefault("jwt.user_cookie", "token")
	v.SetDefault("jwt.admin_cookie", "admin_token")
	v.SetDefault("jwt.secure_cookies", false)

	v.SetDefault("security.bcrypt_cost", 12)
	v.SetDefault("security.max_login_attempts", 5)
	v.SetDefault("security.lock_duration", "2h")

	v.SetDefault("pages.collaborator_write", "implicit")
	v.SetDefault("pages.public_base_url", "http://localhost:3000/public")
	v.SetDefault("pages.max_body_bytes", 1<<20)

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://localhost:3001"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Authorization", "Content-Type", "X-Request-Id"})
	v.SetDefault("cors.max_age", 600)

	v.SetDefault("rate_limit.backend", "memory")
	v.SetDefault("rate_limit.login_per_minute", 10)
	v.SetDefault("rate_limit.signup_per_minute", 5)
	v.SetDefault("rate_limit.admin_login_per_minute", 5)

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.file_path", "logs/zettanote.log")
	v.SetDefault("logging.max_size_mb", 50)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)

	v.SetDefault("workers.audit_retention", "4320h") // 180 days
	v.SetDefault("workers.audit_purge_spec", "0 30 3 * * *")
	v.SetDefault("workers.lockout_sweep_spec", "0 */10 * * * *")
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"timebank-go/pkg/logger"
)

type Config struct {
	Env     string        `toml:"env"`
	HTTP    HTTPConfig    `toml:"http"`
	DB      DBConfig      `toml:"db"`
	Auth    AuthConfig    `toml:"auth"`
	SMTP    SMTPConfig    `toml:"smtp"`
	Notify  NotifyConfig  `toml:"notify"`
	Cleanup CleanupConfig `toml:"cleanup"`
	Metrics MetricsConfig `toml:"metrics"`
}

type HTTPConfig struct {
	Port           string        `toml:"port"`
	RequestTimeout time.Duration `toml:"request_timeout"`
	AllowedOrigins []string      `toml:"allowed_origins"`
}

type DBConfig struct {
	DSN             string        `toml:"dsn"`
	Host            string        `toml:"host"`
	Port            string        `toml:"port"`
	User            string        `toml:"user"`
	Password        string        `toml:"password"`
	Name            string        `toml:"name"`
	SSLMode         string        `toml:"sslmode"`
	TimeZone        string        `toml:"timezone"`
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
	MigrationsDir   string        `toml:"migrations_dir"`
}

type AuthConfig struct {
	JWTSecret     string `toml:"jwt_secret"`
	SkipAuth      bool   `toml:"skip"`
	MockUserID    int64  `toml:"mock_user_id"`
	MockUserRole  string `toml:"mock_user_role"`
	MockUserName  string `toml:"mock_user_name"`
	MockUserEmail string `toml:"mock_user_email"`
}

type SMTPConfig struct {
	Enabled  bool   `toml:"enabled"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
}

type NotifyConfig struct {
	Workers int `toml:"workers"`
}

type CleanupConfig struct {
	DefaultAge time.Duration `toml:"default_age"`
}

type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

func Defaults() Config {
	return Config{
		Env: "development",
		HTTP: HTTPConfig{
			Port:           "8080",
			RequestTimeout: 30 * time.Second,
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		},
		DB: DBConfig{
			Host:            "localhost",
			Port:            "5432",
			User:            "postgres",
			Password:        "postgres",
			Name:            "timebank",
			SSLMode:         "disable",
			TimeZone:        "UTC",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			MigrationsDir:   "migrations",
		},
		Auth: AuthConfig{
			MockUserID:   1,
			MockUserRole: "admin",
			MockUserName: "Local Admin",
		},
		SMTP: SMTPConfig{
			Port: 587,
			From: "timebank@localhost",
		},
		Notify:  NotifyConfig{Workers: 1},
		Cleanup: CleanupConfig{DefaultAge: 7 * 24 * time.Hour},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Load builds the configuration from defaults, the optional TOML file named by
// CONFIG_FILE and the environment, in that order of increasing precedence.
func Load(log logger.Logger) (Config, error) {
	if err := loadDotEnv(log); err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
		log.Info("config: loaded file", "path", path)
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Env = getEnv("ENV", cfg.Env)

	cfg.HTTP.Port = getEnv("HTTP_PORT", cfg.HTTP.Port)
	cfg.HTTP.RequestTimeout = getEnvDuration("HTTP_REQUEST_TIMEOUT", cfg.HTTP.RequestTimeout)
	cfg.HTTP.AllowedOrigins = getEnvList("HTTP_ALLOWED_ORIGINS", cfg.HTTP.AllowedOrigins)

	cfg.DB.DSN = getEnv("DB_DSN", cfg.DB.DSN)
	cfg.DB.Host = getEnv("DB_HOST", cfg.DB.Host)
	cfg.DB.Port = getEnv("DB_PORT", cfg.DB.Port)
	cfg.DB.User = getEnv("DB_USER", cfg.DB.User)
	cfg.DB.Password = getEnv("DB_PASSWORD", cfg.DB.Password)
	cfg.DB.Name = getEnv("DB_NAME", cfg.DB.Name)
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", cfg.DB.SSLMode)
	cfg.DB.TimeZone = getEnv("DB_TIMEZONE", cfg.DB.TimeZone)
	cfg.DB.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", cfg.DB.MaxOpenConns)
	cfg.DB.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", cfg.DB.MaxIdleConns)
	cfg.DB.ConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", cfg.DB.ConnMaxLifetime)
	cfg.DB.MigrationsDir = getEnv("DB_MIGRATIONS_DIR", cfg.DB.MigrationsDir)

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.SkipAuth = getEnvBool("AUTH_SKIP", cfg.Auth.SkipAuth)
	cfg.Auth.MockUserID = getEnvInt64("AUTH_MOCK_USER_ID", cfg.Auth.MockUserID)
	cfg.Auth.MockUserRole = getEnv("AUTH_MOCK_USER_ROLE", cfg.Auth.MockUserRole)
	cfg.Auth.MockUserName = getEnv("AUTH_MOCK_USER_NAME", cfg.Auth.MockUserName)
	cfg.Auth.MockUserEmail = getEnv("AUTH_MOCK_USER_EMAIL", cfg.Auth.MockUserEmail)

	cfg.SMTP.Enabled = getEnvBool("SMTP_ENABLED", cfg.SMTP.Enabled)
	cfg.SMTP.Host = getEnv("SMTP_HOST", cfg.SMTP.Host)
	cfg.SMTP.Port = getEnvInt("SMTP_PORT", cfg.SMTP.Port)
	cfg.SMTP.Username = getEnv("SMTP_USERNAME", cfg.SMTP.Username)
	cfg.SMTP.Password = getEnv("SMTP_PASSWORD", cfg.SMTP.Password)
	cfg.SMTP.From = getEnv("SMTP_FROM", cfg.SMTP.From)

	cfg.Notify.Workers = getEnvInt("NOTIFY_WORKERS", cfg.Notify.Workers)
	cfg.Cleanup.DefaultAge = getEnvDuration("CLEANUP_DEFAULT_AGE", cfg.Cleanup.DefaultAge)
	cfg.Metrics.Enabled = getEnvBool("METRICS_ENABLED", cfg.Metrics.Enabled)
}

func (c Config) Validate() error {
	if !c.Auth.SkipAuth && c.Auth.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET is required unless AUTH_SKIP is set")
	}
	if c.Auth.SkipAuth && c.Auth.MockUserID <= 0 {
		return fmt.Errorf("config: AUTH_MOCK_USER_ID must be positive")
	}
	if c.SMTP.Enabled && c.SMTP.Host == "" {
		return fmt.Errorf("config: SMTP_HOST is required when SMTP is enabled")
	}
	if c.HTTP.RequestTimeout <= 0 {
		return fmt.Errorf("config: HTTP_REQUEST_TIMEOUT must be positive")
	}
	if c.Cleanup.DefaultAge <= 0 {
		return fmt.Errorf("config: CLEANUP_DEFAULT_AGE must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt64(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.TimeZone
}

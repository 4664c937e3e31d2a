package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything the server reads from the environment
type Config struct {
	Port           string
	Env            string
	JWTSecret      string
	JWTTTL         time.Duration
	DBType         string
	DatabaseURL    string
	AllowedOrigins []string
	LogLevel       string
	LogFile        string
	AutoMigrate    bool
	CookieSecure   bool
}

var (
	ErrMissingJWTSecret = errors.New("JWT_SECRET environment variable is required")
	ErrMissingDatabase  = errors.New("database connection details missing: set DATABASE_URL or individual DB_* variables")
)

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// A missing .env is fine, real deployments set the environment directly
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("JWT_TTL", 24*time.Hour)
	v.SetDefault("DB_TYPE", "postgres")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("LOG_FILE", "server.log")
	v.SetDefault("AUTO_MIGRATE", true)
	v.SetDefault("COOKIE_SECURE", false)

	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:         v.GetString("PORT"),
		Env:          v.GetString("ENV"),
		JWTSecret:    v.GetString("JWT_SECRET"),
		JWTTTL:       v.GetDuration("JWT_TTL"),
		DBType:       v.GetString("DB_TYPE"),
		LogLevel:     v.GetString("LOG_LEVEL"),
		LogFile:      v.GetString("LOG_FILE"),
		AutoMigrate:  v.GetBool("AUTO_MIGRATE"),
		CookieSecure: v.GetBool("COOKIE_SECURE"),
	}

	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	if cfg.JWTTTL <= 0 {
		cfg.JWTTTL = 24 * time.Hour
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
		if cfg.Env == "development" {
			cfg.LogLevel = "debug"
		}
	}

	if cfg.DBType == "" {
		cfg.DBType = "postgres"
	}

	cfg.DatabaseURL = v.GetString("DATABASE_URL")
	if cfg.DatabaseURL == "" && cfg.DBType == "postgres" {
		host := v.GetString("DB_HOST")
		name := v.GetString("DB_NAME")
		user := v.GetString("DB_USER")
		if host == "" || name == "" || user == "" {
			return nil, ErrMissingDatabase
		}
		cfg.DatabaseURL = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=%s",
			user, v.GetString("DB_PASSWORD"), host, v.GetString("DB_PORT"), name, v.GetString("DB_SSLMODE"),
		)
	}

	for _, origin := range strings.Split(v.GetString("ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	return cfg, nil
}

// IsProduction reports whether gin should run in release mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr                 string
	DatabaseURL          string
	AdminJWTSecret       string
	AdminEmail           string
	AdminPasswordHash    string
	DataEncryptionKey    string
	Environment          string
	EmailFrom            string
	EmailEnabled         bool
	SMTPHost             string
	SMTPPort             int
	SMTPUser             string
	SMTPPassword         string
	SMTPUseTLS           bool
	RunMigrations        bool
	PolicyOverridesPath  string
	WatchPolicyOverrides bool
	AuditCronSpec        string
	CleanupCronSpec      string
	CleanupDryRun        bool
	StorageTimeout       time.Duration
	CascadeWorkers       int
	GracePeriodDays      int
	MetricsEnabled       bool
}

func Load() Config {
	return Config{
		Addr:                 getEnv("APP_ADDR", ":8080"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		AdminJWTSecret:       getEnv("ADMIN_JWT_SECRET", ""),
		AdminEmail:           getEnv("ADMIN_EMAIL", ""),
		AdminPasswordHash:    getEnv("ADMIN_PASSWORD_HASH", ""),
		DataEncryptionKey:    getEnv("DATA_ENCRYPTION_KEY", ""),
		Environment:          getEnv("APP_ENV", "development"),
		EmailFrom:            getEnv("EMAIL_FROM", "privacy@example.com"),
		EmailEnabled:         getEnvBool("EMAIL_ENABLED", false),
		SMTPHost:             getEnv("SMTP_HOST", ""),
		SMTPPort:             getEnvInt("SMTP_PORT", 587),
		SMTPUser:             getEnv("SMTP_USER", ""),
		SMTPPassword:         getEnv("SMTP_PASSWORD", ""),
		SMTPUseTLS:           getEnvBool("SMTP_USE_TLS", true),
		RunMigrations:        getEnvBool("RUN_MIGRATIONS", true),
		PolicyOverridesPath:  getEnv("POLICY_OVERRIDES_PATH", "config/retention-overrides.yaml"),
		WatchPolicyOverrides: getEnvBool("WATCH_POLICY_OVERRIDES", true),
		AuditCronSpec:        getEnv("AUDIT_CRON", "0 2 * * 0"),
		CleanupCronSpec:      getEnv("CLEANUP_CRON", "0 3 * * *"),
		CleanupDryRun:        getEnvBool("CLEANUP_DRY_RUN", true),
		StorageTimeout:       getEnvDuration("STORAGE_TIMEOUT", 10*time.Second),
		CascadeWorkers:       getEnvInt("CASCADE_WORKERS", 8),
		GracePeriodDays:      getEnvInt("GRACE_PERIOD_DAYS", 30),
		MetricsEnabled:       getEnvBool("METRICS_ENABLED", true),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
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

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.AdminJWTSecret) == "" {
			return fmt.Errorf("ADMIN_JWT_SECRET must be set to a strong value in production")
		}
		if strings.TrimSpace(c.AdminPasswordHash) == "" {
			return fmt.Errorf("ADMIN_PASSWORD_HASH must be set in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for archive encryption")
		}
	}
	if c.StorageTimeout <= 0 {
		return fmt.Errorf("STORAGE_TIMEOUT must be positive")
	}
	if c.CascadeWorkers <= 0 {
		return fmt.Errorf("CASCADE_WORKERS must be positive")
	}
	if c.GracePeriodDays < 0 {
		return fmt.Errorf("GRACE_PERIOD_DAYS must not be negative")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	return nil
}

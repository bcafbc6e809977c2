// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	// HTTP server
	Port       string
	ListenHost string

	// Storage
	DBPath string

	// Ledger
	UndoWindow time.Duration

	// Logging
	LogLevel string

	// Accounts
	LoginRatePerMinute int
	BcryptCost         int
	AdminName          string
	AdminEmail         string
	AdminPassword      string
}

// LoadEnvFile loads a .env file into the environment if one exists.
// Variables that are already set win.
func LoadEnvFile(paths ...string) {
	_ = godotenv.Load(paths...)
}

// Load reads the configuration from the environment, using defaults for
// anything unset.
func Load() *Config {
	return &Config{
		Port:       getEnv("PORT", "8080"),
		ListenHost: getEnv("LISTEN_HOST", "127.0.0.1"),

		DBPath: getEnv("DB_PATH", "finance.db"),

		UndoWindow: getEnvDuration("UNDO_WINDOW", 4*time.Second),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		LoginRatePerMinute: getEnvInt("LOGIN_RATE_PER_MINUTE", 10),
		BcryptCost:         getEnvInt("BCRYPT_COST", bcrypt.DefaultCost),
		AdminName:          getEnv("ADMIN_NAME", "Admin"),
		AdminEmail:         os.Getenv("ADMIN_EMAIL"),
		AdminPassword:      os.Getenv("ADMIN_PASSWORD"),
	}
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.ListenHost, c.Port)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, "database path cannot be empty")
	}

	if c.UndoWindow <= 0 {
		errs = append(errs, fmt.Sprintf("invalid undo window %v: must be positive", c.UndoWindow))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if c.LoginRatePerMinute < 1 {
		errs = append(errs, fmt.Sprintf("invalid login rate %d: must be at least 1", c.LoginRatePerMinute))
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Sprintf("invalid bcrypt cost %d: must be between %d and %d", c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost))
	}

	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		errs = append(errs, "ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

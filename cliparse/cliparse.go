// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultPort = 3318

	// MaxBulkLimit is the hard cap on polls per bulk moderation request;
	// BULK_LIMIT may only lower it.
	MaxBulkLimit     = 50
	DefaultBulkLimit = MaxBulkLimit
)

type Config struct {
	Port             int
	DatabaseURL      string
	DatabaseType     string
	AdminKeySalt     string
	PollSlugSalt     string
	ModeratorKeySalt string
	UserKeySalt      string
	TrustProxy       bool
	RedisURL         string
	LogLevel         string
	BulkLimit        int
}

// LoadEnvFile reads KEY=VALUE pairs from path into the environment.
// Variables that are already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ParseFlags validates flags and fills the rest from the environment
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("logo-vote", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.RedisURL, "redis", "", "Redis URL for idempotency records (optional)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AdminKeySalt, "admin-salt", "", "Admin key salt (prefer env)")
	fs.StringVar(&cfg.PollSlugSalt, "slug-salt", "", "Poll slug salt (prefer env)")
	fs.StringVar(&cfg.ModeratorKeySalt, "moderator-salt", "", "Moderator key salt (prefer env)")
	fs.StringVar(&cfg.UserKeySalt, "user-salt", "", "User key salt (prefer env)")
	fs.BoolVar(&cfg.TrustProxy, "trust-proxy", false, "Read client IPs from X-Forwarded-For/X-Real-IP")

	fs.StringVar(&cfg.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.IntVar(&cfg.BulkLimit, "bulk-limit", 0, "Maximum polls per bulk moderation request")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		port, err := envInt("PORT", DefaultPort)
		if err != nil {
			return Config{}, err
		}
		cfg.Port = port
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}

	trustProxySet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "trust-proxy" {
			trustProxySet = true
		}
	})
	if !trustProxySet {
		if v := os.Getenv("TRUST_PROXY"); v != "" {
			trust, err := strconv.ParseBool(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid TRUST_PROXY env variable")
			}
			cfg.TrustProxy = trust
		}
	}

	if cfg.RedisURL == "" {
		cfg.RedisURL = os.Getenv("REDIS_URL")
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = os.Getenv("LOG_LEVEL")
		if cfg.LogLevel == "" {
			cfg.LogLevel = "info"
		}
	}
	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}

	if cfg.BulkLimit == 0 {
		limit, err := envInt("BULK_LIMIT", DefaultBulkLimit)
		if err != nil {
			return Config{}, err
		}
		cfg.BulkLimit = limit
	}
	if cfg.BulkLimit < 1 || cfg.BulkLimit > MaxBulkLimit {
		return Config{}, fmt.Errorf("bulk limit must be between 1 and %d", MaxBulkLimit)
	}

	// Secrets - MUST be provided
	if cfg.AdminKeySalt == "" {
		cfg.AdminKeySalt = os.Getenv("ADMIN_KEY_SALT")
	}
	if cfg.AdminKeySalt == "" {
		return Config{}, errors.New("ADMIN_KEY_SALT required")
	}

	if cfg.PollSlugSalt == "" {
		cfg.PollSlugSalt = os.Getenv("POLL_SLUG_SALT")
	}
	if cfg.PollSlugSalt == "" {
		return Config{}, errors.New("POLL_SLUG_SALT required")
	}

	if cfg.ModeratorKeySalt == "" {
		cfg.ModeratorKeySalt = os.Getenv("MODERATOR_KEY_SALT")
	}
	if cfg.ModeratorKeySalt == "" {
		return Config{}, errors.New("MODERATOR_KEY_SALT required")
	}

	if cfg.UserKeySalt == "" {
		cfg.UserKeySalt = os.Getenv("USER_KEY_SALT")
	}
	if cfg.UserKeySalt == "" {
		return Config{}, errors.New("USER_KEY_SALT required")
	}

	return cfg, nil
}

// ParseLogLevel maps a LOG_LEVEL value to a slog level
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", key)
	}
	return n, nil
}

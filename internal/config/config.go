// Copyright 2026 The OpenTrusty Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Observability ObservabilityConfig
	Security      SecurityConfig
	OAuth2        OAuth2Config
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds database configuration. The server only consults it
// when OAuth2Config.Store is "postgres"; the "memory" store needs no
// connection. cmd/migrate, cmd/clean-db and cmd/cleanup always use it.
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ObservabilityConfig holds logging and tracing configuration.
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string
	OTELEnabled    bool
	ServiceName    string
	ServiceVersion string
}

// SecurityConfig holds Argon2id parameters for client secret and resource
// owner password hashing. The reference Models do not read it; they hash
// with security.DefaultHasher().
type SecurityConfig struct {
	Argon2Memory      uint32
	Argon2Iterations  uint32
	Argon2Parallelism uint8
	Argon2SaltLength  uint32
	Argon2KeyLength   uint32
}

// OAuth2Config holds the protocol engine's default lifetimes and the choice
// of reference Model implementation.
type OAuth2Config struct {
	// Store selects the reference Model: "memory" or "postgres".
	Store string

	AccessTokenLifetime        time.Duration
	RefreshTokenLifetime       time.Duration
	AuthorizationCodeLifetime  time.Duration
	AllowEmptyState            bool
	AlwaysIssueNewRefreshToken bool

	// SeedDemoClient, when set, registers a demo client/user pair on
	// startup (OAUTH2_SEED_CLIENT_ID / OAUTH2_SEED_CLIENT_SECRET /
	// OAUTH2_SEED_USERNAME / OAUTH2_SEED_PASSWORD). Intended for local
	// development and end-to-end testing against the memory store, which
	// otherwise starts with no registered clients or users.
	SeedDemoClient   bool
	SeedClientID     string
	SeedClientSecret string
	SeedUsername     string
	SeedPassword     string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  parseDuration("SERVER_READ_TIMEOUT", "15s"),
			WriteTimeout: parseDuration("SERVER_WRITE_TIMEOUT", "15s"),
			IdleTimeout:  parseDuration("SERVER_IDLE_TIMEOUT", "60s"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "authcore"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "authcore"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    parseInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    parseInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: parseDuration("DB_CONN_MAX_LIFETIME", "5m"),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			OTELEnabled:    parseBool("OTEL_ENABLED", false),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "authcore"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "0.1.0"),
		},
		Security: SecurityConfig{
			Argon2Memory:      uint32(parseInt("ARGON2_MEMORY", 19*1024)),
			Argon2Iterations:  uint32(parseInt("ARGON2_ITERATIONS", 2)),
			Argon2Parallelism: uint8(parseInt("ARGON2_PARALLELISM", 1)),
			Argon2SaltLength:  uint32(parseInt("ARGON2_SALT_LENGTH", 16)),
			Argon2KeyLength:   uint32(parseInt("ARGON2_KEY_LENGTH", 32)),
		},
		OAuth2: OAuth2Config{
			Store:                      getEnv("OAUTH2_STORE", "memory"),
			AccessTokenLifetime:        parseDuration("OAUTH2_ACCESS_TOKEN_LIFETIME", "1h"),
			RefreshTokenLifetime:       parseDuration("OAUTH2_REFRESH_TOKEN_LIFETIME", "336h"),
			AuthorizationCodeLifetime:  parseDuration("OAUTH2_AUTHORIZATION_CODE_LIFETIME", "5m"),
			AllowEmptyState:            parseBool("OAUTH2_ALLOW_EMPTY_STATE", false),
			AlwaysIssueNewRefreshToken: parseBool("OAUTH2_ALWAYS_ISSUE_NEW_REFRESH_TOKEN", true),
			SeedDemoClient:             parseBool("OAUTH2_SEED_DEMO_CLIENT", false),
			SeedClientID:               getEnv("OAUTH2_SEED_CLIENT_ID", "demo-client"),
			SeedClientSecret:           getEnv("OAUTH2_SEED_CLIENT_SECRET", "demo-secret"),
			SeedUsername:               getEnv("OAUTH2_SEED_USERNAME", "demo-user"),
			SeedPassword:               getEnv("OAUTH2_SEED_PASSWORD", "demo-password"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.OAuth2.Store != "memory" && c.OAuth2.Store != "postgres" {
		return fmt.Errorf("OAUTH2_STORE must be \"memory\" or \"postgres\", got %q", c.OAuth2.Store)
	}
	if c.OAuth2.Store == "postgres" && c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required when OAUTH2_STORE=postgres")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func parseBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func parseDuration(key string, defaultValue string) time.Duration {
	value := getEnv(key, defaultValue)
	d, err := time.ParseDuration(value)
	if err != nil {
		d, _ = time.ParseDuration(defaultValue)
	}
	return d
}

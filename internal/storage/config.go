// Manages server configuration stored in config.json.

package storage

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ServerConfig stores all server-wide configuration.
// Loaded from config.json in the data directory, created with defaults if
// missing.
type ServerConfig struct {
	// JWTSecret is the secret used to sign access tokens.
	// Auto-generated if empty on first load.
	JWTSecret []byte `json:"jwt_secret"`

	// TokenTTLHours is how long issued access tokens stay valid.
	TokenTTLHours int `json:"token_ttl_hours"`

	// RateLimits defines rate limiting configuration.
	RateLimits RateLimits `json:"rate_limits"`
}

// RateLimits defines rate limiting configuration (requests per minute).
type RateLimits struct {
	// AuthRatePerMin limits authentication attempts (signup, login) per IP.
	// 0 means unlimited.
	AuthRatePerMin int `json:"auth_rate_per_min"`
}

// Validate checks that rate limit values are non-negative.
func (r *RateLimits) Validate() error {
	if r.AuthRatePerMin < 0 {
		return errors.New("auth_rate_per_min must be non-negative")
	}
	return nil
}

// DefaultRateLimits returns the default rate limits.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		AuthRatePerMin: 10,
	}
}

// TokenTTL returns the configured token lifetime.
func (c *ServerConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

// Validate checks the configuration for obvious mistakes.
func (c *ServerConfig) Validate() error {
	if len(c.JWTSecret) == 0 {
		return errors.New("jwt_secret must not be empty")
	}
	if c.TokenTTLHours <= 0 {
		return errors.New("token_ttl_hours must be positive")
	}
	return c.RateLimits.Validate()
}

// LoadServerConfig reads config.json from dataDir, creating it with
// defaults (and a freshly generated JWT secret) when absent.
func LoadServerConfig(dataDir string) (*ServerConfig, error) {
	path := filepath.Join(dataDir, "config.json")
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is constructed from the data-dir flag, not user input
	if os.IsNotExist(err) {
		cfg := &ServerConfig{
			TokenTTLHours: 24,
			RateLimits:    DefaultRateLimits(),
		}
		cfg.JWTSecret = make([]byte, 32)
		if _, err := rand.Read(cfg.JWTSecret); err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		out, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, out, 0o600); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg := &ServerConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if cfg.TokenTTLHours == 0 {
		cfg.TokenTTLHours = 24
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return cfg, nil
}

// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package config resolves greenboot configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/hashicorp/go-envparse"
	"go.uber.org/zap"
)

const (
	// DefaultPath is the greenboot configuration file.
	DefaultPath = "/etc/greenboot/greenboot.conf"

	// MaxBootAttemptsKey is the configuration/environment key for the
	// attempt budget.
	MaxBootAttemptsKey = "GREENBOOT_MAX_BOOT_ATTEMPTS"

	// DefaultMaxBootAttempts is used when no other source provides a value.
	DefaultMaxBootAttempts = 3
)

// ConfigError describes an invalid max boot attempts value.
type ConfigError struct {
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid max boot attempts %q: %s", e.Value, e.Reason)
}

// Config holds greenboot settings.
type Config struct {
	MaxBootAttempts int
}

// Load reads the configuration file at the given path.
//
// A missing file, a missing key, or a malformed value falls back to the
// default attempt budget; only an unreadable file is an error.
func Load(path string, logger *zap.Logger) (*Config, error) {
	cfg := &Config{MaxBootAttempts: DefaultMaxBootAttempts}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}

		return nil, fmt.Errorf("opening configuration %s: %w", path, err)
	}

	defer f.Close() //nolint:errcheck

	vars, err := envparse.Parse(f)
	if err != nil {
		logger.Warn("cannot parse configuration, using defaults", zap.String("path", path), zap.Error(err))

		return cfg, nil
	}

	raw, ok := vars[MaxBootAttemptsKey]
	if !ok {
		return cfg, nil
	}

	attempts, err := strconv.Atoi(raw)
	if err != nil || attempts <= 0 {
		logger.Warn("ignoring invalid attempt budget, using default",
			zap.String("key", MaxBootAttemptsKey), zap.String("value", raw))

		return cfg, nil
	}

	cfg.MaxBootAttempts = attempts

	return cfg, nil
}

// ResolveMaxAttempts resolves the attempt budget: the explicit argument
// wins, then the process environment value, then the configuration file,
// then the default.
func (c *Config) ResolveMaxAttempts(arg, env string) (int, error) {
	switch {
	case arg != "":
		return parsePositive(arg)
	case env != "":
		return parsePositive(env)
	case c.MaxBootAttempts <= 0:
		return 0, &ConfigError{Value: strconv.Itoa(c.MaxBootAttempts), Reason: "must be positive"}
	default:
		return c.MaxBootAttempts, nil
	}
}

func parsePositive(value string) (int, error) {
	attempts, err := strconv.Atoi(value)
	if err != nil {
		return 0, &ConfigError{Value: value, Reason: "not an integer"}
	}

	if attempts <= 0 {
		return 0, &ConfigError{Value: value, Reason: "must be positive"}
	}

	return attempts, nil
}

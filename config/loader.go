// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// LoaderOptions configures the configuration loader
type LoaderOptions struct {
	// ConfigDir is the directory containing config files (default: ./config)
	ConfigDir string
	// Environment overrides automatic environment detection
	Environment string
	// SkipEnvSubstitution disables environment variable substitution
	SkipEnvSubstitution bool
	// SkipValidation disables configuration validation
	SkipValidation bool
}

// DefaultLoaderOptions returns default loader options
func DefaultLoaderOptions() LoaderOptions {
	return LoaderOptions{
		ConfigDir:           "config",
		Environment:         "",
		SkipEnvSubstitution: false,
		SkipValidation:      false,
	}
}

// Load loads configuration with automatic environment detection
func Load(opts ...LoaderOptions) (*Config, error) {
	options := DefaultLoaderOptions()
	if len(opts) > 0 {
		options = opts[0]
	}

	// Determine environment
	env := options.Environment
	if env == "" {
		env = GetEnvironment()
	}

	// Try to load environment-specific config file
	envConfigPath := filepath.Join(options.ConfigDir, fmt.Sprintf("%s.yaml", env))
	cfg, err := loadConfigFile(envConfigPath)
	if err != nil {
		// Fall back to default config file
		defaultConfigPath := filepath.Join(options.ConfigDir, "default.yaml")
		cfg, err = loadConfigFile(defaultConfigPath)
		if err != nil {
			// Fall back to config.yaml
			configPath := filepath.Join(options.ConfigDir, "config.yaml")
			cfg, err = loadConfigFile(configPath)
			if err != nil {
				// Return empty config with defaults
				cfg = &Config{}
			}
		}
	}

	// Set environment
	if cfg.Environment == "" {
		cfg.Environment = env
	}

	// Apply defaults
	setDefaults(cfg)

	// Substitute environment variables
	if !options.SkipEnvSubstitution {
		SubstituteEnvVarsInConfig(cfg)
	}

	// Override with environment variables (highest priority)
	applyEnvironmentOverrides(cfg)

	// Validate configuration
	if !options.SkipValidation {
		if errs := ValidateConfiguration(cfg); len(errs) > 0 {
			for _, e := range errs {
				if e.Level == "error" {
					return nil, fmt.Errorf("configuration validation failed: %s - %s", e.Field, e.Message)
				}
			}
		}
	}

	return cfg, nil
}

// loadConfigFile loads a single config file
func loadConfigFile(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	return LoadFromFile(path)
}

// applyEnvironmentOverrides overrides config with environment
// variables, for deployment knobs an operator sets without touching
// a checked-in YAML file. These take priority over file contents.
func applyEnvironmentOverrides(cfg *Config) {
	if dsn := os.Getenv("P2PSPACE_STORAGE_DSN"); dsn != "" {
		cfg.Storage.DSN = dsn
	}
	if backend := os.Getenv("P2PSPACE_STORAGE_BACKEND"); backend != "" {
		cfg.Storage.Backend = backend
	}

	if logLevel := os.Getenv("P2PSPACE_LOG_LEVEL"); logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if os.Getenv("P2PSPACE_METRICS_ENABLED") == "true" {
		cfg.Metrics.Enabled = true
	}
	if os.Getenv("P2PSPACE_METRICS_ENABLED") == "false" {
		cfg.Metrics.Enabled = false
	}
	if addr := os.Getenv("P2PSPACE_METRICS_ADDR"); addr != "" {
		cfg.Metrics.Addr = addr
	}
}

// LoadForEnvironment loads configuration for a specific environment
func LoadForEnvironment(environment string) (*Config, error) {
	return Load(LoaderOptions{
		ConfigDir:   "config",
		Environment: environment,
	})
}

// MustLoad loads configuration or panics on error
func MustLoad(opts ...LoaderOptions) *Config {
	cfg, err := Load(opts...)
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}
	return cfg
}

// ValidationError is a single configuration problem surfaced by
// ValidateConfiguration; Level "error" fails Load, Level "warning"
// is informational only.
type ValidationError struct {
	Field   string
	Message string
	Level   string // "error" or "warning"
}

// ValidateConfiguration checks cfg for internally-inconsistent or
// out-of-range local policy before a node starts accepting events.
func ValidateConfiguration(cfg *Config) []ValidationError {
	var errs []ValidationError

	if cfg.Limits.MaxMessageText <= 0 {
		errs = append(errs, ValidationError{Field: "limits.max_message_text", Message: "must be positive", Level: "error"})
	}
	if cfg.Limits.MaxWireBytes <= 0 {
		errs = append(errs, ValidationError{Field: "limits.max_wire_bytes", Message: "must be positive", Level: "error"})
	}
	if cfg.Limits.MaxPrev <= 0 {
		errs = append(errs, ValidationError{Field: "limits.max_prev", Message: "must be positive", Level: "error"})
	}
	if cfg.RateLimit.MessagesRefillPerSec <= 0 {
		errs = append(errs, ValidationError{Field: "rate_limit.messages_refill_per_sec", Message: "must be positive", Level: "error"})
	}
	if cfg.RateLimit.VerificationsRefillPerSec <= 0 {
		errs = append(errs, ValidationError{Field: "rate_limit.verifications_refill_per_sec", Message: "must be positive", Level: "error"})
	}
	if cfg.Invite.DefaultPoWBits < 0 || cfg.Invite.DefaultPoWBits > 256 {
		errs = append(errs, ValidationError{Field: "invite.default_pow_bits", Message: "must be between 0 and 256", Level: "error"})
	}
	switch cfg.Storage.Backend {
	case "memory":
	case "postgres":
		if cfg.Storage.DSN == "" {
			errs = append(errs, ValidationError{Field: "storage.dsn", Message: "required when storage.backend is postgres", Level: "error"})
		}
	default:
		errs = append(errs, ValidationError{Field: "storage.backend", Message: fmt.Sprintf("unknown backend %q", cfg.Storage.Backend), Level: "warning"})
	}

	return errs
}

// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package config binds together the protocol's local-policy numbers
// (field caps, sync frame bounds, rate-limit buckets, default PoW
// difficulty) plus the ambient logging/metrics/storage knobs an
// embedder tunes per deployment, loaded from YAML with environment
// overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/p2pspace/core/accept"
	"github.com/p2pspace/core/syncproto"
)

// Config is the root configuration document for a node embedding this
// core: one Space's worth of local policy plus the ambient stack.
type Config struct {
	Environment string          `yaml:"environment" json:"environment"`
	Limits      LimitsConfig    `yaml:"limits" json:"limits"`
	RateLimit   RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Invite      InviteConfig    `yaml:"invite" json:"invite"`
	Logging     LoggingConfig   `yaml:"logging" json:"logging"`
	Metrics     MetricsConfig   `yaml:"metrics" json:"metrics"`
	Storage     StorageConfig   `yaml:"storage" json:"storage"`
}

// LimitsConfig mirrors accept.Limits so it can be loaded from a file
// instead of hardcoded; a zero value in the file falls back to the
// protocol default for that field (see setDefaults).
type LimitsConfig struct {
	MaxIDLen       int `yaml:"max_id_len" json:"max_id_len"`
	MaxPubKeyLen   int `yaml:"max_pubkey_len" json:"max_pubkey_len"`
	MaxSigLen      int `yaml:"max_sig_len" json:"max_sig_len"`
	MaxPrev        int `yaml:"max_prev" json:"max_prev"`
	MaxScopes      int `yaml:"max_scopes" json:"max_scopes"`
	MaxMessageText int `yaml:"max_message_text" json:"max_message_text"`
	MaxWireBytes   int `yaml:"max_wire_bytes" json:"max_wire_bytes"`
}

// RateLimitConfig mirrors the sync session's two token buckets.
type RateLimitConfig struct {
	MessagesBurst             int     `yaml:"messages_burst" json:"messages_burst"`
	MessagesRefillPerSec      float64 `yaml:"messages_refill_per_sec" json:"messages_refill_per_sec"`
	VerificationsBurst        int     `yaml:"verifications_burst" json:"verifications_burst"`
	VerificationsRefillPerSec float64 `yaml:"verifications_refill_per_sec" json:"verifications_refill_per_sec"`
}

// InviteConfig holds defaults an issuer CLI/service applies when the
// caller doesn't spell them out explicitly.
type InviteConfig struct {
	DefaultTTL          time.Duration `yaml:"default_ttl" json:"default_ttl"`
	DefaultPoWBits      int           `yaml:"default_pow_bits" json:"default_pow_bits"`
	RequirePoWByDefault bool          `yaml:"require_pow_by_default" json:"require_pow_by_default"`
}

// LoggingConfig controls the internal/logger.StructuredLogger an
// embedder wires at process startup.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Pretty bool   `yaml:"pretty" json:"pretty"`
}

// MetricsConfig controls whether and where internal/metrics exposes a
// Prometheus scrape endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
}

// StorageConfig selects and parameterizes the store.RoomLog backend a
// node uses; "memory" needs nothing further, "postgres" reads DSN.
type StorageConfig struct {
	Backend string `yaml:"backend" json:"backend"`
	DSN     string `yaml:"dsn" json:"dsn"`
}

// LoadFromFile loads a Config from path, trying YAML then JSON, and
// fills in protocol defaults for zero values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file (tried YAML and JSON): %w", err)
		}
	}

	setDefaults(cfg)
	return cfg, nil
}

// SaveToFile writes cfg to path, choosing JSON for a ".json"
// extension and YAML otherwise.
func SaveToFile(cfg *Config, path string) error {
	var data []byte
	var err error

	if len(path) >= 5 && path[len(path)-5:] == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setDefaults fills zero-valued fields with the protocol's baseline
// defaults, so a deployment can override just what it cares
// about.
func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	l := &cfg.Limits
	if l.MaxIDLen == 0 {
		l.MaxIDLen = 256
	}
	if l.MaxPubKeyLen == 0 {
		l.MaxPubKeyLen = 4096
	}
	if l.MaxSigLen == 0 {
		l.MaxSigLen = 2048
	}
	if l.MaxPrev == 0 {
		l.MaxPrev = 64
	}
	if l.MaxScopes == 0 {
		l.MaxScopes = 64
	}
	if l.MaxMessageText == 0 {
		l.MaxMessageText = 2000
	}
	if l.MaxWireBytes == 0 {
		l.MaxWireBytes = 256 * 1024
	}

	r := &cfg.RateLimit
	if r.MessagesBurst == 0 {
		r.MessagesBurst = 60
	}
	if r.MessagesRefillPerSec == 0 {
		r.MessagesRefillPerSec = 20
	}
	if r.VerificationsBurst == 0 {
		r.VerificationsBurst = 80
	}
	if r.VerificationsRefillPerSec == 0 {
		r.VerificationsRefillPerSec = 20
	}

	if cfg.Invite.DefaultTTL == 0 {
		cfg.Invite.DefaultTTL = 7 * 24 * time.Hour
	}
	if cfg.Invite.DefaultPoWBits == 0 {
		cfg.Invite.DefaultPoWBits = 16
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9090"
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "memory"
	}
}

// ToLimits converts LimitsConfig into accept.Limits, so the loaded
// config can be handed directly to the acceptance pipeline.
func (c LimitsConfig) ToLimits() accept.Limits {
	return accept.Limits{
		MaxIDLen:       c.MaxIDLen,
		MaxPubKeyLen:   c.MaxPubKeyLen,
		MaxSigLen:      c.MaxSigLen,
		MaxPrev:        c.MaxPrev,
		MaxScopes:      c.MaxScopes,
		MaxMessageText: c.MaxMessageText,
		MaxWireBytes:   c.MaxWireBytes,
	}
}

// Apply copies this RateLimitConfig's bucket sizes into a
// syncproto.Config before it's passed to syncproto.NewSession.
func (c RateLimitConfig) Apply(cfg *syncproto.Config) {
	cfg.MessagesBurst = c.MessagesBurst
	cfg.MessagesRefillPerSec = c.MessagesRefillPerSec
	cfg.VerificationsBurst = c.VerificationsBurst
	cfg.VerificationsRefillPerSec = c.VerificationsRefillPerSec
}

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

package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/p2pspace/core/config"
	"github.com/p2pspace/core/internal/logger"
)

var (
	configPath string
	envFile    string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "spacectl",
	Short: "p2pspace CLI - identity, Space, invite, and event tooling",
	Long: `spacectl is the reference command-line tool for p2pspace: a
serverless, invite-only group-messaging protocol core.

This tool supports:
- Generating and inspecting Principal/Device identities
- Founding a Space and issuing Invite Issuer Certificates
- Issuing and decoding Invites, including proof-of-work gating
- Posting and inspecting signed events against a local room log
- Running the gossip sync protocol over a WebSocket transport`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile != "" {
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("load env file %s: %w", envFile, err)
			}
		} else if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load .env: %w", err)
		}

		var loaded *config.Config
		var err error
		if configPath != "" {
			loaded, err = config.LoadFromFile(configPath)
		} else {
			loaded, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		if level, ok := parseLevel(cfg.Logging.Level); ok {
			logger.GetDefaultLogger().SetLevel(level)
		}
		logger.GetDefaultLogger().SetPrettyPrint(cfg.Logging.Pretty)
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a config.yaml/json file (optional)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "path to a .env file to load before config (optional; defaults to ./.env if present)")
}

func parseLevel(s string) (logger.Level, bool) {
	switch s {
	case "debug":
		return logger.DebugLevel, true
	case "info":
		return logger.InfoLevel, true
	case "warn":
		return logger.WarnLevel, true
	case "error":
		return logger.ErrorLevel, true
	default:
		return 0, false
	}
}

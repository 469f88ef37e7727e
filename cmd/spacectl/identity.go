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

	"github.com/spf13/cobra"
)

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Manage Principal/Device identities",
	Long: `Create and inspect p2pspace identities: a Principal keypair plus
one Device keypair, with ids derived as "ed25519:" + base64url(sha256(SPKI)).

SUBCOMMANDS:
  create   Generate a new identity and write it to a file
  show     Print an identity's ids and cached delegations

EXAMPLES:
  spacectl identity create --out alice.identity.json
  spacectl identity show --identity alice.identity.json`,
}

var identityCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Generate a new Principal/Device identity",
	Long: `Generate a fresh Principal keypair and Device keypair and write the
seeds, derived ids, and an empty delegation cache to --out.

EXAMPLES:
  spacectl identity create --out alice.identity.json`,
	RunE: runIdentityCreate,
}

var identityShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print an identity's ids and cached delegations",
	Long: `Load an identity file and print its principal_id, device_id, and
any delegations cached for specific Spaces.

EXAMPLES:
  spacectl identity show --identity alice.identity.json`,
	RunE: runIdentityShow,
}

var identityOut string

func init() {
	rootCmd.AddCommand(identityCmd)
	identityCmd.AddCommand(identityCreateCmd)
	identityCmd.AddCommand(identityShowCmd)

	identityCreateCmd.Flags().StringVar(&identityOut, "out", "", "path to write the new identity file")
	if err := identityCreateCmd.MarkFlagRequired("out"); err != nil {
		panic(fmt.Sprintf("failed to mark flag required: %v", err))
	}

	identityShowCmd.Flags().StringVar(&identityPath, "identity", "", "path to an identity file")
	if err := identityShowCmd.MarkFlagRequired("identity"); err != nil {
		panic(fmt.Sprintf("failed to mark flag required: %v", err))
	}
}

// identityPath is shared by every subcommand across files that takes
// a --identity flag.
var identityPath string

func runIdentityCreate(cmd *cobra.Command, args []string) error {
	id, err := createIdentityFile(identityOut)
	if err != nil {
		return fmt.Errorf("create identity: %w", err)
	}
	fmt.Println("Identity created.")
	fmt.Printf("  principal_id: %s\n", id.PrincipalID)
	fmt.Printf("  device_id:    %s\n", id.DeviceID)
	fmt.Printf("  written to:   %s\n", identityOut)
	return nil
}

func runIdentityShow(cmd *cobra.Command, args []string) error {
	id, f, err := loadIdentity(identityPath)
	if err != nil {
		return err
	}
	fmt.Printf("principal_id: %s\n", id.PrincipalID)
	fmt.Printf("device_id:    %s\n", id.DeviceID)
	if len(f.Delegations) == 0 {
		fmt.Println("delegations:  none cached")
		return nil
	}
	fmt.Println("delegations:")
	for spaceID, cert := range f.Delegations {
		fmt.Printf("  %s: scopes=%v not_before=%d expires=%d\n", spaceID, cert.Scopes, cert.NotBeforeTs, cert.ExpiresTs)
	}
	return nil
}

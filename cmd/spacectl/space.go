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
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/p2pspace/core/cryptox"
	"github.com/p2pspace/core/identity"
	"github.com/p2pspace/core/invite"
)

var spaceCmd = &cobra.Command{
	Use:   "space",
	Short: "Found a Space and authorize invite issuers",
	Long: `Sign a Space's founding SpaceGenesis record and, optionally, an
Invite Issuer Certificate authorizing another Principal to issue
Invites on the Space's behalf.

SUBCOMMANDS:
  genesis   Sign a new SpaceGenesis, rooted at an identity's Principal key
  iic       Sign an Invite Issuer Certificate for another principal

EXAMPLES:
  spacectl space genesis --identity alice.identity.json --name "My Space" --out space.json
  spacectl space iic --identity alice.identity.json --genesis space.json \
    --issuer-principal-id ed25519:... --issuer-principal-pub <base64> --out iic.json`,
}

var spaceGenesisCmd = &cobra.Command{
	Use:   "genesis",
	Short: "Sign a new SpaceGenesis",
	Long: `Sign a SpaceGenesis for a new Space, rooted at --identity's Principal
key. The resulting space_id is derived as
"ed25519:" + base64url(sha256(SPKI(principal_pub))).

EXAMPLES:
  spacectl space genesis --identity alice.identity.json --name "My Space" --out space.json`,
	RunE: runSpaceGenesis,
}

var spaceIICCmd = &cobra.Command{
	Use:   "iic",
	Short: "Sign an Invite Issuer Certificate",
	Long: `Sign an InviteIssuerCertificate authorizing issuer-principal-id to
issue Invites with a subset of scopes, for a validity window.
--identity must hold the Space Root key that signed --genesis.

EXAMPLES:
  spacectl space iic --identity alice.identity.json --genesis space.json \
    --issuer-principal-id ed25519:... --issuer-principal-pub <base64> \
    --scopes read,join --ttl 168h --out iic.json`,
	RunE: runSpaceIIC,
}

var (
	spaceName               string
	spaceOut                string
	spaceGenesisPath        string
	spaceIssuerPrincipalID  string
	spaceIssuerPrincipalPub string
	spaceScopes             string
	spaceTTL                time.Duration
)

func init() {
	rootCmd.AddCommand(spaceCmd)
	spaceCmd.AddCommand(spaceGenesisCmd)
	spaceCmd.AddCommand(spaceIICCmd)

	spaceGenesisCmd.Flags().StringVar(&identityPath, "identity", "", "path to the Space Root's identity file")
	spaceGenesisCmd.Flags().StringVar(&spaceName, "name", "", "human-readable Space name")
	spaceGenesisCmd.Flags().StringVar(&spaceOut, "out", "", "path to write the SpaceGenesis file")
	requireFlags(spaceGenesisCmd, "identity", "out")

	spaceIICCmd.Flags().StringVar(&identityPath, "identity", "", "path to the Space Root's identity file")
	spaceIICCmd.Flags().StringVar(&spaceGenesisPath, "genesis", "", "path to the Space's genesis file")
	spaceIICCmd.Flags().StringVar(&spaceIssuerPrincipalID, "issuer-principal-id", "", "the principal id being authorized to issue invites")
	spaceIICCmd.Flags().StringVar(&spaceIssuerPrincipalPub, "issuer-principal-pub", "", "that principal's base64-encoded public key")
	spaceIICCmd.Flags().StringVar(&spaceScopes, "scopes", "read", "comma-separated allowed_scopes")
	spaceIICCmd.Flags().DurationVar(&spaceTTL, "ttl", 7*24*time.Hour, "validity window from now")
	spaceIICCmd.Flags().StringVar(&spaceOut, "out", "", "path to write the IIC file")
	requireFlags(spaceIICCmd, "identity", "genesis", "issuer-principal-id", "issuer-principal-pub", "out")
}

func runSpaceGenesis(cmd *cobra.Command, args []string) error {
	id, _, err := loadIdentity(identityPath)
	if err != nil {
		return err
	}
	genesis := identity.SignSpaceGenesis(id.Principal, nowMs(), spaceName)
	if err := writeJSONFile(spaceOut, genesis); err != nil {
		return err
	}
	fmt.Printf("SpaceGenesis signed. space_id: %s\n", genesis.SpaceID)
	return nil
}

func runSpaceIIC(cmd *cobra.Command, args []string) error {
	id, _, err := loadIdentity(identityPath)
	if err != nil {
		return err
	}
	genesis, err := loadGenesis(spaceGenesisPath)
	if err != nil {
		return err
	}
	if err := genesis.Verify(); err != nil {
		return fmt.Errorf("genesis does not verify: %w", err)
	}
	if genesis.SpaceID != id.PrincipalID {
		return fmt.Errorf("identity %s is not the Space Root of %s", id.PrincipalID, genesis.SpaceID)
	}

	issuerPub, err := decodeB64PubKey(spaceIssuerPrincipalPub)
	if err != nil {
		return fmt.Errorf("decode issuer-principal-pub: %w", err)
	}

	now := nowMs()
	iic := invite.SignIIC(id.Principal, genesis.SpaceID, spaceIssuerPrincipalID, issuerPub,
		now, now+spaceTTL.Milliseconds(), expandScopes(genesis.SpaceID, splitCSV(spaceScopes)))
	if err := writeJSONFile(spaceOut, iic); err != nil {
		return err
	}
	fmt.Printf("IIC signed for %s, expires %s\n", spaceIssuerPrincipalID, time.UnixMilli(iic.ExpiresTs).Format(time.RFC3339))
	return nil
}

func decodeB64PubKey(s string) (cryptox.PublicKey, error) {
	raw, err := cryptox.DecodeBase64(s)
	if err != nil {
		return cryptox.PublicKey{}, err
	}
	return cryptox.PublicKeyFromBytes(raw)
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// expandScopes turns short action names ("read", "join") into full
// "space:<space_id>:<action>" scope strings. Already-qualified scopes
// pass through unchanged so files and flags can mix both forms.
func expandScopes(spaceID string, actions []string) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		if strings.HasPrefix(a, "space:") || strings.HasPrefix(a, "dm:") {
			out = append(out, a)
			continue
		}
		out = append(out, identity.SpaceScope(spaceID, a))
	}
	return out
}

func requireFlags(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark flag %q required: %v", name, err))
		}
	}
}

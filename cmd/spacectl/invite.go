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
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/p2pspace/core/invite"
)

var inviteCmd = &cobra.Command{
	Use:   "invite",
	Short: "Issue and decode Invites",
	Long: `Issue new Invites on behalf of a Space Root or an IIC-authorized
issuer, and decode/verify Invite files.

SUBCOMMANDS:
  issue    Sign a new Invite
  decode   Print an Invite's fields and, optionally, verify it

EXAMPLES:
  spacectl invite issue --identity alice.identity.json --genesis space.json --out invite.json
  spacectl invite decode --file invite.json --genesis space.json`,
}

var inviteIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Sign a new Invite",
	Long: `Sign a new Invite for --genesis's Space, on behalf of --identity.
When --iic is given, the issuer is authorized via that Invite Issuer
Certificate rather than being the Space Root itself.

EXAMPLES:
  spacectl invite issue --identity alice.identity.json --genesis space.json \
    --ttl 24h --scopes read,join --out invite.json

  spacectl invite issue --identity bob.identity.json --genesis space.json \
    --iic iic.json --pow-bits 16 --pow-ttl 10m --out invite.json`,
	RunE: runInviteIssue,
}

var inviteDecodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Print an Invite's fields, optionally verifying it",
	Long: `Decode an Invite from a file or an #invite= link and print its
fields. When --genesis is also given, the Invite's full verification
chain is run and the result is printed.

EXAMPLES:
  spacectl invite decode --file invite.json
  spacectl invite decode --link 'https://app.example/join#invite=...' --genesis space.json`,
	RunE: runInviteDecode,
}

var (
	inviteGenesisPath string
	inviteIICPath     string
	inviteScopes      string
	inviteTTL         time.Duration
	invitePoWBits     int
	invitePoWTTL      time.Duration
	inviteOut         string
	inviteLinkBase    string
	inviteFile        string
	inviteLink        string
)

func init() {
	rootCmd.AddCommand(inviteCmd)
	inviteCmd.AddCommand(inviteIssueCmd)
	inviteCmd.AddCommand(inviteDecodeCmd)

	inviteIssueCmd.Flags().StringVar(&identityPath, "identity", "", "path to the issuing identity file")
	inviteIssueCmd.Flags().StringVar(&inviteGenesisPath, "genesis", "", "path to the Space's genesis file")
	inviteIssueCmd.Flags().StringVar(&inviteIICPath, "iic", "", "path to an IIC file (omit to issue as the Space Root)")
	inviteIssueCmd.Flags().StringVar(&inviteScopes, "scopes", "read", "comma-separated scopes granted to the joiner")
	inviteIssueCmd.Flags().DurationVar(&inviteTTL, "ttl", 7*24*time.Hour, "invite validity window from now")
	inviteIssueCmd.Flags().IntVar(&invitePoWBits, "pow-bits", 0, "require this many leading zero bits of proof-of-work (0 disables)")
	inviteIssueCmd.Flags().DurationVar(&invitePoWTTL, "pow-ttl", time.Hour, "how long the proof-of-work requirement stays valid")
	inviteIssueCmd.Flags().StringVar(&inviteOut, "out", "", "path to write the Invite file")
	inviteIssueCmd.Flags().StringVar(&inviteLinkBase, "link-base", "", "also print a shareable #invite= link rooted at this URL")
	requireFlags(inviteIssueCmd, "identity", "genesis", "out")

	inviteDecodeCmd.Flags().StringVar(&inviteFile, "file", "", "path to an Invite file")
	inviteDecodeCmd.Flags().StringVar(&inviteLink, "link", "", "an #invite= URL or bare invite code, instead of --file")
	inviteDecodeCmd.Flags().StringVar(&inviteGenesisPath, "genesis", "", "path to the Space's genesis file (enables verification)")
}

func runInviteIssue(cmd *cobra.Command, args []string) error {
	issuer, _, err := loadIdentity(identityPath)
	if err != nil {
		return err
	}
	genesis, err := loadGenesis(inviteGenesisPath)
	if err != nil {
		return err
	}
	if err := genesis.Verify(); err != nil {
		return fmt.Errorf("genesis does not verify: %w", err)
	}

	now := nowMs()
	if _, err := issuer.EnsureDelegationForSpace(genesis.SpaceID, now); err != nil {
		return fmt.Errorf("ensure delegation: %w", err)
	}

	var iic *invite.InviteIssuerCertificate
	if inviteIICPath != "" {
		raw, err := os.ReadFile(inviteIICPath)
		if err != nil {
			return fmt.Errorf("read iic file: %w", err)
		}
		iic = &invite.InviteIssuerCertificate{}
		if err := json.Unmarshal(raw, iic); err != nil {
			return fmt.Errorf("decode iic file: %w", err)
		}
	}

	var constraints *invite.Constraints
	if invitePoWBits > 0 {
		constraints = &invite.Constraints{
			RequiresPoW: &invite.PoWRequirement{Bits: invitePoWBits, ExpiresTs: now + invitePoWTTL.Milliseconds()},
		}
	}

	inv, err := invite.IssueInvite(issuer, invite.IssueParams{
		SpaceID:      genesis.SpaceID,
		InviteIssuer: iic,
		Scopes:       expandScopes(genesis.SpaceID, splitCSV(inviteScopes)),
		Constraints:  constraints,
		IssuedTs:     now,
		ExpiresTs:    now + inviteTTL.Milliseconds(),
	})
	if err != nil {
		return fmt.Errorf("issue invite: %w", err)
	}
	if err := writeJSONFile(inviteOut, inv); err != nil {
		return err
	}
	spaceID := genesis.SpaceID
	if err := saveIdentity(identityPath, issuer, &spaceID); err != nil {
		return fmt.Errorf("save delegation: %w", err)
	}
	fmt.Printf("Invite issued. invite_id: %s, expires %s\n", inv.InviteID, time.UnixMilli(inv.ExpiresTs).Format(time.RFC3339))
	if inviteLinkBase != "" {
		link, err := invite.EncodeLink(inv, inviteLinkBase)
		if err != nil {
			return fmt.Errorf("encode invite link: %w", err)
		}
		fmt.Println(link)
	}
	return nil
}

func runInviteDecode(cmd *cobra.Command, args []string) error {
	var inv invite.Invite
	switch {
	case inviteLink != "":
		parsed, err := invite.ParseLink(inviteLink)
		if err != nil {
			return fmt.Errorf("decode invite link: %w", err)
		}
		inv = *parsed
	case inviteFile != "":
		raw, err := os.ReadFile(inviteFile)
		if err != nil {
			return fmt.Errorf("read invite file: %w", err)
		}
		if err := json.Unmarshal(raw, &inv); err != nil {
			return fmt.Errorf("decode invite file: %w", err)
		}
	default:
		return fmt.Errorf("one of --file or --link is required")
	}
	if err := printJSON(&inv); err != nil {
		return err
	}

	if inviteGenesisPath == "" {
		return nil
	}
	genesis, err := loadGenesis(inviteGenesisPath)
	if err != nil {
		return err
	}
	if err := invite.Verify(&inv, genesis, nowMs()); err != nil {
		fmt.Printf("\nverify: FAILED: %v\n", err)
		return nil
	}
	fmt.Println("\nverify: OK")
	return nil
}

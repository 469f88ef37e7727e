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

	"github.com/spf13/cobra"

	"github.com/p2pspace/core/cryptox"
	"github.com/p2pspace/core/event"
	"github.com/p2pspace/core/governance"
	"github.com/p2pspace/core/invite"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Post and inspect signed events against a local room log",
	Long: `Author new events against a local JSON-encoded room log, or
inspect one in its deterministic topological order.

SUBCOMMANDS:
  post   Sign and append a new event
  join   Consume an Invite: author MEMBER_JOIN in the governance room
  show   Print a room log's events in topological order

EXAMPLES:
  spacectl event post --identity alice.identity.json --genesis space.json \
    --room general --kind MSG_POST --body '{"text":"hello"}' --log general.events.json

  spacectl event join --identity bob.identity.json --genesis space.json \
    --invite invite.json --log governance.events.json

  spacectl event show --log general.events.json --room general`,
}

var eventPostCmd = &cobra.Command{
	Use:   "post",
	Short: "Sign and append a new event",
	Long: `Build, sign, and append a new event to --log, parented on the
log's current heads. --identity
must hold a delegation cached for the Space (ensured automatically).

EXAMPLES:
  spacectl event post --identity alice.identity.json --genesis space.json \
    --room general --kind MSG_POST --body '{"text":"hello"}' --log general.events.json`,
	RunE: runEventPost,
}

var eventJoinCmd = &cobra.Command{
	Use:   "join",
	Short: "Consume an Invite and author MEMBER_JOIN",
	Long: `Build, sign, and append a MEMBER_JOIN event to the governance room's
--log, embedding the Invite from --invite (a file) or --link (an
#invite= URL). When the Invite demands proof-of-work, a nonce is
mined first.

EXAMPLES:
  spacectl event join --identity bob.identity.json --genesis space.json \
    --invite invite.json --log governance.events.json`,
	RunE: runEventJoin,
}

var eventShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a room log's events in topological order",
	Long: `Load --log and print every stored event, ordered deterministically
by topological order with (ts, event_id) tie-break.

EXAMPLES:
  spacectl event show --log general.events.json --room general`,
	RunE: runEventShow,
}

var (
	eventGenesisPath string
	eventRoom        string
	eventKind        string
	eventBody        string
	eventLog         string
	eventInvitePath  string
	eventInviteLink  string
)

func init() {
	rootCmd.AddCommand(eventCmd)
	eventCmd.AddCommand(eventPostCmd)
	eventCmd.AddCommand(eventShowCmd)

	eventPostCmd.Flags().StringVar(&identityPath, "identity", "", "path to the authoring identity file")
	eventPostCmd.Flags().StringVar(&eventGenesisPath, "genesis", "", "path to the Space's genesis file")
	eventPostCmd.Flags().StringVar(&eventRoom, "room", "", "room id (\"governance\" for the governance room)")
	eventPostCmd.Flags().StringVar(&eventKind, "kind", string(event.KindMsgPost), "event kind, e.g. MSG_POST")
	eventPostCmd.Flags().StringVar(&eventBody, "body", "{}", "event body as a JSON object")
	eventPostCmd.Flags().StringVar(&eventLog, "log", "", "path to the room's local event log")
	requireFlags(eventPostCmd, "identity", "genesis", "room", "log")

	eventCmd.AddCommand(eventJoinCmd)
	eventJoinCmd.Flags().StringVar(&identityPath, "identity", "", "path to the joining identity file")
	eventJoinCmd.Flags().StringVar(&eventGenesisPath, "genesis", "", "path to the Space's genesis file")
	eventJoinCmd.Flags().StringVar(&eventInvitePath, "invite", "", "path to an Invite file")
	eventJoinCmd.Flags().StringVar(&eventInviteLink, "link", "", "an #invite= URL or bare invite code, instead of --invite")
	eventJoinCmd.Flags().StringVar(&eventLog, "log", "", "path to the governance room's local event log")
	requireFlags(eventJoinCmd, "identity", "genesis", "log")

	eventShowCmd.Flags().StringVar(&eventLog, "log", "", "path to the room's local event log")
	eventShowCmd.Flags().StringVar(&eventRoom, "room", "", "room id")
	requireFlags(eventShowCmd, "log", "room")
}

func runEventPost(cmd *cobra.Command, args []string) error {
	id, _, err := loadIdentity(identityPath)
	if err != nil {
		return err
	}
	genesis, err := loadGenesis(eventGenesisPath)
	if err != nil {
		return err
	}
	if _, err := id.EnsureDelegationForSpace(genesis.SpaceID, nowMs()); err != nil {
		return fmt.Errorf("ensure delegation: %w", err)
	}

	dag, err := loadDAG(eventLog, eventRoom)
	if err != nil {
		return err
	}

	var body interface{}
	if err := json.Unmarshal([]byte(eventBody), &body); err != nil {
		return fmt.Errorf("parse --body as JSON: %w", err)
	}

	prev := event.SelectParents(dag.Heads())
	e, err := event.Create(id, genesis.SpaceID, eventRoom, event.Kind(eventKind), prev, body, nowMs())
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	if err := dag.Add(e); err != nil {
		return fmt.Errorf("append to log: %w", err)
	}
	if err := saveDAG(eventLog, dag); err != nil {
		return err
	}
	spaceID := genesis.SpaceID
	if err := saveIdentity(identityPath, id, &spaceID); err != nil {
		return fmt.Errorf("save delegation: %w", err)
	}
	fmt.Printf("Event posted. event_id: %s\n", e.EventID)
	return nil
}

func runEventJoin(cmd *cobra.Command, args []string) error {
	id, _, err := loadIdentity(identityPath)
	if err != nil {
		return err
	}
	genesis, err := loadGenesis(eventGenesisPath)
	if err != nil {
		return err
	}

	var inv *invite.Invite
	switch {
	case eventInviteLink != "":
		if inv, err = invite.ParseLink(eventInviteLink); err != nil {
			return fmt.Errorf("decode invite link: %w", err)
		}
	case eventInvitePath != "":
		raw, err := os.ReadFile(eventInvitePath)
		if err != nil {
			return fmt.Errorf("read invite file: %w", err)
		}
		inv = &invite.Invite{}
		if err := json.Unmarshal(raw, inv); err != nil {
			return fmt.Errorf("decode invite file: %w", err)
		}
	default:
		return fmt.Errorf("one of --invite or --link is required")
	}

	now := nowMs()
	if err := invite.Verify(inv, genesis, now); err != nil {
		return fmt.Errorf("invite does not verify: %w", err)
	}
	if err := invite.CheckBoundPrincipal(inv, id.PrincipalID); err != nil {
		return err
	}

	body := governance.MemberJoinBody{
		PrincipalID:  id.PrincipalID,
		PrincipalPub: cryptox.Base64(id.Principal.PublicKey().Bytes()),
		Invite:       inv,
	}
	if c := inv.Constraints; c != nil && c.RequiresPoW != nil {
		fmt.Printf("Mining %d-bit proof-of-work...\n", c.RequiresPoW.Bits)
		nonce, ok := invite.SolvePoW(inv.InviteID, id.PrincipalID, c.RequiresPoW, 1<<28)
		if !ok {
			return fmt.Errorf("proof-of-work search exhausted without a solution")
		}
		body.PoWNonce = nonce
	}

	if _, err := id.EnsureDelegationForSpace(genesis.SpaceID, now); err != nil {
		return fmt.Errorf("ensure delegation: %w", err)
	}
	dag, err := loadDAG(eventLog, event.GovernanceRoomID)
	if err != nil {
		return err
	}
	prev := event.SelectParents(dag.Heads())
	e, err := event.Create(id, genesis.SpaceID, event.GovernanceRoomID, event.KindMemberJoin, prev, body, now)
	if err != nil {
		return fmt.Errorf("create member_join: %w", err)
	}
	if _, err := governance.CheckMemberJoin(e, genesis, now); err != nil {
		return fmt.Errorf("member_join would be rejected: %w", err)
	}
	if err := dag.Add(e); err != nil {
		return fmt.Errorf("append to log: %w", err)
	}
	if err := saveDAG(eventLog, dag); err != nil {
		return err
	}
	spaceID := genesis.SpaceID
	if err := saveIdentity(identityPath, id, &spaceID); err != nil {
		return fmt.Errorf("save delegation: %w", err)
	}
	fmt.Printf("Joined. event_id: %s\n", e.EventID)
	return nil
}

func runEventShow(cmd *cobra.Command, args []string) error {
	dag, err := loadDAG(eventLog, eventRoom)
	if err != nil {
		return err
	}
	return printJSON(dag.TopoSort())
}

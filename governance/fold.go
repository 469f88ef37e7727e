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

package governance

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/p2pspace/core/event"
	"github.com/p2pspace/core/identity"
	"github.com/p2pspace/core/invite"
)

var (
	// ErrBadJoinBody is returned when a MEMBER_JOIN event's body
	// doesn't decode into MemberJoinBody or fails its own-identity
	// checks.
	ErrBadJoinBody = errors.New("governance: malformed member_join body")
	// ErrJoinIdentityMismatch is returned when a MEMBER_JOIN's body
	// identity fields disagree with the authoring event.
	ErrJoinIdentityMismatch = errors.New("governance: member_join body identity mismatch")
)

// decodeBody round-trips e.Body (which may already be a typed Go
// value or, after wire decoding, a map[string]interface{}) through
// encoding/json into dst.
func decodeBody(body interface{}, dst interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// CheckMemberJoin verifies a MEMBER_JOIN event's own-identity
// consistency conditions (the body names the author itself and the
// delegation's principal key) plus the embedded Invite's full
// verification chain. It does not consult accumulated fold state: a
// MEMBER_JOIN's validity never depends on who else has joined.
func CheckMemberJoin(e *event.Event, genesis *identity.SpaceGenesis, nowMs int64) (*MemberJoinBody, error) {
	var body MemberJoinBody
	if err := decodeBody(e.Body, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadJoinBody, err)
	}
	if body.Invite == nil {
		return nil, fmt.Errorf("%w: missing invite", ErrBadJoinBody)
	}
	if body.PrincipalID != e.AuthorPrincipalID {
		return nil, fmt.Errorf("%w: principal_id", ErrJoinIdentityMismatch)
	}
	if e.Delegation == nil || body.PrincipalPub != e.Delegation.PrincipalPub {
		return nil, fmt.Errorf("%w: principal_pub", ErrJoinIdentityMismatch)
	}
	if body.Invite.SpaceID != e.SpaceID {
		return nil, fmt.Errorf("%w: invite.space_id", ErrJoinIdentityMismatch)
	}
	if err := invite.Verify(body.Invite, genesis, nowMs); err != nil {
		return nil, err
	}
	if err := invite.CheckBoundPrincipal(body.Invite, e.AuthorPrincipalID); err != nil {
		return nil, err
	}
	if c := body.Invite.Constraints; c != nil && c.RequiresPoW != nil {
		if err := invite.VerifyPoW(body.Invite.InviteID, e.AuthorPrincipalID, c.RequiresPoW, body.PoWNonce, nowMs); err != nil {
			return nil, err
		}
	}
	return &body, nil
}

// Apply folds a single event into s, mutating it in place. events
// must already be in the DAG's deterministic topological order and
// restricted to the governance room; Fold is the usual entry point.
func (s *State) Apply(e *event.Event, genesis *identity.SpaceGenesis) {
	switch e.Kind {
	case event.KindMemberJoin:
		if body, err := CheckMemberJoin(e, genesis, e.Ts); err == nil {
			s.Members[body.PrincipalID] = struct{}{}
		}
	case event.KindMemberBan:
		var body MemberBanBody
		if err := decodeBody(e.Body, &body); err == nil && body.PrincipalID != "" {
			s.Banned[body.PrincipalID] = struct{}{}
		}
	case event.KindMemberUnban:
		var body MemberBanBody
		if err := decodeBody(e.Body, &body); err == nil && body.PrincipalID != "" {
			delete(s.Banned, body.PrincipalID)
		}
	default:
		// Roles, policies, room definitions, device and invite
		// revocations: not folded in this baseline.
	}
}

// Fold replays events (already in topological order, governance
// room only) against a fresh State and returns the result.
func Fold(events []*event.Event, genesis *identity.SpaceGenesis) *State {
	s := NewState()
	for _, e := range events {
		s.Apply(e, genesis)
	}
	return s
}

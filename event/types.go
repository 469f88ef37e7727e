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

// Package event implements the signed, content-addressed Event and
// the per-Room DAG it forms with other Events.
package event

import (
	"errors"

	"github.com/p2pspace/core/identity"
)

var (
	ErrIdentityMismatch = errors.New("event: id does not match public key")
	ErrSignature        = errors.New("event: signature invalid")
	ErrEventID          = errors.New("event: event_id does not match signature input")
	ErrTooManyParents   = errors.New("event: too many parents")
)

// GovernanceRoomID is the well-known room carrying admin events.
const GovernanceRoomID = "governance"

// MaxParents bounds how many heads an author may reference in prev.
const MaxParents = 8

// Kind identifies an Event's payload shape and which scope/fold rule
// applies to it.
type Kind string

const (
	KindMsgPost        Kind = "MSG_POST"
	KindMsgEdit        Kind = "MSG_EDIT"
	KindMsgRedact      Kind = "MSG_REDACT"
	KindReactionAdd    Kind = "REACTION_ADD"
	KindReactionRemove Kind = "REACTION_REMOVE"
	KindPinAdd         Kind = "PIN_ADD"
	KindPinRemove      Kind = "PIN_REMOVE"

	KindSpacePolicySet Kind = "SPACE_POLICY_SET"
	KindRoleDefine     Kind = "ROLE_DEFINE"
	KindRoleGrant      Kind = "ROLE_GRANT"
	KindRoleRevoke     Kind = "ROLE_REVOKE"
	KindMemberBan      Kind = "MEMBER_BAN"
	KindMemberUnban    Kind = "MEMBER_UNBAN"
	KindInviteIssue    Kind = "INVITE_ISSUE"
	KindInviteRevoke   Kind = "INVITE_REVOKE"
	KindMemberJoin     Kind = "MEMBER_JOIN"
	KindRoomDefine     Kind = "ROOM_DEFINE"
	KindRoomArchive    Kind = "ROOM_ARCHIVE"
	KindDeviceRevoke   Kind = "DEVICE_REVOKE"
)

// RequiredScope derives the delegation scope an Event's kind needs:
// MEMBER_JOIN needs join, message/reaction/pin kinds need post, and
// the remaining governance kinds need governance.
func RequiredScope(spaceID string, kind Kind) string {
	switch kind {
	case KindMemberJoin:
		return identity.SpaceScope(spaceID, identity.ScopeJoin)
	case KindMsgPost, KindMsgEdit, KindMsgRedact,
		KindReactionAdd, KindReactionRemove, KindPinAdd, KindPinRemove:
		return identity.SpaceScope(spaceID, identity.ScopePost)
	case KindSpacePolicySet, KindRoleDefine, KindRoleGrant, KindRoleRevoke,
		KindMemberBan, KindMemberUnban, KindInviteIssue, KindInviteRevoke,
		KindRoomDefine, KindRoomArchive, KindDeviceRevoke:
		return identity.SpaceScope(spaceID, identity.ScopeGovernance)
	default:
		// Unknown kinds default to the post scope.
		return identity.SpaceScope(spaceID, identity.ScopePost)
	}
}

// Event is the immutable, signed, content-addressed unit of the
// per-Room DAG.
type Event struct {
	V                 int                      `json:"v"`
	SpaceID           string                   `json:"space_id"`
	RoomID            string                   `json:"room_id"`
	EventID           string                   `json:"event_id"`
	AuthorPrincipalID string                   `json:"author_principal_id"`
	AuthorDeviceID    string                   `json:"author_device_id"`
	AuthorDevicePub   string                   `json:"author_device_pub"`
	Delegation        *identity.DelegationCert `json:"delegation"`
	Ts                int64                    `json:"ts"`
	Kind              Kind                     `json:"kind"`
	Prev              []string                 `json:"prev"`
	Body              interface{}              `json:"body,omitempty"`
	Sig               string                   `json:"sig"`
}

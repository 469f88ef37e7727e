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

package accept

import (
	"errors"
	"time"

	"github.com/p2pspace/core/event"
	"github.com/p2pspace/core/governance"
	"github.com/p2pspace/core/identity"
	"github.com/p2pspace/core/internal/metrics"
	"github.com/p2pspace/core/invite"
)

// MembershipView answers the room-authorization question step 4
// needs for non-governance rooms. *governance.State implements it.
type MembershipView interface {
	IsMember(principalID string) bool
	IsBanned(principalID string) bool
}

// Accept runs the full acceptance pipeline against e and returns nil
// if e should be persisted, or a categorized *Error if it should be
// dropped. wireBytes is the size of e's serialized wire form, used
// for the total-message-size cap. members is the governance fold's
// current view of e.SpaceID (ignored when e.RoomID is the governance
// room). genesis is the Space's genesis record, used to verify an
// embedded Invite on MEMBER_JOIN.
func Accept(e *event.Event, genesis *identity.SpaceGenesis, members MembershipView, limits Limits, wireBytes int, nowMs int64) error {
	start := time.Now()
	err := accept(e, genesis, members, limits, wireBytes, nowMs)
	metrics.AcceptDuration.WithLabelValues(e.RoomID).Observe(time.Since(start).Seconds())
	if err != nil {
		code := "unknown"
		var acceptErr *Error
		if errors.As(err, &acceptErr) {
			code = string(acceptErr.Code)
		}
		metrics.EventsRejected.WithLabelValues(code).Inc()
		return err
	}
	metrics.EventsAccepted.WithLabelValues(e.RoomID, string(e.Kind)).Inc()
	return nil
}

func accept(e *event.Event, genesis *identity.SpaceGenesis, members MembershipView, limits Limits, wireBytes int, nowMs int64) error {
	if err := limits.CheckEvent(e, wireBytes); err != nil {
		return err
	}

	if err := event.VerifySelf(e); err != nil {
		switch {
		case errors.Is(err, event.ErrEventID):
			return reject(CodeIDMismatch, err)
		case errors.Is(err, event.ErrIdentityMismatch):
			return reject(CodeIDMismatch, err)
		default:
			return reject(CodeSignatureInvalid, err)
		}
	}

	if err := e.Delegation.Verify(nowMs); err != nil {
		switch {
		case errors.Is(err, identity.ErrDelegationWindow):
			return reject(CodeDelegationWindow, err)
		default:
			return reject(CodeSignatureInvalid, err)
		}
	}

	requiredScope := event.RequiredScope(e.SpaceID, e.Kind)
	if !identity.HasScope(e.Delegation.Scopes, requiredScope) {
		return reject(CodeDelegationScopeMissing, errors.New(requiredScope))
	}

	return authorize(e, genesis, members, nowMs)
}

func authorize(e *event.Event, genesis *identity.SpaceGenesis, members MembershipView, nowMs int64) error {
	if e.RoomID == event.GovernanceRoomID {
		return authorizeGovernance(e, genesis, nowMs)
	}
	if members == nil || !members.IsMember(e.AuthorPrincipalID) {
		return reject(CodeNotAMember, nil)
	}
	if members.IsBanned(e.AuthorPrincipalID) {
		return reject(CodeBanned, nil)
	}
	return nil
}

// authorizeGovernance applies the governance-room rule: MEMBER_JOIN
// is authorized iff its embedded invite verifies and would be
// accepted by the fold; every other governance kind is
// authorized only to the Space Root (extension point: role-derived
// permissions).
func authorizeGovernance(e *event.Event, genesis *identity.SpaceGenesis, nowMs int64) error {
	if e.Kind == event.KindMemberJoin {
		if _, err := governance.CheckMemberJoin(e, genesis, nowMs); err != nil {
			return mapInviteError(err)
		}
		return nil
	}
	if genesis == nil || e.AuthorPrincipalID != genesis.SpaceID {
		return reject(CodeNotAMember, errors.New("governance event not authored by space root"))
	}
	return nil
}

func mapInviteError(err error) error {
	switch {
	case errors.Is(err, invite.ErrExpired):
		return reject(CodeInviteExpired, err)
	case errors.Is(err, invite.ErrPoWExpired), errors.Is(err, invite.ErrPoWInvalid):
		return reject(CodePoWInsufficient, err)
	case errors.Is(err, governance.ErrBadJoinBody), errors.Is(err, governance.ErrJoinIdentityMismatch),
		errors.Is(err, invite.ErrInvalid), errors.Is(err, invite.ErrScopeSubset), errors.Is(err, invite.ErrBoundToOther):
		return reject(CodeInviteInvalid, err)
	default:
		return reject(CodeInviteInvalid, err)
	}
}

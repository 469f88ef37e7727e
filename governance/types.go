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

// Package governance folds a Space's governance-room DAG into the
// member/ban sets its acceptance pipeline authorizes against. The
// fold is a pure function of the ordered event set.
package governance

import "github.com/p2pspace/core/invite"

// MemberJoinBody is the body shape a MEMBER_JOIN event must carry
// for the fold to admit its author.
type MemberJoinBody struct {
	PrincipalID  string         `json:"principal_id"`
	PrincipalPub string         `json:"principal_pub"`
	Invite       *invite.Invite `json:"invite"`
	// PoWNonce satisfies invite.Constraints.RequiresPoW, when set.
	PoWNonce []byte `json:"pow_nonce,omitempty"`
}

// MemberBanBody is the body shape a MEMBER_BAN/MEMBER_UNBAN event
// must carry.
type MemberBanBody struct {
	PrincipalID string `json:"principal_id"`
}

// State is the result of folding a governance-room DAG: the set of
// admitted principal ids and the set of banned principal ids. A
// principal may appear in both if banned after joining.
type State struct {
	Members map[string]struct{}
	Banned  map[string]struct{}
}

// NewState returns an empty State.
func NewState() *State {
	return &State{
		Members: make(map[string]struct{}),
		Banned:  make(map[string]struct{}),
	}
}

// IsMember reports whether principalID is currently an admitted
// member. It does not consult the ban set; use IsBanned for that.
func (s *State) IsMember(principalID string) bool {
	_, ok := s.Members[principalID]
	return ok
}

// IsBanned reports whether principalID is currently banned. Banning
// is independent of membership: a banned principal need not have
// ever joined.
func (s *State) IsBanned(principalID string) bool {
	_, ok := s.Banned[principalID]
	return ok
}

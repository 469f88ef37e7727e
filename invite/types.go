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

// Package invite implements the Invite capability, the Invite Issuer
// Certificate (IIC) path, and optional proof-of-work gating.
package invite

import (
	"errors"

	"github.com/p2pspace/core/identity"
)

var (
	ErrInvalid      = errors.New("invite: invalid")
	ErrExpired      = errors.New("invite: expired")
	ErrScopeSubset  = errors.New("invite: scopes not a subset of allowed_scopes")
	ErrPoWRequired  = errors.New("invite: proof-of-work required")
	ErrPoWInvalid   = errors.New("invite: proof-of-work insufficient")
	ErrPoWExpired   = errors.New("invite: proof-of-work solution expired")
	ErrBoundToOther = errors.New("invite: bound to a different principal")
)

// InviteIssuerCertificate authorizes a Principal other than the
// Space Root to issue invites with a subset of scopes for a validity
// window, signed by the Space Root.
type InviteIssuerCertificate struct {
	V                  int      `json:"v"`
	SpaceID            string   `json:"space_id"`
	SpaceRootPub       string   `json:"space_root_pub"`
	IssuerPrincipalID  string   `json:"issuer_principal_id"`
	IssuerPrincipalPub string   `json:"issuer_principal_pub"`
	NotBeforeTs        int64    `json:"not_before_ts"`
	ExpiresTs          int64    `json:"expires_ts"`
	AllowedScopes      []string `json:"allowed_scopes"`
	Sig                string   `json:"sig"`
}

// Constraints gate how an Invite may be consumed.
type Constraints struct {
	RequiresPoW      *PoWRequirement `json:"requires_pow,omitempty"`
	BoundPrincipalID string          `json:"bound_principal_id,omitempty"`
	MaxUses          int             `json:"max_uses,omitempty"`
}

// PoWRequirement specifies the proof-of-work a joiner must solve.
type PoWRequirement struct {
	Bits      int   `json:"bits"`
	ExpiresTs int64 `json:"expires_ts"`
}

// Invite is the capability object carrying everything a joiner needs
// to author a MEMBER_JOIN event.
type Invite struct {
	V                 int                      `json:"v"`
	SpaceID           string                   `json:"space_id"`
	InviteID          string                   `json:"invite_id"`
	IssuedTs          int64                    `json:"issued_ts"`
	ExpiresTs         int64                    `json:"expires_ts"`
	IssuerPrincipalID string                   `json:"issuer_principal_id"`
	IssuerDeviceID    string                   `json:"issuer_device_id"`
	IssuerDevicePub   string                   `json:"issuer_device_pub"`
	IssuerDelegation  *identity.DelegationCert `json:"issuer_delegation"`
	InviteIssuer      *InviteIssuerCertificate `json:"invite_issuer,omitempty"`
	Scopes            []string                 `json:"scopes"`
	Constraints       *Constraints             `json:"constraints,omitempty"`
	Bootstrap         interface{}              `json:"bootstrap,omitempty"`
	Sig               string                   `json:"sig"`
}

// ReadScope is the space:<space_id>:read scope every Invite must
// carry.
func ReadScope(spaceID string) string {
	return identity.SpaceScope(spaceID, "read")
}

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

// Package identity implements the Principal/Device keypairs and the
// delegation certificates that bind a Device to a Principal for a
// given Space.
package identity

import (
	"errors"

	"github.com/p2pspace/core/cryptox"
)

var (
	// ErrIdentityMismatch is returned when a DelegationCert's
	// embedded ids don't recompute from their public keys.
	ErrIdentityMismatch = errors.New("identity: id does not match public key")
	// ErrDelegationSignature is returned when a DelegationCert's
	// signature fails to verify under the principal key.
	ErrDelegationSignature = errors.New("identity: delegation signature invalid")
	// ErrDelegationWindow is returned when now falls outside the
	// delegation's validity window (with skew applied).
	ErrDelegationWindow = errors.New("identity: delegation outside validity window")
	// ErrScopeMissing is returned when a delegation lacks a scope
	// an operation requires.
	ErrScopeMissing = errors.New("identity: required scope missing")
)

// ClockSkew is the tolerance applied to delegation (and invite / IIC)
// validity windows.
const ClockSkew = 10 * 60 * 1000 // milliseconds

// DelegationCert binds a Device to a Principal with a validity
// window and a set of device-local scopes, signed by the Principal.
type DelegationCert struct {
	V            int      `json:"v"`
	PrincipalID  string   `json:"principal_id"`
	PrincipalPub string   `json:"principal_pub"` // base64 SPKI-less raw key
	DeviceID     string   `json:"device_id"`
	DevicePub    string   `json:"device_pub"`
	NotBeforeTs  int64    `json:"not_before_ts"`
	ExpiresTs    int64    `json:"expires_ts"`
	Scopes       []string `json:"scopes"`
	Sig          string   `json:"sig"`
}

// Scope string forms.
const (
	ScopeJoin       = "join"
	ScopePost       = "post"
	ScopeGovernance = "governance"
	ScopeDMRead     = "dm:read"
	ScopeDMPost     = "dm:post"
)

// SpaceScope builds the "space:<space_id>:<action>" scope string.
func SpaceScope(spaceID, action string) string {
	return "space:" + spaceID + ":" + action
}

// HasScope reports whether scopes contains want.
func HasScope(scopes []string, want string) bool {
	for _, s := range scopes {
		if s == want {
			return true
		}
	}
	return false
}

// Identity holds a Principal keypair, a single Device keypair, and a
// cache of per-Space delegations. It does not hold more than one
// Device keypair.
type Identity struct {
	Principal cryptox.KeyPair
	Device    cryptox.KeyPair

	PrincipalID string
	DeviceID    string

	delegations map[string]*DelegationCert // space_id -> cached delegation
}

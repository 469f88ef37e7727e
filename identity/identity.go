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

package identity

import (
	"fmt"

	"github.com/p2pspace/core/cryptox"
)

const (
	delegationNotBeforeSkewMs = 10 * 60 * 1000        // now - 10min
	delegationLifetimeMs      = 30 * 24 * 3600 * 1000 // 30 days
	// delegationRenewBeforeMs is the minimum remaining validity a
	// cached delegation must have to be reused instead of minting a
	// fresh one.
	delegationRenewBeforeMs = 60 * 1000
)

// CreateIdentity generates a fresh Principal keypair and a Device
// keypair, derives their ids, and returns an Identity with an empty
// per-Space delegation cache.
func CreateIdentity() (*Identity, error) {
	principal, err := cryptox.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("identity: generate principal: %w", err)
	}
	device, err := cryptox.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("identity: generate device: %w", err)
	}
	return &Identity{
		Principal:   principal,
		Device:      device,
		PrincipalID: cryptox.IDFromSPKI(principal.PublicKey()),
		DeviceID:    cryptox.IDFromSPKI(device.PublicKey()),
		delegations: make(map[string]*DelegationCert),
	}, nil
}

// CachedDelegation returns the cached delegation for spaceID, if any.
func (id *Identity) CachedDelegation(spaceID string) (*DelegationCert, bool) {
	d, ok := id.delegations[spaceID]
	return d, ok
}

// EnsureDelegationForSpace returns an unexpired (by at least
// delegationRenewBeforeMs) cached delegation for spaceID, or
// synthesizes and caches a new one with scopes {join, post,
// governance} for that Space.
func (id *Identity) EnsureDelegationForSpace(spaceID string, nowMs int64) (*DelegationCert, error) {
	if cached, ok := id.delegations[spaceID]; ok {
		if cached.ExpiresTs-nowMs >= delegationRenewBeforeMs {
			return cached, nil
		}
	}

	scopes := []string{
		SpaceScope(spaceID, ScopeJoin),
		SpaceScope(spaceID, ScopePost),
		SpaceScope(spaceID, ScopeGovernance),
	}
	cert, err := SignDelegation(id.Principal, id.PrincipalID, id.DeviceID, id.Device.PublicKey(),
		nowMs-delegationNotBeforeSkewMs, nowMs+delegationLifetimeMs, scopes)
	if err != nil {
		return nil, err
	}
	id.SetCachedDelegation(spaceID, cert)
	return cert, nil
}

// SetCachedDelegation installs an externally issued delegation (e.g.
// loaded from storage) into the cache for spaceID.
func (id *Identity) SetCachedDelegation(spaceID string, cert *DelegationCert) {
	if id.delegations == nil {
		id.delegations = make(map[string]*DelegationCert)
	}
	id.delegations[spaceID] = cert
}

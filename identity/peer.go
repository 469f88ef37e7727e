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

	"github.com/p2pspace/core/canon"
	"github.com/p2pspace/core/cryptox"
)

const peerRecordDomain = "p2pspace/peer/v0"

// PeerRecord is an offline bootstrap hint: a signed statement of
// where a Device can currently be reached, with relay and rendezvous
// hints in Addrs.
type PeerRecord struct {
	V            int             `json:"v"`
	PrincipalID  string          `json:"principal_id"`
	PrincipalPub string          `json:"principal_pub"`
	DeviceID     string          `json:"device_id"`
	DevicePub    string          `json:"device_pub"`
	Delegation   *DelegationCert `json:"delegation"`
	Ts           int64           `json:"ts"`
	ExpiresTs    int64           `json:"expires_ts"`
	Addrs        interface{}     `json:"addrs,omitempty"`
	Sig          string          `json:"sig"`
}

func peerRecordSigInput(v int, principalID, principalPub, deviceID, devicePub, delegationSig string, ts, expires int64, addrs interface{}) []byte {
	if addrs == nil {
		addrs = map[string]interface{}{}
	}
	return canon.NewBuilder(peerRecordDomain).
		Int(int64(v)).
		String(principalID).
		String(principalPub).
		String(deviceID).
		String(devicePub).
		String(delegationSig).
		Int(ts).
		Int(expires).
		JSON(addrs).
		Build()
}

// SignPeerRecord signs a PeerRecord for id's current Device using
// the cached delegation for spaceID.
func SignPeerRecord(id *Identity, spaceID string, ts, expires int64, addrs interface{}) (*PeerRecord, error) {
	cert, ok := id.CachedDelegation(spaceID)
	if !ok {
		return nil, fmt.Errorf("identity: no cached delegation for space %s", spaceID)
	}
	principalPubB64 := cryptox.Base64(id.Principal.PublicKey().Bytes())
	devicePubB64 := cryptox.Base64(id.Device.PublicKey().Bytes())

	input := peerRecordSigInput(1, id.PrincipalID, principalPubB64, id.DeviceID, devicePubB64, cert.Sig, ts, expires, addrs)
	sig := id.Device.Sign(input)

	return &PeerRecord{
		V:            1,
		PrincipalID:  id.PrincipalID,
		PrincipalPub: principalPubB64,
		DeviceID:     id.DeviceID,
		DevicePub:    devicePubB64,
		Delegation:   cert,
		Ts:           ts,
		ExpiresTs:    expires,
		Addrs:        addrs,
		Sig:          cryptox.Base64(sig),
	}, nil
}

// Verify checks the PeerRecord's ids, embedded delegation, and
// signature, and that nowMs has not passed ExpiresTs (±ClockSkew).
// It does not implement a refresh or re-gossip policy; callers
// re-sign records as they approach expiry.
func (p *PeerRecord) Verify(nowMs int64) error {
	devicePub, err := decodeB64PubKey(p.DevicePub)
	if err != nil {
		return fmt.Errorf("identity: peer device_pub: %w", err)
	}
	if !cryptox.VerifyID(p.DeviceID, devicePub) {
		return fmt.Errorf("%w: device_id", ErrIdentityMismatch)
	}
	principalPub, err := decodeB64PubKey(p.PrincipalPub)
	if err != nil {
		return fmt.Errorf("identity: peer principal_pub: %w", err)
	}
	if !cryptox.VerifyID(p.PrincipalID, principalPub) {
		return fmt.Errorf("%w: principal_id", ErrIdentityMismatch)
	}
	if p.Delegation == nil || p.Delegation.DeviceID != p.DeviceID || p.Delegation.PrincipalID != p.PrincipalID {
		return fmt.Errorf("identity: peer delegation mismatch")
	}
	if err := p.Delegation.Verify(nowMs); err != nil {
		return fmt.Errorf("identity: peer delegation: %w", err)
	}

	input := peerRecordSigInput(p.V, p.PrincipalID, p.PrincipalPub, p.DeviceID, p.DevicePub, p.Delegation.Sig, p.Ts, p.ExpiresTs, p.Addrs)
	sig, err := cryptox.DecodeBase64(p.Sig)
	if err != nil {
		return fmt.Errorf("identity: peer sig encoding: %w", err)
	}
	if err := cryptox.Verify(devicePub, input, sig); err != nil {
		return ErrDelegationSignature
	}
	if nowMs > p.ExpiresTs+ClockSkew {
		return ErrDelegationWindow
	}
	return nil
}

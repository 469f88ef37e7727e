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

const delegationDomain = "p2pspace/delegation/v0"

// delegationSigInput builds the signature input: v, principal_id,
// principal_pub, device_id, device_pub, not_before_ts, expires_ts,
// count(scopes), scopes.
func delegationSigInput(v int, principalID, principalPub, deviceID, devicePub string, notBefore, expires int64, scopes []string) []byte {
	b := canon.NewBuilder(delegationDomain).
		Int(int64(v)).
		String(principalID).
		String(principalPub).
		String(deviceID).
		String(devicePub).
		Int(notBefore).
		Int(expires).
		Count(len(scopes))
	for _, s := range scopes {
		b.String(s)
	}
	return b.Build()
}

// SignDelegation issues a DelegationCert binding deviceID/devicePub
// to the Principal behind principal, signed by that Principal.
func SignDelegation(principal cryptox.KeyPair, principalID, deviceID string, devicePub cryptox.PublicKey, notBefore, expires int64, scopes []string) (*DelegationCert, error) {
	principalPubB64 := cryptox.Base64(principal.PublicKey().Bytes())
	devicePubB64 := cryptox.Base64(devicePub.Bytes())

	input := delegationSigInput(1, principalID, principalPubB64, deviceID, devicePubB64, notBefore, expires, scopes)
	sig := principal.Sign(input)

	return &DelegationCert{
		V:            1,
		PrincipalID:  principalID,
		PrincipalPub: principalPubB64,
		DeviceID:     deviceID,
		DevicePub:    devicePubB64,
		NotBeforeTs:  notBefore,
		ExpiresTs:    expires,
		Scopes:       scopes,
		Sig:          cryptox.Base64(sig),
	}, nil
}

// Verify checks that cert's ids recompute from their public keys,
// its signature verifies under the Principal key, and nowMs falls
// within its validity window (±ClockSkew).
func (cert *DelegationCert) Verify(nowMs int64) error {
	principalPub, err := decodeB64PubKey(cert.PrincipalPub)
	if err != nil {
		return fmt.Errorf("identity: delegation principal_pub: %w", err)
	}
	devicePub, err := decodeB64PubKey(cert.DevicePub)
	if err != nil {
		return fmt.Errorf("identity: delegation device_pub: %w", err)
	}

	if !cryptox.VerifyID(cert.PrincipalID, principalPub) {
		return fmt.Errorf("%w: principal_id", ErrIdentityMismatch)
	}
	if !cryptox.VerifyID(cert.DeviceID, devicePub) {
		return fmt.Errorf("%w: device_id", ErrIdentityMismatch)
	}

	input := delegationSigInput(cert.V, cert.PrincipalID, cert.PrincipalPub, cert.DeviceID, cert.DevicePub, cert.NotBeforeTs, cert.ExpiresTs, cert.Scopes)
	sigBytes, err := cryptox.DecodeBase64(cert.Sig)
	if err != nil {
		return fmt.Errorf("identity: delegation sig encoding: %w", err)
	}
	if err := cryptox.Verify(principalPub, input, sigBytes); err != nil {
		return ErrDelegationSignature
	}

	if nowMs < cert.NotBeforeTs-ClockSkew || nowMs > cert.ExpiresTs+ClockSkew {
		return ErrDelegationWindow
	}
	return nil
}

// VerifyScope is Verify plus a check that the delegation carries
// requiredScope, the authorization check the acceptance pipeline
// performs for the event's kind.
func (cert *DelegationCert) VerifyScope(nowMs int64, requiredScope string) error {
	if err := cert.Verify(nowMs); err != nil {
		return err
	}
	if !HasScope(cert.Scopes, requiredScope) {
		return fmt.Errorf("%w: %s", ErrScopeMissing, requiredScope)
	}
	return nil
}

// DevicePublicKey decodes and returns the delegation's device public
// key.
func (cert *DelegationCert) DevicePublicKey() (cryptox.PublicKey, error) {
	return decodeB64PubKey(cert.DevicePub)
}

// PrincipalPublicKey decodes and returns the delegation's principal
// public key.
func (cert *DelegationCert) PrincipalPublicKey() (cryptox.PublicKey, error) {
	return decodeB64PubKey(cert.PrincipalPub)
}

func decodeB64PubKey(s string) (cryptox.PublicKey, error) {
	raw, err := cryptox.DecodeBase64(s)
	if err != nil {
		return cryptox.PublicKey{}, err
	}
	return cryptox.PublicKeyFromBytes(raw)
}

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

package invite

import (
	"fmt"

	"github.com/p2pspace/core/canon"
	"github.com/p2pspace/core/cryptox"
	"github.com/p2pspace/core/identity"
)

const iicDomain = "p2pspace/invite-issuer/v0"

func iicSigInput(v int, spaceID, spaceRootPub, issuerPrincipalID, issuerPrincipalPub string, notBefore, expires int64, allowedScopes []string) []byte {
	b := canon.NewBuilder(iicDomain).
		Int(int64(v)).
		String(spaceID).
		String(spaceRootPub).
		String(issuerPrincipalID).
		String(issuerPrincipalPub).
		Int(notBefore).
		Int(expires).
		Count(len(allowedScopes))
	for _, s := range allowedScopes {
		b.String(s)
	}
	return b.Build()
}

// SignIIC issues an InviteIssuerCertificate authorizing
// issuerPrincipalID to issue invites with allowedScopes, signed by
// the Space Root.
func SignIIC(root cryptox.KeyPair, spaceID, issuerPrincipalID string, issuerPrincipalPub cryptox.PublicKey, notBefore, expires int64, allowedScopes []string) *InviteIssuerCertificate {
	rootPubB64 := cryptox.Base64(root.PublicKey().Bytes())
	issuerPubB64 := cryptox.Base64(issuerPrincipalPub.Bytes())
	input := iicSigInput(1, spaceID, rootPubB64, issuerPrincipalID, issuerPubB64, notBefore, expires, allowedScopes)
	return &InviteIssuerCertificate{
		V:                  1,
		SpaceID:            spaceID,
		SpaceRootPub:       rootPubB64,
		IssuerPrincipalID:  issuerPrincipalID,
		IssuerPrincipalPub: issuerPubB64,
		NotBeforeTs:        notBefore,
		ExpiresTs:          expires,
		AllowedScopes:      allowedScopes,
		Sig:                cryptox.Base64(root.Sign(input)),
	}
}

// Verify checks that the IIC's space_id and issuer id recompute from
// their public keys, that its signature verifies under spaceRootPub,
// and that nowMs falls within its validity window
// (±identity.ClockSkew).
func (c *InviteIssuerCertificate) Verify(spaceRootPub cryptox.PublicKey, nowMs int64) error {
	if cryptox.Base64(spaceRootPub.Bytes()) != c.SpaceRootPub {
		return fmt.Errorf("%w: space_root_pub mismatch", ErrInvalid)
	}
	// space_id must derive from the root key even when the verifier
	// has no independent genesis: otherwise a self-signed IIC under an
	// attacker's key could name someone else's space_id.
	if !cryptox.VerifyID(c.SpaceID, spaceRootPub) {
		return fmt.Errorf("%w: space_id not derived from space_root_pub", ErrInvalid)
	}
	issuerPub, err := decodeB64PubKey(c.IssuerPrincipalPub)
	if err != nil {
		return fmt.Errorf("%w: issuer_principal_pub: %v", ErrInvalid, err)
	}
	if !cryptox.VerifyID(c.IssuerPrincipalID, issuerPub) {
		return fmt.Errorf("%w: issuer_principal_id", ErrInvalid)
	}

	input := iicSigInput(c.V, c.SpaceID, c.SpaceRootPub, c.IssuerPrincipalID, c.IssuerPrincipalPub, c.NotBeforeTs, c.ExpiresTs, c.AllowedScopes)
	sig, err := cryptox.DecodeBase64(c.Sig)
	if err != nil {
		return fmt.Errorf("%w: sig encoding: %v", ErrInvalid, err)
	}
	if err := cryptox.Verify(spaceRootPub, input, sig); err != nil {
		return fmt.Errorf("%w: signature", ErrInvalid)
	}

	if nowMs < c.NotBeforeTs-identity.ClockSkew || nowMs > c.ExpiresTs+identity.ClockSkew {
		return fmt.Errorf("%w: outside validity window", ErrExpired)
	}
	return nil
}

func decodeB64PubKey(s string) (cryptox.PublicKey, error) {
	raw, err := cryptox.DecodeBase64(s)
	if err != nil {
		return cryptox.PublicKey{}, err
	}
	return cryptox.PublicKeyFromBytes(raw)
}

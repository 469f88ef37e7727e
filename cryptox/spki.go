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

package cryptox

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
)

// ed25519SPKIPrefix is the fixed 12-byte ASN.1 DER prefix for an
// Ed25519 SubjectPublicKeyInfo (algorithm identifier for OID
// 1.3.101.112, no parameters), as used by crypto/x509's encoding of
// ed25519.PublicKey. Concatenated with the 32-byte raw public key it
// forms the 44-byte SPKI DER encoding every identifier is derived
// from.
var ed25519SPKIPrefix = []byte{
	0x30, 0x2a, 0x30, 0x05, 0x06, 0x03, 0x2b, 0x65, 0x70, 0x03, 0x21, 0x00,
}

const spkiLen = 12 + ed25519.PublicKeySize

// MarshalSPKI returns the 44-byte Ed25519 SubjectPublicKeyInfo DER
// encoding of pub.
func MarshalSPKI(pub PublicKey) []byte {
	out := make([]byte, 0, spkiLen)
	out = append(out, ed25519SPKIPrefix...)
	out = append(out, pub[:]...)
	return out
}

// ParseSPKI validates and extracts the raw Ed25519 public key from
// an SPKI DER encoding.
func ParseSPKI(der []byte) (PublicKey, error) {
	var pk PublicKey
	if len(der) != spkiLen {
		return pk, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidSPKI, spkiLen, len(der))
	}
	for i, b := range ed25519SPKIPrefix {
		if der[i] != b {
			return pk, ErrInvalidSPKI
		}
	}
	copy(pk[:], der[12:])
	return pk, nil
}

// IDFromSPKI computes "ed25519:" + base64url-nopad(sha256(SPKI(pub))),
// the identifier scheme shared by principal_id, device_id, and
// space_id.
func IDFromSPKI(pub PublicKey) string {
	sum := sha256.Sum256(MarshalSPKI(pub))
	return "ed25519:" + Base64URLNoPad(sum[:])
}

// VerifyID reports whether id was correctly derived from pub.
func VerifyID(id string, pub PublicKey) bool {
	return id == IDFromSPKI(pub)
}

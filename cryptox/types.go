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

// Package cryptox wraps the Ed25519 primitives, SHA-256 hashing, and
// base64 codecs that every p2pspace identifier and signature is built
// from.
package cryptox

import "errors"

var (
	// ErrInvalidSignature is returned when a signature fails Ed25519
	// verification.
	ErrInvalidSignature = errors.New("cryptox: invalid signature")
	// ErrInvalidKeySize is returned when a raw key does not match the
	// expected Ed25519 size.
	ErrInvalidKeySize = errors.New("cryptox: invalid key size")
	// ErrInvalidSPKI is returned when SPKI DER bytes don't match the
	// fixed Ed25519 SPKI prefix+length.
	ErrInvalidSPKI = errors.New("cryptox: invalid Ed25519 SPKI encoding")
)

// KeyPair is a generator's Ed25519 signing identity: the minimum
// surface the rest of the module needs from a private key holder.
type KeyPair interface {
	PublicKey() PublicKey
	Sign(message []byte) []byte
	// Seed returns the 32-byte Ed25519 seed, for callers that persist
	// an identity to disk (e.g. the CLI's identity store) and later
	// reconstruct it via KeyPairFromSeed. Never logged or transmitted.
	Seed() []byte
}

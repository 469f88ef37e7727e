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
	"crypto/rand"
	"fmt"
)

// PublicKey is a raw 32-byte Ed25519 public key.
type PublicKey [ed25519.PublicKeySize]byte

// Bytes returns the raw 32-byte encoding.
func (k PublicKey) Bytes() []byte {
	return k[:]
}

// PublicKeyFromBytes validates and wraps a raw 32-byte Ed25519
// public key.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	var pk PublicKey
	if len(b) != ed25519.PublicKeySize {
		return pk, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKeySize, len(b), ed25519.PublicKeySize)
	}
	copy(pk[:], b)
	return pk, nil
}

// ed25519KeyPair implements KeyPair with an in-memory Ed25519
// private key. It never exports the private key; callers obtain
// signatures only through Sign.
type ed25519KeyPair struct {
	priv ed25519.PrivateKey
	pub  PublicKey
}

// GenerateKeyPair creates a new random Ed25519 key pair using the
// system CSPRNG.
func GenerateKeyPair() (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("cryptox: generate key: %w", err)
	}
	pk, err := PublicKeyFromBytes(pub)
	if err != nil {
		return nil, err
	}
	return &ed25519KeyPair{priv: priv, pub: pk}, nil
}

// KeyPairFromSeed reconstructs a deterministic key pair from a
// 32-byte Ed25519 seed, e.g. when loading an identity from secure
// storage.
func KeyPairFromSeed(seed []byte) (KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: seed must be %d bytes", ErrInvalidKeySize, ed25519.SeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pk, err := PublicKeyFromBytes(priv.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	return &ed25519KeyPair{priv: priv, pub: pk}, nil
}

func (kp *ed25519KeyPair) PublicKey() PublicKey { return kp.pub }

func (kp *ed25519KeyPair) Sign(message []byte) []byte {
	return ed25519.Sign(kp.priv, message)
}

func (kp *ed25519KeyPair) Seed() []byte {
	return kp.priv.Seed()
}

// Verify checks an Ed25519 signature over message under pub.
func Verify(pub PublicKey, message, signature []byte) error {
	if !ed25519.Verify(ed25519.PublicKey(pub[:]), message, signature) {
		return ErrInvalidSignature
	}
	return nil
}

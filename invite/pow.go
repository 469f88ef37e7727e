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
	"crypto/sha256"
	"time"

	"github.com/p2pspace/core/internal/metrics"
)

const powDomain = "p2pspace/pow/v0\n"

// powDigest computes sha256(domain || invite_id || 0x00 ||
// joiner_principal_id || 0x00 || nonce).
func powDigest(inviteID, joinerPrincipalID string, nonce []byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(powDomain))
	h.Write([]byte(inviteID))
	h.Write([]byte{0})
	h.Write([]byte(joinerPrincipalID))
	h.Write([]byte{0})
	h.Write(nonce)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// leadingZeroBits counts the number of leading zero bits in digest.
func leadingZeroBits(digest [32]byte) int {
	count := 0
	for _, b := range digest {
		if b == 0 {
			count += 8
			continue
		}
		for mask := byte(0x80); mask != 0; mask >>= 1 {
			if b&mask != 0 {
				return count
			}
			count++
		}
	}
	return count
}

// VerifyPoW checks a joiner-supplied nonce against an Invite's
// requires_pow constraint: the digest must have at least req.Bits
// leading zero bits, and nowMs must not exceed req.ExpiresTs.
func VerifyPoW(inviteID, joinerPrincipalID string, req *PoWRequirement, nonce []byte, nowMs int64) error {
	if req == nil {
		return nil
	}
	if nowMs > req.ExpiresTs {
		return ErrPoWExpired
	}
	digest := powDigest(inviteID, joinerPrincipalID, nonce)
	if leadingZeroBits(digest) < req.Bits {
		return ErrPoWInvalid
	}
	return nil
}

// SolvePoW performs a brute-force search for a nonce satisfying req,
// for use by a joining client. It is provided for completeness and
// tests; production joiners may use a faster miner.
func SolvePoW(inviteID, joinerPrincipalID string, req *PoWRequirement, maxAttempts int) ([]byte, bool) {
	start := time.Now()
	defer func() { metrics.PoWSolveDuration.Observe(time.Since(start).Seconds()) }()
	nonce := make([]byte, 8)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		nonce[0] = byte(attempt)
		nonce[1] = byte(attempt >> 8)
		nonce[2] = byte(attempt >> 16)
		nonce[3] = byte(attempt >> 24)
		digest := powDigest(inviteID, joinerPrincipalID, nonce)
		if leadingZeroBits(digest) >= req.Bits {
			return append([]byte{}, nonce...), true
		}
	}
	return nil, false
}

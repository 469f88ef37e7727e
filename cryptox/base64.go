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
	"crypto/sha256"
	"encoding/base64"
)

// Base64 encodes key material for JSON transport using the padded
// standard alphabet.
func Base64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

// DecodeBase64 decodes standard padded base64.
func DecodeBase64(s string) ([]byte, error) { return base64.StdEncoding.DecodeString(s) }

// Base64URLNoPad encodes hash-derived identifiers using unpadded
// base64url.
func Base64URLNoPad(b []byte) string { return base64.RawURLEncoding.EncodeToString(b) }

// DecodeBase64URLNoPad decodes unpadded base64url.
func DecodeBase64URLNoPad(s string) ([]byte, error) { return base64.RawURLEncoding.DecodeString(s) }

// SHA256 returns the SHA-256 digest of data.
func SHA256(data []byte) [32]byte { return sha256.Sum256(data) }

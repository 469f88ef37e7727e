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

// Package canon implements the canonical byte encoding every p2pspace
// signature is computed over: a domain-separator line followed by a
// concatenation of netstrings, with extensible sub-objects embedded as
// RFC 8785 (JSON Canonicalization Scheme) bytes.
package canon

import (
	"fmt"
	"strconv"
)

// Builder accumulates netstring-framed fields behind a single ASCII
// domain separator, producing the exact bytes every signature in the
// protocol is computed over.
type Builder struct {
	buf []byte
}

// NewBuilder starts a signature-input builder for the given domain
// separator (e.g. "p2pspace/event/v0"). The separator is written
// verbatim followed by a single newline.
func NewBuilder(domain string) *Builder {
	b := &Builder{buf: make([]byte, 0, 256)}
	b.buf = append(b.buf, domain...)
	b.buf = append(b.buf, '\n')
	return b
}

// Bytes appends a netstring containing raw bytes.
func (b *Builder) Bytes(p []byte) *Builder {
	b.buf = append(b.buf, strconv.Itoa(len(p))...)
	b.buf = append(b.buf, ':')
	b.buf = append(b.buf, p...)
	b.buf = append(b.buf, ',')
	return b
}

// String appends a netstring containing a UTF-8 string.
func (b *Builder) String(s string) *Builder {
	return b.Bytes([]byte(s))
}

// Int appends a netstring containing the ASCII decimal form of an
// integer, with no leading '+' and no leading zeros (other than a
// lone "0").
func (b *Builder) Int(n int64) *Builder {
	return b.Bytes([]byte(strconv.FormatInt(n, 10)))
}

// Count appends a netstring containing the decimal count of a
// following repeated field (e.g. `count(prev)`).
func (b *Builder) Count(n int) *Builder {
	return b.Int(int64(n))
}

// JSON canonicalizes v with JCS and appends the result as a single
// netstring. Callers embedding an optional sub-object substitute an
// empty map or slice (never a nil interface, which canonicalizes to
// "null") when the field is absent.
func (b *Builder) JSON(v interface{}) *Builder {
	data, err := CanonicalJSON(v)
	if err != nil {
		// Signature inputs are built from already-validated values;
		// a JCS failure here means a caller passed an unsupported
		// Go type, which is a programming error, not a runtime one.
		panic(fmt.Sprintf("canon: cannot canonicalize JSON value: %v", err))
	}
	return b.Bytes(data)
}

// Build returns the accumulated signature-input bytes.
func (b *Builder) Build() []byte {
	return b.buf
}

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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/p2pspace/core/cryptox"
)

// linkFragmentKey is the URL-fragment parameter carrying the encoded
// Invite. The fragment never reaches a web server, so a link can be
// pasted into a hosted shell without leaking the capability.
const linkFragmentKey = "invite="

// EncodeLink renders inv as a shareable URL: the Invite's JSON,
// UTF-8, base64url-nopad, placed in base's fragment as
// "#invite=<code>". base is typically the embedding app's URL and is
// used verbatim; any fragment it already carries is replaced.
func EncodeLink(inv *Invite, base string) (string, error) {
	raw, err := json.Marshal(inv)
	if err != nil {
		return "", fmt.Errorf("%w: encode: %v", ErrInvalid, err)
	}
	if i := strings.IndexByte(base, '#'); i >= 0 {
		base = base[:i]
	}
	return base + "#" + linkFragmentKey + cryptox.Base64URLNoPad(raw), nil
}

// ParseLink extracts and decodes the Invite from a URL produced by
// EncodeLink. It also accepts a bare "#invite=<code>" fragment or
// the "<code>" alone. The returned Invite is decoded, not verified;
// callers run Verify before trusting it.
func ParseLink(link string) (*Invite, error) {
	code := link
	if i := strings.IndexByte(code, '#'); i >= 0 {
		code = code[i+1:]
	}
	if i := strings.Index(code, linkFragmentKey); i >= 0 {
		code = code[i+len(linkFragmentKey):]
	}
	if j := strings.IndexByte(code, '&'); j >= 0 {
		code = code[:j]
	}
	if code == "" {
		return nil, fmt.Errorf("%w: link carries no invite code", ErrInvalid)
	}
	raw, err := cryptox.DecodeBase64URLNoPad(code)
	if err != nil {
		return nil, fmt.Errorf("%w: invite code encoding: %v", ErrInvalid, err)
	}
	var inv Invite
	if err := json.Unmarshal(raw, &inv); err != nil {
		return nil, fmt.Errorf("%w: invite code payload: %v", ErrInvalid, err)
	}
	return &inv, nil
}

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

package accept

import (
	"fmt"
	"unicode/utf8"

	"github.com/p2pspace/core/event"
)

// Limits is local policy: the field and message caps the first step
// of the acceptance pipeline enforces.
type Limits struct {
	MaxIDLen       int // space_id/room_id/kind/event_id
	MaxPubKeyLen   int
	MaxSigLen      int
	MaxPrev        int
	MaxScopes      int
	MaxMessageText int
	MaxWireBytes   int
}

// DefaultLimits returns the baseline local-policy defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxIDLen:       256,
		MaxPubKeyLen:   4096,
		MaxSigLen:      2048,
		MaxPrev:        64,
		MaxScopes:      64,
		MaxMessageText: 2000,
		MaxWireBytes:   256 * 1024,
	}
}

// CheckEvent enforces step 1 of the acceptance pipeline against e and
// the size of its wire encoding.
func (l Limits) CheckEvent(e *event.Event, wireBytes int) error {
	if wireBytes > l.MaxWireBytes {
		return reject(CodeLimitsExceeded, fmt.Errorf("wire message %d bytes exceeds %d", wireBytes, l.MaxWireBytes))
	}
	for name, s := range map[string]string{
		"space_id": e.SpaceID, "room_id": e.RoomID, "event_id": e.EventID,
		"author_principal_id": e.AuthorPrincipalID, "author_device_id": e.AuthorDeviceID,
	} {
		if len(s) > l.MaxIDLen {
			return reject(CodeLimitsExceeded, fmt.Errorf("%s exceeds %d bytes", name, l.MaxIDLen))
		}
	}
	if len(e.Kind) > l.MaxIDLen {
		return reject(CodeLimitsExceeded, fmt.Errorf("kind exceeds %d bytes", l.MaxIDLen))
	}
	if len(e.AuthorDevicePub) > l.MaxPubKeyLen {
		return reject(CodeLimitsExceeded, fmt.Errorf("author_device_pub exceeds %d bytes", l.MaxPubKeyLen))
	}
	if len(e.Sig) > l.MaxSigLen {
		return reject(CodeLimitsExceeded, fmt.Errorf("sig exceeds %d bytes", l.MaxSigLen))
	}
	if len(e.Prev) > l.MaxPrev {
		return reject(CodeLimitsExceeded, fmt.Errorf("prev has %d entries, max %d", len(e.Prev), l.MaxPrev))
	}
	if e.Delegation != nil && len(e.Delegation.Scopes) > l.MaxScopes {
		return reject(CodeLimitsExceeded, fmt.Errorf("delegation has %d scopes, max %d", len(e.Delegation.Scopes), l.MaxScopes))
	}
	if e.Kind == event.KindMsgPost {
		if text, ok := messageText(e.Body); ok {
			if n := utf8.RuneCountInString(text); n > l.MaxMessageText {
				return reject(CodeLimitsExceeded, fmt.Errorf("message text %d chars exceeds %d", n, l.MaxMessageText))
			}
		}
	}
	return nil
}

// messageText extracts body.text from an MSG_POST body, tolerating
// both a typed struct and the map[string]interface{} shape produced
// by JSON decoding.
func messageText(body interface{}) (string, bool) {
	switch b := body.(type) {
	case map[string]interface{}:
		text, ok := b["text"].(string)
		return text, ok
	case map[string]string:
		text, ok := b["text"]
		return text, ok
	default:
		return "", false
	}
}

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

package event

import (
	"fmt"
	"sort"

	"github.com/p2pspace/core/canon"
	"github.com/p2pspace/core/cryptox"
	"github.com/p2pspace/core/identity"
)

const eventDomain = "p2pspace/event/v0"

func sigInput(v int, spaceID, roomID, authorPrincipalID, authorDeviceID, authorDevicePub, delegationSig string, ts int64, kind Kind, prev []string, body interface{}) []byte {
	b := canon.NewBuilder(eventDomain).
		Int(int64(v)).
		String(spaceID).
		String(roomID).
		String(authorPrincipalID).
		String(authorDeviceID).
		String(authorDevicePub).
		String(delegationSig).
		Int(ts).
		String(string(kind)).
		Count(len(prev))
	for _, p := range prev {
		b.String(p)
	}
	var bodyVal interface{} = map[string]interface{}{}
	if body != nil {
		bodyVal = body
	}
	b.JSON(bodyVal)
	return b.Build()
}

// SigInput returns the bytes an Event's signature is computed over.
func SigInput(e *Event) []byte {
	delegationSig := ""
	if e.Delegation != nil {
		delegationSig = e.Delegation.Sig
	}
	return sigInput(e.V, e.SpaceID, e.RoomID, e.AuthorPrincipalID, e.AuthorDeviceID, e.AuthorDevicePub, delegationSig, e.Ts, e.Kind, e.Prev, e.Body)
}

// DeriveEventID computes "e:" + base64url(sha256(sigInput(e))).
func DeriveEventID(e *Event) string {
	sum := cryptox.SHA256(SigInput(e))
	return "e:" + cryptox.Base64URLNoPad(sum[:])
}

// Create builds, signs, and assembles a new Event authored by id's
// current Device under the Delegation cached for spaceID. prev
// should be the author's chosen parent set, already sorted and
// capped (see SelectParents); Create re-validates the cap.
func Create(id *identity.Identity, spaceID, roomID string, kind Kind, prev []string, body interface{}, ts int64) (*Event, error) {
	if len(prev) > MaxParents {
		return nil, ErrTooManyParents
	}
	cert, ok := id.CachedDelegation(spaceID)
	if !ok {
		return nil, fmt.Errorf("event: author has no delegation cached for space %s", spaceID)
	}

	sortedPrev := append([]string{}, prev...)
	sort.Strings(sortedPrev)

	e := &Event{
		V:                 1,
		SpaceID:           spaceID,
		RoomID:            roomID,
		AuthorPrincipalID: id.PrincipalID,
		AuthorDeviceID:    id.DeviceID,
		AuthorDevicePub:   cryptox.Base64(id.Device.PublicKey().Bytes()),
		Delegation:        cert,
		Ts:                ts,
		Kind:              kind,
		Prev:              sortedPrev,
		Body:              body,
	}
	sig := id.Device.Sign(SigInput(e))
	e.Sig = cryptox.Base64(sig)
	e.EventID = DeriveEventID(e)
	return e, nil
}

// SelectParents sorts heads lexicographically and caps them at
// MaxParents, bounding the frontier an author may reference.
func SelectParents(heads []string) []string {
	sorted := append([]string{}, heads...)
	sort.Strings(sorted)
	if len(sorted) > MaxParents {
		sorted = sorted[:MaxParents]
	}
	return sorted
}

// VerifySelf checks that e's event_id, delegation ids, and signature
// are all internally consistent. It does not check delegation
// validity windows, scopes, or authorization; see package accept for
// the full inbound pipeline.
func VerifySelf(e *Event) error {
	devicePub, err := decodeB64PubKey(e.AuthorDevicePub)
	if err != nil {
		return fmt.Errorf("%w: author_device_pub: %v", ErrIdentityMismatch, err)
	}
	if !cryptox.VerifyID(e.AuthorDeviceID, devicePub) {
		return fmt.Errorf("%w: author_device_id", ErrIdentityMismatch)
	}
	if e.Delegation == nil {
		return fmt.Errorf("%w: missing delegation", ErrIdentityMismatch)
	}
	if e.Delegation.DeviceID != e.AuthorDeviceID {
		return fmt.Errorf("%w: delegation.device_id", ErrIdentityMismatch)
	}
	if e.Delegation.PrincipalID != e.AuthorPrincipalID {
		return fmt.Errorf("%w: delegation.principal_id", ErrIdentityMismatch)
	}

	wantID := DeriveEventID(e)
	if e.EventID != wantID {
		return ErrEventID
	}

	sig, err := cryptox.DecodeBase64(e.Sig)
	if err != nil {
		return fmt.Errorf("%w: sig encoding: %v", ErrSignature, err)
	}
	if err := cryptox.Verify(devicePub, SigInput(e), sig); err != nil {
		return ErrSignature
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

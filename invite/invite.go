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

	"github.com/google/uuid"

	"github.com/p2pspace/core/canon"
	"github.com/p2pspace/core/cryptox"
	"github.com/p2pspace/core/identity"
	"github.com/p2pspace/core/internal/metrics"
)

const inviteDomain = "p2pspace/invite/v0"

// NewInviteID generates a fresh 128-bit invite_id, encoded as
// base64url-nopad, from a version-4 UUID: uuid.New() draws its 16
// bytes from a CSPRNG and then fixes the 6 version and variant bits,
// so 122 of the 128 bits are random.
func NewInviteID() string {
	id := uuid.New()
	return cryptox.Base64URLNoPad(id[:])
}

func inviteSigInput(inv *Invite) ([]byte, error) {
	var constraintsVal interface{} = map[string]interface{}{}
	if inv.Constraints != nil {
		constraintsVal = inv.Constraints
	}
	constraintsJCS, err := canon.CanonicalJSON(constraintsVal)
	if err != nil {
		return nil, fmt.Errorf("%w: constraints: %v", ErrInvalid, err)
	}
	bootstrapJCS, err := canon.CanonicalJSON(orEmptyObject(inv.Bootstrap))
	if err != nil {
		return nil, fmt.Errorf("%w: bootstrap: %v", ErrInvalid, err)
	}

	iicSig := ""
	if inv.InviteIssuer != nil {
		iicSig = inv.InviteIssuer.Sig
	}
	if inv.IssuerDelegation == nil {
		return nil, fmt.Errorf("%w: missing issuer_delegation", ErrInvalid)
	}

	b := canon.NewBuilder(inviteDomain).
		Int(int64(inv.V)).
		String(inv.SpaceID).
		String(inv.InviteID).
		Int(inv.IssuedTs).
		Int(inv.ExpiresTs).
		String(inv.IssuerPrincipalID).
		String(inv.IssuerDeviceID).
		String(inv.IssuerDevicePub).
		String(inv.IssuerDelegation.Sig).
		String(iicSig).
		Bytes(constraintsJCS).
		Bytes(bootstrapJCS)
	return b.Build(), nil
}

func orEmptyObject(v interface{}) interface{} {
	if v == nil {
		return map[string]interface{}{}
	}
	return v
}

// IssueParams bundles everything IssueInvite needs beyond the
// issuing Identity.
type IssueParams struct {
	SpaceID      string
	InviteIssuer *InviteIssuerCertificate // nil => Space Root path
	Scopes       []string                 // must be a superset of {read}; see ReadScope
	Constraints  *Constraints
	Bootstrap    interface{}
	IssuedTs     int64
	ExpiresTs    int64
}

// IssueInvite signs a new Invite on behalf of issuer's current
// Device, using the Delegation cached for params.SpaceID.
func IssueInvite(issuer *identity.Identity, params IssueParams) (*Invite, error) {
	cert, ok := issuer.CachedDelegation(params.SpaceID)
	if !ok {
		return nil, fmt.Errorf("invite: issuer has no delegation cached for space %s", params.SpaceID)
	}

	scopes := ensureReadScope(params.SpaceID, params.Scopes)

	inv := &Invite{
		V:                 1,
		SpaceID:           params.SpaceID,
		InviteID:          NewInviteID(),
		IssuedTs:          params.IssuedTs,
		ExpiresTs:         params.ExpiresTs,
		IssuerPrincipalID: issuer.PrincipalID,
		IssuerDeviceID:    issuer.DeviceID,
		IssuerDevicePub:   cryptox.Base64(issuer.Device.PublicKey().Bytes()),
		IssuerDelegation:  cert,
		InviteIssuer:      params.InviteIssuer,
		Scopes:            scopes,
		Constraints:       params.Constraints,
		Bootstrap:         params.Bootstrap,
	}

	input, err := inviteSigInput(inv)
	if err != nil {
		return nil, err
	}
	inv.Sig = cryptox.Base64(issuer.Device.Sign(input))

	viaIIC := "false"
	if params.InviteIssuer != nil {
		viaIIC = "true"
	}
	metrics.InvitesIssued.WithLabelValues(viaIIC).Inc()
	return inv, nil
}

func ensureReadScope(spaceID string, scopes []string) []string {
	read := ReadScope(spaceID)
	for _, s := range scopes {
		if s == read {
			return scopes
		}
	}
	return append(append([]string{}, scopes...), read)
}

// Verify runs the full verification chain:
// identities recompute, the issuer delegation's ids match the issuer
// and its signature and validity window hold, the IIC-or-Space-Root
// authorization path checks out, scopes are a subset of any IIC's
// allowed_scopes, and the invite signature verifies under the issuer
// device key. genesis may be nil when the
// verifier has not independently learned the Space's genesis; in
// that case space_id/space_root_pub consistency is checked only
// against the IIC (or, on the Space-Root path, against the invite's
// own issuer_principal_id).
func Verify(inv *Invite, genesis *identity.SpaceGenesis, nowMs int64) error {
	err := verify(inv, genesis, nowMs)
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	metrics.InviteVerifications.WithLabelValues(result).Inc()
	return err
}

func verify(inv *Invite, genesis *identity.SpaceGenesis, nowMs int64) error {
	issuerDevicePub, err := decodeB64PubKey(inv.IssuerDevicePub)
	if err != nil {
		return fmt.Errorf("%w: issuer_device_pub: %v", ErrInvalid, err)
	}
	if !cryptox.VerifyID(inv.IssuerDeviceID, issuerDevicePub) {
		return fmt.Errorf("%w: issuer_device_id", ErrInvalid)
	}
	issuerPrincipalPub, err := identityPrincipalPub(inv)
	if err != nil {
		return err
	}
	if !cryptox.VerifyID(inv.IssuerPrincipalID, issuerPrincipalPub) {
		return fmt.Errorf("%w: issuer_principal_id", ErrInvalid)
	}

	if inv.IssuerDelegation == nil {
		return fmt.Errorf("%w: missing issuer_delegation", ErrInvalid)
	}
	if inv.IssuerDelegation.PrincipalID != inv.IssuerPrincipalID || inv.IssuerDelegation.DeviceID != inv.IssuerDeviceID {
		return fmt.Errorf("%w: issuer_delegation ids mismatch", ErrInvalid)
	}
	// The delegation's own signature must verify under the issuer
	// Principal key: matching ids alone would let anyone pair a known
	// principal_pub with a device key they control.
	if err := inv.IssuerDelegation.Verify(nowMs); err != nil {
		return fmt.Errorf("%w: issuer_delegation: %v", ErrInvalid, err)
	}

	if nowMs > inv.ExpiresTs {
		return ErrExpired
	}

	if inv.InviteIssuer == nil {
		if inv.IssuerPrincipalID != inv.SpaceID {
			return fmt.Errorf("%w: no invite_issuer and issuer is not the Space Root", ErrInvalid)
		}
	} else {
		if inv.InviteIssuer.SpaceID != inv.SpaceID {
			return fmt.Errorf("%w: invite_issuer space_id mismatch", ErrInvalid)
		}
		if inv.InviteIssuer.IssuerPrincipalID != inv.IssuerPrincipalID {
			return fmt.Errorf("%w: invite_issuer does not authorize this issuer", ErrInvalid)
		}
		spaceRootPub, err := resolveSpaceRootPub(inv, genesis)
		if err != nil {
			return err
		}
		if err := inv.InviteIssuer.Verify(spaceRootPub, nowMs); err != nil {
			return err
		}
		if !scopesSubset(inv.Scopes, inv.InviteIssuer.AllowedScopes) {
			return ErrScopeSubset
		}
	}

	if genesis != nil && genesis.SpaceID != inv.SpaceID {
		return fmt.Errorf("%w: space_id does not match genesis", ErrInvalid)
	}

	input, err := inviteSigInput(inv)
	if err != nil {
		return err
	}
	sig, err := cryptox.DecodeBase64(inv.Sig)
	if err != nil {
		return fmt.Errorf("%w: sig encoding: %v", ErrInvalid, err)
	}
	if err := cryptox.Verify(issuerDevicePub, input, sig); err != nil {
		return fmt.Errorf("%w: signature", ErrInvalid)
	}
	return nil
}

func identityPrincipalPub(inv *Invite) (cryptox.PublicKey, error) {
	if inv.IssuerDelegation == nil {
		return cryptox.PublicKey{}, fmt.Errorf("%w: missing issuer_delegation", ErrInvalid)
	}
	pub, err := decodeB64PubKey(inv.IssuerDelegation.PrincipalPub)
	if err != nil {
		return cryptox.PublicKey{}, fmt.Errorf("%w: issuer_delegation.principal_pub: %v", ErrInvalid, err)
	}
	return pub, nil
}

func resolveSpaceRootPub(inv *Invite, genesis *identity.SpaceGenesis) (cryptox.PublicKey, error) {
	if genesis != nil {
		return genesis.SpaceRootPublicKey()
	}
	return decodeB64PubKey(inv.InviteIssuer.SpaceRootPub)
}

func scopesSubset(scopes, allowed []string) bool {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, s := range allowed {
		allowedSet[s] = struct{}{}
	}
	for _, s := range scopes {
		if _, ok := allowedSet[s]; !ok {
			return false
		}
	}
	return true
}

// CheckBoundPrincipal enforces constraints.bound_principal_id, if
// present.
func CheckBoundPrincipal(inv *Invite, joinerPrincipalID string) error {
	if inv.Constraints == nil || inv.Constraints.BoundPrincipalID == "" {
		return nil
	}
	if inv.Constraints.BoundPrincipalID != joinerPrincipalID {
		return ErrBoundToOther
	}
	return nil
}

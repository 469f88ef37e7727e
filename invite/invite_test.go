package invite

import (
	"testing"

	"github.com/p2pspace/core/cryptox"
	"github.com/p2pspace/core/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = int64(24 * 3600 * 1000)

func newSpace(t *testing.T, now int64) (*identity.Identity, *identity.SpaceGenesis) {
	t.Helper()
	root, err := identity.CreateIdentity()
	require.NoError(t, err)
	genesis := identity.SignSpaceGenesis(root.Principal, now, "test")
	require.NoError(t, genesis.Verify())
	_, err = root.EnsureDelegationForSpace(genesis.SpaceID, now)
	require.NoError(t, err)
	return root, genesis
}

func TestIssueAndVerifySpaceRootInvite(t *testing.T) {
	now := int64(1_700_000_000_000)
	root, genesis := newSpace(t, now)

	inv, err := IssueInvite(root, IssueParams{
		SpaceID:   genesis.SpaceID,
		Scopes:    []string{ReadScope(genesis.SpaceID), identity.SpaceScope(genesis.SpaceID, "post")},
		IssuedTs:  now,
		ExpiresTs: now + day,
	})
	require.NoError(t, err)
	require.NoError(t, Verify(inv, genesis, now))
	assert.True(t, identity.HasScope(inv.Scopes, ReadScope(genesis.SpaceID)))
}

func TestVerifyRejectsExpiredInvite(t *testing.T) {
	now := int64(1_700_000_000_000)
	root, genesis := newSpace(t, now)
	inv, err := IssueInvite(root, IssueParams{
		SpaceID:   genesis.SpaceID,
		Scopes:    []string{ReadScope(genesis.SpaceID)},
		IssuedTs:  now,
		ExpiresTs: now + 1000,
	})
	require.NoError(t, err)
	assert.ErrorIs(t, Verify(inv, genesis, now+1001), ErrExpired)
}

func TestVerifyRejectsTamperedInvite(t *testing.T) {
	now := int64(1_700_000_000_000)
	root, genesis := newSpace(t, now)
	inv, err := IssueInvite(root, IssueParams{
		SpaceID:   genesis.SpaceID,
		Scopes:    []string{ReadScope(genesis.SpaceID)},
		IssuedTs:  now,
		ExpiresTs: now + day,
	})
	require.NoError(t, err)
	inv.ExpiresTs += day
	assert.Error(t, Verify(inv, genesis, now))
}

func TestIICPathScopeSubsetEnforced(t *testing.T) {
	now := int64(1_700_000_000_000)
	root, genesis := newSpace(t, now)

	issuer, err := identity.CreateIdentity()
	require.NoError(t, err)
	_, err = issuer.EnsureDelegationForSpace(genesis.SpaceID, now)
	require.NoError(t, err)

	iic := SignIIC(root.Principal, genesis.SpaceID, issuer.PrincipalID, issuer.Principal.PublicKey(),
		now, now+day, []string{ReadScope(genesis.SpaceID), identity.SpaceScope(genesis.SpaceID, "post")})

	okInv, err := IssueInvite(issuer, IssueParams{
		SpaceID:      genesis.SpaceID,
		InviteIssuer: iic,
		Scopes:       []string{ReadScope(genesis.SpaceID)},
		IssuedTs:     now,
		ExpiresTs:    now + day,
	})
	require.NoError(t, err)
	require.NoError(t, Verify(okInv, genesis, now))

	tooWideInv, err := IssueInvite(issuer, IssueParams{
		SpaceID:      genesis.SpaceID,
		InviteIssuer: iic,
		Scopes:       []string{ReadScope(genesis.SpaceID), identity.SpaceScope(genesis.SpaceID, "governance")},
		IssuedTs:     now,
		ExpiresTs:    now + day,
	})
	require.NoError(t, err)
	assert.ErrorIs(t, Verify(tooWideInv, genesis, now), ErrScopeSubset)
}

func TestVerifyRejectsNonRootWithoutIIC(t *testing.T) {
	now := int64(1_700_000_000_000)
	_, genesis := newSpace(t, now)

	impostor, err := identity.CreateIdentity()
	require.NoError(t, err)
	_, err = impostor.EnsureDelegationForSpace(genesis.SpaceID, now)
	require.NoError(t, err)

	inv, err := IssueInvite(impostor, IssueParams{
		SpaceID:   genesis.SpaceID,
		Scopes:    []string{ReadScope(genesis.SpaceID)},
		IssuedTs:  now,
		ExpiresTs: now + day,
	})
	require.NoError(t, err)
	assert.ErrorIs(t, Verify(inv, genesis, now), ErrInvalid)
}

func TestBoundPrincipal(t *testing.T) {
	now := int64(1_700_000_000_000)
	root, genesis := newSpace(t, now)
	joiner, err := identity.CreateIdentity()
	require.NoError(t, err)

	inv, err := IssueInvite(root, IssueParams{
		SpaceID:     genesis.SpaceID,
		Scopes:      []string{ReadScope(genesis.SpaceID)},
		Constraints: &Constraints{BoundPrincipalID: joiner.PrincipalID},
		IssuedTs:    now,
		ExpiresTs:   now + day,
	})
	require.NoError(t, err)
	require.NoError(t, Verify(inv, genesis, now))

	require.NoError(t, CheckBoundPrincipal(inv, joiner.PrincipalID))
	other, err := identity.CreateIdentity()
	require.NoError(t, err)
	assert.ErrorIs(t, CheckBoundPrincipal(inv, other.PrincipalID), ErrBoundToOther)
}

func TestProofOfWork(t *testing.T) {
	req := &PoWRequirement{Bits: 8, ExpiresTs: 1_700_000_100_000}
	nonce, ok := SolvePoW("invite-1", "ed25519:joiner", req, 1<<20)
	require.True(t, ok)
	require.NoError(t, VerifyPoW("invite-1", "ed25519:joiner", req, nonce, 1_700_000_000_000))
	assert.ErrorIs(t, VerifyPoW("invite-1", "ed25519:joiner", req, nonce, 1_700_000_200_000), ErrPoWExpired)
	assert.ErrorIs(t, VerifyPoW("invite-1", "ed25519:joiner", req, []byte{0xff, 0xff, 0xff, 0xff}, 1_700_000_000_000), ErrPoWInvalid)
}

func TestVerifyRejectsForgedIssuerDelegation(t *testing.T) {
	now := int64(1_700_000_000_000)
	_, genesis := newSpace(t, now)

	// An attacker pairs the public root key with a device they
	// control, under a delegation the root never signed.
	attacker, err := identity.CreateIdentity()
	require.NoError(t, err)
	forged := &identity.DelegationCert{
		V:            1,
		PrincipalID:  genesis.SpaceID,
		PrincipalPub: genesis.SpaceRootPub,
		DeviceID:     attacker.DeviceID,
		DevicePub:    cryptox.Base64(attacker.Device.PublicKey().Bytes()),
		NotBeforeTs:  now - day,
		ExpiresTs:    now + day,
		Scopes:       []string{identity.SpaceScope(genesis.SpaceID, "governance")},
		Sig:          cryptox.Base64(make([]byte, 64)),
	}

	inv := &Invite{
		V:                 1,
		SpaceID:           genesis.SpaceID,
		InviteID:          NewInviteID(),
		IssuedTs:          now,
		ExpiresTs:         now + day,
		IssuerPrincipalID: genesis.SpaceID,
		IssuerDeviceID:    attacker.DeviceID,
		IssuerDevicePub:   cryptox.Base64(attacker.Device.PublicKey().Bytes()),
		IssuerDelegation:  forged,
		Scopes:            []string{ReadScope(genesis.SpaceID)},
	}
	input, err := inviteSigInput(inv)
	require.NoError(t, err)
	inv.Sig = cryptox.Base64(attacker.Device.Sign(input))

	assert.ErrorIs(t, Verify(inv, genesis, now), ErrInvalid)
	assert.ErrorIs(t, Verify(inv, nil, now), ErrInvalid)
}

func TestVerifyRejectsSelfSignedIICForForeignSpace(t *testing.T) {
	now := int64(1_700_000_000_000)
	_, victimGenesis := newSpace(t, now)

	// The attacker signs an IIC under their own root key but names
	// the victim's space_id.
	attackerRoot, err := identity.CreateIdentity()
	require.NoError(t, err)
	issuer, err := identity.CreateIdentity()
	require.NoError(t, err)
	_, err = issuer.EnsureDelegationForSpace(victimGenesis.SpaceID, now)
	require.NoError(t, err)

	iic := SignIIC(attackerRoot.Principal, victimGenesis.SpaceID, issuer.PrincipalID, issuer.Principal.PublicKey(),
		now, now+day, []string{ReadScope(victimGenesis.SpaceID)})
	assert.ErrorIs(t, iic.Verify(attackerRoot.Principal.PublicKey(), now), ErrInvalid)

	inv, err := IssueInvite(issuer, IssueParams{
		SpaceID:      victimGenesis.SpaceID,
		InviteIssuer: iic,
		Scopes:       []string{ReadScope(victimGenesis.SpaceID)},
		IssuedTs:     now,
		ExpiresTs:    now + day,
	})
	require.NoError(t, err)

	// Rejected even when the verifier holds no genesis record.
	assert.ErrorIs(t, Verify(inv, nil, now), ErrInvalid)
	assert.ErrorIs(t, Verify(inv, victimGenesis, now), ErrInvalid)
}

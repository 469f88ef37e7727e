package identity

import (
	"testing"

	"github.com/p2pspace/core/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = int64(24 * 3600 * 1000)

func TestCreateIdentityDerivesIDs(t *testing.T) {
	id, err := CreateIdentity()
	require.NoError(t, err)

	assert.True(t, id.Principal != nil && id.Device != nil)
	assert.Equal(t, id.PrincipalID[:8], "ed25519:")
	assert.NotEqual(t, id.PrincipalID, id.DeviceID)
}

func TestEnsureDelegationForSpaceCachesAndReuses(t *testing.T) {
	id, err := CreateIdentity()
	require.NoError(t, err)

	now := int64(1_700_000_000_000)
	cert, err := id.EnsureDelegationForSpace("ed25519:AAA", now)
	require.NoError(t, err)
	require.NoError(t, cert.Verify(now))

	again, err := id.EnsureDelegationForSpace("ed25519:AAA", now+1000)
	require.NoError(t, err)
	assert.Same(t, cert, again)

	assert.True(t, HasScope(cert.Scopes, SpaceScope("ed25519:AAA", ScopeJoin)))
	assert.True(t, HasScope(cert.Scopes, SpaceScope("ed25519:AAA", ScopePost)))
	assert.True(t, HasScope(cert.Scopes, SpaceScope("ed25519:AAA", ScopeGovernance)))
}

func TestEnsureDelegationForSpaceRenewsNearExpiry(t *testing.T) {
	id, err := CreateIdentity()
	require.NoError(t, err)

	now := int64(1_700_000_000_000)
	first, err := id.EnsureDelegationForSpace("ed25519:AAA", now)
	require.NoError(t, err)

	laterNow := first.ExpiresTs - 1000 // inside the 1-minute renew window
	renewed, err := id.EnsureDelegationForSpace("ed25519:AAA", laterNow)
	require.NoError(t, err)
	assert.NotSame(t, first, renewed)
}

func TestDelegationVerifyWindowBoundaries(t *testing.T) {
	id, err := CreateIdentity()
	require.NoError(t, err)

	now := int64(1_700_000_000_000)
	cert, err := SignDelegation(id.Principal, id.PrincipalID, id.DeviceID, id.Device.PublicKey(),
		now, now+day, []string{"space:x:post"})
	require.NoError(t, err)

	require.NoError(t, cert.Verify(now-ClockSkew))
	require.NoError(t, cert.Verify(now+day+ClockSkew))
	assert.ErrorIs(t, cert.Verify(now-ClockSkew-1), ErrDelegationWindow)
	assert.ErrorIs(t, cert.Verify(now+day+ClockSkew+1), ErrDelegationWindow)
}

func TestDelegationVerifyScopeMissing(t *testing.T) {
	id, err := CreateIdentity()
	require.NoError(t, err)
	now := int64(1_700_000_000_000)
	cert, err := SignDelegation(id.Principal, id.PrincipalID, id.DeviceID, id.Device.PublicKey(),
		now, now+day, []string{"space:x:post"})
	require.NoError(t, err)

	assert.ErrorIs(t, cert.VerifyScope(now, "space:x:governance"), ErrScopeMissing)
	require.NoError(t, cert.VerifyScope(now, "space:x:post"))
}

func TestDelegationTamperedSignatureRejected(t *testing.T) {
	id, err := CreateIdentity()
	require.NoError(t, err)
	now := int64(1_700_000_000_000)
	cert, err := SignDelegation(id.Principal, id.PrincipalID, id.DeviceID, id.Device.PublicKey(),
		now, now+day, []string{"space:x:post"})
	require.NoError(t, err)

	cert.Scopes = append(cert.Scopes, "space:x:governance")
	assert.Error(t, cert.Verify(now))
}

func TestSpaceGenesisRoundTrip(t *testing.T) {
	root, err := CreateIdentity()
	require.NoError(t, err)
	g := SignSpaceGenesis(root.Principal, 1_700_000_000_000, "test")
	require.NoError(t, g.Verify())
	assert.Equal(t, cryptox.IDFromSPKI(root.Principal.PublicKey()), g.SpaceID)
}

func TestSpaceGenesisRejectsMismatchedID(t *testing.T) {
	root, err := CreateIdentity()
	require.NoError(t, err)
	g := SignSpaceGenesis(root.Principal, 1_700_000_000_000, "test")
	g.SpaceID = "ed25519:bogus"
	assert.ErrorIs(t, g.Verify(), ErrIdentityMismatch)
}

func TestPeerRecordRoundTrip(t *testing.T) {
	id, err := CreateIdentity()
	require.NoError(t, err)
	now := int64(1_700_000_000_000)
	_, err = id.EnsureDelegationForSpace("ed25519:space1", now)
	require.NoError(t, err)

	rec, err := SignPeerRecord(id, "ed25519:space1", now, now+day, map[string]interface{}{"relay": "wss://example"})
	require.NoError(t, err)
	require.NoError(t, rec.Verify(now))
}

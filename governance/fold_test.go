package governance

import (
	"testing"

	"github.com/p2pspace/core/event"
	"github.com/p2pspace/core/identity"
	"github.com/p2pspace/core/invite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSpace(t *testing.T, now int64) (*identity.Identity, *identity.SpaceGenesis) {
	t.Helper()
	root, err := identity.CreateIdentity()
	require.NoError(t, err)
	genesis := identity.SignSpaceGenesis(root.Principal, now, "test")
	require.NoError(t, genesis.Verify())
	_, err = root.EnsureDelegationForSpace(genesis.SpaceID, now)
	require.NoError(t, err)
	return root, genesis
}

func joinEvent(t *testing.T, root *identity.Identity, genesis *identity.SpaceGenesis, joiner *identity.Identity, now int64) *event.Event {
	t.Helper()
	inv, err := invite.IssueInvite(root, invite.IssueParams{
		SpaceID:   genesis.SpaceID,
		Scopes:    []string{invite.ReadScope(genesis.SpaceID), identity.SpaceScope(genesis.SpaceID, "post")},
		IssuedTs:  now,
		ExpiresTs: now + 86_400_000,
	})
	require.NoError(t, err)

	cert, err := joiner.EnsureDelegationForSpace(genesis.SpaceID, now)
	require.NoError(t, err)

	body := MemberJoinBody{
		PrincipalID:  joiner.PrincipalID,
		PrincipalPub: cert.PrincipalPub,
		Invite:       inv,
	}
	e, err := event.Create(joiner, genesis.SpaceID, event.GovernanceRoomID, event.KindMemberJoin, nil, body, now)
	require.NoError(t, err)
	return e
}

func TestFoldAdmitsValidJoin(t *testing.T) {
	now := int64(1_700_000_000_000)
	root, genesis := setupSpace(t, now)
	joiner, err := identity.CreateIdentity()
	require.NoError(t, err)

	e := joinEvent(t, root, genesis, joiner, now)
	state := Fold([]*event.Event{e}, genesis)
	assert.True(t, state.IsMember(joiner.PrincipalID))
	assert.False(t, state.IsBanned(joiner.PrincipalID))
}

func TestFoldRejectsJoinWithMismatchedPrincipal(t *testing.T) {
	now := int64(1_700_000_000_000)
	root, genesis := setupSpace(t, now)
	joiner, err := identity.CreateIdentity()
	require.NoError(t, err)
	impostor, err := identity.CreateIdentity()
	require.NoError(t, err)

	e := joinEvent(t, root, genesis, joiner, now)
	// Tamper with body.principal_id after the fact.
	body := e.Body.(MemberJoinBody)
	body.PrincipalID = impostor.PrincipalID
	e.Body = body

	state := Fold([]*event.Event{e}, genesis)
	assert.False(t, state.IsMember(impostor.PrincipalID))
	assert.False(t, state.IsMember(joiner.PrincipalID))
}

func TestFoldBanAndUnban(t *testing.T) {
	now := int64(1_700_000_000_000)
	root, genesis := setupSpace(t, now)
	joiner, err := identity.CreateIdentity()
	require.NoError(t, err)
	joinE := joinEvent(t, root, genesis, joiner, now)

	banE, err := event.Create(root, genesis.SpaceID, event.GovernanceRoomID, event.KindMemberBan,
		[]string{joinE.EventID}, MemberBanBody{PrincipalID: joiner.PrincipalID}, now+1)
	require.NoError(t, err)

	state := Fold([]*event.Event{joinE, banE}, genesis)
	assert.True(t, state.IsMember(joiner.PrincipalID))
	assert.True(t, state.IsBanned(joiner.PrincipalID))

	unbanE, err := event.Create(root, genesis.SpaceID, event.GovernanceRoomID, event.KindMemberUnban,
		[]string{banE.EventID}, MemberBanBody{PrincipalID: joiner.PrincipalID}, now+2)
	require.NoError(t, err)
	state = Fold([]*event.Event{joinE, banE, unbanE}, genesis)
	assert.False(t, state.IsBanned(joiner.PrincipalID))
}

func TestFoldIgnoresUnknownKinds(t *testing.T) {
	now := int64(1_700_000_000_000)
	root, genesis := setupSpace(t, now)
	e, err := event.Create(root, genesis.SpaceID, event.GovernanceRoomID, event.KindRoleDefine, nil, map[string]interface{}{"role": "mod"}, now)
	require.NoError(t, err)
	state := Fold([]*event.Event{e}, genesis)
	assert.Empty(t, state.Members)
	assert.Empty(t, state.Banned)
}

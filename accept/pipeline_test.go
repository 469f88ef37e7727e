package accept

import (
	"encoding/json"
	"testing"

	"github.com/p2pspace/core/event"
	"github.com/p2pspace/core/governance"
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

func wireSize(t *testing.T, e *event.Event) int {
	t.Helper()
	raw, err := json.Marshal(e)
	require.NoError(t, err)
	return len(raw)
}

func TestAcceptJoinEvent(t *testing.T) {
	now := int64(1_700_000_000_000)
	root, genesis := setupSpace(t, now)
	joiner, err := identity.CreateIdentity()
	require.NoError(t, err)

	inv, err := invite.IssueInvite(root, invite.IssueParams{
		SpaceID:   genesis.SpaceID,
		Scopes:    []string{invite.ReadScope(genesis.SpaceID), identity.SpaceScope(genesis.SpaceID, "post")},
		IssuedTs:  now,
		ExpiresTs: now + 86_400_000,
	})
	require.NoError(t, err)
	cert, err := joiner.EnsureDelegationForSpace(genesis.SpaceID, now)
	require.NoError(t, err)

	body := governance.MemberJoinBody{PrincipalID: joiner.PrincipalID, PrincipalPub: cert.PrincipalPub, Invite: inv}
	e, err := event.Create(joiner, genesis.SpaceID, event.GovernanceRoomID, event.KindMemberJoin, nil, body, now)
	require.NoError(t, err)

	err = Accept(e, genesis, governance.NewState(), DefaultLimits(), wireSize(t, e), now)
	assert.NoError(t, err)
}

func TestAcceptRejectsNonMemberPost(t *testing.T) {
	now := int64(1_700_000_000_000)
	_, genesis := setupSpace(t, now)
	stranger, err := identity.CreateIdentity()
	require.NoError(t, err)
	_, err = stranger.EnsureDelegationForSpace(genesis.SpaceID, now)
	require.NoError(t, err)

	e, err := event.Create(stranger, genesis.SpaceID, "general", event.KindMsgPost, nil, map[string]interface{}{"text": "hi"}, now)
	require.NoError(t, err)

	err = Accept(e, genesis, governance.NewState(), DefaultLimits(), wireSize(t, e), now)
	var acceptErr *Error
	require.ErrorAs(t, err, &acceptErr)
	assert.Equal(t, CodeNotAMember, acceptErr.Code)
}

func TestAcceptAllowsPostAfterJoinRejectsAfterBan(t *testing.T) {
	now := int64(1_700_000_000_000)
	_, genesis := setupSpace(t, now)
	member, err := identity.CreateIdentity()
	require.NoError(t, err)
	_, err = member.EnsureDelegationForSpace(genesis.SpaceID, now)
	require.NoError(t, err)

	state := governance.NewState()
	state.Members[member.PrincipalID] = struct{}{}

	e, err := event.Create(member, genesis.SpaceID, "general", event.KindMsgPost, nil, map[string]interface{}{"text": "hi"}, now)
	require.NoError(t, err)
	assert.NoError(t, Accept(e, genesis, state, DefaultLimits(), wireSize(t, e), now))

	state.Banned[member.PrincipalID] = struct{}{}
	e2, err := event.Create(member, genesis.SpaceID, "general", event.KindMsgPost, []string{e.EventID}, map[string]interface{}{"text": "again"}, now+1)
	require.NoError(t, err)
	err = Accept(e2, genesis, state, DefaultLimits(), wireSize(t, e2), now+1)
	var acceptErr *Error
	require.ErrorAs(t, err, &acceptErr)
	assert.Equal(t, CodeBanned, acceptErr.Code)
}

func TestAcceptRejectsOversizedMessageText(t *testing.T) {
	now := int64(1_700_000_000_000)
	_, genesis := setupSpace(t, now)
	member, err := identity.CreateIdentity()
	require.NoError(t, err)
	_, err = member.EnsureDelegationForSpace(genesis.SpaceID, now)
	require.NoError(t, err)

	longText := make([]byte, 2001)
	for i := range longText {
		longText[i] = 'x'
	}
	e, err := event.Create(member, genesis.SpaceID, "general", event.KindMsgPost, nil, map[string]interface{}{"text": string(longText)}, now)
	require.NoError(t, err)

	state := governance.NewState()
	state.Members[member.PrincipalID] = struct{}{}
	err = Accept(e, genesis, state, DefaultLimits(), wireSize(t, e), now)
	var acceptErr *Error
	require.ErrorAs(t, err, &acceptErr)
	assert.Equal(t, CodeLimitsExceeded, acceptErr.Code)
}

func TestAcceptRejectsDelegationOutsideWindow(t *testing.T) {
	now := int64(1_700_000_000_000)
	_, genesis := setupSpace(t, now)
	member, err := identity.CreateIdentity()
	require.NoError(t, err)
	_, err = member.EnsureDelegationForSpace(genesis.SpaceID, now)
	require.NoError(t, err)

	e, err := event.Create(member, genesis.SpaceID, "general", event.KindMsgPost, nil, map[string]interface{}{"text": "hi"}, now)
	require.NoError(t, err)

	state := governance.NewState()
	state.Members[member.PrincipalID] = struct{}{}
	farFuture := now + 31*24*3600*1000 + identity.ClockSkew + 1
	err = Accept(e, genesis, state, DefaultLimits(), wireSize(t, e), farFuture)
	var acceptErr *Error
	require.ErrorAs(t, err, &acceptErr)
	assert.Equal(t, CodeDelegationWindow, acceptErr.Code)
}

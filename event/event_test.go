package event

import (
	"testing"

	"github.com/p2pspace/core/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSpace(t *testing.T, now int64) (*identity.Identity, *identity.SpaceGenesis) {
	t.Helper()
	root, err := identity.CreateIdentity()
	require.NoError(t, err)
	genesis := identity.SignSpaceGenesis(root.Principal, now, "test")
	require.NoError(t, genesis.Verify())
	_, err = root.EnsureDelegationForSpace(genesis.SpaceID, now)
	require.NoError(t, err)
	return root, genesis
}

func TestCreateAndVerifySelf(t *testing.T) {
	now := int64(1_700_000_000_000)
	root, genesis := newTestSpace(t, now)

	e, err := Create(root, genesis.SpaceID, GovernanceRoomID, KindMemberJoin, nil, nil, now)
	require.NoError(t, err)
	assert.NoError(t, VerifySelf(e))
	assert.NotEmpty(t, e.EventID)
	assert.Equal(t, DeriveEventID(e), e.EventID)
}

func TestVerifySelfRejectsTamperedBody(t *testing.T) {
	now := int64(1_700_000_000_000)
	root, genesis := newTestSpace(t, now)

	e, err := Create(root, genesis.SpaceID, "general", KindMsgPost, nil, map[string]interface{}{"text": "hi"}, now)
	require.NoError(t, err)
	require.NoError(t, VerifySelf(e))

	e.Body = map[string]interface{}{"text": "tampered"}
	assert.ErrorIs(t, VerifySelf(e), ErrEventID)
}

func TestCreateRejectsTooManyParents(t *testing.T) {
	now := int64(1_700_000_000_000)
	root, genesis := newTestSpace(t, now)

	prev := make([]string, MaxParents+1)
	for i := range prev {
		prev[i] = "e:x"
	}
	_, err := Create(root, genesis.SpaceID, "general", KindMsgPost, prev, nil, now)
	assert.ErrorIs(t, err, ErrTooManyParents)
}

func TestSelectParentsSortsAndCaps(t *testing.T) {
	heads := []string{"e:c", "e:a", "e:b"}
	got := SelectParents(heads)
	assert.Equal(t, []string{"e:a", "e:b", "e:c"}, got)

	many := make([]string, MaxParents+5)
	for i := range many {
		many[i] = string(rune('a' + i))
	}
	capped := SelectParents(many)
	assert.Len(t, capped, MaxParents)
}

func TestRequiredScope(t *testing.T) {
	assert.Equal(t, "space:s1:join", RequiredScope("s1", KindMemberJoin))
	assert.Equal(t, "space:s1:post", RequiredScope("s1", KindMsgPost))
	assert.Equal(t, "space:s1:governance", RequiredScope("s1", KindMemberBan))
}

func TestDAGHeadsAndTopoSort(t *testing.T) {
	now := int64(1_700_000_000_000)
	root, genesis := newTestSpace(t, now)
	d := NewDAG("general")

	e1, err := Create(root, genesis.SpaceID, "general", KindMsgPost, nil, nil, now)
	require.NoError(t, err)
	require.NoError(t, d.Add(e1))
	assert.Equal(t, []string{e1.EventID}, d.Heads())

	e2, err := Create(root, genesis.SpaceID, "general", KindMsgPost, []string{e1.EventID}, nil, now+1)
	require.NoError(t, err)
	require.NoError(t, d.Add(e2))
	assert.Equal(t, []string{e2.EventID}, d.Heads())

	order := d.TopoSort()
	require.Len(t, order, 2)
	assert.Equal(t, e1.EventID, order[0].EventID)
	assert.Equal(t, e2.EventID, order[1].EventID)
}

func TestDAGAddRejectsUnknownParent(t *testing.T) {
	d := NewDAG("general")
	now := int64(1_700_000_000_000)
	root, genesis := newTestSpace(t, now)
	e, err := Create(root, genesis.SpaceID, "general", KindMsgPost, []string{"e:missing"}, nil, now)
	require.NoError(t, err)
	assert.ErrorIs(t, d.Add(e), ErrUnknownEvent)
	assert.Equal(t, []string{"e:missing"}, d.MissingParents(e))
}

func TestDAGAddIsIdempotent(t *testing.T) {
	d := NewDAG("general")
	now := int64(1_700_000_000_000)
	root, genesis := newTestSpace(t, now)
	e, err := Create(root, genesis.SpaceID, "general", KindMsgPost, nil, nil, now)
	require.NoError(t, err)
	require.NoError(t, d.Add(e))
	require.NoError(t, d.Add(e))
	assert.Equal(t, 1, d.Len())
}

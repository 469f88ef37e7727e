package syncproto

import (
	"testing"

	"github.com/p2pspace/core/event"
	"github.com/p2pspace/core/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdentityAndDAG(t *testing.T, now int64) (*identity.Identity, *identity.SpaceGenesis, *event.DAG) {
	t.Helper()
	root, err := identity.CreateIdentity()
	require.NoError(t, err)
	genesis := identity.SignSpaceGenesis(root.Principal, now, "test")
	_, err = root.EnsureDelegationForSpace(genesis.SpaceID, now)
	require.NoError(t, err)
	return root, genesis, event.NewDAG("general")
}

func noopAccept(*event.Event) error { return nil }

func TestSessionOpenSendsHelloThenHeads(t *testing.T) {
	now := int64(1_700_000_000_000)
	_, genesis, dag := newIdentityAndDAG(t, now)
	var sent []Frame
	sess := NewSession(Config{
		SpaceID: genesis.SpaceID, RoomID: "general", Log: dag, Accept: noopAccept,
		Send: func(f Frame) error { sent = append(sent, f); return nil },
	})
	require.NoError(t, sess.Open())
	require.Len(t, sent, 2)
	assert.Equal(t, TypeHello, sent[0].T)
	assert.Equal(t, TypeHeads, sent[1].T)
}

func TestHandleHeadsRequestsUnknownIDs(t *testing.T) {
	now := int64(1_700_000_000_000)
	_, genesis, dag := newIdentityAndDAG(t, now)
	var sent []Frame
	sess := NewSession(Config{
		SpaceID: genesis.SpaceID, RoomID: "general", Log: dag, Accept: noopAccept,
		Send: func(f Frame) error { sent = append(sent, f); return nil },
	})

	err := sess.HandleFrame(HeadsFrame(genesis.SpaceID, "general", []string{"e:unknown"}))
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, TypeWant, sent[0].T)
	assert.Equal(t, []string{"e:unknown"}, sent[0].IDs)
}

func TestHandleWantRepliesWithKnownEvents(t *testing.T) {
	now := int64(1_700_000_000_000)
	root, genesis, dag := newIdentityAndDAG(t, now)
	e, err := event.Create(root, genesis.SpaceID, "general", event.KindMsgPost, nil, map[string]interface{}{"text": "hi"}, now)
	require.NoError(t, err)
	require.NoError(t, dag.Add(e))

	var sent []Frame
	sess := NewSession(Config{
		SpaceID: genesis.SpaceID, RoomID: "general", Log: dag, Accept: noopAccept,
		Send: func(f Frame) error { sent = append(sent, f); return nil },
	})
	err = sess.HandleFrame(WantFrame(genesis.SpaceID, "general", []string{e.EventID, "e:missing"}))
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, TypeHave, sent[0].T)
	require.Len(t, sent[0].Events, 1)
	assert.Equal(t, e.EventID, sent[0].Events[0].EventID)
}

func TestHandleHaveAcceptsAndGapFills(t *testing.T) {
	now := int64(1_700_000_000_000)
	root, genesis, dag := newIdentityAndDAG(t, now)
	e1, err := event.Create(root, genesis.SpaceID, "general", event.KindMsgPost, nil, map[string]interface{}{"text": "1"}, now)
	require.NoError(t, err)
	e2, err := event.Create(root, genesis.SpaceID, "general", event.KindMsgPost, []string{e1.EventID}, map[string]interface{}{"text": "2"}, now+1)
	require.NoError(t, err)

	var sent []Frame
	sess := NewSession(Config{
		SpaceID: genesis.SpaceID, RoomID: "general", Log: dag, Accept: noopAccept,
		Send: func(f Frame) error { sent = append(sent, f); return nil },
	})

	// e2 arrives first; its parent e1 is missing, so it should be
	// queued rather than rejected outright, and the gap requested
	// immediately.
	require.NoError(t, sess.HandleFrame(HaveFrame(genesis.SpaceID, "general", []*event.Event{e2})))
	assert.False(t, dag.Has(e2.EventID))
	assert.Contains(t, sess.MissingAncestors(), e1.EventID)
	require.NotEmpty(t, sent)
	assert.Equal(t, TypeWant, sent[len(sent)-1].T)
	assert.Equal(t, []string{e1.EventID}, sent[len(sent)-1].IDs)

	// e1 arrives next; the drain should pick up e2 automatically.
	require.NoError(t, sess.HandleFrame(HaveFrame(genesis.SpaceID, "general", []*event.Event{e1})))
	assert.True(t, dag.Has(e1.EventID))
	assert.True(t, dag.Has(e2.EventID))
	assert.Empty(t, sess.MissingAncestors())
}

func TestNotifyLocalEventEmitsHave(t *testing.T) {
	now := int64(1_700_000_000_000)
	root, genesis, dag := newIdentityAndDAG(t, now)
	e, err := event.Create(root, genesis.SpaceID, "general", event.KindMsgPost, nil, nil, now)
	require.NoError(t, err)

	var sent []Frame
	sess := NewSession(Config{
		SpaceID: genesis.SpaceID, RoomID: "general", Log: dag, Accept: noopAccept,
		Send: func(f Frame) error { sent = append(sent, f); return nil },
	})
	require.NoError(t, sess.NotifyLocalEvent(e))
	require.Len(t, sent, 1)
	assert.Equal(t, TypeHave, sent[0].T)
	assert.Equal(t, e.EventID, sent[0].Events[0].EventID)
}

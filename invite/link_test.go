package invite

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInviteLinkRoundTrip(t *testing.T) {
	now := int64(1_700_000_000_000)
	root, genesis := newSpace(t, now)
	inv, err := IssueInvite(root, IssueParams{
		SpaceID:   genesis.SpaceID,
		Scopes:    []string{ReadScope(genesis.SpaceID)},
		Bootstrap: map[string]interface{}{"relays": []interface{}{"signal-ws:wss://relay.example#sid=abc123"}},
		IssuedTs:  now,
		ExpiresTs: now + day,
	})
	require.NoError(t, err)

	link, err := EncodeLink(inv, "https://app.example/join")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "https://app.example/join#invite="))

	parsed, err := ParseLink(link)
	require.NoError(t, err)
	assert.Equal(t, inv.InviteID, parsed.InviteID)
	assert.Equal(t, inv.Sig, parsed.Sig)

	// The decoded capability still verifies end to end.
	require.NoError(t, Verify(parsed, genesis, now))
}

func TestEncodeLinkReplacesExistingFragment(t *testing.T) {
	now := int64(1_700_000_000_000)
	root, genesis := newSpace(t, now)
	inv, err := IssueInvite(root, IssueParams{
		SpaceID:   genesis.SpaceID,
		Scopes:    []string{ReadScope(genesis.SpaceID)},
		IssuedTs:  now,
		ExpiresTs: now + day,
	})
	require.NoError(t, err)

	link, err := EncodeLink(inv, "https://app.example/join#stale")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(link, "#"))
}

func TestParseLinkAcceptsBareCode(t *testing.T) {
	now := int64(1_700_000_000_000)
	root, genesis := newSpace(t, now)
	inv, err := IssueInvite(root, IssueParams{
		SpaceID:   genesis.SpaceID,
		Scopes:    []string{ReadScope(genesis.SpaceID)},
		IssuedTs:  now,
		ExpiresTs: now + day,
	})
	require.NoError(t, err)

	link, err := EncodeLink(inv, "https://app.example/join")
	require.NoError(t, err)
	code := link[strings.Index(link, "#invite=")+len("#invite="):]

	parsed, err := ParseLink(code)
	require.NoError(t, err)
	assert.Equal(t, inv.InviteID, parsed.InviteID)
}

func TestParseLinkRejectsGarbage(t *testing.T) {
	_, err := ParseLink("https://app.example/join#invite=!!!")
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = ParseLink("https://app.example/join")
	assert.ErrorIs(t, err, ErrInvalid)
}

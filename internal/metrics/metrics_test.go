package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersIncrement(t *testing.T) {
	EventsAccepted.WithLabelValues("governance", "MEMBER_JOIN").Inc()
	EventsRejected.WithLabelValues("banned").Inc()
	InvitesIssued.WithLabelValues("false").Inc()
	InviteVerifications.WithLabelValues("ok").Inc()
	SyncFramesReceived.WithLabelValues("heads").Inc()
	SyncRateLimited.WithLabelValues("messages").Inc()
	SyncPendingOrphans.WithLabelValues("general").Set(3)

	metrics, err := Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, metrics)
}

func TestHandlerServesExposition(t *testing.T) {
	EventsAccepted.WithLabelValues("governance", "MEMBER_BAN").Inc()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler().ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "p2pspace_accept_events_accepted_total")
}

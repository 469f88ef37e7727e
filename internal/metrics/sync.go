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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncFramesReceived counts inbound syncproto frames by type
	// (hello, heads, want, have).
	SyncFramesReceived = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "frames_received_total",
			Help:      "Total number of sync frames received, by frame type",
		},
		[]string{"type"},
	)

	// SyncFramesSent mirrors SyncFramesReceived for the send path.
	SyncFramesSent = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "frames_sent_total",
			Help:      "Total number of sync frames sent, by frame type",
		},
		[]string{"type"},
	)

	// SyncRateLimited counts frames dropped by either of the two
	// per-peer token buckets.
	SyncRateLimited = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "rate_limited_total",
			Help:      "Total number of frames dropped by per-peer rate limiting",
		},
		[]string{"bucket"}, // messages, verifications
	)

	// SyncPendingOrphans tracks the current size of a session's
	// gap-fill buffer (events whose parents haven't arrived yet).
	SyncPendingOrphans = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "pending_orphans",
			Help:      "Current number of events held pending missing parents",
		},
		[]string{"room"},
	)
)

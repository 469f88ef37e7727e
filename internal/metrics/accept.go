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
	// EventsAccepted counts events the acceptance pipeline persisted,
	// by room id and event kind.
	EventsAccepted = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "accept",
			Name:      "events_accepted_total",
			Help:      "Total number of events accepted and persisted",
		},
		[]string{"room", "kind"},
	)

	// EventsRejected counts drops, labeled by the rejection code
	// (signature_invalid, not_a_member, banned, ...).
	EventsRejected = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "accept",
			Name:      "events_rejected_total",
			Help:      "Total number of events rejected by the acceptance pipeline",
		},
		[]string{"code"},
	)

	// AcceptDuration times a single Accept call, dominated by
	// Ed25519 verification and governance-fold evaluation.
	AcceptDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "accept",
			Name:      "duration_seconds",
			Help:      "Acceptance pipeline duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 14), // 50µs to 400ms
		},
		[]string{"room"},
	)
)

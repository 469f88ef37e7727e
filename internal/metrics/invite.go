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
	// InvitesIssued counts invites created, by whether an IIC was used.
	InvitesIssued = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "invite",
			Name:      "issued_total",
			Help:      "Total number of invites issued",
		},
		[]string{"via_iic"}, // "true", "false"
	)

	// InviteVerifications counts invite verification outcomes.
	InviteVerifications = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "invite",
			Name:      "verifications_total",
			Help:      "Total number of invite verification attempts",
		},
		[]string{"result"}, // ok, rejected
	)

	// PoWSolveDuration times SolvePoW calls made by joining clients.
	PoWSolveDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "invite",
			Name:      "pow_solve_duration_seconds",
			Help:      "Proof-of-work solve duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 16), // 10ms to 5.5min
		},
	)
)

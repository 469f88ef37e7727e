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

// Package metrics exposes Prometheus counters/histograms for
// acceptance pipeline outcomes, invite verification, and
// sync-session activity. Collectors are grouped per concern into
// their own file and registered against one package-level Registry.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "p2pspace"

// Registry is the package's own prometheus.Registerer so embedding a
// node's metrics doesn't collide with the default global registry
// when several nodes run in one process (tests, multi-space hosts).
var Registry = prometheus.NewRegistry()

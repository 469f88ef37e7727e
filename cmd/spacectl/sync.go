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

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/p2pspace/core/accept"
	"github.com/p2pspace/core/event"
	"github.com/p2pspace/core/governance"
	"github.com/p2pspace/core/identity"
	"github.com/p2pspace/core/internal/logger"
	"github.com/p2pspace/core/internal/metrics"
	"github.com/p2pspace/core/syncproto"
	"github.com/p2pspace/core/transport"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run the gossip sync protocol over a WebSocket transport",
	Long: `Drive a hello/heads/want/have gossip session over a
WebSocket connection, against a local JSON-encoded room log.

SUBCOMMANDS:
  serve   Accept inbound sync connections for a room
  dial    Connect out to a peer and sync a room

EXAMPLES:
  spacectl sync serve --space <id> --genesis space.json --room general \
    --log general.events.json --addr :8585

  spacectl sync dial --space <id> --genesis space.json --room general \
    --log general.events.json --url ws://peer:8585/sync`,
}

var syncServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Accept inbound sync connections for a room",
	Long: `Listen on --addr and run one syncproto.Session per connecting peer
against --room's local log, accepting offered events through the
full acceptance pipeline. Ctrl-C to stop.

EXAMPLES:
  spacectl sync serve --space <id> --genesis space.json --room general \
    --log general.events.json --addr :8585 --metrics-addr :9090`,
	RunE: runSyncServe,
}

var syncDialCmd = &cobra.Command{
	Use:   "dial",
	Short: "Connect out to a peer and sync a room",
	Long: `Dial --url, open a syncproto.Session for --room, and run the
gossip loop until the peer disconnects.

EXAMPLES:
  spacectl sync dial --space <id> --genesis space.json --room general \
    --log general.events.json --url ws://peer:8585/sync`,
	RunE: runSyncDial,
}

var (
	syncSpaceID       string
	syncGenesisPath   string
	syncGovernanceLog string
	syncRoom          string
	syncLog           string
	syncAddr          string
	syncMetricsAddr   string
	syncURL           string
)

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.AddCommand(syncServeCmd)
	syncCmd.AddCommand(syncDialCmd)

	for _, c := range []*cobra.Command{syncServeCmd, syncDialCmd} {
		c.Flags().StringVar(&syncSpaceID, "space", "", "space id")
		c.Flags().StringVar(&syncGenesisPath, "genesis", "", "path to the Space's genesis file")
		c.Flags().StringVar(&syncGovernanceLog, "governance-log", "", "path to the governance room's local log (for membership; omit when --room is governance)")
		c.Flags().StringVar(&syncRoom, "room", "", "room id to sync")
		c.Flags().StringVar(&syncLog, "log", "", "path to the room's local event log")
		requireFlags(c, "space", "genesis", "room", "log")
	}
	syncServeCmd.Flags().StringVar(&syncAddr, "addr", ":8585", "address to listen on")
	syncServeCmd.Flags().StringVar(&syncMetricsAddr, "metrics-addr", "", "if set, also serve Prometheus metrics at this address")

	syncDialCmd.Flags().StringVar(&syncURL, "url", "", "peer WebSocket URL, e.g. ws://host:port/sync")
	requireFlags(syncDialCmd, "url")
}

// buildAcceptor closes over genesis and, when provided, a governance
// log folded into a membership view, returning the Acceptor a
// syncproto.Session needs.
func buildAcceptor(genesis *identity.SpaceGenesis) (syncproto.Acceptor, error) {
	limits := accept.DefaultLimits()
	if cfg != nil {
		limits = cfg.Limits.ToLimits()
	}

	var members accept.MembershipView
	if syncRoom != event.GovernanceRoomID {
		if syncGovernanceLog != "" {
			govDAG, err := loadDAG(syncGovernanceLog, event.GovernanceRoomID)
			if err != nil {
				return nil, fmt.Errorf("load governance log: %w", err)
			}
			members = governance.Fold(govDAG.TopoSort(), genesis)
		}
	}

	return func(e *event.Event) error {
		wire, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if err := accept.Accept(e, genesis, members, limits, len(wire), nowMs()); err != nil {
			var acceptErr *accept.Error
			if errors.As(err, &acceptErr) {
				perr := logger.FromAcceptError(acceptErr)
				logger.Info("sync: event rejected",
					logger.String("event_id", e.EventID),
					logger.String("code", perr.Code),
					logger.Error(perr))
			}
			return err
		}
		return nil
	}, nil
}

func runSyncServe(cmd *cobra.Command, args []string) error {
	genesis, err := loadGenesis(syncGenesisPath)
	if err != nil {
		return err
	}
	acceptor, err := buildAcceptor(genesis)
	if err != nil {
		return err
	}
	dag, err := loadDAG(syncLog, syncRoom)
	if err != nil {
		return err
	}

	if syncMetricsAddr != "" {
		go func() {
			if err := metrics.StartServer(syncMetricsAddr); err != nil {
				logger.Warn("metrics server stopped", logger.Error(err))
			}
		}()
		fmt.Printf("Metrics listening on %s\n", syncMetricsAddr)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/sync", func(w http.ResponseWriter, r *http.Request) {
		t, err := transport.Accept(w, r)
		if err != nil {
			logger.Warn("sync: upgrade failed", logger.Error(err))
			return
		}
		defer t.Close()

		sess := syncproto.NewSession(syncproto.Config{
			SpaceID: syncSpaceID,
			RoomID:  syncRoom,
			Log:     dag,
			Accept:  acceptor,
			Send:    t.Send,
			Warn:    func(format string, a ...interface{}) { logger.Warn(fmt.Sprintf(format, a...)) },
		})
		if err := sess.Open(); err != nil {
			logger.Warn("sync: open failed", logger.Error(err))
			return
		}
		err = transport.Pump(t, func(f syncproto.Frame) error {
			if err := sess.HandleFrame(f); err != nil {
				return err
			}
			return saveDAG(syncLog, dag)
		})
		if err != nil && !errors.Is(err, io.EOF) {
			logger.Info("sync: peer disconnected", logger.Error(err))
		}
	})

	fmt.Printf("Serving room %q for space %s on %s\n", syncRoom, syncSpaceID, syncAddr)
	return http.ListenAndServe(syncAddr, mux)
}

func runSyncDial(cmd *cobra.Command, args []string) error {
	genesis, err := loadGenesis(syncGenesisPath)
	if err != nil {
		return err
	}
	acceptor, err := buildAcceptor(genesis)
	if err != nil {
		return err
	}
	dag, err := loadDAG(syncLog, syncRoom)
	if err != nil {
		return err
	}

	t, err := transport.Dial(context.Background(), syncURL)
	if err != nil {
		return fmt.Errorf("dial %s: %w", syncURL, err)
	}
	defer t.Close()

	sess := syncproto.NewSession(syncproto.Config{
		SpaceID: syncSpaceID,
		RoomID:  syncRoom,
		Log:     dag,
		Accept:  acceptor,
		Send:    t.Send,
		Warn:    func(format string, a ...interface{}) { logger.Warn(fmt.Sprintf(format, a...)) },
	})
	if err := sess.Open(); err != nil {
		return fmt.Errorf("open session: %w", err)
	}

	fmt.Printf("Syncing room %q with %s...\n", syncRoom, syncURL)
	err = transport.Pump(t, func(f syncproto.Frame) error {
		if err := sess.HandleFrame(f); err != nil {
			return err
		}
		return saveDAG(syncLog, dag)
	})
	if err != nil && !errors.Is(err, io.EOF) {
		fmt.Printf("sync ended: %v\n", err)
	}
	return saveDAG(syncLog, dag)
}

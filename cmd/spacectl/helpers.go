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
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/p2pspace/core/cryptox"
	"github.com/p2pspace/core/event"
	"github.com/p2pspace/core/identity"
)

// identityFile is spacectl's on-disk encoding of an identity.Identity:
// the two Ed25519 seeds plus whatever per-Space delegations have been
// issued or cached for it. identity.Identity itself keeps its
// delegation cache unexported, so the CLI owns this shape and
// round-trips it through SetCachedDelegation/CachedDelegation.
type identityFile struct {
	PrincipalSeed string                              `json:"principal_seed"`
	DeviceSeed    string                              `json:"device_seed"`
	PrincipalID   string                              `json:"principal_id"`
	DeviceID      string                              `json:"device_id"`
	Delegations   map[string]*identity.DelegationCert `json:"delegations,omitempty"`
}

func createIdentityFile(path string) (*identity.Identity, error) {
	id, err := identity.CreateIdentity()
	if err != nil {
		return nil, err
	}
	if err := saveIdentity(path, id, nil); err != nil {
		return nil, err
	}
	return id, nil
}

func loadIdentity(path string) (*identity.Identity, *identityFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read identity file: %w", err)
	}
	var f identityFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, nil, fmt.Errorf("decode identity file: %w", err)
	}

	principalSeed, err := cryptox.DecodeBase64(f.PrincipalSeed)
	if err != nil {
		return nil, nil, fmt.Errorf("decode principal seed: %w", err)
	}
	deviceSeed, err := cryptox.DecodeBase64(f.DeviceSeed)
	if err != nil {
		return nil, nil, fmt.Errorf("decode device seed: %w", err)
	}
	principal, err := cryptox.KeyPairFromSeed(principalSeed)
	if err != nil {
		return nil, nil, fmt.Errorf("reconstruct principal key: %w", err)
	}
	device, err := cryptox.KeyPairFromSeed(deviceSeed)
	if err != nil {
		return nil, nil, fmt.Errorf("reconstruct device key: %w", err)
	}

	id := &identity.Identity{
		Principal:   principal,
		Device:      device,
		PrincipalID: f.PrincipalID,
		DeviceID:    f.DeviceID,
	}
	for spaceID, cert := range f.Delegations {
		id.SetCachedDelegation(spaceID, cert)
	}
	return id, &f, nil
}

// saveIdentity persists id to path, merging in a space's newly
// ensured delegation when delegationSpaceID is non-empty. Existing
// delegations already on disk for other spaces are preserved.
func saveIdentity(path string, id *identity.Identity, delegationSpaceID *string) error {
	f := identityFile{
		PrincipalSeed: cryptox.Base64(id.Principal.Seed()),
		DeviceSeed:    cryptox.Base64(id.Device.Seed()),
		PrincipalID:   id.PrincipalID,
		DeviceID:      id.DeviceID,
		Delegations:   make(map[string]*identity.DelegationCert),
	}
	if existing, err := os.ReadFile(path); err == nil {
		var prior identityFile
		if json.Unmarshal(existing, &prior) == nil {
			for spaceID, cert := range prior.Delegations {
				f.Delegations[spaceID] = cert
			}
		}
	}
	if delegationSpaceID != nil {
		if cert, ok := id.CachedDelegation(*delegationSpaceID); ok {
			f.Delegations[*delegationSpaceID] = cert
		}
	}
	return writeJSONFile(path, f)
}

func loadGenesis(path string) (*identity.SpaceGenesis, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis file: %w", err)
	}
	var g identity.SpaceGenesis
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("decode genesis file: %w", err)
	}
	return &g, nil
}

// loadDAG replays a JSON array of events (in the order stored, which
// must be topological) into a fresh *event.DAG in a single pass; the
// first event that the DAG rejects, such as one whose parents are not
// yet present, aborts the load with an error. saveDAG always writes
// topologically sorted events.
func loadDAG(path, roomID string) (*event.DAG, error) {
	dag := event.NewDAG(roomID)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return dag, nil
		}
		return nil, fmt.Errorf("read event log: %w", err)
	}
	var events []*event.Event
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, fmt.Errorf("decode event log: %w", err)
	}
	for _, e := range events {
		if err := dag.Add(e); err != nil {
			return nil, fmt.Errorf("replay event %s: %w", e.EventID, err)
		}
	}
	return dag, nil
}

func saveDAG(path string, dag *event.DAG) error {
	return writeJSONFile(path, dag.TopoSort())
}

func writeJSONFile(path string, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}

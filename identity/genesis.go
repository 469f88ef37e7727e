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

package identity

import (
	"fmt"

	"github.com/p2pspace/core/canon"
	"github.com/p2pspace/core/cryptox"
)

const spaceGenesisDomain = "p2pspace/space-genesis/v0"

// SpaceGenesis is the self-signed founding record of a Space, signed
// by the Space Root key.
type SpaceGenesis struct {
	SpaceID      string `json:"space_id"`
	SpaceRootPub string `json:"space_root_pub"`
	CreatedTs    int64  `json:"created_ts"`
	Name         string `json:"name,omitempty"`
	Sig          string `json:"sig"`
}

func spaceGenesisSigInput(spaceID, spaceRootPub string, createdTs int64, name string) []byte {
	return canon.NewBuilder(spaceGenesisDomain).
		Int(1).
		String(spaceID).
		String(spaceRootPub).
		Int(createdTs).
		String(name).
		Build()
}

// SignSpaceGenesis creates and signs a new SpaceGenesis for the
// Space rooted at root, with space_id derived from root's public
// key.
func SignSpaceGenesis(root cryptox.KeyPair, createdTs int64, name string) *SpaceGenesis {
	spaceID := cryptox.IDFromSPKI(root.PublicKey())
	rootPubB64 := cryptox.Base64(root.PublicKey().Bytes())
	input := spaceGenesisSigInput(spaceID, rootPubB64, createdTs, name)
	return &SpaceGenesis{
		SpaceID:      spaceID,
		SpaceRootPub: rootPubB64,
		CreatedTs:    createdTs,
		Name:         name,
		Sig:          cryptox.Base64(root.Sign(input)),
	}
}

// Verify checks that g.SpaceID was derived from g.SpaceRootPub and
// that g.Sig verifies under that key.
func (g *SpaceGenesis) Verify() error {
	rootPub, err := decodeB64PubKey(g.SpaceRootPub)
	if err != nil {
		return fmt.Errorf("identity: genesis space_root_pub: %w", err)
	}
	if !cryptox.VerifyID(g.SpaceID, rootPub) {
		return fmt.Errorf("%w: space_id", ErrIdentityMismatch)
	}
	sig, err := cryptox.DecodeBase64(g.Sig)
	if err != nil {
		return fmt.Errorf("identity: genesis sig encoding: %w", err)
	}
	input := spaceGenesisSigInput(g.SpaceID, g.SpaceRootPub, g.CreatedTs, g.Name)
	if err := cryptox.Verify(rootPub, input, sig); err != nil {
		return ErrDelegationSignature
	}
	return nil
}

// SpaceRootPublicKey decodes the Space Root public key.
func (g *SpaceGenesis) SpaceRootPublicKey() (cryptox.PublicKey, error) {
	return decodeB64PubKey(g.SpaceRootPub)
}

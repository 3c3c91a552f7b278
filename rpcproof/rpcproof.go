// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package rpcproof is the RPC adapter: it translates (address, slot, block)
// into a proof bundle by issuing eth_getProof against an archive node.
package rpcproof

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"github.com/ethprobe/triescrape/common"
	"github.com/ethprobe/triescrape/frontier"
)

// Client issues eth_getProof calls against a single archive-node endpoint.
type Client struct {
	rpc *gethrpc.Client
}

// Dial connects to the archive node at url.
func Dial(ctx context.Context, url string) (*Client, error) {
	c, err := gethrpc.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return &Client{rpc: c}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() {
	c.rpc.Close()
}

// proofResponse is the shape of an eth_getProof result for a single
// requested storage key.
type proofResponse struct {
	StorageHash  string `json:"storageHash"`
	StorageProof []struct {
		Key   string   `json:"key"`
		Value string   `json:"value"`
		Proof []string `json:"proof"`
	} `json:"storageProof"`
}

// GetProof implements frontier.ProofSource. Transport errors (timeout,
// HTTP status, malformed JSON) are returned unchanged; this adapter never
// retries.
func (c *Client) GetProof(ctx context.Context, address common.Address, slot *big.Int, block uint64) (frontier.ProofResult, error) {
	var resp proofResponse
	err := c.rpc.CallContext(ctx, &resp, "eth_getProof",
		"0x"+hex.EncodeToString(address[:]),
		[]string{"0x" + slot.Text(16)},
		fmt.Sprintf("0x%x", block),
	)
	if err != nil {
		return frontier.ProofResult{}, err
	}
	return parseProofResponse(resp)
}

func parseProofResponse(resp proofResponse) (frontier.ProofResult, error) {
	storageHash, err := common.HashFromHex(strings.TrimPrefix(resp.StorageHash, "0x"))
	if err != nil {
		return frontier.ProofResult{}, fmt.Errorf("rpcproof: invalid storageHash %q: %w", resp.StorageHash, err)
	}

	if len(resp.StorageProof) != 1 {
		return frontier.ProofResult{}, fmt.Errorf("rpcproof: expected proof for exactly one slot, got %d", len(resp.StorageProof))
	}

	proofHex := resp.StorageProof[0].Proof
	proof := make([][]byte, len(proofHex))
	for i, p := range proofHex {
		b, err := hex.DecodeString(strings.TrimPrefix(p, "0x"))
		if err != nil {
			return frontier.ProofResult{}, fmt.Errorf("rpcproof: invalid proof element %d: %w", i, err)
		}
		proof[i] = b
	}

	return frontier.ProofResult{StorageHash: storageHash, Proof: proof}, nil
}

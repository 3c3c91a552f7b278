// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package frontier is the orchestrator of storage-trie reconstruction: it
// holds the growing storage map and reconstructed root, the frontier of
// unexplored subtree prefixes, and the set of already-visited prefixes,
// repeatedly choosing an unexplored prefix, requesting a proof for a slot
// under it, and folding the proof into both.
package frontier

import (
	"context"
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/ethprobe/triescrape/common"
	"github.com/ethprobe/triescrape/hexprefix"
	"github.com/ethprobe/triescrape/preimage"
	"github.com/ethprobe/triescrape/storageroot"
	"github.com/ethprobe/triescrape/trienode"
)

// ErrMalformedNode reports a proof element that does not decode into a
// branch, extension, or leaf node.
const ErrMalformedNode = common.ConstError("frontier: malformed node")

// ErrUnexpectedBranchValue reports a branch node with a non-empty value at
// index 16, which a 32-byte-keyed storage trie never produces.
const ErrUnexpectedBranchValue = common.ConstError("frontier: unexpected branch value")

// ErrMalformedLeafPath reports a leaf whose accumulated path is not exactly
// 64 nibbles, or a proof that continues past a leaf node.
const ErrMalformedLeafPath = common.ConstError("frontier: malformed leaf path")

// ErrFrontierExhausted reports an empty frontier whose recomputed root
// still disagrees with the archive node's reported storageHash: the
// archive node's responses cannot be reconciled with a valid trie.
const ErrFrontierExhausted = common.ConstError("frontier: exhausted with root mismatch")

// ProofSource is the RPC adapter contract: translate (address, slot,
// block) into a proof bundle. Kept as a narrow interface so Reconstruct can
// be exercised against a mock oracle in tests.
type ProofSource interface {
	GetProof(ctx context.Context, address common.Address, slot *big.Int, block uint64) (ProofResult, error)
}

// ProofResult is one eth_getProof response, trimmed to what the walker
// needs: the account's storage root and the ordered (root-first) list of
// RLP-encoded proof nodes connecting the requested slot to it.
type ProofResult struct {
	StorageHash common.Hash
	Proof       [][]byte
}

// Result is the outcome of a completed reconstruction.
type Result struct {
	Root    common.Hash
	Storage map[common.Hash][]byte
}

// path is a nibble prefix rendered as a lowercase hex string; ASCII orders
// '0'-'9' before 'a'-'f', so plain string comparison matches nibble order,
// which is what a lexicographically-smallest frontier selection needs.
type path string

func nibblesToPath(n []hexprefix.Nibble) path {
	const digits = "0123456789abcdef"
	b := make([]byte, len(n))
	for i, d := range n {
		b[i] = digits[d]
	}
	return path(b)
}

// Reconstruct walks proofs from client, steering each new probe toward an
// unexplored subtree via oracle, until the reconstructed trie's root
// matches the address's storage root at block.
func Reconstruct(ctx context.Context, client ProofSource, oracle preimage.Table, address common.Address, block uint64) (Result, error) {
	storage := make(map[common.Hash][]byte)
	frontierSet := make(map[path]struct{})
	visited := make(map[path]struct{})

	slot := big.NewInt(0)
	probeKey := path(hex.EncodeToString(keccak256Slot(slot)[:]))

	proof, err := client.GetProof(ctx, address, slot, block)
	if err != nil {
		return Result{}, err
	}
	storageHash := proof.StorageHash

	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		if err := fold(proof.Proof, probeKey, storage, frontierSet, visited); err != nil {
			return Result{}, err
		}

		root := storageroot.ComputeRoot(storage)

		if len(frontierSet) == 0 {
			if root != storageHash {
				return Result{}, ErrFrontierExhausted
			}
			return Result{Root: root, Storage: storage}, nil
		}

		next := popSmallest(frontierSet)
		slotBig, err := preimage.Find(ctx, oracle, string(next))
		if err != nil {
			return Result{}, err
		}
		slot = slotBig
		probeKey = path(hex.EncodeToString(keccak256Slot(slot)[:]))

		proof, err = client.GetProof(ctx, address, slot, block)
		if err != nil {
			return Result{}, err
		}
	}
}

// keccak256Slot hashes the 32-byte big-endian encoding of slot, as the
// archive node does when it hashes a requested storage key.
func keccak256Slot(slot *big.Int) common.Hash {
	var buf [32]byte
	slot.FillBytes(buf[:])
	return common.Keccak256(buf[:])
}

// fold walks one proof's nodes in order, folding branch/extension edges
// into frontierSet and visited, and leaves into storage.
func fold(proofNodes [][]byte, probeKey path, storage map[common.Hash][]byte, frontierSet, visited map[path]struct{}) error {
	var currentPrefix path
	sawLeaf := false

	for _, nodeBytes := range proofNodes {
		if sawLeaf {
			return ErrMalformedLeafPath
		}

		oldPrefix := currentPrefix
		visited[oldPrefix] = struct{}{}

		node, err := trienode.Parse(nodeBytes)
		if err != nil {
			switch err {
			case trienode.ErrUnexpectedBranchValue:
				return ErrUnexpectedBranchValue
			default:
				return ErrMalformedNode
			}
		}

		switch {
		case node.Branch != nil:
			for n := 0; n < 16; n++ {
				if node.Branch.Children[n] == nil {
					continue
				}
				p := oldPrefix + path("0123456789abcdef"[n:n+1])
				addToFrontierIfUnexplored(p, probeKey, frontierSet, visited)
			}
			if len(probeKey) < len(oldPrefix)+1 {
				return ErrMalformedNode
			}
			currentPrefix = probeKey[:len(oldPrefix)+1]

		case node.Extension != nil:
			p := oldPrefix + nibblesToPath(node.Extension.Fragment)
			addToFrontierIfUnexplored(p, probeKey, frontierSet, visited)
			currentPrefix = p

		case node.Leaf != nil:
			p := oldPrefix + nibblesToPath(node.Leaf.Fragment)
			if len(p) != 64 {
				return ErrMalformedLeafPath
			}
			keyBytes, err := hex.DecodeString(string(p))
			if err != nil {
				return ErrMalformedLeafPath
			}
			var key common.Hash
			copy(key[:], keyBytes)
			storage[key] = node.Leaf.Value
			visited[p] = struct{}{}
			sawLeaf = true

		default:
			return ErrMalformedNode
		}
	}
	return nil
}

// addToFrontierIfUnexplored implements the "not starts with probe key"
// filter: the child the in-flight probe is already descending into does
// not belong on the frontier, only its siblings do.
func addToFrontierIfUnexplored(p, probeKey path, frontierSet, visited map[path]struct{}) {
	if strings.HasPrefix(string(probeKey), string(p)) {
		return
	}
	if _, ok := visited[p]; ok {
		return
	}
	frontierSet[p] = struct{}{}
}

// pathComparator orders nibble-prefix paths lexicographically, the
// common.Comparator instantiation popSmallest draws the frontier down with.
type pathComparator struct{}

func (pathComparator) Compare(a, b *path) int {
	return strings.Compare(string(*a), string(*b))
}

// popSmallest removes and returns the lexicographically smallest prefix in
// frontierSet, giving deterministic, reproducible traversal order.
func popSmallest(frontierSet map[path]struct{}) path {
	var cmp common.Comparator[path] = pathComparator{}
	var smallest path
	first := true
	for p := range frontierSet {
		if first || cmp.Compare(&p, &smallest) < 0 {
			smallest = p
			first = false
		}
	}
	delete(frontierSet, smallest)
	return smallest
}

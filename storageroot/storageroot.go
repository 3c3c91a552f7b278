// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package storageroot rebuilds the root hash of a secure Merkle-Patricia
// storage trie from the flat set of (hashed key, RLP value) pairs the
// frontier walker has accumulated so far. It is the independent check
// behind the walker's termination invariant: reconstruction is complete
// exactly when this recomputed root equals the archive node's reported
// storageHash.
package storageroot

import (
	"github.com/ethprobe/triescrape/common"
	"github.com/ethprobe/triescrape/hexprefix"
)

// emptyRootHash is keccak256(rlp("")), the root of a trie with no entries.
var emptyRootHash = common.Keccak256([]byte{0x80})

// ComputeRoot rebuilds the trie from scratch and returns its root hash.
// Full recomputation rather than incremental maintenance: the walker only
// needs the result to match an independently computed root, not an
// incrementally updated one, and reconstruction runs are bounded by the
// number of RPC calls, not by repeated root computations.
func ComputeRoot(storage map[common.Hash][]byte) common.Hash {
	if len(storage) == 0 {
		return emptyRootHash
	}

	entries := make([]leafEntry, 0, len(storage))
	for key, value := range storage {
		entries = append(entries, leafEntry{path: keyToNibbles(key), value: value})
	}

	encoding := buildNode(entries, 0)
	return common.Keccak256(encoding)
}

type leafEntry struct {
	path  []hexprefix.Nibble
	value []byte
}

func keyToNibbles(key common.Hash) []hexprefix.Nibble {
	path := make([]hexprefix.Nibble, 0, 2*len(key))
	for _, b := range key {
		path = append(path, hexprefix.Nibble(b>>4), hexprefix.Nibble(b&0x0f))
	}
	return path
}

// buildNode returns the RLP encoding of the subtree rooted at depth for the
// given entries, all of which share the same path prefix up to depth.
func buildNode(entries []leafEntry, depth int) []byte {
	if len(entries) == 1 {
		fragment := entries[0].path[depth:]
		// entries[0].value is the leaf value as the proof carried it (the RLP
		// encoding of the storage word); the leaf's second list element wraps
		// it once more as an RLP string, not the raw bytes.
		return encodeList(encodeString(hexprefix.Encode(fragment, true)), encodeString(entries[0].value))
	}

	commonLen := commonPrefixLen(entries, depth)
	if commonLen > 0 {
		fragment := entries[0].path[depth : depth+commonLen]
		child := buildNode(entries, depth+commonLen)
		return encodeList(encodeString(hexprefix.Encode(fragment, false)), childRef(child))
	}

	return buildBranch(entries, depth)
}

func buildBranch(entries []leafEntry, depth int) []byte {
	var groups [16][]leafEntry
	for _, e := range entries {
		n := e.path[depth]
		groups[n] = append(groups[n], e)
	}

	items := make([][]byte, 17)
	for n := 0; n < 16; n++ {
		if len(groups[n]) == 0 {
			items[n] = encodeString(nil)
			continue
		}
		child := buildNode(groups[n], depth+1)
		items[n] = childRef(child)
	}
	items[16] = encodeString(nil)

	return encodeList(items...)
}

// childRef returns the RLP item to splice into a parent node for a child
// whose own encoding is encoding: the raw encoding itself if it is short
// enough to embed (Ethereum's standard <32-byte embedding rule), or a
// 32-byte hash reference otherwise. The root's own encoding bypasses this
// rule and is always hashed by ComputeRoot directly.
func childRef(encoding []byte) []byte {
	if len(encoding) < 32 {
		return encoding
	}
	hash := common.Keccak256(encoding)
	return encodeString(hash[:])
}

func commonPrefixLen(entries []leafEntry, depth int) int {
	first := entries[0].path[depth:]
	n := len(first)
	for _, e := range entries[1:] {
		rest := e.path[depth:]
		if len(rest) < n {
			n = len(rest)
		}
		for i := 0; i < n; i++ {
			if first[i] != rest[i] {
				n = i
				break
			}
		}
	}
	return n
}

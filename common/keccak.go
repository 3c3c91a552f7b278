// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"sync"

	"golang.org/x/crypto/sha3"
)

// Keccak256 computes the Keccak256 digest of data. Storage-trie keys are
// keccak256(slot), and every node's hash in the reconstructed trie is a
// Keccak256 of its RLP encoding, so this sits on the hot path of both the
// preimage search and the root recomputation; a pool of reusable hashers
// avoids an allocation per call.
func Keccak256(data []byte) Hash {
	if len(data) == 0 {
		return emptyKeccak256Hash
	}
	hasher := keccakHasherPool.Get().(keccakHasher)
	hasher.Reset()
	hasher.Write(data)
	var res Hash
	hasher.Read(res[:])
	keccakHasherPool.Put(hasher)
	return res
}

type keccakHasher interface {
	Reset()
	Write(in []byte) (int, error)
	Read(out []byte) (int, error)
}

var keccakHasherPool = sync.Pool{New: func() any { return sha3.NewLegacyKeccak256() }}

var emptyKeccak256Hash = func() Hash {
	hasher := sha3.NewLegacyKeccak256()
	var res Hash
	hasher.Read(res[:])
	return res
}()

// Keccak256Uint256BE hashes the 32-byte big-endian encoding of a slot
// number, as used throughout the preimage oracle: a candidate slot is only
// useful once expressed as keccak256(n.to_bytes(32, "big")).
func Keccak256Uint256BE(buf32 [32]byte) Hash {
	return Keccak256(buf32[:])
}

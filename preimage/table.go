// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package preimage inverts Keccak-256 well enough to steer the archive
// node: given a nibble prefix, it returns an integer slot whose hashed
// form begins with that prefix. A precomputed table answers short
// prefixes in O(1); anything the table does not cover falls back to
// random trial.
package preimage

import (
	"encoding/binary"
	"encoding/gob"
	"encoding/hex"
	"io"
	"math/big"

	"github.com/ethprobe/triescrape/common"
)

// maxTablePrefixLen is the longest prefix length explicitly indexed by the
// table, beyond the full 64-nibble digest itself. Matches the reference
// table builder's range(1, 8).
const maxTablePrefixLen = 7

// Table is an immutable mapping from short hex prefix, or full 64-nibble
// digest, to the smallest non-negative integer n such that
// keccak256(n as 32-byte big-endian) begins with that prefix or equals that
// digest. Safe to share across goroutines without synchronization once
// built.
type Table struct {
	Entries map[string]uint64
}

// PrecomputeTable scans n = 0..N-1 and builds the prefix table. The first
// occurrence of any prefix wins and is never overwritten, so the mapping is
// deterministic and persisted tables for the same N are interchangeable.
func PrecomputeTable(n int) Table {
	entries := make(map[string]uint64, n*2)
	var buf [32]byte
	for i := 0; i < n; i++ {
		binary.BigEndian.PutUint64(buf[24:], uint64(i))
		h := common.Keccak256(buf[:])
		digest := hex.EncodeToString(h[:])

		if _, exists := entries[digest]; !exists {
			entries[digest] = uint64(i)
		}
		for l := 1; l <= maxTablePrefixLen; l++ {
			p := digest[:l]
			if _, exists := entries[p]; !exists {
				entries[p] = uint64(i)
			}
		}
	}
	return Table{Entries: entries}
}

// lookup returns the table's answer for prefix, if the table indexes it:
// either a short prefix of length 1..maxTablePrefixLen, or the full
// 64-nibble digest.
func (t Table) lookup(prefix string) (*big.Int, bool) {
	if len(prefix) == 0 || len(prefix) > maxTablePrefixLen && len(prefix) != 64 {
		return nil, false
	}
	n, ok := t.Entries[prefix]
	if !ok {
		return nil, false
	}
	return new(big.Int).SetUint64(n), true
}

// Save persists the table via gob, Go's native object-graph encoder — the
// direct analogue of the reference implementation's pickle file, with no
// cross-language ambitions.
func (t Table) Save(w io.Writer) error {
	return gob.NewEncoder(w).Encode(t.Entries)
}

// LoadTable reads a table previously written by Save.
func LoadTable(r io.Reader) (Table, error) {
	var entries map[string]uint64
	if err := gob.NewDecoder(r).Decode(&entries); err != nil {
		return Table{}, err
	}
	return Table{Entries: entries}, nil
}

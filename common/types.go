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
	"bytes"
	"encoding/hex"
	"fmt"
)

// AddressSize is the size of an Ethereum account address.
const AddressSize = 20

// Address is an Ethereum account address.
type Address [AddressSize]byte

// HashSize is the byte-size of the Hash type.
const HashSize = 32

// Hash is a Keccak256 digest, used both for trie node hashes and for
// hashed storage keys (keccak256(slot) is itself a Hash).
type Hash [HashSize]byte

// ValueSize is the size of an EVM storage slot value.
const ValueSize = 32

// Value is the content of an EVM storage slot.
type Value [ValueSize]byte

// Comparator is an interface for comparing two items, used to keep the
// frontier set and the final report in deterministic (lexicographic) order.
type Comparator[T any] interface {
	Compare(a, b *T) int
}

func (h *Hash) Compare(b *Hash) int {
	return bytes.Compare(h[:], b[:])
}

// HashComparator orders Hash values lexicographically.
type HashComparator struct{}

func (c HashComparator) Compare(a, b *Hash) int {
	return a.Compare(b)
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (a Address) String() string {
	return fmt.Sprintf("%x", a[:])
}

// HashFromHex decodes a hex string (without "0x" prefix) into a Hash. It is
// intended for producing readable test fixtures; malformed or mis-sized
// input returns an error rather than silently truncating.
func HashFromHex(str string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(str)
	if err != nil {
		return h, fmt.Errorf("invalid hex string %q: %w", str, err)
	}
	if len(b) != HashSize {
		return h, fmt.Errorf("invalid hash length: got %d, wanted %d", len(b), HashSize)
	}
	copy(h[:], b)
	return h, nil
}

// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package hexprefix decodes Ethereum's hex-prefix (compact) encoding, the
// scheme extension and leaf trie nodes use to pack a nibble path plus a
// leaf/extension flag into a byte string.
package hexprefix

import "github.com/ethprobe/triescrape/common"

// Nibble is a single 4-bit path element, 0..15.
type Nibble byte

// ErrMalformedNode reports a hex-prefix flag nibble outside 0..3.
const ErrMalformedNode = common.ConstError("hexprefix: malformed node")

// Decode reads the hex-prefix encoding in data and returns the nibble path
// it packs together with whether the encoded node is a leaf (true) or an
// extension (false).
//
// The first byte's high nibble is the flag: 0 = extension/even, 1 =
// extension/odd, 2 = leaf/even, 3 = leaf/odd. For even variants the low
// nibble of the first byte is a padding zero and is discarded. For odd
// variants it is the first real nibble of the path. Every subsequent byte
// contributes two nibbles, high nibble first.
func Decode(data []byte) (path []Nibble, isLeaf bool, err error) {
	if len(data) == 0 {
		return nil, false, ErrMalformedNode
	}

	flag := data[0] >> 4
	switch flag {
	case 0:
		isLeaf = false
	case 1:
		isLeaf = false
	case 2:
		isLeaf = true
	case 3:
		isLeaf = true
	default:
		return nil, false, ErrMalformedNode
	}
	odd := flag&1 == 1

	path = make([]Nibble, 0, 2*len(data))
	if odd {
		path = append(path, Nibble(data[0]&0x0f))
	}
	for _, b := range data[1:] {
		path = append(path, Nibble(b>>4), Nibble(b&0x0f))
	}
	return path, isLeaf, nil
}

// Encode packs path plus the leaf/extension flag into hex-prefix form; the
// inverse of Decode. Used when rebuilding a trie node's RLP encoding from a
// reconstructed fragment.
func Encode(path []Nibble, isLeaf bool) []byte {
	flag := byte(0)
	if isLeaf {
		flag = 2
	}

	odd := len(path)%2 == 1
	if odd {
		flag++
	}

	out := make([]byte, 0, len(path)/2+1)
	if odd {
		out = append(out, flag<<4|byte(path[0]))
		path = path[1:]
	} else {
		out = append(out, flag<<4)
	}
	for i := 0; i < len(path); i += 2 {
		out = append(out, byte(path[i])<<4|byte(path[i+1]))
	}
	return out
}

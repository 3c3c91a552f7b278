// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package storageroot

// A small RLP encoder, the mirror image of trienode/rlp's decoder. It is
// kept local to this package since the only things this tool ever encodes
// are the trie nodes it rebuilds from the accumulated storage map — there
// is no shared Item model worth factoring out for a one-directional need.

func encodeString(s []byte) []byte {
	if len(s) == 1 && s[0] < 0x80 {
		return []byte{s[0]}
	}
	return append(encodeLength(len(s), 0x80), s...)
}

// encodeList concatenates already-encoded items into a single RLP list.
// Each element of items must itself be a complete RLP-encoded item.
func encodeList(items ...[]byte) []byte {
	length := 0
	for _, item := range items {
		length += len(item)
	}
	out := encodeLength(length, 0xc0)
	for _, item := range items {
		out = append(out, item...)
	}
	return out
}

func encodeLength(length int, offset byte) []byte {
	if length < 56 {
		return []byte{offset + byte(length)}
	}
	numBytes := numBytesFor(uint64(length))
	out := make([]byte, 0, 1+numBytes)
	out = append(out, offset+55+numBytes)
	for i := byte(0); i < numBytes; i++ {
		out = append(out, byte(length>>(8*(numBytes-i-1))))
	}
	return out
}

func numBytesFor(value uint64) byte {
	if value == 0 {
		return 0
	}
	var n byte
	for value > 0 {
		value >>= 8
		n++
	}
	return n
}

// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package rlp decodes Recursive-Length Prefix encoded data, as defined in
// Appendix B of https://ethereum.github.io/yellowpaper/paper.pdf. This tool
// only ever decodes proof elements fetched over RPC, so only the decode
// direction is implemented; a node's own RLP encoding is produced by the
// storageroot package, which builds it directly rather than through this
// package's Item model.
package rlp

import "fmt"

// Item is either a String (a byte string) or a List (a sequence of items).
type Item interface {
	isItem()
}

// String is the atomic ground type of an RLP input: a string of bytes.
type String struct {
	Str []byte
}

func (String) isItem() {}

// List composes a sequence of items decoded from one RLP list.
type List struct {
	Items []Item
}

func (List) isItem() {}

// Decode parses one RLP-encoded item from data. Trailing bytes beyond the
// encoded item are an error: proof elements are each exactly one item.
func Decode(data []byte) (Item, error) {
	item, n, err := decode(data)
	if err != nil {
		return nil, err
	}
	if n != uint64(len(data)) {
		return nil, fmt.Errorf("rlp: %d trailing bytes after decoded item", uint64(len(data))-n)
	}
	return item, nil
}

func decode(data []byte) (Item, uint64, error) {
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("rlp: input is empty")
	}

	l := data[0]
	switch {
	case l < 0x80:
		return String{Str: data[0:1]}, 1, nil

	case l <= 0xb7:
		length := int(l - 0x80)
		if len(data) < length+1 {
			return nil, 0, fmt.Errorf("rlp: expected %d bytes, got %d", length+1, len(data))
		}
		return String{Str: data[1 : length+1]}, uint64(length + 1), nil

	case l < 0xc0:
		sizeLen := uint64(l - 0xb7)
		length, err := readSize(data[1:], byte(sizeLen))
		if err != nil {
			return nil, 0, err
		}
		offset := sizeLen + 1
		if uint64(len(data)) < offset+length {
			return nil, 0, fmt.Errorf("rlp: expected %d bytes, got %d", offset+length, len(data))
		}
		return String{Str: data[offset : offset+length]}, offset + length, nil

	case l <= 0xf7:
		length := int(l - 0xc0)
		if len(data) < length+1 {
			return nil, 0, fmt.Errorf("rlp: expected %d bytes, got %d", length+1, len(data))
		}
		items, err := decodeList(data[1 : length+1])
		return List{Items: items}, uint64(length + 1), err

	default:
		sizeLen := uint64(l - 0xf7)
		length, err := readSize(data[1:], byte(sizeLen))
		if err != nil {
			return nil, 0, err
		}
		offset := sizeLen + 1
		if uint64(len(data)) < offset+length {
			return nil, 0, fmt.Errorf("rlp: expected %d bytes, got %d", offset+length, len(data))
		}
		items, err := decodeList(data[offset : offset+length])
		return List{Items: items}, offset + length, err
	}
}

func decodeList(data []byte) ([]Item, error) {
	items := make([]Item, 0, 17)
	buf := data
	for len(buf) > 0 {
		item, n, err := decode(buf)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		buf = buf[n:]
	}
	return items, nil
}

func readSize(b []byte, slen byte) (uint64, error) {
	if int(slen) > len(b) || slen == 0 {
		return 0, fmt.Errorf("rlp: expected %d bytes, got %d", slen, len(b))
	}
	var s uint64
	for i := byte(0); i < slen; i++ {
		s = s<<8 | uint64(b[i])
	}
	return s, nil
}

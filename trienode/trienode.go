// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package trienode classifies one RLP-decoded proof element into the three
// Merkle-Patricia trie node shapes a secure storage trie can contain:
// branch, extension, and leaf.
package trienode

import (
	"github.com/ethprobe/triescrape/common"
	"github.com/ethprobe/triescrape/hexprefix"
	"github.com/ethprobe/triescrape/trienode/rlp"
)

// ErrMalformedNode reports an RLP shape that is none of branch, extension,
// or leaf.
const ErrMalformedNode = common.ConstError("trienode: malformed node")

// ErrUnexpectedBranchValue reports a 17-entry branch whose value slot
// (index 16) is non-empty; storage tries use 32-byte keys exhausted
// entirely by the 16 nibble-indexed children, so a value at a branch is
// never valid here.
const ErrUnexpectedBranchValue = common.ConstError("trienode: unexpected branch value")

// Node is the closed sum type of trie node variants a proof element can
// decode to. Exactly one of Branch, Extension, or Leaf is non-nil.
type Node struct {
	Branch    *BranchNode
	Extension *ExtensionNode
	Leaf      *LeafNode
}

// BranchNode has 16 nibble-indexed children, each either empty ([]byte(nil))
// or a child reference given as an RLP string (normally a 32-byte hash).
// A child node embedded inline as an RLP list is not accepted: Parse
// rejects such a branch with ErrMalformedNode.
type BranchNode struct {
	Children [16][]byte
}

// ExtensionNode shares Fragment among every key below Child.
type ExtensionNode struct {
	Fragment []hexprefix.Nibble
	Child    []byte
}

// LeafNode completes the key path with Fragment; Value is the RLP-encoded
// storage word.
type LeafNode struct {
	Fragment []hexprefix.Nibble
	Value    []byte
}

// Parse classifies the RLP encoding of one proof element.
func Parse(data []byte) (Node, error) {
	item, err := rlp.Decode(data)
	if err != nil {
		return Node{}, ErrMalformedNode
	}
	list, ok := item.(rlp.List)
	if !ok {
		return Node{}, ErrMalformedNode
	}

	switch len(list.Items) {
	case 17:
		return parseBranch(list.Items)
	case 2:
		return parseExtensionOrLeaf(list.Items)
	default:
		return Node{}, ErrMalformedNode
	}
}

func parseBranch(items []rlp.Item) (Node, error) {
	var branch BranchNode
	for i := 0; i < 16; i++ {
		s, ok := items[i].(rlp.String)
		if !ok {
			return Node{}, ErrMalformedNode
		}
		if len(s.Str) > 0 {
			branch.Children[i] = s.Str
		}
	}
	value, ok := items[16].(rlp.String)
	if !ok {
		return Node{}, ErrMalformedNode
	}
	if len(value.Str) > 0 {
		return Node{}, ErrUnexpectedBranchValue
	}
	return Node{Branch: &branch}, nil
}

func parseExtensionOrLeaf(items []rlp.Item) (Node, error) {
	pathItem, ok := items[0].(rlp.String)
	if !ok {
		return Node{}, ErrMalformedNode
	}
	valueItem, ok := items[1].(rlp.String)
	if !ok {
		return Node{}, ErrMalformedNode
	}

	fragment, isLeaf, err := hexprefix.Decode(pathItem.Str)
	if err != nil {
		return Node{}, ErrMalformedNode
	}

	if isLeaf {
		return Node{Leaf: &LeafNode{Fragment: fragment, Value: valueItem.Str}}, nil
	}
	// An extension's fragment is the nibble sequence shared by every key
	// below it; an empty fragment carries no information and cannot occur
	// in a well-formed trie.
	if len(fragment) == 0 {
		return Node{}, ErrMalformedNode
	}
	return Node{Extension: &ExtensionNode{Fragment: fragment, Child: valueItem.Str}}, nil
}

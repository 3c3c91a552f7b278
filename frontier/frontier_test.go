// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package frontier

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/ethprobe/triescrape/common"
	"github.com/ethprobe/triescrape/hexprefix"
	"github.com/ethprobe/triescrape/preimage"
	"github.com/ethprobe/triescrape/storageroot"
)

// --- local RLP/node fixture builders, mirroring storageroot's internal
// encoding rules, so these tests exercise a genuine encode-then-decode
// round trip rather than comparing against hand-computed byte literals. ---

func rlpString(s []byte) []byte {
	if len(s) == 1 && s[0] < 0x80 {
		return []byte{s[0]}
	}
	return append([]byte{0x80 + byte(len(s))}, s...)
}

func rlpList(items ...[]byte) []byte {
	var payload []byte
	for _, it := range items {
		payload = append(payload, it...)
	}
	if len(payload) < 56 {
		return append([]byte{0xc0 + byte(len(payload))}, payload...)
	}
	var lenBytes []byte
	for l := len(payload); l > 0; l >>= 8 {
		lenBytes = append([]byte{byte(l)}, lenBytes...)
	}
	header := append([]byte{0xf7 + byte(len(lenBytes))}, lenBytes...)
	return append(header, payload...)
}

func nodeChildRef(encoding []byte) []byte {
	if len(encoding) < 32 {
		return encoding
	}
	h := common.Keccak256(encoding)
	return rlpString(h[:])
}

func buildLeafBytes(fragment []hexprefix.Nibble, value []byte) []byte {
	return rlpList(rlpString(hexprefix.Encode(fragment, true)), rlpString(value))
}

func buildExtensionBytes(fragment []hexprefix.Nibble, child []byte) []byte {
	return rlpList(rlpString(hexprefix.Encode(fragment, false)), nodeChildRef(child))
}

func buildBranchBytes(children [16][]byte) []byte {
	items := make([][]byte, 17)
	for i := 0; i < 16; i++ {
		if children[i] == nil {
			items[i] = rlpString(nil)
		} else {
			items[i] = children[i]
		}
	}
	items[16] = rlpString(nil)
	return rlpList(items...)
}

func hashNibbles(h common.Hash) []hexprefix.Nibble {
	path := make([]hexprefix.Nibble, 0, 64)
	for _, b := range h {
		path = append(path, hexprefix.Nibble(b>>4), hexprefix.Nibble(b&0x0f))
	}
	return path
}

func slotHash(slot *big.Int) common.Hash {
	var buf [32]byte
	slot.FillBytes(buf[:])
	return common.Keccak256(buf[:])
}

func TestReconstruct_EmptyStorage(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := NewMockProofSource(ctrl)

	storageHash := storageroot.ComputeRoot(map[common.Hash][]byte{})
	var address common.Address

	client.EXPECT().
		GetProof(gomock.Any(), address, big.NewInt(0), uint64(42)).
		Return(ProofResult{StorageHash: storageHash, Proof: nil}, nil).
		Times(1)

	result, err := Reconstruct(context.Background(), client, preimage.Table{Entries: map[string]uint64{}}, address, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Root != storageHash {
		t.Errorf("Root = %v, want %v", result.Root, storageHash)
	}
	if len(result.Storage) != 0 {
		t.Errorf("Storage = %v, want empty", result.Storage)
	}
}

func TestReconstruct_SingleSlot(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := NewMockProofSource(ctrl)

	var address common.Address
	key0 := slotHash(big.NewInt(0))
	value := []byte{0x2a}

	leafBytes := buildLeafBytes(hashNibbles(key0), value)
	storage := map[common.Hash][]byte{key0: value}
	storageHash := storageroot.ComputeRoot(storage)

	client.EXPECT().
		GetProof(gomock.Any(), address, big.NewInt(0), uint64(7)).
		Return(ProofResult{StorageHash: storageHash, Proof: [][]byte{leafBytes}}, nil).
		Times(1)

	result, err := Reconstruct(context.Background(), client, preimage.Table{Entries: map[string]uint64{}}, address, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Root != storageHash {
		t.Errorf("Root = %v, want %v", result.Root, storageHash)
	}
	if len(result.Storage) != 1 || string(result.Storage[key0]) != string(value) {
		t.Errorf("Storage = %v, want {%v: %v}", result.Storage, key0, value)
	}
}

func TestReconstruct_TwoSiblingLeaves(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := NewMockProofSource(ctrl)

	var address common.Address
	key0 := slotHash(big.NewInt(0))
	nib0 := int(key0[0] >> 4)

	table := preimage.PrecomputeTable(4000)
	var slot1 *big.Int
	var key1 common.Hash
	var targetNibble int
	for nibbleChar := 0; nibbleChar < 16; nibbleChar++ {
		if nibbleChar == nib0 {
			continue
		}
		prefix := string("0123456789abcdef"[nibbleChar])
		n, ok := table.Entries[prefix]
		if !ok {
			continue
		}
		slot1 = new(big.Int).SetUint64(n)
		key1 = slotHash(slot1)
		targetNibble = nibbleChar
		break
	}
	if slot1 == nil {
		t.Fatalf("precomputed table did not cover any sibling nibble prefix")
	}

	value0 := []byte{0x2a}
	value1 := []byte{0x2b}
	leaf0Bytes := buildLeafBytes(hashNibbles(key0)[1:], value0)
	leaf1Bytes := buildLeafBytes(hashNibbles(key1)[1:], value1)

	var children [16][]byte
	children[nib0] = nodeChildRef(leaf0Bytes)
	children[targetNibble] = nodeChildRef(leaf1Bytes)
	branchBytes := buildBranchBytes(children)

	storage := map[common.Hash][]byte{key0: value0, key1: value1}
	storageHash := storageroot.ComputeRoot(storage)

	gomock.InOrder(
		client.EXPECT().
			GetProof(gomock.Any(), address, big.NewInt(0), uint64(1)).
			Return(ProofResult{StorageHash: storageHash, Proof: [][]byte{branchBytes, leaf0Bytes}}, nil),
		client.EXPECT().
			GetProof(gomock.Any(), address, slot1, uint64(1)).
			Return(ProofResult{StorageHash: storageHash, Proof: [][]byte{branchBytes, leaf1Bytes}}, nil),
	)

	result, err := Reconstruct(context.Background(), client, table, address, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Root != storageHash {
		t.Errorf("Root = %v, want %v", result.Root, storageHash)
	}
	if len(result.Storage) != 2 {
		t.Fatalf("Storage has %d entries, want 2", len(result.Storage))
	}
	if string(result.Storage[key0]) != string(value0) || string(result.Storage[key1]) != string(value1) {
		t.Errorf("Storage = %v, want {%v: %v, %v: %v}", result.Storage, key0, value0, key1, value1)
	}
}

func TestReconstruct_MalformedNodeIsFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := NewMockProofSource(ctrl)

	var address common.Address
	badPath := rlpString([]byte{0x50}) // flag nibble 5: invalid hex-prefix flag
	badValue := rlpString([]byte{0x01})
	badNode := rlpList(badPath, badValue)

	client.EXPECT().
		GetProof(gomock.Any(), address, big.NewInt(0), uint64(9)).
		Return(ProofResult{StorageHash: common.Hash{}, Proof: [][]byte{badNode}}, nil).
		Times(1)

	_, err := Reconstruct(context.Background(), client, preimage.Table{Entries: map[string]uint64{}}, address, 9)
	if !errors.Is(err, ErrMalformedNode) {
		t.Errorf("expected ErrMalformedNode, got %v", err)
	}
}

// TestFold_DeepExtensionFrontierEntries exercises a root branch -> extension
// (5-nibble fragment) -> branch -> leaf chain, and checks that the branch
// below the extension contributes a frontier entry of exactly
// prefix+fragment+sibling-nibble for the path not taken.
func TestFold_DeepExtensionFrontierEntries(t *testing.T) {
	rootNibble := hexprefix.Nibble(0xa)
	extFragment := []hexprefix.Nibble{1, 2, 3, 4, 5}
	branchNibble := hexprefix.Nibble(6)
	siblingNibble := hexprefix.Nibble(9)
	leafFragment := make([]hexprefix.Nibble, 57)
	for i := range leafFragment {
		leafFragment[i] = hexprefix.Nibble(i % 16)
	}

	probeNibbles := make([]hexprefix.Nibble, 0, 64)
	probeNibbles = append(probeNibbles, rootNibble)
	probeNibbles = append(probeNibbles, extFragment...)
	probeNibbles = append(probeNibbles, branchNibble)
	probeNibbles = append(probeNibbles, leafFragment...)
	probeKey := nibblesToPath(probeNibbles)
	if len(probeKey) != 64 {
		t.Fatalf("test setup: probe path has %d nibbles, want 64", len(probeKey))
	}

	value := []byte{0x7a}
	leafBytes := buildLeafBytes(leafFragment, value)

	var branchChildren [16][]byte
	branchChildren[branchNibble] = nodeChildRef(leafBytes)
	branchChildren[siblingNibble] = nodeChildRef(buildLeafBytes([]hexprefix.Nibble{0}, []byte{0x01}))
	branchBytes := buildBranchBytes(branchChildren)

	extBytes := buildExtensionBytes(extFragment, branchBytes)

	var rootChildren [16][]byte
	rootChildren[rootNibble] = nodeChildRef(extBytes)
	rootBranchBytes := buildBranchBytes(rootChildren)

	storage := make(map[common.Hash][]byte)
	frontierSet := make(map[path]struct{})
	visited := make(map[path]struct{})

	proofNodes := [][]byte{rootBranchBytes, extBytes, branchBytes, leafBytes}
	if err := fold(proofNodes, probeKey, storage, frontierSet, visited); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	siblingNibbles := make([]hexprefix.Nibble, 0, 7)
	siblingNibbles = append(siblingNibbles, rootNibble)
	siblingNibbles = append(siblingNibbles, extFragment...)
	siblingNibbles = append(siblingNibbles, siblingNibble)
	wantSibling := nibblesToPath(siblingNibbles)

	if _, ok := frontierSet[wantSibling]; !ok {
		t.Errorf("frontierSet = %v, want entry %q (prefix+fragment+sibling-nibble)", frontierSet, wantSibling)
	}
	if len(frontierSet) != 1 {
		t.Errorf("frontierSet = %v, want exactly one entry", frontierSet)
	}

	keyBytes, err := hex.DecodeString(string(probeKey))
	if err != nil {
		t.Fatalf("test setup: %v", err)
	}
	var key common.Hash
	copy(key[:], keyBytes)
	if string(storage[key]) != string(value) {
		t.Errorf("storage[%v] = %v, want %v", key, storage[key], value)
	}
}

// TestReconstruct_256LeavesNestedBranches exercises a root branch whose 16
// children are themselves branches, one leaf per second nibble -- 256
// leaves in total -- and checks that reconstruction drains the frontier
// across exactly 256 GetProof calls.
func TestReconstruct_256LeavesNestedBranches(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := NewMockProofSource(ctrl)

	var address common.Address
	table := preimage.PrecomputeTable(20000)

	type leafInfo struct {
		value []byte
		bytes []byte
	}
	var leaves [16][16]leafInfo
	storage := make(map[common.Hash][]byte, 256)

	idx := 0
	for top := 0; top < 16; top++ {
		for second := 0; second < 16; second++ {
			prefix := string("0123456789abcdef"[top]) + string("0123456789abcdef"[second])
			n, ok := table.Entries[prefix]
			if !ok {
				t.Fatalf("precomputed table did not cover prefix %q", prefix)
			}
			key := slotHash(new(big.Int).SetUint64(n))
			value := []byte{byte(idx)}
			leaves[top][second] = leafInfo{
				value: value,
				bytes: buildLeafBytes(hashNibbles(key)[2:], value),
			}
			storage[key] = value
			idx++
		}
	}

	var secondBranchBytes [16][]byte
	var rootChildren [16][]byte
	for top := 0; top < 16; top++ {
		var children [16][]byte
		for second := 0; second < 16; second++ {
			children[second] = nodeChildRef(leaves[top][second].bytes)
		}
		secondBranchBytes[top] = buildBranchBytes(children)
		rootChildren[top] = nodeChildRef(secondBranchBytes[top])
	}
	rootBranchBytes := buildBranchBytes(rootChildren)

	storageHash := storageroot.ComputeRoot(storage)

	calls := 0
	client.EXPECT().
		GetProof(gomock.Any(), address, gomock.Any(), uint64(5)).
		DoAndReturn(func(_ context.Context, _ common.Address, slot *big.Int, _ uint64) (ProofResult, error) {
			calls++
			key := slotHash(slot)
			top := int(key[0] >> 4)
			second := int(key[0] & 0x0f)
			return ProofResult{
				StorageHash: storageHash,
				Proof:       [][]byte{rootBranchBytes, secondBranchBytes[top], leaves[top][second].bytes},
			}, nil
		}).
		Times(256)

	result, err := Reconstruct(context.Background(), client, table, address, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Root != storageHash {
		t.Errorf("Root = %v, want %v", result.Root, storageHash)
	}
	if len(result.Storage) != 256 {
		t.Fatalf("Storage has %d entries, want 256", len(result.Storage))
	}
	if calls != 256 {
		t.Errorf("GetProof called %d times, want 256", calls)
	}
}

func TestReconstruct_RootMismatchIsFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := NewMockProofSource(ctrl)

	var address common.Address
	key0 := slotHash(big.NewInt(0))
	value := []byte{0x2a}
	leafBytes := buildLeafBytes(hashNibbles(key0), value)

	wrongHash := common.Hash{0xff}

	client.EXPECT().
		GetProof(gomock.Any(), address, big.NewInt(0), uint64(3)).
		Return(ProofResult{StorageHash: wrongHash, Proof: [][]byte{leafBytes}}, nil).
		Times(1)

	_, err := Reconstruct(context.Background(), client, preimage.Table{Entries: map[string]uint64{}}, address, 3)
	if !errors.Is(err, ErrFrontierExhausted) {
		t.Errorf("expected ErrFrontierExhausted, got %v", err)
	}
}

func TestReconstruct_LeafPathWrongLengthIsFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := NewMockProofSource(ctrl)

	var address common.Address
	shortFragment := make([]hexprefix.Nibble, 10)
	for i := range shortFragment {
		shortFragment[i] = hexprefix.Nibble(i % 16)
	}
	leafBytes := buildLeafBytes(shortFragment, []byte{0x2a})

	client.EXPECT().
		GetProof(gomock.Any(), address, big.NewInt(0), uint64(11)).
		Return(ProofResult{StorageHash: common.Hash{}, Proof: [][]byte{leafBytes}}, nil).
		Times(1)

	_, err := Reconstruct(context.Background(), client, preimage.Table{Entries: map[string]uint64{}}, address, 11)
	if !errors.Is(err, ErrMalformedLeafPath) {
		t.Errorf("expected ErrMalformedLeafPath, got %v", err)
	}
}

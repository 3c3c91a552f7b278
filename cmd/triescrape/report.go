// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"sort"

	"github.com/ethprobe/triescrape/common"
	"github.com/ethprobe/triescrape/frontier"
	"github.com/ethprobe/triescrape/preimage"
	"github.com/ethprobe/triescrape/trienode/rlp"
)

// printReport writes one tab-separated line per recovered slot: the hashed
// key, its integer preimage if the precomputation table happens to cover
// that exact 64-nibble digest (None otherwise), and the RLP-decoded value.
// Keys are sorted (via common.HashComparator) for a stable, diffable report
// across runs.
func printReport(w io.Writer, result frontier.Result, table preimage.Table) {
	fmt.Fprintln(w, "Slot\tKey\tValue")

	keys := make([]common.Hash, 0, len(result.Storage))
	for key := range result.Storage {
		keys = append(keys, key)
	}
	cmp := common.HashComparator{}
	sort.Slice(keys, func(i, j int) bool {
		return cmp.Compare(&keys[i], &keys[j]) < 0
	})

	for _, key := range keys {
		slot := hex.EncodeToString(key[:])
		preimageStr := "None"
		if n, ok := table.Entries[slot]; ok {
			preimageStr = fmt.Sprintf("%d", n)
		}
		value := result.Storage[key]
		if item, err := rlp.Decode(value); err == nil {
			if s, ok := item.(rlp.String); ok {
				value = s.Str
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", slot, preimageStr, hex.EncodeToString(value))
	}
}

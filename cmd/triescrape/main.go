// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Command triescrape reconstructs an Ethereum account's storage trie at a
// historical block using only eth_getProof, without access to the node's
// underlying database.
//
// Run using
//
//	go run ./cmd/triescrape --rpc-url <url> --block <number> <address>
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var (
	rpcURLFlag = &cli.StringFlag{
		Name:     "rpc-url",
		Aliases:  []string{"u"},
		Usage:    "Ethereum JSON-RPC endpoint of an archive node",
		Required: true,
	}
	blockFlag = &cli.Uint64Flag{
		Name:     "block",
		Aliases:  []string{"b"},
		Usage:    "Ethereum block number to reconstruct storage at",
		Required: true,
	}
	precomputationSizeFlag = &cli.IntFlag{
		Name:    "precomputation-size",
		Aliases: []string{"p"},
		Usage:   "number of Keccak-256 hashes to precompute",
		Value:   1_000_000,
	}
	savePrecomputationFlag = &cli.BoolFlag{
		Name:    "save-precomputation",
		Aliases: []string{"s"},
		Usage:   "save the precomputation table to precomputation.gob and reuse it on later runs",
	}
)

func main() {
	app := &cli.App{
		Name:      "triescrape",
		Usage:     "compute the storage trie of an Ethereum address using only JSON-RPC calls",
		Copyright: "(c) 2024 ethprobe",
		ArgsUsage: "<address>",
		Flags: []cli.Flag{
			rpcURLFlag,
			blockFlag,
			precomputationSizeFlag,
			savePrecomputationFlag,
		},
		Action: scrape,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

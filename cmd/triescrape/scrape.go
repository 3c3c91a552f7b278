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
	"log"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/ethprobe/triescrape/common"
	"github.com/ethprobe/triescrape/common/interrupt"
	"github.com/ethprobe/triescrape/frontier"
	"github.com/ethprobe/triescrape/rpcproof"
)

func scrape(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("missing address")
	}
	address, err := parseAddress(context.Args().Get(0))
	if err != nil {
		return err
	}

	rpcURL := context.String(rpcURLFlag.Name)
	block := context.Uint64(blockFlag.Name)
	precomputationSize := context.Int(precomputationSizeFlag.Name)
	savePrecomputation := context.Bool(savePrecomputationFlag.Name)

	log.Printf("address configured: %s", address)
	log.Printf("rpc-url configured: %s", rpcURL)
	log.Printf("block configured: %d", block)
	log.Printf("precomputation-size configured: %d", precomputationSize)
	log.Printf("save-precomputation configured: %t", savePrecomputation)

	table, err := loadOrBuildTable(precomputationSize, savePrecomputation)
	if err != nil {
		return fmt.Errorf("preparing precomputation table: %w", err)
	}

	ctx := interrupt.CancelOnInterrupt(context.Context)

	client, err := rpcproof.Dial(ctx, rpcURL)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", rpcURL, err)
	}
	defer client.Close()

	log.Printf("reconstructing storage trie at block %d", block)
	result, err := frontier.Reconstruct(ctx, client, table, address, block)
	if err != nil {
		return fmt.Errorf("reconstructing storage trie: %w", err)
	}
	log.Printf("reconstructed %d slots, root %s", len(result.Storage), result.Root)

	printReport(os.Stdout, result, table)
	return nil
}

func parseAddress(s string) (common.Address, error) {
	var address common.Address
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil || len(b) != len(address) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	copy(address[:], b)
	return address, nil
}

// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package preimage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"runtime"
	"strings"

	"github.com/ethprobe/triescrape/common"
)

// Find returns a slot whose hashed hex digest begins with prefix: a table
// lookup when the table covers prefix, otherwise a random-trial fallback.
func Find(ctx context.Context, t Table, prefix string) (*big.Int, error) {
	if len(prefix) == 0 || len(prefix) > 64 {
		return nil, fmt.Errorf("preimage: prefix length %d out of range 1..64", len(prefix))
	}
	if n, ok := t.lookup(prefix); ok {
		return n, nil
	}
	return RandomSearch(ctx, prefix)
}

// RandomSearch draws uniformly random 32-byte strings, hashes each, and
// returns the first whose hex digest begins with prefix. Work fans out
// across runtime.GOMAXPROCS(0) goroutines; the first hit cancels the rest.
// Expected trials are 16^len(prefix), so this is only practical for short
// prefixes the table failed to cover.
func RandomSearch(ctx context.Context, prefix string) (*big.Int, error) {
	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		slot *big.Int
		err  error
	}
	results := make(chan result, workers)

	for i := 0; i < workers; i++ {
		go func() {
			slot, err := searchOneWorker(ctx, prefix)
			select {
			case results <- result{slot, err}:
			case <-ctx.Done():
			}
		}()
	}

	for i := 0; i < workers; i++ {
		r := <-results
		if r.err == nil {
			cancel()
			return r.slot, nil
		}
		if r.err != context.Canceled {
			cancel()
			return nil, r.err
		}
	}
	return nil, ctx.Err()
}

func searchOneWorker(ctx context.Context, prefix string) (*big.Int, error) {
	var buf [32]byte
	for {
		select {
		case <-ctx.Done():
			return nil, context.Canceled
		default:
		}
		if _, err := rand.Read(buf[:]); err != nil {
			return nil, err
		}
		h := common.Keccak256(buf[:])
		if strings.HasPrefix(hex.EncodeToString(h[:]), prefix) {
			return new(big.Int).SetBytes(buf[:]), nil
		}
	}
}

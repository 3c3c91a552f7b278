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
	"fmt"
	"log"
	"os"

	"github.com/ethprobe/triescrape/preimage"
)

const precomputationFile = "precomputation.gob"

// loadOrBuildTable reuses a persisted precomputation table when persist is
// set and one is already on disk, rebuilding (and optionally saving) it
// otherwise.
func loadOrBuildTable(n int, persist bool) (preimage.Table, error) {
	if persist {
		if f, err := os.Open(precomputationFile); err == nil {
			defer f.Close()
			log.Printf("loading precomputation table from %s", precomputationFile)
			return preimage.LoadTable(f)
		}
	}

	log.Printf("building precomputation table for n=%d", n)
	table := preimage.PrecomputeTable(n)

	if persist {
		f, err := os.Create(precomputationFile)
		if err != nil {
			return preimage.Table{}, fmt.Errorf("creating %s: %w", precomputationFile, err)
		}
		defer f.Close()
		if err := table.Save(f); err != nil {
			return preimage.Table{}, fmt.Errorf("saving %s: %w", precomputationFile, err)
		}
		log.Printf("saved precomputation table to %s", precomputationFile)
	}

	return table, nil
}

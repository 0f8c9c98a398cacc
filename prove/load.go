// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package prove

import (
	"fmt"

	"github.com/ligetron/zkvm/config"
)

// loadArgv renders a config's argv entries into the flat (i64) word
// sequence CallExported passes to the guest entry point: two words per
// entry, a packed length-tagged value followed by the raw payload
// truncated/zero-extended to 8 bytes. The guest ABI this spec targets
// keeps argv small and fixed-width rather than pointer-indirected,
// since the config schema caps each entry at whatever fits an i64 or a
// short hex/string literal; this is a resolved open question, not a
// faithful model of arbitrary-length guest argv.
//
// Entries named in cfg.PrivateIndices are loaded the same way as the
// others: loadArgv does not consult PrivateIndices, writes nothing into
// guest memory, and marks no argv bytes secret.
func loadArgv(cfg *config.Config) ([]uint64, error) {
	argv := cfg.Argv()
	words := make([]uint64, 0, len(argv)*2)
	for i, a := range cfg.Args {
		b, err := a.Bytes()
		if err != nil {
			return nil, fmt.Errorf("arg %d: %w", i, err)
		}
		var word uint64
		for j := 0; j < len(b) && j < 8; j++ {
			word |= uint64(b[j]) << (8 * j)
		}
		words = append(words, uint64(len(b)), word)
	}
	return words, nil
}

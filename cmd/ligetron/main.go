// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ligetron",
	Short: "Ligero-IOP zero-knowledge WASM prover and verifier",
	Long: `ligetron runs a WASM guest program through a three-stage Ligero prover
(Merkle-commit, reduce-and-sum, sample-and-serialize), producing a
proof archive a verifier can check without re-executing the guest.`,
}

func main() {
	rootCmd.AddCommand(
		proveCmd(),
		verifyCmd(),
		inspectCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

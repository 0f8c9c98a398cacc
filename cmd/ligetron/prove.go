// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/ligetron/zkvm/archive"
	"github.com/ligetron/zkvm/config"
	"github.com/ligetron/zkvm/decode"
	"github.com/ligetron/zkvm/prove"
	luxlog "github.com/luxfi/log"
	"github.com/spf13/cobra"
)

func proveCmd() *cobra.Command {
	var configPath, outPath, seedHex string

	cmd := &cobra.Command{
		Use:   "prove",
		Short: "Run the three-stage prover over a guest program and write a proof archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := luxlog.NewTestLogger(luxlog.InfoLevel)

			f, err := os.Open(configPath)
			if err != nil {
				return fmt.Errorf("ligetron: open config: %w", err)
			}
			defer f.Close()
			cfg, err := config.Load(f)
			if err != nil {
				return fmt.Errorf("ligetron: %w", err)
			}

			src, err := os.ReadFile(cfg.Program)
			if err != nil {
				return fmt.Errorf("ligetron: read program: %w", err)
			}
			mod, err := decode.ParseWAT(string(src))
			if err != nil {
				return fmt.Errorf("ligetron: parse program: %w", err)
			}

			seed, err := parseSeed(seedHex)
			if err != nil {
				return err
			}

			arc, err := prove.Prove(&mod, cfg, seed, log)
			if err != nil {
				return fmt.Errorf("ligetron: prove: %w", err)
			}

			out, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("ligetron: create archive: %w", err)
			}
			defer out.Close()
			if err := archive.Write(out, arc); err != nil {
				return fmt.Errorf("ligetron: write archive: %w", err)
			}

			if err := prove.Verify(arc, log); err != nil {
				log.Error("prove: self-check failed", "err", err)
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to the JSON configuration object")
	cmd.Flags().StringVar(&outPath, "out", "proof.bin", "path to write the proof archive")
	cmd.Flags().StringVar(&seedHex, "seed", "", "32-byte hex PRNG seed (defaults to all zero)")
	cmd.MarkFlagRequired("config")
	return cmd
}

func parseSeed(seedHex string) ([32]byte, error) {
	var seed [32]byte
	if seedHex == "" {
		return seed, nil
	}
	b, err := hex.DecodeString(seedHex)
	if err != nil {
		return seed, fmt.Errorf("ligetron: invalid seed hex: %w", err)
	}
	if len(b) != 32 {
		return seed, fmt.Errorf("ligetron: seed must be 32 bytes, got %d", len(b))
	}
	copy(seed[:], b)
	return seed, nil
}

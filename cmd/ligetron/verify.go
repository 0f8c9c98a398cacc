// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/ligetron/zkvm/archive"
	"github.com/ligetron/zkvm/prove"
	luxlog "github.com/luxfi/log"
	"github.com/spf13/cobra"
)

func verifyCmd() *cobra.Command {
	var archivePath string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a proof archive's internal validation conditions",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := luxlog.NewTestLogger(luxlog.InfoLevel)

			f, err := os.Open(archivePath)
			if err != nil {
				return fmt.Errorf("ligetron: open archive: %w", err)
			}
			defer f.Close()
			arc, err := archive.Read(f)
			if err != nil {
				return fmt.Errorf("ligetron: %w", err)
			}

			if err := prove.Verify(arc, log); err != nil {
				log.Error("verify: rejected", "err", err)
				os.Exit(1)
			}
			fmt.Println("OK")
			return nil
		},
	}

	cmd.Flags().StringVar(&archivePath, "archive", "proof.bin", "path to the proof archive")
	return cmd
}

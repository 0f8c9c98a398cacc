// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/ligetron/zkvm/archive"
	"github.com/spf13/cobra"
)

func inspectCmd() *cobra.Command {
	var archivePath string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print a proof archive's header fields without verifying it",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(archivePath)
			if err != nil {
				return fmt.Errorf("ligetron: open archive: %w", err)
			}
			defer f.Close()
			arc, err := archive.Read(f)
			if err != nil {
				return fmt.Errorf("ligetron: %w", err)
			}

			fmt.Printf("root:       %x\n", arc.Root)
			fmt.Printf("seed:       %x\n", arc.Seed)
			fmt.Printf("code len:   %d\n", len(arc.CodeAggregate))
			fmt.Printf("linear len: %d\n", len(arc.LinearAggregate))
			fmt.Printf("quad len:   %d\n", len(arc.QuadraticAggregate))
			fmt.Printf("samples:    %d\n", len(arc.Decommit.Indices))
			fmt.Printf("columns:    %d\n", len(arc.Columns))
			return nil
		},
	}

	cmd.Flags().StringVar(&archivePath, "archive", "proof.bin", "path to the proof archive")
	return cmd
}

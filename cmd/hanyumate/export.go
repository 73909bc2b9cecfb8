package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hanyumate/hanyumate/internal/vocab"
)

func newExportCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Write the configured vocabulary to an Excel workbook, one sheet per level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := args[0]
			if !strings.EqualFold(filepath.Ext(out), ".xlsx") {
				return fmt.Errorf("output must be an .xlsx file, got %q", out)
			}

			cfg, err := root.loadConfig(cmd)
			if err != nil {
				return err
			}
			bank, err := vocab.Load(cfg.Vocab.Path)
			if err != nil {
				return fmt.Errorf("loading vocabulary: %w", err)
			}
			if err := vocab.WriteWorkbook(bank, out); err != nil {
				return err
			}

			total := 0
			for _, l := range bank.Levels() {
				total += bank.Size(l)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d entries in %d levels to %s\n", total, len(bank.Levels()), out)
			return nil
		},
	}
}

func newLevelsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "levels",
		Short: "List vocabulary levels and their sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig(cmd)
			if err != nil {
				return err
			}
			bank, err := vocab.Load(cfg.Vocab.Path)
			if err != nil {
				return fmt.Errorf("loading vocabulary: %w", err)
			}
			for _, l := range bank.Levels() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", l, bank.Size(l))
			}
			return nil
		},
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/otelconv/weaver/internal/diff"
	"github.com/otelconv/weaver/internal/registry"
)

// diffCmd resolves two registries and compares them, per spec.md §4.8.
func diffCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "diff <baseline-registry-path> <head-registry-path>",
		Short: "Compare two resolved registry schemas",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			baselineReg, err := resolveRegistry(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("resolving baseline: %w", err)
			}
			headReg, err := resolveRegistry(cmd.Context(), args[1])
			if err != nil {
				return fmt.Errorf("resolving head: %w", err)
			}

			baseline := registry.Denormalize(baselineReg)
			head := registry.Denormalize(headReg)

			result := diff.Compare(baseline, head)

			raw, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling diff result: %w", err)
			}
			if outPath == "" {
				fmt.Fprintln(cmd.OutOrStdout(), string(raw))
				return nil
			}
			return os.WriteFile(outPath, raw, 0o644)
		},
	}

	cmd.Flags().StringVar(&outPath, "output", "", "write the diff result JSON to this path instead of stdout")

	return cmd
}

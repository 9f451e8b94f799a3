package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/otelconv/weaver/internal/forge"
	"github.com/otelconv/weaver/internal/registry"
)

// generateCmd resolves a registry and renders a template directory against
// it, per spec.md §4.6.
func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <registry-path> <template-dir> <output-dir>",
		Short: "Render templates against a resolved registry",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			registryPath, templateDir, outDir := args[0], args[1], args[2]

			reg, err := resolveRegistry(cmd.Context(), registryPath)
			if err != nil {
				return err
			}
			schema := registry.Denormalize(reg)

			cfg, err := forge.LoadConfig(templateDir)
			if err != nil {
				return fmt.Errorf("loading %s: %w", forge.ConfigFileName, err)
			}

			engine := forge.NewEngine(cfg)
			result := engine.Render(cmd.Context(), templateDir, outDir, schema)
			if result.IsFatal() {
				return fmt.Errorf("rendering templates: %w", result.Fatal)
			}
			if result.HasNonFatals() {
				fmt.Fprintf(os.Stderr, "warning: %v\n", result.NonFatal.Err())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rendered %d file(s) into %s\n", result.Value, outDir)
			return nil
		},
	}
	return cmd
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/otelconv/weaver/internal/loader"
	"github.com/otelconv/weaver/internal/registry"
	"github.com/otelconv/weaver/internal/resolver"
	"github.com/otelconv/weaver/internal/vdir"
)

func resolveCmd() *cobra.Command {
	var (
		outPath string
		stats   bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <registry-path>",
		Short: "Load and resolve a semantic convention registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := resolveRegistry(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			schema := registry.Denormalize(reg)

			if stats {
				printResolveStats(cmd.OutOrStdout(), schema)
			}

			raw, err := json.MarshalIndent(schema, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling resolved schema: %w", err)
			}
			if outPath == "" {
				fmt.Fprintln(cmd.OutOrStdout(), string(raw))
				return nil
			}
			return os.WriteFile(outPath, raw, 0o644)
		},
	}

	cmd.Flags().StringVar(&outPath, "output", "", "write the resolved schema JSON to this path instead of stdout")
	cmd.Flags().BoolVar(&stats, "stats", false, "print a summary table of resolved groups/attributes")

	return cmd
}

// resolveRegistry runs the full loader -> resolver pipeline for a local
// registry path, surfacing non-fatal warnings to stderr and returning any
// fatal error wrapped for the CLI.
func resolveRegistry(ctx context.Context, path string) (*registry.Registry, error) {
	loadResult := loader.Load(ctx, vdir.LocalFolder(path), loader.Options{})
	if loadResult.IsFatal() {
		return nil, fmt.Errorf("loading registry: %w", loadResult.Fatal)
	}
	if loadResult.HasNonFatals() {
		fmt.Fprintf(os.Stderr, "warning: %v\n", loadResult.NonFatal.Err())
	}

	repo := loadResult.Value
	if repo.Resolved != nil {
		// Manifest declared a pre-resolved schema; nothing left to resolve.
		return nil, fmt.Errorf("registry %q is already resolved (resolved_schema_uri); use it directly", path)
	}

	result := resolver.Resolve(repo.RegistryID, repo.AllSpecs())
	if result.IsFatal() {
		return nil, fmt.Errorf("resolving registry: %w", result.Fatal)
	}
	if result.HasNonFatals() {
		fmt.Fprintf(os.Stderr, "warning: %v\n", result.NonFatal.Err())
	}
	return result.Value, nil
}

func printResolveStats(w io.Writer, schema *registry.ResolvedRegistry) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Group", "Type", "Attributes"})
	for _, g := range schema.Groups {
		t.AppendRow(table.Row{g.ID, g.Type, len(g.Attributes)})
	}
	t.Render()
}

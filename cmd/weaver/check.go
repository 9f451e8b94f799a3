package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/otelconv/weaver/internal/loader"
	"github.com/otelconv/weaver/internal/policy"
	"github.com/otelconv/weaver/internal/registry"
	"github.com/otelconv/weaver/internal/resolver"
	"github.com/otelconv/weaver/internal/vdir"
)

// checkCmd resolves a registry and runs the BeforeResolution and
// AfterResolution Rego stages against it, per spec.md §4.5. A violation of
// kind "policy" aborts with exit code 1 (see main.go's exitCodeFor); kind
// "advice" is printed but does not fail the run.
func checkCmd() *cobra.Command {
	var policyPath string

	cmd := &cobra.Command{
		Use:   "check <registry-path>",
		Short: "Resolve a registry and enforce Rego policies against it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			loadResult := loader.Load(ctx, vdir.LocalFolder(args[0]), loader.Options{})
			if loadResult.IsFatal() {
				return fmt.Errorf("loading registry: %w", loadResult.Fatal)
			}
			repo := loadResult.Value
			if loadResult.HasNonFatals() {
				fmt.Fprintf(os.Stderr, "warning: %v\n", loadResult.NonFatal.Err())
			}

			var engine *policy.Engine
			if policyPath != "" {
				policies, err := policy.LoadPath(policyPath)
				if err != nil {
					return fmt.Errorf("loading policies: %w", err)
				}
				engine = policy.New(policies)
			}

			var violations []policy.Violation
			if engine != nil {
				for _, spec := range repo.AllSpecs() {
					result := engine.Clone().Evaluate(ctx, policy.StageBeforeResolution, spec, nil)
					v, err := result.Unwrap()
					if err != nil {
						return fmt.Errorf("evaluating before_resolution policies: %w", err)
					}
					violations = append(violations, v...)
				}
			}

			resolveResult := resolver.Resolve(repo.RegistryID, repo.AllSpecs())
			if resolveResult.IsFatal() {
				return fmt.Errorf("resolving registry: %w", resolveResult.Fatal)
			}
			if resolveResult.HasNonFatals() {
				fmt.Fprintf(os.Stderr, "warning: %v\n", resolveResult.NonFatal.Err())
			}
			schema := registry.Denormalize(resolveResult.Value)

			if engine != nil {
				result := engine.Evaluate(ctx, policy.StageAfterResolution, schema, nil)
				v, err := result.Unwrap()
				if err != nil {
					return fmt.Errorf("evaluating after_resolution policies: %w", err)
				}
				violations = append(violations, v...)
			}

			if len(violations) == 0 {
				fmt.Fprintln(w, "ok: no policy violations")
				return nil
			}

			var hardFailures int
			for _, v := range violations {
				fmt.Fprintf(w, "[%s] %s: %s\n", v.Type, v.ID, v.Message)
				if v.Type == policy.ViolationPolicy {
					hardFailures++
				}
			}
			if hardFailures > 0 {
				return &policyThresholdError{violations: hardFailures}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&policyPath, "policy", "", "directory (or single file) of .rego policies to evaluate")

	return cmd
}

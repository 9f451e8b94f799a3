// Registry resolution, policy, generation, and live-check CLI.
// Structured the way cmd/motel/main.go is: a rootCmd() constructor, one
// xCmd() constructor per subcommand, RunE returning wrapped errors.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "weaver",
		Short:        "Resolve, check, render, and diff semantic convention registries",
		SilenceUsage: true,
	}

	root.AddCommand(registryCmd())
	root.AddCommand(liveCheckCmd())
	root.AddCommand(versionCmd())

	return root
}

func registryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Commands operating on a semantic convention registry",
	}
	cmd.AddCommand(resolveCmd())
	cmd.AddCommand(checkCmd())
	cmd.AddCommand(generateCmd())
	cmd.AddCommand(diffCmd())
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "weaver %s (%s)\n", version, commit)
			return nil
		},
	}
}

// exitCodeFor maps an error to spec.md §6's exit-code contract: 0 clean,
// 1 policy violations at/above threshold, 2 fatal errors.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var pe *policyThresholdError
	if errors.As(err, &pe) {
		return 1
	}
	return 2
}

type policyThresholdError struct{ violations int }

func (e *policyThresholdError) Error() string {
	return fmt.Sprintf("%d policy violation(s) at or above threshold", e.violations)
}

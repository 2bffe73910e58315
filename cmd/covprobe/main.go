// Package main provides the entry point for the covprobe CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/covprobe/cmd/covprobe/commands"
	"github.com/Sumatoshi-tech/covprobe/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	global := &commands.GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "covprobe",
		Short: "Covprobe - coverage probe reports",
		Long: `Covprobe turns probe hit data recorded by instrumented programs into
line, function and branch coverage reports.

Commands:
  report    Synthesize reports (lcov, json, yaml, table, html, prom)
  merge     Merge coverage data files
  validate  Validate a coverage map against the schema
  check     Enforce minimum coverage percentages`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	global.Register(rootCmd)

	// Add commands.
	rootCmd.AddCommand(commands.NewReportCommand(global))
	rootCmd.AddCommand(commands.NewMergeCommand(global))
	rootCmd.AddCommand(commands.NewValidateCommand(global))
	rootCmd.AddCommand(commands.NewCheckCommand(global))
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

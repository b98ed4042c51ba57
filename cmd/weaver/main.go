package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "weaver",
	Short: "Weaver - property-based HTTP API exploration engine",
	Long: `Weaver synthesizes sequences of calls against a machine-readable
HTTP API description, executes them against a running target, and
searches for sequences that witness one of five behavioral
properties: response-equality, response-inequality, response-check,
state-mutation, and state-identity. On any witness it shrinks the
sequence to a minimal failing example.`,
	Version: version,
}

func init() {
	rootCmd.AddCommand(exploreCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(serveCmd)
}

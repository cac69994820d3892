// Package cmd implements the shoptalk CLI.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shoptalk",
	Short: "Shoptalk - a tool-calling chat demo over a mock shop database",
	Long: `Shoptalk is a demo chat assistant that answers every request by
calling exactly one of a fixed set of tools against an in-memory
database of users and products.

Run "shoptalk serve" to start the HTTP API, or "shoptalk ask" for a
one-shot question from the command line.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

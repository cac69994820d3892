package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (injected at build time via ldflags)
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("Shoptalk %s\n", AppVersion)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)
		fmt.Println()

		// Check API keys without displaying full content
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			fmt.Println("GEMINI_API_KEY: configured")
		} else {
			fmt.Println("GEMINI_API_KEY: not set")
		}
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			fmt.Println("OPENAI_API_KEY: configured")
		} else {
			fmt.Println("OPENAI_API_KEY: not set")
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

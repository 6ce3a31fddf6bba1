package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags.
var Version string

// versionCmd prints the build version.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		if Version == "" {
			Version = "dev"
		}
		fmt.Printf("ai-podcast version: %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hugsndnugs/SCKillFeed/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sckillfeed %s\n", version.Version)
		if version.Commit != "" {
			fmt.Printf("  commit: %s\n", version.Commit)
		}
		if version.Date != "" {
			fmt.Printf("  built:  %s\n", version.Date)
		}
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}

package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hugsndnugs/SCKillFeed/internal/sink"
	"github.com/hugsndnugs/SCKillFeed/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show lifetime statistics from the kill history",
	Long: `Aggregate the CSV kill history into lifetime statistics: totals,
best streaks, sessions and play time. Gaps of more than two hours
between events start a new session.`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().String("player", "", "In-game handle to attribute kills and deaths")
	RootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	player := cfg.Player.Name
	if v, _ := cmd.Flags().GetString("player"); v != "" {
		player = v
	}

	path := historyPath(cfg)
	events, err := sink.ReadHistory(path)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Printf("No kill history at %s\n", path)
		return nil
	}

	lt := stats.ComputeLifetime(events, player)

	fmt.Printf("Lifetime statistics (%s)\n", path)
	if player != "" {
		fmt.Printf("  Player: %s\n", player)
	}
	fmt.Printf("  Events: %d across %d sessions\n", len(events), lt.Sessions)
	if !lt.FirstKill.IsZero() {
		fmt.Printf("  First kill: %s  Last kill: %s\n",
			lt.FirstKill.Local().Format("2006-01-02 15:04"),
			lt.LastKill.Local().Format("2006-01-02 15:04"))
		fmt.Printf("  Play time: %s\n", lt.PlayTime.Truncate(time.Minute))
	}
	if player == "" {
		fmt.Println("  [Tip] Set player.name to attribute kills and deaths")
		return nil
	}
	printTotals(lt.Totals)
	return nil
}

package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/hugsndnugs/SCKillFeed/internal/config"
	"github.com/hugsndnugs/SCKillFeed/internal/sink"
	"github.com/hugsndnugs/SCKillFeed/internal/stats"
)

// historyPath locates the kill history CSV for reading: the configured
// location if it exists, otherwise the home-directory fallback the writer
// may have used.
func historyPath(cfg *config.Config) string {
	primary := cfg.CSV.Filename
	if _, err := os.Stat(primary); err == nil {
		return primary
	}
	if fb, err := sink.FallbackPath(cfg.CSV.Filename); err == nil {
		if _, err := os.Stat(fb); err == nil {
			return fb
		}
	}
	return primary
}

func printSessionSummary(s stats.Session, player string) {
	fmt.Println("Session summary")
	fmt.Printf("  Events seen: %d\n", s.TotalEvents)
	if player == "" {
		fmt.Println("  [Tip] Set player.name to track kills and deaths")
		return
	}
	printTotals(s.Totals)
}

func printTotals(t stats.Totals) {
	fmt.Printf("  Kills: %d  Deaths: %d  K/D: %.2f\n", t.TotalKills, t.TotalDeaths, t.KDRatio())
	fmt.Printf("  Best streaks: %d kills / %d deaths\n", t.MaxKillStreak, t.MaxDeathStreak)
	if t.Suicides > 0 {
		fmt.Printf("  Suicides: %d\n", t.Suicides)
	}
	if top := formatTop(t.WeaponsUsed, 3); top != "" {
		fmt.Printf("  Top weapons: %s\n", top)
	}
	if top := formatTop(t.Victims, 3); top != "" {
		fmt.Printf("  Top victims: %s\n", top)
	}
	if top := formatTop(t.Killers, 3); top != "" {
		fmt.Printf("  Killed most by: %s\n", top)
	}
}

func formatTop(c stats.Counter, n int) string {
	entries := c.MostCommon(n)
	if len(entries) == 0 {
		return ""
	}
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, fmt.Sprintf("%s (%d)", e.Name, e.Count))
	}
	return strings.Join(parts, ", ")
}

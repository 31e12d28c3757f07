package commands

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hugsndnugs/SCKillFeed/internal/sink"
	"github.com/hugsndnugs/SCKillFeed/internal/stats"
	"github.com/hugsndnugs/SCKillFeed/pkg/errors"
)

var exportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Export the kill history and statistics",
	Long: `Write the kill history and lifetime statistics to a file. The
extension picks the format (.json or .csv); any other path is treated
as a base name and both formats are written next to each other.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("player", "", "In-game handle to attribute kills and deaths")
	RootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	player := cfg.Player.Name
	if v, _ := cmd.Flags().GetString("player"); v != "" {
		player = v
	}

	histPath := historyPath(cfg)
	events, err := sink.ReadHistory(histPath)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return fmt.Errorf("%w: nothing to export from %s", errors.ErrNoKillEvents, histPath)
	}

	lt := stats.ComputeLifetime(events, player)
	exp := stats.NewExport(player, lt.Totals, events, time.Now())

	out := args[0]
	switch strings.ToLower(filepath.Ext(out)) {
	case ".json":
		if err := exp.WriteJSON(out); err != nil {
			return err
		}
		fmt.Printf("Exported %d events to %s\n", len(events), out)
	case ".csv":
		if err := exp.WriteCSV(out); err != nil {
			return err
		}
		fmt.Printf("Exported %d events to %s\n", len(events), out)
	default:
		base := strings.TrimSuffix(out, filepath.Ext(out))
		if err := exp.WriteCSV(base + ".csv"); err != nil {
			return err
		}
		if err := exp.WriteJSON(base + ".json"); err != nil {
			return err
		}
		fmt.Printf("Exported %d events to %s.csv and %s.json\n", len(events), base, base)
	}
	return nil
}

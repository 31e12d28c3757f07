package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hugsndnugs/SCKillFeed/internal/engine"
	"github.com/hugsndnugs/SCKillFeed/internal/feed"
	"github.com/hugsndnugs/SCKillFeed/internal/filter"
	"github.com/hugsndnugs/SCKillFeed/internal/parser"
	"github.com/hugsndnugs/SCKillFeed/internal/source"
	"github.com/hugsndnugs/SCKillFeed/internal/stats"
)

var replayCmd = &cobra.Command{
	Use:   "replay <game.log>",
	Short: "Replay an existing log through the kill feed",
	Long: `Read a complete Game.log from the beginning and print the kill feed
it would have produced, followed by the session summary. Nothing is
appended to the CSV history; replaying the same log twice prints the
same feed twice.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().String("player", "", "In-game handle for highlights and statistics")
	replayCmd.Flags().Bool("no-color", false, "Disable feed colors")
	RootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	player := cfg.Player.Name
	if v, _ := cmd.Flags().GetString("player"); v != "" {
		player = v
	}
	colors := cfg.Feed.Colors
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		colors = false
	}

	flt, err := filter.New(player, cfg.Feed.Rules)
	if err != nil {
		return err
	}

	src := source.NewFileSource(args[0], source.StartPos{Mode: source.PositionStart}, cfg.Log.MaxLinesPerPoll)
	if err := src.Open(); err != nil {
		return err
	}
	defer src.Close()

	p := parser.New()
	dedup := engine.NewDeduplicator(cfg.Dedup.Window)
	tracker := stats.NewTracker(player, cfg.Stats.MaxEntries)
	renderer := feed.NewRenderer(player, colors)

	ctx := cmd.Context()
	for {
		lines, err := src.Poll(ctx)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			break
		}
		for _, ln := range lines {
			ev, ok := p.Parse(ln.Text)
			if !ok {
				continue
			}
			if !dedup.Accept(ev) {
				continue
			}
			tracker.Record(ev)
			d := flt.Evaluate(ev)
			if d.Suppress {
				continue
			}
			fmt.Println(renderer.Line(ev, d.Highlight))
		}
	}

	fmt.Println()
	printSessionSummary(tracker.Snapshot(), player)
	return nil
}

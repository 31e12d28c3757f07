package commands

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hugsndnugs/SCKillFeed/internal/checkpoint"
	"github.com/hugsndnugs/SCKillFeed/internal/config"
	"github.com/hugsndnugs/SCKillFeed/internal/engine"
	"github.com/hugsndnugs/SCKillFeed/internal/feed"
	"github.com/hugsndnugs/SCKillFeed/internal/filter"
	"github.com/hugsndnugs/SCKillFeed/internal/sink"
	"github.com/hugsndnugs/SCKillFeed/internal/source"
	"github.com/hugsndnugs/SCKillFeed/internal/stats"
	"github.com/hugsndnugs/SCKillFeed/internal/utils/logger"
	"github.com/hugsndnugs/SCKillFeed/internal/version"
	"github.com/hugsndnugs/SCKillFeed/pkg/errors"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Tail Game.log and print the live kill feed",
	Long: `Tail the Star Citizen Game.log and print every kill as it happens.
Accepted events are appended to the CSV kill history; a session summary
is printed on exit (Ctrl+C).`,
	RunE: runFeed,
}

func init() {
	runCmd.Flags().String("log", "", "Path to Game.log (overrides config and discovery)")
	runCmd.Flags().String("player", "", "In-game handle for highlights and statistics")
	runCmd.Flags().Bool("no-color", false, "Disable feed colors")
	RootCmd.AddCommand(runCmd)
}

func runFeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	l := logger.Get(cmd.Context())

	logPath, err := resolveLogPath(cmd, cfg)
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

	// Resume offsets only matter when asked for, but an enabled checkpoint
	// keeps recording even while the position mode is start or end.
	var ckpt *checkpoint.Manager
	start := source.StartPos{Mode: cfg.Log.Position}
	if cfg.Checkpoint.Enabled || cfg.Log.Position == source.PositionResume {
		path, err := cfg.CheckpointPath()
		if err != nil {
			return err
		}
		ckpt = checkpoint.New(path)
		if err := ckpt.Load(); err != nil {
			l.Warnf("checkpoint unreadable, starting fresh: %v", err)
		}
		start = ckpt.StartPos(logPath, cfg.Log.Position)
	}

	var src source.Source
	switch cfg.Log.Backend {
	case "follow":
		src = source.NewFollowSource(logPath, start, cfg.Log.MaxLinesPerPoll)
	default:
		src = source.NewFileSource(logPath, start, cfg.Log.MaxLinesPerPoll)
	}

	opts := engine.Options{
		PollEvery:   cfg.PollEvery(),
		DedupWindow: cfg.Dedup.Window,
	}
	if cfg.CSV.Enabled {
		csvSink, err := openHistorySink(cfg)
		if err != nil {
			return err
		}
		defer csvSink.Close()
		opts.Sink = csvSink
		fmt.Printf("Logging CSV to: %s\n", csvSink.Path())
	}

	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.Listen, l)
	}

	tracker := stats.NewTracker(player, cfg.Stats.MaxEntries)
	renderer := feed.NewRenderer(player, colors)

	eng := engine.New(src, opts)
	if err := eng.Start(cmd.Context()); err != nil {
		return err
	}

	if ckpt != nil && cfg.Checkpoint.Enabled {
		ckpt.Start(checkpoint.DefaultSaveInterval, func() (string, int64) {
			return logPath, eng.Offset()
		})
		defer ckpt.Stop()
	}

	fmt.Printf("sckillfeed %s watching: %s\n", version.Version, logPath)
	fmt.Println("Exit terminal or press Ctrl+C to quit")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	events := eng.Events()
loop:
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				break loop
			}
			tracker.Record(ev)
			d := flt.Evaluate(ev)
			if d.Suppress {
				continue
			}
			fmt.Println(renderer.Line(ev, d.Highlight))
		case <-sig:
			l.Info("shutting down")
			eng.Stop()
			for ev := range events {
				tracker.Record(ev)
				d := flt.Evaluate(ev)
				if d.Suppress {
					continue
				}
				fmt.Println(renderer.Line(ev, d.Highlight))
			}
			break loop
		}
	}
	eng.Stop()

	fmt.Println()
	printSessionSummary(tracker.Snapshot(), player)
	return nil
}

// resolveLogPath picks the log file: flag, then config, then the common
// install locations.
func resolveLogPath(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if v, _ := cmd.Flags().GetString("log"); v != "" {
		return v, nil
	}
	if cfg.Log.Path != "" {
		return cfg.Log.Path, nil
	}
	if p, ok := config.DiscoverLogPath(); ok {
		return p, nil
	}
	return "", fmt.Errorf("%w: no Game.log in the usual locations, set log.path or pass --log", errors.ErrLogNotFound)
}

// openHistorySink opens the kill history CSV, falling back to the user
// home directory when the configured location is not writable.
func openHistorySink(cfg *config.Config) (*sink.CsvSink, error) {
	primary := cfg.CSV.Filename
	fallback, err := sink.FallbackPath(cfg.CSV.Filename)
	if err != nil {
		fallback = primary
	}
	path, err := sink.ResolvePath(primary, fallback, sink.ProbeAppend)
	if err != nil {
		return nil, err
	}
	if path != primary {
		fmt.Printf("Warning: could not open CSV at %s, using fallback location\n", primary)
	}
	return sink.NewCsvSink(path)
}

func serveMetrics(addr string, l *zap.SugaredLogger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	l.Infof("metrics listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil { // #nosec G114 // local scrape endpoint
		l.Warnf("metrics server stopped: %v", err)
	}
}

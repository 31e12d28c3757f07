package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hugsndnugs/SCKillFeed/internal/config"
	"github.com/hugsndnugs/SCKillFeed/internal/utils/logger"
)

var cfgFile string

var RootCmd = &cobra.Command{
	Use:   "sckillfeed",
	Short: "Live kill feed for Star Citizen",
	Long: `sckillfeed tails the Star Citizen Game.log, turns actor death lines
into a live kill feed and keeps a CSV kill history with session and
lifetime statistics.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Logging settings come from the config file. When it cannot be
		// loaded yet (missing, invalid), log to stderr and let the command
		// itself surface the config error.
		cfg, err := loadConfig()
		if err != nil {
			logger.Init(logger.LoggingConfig{Level: "info"})
		} else {
			logger.Init(cfg.Logging)
		}

		ctx := logger.WithContext(cmd.Context(), logger.Get(nil))
		cmd.SetContext(ctx)
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		fmt.Sprintf("Path to configuration file (default: %s)", config.DefaultConfigName))
}

// loadConfig resolves the effective configuration. An explicit --config
// must exist; the implicit working-directory file may be absent, in which
// case built-in defaults apply.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	return config.LoadOrDefault(config.DefaultConfigName)
}

func Execute() {
	err := RootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

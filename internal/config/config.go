package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hugsndnugs/SCKillFeed/internal/utils/fileutil"
	"github.com/hugsndnugs/SCKillFeed/internal/utils/logger"
	"github.com/hugsndnugs/SCKillFeed/pkg/errors"
)

const (
	// DefaultConfigName is the config file looked up in the working
	// directory when no --config flag is given.
	DefaultConfigName = "sckillfeed.yaml"

	// DefaultCSVName is the kill history file created next to the binary,
	// falling back to the user home when that is not writable.
	DefaultCSVName = "kill_log.csv"

	DefaultPollInterval    = 250 * time.Millisecond
	MinPollInterval        = 10 * time.Millisecond
	MaxPollInterval        = 10 * time.Second
	DefaultMaxLinesPerPoll = 100
	DefaultDedupWindow     = 200
	DefaultMaxStatsEntries = 1000
)

// DefaultConfigTemplate is written by `sckillfeed config init`. It is kept as
// a literal so the generated file carries its documentation.
const DefaultConfigTemplate = `# SC Kill Feed configuration

player:
  # Your in-game handle. Kills and deaths are attributed to this name in
  # session and lifetime statistics; leave empty to track everything.
  name: ""

log:
  # Path to the live Game.log. Leave empty to probe the usual Star Citizen
  # install locations.
  path: ""

  # Tail backend: "poll" reads new bytes on a fixed interval and survives
  # rotation and truncation; "follow" delegates to a follow-mode reader.
  backend: "poll"

  # Where to start reading: "end" (live feed, default), "start" (whole file),
  # or "resume" (continue from the saved checkpoint offset).
  position: "end"

  # How often to look for new lines.
  poll_interval: "250ms"

  # Upper bound on lines surfaced per poll cycle.
  max_lines_per_poll: 100

feed:
  # Colorize the live feed.
  colors: true

  # Optional display rules evaluated against every event. Suppressed events
  # are hidden from the feed but still recorded in the CSV history.
  rules: []
  # - name: "mute-self"
  #   expr: "Suicide"
  #   action: "suppress"
  # - name: "spot-rivals"
  #   expr: 'Killer == "Vagabondy" || Victim == "Vagabondy"'
  #   action: "highlight"

csv:
  # Append every accepted event to the kill history.
  enabled: true
  filename: "kill_log.csv"

dedup:
  # Fingerprints remembered for duplicate suppression.
  window: 200

stats:
  # Bound on per-weapon / per-player counter entries.
  max_entries: 1000

checkpoint:
  # Persist read offsets so "position: resume" can continue after a restart.
  enabled: false
  path: ""

metrics:
  # Serve Prometheus metrics over HTTP.
  enabled: false
  listen: ":9109"

logging:
  enabled: false
  level: "info"
  path: ""
  max_size: 10
  max_backups: 3
  max_age: 30
  compress: true
`

// Config is the top-level configuration.
type Config struct {
	Player     PlayerConfig         `yaml:"player"`
	Log        LogConfig            `yaml:"log"`
	Feed       FeedConfig           `yaml:"feed"`
	CSV        CSVConfig            `yaml:"csv"`
	Dedup      DedupConfig          `yaml:"dedup"`
	Stats      StatsConfig          `yaml:"stats"`
	Checkpoint CheckpointConfig     `yaml:"checkpoint"`
	Metrics    MetricsConfig        `yaml:"metrics"`
	Logging    logger.LoggingConfig `yaml:"logging"`
}

type PlayerConfig struct {
	Name string `yaml:"name"`
}

type LogConfig struct {
	Path    string `yaml:"path"`
	Backend string `yaml:"backend"`
	// Position is "start", "end" or "resume".
	Position        string `yaml:"position"`
	PollInterval    string `yaml:"poll_interval"`
	MaxLinesPerPoll int    `yaml:"max_lines_per_poll"`
}

type FeedConfig struct {
	Colors bool       `yaml:"colors"`
	Rules  []FeedRule `yaml:"rules"`
}

// FeedRule is a display-layer rule. Action is "suppress" or "highlight".
type FeedRule struct {
	Name   string `yaml:"name"`
	Expr   string `yaml:"expr"`
	Action string `yaml:"action"`
}

type CSVConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Filename string `yaml:"filename"`
}

type DedupConfig struct {
	Window int `yaml:"window"`
}

type StatsConfig struct {
	MaxEntries int `yaml:"max_entries"`
}

type CheckpointConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// Default returns the built-in configuration, matching the template above.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Backend:         "poll",
			Position:        "end",
			PollInterval:    DefaultPollInterval.String(),
			MaxLinesPerPoll: DefaultMaxLinesPerPoll,
		},
		Feed: FeedConfig{
			Colors: true,
		},
		CSV: CSVConfig{
			Enabled:  true,
			Filename: DefaultCSVName,
		},
		Dedup: DedupConfig{
			Window: DefaultDedupWindow,
		},
		Stats: StatsConfig{
			MaxEntries: DefaultMaxStatsEntries,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  ":9109",
		},
		Logging: logger.LoggingConfig{
			Enabled:    false,
			Level:      "info",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     30,
			Compress:   true,
		},
	}
}

// Load reads and validates the config file at path. The file must exist.
func Load(path string) (*Config, error) {
	safePath := filepath.Clean(path)
	data, err := os.ReadFile(safePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", errors.ErrConfigNotFound, path)
		}
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to the default config when
// the file does not exist. Used for the implicit working-directory lookup.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(filepath.Clean(path)); os.IsNotExist(err) {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	return Load(path)
}

// Validate clamps numeric settings into their supported ranges and rejects
// unknown enum values. Clamping mirrors how the desktop build treated
// out-of-range settings: correct and continue rather than refuse to start.
func (c *Config) Validate() error {
	switch c.Log.Backend {
	case "", "poll":
		c.Log.Backend = "poll"
	case "follow":
	default:
		return errors.NewConfigError("log.backend", c.Log.Backend)
	}

	switch c.Log.Position {
	case "", "end":
		c.Log.Position = "end"
	case "start", "resume":
	default:
		return errors.NewConfigError("log.position", c.Log.Position)
	}

	if c.Log.PollInterval == "" {
		c.Log.PollInterval = DefaultPollInterval.String()
	}
	d, err := time.ParseDuration(c.Log.PollInterval)
	if err != nil {
		return errors.NewConfigError("log.poll_interval", c.Log.PollInterval)
	}
	if d < MinPollInterval {
		d = MinPollInterval
	}
	if d > MaxPollInterval {
		d = MaxPollInterval
	}
	c.Log.PollInterval = d.String()

	if c.Log.MaxLinesPerPoll < 1 {
		c.Log.MaxLinesPerPoll = 1
	}
	if c.Log.MaxLinesPerPoll > 1000 {
		c.Log.MaxLinesPerPoll = 1000
	}

	if c.Dedup.Window < 16 {
		c.Dedup.Window = 16
	}
	if c.Dedup.Window > 10000 {
		c.Dedup.Window = 10000
	}

	if c.Stats.MaxEntries < 10 {
		c.Stats.MaxEntries = 10
	}
	if c.Stats.MaxEntries > 100000 {
		c.Stats.MaxEntries = 100000
	}

	if c.CSV.Filename == "" {
		c.CSV.Filename = DefaultCSVName
	}

	for _, r := range c.Feed.Rules {
		switch r.Action {
		case "suppress", "highlight":
		default:
			return errors.NewConfigError("feed.rules.action", r.Action)
		}
		if r.Expr == "" {
			return errors.NewConfigError("feed.rules.expr", r.Expr)
		}
	}

	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		return errors.NewConfigError("metrics.listen", c.Metrics.Listen)
	}

	return nil
}

// PollEvery returns the validated poll interval.
func (c *Config) PollEvery() time.Duration {
	d, err := time.ParseDuration(c.Log.PollInterval)
	if err != nil {
		return DefaultPollInterval
	}
	return d
}

// CheckpointPath returns the configured checkpoint file, defaulting to
// offsets.json under the per-user config directory.
func (c *Config) CheckpointPath() (string, error) {
	if c.Checkpoint.Path != "" {
		return c.Checkpoint.Path, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sckillfeed", "offsets.json"), nil
}

// WriteDefault writes the commented template to path without overwriting an
// existing file.
func WriteDefault(path string) error {
	safePath := filepath.Clean(path)
	if _, err := os.Stat(safePath); err == nil {
		return fmt.Errorf("%w: %s already exists", errors.ErrInvalidFilePath, path)
	}
	if err := fileutil.EnsureDir(filepath.Dir(safePath)); err != nil {
		return err
	}
	return fileutil.AtomicWriteFile(safePath, []byte(DefaultConfigTemplate), 0600)
}

// CommonLogPaths lists the usual Game.log locations, most specific first.
func CommonLogPaths() []string {
	paths := []string{}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, "AppData", "Local", "Star Citizen", "LIVE", "Game.log"),
			filepath.Join(home, "Documents", "Star Citizen", "LIVE", "Game.log"),
		)
	}
	paths = append(paths,
		`C:\Program Files\Roberts Space Industries\StarCitizen\LIVE\Game.log`,
	)
	return paths
}

// DiscoverLogPath probes the common locations and returns the first existing
// regular file.
func DiscoverLogPath() (string, bool) {
	for _, p := range CommonLogPaths() {
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}

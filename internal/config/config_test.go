package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"

	"github.com/hugsndnugs/SCKillFeed/pkg/errors"
)

func TestLoad_NonExistent(t *testing.T) {
	_, err := Load("/non/existent/path/sckillfeed.yaml")
	assert.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrConfigNotFound)
}

func TestLoad_Valid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "sckillfeed.yaml")
	configContent := `
player:
  name: "Vagabondy"
log:
  path: "/games/sc/Game.log"
  position: "start"
  poll_interval: "100ms"
csv:
  enabled: false
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	assert.NoError(t, err)

	cfg, err := Load(configPath)
	assert.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "Vagabondy", cfg.Player.Name)
	assert.Equal(t, "/games/sc/Game.log", cfg.Log.Path)
	assert.Equal(t, "start", cfg.Log.Position)
	assert.Equal(t, 100*time.Millisecond, cfg.PollEvery())
	assert.False(t, cfg.CSV.Enabled)

	// Untouched sections keep their defaults.
	assert.Equal(t, DefaultDedupWindow, cfg.Dedup.Window)
	assert.Equal(t, DefaultCSVName, cfg.CSV.Filename)
}

func TestLoad_Empty(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "sckillfeed.yaml")
	err := os.WriteFile(configPath, []byte(""), 0644)
	assert.NoError(t, err)

	cfg, err := Load(configPath)
	assert.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "poll", cfg.Log.Backend)
	assert.Equal(t, "end", cfg.Log.Position)
	assert.True(t, cfg.CSV.Enabled)
}

func TestLoadOrDefault_Missing(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.NoError(t, err)
	assert.Equal(t, DefaultMaxLinesPerPoll, cfg.Log.MaxLinesPerPoll)
}

func TestConfig_Validate_Clamps(t *testing.T) {
	cfg := Default()
	cfg.Log.PollInterval = "1ms"
	cfg.Log.MaxLinesPerPoll = 99999
	cfg.Dedup.Window = 1
	cfg.Stats.MaxEntries = 0

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, MinPollInterval, cfg.PollEvery())
	assert.Equal(t, 1000, cfg.Log.MaxLinesPerPoll)
	assert.Equal(t, 16, cfg.Dedup.Window)
	assert.Equal(t, 10, cfg.Stats.MaxEntries)

	cfg.Log.PollInterval = "1h"
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, MaxPollInterval, cfg.PollEvery())
}

func TestConfig_Validate_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad backend", func(c *Config) { c.Log.Backend = "inotify" }},
		{"bad position", func(c *Config) { c.Log.Position = "middle" }},
		{"bad interval", func(c *Config) { c.Log.PollInterval = "fast" }},
		{"bad rule action", func(c *Config) {
			c.Feed.Rules = []FeedRule{{Name: "x", Expr: "Suicide", Action: "drop"}}
		}},
		{"empty rule expr", func(c *Config) {
			c.Feed.Rules = []FeedRule{{Name: "x", Action: "suppress"}}
		}},
		{"metrics without listen", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.Listen = ""
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			assert.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrConfigInvalid)
		})
	}
}

func TestDefaultConfigTemplate_MatchesDefaults(t *testing.T) {
	// The documented template and Default() must agree so `config init`
	// produces exactly the built-in behavior.
	var fromTemplate Config
	err := yaml.Unmarshal([]byte(DefaultConfigTemplate), &fromTemplate)
	assert.NoError(t, err)
	assert.NoError(t, fromTemplate.Validate())

	def := Default()
	assert.Equal(t, def.Log, fromTemplate.Log)
	assert.Equal(t, def.CSV, fromTemplate.CSV)
	assert.Equal(t, def.Dedup, fromTemplate.Dedup)
	assert.Equal(t, def.Stats, fromTemplate.Stats)
	assert.Equal(t, def.Metrics, fromTemplate.Metrics)
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "sckillfeed.yaml")

	assert.NoError(t, WriteDefault(path))

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "SC Kill Feed configuration")

	// Refuses to clobber an existing file.
	err = WriteDefault(path)
	assert.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidFilePath)
}

func TestCheckpointPath_Explicit(t *testing.T) {
	cfg := Default()
	cfg.Checkpoint.Path = "/tmp/offsets.json"
	p, err := cfg.CheckpointPath()
	assert.NoError(t, err)
	assert.Equal(t, "/tmp/offsets.json", p)
}

func TestCommonLogPaths(t *testing.T) {
	paths := CommonLogPaths()
	assert.NotEmpty(t, paths)
	for _, p := range paths {
		assert.Contains(t, p, "Game.log")
	}
}

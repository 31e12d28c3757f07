package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugsndnugs/SCKillFeed/internal/config"
	"github.com/hugsndnugs/SCKillFeed/internal/stats"
	"github.com/hugsndnugs/SCKillFeed/pkg/errors"
)

func executeCommand(cmd *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// writeConfig drops a config file into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sckillfeed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRootHelpListsCommands(t *testing.T) {
	out, err := executeCommand(RootCmd, "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "Available Commands:")
	for _, name := range []string{"run", "replay", "stats", "export", "config", "version"} {
		assert.Contains(t, out, name)
	}
}

func TestVersionCommand(t *testing.T) {
	_, err := executeCommand(RootCmd, "version")
	assert.NoError(t, err)
}

func TestUnknownCommand(t *testing.T) {
	_, err := executeCommand(RootCmd, "frobnicate")
	assert.Error(t, err)
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sckillfeed.yaml")

	_, err := executeCommand(RootCmd, "config", "init", "--config", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "player:")
	assert.Contains(t, string(data), "poll_interval:")

	_, err = executeCommand(RootCmd, "config", "show", "--config", path)
	assert.NoError(t, err)
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	path := writeConfig(t, "player:\n  name: Hugs\n")

	_, err := executeCommand(RootCmd, "config", "init", "--config", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidFilePath)
}

func TestExport_NoHistory(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	dir := t.TempDir()
	cfgPath := writeConfig(t, "csv:\n  filename: "+filepath.Join(dir, "kill_log.csv")+"\n")

	_, err := executeCommand(RootCmd, "export", filepath.Join(dir, "out.json"), "--config", cfgPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNoKillEvents)
}

func TestExport_ExtensionPicksFormat(t *testing.T) {
	dir := t.TempDir()
	hist := filepath.Join(dir, "kill_log.csv")
	histData := "timestamp,killer,victim,weapon\n" +
		"2025-10-10T00:38:41Z,Alpha,Bravo,rifle_01\n" +
		"2025-10-10T00:39:10Z,Bravo,Alpha,pistol_02\n"
	require.NoError(t, os.WriteFile(hist, []byte(histData), 0o644))
	cfgPath := writeConfig(t, "player:\n  name: Alpha\ncsv:\n  filename: "+hist+"\n")

	jsonOut := filepath.Join(dir, "out.json")
	_, err := executeCommand(RootCmd, "export", jsonOut, "--config", cfgPath)
	require.NoError(t, err)

	data, err := os.ReadFile(jsonOut)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"player_name": "Alpha"`)
	assert.Contains(t, string(data), `"total_kills": 1`)

	csvOut := filepath.Join(dir, "out.csv")
	_, err = executeCommand(RootCmd, "export", csvOut, "--config", cfgPath)
	require.NoError(t, err)
	data, err = os.ReadFile(csvOut)
	require.NoError(t, err)
	assert.Contains(t, string(data), "timestamp,killer,victim,weapon")
}

func TestExport_BaseNameWritesBoth(t *testing.T) {
	dir := t.TempDir()
	hist := filepath.Join(dir, "kill_log.csv")
	histData := "timestamp,killer,victim,weapon\n" +
		"2025-10-10T00:38:41Z,Alpha,Bravo,rifle_01\n"
	require.NoError(t, os.WriteFile(hist, []byte(histData), 0o644))
	cfgPath := writeConfig(t, "csv:\n  filename: "+hist+"\n")

	base := filepath.Join(dir, "report")
	_, err := executeCommand(RootCmd, "export", base, "--config", cfgPath)
	require.NoError(t, err)

	assert.FileExists(t, base+".csv")
	assert.FileExists(t, base+".json")
}

func TestStats_EmptyHistoryIsNotAnError(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	dir := t.TempDir()
	cfgPath := writeConfig(t, "csv:\n  filename: "+filepath.Join(dir, "kill_log.csv")+"\n")

	_, err := executeCommand(RootCmd, "stats", "--config", cfgPath)
	assert.NoError(t, err)
}

func TestReplay_ReadsWholeLog(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "Game.log")
	lines := "<2025-10-10T00:38:41.123Z> [Notice] <Vehicle Control Flow> some noise\n" +
		"<2025-10-10T00:38:42.000Z> [Notice] <Actor Death> CActor::Kill: 'Bravo' [52] in zone 'TestZone' killed by 'Alpha' [7] using 'rifle_01' [Class unknown] with damage type 'Ballistic'\n"
	require.NoError(t, os.WriteFile(logPath, []byte(lines), 0o644))
	cfgPath := writeConfig(t, "feed:\n  colors: false\n")

	_, err := executeCommand(RootCmd, "replay", logPath, "--config", cfgPath)
	assert.NoError(t, err)
}

func TestReplay_MissingLog(t *testing.T) {
	cfgPath := writeConfig(t, "feed:\n  colors: false\n")

	_, err := executeCommand(RootCmd, "replay", filepath.Join(t.TempDir(), "gone.log"), "--config", cfgPath)
	assert.Error(t, err)
}

func TestResolveLogPath(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("log", "", "")

	cfg := config.Default()
	cfg.Log.Path = filepath.Join("configured", "Game.log")
	got, err := resolveLogPath(cmd, cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.Log.Path, got)

	require.NoError(t, cmd.Flags().Set("log", filepath.Join("flagged", "Game.log")))
	got, err = resolveLogPath(cmd, cfg)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("flagged", "Game.log"), got)
}

func TestHistoryPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	dir := t.TempDir()
	cfg := config.Default()
	cfg.CSV.Filename = filepath.Join(dir, "kill_log.csv")

	assert.Equal(t, cfg.CSV.Filename, historyPath(cfg))

	require.NoError(t, os.WriteFile(cfg.CSV.Filename, []byte("x"), 0o644))
	assert.Equal(t, cfg.CSV.Filename, historyPath(cfg))
}

func TestHistoryPath_HomeFallback(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	cfg := config.Default()
	cfg.CSV.Filename = filepath.Join(t.TempDir(), "kill_log.csv")

	fb := filepath.Join(home, "kill_log.csv")
	require.NoError(t, os.WriteFile(fb, []byte("x"), 0o644))
	assert.Equal(t, fb, historyPath(cfg))
}

func TestFormatTop(t *testing.T) {
	c := stats.Counter{"rifle": 3, "pistol": 1}
	assert.Equal(t, "rifle (3), pistol (1)", formatTop(c, 5))
	assert.Equal(t, "", formatTop(stats.Counter{}, 3))
}

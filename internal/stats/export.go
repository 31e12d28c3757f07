package stats

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"time"

	"github.com/hugsndnugs/SCKillFeed/internal/event"
	"github.com/hugsndnugs/SCKillFeed/internal/sink"
	"github.com/hugsndnugs/SCKillFeed/internal/utils/fileutil"
)

// ExportStatistics is the summary block of an export.
type ExportStatistics struct {
	TotalKills     int     `json:"total_kills"`
	TotalDeaths    int     `json:"total_deaths"`
	KillDeathRatio float64 `json:"kill_death_ratio"`
	MaxKillStreak  int     `json:"max_kill_streak"`
	MaxDeathStreak int     `json:"max_death_streak"`
}

// ExportEvent is one kill event in an export, timestamps RFC3339 UTC.
type ExportEvent struct {
	Timestamp string `json:"timestamp"`
	Killer    string `json:"killer"`
	Victim    string `json:"victim"`
	Weapon    string `json:"weapon"`
}

// Export is the serializable form of a player's statistics plus the
// events they were computed from.
type Export struct {
	PlayerName string           `json:"player_name"`
	ExportTime string           `json:"export_time"`
	Statistics ExportStatistics `json:"statistics"`
	KillEvents []ExportEvent    `json:"kill_events"`
}

// NewExport assembles the export payload from computed totals and the
// events behind them.
func NewExport(player string, totals Totals, events []event.KillEvent, now time.Time) Export {
	out := Export{
		PlayerName: player,
		ExportTime: now.UTC().Format(time.RFC3339),
		Statistics: ExportStatistics{
			TotalKills:     totals.TotalKills,
			TotalDeaths:    totals.TotalDeaths,
			KillDeathRatio: totals.KDRatio(),
			MaxKillStreak:  totals.MaxKillStreak,
			MaxDeathStreak: totals.MaxDeathStreak,
		},
		KillEvents: make([]ExportEvent, 0, len(events)),
	}
	for _, ev := range events {
		out.KillEvents = append(out.KillEvents, ExportEvent{
			Timestamp: ev.Timestamp.UTC().Format(time.RFC3339),
			Killer:    ev.Killer,
			Victim:    ev.Victim,
			Weapon:    ev.Weapon,
		})
	}
	return out
}

// WriteJSON writes the full export as indented JSON, atomically.
func (e Export) WriteJSON(path string) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return err
	}
	return fileutil.AtomicWriteFile(path, append(data, '\n'), 0o644)
}

// WriteCSV writes only the kill events, in the same column layout the
// history sink uses, atomically.
func (e Export) WriteCSV(path string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(sink.Header); err != nil {
		return err
	}
	for _, ev := range e.KillEvents {
		if err := w.Write([]string{ev.Timestamp, ev.Killer, ev.Victim, ev.Weapon}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return fileutil.AtomicWriteFile(path, buf.Bytes(), 0o644)
}

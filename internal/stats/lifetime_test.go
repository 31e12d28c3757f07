package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hugsndnugs/SCKillFeed/internal/event"
)

func histEvent(minute int, killer, victim, weapon string) event.KillEvent {
	return event.KillEvent{
		Timestamp: time.Date(2025, 10, 10, 0, 0, 0, 0, time.UTC).Add(time.Duration(minute) * time.Minute),
		Killer:    killer,
		Victim:    victim,
		Weapon:    weapon,
	}
}

func TestComputeLifetime_AggregatesHistory(t *testing.T) {
	history := []event.KillEvent{
		// First session.
		histEvent(0, "Hugs", "Alpha", "rifle_01"),
		histEvent(5, "Hugs", "Bravo", "rifle_01"),
		histEvent(10, "Charlie", "Hugs", "knife"),
		// More than two idle hours later: second session.
		histEvent(10 + 3*60, "Hugs", "Delta", "pistol_02"),
		histEvent(15 + 3*60, "Hugs", "Hugs", "collision"),
	}

	l := ComputeLifetime(history, "Hugs")

	assert.Equal(t, 3, l.TotalKills)
	assert.Equal(t, 2, l.TotalDeaths)
	assert.Equal(t, 1, l.Suicides)
	assert.Equal(t, 2, l.Sessions)
	assert.Equal(t, 2, l.MaxKillStreak)
	assert.Equal(t, 1, l.MaxDeathStreak)
	assert.InDelta(t, 1.5, l.KDRatio(), 0.001)

	assert.True(t, l.FirstKill.Equal(history[0].Timestamp))
	assert.True(t, l.LastKill.Equal(history[4].Timestamp))
	assert.Equal(t, history[4].Timestamp.Sub(history[0].Timestamp), l.PlayTime)

	assert.Equal(t, 2, l.WeaponsUsed["rifle_01"])
	assert.Equal(t, 1, l.WeaponsUsed["pistol_02"])
	assert.Equal(t, 1, l.WeaponsAgainst["knife"])
	assert.Equal(t, 1, l.WeaponsAgainst["collision"])
	assert.Equal(t, 1, l.Killers["Charlie"])
}

func TestComputeLifetime_Empty(t *testing.T) {
	l := ComputeLifetime(nil, "Hugs")

	assert.Equal(t, 0, l.TotalKills)
	assert.Equal(t, 0, l.Sessions)
	assert.True(t, l.FirstKill.IsZero())
	assert.Equal(t, time.Duration(0), l.PlayTime)
	assert.InDelta(t, 0.0, l.KDRatio(), 0.001)
}

func TestComputeLifetime_SkipsZeroTimestamps(t *testing.T) {
	history := []event.KillEvent{
		{Killer: "Hugs", Victim: "Alpha", Weapon: "rifle_01"},
		histEvent(0, "Hugs", "Bravo", "rifle_01"),
	}

	l := ComputeLifetime(history, "Hugs")
	assert.Equal(t, 1, l.TotalKills)
	assert.Equal(t, 1, l.Sessions)
}

func TestComputeLifetime_MatchesSessionTracker(t *testing.T) {
	history := []event.KillEvent{
		histEvent(0, "Hugs", "Alpha", "rifle_01"),
		histEvent(1, "Bravo", "Hugs", "knife"),
		histEvent(2, "Hugs", "Hugs", "collision"),
		histEvent(3, "Other", "Another", "laser_01"),
		histEvent(4, "Hugs", "Charlie", "rifle_01"),
	}

	tr := NewTracker("Hugs", 100)
	for _, ev := range history {
		tr.Record(ev)
	}
	session := tr.Snapshot()
	lifetime := ComputeLifetime(history, "Hugs")

	assert.Equal(t, session.TotalKills, lifetime.TotalKills)
	assert.Equal(t, session.TotalDeaths, lifetime.TotalDeaths)
	assert.Equal(t, session.Suicides, lifetime.Suicides)
	assert.Equal(t, session.MaxKillStreak, lifetime.MaxKillStreak)
	assert.Equal(t, session.MaxDeathStreak, lifetime.MaxDeathStreak)
	assert.Equal(t, session.WeaponsUsed, lifetime.WeaponsUsed)
	assert.Equal(t, session.Killers, lifetime.Killers)
}

package stats

import (
	"time"

	"github.com/hugsndnugs/SCKillFeed/internal/event"
)

// sessionGap is the idle span that separates two play sessions in the
// history.
const sessionGap = 2 * time.Hour

// LifetimeStats aggregates the whole recorded history for one player.
type LifetimeStats struct {
	Totals
	Sessions  int
	FirstKill time.Time
	LastKill  time.Time
	PlayTime  time.Duration
}

// ComputeLifetime folds the recorded history, in order, through the same
// rules the session tracker uses. The history is what the CSV sink wrote,
// so replaying it reproduces every session's tallies plus cross-session
// aggregates.
func ComputeLifetime(events []event.KillEvent, player string) LifetimeStats {
	l := LifetimeStats{Totals: newTotals()}

	var last time.Time
	for _, ev := range events {
		if ev.Timestamp.IsZero() {
			continue
		}
		if l.FirstKill.IsZero() || ev.Timestamp.Before(l.FirstKill) {
			l.FirstKill = ev.Timestamp
		}
		if ev.Timestamp.After(l.LastKill) {
			l.LastKill = ev.Timestamp
		}
		if last.IsZero() || ev.Timestamp.Sub(last) > sessionGap {
			l.Sessions++
		}
		last = ev.Timestamp

		l.Totals.apply(ev, player)
	}

	if !l.FirstKill.IsZero() {
		l.PlayTime = l.LastKill.Sub(l.FirstKill)
		if l.PlayTime < 0 {
			l.PlayTime = 0
		}
	}
	return l
}

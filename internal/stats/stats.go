package stats

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hugsndnugs/SCKillFeed/internal/event"
)

const defaultMaxEntries = 1000

// Counter tallies occurrences by name.
type Counter map[string]int

// Entry is one Counter row in a sorted view.
type Entry struct {
	Name  string
	Count int
}

// MostCommon returns the n highest-count entries. Ties break by name so
// the order is stable across runs. n <= 0 returns everything.
func (c Counter) MostCommon(n int) []Entry {
	entries := make([]Entry, 0, len(c))
	for name, count := range c {
		entries = append(entries, Entry{Name: name, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Name < entries[j].Name
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

func (c Counter) inc(name string) {
	c[name]++
}

func (c Counter) clone() Counter {
	out := make(Counter, len(c))
	for name, count := range c {
		out[name] = count
	}
	return out
}

// bound trims the counter to its n most common names once it grows past
// twice that size. The slack lets a new name accumulate a few counts
// before the next purge instead of being evicted on arrival.
func (c Counter) bound(n int) {
	if n <= 0 || len(c) <= 2*n {
		return
	}
	keep := c.MostCommon(n)
	clear(c)
	for _, e := range keep {
		c[e.Name] = e.Count
	}
}

// Totals holds the player-centric tallies shared by the session and
// lifetime views. Player and actor comparisons ignore case; fields the
// parser could not extract (the unknown sentinel) stay out of counters.
type Totals struct {
	TotalKills     int
	TotalDeaths    int
	Suicides       int
	KillStreak     int
	DeathStreak    int
	MaxKillStreak  int
	MaxDeathStreak int
	WeaponsUsed    Counter
	WeaponsAgainst Counter
	Victims        Counter
	Killers        Counter
}

func newTotals() Totals {
	return Totals{
		WeaponsUsed:    make(Counter),
		WeaponsAgainst: make(Counter),
		Victims:        make(Counter),
		Killers:        make(Counter),
	}
}

// KDRatio is kills per death. With no deaths it is the kill count.
func (t Totals) KDRatio() float64 {
	if t.TotalDeaths > 0 {
		return float64(t.TotalKills) / float64(t.TotalDeaths)
	}
	return float64(t.TotalKills)
}

// apply folds one event in. Suicides count as a death for the player and
// nothing for anyone else.
func (t *Totals) apply(ev event.KillEvent, player string) {
	killerIsPlayer := player != "" && strings.EqualFold(ev.Killer, player)
	victimIsPlayer := player != "" && strings.EqualFold(ev.Victim, player)

	if strings.EqualFold(ev.Killer, ev.Victim) {
		if killerIsPlayer {
			t.TotalDeaths++
			t.Suicides++
			t.DeathStreak++
			t.KillStreak = 0
			if t.DeathStreak > t.MaxDeathStreak {
				t.MaxDeathStreak = t.DeathStreak
			}
			if !strings.EqualFold(ev.Weapon, event.Unknown) {
				t.WeaponsAgainst.inc(ev.Weapon)
			}
		}
		return
	}

	if killerIsPlayer {
		t.TotalKills++
		t.KillStreak++
		t.DeathStreak = 0
		if t.KillStreak > t.MaxKillStreak {
			t.MaxKillStreak = t.KillStreak
		}
		if !strings.EqualFold(ev.Weapon, event.Unknown) {
			t.WeaponsUsed.inc(ev.Weapon)
		}
		if !strings.EqualFold(ev.Victim, event.Unknown) {
			t.Victims.inc(ev.Victim)
		}
	} else if victimIsPlayer {
		t.TotalDeaths++
		t.DeathStreak++
		t.KillStreak = 0
		if t.DeathStreak > t.MaxDeathStreak {
			t.MaxDeathStreak = t.DeathStreak
		}
		if !strings.EqualFold(ev.Weapon, event.Unknown) {
			t.WeaponsAgainst.inc(ev.Weapon)
		}
		if !strings.EqualFold(ev.Killer, event.Unknown) {
			t.Killers.inc(ev.Killer)
		}
	}
}

func (t *Totals) bound(n int) {
	t.WeaponsUsed.bound(n)
	t.WeaponsAgainst.bound(n)
	t.Victims.bound(n)
	t.Killers.bound(n)
}

// Session is the live per-run view.
type Session struct {
	Totals
	TotalEvents uint64
	StartedAt   time.Time
}

// Tracker accumulates session statistics. Record is called from the feed
// consumer; Snapshot may be called from anywhere.
type Tracker struct {
	mu     sync.RWMutex
	player string
	max    int
	sess   Session
}

// NewTracker starts an empty session for player. maxEntries bounds each
// name counter.
func NewTracker(player string, maxEntries int) *Tracker {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &Tracker{
		player: player,
		max:    maxEntries,
		sess: Session{
			Totals:    newTotals(),
			StartedAt: time.Now(),
		},
	}
}

// Record folds one accepted event into the session.
func (t *Tracker) Record(ev event.KillEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sess.TotalEvents++
	t.sess.Totals.apply(ev, t.player)
	t.sess.Totals.bound(t.max)
}

// Snapshot returns an independent copy of the session.
func (t *Tracker) Snapshot() Session {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := t.sess
	s.WeaponsUsed = s.WeaponsUsed.clone()
	s.WeaponsAgainst = s.WeaponsAgainst.clone()
	s.Victims = s.Victims.clone()
	s.Killers = s.Killers.clone()
	return s
}

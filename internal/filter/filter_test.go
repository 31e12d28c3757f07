package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugsndnugs/SCKillFeed/internal/config"
	"github.com/hugsndnugs/SCKillFeed/internal/event"
	"github.com/hugsndnugs/SCKillFeed/pkg/errors"
)

func kill(killer, victim, weapon string) event.KillEvent {
	return event.KillEvent{Killer: killer, Victim: victim, Weapon: weapon}
}

func TestFilter_NoRulesShowsEverything(t *testing.T) {
	f, err := New("Hugs", nil)
	require.NoError(t, err)

	d := f.Evaluate(kill("Alpha", "Bravo", "rifle_01"))
	assert.Equal(t, Decision{}, d)
}

func TestFilter_SuppressSuicides(t *testing.T) {
	f, err := New("Hugs", []config.FeedRule{
		{Name: "no-suicides", Expr: "Suicide", Action: "suppress"},
	})
	require.NoError(t, err)

	d := f.Evaluate(kill("Alpha", "Alpha", "collision"))
	assert.True(t, d.Suppress)
	assert.Equal(t, "no-suicides", d.Rule)

	d = f.Evaluate(kill("Alpha", "Bravo", "rifle_01"))
	assert.False(t, d.Suppress)
}

func TestFilter_HighlightPlayerInvolvement(t *testing.T) {
	f, err := New("Hugs", []config.FeedRule{
		{Name: "my-fights", Expr: "Killer == Player || Victim == Player", Action: "highlight"},
	})
	require.NoError(t, err)

	assert.True(t, f.Evaluate(kill("Hugs", "Bravo", "rifle_01")).Highlight)
	assert.True(t, f.Evaluate(kill("Alpha", "Hugs", "rifle_01")).Highlight)
	assert.False(t, f.Evaluate(kill("Alpha", "Bravo", "rifle_01")).Highlight)
}

func TestFilter_ContainsIgnoresCase(t *testing.T) {
	f, err := New("Hugs", []config.FeedRule{
		{Name: "lasers", Expr: `Contains(Weapon, "LASER")`, Action: "highlight"},
	})
	require.NoError(t, err)

	assert.True(t, f.Evaluate(kill("Alpha", "Bravo", "laser_cannon_01")).Highlight)
	assert.False(t, f.Evaluate(kill("Alpha", "Bravo", "ballistic_01")).Highlight)
}

func TestFilter_MatchesRegex(t *testing.T) {
	f, err := New("Hugs", []config.FeedRule{
		{Name: "npc-noise", Expr: `Matches(Killer, "^PU_Pilots")`, Action: "suppress"},
	})
	require.NoError(t, err)

	assert.True(t, f.Evaluate(kill("PU_Pilots_0441", "Bravo", "rifle_01")).Suppress)
	assert.False(t, f.Evaluate(kill("Alpha", "Bravo", "rifle_01")).Suppress)
}

func TestFilter_BadRuntimePatternIsFalse(t *testing.T) {
	f, err := New("Hugs", []config.FeedRule{
		{Name: "broken", Expr: `Matches(Killer, "[unclosed")`, Action: "suppress"},
	})
	require.NoError(t, err)

	// The bad pattern must not panic or suppress anything.
	assert.Equal(t, Decision{}, f.Evaluate(kill("Alpha", "Bravo", "rifle_01")))
}

func TestFilter_FirstMatchWins(t *testing.T) {
	f, err := New("Hugs", []config.FeedRule{
		{Name: "quiet", Expr: `Killer == "Alpha"`, Action: "suppress"},
		{Name: "loud", Expr: `Killer == "Alpha"`, Action: "highlight"},
	})
	require.NoError(t, err)

	d := f.Evaluate(kill("Alpha", "Bravo", "rifle_01"))
	assert.True(t, d.Suppress)
	assert.False(t, d.Highlight)
	assert.Equal(t, "quiet", d.Rule)
}

func TestFilter_CompileErrors(t *testing.T) {
	_, err := New("Hugs", []config.FeedRule{
		{Name: "syntax", Expr: "Killer ==", Action: "suppress"},
	})
	require.ErrorIs(t, err, errors.ErrFilterInvalid)
	assert.Contains(t, err.Error(), "syntax")

	_, err = New("Hugs", []config.FeedRule{
		{Name: "not-bool", Expr: "Killer", Action: "suppress"},
	})
	require.ErrorIs(t, err, errors.ErrFilterInvalid)

	_, err = New("Hugs", []config.FeedRule{
		{Name: "odd", Expr: "Suicide", Action: "banish"},
	})
	require.ErrorIs(t, err, errors.ErrFilterInvalid)
	assert.Contains(t, err.Error(), "banish")
}

func TestFilter_UnnamedRulesGetPositions(t *testing.T) {
	f, err := New("Hugs", []config.FeedRule{
		{Expr: "Suicide", Action: "suppress"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, f.Len())

	d := f.Evaluate(kill("Alpha", "Alpha", "collision"))
	assert.Equal(t, "rule-1", d.Rule)
}

package filter

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/hugsndnugs/SCKillFeed/internal/config"
	"github.com/hugsndnugs/SCKillFeed/internal/event"
	"github.com/hugsndnugs/SCKillFeed/pkg/errors"
)

// Action is what a matched rule does to the feed line.
type Action int

const (
	ActionNone Action = iota
	ActionSuppress
	ActionHighlight
)

// Rule is one compiled feed rule.
type Rule struct {
	Name    string
	Source  string
	Program *vm.Program
	Action  Action
}

// Env is the environment a rule expression evaluates against. Rules see
// the event fields plus the configured player name, for example:
//
//	Suicide
//	Killer == Player
//	Contains(Weapon, "laser") && Victim != Player
//	Matches(Killer, "^PIRATE_")
type Env struct {
	Killer  string
	Victim  string
	Weapon  string
	Player  string
	Suicide bool
}

var regexCache sync.Map

// Contains reports whether s contains needle, ignoring case.
func (e *Env) Contains(s, needle string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(needle))
}

// Matches reports whether s matches the regular expression pattern. An
// invalid pattern evaluates to false instead of failing the feed.
func (e *Env) Matches(s, pattern string) bool {
	cached, ok := regexCache.Load(pattern)
	if !ok {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false
		}
		regexCache.Store(pattern, re)
		cached = re
	}
	return cached.(*regexp.Regexp).MatchString(s)
}

// Decision is the feed treatment for one event. The zero value shows the
// event unmodified.
type Decision struct {
	Suppress  bool
	Highlight bool
	Rule      string
}

// Filter evaluates feed rules against kill events. It only shapes what the
// feed prints; suppressed events still reach the history and statistics.
type Filter struct {
	player string
	rules  []Rule
}

// New compiles the configured rules. Rules apply in order and the first
// match wins, like firewall rules.
func New(player string, rules []config.FeedRule) (*Filter, error) {
	f := &Filter{player: player}
	for i, rc := range rules {
		name := rc.Name
		if name == "" {
			name = fmt.Sprintf("rule-%d", i+1)
		}
		action, err := parseAction(rc.Action)
		if err != nil {
			return nil, errors.NewFilterError(name, err)
		}
		program, err := expr.Compile(rc.Expr, expr.Env(&Env{}), expr.AsBool())
		if err != nil {
			return nil, errors.NewFilterError(name, err)
		}
		f.rules = append(f.rules, Rule{
			Name:    name,
			Source:  rc.Expr,
			Program: program,
			Action:  action,
		})
	}
	return f, nil
}

// Evaluate runs ev through the rule chain.
func (f *Filter) Evaluate(ev event.KillEvent) Decision {
	if len(f.rules) == 0 {
		return Decision{}
	}
	env := &Env{
		Killer:  ev.Killer,
		Victim:  ev.Victim,
		Weapon:  ev.Weapon,
		Player:  f.player,
		Suicide: ev.IsSuicide(),
	}
	for _, r := range f.rules {
		out, err := expr.Run(r.Program, env)
		if err != nil {
			continue
		}
		matched, ok := out.(bool)
		if !ok || !matched {
			continue
		}
		switch r.Action {
		case ActionSuppress:
			return Decision{Suppress: true, Rule: r.Name}
		case ActionHighlight:
			return Decision{Highlight: true, Rule: r.Name}
		}
	}
	return Decision{}
}

// Len returns the number of compiled rules.
func (f *Filter) Len() int {
	return len(f.rules)
}

func parseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "suppress":
		return ActionSuppress, nil
	case "highlight":
		return ActionHighlight, nil
	default:
		return ActionNone, fmt.Errorf("unknown action %q", s)
	}
}

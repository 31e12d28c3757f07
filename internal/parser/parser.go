package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/hugsndnugs/SCKillFeed/internal/event"
)

// rule couples a cheap substring gate with an extraction pattern. The gate
// is checked against the lowercased line before the regex runs, so the
// common case (a log line that is not a kill) costs one Contains.
type rule struct {
	name     string
	contains string
	re       *regexp.Regexp
}

// Ordered most specific first; the first matching rule wins. The relaxed
// actor-death form accepts lines without the zone clause and with a missing
// weapon token, which older game builds emit.
var rules = []rule{
	{
		name:     "actor-death",
		contains: "cactor::kill",
		re: regexp.MustCompile(`(?i)<Actor Death>\s+CActor::Kill:\s*'(?P<victim>[^']+)'\s*\[[^\]]+\]\s*in zone\s*'[^']+'\s*killed by\s*'(?P<killer>[^']+)'\s*\[[^\]]+\]\s*using\s*'(?P<weapon>[^']+)'`),
	},
	{
		name:     "actor-death-relaxed",
		contains: "cactor::kill",
		re: regexp.MustCompile(`(?i)<Actor Death>.*CActor::Kill:\s*'(?P<victim>[^']+)'.*killed by\s*'(?P<killer>[^']+)'(?:.*using\s*'(?P<weapon>[^']+)')?`),
	},
	{
		name:     "actor-generic",
		contains: "actor(",
		re:       regexp.MustCompile(`(?i)Actor\((?P<killer>[^)]+)\)\s+kill\s+Actor\((?P<victim>[^)]+)\)\s+weapon\((?P<weapon>[^)]+)\)`),
	},
}

// timestampRe finds an embedded <2025-10-10T00:38:41.559Z> style token.
var timestampRe = regexp.MustCompile(`<(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})?)>`)

// Parser turns raw log lines into kill events. It is stateless and safe for
// concurrent use; one instance is shared by the engine and the replay path.
type Parser struct {
	now func() time.Time
}

// New returns a Parser using the wall clock for lines without a timestamp.
func New() *Parser {
	return &Parser{now: time.Now}
}

// Parse extracts a kill event from one raw line. The boolean is false when
// no rule matches, which is the overwhelmingly common case and not an
// error. Malformed bytes never fail the line: NULs are dropped and invalid
// UTF-8 is decoded lossily before matching.
func (p *Parser) Parse(line string) (event.KillEvent, bool) {
	clean := sanitize(line)
	if clean == "" {
		return event.KillEvent{}, false
	}
	lower := strings.ToLower(clean)

	for _, r := range rules {
		if r.contains != "" && !strings.Contains(lower, r.contains) {
			continue
		}
		m := r.re.FindStringSubmatch(clean)
		if m == nil {
			continue
		}
		ev := event.KillEvent{
			Timestamp: p.timestamp(clean),
			Killer:    group(r.re, m, "killer"),
			Victim:    group(r.re, m, "victim"),
			Weapon:    group(r.re, m, "weapon"),
			RawLine:   clean,
		}
		return ev, true
	}
	return event.KillEvent{}, false
}

// timestamp parses the embedded ISO-8601 token, falling back to the wall
// clock. Either way the result is UTC.
func (p *Parser) timestamp(line string) time.Time {
	if m := timestampRe.FindStringSubmatch(line); m != nil {
		if t, err := time.Parse(time.RFC3339Nano, m[1]); err == nil {
			return t.UTC()
		}
	}
	return p.now().UTC()
}

// group returns the named capture or the unknown sentinel when the group
// did not participate in the match. Partial extraction beats dropping the
// whole event.
func group(re *regexp.Regexp, m []string, name string) string {
	idx := re.SubexpIndex(name)
	if idx < 0 || idx >= len(m) || m[idx] == "" {
		return event.Unknown
	}
	return strings.TrimSpace(m[idx])
}

// sanitize trims trailing whitespace, strips NUL bytes and lossily decodes
// invalid UTF-8 so one hostile line can never break the loop.
func sanitize(line string) string {
	line = strings.TrimRight(line, " \t\r\n")
	if strings.IndexByte(line, 0) >= 0 {
		line = strings.ReplaceAll(line, "\x00", "")
	}
	return strings.ToValidUTF8(line, "�")
}

package event

import (
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Unknown marks a field the parser matched but could not extract.
const Unknown = "unknown"

// KillEvent is one kill occurrence extracted from a single log line.
// Fields are fixed at construction; RawLine is kept for diagnostics only
// and never participates in equality or fingerprinting.
type KillEvent struct {
	Timestamp time.Time
	Killer    string
	Victim    string
	Weapon    string
	RawLine   string
}

// IsSuicide reports whether the killer and victim are the same actor.
func (e KillEvent) IsSuicide() bool {
	return e.Killer == e.Victim
}

// Fingerprint hashes the semantic fields. Two reads of the same physical
// log line produce the same fingerprint even when RawLine differs by
// trailing whitespace.
func (e KillEvent) Fingerprint() uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(strconv.FormatInt(e.Timestamp.UnixNano(), 10))
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(e.Killer)
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(e.Victim)
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(e.Weapon)
	return d.Sum64()
}

// CSVRecord returns the event as a csv row in header order
// timestamp,killer,victim,weapon. Timestamps are RFC3339 UTC.
func (e KillEvent) CSVRecord() []string {
	return []string{
		e.Timestamp.UTC().Format(time.RFC3339),
		e.Killer,
		e.Victim,
		e.Weapon,
	}
}

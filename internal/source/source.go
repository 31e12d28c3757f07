package source

import "context"

// Position modes for the first open of a tailed file. Reopens after a
// rotation always continue from offset zero.
const (
	PositionStart  = "start"
	PositionEnd    = "end"
	PositionResume = "resume"
)

// Line is one complete text line read from the log, terminator stripped.
// Offset is the byte offset of the first byte after the line, suitable for
// resuming a read.
type Line struct {
	Text   string
	Offset int64
}

// StartPos tells a source where the first read begins. Offset is only
// consulted in resume mode.
type StartPos struct {
	Mode   string
	Offset int64
}

// Source yields newly appended lines from a growing log file. Poll never
// blocks on file growth: a poll with nothing new returns an empty slice.
// Implementations are not safe for concurrent use; the tail engine is the
// only caller.
type Source interface {
	// Open prepares the source. A missing file is an error here so the
	// engine can surface its retry state; once open, a briefly missing
	// file is handled inside Poll.
	Open() error
	// Poll returns the complete lines appended since the previous call.
	Poll(ctx context.Context) ([]Line, error)
	// Offset is the resume position: everything before it has been
	// returned by Poll.
	Offset() int64
	Close() error
}

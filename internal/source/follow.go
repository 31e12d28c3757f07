package source

import (
	"context"
	"io"

	"github.com/nxadm/tail"
	"go.uber.org/zap"

	"github.com/hugsndnugs/SCKillFeed/internal/metrics"
	"github.com/hugsndnugs/SCKillFeed/internal/utils/logger"
	"github.com/hugsndnugs/SCKillFeed/pkg/errors"
)

// FollowSource adapts a follow-mode reader to the polled Source interface.
// The library handles reopening across rotations itself; Poll just drains
// whatever lines it has queued, without blocking.
type FollowSource struct {
	path     string
	start    StartPos
	maxLines int

	t       *tail.Tail
	offset  int64
	stopped bool

	log *zap.SugaredLogger
}

// NewFollowSource builds a follow-backed source.
func NewFollowSource(path string, start StartPos, maxLines int) *FollowSource {
	if maxLines < 1 {
		maxLines = 1
	}
	return &FollowSource{
		path:     path,
		start:    start,
		maxLines: maxLines,
		log:      logger.Get(nil),
	}
}

// Open starts following the file. MustExist is off so a not-yet-created log
// is fine; the reader picks it up once the game writes it.
func (s *FollowSource) Open() error {
	location := &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	switch s.start.Mode {
	case PositionStart:
		location = &tail.SeekInfo{Offset: 0, Whence: io.SeekStart}
	case PositionResume:
		if s.start.Offset > 0 {
			location = &tail.SeekInfo{Offset: s.start.Offset, Whence: io.SeekStart}
		} else {
			location = &tail.SeekInfo{Offset: 0, Whence: io.SeekStart}
		}
	}

	t, err := tail.TailFile(s.path, tail.Config{
		Location:  location,
		Follow:    true,
		ReOpen:    true, // Handle log rotation
		MustExist: false,
		Poll:      true, // Fallback if inotify fails
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return errors.NewLogError(s.path, err)
	}
	s.t = t
	s.offset = s.start.Offset
	return nil
}

// Poll implements Source by draining queued lines.
func (s *FollowSource) Poll(ctx context.Context) ([]Line, error) {
	if s.t == nil {
		return nil, errors.ErrSourceClosed
	}

	var lines []Line
	for len(lines) < s.maxLines {
		select {
		case <-ctx.Done():
			return lines, ctx.Err()
		case line, ok := <-s.t.Lines:
			if !ok {
				s.stopped = true
				return lines, errors.ErrSourceClosed
			}
			if line.Err != nil {
				s.log.Debugf("follow read error on %s: %v", s.path, line.Err)
				metrics.ReadErrors.Inc()
				continue
			}
			if pos, err := s.t.Tell(); err == nil {
				s.offset = pos
			}
			lines = append(lines, Line{Text: line.Text, Offset: s.offset})
			metrics.LinesRead.Inc()
		default:
			return lines, nil
		}
	}
	return lines, nil
}

// Offset implements Source. Follow mode reports the reader's position after
// the last delivered line.
func (s *FollowSource) Offset() int64 {
	return s.offset
}

// Close implements Source.
func (s *FollowSource) Close() error {
	if s.t == nil || s.stopped {
		s.t = nil
		return nil
	}
	err := s.t.Stop()
	s.t = nil
	return err
}

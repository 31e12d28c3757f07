package source

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/hugsndnugs/SCKillFeed/internal/metrics"
	"github.com/hugsndnugs/SCKillFeed/internal/utils/logger"
	"github.com/hugsndnugs/SCKillFeed/pkg/errors"
)

const (
	// prefixLen bounds the content checksum used to catch in-place
	// rewrites that keep the same stat identity.
	prefixLen = 256

	// maxChunk bounds the bytes read per poll so one cycle never stalls
	// on a huge backlog.
	maxChunk = 1 << 20
)

// FileSource reads newly appended lines from a file by polling its size.
// It distinguishes growth, rotation (stat identity changed) and in-place
// truncation, and buffers an unterminated trailing fragment between polls.
//
// Unprocessed bytes live in pending; base is the file offset of pending[0]
// and readOffset is the next byte to read, so readOffset == base +
// len(pending) always holds.
type FileSource struct {
	path     string
	maxLines int
	start    StartPos

	file       *os.File
	openInfo   os.FileInfo
	base       int64
	readOffset int64
	pending    []byte

	prefixSum uint64
	hashedLen int64

	opened      bool
	rotations   atomic.Uint64
	truncations atomic.Uint64

	log *zap.SugaredLogger
}

// NewFileSource builds a poll-backed source. maxLines bounds the lines
// surfaced per Poll; the remainder stays buffered for the next cycle.
func NewFileSource(path string, start StartPos, maxLines int) *FileSource {
	if maxLines < 1 {
		maxLines = 1
	}
	return &FileSource{
		path:     path,
		maxLines: maxLines,
		start:    start,
		log:      logger.Get(nil),
	}
}

// Open opens the file and seeks to the configured start position. In resume
// mode a saved offset beyond the current size means the file was replaced
// or truncated since the checkpoint, so reading restarts from zero.
func (s *FileSource) Open() error {
	f, err := os.Open(s.path) // #nosec G304 // path comes from validated config
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewLogError(s.path, err)
		}
		if os.IsPermission(err) {
			return errors.NewPermissionError(s.path, err)
		}
		return err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}

	offset := int64(0)
	switch s.start.Mode {
	case PositionEnd, "":
		offset = info.Size()
	case PositionStart:
		offset = 0
	case PositionResume:
		offset = s.start.Offset
		if offset > info.Size() || offset < 0 {
			offset = 0
		}
	}

	s.file = f
	s.openInfo = info
	s.base = offset
	s.readOffset = offset
	s.pending = nil
	s.opened = true
	if err := s.rehashPrefix(info.Size()); err != nil {
		s.log.Debugf("prefix checksum unavailable for %s: %v", s.path, err)
	}
	return nil
}

// Poll implements Source. A file that is briefly missing produces no lines
// and no error; open and read failures that the engine should count are
// returned as errors.
func (s *FileSource) Poll(ctx context.Context) ([]Line, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.file == nil {
		if !s.opened {
			return nil, errors.ErrSourceClosed
		}
		// Handle lost after a failed reopen. Keep trying; the game
		// recreates the log on next launch.
		if err := s.reopen(); err != nil {
			if os.IsNotExist(err) {
				return s.drain(), nil
			}
			return nil, err
		}
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			// Transient: rotation in progress or game not running.
			return s.drain(), nil
		}
		if os.IsPermission(err) {
			return nil, errors.NewPermissionError(s.path, err)
		}
		return nil, err
	}

	if !os.SameFile(s.openInfo, info) {
		s.rotated("identity changed")
		if err := s.reopen(); err != nil {
			if os.IsNotExist(err) {
				return nil, nil
			}
			return nil, err
		}
		info, err = os.Stat(s.path)
		if err != nil {
			return s.drain(), nil
		}
	}

	size := info.Size()

	if size < s.readOffset {
		// Truncated in place: re-read from the start, drop the
		// fragment that no longer has a file behind it.
		s.truncations.Add(1)
		metrics.Truncations.Inc()
		s.log.Infof("log truncated (%d -> %d bytes), re-reading from start", s.readOffset, size)
		s.base = 0
		s.readOffset = 0
		s.pending = nil
		if err := s.rehashPrefix(size); err != nil {
			return nil, err
		}
	} else if changed, err := s.prefixChanged(size); err != nil {
		return nil, err
	} else if changed {
		// Same stat identity but different leading content: the file
		// was rewritten underneath us. Treat like a rotation.
		s.rotated("prefix checksum changed")
		if err := s.reopen(); err != nil {
			if os.IsNotExist(err) {
				return nil, nil
			}
			return nil, err
		}
		if info, err = os.Stat(s.path); err != nil {
			return s.drain(), nil
		}
		size = info.Size()
	}

	if err := s.fill(size); err != nil {
		return nil, err
	}
	return s.drain(), nil
}

// fill reads newly appended bytes into pending, bounded per cycle.
func (s *FileSource) fill(size int64) error {
	if size <= s.readOffset {
		return nil
	}
	// Drain-first: when a full batch is already buffered, skip reading
	// so a flood of writes cannot grow pending without bound.
	if bytes.Count(s.pending, []byte{'\n'}) >= s.maxLines {
		return nil
	}

	n := size - s.readOffset
	if n > maxChunk {
		n = maxChunk
	}
	buf := make([]byte, n)
	read, err := s.file.ReadAt(buf, s.readOffset)
	if err != nil && err != io.EOF {
		metrics.ReadErrors.Inc()
		return err
	}
	if read == 0 {
		return nil
	}
	s.pending = append(s.pending, buf[:read]...)
	s.readOffset += int64(read)

	if s.hashedLen < prefixLen {
		if err := s.rehashPrefix(s.readOffset); err != nil {
			return err
		}
	}
	return nil
}

// drain extracts up to maxLines complete lines from pending.
func (s *FileSource) drain() []Line {
	if len(s.pending) == 0 {
		return nil
	}
	var lines []Line
	for len(lines) < s.maxLines {
		i := bytes.IndexByte(s.pending, '\n')
		if i < 0 {
			break
		}
		raw := s.pending[:i]
		if len(raw) > 0 && raw[len(raw)-1] == '\r' {
			raw = raw[:len(raw)-1]
		}
		s.base += int64(i + 1)
		lines = append(lines, Line{Text: string(raw), Offset: s.base})
		s.pending = s.pending[i+1:]
		metrics.LinesRead.Inc()
	}
	if len(s.pending) == 0 {
		s.pending = nil
	}
	return lines
}

func (s *FileSource) rotated(reason string) {
	s.rotations.Add(1)
	metrics.Rotations.Inc()
	s.log.Infof("log rotated (%s), re-reading from start", reason)
	if s.file != nil {
		s.file.Close()
		s.file = nil
	}
	s.base = 0
	s.readOffset = 0
	s.pending = nil
	s.prefixSum = 0
	s.hashedLen = 0
}

// reopen opens the current file at path from offset zero. Used after a
// rotation; the initial position mode applies only to the first Open.
func (s *FileSource) reopen() error {
	f, err := os.Open(s.path) // #nosec G304 // path comes from validated config
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	s.file = f
	s.openInfo = info
	s.base = 0
	s.readOffset = 0
	s.pending = nil
	return s.rehashPrefix(info.Size())
}

// rehashPrefix recomputes the content checksum over the first
// min(prefixLen, size) bytes.
func (s *FileSource) rehashPrefix(size int64) error {
	n := size
	if n > prefixLen {
		n = prefixLen
	}
	s.hashedLen = n
	s.prefixSum = 0
	if n == 0 || s.file == nil {
		return nil
	}
	buf := make([]byte, n)
	if _, err := s.file.ReadAt(buf, 0); err != nil {
		if err == io.EOF {
			// Shrank between stat and read; next poll sees it as a
			// truncation.
			s.hashedLen = 0
			return nil
		}
		return err
	}
	s.prefixSum = xxhash.Sum64(buf)
	return nil
}

// prefixChanged re-reads the hashed prefix and compares checksums.
func (s *FileSource) prefixChanged(size int64) (bool, error) {
	if s.hashedLen == 0 || size < s.hashedLen || s.file == nil {
		return false, nil
	}
	buf := make([]byte, s.hashedLen)
	if _, err := s.file.ReadAt(buf, 0); err != nil {
		if err == io.EOF {
			return false, nil
		}
		metrics.ReadErrors.Inc()
		return false, err
	}
	return xxhash.Sum64(buf) != s.prefixSum, nil
}

// Offset implements Source.
func (s *FileSource) Offset() int64 {
	return s.base
}

// Rotations returns how many identity changes this source has seen.
func (s *FileSource) Rotations() uint64 {
	return s.rotations.Load()
}

// Truncations returns how many in-place truncations this source has seen.
func (s *FileSource) Truncations() uint64 {
	return s.truncations.Load()
}

// Close implements Source.
func (s *FileSource) Close() error {
	s.opened = false
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

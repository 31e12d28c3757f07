package checkpoint

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hugsndnugs/SCKillFeed/internal/source"
	"github.com/hugsndnugs/SCKillFeed/internal/utils/fileutil"
	"github.com/hugsndnugs/SCKillFeed/internal/utils/logger"
	"github.com/hugsndnugs/SCKillFeed/pkg/errors"
)

// DefaultSaveInterval is how often tracked offsets are persisted while
// the engine runs.
const DefaultSaveInterval = 2 * time.Second

// Manager persists per-file read offsets so a restart in resume mode
// picks up where the previous run stopped.
type Manager struct {
	mu      sync.Mutex
	offsets map[string]int64
	path    string
	pull    func() (string, int64)
	ticker  *time.Ticker
	stop    chan struct{}
	once    sync.Once

	log *zap.SugaredLogger
}

// New returns a manager persisting to path.
func New(path string) *Manager {
	return &Manager{
		offsets: make(map[string]int64),
		path:    path,
		stop:    make(chan struct{}),
		log:     logger.Get(nil),
	}
}

// Load reads saved offsets. A missing file is a fresh start; content that
// does not parse returns ErrCheckpointCorrupt and leaves the manager
// empty, so the caller can warn and carry on.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.path) // #nosec G304 // checkpoint path from validated config
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := json.Unmarshal(data, &m.offsets); err != nil {
		m.offsets = make(map[string]int64)
		return errors.NewCheckpointError(m.path, err)
	}
	return nil
}

// Save persists the offsets atomically, creating the directory if needed.
func (m *Manager) Save() error {
	m.mu.Lock()
	data, err := json.MarshalIndent(m.offsets, "", "  ")
	m.mu.Unlock()
	if err != nil {
		return err
	}
	if err := fileutil.EnsureDir(filepath.Dir(m.path)); err != nil {
		return err
	}
	return fileutil.AtomicWriteFile(m.path, data, 0o600)
}

// UpdateOffset records the resume offset for a file.
func (m *Manager) UpdateOffset(file string, offset int64) {
	m.mu.Lock()
	m.offsets[file] = offset
	m.mu.Unlock()
}

// Offset returns the saved offset for a file.
func (m *Manager) Offset(file string) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	off, ok := m.offsets[file]
	return off, ok
}

// StartPos resolves the configured position mode into a source start.
// Resume falls back to the end when nothing was saved, and restarts from
// the beginning when the file shrank since the checkpoint.
func (m *Manager) StartPos(path, mode string) source.StartPos {
	switch mode {
	case source.PositionStart:
		return source.StartPos{Mode: source.PositionStart}
	case source.PositionResume:
		saved, ok := m.Offset(path)
		if !ok {
			return source.StartPos{Mode: source.PositionEnd}
		}
		info, err := os.Stat(path)
		if err != nil {
			return source.StartPos{Mode: source.PositionEnd}
		}
		if info.Size() < saved {
			m.log.Infof("log shrank since last checkpoint (%d < %d), restarting from the beginning", info.Size(), saved)
			return source.StartPos{Mode: source.PositionStart}
		}
		return source.StartPos{Mode: source.PositionResume, Offset: saved}
	default:
		return source.StartPos{Mode: source.PositionEnd}
	}
}

// Start begins periodic persistence. pull, when non-nil, is asked for the
// current file and offset before every save.
func (m *Manager) Start(interval time.Duration, pull func() (string, int64)) {
	if interval <= 0 {
		interval = DefaultSaveInterval
	}
	m.pull = pull
	m.ticker = time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-m.ticker.C:
				m.refresh()
				if err := m.Save(); err != nil {
					m.log.Warnf("checkpoint save failed: %v", err)
				}
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop halts periodic saving and persists one final time.
func (m *Manager) Stop() {
	m.once.Do(func() {
		if m.ticker != nil {
			m.ticker.Stop()
		}
		close(m.stop)
	})
	m.refresh()
	if err := m.Save(); err != nil {
		m.log.Warnf("final checkpoint save failed: %v", err)
	}
}

func (m *Manager) refresh() {
	if m.pull == nil {
		return
	}
	file, offset := m.pull()
	if file != "" {
		m.UpdateOffset(file, offset)
	}
}

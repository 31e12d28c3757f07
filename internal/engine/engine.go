package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hugsndnugs/SCKillFeed/internal/event"
	"github.com/hugsndnugs/SCKillFeed/internal/metrics"
	"github.com/hugsndnugs/SCKillFeed/internal/parser"
	"github.com/hugsndnugs/SCKillFeed/internal/source"
	"github.com/hugsndnugs/SCKillFeed/internal/utils/logger"
	"github.com/hugsndnugs/SCKillFeed/pkg/errors"
)

const (
	// eventBuffer absorbs bursts while the consumer renders; once full the
	// engine blocks rather than dropping events.
	eventBuffer = 10000

	// After maxFailures consecutive poll errors the interval is stretched
	// by backoffFactor. The engine never gives up on its own.
	maxFailures   = 5
	backoffFactor = 5

	defaultPollEvery   = 250 * time.Millisecond
	defaultDedupWindow = 200
)

// State describes the engine lifecycle.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateError
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Sink persists accepted kill events.
type Sink interface {
	Append(ev event.KillEvent) error
	Path() string
}

// rotationCounter is implemented by sources that track file identity
// changes, currently only the polling backend.
type rotationCounter interface {
	Rotations() uint64
	Truncations() uint64
}

// Status is a point-in-time snapshot of the engine.
type Status struct {
	State           State
	LastErr         error
	CSVPath         string
	LinesRead       uint64
	EventsPublished uint64
	ParseSkips      uint64
	Duplicates      uint64
	Rotations       uint64
	Truncations     uint64
}

// Options tune a TailEngine. Zero values fall back to defaults.
type Options struct {
	PollEvery   time.Duration
	DedupWindow int
	Sink        Sink
}

// TailEngine drives the tail loop: poll the source, parse each line,
// deduplicate, append to the sink and publish to the events channel in
// strict order. One engine owns one source; the source is never touched
// from outside while the engine runs.
type TailEngine struct {
	src    source.Source
	parser *parser.Parser
	dedup  *Deduplicator
	sink   Sink

	pollEvery time.Duration
	events    chan event.KillEvent

	linesRead  atomic.Uint64
	published  atomic.Uint64
	parseSkips atomic.Uint64
	duplicates atomic.Uint64
	offset     atomic.Int64

	mu      sync.Mutex
	running bool
	stopped bool
	state   State
	lastErr error

	stopChan chan struct{}
	wg       sync.WaitGroup
	log      *zap.SugaredLogger
}

// New builds an engine over src. The source must not be opened yet; the
// engine opens it and keeps retrying while it is missing.
func New(src source.Source, opts Options) *TailEngine {
	if opts.PollEvery <= 0 {
		opts.PollEvery = defaultPollEvery
	}
	if opts.DedupWindow <= 0 {
		opts.DedupWindow = defaultDedupWindow
	}
	return &TailEngine{
		src:       src,
		parser:    parser.New(),
		dedup:     NewDeduplicator(opts.DedupWindow),
		sink:      opts.Sink,
		pollEvery: opts.PollEvery,
		events:    make(chan event.KillEvent, eventBuffer),
		state:     StateStopped,
		log:       logger.Get(nil),
	}
}

// Start launches the tail loop. It returns an error when the engine is
// already running or was stopped; a missing log file is not an error, the
// loop waits for it to appear.
func (e *TailEngine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return errors.ErrEngineRunning
	}
	if e.stopped {
		return errors.ErrEngineStopped
	}
	e.setStateLocked(StateStarting, nil)
	e.stopChan = make(chan struct{})
	e.running = true
	e.wg.Add(1)
	go e.loop(ctx)
	return nil
}

// Stop halts the loop, closes the source and the events channel, and
// waits for the worker to exit. Safe to call more than once.
func (e *TailEngine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.stopped = true
	e.mu.Unlock()

	close(e.stopChan)
	e.wg.Wait()
	if err := e.src.Close(); err != nil {
		e.log.Debugf("source close: %v", err)
	}
	close(e.events)

	e.mu.Lock()
	e.setStateLocked(StateStopped, nil)
	e.mu.Unlock()
	e.log.Infof("tail engine stopped")
}

// Events returns the channel of accepted kill events. It is closed by
// Stop once the loop has drained.
func (e *TailEngine) Events() <-chan event.KillEvent {
	return e.events
}

// Offset returns the resume offset after the last processed line.
func (e *TailEngine) Offset() int64 {
	return e.offset.Load()
}

// Status snapshots the engine counters and state.
func (e *TailEngine) Status() Status {
	e.mu.Lock()
	st := Status{
		State:   e.state,
		LastErr: e.lastErr,
	}
	e.mu.Unlock()

	st.LinesRead = e.linesRead.Load()
	st.EventsPublished = e.published.Load()
	st.ParseSkips = e.parseSkips.Load()
	st.Duplicates = e.duplicates.Load()
	if e.sink != nil {
		st.CSVPath = e.sink.Path()
	}
	if rc, ok := e.src.(rotationCounter); ok {
		st.Rotations = rc.Rotations()
		st.Truncations = rc.Truncations()
	}
	return st
}

func (e *TailEngine) loop(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.pollEvery)
	defer ticker.Stop()

	opened := false
	failures := 0
	backedOff := false

	if err := e.src.Open(); err != nil {
		e.setState(StateError, err)
		e.log.Warnf("log not readable yet, waiting: %v", err)
	} else {
		opened = true
		e.offset.Store(e.src.Offset())
		e.setState(StateRunning, nil)
	}

	for {
		select {
		case <-e.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if ctx.Err() != nil {
			return
		}

		if !opened {
			if err := e.src.Open(); err != nil {
				failures++
				e.setState(StateError, err)
				if failures == maxFailures {
					backedOff = true
					ticker.Reset(e.pollEvery * backoffFactor)
					e.log.Warnf("still no readable log after %d attempts, slowing down: %v", failures, err)
				}
				continue
			}
			opened = true
			e.offset.Store(e.src.Offset())
		}

		lines, err := e.src.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			e.setState(StateError, err)
			e.log.Warnf("poll failed (%d consecutive): %v", failures, err)
			if failures == maxFailures {
				backedOff = true
				ticker.Reset(e.pollEvery * backoffFactor)
			}
			continue
		}

		if failures > 0 || backedOff {
			failures = 0
			if backedOff {
				backedOff = false
				ticker.Reset(e.pollEvery)
			}
			e.setState(StateRunning, nil)
			e.log.Infof("log readable again, resuming normal polling")
		} else if e.currentState() != StateRunning {
			e.setState(StateRunning, nil)
		}

		if !e.process(ctx, lines) {
			return
		}
		e.offset.Store(e.src.Offset())
	}
}

// process runs each line through parse, dedup, sink and publish, in that
// order. It returns false when the engine is shutting down mid-batch.
func (e *TailEngine) process(ctx context.Context, lines []source.Line) bool {
	for _, ln := range lines {
		e.linesRead.Add(1)
		ev, ok := e.parser.Parse(ln.Text)
		if !ok {
			e.parseSkips.Add(1)
			metrics.ParseSkips.Inc()
			continue
		}
		metrics.EventsParsed.Inc()

		if !e.dedup.Accept(ev) {
			e.duplicates.Add(1)
			metrics.Duplicates.Inc()
			e.log.Debugf("duplicate suppressed: %s killed %s", ev.Killer, ev.Victim)
			continue
		}

		if e.sink != nil {
			if err := e.sink.Append(ev); err != nil {
				metrics.CSVErrors.Inc()
				e.log.Warnf("kill history append failed: %v", err)
			}
		}

		select {
		case e.events <- ev:
			e.published.Add(1)
			metrics.EventsPublished.Inc()
		case <-e.stopChan:
			return false
		case <-ctx.Done():
			return false
		}
	}
	return true
}

func (e *TailEngine) currentState() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *TailEngine) setState(st State, err error) {
	e.mu.Lock()
	e.setStateLocked(st, err)
	e.mu.Unlock()
}

func (e *TailEngine) setStateLocked(st State, err error) {
	e.state = st
	if err != nil {
		e.lastErr = err
	}
	metrics.EngineState.Set(float64(st))
}

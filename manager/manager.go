// Package manager provides the process-wide Manager singleton: an explicit finite state machine
// owning the record pool, hazard domain, logger registry and dispatch pool, and the factory for
// per-name loggers.
package manager

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/relex/gotils/logger"

	"github.com/relex/logcore/corerr"
	"github.com/relex/logcore/defs"
	"github.com/relex/logcore/dispatch"
	"github.com/relex/logcore/format"
	"github.com/relex/logcore/format/text"
	"github.com/relex/logcore/hazard"
	"github.com/relex/logcore/level"
	loggerpkg "github.com/relex/logcore/logger"
	"github.com/relex/logcore/record"
	"github.com/relex/logcore/registry"
	"github.com/relex/logcore/sink"
)

// state is the Manager's lifecycle position.
type state int32

const (
	stateUninitialized state = iota
	stateInitializing
	stateRunning
	stateShuttingDown
	stateShutDown
)

// Manager is the process-wide facade over the pool, registry and dispatch pool. Obtain the
// singleton via Instance; do not construct one directly.
type Manager struct {
	st state32

	mu sync.Mutex // serializes Initialize/Shutdown/ResetAll transitions

	recordPool   *record.Pool
	hazardDomain *hazard.Domain
	loggers      *registry.Registry[*loggerpkg.Logger]
	dispatchPool *dispatch.Pool
	globalSinks  []sink.Sink

	defaultLevel  atomic.Int32
	defaultFormat atomic.Pointer[formatBox]

	defaultLoggerName atomic.Pointer[string]

	deliveryMetrics loggerpkg.DeliveryMetrics

	configVersion atomic.Int64
}

type formatBox struct {
	f format.Format
}

// state32 wraps atomic.Int32 so Manager's zero value is stateUninitialized without an explicit
// constructor call, matching the reference singleton's lazily-initialized statics.
type state32 struct {
	v atomic.Int32
}

func (s *state32) load() state      { return state(s.v.Load()) }
func (s *state32) store(next state) { s.v.Store(int32(next)) }
func (s *state32) cas(from, to state) bool {
	return s.v.CompareAndSwap(int32(from), int32(to))
}

var (
	instance     *Manager
	instanceOnce sync.Once
)

// Instance returns the process-wide Manager singleton, constructing it on first call.
func Instance() *Manager {
	instanceOnce.Do(func() {
		instance = &Manager{}
	})
	return instance
}

// Initialize brings the Manager from Uninitialized to Running, building the record pool, hazard
// domain, logger registry, dispatch pool and default logger. It is idempotent: calling it again
// while already Running/Initializing/ShuttingDown is a no-op that returns ErrInvalidState.
func (m *Manager) Initialize() error {
	if !m.st.cas(stateUninitialized, stateInitializing) {
		return fmt.Errorf("manager: cannot initialize from current state: %w", corerr.ErrInvalidState)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.recordPool = record.New()
	m.hazardDomain = hazard.New()
	m.loggers = registry.New[*loggerpkg.Logger](m.hazardDomain)

	workers := defs.DispatchDefaultQueueCount
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0) / 2
	}
	m.dispatchPool = dispatch.New(m.recordPool, workers)

	m.defaultLevel.Store(int32(level.Info))
	m.defaultFormat.Store(&formatBox{f: text.New()})
	name := "default"
	m.defaultLoggerName.Store(&name)

	if _, err := m.registerLoggerLocked("default"); err != nil {
		m.st.store(stateUninitialized)
		return err
	}

	m.st.store(stateRunning)
	return nil
}

// Shutdown transitions Running -> ShutDown (via ShuttingDown): optionally flushes, joins dispatch
// workers, and clears the registry and global sink list.
func (m *Manager) Shutdown(waitForCompletion bool, timeout time.Duration) error {
	if !m.st.cas(stateRunning, stateShuttingDown) {
		return fmt.Errorf("manager: cannot shut down from current state: %w", corerr.ErrInvalidState)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	shutdownErr := m.dispatchPool.Shutdown(waitForCompletion, timeout)
	m.loggers.Clear()
	m.globalSinks = nil

	m.st.store(stateShutDown)
	return shutdownErr
}

// ResetAll shuts the Manager down (flushing first, with a generous timeout) and re-initializes it,
// so the process can keep logging under a fresh pool/registry/dispatch pool.
func (m *Manager) ResetAll() error {
	if m.st.load() == stateRunning {
		if err := m.Shutdown(true, defs.DispatchShutdownDrainTimeout); err != nil {
			return err
		}
	}
	m.st.store(stateUninitialized)
	return m.Initialize()
}

// RegisterLogger returns the existing logger named name, or creates one with the current default
// level/format and global sink list installed.
func (m *Manager) RegisterLogger(name string) (*loggerpkg.Logger, error) {
	if m.st.load() != stateRunning {
		return nil, fmt.Errorf("manager: not running: %w", corerr.ErrInvalidState)
	}
	if name == "" {
		return nil, fmt.Errorf("manager: logger name must not be empty: %w", corerr.ErrInvalidArgument)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registerLoggerLocked(name)
}

func (m *Manager) registerLoggerLocked(name string) (*loggerpkg.Logger, error) {
	if existing, ok := m.loggers.Find(name); ok {
		return existing, nil
	}

	l := loggerpkg.New(name, m.recordPool, m.dispatchPool, m.hazardDomain, m.GetDefaultLevel(), m.defaultFormat.Load().f)
	if len(m.globalSinks) > 0 {
		l.RegisterSinks(append([]sink.Sink(nil), m.globalSinks...))
	}
	if m.deliveryMetrics != nil {
		l.SetMetrics(m.deliveryMetrics)
	}
	m.loggers.Insert(name, l)
	return l, nil
}

// GetLogger finds the logger named name, creating it with current defaults if absent.
func (m *Manager) GetLogger(name string) (*loggerpkg.Logger, error) {
	return m.RegisterLogger(name)
}

// GetDefaultLogger resolves and returns the manager's default logger.
func (m *Manager) GetDefaultLogger() (*loggerpkg.Logger, error) {
	return m.GetLogger(m.GetDefaultLoggerName())
}

// FlushAll asks every currently registered logger to flush its sinks, for a periodic caller
// driven by defs.SinkFlushInterval.
func (m *Manager) FlushAll() {
	if m.loggers == nil {
		return
	}
	m.loggers.Range(func(_ string, l *loggerpkg.Logger) bool {
		l.Flush()
		return true
	})
}

// HasLogger reports whether a logger named name is currently registered.
func (m *Manager) HasLogger(name string) bool {
	if m.loggers == nil {
		return false
	}
	_, ok := m.loggers.Find(name)
	return ok
}

// RecordPool exposes the manager's record pool for metrics sampling.
func (m *Manager) RecordPool() *record.Pool {
	return m.recordPool
}

// DispatchPool exposes the manager's dispatch pool for metrics sampling.
func (m *Manager) DispatchPool() *dispatch.Pool {
	return m.dispatchPool
}

// HazardDomain exposes the manager's hazard domain for metrics sampling.
func (m *Manager) HazardDomain() *hazard.Domain {
	return m.hazardDomain
}

// SetMetrics installs the collector every logger's Process reports per-sink delivery/error counts
// to: existing loggers are updated in place, and it is applied to every logger registered
// afterward.
func (m *Manager) SetMetrics(metrics loggerpkg.DeliveryMetrics) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveryMetrics = metrics
	m.loggers.Range(func(_ string, l *loggerpkg.Logger) bool {
		l.SetMetrics(metrics)
		return true
	})
}

// RemoveLogger removes the logger named name. A no-op for the current default logger's name.
func (m *Manager) RemoveLogger(name string) {
	if name == m.GetDefaultLoggerName() {
		return
	}
	if m.loggers != nil {
		m.loggers.Remove(name)
	}
}

// RegisterSink appends sink to the global sink list. Newly registered loggers inherit it;
// existing loggers are not retroactively updated.
func (m *Manager) RegisterSink(s sink.Sink) error {
	if s == nil {
		return fmt.Errorf("manager: sink must not be nil: %w", corerr.ErrInvalidArgument)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.globalSinks = append(m.globalSinks, s)
	return nil
}

// SetDefaultLevel updates the level newly created loggers are installed with.
func (m *Manager) SetDefaultLevel(l level.Level) {
	m.defaultLevel.Store(int32(l))
	m.configVersion.Add(1)
}

// GetDefaultLevel returns the level newly created loggers are installed with.
func (m *Manager) GetDefaultLevel() level.Level {
	return level.Level(m.defaultLevel.Load())
}

// SetDefaultFormat updates the formatter newly created loggers are installed with.
func (m *Manager) SetDefaultFormat(f format.Format) {
	m.defaultFormat.Store(&formatBox{f: f})
	m.configVersion.Add(1)
}

// SetThreadPoolSize resizes the dispatch pool to exactly n workers.
func (m *Manager) SetThreadPoolSize(n int) error {
	return m.ResizeThreadPool(n)
}

// GetThreadPoolSize returns the dispatch pool's current worker count.
func (m *Manager) GetThreadPoolSize() int {
	if m.dispatchPool == nil {
		return 0
	}
	return m.dispatchPool.WorkerCount()
}

// ResizeThreadPool grows or shrinks the dispatch pool to n workers.
func (m *Manager) ResizeThreadPool(n int) error {
	if m.st.load() != stateRunning {
		return fmt.Errorf("manager: not running: %w", corerr.ErrInvalidState)
	}
	if n <= 0 {
		return fmt.Errorf("manager: thread pool size must be positive: %w", corerr.ErrInvalidArgument)
	}
	if !m.dispatchPool.Resize(n) {
		logger.Warnf("manager: dispatch pool resize to %d rejected", n)
		return fmt.Errorf("manager: resize rejected: %w", corerr.ErrInvalidState)
	}
	return nil
}

// SetDefaultLoggerName updates which logger name GetDefaultLogger resolves. The name is bounded
// to defs.DefaultLoggerNameMaxBytes, the way the reference manager bounds its small-string default
// name slot.
func (m *Manager) SetDefaultLoggerName(name string) error {
	if len(name) == 0 || len(name) > defs.DefaultLoggerNameMaxBytes {
		return fmt.Errorf("manager: default logger name length out of bounds: %w", corerr.ErrInvalidArgument)
	}
	m.defaultLoggerName.Store(&name)
	return nil
}

// GetDefaultLoggerName returns the name GetDefaultLogger currently resolves.
func (m *Manager) GetDefaultLoggerName() string {
	p := m.defaultLoggerName.Load()
	if p == nil {
		return "default"
	}
	return *p
}

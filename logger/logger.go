// Package logger implements the per-name Logger: level-gated record creation, a copy-on-write
// sink list, and the dispatch-pool entry point that delivers a record to every sink.
package logger

import (
	"sync/atomic"

	"github.com/relex/gotils/logger"

	"github.com/relex/logcore/dispatch"
	"github.com/relex/logcore/format"
	"github.com/relex/logcore/hazard"
	"github.com/relex/logcore/level"
	"github.com/relex/logcore/record"
	"github.com/relex/logcore/rculist"
	"github.com/relex/logcore/sink"
)

// formatBox boxes a format.Format so it can live behind an atomic.Pointer; atomic.Pointer[T]
// needs a concrete addressable value, not a bare interface.
type formatBox struct {
	f format.Format
}

// DeliveryMetrics receives delivery/error counts from Process's emit loop. Implemented by
// *metrics.Collectors; declared here (rather than imported) so this package does not depend on
// metrics. A nil DeliveryMetrics is valid and simply means nothing is recorded.
type DeliveryMetrics interface {
	RecordDelivered()
	RecordSinkError(sinkName string)
}

type metricsBox struct {
	m DeliveryMetrics
}

// Logger is a named, independently leveled and formatted entry point into the pipeline. A Logger
// is created once via the manager and then shared by every producer goroutine that logs under its
// name.
type Logger struct {
	name string

	threshold atomic.Int32 // level.Level
	formatPtr atomic.Pointer[formatBox]

	sinks *rculist.List[sink.Sink]

	recordPool *record.Pool
	dispatch   *dispatch.Pool

	metrics atomic.Pointer[metricsBox]

	dropped   atomic.Int64
	processed atomic.Int64
}

// New constructs a Logger named name, backed by recordPool/dispatchPool, starting at threshold
// with the given default formatter and hazard domain for its sink list.
func New(name string, recordPool *record.Pool, dispatchPool *dispatch.Pool, domain *hazard.Domain, threshold level.Level, defaultFormat format.Format) *Logger {
	l := &Logger{
		name:       name,
		sinks:      rculist.New[sink.Sink](domain),
		recordPool: recordPool,
		dispatch:   dispatchPool,
	}
	l.threshold.Store(int32(threshold))
	l.formatPtr.Store(&formatBox{f: defaultFormat})
	return l
}

// Name implements record.Owner.
func (l *Logger) Name() string {
	return l.name
}

// Process implements record.Owner: it is the dispatch worker's entry point, delivering rec to
// every sink in the current snapshot of this logger's sink list.
func (l *Logger) Process(rec *record.Record) {
	handle, err := l.sinks.ReadHandle()
	if err != nil {
		logger.Errorf("logger %s: failed to read sink list: %v", l.name, err)
		return
	}
	defer handle.Release()

	m := l.metrics.Load()
	f := l.Format()
	for _, s := range handle.Items() {
		if err := s.Emit(rec, f); err != nil {
			logger.Warnf("logger %s: sink emit failed: %v", l.name, err)
			if m != nil {
				m.m.RecordSinkError(s.Name())
			}
			continue
		}
		if m != nil {
			m.m.RecordDelivered()
		}
	}
	l.processed.Add(1)
}

// SetMetrics installs the collector that Process reports per-sink delivery/error counts to.
// Passing nil disables reporting.
func (l *Logger) SetMetrics(m DeliveryMetrics) {
	if m == nil {
		l.metrics.Store(nil)
		return
	}
	l.metrics.Store(&metricsBox{m: m})
}

// IsLevelEnabled reports whether lvl would be admitted at the logger's current threshold.
func (l *Logger) IsLevelEnabled(lvl level.Level) bool {
	return level.Enabled(lvl, l.Level())
}

// Log admits a record at lvl if view is non-empty and lvl clears the current threshold, fills a
// pooled Record with view/loc, and hands it to the dispatch pool. Returns whether the record was
// accepted.
func (l *Logger) Log(view string, lvl level.Level, loc record.SourceLocation) bool {
	return l.log(view, nil, lvl, loc)
}

// LogFields behaves like Log but copies data into the record's structured field map.
func (l *Logger) LogFields(view string, data *record.StructuredData, lvl level.Level, loc record.SourceLocation) bool {
	return l.log(view, data, lvl, loc)
}

func (l *Logger) log(view string, data *record.StructuredData, lvl level.Level, loc record.SourceLocation) bool {
	if view == "" || !l.IsLevelEnabled(lvl) {
		l.dropped.Add(1)
		return false
	}

	rec, err := l.recordPool.Acquire(l, lvl, loc, view)
	if err != nil {
		l.dropped.Add(1)
		return false
	}
	if data != nil {
		rec.StructuredData().Merge(data)
	}

	l.dispatch.Enqueue(rec, lvl.Priority())
	return true
}

// Flush asks every sink in the current snapshot to flush its own buffers.
func (l *Logger) Flush() {
	handle, err := l.sinks.ReadHandle()
	if err != nil {
		return
	}
	defer handle.Release()

	for _, s := range handle.Items() {
		if err := s.Flush(); err != nil {
			logger.Warnf("logger %s: sink flush failed: %v", l.name, err)
		}
	}
}

// RegisterSink appends sink to the logger's copy-on-write sink list.
func (l *Logger) RegisterSink(s sink.Sink) {
	l.sinks.Add(s)
}

// RegisterSinks appends every sink in sinks to the logger's list in one copy-on-write swap.
func (l *Logger) RegisterSinks(sinks []sink.Sink) {
	l.sinks.AddRange(sinks)
}

// SetLevel updates the logger's admission threshold.
func (l *Logger) SetLevel(lvl level.Level) {
	l.threshold.Store(int32(lvl))
}

// Level returns the logger's current admission threshold.
func (l *Logger) Level() level.Level {
	return level.Level(l.threshold.Load())
}

// Format returns the logger's current formatter.
func (l *Logger) Format() format.Format {
	return l.formatPtr.Load().f
}

// SetFormat replaces the logger's formatter.
func (l *Logger) SetFormat(f format.Format) {
	l.formatPtr.Store(&formatBox{f: f})
}

// Dropped returns the number of Log/LogFields calls that were rejected (empty message, level
// below threshold, or pool exhaustion).
func (l *Logger) Dropped() int64 {
	return l.dropped.Load()
}

// Processed returns the number of records this logger has delivered to its sink snapshot.
func (l *Logger) Processed() int64 {
	return l.processed.Load()
}

// Trace logs msg at level.Trace.
func (l *Logger) Trace(msg string, loc record.SourceLocation) bool { return l.Log(msg, level.Trace, loc) }

// Debug logs msg at level.Debug.
func (l *Logger) Debug(msg string, loc record.SourceLocation) bool { return l.Log(msg, level.Debug, loc) }

// Info logs msg at level.Info.
func (l *Logger) Info(msg string, loc record.SourceLocation) bool { return l.Log(msg, level.Info, loc) }

// Warn logs msg at level.Warn.
func (l *Logger) Warn(msg string, loc record.SourceLocation) bool { return l.Log(msg, level.Warn, loc) }

// Error logs msg at level.Error.
func (l *Logger) Error(msg string, loc record.SourceLocation) bool { return l.Log(msg, level.Error, loc) }

// Fatal logs msg at level.Fatal. It does not terminate the process; callers that want
// terminate-on-fatal semantics check the return value themselves.
func (l *Logger) Fatal(msg string, loc record.SourceLocation) bool { return l.Log(msg, level.Fatal, loc) }

// TraceFields logs msg at level.Trace with structured data attached.
func (l *Logger) TraceFields(msg string, data *record.StructuredData, loc record.SourceLocation) bool {
	return l.LogFields(msg, data, level.Trace, loc)
}

// DebugFields logs msg at level.Debug with structured data attached.
func (l *Logger) DebugFields(msg string, data *record.StructuredData, loc record.SourceLocation) bool {
	return l.LogFields(msg, data, level.Debug, loc)
}

// InfoFields logs msg at level.Info with structured data attached.
func (l *Logger) InfoFields(msg string, data *record.StructuredData, loc record.SourceLocation) bool {
	return l.LogFields(msg, data, level.Info, loc)
}

// WarnFields logs msg at level.Warn with structured data attached.
func (l *Logger) WarnFields(msg string, data *record.StructuredData, loc record.SourceLocation) bool {
	return l.LogFields(msg, data, level.Warn, loc)
}

// ErrorFields logs msg at level.Error with structured data attached.
func (l *Logger) ErrorFields(msg string, data *record.StructuredData, loc record.SourceLocation) bool {
	return l.LogFields(msg, data, level.Error, loc)
}

// FatalFields logs msg at level.Fatal with structured data attached.
func (l *Logger) FatalFields(msg string, data *record.StructuredData, loc record.SourceLocation) bool {
	return l.LogFields(msg, data, level.Fatal, loc)
}

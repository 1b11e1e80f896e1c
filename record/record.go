// Package record defines the Record value type that flows through the dispatch pipeline, its
// small-string-optimized message storage, its structured-field map, and the pool that allocates
// and recycles Record objects.
package record

import (
	"sync/atomic"
	"time"

	"github.com/relex/logcore/level"
)

// State is a Record's position in the pool lifecycle: Pooled (owned by the pool, reusable),
// Active (owned by exactly one producer/worker chain, refCount>=1), or Releasing (no new
// references may be taken; waiting for the last holder to drop its reference).
type State int32

const (
	StatePooled State = iota
	StateActive
	StateReleasing
)

// SourceLocation captures where a Log call originated.
type SourceLocation struct {
	File     string
	Function string
	Line     int
}

// Owner is the back-reference a Record holds to the logger that created it. It is a narrow
// interface rather than a concrete type to avoid record importing the logger package, which
// itself must import record for the Record type.
type Owner interface {
	Name() string
	Process(rec *Record)
}

// Record is the unit of work on the dispatch pipeline. Producers fill one out via the pool's
// Acquire, hand it to a logger, and a worker goroutine eventually calls its owner's Process,
// delivering it to every sink in the logger's sink list.
type Record struct {
	Timestamp time.Time
	Level     level.Level
	Location  SourceLocation

	loggerNameView string
	messageStorage ssoStorage
	structuredData StructuredData

	Owner Owner

	refCount atomic.Int32
	state    atomic.Int32

	// home identifies this record's slot for release bookkeeping. The pointer is set once at
	// construction time; its onFree callback is reinstalled each time the slot is claimed.
	home *slotRef
}

// slotRef locates a Record's backing slot so FinalizeRelease can mark it free again without a
// linear scan over every chunk on every release.
type slotRef struct {
	used *atomic.Bool
	// onFree clears the slot's used flag and decrements the pool's size counter, whether the
	// slot belongs to a shared chunk or a goroutine-local batch.
	onFree func()
}

// LoggerName returns the borrowed name of the logger that created this record.
func (r *Record) LoggerName() string {
	return r.loggerNameView
}

// Message returns a borrowed view of the record's message text.
func (r *Record) Message() string {
	return r.messageStorage.View()
}

// StructuredData returns the record's structured field map. Never nil.
func (r *Record) StructuredData() *StructuredData {
	return &r.structuredData
}

// State returns the record's current lifecycle state.
func (r *Record) State() State {
	return State(r.state.Load())
}

// RefCount returns the record's current reference count.
func (r *Record) RefCount() int32 {
	return r.refCount.Load()
}

// AddRef increments the reference count. Called by the dispatch pool before a record is enqueued,
// since the enqueuing producer and the eventual worker both hold a reference.
func (r *Record) AddRef() {
	r.refCount.Add(1)
}

// fill populates an Active record's fields; called only by the pool immediately after a slot is
// claimed.
func (r *Record) fill(owner Owner, lvl level.Level, loc SourceLocation, message string) {
	r.Timestamp = time.Now()
	r.Level = lvl
	r.Location = loc
	r.Owner = owner
	if owner != nil {
		r.loggerNameView = owner.Name()
	}
	r.messageStorage.Set(message)
}

func (r *Record) reset() {
	r.Timestamp = time.Time{}
	r.Level = level.Info
	r.Location = SourceLocation{}
	r.loggerNameView = ""
	r.messageStorage.Reset()
	r.structuredData.Clear()
	r.Owner = nil
	r.refCount.Store(0)
	r.state.Store(int32(StatePooled))
}

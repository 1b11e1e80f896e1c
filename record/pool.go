package record

import (
	"sync"
	"sync/atomic"

	"github.com/relex/logcore/corerr"
	"github.com/relex/logcore/defs"
	"github.com/relex/logcore/level"
)

// chunk is a fixed-size slab of Record slots plus a parallel atomic "used" bit array, grounded on
// the reference pool's Chunk{objects, used, size}.
type chunk struct {
	records []Record
	used    []atomic.Bool
}

func newChunk(size int) *chunk {
	c := &chunk{
		records: make([]Record, size),
		used:    make([]atomic.Bool, size),
	}
	for i := range c.records {
		c.records[i].home = &slotRef{used: &c.used[i]}
	}
	return c
}

// localBatch is a small goroutine-scale batch of pre-owned slots. It is parked in a sync.Pool
// rather than true thread-local storage — Go has no stable per-goroutine identity, and sync.Pool's
// own per-P private caches give the same "usually lock-free, usually local" property the
// reference implementation gets from a real thread_local, without pinning a goroutine to an OS
// thread. Grounded on the teacher's util.Pool[T] generic sync.Pool wrapper.
type localBatch struct {
	records []Record
	used    []atomic.Bool
}

func newLocalBatch(size int) *localBatch {
	b := &localBatch{
		records: make([]Record, size),
		used:    make([]atomic.Bool, size),
	}
	for i := range b.records {
		b.records[i].home = &slotRef{used: &b.used[i]}
	}
	return b
}

// Pool is a bounded, mostly-lock-free allocator for Record objects: a goroutine-scale fast path
// backed by sync.Pool, a shared round-robin scan across chunks, and a mutex-guarded growth path
// that appends a chunk double the size of the last. Grounded on MessagePool.cpp's Acquire/Release/
// FinalizeRelease/TryShrink algorithm.
type Pool struct {
	growthMu sync.Mutex
	chunks   atomic.Pointer[[]*chunk]

	nextChunkIndex atomic.Uint64
	size           atomic.Int64
	peak           atomic.Int64
	capacity       atomic.Int64

	batches sync.Pool
}

// New constructs a Pool with one initial chunk sized by defs.PoolInitialChunkSize.
func New() *Pool {
	p := &Pool{}
	p.batches.New = func() interface{} { return newLocalBatch(defs.PoolLocalCacheSize) }

	first := newChunk(defs.PoolInitialChunkSize)
	chunks := []*chunk{first}
	p.chunks.Store(&chunks)
	p.capacity.Store(int64(defs.PoolInitialChunkSize))
	return p
}

// Acquire claims a Pooled slot, transitions it to Active with refCount 1, fills it from owner/
// level/location/message, and returns it. It never blocks except inside the rare chunk-growth
// path.
func (p *Pool) Acquire(owner Owner, lvl level.Level, loc SourceLocation, message string) (*Record, error) {
	if rec := p.acquireFromBatch(); rec != nil {
		p.activate(rec, owner, lvl, loc, message)
		return rec, nil
	}

	if rec := p.acquireFromSharedScan(defs.PoolSharedScanLimit); rec != nil {
		p.activate(rec, owner, lvl, loc, message)
		return rec, nil
	}

	rec, err := p.acquireWithGrowth()
	if err != nil {
		return nil, err
	}
	p.activate(rec, owner, lvl, loc, message)
	return rec, nil
}

func (p *Pool) activate(rec *Record, owner Owner, lvl level.Level, loc SourceLocation, message string) {
	rec.fill(owner, lvl, loc, message)
	rec.state.Store(int32(StateActive))
	rec.refCount.Store(1)
}

func (p *Pool) acquireFromBatch() *Record {
	b := p.batches.Get().(*localBatch)
	defer p.batches.Put(b)
	for i := range b.records {
		if b.used[i].CompareAndSwap(false, true) {
			p.noteClaim()
			b.records[i].home.onFree = func() {
				b.used[i].Store(false)
				p.noteFree()
			}
			return &b.records[i]
		}
	}
	return nil
}

func (p *Pool) acquireFromSharedScan(scanLimit int) *Record {
	chunks := *p.chunks.Load()
	n := len(chunks)
	if n == 0 {
		return nil
	}
	start := int(p.nextChunkIndex.Add(1) % uint64(n))
	for i := 0; i < n; i++ {
		c := chunks[(start+i)%n]
		limit := scanLimit
		if limit > len(c.records) {
			limit = len(c.records)
		}
		for j := 0; j < limit; j++ {
			if c.used[j].CompareAndSwap(false, true) {
				p.noteClaim()
				rec := &c.records[j]
				rec.home.onFree = func() {
					c.used[j].Store(false)
					p.noteFree()
				}
				return rec
			}
		}
	}
	return nil
}

func (p *Pool) acquireWithGrowth() (*Record, error) {
	p.growthMu.Lock()
	defer p.growthMu.Unlock()

	// Re-check: another goroutine may have released a slot or grown the pool while we waited.
	if rec := p.acquireFromBatch(); rec != nil {
		return rec, nil
	}
	chunks := *p.chunks.Load()
	for _, c := range chunks {
		for j := range c.records {
			if c.used[j].CompareAndSwap(false, true) {
				p.noteClaim()
				rec := &c.records[j]
				rec.home.onFree = func() {
					c.used[j].Store(false)
					p.noteFree()
				}
				return rec, nil
			}
		}
	}

	if len(chunks) == 0 {
		return nil, corerr.ErrResourceExhausted
	}
	lastSize := len(chunks[len(chunks)-1].records)
	newSize := lastSize * defs.PoolChunkGrowthFactor
	if newSize <= 0 {
		return nil, corerr.ErrResourceExhausted
	}
	nc := newChunk(newSize)
	grown := make([]*chunk, 0, len(chunks)+1)
	grown = append(grown, chunks...)
	grown = append(grown, nc)
	p.chunks.Store(&grown)
	p.capacity.Add(int64(newSize))

	nc.used[0].Store(true)
	p.noteClaim()
	rec := &nc.records[0]
	rec.home.onFree = func() {
		nc.used[0].Store(false)
		p.noteFree()
	}
	return rec, nil
}

func (p *Pool) noteClaim() {
	size := p.size.Add(1)
	for {
		peak := p.peak.Load()
		if size <= peak || p.peak.CompareAndSwap(peak, size) {
			return
		}
	}
}

func (p *Pool) noteFree() {
	p.size.Add(-1)
}

// Release marks an Active record Releasing; if the caller was the sole reference holder, it
// completes the transition to Pooled immediately. Otherwise the last holder to drop its
// reference will call FinalizeRelease.
func (p *Pool) Release(rec *Record) {
	if rec == nil {
		return
	}
	if !rec.state.CompareAndSwap(int32(StateActive), int32(StateReleasing)) {
		return
	}
	if rec.refCount.Add(-1) == 0 {
		p.FinalizeRelease(rec)
	}
}

// DropRef decrements a record's reference count and finalizes its release if this was the last
// reference and the record is already Releasing. Called by the dispatch pool's worker after
// Process returns.
func (p *Pool) DropRef(rec *Record) {
	if rec == nil {
		return
	}
	if rec.refCount.Add(-1) == 0 && rec.State() == StateReleasing {
		p.FinalizeRelease(rec)
	}
}

// FinalizeRelease resets rec and returns its slot to the free pool. Safe to call only once per
// release cycle; the caller (Release or DropRef) guarantees that via the refCount/state dance
// above.
func (p *Pool) FinalizeRelease(rec *Record) {
	if rec.State() != StateReleasing {
		return
	}
	rec.reset()
	if rec.home != nil && rec.home.onFree != nil {
		rec.home.onFree()
	}
}

// Size returns the number of currently-claimed slots across all chunks and goroutine-local
// batches.
func (p *Pool) Size() int64 {
	return p.size.Load()
}

// Peak returns the highest Size observed since construction.
func (p *Pool) Peak() int64 {
	return p.peak.Load()
}

// Capacity returns the total number of slots across all chunks.
func (p *Pool) Capacity() int64 {
	return p.capacity.Load()
}

// TryShrink drops fully-unused tail chunks while usage/capacity is below threshold and more than
// one chunk remains. Intended to be called infrequently (e.g. from a periodic maintenance tick),
// never from the hot path.
func (p *Pool) TryShrink(threshold float64) {
	p.growthMu.Lock()
	defer p.growthMu.Unlock()

	capacity := p.capacity.Load()
	if capacity == 0 {
		return
	}

	chunks := *p.chunks.Load()
	for len(chunks) > 1 && float64(p.size.Load())/float64(p.capacity.Load()) < threshold {
		last := chunks[len(chunks)-1]
		empty := true
		for i := range last.used {
			if last.used[i].Load() {
				empty = false
				break
			}
		}
		if !empty {
			break
		}
		removed := len(last.records)
		chunks = chunks[:len(chunks)-1]
		p.capacity.Add(-int64(removed))
	}
	shrunk := append([]*chunk{}, chunks...)
	p.chunks.Store(&shrunk)
}

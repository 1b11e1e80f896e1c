package record

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relex/logcore/defs"
	"github.com/relex/logcore/level"
)

type fakeOwner struct{ name string }

func (o *fakeOwner) Name() string        { return o.name }
func (o *fakeOwner) Process(rec *Record) {}

func TestPoolAcquireReleaseRoundTrip(t *testing.T) {
	p := New()
	owner := &fakeOwner{name: "svc"}

	rec, err := p.Acquire(owner, level.Info, SourceLocation{File: "main.go", Line: 1}, "hello")
	require.NoError(t, err)
	assert.Equal(t, StateActive, rec.State())
	assert.Equal(t, int32(1), rec.RefCount())
	assert.Equal(t, "hello", rec.Message())
	assert.Equal(t, "svc", rec.LoggerName())

	p.Release(rec)
	assert.Equal(t, StatePooled, rec.State())
	assert.Equal(t, "", rec.Message())
}

func TestPoolReleaseWaitsForLastReference(t *testing.T) {
	p := New()
	owner := &fakeOwner{name: "svc"}
	rec, err := p.Acquire(owner, level.Warn, SourceLocation{}, "msg")
	require.NoError(t, err)

	rec.AddRef() // simulate a second holder (e.g. the dispatch worker)
	assert.Equal(t, int32(2), rec.RefCount())

	p.Release(rec)
	assert.Equal(t, StateReleasing, rec.State(), "must not finalize while a second ref is outstanding")

	p.DropRef(rec)
	assert.Equal(t, StatePooled, rec.State())
}

func TestPoolGrowsUnderSaturation(t *testing.T) {
	oldChunkSize, oldLocalCacheSize, oldScanLimit := defs.PoolInitialChunkSize, defs.PoolLocalCacheSize, defs.PoolSharedScanLimit
	defs.PoolInitialChunkSize = 2
	// The local cache must also shrink: acquireFromBatch is tried first, and with the default
	// 64-slot cache all 20 sequential acquisitions below would be serviced from it without ever
	// reaching the shared scan or growth path this test means to exercise.
	defs.PoolLocalCacheSize = 2
	defs.PoolSharedScanLimit = 2
	defer func() {
		defs.PoolInitialChunkSize = oldChunkSize
		defs.PoolLocalCacheSize = oldLocalCacheSize
		defs.PoolSharedScanLimit = oldScanLimit
	}()

	p := New()
	owner := &fakeOwner{name: "svc"}

	var acquired []*Record
	for i := 0; i < 20; i++ {
		rec, err := p.Acquire(owner, level.Info, SourceLocation{}, "x")
		require.NoError(t, err)
		acquired = append(acquired, rec)
	}
	assert.Greater(t, p.Capacity(), int64(2))
	assert.EqualValues(t, 20, p.Size())

	for _, rec := range acquired {
		p.Release(rec)
	}
	assert.EqualValues(t, 0, p.Size())
}

func TestPoolConcurrentAcquireRelease(t *testing.T) {
	p := New()
	owner := &fakeOwner{name: "svc"}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				rec, err := p.Acquire(owner, level.Debug, SourceLocation{}, "concurrent")
				require.NoError(t, err)
				p.Release(rec)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 0, p.Size())
}

func TestPoolTryShrinkDropsEmptyTailChunks(t *testing.T) {
	oldChunkSize, oldLocalCacheSize, oldScanLimit := defs.PoolInitialChunkSize, defs.PoolLocalCacheSize, defs.PoolSharedScanLimit
	defs.PoolInitialChunkSize = 2
	// Small local cache and scan limit so the acquisitions below grow the pool past its first
	// chunk (see TestPoolGrowsUnderSaturation).
	defs.PoolLocalCacheSize = 2
	defs.PoolSharedScanLimit = 2
	defer func() {
		defs.PoolInitialChunkSize = oldChunkSize
		defs.PoolLocalCacheSize = oldLocalCacheSize
		defs.PoolSharedScanLimit = oldScanLimit
	}()

	p := New()
	owner := &fakeOwner{name: "svc"}

	var acquired []*Record
	for i := 0; i < 10; i++ {
		rec, err := p.Acquire(owner, level.Info, SourceLocation{}, "x")
		require.NoError(t, err)
		acquired = append(acquired, rec)
	}
	for _, rec := range acquired {
		p.Release(rec)
	}

	before := p.Capacity()
	require.Greater(t, before, int64(2))
	p.TryShrink(0.99)
	assert.Less(t, p.Capacity(), before)
}

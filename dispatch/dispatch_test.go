package dispatch

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relex/logcore/corerr"
	"github.com/relex/logcore/level"
	"github.com/relex/logcore/record"
)

type countingOwner struct {
	mu        sync.Mutex
	processed []string
}

func (o *countingOwner) Name() string { return "test" }
func (o *countingOwner) Process(rec *record.Record) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.processed = append(o.processed, rec.Message())
}

func TestEnqueueProcessesRecord(t *testing.T) {
	pool := record.New()
	owner := &countingOwner{}
	dp := New(pool, 2)
	defer dp.Shutdown(false, time.Second)

	rec, err := pool.Acquire(owner, level.Info, record.SourceLocation{}, "hello")
	require.NoError(t, err)
	dp.Enqueue(rec, level.Info.Priority())

	dp.Flush(time.Second)

	owner.mu.Lock()
	defer owner.mu.Unlock()
	assert.Equal(t, []string{"hello"}, owner.processed)
}

func TestEnqueueAfterShutdownReleasesRecord(t *testing.T) {
	pool := record.New()
	owner := &countingOwner{}
	dp := New(pool, 1)
	dp.Shutdown(false, time.Second)

	rec, err := pool.Acquire(owner, level.Info, record.SourceLocation{}, "dropped")
	require.NoError(t, err)
	dp.Enqueue(rec, level.Info.Priority())

	assert.Equal(t, record.StatePooled, rec.State())
}

func TestPriorityOrderWithinQueue(t *testing.T) {
	pool := record.New()
	owner := &countingOwner{}

	// Build the pool's queue without spawning its worker yet, so both records land in the heap
	// before anything can dequeue: otherwise a single worker might pop "low" the moment it is
	// enqueued, racing ahead of "high" and defeating the priority-order assertion below.
	q := newQueue()
	dp := &Pool{pool: pool}
	qs := []*queue{q}
	dp.queues.Store(&qs)
	dp.running.Store(true)
	defer dp.Shutdown(true, time.Second)

	low, _ := pool.Acquire(owner, level.Trace, record.SourceLocation{}, "low")
	high, _ := pool.Acquire(owner, level.Error, record.SourceLocation{}, "high")

	dp.Enqueue(low, level.Trace.Priority())
	dp.Enqueue(high, level.Error.Priority())
	require.Equal(t, int64(2), dp.Pending(), "both records must be queued before the worker starts draining")

	dp.spawnWorker(q)

	dp.Flush(time.Second)

	owner.mu.Lock()
	defer owner.mu.Unlock()
	assert.Equal(t, []string{"high", "low"}, owner.processed)
}

func TestResizeGrowsWorkerCount(t *testing.T) {
	pool := record.New()
	dp := New(pool, 1)
	defer dp.Shutdown(false, time.Second)

	assert.True(t, dp.Resize(4))
	assert.Equal(t, 4, dp.WorkerCount())
}

func TestResizeShrinksAndJoinsSurplusWorkers(t *testing.T) {
	pool := record.New()
	owner := &countingOwner{}
	dp := New(pool, 4)
	defer dp.Shutdown(false, time.Second)

	assert.True(t, dp.Resize(1))
	assert.Equal(t, 1, dp.WorkerCount())

	// The surplus workers must have actually exited, not merely be unreachable: Shutdown must
	// return promptly rather than blocking on its timeout waiting for abandoned goroutines.
	rec, err := pool.Acquire(owner, level.Info, record.SourceLocation{}, "after-shrink")
	require.NoError(t, err)
	dp.Enqueue(rec, level.Info.Priority())
	dp.Flush(time.Second)

	owner.mu.Lock()
	defer owner.mu.Unlock()
	assert.Equal(t, []string{"after-shrink"}, owner.processed)
}

type blockingOwner struct {
	release chan struct{}
}

func (o *blockingOwner) Name() string { return "blocking" }
func (o *blockingOwner) Process(rec *record.Record) {
	<-o.release
}

func TestFlushTimesOutWithPendingRecords(t *testing.T) {
	pool := record.New()
	owner := &blockingOwner{release: make(chan struct{})}
	dp := New(pool, 1)
	defer func() {
		close(owner.release)
		dp.Shutdown(false, time.Second)
	}()

	// The single worker dequeues "stuck" and blocks forever inside Process, so "also-stuck" is
	// never popped and Pending() never reaches zero: that is what Flush should time out on. A
	// lone enqueued record wouldn't do it, since Pending() is decremented at dequeue time, before
	// Process is even called, and so would already read zero once the worker picks it up.
	rec1, err := pool.Acquire(owner, level.Info, record.SourceLocation{}, "stuck")
	require.NoError(t, err)
	dp.Enqueue(rec1, level.Info.Priority())

	rec2, err := pool.Acquire(owner, level.Info, record.SourceLocation{}, "also-stuck")
	require.NoError(t, err)
	dp.Enqueue(rec2, level.Info.Priority())

	flushErr := dp.Flush(20 * time.Millisecond)
	require.Error(t, flushErr)
	assert.True(t, errors.Is(flushErr, corerr.ErrTimeout))
}

func TestShutdownTimesOutWhileWorkerIsBlocked(t *testing.T) {
	pool := record.New()
	owner := &blockingOwner{release: make(chan struct{})}
	dp := New(pool, 1)
	defer close(owner.release)

	rec, err := pool.Acquire(owner, level.Info, record.SourceLocation{}, "stuck")
	require.NoError(t, err)
	dp.Enqueue(rec, level.Info.Priority())

	// Give the single worker a chance to dequeue and block inside Process before Shutdown runs,
	// so the join itself (not just the flush) is what times out.
	for dp.Pending() != 0 {
		time.Sleep(time.Millisecond)
	}

	shutdownErr := dp.Shutdown(false, 20*time.Millisecond)
	require.Error(t, shutdownErr)
	assert.True(t, errors.Is(shutdownErr, corerr.ErrTimeout))
}

func TestShutdownAfterResizeShrinkReturnsPromptly(t *testing.T) {
	pool := record.New()
	dp := New(pool, 4)

	require.True(t, dp.Resize(1))

	done := make(chan struct{})
	go func() {
		dp.Shutdown(false, 5*time.Second)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("shutdown did not return promptly after a resize shrink; surplus workers likely leaked")
	}
}

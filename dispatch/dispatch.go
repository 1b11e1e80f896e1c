// Package dispatch implements the priority dispatch pool: N worker goroutines, each owning one
// max-heap-backed queue, processing records in priority order and delivering them to their
// owning logger. Grounded on the reference LoggerThreadPool (EnqueueMessage/WorkerFunction/Flush/
// Shutdown/Resize/SelectQueue).
package dispatch

import (
	"container/heap"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/relex/gotils/logger"

	"github.com/relex/logcore/corerr"
	"github.com/relex/logcore/defs"
	"github.com/relex/logcore/record"
)

// item is one queued record plus its insertion sequence, used to break same-priority ties FIFO.
type item struct {
	rec      *record.Record
	priority int
	seq      uint64
}

type priorityHeap []item

func (h priorityHeap) Len() int { return len(h) }
func (h priorityHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority // max-heap: higher priority first
	}
	return h[i].seq < h[j].seq // FIFO tie-break
}
func (h priorityHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *priorityHeap) Push(x interface{}) { *h = append(*h, x.(item)) }
func (h *priorityHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

type queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	heap    priorityHeap
	pending atomic.Int64
	stopped atomic.Bool   // set when this queue is surplus to a Resize shrink
	done    chan struct{} // closed by the worker when it exits, so Resize can join it
}

func newQueue() *queue {
	q := &queue{heap: make(priorityHeap, 0, defs.DispatchQueueCapacityHint), done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Pool is the dispatch pool: a fixed (resizable) set of queue/worker pairs. Producers call
// Enqueue; the pool's workers call each record's Owner.Process and drop the pool's reference.
type Pool struct {
	pool *record.Pool

	resizeMu sync.Mutex
	queues   atomic.Pointer[[]*queue]
	wg       sync.WaitGroup

	running  atomic.Bool
	flushing atomic.Bool
	nextSeq  atomic.Uint64
	nextQ    atomic.Uint64
}

// New constructs a Pool with workerCount worker goroutines (floored at 1) draining records from
// recordPool's acquisitions.
func New(recordPool *record.Pool, workerCount int) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	p := &Pool{pool: recordPool}
	qs := make([]*queue, workerCount)
	for i := range qs {
		qs[i] = newQueue()
	}
	p.queues.Store(&qs)
	p.running.Store(true)
	for i := range qs {
		p.spawnWorker(qs[i])
	}
	return p
}

func (p *Pool) loadQueues() []*queue {
	return *p.queues.Load()
}

func (p *Pool) spawnWorker(q *queue) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer close(q.done)
		p.workerLoop(q)
	}()
}

// Enqueue accepts rec for dispatch, adding a reference the worker will drop after processing. If
// the pool is not running or is flushing, rec is released back to the pool instead.
func (p *Pool) Enqueue(rec *record.Record, priority int) {
	if rec == nil || !p.running.Load() || p.flushing.Load() || rec.State() != record.StateActive {
		if rec != nil {
			p.pool.Release(rec)
		}
		return
	}

	rec.AddRef()

	q := p.selectQueue()
	q.mu.Lock()
	heap.Push(&q.heap, item{rec: rec, priority: priority, seq: p.nextSeq.Add(1)})
	q.pending.Add(1)
	q.cond.Signal()
	q.mu.Unlock()
}

func (p *Pool) selectQueue() *queue {
	qs := p.loadQueues()
	if len(qs) == 1 {
		return qs[0]
	}
	idx := p.nextQ.Add(1) % uint64(len(qs))
	return qs[idx]
}

func (p *Pool) workerLoop(q *queue) {
	for {
		q.mu.Lock()
		for q.heap.Len() == 0 && !q.stopped.Load() && (p.running.Load() || p.flushing.Load()) {
			q.cond.Wait()
		}
		stopping := q.stopped.Load() || (!p.running.Load() && !p.flushing.Load())
		if q.heap.Len() == 0 && stopping {
			q.mu.Unlock()
			break
		}
		it := heap.Pop(&q.heap).(item)
		q.pending.Add(-1)
		q.mu.Unlock()

		p.process(it.rec)
	}

	// Drain remaining items without processing; shutdown-without-flush semantics.
	q.mu.Lock()
	for q.heap.Len() > 0 {
		it := heap.Pop(&q.heap).(item)
		q.pending.Add(-1)
		q.mu.Unlock()
		p.pool.DropRef(it.rec)
		q.mu.Lock()
	}
	q.mu.Unlock()
}

func (p *Pool) process(rec *record.Record) {
	if rec.State() == record.StateActive && rec.Owner != nil {
		rec.Owner.Process(rec)
	}
	p.pool.DropRef(rec)
}

// Pending returns the total number of records currently queued across all workers.
func (p *Pool) Pending() int64 {
	var total int64
	for _, q := range p.loadQueues() {
		total += q.pending.Load()
	}
	return total
}

// Flush signals every queue's worker to drain and blocks (polling at
// defs.DispatchFlushPollInterval) until pending reaches zero or timeout elapses. Returns
// corerr.ErrTimeout if the deadline passes with records still pending.
func (p *Pool) Flush(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for _, q := range p.loadQueues() {
		q.mu.Lock()
		q.cond.Signal()
		q.mu.Unlock()
	}

	if p.Pending() == 0 {
		return nil
	}

	for time.Now().Before(deadline) {
		time.Sleep(defs.DispatchFlushPollInterval)
		if p.Pending() == 0 {
			return nil
		}
	}
	remaining := p.Pending()
	logger.Warnf("dispatch pool flush timed out with %d records remaining", remaining)
	return fmt.Errorf("dispatch: flush timed out with %d records remaining: %w", remaining, corerr.ErrTimeout)
}

// Shutdown stops accepting new records (Enqueue releases them instead), optionally flushes first,
// then signals and joins every worker within timeout. Workers that do not exit in time are
// abandoned (treated as detached, matching the reference's thread-detach fallback). Returns
// corerr.ErrTimeout if the flush or the worker join did not complete within timeout.
func (p *Pool) Shutdown(flushFirst bool, timeout time.Duration) error {
	if !p.running.CompareAndSwap(true, false) {
		return nil
	}

	var flushErr error
	if flushFirst {
		p.flushing.Store(true)
		flushErr = p.Flush(timeout)
		p.flushing.Store(false)
	}

	for _, q := range p.loadQueues() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		logger.Warnf("dispatch pool shutdown timed out waiting for workers to exit")
		return fmt.Errorf("dispatch: shutdown timed out waiting for workers to exit: %w", corerr.ErrTimeout)
	}
	return flushErr
}

// Resize changes the number of worker/queue pairs. Refuses if the pool is not running. Shrinking
// stops routing new records to the surplus queues, signals their workers to drain and exit, and
// joins them before returning; growing appends new queues and spawns new workers.
func (p *Pool) Resize(n int) bool {
	if n < 1 {
		n = 1
	}
	p.resizeMu.Lock()
	defer p.resizeMu.Unlock()

	if !p.running.Load() {
		return false
	}

	qs := p.loadQueues()
	current := len(qs)
	if n == current {
		return true
	}

	if n < current {
		surplus := qs[n:]
		shrunk := append([]*queue{}, qs[:n]...)
		p.queues.Store(&shrunk)

		for _, q := range surplus {
			q.stopped.Store(true)
			q.mu.Lock()
			q.cond.Broadcast()
			q.mu.Unlock()
		}
		for _, q := range surplus {
			<-q.done
		}
		return true
	}

	grown := append([]*queue{}, qs...)
	for len(grown) < n {
		grown = append(grown, newQueue())
	}
	p.queues.Store(&grown)
	for i := current; i < n; i++ {
		p.spawnWorker(grown[i])
	}
	return true
}

// WorkerCount returns the current number of worker/queue pairs.
func (p *Pool) WorkerCount() int {
	return len(p.loadQueues())
}

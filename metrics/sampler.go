package metrics

import (
	"time"
)

// PoolStats is the subset of record.Pool's counters the sampler needs, narrowed to an interface
// so this package does not have to import record and risk a cycle with anything record imports
// in the future.
type PoolStats interface {
	Size() int64
	Peak() int64
	Capacity() int64
}

// QueueStats is the subset of dispatch.Pool's counters the sampler needs.
type QueueStats interface {
	Pending() int64
}

// HazardStats is the subset of hazard.Domain's counters the sampler needs.
type HazardStats interface {
	RetiredCount() int64
	ReclaimedCount() int64
}

// StartSampler launches a goroutine that copies pool/dispatch/hazard counters into gauges and
// counters every interval, until stop is closed. Gauges must be updated via Add/Sub rather than
// Set (promexporter.RWGauge's contract), so the sampler tracks the last-seen value and applies
// the delta; HazardRetired/HazardReclaims are RWCounters and are advanced the same way since
// Retire/TryCleanup counts are themselves only available as running totals.
func (c *Collectors) StartSampler(pool PoolStats, queues QueueStats, hazard HazardStats, interval time.Duration, stop <-chan struct{}) {
	go func() {
		var lastSize, lastPeak, lastCapacity, lastDepth, lastRetired, lastReclaimed int64
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				size, peak, capacity, depth := pool.Size(), pool.Peak(), pool.Capacity(), queues.Pending()
				retired, reclaimed := hazard.RetiredCount(), hazard.ReclaimedCount()
				c.PoolSize.Add(size - lastSize)
				c.PoolPeak.Add(peak - lastPeak)
				c.PoolCapacity.Add(capacity - lastCapacity)
				c.QueueDepth.Add(depth - lastDepth)
				c.HazardRetired.Add(uint64(retired - lastRetired))
				c.HazardReclaims.Add(uint64(reclaimed - lastReclaimed))
				lastSize, lastPeak, lastCapacity, lastDepth = size, peak, capacity, depth
				lastRetired, lastReclaimed = retired, reclaimed
			}
		}
	}()
}

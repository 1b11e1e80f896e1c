package defs

import (
	"time"
)

var (
	// PoolInitialChunkSize is the number of Record slots in the first chunk allocated by the
	// record pool.
	PoolInitialChunkSize = 1024

	// PoolChunkGrowthFactor multiplies the previous chunk's size to compute the next chunk's
	// size when the pool must grow.
	PoolChunkGrowthFactor = 2

	// PoolLocalCacheSize is the number of slots in each goroutine-local fast-path cache.
	PoolLocalCacheSize = 64

	// PoolSharedScanLimit caps how many slots of a chunk the shared round-robin scan probes
	// before moving on to the next chunk.
	PoolSharedScanLimit = 16

	// PoolShrinkUsageThreshold is the usage/capacity ratio below which TryShrink is willing to
	// drop a fully-unused tail chunk.
	PoolShrinkUsageThreshold = 0.25
)

var (
	// RecordMessageInlineBytes is the inline capacity of a record's message storage before it
	// falls back to a heap allocation. It matches the fixed 64-byte inline array of the record
	// package's message storage, which does not read this variable; changing it does not resize
	// that array.
	RecordMessageInlineBytes = 64

	// RecordStructuredDataInitialCapacity is the map capacity hint used when a record's
	// structured data is first populated.
	RecordStructuredDataInitialCapacity = 8
)

var (
	// HazardMaxPointers is the fixed size of the hazard pointer protection table.
	HazardMaxPointers = 100

	// HazardScanThreshold is the number of retirements accumulated before a reclamation scan
	// runs.
	HazardScanThreshold = 1000
)

var (
	// RegistryShardCount is the number of buckets in the logger registry's hash table. Must be
	// a power of two.
	RegistryShardCount = 256

	// DefaultLoggerNameMaxBytes bounds the atomic string holding the manager's default logger
	// name.
	DefaultLoggerNameMaxBytes = 128
)

var (
	// DispatchDefaultQueueCount is used when the manager is initialized without an explicit
	// worker count: one queue/worker pair per two logical CPUs, floored at 1.
	DispatchDefaultQueueCount = 0

	// DispatchQueueCapacityHint is a size hint for each worker's internal heap backing slice.
	DispatchQueueCapacityHint = 256

	// DispatchFlushPollInterval is how often Flush polls queue depth while waiting for the
	// pipeline to drain.
	DispatchFlushPollInterval = 10 * time.Millisecond

	// DispatchShutdownDrainTimeout bounds how long Shutdown waits for queues to drain before
	// forcing worker exit.
	DispatchShutdownDrainTimeout = 5 * time.Second
)

var (
	// SinkFlushInterval is how often sinks that buffer internally are asked to flush absent an
	// explicit caller-driven Flush. Consumed by cmd's periodic flush loop via manager.FlushAll.
	SinkFlushInterval = 1 * time.Second
)

// For testing and experiments
const (
	TestReadTimeout = 5 * time.Second
)

// EnableTestMode shrinks pool, hazard and dispatch parameters so unit tests can exercise growth,
// scanning and draining logic without allocating production-sized structures.
func EnableTestMode() {
	PoolInitialChunkSize = 4
	PoolLocalCacheSize = 2
	PoolSharedScanLimit = 2
	HazardMaxPointers = 8
	HazardScanThreshold = 4
	DispatchFlushPollInterval = 1 * time.Millisecond
	DispatchShutdownDrainTimeout = 1 * time.Second
}

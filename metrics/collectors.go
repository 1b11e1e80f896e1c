package metrics

import (
	"github.com/puzpuzpuz/xsync"
	"github.com/relex/gotils/promexporter/promext"

	"github.com/relex/logcore/defs"
)

// Collectors bundles every gauge/counter the logging core reports, built from a single Factory so
// they all share the "logcore_" prefix.
type Collectors struct {
	factory *Factory

	QueueDepth     promext.RWGauge
	Dropped        promext.RWCounter
	Processed      promext.RWCounter
	Delivered      promext.RWCounter
	PoolSize       promext.RWGauge
	PoolPeak       promext.RWGauge
	PoolCapacity   promext.RWGauge
	HazardRetired  promext.RWCounter
	HazardReclaims promext.RWCounter

	sinkErrorVec *promext.RWCounterVec
	// sinkErrorCache caches the curried per-sink-name counter handle so the hot emit path never
	// re-curries a vector; xsync.Map is built for exactly this string-keyed, read-heavy,
	// append-mostly pattern.
	sinkErrorCache *xsync.Map
}

// NewCollectors builds the standard collector set under the "logcore_" prefix.
func NewCollectors() *Collectors {
	f := NewFactory("logcore_", nil, nil)
	return &Collectors{
		factory:        f,
		QueueDepth:     f.AddOrGetGauge("dispatch_queue_depth", "Number of records currently queued across all dispatch workers", nil, nil),
		Dropped:        f.AddOrGetCounter("records_dropped_total", "Records rejected before dispatch (disabled level, empty message, pool exhaustion)", nil, nil),
		Processed:      f.AddOrGetCounter("records_processed_total", "Records delivered to at least one sink", nil, nil),
		Delivered:      f.AddOrGetCounter("sink_deliveries_total", "Individual sink Emit calls that succeeded", nil, nil),
		PoolSize:       f.AddOrGetGauge("record_pool_size", "Records currently claimed from the record pool", nil, nil),
		PoolPeak:       f.AddOrGetGauge("record_pool_peak", "High-water mark of claimed records", nil, nil),
		PoolCapacity:   f.AddOrGetGauge("record_pool_capacity", "Total record slots currently allocated across all pool chunks", nil, nil),
		HazardRetired:  f.AddOrGetCounter("hazard_retired_total", "Pointers retired into the hazard domain's reclamation list", nil, nil),
		HazardReclaims: f.AddOrGetCounter("hazard_reclaimed_total", "Pointers reclaimed by the hazard domain's cleanup scan", nil, nil),
		sinkErrorVec:   f.AddOrGetCounterVec("sink_errors_total", "Emit failures per sink name", []string{defs.LabelSink}, nil),
		sinkErrorCache: xsync.NewMap(),
	}
}

// SinkErrors returns the cached per-sink error counter for sinkName, curry-ing and caching it on
// first use.
func (c *Collectors) SinkErrors(sinkName string) promext.RWCounter {
	if cached, ok := c.sinkErrorCache.Load(sinkName); ok {
		return cached.(promext.RWCounter)
	}
	counter := c.sinkErrorVec.WithLabelValues(sinkName)
	actual, _ := c.sinkErrorCache.LoadOrStore(sinkName, counter)
	return actual.(promext.RWCounter)
}

// Factory exposes the underlying Factory for sub-factories (e.g. per-logger label sets).
func (c *Collectors) Factory() *Factory {
	return c.factory
}

// RecordDelivered implements logger.DeliveryMetrics: counts one successful sink Emit.
func (c *Collectors) RecordDelivered() {
	c.Delivered.Add(1)
}

// RecordSinkError implements logger.DeliveryMetrics: counts one failed sink Emit, labeled by
// sink name.
func (c *Collectors) RecordSinkError(sinkName string) {
	c.SinkErrors(sinkName).Add(1)
}

package metrics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewCollectors registers every metric under the global Prometheus default registerer, so the
// suite shares a single instance across subtests rather than hitting "already registered" on a
// second construction, the same constraint production code has (one Collectors per process).
func TestCollectors(t *testing.T) {
	c := NewCollectors()

	t.Run("RecordAndDump", func(t *testing.T) {
		c.Dropped.Add(3)
		c.QueueDepth.Add(5)
		c.SinkErrors("console").Add(1)
		c.SinkErrors("console").Add(1)

		dump, err := c.factory.DumpMetrics(true)
		require.NoError(t, err)
		assert.True(t, strings.Contains(dump, "logcore_records_dropped_total 3"))
		assert.True(t, strings.Contains(dump, `logcore_sink_errors_total{sink="console"} 2`))
	})

	t.Run("SinkErrorsCachesCounterHandle", func(t *testing.T) {
		first := c.SinkErrors("file")
		second := c.SinkErrors("file")
		first.Add(1)
		second.Add(1)

		dump, err := c.factory.DumpMetrics(true)
		require.NoError(t, err)
		assert.True(t, strings.Contains(dump, `logcore_sink_errors_total{sink="file"} 2`))
	})

	t.Run("RecordDeliveredAndRecordSinkError", func(t *testing.T) {
		c.RecordDelivered()
		c.RecordDelivered()
		c.RecordSinkError("console")

		dump, err := c.factory.DumpMetrics(true)
		require.NoError(t, err)
		assert.True(t, strings.Contains(dump, "logcore_sink_deliveries_total 2"))
		assert.True(t, strings.Contains(dump, `logcore_sink_errors_total{sink="console"} 3`))
	})
}

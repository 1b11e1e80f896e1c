package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStructuredDataAddGetRemove(t *testing.T) {
	d := NewStructuredData()
	assert.True(t, d.IsEmpty())

	d.Add("count", int64(5)).Add("ok", true).Add("when", time.Unix(0, 0))
	assert.False(t, d.IsEmpty())

	v, ok := d.Get("count")
	assert.True(t, ok)
	assert.Equal(t, int64(5), v)

	assert.True(t, d.HasField("ok"))
	assert.True(t, d.Remove("ok"))
	assert.False(t, d.HasField("ok"))
	assert.False(t, d.Remove("ok"))
}

func TestStructuredDataRejectsUnsupportedType(t *testing.T) {
	d := NewStructuredData()
	d.Add("bad", struct{ X int }{X: 1})
	assert.False(t, d.HasField("bad"))
}

func TestStructuredDataMergeIsRightBiased(t *testing.T) {
	a := NewStructuredData()
	a.Add("k", "a-value")
	b := NewStructuredData()
	b.Add("k", "b-value")
	a.Merge(b)

	v, _ := a.Get("k")
	assert.Equal(t, "b-value", v)
}

func TestStructuredDataClearRetainsMap(t *testing.T) {
	d := NewStructuredData()
	d.Add("a", int64(1))
	d.Clear()
	assert.True(t, d.IsEmpty())
	d.Add("b", int64(2))
	assert.True(t, d.HasField("b"))
}

func TestStructuredDataAddDeepCopiesSliceValues(t *testing.T) {
	d := NewStructuredData()
	tags := []string{"a", "b"}
	d.Add("tags", tags)
	tags[0] = "mutated"

	v, ok := d.Get("tags")
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, v)

	stored := v.([]string)
	stored[0] = "also-mutated"
	v2, _ := d.Get("tags")
	assert.Equal(t, []string{"also-mutated", "b"}, v2, "Get returns the live stored slice, not a defensive copy")
}

func TestStructuredDataMergeDeepCopiesSliceValues(t *testing.T) {
	a := NewStructuredData()
	b := NewStructuredData()
	nums := []int64{1, 2, 3}
	b.Add("nums", nums)
	a.Merge(b)
	nums[0] = 99

	v, ok := a.Get("nums")
	assert.True(t, ok)
	assert.Equal(t, []int64{1, 2, 3}, v)
}

package rculist

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relex/logcore/hazard"
)

func TestListAddAndRead(t *testing.T) {
	l := New[int](hazard.New())

	h, err := l.ReadHandle()
	require.NoError(t, err)
	assert.True(t, h.Empty())
	h.Release()

	l.Add(1)
	l.Add(2)

	h, err = l.ReadHandle()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, h.Items())
	assert.Equal(t, 2, h.Size())
	h.Release()
}

func TestListAddRange(t *testing.T) {
	l := New[string](hazard.New())
	l.Add("a")
	l.AddRange([]string{"b", "c"})

	h, err := l.ReadHandle()
	require.NoError(t, err)
	defer h.Release()
	assert.Equal(t, []string{"a", "b", "c"}, h.Items())
}

func TestListAddRangeEmptyIsNoop(t *testing.T) {
	l := New[int](hazard.New())
	l.Add(1)
	l.AddRange(nil)

	h, err := l.ReadHandle()
	require.NoError(t, err)
	defer h.Release()
	assert.Equal(t, []int{1}, h.Items())
}

func TestListRemove(t *testing.T) {
	l := New[int](hazard.New())
	l.Add(1)
	l.Add(2)
	l.Add(3)

	removed := l.Remove(func(v int) bool { return v == 2 })
	assert.True(t, removed)

	h, err := l.ReadHandle()
	require.NoError(t, err)
	defer h.Release()
	assert.Equal(t, []int{1, 3}, h.Items())

	assert.False(t, l.Remove(func(v int) bool { return v == 99 }))
}

func TestListClear(t *testing.T) {
	l := New[int](hazard.New())
	l.Add(1)
	l.Add(2)
	l.Clear()

	h, err := l.ReadHandle()
	require.NoError(t, err)
	defer h.Release()
	assert.True(t, h.Empty())
}

// TestListReadHandleObservesCompleteSnapshot asserts that a handle taken after 100 sequential
// Adds sees all 100 items, in insertion order. No writer runs while the handle is held.
func TestListReadHandleObservesCompleteSnapshot(t *testing.T) {
	l := New[int](hazard.New())
	for i := 0; i < 100; i++ {
		l.Add(i)
	}

	h, err := l.ReadHandle()
	require.NoError(t, err)
	items := h.Items()
	h.Release()

	assert.Len(t, items, 100)
	for i, v := range items {
		assert.Equal(t, i, v)
	}
}

func TestListEstimatedSize(t *testing.T) {
	l := New[int](hazard.New())
	assert.Equal(t, 0, l.EstimatedSize())
	l.Add(1)
	l.Add(2)
	assert.Equal(t, 2, l.EstimatedSize())
}

func TestListConcurrentAddAndRead(t *testing.T) {
	l := New[string](hazard.New())
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			l.Add(fmt.Sprintf("item-%d", n))
			h, err := l.ReadHandle()
			require.NoError(t, err)
			defer h.Release()
			assert.GreaterOrEqual(t, h.Size(), 1)
		}(i)
	}
	wg.Wait()

	h, err := l.ReadHandle()
	require.NoError(t, err)
	defer h.Release()
	assert.Equal(t, 16, h.Size())
}

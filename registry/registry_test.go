package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relex/logcore/hazard"
)

func TestRegistryInsertFindRemove(t *testing.T) {
	r := New[int](hazard.New())

	_, ok := r.Find("svc")
	assert.False(t, ok)

	r.Insert("svc", 1)
	v, ok := r.Find("svc")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	assert.True(t, r.Remove("svc"))
	_, ok = r.Find("svc")
	assert.False(t, ok)
	assert.False(t, r.Remove("svc"))
}

func TestRegistryEmptyNameIsNeverFound(t *testing.T) {
	r := New[int](hazard.New())
	_, ok := r.Find("")
	assert.False(t, ok)
	assert.False(t, r.Remove(""))
}

func TestRegistryHandlesBucketCollisionChains(t *testing.T) {
	r := New[int](hazard.New())
	for i := 0; i < 50; i++ {
		r.Insert(fmt.Sprintf("logger-%d", i), i)
	}
	for i := 0; i < 50; i++ {
		v, ok := r.Find(fmt.Sprintf("logger-%d", i))
		assert.True(t, ok)
		assert.Equal(t, i, v)
	}
	assert.True(t, r.Remove("logger-25"))
	_, ok := r.Find("logger-25")
	assert.False(t, ok)
	v, ok := r.Find("logger-24")
	assert.True(t, ok)
	assert.Equal(t, 24, v)
}

func TestRegistryClear(t *testing.T) {
	r := New[int](hazard.New())
	r.Insert("a", 1)
	r.Insert("b", 2)
	r.Clear()
	_, ok := r.Find("a")
	assert.False(t, ok)
	_, ok = r.Find("b")
	assert.False(t, ok)
}

func TestRegistryConcurrentInsertFind(t *testing.T) {
	r := New[int](hazard.New())
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			name := fmt.Sprintf("logger-%d", n)
			r.Insert(name, n)
			for j := 0; j < 20; j++ {
				v, ok := r.Find(name)
				assert.True(t, ok)
				assert.Equal(t, n, v)
			}
		}(i)
	}
	wg.Wait()
}

func TestRegistryRange(t *testing.T) {
	r := New[int](hazard.New())
	r.Insert("a", 1)
	r.Insert("b", 2)

	seen := map[string]int{}
	r.Range(func(name string, value int) bool {
		seen[name] = value
		return true
	})
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, seen)
}

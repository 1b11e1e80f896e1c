// Package registry implements the logger registry: a fixed-width, power-of-two sharded hash map
// from logger name to *logger.Logger, each bucket a hazard-protected singly-linked chain.
// Grounded on the reference LogManager's LoggerMap (FNV-1a 64-bit hashing with a final
// avalanche xor-shift, CAS-linked buckets, hazard-protected traversal with restart-on-change).
package registry

import (
	"sync/atomic"
	"unsafe"

	"github.com/relex/logcore/defs"
	"github.com/relex/logcore/hazard"
)

const (
	fnvOffsetBasis uint64 = 0xCBF29CE484222325
	fnvPrime       uint64 = 0x100000001B3
)

type entry[V any] struct {
	name  string
	value V
	next  atomic.Pointer[entry[V]]
}

// Registry is a sharded, lock-free hash map keyed by logger name. V is typically *logger.Logger;
// the type parameter avoids an import cycle between registry and logger.
type Registry[V any] struct {
	buckets []atomic.Pointer[entry[V]]
	domain  *hazard.Domain
}

// New constructs a Registry with defs.RegistryShardCount buckets (must be a power of two),
// reclaiming removed entries through domain.
func New[V any](domain *hazard.Domain) *Registry[V] {
	return &Registry[V]{
		buckets: make([]atomic.Pointer[entry[V]], defs.RegistryShardCount),
		domain:  domain,
	}
}

func bucketIndex(name string, numBuckets int) int {
	if name == "" {
		return 0
	}
	hash := fnvOffsetBasis
	for i := 0; i < len(name); i++ {
		hash ^= uint64(name[i])
		hash *= fnvPrime
	}
	hash ^= hash >> 32
	return int(hash & uint64(numBuckets-1))
}

// Find returns the value stored under name and whether it was present.
func (r *Registry[V]) Find(name string) (V, bool) {
	var zero V
	if name == "" {
		return zero, false
	}
	idx := bucketIndex(name, len(r.buckets))

	hp, err := hazard.NewHandle(r.domain)
	if err != nil {
		return zero, false
	}
	defer hp.Release()

	bucket := &r.buckets[idx]
	current := bucket.Load()
	for current != nil {
		hp.Protect(unsafe.Pointer(current))
		if current != bucket.Load() {
			current = bucket.Load()
			hp.Reset()
			continue
		}
		if current.name == name {
			return current.value, true
		}
		next := current.next.Load()
		hp.Reset()
		current = next
	}
	return zero, false
}

// Insert pushes a new entry at the bucket head. Duplicate names are legal at this layer; callers
// that want find-or-create semantics should Find first (the Manager does).
func (r *Registry[V]) Insert(name string, value V) {
	idx := bucketIndex(name, len(r.buckets))
	bucket := &r.buckets[idx]
	e := &entry[V]{name: name, value: value}
	for {
		old := bucket.Load()
		e.next.Store(old)
		if bucket.CompareAndSwap(old, e) {
			return
		}
	}
}

// Remove unlinks the first entry named name, retiring it via the hazard domain. Returns whether
// an entry was found and removed.
func (r *Registry[V]) Remove(name string) bool {
	if name == "" {
		return false
	}
	idx := bucketIndex(name, len(r.buckets))
	bucket := &r.buckets[idx]

	hpCur, err := hazard.NewHandle(r.domain)
	if err != nil {
		return false
	}
	defer hpCur.Release()

restart:
	var prev *entry[V]
	current := bucket.Load()
	for current != nil {
		protected := hpCur.Protect(unsafe.Pointer(current))
		if prev == nil && (*entry[V])(protected) != bucket.Load() {
			hpCur.Reset()
			goto restart
		}
		next := current.next.Load()

		if current.name == name {
			if prev == nil {
				if bucket.CompareAndSwap(current, next) {
					hpCur.Reset()
					r.retire(current)
					return true
				}
				hpCur.Reset()
				goto restart
			}
			if prev.next.CompareAndSwap(current, next) {
				hpCur.Reset()
				r.retire(current)
				return true
			}
			hpCur.Reset()
			goto restart
		}

		prev = current
		current = next
	}
	return false
}

func (r *Registry[V]) retire(e *entry[V]) {
	r.domain.Retire(unsafe.Pointer(e), func(unsafe.Pointer) {})
}

// Clear atomically swaps every bucket head to nil. Callable only at teardown, when no concurrent
// Find/Insert/Remove may be in flight.
func (r *Registry[V]) Clear() {
	for i := range r.buckets {
		r.buckets[i].Store(nil)
	}
}

// Range calls fn for every entry currently reachable across all buckets. Racy with concurrent
// writers (may miss concurrent inserts or see entries later removed); intended for diagnostics
// and ResizeThreadPool-style bulk operations, not for correctness-critical logic.
func (r *Registry[V]) Range(fn func(name string, value V) bool) {
	for i := range r.buckets {
		for e := r.buckets[i].Load(); e != nil; e = e.next.Load() {
			if !fn(e.name, e.value) {
				return
			}
		}
	}
}

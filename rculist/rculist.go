// Package rculist implements a generic copy-on-write list: writers publish a brand-new snapshot
// via CAS on a single head pointer, readers take a hazard-protected reference to whichever
// snapshot was current at the moment they asked, and never observe a partially-built list.
// Grounded on the reference RCUList<T>.
package rculist

import (
	"sync/atomic"
	"unsafe"

	"github.com/relex/logcore/hazard"
)

type node[T any] struct {
	items []T
}

// List is a read-mostly, copy-on-write slice of T, safe for concurrent Add/AddRange/Remove/Clear
// writers and many concurrent ReadHandle readers. The zero value is not usable; construct with
// New.
type List[T any] struct {
	head   atomic.Pointer[node[T]]
	domain *hazard.Domain
}

// New constructs an empty List backed by domain for safe reclamation of retired snapshots. Pass a
// shared domain when many lists should pool their hazard slots (e.g. one per logger, all sharing
// the manager's domain).
func New[T any](domain *hazard.Domain) *List[T] {
	return &List[T]{domain: domain}
}

// ReadHandle is a single read-only view of a List's snapshot at the moment it was acquired. It
// must not be retained past the reading goroutine's use of Items/Size/Empty; call Release
// (or let the handle be garbage collected after Release) promptly once done.
type ReadHandle[T any] struct {
	hp   *hazard.Handle
	node *node[T]
}

// ReadHandle acquires a hazard-protected reference to the list's current snapshot.
func (l *List[T]) ReadHandle() (ReadHandle[T], error) {
	hp, err := hazard.NewHandle(l.domain)
	if err != nil {
		return ReadHandle[T]{}, err
	}
	head := l.head.Load()
	if head != nil {
		hp.Protect(unsafe.Pointer(head))
	}
	return ReadHandle[T]{hp: hp, node: head}, nil
}

// Items returns the borrowed slice of elements visible through this handle. The slice must not be
// mutated; List snapshots are append-only-by-replacement, never edited in place.
func (h ReadHandle[T]) Items() []T {
	if h.node == nil {
		return nil
	}
	return h.node.items
}

// Size returns the number of elements visible through this handle.
func (h ReadHandle[T]) Size() int {
	return len(h.Items())
}

// Empty reports whether this handle's snapshot has no elements.
func (h ReadHandle[T]) Empty() bool {
	return h.Size() == 0
}

// Release unprotects the handle's hazard slot and frees it for reuse. Callers that acquire many
// short-lived handles from the same goroutine should prefer sharing one hazard.Handle across them
// instead (see Logger.Process, which acquires a handle once per dispatch rather than per call).
func (h ReadHandle[T]) Release() {
	if h.hp != nil {
		h.hp.Release()
	}
}

// Add appends item, publishing a new snapshot built from the current items plus item.
func (l *List[T]) Add(item T) {
	for {
		old := l.head.Load()
		next := &node[T]{items: appendCopy(old, item)}
		if l.head.CompareAndSwap(old, next) {
			l.retire(old)
			return
		}
	}
}

// AddRange appends every item in items in one published snapshot.
func (l *List[T]) AddRange(items []T) {
	if len(items) == 0 {
		return
	}
	for {
		old := l.head.Load()
		base := baseItems(old)
		next := make([]T, 0, len(base)+len(items))
		next = append(next, base...)
		next = append(next, items...)
		if l.head.CompareAndSwap(old, &node[T]{items: next}) {
			l.retire(old)
			return
		}
	}
}

// Remove drops every element for which match returns true, publishing a new snapshot. Returns
// whether any element was removed.
func (l *List[T]) Remove(match func(T) bool) bool {
	for {
		old := l.head.Load()
		base := baseItems(old)
		found := false
		for _, it := range base {
			if match(it) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
		next := make([]T, 0, len(base))
		for _, it := range base {
			if !match(it) {
				next = append(next, it)
			}
		}
		if l.head.CompareAndSwap(old, &node[T]{items: next}) {
			l.retire(old)
			return true
		}
	}
}

// Clear empties the list, retiring the previous snapshot.
func (l *List[T]) Clear() {
	old := l.head.Swap(nil)
	l.retire(old)
}

// EstimatedSize returns the element count of whichever snapshot happens to be current; it is a
// racy snapshot, useful for metrics, not for correctness decisions.
func (l *List[T]) EstimatedSize() int {
	return len(baseItems(l.head.Load()))
}

func (l *List[T]) retire(n *node[T]) {
	if n == nil {
		return
	}
	l.domain.Retire(unsafe.Pointer(n), func(unsafe.Pointer) {})
}

func baseItems[T any](n *node[T]) []T {
	if n == nil {
		return nil
	}
	return n.items
}

func appendCopy[T any](old *node[T], item T) []T {
	base := baseItems(old)
	next := make([]T, 0, len(base)+1)
	next = append(next, base...)
	next = append(next, item)
	return next
}

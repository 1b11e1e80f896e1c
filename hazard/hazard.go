// Package hazard implements a hazard-pointer domain: safe memory reclamation for the lock-free
// structures built on top of it (the read-mostly COW list and the logger registry). A reader
// publishes the pointer it is about to dereference into a protected slot; a writer that wants to
// retire a node first checks whether any slot still protects it before reclaiming.
package hazard

import (
	"sort"
	"sync/atomic"
	"unsafe"

	"github.com/relex/logcore/corerr"
	"github.com/relex/logcore/defs"
)

type record struct {
	owner   int64 // goroutine-ish owner tag; 0 means unowned. We use a per-caller token, not a thread id.
	pointer unsafe.Pointer
}

// Domain is a fixed-size table of hazard pointer slots plus a lock-free retired list. The zero
// value is not usable; construct with New.
type Domain struct {
	slots []record

	retiredHead   atomic.Pointer[retiredNode]
	retireEpoch   atomic.Int64
	retiredCount  atomic.Int64
	scanThreshold int64

	retiredTotal   atomic.Int64 // lifetime count of Retire calls, for metrics sampling
	reclaimedTotal atomic.Int64 // lifetime count of nodes actually deleted by TryCleanup
}

type retiredNode struct {
	pointer unsafe.Pointer
	deleter func(unsafe.Pointer)
	next    *retiredNode
}

// New creates a hazard domain sized from defs.HazardMaxPointers/defs.HazardScanThreshold.
func New() *Domain {
	return &Domain{
		slots:         make([]record, defs.HazardMaxPointers),
		scanThreshold: int64(defs.HazardScanThreshold),
	}
}

// Handle is a single caller's claim on a slot in a Domain. It is not safe for concurrent use by
// more than one goroutine; each goroutine should own its own Handle (typically cached in a
// goroutine-local pool, mirroring the record pool's local cache).
type Handle struct {
	domain *Domain
	index  int
	active bool
}

// NewHandle claims one slot in domain for the lifetime of the returned Handle. A Handle is meant
// to be owned by a single goroutine (or cached goroutine-locally and reused across many
// protect/reset cycles, mirroring the record pool's local cache) — never shared concurrently.
func NewHandle(domain *Domain) (*Handle, error) {
	h := &Handle{domain: domain, index: -1}
	if err := h.claim(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Handle) claim() error {
	d := h.domain
	for i := range d.slots {
		if atomic.CompareAndSwapInt64(&d.slots[i].owner, 0, 1) {
			h.index = i
			return nil
		}
	}
	return corerr.ErrResourceExhausted
}

// Protect publishes ptr into the handle's slot and returns it, so that no concurrent Retire(ptr)
// will reclaim it until Reset or a later Protect/Release call clears the slot. Protecting nil is a
// no-op that returns nil.
func (h *Handle) Protect(ptr unsafe.Pointer) unsafe.Pointer {
	if ptr == nil {
		return nil
	}
	atomic.StorePointer(&h.domain.slots[h.index].pointer, ptr)
	h.active = true
	return ptr
}

// Reset clears the handle's published pointer, making any retired node with that address eligible
// for reclamation on the next scan.
func (h *Handle) Reset() {
	if h.active {
		atomic.StorePointer(&h.domain.slots[h.index].pointer, nil)
		h.active = false
	}
}

// Release clears the handle and frees its slot for reuse by another owner. Call when a goroutine
// is done using this Handle for good (as opposed to Reset, which keeps the slot claimed for reuse
// across many protect/reset cycles by the same goroutine).
func (h *Handle) Release() {
	h.Reset()
	atomic.StoreInt64(&h.domain.slots[h.index].owner, 0)
	h.index = -1
}

// Retire schedules ptr for deletion via deleter once no hazard slot protects it. Every
// scanThreshold retirements triggers an opportunistic scan.
func (d *Domain) Retire(ptr unsafe.Pointer, deleter func(unsafe.Pointer)) {
	node := &retiredNode{pointer: ptr, deleter: deleter}
	for {
		old := d.retiredHead.Load()
		node.next = old
		if d.retiredHead.CompareAndSwap(old, node) {
			break
		}
	}
	d.retireEpoch.Add(1)
	d.retiredTotal.Add(1)
	if d.retiredCount.Add(1) >= d.scanThreshold {
		d.TryCleanup()
	}
}

// TryCleanup scans the currently-protected pointers and reclaims every retired node not among
// them, re-queuing the rest. Safe to call at any time; Retire calls it automatically once the
// retired count crosses the threshold.
func (d *Domain) TryCleanup() {
	d.retiredCount.Store(0)

	protected := make([]unsafe.Pointer, 0, len(d.slots))
	for i := range d.slots {
		if p := atomic.LoadPointer(&d.slots[i].pointer); p != nil {
			protected = append(protected, p)
		}
	}
	sort.Slice(protected, func(i, j int) bool { return uintptr(protected[i]) < uintptr(protected[j]) })

	nodes := d.retiredHead.Swap(nil)
	if nodes == nil {
		return
	}

	var deferred, toDelete *retiredNode
	for nodes != nil {
		cur := nodes
		nodes = nodes.next
		if isProtected(protected, cur.pointer) {
			cur.next = deferred
			deferred = cur
		} else {
			cur.next = toDelete
			toDelete = cur
		}
	}

	if deferred != nil {
		last := deferred
		for last.next != nil {
			last = last.next
		}
		for {
			old := d.retiredHead.Load()
			last.next = old
			if d.retiredHead.CompareAndSwap(old, deferred) {
				break
			}
		}
		d.retiredCount.Add(1)
	}

	for toDelete != nil {
		cur := toDelete
		toDelete = toDelete.next
		cur.deleter(cur.pointer)
		d.reclaimedTotal.Add(1)
	}
}

// RetiredCount returns the lifetime number of Retire calls made against this domain.
func (d *Domain) RetiredCount() int64 {
	return d.retiredTotal.Load()
}

// ReclaimedCount returns the lifetime number of retired nodes actually freed by TryCleanup scans.
func (d *Domain) ReclaimedCount() int64 {
	return d.reclaimedTotal.Load()
}

func isProtected(sortedProtected []unsafe.Pointer, p unsafe.Pointer) bool {
	i := sort.Search(len(sortedProtected), func(i int) bool { return uintptr(sortedProtected[i]) >= uintptr(p) })
	return i < len(sortedProtected) && sortedProtected[i] == p
}

// Teardown frees every retired node unconditionally, regardless of protection. Callers must
// ensure no concurrent readers remain; intended for Manager shutdown only.
func (d *Domain) Teardown() {
	nodes := d.retiredHead.Swap(nil)
	for nodes != nil {
		next := nodes.next
		nodes.deleter(nodes.pointer)
		nodes = next
	}
}

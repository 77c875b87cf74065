package coreaudio

import (
	"sync"

	"github.com/shaban/coreaudio/hal"
)

// registry is the process-wide table of live device wrappers, keyed by HAL
// object handle. It guarantees at most one wrapper per live handle and holds
// no ownership itself: reference counts decide lifetime, and the entry is
// removed on the final release.
//
// get/retain/insert/release are called from application goroutines and from
// the HAL notification thread concurrently; every map access runs under mu.
// Callers must never publish events while holding mu.
type registry struct {
	mu      sync.RWMutex
	devices map[hal.ObjectID]*Device
}

func newRegistry() *registry {
	return &registry{devices: make(map[hal.ObjectID]*Device)}
}

// get resolves a handle without taking a reference. The notification path
// uses it: a miss means the wrapper is gone (or never existed) and the event
// is discarded.
func (r *registry) get(id hal.ObjectID) *Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.devices[id]
}

// retain returns the live wrapper for id with one more reference, or nil if
// no wrapper exists.
func (r *registry) retain(id hal.ObjectID) *Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.devices[id]
	if d != nil {
		d.refs++
	}
	return d
}

// insert registers d as the canonical wrapper for its handle. If another
// wrapper won a construction race in the meantime, that one is retained and
// returned instead and the caller discards d.
func (r *registry) insert(d *Device) *Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur := r.devices[d.id]; cur != nil {
		cur.refs++
		return cur
	}
	d.refs = 1
	r.devices[d.id] = d
	return d
}

// release drops one reference. It reports true when this was the final
// reference, in which case the entry has been removed and the caller runs
// the wrapper's teardown (outside the lock).
func (r *registry) release(d *Device) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.refs == 0 {
		return false // already fully released
	}
	d.refs--
	if d.refs > 0 {
		return false
	}
	// Only delete the entry if d is still the canonical wrapper; a stale
	// wrapper must not evict its successor.
	if r.devices[d.id] == d {
		delete(r.devices, d.id)
	}
	return true
}

func (r *registry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

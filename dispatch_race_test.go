package coreaudio

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shaban/coreaudio/hal"
)

// TestLookupRacingNotifications drives the creation path and the
// notification callback concurrently for the same handle, the way the HAL's
// dispatcher thread races application goroutines in production.
func TestLookupRacingNotifications(t *testing.T) {
	sys, svc := newTestSystem()

	var published int64
	cancel := sys.Subscribe(EventFilter{}, func(Event) { atomic.AddInt64(&published, 1) })
	defer cancel()

	const goroutines = 10
	const iterations = 100

	var wg sync.WaitGroup
	wrappers := make([]*Device, goroutines)

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				if slot%2 == 0 {
					// Notification path: fires whatever listeners are
					// registered at this instant.
					svc.Fire(42, addr(hal.SelectorMute))
					continue
				}
				// Creation path.
				d, ok := sys.LookupByID(42)
				if !ok {
					t.Error("lookup failed during race")
					return
				}
				if wrappers[slot] == nil {
					wrappers[slot] = d
				} else {
					d.Close()
				}
			}
		}(g)
	}
	wg.Wait()

	// All lookup goroutines must have observed the same wrapper identity.
	var canonical *Device
	held := 0
	for _, d := range wrappers {
		if d == nil {
			continue
		}
		held++
		if canonical == nil {
			canonical = d
		} else if d != canonical {
			t.Error("concurrent lookups produced distinct wrappers for one handle")
		}
	}

	if got := sys.reg.get(42); got != canonical {
		t.Error("registry does not resolve the canonical wrapper after the race")
	}
	// Construction-race losers must have torn down their redundant
	// subscriptions; exactly one listener may remain.
	if n := svc.ActiveListeners(42); n != 1 {
		t.Errorf("active listeners after race = %d, want 1", n)
	}

	for _, d := range wrappers {
		if d != nil {
			d.Close()
		}
	}
	if sys.reg.get(42) != nil {
		t.Error("wrapper survived release of every reference")
	}
	if n := svc.ActiveListeners(42); n != 0 {
		t.Errorf("active listeners after full release = %d, want 0", n)
	}

	t.Logf("race completed: %d holders, %d events published", held, atomic.LoadInt64(&published))
}

// TestConcurrentDistinctHandles exercises parallel lookups across different
// handles; wrappers must stay distinct and consistent.
func TestConcurrentDistinctHandles(t *testing.T) {
	sys, svc := newTestSystem()
	ids := []hal.ObjectID{42, 43, 50}

	var wg sync.WaitGroup
	for g := 0; g < 12; g++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				id := ids[(seed+i)%len(ids)]
				d, ok := sys.LookupByID(id)
				if !ok {
					t.Errorf("lookup of %d failed", id)
					return
				}
				if d.ID() != id {
					t.Errorf("wrapper bound to %d returned for handle %d", d.ID(), id)
				}
				svc.Fire(id, addr(hal.SelectorNominalSampleRate))
				d.Close()
			}
		}(g)
	}
	wg.Wait()

	if n := sys.reg.size(); n != 0 {
		t.Errorf("registry holds %d entries after all releases", n)
	}
}

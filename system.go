package coreaudio

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/shaban/coreaudio/hal"
)

// System ties the registry, the notification dispatcher and the event bus to
// one hal.PropertyService. Create it once and share it; all methods are safe
// for concurrent use.
type System struct {
	svc hal.PropertyService
	reg *registry
	bus *eventBus
	log *zap.Logger
}

// Option configures a System.
type Option func(*System)

// WithLogger sets the logger used for subscription failures and recovered
// dispatch panics. The default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *System) {
		if log != nil {
			s.log = log
		}
	}
}

// WithEventBuffer sets the capacity of the Events channel. The default is 16.
func WithEventBuffer(n int) Option {
	return func(s *System) {
		if n > 0 {
			s.bus.feed = make(chan Event, n)
		}
	}
}

// New creates a System on top of the given property service.
func New(svc hal.PropertyService, opts ...Option) *System {
	s := &System{
		svc: svc,
		reg: newRegistry(),
		bus: newEventBus(16),
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Service exposes the underlying property service, for callers that need
// raw HAL queries next to the wrapper layer.
func (s *System) Service() hal.PropertyService { return s.svc }

// LookupByID returns the wrapper for a HAL object handle, creating it on
// first lookup. It returns false when the handle does not resolve to a
// recognized audio device class. Each successful call takes a reference the
// caller must release with Device.Close.
func (s *System) LookupByID(id hal.ObjectID) (*Device, bool) {
	if id == hal.UnknownObjectID {
		return nil, false
	}

	// Identity reuse: a live wrapper for this handle wins.
	if d := s.reg.retain(id); d != nil {
		return d, true
	}

	class, err := s.svc.ObjectClass(id)
	if err != nil || !deviceClasses[class] {
		return nil, false
	}

	d := &Device{sys: s, id: id, class: class}

	// Cache name and UID now; a removed device can still be asked for them
	// later, after live queries have started failing.
	if name, err := s.svc.ObjectName(id); err == nil {
		d.cachedName = name
	}
	if uid, err := s.svc.ObjectUID(id); err == nil {
		d.cachedUID = uid
	}

	// One wildcard subscription covers every property category; events are
	// filtered by selector at dispatch time. Registration failure is
	// non-fatal: the wrapper still works, it just observes nothing.
	token, err := s.svc.Subscribe(id, hal.WildcardAddress(), s.dispatch)
	if err != nil {
		s.log.Warn("property listener registration failed, device will not observe changes",
			zap.Uint32("object", uint32(id)),
			zap.Error(err))
	} else {
		d.observing = true
		d.token = token
	}

	if canonical := s.reg.insert(d); canonical != d {
		// Lost a construction race; keep the canonical wrapper and tear
		// down the redundant subscription.
		d.teardown()
		return canonical, true
	}
	return d, true
}

// LookupByUID resolves a persistent device unique identifier through the
// hardware root object and delegates to LookupByID. An unknown identifier
// yields no wrapper and no registry entry.
func (s *System) LookupByUID(uid string) (*Device, bool) {
	id, err := s.svc.DeviceIDForUID(uid)
	if err != nil || id == hal.UnknownObjectID {
		return nil, false
	}
	return s.LookupByID(id)
}

// Devices resolves every device the HAL currently reports. Handles that do
// not pass the device-class whitelist are skipped. The caller closes each
// returned device.
func (s *System) Devices() ([]*Device, error) {
	ids, err := s.svc.DeviceIDs()
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	out := make([]*Device, 0, len(ids))
	for _, id := range ids {
		if d, ok := s.LookupByID(id); ok {
			out = append(out, d)
		}
	}
	return out, nil
}

// DefaultInputDevice returns the wrapper for the system default input device.
func (s *System) DefaultInputDevice() (*Device, bool) {
	return s.defaultDevice(hal.ScopeInput)
}

// DefaultOutputDevice returns the wrapper for the system default output device.
func (s *System) DefaultOutputDevice() (*Device, bool) {
	return s.defaultDevice(hal.ScopeOutput)
}

func (s *System) defaultDevice(scope hal.Scope) (*Device, bool) {
	id, err := s.svc.DefaultDeviceID(scope)
	if err != nil || id == hal.UnknownObjectID {
		return nil, false
	}
	return s.LookupByID(id)
}

// Subscribe registers fn for events matching the filter and returns its
// cancel function. Handlers run synchronously on the HAL notification
// thread; keep them short and never block.
func (s *System) Subscribe(filter EventFilter, fn EventHandler) (cancel func()) {
	return s.bus.subscribe(filter, fn)
}

// Events returns the buffered event feed. Events are dropped, not queued,
// when the buffer is full; use Subscribe for lossless synchronous delivery.
func (s *System) Events() <-chan Event {
	return s.bus.feed
}

// dispatch is the single property listener shared by all wrappers. It runs
// on the HAL's notification thread, one invocation per changed-property
// batch, and always reports success back to the HAL: downstream failures
// have no useful propagation path into the hardware layer, and a panic must
// never cross the C callback boundary.
func (s *System) dispatch(id hal.ObjectID, addrs []hal.PropertyAddress) (st hal.Status) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("recovered panic in property event dispatch",
				zap.Uint32("object", uint32(id)),
				zap.Any("panic", r))
			st = hal.StatusOK
		}
	}()

	// Resolve the wrapper without retaining. A miss means the wrapper was
	// destroyed before the HAL delivered this batch, or the object was
	// never wrapped; either way the event is silently discarded.
	d := s.reg.get(id)
	if d == nil {
		return hal.StatusOK
	}

	for _, addr := range addrs {
		ev, ok := eventForAddress(addr)
		if !ok {
			continue
		}
		ev.Device = d
		// The registry lock is not held here; a handler may trigger
		// new lookups without re-entrancy.
		s.bus.publish(ev)
	}
	return hal.StatusOK
}

// EventHandler receives published events.
type EventHandler func(Event)

// EventFilter narrows a subscription. The zero value matches everything.
type EventFilter struct {
	// Kinds limits delivery to the listed event kinds; empty means all.
	Kinds []EventKind
	// Device limits delivery to events originating from one wrapper.
	Device *Device
}

func (f EventFilter) matches(ev Event) bool {
	if f.Device != nil && f.Device != ev.Device {
		return false
	}
	if len(f.Kinds) == 0 {
		return true
	}
	for _, k := range f.Kinds {
		if k == ev.Kind {
			return true
		}
	}
	return false
}

type busEntry struct {
	filter EventFilter
	fn     EventHandler
}

// eventBus fans events out to filtered handlers and a non-blocking channel
// feed. Handlers are invoked outside the bus lock so they may subscribe,
// cancel or look devices up without deadlocking.
type eventBus struct {
	mu   sync.Mutex
	next uint64
	subs map[uint64]busEntry
	feed chan Event
}

func newEventBus(buffer int) *eventBus {
	return &eventBus{
		subs: make(map[uint64]busEntry),
		feed: make(chan Event, buffer),
	}
}

func (b *eventBus) subscribe(filter EventFilter, fn EventHandler) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = busEntry{filter: filter, fn: fn}
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

func (b *eventBus) publish(ev Event) {
	b.mu.Lock()
	matched := make([]EventHandler, 0, len(b.subs))
	for _, entry := range b.subs {
		if entry.filter.matches(ev) {
			matched = append(matched, entry.fn)
		}
	}
	b.mu.Unlock()

	for _, fn := range matched {
		fn(ev)
	}

	select {
	case b.feed <- ev:
	default:
		// Feed full; channel consumers are lossy by contract.
	}
}

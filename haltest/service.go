// Package haltest provides a scripted in-memory hal.PropertyService for
// tests. Devices are added and removed by hand and property-change batches
// are fired synchronously, so callback-path behavior is exercised without
// real hardware.
package haltest

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/shaban/coreaudio/hal"
)

// Device describes one scripted audio object.
type Device struct {
	ID    hal.ObjectID
	UID   string
	Name  string
	Class hal.Class

	// DefaultFor marks the device as the default for hal.ScopeInput or
	// hal.ScopeOutput. Zero means not a default.
	DefaultFor hal.Scope
}

type listener struct {
	object hal.ObjectID
	fn     hal.ListenerFunc
}

// Service implements hal.PropertyService against a scripted device table.
// The zero value is not usable; call New.
type Service struct {
	mu        sync.Mutex
	devices   map[hal.ObjectID]Device
	listeners map[hal.SubscriptionToken]*listener

	// SubscribeErr, when set, makes every Subscribe call fail with it.
	SubscribeErr error

	subscribeCalls   int
	unsubscribeCalls int
}

// New returns an empty scripted service.
func New() *Service {
	return &Service{
		devices:   make(map[hal.ObjectID]Device),
		listeners: make(map[hal.SubscriptionToken]*listener),
	}
}

// AddDevice installs or replaces a scripted device.
func (s *Service) AddDevice(d Device) {
	s.mu.Lock()
	s.devices[d.ID] = d
	s.mu.Unlock()
}

// RemoveDevice simulates hardware removal. Property queries for the object
// fail afterwards, and unsubscribing a listener that was registered on it
// reports hal.ErrUnknownObject, mirroring the real HAL invalidating pending
// subscriptions when an object dies.
func (s *Service) RemoveDevice(id hal.ObjectID) {
	s.mu.Lock()
	delete(s.devices, id)
	s.mu.Unlock()
}

func (s *Service) device(id hal.ObjectID) (Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[id]
	if !ok {
		return Device{}, fmt.Errorf("%w: object %d", hal.ErrUnknownObject, id)
	}
	return d, nil
}

func (s *Service) ObjectClass(id hal.ObjectID) (hal.Class, error) {
	d, err := s.device(id)
	if err != nil {
		return 0, err
	}
	return d.Class, nil
}

func (s *Service) ObjectName(id hal.ObjectID) (string, error) {
	d, err := s.device(id)
	if err != nil {
		return "", err
	}
	return d.Name, nil
}

func (s *Service) ObjectUID(id hal.ObjectID) (string, error) {
	d, err := s.device(id)
	if err != nil {
		return "", err
	}
	return d.UID, nil
}

func (s *Service) DeviceIDForUID(uid string) (hal.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.devices {
		if d.UID == uid {
			return d.ID, nil
		}
	}
	return hal.UnknownObjectID, fmt.Errorf("%w: %q", hal.ErrNotFound, uid)
}

func (s *Service) DeviceIDs() ([]hal.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]hal.ObjectID, 0, len(s.devices))
	for id := range s.devices {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Service) DefaultDeviceID(scope hal.Scope) (hal.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.devices {
		if d.DefaultFor == scope {
			return d.ID, nil
		}
	}
	return hal.UnknownObjectID, fmt.Errorf("%w: no default device", hal.ErrNotFound)
}

func (s *Service) Subscribe(id hal.ObjectID, _ hal.PropertyAddress, fn hal.ListenerFunc) (hal.SubscriptionToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribeCalls++
	if s.SubscribeErr != nil {
		return "", s.SubscribeErr
	}
	if _, ok := s.devices[id]; !ok {
		return "", fmt.Errorf("%w: object %d", hal.ErrUnknownObject, id)
	}
	token := hal.SubscriptionToken(uuid.NewString())
	s.listeners[token] = &listener{object: id, fn: fn}
	return token, nil
}

func (s *Service) Unsubscribe(token hal.SubscriptionToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsubscribeCalls++
	l, ok := s.listeners[token]
	if !ok {
		return fmt.Errorf("haltest: unknown subscription token %q", token)
	}
	delete(s.listeners, token)
	if _, alive := s.devices[l.object]; !alive {
		return fmt.Errorf("%w: object %d", hal.ErrUnknownObject, l.object)
	}
	return nil
}

// Fire synchronously invokes every listener registered on id with the given
// changed-property batch, as the HAL's dispatcher thread would, and returns
// the listeners' status codes.
func (s *Service) Fire(id hal.ObjectID, addrs ...hal.PropertyAddress) []hal.Status {
	s.mu.Lock()
	var fns []hal.ListenerFunc
	for _, l := range s.listeners {
		if l.object == id {
			fns = append(fns, l.fn)
		}
	}
	s.mu.Unlock()

	statuses := make([]hal.Status, 0, len(fns))
	for _, fn := range fns {
		statuses = append(statuses, fn(id, addrs))
	}
	return statuses
}

// ActiveListeners reports how many listeners are currently registered on id.
func (s *Service) ActiveListeners(id hal.ObjectID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.listeners {
		if l.object == id {
			n++
		}
	}
	return n
}

// SubscribeCalls reports the total number of Subscribe attempts.
func (s *Service) SubscribeCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribeCalls
}

// UnsubscribeCalls reports the total number of Unsubscribe attempts.
func (s *Service) UnsubscribeCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsubscribeCalls
}

//go:build !darwin && cgo

package hal

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

// portableService approximates the HAL surface on platforms without Core
// Audio. Enumeration and name/UID queries work through miniaudio; property
// listeners are not available, so Subscribe degrades with ErrUnsupported and
// wrappers built on top run in the not-observing state.
type portableService struct {
	mu     sync.Mutex
	nextID ObjectID
	byUID  map[string]ObjectID
	byID   map[ObjectID]*portableDevice
}

type portableDevice struct {
	uid       string
	name      string
	scope     Scope
	isDefault bool
	present   bool
}

// New returns the platform PropertyService: a miniaudio-backed fallback on
// non-darwin systems.
func New() (PropertyService, error) {
	s := &portableService{
		nextID: SystemObjectID + 1,
		byUID:  make(map[string]ObjectID),
		byID:   make(map[ObjectID]*portableDevice),
	}
	if err := s.refresh(); err != nil {
		return nil, err
	}
	return s, nil
}

// refresh re-enumerates devices, keeping ObjectIDs stable per UID so handles
// stay valid across polls while a device remains attached.
func (s *portableService) refresh() error {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("hal: miniaudio context init: %w", err)
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	type scan struct {
		kind  malgo.DeviceType
		scope Scope
		label string
	}
	scans := []scan{
		{malgo.Capture, ScopeInput, "in"},
		{malgo.Playback, ScopeOutput, "out"},
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.byID {
		d.present = false
	}

	for _, sc := range scans {
		infos, err := ctx.Devices(sc.kind)
		if err != nil {
			return fmt.Errorf("hal: miniaudio enumeration: %w", err)
		}
		for _, info := range infos {
			uid := fmt.Sprintf("%s:%s", sc.label, info.Name())
			id, ok := s.byUID[uid]
			if !ok {
				id = s.nextID
				s.nextID++
				s.byUID[uid] = id
				s.byID[id] = &portableDevice{uid: uid, scope: sc.scope}
			}
			dev := s.byID[id]
			dev.name = info.Name()
			dev.isDefault = info.IsDefault != 0
			dev.present = true
		}
	}
	return nil
}

func (s *portableService) lookup(id ObjectID) (*portableDevice, error) {
	if err := s.refresh(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.byID[id]
	if !ok || !d.present {
		return nil, fmt.Errorf("%w: object %d", ErrUnknownObject, id)
	}
	return d, nil
}

func (s *portableService) ObjectClass(id ObjectID) (Class, error) {
	if _, err := s.lookup(id); err != nil {
		return 0, err
	}
	// miniaudio exposes plain devices only.
	return ClassDevice, nil
}

func (s *portableService) ObjectName(id ObjectID) (string, error) {
	d, err := s.lookup(id)
	if err != nil {
		return "", err
	}
	return d.name, nil
}

func (s *portableService) ObjectUID(id ObjectID) (string, error) {
	d, err := s.lookup(id)
	if err != nil {
		return "", err
	}
	return d.uid, nil
}

func (s *portableService) DeviceIDForUID(uid string) (ObjectID, error) {
	if err := s.refresh(); err != nil {
		return UnknownObjectID, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byUID[uid]
	if !ok || !s.byID[id].present {
		return UnknownObjectID, fmt.Errorf("%w: %q", ErrNotFound, uid)
	}
	return id, nil
}

func (s *portableService) DeviceIDs() ([]ObjectID, error) {
	if err := s.refresh(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []ObjectID
	for id, d := range s.byID {
		if d.present {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *portableService) DefaultDeviceID(scope Scope) (ObjectID, error) {
	if err := s.refresh(); err != nil {
		return UnknownObjectID, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, d := range s.byID {
		if d.present && d.scope == scope && d.isDefault {
			return id, nil
		}
	}
	return UnknownObjectID, fmt.Errorf("%w: no default device for scope", ErrNotFound)
}

func (s *portableService) Subscribe(ObjectID, PropertyAddress, ListenerFunc) (SubscriptionToken, error) {
	return "", fmt.Errorf("%w: property listeners", ErrUnsupported)
}

func (s *portableService) Unsubscribe(SubscriptionToken) error {
	return fmt.Errorf("%w: property listeners", ErrUnsupported)
}

package haltest

import (
	"errors"
	"testing"

	"github.com/shaban/coreaudio/hal"
)

func TestScriptedService(t *testing.T) {
	t.Run("DeviceTable", func(t *testing.T) {
		s := New()
		s.AddDevice(Device{ID: 10, UID: "uid-10", Name: "Ten", Class: hal.ClassDevice, DefaultFor: hal.ScopeOutput})

		if name, err := s.ObjectName(10); err != nil || name != "Ten" {
			t.Errorf("ObjectName = %q, %v", name, err)
		}
		if id, err := s.DeviceIDForUID("uid-10"); err != nil || id != 10 {
			t.Errorf("DeviceIDForUID = %d, %v", id, err)
		}
		if id, err := s.DefaultDeviceID(hal.ScopeOutput); err != nil || id != 10 {
			t.Errorf("DefaultDeviceID = %d, %v", id, err)
		}
		if _, err := s.DefaultDeviceID(hal.ScopeInput); !errors.Is(err, hal.ErrNotFound) {
			t.Errorf("missing default error = %v, want ErrNotFound", err)
		}

		s.RemoveDevice(10)
		if _, err := s.ObjectName(10); !errors.Is(err, hal.ErrUnknownObject) {
			t.Errorf("query after removal = %v, want ErrUnknownObject", err)
		}
	})

	t.Run("FireReachesListeners", func(t *testing.T) {
		s := New()
		s.AddDevice(Device{ID: 10, Class: hal.ClassDevice})
		s.AddDevice(Device{ID: 11, Class: hal.ClassDevice})

		var gotID hal.ObjectID
		var gotAddrs []hal.PropertyAddress
		token, err := s.Subscribe(10, hal.WildcardAddress(), func(id hal.ObjectID, addrs []hal.PropertyAddress) hal.Status {
			gotID = id
			gotAddrs = addrs
			return hal.StatusOK
		})
		if err != nil {
			t.Fatalf("Subscribe: %v", err)
		}

		// Listeners are per object.
		if st := s.Fire(11, hal.PropertyAddress{Selector: hal.SelectorMute}); len(st) != 0 {
			t.Errorf("fire on unlistened object invoked %d listeners", len(st))
		}

		batch := []hal.PropertyAddress{
			{Selector: hal.SelectorMute, Scope: hal.ScopeOutput},
			{Selector: hal.SelectorVolumeScalar, Scope: hal.ScopeOutput, Element: 1},
		}
		statuses := s.Fire(10, batch...)
		if len(statuses) != 1 || statuses[0] != hal.StatusOK {
			t.Fatalf("fire statuses = %v", statuses)
		}
		if gotID != 10 || len(gotAddrs) != 2 {
			t.Errorf("listener saw id %d with %d addresses", gotID, len(gotAddrs))
		}

		if err := s.Unsubscribe(token); err != nil {
			t.Fatalf("Unsubscribe: %v", err)
		}
		if n := s.ActiveListeners(10); n != 0 {
			t.Errorf("listeners after unsubscribe = %d", n)
		}
	})

	t.Run("UnsubscribeAfterRemovalFails", func(t *testing.T) {
		s := New()
		s.AddDevice(Device{ID: 10, Class: hal.ClassDevice})
		token, _ := s.Subscribe(10, hal.WildcardAddress(), func(hal.ObjectID, []hal.PropertyAddress) hal.Status {
			return hal.StatusOK
		})

		s.RemoveDevice(10)
		if err := s.Unsubscribe(token); !errors.Is(err, hal.ErrUnknownObject) {
			t.Errorf("unsubscribe after removal = %v, want ErrUnknownObject", err)
		}
		// The listener itself is gone either way.
		if n := s.ActiveListeners(10); n != 0 {
			t.Errorf("listeners after failed unsubscribe = %d", n)
		}
	})

	t.Run("InjectedSubscribeError", func(t *testing.T) {
		s := New()
		s.AddDevice(Device{ID: 10, Class: hal.ClassDevice})
		s.SubscribeErr = errors.New("nope")

		if _, err := s.Subscribe(10, hal.WildcardAddress(), nil); err == nil {
			t.Error("injected subscribe error not returned")
		}
		if n := s.SubscribeCalls(); n != 1 {
			t.Errorf("subscribe calls = %d, want 1", n)
		}
	})
}

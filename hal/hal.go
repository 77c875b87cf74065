// Package hal exposes the Core Audio hardware abstraction layer as a narrow
// query/subscribe surface. Higher layers never touch AudioObjectIDs through
// raw C calls; everything goes through a PropertyService.
//
// Two implementations ship with the module: the real Core Audio binding on
// darwin (cgo) and a miniaudio-backed fallback for other platforms that
// supports enumeration but not property listeners.
package hal

import (
	"errors"
	"fmt"
)

// ObjectID identifies a hardware-managed audio object (device, stream, ...).
// IDs are assigned by the HAL and are only valid while the underlying object
// exists; the HAL may reassign them across unplug/replug.
type ObjectID uint32

// UnknownObjectID is the HAL sentinel for "no such object"
// (kAudioObjectUnknown).
const UnknownObjectID ObjectID = 0

// SystemObjectID is the hardware root object (kAudioObjectSystemObject).
// Global queries such as UID translation and the device list go through it.
const SystemObjectID ObjectID = 1

// Selector, Scope and Element are the three components of a Core Audio
// property address. All are four-char codes except Element, which is a plain
// index (channel number for per-channel properties, 0 for the main element).
type (
	Selector uint32
	Scope    uint32
	Element  uint32
)

// PropertyAddress names a single property on an audio object.
type PropertyAddress struct {
	Selector Selector
	Scope    Scope
	Element  Element
}

// Device property selectors surfaced as domain events.
const (
	SelectorNominalSampleRate     Selector = 0x6E737274 // 'nsrt'
	SelectorAvailableSampleRates  Selector = 0x6E737223 // 'nsr#'
	SelectorClockSource           Selector = 0x63737263 // 'csrc'
	SelectorObjectName            Selector = 0x6C6E616D // 'lnam'
	SelectorOwnedObjects          Selector = 0x6F776E64 // 'ownd'
	SelectorVolumeScalar          Selector = 0x766F6C6D // 'volm'
	SelectorMute                  Selector = 0x6D757465 // 'mute'
	SelectorIsAlive               Selector = 0x6C69766E // 'livn'
	SelectorIsRunning             Selector = 0x676F696E // 'goin'
	SelectorIsRunningSomewhere    Selector = 0x676F6E65 // 'gone'
	SelectorJackIsConnected       Selector = 0x6A61636B // 'jack'
	SelectorPreferredStereoPair   Selector = 0x64636832 // 'dch2'
	SelectorHogMode               Selector = 0x6F696E6B // 'oink'
	SelectorProcessorOverload     Selector = 0x6F766572 // 'over'
	SelectorIOStoppedAbnormally   Selector = 0x73747064 // 'stpd'
	SelectorDeviceUID             Selector = 0x75696420 // 'uid '
	SelectorDevices               Selector = 0x64657623 // 'dev#'
	SelectorDefaultInputDevice    Selector = 0x64496E20 // 'dIn '
	SelectorDefaultOutputDevice   Selector = 0x644F7574 // 'dOut'
	SelectorTranslateUIDToDevice  Selector = 0x75696464 // 'uidd'
	SelectorWildcard              Selector = 0x2A2A2A2A // '****'
)

// Property scopes.
const (
	ScopeGlobal   Scope = 0x676C6F62 // 'glob'
	ScopeInput    Scope = 0x696E7074 // 'inpt'
	ScopeOutput   Scope = 0x6F757470 // 'outp'
	ScopeWildcard Scope = 0x2A2A2A2A // '****'
)

// Property elements.
const (
	ElementMain     Element = 0
	ElementWildcard Element = 0xFFFFFFFF
)

// WildcardAddress matches every property on an object. A single listener
// registered with it receives one callback per changed-property batch, no
// matter which property categories changed.
func WildcardAddress() PropertyAddress {
	return PropertyAddress{
		Selector: SelectorWildcard,
		Scope:    ScopeWildcard,
		Element:  ElementWildcard,
	}
}

// Class is a Core Audio object class ID.
type Class uint32

const (
	ClassDevice          Class = 0x61646576 // 'adev'
	ClassSubDevice       Class = 0x61737562 // 'asub'
	ClassAggregateDevice Class = 0x61616767 // 'aagg'
	ClassEndPoint        Class = 0x656E6470 // 'endp'
	ClassEndPointDevice  Class = 0x65646576 // 'edev'
)

func (c Class) String() string {
	switch c {
	case ClassDevice:
		return "device"
	case ClassSubDevice:
		return "subdevice"
	case ClassAggregateDevice:
		return "aggregate"
	case ClassEndPoint:
		return "endpoint"
	case ClassEndPointDevice:
		return "endpoint-device"
	default:
		return fmt.Sprintf("class(0x%08X)", uint32(c))
	}
}

// Status is the result code a listener hands back to the HAL thread. The
// callback boundary is C; Go panics must never cross it.
type Status int32

// StatusOK tells the HAL the batch was consumed. Listeners return it even
// when downstream consumers fail: a property notification has no useful
// failure path back into the hardware layer.
const StatusOK Status = 0

// ListenerFunc receives one invocation per changed-property batch on the
// HAL's own notification thread. Implementations must be safe to call from
// an unmanaged thread, must not block, and must not panic.
type ListenerFunc func(id ObjectID, addrs []PropertyAddress) Status

// SubscriptionToken identifies one registered listener. Tokens are opaque;
// they stay valid until passed to Unsubscribe.
type SubscriptionToken string

// Sentinel errors shared by all PropertyService implementations.
var (
	// ErrUnknownObject reports a query against an ObjectID the HAL no
	// longer resolves (device unplugged, stale handle).
	ErrUnknownObject = errors.New("hal: unknown audio object")

	// ErrNotFound reports a UID translation that matched no device.
	ErrNotFound = errors.New("hal: no device for unique ID")

	// ErrUnsupported reports an operation the active backend cannot
	// perform (the portable backend has no property listeners).
	ErrUnsupported = errors.New("hal: operation not supported by backend")
)

// OSStatusError wraps a raw Core Audio OSStatus failure.
type OSStatusError struct {
	Op     string
	Status int32
}

func (e *OSStatusError) Error() string {
	return fmt.Sprintf("hal: %s failed with OSStatus %d", e.Op, e.Status)
}

// PropertyService is the query/subscribe boundary to the platform HAL.
//
// All methods are safe for concurrent use. Subscribe registers fn for every
// property matching addr on the given object; the HAL invokes fn on its own
// dispatcher thread, concurrently across objects and without coordination
// with application goroutines.
type PropertyService interface {
	// ObjectClass reports the class of an audio object.
	ObjectClass(id ObjectID) (Class, error)

	// ObjectName reports the object's current display name. It fails once
	// the underlying hardware object is gone.
	ObjectName(id ObjectID) (string, error)

	// ObjectUID reports the device's persistent unique identifier.
	ObjectUID(id ObjectID) (string, error)

	// DeviceIDForUID resolves a persistent unique identifier through the
	// hardware root object. Returns ErrNotFound (or UnknownObjectID) when
	// nothing matches.
	DeviceIDForUID(uid string) (ObjectID, error)

	// DeviceIDs lists the ObjectIDs of all devices currently known to the
	// hardware root object.
	DeviceIDs() ([]ObjectID, error)

	// DefaultDeviceID reports the default device for ScopeInput or
	// ScopeOutput.
	DefaultDeviceID(scope Scope) (ObjectID, error)

	// Subscribe registers fn for property changes on id. One subscription
	// with WildcardAddress captures every property category.
	Subscribe(id ObjectID, addr PropertyAddress, fn ListenerFunc) (SubscriptionToken, error)

	// Unsubscribe removes a previously registered listener. Fails with
	// ErrUnknownObject when the object is already gone; callers treat
	// that as best-effort cleanup.
	Unsubscribe(token SubscriptionToken) error
}

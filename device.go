package coreaudio

import (
	"go.uber.org/zap"

	"github.com/shaban/coreaudio/hal"
)

// unknownDeviceName is returned by Name when neither the live HAL query nor
// the construction-time cache can produce a display name.
const unknownDeviceName = "<Unknown Device Name>"

// deviceClasses is the whitelist of object classes a wrapper may be bound
// to. Handles of any other class do not represent audio devices.
var deviceClasses = map[hal.Class]bool{
	hal.ClassDevice:          true,
	hal.ClassSubDevice:       true,
	hal.ClassAggregateDevice: true,
	hal.ClassEndPoint:        true,
	hal.ClassEndPointDevice:  true,
}

// Device is a resource-managed façade over one HAL audio object. Instances
// come from System.LookupByID / LookupByUID only; two lookups of the same
// live handle return the same instance.
//
// Every successful lookup takes a reference. Call Close once per lookup;
// the final Close deregisters the property listener and drops the wrapper
// from the registry.
type Device struct {
	sys *System
	id  hal.ObjectID

	class      hal.Class
	cachedName string
	cachedUID  string

	// Listener registration state, fixed at construction. observing is
	// false when registration failed and the wrapper runs degraded.
	observing bool
	token     hal.SubscriptionToken

	// refs is guarded by sys.reg.mu.
	refs int
}

// ID returns the HAL object handle this wrapper is bound to. The handle is
// only meaningful while the hardware object exists.
func (d *Device) ID() hal.ObjectID { return d.id }

// Class returns the object class the device was validated against at
// construction.
func (d *Device) Class() hal.Class { return d.class }

// IsAggregate reports whether the device is an aggregate of other devices.
func (d *Device) IsAggregate() bool { return d.class == hal.ClassAggregateDevice }

// IsObserving reports whether the wrapper registered for property-change
// notifications at construction. A false value means registration failed and
// the device works normally but emits no events.
func (d *Device) IsObserving() bool { return d.observing }

// Name returns a displayable device name. It never fails: the live HAL name
// wins, then the name cached at construction (a just-removed device no
// longer answers live queries), then a literal placeholder.
func (d *Device) Name() string {
	if name, err := d.sys.svc.ObjectName(d.id); err == nil && name != "" {
		return name
	}
	if d.cachedName != "" {
		return d.cachedName
	}
	return unknownDeviceName
}

// UID returns the device's persistent unique identifier, falling back to the
// value cached at construction when the live query fails. Empty when neither
// is available.
func (d *Device) UID() string {
	if uid, err := d.sys.svc.ObjectUID(d.id); err == nil && uid != "" {
		return uid
	}
	return d.cachedUID
}

// Close releases one reference. The final release deregisters the property
// listener (best-effort: the handle may already be dead, which is logged and
// ignored) and removes the wrapper from the registry. Closing an already
// fully released device is a no-op.
func (d *Device) Close() error {
	if !d.sys.reg.release(d) {
		return nil
	}
	d.teardown()
	return nil
}

// teardown deregisters the property listener. It runs outside the registry
// lock and must never fail hard: if the hardware object is already gone, its
// destruction invalidated the subscription anyway.
func (d *Device) teardown() {
	if !d.observing {
		return
	}
	if err := d.sys.svc.Unsubscribe(d.token); err != nil {
		d.sys.log.Warn("property listener deregistration failed",
			zap.Uint32("object", uint32(d.id)),
			zap.Error(err))
	}
}

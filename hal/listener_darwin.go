//go:build darwin && cgo

package hal

/*
#include <CoreAudio/CoreAudio.h>
*/
import "C"

import (
	"sync"
	"unsafe"
)

// The HAL hands listener callbacks an opaque clientData pointer. Go pointers
// cannot live in C memory, so subscriptions are registered here and the
// clientData carries only the table key.
var (
	listenerMu    sync.RWMutex
	listenerTable = make(map[uintptr]*coreAudioSubscription)
	listenerNext  uintptr = 1
)

func registerListener(sub *coreAudioSubscription) uintptr {
	listenerMu.Lock()
	defer listenerMu.Unlock()
	ctx := listenerNext
	listenerNext++
	listenerTable[ctx] = sub
	return ctx
}

func unregisterListener(ctx uintptr) {
	listenerMu.Lock()
	defer listenerMu.Unlock()
	delete(listenerTable, ctx)
}

//export goHALPropertyListener
func goHALPropertyListener(objectID C.AudioObjectID, addressCount C.UInt32, addresses *C.AudioObjectPropertyAddress, clientData unsafe.Pointer) C.OSStatus {
	listenerMu.RLock()
	sub := listenerTable[uintptr(clientData)]
	listenerMu.RUnlock()
	if sub == nil {
		// Listener already unregistered; the HAL delivered a stale batch.
		return C.OSStatus(StatusOK)
	}

	raw := unsafe.Slice(addresses, int(addressCount))
	addrs := make([]PropertyAddress, len(raw))
	for i, a := range raw {
		addrs[i] = PropertyAddress{
			Selector: Selector(a.mSelector),
			Scope:    Scope(a.mScope),
			Element:  Element(a.mElement),
		}
	}

	return C.OSStatus(sub.fn(ObjectID(objectID), addrs))
}

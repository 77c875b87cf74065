//go:build darwin && cgo

package hal

/*
#cgo LDFLAGS: -framework CoreAudio -framework CoreFoundation

#include <CoreAudio/CoreAudio.h>
#include <CoreFoundation/CoreFoundation.h>
#include <stdint.h>
#include <stdlib.h>

extern OSStatus goHALPropertyListener(AudioObjectID objectID,
                                      UInt32 addressCount,
                                      const AudioObjectPropertyAddress* addresses,
                                      void* clientData);

static OSStatus halListenerProc(AudioObjectID objectID,
                                UInt32 addressCount,
                                const AudioObjectPropertyAddress* addresses,
                                void* clientData) {
	return goHALPropertyListener(objectID, addressCount, addresses, clientData);
}

static OSStatus halAddListener(AudioObjectID id, AudioObjectPropertyAddress addr, uintptr_t token) {
	return AudioObjectAddPropertyListener(id, &addr, halListenerProc, (void*)token);
}

static OSStatus halRemoveListener(AudioObjectID id, AudioObjectPropertyAddress addr, uintptr_t token) {
	return AudioObjectRemovePropertyListener(id, &addr, halListenerProc, (void*)token);
}

static OSStatus halGetUInt32(AudioObjectID id, AudioObjectPropertyAddress addr, UInt32* out) {
	UInt32 size = sizeof(UInt32);
	return AudioObjectGetPropertyData(id, &addr, 0, NULL, &size, out);
}

// halCopyString fetches a CFString property as a malloc'd UTF-8 C string.
// The caller frees it.
static OSStatus halCopyString(AudioObjectID id, AudioObjectPropertyAddress addr, char** out) {
	CFStringRef ref = NULL;
	UInt32 size = sizeof(ref);
	*out = NULL;

	OSStatus status = AudioObjectGetPropertyData(id, &addr, 0, NULL, &size, &ref);
	if (status != noErr) {
		return status;
	}
	if (ref == NULL) {
		return noErr;
	}

	CFIndex max = CFStringGetMaximumSizeForEncoding(CFStringGetLength(ref), kCFStringEncodingUTF8) + 1;
	char* buf = malloc(max);
	if (buf != NULL && CFStringGetCString(ref, buf, max, kCFStringEncodingUTF8)) {
		*out = buf;
	} else {
		free(buf);
	}
	CFRelease(ref);
	return noErr;
}

static OSStatus halTranslateUID(const char* uid, AudioObjectID* out) {
	CFStringRef ref = CFStringCreateWithCString(kCFAllocatorDefault, uid, kCFStringEncodingUTF8);
	if (ref == NULL) {
		return kAudioHardwareBadObjectError;
	}

	AudioObjectPropertyAddress addr = {
		kAudioHardwarePropertyTranslateUIDToDevice,
		kAudioObjectPropertyScopeGlobal,
		kAudioObjectPropertyElementMain
	};
	UInt32 size = sizeof(AudioObjectID);
	OSStatus status = AudioObjectGetPropertyData(kAudioObjectSystemObject, &addr,
	                                             sizeof(CFStringRef), &ref, &size, out);
	CFRelease(ref);
	return status;
}

// halDeviceIDs returns a malloc'd array of all device IDs. The caller frees it.
static OSStatus halDeviceIDs(AudioObjectID** out, UInt32* count) {
	AudioObjectPropertyAddress addr = {
		kAudioHardwarePropertyDevices,
		kAudioObjectPropertyScopeGlobal,
		kAudioObjectPropertyElementMain
	};

	*out = NULL;
	*count = 0;

	UInt32 size = 0;
	OSStatus status = AudioObjectGetPropertyDataSize(kAudioObjectSystemObject, &addr, 0, NULL, &size);
	if (status != noErr) {
		return status;
	}
	if (size == 0) {
		return noErr;
	}

	AudioObjectID* ids = malloc(size);
	status = AudioObjectGetPropertyData(kAudioObjectSystemObject, &addr, 0, NULL, &size, ids);
	if (status != noErr) {
		free(ids);
		return status;
	}

	*out = ids;
	*count = size / sizeof(AudioObjectID);
	return noErr;
}
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/google/uuid"
)

// coreAudioService is the real PropertyService. One instance per process is
// plenty; the HAL itself is process-global state.
type coreAudioService struct {
	mu   sync.Mutex
	subs map[SubscriptionToken]*coreAudioSubscription
}

type coreAudioSubscription struct {
	object ObjectID
	addr   PropertyAddress
	fn     ListenerFunc
	ctx    uintptr // clientData registered with the HAL, resolves back via the listener table
}

// New returns the platform PropertyService: the Core Audio HAL on darwin.
func New() (PropertyService, error) {
	return &coreAudioService{subs: make(map[SubscriptionToken]*coreAudioSubscription)}, nil
}

func propertyAddress(a PropertyAddress) C.AudioObjectPropertyAddress {
	return C.AudioObjectPropertyAddress{
		mSelector: C.AudioObjectPropertySelector(a.Selector),
		mScope:    C.AudioObjectPropertyScope(a.Scope),
		mElement:  C.AudioObjectPropertyElement(a.Element),
	}
}

func globalAddress(sel Selector) C.AudioObjectPropertyAddress {
	return propertyAddress(PropertyAddress{Selector: sel, Scope: ScopeGlobal, Element: ElementMain})
}

func (s *coreAudioService) ObjectClass(id ObjectID) (Class, error) {
	var class C.UInt32
	addr := C.AudioObjectPropertyAddress{
		mSelector: C.kAudioObjectPropertyClass,
		mScope:    C.kAudioObjectPropertyScopeGlobal,
		mElement:  C.kAudioObjectPropertyElementMain,
	}
	if status := C.halGetUInt32(C.AudioObjectID(id), addr, &class); status != C.noErr {
		return 0, &OSStatusError{Op: "ObjectClass", Status: int32(status)}
	}
	return Class(class), nil
}

func (s *coreAudioService) ObjectName(id ObjectID) (string, error) {
	return s.copyString(id, SelectorObjectName, "ObjectName")
}

func (s *coreAudioService) ObjectUID(id ObjectID) (string, error) {
	return s.copyString(id, SelectorDeviceUID, "ObjectUID")
}

func (s *coreAudioService) copyString(id ObjectID, sel Selector, op string) (string, error) {
	var out *C.char
	if status := C.halCopyString(C.AudioObjectID(id), globalAddress(sel), &out); status != C.noErr {
		return "", &OSStatusError{Op: op, Status: int32(status)}
	}
	if out == nil {
		return "", fmt.Errorf("%w: %s returned no value for object %d", ErrUnknownObject, op, id)
	}
	defer C.free(unsafe.Pointer(out))
	return C.GoString(out), nil
}

func (s *coreAudioService) DeviceIDForUID(uid string) (ObjectID, error) {
	cUID := C.CString(uid)
	defer C.free(unsafe.Pointer(cUID))

	var out C.AudioObjectID
	if status := C.halTranslateUID(cUID, &out); status != C.noErr {
		return UnknownObjectID, &OSStatusError{Op: "DeviceIDForUID", Status: int32(status)}
	}
	if ObjectID(out) == UnknownObjectID {
		return UnknownObjectID, ErrNotFound
	}
	return ObjectID(out), nil
}

func (s *coreAudioService) DeviceIDs() ([]ObjectID, error) {
	var (
		out   *C.AudioObjectID
		count C.UInt32
	)
	if status := C.halDeviceIDs(&out, &count); status != C.noErr {
		return nil, &OSStatusError{Op: "DeviceIDs", Status: int32(status)}
	}
	if out == nil || count == 0 {
		return nil, nil
	}
	defer C.free(unsafe.Pointer(out))

	raw := unsafe.Slice(out, int(count))
	ids := make([]ObjectID, len(raw))
	for i, id := range raw {
		ids[i] = ObjectID(id)
	}
	return ids, nil
}

func (s *coreAudioService) DefaultDeviceID(scope Scope) (ObjectID, error) {
	sel := SelectorDefaultOutputDevice
	if scope == ScopeInput {
		sel = SelectorDefaultInputDevice
	}
	var out C.UInt32
	if status := C.halGetUInt32(C.AudioObjectID(SystemObjectID), globalAddress(sel), &out); status != C.noErr {
		return UnknownObjectID, &OSStatusError{Op: "DefaultDeviceID", Status: int32(status)}
	}
	return ObjectID(out), nil
}

func (s *coreAudioService) Subscribe(id ObjectID, addr PropertyAddress, fn ListenerFunc) (SubscriptionToken, error) {
	sub := &coreAudioSubscription{object: id, addr: addr, fn: fn}
	sub.ctx = registerListener(sub)

	if status := C.halAddListener(C.AudioObjectID(id), propertyAddress(addr), C.uintptr_t(sub.ctx)); status != C.noErr {
		unregisterListener(sub.ctx)
		return "", &OSStatusError{Op: "Subscribe", Status: int32(status)}
	}

	token := SubscriptionToken(uuid.NewString())
	s.mu.Lock()
	s.subs[token] = sub
	s.mu.Unlock()
	return token, nil
}

func (s *coreAudioService) Unsubscribe(token SubscriptionToken) error {
	s.mu.Lock()
	sub, ok := s.subs[token]
	delete(s.subs, token)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("hal: unknown subscription token %q", token)
	}

	status := C.halRemoveListener(C.AudioObjectID(sub.object), propertyAddress(sub.addr), C.uintptr_t(sub.ctx))
	unregisterListener(sub.ctx)
	if status != C.noErr {
		return &OSStatusError{Op: "Unsubscribe", Status: int32(status)}
	}
	return nil
}

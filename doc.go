// Package coreaudio provides an object-oriented façade over the Core Audio
// hardware abstraction layer: device discovery, stable wrapper identity per
// hardware handle, and typed property-change notifications.
//
// A System owns the wrapper registry and the notification dispatcher on top
// of a hal.PropertyService:
//
//	svc, err := hal.New()
//	if err != nil { ... }
//	sys := coreaudio.New(svc, coreaudio.WithLogger(logger))
//
//	dev, ok := sys.LookupByUID("BuiltInSpeakerDevice")
//	if ok {
//		defer dev.Close()
//		fmt.Println(dev.Name())
//	}
//
//	cancel := sys.Subscribe(coreaudio.EventFilter{}, func(ev coreaudio.Event) {
//		fmt.Println(ev.Kind, ev.Device.Name())
//	})
//	defer cancel()
//
// Looking up the same live handle twice returns the same *Device; each
// lookup takes a reference and each reference is released with Close. The
// final Close deregisters the device's property listener and removes it
// from the registry.
package coreaudio

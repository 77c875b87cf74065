package coreaudio

import (
	"fmt"

	"github.com/shaban/coreaudio/hal"
)

// EventKind identifies which device property changed.
type EventKind int

const (
	EventSampleRateChanged EventKind = iota
	EventAvailableSampleRatesChanged
	EventClockSourceChanged
	EventNameChanged
	EventOwnedObjectsChanged
	EventVolumeChanged
	EventMuteChanged
	EventIsAliveChanged
	EventIsRunningChanged
	EventIsRunningSomewhereChanged
	EventJackConnectedChanged
	EventPreferredStereoChannelsChanged
	EventHogModeChanged
	EventProcessorOverload
	EventIOStoppedAbnormally
)

func (k EventKind) String() string {
	switch k {
	case EventSampleRateChanged:
		return "sample_rate_changed"
	case EventAvailableSampleRatesChanged:
		return "available_sample_rates_changed"
	case EventClockSourceChanged:
		return "clock_source_changed"
	case EventNameChanged:
		return "name_changed"
	case EventOwnedObjectsChanged:
		return "owned_objects_changed"
	case EventVolumeChanged:
		return "volume_changed"
	case EventMuteChanged:
		return "mute_changed"
	case EventIsAliveChanged:
		return "is_alive_changed"
	case EventIsRunningChanged:
		return "is_running_changed"
	case EventIsRunningSomewhereChanged:
		return "is_running_somewhere_changed"
	case EventJackConnectedChanged:
		return "jack_connected_changed"
	case EventPreferredStereoChannelsChanged:
		return "preferred_stereo_channels_changed"
	case EventHogModeChanged:
		return "hog_mode_changed"
	case EventProcessorOverload:
		return "processor_overload"
	case EventIOStoppedAbnormally:
		return "io_stopped_abnormally"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// IOScope is the I/O direction a per-channel property applies to.
type IOScope int

const (
	ScopeGlobal IOScope = iota
	ScopeInput
	ScopeOutput
)

func (s IOScope) String() string {
	switch s {
	case ScopeInput:
		return "input"
	case ScopeOutput:
		return "output"
	default:
		return "global"
	}
}

// Event is a typed device property-change notification. Channel and Scope
// are populated for volume and mute events only; Channel is the property
// element (0 means the main/virtual element).
type Event struct {
	Kind    EventKind
	Device  *Device
	Channel uint32
	Scope   IOScope
}

// selectorEvents maps property selectors to domain event kinds. Selectors
// missing here never surface as events.
var selectorEvents = map[hal.Selector]EventKind{
	hal.SelectorNominalSampleRate:    EventSampleRateChanged,
	hal.SelectorAvailableSampleRates: EventAvailableSampleRatesChanged,
	hal.SelectorClockSource:          EventClockSourceChanged,
	hal.SelectorObjectName:           EventNameChanged,
	hal.SelectorOwnedObjects:         EventOwnedObjectsChanged,
	hal.SelectorVolumeScalar:         EventVolumeChanged,
	hal.SelectorMute:                 EventMuteChanged,
	hal.SelectorIsAlive:              EventIsAliveChanged,
	hal.SelectorIsRunning:            EventIsRunningChanged,
	hal.SelectorIsRunningSomewhere:   EventIsRunningSomewhereChanged,
	hal.SelectorJackIsConnected:      EventJackConnectedChanged,
	hal.SelectorPreferredStereoPair:  EventPreferredStereoChannelsChanged,
	hal.SelectorHogMode:              EventHogModeChanged,
	hal.SelectorProcessorOverload:    EventProcessorOverload,
	hal.SelectorIOStoppedAbnormally:  EventIOStoppedAbnormally,
}

func ioScopeOf(s hal.Scope) IOScope {
	switch s {
	case hal.ScopeInput:
		return ScopeInput
	case hal.ScopeOutput:
		return ScopeOutput
	default:
		return ScopeGlobal
	}
}

// eventForAddress translates one changed-property address into an event,
// attaching the channel/scope payload for per-channel property kinds.
func eventForAddress(addr hal.PropertyAddress) (Event, bool) {
	kind, ok := selectorEvents[addr.Selector]
	if !ok {
		return Event{}, false
	}
	ev := Event{Kind: kind}
	if kind == EventVolumeChanged || kind == EventMuteChanged {
		ev.Channel = uint32(addr.Element)
		ev.Scope = ioScopeOf(addr.Scope)
	}
	return ev, true
}

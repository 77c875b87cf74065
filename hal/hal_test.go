package hal

import "testing"

func fourCC(s string) uint32 {
	if len(s) != 4 {
		panic("four-char code must be 4 bytes")
	}
	return uint32(s[0])<<24 | uint32(s[1])<<16 | uint32(s[2])<<8 | uint32(s[3])
}

func TestFourCharCodes(t *testing.T) {
	selectors := map[string]Selector{
		"nsrt": SelectorNominalSampleRate,
		"nsr#": SelectorAvailableSampleRates,
		"csrc": SelectorClockSource,
		"lnam": SelectorObjectName,
		"ownd": SelectorOwnedObjects,
		"volm": SelectorVolumeScalar,
		"mute": SelectorMute,
		"livn": SelectorIsAlive,
		"goin": SelectorIsRunning,
		"gone": SelectorIsRunningSomewhere,
		"jack": SelectorJackIsConnected,
		"dch2": SelectorPreferredStereoPair,
		"oink": SelectorHogMode,
		"over": SelectorProcessorOverload,
		"stpd": SelectorIOStoppedAbnormally,
		"uid ": SelectorDeviceUID,
		"dev#": SelectorDevices,
		"dIn ": SelectorDefaultInputDevice,
		"dOut": SelectorDefaultOutputDevice,
		"uidd": SelectorTranslateUIDToDevice,
		"****": SelectorWildcard,
	}
	for code, sel := range selectors {
		if uint32(sel) != fourCC(code) {
			t.Errorf("selector %q = 0x%08X, want 0x%08X", code, uint32(sel), fourCC(code))
		}
	}

	scopes := map[string]Scope{
		"glob": ScopeGlobal,
		"inpt": ScopeInput,
		"outp": ScopeOutput,
		"****": ScopeWildcard,
	}
	for code, sc := range scopes {
		if uint32(sc) != fourCC(code) {
			t.Errorf("scope %q = 0x%08X, want 0x%08X", code, uint32(sc), fourCC(code))
		}
	}

	classes := map[string]Class{
		"adev": ClassDevice,
		"asub": ClassSubDevice,
		"aagg": ClassAggregateDevice,
		"endp": ClassEndPoint,
		"edev": ClassEndPointDevice,
	}
	for code, cl := range classes {
		if uint32(cl) != fourCC(code) {
			t.Errorf("class %q = 0x%08X, want 0x%08X", code, uint32(cl), fourCC(code))
		}
	}
}

func TestWildcardAddress(t *testing.T) {
	a := WildcardAddress()
	if a.Selector != SelectorWildcard || a.Scope != ScopeWildcard || a.Element != ElementWildcard {
		t.Errorf("wildcard address = %+v", a)
	}
}

func TestClassString(t *testing.T) {
	if got := ClassAggregateDevice.String(); got != "aggregate" {
		t.Errorf("aggregate class string = %q", got)
	}
	if got := Class(0x12345678).String(); got != "class(0x12345678)" {
		t.Errorf("unknown class string = %q", got)
	}
}

func TestOSStatusError(t *testing.T) {
	err := &OSStatusError{Op: "AudioObjectGetPropertyData", Status: -4}
	want := "hal: AudioObjectGetPropertyData failed with OSStatus -4"
	if err.Error() != want {
		t.Errorf("error string = %q, want %q", err.Error(), want)
	}
}

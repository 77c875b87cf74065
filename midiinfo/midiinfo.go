// Package midiinfo enumerates MIDI endpoints, the MIDI counterpart to the
// audio device discovery in the root package. It is a thin listing layer
// over a gomidi driver; opening ports and exchanging MIDI data is up to the
// caller.
package midiinfo

import (
	"errors"
	"fmt"

	"gitlab.com/gomidi/midi/v2/drivers"
)

// ErrNoDriver is returned by Registered when no gomidi driver has been
// registered in the process.
var ErrNoDriver = errors.New("midiinfo: no MIDI driver registered")

// Port describes one MIDI endpoint.
type Port struct {
	Number  int
	Name    string
	IsInput bool
}

// Ports lists every input and output endpoint the driver knows about.
func Ports(drv drivers.Driver) ([]Port, error) {
	ins, err := drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("listing MIDI inputs: %w", err)
	}
	outs, err := drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("listing MIDI outputs: %w", err)
	}

	ports := make([]Port, 0, len(ins)+len(outs))
	for _, in := range ins {
		ports = append(ports, Port{Number: in.Number(), Name: in.String(), IsInput: true})
	}
	for _, out := range outs {
		ports = append(ports, Port{Number: out.Number(), Name: out.String()})
	}
	return ports, nil
}

// Inputs filters a port list down to inputs.
func Inputs(ports []Port) []Port {
	var ins []Port
	for _, p := range ports {
		if p.IsInput {
			ins = append(ins, p)
		}
	}
	return ins
}

// Outputs filters a port list down to outputs.
func Outputs(ports []Port) []Port {
	var outs []Port
	for _, p := range ports {
		if !p.IsInput {
			outs = append(outs, p)
		}
	}
	return outs
}

// Registered lists the ports of the process-wide registered driver.
func Registered() ([]Port, error) {
	drv := drivers.Get()
	if drv == nil {
		return nil, ErrNoDriver
	}
	return Ports(drv)
}

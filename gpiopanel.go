// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package gpiopanel provisions the pins of a single-board computer into
// device modes and binds mode specific controls to the provisioned devices.
//
// Hardware access is provided by a Factory, such as the cdev, periph or
// mockup factories, which opens a device handle for a pin in a particular
// Mode.
//
// The Controller ensures that each pin has at most one live handle. Switching
// a pin to a new mode always releases the old handle before the new one is
// requested:
//
//	ctrl := gpiopanel.NewController(factory)
//	defer ctrl.Close()
//	b, err := ctrl.Provision(pin, gpiopanel.DigitalOutput)
//	if err != nil {
//		// pin left unbound
//	}
//	b.Surface.(*gpiopanel.DigitalOutputSurface).Set(true)
//
// Controls are represented by a Surface for each mode. Surfaces are
// intended to be manipulated from a single goroutine, typically a UI event
// loop. Changes on watched inputs are delivered on the channel returned by
// Controller.Notifications and applied to the surface by Controller.Deliver.
package gpiopanel

import (
	"slices"
	"strconv"
)

// Unassigned is the id of a pin which has no logical GPIO, such as a power or
// ground pin.
const Unassigned = -1

// PinDescriptor describes a pin on a board header.
type PinDescriptor struct {
	// The physical pin number on the header.
	Physical int

	// The logical id of the pin, or Unassigned.
	ID int

	// The name of the pin.
	Name string

	// The modes the pin supports, in order of preference.
	Modes []Mode
}

// Supports returns true if the pin supports the mode.
func (p PinDescriptor) Supports(m Mode) bool {
	for _, pm := range p.Modes {
		if pm == m {
			return true
		}
	}
	return false
}

// Clone returns a copy of the descriptor that shares no memory with p.
func (p PinDescriptor) Clone() PinDescriptor {
	p.Modes = slices.Clone(p.Modes)
	return p
}

// Assigned returns true if the pin has a logical id.
func (p PinDescriptor) Assigned() bool {
	return p.ID != Unassigned
}

func (p PinDescriptor) String() string {
	if !p.Assigned() {
		return p.Name + "(" + strconv.Itoa(p.Physical) + ")"
	}
	return p.Name + "(" + strconv.Itoa(p.Physical) + ":" + strconv.Itoa(p.ID) + ")"
}

// Header is a named, ordered collection of pins.
type Header struct {
	Name string
	Pins []PinDescriptor
}

// Board describes the headers of a board.
type Board struct {
	Make    string
	Model   string
	Name    string
	Headers []Header
}

// Pins returns all the pins of the board, in header order.
func (b Board) Pins() []PinDescriptor {
	pp := []PinDescriptor(nil)
	for _, h := range b.Headers {
		pp = append(pp, h.Pins...)
	}
	return pp
}

// Clone returns a copy of the board that shares no memory with b.
func (b Board) Clone() Board {
	b.Headers = slices.Clone(b.Headers)
	for i, h := range b.Headers {
		h.Pins = slices.Clone(h.Pins)
		for j, p := range h.Pins {
			h.Pins[j] = p.Clone()
		}
		b.Headers[i] = h
	}
	return b
}

// WithHeader returns a copy of the board with the header appended.
func (b Board) WithHeader(h Header) Board {
	hh := make([]Header, 0, len(b.Headers)+1)
	hh = append(hh, b.Headers...)
	b.Headers = append(hh, h)
	return b
}

// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package gpiopanel

import (
	"errors"
	"sync"
)

var (
	// ErrUnknownPin indicates the pin id is not known to the registry.
	ErrUnknownPin = errors.New("unknown pin")

	// ErrInvalidMode indicates the mode is not supported by the pin.
	ErrInvalidMode = errors.New("mode not supported by pin")
)

// Registry records the pins of a board and the mode selected for each.
//
// The pin descriptors are fixed when the registry is created. The registry
// holds its own copy of the board, and only hands out copies of it, so
// callers cannot alter the registered descriptors.
type Registry struct {
	board Board

	// pins with an assigned id, keyed by id.
	pins map[int]PinDescriptor

	// mutex covers the attributes below it.
	mu sync.Mutex

	// selected mode keyed by id.
	modes map[int]Mode
}

// NewRegistry creates a registry of the pins on the board.
//
// The initial mode of each pin that supports at least one mode is provided by
// current, which is typically Factory.CurrentMode. An initial mode that the
// pin does not support is recorded as Unknown.
func NewRegistry(b Board, current func(id int) Mode) *Registry {
	b = b.Clone()
	r := Registry{
		board: b,
		pins:  make(map[int]PinDescriptor),
		modes: make(map[int]Mode),
	}
	for _, p := range b.Pins() {
		if !p.Assigned() {
			continue
		}
		r.pins[p.ID] = p
		m := Unknown
		if current != nil && len(p.Modes) > 0 {
			m = current(p.ID)
		}
		if !p.Supports(m) {
			m = Unknown
		}
		r.modes[p.ID] = m
	}
	return &r
}

// Board returns the board described by the registry.
func (r *Registry) Board() Board {
	return r.board.Clone()
}

// Pins returns all the pins of the board, in header order.
func (r *Registry) Pins() []PinDescriptor {
	return r.board.Clone().Pins()
}

// Pin returns the descriptor for the pin id.
func (r *Registry) Pin(id int) (PinDescriptor, bool) {
	p, ok := r.pins[id]
	return p.Clone(), ok
}

// Mode returns the selected mode of the pin.
func (r *Registry) Mode(id int) Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.modes[id]
}

// Select records the mode selected for the pin.
//
// Unknown is always accepted. Any other mode must be supported by the pin.
func (r *Registry) Select(id int, m Mode) (PinDescriptor, error) {
	p, ok := r.pins[id]
	if !ok {
		return PinDescriptor{}, ErrUnknownPin
	}
	if m != Unknown && !p.Supports(m) {
		return p.Clone(), ErrInvalidMode
	}
	r.mu.Lock()
	r.modes[id] = m
	r.mu.Unlock()
	return p.Clone(), nil
}

// NextMode returns the mode following the selected mode in the pin's list of
// supported modes, wrapping around.
//
// delta may be negative to step backwards.
func (r *Registry) NextMode(id int, delta int) Mode {
	p, ok := r.pins[id]
	if !ok || len(p.Modes) == 0 {
		return Unknown
	}
	cur := r.Mode(id)
	idx := -1
	for i, m := range p.Modes {
		if m == cur {
			idx = i
			break
		}
	}
	n := len(p.Modes)
	if idx < 0 {
		if delta < 0 {
			return p.Modes[n-1]
		}
		return p.Modes[0]
	}
	idx = ((idx+delta)%n + n) % n
	return p.Modes[idx]
}

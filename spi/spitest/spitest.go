// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package spitest provides a simulated SPI ADC for testing bit bashed drivers
// without hardware.
package spitest

import (
	"errors"
	"sync"
)

// Device simulates an ADC that receives a start bit followed by a command,
// then shifts out a leading null bit followed by the sample, MSB first.
//
// The device latches Mosi on rising clock edges and advances its output on
// falling clock edges.
type Device struct {
	// CmdBits is the number of command bits following the start bit.
	CmdBits int

	// Width is the number of bits in a sample.
	Width int

	// Sample returns the sample for a command.
	Sample func(cmd []int) uint16

	// mutex covers the attributes below it.
	mu sync.Mutex

	selected bool
	clk      int
	mosi     int
	started  bool
	cmd      []int
	out      []int
	idx      int
	cmds     [][]int
	closes   int

	// set if the data line is read while being driven.
	contention bool
}

// ErrClosed indicates the line has been closed.
var ErrClosed = errors.New("line closed")

// Role identifies the function of a line attached to the Device.
type Role int

const (
	// Sclk is the clock line.
	Sclk Role = iota

	// Ssz is the chip select line, active low.
	Ssz

	// Mosi is the data line into the device.
	Mosi

	// Miso is the data line out of the device.
	Miso

	// Data is a shared data line.
	Data
)

// Line is a simulated line attached to the Device.
type Line struct {
	d      *Device
	role   Role
	output bool
	closed bool
}

// Lines returns separate clock, select, and data lines attached to the device.
func (d *Device) Lines() (sclk, ssz, mosi, miso *Line) {
	return &Line{d: d, role: Sclk, output: true},
		&Line{d: d, role: Ssz, output: true},
		&Line{d: d, role: Mosi, output: true},
		&Line{d: d, role: Miso}
}

// SharedLines returns clock, select, and a shared data line attached to the
// device.
func (d *Device) SharedLines() (sclk, ssz, data *Line) {
	return &Line{d: d, role: Sclk, output: true},
		&Line{d: d, role: Ssz, output: true},
		&Line{d: d, role: Data, output: true}
}

// Commands returns the commands received by the device.
func (d *Device) Commands() [][]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][]int(nil), d.cmds...)
}

// Closes returns the number of attached lines that have been closed.
func (d *Device) Closes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closes
}

// Contention returns true if a shared data line was read while still being
// driven by the host.
func (d *Device) Contention() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.contention
}

func (d *Device) setClock(v int) {
	if v == d.clk {
		return
	}
	d.clk = v
	if !d.selected {
		return
	}
	if v == 1 {
		if d.out != nil {
			return
		}
		if !d.started {
			d.started = d.mosi == 1
			return
		}
		d.cmd = append(d.cmd, d.mosi)
		if len(d.cmd) == d.CmdBits {
			d.cmds = append(d.cmds, d.cmd)
			s := d.Sample(d.cmd)
			d.out = []int{0}
			for i := d.Width - 1; i >= 0; i-- {
				d.out = append(d.out, int(s>>uint(i))&0x01)
			}
			d.idx = -1
		}
		return
	}
	if d.out != nil {
		d.idx++
	}
}

func (d *Device) setSelect(v int) {
	d.selected = v == 0
	d.started = false
	d.cmd = nil
	d.out = nil
}

func (d *Device) output() int {
	if d.out == nil || d.idx < 0 || d.idx >= len(d.out) {
		return 0
	}
	return d.out[d.idx]
}

// Value returns the level of the line.
func (l *Line) Value() (int, error) {
	d := l.d
	d.mu.Lock()
	defer d.mu.Unlock()
	if l.closed {
		return 0, ErrClosed
	}
	switch l.role {
	case Miso:
		return d.output(), nil
	case Data:
		if l.output {
			d.contention = true
			return d.mosi, nil
		}
		return d.output(), nil
	case Mosi:
		return d.mosi, nil
	case Sclk:
		return d.clk, nil
	}
	if d.selected {
		return 0, nil
	}
	return 1, nil
}

// SetValue sets the level of the line.
func (l *Line) SetValue(v int) error {
	d := l.d
	d.mu.Lock()
	defer d.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	switch l.role {
	case Sclk:
		d.setClock(v)
	case Ssz:
		d.setSelect(v)
	case Mosi, Data:
		d.mosi = v
	}
	return nil
}

// AsInput switches the line to an input.
func (l *Line) AsInput() error {
	l.d.mu.Lock()
	defer l.d.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.output = false
	return nil
}

// AsOutput switches the line to an output at the given level.
func (l *Line) AsOutput(v int) error {
	d := l.d
	d.mu.Lock()
	defer d.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.output = true
	if l.role == Data || l.role == Mosi {
		d.mosi = v
	}
	return nil
}

// Close releases the line.
func (l *Line) Close() error {
	l.d.mu.Lock()
	defer l.d.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.closed = true
	l.d.closes++
	return nil
}

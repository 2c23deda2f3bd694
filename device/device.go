// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package device provides the pin layout shared by boards with a Raspberry Pi
// compatible 40 pin header.
package device

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/warthog618/gpiopanel"
)

// Pin is a pin of the 40 pin header.
type Pin struct {
	// Name of a power or ground pin.
	//
	// Empty for GPIO pins.
	Name string

	// The BCM number of a GPIO pin, or -1 for power and ground pins.
	GPIO int
}

func power(name string) Pin {
	return Pin{Name: name, GPIO: -1}
}

func gpio(n int) Pin {
	return Pin{GPIO: n}
}

// Header40 is the layout of the 40 pin header, indexed by physical pin number
// less one.
var Header40 = [40]Pin{
	power("3V3"), power("5V"),
	gpio(2), power("5V"),
	gpio(3), power("GND"),
	gpio(4), gpio(14),
	power("GND"), gpio(15),
	gpio(17), gpio(18),
	gpio(27), power("GND"),
	gpio(22), gpio(23),
	power("3V3"), gpio(24),
	gpio(10), power("GND"),
	gpio(9), gpio(25),
	gpio(11), gpio(8),
	power("GND"), gpio(7),
	gpio(0), gpio(1),
	gpio(5), power("GND"),
	gpio(6), gpio(12),
	gpio(13), power("GND"),
	gpio(19), gpio(16),
	gpio(26), gpio(20),
	power("GND"), gpio(21),
}

// DefaultModes are the modes supported by the GPIO pins of the header.
var DefaultModes = []gpiopanel.Mode{
	gpiopanel.DigitalInput,
	gpiopanel.DigitalOutput,
	gpiopanel.PwmOutput,
	gpiopanel.Servo,
}

// NewHeader creates a header with the 40 pin layout.
//
// The offset function maps the BCM number of a GPIO pin to the offset of the
// corresponding line. GPIO pins for which offset returns false are listed
// as unassigned.
func NewHeader(name string, offset func(gpio int) (int, bool)) gpiopanel.Header {
	h := gpiopanel.Header{Name: name}
	for i, p := range Header40 {
		d := gpiopanel.PinDescriptor{Physical: i + 1, ID: gpiopanel.Unassigned, Name: p.Name}
		if p.GPIO >= 0 {
			d.Name = fmt.Sprintf("GPIO%d", p.GPIO)
			if o, ok := offset(p.GPIO); ok {
				d.ID = o
				d.Modes = DefaultModes
			}
		}
		h.Pins = append(h.Pins, d)
	}
	return h
}

// Identity is an offset function for chips where line offsets match BCM
// numbers.
func Identity(gpio int) (int, bool) {
	return gpio, true
}

// GPIO returns the BCM number of the GPIO at the physical pin of the header.
//
// Returns false for power and ground pins, and for pins not on the header.
func GPIO(physical int) (int, bool) {
	if physical < 1 || physical > len(Header40) {
		return 0, false
	}
	n := Header40[physical-1].GPIO
	return n, n >= 0
}

// ErrInvalid indicates the pin name does not match a known pin.
var ErrInvalid = errors.New("invalid pin name")

// The range of GPIOs accepted by name, excluding the ID EEPROM pins.
const (
	minGPIO = 2
	maxGPIO = 27
)

// ParsePin maps a pin name to its BCM number.
//
// Pin names are case insensitive and may be of the form <header>pX, where X
// is the physical pin number, GPIOX, or X.
func ParsePin(header, s string) (int, error) {
	s = strings.ToLower(s)
	prefix := strings.ToLower(header) + "p"
	if phys, ok := strings.CutPrefix(s, prefix); ok {
		v, err := strconv.Atoi(phys)
		if err != nil {
			return 0, ErrInvalid
		}
		n, ok := GPIO(v)
		if !ok {
			return 0, ErrInvalid
		}
		return n, nil
	}
	s = strings.TrimPrefix(s, "gpio")
	v, err := strconv.ParseInt(s, 10, 8)
	if err != nil {
		return 0, err
	}
	if v < minGPIO || v > maxGPIO {
		return 0, ErrInvalid
	}
	return int(v), nil
}

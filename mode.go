// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package gpiopanel

import (
	"errors"
	"strings"
)

// Mode is the functional role assigned to a pin.
type Mode int

const (
	// Unknown indicates the pin has no known role and is left unbound.
	Unknown Mode = iota

	// DigitalInput indicates the pin is read as a boolean level.
	DigitalInput

	// DigitalOutput indicates the pin is driven to a boolean level.
	DigitalOutput

	// PwmOutput indicates the pin is driven with a pulse width modulated
	// signal.
	PwmOutput

	// Servo indicates the pin is driving a hobby servo.
	Servo

	// AnalogInput indicates the pin is read as a normalised scalar.
	AnalogInput
)

var modeNames = map[Mode]string{
	Unknown:       "unknown",
	DigitalInput:  "din",
	DigitalOutput: "dout",
	PwmOutput:     "pwm",
	Servo:         "servo",
	AnalogInput:   "ain",
}

var modeAliases = map[string]Mode{
	"unknown":        Unknown,
	"din":            DigitalInput,
	"input":          DigitalInput,
	"digital-input":  DigitalInput,
	"dout":           DigitalOutput,
	"output":         DigitalOutput,
	"digital-output": DigitalOutput,
	"pwm":            PwmOutput,
	"pwm-output":     PwmOutput,
	"servo":          Servo,
	"ain":            AnalogInput,
	"analog":         AnalogInput,
	"analog-input":   AnalogInput,
}

// ErrInvalidModeName indicates a mode name could not be parsed.
var ErrInvalidModeName = errors.New("invalid mode name")

func (m Mode) String() string {
	if n, ok := modeNames[m]; ok {
		return n
	}
	return "unknown"
}

// ParseMode converts a mode name into a Mode.
//
// Names are case insensitive and may be the short form returned by String or
// one of the long forms, e.g. "digital-output".
func ParseMode(s string) (Mode, error) {
	m, ok := modeAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return Unknown, ErrInvalidModeName
	}
	return m, nil
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	v, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Pull indicates the bias applied to a digital input.
type Pull int

const (
	// PullNone indicates no pull resistor is applied.
	PullNone Pull = iota

	// PullUp indicates the input is pulled up.
	PullUp

	// PullDown indicates the input is pulled down.
	PullDown
)

// Edge indicates the input transitions that generate change notifications.
type Edge int

const (
	// EdgeNone disables change notifications.
	EdgeNone Edge = iota

	// EdgeRising notifies on inactive to active transitions.
	EdgeRising

	// EdgeFalling notifies on active to inactive transitions.
	EdgeFalling

	// EdgeBoth notifies on all transitions.
	EdgeBoth = EdgeRising | EdgeFalling
)

// ServoTrim defines the pulse widths, in microseconds, that drive a servo.
type ServoTrim struct {
	Min int
	Mid int
	Max int
}

// DefaultServoTrim is the trim of a standard hobby servo.
var DefaultServoTrim = ServoTrim{Min: 1000, Mid: 1500, Max: 2000}

// ErrInvalidTrim indicates a ServoTrim is not ordered Min <= Mid <= Max.
var ErrInvalidTrim = errors.New("invalid servo trim")

// Validate checks the trim is sensibly ordered.
func (t ServoTrim) Validate() error {
	if t.Min <= 0 || t.Min > t.Mid || t.Mid > t.Max {
		return ErrInvalidTrim
	}
	return nil
}

// Clamp limits the pulse width to the trim range.
func (t ServoTrim) Clamp(us int) int {
	if us < t.Min {
		return t.Min
	}
	if us > t.Max {
		return t.Max
	}
	return us
}

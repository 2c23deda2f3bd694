// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package gpiopanel

// Factory opens device handles for the pins of a board.
//
// Each Open method returns a handle that has exclusive ownership of the pin
// until it is closed.
type Factory interface {
	// Board returns the headers and pins available from the factory.
	Board() Board

	// CurrentMode returns the mode the pin is in prior to being provisioned.
	CurrentMode(id int) Mode

	OpenDigitalInput(p PinDescriptor, pull Pull, edge Edge) (DigitalInputHandle, error)
	OpenDigitalOutput(p PinDescriptor, initial bool) (DigitalOutputHandle, error)
	OpenPwmOutput(p PinDescriptor, frequency int, duty float64) (PwmOutputHandle, error)
	OpenServo(p PinDescriptor, frequency int, trim ServoTrim) (ServoHandle, error)
	OpenAnalogInput(p PinDescriptor) (AnalogInputHandle, error)

	// Close releases any resources shared by the handles.
	Close() error
}

// DigitalInputHandle is a handle to a pin read as a boolean.
type DigitalInputHandle interface {
	// Value returns the current active state of the input.
	Value() (bool, error)

	// Watch returns a channel that receives the active state of the input
	// whenever it changes.
	//
	// The channel is closed by Unwatch or Close.
	Watch() (<-chan bool, error)

	// Unwatch stops the delivery of changes and closes the watch channel.
	Unwatch()

	Close() error
}

// DigitalOutputHandle is a handle to a pin driven to a boolean level.
type DigitalOutputHandle interface {
	SetValue(v bool) error
	Close() error
}

// PwmOutputHandle is a handle to a pin driven with a PWM signal.
type PwmOutputHandle interface {
	// Value returns the duty cycle, in the range 0 to 1.
	Value() float64

	// SetValue sets the duty cycle, in the range 0 to 1.
	SetValue(duty float64) error

	Close() error
}

// ServoHandle is a handle to a pin driving a servo.
type ServoHandle interface {
	// PulseWidth returns the pulse width in microseconds.
	PulseWidth() int

	// SetPulseWidth sets the pulse width in microseconds.
	SetPulseWidth(us int) error

	Close() error
}

// AnalogInputHandle is a handle to a pin read as a normalised scalar.
type AnalogInputHandle interface {
	// Value returns the current level of the input, in the range 0 to 1.
	Value() (float64, error)

	// Watch returns a channel that receives the level of the input whenever
	// it changes.
	//
	// The channel is closed by Unwatch or Close.
	Watch() (<-chan float64, error)

	// Unwatch stops the delivery of changes and closes the watch channel.
	Unwatch()

	Close() error
}

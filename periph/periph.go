// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package periph provides a gpiopanel.Factory using periph.io.
//
// PWM and servo outputs use the hardware PWM of the SoC, so are only
// available on pins that support it. Analog inputs are not supported.
package periph

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/gpiopanel"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// Factory opens handles on the pins registered with periph.
type Factory struct {
	board   gpiopanel.Board
	resolve func(id int) gpio.PinIO

	// mutex covers the attributes below it.
	mu sync.Mutex

	// the ids of pins with open handles.
	claimed map[int]bool

	// indicates the factory has been closed.
	closed bool
}

var (
	// ErrClosed indicates the factory has been closed.
	ErrClosed = errors.New("factory closed")

	// ErrBusy indicates the pin already has an open handle.
	ErrBusy = errors.New("pin busy")

	// ErrNotSupported indicates the mode is not supported by this factory.
	ErrNotSupported = errors.New("mode not supported")

	// ErrHandleClosed indicates the handle has been closed.
	ErrHandleClosed = errors.New("handle closed")

	// ErrAlreadyWatched indicates the input is already being watched.
	ErrAlreadyWatched = errors.New("already watched")
)

// ErrorUnknownPin indicates the pin is not registered with periph.
type ErrorUnknownPin struct {
	ID int
}

func (e ErrorUnknownPin) Error() string {
	return fmt.Sprintf("pin GPIO%d not found", e.ID)
}

// Option specifies a construction option for the Factory.
type Option func(*Factory)

// WithPins sets the function used to map pin ids to periph pins.
//
// The default looks up "GPIO<id>" in the periph registry, and initialises the
// periph host drivers. Providing a resolver skips the host initialisation.
func WithPins(resolve func(id int) gpio.PinIO) Option {
	return func(f *Factory) {
		f.resolve = resolve
	}
}

// New creates a Factory for the board.
func New(b gpiopanel.Board, options ...Option) (*Factory, error) {
	f := Factory{
		board:   b,
		claimed: make(map[int]bool),
	}
	for _, option := range options {
		option(&f)
	}
	if f.resolve == nil {
		if _, err := host.Init(); err != nil {
			return nil, fmt.Errorf("periph host init: %w", err)
		}
		f.resolve = func(id int) gpio.PinIO {
			return gpioreg.ByName(fmt.Sprintf("GPIO%d", id))
		}
	}
	return &f, nil
}

// Board returns the board.
func (f *Factory) Board() gpiopanel.Board {
	return f.board
}

// CurrentMode returns the mode of the pin as reported by periph.
func (f *Factory) CurrentMode(id int) gpiopanel.Mode {
	if id < 0 {
		return gpiopanel.Unknown
	}
	p := f.resolve(id)
	if p == nil {
		return gpiopanel.Unknown
	}
	switch p.Function() {
	case "In", "In/Low", "In/High":
		return gpiopanel.DigitalInput
	case "Out", "Out/Low", "Out/High":
		return gpiopanel.DigitalOutput
	case "PWM":
		return gpiopanel.PwmOutput
	}
	return gpiopanel.Unknown
}

// Close closes the factory.
//
// periph has no per-process resources to release, so this only prevents
// further handles being opened.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	f.closed = true
	return nil
}

// claim resolves the pin and marks it as having an open handle.
func (f *Factory) claim(id int) (*pin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrClosed
	}
	if f.claimed[id] {
		return nil, ErrBusy
	}
	if id < 0 {
		return nil, ErrorUnknownPin{id}
	}
	p := f.resolve(id)
	if p == nil {
		return nil, ErrorUnknownPin{id}
	}
	f.claimed[id] = true
	return &pin{f: f, id: id, p: p}, nil
}

// pin is the state common to all handles.
type pin struct {
	f  *Factory
	id int
	p  gpio.PinIO

	// mutex covers the attributes below it.
	mu     sync.Mutex
	closed bool
}

// release returns the pin to the factory.
func (p *pin) release() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrHandleClosed
	}
	p.closed = true
	p.f.mu.Lock()
	delete(p.f.claimed, p.id)
	p.f.mu.Unlock()
	return nil
}

func (p *pin) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// OpenDigitalInput configures the pin as an input.
func (f *Factory) OpenDigitalInput(p gpiopanel.PinDescriptor, pull gpiopanel.Pull, edge gpiopanel.Edge) (gpiopanel.DigitalInputHandle, error) {
	c, err := f.claim(p.ID)
	if err != nil {
		return nil, err
	}
	if err := c.p.In(periphPull(pull), periphEdge(edge)); err != nil {
		c.release()
		return nil, err
	}
	return &digitalInput{pin: c, edges: edge != gpiopanel.EdgeNone}, nil
}

// OpenDigitalOutput configures the pin as an output.
func (f *Factory) OpenDigitalOutput(p gpiopanel.PinDescriptor, initial bool) (gpiopanel.DigitalOutputHandle, error) {
	c, err := f.claim(p.ID)
	if err != nil {
		return nil, err
	}
	if err := c.p.Out(gpio.Level(initial)); err != nil {
		c.release()
		return nil, err
	}
	return &digitalOutput{pin: c}, nil
}

// OpenPwmOutput configures the pin as a hardware PWM output.
func (f *Factory) OpenPwmOutput(p gpiopanel.PinDescriptor, frequency int, duty float64) (gpiopanel.PwmOutputHandle, error) {
	c, err := f.claim(p.ID)
	if err != nil {
		return nil, err
	}
	h := &pwmOutput{pin: c, freq: physic.Frequency(frequency) * physic.Hertz}
	if err := h.SetValue(duty); err != nil {
		c.release()
		return nil, err
	}
	return h, nil
}

// OpenServo configures the pin as a hardware PWM output, initially at the trim
// mid-point.
func (f *Factory) OpenServo(p gpiopanel.PinDescriptor, frequency int, trim gpiopanel.ServoTrim) (gpiopanel.ServoHandle, error) {
	if frequency <= 0 {
		return nil, ErrNotSupported
	}
	c, err := f.claim(p.ID)
	if err != nil {
		return nil, err
	}
	h := &servo{
		pwmOutput: pwmOutput{pin: c, freq: physic.Frequency(frequency) * physic.Hertz},
		period:    time.Second / time.Duration(frequency),
	}
	if err := h.SetPulseWidth(trim.Mid); err != nil {
		c.release()
		return nil, err
	}
	return h, nil
}

// OpenAnalogInput is not supported.
func (f *Factory) OpenAnalogInput(p gpiopanel.PinDescriptor) (gpiopanel.AnalogInputHandle, error) {
	return nil, ErrNotSupported
}

func periphPull(pull gpiopanel.Pull) gpio.Pull {
	switch pull {
	case gpiopanel.PullUp:
		return gpio.PullUp
	case gpiopanel.PullDown:
		return gpio.PullDown
	}
	return gpio.Float
}

func periphEdge(edge gpiopanel.Edge) gpio.Edge {
	switch edge {
	case gpiopanel.EdgeRising:
		return gpio.RisingEdge
	case gpiopanel.EdgeFalling:
		return gpio.FallingEdge
	case gpiopanel.EdgeBoth:
		return gpio.BothEdges
	}
	return gpio.NoEdge
}

// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package cdev provides a gpiopanel.Factory using the Linux GPIO character
// device.
//
// Digital inputs and outputs map directly to requested lines. PWM and servo
// outputs are generated in software on requested lines. Analog inputs are
// read from a bit bashed SPI ADC, if one is configured.
package cdev

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
	"github.com/warthog618/gpiopanel"
	"golang.org/x/sys/unix"
)

// AnalogBase is the pin id of the first ADC channel.
//
// ADC channel n is provisioned as pin AnalogBase+n.
const AnalogBase = 1000

// Factory opens handles on the lines of a GPIO chip.
type Factory struct {
	c        *gpiocdev.Chip
	board    gpiopanel.Board
	consumer string
	log      *slog.Logger
	adc      *adcBank

	// mutex covers the attributes below it.
	mu sync.Mutex

	// indicates the factory has been closed.
	closed bool
}

var (
	// ErrClosed indicates the factory has been closed.
	ErrClosed = errors.New("factory closed")

	// ErrBusy indicates the line is already requested.
	ErrBusy = errors.New("line busy")

	// ErrNotSupported indicates the line does not support the requested
	// configuration.
	ErrNotSupported = errors.New("configuration not supported")

	// ErrNoADC indicates an analog input was requested but no ADC is
	// configured.
	ErrNoADC = errors.New("no ADC configured")
)

// Option specifies a construction option for the Factory.
type Option func(*Factory)

// WithConsumer sets the consumer label applied to requested lines.
func WithConsumer(consumer string) Option {
	return func(f *Factory) {
		f.consumer = consumer
	}
}

// WithLogger sets the logger used to report background failures.
func WithLogger(log *slog.Logger) Option {
	return func(f *Factory) {
		f.log = log
	}
}

// WithADC adds the channels of an ADC to the board, as an "ADC" header.
//
// The ADC is opened when the first channel is opened, and closed when the last
// is closed. Watched channels are polled with the given period.
func WithADC(spec ADCSpec, poll time.Duration) Option {
	return func(f *Factory) {
		f.adc = newADCBank(spec, poll)
	}
}

// New creates a Factory for the board using the named chip.
//
// The chip may be named by path, e.g. /dev/gpiochip0, or by name, e.g.
// gpiochip0.
func New(chip string, b gpiopanel.Board, options ...Option) (*Factory, error) {
	f := Factory{
		board:    b,
		consumer: "gpiopanel",
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, option := range options {
		option(&f)
	}
	c, err := gpiocdev.NewChip(chip, gpiocdev.WithConsumer(f.consumer))
	if err != nil {
		return nil, err
	}
	f.c = c
	if f.adc != nil {
		f.adc.open = func() (ADC, error) {
			return f.adc.spec.Open(c)
		}
		f.board = f.board.WithHeader(ADCHeader(f.adc.spec.Channels))
	}
	return &f, nil
}

// ADCHeader returns the header describing the channels of an ADC.
func ADCHeader(channels int) gpiopanel.Header {
	h := gpiopanel.Header{Name: "ADC"}
	for ch := 0; ch < channels; ch++ {
		h.Pins = append(h.Pins, gpiopanel.PinDescriptor{
			Physical: ch + 1,
			ID:       AnalogBase + ch,
			Name:     fmt.Sprintf("AIN%d", ch),
			Modes:    []gpiopanel.Mode{gpiopanel.AnalogInput},
		})
	}
	return h
}

// Board returns the board, including the ADC header if an ADC is configured.
func (f *Factory) Board() gpiopanel.Board {
	return f.board
}

// Chip returns the name of the chip.
func (f *Factory) Chip() string {
	return f.c.Name
}

// CurrentMode returns the mode of the pin as reported by the kernel.
//
// Lines held by other consumers are reported as Unknown, as are ADC channels
// not currently held by this factory.
func (f *Factory) CurrentMode(id int) gpiopanel.Mode {
	if id >= AnalogBase {
		if f.adc != nil && f.adc.isOpen(id-AnalogBase) {
			return gpiopanel.AnalogInput
		}
		return gpiopanel.Unknown
	}
	if id < 0 {
		return gpiopanel.Unknown
	}
	info, err := f.c.LineInfo(id)
	if err != nil {
		f.log.Debug("line info failed", "offset", id, "err", err)
		return gpiopanel.Unknown
	}
	if info.Used && info.Consumer != f.consumer {
		return gpiopanel.Unknown
	}
	if info.Config.Direction == gpiocdev.LineDirectionOutput {
		return gpiopanel.DigitalOutput
	}
	return gpiopanel.DigitalInput
}

// Close releases the chip.
//
// Handles should be closed before the factory is closed.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	f.closed = true
	return f.c.Close()
}

func (f *Factory) requestLine(p gpiopanel.PinDescriptor, options ...gpiocdev.LineReqOption) (*gpiocdev.Line, error) {
	f.mu.Lock()
	closed := f.closed
	f.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	if p.ID < 0 || p.ID >= f.c.Lines() {
		return nil, gpiocdev.ErrInvalidOffset
	}
	l, err := f.c.RequestLine(p.ID, options...)
	if err != nil {
		return nil, classify(err)
	}
	return l, nil
}

// classify maps kernel errors to the errors reported by the factory.
func classify(err error) error {
	switch {
	case errors.Is(err, unix.EBUSY):
		return fmt.Errorf("%w: %w", ErrBusy, err)
	case errors.Is(err, unix.EINVAL), errors.Is(err, unix.EOPNOTSUPP):
		return fmt.Errorf("%w: %w", ErrNotSupported, err)
	}
	return err
}

// pullOption returns the option to set the bias.
//
// PullNone explicitly disables the bias, so any bias left on the line by a
// previous request is removed.
func pullOption(pull gpiopanel.Pull) gpiocdev.LineReqOption {
	switch pull {
	case gpiopanel.PullUp:
		return gpiocdev.WithPullUp
	case gpiopanel.PullDown:
		return gpiocdev.WithPullDown
	}
	return gpiocdev.WithBiasDisabled
}

// edgeOption returns the option to enable edge detection, or nil if edge
// detection is not required.
func edgeOption(edge gpiopanel.Edge) gpiocdev.LineReqOption {
	switch edge {
	case gpiopanel.EdgeRising:
		return gpiocdev.WithRisingEdge
	case gpiopanel.EdgeFalling:
		return gpiocdev.WithFallingEdge
	case gpiopanel.EdgeBoth:
		return gpiocdev.WithBothEdges
	}
	return nil
}

// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package spi provides a bit bashed SPI bus built from GPIO lines.
package spi

import (
	"errors"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// Line is a single GPIO line used by the bus.
//
// *gpiocdev.Line satisfies this interface.
type Line interface {
	Value() (int, error)
	SetValue(int) error
	Close() error
}

// Bidirectional is a Line that can switch direction.
//
// A bus with a shared data line requires the line to be Bidirectional.
type Bidirectional interface {
	Line
	AsInput() error
	AsOutput(v int) error
}

// cdevLine adapts a gpiocdev.Line to be Bidirectional.
type cdevLine struct {
	*gpiocdev.Line
}

func (l cdevLine) AsInput() error {
	return l.Reconfigure(gpiocdev.AsInput)
}

func (l cdevLine) AsOutput(v int) error {
	return l.Reconfigure(gpiocdev.AsOutput(v))
}

// ErrNotReconfigurable indicates a shared data line cannot switch direction.
var ErrNotReconfigurable = errors.New("shared data line is not reconfigurable")

// SPI represents a device connected an SPI bus using 4 GPIO lines, or 3 if
// the device shares a single data line for input and output.
//
// This is the basis for bit bashed SPI interfaces using GPIO pins. It is not
// related to the SPI device drivers provided by Linux.
type SPI struct {
	// time between clock edges (i.e. half the cycle time)
	Tclk time.Duration
	Sclk Line
	Ssz  Line
	Mosi Line
	Miso Line
	cpol int
	cpha int
}

// New creates a SPI by requesting the lines from the chip.
//
// If mosi and miso are the same offset then a single line is requested and
// shared.
func New(c *gpiocdev.Chip, sclk, ssz, mosi, miso int, options ...Option) (*SPI, error) {
	s := newSPI(options)
	var err error
	var l *gpiocdev.Line
	defer func() {
		if err != nil {
			s.Close()
		}
	}()
	// hold SPI reset until needed...
	l, err = c.RequestLine(ssz, gpiocdev.AsOutput(1))
	if err != nil {
		return nil, err
	}
	s.Ssz = l
	clkOpts := []gpiocdev.LineReqOption{gpiocdev.AsOutput(0)}
	if s.cpol != 0 {
		clkOpts = append(clkOpts, gpiocdev.AsActiveLow)
	}
	l, err = c.RequestLine(sclk, clkOpts...)
	if err != nil {
		return nil, err
	}
	s.Sclk = l
	if miso == mosi {
		l, err = c.RequestLine(mosi, gpiocdev.AsOutput(0))
		if err != nil {
			return nil, err
		}
		s.Mosi = cdevLine{l}
		s.Miso = s.Mosi
		return s, nil
	}
	l, err = c.RequestLine(miso, gpiocdev.AsInput)
	if err != nil {
		return nil, err
	}
	s.Miso = l
	l, err = c.RequestLine(mosi, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, err
	}
	s.Mosi = l
	return s, nil
}

// NewFromLines creates a SPI from lines that have already been requested.
//
// The SPI takes ownership of the lines and closes them when it is closed.
// A shared data line is indicated by passing the same line as mosi and miso.
func NewFromLines(sclk, ssz, mosi, miso Line, options ...Option) (*SPI, error) {
	s := newSPI(options)
	s.Sclk = sclk
	s.Ssz = ssz
	s.Mosi = mosi
	s.Miso = miso
	if s.Shared() {
		if _, ok := mosi.(Bidirectional); !ok {
			return nil, ErrNotReconfigurable
		}
	}
	return s, nil
}

func newSPI(options []Option) *SPI {
	s := SPI{}
	for _, option := range options {
		option(&s)
	}
	if s.Tclk == 0 {
		// default to 1MHz full cycle.
		s.Tclk = 500 * time.Nanosecond
	}
	return &s
}

// Close releases allocated resources.
func (s *SPI) Close() {
	if s.Sclk != nil {
		s.Sclk.Close()
	}
	if s.Miso != nil {
		s.Miso.Close()
	}
	if s.Mosi != nil && s.Mosi != s.Miso {
		s.Mosi.Close()
	}
	if s.Ssz != nil {
		s.Ssz.Close()
	}
}

// Shared returns true if the data line is shared between Mosi and Miso.
func (s *SPI) Shared() bool {
	return s.Mosi == s.Miso
}

// Turnaround switches a shared data line to be an input.
//
// It has no effect if the data lines are not shared.
func (s *SPI) Turnaround() error {
	if !s.Shared() {
		return nil
	}
	if b, ok := s.Miso.(Bidirectional); ok {
		return b.AsInput()
	}
	return ErrNotReconfigurable
}

// DriveData switches a shared data line to be an output at the given level,
// or sets the level of the Mosi line if the data lines are not shared.
func (s *SPI) DriveData(v int) error {
	if !s.Shared() {
		return s.Mosi.SetValue(v)
	}
	if b, ok := s.Mosi.(Bidirectional); ok {
		return b.AsOutput(v)
	}
	return ErrNotReconfigurable
}

// ClockIn clocks in a data bit from the SPI device on Miso.
//
// Starts and ends just after the falling edge of the clock.
func (s *SPI) ClockIn() (int, error) {
	time.Sleep(s.Tclk)
	err := s.Sclk.SetValue(1)
	if err != nil {
		return 0, err
	}
	if s.cpha == 1 {
		time.Sleep(s.Tclk)
	}
	v, err := s.Miso.Value()
	if err != nil {
		return 0, err
	}
	if s.cpha == 0 {
		time.Sleep(s.Tclk)
	}
	err = s.Sclk.SetValue(0)
	if err != nil {
		return 0, err
	}
	return v, err
}

// ClockOut clocks out a data bit to the SPI device on Mosi.
//
// Starts and ends just after the falling edge of the clock.
func (s *SPI) ClockOut(v int) error {
	if s.cpha == 1 {
		time.Sleep(s.Tclk)
	}
	err := s.Mosi.SetValue(v)
	if err != nil {
		return err
	}
	if s.cpha == 0 {
		time.Sleep(s.Tclk)
	}
	err = s.Sclk.SetValue(1)
	if err != nil {
		return err
	}
	time.Sleep(s.Tclk)
	return s.Sclk.SetValue(0)
}

// Option specifies a construction option for the SPI.
type Option func(*SPI)

// WithCPOL sets the cpol for the SPI.
func WithCPOL(cpol int) Option {
	return func(s *SPI) {
		s.cpol = cpol
	}
}

// WithCPHA sets the cpha for the SPI.
func WithCPHA(cpha int) Option {
	return func(s *SPI) {
		s.cpha = cpha
	}
}

// WithTclk sets the clock period for the SPI.
//
// Note that this is the half-cycle period.
func WithTclk(tclk time.Duration) Option {
	return func(s *SPI) {
		s.Tclk = tclk
	}
}

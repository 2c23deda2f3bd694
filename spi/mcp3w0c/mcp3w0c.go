// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package mcp3w0c provides bit bashed device drivers for MCP3004/3008/3204/3208
// SPI ADCs.
package mcp3w0c

import (
	"errors"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
	"github.com/warthog618/gpiopanel/spi"
)

// MCP3w0c reads ADC values from a connected Microchip MCP3xxx family device.
//
// Supported variants are MCP3004/3008/3204/3208.
// The w indicates the width of the device (0 => 10, 2 => 12)
// and the c the number of channels.
type MCP3w0c struct {
	mu       sync.Mutex
	s        *spi.SPI
	width    uint
	channels int
}

// New creates a MCP3w0c.
func New(c *gpiocdev.Chip, tclk time.Duration, clk, csz, di, do int, width uint, channels int) (*MCP3w0c, error) {
	s, err := spi.New(c, clk, csz, di, do, spi.WithTclk(tclk))
	if err != nil {
		return nil, err
	}
	return NewFromSPI(s, width, channels), nil
}

// NewFromSPI creates a MCP3w0c on an existing SPI bus.
//
// The MCP3w0c takes ownership of the bus.
func NewFromSPI(s *spi.SPI, width uint, channels int) *MCP3w0c {
	return &MCP3w0c{s: s, width: width, channels: channels}
}

// NewMCP3008 creates a MCP3008.
func NewMCP3008(c *gpiocdev.Chip, tclk time.Duration, clk, csz, di, do int) (*MCP3w0c, error) {
	return New(c, tclk, clk, csz, di, do, 10, 8)
}

// NewMCP3208 creates a MCP3208.
func NewMCP3208(c *gpiocdev.Chip, tclk time.Duration, clk, csz, di, do int) (*MCP3w0c, error) {
	return New(c, tclk, clk, csz, di, do, 12, 8)
}

// Close releases all resources allocated to the ADC.
func (adc *MCP3w0c) Close() error {
	adc.mu.Lock()
	defer adc.mu.Unlock()
	if adc.s == nil {
		return ErrClosed
	}
	adc.s.Close()
	adc.s = nil
	return nil
}

// Channels returns the number of single ended channels provided by the ADC.
func (adc *MCP3w0c) Channels() int {
	return adc.channels
}

// Read returns the value of a single channel read from the ADC.
func (adc *MCP3w0c) Read(ch int) (uint16, error) {
	return adc.read(ch, 1)
}

// ReadDifferential returns the value of a differential pair read from the ADC.
func (adc *MCP3w0c) ReadDifferential(ch int) (uint16, error) {
	return adc.read(ch, 0)
}

// Level returns the value of a single channel scaled to the range 0 to 1.
func (adc *MCP3w0c) Level(ch int) (float64, error) {
	v, err := adc.Read(ch)
	if err != nil {
		return 0, err
	}
	return float64(v) / float64(uint(1)<<adc.width-1), nil
}

var (
	// ErrClosed indicates the ADC is closed.
	ErrClosed = errors.New("closed")

	// ErrInvalidChannel indicates the channel is not provided by the ADC.
	ErrInvalidChannel = errors.New("invalid channel")
)

func (adc *MCP3w0c) read(ch int, sgl int) (uint16, error) {
	if ch < 0 || ch >= adc.channels {
		return 0, ErrInvalidChannel
	}
	adc.mu.Lock()
	defer adc.mu.Unlock()
	if adc.s == nil {
		return 0, ErrClosed
	}
	s := adc.s
	err := s.Ssz.SetValue(1)
	if err != nil {
		return 0, err
	}
	err = s.Sclk.SetValue(0)
	if err != nil {
		return 0, err
	}
	err = s.Mosi.SetValue(1)
	if err != nil {
		return 0, err
	}
	time.Sleep(s.Tclk)
	err = s.Ssz.SetValue(0)
	if err != nil {
		return 0, err
	}

	err = s.ClockOut(1) // Start
	if err != nil {
		return 0, err
	}
	err = s.ClockOut(sgl) // SGL/DIFFZ
	if err != nil {
		return 0, err
	}
	for i := 2; i >= 0; i-- {
		d := 0
		if (ch >> uint(i) & 0x01) == 0x01 {
			d = 1
		}
		err = s.ClockOut(d)
		if err != nil {
			return 0, err
		}
	}
	// mux settling
	time.Sleep(s.Tclk)
	err = s.Sclk.SetValue(1)
	if err != nil {
		return 0, err
	}
	_, err = s.ClockIn() // null bit
	if err != nil {
		return 0, err
	}

	var d uint16
	for i := uint(0); i < adc.width; i++ {
		v, err := s.ClockIn()
		if err != nil {
			return 0, err
		}
		d = d << 1
		if v != 0 {
			d = d | 0x01
		}
	}
	err = s.Ssz.SetValue(1)
	if err != nil {
		return 0, err
	}
	return d, nil
}

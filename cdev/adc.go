// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package cdev

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
	"github.com/warthog618/gpiopanel/spi/adc0832"
	"github.com/warthog618/gpiopanel/spi/mcp3w0c"
)

// ADC is an analog to digital converter with single ended channels.
type ADC interface {
	// Level returns the value of the channel, scaled to the range 0 to 1.
	Level(ch int) (float64, error)

	Close() error
}

// ADCSpec describes how to open an ADC attached to the chip.
type ADCSpec struct {
	// Channels is the number of channels provided by the ADC.
	Channels int

	// Open opens the ADC.
	Open func(c *gpiocdev.Chip) (ADC, error)
}

// ADCLines identifies the lines connecting a bit bashed SPI ADC.
type ADCLines struct {
	Clk int
	Csz int
	Di  int
	Do  int

	// Tclk is the half-cycle period of the clock.
	Tclk time.Duration
}

// ErrInvalidADC indicates the ADC type is not recognised.
var ErrInvalidADC = errors.New("invalid ADC type")

// NewADCSpec returns the spec for the named ADC type, one of "mcp3008",
// "mcp3208" or "adc0832".
func NewADCSpec(kind string, lines ADCLines) (ADCSpec, error) {
	switch kind {
	case "mcp3008", "mcp3208":
		width := uint(10)
		if kind == "mcp3208" {
			width = 12
		}
		return ADCSpec{
			Channels: 8,
			Open: func(c *gpiocdev.Chip) (ADC, error) {
				return mcp3w0c.New(c, lines.Tclk, lines.Clk, lines.Csz, lines.Di, lines.Do, width, 8)
			},
		}, nil
	case "adc0832":
		return ADCSpec{
			Channels: 2,
			Open: func(c *gpiocdev.Chip) (ADC, error) {
				var options []adc0832.Option
				if lines.Tclk != 0 {
					options = append(options, adc0832.WithTclk(lines.Tclk))
				}
				return adc0832.New(c, lines.Clk, lines.Csz, lines.Di, lines.Do, options...)
			},
		}, nil
	}
	return ADCSpec{}, fmt.Errorf("%w: %q", ErrInvalidADC, kind)
}

// adcBank shares a single ADC between the channels opened on it.
type adcBank struct {
	spec ADCSpec
	poll time.Duration
	open func() (ADC, error)

	// mutex covers the attributes below it.
	mu  sync.Mutex
	adc ADC

	// the channels currently open.
	channels map[int]bool
}

// ErrInvalidChannel indicates the channel is not provided by the ADC.
var ErrInvalidChannel = errors.New("invalid ADC channel")

// ErrChannelBusy indicates the channel is already open.
var ErrChannelBusy = errors.New("ADC channel busy")

func newADCBank(spec ADCSpec, poll time.Duration) *adcBank {
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	return &adcBank{
		spec:     spec,
		poll:     poll,
		channels: make(map[int]bool),
	}
}

func (b *adcBank) isOpen(ch int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.channels[ch]
}

// openChannel opens the channel, opening the ADC if this is the first open
// channel.
func (b *adcBank) openChannel(ch int) (*analogInput, error) {
	if ch < 0 || ch >= b.spec.Channels {
		return nil, ErrInvalidChannel
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.channels[ch] {
		return nil, ErrChannelBusy
	}
	if b.adc == nil {
		adc, err := b.open()
		if err != nil {
			return nil, classify(err)
		}
		b.adc = adc
	}
	b.channels[ch] = true
	return &analogInput{b: b, ch: ch}, nil
}

// closeChannel closes the channel, closing the ADC if this was the last open
// channel.
func (b *adcBank) closeChannel(ch int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.channels, ch)
	if len(b.channels) > 0 || b.adc == nil {
		return nil
	}
	err := b.adc.Close()
	b.adc = nil
	return err
}

func (b *adcBank) level(ch int) (float64, error) {
	b.mu.Lock()
	adc := b.adc
	b.mu.Unlock()
	if adc == nil {
		return 0, ErrHandleClosed
	}
	return adc.Level(ch)
}

type analogInput struct {
	b  *adcBank
	ch int

	// mutex covers the attributes below it.
	mu     sync.Mutex
	w      *poller
	closed bool
}

// poller periodically reads the channel and reports changes.
type poller struct {
	ch   chan float64
	stop chan struct{}
	done chan struct{}
}

func (h *analogInput) Value() (float64, error) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return 0, ErrHandleClosed
	}
	return h.b.level(h.ch)
}

func (h *analogInput) Watch() (<-chan float64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHandleClosed
	}
	if h.w != nil {
		return nil, ErrAlreadyWatched
	}
	w := &poller{
		ch:   make(chan float64, watchDepth),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	h.w = w
	go h.poll(w)
	return w.ch, nil
}

func (h *analogInput) poll(w *poller) {
	defer close(w.done)
	defer close(w.ch)
	t := time.NewTicker(h.b.poll)
	defer t.Stop()
	last := -1.0
	for {
		select {
		case <-t.C:
			v, err := h.b.level(h.ch)
			if err != nil || v == last {
				continue
			}
			last = v
			sendLatest(w.ch, v)
		case <-w.stop:
			return
		}
	}
}

// unwatch stops the poller, if any.
//
// Assumes h.mu is held.
func (h *analogInput) unwatch() {
	if h.w == nil {
		return
	}
	close(h.w.stop)
	<-h.w.done
	h.w = nil
}

func (h *analogInput) Unwatch() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unwatch()
}

func (h *analogInput) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHandleClosed
	}
	h.closed = true
	h.unwatch()
	return h.b.closeChannel(h.ch)
}

// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package cdev

import (
	"errors"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
	"github.com/warthog618/gpiopanel"
	"github.com/warthog618/gpiopanel/softpwm"
)

// watchDepth is the number of changes queued for a watcher before the oldest
// is discarded.
const watchDepth = 16

var (
	// ErrHandleClosed indicates the handle has been closed.
	ErrHandleClosed = errors.New("handle closed")

	// ErrAlreadyWatched indicates the input is already being watched.
	ErrAlreadyWatched = errors.New("already watched")
)

// OpenDigitalInput requests the line as an input.
func (f *Factory) OpenDigitalInput(p gpiopanel.PinDescriptor, pull gpiopanel.Pull, edge gpiopanel.Edge) (gpiopanel.DigitalInputHandle, error) {
	h := &digitalInput{}
	options := []gpiocdev.LineReqOption{gpiocdev.AsInput, pullOption(pull)}
	if o := edgeOption(edge); o != nil {
		options = append(options, o, gpiocdev.WithEventHandler(h.handleEvent))
	}
	l, err := f.requestLine(p, options...)
	if err != nil {
		return nil, err
	}
	h.l = l
	return h, nil
}

// OpenDigitalOutput requests the line as an output.
func (f *Factory) OpenDigitalOutput(p gpiopanel.PinDescriptor, initial bool) (gpiopanel.DigitalOutputHandle, error) {
	l, err := f.requestLine(p, gpiocdev.AsOutput(level(initial)))
	if err != nil {
		return nil, err
	}
	return &digitalOutput{l: l}, nil
}

// OpenPwmOutput requests the line as an output driven by a software PWM.
func (f *Factory) OpenPwmOutput(p gpiopanel.PinDescriptor, frequency int, duty float64) (gpiopanel.PwmOutputHandle, error) {
	l, err := f.requestLine(p, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, err
	}
	pwm, err := softpwm.New(l, frequency, softpwm.WithDuty(duty))
	if err != nil {
		l.Close()
		return nil, err
	}
	return &pwmOutput{pwm: pwm}, nil
}

// OpenServo requests the line as an output driven by a software PWM, initially
// at the trim mid-point.
func (f *Factory) OpenServo(p gpiopanel.PinDescriptor, frequency int, trim gpiopanel.ServoTrim) (gpiopanel.ServoHandle, error) {
	l, err := f.requestLine(p, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, err
	}
	pwm, err := softpwm.New(l, frequency, softpwm.WithPulseWidth(microseconds(trim.Mid)))
	if err != nil {
		l.Close()
		return nil, err
	}
	return &servo{pwm: pwm}, nil
}

// OpenAnalogInput opens a channel of the configured ADC.
func (f *Factory) OpenAnalogInput(p gpiopanel.PinDescriptor) (gpiopanel.AnalogInputHandle, error) {
	if f.adc == nil {
		return nil, ErrNoADC
	}
	f.mu.Lock()
	closed := f.closed
	f.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	return f.adc.openChannel(p.ID - AnalogBase)
}

func level(v bool) int {
	if v {
		return 1
	}
	return 0
}

func microseconds(us int) time.Duration {
	return time.Duration(us) * time.Microsecond
}

// sendLatest sends v to ch, discarding the oldest queued value if ch is full.
//
// Assumes the caller is the only sender.
func sendLatest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

type digitalInput struct {
	l *gpiocdev.Line

	// mutex covers the attributes below it.
	mu     sync.Mutex
	ch     chan bool
	closed bool
}

// handleEvent is called from the line's event goroutine.
func (h *digitalInput) handleEvent(evt gpiocdev.LineEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ch == nil || h.closed {
		return
	}
	sendLatest(h.ch, evt.Type == gpiocdev.LineEventRisingEdge)
}

func (h *digitalInput) Value() (bool, error) {
	v, err := h.l.Value()
	return v == 1, err
}

func (h *digitalInput) Watch() (<-chan bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHandleClosed
	}
	if h.ch != nil {
		return nil, ErrAlreadyWatched
	}
	h.ch = make(chan bool, watchDepth)
	return h.ch, nil
}

func (h *digitalInput) Unwatch() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ch != nil {
		close(h.ch)
		h.ch = nil
	}
}

func (h *digitalInput) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHandleClosed
	}
	h.closed = true
	if h.ch != nil {
		close(h.ch)
		h.ch = nil
	}
	h.mu.Unlock()
	return h.l.Close()
}

type digitalOutput struct {
	l *gpiocdev.Line
}

func (h *digitalOutput) SetValue(v bool) error {
	return h.l.SetValue(level(v))
}

func (h *digitalOutput) Close() error {
	return h.l.Close()
}

type pwmOutput struct {
	pwm *softpwm.PWM
}

func (h *pwmOutput) Value() float64 {
	return h.pwm.Duty()
}

func (h *pwmOutput) SetValue(duty float64) error {
	return h.pwm.SetDuty(duty)
}

func (h *pwmOutput) Close() error {
	return h.pwm.Close()
}

type servo struct {
	pwm *softpwm.PWM
}

func (h *servo) PulseWidth() int {
	return int(h.pwm.PulseWidth() / time.Microsecond)
}

func (h *servo) SetPulseWidth(us int) error {
	return h.pwm.SetPulseWidth(microseconds(us))
}

func (h *servo) Close() error {
	return h.pwm.Close()
}

// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package mockup

import "github.com/warthog618/gpiopanel"

// watchDepth is the number of changes queued for a watcher before the oldest
// is discarded.
const watchDepth = 16

// OpenDigitalInput opens a simulated digital input.
func (m *Mockup) OpenDigitalInput(p gpiopanel.PinDescriptor, pull gpiopanel.Pull, edge gpiopanel.Edge) (gpiopanel.DigitalInputHandle, error) {
	l, err := m.open(p, Open{Mode: gpiopanel.DigitalInput, Pull: pull, Edge: edge})
	if err != nil {
		return nil, err
	}
	return &digitalInput{handle{m: m, l: l}}, nil
}

// OpenDigitalOutput opens a simulated digital output.
func (m *Mockup) OpenDigitalOutput(p gpiopanel.PinDescriptor, initial bool) (gpiopanel.DigitalOutputHandle, error) {
	l, err := m.open(p, Open{Mode: gpiopanel.DigitalOutput, Initial: initial})
	if err != nil {
		return nil, err
	}
	return &digitalOutput{handle{m: m, l: l}}, nil
}

// OpenPwmOutput opens a simulated PWM output.
func (m *Mockup) OpenPwmOutput(p gpiopanel.PinDescriptor, frequency int, duty float64) (gpiopanel.PwmOutputHandle, error) {
	l, err := m.open(p, Open{Mode: gpiopanel.PwmOutput, Frequency: frequency, Duty: duty})
	if err != nil {
		return nil, err
	}
	return &pwmOutput{handle: handle{m: m, l: l}, duty: duty}, nil
}

// OpenServo opens a simulated servo, initially at the trim mid-point.
func (m *Mockup) OpenServo(p gpiopanel.PinDescriptor, frequency int, trim gpiopanel.ServoTrim) (gpiopanel.ServoHandle, error) {
	l, err := m.open(p, Open{Mode: gpiopanel.Servo, Frequency: frequency, Trim: trim})
	if err != nil {
		return nil, err
	}
	return &servo{handle: handle{m: m, l: l}, us: trim.Mid}, nil
}

// OpenAnalogInput opens a simulated analog input.
func (m *Mockup) OpenAnalogInput(p gpiopanel.PinDescriptor) (gpiopanel.AnalogInputHandle, error) {
	if !p.Supports(gpiopanel.AnalogInput) {
		return nil, ErrorUnknownPin{p.ID}
	}
	l, err := m.open(p, Open{Mode: gpiopanel.AnalogInput})
	if err != nil {
		return nil, err
	}
	return &analogInput{handle{m: m, l: l}}, nil
}

type digitalInput struct {
	handle
}

func (h *digitalInput) Value() (bool, error) {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	if h.closed {
		return false, ErrClosed
	}
	h.l.stats.Reads++
	return h.l.level, nil
}

func (h *digitalInput) Watch() (<-chan bool, error) {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	if h.l.dwatch != nil {
		return nil, ErrAlreadyWatched
	}
	h.l.dwatch = make(chan bool, watchDepth)
	return h.l.dwatch, nil
}

func (h *digitalInput) Unwatch() {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	if h.l.dwatch != nil {
		close(h.l.dwatch)
		h.l.dwatch = nil
	}
}

type digitalOutput struct {
	handle
}

func (h *digitalOutput) SetValue(v bool) error {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	h.l.stats.Writes = append(h.l.stats.Writes, v)
	return nil
}

type pwmOutput struct {
	handle
	duty float64
}

func (h *pwmOutput) Value() float64 {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	return h.duty
}

func (h *pwmOutput) SetValue(duty float64) error {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	h.duty = duty
	h.l.stats.DutyWrites = append(h.l.stats.DutyWrites, duty)
	return nil
}

type servo struct {
	handle
	us int
}

func (h *servo) PulseWidth() int {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	return h.us
}

func (h *servo) SetPulseWidth(us int) error {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	h.us = us
	h.l.stats.PulseWrites = append(h.l.stats.PulseWrites, us)
	return nil
}

type analogInput struct {
	handle
}

func (h *analogInput) Value() (float64, error) {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	if h.closed {
		return 0, ErrClosed
	}
	h.l.stats.Reads++
	return h.l.analog, nil
}

func (h *analogInput) Watch() (<-chan float64, error) {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	if h.l.awatch != nil {
		return nil, ErrAlreadyWatched
	}
	h.l.awatch = make(chan float64, watchDepth)
	return h.l.awatch, nil
}

func (h *analogInput) Unwatch() {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	if h.l.awatch != nil {
		close(h.l.awatch)
		h.l.awatch = nil
	}
}

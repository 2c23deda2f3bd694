// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package softpwm provides a software PWM driving a single GPIO output line.
//
// The output is generated by a goroutine toggling the line, so the timing is
// subject to scheduling jitter. This is adequate for dimming LEDs and
// positioning hobby servos, but not for anything timing critical.
package softpwm

import (
	"errors"
	"sync"
	"time"
)

// Line is the output line driven by the PWM.
//
// *gpiocdev.Line satisfies this interface.
type Line interface {
	SetValue(int) error
	Close() error
}

// PWM drives a line with a fixed frequency and variable duty cycle.
type PWM struct {
	l      Line
	period time.Duration
	stop   chan struct{}
	done   chan struct{}

	// mutex covers the attributes below it.
	mu sync.Mutex

	// the duration of the high portion of the cycle.
	high time.Duration

	// the first error returned by the line.
	err error

	// indicates the PWM has been closed.
	closed bool
}

var (
	// ErrClosed indicates the PWM has been closed.
	ErrClosed = errors.New("pwm closed")

	// ErrInvalidFrequency indicates the requested frequency is not supported.
	ErrInvalidFrequency = errors.New("invalid frequency")
)

// MaxFrequency is the highest frequency supported by New.
const MaxFrequency = 10000

// New starts a PWM on the line at the given frequency in Hz.
//
// The line is initially driven low, and the PWM takes ownership of the line.
func New(l Line, frequency int, options ...Option) (*PWM, error) {
	if frequency <= 0 || frequency > MaxFrequency {
		return nil, ErrInvalidFrequency
	}
	p := PWM{
		l:      l,
		period: time.Second / time.Duration(frequency),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, option := range options {
		option(&p)
	}
	if err := l.SetValue(0); err != nil {
		return nil, err
	}
	go p.run()
	return &p, nil
}

// Option specifies a construction option for the PWM.
type Option func(*PWM)

// WithDuty sets the initial duty cycle.
func WithDuty(duty float64) Option {
	return func(p *PWM) {
		p.high = p.dutyToHigh(duty)
	}
}

// WithPulseWidth sets the initial pulse width.
func WithPulseWidth(d time.Duration) Option {
	return func(p *PWM) {
		p.high = p.clampHigh(d)
	}
}

// Period returns the period of the PWM cycle.
func (p *PWM) Period() time.Duration {
	return p.period
}

// Duty returns the duty cycle, in the range 0 to 1.
func (p *PWM) Duty() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return float64(p.high) / float64(p.period)
}

// SetDuty sets the duty cycle, clamped to the range 0 to 1.
//
// The change takes effect from the start of the next cycle.
func (p *PWM) SetDuty(duty float64) error {
	return p.setHigh(p.dutyToHigh(duty))
}

// PulseWidth returns the duration of the high portion of the cycle.
func (p *PWM) PulseWidth() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.high
}

// SetPulseWidth sets the duration of the high portion of the cycle, clamped to
// the period.
//
// The change takes effect from the start of the next cycle.
func (p *PWM) SetPulseWidth(d time.Duration) error {
	return p.setHigh(p.clampHigh(d))
}

// Err returns the first error returned by the line while running, if any.
func (p *PWM) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Close stops the PWM, drives the line low and releases it.
func (p *PWM) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.closed = true
	p.mu.Unlock()
	close(p.stop)
	<-p.done
	return errors.Join(p.l.SetValue(0), p.l.Close())
}

func (p *PWM) setHigh(high time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.high = high
	return p.err
}

func (p *PWM) dutyToHigh(duty float64) time.Duration {
	if duty <= 0 {
		return 0
	}
	if duty >= 1 {
		return p.period
	}
	return time.Duration(duty * float64(p.period))
}

func (p *PWM) clampHigh(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d > p.period {
		return p.period
	}
	return d
}

func (p *PWM) run() {
	defer close(p.done)
	t := time.NewTimer(0)
	defer t.Stop()
	<-t.C
	level := 0
	set := func(v int) bool {
		if v == level {
			return true
		}
		if err := p.l.SetValue(v); err != nil {
			p.mu.Lock()
			if p.err == nil {
				p.err = err
			}
			p.mu.Unlock()
			return false
		}
		level = v
		return true
	}
	wait := func(d time.Duration) bool {
		t.Reset(d)
		select {
		case <-t.C:
			return true
		case <-p.stop:
			return false
		}
	}
	for {
		p.mu.Lock()
		high := p.high
		p.mu.Unlock()
		switch {
		case high <= 0:
			if !set(0) || !wait(p.period) {
				return
			}
		case high >= p.period:
			if !set(1) || !wait(p.period) {
				return
			}
		default:
			if !set(1) || !wait(high) {
				return
			}
			if !set(0) || !wait(p.period-high) {
				return
			}
		}
	}
}

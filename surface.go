// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package gpiopanel

import "sync"

// Surface is the mode specific control state bound to a device handle.
//
// The set of surfaces is closed, one for each provisionable Mode:
// *DigitalInputSurface, *DigitalOutputSurface, *PwmSurface, *ServoSurface and
// *AnalogInputSurface.
//
// Surfaces are not safe for concurrent use and should only be manipulated
// from the goroutine running the event loop.
type Surface interface {
	Mode() Mode

	// release stops any watch and closes the handle.
	release() error
}

// Notification is a change in the value of a watched input.
//
// Notifications are generated by the watcher goroutines and applied to the
// corresponding surface by Controller.Deliver.
type Notification struct {
	// The id of the pin that changed.
	Pin int

	// The active state of a digital input.
	Active bool

	// The level of an analog input.
	Level float64

	// identifies the watch session that generated the notification.
	session uint64
}

// notifier is the sending side of the notification channel shared by all
// surfaces of a Controller.
type notifier struct {
	ch chan Notification

	// mutex covers the attributes below it.
	mu  sync.Mutex
	seq uint64
}

func newNotifier(depth int) *notifier {
	return &notifier{ch: make(chan Notification, depth)}
}

func (n *notifier) nextSession() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.seq++
	return n.seq
}

// watch is an active subscription to a handle's change channel.
type watch struct {
	session uint64
	stop    chan struct{}
	done    chan struct{}
}

// startWatch forwards values from ch to the notifier until ch is closed or the
// watch is stopped.
func startWatch[T any](n *notifier, ch <-chan T, mk func(v T, session uint64) Notification) *watch {
	w := &watch{
		session: n.nextSession(),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go func() {
		defer close(w.done)
		for {
			select {
			case v, ok := <-ch:
				if !ok {
					return
				}
				select {
				case n.ch <- mk(v, w.session):
				case <-w.stop:
					return
				}
			case <-w.stop:
				return
			}
		}
	}()
	return w
}

// end stops the forwarder, calls unwatch to close the handle's channel, and
// waits for the forwarder to exit.
func (w *watch) end(unwatch func()) {
	close(w.stop)
	unwatch()
	<-w.done
}

// DigitalInputSurface watches a digital input.
type DigitalInputSurface struct {
	// Watching indicates changes to the input are being delivered.
	Watching bool

	// Active is the last known state of the input.
	//
	// It is only meaningful while Watching.
	Active bool

	pin int
	h   DigitalInputHandle
	n   *notifier
	w   *watch
}

// Mode returns DigitalInput.
func (s *DigitalInputSurface) Mode() Mode {
	return DigitalInput
}

// SetWatch starts or stops watching the input.
//
// Starting a watch reads the input to seed Active before subscribing to
// changes. Stopping a watch unsubscribes and resets Active.
func (s *DigitalInputSurface) SetWatch(on bool) error {
	if on == s.Watching {
		return nil
	}
	if !on {
		s.w.end(s.h.Unwatch)
		s.w = nil
		s.Watching = false
		s.Active = false
		return nil
	}
	v, err := s.h.Value()
	if err != nil {
		return err
	}
	ch, err := s.h.Watch()
	if err != nil {
		return err
	}
	s.Active = v
	s.Watching = true
	pin := s.pin
	s.w = startWatch(s.n, ch, func(v bool, session uint64) Notification {
		return Notification{Pin: pin, Active: v, session: session}
	})
	return nil
}

func (s *DigitalInputSurface) apply(n Notification) bool {
	if !s.Watching || s.w == nil || s.w.session != n.session {
		return false
	}
	s.Active = n.Active
	return true
}

func (s *DigitalInputSurface) release() error {
	if s.Watching {
		s.w.end(s.h.Unwatch)
		s.w = nil
		s.Watching = false
		s.Active = false
	}
	return s.h.Close()
}

// DigitalOutputSurface drives a digital output.
type DigitalOutputSurface struct {
	// On is the last state written to the output.
	On bool

	h DigitalOutputHandle
}

// Mode returns DigitalOutput.
func (s *DigitalOutputSurface) Mode() Mode {
	return DigitalOutput
}

// Set writes the state to the output.
func (s *DigitalOutputSurface) Set(on bool) error {
	s.On = on
	return s.h.SetValue(on)
}

// Toggle inverts the state of the output.
func (s *DigitalOutputSurface) Toggle() error {
	return s.Set(!s.On)
}

func (s *DigitalOutputSurface) release() error {
	return s.h.Close()
}

// PwmSurface drives a PWM output.
type PwmSurface struct {
	// Percent is the duty cycle, in the range 0 to 100.
	Percent float64

	h PwmOutputHandle
}

// Mode returns PwmOutput.
func (s *PwmSurface) Mode() Mode {
	return PwmOutput
}

// SetPercent sets the duty cycle, clamped to the range 0 to 100.
func (s *PwmSurface) SetPercent(v float64) error {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	s.Percent = v
	return s.h.SetValue(v / 100)
}

// Step changes the duty cycle by delta percent.
func (s *PwmSurface) Step(delta float64) error {
	return s.SetPercent(s.Percent + delta)
}

func (s *PwmSurface) release() error {
	return s.h.Close()
}

// ServoSurface drives a servo.
type ServoSurface struct {
	// PulseWidth is the pulse width in microseconds.
	PulseWidth int

	// Trim is the range of PulseWidth.
	Trim ServoTrim

	h ServoHandle
}

// Mode returns Servo.
func (s *ServoSurface) Mode() Mode {
	return Servo
}

// SetPulseWidth sets the pulse width, clamped to the Trim range.
func (s *ServoSurface) SetPulseWidth(us int) error {
	us = s.Trim.Clamp(us)
	s.PulseWidth = us
	return s.h.SetPulseWidth(us)
}

// Step changes the pulse width by delta microseconds.
func (s *ServoSurface) Step(delta int) error {
	return s.SetPulseWidth(s.PulseWidth + delta)
}

// Center returns the servo to the mid-point of the Trim.
func (s *ServoSurface) Center() error {
	return s.SetPulseWidth(s.Trim.Mid)
}

func (s *ServoSurface) release() error {
	return s.h.Close()
}

// AnalogInputSurface watches an analog input.
type AnalogInputSurface struct {
	// Watching indicates changes to the input are being delivered.
	Watching bool

	// Level is the last known level of the input, in the range 0 to 1.
	Level float64

	pin int
	h   AnalogInputHandle
	n   *notifier
	w   *watch
}

// Mode returns AnalogInput.
func (s *AnalogInputSurface) Mode() Mode {
	return AnalogInput
}

// SetWatch starts or stops watching the input.
//
// Starting a watch reads the input to seed Level before subscribing to
// changes. Stopping a watch unsubscribes and resets Level.
func (s *AnalogInputSurface) SetWatch(on bool) error {
	if on == s.Watching {
		return nil
	}
	if !on {
		s.w.end(s.h.Unwatch)
		s.w = nil
		s.Watching = false
		s.Level = 0
		return nil
	}
	v, err := s.h.Value()
	if err != nil {
		return err
	}
	ch, err := s.h.Watch()
	if err != nil {
		return err
	}
	s.Level = v
	s.Watching = true
	pin := s.pin
	s.w = startWatch(s.n, ch, func(v float64, session uint64) Notification {
		return Notification{Pin: pin, Level: v, session: session}
	})
	return nil
}

func (s *AnalogInputSurface) apply(n Notification) bool {
	if !s.Watching || s.w == nil || s.w.session != n.session {
		return false
	}
	s.Level = n.Level
	return true
}

func (s *AnalogInputSurface) release() error {
	if s.Watching {
		s.w.end(s.h.Unwatch)
		s.w = nil
		s.Watching = false
		s.Level = 0
	}
	return s.h.Close()
}

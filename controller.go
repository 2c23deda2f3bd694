// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package gpiopanel

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Binding associates a pin with the surface controlling the handle
// provisioned for it.
type Binding struct {
	Pin     PinDescriptor
	Mode    Mode
	Surface Surface
}

// Controller provisions pins using a Factory.
//
// The Controller holds at most one Binding for each pin, and so at most one
// live handle. Replacing a binding always releases the old handle before the
// new handle is requested.
type Controller struct {
	f       Factory
	options ControllerOptions
	n       *notifier

	// mutex covers the attributes below it.
	mu sync.Mutex

	// bindings keyed by pin id.
	bindings map[int]*Binding

	// indicates the controller has been closed.
	closed bool
}

var (
	// ErrClosed indicates the controller has been closed.
	ErrClosed = errors.New("controller closed")

	// ErrUnassignedPin indicates an attempt to provision a pin that has no
	// logical id.
	ErrUnassignedPin = errors.New("pin is not assigned")

	// ErrFactoryPanic indicates the factory panicked while opening a handle.
	ErrFactoryPanic = errors.New("factory panicked")
)

// ProvisioningError indicates a handle could not be opened for a pin.
//
// The pin is left unbound.
type ProvisioningError struct {
	Pin  PinDescriptor
	Mode Mode
	Err  error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("error provisioning pin %s as %s: %s", e.Pin, e.Mode, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

// NewController creates a Controller that provisions pins using the factory.
func NewController(f Factory, options ...ControllerOption) *Controller {
	co := defaultControllerOptions()
	for _, option := range options {
		option.applyControllerOption(&co)
	}
	return &Controller{
		f:        f,
		options:  co,
		n:        newNotifier(co.buffer),
		bindings: make(map[int]*Binding),
	}
}

// Provision binds the pin to a new handle opened in the given mode.
//
// Any existing binding for the pin is released first, even if the new handle
// cannot be opened. Provisioning as Unknown leaves the pin unbound and returns
// a nil Binding and nil error.
//
// Failures to open a handle are logged and returned as a *ProvisioningError,
// and leave the pin unbound.
func (c *Controller) Provision(p PinDescriptor, m Mode) (*Binding, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if err := c.release(p.ID); err != nil {
		c.options.log.Warn("release failed", "pin", p.String(), "err", err)
	}
	if m == Unknown {
		return nil, nil
	}
	if !p.Assigned() {
		return nil, c.provisioningError(p, m, ErrUnassignedPin)
	}
	s, err := c.open(p, m)
	if err != nil {
		return nil, c.provisioningError(p, m, err)
	}
	if s == nil {
		c.options.log.Debug("unhandled mode", "pin", p.String(), "mode", m.String())
		return nil, nil
	}
	b := &Binding{Pin: p, Mode: m, Surface: s}
	c.bindings[p.ID] = b
	c.options.log.Debug("provisioned", "pin", p.String(), "mode", m.String())
	return b, nil
}

func (c *Controller) provisioningError(p PinDescriptor, m Mode, err error) error {
	c.options.log.Warn("provisioning failed", "pin", p.String(), "mode", m.String(), "err", err)
	return &ProvisioningError{Pin: p, Mode: m, Err: err}
}

func (c *Controller) open(p PinDescriptor, m Mode) (s Surface, err error) {
	defer func() {
		if r := recover(); r != nil {
			s = nil
			err = fmt.Errorf("%w: %v", ErrFactoryPanic, r)
		}
	}()
	switch m {
	case DigitalInput:
		h, err := c.f.OpenDigitalInput(p, PullNone, EdgeBoth)
		if err != nil {
			return nil, err
		}
		return &DigitalInputSurface{pin: p.ID, h: h, n: c.n}, nil
	case DigitalOutput:
		h, err := c.f.OpenDigitalOutput(p, false)
		if err != nil {
			return nil, err
		}
		return &DigitalOutputSurface{h: h}, nil
	case PwmOutput:
		h, err := c.f.OpenPwmOutput(p, c.options.pwmFrequency, 0)
		if err != nil {
			return nil, err
		}
		return &PwmSurface{Percent: 100 * h.Value(), h: h}, nil
	case Servo:
		t := c.options.trim
		h, err := c.f.OpenServo(p, c.options.servoFrequency, t)
		if err != nil {
			return nil, err
		}
		return &ServoSurface{PulseWidth: h.PulseWidth(), Trim: t, h: h}, nil
	case AnalogInput:
		h, err := c.f.OpenAnalogInput(p)
		if err != nil {
			return nil, err
		}
		return &AnalogInputSurface{pin: p.ID, h: h, n: c.n}, nil
	}
	return nil, nil
}

// release removes the binding for the pin from the table and releases it.
//
// Assumes c.mu is held.
func (c *Controller) release(id int) error {
	b, ok := c.bindings[id]
	if !ok {
		return nil
	}
	delete(c.bindings, id)
	return b.Surface.release()
}

// Release returns the pin to the unbound state, releasing its handle.
func (c *Controller) Release(id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.release(id)
}

// Binding returns the current binding for the pin, if any.
func (c *Controller) Binding(id int) (*Binding, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.bindings[id]
	return b, ok
}

// Bindings returns the current bindings, ordered by pin id.
func (c *Controller) Bindings() []*Binding {
	c.mu.Lock()
	defer c.mu.Unlock()
	bb := make([]*Binding, 0, len(c.bindings))
	for _, b := range c.bindings {
		bb = append(bb, b)
	}
	sort.Slice(bb, func(i, j int) bool {
		return bb[i].Pin.ID < bb[j].Pin.ID
	})
	return bb
}

// ProvisionAll provisions every pin in the registry that supports at least
// one mode into its current mode.
//
// Failures are logged and leave the corresponding pin unbound.
func (c *Controller) ProvisionAll(r *Registry) {
	for _, p := range r.Pins() {
		if len(p.Modes) == 0 {
			continue
		}
		c.Provision(p, r.Mode(p.ID))
	}
}

// Notifications returns the channel on which changes to watched inputs are
// delivered.
//
// The channel is closed when the Controller is closed.
func (c *Controller) Notifications() <-chan Notification {
	return c.n.ch
}

// Deliver applies a notification to the surface bound to the pin.
//
// Notifications from a watch that has since been stopped, or for a pin that
// has since been re-provisioned, are discarded.
// Returns true if the notification was applied.
func (c *Controller) Deliver(n Notification) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.bindings[n.Pin]
	if !ok {
		return false
	}
	switch s := b.Surface.(type) {
	case *DigitalInputSurface:
		return s.apply(n)
	case *AnalogInputSurface:
		return s.apply(n)
	}
	return false
}

// Close releases all bindings.
//
// Failures to release individual handles are logged and do not prevent the
// remaining handles being released. The returned error joins all the
// failures.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.closed = true
	ids := make([]int, 0, len(c.bindings))
	for id := range c.bindings {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	var errs []error
	for _, id := range ids {
		p := c.bindings[id].Pin
		if err := c.release(id); err != nil {
			c.options.log.Error("shutdown release failed", "pin", p.String(), "err", err)
			errs = append(errs, fmt.Errorf("pin %s: %w", p, err))
		}
	}
	// all watchers have exited so nothing can send on the channel.
	close(c.n.ch)
	return errors.Join(errs...)
}

// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package periph

import (
	"errors"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// edgeTimeout bounds how long a watcher waits for an edge before checking if
// it has been stopped.
const edgeTimeout = 100 * time.Millisecond

// watchDepth is the number of changes queued for a watcher before the oldest
// is discarded.
const watchDepth = 16

type digitalInput struct {
	*pin
	edges bool

	// mutex covers the attributes below it.
	wmu sync.Mutex
	w   *watcher
}

type watcher struct {
	ch   chan bool
	stop chan struct{}
	done chan struct{}
}

func (h *digitalInput) Value() (bool, error) {
	if h.isClosed() {
		return false, ErrHandleClosed
	}
	return h.p.Read() == gpio.High, nil
}

func (h *digitalInput) Watch() (<-chan bool, error) {
	if h.isClosed() {
		return nil, ErrHandleClosed
	}
	if !h.edges {
		return nil, ErrNotSupported
	}
	h.wmu.Lock()
	defer h.wmu.Unlock()
	if h.w != nil {
		return nil, ErrAlreadyWatched
	}
	w := &watcher{
		ch:   make(chan bool, watchDepth),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	h.w = w
	go h.watch(w)
	return w.ch, nil
}

func (h *digitalInput) watch(w *watcher) {
	defer close(w.done)
	defer close(w.ch)
	for {
		select {
		case <-w.stop:
			return
		default:
		}
		if !h.p.WaitForEdge(edgeTimeout) {
			continue
		}
		sendLatest(w.ch, h.p.Read() == gpio.High)
	}
}

func (h *digitalInput) Unwatch() {
	h.wmu.Lock()
	defer h.wmu.Unlock()
	if h.w == nil {
		return
	}
	close(h.w.stop)
	<-h.w.done
	h.w = nil
}

func (h *digitalInput) Close() error {
	if err := h.release(); err != nil {
		return err
	}
	h.Unwatch()
	return h.p.In(gpio.PullNoChange, gpio.NoEdge)
}

type digitalOutput struct {
	*pin
}

func (h *digitalOutput) SetValue(v bool) error {
	if h.isClosed() {
		return ErrHandleClosed
	}
	return h.p.Out(gpio.Level(v))
}

func (h *digitalOutput) Close() error {
	return h.release()
}

type pwmOutput struct {
	*pin
	freq physic.Frequency

	// mutex covers the attributes below it.
	dmu  sync.Mutex
	duty float64
}

func (h *pwmOutput) Value() float64 {
	h.dmu.Lock()
	defer h.dmu.Unlock()
	return h.duty
}

func (h *pwmOutput) SetValue(duty float64) error {
	if h.isClosed() {
		return ErrHandleClosed
	}
	if duty < 0 {
		duty = 0
	}
	if duty > 1 {
		duty = 1
	}
	h.dmu.Lock()
	defer h.dmu.Unlock()
	if err := h.p.PWM(gpio.Duty(duty*float64(gpio.DutyMax)), h.freq); err != nil {
		return err
	}
	h.duty = duty
	return nil
}

func (h *pwmOutput) Close() error {
	if err := h.release(); err != nil {
		return err
	}
	return errors.Join(h.p.Halt(), h.p.Out(gpio.Low))
}

type servo struct {
	pwmOutput
	period time.Duration

	// the pulse width in microseconds, covered by dmu.
	us int
}

func (h *servo) PulseWidth() int {
	h.dmu.Lock()
	defer h.dmu.Unlock()
	return h.us
}

func (h *servo) SetPulseWidth(us int) error {
	if err := h.SetValue(float64(time.Duration(us)*time.Microsecond) / float64(h.period)); err != nil {
		return err
	}
	h.dmu.Lock()
	h.us = us
	h.dmu.Unlock()
	return nil
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

// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package mockup provides a simulated board implementing gpiopanel.Factory.
//
// This is intended for testing users of gpiopanel, and for exercising the
// panel on a host without GPIO hardware.
// The simulation records every handle opened and closed, and every value
// written, and allows the levels of inputs to be driven from the test.
package mockup

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/warthog618/gpiopanel"
)

// Mockup is a simulated board.
type Mockup struct {
	board gpiopanel.Board

	// mutex covers the attributes below it.
	mu sync.Mutex

	// simulated lines keyed by pin id.
	lines map[int]*line

	// indicates the mockup has been closed.
	closed bool
}

// Open describes the parameters of the most recent open of a pin.
type Open struct {
	Mode      gpiopanel.Mode
	Pull      gpiopanel.Pull
	Edge      gpiopanel.Edge
	Initial   bool
	Frequency int
	Duty      float64
	Trim      gpiopanel.ServoTrim
}

// Stats is a snapshot of the activity on a pin.
type Stats struct {
	// The number of handles successfully opened.
	Opens int

	// The number of handles closed.
	Closes int

	// The number of handles currently open.
	Live int

	// The maximum number of handles that have been open simultaneously.
	MaxLive int

	// The number of synchronous reads of input values.
	Reads int

	// The values written to digital outputs.
	Writes []bool

	// The duty cycles written to PWM outputs.
	DutyWrites []float64

	// The pulse widths written to servos.
	PulseWrites []int

	// The parameters of the most recent open.
	Last Open
}

type line struct {
	stats Stats

	// the current mode reported by CurrentMode.
	mode gpiopanel.Mode

	// the simulated input levels.
	level  bool
	analog float64

	// the error returned by the next open.
	openErr error

	// the value passed to panic by the next open.
	openPanic interface{}

	// the error returned when the handle is closed.
	closeErr error

	// the active watch channels.
	dwatch chan bool
	awatch chan float64
}

// ErrorUnknownPin indicates the requested pin is not on the simulated board.
type ErrorUnknownPin struct {
	ID int
}

func (e ErrorUnknownPin) Error() string {
	return fmt.Sprintf("unknown pin %d", e.ID)
}

// ErrorBusy indicates the pin already has an open handle.
type ErrorBusy struct {
	ID int
}

func (e ErrorBusy) Error() string {
	return fmt.Sprintf("pin %d is busy", e.ID)
}

var (
	// ErrClosed indicates the handle or mockup has been closed.
	ErrClosed = errors.New("closed")

	// ErrAlreadyWatched indicates the input is already being watched.
	ErrAlreadyWatched = errors.New("already watched")
)

// New creates a Mockup simulating the board.
//
// The pins of the board are initially in Unknown mode.
func New(b gpiopanel.Board, options ...Option) *Mockup {
	m := Mockup{
		board: b,
		lines: make(map[int]*line),
	}
	for _, p := range b.Pins() {
		if p.Assigned() {
			m.lines[p.ID] = &line{}
		}
	}
	for _, option := range options {
		option(&m)
	}
	return &m
}

// Option specifies a construction option for the Mockup.
type Option func(*Mockup)

// WithMode sets the initial mode reported for the pin.
func WithMode(id int, mode gpiopanel.Mode) Option {
	return func(m *Mockup) {
		if l, ok := m.lines[id]; ok {
			l.mode = mode
		}
	}
}

// Board returns a board with a single header of n pins.
//
// Every pin supports the digital, PWM and servo modes, and every fourth pin
// also supports AnalogInput.
func Board(n int) gpiopanel.Board {
	h := gpiopanel.Header{Name: "MOCK"}
	for i := 0; i < n; i++ {
		modes := []gpiopanel.Mode{
			gpiopanel.DigitalInput,
			gpiopanel.DigitalOutput,
			gpiopanel.PwmOutput,
			gpiopanel.Servo,
		}
		if i%4 == 3 {
			modes = append(modes, gpiopanel.AnalogInput)
		}
		h.Pins = append(h.Pins, gpiopanel.PinDescriptor{
			Physical: i + 1,
			ID:       i,
			Name:     fmt.Sprintf("GPIO%d", i),
			Modes:    modes,
		})
	}
	return gpiopanel.Board{
		Make:    "Mockup",
		Model:   "Simulated",
		Name:    "mockup",
		Headers: []gpiopanel.Header{h},
	}
}

// Board returns the simulated board.
func (m *Mockup) Board() gpiopanel.Board {
	return m.board
}

// CurrentMode returns the mode of the pin.
//
// The mode of a pin follows the mode it was most recently opened in.
func (m *Mockup) CurrentMode(id int) gpiopanel.Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.lines[id]; ok {
		return l.mode
	}
	return gpiopanel.Unknown
}

// Close closes the mockup.
//
// Subsequent opens fail with ErrClosed.
func (m *Mockup) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.closed = true
	return nil
}

// Stats returns a snapshot of the activity on the pin.
func (m *Mockup) Stats(id int) Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lines[id]
	if !ok {
		return Stats{}
	}
	s := l.stats
	s.Writes = append([]bool(nil), s.Writes...)
	s.DutyWrites = append([]float64(nil), s.DutyWrites...)
	s.PulseWrites = append([]int(nil), s.PulseWrites...)
	return s
}

// Live returns the total number of handles currently open.
func (m *Mockup) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.lines {
		n += l.stats.Live
	}
	return n
}

// FailOpen causes the next open of the pin to fail with err.
func (m *Mockup) FailOpen(id int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.lines[id]; ok {
		l.openErr = err
	}
}

// PanicOpen causes the next open of the pin to panic with v.
func (m *Mockup) PanicOpen(id int, v interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.lines[id]; ok {
		l.openPanic = v
	}
}

// FailClose causes subsequent closes of handles on the pin to return err.
//
// The handle is still released.
func (m *Mockup) FailClose(id int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.lines[id]; ok {
		l.closeErr = err
	}
}

// SetLevel sets the level of a simulated digital input.
//
// If the input is being watched the new level is sent to the watcher.
func (m *Mockup) SetLevel(id int, v bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lines[id]
	if !ok {
		return ErrorUnknownPin{id}
	}
	if l.level == v {
		return nil
	}
	l.level = v
	if l.dwatch != nil {
		sendLatest(l.dwatch, v)
	}
	return nil
}

// SetAnalog sets the level of a simulated analog input, clamped to the range
// 0 to 1.
//
// If the input is being watched the new level is sent to the watcher.
func (m *Mockup) SetAnalog(id int, v float64) error {
	v = math.Max(0, math.Min(1, v))
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lines[id]
	if !ok {
		return ErrorUnknownPin{id}
	}
	if l.analog == v {
		return nil
	}
	l.analog = v
	if l.awatch != nil {
		sendLatest(l.awatch, v)
	}
	return nil
}

// Drift animates the inputs of the simulated board until the returned stop
// function is called.
//
// Each period one digital input is toggled, and the analog inputs follow a
// sine wave.
func (m *Mockup) Drift(period time.Duration) (stop func()) {
	done := make(chan struct{})
	var once sync.Once
	ids := []int(nil)
	for _, p := range m.board.Pins() {
		if p.Assigned() {
			ids = append(ids, p.ID)
		}
	}
	go func() {
		t := time.NewTicker(period)
		defer t.Stop()
		tick := 0
		for {
			select {
			case <-t.C:
				tick++
				if len(ids) == 0 {
					continue
				}
				id := ids[tick%len(ids)]
				m.mu.Lock()
				v := !m.lines[id].level
				m.mu.Unlock()
				m.SetLevel(id, v)
				a := 0.5 + 0.5*math.Sin(float64(tick)/10)
				for _, id := range ids {
					m.SetAnalog(id, a)
				}
			case <-done:
				return
			}
		}
	}()
	return func() {
		once.Do(func() { close(done) })
	}
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

// open claims the pin for a new handle.
func (m *Mockup) open(p gpiopanel.PinDescriptor, o Open) (*line, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	l, ok := m.lines[p.ID]
	if !ok {
		return nil, ErrorUnknownPin{p.ID}
	}
	if v := l.openPanic; v != nil {
		l.openPanic = nil
		panic(v)
	}
	if err := l.openErr; err != nil {
		l.openErr = nil
		return nil, err
	}
	if l.stats.Live > 0 {
		return nil, ErrorBusy{p.ID}
	}
	l.stats.Opens++
	l.stats.Live++
	if l.stats.Live > l.stats.MaxLive {
		l.stats.MaxLive = l.stats.Live
	}
	l.stats.Last = o
	l.mode = o.Mode
	return l, nil
}

// handle is the state common to all simulated handles.
type handle struct {
	m      *Mockup
	l      *line
	closed bool
}

// close releases the handle. Assumes m.mu is held.
func (h *handle) close() error {
	if h.closed {
		return ErrClosed
	}
	h.closed = true
	h.l.stats.Closes++
	h.l.stats.Live--
	if h.l.dwatch != nil {
		close(h.l.dwatch)
		h.l.dwatch = nil
	}
	if h.l.awatch != nil {
		close(h.l.awatch)
		h.l.awatch = nil
	}
	return h.l.closeErr
}

func (h *handle) Close() error {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	return h.close()
}

// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package tui provides the interactive terminal panel.
//
// The panel lists the pins of the board, and allows the mode of each pin to
// be selected and the control bound to it to be manipulated.
// All surface manipulation, including the delivery of notifications from
// watched inputs, occurs on the bubbletea event loop.
package tui

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/warthog618/gpiopanel"
)

var _ tea.Model = (*Model)(nil)

const (
	// PwmStep is the change in PWM duty cycle per key press, in percent.
	PwmStep = 5

	// ServoStep is the change in servo pulse width per key press, in
	// microseconds.
	ServoStep = 50
)

// Model is the bubbletea model of the panel.
type Model struct {
	reg  *gpiopanel.Registry
	ctrl *gpiopanel.Controller
	log  *slog.Logger

	// all pins in header order, and the index of the first pin of each
	// header.
	pins   []gpiopanel.PinDescriptor
	starts map[int]string

	cursor int
	keys   keyMap
	help   help.Model
	vp     viewport.Model
	bar    progress.Model
	ready  bool
	width  int
	height int

	status string
	err    error
}

// Option specifies a construction option for the Model.
type Option func(*Model)

// WithLogger specifies the logger for surface errors.
func WithLogger(log *slog.Logger) Option {
	return func(m *Model) {
		m.log = log
	}
}

// New creates a panel for the pins in the registry, provisioned by the
// controller.
func New(reg *gpiopanel.Registry, ctrl *gpiopanel.Controller, options ...Option) *Model {
	m := Model{
		reg:    reg,
		ctrl:   ctrl,
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		starts: make(map[int]string),
		keys:   defaultKeyMap(),
		help:   help.New(),
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(20),
			progress.WithoutPercentage(),
		),
	}
	for _, h := range reg.Board().Headers {
		m.starts[len(m.pins)] = h.Name
		m.pins = append(m.pins, h.Pins...)
	}
	for _, option := range options {
		option(&m)
	}
	return &m
}

// notificationMsg carries a watched input change to the event loop.
type notificationMsg gpiopanel.Notification

// waitForNotification returns the next notification from the channel.
//
// Returns nil once the channel is closed, which ends the chain.
func waitForNotification(ch <-chan gpiopanel.Notification) tea.Cmd {
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return notificationMsg(n)
	}
}

// Init starts draining the controller notifications.
func (m *Model) Init() tea.Cmd {
	return waitForNotification(m.ctrl.Notifications())
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case notificationMsg:
		m.ctrl.Deliver(gpiopanel.Notification(msg))
		return m, waitForNotification(m.ctrl.Notifications())
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize(m.width, m.height)
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case len(m.pins) == 0:
	case key.Matches(msg, m.keys.NextMode):
		p := m.Selected()
		m.selectMode(p, m.reg.NextMode(p.ID, 1))
	case key.Matches(msg, m.keys.PrevMode):
		p := m.Selected()
		m.selectMode(p, m.reg.NextMode(p.ID, -1))
	case key.Matches(msg, m.keys.Mode):
		m.selectMode(m.Selected(), gpiopanel.Mode(msg.Runes[0]-'0'))
	case key.Matches(msg, m.keys.Release):
		m.release(m.Selected())
	case key.Matches(msg, m.keys.Toggle):
		m.toggle()
	case key.Matches(msg, m.keys.Inc):
		m.step(1)
	case key.Matches(msg, m.keys.Dec):
		m.step(-1)
	case key.Matches(msg, m.keys.Center):
		if s, ok := m.surface().(*gpiopanel.ServoSurface); ok {
			m.check(s.Center())
		}
	}
	m.refresh()
	return m, nil
}

// Selected returns the pin under the cursor.
func (m *Model) Selected() gpiopanel.PinDescriptor {
	if len(m.pins) == 0 {
		return gpiopanel.PinDescriptor{ID: gpiopanel.Unassigned}
	}
	return m.pins[m.cursor]
}

// Status returns the most recent status message and error.
func (m *Model) Status() (string, error) {
	return m.status, m.err
}

func (m *Model) moveCursor(delta int) {
	n := len(m.pins)
	if n == 0 {
		return
	}
	m.cursor = ((m.cursor+delta)%n + n) % n
}

func (m *Model) setStatus(format string, args ...interface{}) {
	m.status = fmt.Sprintf(format, args...)
	m.err = nil
}

func (m *Model) check(err error) {
	if err != nil {
		p := m.Selected()
		m.log.Warn("control failed", "pin", p.String(), "err", err)
		m.status = ""
		m.err = fmt.Errorf("%s: %w", p, err)
	}
}

func (m *Model) selectMode(p gpiopanel.PinDescriptor, mode gpiopanel.Mode) {
	if !p.Assigned() {
		return
	}
	if _, err := m.reg.Select(p.ID, mode); err != nil {
		m.err = fmt.Errorf("%s: %w: %s", p, err, mode)
		return
	}
	b, err := m.ctrl.Provision(p, mode)
	if err != nil {
		m.err = err
		return
	}
	if b == nil {
		m.setStatus("%s unbound", p)
		return
	}
	m.setStatus("%s provisioned as %s", p, mode)
}

func (m *Model) release(p gpiopanel.PinDescriptor) {
	if !p.Assigned() {
		return
	}
	m.reg.Select(p.ID, gpiopanel.Unknown)
	if err := m.ctrl.Release(p.ID); err != nil {
		m.check(err)
		return
	}
	m.setStatus("%s released", p)
}

func (m *Model) surface() gpiopanel.Surface {
	b, ok := m.ctrl.Binding(m.Selected().ID)
	if !ok {
		return nil
	}
	return b.Surface
}

func (m *Model) toggle() {
	switch s := m.surface().(type) {
	case *gpiopanel.DigitalInputSurface:
		m.check(s.SetWatch(!s.Watching))
	case *gpiopanel.DigitalOutputSurface:
		m.check(s.Toggle())
	case *gpiopanel.AnalogInputSurface:
		m.check(s.SetWatch(!s.Watching))
	case *gpiopanel.ServoSurface:
		m.check(s.Center())
	}
}

func (m *Model) step(dir int) {
	switch s := m.surface().(type) {
	case *gpiopanel.PwmSurface:
		m.check(s.Step(float64(dir * PwmStep)))
	case *gpiopanel.ServoSurface:
		m.check(s.Step(dir * ServoStep))
	}
}

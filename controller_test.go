// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package gpiopanel_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/gpiopanel"
	"github.com/warthog618/gpiopanel/mockup"
)

func newController(t *testing.T, n int, options ...gpiopanel.ControllerOption) (*gpiopanel.Controller, *mockup.Mockup, []gpiopanel.PinDescriptor) {
	t.Helper()
	b := mockup.Board(n)
	m := mockup.New(b)
	c := gpiopanel.NewController(m, options...)
	t.Cleanup(func() {
		c.Close()
		m.Close()
	})
	return c, m, b.Pins()
}

func waitNotification(t *testing.T, c *gpiopanel.Controller) gpiopanel.Notification {
	t.Helper()
	select {
	case n, ok := <-c.Notifications():
		require.True(t, ok)
		return n
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for notification")
	}
	return gpiopanel.Notification{}
}

func TestProvisionOutputThenInput(t *testing.T) {
	c, m, pp := newController(t, 4)
	p := pp[0]

	b, err := c.Provision(p, gpiopanel.DigitalOutput)
	require.Nil(t, err)
	require.NotNil(t, b)
	assert.Equal(t, gpiopanel.DigitalOutput, b.Mode)
	s := m.Stats(0)
	assert.Equal(t, 1, s.Opens)
	assert.False(t, s.Last.Initial)

	out, ok := b.Surface.(*gpiopanel.DigitalOutputSurface)
	require.True(t, ok)
	assert.Nil(t, out.Set(true))
	assert.True(t, out.On)
	assert.Equal(t, []bool{true}, m.Stats(0).Writes)

	b, err = c.Provision(p, gpiopanel.DigitalInput)
	require.Nil(t, err)
	require.NotNil(t, b)
	s = m.Stats(0)
	assert.Equal(t, 2, s.Opens)
	assert.Equal(t, 1, s.Closes)
	assert.Equal(t, 1, s.MaxLive)
	assert.Equal(t, gpiopanel.PullNone, s.Last.Pull)
	assert.Equal(t, gpiopanel.EdgeBoth, s.Last.Edge)
	_, ok = b.Surface.(*gpiopanel.DigitalInputSurface)
	assert.True(t, ok)
}

func TestProvisionSameMode(t *testing.T) {
	modes := []gpiopanel.Mode{
		gpiopanel.DigitalInput,
		gpiopanel.DigitalOutput,
		gpiopanel.PwmOutput,
		gpiopanel.Servo,
		gpiopanel.AnalogInput,
	}
	for _, mode := range modes {
		tf := func(t *testing.T) {
			c, m, pp := newController(t, 4)
			p := pp[3]
			_, err := c.Provision(p, mode)
			require.Nil(t, err)
			_, err = c.Provision(p, mode)
			require.Nil(t, err)
			s := m.Stats(3)
			assert.Equal(t, 2, s.Opens)
			assert.Equal(t, 1, s.Closes)
			assert.Equal(t, 1, s.Live)
			assert.Equal(t, 1, s.MaxLive)
			assert.Equal(t, mode, s.Last.Mode)
		}
		t.Run(mode.String(), tf)
	}
}

func TestProvisionSequences(t *testing.T) {
	seqs := [][]gpiopanel.Mode{
		{gpiopanel.DigitalInput, gpiopanel.DigitalOutput, gpiopanel.PwmOutput, gpiopanel.Servo, gpiopanel.AnalogInput},
		{gpiopanel.Servo, gpiopanel.Servo, gpiopanel.Unknown, gpiopanel.Servo},
		{gpiopanel.Unknown, gpiopanel.Unknown, gpiopanel.DigitalInput},
		{gpiopanel.AnalogInput, gpiopanel.PwmOutput, gpiopanel.AnalogInput, gpiopanel.Unknown},
	}
	c, m, pp := newController(t, 8)
	for _, seq := range seqs {
		for _, p := range pp {
			for _, mode := range seq {
				if mode != gpiopanel.Unknown && !p.Supports(mode) {
					continue
				}
				c.Provision(p, mode)
				assert.LessOrEqual(t, m.Stats(p.ID).Live, 1)
			}
		}
	}
	for _, p := range pp {
		s := m.Stats(p.ID)
		assert.LessOrEqual(t, s.MaxLive, 1, "pin %d", p.ID)
		_, bound := c.Binding(p.ID)
		assert.Equal(t, bound, s.Live == 1, "pin %d", p.ID)
	}
	c.Close()
	assert.Equal(t, 0, m.Live())
}

func TestProvisionUnknown(t *testing.T) {
	c, m, pp := newController(t, 4)
	p := pp[1]
	b, err := c.Provision(p, gpiopanel.Unknown)
	assert.Nil(t, err)
	assert.Nil(t, b)
	assert.Equal(t, 0, m.Stats(1).Opens)

	_, err = c.Provision(p, gpiopanel.PwmOutput)
	require.Nil(t, err)
	b, err = c.Provision(p, gpiopanel.Unknown)
	assert.Nil(t, err)
	assert.Nil(t, b)
	_, ok := c.Binding(1)
	assert.False(t, ok)
	s := m.Stats(1)
	assert.Equal(t, 1, s.Opens)
	assert.Equal(t, 1, s.Closes)
}

func TestProvisionFailure(t *testing.T) {
	c, m, pp := newController(t, 4)
	p := pp[2]
	_, err := c.Provision(p, gpiopanel.DigitalOutput)
	require.Nil(t, err)

	oops := errors.New("oops")
	m.FailOpen(2, oops)
	b, err := c.Provision(p, gpiopanel.DigitalInput)
	assert.Nil(t, b)
	var perr *gpiopanel.ProvisioningError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, gpiopanel.DigitalInput, perr.Mode)
	assert.Equal(t, p.ID, perr.Pin.ID)
	assert.True(t, errors.Is(err, oops))
	_, ok := c.Binding(2)
	assert.False(t, ok)
	// prior handle released despite the failure
	assert.Equal(t, 0, m.Stats(2).Live)
	assert.Equal(t, 1, m.Stats(2).Closes)

	// pin can still be provisioned later
	b, err = c.Provision(p, gpiopanel.DigitalInput)
	assert.Nil(t, err)
	assert.NotNil(t, b)
}

func TestProvisionPanic(t *testing.T) {
	c, m, pp := newController(t, 4)
	m.PanicOpen(0, "hardware on fire")
	var b *gpiopanel.Binding
	var err error
	assert.NotPanics(t, func() {
		b, err = c.Provision(pp[0], gpiopanel.Servo)
	})
	assert.Nil(t, b)
	assert.True(t, errors.Is(err, gpiopanel.ErrFactoryPanic))
	_, ok := c.Binding(0)
	assert.False(t, ok)
}

func TestProvisionUnassigned(t *testing.T) {
	c, _, _ := newController(t, 4)
	p := gpiopanel.PinDescriptor{Physical: 1, ID: gpiopanel.Unassigned, Name: "3V3"}
	_, err := c.Provision(p, gpiopanel.DigitalInput)
	assert.True(t, errors.Is(err, gpiopanel.ErrUnassignedPin))
}

func TestProvisionDefaults(t *testing.T) {
	trim := gpiopanel.ServoTrim{Min: 500, Mid: 1400, Max: 2500}
	c, m, pp := newController(t, 4,
		gpiopanel.WithPwmFrequency(200),
		gpiopanel.WithServoFrequency(60),
		gpiopanel.WithServoTrim(trim))

	b, err := c.Provision(pp[0], gpiopanel.PwmOutput)
	require.Nil(t, err)
	s := m.Stats(0)
	assert.Equal(t, 200, s.Last.Frequency)
	assert.Equal(t, 0.0, s.Last.Duty)
	assert.Equal(t, 0.0, b.Surface.(*gpiopanel.PwmSurface).Percent)

	b, err = c.Provision(pp[1], gpiopanel.Servo)
	require.Nil(t, err)
	s = m.Stats(1)
	assert.Equal(t, 60, s.Last.Frequency)
	assert.Equal(t, trim, s.Last.Trim)
	ss := b.Surface.(*gpiopanel.ServoSurface)
	assert.Equal(t, 1400, ss.PulseWidth)
	assert.Equal(t, trim, ss.Trim)
}

func TestProvisionInvalidTrimIgnored(t *testing.T) {
	c, m, pp := newController(t, 4,
		gpiopanel.WithServoTrim(gpiopanel.ServoTrim{Min: 2000, Mid: 1500, Max: 1000}))
	_, err := c.Provision(pp[0], gpiopanel.Servo)
	require.Nil(t, err)
	assert.Equal(t, gpiopanel.DefaultServoTrim, m.Stats(0).Last.Trim)
}

func TestRelease(t *testing.T) {
	c, m, pp := newController(t, 4)
	_, err := c.Provision(pp[0], gpiopanel.DigitalOutput)
	require.Nil(t, err)
	assert.Nil(t, c.Release(0))
	assert.Equal(t, 0, m.Stats(0).Live)
	_, ok := c.Binding(0)
	assert.False(t, ok)
	// releasing an unbound pin is harmless
	assert.Nil(t, c.Release(0))
}

func TestBindings(t *testing.T) {
	c, _, pp := newController(t, 4)
	c.Provision(pp[2], gpiopanel.DigitalOutput)
	c.Provision(pp[0], gpiopanel.DigitalInput)
	c.Provision(pp[1], gpiopanel.Unknown)
	bb := c.Bindings()
	require.Len(t, bb, 2)
	assert.Equal(t, 0, bb[0].Pin.ID)
	assert.Equal(t, 2, bb[1].Pin.ID)
}

func TestProvisionAll(t *testing.T) {
	b := mockup.Board(4)
	m := mockup.New(b,
		mockup.WithMode(0, gpiopanel.DigitalInput),
		mockup.WithMode(1, gpiopanel.DigitalOutput))
	c := gpiopanel.NewController(m)
	defer c.Close()
	r := gpiopanel.NewRegistry(b, m.CurrentMode)
	c.ProvisionAll(r)
	bb := c.Bindings()
	require.Len(t, bb, 2)
	assert.Equal(t, gpiopanel.DigitalInput, bb[0].Mode)
	assert.Equal(t, gpiopanel.DigitalOutput, bb[1].Mode)
	assert.Equal(t, 0, m.Stats(2).Opens)
}

func TestClose(t *testing.T) {
	c, m, pp := newController(t, 4)
	for _, p := range pp {
		_, err := c.Provision(p, gpiopanel.DigitalInput)
		require.Nil(t, err)
	}
	s := mustBinding(t, c, 0).Surface.(*gpiopanel.DigitalInputSurface)
	require.Nil(t, s.SetWatch(true))

	oops := errors.New("oops")
	m.FailClose(1, oops)
	err := c.Close()
	assert.True(t, errors.Is(err, oops))
	// the remaining handles are still released
	assert.Equal(t, 0, m.Live())
	for _, p := range pp {
		assert.Equal(t, 1, m.Stats(p.ID).Closes)
	}
	_, ok := <-c.Notifications()
	assert.False(t, ok)

	_, err = c.Provision(pp[0], gpiopanel.DigitalInput)
	assert.Equal(t, gpiopanel.ErrClosed, err)
	assert.Equal(t, gpiopanel.ErrClosed, c.Close())
}

func mustBinding(t *testing.T, c *gpiopanel.Controller, id int) *gpiopanel.Binding {
	t.Helper()
	b, ok := c.Binding(id)
	require.True(t, ok)
	return b
}

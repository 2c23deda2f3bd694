// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package cdev_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/go-gpiocdev"
	"github.com/warthog618/go-gpiosim"
	"github.com/warthog618/gpiopanel"
	"github.com/warthog618/gpiopanel/cdev"
)

func simBoard(n int) gpiopanel.Board {
	h := gpiopanel.Header{Name: "SIM"}
	for i := 0; i < n; i++ {
		h.Pins = append(h.Pins, gpiopanel.PinDescriptor{
			Physical: i + 1,
			ID:       i,
			Name:     fmt.Sprintf("GPIO%d", i),
			Modes: []gpiopanel.Mode{
				gpiopanel.DigitalInput,
				gpiopanel.DigitalOutput,
				gpiopanel.PwmOutput,
				gpiopanel.Servo,
			},
		})
	}
	return gpiopanel.Board{Name: "sim", Headers: []gpiopanel.Header{h}}
}

// newFactory creates a factory on a gpio-sim chip, skipping the test if the
// simulator is unavailable.
func newFactory(t *testing.T, n int) (*cdev.Factory, *gpiosim.Simpleton, []gpiopanel.PinDescriptor) {
	t.Helper()
	s, err := gpiosim.NewSimpleton(n)
	if err != nil {
		t.Skipf("gpio-sim unavailable: %s", err)
	}
	t.Cleanup(func() { s.Close() })
	b := simBoard(n)
	f, err := cdev.New(s.DevPath(), b)
	require.Nil(t, err)
	t.Cleanup(func() { f.Close() })
	return f, s, b.Pins()
}

func TestNew(t *testing.T) {
	_, err := cdev.New("/dev/nonexistent", simBoard(4))
	assert.NotNil(t, err)

	f, _, _ := newFactory(t, 4)
	assert.Len(t, f.Board().Headers, 1)
	assert.NotEmpty(t, f.Chip())
	assert.Nil(t, f.Close())
	assert.Equal(t, cdev.ErrClosed, f.Close())
}

func TestWithADC(t *testing.T) {
	s, err := gpiosim.NewSimpleton(4)
	if err != nil {
		t.Skipf("gpio-sim unavailable: %s", err)
	}
	defer s.Close()
	spec := cdev.ADCSpec{
		Channels: 2,
		Open: func(c *gpiocdev.Chip) (cdev.ADC, error) {
			return nil, errors.New("no ADC attached")
		},
	}
	f, err := cdev.New(s.DevPath(), simBoard(4), cdev.WithADC(spec, time.Millisecond))
	require.Nil(t, err)
	defer f.Close()
	b := f.Board()
	require.Len(t, b.Headers, 2)
	assert.Equal(t, "ADC", b.Headers[1].Name)
	_, err = f.OpenAnalogInput(b.Headers[1].Pins[0])
	assert.NotNil(t, err)
	assert.Equal(t, gpiopanel.Unknown, f.CurrentMode(cdev.AnalogBase))
}

func TestOpenDigitalOutput(t *testing.T) {
	f, s, pp := newFactory(t, 4)
	h, err := f.OpenDigitalOutput(pp[1], true)
	require.Nil(t, err)
	v, err := s.Level(1)
	assert.Nil(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, gpiopanel.DigitalOutput, f.CurrentMode(1))

	assert.Nil(t, h.SetValue(false))
	v, err = s.Level(1)
	assert.Nil(t, err)
	assert.Equal(t, 0, v)

	// single owner
	_, err = f.OpenDigitalInput(pp[1], gpiopanel.PullNone, gpiopanel.EdgeBoth)
	assert.True(t, errors.Is(err, cdev.ErrBusy))

	assert.Nil(t, h.Close())
	h2, err := f.OpenDigitalInput(pp[1], gpiopanel.PullNone, gpiopanel.EdgeBoth)
	require.Nil(t, err)
	assert.Nil(t, h2.Close())
}

func TestOpenDigitalInput(t *testing.T) {
	f, s, pp := newFactory(t, 4)
	require.Nil(t, s.SetPull(2, 1))
	h, err := f.OpenDigitalInput(pp[2], gpiopanel.PullNone, gpiopanel.EdgeBoth)
	require.Nil(t, err)
	defer h.Close()
	assert.Equal(t, gpiopanel.DigitalInput, f.CurrentMode(2))

	v, err := h.Value()
	assert.Nil(t, err)
	assert.True(t, v)

	ch, err := h.Watch()
	require.Nil(t, err)
	_, err = h.Watch()
	assert.Equal(t, cdev.ErrAlreadyWatched, err)

	require.Nil(t, s.SetPull(2, 0))
	select {
	case v = <-ch:
		assert.False(t, v)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for edge")
	}
	require.Nil(t, s.SetPull(2, 1))
	select {
	case v = <-ch:
		assert.True(t, v)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for edge")
	}
	h.Unwatch()
	_, ok := <-ch
	assert.False(t, ok)
}

func TestOpenDigitalInputBias(t *testing.T) {
	f, s, pp := newFactory(t, 4)
	c, err := gpiocdev.NewChip(s.DevPath())
	require.Nil(t, err)
	defer c.Close()

	patterns := []struct {
		name string
		pull gpiopanel.Pull
		bias gpiocdev.LineBias
	}{
		{"pull-up", gpiopanel.PullUp, gpiocdev.LineBiasPullUp},
		{"none after pull-up", gpiopanel.PullNone, gpiocdev.LineBiasDisabled},
		{"pull-down", gpiopanel.PullDown, gpiocdev.LineBiasPullDown},
		{"none after pull-down", gpiopanel.PullNone, gpiocdev.LineBiasDisabled},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			h, err := f.OpenDigitalInput(pp[3], p.pull, gpiopanel.EdgeNone)
			require.Nil(t, err)
			defer h.Close()
			info, err := c.LineInfo(3)
			require.Nil(t, err)
			assert.Equal(t, p.bias, info.Config.Bias)
		}
		t.Run(p.name, tf)
	}
}

func TestOpenInvalid(t *testing.T) {
	f, _, _ := newFactory(t, 4)
	p := gpiopanel.PinDescriptor{Physical: 9, ID: 9, Name: "GPIO9"}
	_, err := f.OpenDigitalOutput(p, false)
	assert.Equal(t, gpiocdev.ErrInvalidOffset, err)
	_, err = f.OpenAnalogInput(p)
	assert.Equal(t, cdev.ErrNoADC, err)
	assert.Equal(t, gpiopanel.Unknown, f.CurrentMode(-1))
}

func TestOpenPwmOutput(t *testing.T) {
	f, s, pp := newFactory(t, 4)
	h, err := f.OpenPwmOutput(pp[0], 100, 0.5)
	require.Nil(t, err)
	assert.Equal(t, 0.5, h.Value())
	seen := map[int]bool{}
	assert.Eventually(t, func() bool {
		v, err := s.Level(0)
		if err == nil {
			seen[v] = true
		}
		return seen[0] && seen[1]
	}, time.Second, time.Millisecond)

	require.Nil(t, h.SetValue(0))
	assert.Nil(t, h.Close())
	v, err := s.Level(0)
	assert.Nil(t, err)
	assert.Equal(t, 0, v)

	_, err = f.OpenPwmOutput(pp[0], 0, 0)
	assert.NotNil(t, err)
	// the line is released on failure
	h, err = f.OpenPwmOutput(pp[0], 50, 0)
	require.Nil(t, err)
	assert.Nil(t, h.Close())
}

func TestOpenServo(t *testing.T) {
	f, _, pp := newFactory(t, 4)
	h, err := f.OpenServo(pp[3], 50, gpiopanel.DefaultServoTrim)
	require.Nil(t, err)
	assert.Equal(t, 1500, h.PulseWidth())
	assert.Nil(t, h.SetPulseWidth(1100))
	assert.Equal(t, 1100, h.PulseWidth())
	assert.Nil(t, h.Close())
}

func TestController(t *testing.T) {
	f, s, pp := newFactory(t, 4)
	c := gpiopanel.NewController(f)
	b, err := c.Provision(pp[0], gpiopanel.DigitalOutput)
	require.Nil(t, err)
	require.Nil(t, b.Surface.(*gpiopanel.DigitalOutputSurface).Set(true))
	v, err := s.Level(0)
	assert.Nil(t, err)
	assert.Equal(t, 1, v)

	// switching modes releases the output before requesting the input
	_, err = c.Provision(pp[0], gpiopanel.DigitalInput)
	require.Nil(t, err)
	assert.Equal(t, gpiopanel.DigitalInput, f.CurrentMode(0))
	assert.Nil(t, c.Close())
}

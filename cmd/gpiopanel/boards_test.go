// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/gpiopanel"
	"github.com/warthog618/gpiopanel/cdev"
	"github.com/warthog618/gpiopanel/internal/logging"
	"github.com/warthog618/gpiopanel/mockup"
)

func TestLoadBoard(t *testing.T) {
	b, pr, err := loadBoard(settings{board: "bananapi"})
	require.Nil(t, err)
	assert.Equal(t, "bananapi", b.Name)
	assert.NotNil(t, pr.pin)

	_, _, err = loadBoard(settings{board: "pi5"})
	assert.True(t, errors.Is(err, errInvalidBoard))
	assert.True(t, strings.Contains(err.Error(), "bananapi, jetsonnano, mockup, rpi"))

	path := filepath.Join(t.TempDir(), "widget.yaml")
	require.Nil(t, os.WriteFile(path, []byte(`
name: widget
headers:
  - name: P1
    pins:
      - {physical: 1, id: 9, name: LED}
`), 0o644))
	b, pr, err = loadBoard(settings{board: "rpi", boardFile: path})
	require.Nil(t, err)
	assert.Equal(t, "widget", b.Name)
	assert.Nil(t, pr.pin)
	p, err := findPin(b, pr, "led")
	assert.Nil(t, err)
	assert.Equal(t, 9, p.ID)
}

func TestFindPin(t *testing.T) {
	pr := profiles["rpi"]
	b := pr.board()
	patterns := []struct {
		name string
		id   int
	}{
		{"GPIO4", 4},
		{"j8p7", 4},
		{"gpio04", 4},
		{"17", 17},
		{"J8p1", gpiopanel.Unassigned},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			pd, err := findPin(b, pr, p.name)
			require.Nil(t, err)
			assert.Equal(t, p.id, pd.ID)
		}
		t.Run(p.name, tf)
	}
	_, err := findPin(b, pr, "GPIO99")
	assert.True(t, errors.Is(err, gpiopanel.ErrUnknownPin))
	_, err = findPin(b, pr, "99")
	assert.True(t, errors.Is(err, gpiopanel.ErrUnknownPin))
}

func TestParsePinMode(t *testing.T) {
	pr := profiles["rpi"]
	b := pr.board()
	p, m, err := parsePinMode(b, pr, "J8p7=dout")
	require.Nil(t, err)
	assert.Equal(t, 4, p.ID)
	assert.Equal(t, gpiopanel.DigitalOutput, m)

	_, _, err = parsePinMode(b, pr, "J8p7")
	assert.NotNil(t, err)
	_, _, err = parsePinMode(b, pr, "J8p7=sideways")
	assert.True(t, errors.Is(err, gpiopanel.ErrInvalidModeName))
	_, _, err = parsePinMode(b, pr, "J8p99=din")
	assert.True(t, errors.Is(err, gpiopanel.ErrUnknownPin))
}

func TestADCSpec(t *testing.T) {
	pr := profiles["rpi"]
	b := pr.board()
	_, ok, err := adcSpec(settings{adc: adcSettings{kind: "none"}}, b, pr)
	assert.Nil(t, err)
	assert.False(t, ok)

	s := settings{adc: adcSettings{kind: "mcp3008", clk: "J8p23", csz: "J8p24", di: "J8p19"}}
	_, _, err = adcSpec(s, b, pr)
	assert.True(t, errors.Is(err, errMissingADCPin))

	s.adc.do = "J8p21"
	spec, ok, err := adcSpec(s, b, pr)
	require.Nil(t, err)
	assert.True(t, ok)
	assert.Equal(t, 8, spec.Channels)

	s.adc.do = "J8p2"
	_, _, err = adcSpec(s, b, pr)
	assert.True(t, errors.Is(err, gpiopanel.ErrUnknownPin))

	s.adc.do = "J8p21"
	s.adc.kind = "hx711"
	_, _, err = adcSpec(s, b, pr)
	assert.True(t, errors.Is(err, cdev.ErrInvalidADC))
}

func newTestPanel(t *testing.T, s settings) (*panel, error) {
	t.Helper()
	var buf bytes.Buffer
	l, err := logging.NewWithWriter(logging.Config{}, &buf)
	require.Nil(t, err)
	return newPanel(s, l)
}

func TestNewPanel(t *testing.T) {
	s := settings{
		driver:    "mockup",
		board:     "mockup",
		pwmFreq:   100,
		servoFreq: 50,
		trim:      gpiopanel.DefaultServoTrim,
		modes:     []string{"GPIO1=dout", "MOCKp3=pwm"},
	}
	p, err := newTestPanel(t, s)
	require.Nil(t, err)
	assert.Equal(t, gpiopanel.DigitalOutput, p.reg.Mode(1))
	assert.Equal(t, gpiopanel.PwmOutput, p.reg.Mode(2))
	assert.Equal(t, gpiopanel.Unknown, p.reg.Mode(0))

	p.ctrl.ProvisionAll(p.reg)
	bb := p.ctrl.Bindings()
	require.Len(t, bb, 2)
	assert.Equal(t, 1, bb[0].Pin.ID)
	assert.Equal(t, gpiopanel.DigitalOutput, bb[0].Mode)
	assert.Equal(t, gpiopanel.PwmOutput, bb[1].Mode)

	dm, ok := p.f.(*driftingMockup)
	require.True(t, ok)
	assert.Equal(t, 100, dm.Stats(2).Last.Frequency)

	var out bytes.Buffer
	printBoard(&out, p.reg)
	assert.True(t, strings.HasPrefix(out.String(), "mockup: Mockup Simulated\nMOCK - 40 pins:\n"))
	assert.True(t, strings.Contains(out.String(), "GPIO1      dout     [din,dout,pwm,servo]"))
	assert.True(t, strings.Contains(out.String(), "GPIO3      unknown  [din,dout,pwm,servo,ain]"))

	assert.Nil(t, p.Close())
	assert.Equal(t, 0, dm.Live())
	assert.Equal(t, mockup.ErrClosed, dm.Close())
}

func TestNewPanelErrors(t *testing.T) {
	s := settings{driver: "mockup", board: "mockup", trim: gpiopanel.DefaultServoTrim}

	s.modes = []string{"GPIO1=ain"}
	_, err := newTestPanel(t, s)
	assert.True(t, errors.Is(err, gpiopanel.ErrInvalidMode))

	s.modes = []string{"GPIO99=din"}
	_, err = newTestPanel(t, s)
	assert.True(t, errors.Is(err, gpiopanel.ErrUnknownPin))

	s.modes = nil
	s.board = "pi5"
	_, err = newTestPanel(t, s)
	assert.True(t, errors.Is(err, errInvalidBoard))

	s.board = "mockup"
	s.driver = "sysfs"
	_, err = newTestPanel(t, s)
	assert.True(t, errors.Is(err, errInvalidDriver))
}

// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/warthog618/gpiopanel"
	"github.com/warthog618/gpiopanel/cdev"
	"github.com/warthog618/gpiopanel/internal/logging"
	"github.com/warthog618/gpiopanel/mockup"
	"github.com/warthog618/gpiopanel/periph"
)

// driftPeriod is the period with which the inputs of the mockup board
// change.
const driftPeriod = 500 * time.Millisecond

// driftingMockup is a mockup with inputs that change over time.
type driftingMockup struct {
	*mockup.Mockup
	stop func()
}

func (m *driftingMockup) Close() error {
	m.stop()
	return m.Mockup.Close()
}

// newFactory creates the factory for the configured driver.
func newFactory(s settings, b gpiopanel.Board, pr profile, l *logging.Logging) (gpiopanel.Factory, error) {
	switch s.driver {
	case "cdev":
		options := []cdev.Option{
			cdev.WithConsumer(s.consumer),
			cdev.WithLogger(l.Module("cdev")),
		}
		spec, ok, err := adcSpec(s, b, pr)
		if err != nil {
			return nil, err
		}
		if ok {
			options = append(options, cdev.WithADC(spec, s.analogPoll))
		}
		return cdev.New(s.chip, b, options...)
	case "periph":
		return periph.New(b)
	case "mockup":
		m := mockup.New(b)
		return &driftingMockup{Mockup: m, stop: m.Drift(driftPeriod)}, nil
	}
	return nil, fmt.Errorf("%w: %s", errInvalidDriver, s.driver)
}

var errMissingADCPin = errors.New("ADC pin not specified")

// adcSpec returns the spec of the configured ADC, if any.
func adcSpec(s settings, b gpiopanel.Board, pr profile) (cdev.ADCSpec, bool, error) {
	if s.adc.kind == "" || s.adc.kind == "none" {
		return cdev.ADCSpec{}, false, nil
	}
	lines := cdev.ADCLines{Tclk: s.adc.tclk}
	pins := []struct {
		name string
		pin  string
		o    *int
	}{
		{"clk", s.adc.clk, &lines.Clk},
		{"csz", s.adc.csz, &lines.Csz},
		{"di", s.adc.di, &lines.Di},
		{"do", s.adc.do, &lines.Do},
	}
	for _, p := range pins {
		if p.pin == "" {
			return cdev.ADCSpec{}, false, fmt.Errorf("%w: %s", errMissingADCPin, p.name)
		}
		o, err := pinOffset(b, pr, p.pin)
		if err != nil {
			return cdev.ADCSpec{}, false, fmt.Errorf("adc %s: %w", p.name, err)
		}
		*p.o = o
	}
	spec, err := cdev.NewADCSpec(s.adc.kind, lines)
	if err != nil {
		return spec, false, err
	}
	return spec, true, nil
}

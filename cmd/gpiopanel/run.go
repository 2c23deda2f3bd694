// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/warthog618/gpiopanel"
	"github.com/warthog618/gpiopanel/internal/logging"
	"github.com/warthog618/gpiopanel/internal/tui"
)

func run(cmd *cobra.Command, args []string) {
	if err := runPanel(cmd); err != nil {
		die(cmd, err)
	}
}

// panel is the provisioning state of a board.
type panel struct {
	log  *logging.Logging
	f    gpiopanel.Factory
	reg  *gpiopanel.Registry
	ctrl *gpiopanel.Controller
}

// newPanel creates the factory, registry and controller described by the
// settings, with the initial mode selections applied but not yet
// provisioned.
func newPanel(s settings, l *logging.Logging) (*panel, error) {
	b, pr, err := loadBoard(s)
	if err != nil {
		return nil, err
	}
	f, err := newFactory(s, b, pr, l)
	if err != nil {
		return nil, err
	}
	// the factory may extend the board, e.g. with an ADC header.
	b = f.Board()
	reg := gpiopanel.NewRegistry(b, f.CurrentMode)
	for _, sel := range s.modes {
		p, m, err := parsePinMode(b, pr, sel)
		if err == nil {
			_, err = reg.Select(p.ID, m)
		}
		if err != nil {
			f.Close()
			return nil, err
		}
	}
	ctrl := gpiopanel.NewController(f,
		gpiopanel.WithLogger(l.Module("controller")),
		gpiopanel.WithPwmFrequency(s.pwmFreq),
		gpiopanel.WithServoFrequency(s.servoFreq),
		gpiopanel.WithServoTrim(s.trim))
	return &panel{log: l, f: f, reg: reg, ctrl: ctrl}, nil
}

// Close releases all bindings, then the factory.
//
// Failures to release bindings are logged by the controller and do not
// prevent the factory being closed.
func (p *panel) Close() error {
	p.ctrl.Close()
	return p.f.Close()
}

func runPanel(cmd *cobra.Command) error {
	s, err := newSettings(loadConfig(cmd.Flags()))
	if err != nil {
		return err
	}
	l, err := logging.New(s.log)
	if err != nil {
		return err
	}
	defer l.Close()
	log := l.Logger()
	p, err := newPanel(s, l)
	if err != nil {
		log.Error("startup failed", "err", err)
		return err
	}
	log.Info("starting", "driver", s.driver, "board", p.reg.Board().Name)
	p.ctrl.ProvisionAll(p.reg)
	model := tui.New(p.reg, p.ctrl, tui.WithLogger(l.Module("tui")))
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	if cerr := p.Close(); cerr != nil {
		log.Error("shutdown failed", "err", cerr)
	}
	log.Info("exiting")
	return err
}

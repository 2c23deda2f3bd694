// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/warthog618/gpiopanel"
	"github.com/warthog618/gpiopanel/boardfile"
	"github.com/warthog618/gpiopanel/device/bananapi"
	"github.com/warthog618/gpiopanel/device/jetsonnano"
	"github.com/warthog618/gpiopanel/device/rpi"
	"github.com/warthog618/gpiopanel/mockup"
)

// profile is a built in board description.
type profile struct {
	board func() gpiopanel.Board

	// pin parses a board specific pin name into a pin id.
	pin func(string) (int, error)
}

var profiles = map[string]profile{
	"rpi":        {board: rpi.Board, pin: rpi.Pin},
	"jetsonnano": {board: jetsonnano.Board, pin: jetsonnano.Pin},
	"bananapi":   {board: bananapi.Board, pin: bananapi.Pin},
	"mockup":     {board: func() gpiopanel.Board { return mockup.Board(40) }},
}

var errInvalidBoard = errors.New("invalid board")

func profileNames() []string {
	nn := make([]string, 0, len(profiles))
	for n := range profiles {
		nn = append(nn, n)
	}
	sort.Strings(nn)
	return nn
}

// loadBoard returns the board described by the board file, if any, else the
// named board profile.
func loadBoard(s settings) (gpiopanel.Board, profile, error) {
	if s.boardFile != "" {
		b, err := boardfile.Load(s.boardFile)
		if err != nil {
			return b, profile{}, err
		}
		return b, profile{board: func() gpiopanel.Board { return b }}, nil
	}
	p, ok := profiles[s.board]
	if !ok {
		return gpiopanel.Board{}, p, fmt.Errorf("%w: %s (expected one of %s)",
			errInvalidBoard, s.board, strings.Join(profileNames(), ", "))
	}
	return p.board(), p, nil
}

// findPin locates the pin on the board.
//
// The pin may be identified by name, by header and physical pin number, e.g.
// J8p7, by a name understood by the board profile, or by id.
func findPin(b gpiopanel.Board, pr profile, s string) (gpiopanel.PinDescriptor, error) {
	for _, h := range b.Headers {
		for _, p := range h.Pins {
			if strings.EqualFold(p.Name, s) ||
				strings.EqualFold(h.Name+"p"+strconv.Itoa(p.Physical), s) {
				return p, nil
			}
		}
	}
	id, err := strconv.Atoi(s)
	if err != nil && pr.pin != nil {
		id, err = pr.pin(s)
	}
	if err == nil {
		for _, p := range b.Pins() {
			if p.Assigned() && p.ID == id {
				return p, nil
			}
		}
	}
	return gpiopanel.PinDescriptor{}, fmt.Errorf("%w: %s", gpiopanel.ErrUnknownPin, s)
}

// parsePinMode parses a pin=mode selection.
func parsePinMode(b gpiopanel.Board, pr profile, s string) (gpiopanel.PinDescriptor, gpiopanel.Mode, error) {
	name, mode, ok := strings.Cut(s, "=")
	if !ok {
		return gpiopanel.PinDescriptor{}, gpiopanel.Unknown, fmt.Errorf("invalid pin=mode: %s", s)
	}
	p, err := findPin(b, pr, strings.TrimSpace(name))
	if err != nil {
		return p, gpiopanel.Unknown, err
	}
	m, err := gpiopanel.ParseMode(mode)
	if err != nil {
		return p, m, fmt.Errorf("%w: %s", err, mode)
	}
	return p, m, nil
}

// pinOffset resolves a pin name to an id, for configuring ADC lines.
func pinOffset(b gpiopanel.Board, pr profile, s string) (int, error) {
	p, err := findPin(b, pr, s)
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

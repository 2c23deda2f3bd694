// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package boardfile loads board descriptions from YAML or TOML files.
//
// A board file describes the headers of a board not covered by the built in
// board profiles:
//
//	make: Acme
//	model: Widget
//	name: widget
//	headers:
//	  - name: J1
//	    pins:
//	      - physical: 1
//	        name: 3V3
//	      - physical: 3
//	        id: 17
//	        name: GPIO17
//	        modes: [din, dout]
//
// Pins without an id are unassigned. Assigned pins without modes support
// the default modes of the 40 pin header.
package boardfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/warthog618/gpiopanel"
	"github.com/warthog618/gpiopanel/device"
	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a board file.
type Format int

const (
	// YAML encoded board file.
	YAML Format = iota

	// TOML encoded board file.
	TOML
)

var (
	// ErrUnknownFormat indicates the format of the file could not be
	// determined from its extension.
	ErrUnknownFormat = errors.New("unknown board file format")

	// ErrNoHeaders indicates the board has no headers.
	ErrNoHeaders = errors.New("board has no headers")
)

// ErrorDuplicateID indicates a pin id appears more than once on the board.
type ErrorDuplicateID struct {
	ID int
}

func (e ErrorDuplicateID) Error() string {
	return fmt.Sprintf("duplicate pin id %d", e.ID)
}

// ErrorDuplicatePhysical indicates a physical pin number appears more than
// once on a header.
type ErrorDuplicatePhysical struct {
	Header   string
	Physical int
}

func (e ErrorDuplicatePhysical) Error() string {
	return fmt.Sprintf("duplicate physical pin %d on header %s", e.Physical, e.Header)
}

type board struct {
	Make    string   `yaml:"make" toml:"make"`
	Model   string   `yaml:"model" toml:"model"`
	Name    string   `yaml:"name" toml:"name"`
	Headers []header `yaml:"headers" toml:"headers"`
}

type header struct {
	Name string `yaml:"name" toml:"name"`
	Pins []pin  `yaml:"pins" toml:"pins"`
}

type pin struct {
	Physical int      `yaml:"physical" toml:"physical"`
	ID       *int     `yaml:"id" toml:"id"`
	Name     string   `yaml:"name" toml:"name"`
	Modes    []string `yaml:"modes" toml:"modes"`
}

// FormatOf returns the format implied by the extension of the path.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	}
	return 0, ErrUnknownFormat
}

// Load reads the board description from the file.
//
// The format of the file is determined by its extension.
func Load(path string) (gpiopanel.Board, error) {
	f, err := FormatOf(path)
	if err != nil {
		return gpiopanel.Board{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return gpiopanel.Board{}, err
	}
	b, err := Parse(data, f)
	if err != nil {
		return gpiopanel.Board{}, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// Parse decodes a board description.
func Parse(data []byte, f Format) (gpiopanel.Board, error) {
	var raw board
	var err error
	switch f {
	case YAML:
		err = yaml.Unmarshal(data, &raw)
	case TOML:
		err = toml.Unmarshal(data, &raw)
	default:
		err = ErrUnknownFormat
	}
	if err != nil {
		return gpiopanel.Board{}, err
	}
	return raw.board()
}

func (raw board) board() (gpiopanel.Board, error) {
	if len(raw.Headers) == 0 {
		return gpiopanel.Board{}, ErrNoHeaders
	}
	b := gpiopanel.Board{Make: raw.Make, Model: raw.Model, Name: raw.Name}
	ids := map[int]bool{}
	for hi, rh := range raw.Headers {
		h := gpiopanel.Header{Name: rh.Name}
		if h.Name == "" {
			h.Name = fmt.Sprintf("H%d", hi+1)
		}
		physical := map[int]bool{}
		for i, rp := range rh.Pins {
			p := gpiopanel.PinDescriptor{
				Physical: rp.Physical,
				ID:       gpiopanel.Unassigned,
				Name:     rp.Name,
			}
			if p.Physical == 0 {
				p.Physical = i + 1
			}
			if physical[p.Physical] {
				return gpiopanel.Board{}, ErrorDuplicatePhysical{Header: h.Name, Physical: p.Physical}
			}
			physical[p.Physical] = true
			if rp.ID != nil && *rp.ID >= 0 {
				p.ID = *rp.ID
				if ids[p.ID] {
					return gpiopanel.Board{}, ErrorDuplicateID{ID: p.ID}
				}
				ids[p.ID] = true
				p.Modes = device.DefaultModes
				if len(rp.Modes) > 0 {
					p.Modes = nil
					for _, s := range rp.Modes {
						m, err := gpiopanel.ParseMode(s)
						if err != nil {
							return gpiopanel.Board{}, fmt.Errorf("pin %s: %w: %s", p, err, s)
						}
						if m != gpiopanel.Unknown {
							p.Modes = append(p.Modes, m)
						}
					}
				}
			}
			if p.Name == "" {
				p.Name = fmt.Sprintf("%sp%d", h.Name, p.Physical)
			}
			h.Pins = append(h.Pins, p)
		}
		b.Headers = append(b.Headers, h)
	}
	return b, nil
}

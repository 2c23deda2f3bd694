// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package bananapi provides the Banana Pi board description and convenience
// mappings from Banana Pi pin names to offsets.
package bananapi

import (
	"errors"
	"strconv"
	"strings"

	"github.com/warthog618/gpiopanel"
	"github.com/warthog618/gpiopanel/device"
)

// GPIO aliases to offsets
var (
	GPIO2  = Offsets[2]
	GPIO3  = Offsets[3]
	GPIO4  = Offsets[4]
	GPIO5  = Offsets[5]
	GPIO6  = Offsets[6]
	GPIO7  = Offsets[7]
	GPIO8  = Offsets[8]
	GPIO9  = Offsets[9]
	GPIO10 = Offsets[10]
	GPIO11 = Offsets[11]
	GPIO12 = Offsets[12]
	GPIO13 = Offsets[13]
	GPIO14 = Offsets[14]
	GPIO15 = Offsets[15]
	GPIO16 = Offsets[16]
	GPIO17 = Offsets[17]
	GPIO18 = Offsets[18]
	GPIO19 = Offsets[19]
	GPIO20 = Offsets[20]
	GPIO21 = Offsets[21]
	GPIO22 = Offsets[22]
	GPIO23 = Offsets[23]
	GPIO24 = Offsets[24]
	GPIO25 = Offsets[25]
	GPIO26 = Offsets[26]
	GPIO27 = Offsets[27]
)

// Offsets maps the Raspberry Pi compatible GPIO numbers to line offsets.
var Offsets = map[int]int{
	2:  53,
	3:  52,
	4:  259,
	5:  37,
	6:  38,
	7:  270,
	8:  266,
	9:  269,
	10: 268,
	11: 267,
	12: 38,
	13: 39,
	14: 224,
	15: 225,
	16: 277,
	17: 275,
	18: 226,
	19: 40,
	20: 276,
	21: 45,
	22: 273,
	23: 244,
	24: 245,
	25: 272,
	26: 35,
	27: 274,
}

// ErrInvalid indicates the pin name does not match a known pin.
var ErrInvalid = errors.New("invalid pin number")

// Pin maps a pin name to the GPIO offset.
//
// Pin names are case insensitive and may be of the form GPIOX, or X, where X
// is the Raspberry Pi compatible GPIO number.
func Pin(s string) (int, error) {
	s = strings.ToLower(s)
	s = strings.TrimPrefix(s, "gpio")
	v, err := strconv.ParseInt(s, 10, 8)
	if err != nil {
		return 0, err
	}
	o, ok := Offsets[int(v)]
	if !ok {
		return 0, ErrInvalid
	}
	return o, nil
}

// MustPin converts the string to the corresponding offset or panics if that
// is not possible.
func MustPin(s string) int {
	v, err := Pin(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Board returns the description of the Banana Pi 40 pin header.
//
// GPIO6 and GPIO12 share an offset, so GPIO12 is listed as unassigned.
func Board() gpiopanel.Board {
	return gpiopanel.Board{
		Make:  "Banana Pi",
		Model: "40 pin",
		Name:  "bananapi",
		Headers: []gpiopanel.Header{device.NewHeader("CON1", func(gpio int) (int, bool) {
			if gpio == 12 {
				return 0, false
			}
			o, ok := Offsets[gpio]
			return o, ok
		})},
	}
}

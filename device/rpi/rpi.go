// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package rpi provides the Raspberry Pi board description and convenience
// mappings from Raspberry Pi pin names to offsets.
//
// Line offsets on the Raspberry Pi GPIO chip match the BCM GPIO numbers.
package rpi

import (
	"github.com/warthog618/gpiopanel"
	"github.com/warthog618/gpiopanel/device"
)

// BCM GPIOs available on the J8 header.
const (
	GPIO2 = iota + 2
	GPIO3
	GPIO4
	GPIO5
	GPIO6
	GPIO7
	GPIO8
	GPIO9
	GPIO10
	GPIO11
	GPIO12
	GPIO13
	GPIO14
	GPIO15
	GPIO16
	GPIO17
	GPIO18
	GPIO19
	GPIO20
	GPIO21
	GPIO22
	GPIO23
	GPIO24
	GPIO25
	GPIO26
	GPIO27
	MaxGPIOPin
)

// J8 pins, by physical pin number, mapped to their BCM GPIO.
//
// J8p27 and J8p28 are the ID EEPROM pins.
const (
	J8p3  = GPIO2
	J8p5  = GPIO3
	J8p7  = GPIO4
	J8p8  = GPIO14
	J8p10 = GPIO15
	J8p11 = GPIO17
	J8p12 = GPIO18
	J8p13 = GPIO27
	J8p15 = GPIO22
	J8p16 = GPIO23
	J8p18 = GPIO24
	J8p19 = GPIO10
	J8p21 = GPIO9
	J8p22 = GPIO25
	J8p23 = GPIO11
	J8p24 = GPIO8
	J8p26 = GPIO7
	J8p27 = 0
	J8p28 = 1
	J8p29 = GPIO5
	J8p31 = GPIO6
	J8p32 = GPIO12
	J8p33 = GPIO13
	J8p35 = GPIO19
	J8p36 = GPIO16
	J8p37 = GPIO26
	J8p38 = GPIO20
	J8p40 = GPIO21
)

// ErrInvalid indicates the pin name does not match a known pin.
var ErrInvalid = device.ErrInvalid

// Pin maps a pin string name to a pin number.
//
// Pin names are case insensitive and may be of the form J8pX, GPIOX, or X.
func Pin(s string) (int, error) {
	return device.ParsePin("J8", s)
}

// MustPin converts the string to the corresponding pin number or panics if that
// is not possible.
func MustPin(s string) int {
	v, err := Pin(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Board returns the description of the Raspberry Pi J8 header.
func Board() gpiopanel.Board {
	return gpiopanel.Board{
		Make:    "Raspberry Pi",
		Model:   "40 pin",
		Name:    "rpi",
		Headers: []gpiopanel.Header{device.NewHeader("J8", device.Identity)},
	}
}

// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
// SPDX-FileCopyrightText: 2023 Alex Bucknall <alex.bucknall@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package jetsonnano provides the Jetson Nano board description and
// convenience mappings from Jetson Nano pin names to offsets.
//
// The J41 header follows the Raspberry Pi layout, and the pins are addressed
// by their Raspberry Pi BCM numbers.
package jetsonnano

import (
	"github.com/warthog618/gpiopanel"
	"github.com/warthog618/gpiopanel/device"
)

// BCM GPIOs available on the J41 header.
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

// J41 pins, by physical pin number, mapped to their BCM GPIO.
const (
	J41p3  = GPIO2
	J41p5  = GPIO3
	J41p7  = GPIO4
	J41p8  = GPIO14
	J41p10 = GPIO15
	J41p11 = GPIO17
	J41p12 = GPIO18
	J41p13 = GPIO27
	J41p15 = GPIO22
	J41p16 = GPIO23
	J41p18 = GPIO24
	J41p19 = GPIO10
	J41p21 = GPIO9
	J41p22 = GPIO25
	J41p23 = GPIO11
	J41p24 = GPIO8
	J41p26 = GPIO7
	J41p27 = 0
	J41p28 = 1
	J41p29 = GPIO5
	J41p31 = GPIO6
	J41p32 = GPIO12
	J41p33 = GPIO13
	J41p35 = GPIO19
	J41p36 = GPIO16
	J41p37 = GPIO26
	J41p38 = GPIO20
	J41p40 = GPIO21
)

// ErrInvalid indicates the pin name does not match a known pin.
var ErrInvalid = device.ErrInvalid

// Pin maps a pin string name to a pin number.
//
// Pin names are case insensitive and may be of the form J41pX, GPIOX, or X.
func Pin(s string) (int, error) {
	return device.ParsePin("J41", s)
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

// Board returns the description of the Jetson Nano J41 header.
func Board() gpiopanel.Board {
	return gpiopanel.Board{
		Make:    "NVIDIA",
		Model:   "Jetson Nano",
		Name:    "jetsonnano",
		Headers: []gpiopanel.Header{device.NewHeader("J41", device.Identity)},
	}
}

// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warthog618/gpiopanel"
	"github.com/warthog618/gpiopanel/cdev"
	"github.com/warthog618/gpiopanel/device/rpi"
)

// This example provisions GPIO 4, which is pin J8-7 on a Raspberry Pi, as a
// digital output and toggles it at 0.5Hz with a 50% duty cycle.
// Do not run this on a device which has this pin externally driven.
func main() {
	f, err := cdev.New("gpiochip0", rpi.Board(), cdev.WithConsumer("blinker"))
	if err != nil {
		panic(err)
	}
	defer f.Close()

	r := gpiopanel.NewRegistry(f.Board(), f.CurrentMode)
	p, err := r.Select(rpi.J8p7, gpiopanel.DigitalOutput)
	if err != nil {
		panic(err)
	}
	c := gpiopanel.NewController(f)
	defer c.Close()
	b, err := c.Provision(p, gpiopanel.DigitalOutput)
	if err != nil {
		panic(err)
	}
	s := b.Surface.(*gpiopanel.DigitalOutputSurface)
	values := map[bool]string{false: "inactive", true: "active"}
	fmt.Printf("Set %s\n", values[s.On])

	// capture exit signals to ensure the pin is released on exit.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	for {
		select {
		case <-time.After(2 * time.Second):
			if err := s.Toggle(); err != nil {
				fmt.Printf("toggle failed: %s\n", err)
				return
			}
			fmt.Printf("Set %s\n", values[s.On])
		case <-quit:
			return
		}
	}
}

// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/warthog618/gpiopanel"
	"github.com/warthog618/gpiopanel/cdev"
	"github.com/warthog618/gpiopanel/device/rpi"
)

// Watches GPIO 4 (Raspberry Pi J8-7) and reports when it changes state.
func main() {
	f, err := cdev.New("gpiochip0", rpi.Board(), cdev.WithConsumer("watcher"))
	if err != nil {
		panic(err)
	}
	defer f.Close()

	r := gpiopanel.NewRegistry(f.Board(), f.CurrentMode)
	p, err := r.Select(rpi.J8p7, gpiopanel.DigitalInput)
	if err != nil {
		panic(err)
	}
	c := gpiopanel.NewController(f)
	defer c.Close()
	b, err := c.Provision(p, gpiopanel.DigitalInput)
	if err != nil {
		fmt.Printf("Provision returned error: %s\n", err)
		os.Exit(1)
	}
	s := b.Surface.(*gpiopanel.DigitalInputSurface)
	if err := s.SetWatch(true); err != nil {
		fmt.Printf("SetWatch returned error: %s\n", err)
		os.Exit(1)
	}

	// In a real application the main thread would do something useful.
	// But we'll just run for a minute then exit.
	fmt.Printf("Watching %s, initially %t...\n", p.Name, s.Active)
	done := time.After(time.Minute)
	for {
		select {
		case n, ok := <-c.Notifications():
			if !ok {
				return
			}
			if c.Deliver(n) {
				edge := "rising"
				if !n.Active {
					edge = "falling"
				}
				fmt.Printf("event:%3d %-7s %s\n",
					n.Pin, edge, time.Now().Format(time.RFC3339Nano))
			}
		case <-done:
			fmt.Println("exiting...")
			return
		}
	}
}

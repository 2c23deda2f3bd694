// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"fmt"
	"os"

	"github.com/warthog618/config"
	"github.com/warthog618/config/blob"
	"github.com/warthog618/config/blob/decoder/json"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"
	"github.com/warthog618/config/pflag"
	"github.com/warthog618/gpiopanel"
	"github.com/warthog618/gpiopanel/cdev"
	"github.com/warthog618/gpiopanel/device/rpi"
)

// This example reads all channels from an ADC connected to the RPI by four
// data lines - CSZ, CLK, DI, and DO. The ADC type and default pin assignments
// are defined in loadConfig, but can be altered via configuration (env, flag
// or config file).
// All pins other than DO are outputs so do not run this example on a board
// where those pins serve other purposes.
func main() {
	cfg := loadConfig()
	kind := cfg.MustGet("type").String()
	spec, err := cdev.NewADCSpec(kind, cdev.ADCLines{
		Clk:  cfg.MustGet("clk").Int(),
		Csz:  cfg.MustGet("csz").Int(),
		Di:   cfg.MustGet("di").Int(),
		Do:   cfg.MustGet("do").Int(),
		Tclk: cfg.MustGet("tclk").Duration(),
	})
	if err != nil {
		die(err)
	}
	f, err := cdev.New(
		cfg.MustGet("gpiochip").String(),
		rpi.Board(),
		cdev.WithConsumer(kind),
		cdev.WithADC(spec, 0))
	if err != nil {
		die(err)
	}
	defer f.Close()

	c := gpiopanel.NewController(f)
	defer c.Close()
	for _, h := range f.Board().Headers {
		if h.Name != "ADC" {
			continue
		}
		for _, p := range h.Pins {
			b, err := c.Provision(p, gpiopanel.AnalogInput)
			if err != nil {
				fmt.Printf("%s: %s\n", p.Name, err)
				continue
			}
			s := b.Surface.(*gpiopanel.AnalogInputSurface)
			if err := s.SetWatch(true); err != nil {
				fmt.Printf("%s: %s\n", p.Name, err)
				continue
			}
			fmt.Printf("%s=%.3f\n", p.Name, s.Level)
			s.SetWatch(false)
			c.Release(p.ID)
		}
	}
}

func die(err error) {
	fmt.Fprintf(os.Stderr, "adc: %s\n", err)
	os.Exit(1)
}

func loadConfig() *config.Config {
	defaultConfig := map[string]interface{}{
		"gpiochip": "gpiochip0",
		"type":     "mcp3008",
		"tclk":     "500ns",
		"csz":      rpi.J8p29,
		"clk":      rpi.J8p31,
		"do":       rpi.J8p33,
		"di":       rpi.J8p35,
	}
	def := dict.New(dict.WithMap(defaultConfig))
	flags := []pflag.Flag{
		{Short: 'c', Name: "config-file"},
		{Short: 't', Name: "type"},
	}
	cfg := config.New(
		pflag.New(pflag.WithFlags(flags)),
		env.New(env.WithEnvPrefix("ADC_")),
		config.WithDefault(def))
	cfg.Append(
		blob.NewConfigFile(cfg, "config.file", "adc.json", json.NewDecoder()))
	cfg = cfg.GetConfig("", config.WithMust())
	return cfg
}

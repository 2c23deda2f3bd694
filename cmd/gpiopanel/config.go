// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/warthog618/config"
	"github.com/warthog618/config/blob"
	"github.com/warthog618/config/blob/decoder/json"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"
	"github.com/warthog618/gpiopanel"
	"github.com/warthog618/gpiopanel/internal/logging"
)

func init() {
	addFlags(rootCmd.PersistentFlags())
}

// addFlags adds the configuration flags to the flag set.
func addFlags(pf *pflag.FlagSet) {
	pf.StringP("config-file", "c", "", "config file (default gpiopanel.json)")
	pf.StringP("driver", "d", "cdev", "hardware driver: cdev, periph or mockup")
	pf.String("gpiochip", "gpiochip0", "GPIO chip used by the cdev driver")
	pf.StringP("board", "b", "rpi", "board profile: rpi, jetsonnano, bananapi or mockup")
	pf.String("boardfile", "", "YAML or TOML board description, overrides --board")
	pf.String("consumer", "gpiopanel", "consumer label for requested lines")
	pf.Int("pwm-frequency", gpiopanel.DefaultFrequency, "PWM frequency (Hz)")
	pf.Int("servo-frequency", gpiopanel.DefaultFrequency, "servo frequency (Hz)")
	pf.Int("servo-min", gpiopanel.DefaultServoTrim.Min, "servo minimum pulse width (µs)")
	pf.Int("servo-mid", gpiopanel.DefaultServoTrim.Mid, "servo mid-point pulse width (µs)")
	pf.Int("servo-max", gpiopanel.DefaultServoTrim.Max, "servo maximum pulse width (µs)")
	pf.Duration("analog-poll", 100*time.Millisecond, "analog input poll period")
	pf.String("adc-type", "none", "ADC attached to the cdev chip: none, mcp3008, mcp3208 or adc0832")
	pf.String("adc-clk", "", "ADC clock pin")
	pf.String("adc-csz", "", "ADC chip select pin")
	pf.String("adc-di", "", "ADC data in pin")
	pf.String("adc-do", "", "ADC data out pin")
	pf.Duration("adc-tclk", 500*time.Nanosecond, "ADC clock half period")
	pf.String("log-level", "info", "log level: debug, info, warn or error")
	pf.String("log-format", "text", "log format: text or json")
	pf.String("log-output", "gpiopanel.log", "log file, or stderr or stdout")
	pf.StringSliceP("mode", "m", nil, "initial pin mode, e.g. J8p7=dout")
}

// defaults are the configuration defaults, matching the flag defaults.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"driver":    "cdev",
		"gpiochip":  "gpiochip0",
		"board":     "rpi",
		"boardfile": "",
		"consumer":  "gpiopanel",
		"pwm": map[string]interface{}{
			"frequency": gpiopanel.DefaultFrequency,
		},
		"servo": map[string]interface{}{
			"frequency": gpiopanel.DefaultFrequency,
			"min":       gpiopanel.DefaultServoTrim.Min,
			"mid":       gpiopanel.DefaultServoTrim.Mid,
			"max":       gpiopanel.DefaultServoTrim.Max,
		},
		"analog": map[string]interface{}{
			"poll": "100ms",
		},
		"adc": map[string]interface{}{
			"type": "none",
			"clk":  "",
			"csz":  "",
			"di":   "",
			"do":   "",
			"tclk": "500ns",
		},
		"log": map[string]interface{}{
			"level":  "info",
			"format": "text",
			"output": "gpiopanel.log",
		},
		"mode": []string{},
	}
}

// flagKey converts a flag name to the corresponding config key.
func flagKey(name string) string {
	return strings.ReplaceAll(name, "-", ".")
}

// setPath sets the value at the dotted key in the nested map.
func setPath(m map[string]interface{}, key string, v interface{}) {
	path := strings.Split(key, ".")
	for _, k := range path[:len(path)-1] {
		sub, ok := m[k].(map[string]interface{})
		if !ok {
			sub = map[string]interface{}{}
			m[k] = sub
		}
		m = sub
	}
	m[path[len(path)-1]] = v
}

// loadConfig builds the configuration from the flags explicitly set, the
// environment, the config file, and the defaults, in that order of
// precedence.
func loadConfig(fs *pflag.FlagSet) *config.Config {
	set := map[string]interface{}{}
	fs.Visit(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			setPath(set, flagKey(f.Name), sv.GetSlice())
			return
		}
		setPath(set, flagKey(f.Name), f.Value.String())
	})
	cfg := config.New(
		dict.New(dict.WithMap(set)),
		env.New(env.WithEnvPrefix("GPIOPANEL_")),
		config.WithDefault(dict.New(dict.WithMap(defaults()))))
	cfg.Append(
		blob.NewConfigFile(cfg, "config.file", "gpiopanel.json", json.NewDecoder()))
	return cfg.GetConfig("", config.WithMust())
}

type adcSettings struct {
	kind string
	clk  string
	csz  string
	di   string
	do   string
	tclk time.Duration
}

// settings are the validated configuration of the panel.
type settings struct {
	driver     string
	chip       string
	board      string
	boardFile  string
	consumer   string
	pwmFreq    int
	servoFreq  int
	trim       gpiopanel.ServoTrim
	analogPoll time.Duration
	adc        adcSettings
	log        logging.Config
	modes      []string
}

var (
	errInvalidDriver    = errors.New("invalid driver")
	errInvalidFrequency = errors.New("invalid frequency")
)

func newSettings(cfg *config.Config) (settings, error) {
	s := settings{
		driver:    cfg.MustGet("driver").String(),
		chip:      cfg.MustGet("gpiochip").String(),
		board:     cfg.MustGet("board").String(),
		boardFile: cfg.MustGet("boardfile").String(),
		consumer:  cfg.MustGet("consumer").String(),
		pwmFreq:   cfg.MustGet("pwm.frequency").Int(),
		servoFreq: cfg.MustGet("servo.frequency").Int(),
		trim: gpiopanel.ServoTrim{
			Min: cfg.MustGet("servo.min").Int(),
			Mid: cfg.MustGet("servo.mid").Int(),
			Max: cfg.MustGet("servo.max").Int(),
		},
		analogPoll: cfg.MustGet("analog.poll").Duration(),
		adc: adcSettings{
			kind: cfg.MustGet("adc.type").String(),
			clk:  cfg.MustGet("adc.clk").String(),
			csz:  cfg.MustGet("adc.csz").String(),
			di:   cfg.MustGet("adc.di").String(),
			do:   cfg.MustGet("adc.do").String(),
			tclk: cfg.MustGet("adc.tclk").Duration(),
		},
		log: logging.Config{
			Level:  cfg.MustGet("log.level").String(),
			Format: cfg.MustGet("log.format").String(),
			Output: cfg.MustGet("log.output").String(),
		},
		modes: cfg.MustGet("mode").StringSlice(),
	}
	switch s.driver {
	case "cdev", "periph", "mockup":
	default:
		return s, fmt.Errorf("%w: %s", errInvalidDriver, s.driver)
	}
	if s.pwmFreq <= 0 {
		return s, fmt.Errorf("%w: pwm %d", errInvalidFrequency, s.pwmFreq)
	}
	if s.servoFreq <= 0 {
		return s, fmt.Errorf("%w: servo %d", errInvalidFrequency, s.servoFreq)
	}
	if err := s.trim.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

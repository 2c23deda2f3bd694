// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package gpiopanel

import (
	"io"
	"log/slog"
)

// ControllerOption defines the interface required to provide a Controller
// option.
type ControllerOption interface {
	applyControllerOption(*ControllerOptions)
}

// ControllerOptions contains the options for a Controller.
type ControllerOptions struct {
	log            *slog.Logger
	pwmFrequency   int
	servoFrequency int
	trim           ServoTrim
	buffer         int
}

// DefaultFrequency is the default PWM and servo frequency, in Hz.
const DefaultFrequency = 50

func defaultControllerOptions() ControllerOptions {
	return ControllerOptions{
		log:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		pwmFrequency:   DefaultFrequency,
		servoFrequency: DefaultFrequency,
		trim:           DefaultServoTrim,
		buffer:         64,
	}
}

// LoggerOption provides the logger used to report provisioning failures.
type LoggerOption struct {
	log *slog.Logger
}

// WithLogger specifies the logger for the Controller.
//
// By default nothing is logged.
func WithLogger(log *slog.Logger) LoggerOption {
	return LoggerOption{log}
}

func (o LoggerOption) applyControllerOption(c *ControllerOptions) {
	if o.log != nil {
		c.log = o.log
	}
}

// PwmFrequencyOption specifies the frequency of PWM outputs.
type PwmFrequencyOption int

// WithPwmFrequency specifies the frequency, in Hz, used when provisioning PWM
// outputs.
func WithPwmFrequency(hz int) PwmFrequencyOption {
	return PwmFrequencyOption(hz)
}

func (o PwmFrequencyOption) applyControllerOption(c *ControllerOptions) {
	if o > 0 {
		c.pwmFrequency = int(o)
	}
}

// ServoFrequencyOption specifies the frequency of servo outputs.
type ServoFrequencyOption int

// WithServoFrequency specifies the frequency, in Hz, used when provisioning
// servos.
func WithServoFrequency(hz int) ServoFrequencyOption {
	return ServoFrequencyOption(hz)
}

func (o ServoFrequencyOption) applyControllerOption(c *ControllerOptions) {
	if o > 0 {
		c.servoFrequency = int(o)
	}
}

// ServoTrimOption specifies the pulse widths used to drive servos.
type ServoTrimOption ServoTrim

// WithServoTrim specifies the trim used when provisioning servos.
//
// An invalid trim is ignored and the DefaultServoTrim used instead.
func WithServoTrim(t ServoTrim) ServoTrimOption {
	return ServoTrimOption(t)
}

func (o ServoTrimOption) applyControllerOption(c *ControllerOptions) {
	if ServoTrim(o).Validate() == nil {
		c.trim = ServoTrim(o)
	}
}

// NotificationBufferOption specifies the depth of the notification channel.
type NotificationBufferOption int

// WithNotificationBuffer specifies the number of notifications that may be
// queued for the event loop before watchers block.
func WithNotificationBuffer(n int) NotificationBufferOption {
	return NotificationBufferOption(n)
}

func (o NotificationBufferOption) applyControllerOption(c *ControllerOptions) {
	if o >= 0 {
		c.buffer = int(o)
	}
}

// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

// An interactive panel to provision and exercise the GPIO pins of a board.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "undefined"

var rootCmd = &cobra.Command{
	Use:   "gpiopanel",
	Short: "gpiopanel is an interactive panel for GPIO pins",
	Long: `gpiopanel lists the pins of a board, and allows the mode of each pin to be
selected and the pin to be driven or watched.

Configuration is taken from flags, then GPIOPANEL_ environment variables,
then the JSON config file, e.g. GPIOPANEL_PWM_FREQUENCY=100 is equivalent to
--pwm-frequency=100.`,
	Run:     run,
	Version: version,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func logErr(cmd *cobra.Command, err error) {
	fmt.Fprintf(os.Stderr, "gpiopanel %s: %s\n", cmd.Name(), err)
}

func die(cmd *cobra.Command, err error) {
	logErr(cmd, err)
	os.Exit(1)
}

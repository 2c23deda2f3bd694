// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/warthog618/gpiopanel"
	"github.com/warthog618/gpiopanel/internal/logging"
)

func init() {
	rootCmd.AddCommand(infoCmd)
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Info about the board pins",
	Long: `Print the pins of each header of the board, with their supported modes
and the mode each pin is currently in.`,
	Run: info,
}

func info(cmd *cobra.Command, args []string) {
	s, err := newSettings(loadConfig(cmd.Flags()))
	if err != nil {
		die(cmd, err)
	}
	// the panel is not running so log to stderr.
	s.log.Output = "stderr"
	l, err := logging.New(s.log)
	if err != nil {
		die(cmd, err)
	}
	defer l.Close()
	p, err := newPanel(s, l)
	if err != nil {
		die(cmd, err)
	}
	printBoard(os.Stdout, p.reg)
	p.Close()
}

func modeList(mm []gpiopanel.Mode) string {
	ss := make([]string, len(mm))
	for i, m := range mm {
		ss[i] = m.String()
	}
	return strings.Join(ss, ",")
}

func printBoard(w io.Writer, reg *gpiopanel.Registry) {
	b := reg.Board()
	fmt.Fprintf(w, "%s: %s %s\n", b.Name, b.Make, b.Model)
	for _, h := range b.Headers {
		fmt.Fprintf(w, "%s - %d pins:\n", h.Name, len(h.Pins))
		for _, p := range h.Pins {
			id := "-"
			if p.Assigned() {
				id = strconv.Itoa(p.ID)
			}
			if len(p.Modes) == 0 {
				fmt.Fprintf(w, "\tpin %3d: %5s %-10s\n", p.Physical, id, p.Name)
				continue
			}
			fmt.Fprintf(w, "\tpin %3d: %5s %-10s %-8s [%s]\n",
				p.Physical, id, p.Name, reg.Mode(p.ID), modeList(p.Modes))
		}
	}
}

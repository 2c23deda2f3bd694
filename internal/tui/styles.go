// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.AdaptiveColor{Light: "#1565c0", Dark: "#42a5f5"}
	colorOn     = lipgloss.AdaptiveColor{Light: "#2e7d32", Dark: "#66bb6a"}
	colorError  = lipgloss.AdaptiveColor{Light: "#c62828", Dark: "#ef5350"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#757575", Dark: "#9e9e9e"}

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	headerStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	onStyle       = lipgloss.NewStyle().Bold(true).Foreground(colorOn)
	offStyle      = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle    = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	statusStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	unboundStyle  = lipgloss.NewStyle().Foreground(colorError)
	modeStyle     = lipgloss.NewStyle().Width(8)
	nameStyle     = lipgloss.NewStyle().Width(10)
	physicalStyle = lipgloss.NewStyle().Width(4).Align(lipgloss.Right)
	idStyle       = lipgloss.NewStyle().Width(6).Align(lipgloss.Right)
)

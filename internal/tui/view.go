// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/warthog618/gpiopanel"
)

func (m *Model) title() string {
	b := m.reg.Board()
	t := "gpiopanel"
	if b.Name != "" {
		t += "  " + b.Name + ":"
	}
	return titleStyle.Render(strings.TrimSpace(fmt.Sprintf("%s %s %s", t, b.Make, b.Model)))
}

func (m *Model) footer() string {
	var status string
	if m.err != nil {
		status = errorStyle.Render(m.err.Error())
	} else {
		status = statusStyle.Render(m.status)
	}
	return status + "\n" + m.help.View(m.keys)
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width
	h := height - lipgloss.Height(m.title()) - lipgloss.Height(m.footer()) - 1
	if h < 1 {
		h = 1
	}
	if !m.ready {
		m.vp = viewport.New(width, h)
		m.ready = true
	} else {
		m.vp.Width = width
		m.vp.Height = h
	}
	m.refresh()
}

// refresh re-renders the pin table into the viewport and scrolls to keep
// the cursor visible.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	content, line := m.table()
	m.vp.SetContent(content)
	if line < m.vp.YOffset {
		m.vp.SetYOffset(line)
	} else if line >= m.vp.YOffset+m.vp.Height {
		m.vp.SetYOffset(line - m.vp.Height + 1)
	}
}

// table renders the pins and returns the line containing the cursor.
func (m *Model) table() (string, int) {
	var sb strings.Builder
	line := 0
	cursorLine := 0
	for i, p := range m.pins {
		if name, ok := m.starts[i]; ok {
			if i != 0 {
				sb.WriteString("\n")
				line++
			}
			sb.WriteString(headerStyle.Render(name))
			sb.WriteString("\n")
			line++
		}
		if i == m.cursor {
			cursorLine = line
		}
		sb.WriteString(m.row(p, i == m.cursor))
		sb.WriteString("\n")
		line++
	}
	return sb.String(), cursorLine
}

func (m *Model) row(p gpiopanel.PinDescriptor, selected bool) string {
	marker := "  "
	if selected {
		marker = cursorStyle.Render("> ")
	}
	id := "-"
	if p.Assigned() {
		id = strconv.Itoa(p.ID)
	}
	cols := []string{
		marker,
		physicalStyle.Render(strconv.Itoa(p.Physical)),
		" ",
		nameStyle.Render(p.Name),
		idStyle.Render(id),
		"  ",
	}
	if len(p.Modes) == 0 {
		return mutedStyle.Render(strings.Join(cols, ""))
	}
	mode := m.reg.Mode(p.ID)
	cols = append(cols, modeStyle.Render(mode.String()))
	b, ok := m.ctrl.Binding(p.ID)
	if !ok {
		if mode != gpiopanel.Unknown {
			cols = append(cols, unboundStyle.Render("unbound"))
		}
		return strings.Join(cols, "")
	}
	cols = append(cols, m.control(b.Surface))
	return strings.Join(cols, "")
}

func (m *Model) control(s gpiopanel.Surface) string {
	switch s := s.(type) {
	case *gpiopanel.DigitalInputSurface:
		if !s.Watching {
			return offStyle.Render("[not watching]")
		}
		if s.Active {
			return onStyle.Render("● high")
		}
		return offStyle.Render("○ low")
	case *gpiopanel.DigitalOutputSurface:
		if s.On {
			return onStyle.Render("[ON ]")
		}
		return offStyle.Render("[OFF]")
	case *gpiopanel.PwmSurface:
		return m.bar.ViewAs(s.Percent/100) + fmt.Sprintf(" %3.0f%%", s.Percent)
	case *gpiopanel.ServoSurface:
		span := s.Trim.Max - s.Trim.Min
		frac := 0.0
		if span > 0 {
			frac = float64(s.PulseWidth-s.Trim.Min) / float64(span)
		}
		return m.bar.ViewAs(frac) + fmt.Sprintf(" %4dµs", s.PulseWidth)
	case *gpiopanel.AnalogInputSurface:
		if !s.Watching {
			return offStyle.Render("[not watching]")
		}
		return m.bar.ViewAs(s.Level) + fmt.Sprintf(" %.3f", s.Level)
	}
	return ""
}

// View renders the panel.
func (m *Model) View() string {
	body := m.vp.View()
	if !m.ready {
		body, _ = m.table()
	}
	return m.title() + "\n" + body + "\n" + m.footer()
}

// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package boardfile_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/gpiopanel"
	"github.com/warthog618/gpiopanel/boardfile"
	"github.com/warthog618/gpiopanel/device"
)

const widgetYAML = `
make: Acme
model: Widget
name: widget
headers:
  - name: J1
    pins:
      - physical: 1
        name: 3V3
      - physical: 2
        id: 17
        name: GPIO17
        modes: [din, digital-output]
      - physical: 3
        id: 18
`

const widgetTOML = `
make = "Acme"
model = "Widget"
name = "widget"

[[headers]]
name = "J1"

[[headers.pins]]
physical = 1
name = "3V3"

[[headers.pins]]
physical = 2
id = 17
name = "GPIO17"
modes = ["din", "digital-output"]

[[headers.pins]]
physical = 3
id = 18
`

func checkWidget(t *testing.T, b gpiopanel.Board) {
	t.Helper()
	assert.Equal(t, "Acme", b.Make)
	assert.Equal(t, "Widget", b.Model)
	assert.Equal(t, "widget", b.Name)
	require.Len(t, b.Headers, 1)
	h := b.Headers[0]
	assert.Equal(t, "J1", h.Name)
	require.Len(t, h.Pins, 3)

	assert.Equal(t, gpiopanel.PinDescriptor{Physical: 1, ID: gpiopanel.Unassigned, Name: "3V3"}, h.Pins[0])
	assert.Equal(t, gpiopanel.PinDescriptor{
		Physical: 2,
		ID:       17,
		Name:     "GPIO17",
		Modes:    []gpiopanel.Mode{gpiopanel.DigitalInput, gpiopanel.DigitalOutput},
	}, h.Pins[1])
	assert.Equal(t, "J1p3", h.Pins[2].Name)
	assert.Equal(t, 18, h.Pins[2].ID)
	assert.Equal(t, device.DefaultModes, h.Pins[2].Modes)
}

func TestParse(t *testing.T) {
	b, err := boardfile.Parse([]byte(widgetYAML), boardfile.YAML)
	require.Nil(t, err)
	checkWidget(t, b)

	b, err = boardfile.Parse([]byte(widgetTOML), boardfile.TOML)
	require.Nil(t, err)
	checkWidget(t, b)

	_, err = boardfile.Parse([]byte(widgetYAML), boardfile.Format(5))
	assert.Equal(t, boardfile.ErrUnknownFormat, err)
}

func TestParseErrors(t *testing.T) {
	patterns := []struct {
		name string
		data string
		err  error
	}{
		{"no headers", "name: empty\n", boardfile.ErrNoHeaders},
		{"duplicate id", `
headers:
  - name: J1
    pins:
      - {physical: 1, id: 4}
      - {physical: 2, id: 4}
`, boardfile.ErrorDuplicateID{ID: 4}},
		{"duplicate physical", `
headers:
  - name: J1
    pins:
      - {physical: 1, id: 4}
      - {physical: 1, id: 5}
`, boardfile.ErrorDuplicatePhysical{Header: "J1", Physical: 1}},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			_, err := boardfile.Parse([]byte(p.data), boardfile.YAML)
			assert.Equal(t, p.err, err)
		}
		t.Run(p.name, tf)
	}

	_, err := boardfile.Parse([]byte(`
headers:
  - pins:
      - {id: 4, modes: [sideways]}
`), boardfile.YAML)
	assert.True(t, errors.Is(err, gpiopanel.ErrInvalidModeName))

	_, err = boardfile.Parse([]byte("headers: [unterminated"), boardfile.YAML)
	assert.NotNil(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "widget.yml")
	require.Nil(t, os.WriteFile(path, []byte(widgetYAML), 0o644))
	b, err := boardfile.Load(path)
	require.Nil(t, err)
	checkWidget(t, b)

	path = filepath.Join(dir, "widget.toml")
	require.Nil(t, os.WriteFile(path, []byte(widgetTOML), 0o644))
	b, err = boardfile.Load(path)
	require.Nil(t, err)
	checkWidget(t, b)

	_, err = boardfile.Load(filepath.Join(dir, "widget.json"))
	assert.Equal(t, boardfile.ErrUnknownFormat, err)

	_, err = boardfile.Load(filepath.Join(dir, "missing.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestFormatOf(t *testing.T) {
	f, err := boardfile.FormatOf("a/b.YAML")
	assert.Nil(t, err)
	assert.Equal(t, boardfile.YAML, f)
	f, err = boardfile.FormatOf("b.toml")
	assert.Nil(t, err)
	assert.Equal(t, boardfile.TOML, f)
	_, err = boardfile.FormatOf("b")
	assert.Equal(t, boardfile.ErrUnknownFormat, err)
}

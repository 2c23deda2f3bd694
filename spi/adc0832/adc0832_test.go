// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package adc0832_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/gpiopanel/spi"
	"github.com/warthog618/gpiopanel/spi/adc0832"
	"github.com/warthog618/gpiopanel/spi/spitest"
)

func newDevice(samples [2]uint16) *spitest.Device {
	return &spitest.Device{
		CmdBits: 2,
		Width:   8,
		Sample: func(cmd []int) uint16 {
			return samples[cmd[1]]
		},
	}
}

func TestReadShared(t *testing.T) {
	d := newDevice([2]uint16{0x5a, 0xc3})
	clk, ssz, data := d.SharedLines()
	s, err := spi.NewFromLines(clk, ssz, data, data, spi.WithTclk(0))
	require.Nil(t, err)
	adc := adc0832.NewFromSPI(s)
	defer adc.Close()
	assert.Equal(t, 2, adc.Channels())

	v, err := adc.Read(0)
	assert.Nil(t, err)
	assert.Equal(t, uint8(0x5a), v)
	v, err = adc.Read(1)
	assert.Nil(t, err)
	assert.Equal(t, uint8(0xc3), v)
	assert.False(t, d.Contention())
	assert.Equal(t, [][]int{{1, 0}, {1, 1}}, d.Commands())

	_, err = adc.Read(2)
	assert.Equal(t, adc0832.ErrInvalidChannel, err)
}

func TestReadSeparate(t *testing.T) {
	d := newDevice([2]uint16{0xff, 0x80})
	clk, ssz, mosi, miso := d.Lines()
	s, err := spi.NewFromLines(clk, ssz, mosi, miso, spi.WithTclk(0))
	require.Nil(t, err)
	adc := adc0832.NewFromSPI(s, adc0832.WithTset(0))
	defer adc.Close()

	v, err := adc.ReadDifferential(1)
	assert.Nil(t, err)
	assert.Equal(t, uint8(0x80), v)
	assert.Equal(t, [][]int{{0, 1}}, d.Commands())

	l, err := adc.Level(0)
	assert.Nil(t, err)
	assert.Equal(t, 1.0, l)
	l, err = adc.Level(1)
	assert.Nil(t, err)
	assert.InDelta(t, 128.0/255, l, 1e-9)
}

func TestClose(t *testing.T) {
	d := newDevice([2]uint16{})
	clk, ssz, data := d.SharedLines()
	s, err := spi.NewFromLines(clk, ssz, data, data, spi.WithTclk(0))
	require.Nil(t, err)
	adc := adc0832.NewFromSPI(s)
	assert.Nil(t, adc.Close())
	assert.Equal(t, 3, d.Closes())
	assert.Equal(t, adc0832.ErrClosed, adc.Close())
	_, err = adc.Read(0)
	assert.Equal(t, adc0832.ErrClosed, err)
}

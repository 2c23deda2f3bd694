// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package cdev

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/gpiopanel"
)

type fakeADC struct {
	mu     sync.Mutex
	levels []float64
	closed bool
}

func (a *fakeADC) Level(ch int) (float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return 0, errors.New("closed")
	}
	return a.levels[ch], nil
}

func (a *fakeADC) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return nil
}

func (a *fakeADC) set(ch int, v float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.levels[ch] = v
}

func newBank(opens *int, adcs *[]*fakeADC) *adcBank {
	b := newADCBank(ADCSpec{Channels: 2}, time.Millisecond)
	b.open = func() (ADC, error) {
		*opens++
		a := &fakeADC{levels: make([]float64, 2)}
		*adcs = append(*adcs, a)
		return a, nil
	}
	return b
}

func TestADCBankRefcount(t *testing.T) {
	opens := 0
	var adcs []*fakeADC
	b := newBank(&opens, &adcs)

	h0, err := b.openChannel(0)
	require.Nil(t, err)
	h1, err := b.openChannel(1)
	require.Nil(t, err)
	assert.Equal(t, 1, opens)
	assert.True(t, b.isOpen(0))

	_, err = b.openChannel(1)
	assert.Equal(t, ErrChannelBusy, err)
	_, err = b.openChannel(2)
	assert.Equal(t, ErrInvalidChannel, err)

	assert.Nil(t, h0.Close())
	assert.False(t, adcs[0].closed)
	assert.Equal(t, ErrHandleClosed, h0.Close())
	assert.Nil(t, h1.Close())
	assert.True(t, adcs[0].closed)
	assert.False(t, b.isOpen(1))

	// reopens after the last channel is closed
	h0, err = b.openChannel(0)
	require.Nil(t, err)
	assert.Equal(t, 2, opens)
	assert.Nil(t, h0.Close())
}

func TestADCBankOpenFailure(t *testing.T) {
	b := newADCBank(ADCSpec{Channels: 2}, 0)
	assert.Equal(t, 100*time.Millisecond, b.poll)
	oops := errors.New("oops")
	b.open = func() (ADC, error) {
		return nil, oops
	}
	_, err := b.openChannel(0)
	assert.Equal(t, oops, err)
	assert.False(t, b.isOpen(0))
}

func TestAnalogInputWatch(t *testing.T) {
	opens := 0
	var adcs []*fakeADC
	b := newBank(&opens, &adcs)
	h, err := b.openChannel(1)
	require.Nil(t, err)
	adcs[0].set(1, 0.5)

	v, err := h.Value()
	assert.Nil(t, err)
	assert.Equal(t, 0.5, v)

	ch, err := h.Watch()
	require.Nil(t, err)
	_, err = h.Watch()
	assert.Equal(t, ErrAlreadyWatched, err)

	waitLevel := func(want float64) {
		t.Helper()
		for {
			select {
			case v := <-ch:
				if v == want {
					return
				}
			case <-time.After(time.Second):
				t.Fatalf("timeout waiting for %v", want)
			}
		}
	}
	waitLevel(0.5)
	adcs[0].set(1, 0.75)
	waitLevel(0.75)

	// unchanged levels are not reported
	select {
	case v := <-ch:
		t.Fatalf("unexpected level %v", v)
	case <-time.After(20 * time.Millisecond):
	}

	h.Unwatch()
	_, ok := <-ch
	assert.False(t, ok)

	// closing the handle stops the watch
	ch, err = h.Watch()
	require.Nil(t, err)
	assert.Nil(t, h.Close())
	for range ch {
	}
	_, err = h.Value()
	assert.Equal(t, ErrHandleClosed, err)
}

func TestNewADCSpec(t *testing.T) {
	patterns := []struct {
		kind     string
		channels int
		err      error
	}{
		{"mcp3008", 8, nil},
		{"mcp3208", 8, nil},
		{"adc0832", 2, nil},
		{"ads1115", 0, ErrInvalidADC},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			spec, err := NewADCSpec(p.kind, ADCLines{Clk: 6, Csz: 5, Di: 19, Do: 13})
			assert.True(t, errors.Is(err, p.err))
			assert.Equal(t, p.channels, spec.Channels)
			if err == nil {
				assert.NotNil(t, spec.Open)
			}
		}
		t.Run(p.kind, tf)
	}
}

func TestADCHeader(t *testing.T) {
	h := ADCHeader(2)
	assert.Equal(t, "ADC", h.Name)
	require.Len(t, h.Pins, 2)
	assert.Equal(t, AnalogBase+1, h.Pins[1].ID)
	assert.Equal(t, "AIN1", h.Pins[1].Name)
	assert.Equal(t, []gpiopanel.Mode{gpiopanel.AnalogInput}, h.Pins[1].Modes)
}

package gpioio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/periph/conn/gpio"
)

type fakePin struct {
	pull  gpio.Pull
	level gpio.Level
	outs  []gpio.Level
}

func (f *fakePin) In(pull gpio.Pull, edge gpio.Edge) error {
	f.pull = pull
	return nil
}

func (f *fakePin) Read() gpio.Level {
	return f.level
}

func (f *fakePin) Out(l gpio.Level) error {
	f.outs = append(f.outs, l)
	return nil
}

func TestButtonIsActiveLow(t *testing.T) {
	p := &fakePin{level: gpio.High}
	b, err := newButton(p)
	require.NoError(t, err)
	assert.Equal(t, gpio.PullUp, p.pull)
	assert.False(t, b.Pressed())
	p.level = gpio.Low
	assert.True(t, b.Pressed())
}

func TestLEDToggle(t *testing.T) {
	p := &fakePin{}
	l, err := newLED(p)
	require.NoError(t, err)
	require.NoError(t, l.Toggle())
	require.NoError(t, l.Toggle())
	assert.Equal(t, []gpio.Level{gpio.Low, gpio.High, gpio.Low}, p.outs)
}

// Package gpioio wraps the two digital lines the cart uses: the active-low test button and the
// heartbeat LED.
package gpioio

import (
	"fmt"

	"github.com/pkg/errors"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"
)

type Button interface {
	Pressed() bool
}

type LED interface {
	Toggle() error
	Set(on bool) error
}

// pin is the subset of gpio.PinIO that we use.
type pin interface {
	In(pull gpio.Pull, edge gpio.Edge) error
	Read() gpio.Level
	Out(l gpio.Level) error
}

func lookup(name string) (gpio.PinIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialise periph")
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("no such GPIO pin %q", name)
	}
	return p, nil
}

type activeLowButton struct {
	p pin
}

// NewButton configures the named pin as a pulled-up input.  The switch shorts it to ground.
func NewButton(name string) (Button, error) {
	p, err := lookup(name)
	if err != nil {
		return nil, err
	}
	return newButton(p)
}

func newButton(p pin) (Button, error) {
	if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, errors.Wrap(err, "failed to configure button input")
	}
	return &activeLowButton{p: p}, nil
}

func (b *activeLowButton) Pressed() bool {
	return b.p.Read() == gpio.Low
}

type led struct {
	p  pin
	on bool
}

func NewLED(name string) (LED, error) {
	p, err := lookup(name)
	if err != nil {
		return nil, err
	}
	return newLED(p)
}

func newLED(p pin) (LED, error) {
	l := &led{p: p}
	if err := l.Set(false); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *led) Set(on bool) error {
	if err := l.p.Out(gpio.Level(on)); err != nil {
		return errors.Wrap(err, "failed to drive LED")
	}
	l.on = on
	return nil
}

func (l *led) Toggle() error {
	return l.Set(!l.on)
}

// DummyButton is never pressed.
func DummyButton() Button {
	return dummyButton{}
}

type dummyButton struct{}

func (dummyButton) Pressed() bool {
	return false
}

func DummyLED() LED {
	return &dummyLED{}
}

type dummyLED struct {
	on bool
}

func (d *dummyLED) Set(on bool) error {
	d.on = on
	return nil
}

func (d *dummyLED) Toggle() error {
	return d.Set(!d.on)
}

package hardware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tigerbot-team/cartbot/pkg/cart"
	"github.com/tigerbot-team/cartbot/pkg/config"
	"github.com/tigerbot-team/cartbot/pkg/gpioio"
	"github.com/tigerbot-team/cartbot/pkg/joystick"
	"github.com/tigerbot-team/cartbot/pkg/mcp3008"
	"github.com/tigerbot-team/cartbot/pkg/screen"
	"github.com/tigerbot-team/cartbot/pkg/serialdebug"
	"github.com/tigerbot-team/cartbot/pkg/sound"
)

const screenPeriod = 500 * time.Millisecond

type Options struct {
	// Dummy replaces every device with one that logs instead.
	Dummy bool
	// BenchJoystick, if set, is a joystick device that stands in for the operator controls.
	BenchJoystick string
	SerialDebug   bool
}

type Hardware struct {
	cfg  config.Config
	opts Options

	i2c       *I2CController
	inputs    inputSource
	joyState  *joystick.State
	heartbeat gpioio.LED
	player    sound.Interface
	mirror    *screen.Mirror
	debug     serialdebug.Interface

	loops sync.WaitGroup
}

var _ Interface = (*Hardware)(nil)

func New(cfg config.Config, opts Options) (*Hardware, error) {
	h := &Hardware{
		cfg:    cfg,
		opts:   opts,
		mirror: screen.NewMirror(),
	}
	hw := cfg.Hardware

	var button gpioio.Button
	if opts.Dummy {
		fmt.Println("DHW: using dummy devices")
		h.i2c = newI2CController(hw, openDummyDevices)
		button = gpioio.DummyButton()
		h.heartbeat = gpioio.DummyLED()
		h.player = sound.Dummy()
	} else {
		h.i2c = NewI2CController(hw)
		var err error
		button, err = gpioio.NewButton(hw.TestButtonPin)
		if err != nil {
			return nil, err
		}
		h.heartbeat, err = gpioio.NewLED(hw.HeartbeatPin)
		if err != nil {
			return nil, err
		}
		h.player = sound.New(hw.Sounds)
	}

	switch {
	case opts.BenchJoystick != "":
		joy, err := joystick.NewJoystick(opts.BenchJoystick)
		if err != nil {
			h.player.Close()
			return nil, err
		}
		h.joyState = joystick.NewState()
		h.inputs = &benchInputs{
			joy:        joy,
			state:      h.joyState,
			button:     button,
			maxReading: cfg.Cart.MaxReading,
			busVoltage: h.i2c.BusVoltage,
		}
	case opts.Dummy:
		h.inputs = newDummyInputs(cfg.Cart)
	default:
		adc, err := mcp3008.NewSPI(hw.ADCPort)
		if err != nil {
			h.player.Close()
			return nil, err
		}
		h.inputs = &adcInputs{adc: adc, button: button, hw: hw}
	}

	if opts.SerialDebug {
		port := hw.SerialPort
		if opts.Dummy {
			port = ""
		}
		d, err := serialdebug.Open(port, hw.BaudRate)
		if err != nil {
			_ = h.inputs.Close()
			h.player.Close()
			return nil, err
		}
		h.debug = d
	} else {
		h.debug = serialdebug.Dummy()
	}
	return h, nil
}

// Start runs the I2C loop, the screen mirror and, on the bench, the joystick reader.  It returns
// once the I2C devices have been initialised (or have failed to).
func (h *Hardware) Start(ctx context.Context) {
	var initDone sync.WaitGroup
	initDone.Add(1)
	h.loops.Add(1)
	go func() {
		defer h.loops.Done()
		h.i2c.Loop(ctx, &initDone)
	}()

	if !h.opts.Dummy {
		h.loops.Add(1)
		go func() {
			defer h.loops.Done()
			h.mirror.Run(ctx, h.cfg.Hardware.Framebuffer, screenPeriod)
		}()
	}

	if b, ok := h.inputs.(*benchInputs); ok {
		go func() {
			// Exits when the device is closed at shutdown.
			err := b.state.Run(b.joy)
			fmt.Println("HW: joystick reader stopped:", err)
		}()
	}
	initDone.Wait()
}

func (h *Hardware) ReadInputs() (cart.Inputs, error) {
	return h.inputs.ReadInputs()
}

func (h *Hardware) Motors() cart.Motors {
	return h.i2c
}

func (h *Hardware) Display() cart.Display {
	return &mirroredDisplay{i2c: h.i2c, mirror: h.mirror}
}

func (h *Hardware) ToggleHeartbeat() {
	if err := h.heartbeat.Toggle(); err != nil {
		fmt.Println("HW: failed to toggle heartbeat", err)
	}
}

func (h *Hardware) DebugDump(x, y, vbat, venable int) {
	h.debug.Dump(x, y, vbat, venable)
}

func (h *Hardware) ShowStatus(state cart.StateID, vbat int) {
	h.mirror.SetStatus(state.String(), screen.Charge(vbat, h.cfg.Cart.VBatMin, h.cfg.Cart.VBatMax))
}

func (h *Hardware) PlaySound(cue string) {
	h.player.Play(cue)
}

func (h *Hardware) Shutdown() {
	fmt.Println("HW: Shutting down")
	h.loops.Wait()
	if err := h.heartbeat.Set(false); err != nil {
		fmt.Println("HW: failed to turn off heartbeat", err)
	}
	_ = h.inputs.Close()
	_ = h.debug.Close()
	h.player.Close()
	fmt.Println("HW: Shut down")
}

// mirroredDisplay copies each row to the framebuffer mirror on its way to the LCD.
type mirroredDisplay struct {
	i2c    *I2CController
	mirror *screen.Mirror
}

func (d *mirroredDisplay) Print(row int, text string) error {
	d.mirror.SetRow(row, text)
	return d.i2c.Print(row, text)
}

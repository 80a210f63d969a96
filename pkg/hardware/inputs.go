package hardware

import (
	"github.com/tigerbot-team/cartbot/pkg/cart"
	"github.com/tigerbot-team/cartbot/pkg/config"
	"github.com/tigerbot-team/cartbot/pkg/gpioio"
	"github.com/tigerbot-team/cartbot/pkg/joystick"
	"github.com/tigerbot-team/cartbot/pkg/mcp3008"
)

// Battery divider and A/D reference, matching the thresholds in the cart config.
const (
	dividerHigh = 10e3
	dividerLow  = 5.1e3
	adcVolts    = 5.00
	adcCounts   = 1024

	// benchVolts stands in for the battery when there is no power sensor.
	benchVolts = 12.6
)

// adcInputs reads the operator controls through the MCP3008.
type adcInputs struct {
	adc    mcp3008.Interface
	button gpioio.Button
	hw     config.HardwareConfig
}

func (a *adcInputs) ReadInputs() (cart.Inputs, error) {
	var in cart.Inputs
	for _, ch := range []struct {
		dst     *int
		channel int
	}{
		{&in.JoyX, a.hw.ChannelJoyX},
		{&in.JoyY, a.hw.ChannelJoyY},
		{&in.VBat, a.hw.ChannelVBat},
		{&in.VEnable, a.hw.ChannelVEnable},
	} {
		v, err := a.adc.Read(ch.channel)
		if err != nil {
			return in, err
		}
		*ch.dst = v
	}
	in.TestButton = a.button.Pressed()
	return in, nil
}

func (a *adcInputs) Close() error {
	return a.adc.Close()
}

// benchInputs stands a game pad in for the cart's controls.  The left stick is the joystick,
// holding Cross closes the enable switch and Circle is the test button.
type benchInputs struct {
	joy        *joystick.Joystick
	state      *joystick.State
	button     gpioio.Button
	maxReading int
	busVoltage func() (float64, bool)
}

func (b *benchInputs) ReadInputs() (cart.Inputs, error) {
	volts, ok := b.busVoltage()
	if !ok {
		volts = benchVolts
	}
	in := cart.Inputs{
		JoyX:       joystick.AxisToCounts(b.state.Axis(joystick.AxisLStickX), b.maxReading, false),
		JoyY:       joystick.AxisToCounts(b.state.Axis(joystick.AxisLStickY), b.maxReading, true),
		VBat:       VoltsToCounts(volts, b.maxReading),
		TestButton: b.state.Button(joystick.ButtonCircle) || b.button.Pressed(),
	}
	if b.state.Button(joystick.ButtonCross) {
		in.VEnable = in.VBat
	}
	return in, nil
}

func (b *benchInputs) Close() error {
	if b.joy == nil {
		return nil
	}
	return b.joy.Close()
}

// VoltsToCounts gives the A/D reading the battery divider would produce for a battery voltage.
func VoltsToCounts(volts float64, maxReading int) int {
	counts := int(volts * dividerLow / (dividerHigh + dividerLow) / adcVolts * adcCounts)
	if counts < 0 {
		return 0
	}
	if counts > maxReading {
		return maxReading
	}
	return counts
}

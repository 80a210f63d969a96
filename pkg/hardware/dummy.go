package hardware

import (
	"fmt"

	"github.com/tigerbot-team/cartbot/pkg/cart"
	"github.com/tigerbot-team/cartbot/pkg/config"
	"github.com/tigerbot-team/cartbot/pkg/ina219"
	"github.com/tigerbot-team/cartbot/pkg/lcd"
	"github.com/tigerbot-team/cartbot/pkg/pca9685"
)

func openDummyDevices(hw config.HardwareConfig) (*devices, error) {
	fmt.Println("DHW: opening I2C devices")
	return &devices{
		pwm:   pca9685.Dummy(),
		lcd:   lcd.Dummy(),
		power: ina219.Dummy(benchVolts),
	}, nil
}

// dummyInputs holds the controls at rest with a healthy battery and the enable switch open.
type dummyInputs struct {
	in cart.Inputs
}

func newDummyInputs(cfg config.CartConfig) *dummyInputs {
	return &dummyInputs{
		in: cart.Inputs{
			JoyX: cfg.Center,
			JoyY: cfg.Center,
			VBat: VoltsToCounts(benchVolts, cfg.MaxReading),
		},
	}
}

func (d *dummyInputs) ReadInputs() (cart.Inputs, error) {
	return d.in, nil
}

func (d *dummyInputs) Close() error {
	fmt.Println("DHW: closing inputs")
	return nil
}

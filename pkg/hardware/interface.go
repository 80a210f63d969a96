package hardware

import (
	"context"

	"github.com/tigerbot-team/cartbot/pkg/cart"
)

type Interface interface {
	Start(ctx context.Context)

	// ReadInputs samples the operator controls, the battery and the enable line.
	ReadInputs() (cart.Inputs, error)

	Motors() cart.Motors
	Display() cart.Display

	ToggleHeartbeat()
	DebugDump(x, y, vbat, venable int)
	ShowStatus(state cart.StateID, vbat int)
	PlaySound(cue string)

	// Shutdown waits for the loops started by Start to exit (the caller cancels their context)
	// and then closes the devices.
	Shutdown()
}

// I2CInterface is the part of the hardware that lives on the shared I2C bus.
type I2CInterface interface {
	cart.Motors
	cart.Display
	BusVoltage() (volts float64, ok bool)
}

type inputSource interface {
	ReadInputs() (cart.Inputs, error)
	Close() error
}

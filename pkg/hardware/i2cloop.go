package hardware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tigerbot-team/cartbot/pkg/config"
	"github.com/tigerbot-team/cartbot/pkg/ina219"
	"github.com/tigerbot-team/cartbot/pkg/lcd"
	"github.com/tigerbot-team/cartbot/pkg/lcdtext"
	"github.com/tigerbot-team/cartbot/pkg/pca9685"
)

const (
	i2cLoopPeriod      = 10 * time.Millisecond
	powerReadingPeriod = time.Second
	recoveryDelay      = 100 * time.Millisecond

	shuntOhms  = 0.1
	maxCurrent = 3.2
)

type devices struct {
	pwm pca9685.Interface
	lcd lcd.Interface
	// power is nil when no INA219 is fitted.
	power ina219.Interface
}

type deviceOpener func(hw config.HardwareConfig) (*devices, error)

type motorState struct {
	left, right int
	attached    bool
}

// I2CController owns the I2C bus.  Other goroutines record what they want the motors and the
// display to show; the loop goroutine pushes it out to the devices.
type I2CController struct {
	lock sync.Mutex

	hw   config.HardwareConfig
	open deviceOpener

	// Desired values.  Stored off in case we need to re-initialise the hardware.
	motors          motorState
	rows            [lcdtext.Rows]string
	rowsWithUpdates map[int]bool

	busVoltage     float64
	haveBusVoltage bool
}

func NewI2CController(hw config.HardwareConfig) *I2CController {
	return newI2CController(hw, openDevices)
}

func newI2CController(hw config.HardwareConfig, open deviceOpener) *I2CController {
	return &I2CController{
		hw:              hw,
		open:            open,
		rowsWithUpdates: map[int]bool{},
	}
}

var _ I2CInterface = (*I2CController)(nil)

// SetPulseWidths records the pulse widths, in microseconds, for the two motors.
func (c *I2CController) SetPulseWidths(left, right int) error {
	c.lock.Lock()
	c.motors = motorState{left: left, right: right, attached: true}
	c.lock.Unlock()
	return nil
}

func (c *I2CController) Release() error {
	c.lock.Lock()
	c.motors.attached = false
	c.lock.Unlock()
	return nil
}

func (c *I2CController) Print(row int, text string) error {
	if row < 0 || row >= lcdtext.Rows {
		return fmt.Errorf("display row %d out of range", row)
	}
	c.lock.Lock()
	if c.rows[row] != text {
		c.rows[row] = text
		c.rowsWithUpdates[row] = true
	}
	c.lock.Unlock()
	return nil
}

func (c *I2CController) BusVoltage() (float64, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.busVoltage, c.haveBusVoltage
}

func (c *I2CController) Loop(ctx context.Context, initDone *sync.WaitGroup) {
	fmt.Println("I2C loop started")
	for {
		c.loopUntilSomethingBadHappens(ctx, initDone)
		if ctx.Err() != nil {
			return
		}
		fmt.Println("===== !!! WARNING !!! I2C FAILURE; TRYING TO RECOVER =====")
		initDone = nil
		time.Sleep(recoveryDelay)
	}
}

func (c *I2CController) loopUntilSomethingBadHappens(ctx context.Context, initDone *sync.WaitGroup) {
	defer func() {
		if initDone != nil {
			initDone.Done()
		}
	}()

	devs, err := c.open(c.hw)
	if err != nil {
		fmt.Println("Failed to open I2C devices", err)
		return
	}
	defer c.closeDevices(devs)

	// Fresh devices know nothing of what was shown before.
	var last *motorState
	c.lock.Lock()
	for i := range c.rows {
		c.rowsWithUpdates[i] = true
	}
	c.lock.Unlock()

	if initDone != nil {
		initDone.Done()
		initDone = nil
	}

	ticker := time.NewTicker(i2cLoopPeriod)
	defer ticker.Stop()
	var lastPowerReadingTime time.Time

	for ctx.Err() == nil {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		last, err = c.syncMotors(devs, last)
		if err != nil {
			fmt.Println("Failed to update motors", err)
			return
		}
		err = c.syncDisplay(devs)
		if err != nil {
			fmt.Println("Failed to update display", err)
			return
		}

		if devs.power != nil && time.Since(lastPowerReadingTime) > powerReadingPeriod {
			c.pollPower(devs)
			lastPowerReadingTime = time.Now()
		}
	}
}

// syncMotors writes the desired motor state if it differs from last, which is nil when nothing
// has been written to this device yet.
func (c *I2CController) syncMotors(devs *devices, last *motorState) (*motorState, error) {
	c.lock.Lock()
	m := c.motors
	c.lock.Unlock()

	if last != nil && *last == m {
		return last, nil
	}
	if m.attached {
		if err := devs.pwm.SetPulseWidth(c.hw.LeftMotorPort, time.Duration(m.left)*time.Microsecond); err != nil {
			return last, err
		}
		if err := devs.pwm.SetPulseWidth(c.hw.RightMotorPort, time.Duration(m.right)*time.Microsecond); err != nil {
			return last, err
		}
	} else {
		if err := c.releaseMotors(devs); err != nil {
			return last, err
		}
	}
	return &m, nil
}

func (c *I2CController) releaseMotors(devs *devices) error {
	if err := devs.pwm.Release(c.hw.LeftMotorPort); err != nil {
		return err
	}
	return devs.pwm.Release(c.hw.RightMotorPort)
}

func (c *I2CController) syncDisplay(devs *devices) error {
	c.lock.Lock()
	var pending []int
	var text []string
	for i := range c.rows {
		if c.rowsWithUpdates[i] {
			pending = append(pending, i)
			text = append(text, c.rows[i])
			delete(c.rowsWithUpdates, i)
		}
	}
	c.lock.Unlock()

	for j, row := range pending {
		if err := devs.lcd.Print(row, text[j]); err != nil {
			c.lock.Lock()
			for _, r := range pending[j:] {
				c.rowsWithUpdates[r] = true
			}
			c.lock.Unlock()
			return err
		}
	}
	return nil
}

func (c *I2CController) pollPower(devs *devices) {
	bv, err := devs.power.ReadBusVoltage()
	if err != nil {
		fmt.Println("Failed to read power sensor; ignoring! ", err)
		return
	}
	c.lock.Lock()
	c.busVoltage = bv
	c.haveBusVoltage = true
	c.lock.Unlock()
}

func (c *I2CController) closeDevices(devs *devices) {
	if err := c.releaseMotors(devs); err != nil {
		fmt.Println("Failed to release motors on exit", err)
	}
	_ = devs.pwm.Close()
	_ = devs.lcd.Close()
	if devs.power != nil {
		_ = devs.power.Close()
	}
}

func openDevices(hw config.HardwareConfig) (*devices, error) {
	pwm, err := pca9685.New(hw.I2CBus, hw.PWMAddr)
	if err != nil {
		return nil, err
	}
	err = pwm.Configure()
	if err != nil {
		_ = pwm.Close()
		return nil, err
	}

	display, err := lcd.New(hw.I2CBus, hw.LCDAddr)
	if err != nil {
		_ = pwm.Close()
		return nil, err
	}
	err = display.Configure()
	if err != nil {
		_ = pwm.Close()
		_ = display.Close()
		return nil, err
	}

	devs := &devices{pwm: pwm, lcd: display}
	if hw.INA219Addr != 0 {
		pwrSen, err := ina219.NewI2C(hw.I2CBus, hw.INA219Addr)
		if err != nil {
			fmt.Println("Failed to open power sensor; ignoring! ", err)
			return devs, nil
		}
		err = pwrSen.Configure(shuntOhms, maxCurrent)
		if err != nil {
			fmt.Println("Failed to configure power sensor; ignoring! ", err)
			_ = pwrSen.Close()
			return devs, nil
		}
		devs.power = pwrSen
	}
	return devs, nil
}

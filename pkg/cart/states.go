package cart

import (
	"fmt"

	"github.com/tigerbot-team/cartbot/pkg/debounce"
	"github.com/tigerbot-team/cartbot/pkg/drivemix"
	"github.com/tigerbot-team/cartbot/pkg/lcdtext"
)

type StateID int

const (
	PowerOn StateID = iota
	Init
	Disabled
	Enabled
	ControlFault
	BatteryFault
	Test
)

func (s StateID) String() string {
	switch s {
	case PowerOn:
		return "PowerOn"
	case Init:
		return "Init"
	case Disabled:
		return "Disabled"
	case Enabled:
		return "Enabled"
	case ControlFault:
		return "ControlFault"
	case BatteryFault:
		return "BatteryFault"
	case Test:
		return "Test"
	default:
		return "None"
	}
}

// State is one of the seven operating states below.  The set is closed: only this package can
// add variants, and every behaviour is a switch over all of them.
type State interface {
	ID() StateID
	state()
}

type PowerOnState struct{}

type InitState struct{}

type DisabledState struct{}

// EnabledState carries the last drive mix so that the display can show it.
type EnabledState struct {
	Drive drivemix.Output
}

type ControlFaultState struct{}

// BatteryFaultState has no way out: the battery has to be recharged and the cart power-cycled.
type BatteryFaultState struct{}

// TestState drives the motors with a coarse mapping and shows the raw inputs.  The diagnostic
// button cycles the units of the input display.
type TestState struct {
	Button debounce.Button
	Left   int
	Right  int
}

func (*PowerOnState) ID() StateID      { return PowerOn }
func (*InitState) ID() StateID         { return Init }
func (*DisabledState) ID() StateID     { return Disabled }
func (*EnabledState) ID() StateID      { return Enabled }
func (*ControlFaultState) ID() StateID { return ControlFault }
func (*BatteryFaultState) ID() StateID { return BatteryFault }
func (*TestState) ID() StateID         { return Test }

func (*PowerOnState) state()      {}
func (*InitState) state()         {}
func (*DisabledState) state()     {}
func (*EnabledState) state()      {}
func (*ControlFaultState) state() {}
func (*BatteryFaultState) state() {}
func (*TestState) state()         {}

func unknownState(s State) string {
	return fmt.Sprintf("Cart: unknown state %T", s)
}

func (c *Cart) enter(s State) {
	switch s := s.(type) {
	case *PowerOnState:
		c.DisableMotors()
		c.setRows(
			"WILSONVILLE ROBOTICS",
			"   FRC TEAM 1425    ",
			"  ERROR CODE XERO   ",
		)
	case *InitState:
		c.DisableMotors()
		c.setRows(
			" CHECKING CONTROLS  ",
			"     please wait    ",
			lcdtext.Blank,
		)
	case *DisabledState:
		c.DisableMotors()
		c.setRows(
			"       READY        ",
			"push button to drive",
			lcdtext.Blank,
		)
	case *EnabledState:
		s.Drive = drivemix.Output{Left: c.cfg.Neutral, Right: c.cfg.Neutral}
		c.SetMotorSpeed(c.cfg.Neutral, c.cfg.Neutral)
		c.setRows(lcdtext.Blank, lcdtext.Blank, lcdtext.Blank)
	case *ControlFaultState:
		c.DisableMotors()
		c.setRows(
			"    SAFETY CHECK    ",
			"     Hands off!     ",
			"Release the controls",
		)
	case *BatteryFaultState:
		c.DisableMotors()
		c.setRows(
			"  BATTERY TOO LOW   ",
			"  Recharge battery  ",
			"  before operating  ",
		)
	case *TestState:
		c.DisableMotors()
		c.setRows(testTemplate[0], testTemplate[1], testTemplate[2])
		s.Button = debounce.New(c.cfg.DebounceTicks)
		s.Left, s.Right = c.cfg.Neutral, c.cfg.Neutral
	default:
		panic(unknownState(s))
	}
}

// updateState evaluates the active state's exit conditions.  At most one transition happens
// per tick.  Battery faults are checked before control faults, which are checked before normal
// progression.
func (c *Cart) updateState() {
	switch s := c.state.(type) {
	case *PowerOnState:
		if c.testButton {
			c.ChangeState(&TestState{})
		} else if c.TimeInState() > c.powerOnTime {
			c.ChangeState(&InitState{})
		}
	case *InitState:
		if c.IsChargeNeeded() {
			c.ChangeState(&BatteryFaultState{})
		} else if c.IsEnabled() || !c.IsJoystickCentered() {
			c.ChangeState(&ControlFaultState{})
		} else if c.TimeInState() > c.initTime {
			c.ChangeState(&DisabledState{})
		}
	case *DisabledState:
		if c.IsChargeNeeded() {
			c.ChangeState(&BatteryFaultState{})
		} else if !c.IsJoystickCentered() {
			c.ChangeState(&ControlFaultState{})
		} else if c.IsEnabled() {
			c.ChangeState(&EnabledState{})
		}
	case *EnabledState:
		if c.IsChargeNeeded() {
			c.ChangeState(&BatteryFaultState{})
		} else if !c.IsEnabled() {
			c.ChangeState(&DisabledState{})
		}
	case *ControlFaultState:
		if c.IsChargeNeeded() {
			c.ChangeState(&BatteryFaultState{})
		} else if !c.IsEnabled() && c.IsJoystickCentered() {
			c.ChangeState(&InitState{})
		}
	case *BatteryFaultState:
	case *TestState:
		s.Button.Update(c.testButton)
	default:
		panic(unknownState(s))
	}
}

func (c *Cart) updateOutputs() {
	switch s := c.state.(type) {
	case *PowerOnState, *InitState, *DisabledState, *ControlFaultState, *BatteryFaultState:
	case *EnabledState:
		s.Drive = drivemix.Mix(c.joyX, c.joyY, c.drive)
		c.SetMotorSpeed(s.Drive.Left, s.Drive.Right)
	case *TestState:
		s.Left, s.Right = drivemix.TwoPosition(c.joyX, c.joyY, c.drive)
		c.SetMotorSpeed(s.Left, s.Right)
	default:
		panic(unknownState(s))
	}
}

func (c *Cart) updateDisplay() {
	switch s := c.state.(type) {
	case *PowerOnState, *BatteryFaultState:
	case *InitState, *DisabledState:
		c.showBatteryStatus()
	case *EnabledState:
		c.showDrive(s.Drive)
		c.showBatteryStatus()
	case *ControlFaultState:
		switch {
		case c.IsEnabled():
			c.setRow(1, " release the button ")
		case !c.IsJoystickCentered():
			c.setRow(1, "release the joystick")
		default:
			c.setRow(1, " release the kraken ")
		}
	case *TestState:
		c.showTestReadings(s)
	default:
		panic(unknownState(s))
	}
	c.setRow(3, lcdtext.FuelGauge(c.vbat, c.cfg.VBatMin, c.cfg.VBatMax))
}

func (c *Cart) setRow(n int, text string) {
	copy(c.screen[n][:], lcdtext.Row(text))
}

func (c *Cart) showBatteryStatus() {
	if c.IsLowBattery() {
		c.setRow(2, "    Low Battery     ")
	} else {
		c.setRow(2, lcdtext.Blank)
	}
}

// showDrive shows the motor pulse widths in the top corners and the stick direction in the
// middle of the display.
func (c *Cart) showDrive(d drivemix.Output) {
	row0 := c.screen[0][:]
	copy(row0, lcdtext.Blank)
	lcdtext.Itoa4Left(row0[0:], d.Left)
	lcdtext.Itoa4Left(row0[16:], d.Right)
	row0[10] = ' '
	if d.Forward > c.cfg.Fast {
		row0[10] = lcdtext.Up
	}

	row1 := c.screen[1][:]
	copy(row1, lcdtext.Blank)
	if d.Turn < 0 {
		row1[9] = lcdtext.Left
	}
	switch {
	case d.Forward > 0:
		row1[10] = lcdtext.Up
	case d.Forward < 0:
		row1[10] = lcdtext.Down
	default:
		row1[10] = lcdtext.Bullet
	}
	if d.Turn > 0 {
		row1[11] = lcdtext.Right
	}
}

var testTemplate = [3]string{
	"Vbat xx.x Venbl xx.x",
	"JoyX xx.x JoyY  xx.x",
	"Left x.xx Right x.xx",
}

const (
	// Battery divider is 10k over 5.1k.
	dividerRatio = 15.1e3 / 5.1e3
	adcVolts     = 5.00
	adcCounts    = 1024
)

func (c *Cart) showTestReadings(s *TestState) {
	c.setRows(testTemplate[0], testTemplate[1], testTemplate[2])
	row0, row1, row2 := c.screen[0][:], c.screen[1][:], c.screen[2][:]

	switch s.Button.Mode() {
	case 0: // A/D counts
		lcdtext.Itoa4(row0[5:], c.vbat)
		lcdtext.Itoa4(row0[16:], c.venable)
		lcdtext.Itoa4(row1[5:], c.joyX)
		lcdtext.Itoa4(row1[16:], c.joyY)
	case 1: // volts at the A/D pin
		lcdtext.Ftoa1x2(row0[5:], float32(c.vbat)*adcVolts/adcCounts)
		lcdtext.Ftoa1x2(row0[16:], float32(c.venable)*adcVolts/adcCounts)
		lcdtext.Ftoa1x2(row1[5:], float32(c.joyX)*adcVolts/adcCounts)
		lcdtext.Ftoa1x2(row1[16:], float32(c.joyY)*adcVolts/adcCounts)
	case 2: // battery volts before the divider, joystick in percent
		lcdtext.Ftoa2x1(row0[5:], float32(c.vbat)*adcVolts/adcCounts*dividerRatio)
		lcdtext.Ftoa2x1(row0[16:], float32(c.venable)*adcVolts/adcCounts*dividerRatio)
		lcdtext.Ftoa2x1(row1[5:], float32(c.joyX)*100/adcCounts)
		lcdtext.Ftoa2x1(row1[16:], float32(c.joyY)*100/adcCounts)
	}
	lcdtext.Ftoa1x2(row2[5:], float32(s.Left)/1000)
	lcdtext.Ftoa1x2(row2[16:], float32(s.Right)/1000)
}

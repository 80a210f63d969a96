package cart

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerbot-team/cartbot/pkg/config"
	"github.com/tigerbot-team/cartbot/pkg/lcdtext"
)

type fakeClock struct {
	ms uint32
}

func (f *fakeClock) Millis() uint32 { return f.ms }

type fakeMotors struct {
	left, right int
	writes      int
	releases    int
	attached    bool
}

func (f *fakeMotors) SetPulseWidths(left, right int) error {
	f.left, f.right = left, right
	f.writes++
	f.attached = true
	return nil
}

func (f *fakeMotors) Release() error {
	f.releases++
	f.attached = false
	return nil
}

type fakeDisplay struct {
	rows    [lcdtext.Rows]string
	prints  int
	onPrint func()
}

func (f *fakeDisplay) Print(row int, text string) error {
	f.rows[row] = text
	f.prints++
	if f.onPrint != nil {
		f.onPrint()
	}
	return nil
}

type harness struct {
	cart        *Cart
	clock       *fakeClock
	motors      *fakeMotors
	display     *fakeDisplay
	transitions []StateID
}

var (
	idle     = Inputs{JoyX: 512, JoyY: 512, VBat: 900, VEnable: 0}
	enabled  = Inputs{JoyX: 512, JoyY: 512, VBat: 900, VEnable: 900}
	offLeft  = Inputs{JoyX: 0, JoyY: 512, VBat: 900, VEnable: 0}
	flatIdle = Inputs{JoyX: 512, JoyY: 512, VBat: 600, VEnable: 0}
)

func newHarness() *harness {
	return newHarnessWith(config.Default().Cart)
}

func newHarnessWith(cfg config.CartConfig) *harness {
	h := &harness{
		clock:   &fakeClock{},
		motors:  &fakeMotors{},
		display: &fakeDisplay{},
	}
	h.cart = New(cfg, h.clock, h.motors, h.display)
	h.cart.OnStateChange = func(from, to StateID) {
		h.transitions = append(h.transitions, to)
	}
	return h
}

// fill ticks without moving the clock until the averaging buffers hold only in.
func (h *harness) fill(in Inputs) {
	for i := 0; i < 50; i++ {
		h.cart.Tick(in)
	}
}

func (h *harness) tick(in Inputs) {
	h.clock.ms += 20
	h.cart.Tick(in)
}

func (h *harness) runUntil(t *testing.T, target StateID, in Inputs, maxTicks int) {
	t.Helper()
	for i := 0; i < maxTicks; i++ {
		h.tick(in)
		if h.cart.State().ID() == target {
			return
		}
	}
	t.Fatalf("state %v not reached after %d ticks, still in %v", target, maxTicks, h.cart.State().ID())
}

func (h *harness) stateID() StateID {
	return h.cart.State().ID()
}

func newDisabledHarness(t *testing.T) *harness {
	return disable(t, newHarness())
}

func disable(t *testing.T, h *harness) *harness {
	h.fill(idle)
	h.runUntil(t, Init, idle, 300)
	h.runUntil(t, Disabled, idle, 200)
	return h
}

func TestStartsInPowerOnWithMotorsDisabled(t *testing.T) {
	h := newHarness()
	h.cart.Tick(idle)
	assert.Equal(t, PowerOn, h.stateID())
	assert.Equal(t, MotorOutput{Left: 1500, Right: 1500}, h.cart.Motors())
	assert.False(t, h.motors.attached)
	assert.Equal(t, "WILSONVILLE ROBOTICS", h.display.rows[0])
}

func TestPowerOnWaitsBeforeInit(t *testing.T) {
	h := newHarness()
	h.cart.Tick(idle)
	h.clock.ms = 5000
	h.cart.Tick(idle)
	assert.Equal(t, PowerOn, h.stateID())
	h.clock.ms = 5001
	h.cart.Tick(idle)
	assert.Equal(t, Init, h.stateID())
	assert.Equal(t, " CHECKING CONTROLS  ", h.display.rows[0])
}

func TestPowerOnTimerSurvivesClockWrap(t *testing.T) {
	h := newHarness()
	h.clock.ms = 0xffffffff - 1000
	h.cart.Tick(idle)
	h.clock.ms += 4000
	h.cart.Tick(idle)
	assert.Equal(t, PowerOn, h.stateID())
	h.clock.ms += 1001
	h.cart.Tick(idle)
	assert.Equal(t, Init, h.stateID())
}

func TestInitToDisabled(t *testing.T) {
	h := newDisabledHarness(t)
	assert.Equal(t, []StateID{PowerOn, Init, Disabled}, h.transitions)
	assert.Equal(t, "       READY        ", h.display.rows[0])
	assert.False(t, h.motors.attached)
}

func TestInitBatteryFaultBeatsControlFault(t *testing.T) {
	h := newHarness()
	in := Inputs{JoyX: 0, JoyY: 512, VBat: 600, VEnable: 600}
	h.fill(in)
	h.cart.ChangeState(&InitState{})
	h.tick(in)
	assert.Equal(t, BatteryFault, h.stateID())
}

func TestInitControlFaultOnlyOnce(t *testing.T) {
	h := newHarness()
	in := Inputs{JoyX: 0, JoyY: 512, VBat: 900, VEnable: 900}
	h.fill(in)
	h.cart.ChangeState(&InitState{})
	h.transitions = nil

	h.tick(in)
	assert.Equal(t, []StateID{ControlFault}, h.transitions)
	assert.Equal(t, " release the button ", h.display.rows[1])
}

func TestDisabledBatteryFaultHasPriority(t *testing.T) {
	h := newHarness()
	in := Inputs{JoyX: 512, JoyY: 512, VBat: 726, VEnable: 0}
	h.fill(in)
	h.cart.ChangeState(&DisabledState{})
	assert.False(t, h.cart.IsChargeNeeded())

	// One sample drags the average below the minimum while the operator is also pushing the
	// stick and the enable button.
	h.tick(Inputs{JoyX: 0, JoyY: 1023, VBat: 0, VEnable: 0})
	assert.True(t, h.cart.IsChargeNeeded())
	assert.Equal(t, BatteryFault, h.stateID())
}

func TestDisabledJoystickFault(t *testing.T) {
	h := newDisabledHarness(t)
	h.tick(offLeft)
	assert.Equal(t, ControlFault, h.stateID())
	assert.Equal(t, "release the joystick", h.display.rows[1])
	assert.Equal(t, "Release the controls", h.display.rows[2])

	// Releasing the stick restarts the safety check.
	h.tick(idle)
	assert.Equal(t, Init, h.stateID())
}

func TestEnableAndDrive(t *testing.T) {
	h := newDisabledHarness(t)
	h.runUntil(t, Enabled, enabled, 60)
	assert.Equal(t, MotorOutput{Left: 1500, Right: 1500, Attached: true}, h.cart.Motors())

	h.tick(Inputs{JoyX: 512, JoyY: 1023, VBat: 900, VEnable: 900})
	require.Equal(t, Enabled, h.stateID())
	assert.Equal(t, 1800, h.motors.left)
	assert.Equal(t, 1800, h.motors.right)
	assert.True(t, h.motors.attached)

	row0 := "1800      " + string(lcdtext.Up) + "     1800"
	assert.Equal(t, row0, h.display.rows[0])
	assert.Equal(t, byte(lcdtext.Up), h.display.rows[1][10])

	h.tick(Inputs{JoyX: 0, JoyY: 512, VBat: 900, VEnable: 900})
	assert.Equal(t, 1358, h.motors.left)
	assert.Equal(t, 1642, h.motors.right)
	assert.Equal(t, byte(lcdtext.Left), h.display.rows[1][9])
	assert.Equal(t, byte(lcdtext.Bullet), h.display.rows[1][10])
	assert.Equal(t, byte(' '), h.display.rows[0][10])

	// Letting go of enable drops back to Disabled and stops the motors.
	h.runUntil(t, Disabled, idle, 60)
	assert.False(t, h.motors.attached)
	assert.Equal(t, MotorOutput{Left: 1500, Right: 1500}, h.cart.Motors())
}

func TestEnabledBatteryFault(t *testing.T) {
	h := newDisabledHarness(t)
	h.runUntil(t, Enabled, enabled, 60)
	h.runUntil(t, BatteryFault, Inputs{JoyX: 512, JoyY: 1023, VBat: 0, VEnable: 0}, 60)
	assert.False(t, h.motors.attached)
	assert.Equal(t, "  BATTERY TOO LOW   ", h.display.rows[0])
}

func TestBatteryFaultIsTerminal(t *testing.T) {
	h := newHarness()
	h.fill(flatIdle)
	h.cart.ChangeState(&InitState{})
	h.tick(flatIdle)
	require.Equal(t, BatteryFault, h.stateID())

	for i := 0; i < 500; i++ {
		h.tick(idle)
	}
	assert.False(t, h.cart.IsChargeNeeded())
	assert.Equal(t, BatteryFault, h.stateID())
	assert.False(t, h.motors.attached)
}

func TestLowBatteryWarning(t *testing.T) {
	h := newHarness()
	in := Inputs{JoyX: 512, JoyY: 512, VBat: 750, VEnable: 0}
	h.fill(in)
	h.cart.ChangeState(&DisabledState{})
	h.tick(in)
	assert.True(t, h.cart.IsLowBattery())
	assert.Equal(t, "    Low Battery     ", h.display.rows[2])
}

func TestReenteringStateResetsTimer(t *testing.T) {
	h := newDisabledHarness(t)
	h.clock.ms += 1234
	assert.Equal(t, uint32(1234), h.cart.TimeInState())

	releases := h.motors.releases
	h.transitions = nil
	h.cart.ChangeState(&DisabledState{})
	assert.Equal(t, uint32(0), h.cart.TimeInState())
	assert.Equal(t, releases+1, h.motors.releases)
	assert.Equal(t, []StateID{Disabled}, h.transitions)
}

func TestTestMode(t *testing.T) {
	h := newHarness()
	in := idle
	in.TestButton = true
	h.fill(idle)
	h.tick(in)
	require.Equal(t, Test, h.stateID())

	assert.Equal(t, "Vbat  900 Venbl    0", h.display.rows[0])
	assert.Equal(t, "JoyX  512 JoyY   512", h.display.rows[1])
	assert.Equal(t, "Left 1.50 Right 1.50", h.display.rows[2])
	assert.True(t, h.motors.attached)

	// Still held from power-on: not a press.
	h.tick(in)
	assert.Equal(t, 0, h.cart.State().(*TestState).Button.Mode())

	// Release, wait out the debounce, press.
	for i := 0; i < 6; i++ {
		h.tick(idle)
	}
	h.tick(in)
	assert.Equal(t, "Vbat 4.39 Venbl 0.00", h.display.rows[0])
	assert.Equal(t, "JoyX 2.50 JoyY  2.50", h.display.rows[1])

	for i := 0; i < 6; i++ {
		h.tick(idle)
	}
	forward := Inputs{JoyX: 512, JoyY: 1023, VBat: 900, VEnable: 0, TestButton: true}
	h.tick(forward)
	assert.Equal(t, "Vbat 13.0 Venbl  0.0", h.display.rows[0])
	assert.Equal(t, "JoyX 50.0 JoyY  99.9", h.display.rows[1])
	assert.Equal(t, "Left 2.00 Right 2.00", h.display.rows[2])
	assert.Equal(t, 2000, h.motors.left)

	// Test mode never leaves on its own.
	for i := 0; i < 500; i++ {
		h.tick(flatIdle)
	}
	assert.Equal(t, Test, h.stateID())
}

func TestFuelGaugeAlwaysDrawn(t *testing.T) {
	h := newHarness()
	h.fill(idle)
	assert.Equal(t, lcdtext.FuelGauge(900, 726, 1023), h.display.rows[3])
	assert.True(t, strings.HasPrefix(h.display.rows[3], string(lcdtext.Vertical)))
}

func TestEveryTickPushesAllRows(t *testing.T) {
	h := newHarness()
	h.cart.Tick(idle)
	h.cart.Tick(idle)
	assert.Equal(t, 2*lcdtext.Rows, h.display.prints)
}

func TestOutOfRangeSamplesAreClamped(t *testing.T) {
	h := newHarness()
	h.fill(Inputs{JoyX: -40, JoyY: 4000, VBat: 5000, VEnable: -1})
	assert.Equal(t, 0, h.cart.JoyX())
	assert.Equal(t, 1023, h.cart.JoyY())
	assert.Equal(t, 1023, h.cart.VBat())
	assert.Equal(t, 0, h.cart.VEnable())
}

func TestReentrantTickIgnored(t *testing.T) {
	h := newHarness()
	nested := 0
	h.display.onPrint = func() {
		nested++
		if nested == 1 {
			h.cart.Tick(offLeft)
		}
	}
	h.cart.Tick(idle)
	// The nested call returned without touching the inputs.
	assert.Equal(t, 512, h.cart.JoyX())
	assert.Equal(t, lcdtext.Rows, h.display.prints)
}

func TestDriveSpeedsAreLeftAligned(t *testing.T) {
	cfg := config.Default().Cart
	cfg.Neutral = 950
	cfg.ReverseLimit = 800
	cfg.ForwardLimit = 1100
	h := disable(t, newHarnessWith(cfg))
	h.runUntil(t, Enabled, enabled, 60)

	h.tick(enabled)
	assert.Equal(t, 950, h.motors.left)
	assert.Equal(t, 950, h.motors.right)
	assert.Equal(t, "950             950 ", h.display.rows[0])
}

// Package cart is the control core of the cart: it owns the filtered inputs, the motor outputs
// and the active operating state, and runs one control tick at a time.
package cart

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/tigerbot-team/cartbot/pkg/averaging"
	"github.com/tigerbot-team/cartbot/pkg/config"
	"github.com/tigerbot-team/cartbot/pkg/drivemix"
	"github.com/tigerbot-team/cartbot/pkg/lcdtext"
)

// Inputs is one tick's worth of raw samples, all in A/D counts except the diagnostic button.
type Inputs struct {
	JoyX    int
	JoyY    int
	VBat    int
	VEnable int

	// TestButton is true while the diagnostic button is pressed.
	TestButton bool
}

// Motors receives pulse widths in microseconds.  Release stops driving both outputs.
type Motors interface {
	SetPulseWidths(left, right int) error
	Release() error
}

// Display shows one fixed-width row.  Implementations are expected to skip rows that have not
// changed.
type Display interface {
	Print(row int, text string) error
}

// Clock returns a free-running millisecond count.  It may wrap.
type Clock interface {
	Millis() uint32
}

type MotorOutput struct {
	Left     int
	Right    int
	Attached bool
}

type Cart struct {
	cfg     config.CartConfig
	drive   drivemix.Params
	clock   Clock
	motors  Motors
	display Display

	powerOnTime uint32
	initTime    uint32

	vbatSamples    *averaging.Channel
	venableSamples *averaging.Channel

	joyX, joyY    int
	vbat, venable int
	testButton    bool

	output MotorOutput

	state     State
	enteredAt uint32

	screen [lcdtext.Rows][lcdtext.Cols]byte

	ticking int32

	// OnStateChange, if set, is called after each transition's entry action.
	OnStateChange func(from, to StateID)
}

func New(cfg config.CartConfig, clock Clock, motors Motors, display Display) *Cart {
	c := &Cart{
		cfg:     cfg,
		drive:   cfg.DriveParams(),
		clock:   clock,
		motors:  motors,
		display: display,

		powerOnTime: millis(cfg.PowerOnTime),
		initTime:    millis(cfg.InitTime),

		vbatSamples:    averaging.New(cfg.NumSamples, cfg.VBatMax),
		venableSamples: averaging.New(cfg.NumSamples, cfg.VBatMax),
	}
	c.vbat = c.vbatSamples.Average()
	c.venable = c.venableSamples.Average()
	for i := range c.screen {
		copy(c.screen[i][:], lcdtext.Blank)
	}
	return c
}

func millis(d time.Duration) uint32 {
	return uint32(d / time.Millisecond)
}

// Start enters the power-on state.  Tick calls it if it has not been called.
func (c *Cart) Start() {
	c.ChangeState(&PowerOnState{})
}

// Tick runs one control cycle: read inputs, evaluate the transition, drive the outputs and
// redraw the display.
func (c *Cart) Tick(in Inputs) {
	if !atomic.CompareAndSwapInt32(&c.ticking, 0, 1) {
		fmt.Println("Cart: re-entrant tick ignored")
		return
	}
	defer atomic.StoreInt32(&c.ticking, 0)

	if c.state == nil {
		c.Start()
	}
	c.readInputs(in)
	c.updateState()
	c.updateOutputs()
	c.updateDisplay()
	c.flushDisplay()
}

func (c *Cart) readInputs(in Inputs) {
	c.joyX = c.clampReading(in.JoyX)
	c.joyY = c.clampReading(in.JoyY)
	c.vbatSamples.Record(c.clampReading(in.VBat))
	c.venableSamples.Record(c.clampReading(in.VEnable))
	c.vbat = c.vbatSamples.Average()
	c.venable = c.venableSamples.Average()
	c.testButton = in.TestButton
}

// clampReading keeps a sample inside the A/D range; anything outside it is a wiring or driver
// fault.
func (c *Cart) clampReading(v int) int {
	if v < 0 {
		return 0
	}
	if v > c.cfg.MaxReading {
		return c.cfg.MaxReading
	}
	return v
}

func (c *Cart) JoyX() int    { return c.joyX }
func (c *Cart) JoyY() int    { return c.joyY }
func (c *Cart) VBat() int    { return c.vbat }
func (c *Cart) VEnable() int { return c.venable }

func (c *Cart) IsLowBattery() bool {
	return c.vbat < c.cfg.VBatLow
}

func (c *Cart) IsChargeNeeded() bool {
	return c.vbat < c.cfg.VBatMin
}

// IsEnabled reports whether the enable switch is closed.  Closing it pulls the enable line up to
// battery voltage, so the two averaged readings agree to within the filter's noise floor.
func (c *Cart) IsEnabled() bool {
	return abs(c.venable-c.vbat) < c.vbatSamples.Len()
}

func (c *Cart) IsJoystickCentered() bool {
	return abs(c.joyX-c.cfg.Center) < c.cfg.Deadband &&
		abs(c.joyY-c.cfg.Center) < c.cfg.Deadband
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// SetMotorSpeed drives both motors with the given pulse widths.
func (c *Cart) SetMotorSpeed(left, right int) {
	c.output = MotorOutput{Left: left, Right: right, Attached: true}
	if err := c.motors.SetPulseWidths(left, right); err != nil {
		fmt.Println("Cart: failed to set motor speeds!", err)
	}
}

// DisableMotors sends neutral to both motors and then stops driving them.
func (c *Cart) DisableMotors() {
	c.output = MotorOutput{Left: c.cfg.Neutral, Right: c.cfg.Neutral}
	if err := c.motors.SetPulseWidths(c.cfg.Neutral, c.cfg.Neutral); err != nil {
		fmt.Println("Cart: failed to neutral motors!", err)
	}
	if err := c.motors.Release(); err != nil {
		fmt.Println("Cart: failed to release motors!", err)
	}
}

func (c *Cart) Motors() MotorOutput {
	return c.output
}

// ChangeState makes s the active state, restarts the time-in-state clock and runs the entry
// action before returning.
func (c *Cart) ChangeState(s State) {
	from := StateID(-1)
	if c.state != nil {
		from = c.state.ID()
	}
	c.state = s
	c.enteredAt = c.clock.Millis()
	fmt.Printf("Cart: %v -> %v\n", from, s.ID())
	c.enter(s)
	if c.OnStateChange != nil {
		c.OnStateChange(from, s.ID())
	}
}

// State returns the active state.  Like the rest of Cart it belongs to the goroutine that calls
// Tick.
func (c *Cart) State() State {
	return c.state
}

// TimeInState is the number of milliseconds since the last ChangeState.
func (c *Cart) TimeInState() uint32 {
	return c.clock.Millis() - c.enteredAt
}

// Screen returns the rows computed by the last tick.
func (c *Cart) Screen() [lcdtext.Rows]string {
	var rows [lcdtext.Rows]string
	for i := range c.screen {
		rows[i] = string(c.screen[i][:])
	}
	return rows
}

func (c *Cart) setRows(rows ...string) {
	for i, r := range rows {
		copy(c.screen[i][:], lcdtext.Row(r))
	}
}

func (c *Cart) flushDisplay() {
	for i := range c.screen {
		if err := c.display.Print(i, string(c.screen[i][:])); err != nil {
			fmt.Println("Cart: failed to update display row", i, err)
		}
	}
}

// SystemClock counts milliseconds since it was created.
type SystemClock struct {
	epoch time.Time
}

func NewSystemClock() *SystemClock {
	return &SystemClock{epoch: time.Now()}
}

func (s *SystemClock) Millis() uint32 {
	return uint32(time.Since(s.epoch) / time.Millisecond)
}

package joystick

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Button and pad mappings for a DualShock 4 on the Linux joydev interface:
//
// Axes
//
//    L stick u/d = 1 (up = -32767; down = +32767)
//            l/r = 0 (left = -32767; right = +32767)
//    R stick u/d = 4 (up = -32767; down = +32767)
//            l/r = 3 (left = -32767; right = +32767)
//    D-pad   u/d = 7
//            l/r = 6

type EventType uint8

const (
	EventTypeButton = 1
	EventTypeAxis   = 2

	// The driver sets this bit on the synthetic events it sends when the device is opened.
	eventTypeInit = 0x80
)

const (
	ButtonCross    = 0
	ButtonCircle   = 1
	ButtonTriangle = 2
	ButtonSquare   = 3
	ButtonL1       = 4
	ButtonR1       = 5
	ButtonL2       = 6
	ButtonR2       = 7
	ButtonShare    = 8
	ButtonOptions  = 9
	ButtonPS       = 10
	ButtonLStick   = 11
	ButtonRStick   = 12

	AxisLStickX = 0
	AxisLStickY = 1
	AxisRStickX = 3
	AxisRStickY = 4
	AxisDPadX   = 6
	AxisDPadY   = 7

	MaxAxis = 32767
)

func (e EventType) String() string {
	switch e {
	case EventTypeAxis:
		return "axis"
	case EventTypeButton:
		return "button"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(e))
	}
}

type Joystick struct {
	device io.ReadCloser

	deviceEpoch    uint32
	wallclockEpoch time.Time
}

type rawEvent struct {
	Time   uint32
	Value  int16
	Type   uint8
	Number uint8
}

type Event struct {
	Time   time.Time
	Value  int16
	Type   EventType
	Number uint8
}

func (e *Event) String() string {
	return fmt.Sprintf("%v(%v)=%v", e.Type, e.Number, e.Value)
}

func NewJoystick(device string) (*Joystick, error) {
	f, err := os.Open(device)
	if err != nil {
		return nil, err
	}
	return newJoystick(f), nil
}

func newJoystick(r io.ReadCloser) *Joystick {
	return &Joystick{
		device: r,
	}
}

func (j *Joystick) ReadEvent() (*Event, error) {
	var rawEvent rawEvent
	err := binary.Read(j.device, binary.LittleEndian, &rawEvent)
	if err != nil {
		return nil, err
	}

	if j.deviceEpoch == 0 {
		j.deviceEpoch = rawEvent.Time
		j.wallclockEpoch = time.Now()
	}

	return &Event{
		Time:   j.wallclockEpoch.Add(time.Duration(rawEvent.Time-j.deviceEpoch) * time.Millisecond),
		Value:  rawEvent.Value,
		Type:   EventType(rawEvent.Type &^ eventTypeInit),
		Number: rawEvent.Number,
	}, nil
}

func (j *Joystick) Close() error {
	return j.device.Close()
}

// State accumulates events into the latest position of every axis and button.  It is safe to
// Apply from the reading goroutine while another goroutine samples it.
type State struct {
	lock    sync.Mutex
	axes    map[uint8]int16
	buttons map[uint8]bool
}

func NewState() *State {
	return &State{
		axes:    map[uint8]int16{},
		buttons: map[uint8]bool{},
	}
}

func (s *State) Apply(e *Event) {
	s.lock.Lock()
	defer s.lock.Unlock()
	switch e.Type {
	case EventTypeAxis:
		s.axes[e.Number] = e.Value
	case EventTypeButton:
		s.buttons[e.Number] = e.Value != 0
	}
}

func (s *State) Axis(n uint8) int16 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.axes[n]
}

func (s *State) Button(n uint8) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.buttons[n]
}

// Run applies events until the device returns an error, which it also returns.
func (s *State) Run(j *Joystick) error {
	for {
		e, err := j.ReadEvent()
		if err != nil {
			return err
		}
		s.Apply(e)
	}
}

// AxisToCounts maps an axis value onto an A/D reading in [0, maxCount], with the axis centre
// landing on the middle count.  Inverted axes read maxCount at -32767.
func AxisToCounts(v int16, maxCount int, inverted bool) int {
	pos := int(v) + MaxAxis
	if pos < 0 {
		// -32768 is possible on some pads.
		pos = 0
	}
	if inverted {
		pos = 2*MaxAxis - pos
	}
	return (pos*maxCount + MaxAxis) / (2 * MaxAxis)
}

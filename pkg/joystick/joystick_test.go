package joystick

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopCloser struct {
	io.Reader
}

func (nopCloser) Close() error { return nil }

func encode(t *testing.T, evs ...rawEvent) *Joystick {
	var buf bytes.Buffer
	for _, e := range evs {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, e))
	}
	return newJoystick(nopCloser{&buf})
}

func TestReadEventStripsInitBit(t *testing.T) {
	j := encode(t,
		rawEvent{Time: 1000, Value: -32767, Type: EventTypeAxis | eventTypeInit, Number: AxisLStickY},
		rawEvent{Time: 1020, Value: 1, Type: EventTypeButton, Number: ButtonCross},
	)

	e, err := j.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, EventType(EventTypeAxis), e.Type)
	assert.Equal(t, uint8(AxisLStickY), e.Number)
	assert.Equal(t, int16(-32767), e.Value)

	e2, err := j.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, EventType(EventTypeButton), e2.Type)
	assert.Equal(t, int64(20), e2.Time.Sub(e.Time).Milliseconds())

	_, err = j.ReadEvent()
	assert.Equal(t, io.EOF, err)
}

func TestStateRun(t *testing.T) {
	j := encode(t,
		rawEvent{Time: 1, Value: 1200, Type: EventTypeAxis, Number: AxisLStickX},
		rawEvent{Time: 2, Value: 1, Type: EventTypeButton, Number: ButtonCircle},
		rawEvent{Time: 3, Value: 0, Type: EventTypeButton, Number: ButtonCircle},
		rawEvent{Time: 4, Value: 1, Type: EventTypeButton, Number: ButtonCross},
	)
	s := NewState()
	err := s.Run(j)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, int16(1200), s.Axis(AxisLStickX))
	assert.Equal(t, int16(0), s.Axis(AxisLStickY))
	assert.False(t, s.Button(ButtonCircle))
	assert.True(t, s.Button(ButtonCross))
}

func TestAxisToCounts(t *testing.T) {
	for _, tc := range []struct {
		v        int16
		inverted bool
		want     int
	}{
		{-32767, false, 0},
		{-32768, false, 0},
		{0, false, 512},
		{32767, false, 1023},
		{-32767, true, 1023},
		{32767, true, 0},
		{0, true, 512},
	} {
		assert.Equal(t, tc.want, AxisToCounts(tc.v, 1023, tc.inverted), "value %d inverted %v", tc.v, tc.inverted)
	}
}

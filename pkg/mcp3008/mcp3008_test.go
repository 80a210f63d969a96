package mcp3008

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	sent  [][]byte
	reply []byte
}

func (f *fakeConn) Tx(w, r []byte) error {
	f.sent = append(f.sent, append([]byte(nil), w...))
	copy(r, f.reply)
	return nil
}

func TestReadCommandAndDecode(t *testing.T) {
	f := &fakeConn{reply: []byte{0xff, 0xfe, 0x34}}
	m := &MCP3008{c: f}

	v, err := m.Read(3)
	require.NoError(t, err)
	assert.Equal(t, 0x234, v)
	require.Len(t, f.sent, 1)
	assert.Equal(t, []byte{0x01, 0xb0, 0x00}, f.sent[0])
}

func TestReadFullScale(t *testing.T) {
	f := &fakeConn{reply: []byte{0, 0x03, 0xff}}
	m := &MCP3008{c: f}
	v, err := m.Read(0)
	require.NoError(t, err)
	assert.Equal(t, MaxReading, v)
	assert.Equal(t, []byte{0x01, 0x80, 0x00}, f.sent[0])
}

func TestReadChannelRange(t *testing.T) {
	m := &MCP3008{c: &fakeConn{}}
	_, err := m.Read(8)
	assert.Error(t, err)
	_, err = m.Read(-1)
	assert.Error(t, err)
}

func TestDummy(t *testing.T) {
	d := Dummy(map[int]int{2: 900})
	v, err := d.Read(2)
	require.NoError(t, err)
	assert.Equal(t, 900, v)
	v, err = d.Read(1)
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

package screen

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerbot-team/cartbot/pkg/lcdtext"
)

func TestEncode565(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, S, S))
	img.Set(0, 0, color.RGBA{R: 0xff, A: 0xff})
	img.Set(1, S-1, color.RGBA{B: 0xff, A: 0xff})
	img.Set(2, 5, color.RGBA{G: 0xff, A: 0xff})

	buf := Encode565(img)
	require.Len(t, buf, S*S*2)

	// Pure red: top five bits of the high byte.
	assert.Equal(t, byte(0xf8), buf[(S-1)*2+1])
	assert.Equal(t, byte(0x00), buf[(S-1)*2])

	// Pure blue: low five bits of the low byte.
	assert.Equal(t, byte(0x00), buf[S*2+1])
	assert.Equal(t, byte(0x1f), buf[S*2])

	// Pure green straddles both bytes.
	i := (S-1-5)*2 + 2*S*2
	assert.Equal(t, byte(0x07), buf[i+1])
	assert.Equal(t, byte(0xe0), buf[i])
}

func TestCharge(t *testing.T) {
	assert.Equal(t, 0.0, Charge(700, 726, 1023))
	assert.Equal(t, 1.0, Charge(1023, 726, 1023))
	assert.InDelta(t, 0.5, Charge(874, 726, 1022), 1e-9)
	assert.Equal(t, 0.0, Charge(900, 10, 10))
}

func TestPrintable(t *testing.T) {
	row := string([]byte{'a', lcdtext.Up, lcdtext.Left, lcdtext.Bullet, lcdtext.Right, lcdtext.Down})
	assert.Equal(t, "a^<o>v", printable(row))
}

func TestMirrorRender(t *testing.T) {
	m := NewMirror()
	for i, r := range []string{"a", "b", "c", "d"} {
		m.SetRow(i, r)
	}
	m.SetRow(7, "ignored")
	m.SetStatus("Disabled", 0.05)
	rows, state, charge := m.snapshot()
	assert.Equal(t, [lcdtext.Rows]string{"a", "b", "c", "d"}, rows)
	assert.Equal(t, "Disabled", state)
	assert.Equal(t, 0.05, charge)

	img := m.Render()
	assert.Equal(t, image.Rect(0, 0, S, S), img.Bounds())
}

// Package screen mirrors the cart's character display and battery level onto a small SPI TFT
// exposed as a 128x128 RGB565 framebuffer.
package screen

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"github.com/fogleman/gg"

	"github.com/tigerbot-team/cartbot/pkg/lcdtext"
)

const (
	S = 128

	frameBytes = S * S * 2
)

type Mirror struct {
	lock   sync.Mutex
	rows   [lcdtext.Rows]string
	state  string
	charge float64
}

func NewMirror() *Mirror {
	return &Mirror{}
}

// SetRow records one row of the character display.
func (m *Mirror) SetRow(row int, text string) {
	if row < 0 || row >= lcdtext.Rows {
		return
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	m.rows[row] = text
}

// SetStatus records the state name and the battery level as a fraction of the usable range.
func (m *Mirror) SetStatus(state string, charge float64) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.state = state
	m.charge = charge
}

func (m *Mirror) snapshot() ([lcdtext.Rows]string, string, float64) {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.rows, m.state, m.charge
}

// Run redraws the framebuffer until the context is cancelled, then blanks it.  A missing
// framebuffer is not an error; the cart runs without the mirror.
func (m *Mirror) Run(ctx context.Context, device string, period time.Duration) {
	f, err := os.OpenFile(device, os.O_RDWR, 0666)
	if err != nil {
		fmt.Println("Screen: failed to open", device+", ignoring")
		return
	}
	defer f.Close()

	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			var buf [frameBytes]byte
			_, _ = f.Seek(0, 0)
			_, _ = f.Write(buf[:])
			return
		case <-ticker.C:
		}

		buf := Encode565(m.Render())
		_, err = f.Seek(0, 0)
		if err != nil {
			fmt.Println("Screen failure: ", err)
			return
		}
		for i := 0; i < S; i++ {
			_, err = f.Write(buf[i*S*2 : (i+1)*S*2])
			if err != nil {
				fmt.Println("Screen failure: ", err)
				return
			}
			time.Sleep(10 * time.Microsecond)
		}
	}
}

func (m *Mirror) Render() image.Image {
	rows, state, charge := m.snapshot()

	dc := gg.NewContext(S, S)
	dc.SetRGB(0, 0, 0.2)
	dc.Clear()

	dc.SetRGBA(1, 0.9, 0, 1)
	dc.DrawString(state, 4, 12)
	for i, r := range rows {
		dc.DrawString(printable(r), 4, 30+float64(i)*14)
	}

	dc.Push()
	dc.Translate(4, 90)
	drawPowerBar(dc, charge)
	dc.Pop()
	if charge < 0.1 {
		dc.Push()
		dc.Translate(S-20, 100)
		DrawWarning(dc)
		dc.Pop()
	}
	return dc.Image()
}

// printable swaps the LCD's custom glyph codes for ASCII the font can draw.
func printable(row string) string {
	b := []byte(row)
	for i, c := range b {
		switch c {
		case lcdtext.Up:
			b[i] = '^'
		case lcdtext.Down:
			b[i] = 'v'
		case lcdtext.Left:
			b[i] = '<'
		case lcdtext.Right:
			b[i] = '>'
		case lcdtext.Bullet:
			b[i] = 'o'
		case lcdtext.Vertical:
			b[i] = '|'
		case lcdtext.Horizontal:
			b[i] = '-'
		}
	}
	return string(b)
}

func drawPowerBar(dc *gg.Context, charge float64) {
	if charge < 0.1 {
		dc.SetRGBA(1, 0.2, 0, 1)
	} else {
		dc.SetRGBA(1, 0.9, 0, 1)
	}
	dc.DrawRectangle(0, 0, 92, 12)
	dc.Stroke()
	for n := 0; n < 20; n++ {
		if charge >= float64(n+1)/20 {
			dc.DrawRectangle(2+float64(n)*4.4, 2, 3.4, 8)
		}
	}
	dc.Fill()
	dc.DrawString(fmt.Sprintf("%3.0f%%", charge*100), 0, 26)
}

func DrawWarning(dc *gg.Context) {
	dc.SetRGB(1, 0.2, 0)
	dc.DrawRegularPolygon(3, 0, 0, 14, 0)
	dc.Fill()
	dc.SetRGBA(0, 0, 0, 0.9)
	dc.DrawString("!", -3, 3)
}

// Encode565 packs the image into the panel's byte order.  The panel is mounted rotated so
// columns of the image become rows of the framebuffer.
func Encode565(img image.Image) []byte {
	buf := make([]byte, frameBytes)
	for y := 0; y < S; y++ {
		for x := 0; x < S; x++ {
			r, g, b, _ := img.At(x, y).RGBA() // 16-bit pre-multiplied

			rb := byte(r >> (16 - 5))
			gb := byte(g >> (16 - 6)) // Green has 6 bits
			bb := byte(b >> (16 - 5))

			buf[(S-1-y)*2+x*S*2+1] = (rb << 3) | (gb >> 3)
			buf[(S-1-y)*2+x*S*2] = bb | (gb << 5)
		}
	}
	return buf
}

// Charge converts a battery reading to a fraction of the range between the cutoff and full.
func Charge(vbat, min, max int) float64 {
	if max <= min {
		return 0
	}
	c := float64(vbat-min) / float64(max-min)
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

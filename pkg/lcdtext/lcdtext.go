// Package lcdtext builds the fixed-width rows shown on the cart's 20x4 character display.
//
// Rows are byte strings rather than runes because the display's custom glyphs live in the
// control-character range.  Numeric fields are always exactly four characters wide; a value that
// does not fit is shown as "----".
package lcdtext

const (
	Cols = 20
	Rows = 4

	FieldWidth = 4
	Overflow   = '-'
)

// Custom glyph codes.  These match the CGRAM slots the LCD driver programs at start-up.
const (
	Up         byte = 0x01
	Down       byte = 0x02
	Left       byte = 0x03
	Right      byte = 0x04
	Bullet     byte = 0x05
	Vertical   byte = 0x06
	Horizontal byte = 0x07
)

// Blank is an empty row.
const Blank = "                    "

// Row returns s padded or truncated to exactly Cols characters.
func Row(s string) string {
	if len(s) >= Cols {
		return s[:Cols]
	}
	return s + Blank[:Cols-len(s)]
}

func overflow(buf []byte) {
	buf[0], buf[1], buf[2], buf[3] = Overflow, Overflow, Overflow, Overflow
}

// Itoa4 writes n right-aligned into buf[0:4].
func Itoa4(buf []byte, n int) {
	if n < 0 || n > 9999 {
		overflow(buf)
		return
	}
	for i := 3; i >= 0; i-- {
		if n == 0 && i < 3 {
			buf[i] = ' '
			continue
		}
		buf[i] = byte('0' + n%10)
		n /= 10
	}
}

// Itoa4Left writes n left-aligned into buf[0:4], blank filled.
func Itoa4Left(buf []byte, n int) {
	if n < 0 || n > 9999 {
		overflow(buf)
		return
	}
	var digits [FieldWidth]byte
	i := len(digits)
	for {
		i--
		digits[i] = byte('0' + n%10)
		n /= 10
		if n == 0 {
			break
		}
	}
	j := copy(buf[:FieldWidth], digits[i:])
	for ; j < FieldWidth; j++ {
		buf[j] = ' '
	}
}

// Ftoa2x1 writes f as "dd.d" (leading blank for values under 10) into buf[0:4].
func Ftoa2x1(buf []byte, f float32) {
	n := int(float32(f*10) + 0.5)
	if n < 0 || n > 999 {
		overflow(buf)
		return
	}
	buf[3] = byte('0' + n%10)
	buf[2] = '.'
	n /= 10
	buf[1] = byte('0' + n%10)
	n /= 10
	if n == 0 {
		buf[0] = ' '
	} else {
		buf[0] = byte('0' + n)
	}
}

// Ftoa1x2 writes f as "d.dd" into buf[0:4].
func Ftoa1x2(buf []byte, f float32) {
	n := int(float32(f*100) + 0.5)
	if n < 0 || n > 999 {
		overflow(buf)
		return
	}
	buf[3] = byte('0' + n%10)
	n /= 10
	buf[2] = byte('0' + n%10)
	buf[1] = '.'
	n /= 10
	buf[0] = byte('0' + n)
}

// FuelGauge draws a bar proportional to vbat between min and max.  The first cell is always
// drawn; every fifth cell is a taller tick mark.
func FuelGauge(vbat, min, max int) string {
	var fuel [Cols]byte
	vbar := 0
	if max > min {
		vbar = Cols * (vbat - min) / (max - min)
	}
	if vbar < 0 {
		vbar = 0
	}
	if vbar > Cols-1 {
		vbar = Cols - 1
	}
	for i := range fuel {
		switch {
		case i > vbar:
			fuel[i] = ' '
		case i%5 == 0:
			fuel[i] = Vertical
		default:
			fuel[i] = Horizontal
		}
	}
	return string(fuel[:])
}

// Package lcd drives an HD44780 20x4 character display through a PCF8574 I2C backpack.
package lcd

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/io/i2c"

	"github.com/tigerbot-team/cartbot/pkg/lcdtext"
)

const (
	DefaultAddr = 0x3f // PCF8574A

	// PCF8574 pin assignments on the backpack.
	pinRS        = 1 << 0
	pinRW        = 1 << 1
	pinEN        = 1 << 2
	pinBacklight = 1 << 3

	cmdClear        = 0x01
	cmdEntryMode    = 0x06 // increment, no shift
	cmdDisplayOff   = 0x08
	cmdDisplayOn    = 0x0c // no cursor, no blink
	cmdFunctionSet  = 0x28 // 4-bit, 2 line, 5x8
	cmdSetCGRAMAddr = 0x40
	cmdSetDDRAMAddr = 0x80
)

var rowOffsets = [lcdtext.Rows]byte{0x00, 0x40, 0x14, 0x54}

// Glyphs are programmed into CGRAM slots matching the lcdtext glyph codes.
var glyphs = map[byte][8]byte{
	lcdtext.Up:         {0x04, 0x0e, 0x1f, 0x00, 0x00, 0x00, 0x00, 0x00},
	lcdtext.Down:       {0x00, 0x00, 0x00, 0x00, 0x00, 0x1f, 0x0e, 0x04},
	lcdtext.Left:       {0x00, 0x04, 0x0c, 0x1c, 0x0c, 0x04, 0x00, 0x00},
	lcdtext.Right:      {0x00, 0x04, 0x06, 0x07, 0x06, 0x04, 0x00, 0x00},
	lcdtext.Bullet:     {0x00, 0x00, 0x0e, 0x1f, 0x1f, 0x0e, 0x00, 0x00},
	lcdtext.Vertical:   {0x0e, 0x0e, 0x0e, 0x0e, 0x0e, 0x0e, 0x0e, 0x0e},
	lcdtext.Horizontal: {0x00, 0x00, 0x1f, 0x1f, 0x1f, 0x1f, 0x00, 0x00},
}

type Interface interface {
	Configure() error
	Print(row int, text string) error
	Close() error
}

type port interface {
	Write(buf []byte) error
	Close() error
}

type LCD struct {
	dev   port
	shown [lcdtext.Rows]string

	// sleep is swapped out by the tests.
	sleep func(time.Duration)
}

func New(deviceFile string, addr int) (Interface, error) {
	dev, err := i2c.Open(&i2c.Devfs{Dev: deviceFile}, addr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open LCD at 0x%x", addr)
	}
	return &LCD{
		dev:   dev,
		sleep: time.Sleep,
	}, nil
}

// Configure runs the HD44780 4-bit initialisation sequence, loads the custom glyphs, clears the
// screen and turns on the backlight.
func (l *LCD) Configure() error {
	l.sleep(50 * time.Millisecond)

	// Force 8-bit mode three times so the controller is in a known state, then switch to 4-bit.
	for _, d := range []time.Duration{4500 * time.Microsecond, 4500 * time.Microsecond, 150 * time.Microsecond} {
		if err := l.writeNibble(0x3, 0); err != nil {
			return errors.Wrap(err, "failed to reset LCD")
		}
		l.sleep(d)
	}
	if err := l.writeNibble(0x2, 0); err != nil {
		return errors.Wrap(err, "failed to enter 4-bit mode")
	}

	for _, cmd := range []byte{cmdFunctionSet, cmdDisplayOff, cmdClear, cmdEntryMode} {
		if err := l.command(cmd); err != nil {
			return err
		}
	}
	l.sleep(2 * time.Millisecond)

	for code := lcdtext.Up; code <= lcdtext.Horizontal; code++ {
		if err := l.createChar(code, glyphs[code]); err != nil {
			return err
		}
	}

	for i := range l.shown {
		l.shown[i] = ""
	}
	return l.command(cmdDisplayOn)
}

func (l *LCD) createChar(slot byte, bitmap [8]byte) error {
	if err := l.command(cmdSetCGRAMAddr | slot<<3); err != nil {
		return err
	}
	for _, b := range bitmap {
		if err := l.data(b); err != nil {
			return errors.Wrapf(err, "failed to load glyph %d", slot)
		}
	}
	return nil
}

// Print shows text on row, skipping the write if the row already shows it.
func (l *LCD) Print(row int, text string) error {
	if row < 0 || row >= lcdtext.Rows {
		return errors.Errorf("LCD row out of range: %d", row)
	}
	text = lcdtext.Row(text)
	if l.shown[row] == text {
		return nil
	}
	if err := l.command(cmdSetDDRAMAddr | rowOffsets[row]); err != nil {
		return err
	}
	for i := 0; i < len(text); i++ {
		if err := l.data(text[i]); err != nil {
			l.shown[row] = ""
			return errors.Wrapf(err, "failed to write LCD row %d", row)
		}
	}
	l.shown[row] = text
	return nil
}

func (l *LCD) Close() error {
	// Leave the backlight off.
	_ = l.dev.Write([]byte{0})
	return l.dev.Close()
}

func (l *LCD) command(b byte) error {
	return l.send(b, 0)
}

func (l *LCD) data(b byte) error {
	return l.send(b, pinRS)
}

func (l *LCD) send(b byte, mode byte) error {
	if err := l.writeNibble(b>>4, mode); err != nil {
		return err
	}
	return l.writeNibble(b&0x0f, mode)
}

// writeNibble clocks four bits into the controller by pulsing EN.
func (l *LCD) writeNibble(nibble byte, mode byte) error {
	out := nibble<<4 | mode | pinBacklight
	if err := l.dev.Write([]byte{out | pinEN}); err != nil {
		return err
	}
	return l.dev.Write([]byte{out &^ pinEN})
}

// Dummy prints rows to stdout when they change.
func Dummy() Interface {
	return &dummyLCD{}
}

type dummyLCD struct {
	shown [lcdtext.Rows]string
}

func (*dummyLCD) Configure() error {
	return nil
}

var glyphText = strings.NewReplacer(
	string(lcdtext.Up), "^",
	string(lcdtext.Down), "v",
	string(lcdtext.Left), "<",
	string(lcdtext.Right), ">",
	string(lcdtext.Bullet), "o",
	string(lcdtext.Vertical), "|",
	string(lcdtext.Horizontal), "=",
)

func (d *dummyLCD) Print(row int, text string) error {
	if row < 0 || row >= lcdtext.Rows || d.shown[row] == text {
		return nil
	}
	d.shown[row] = text
	fmt.Printf("LCD[%d]: [%s]\n", row, glyphText.Replace(text))
	return nil
}

func (*dummyLCD) Close() error {
	return nil
}
